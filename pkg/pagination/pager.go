package pagination

import (
	"context"

	"github.com/jk2pr/GoGit-KMP/pkg/transport/rest"
)

// Pager drives one pagination strategy.
// NextRequest returns nil when there are no more pages.
type Pager interface {
	NextRequest() (*rest.Request, error)
	UpdateState(resp *rest.Response) error
}

// Sender sends a request through the pipeline, e.g. *core.APIClient
type Sender interface {
	Send(ctx context.Context, req *rest.Request) (*rest.Response, error)
}
