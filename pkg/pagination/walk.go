package pagination

import (
	"context"
	"fmt"

	"github.com/jk2pr/GoGit-KMP/pkg/errors"
	"github.com/jk2pr/GoGit-KMP/pkg/transport/rest"
)

// Walk sends every page produced by p and hands each response to fn.
// maxPages <= 0 means no limit; a pager with pages left past the limit
// fails with errors.ErrPagination. Walk stops at the first error.
func Walk(ctx context.Context, s Sender, p Pager, maxPages int, fn func(*rest.Response) error) error {
	for page := 0; ; page++ {
		req, err := p.NextRequest()
		if err != nil {
			return err
		}
		if req == nil {
			return nil
		}
		if maxPages > 0 && page >= maxPages {
			return errors.WrapError(fmt.Errorf("more than %d pages", maxPages), errors.ErrPagination, "walk")
		}

		resp, err := s.Send(ctx, req)
		if err != nil {
			return err
		}
		if err := p.UpdateState(resp); err != nil {
			return err
		}
		if err := fn(resp); err != nil {
			return err
		}
	}
}
