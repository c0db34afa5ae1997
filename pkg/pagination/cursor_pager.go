package pagination

import (
	"github.com/jk2pr/GoGit-KMP/pkg/transport/rest"
)

// CursorPager handles cursor based pagination.
type CursorPager struct {
	BaseReq     *rest.Request
	CursorParam string
	NextPath    string

	nextCursor string
	first      bool
}

// NewCursorPager builds a CursorPager. nextPath is a dotted path to the next
// cursor in the response body; when empty only the first page is fetched.
func NewCursorPager(req *rest.Request, cursorParam, nextPath string) *CursorPager {
	return &CursorPager{
		BaseReq:     req,
		CursorParam: cursorParam,
		NextPath:    nextPath,
		first:       true,
	}
}

// NextRequest returns the next request, or nil when there are no more pages.
func (p *CursorPager) NextRequest() (*rest.Request, error) {
	// If this is not the first call, and nextCursor is empty, we're done.
	if !p.first && p.nextCursor == "" {
		return nil, nil
	}

	req := p.BaseReq.Clone()

	// On the second+ call, add ?cursor=<nextCursor> to the query.
	if !p.first {
		if err := setQuery(req, map[string]string{p.CursorParam: p.nextCursor}); err != nil {
			return nil, err
		}
	}

	p.first = false
	return req, nil
}

// UpdateState reads the next cursor from the response body.
// A missing, null or empty cursor ends pagination.
func (p *CursorPager) UpdateState(resp *rest.Response) error {
	if err := checkStatus(resp); err != nil {
		return err
	}
	if p.NextPath == "" {
		p.nextCursor = ""
		return nil
	}

	body, err := parseBody(resp)
	if err != nil {
		return err
	}

	cur, err := lookupString(body, p.NextPath)
	if err != nil {
		p.nextCursor = ""
		return nil
	}
	p.nextCursor = cur
	return nil
}
