package pagination

import (
	"strconv"

	"github.com/jk2pr/GoGit-KMP/pkg/transport/rest"
)

// PagePager for "page + page_size + has_more" pagination.
type PagePager struct {
	BaseReq        *rest.Request
	PageParam      string // e.g. "page"
	SizeParam      string // e.g. "per_page"
	HasMorePath    string // e.g. "meta.has_more"
	TotalPagesPath string // e.g. "meta.total_pages"

	page    int
	size    int
	first   bool
	hasMore bool
}

// NewPagePager builds a PagePager. startPage below 1 becomes 1 and a
// non-positive pageSize becomes 100.
func NewPagePager(req *rest.Request, pageParam, sizeParam string, startPage, pageSize int) *PagePager {
	if startPage < 1 {
		startPage = 1
	}
	if pageSize <= 0 {
		pageSize = 100
	}
	return &PagePager{
		BaseReq:   req,
		PageParam: pageParam,
		SizeParam: sizeParam,
		page:      startPage,
		size:      pageSize,
		first:     true,
		hasMore:   true,
	}
}

// NextRequest returns the next request, or nil when done.
func (p *PagePager) NextRequest() (*rest.Request, error) {
	if !p.first && !p.hasMore {
		return nil, nil
	}

	//  bump page on second call.
	if !p.first {
		p.page++
	}

	req := p.BaseReq.Clone()
	params := map[string]string{p.PageParam: strconv.Itoa(p.page)}
	if p.SizeParam != "" {
		params[p.SizeParam] = strconv.Itoa(p.size)
	}
	if err := setQuery(req, params); err != nil {
		return nil, err
	}

	p.first = false
	return req, nil
}

// UpdateState inspects the JSON body for pagination control fields.
// Priority: 1) total pages, 2) has more, 3) a full page of items
func (p *PagePager) UpdateState(resp *rest.Response) error {
	if err := checkStatus(resp); err != nil {
		return err
	}

	body, err := parseBody(resp)
	if err != nil {
		return err
	}

	if p.TotalPagesPath != "" {
		// Missing or invalid, fall through to the other methods
		if totalPages, err := lookupInt(body, p.TotalPagesPath); err == nil {
			p.hasMore = p.page < totalPages
			return nil
		}
	}

	if p.HasMorePath != "" {
		more, err := lookupBool(body, p.HasMorePath)
		// Missing or invalid field safely degrade and assume no more pages.
		p.hasMore = err == nil && more
		return nil
	}

	// A short page is the last one
	items, ok := body["data"].([]any)
	p.hasMore = ok && len(items) >= p.size
	return nil
}
