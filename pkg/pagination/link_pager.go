package pagination

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/jk2pr/GoGit-KMP/pkg/errors"
	"github.com/jk2pr/GoGit-KMP/pkg/transport/rest"
)

// LinkPager follows rel="next" in the Link response header, as the GitHub
// REST API paginates.
type LinkPager struct {
	BaseReq *rest.Request
	nextURL string
}

// NewLinkPager builds a LinkPager.
func NewLinkPager(req *rest.Request) *LinkPager {
	return &LinkPager{BaseReq: req, nextURL: req.URL}
}

// NextRequest returns the next request or nil when done.
func (p *LinkPager) NextRequest() (*rest.Request, error) {
	if p.nextURL == "" {
		return nil, nil
	}
	req := p.BaseReq.Clone()
	req.URL = p.nextURL
	return req, nil
}

// UpdateState parses Link header and saves next URL.
// The next URL is resolved against the page it came from and must stay on
// the same scheme and host, so the bearer token is never sent elsewhere.
func (p *LinkPager) UpdateState(resp *rest.Response) error {
	if err := checkStatus(resp); err != nil {
		return err
	}
	next := ParseLinkHeader(resp.Header.Get("Link"))["next"]
	if next == "" {
		p.nextURL = ""
		return nil
	}

	nextURL, err := url.Parse(next)
	if err != nil {
		return errors.WrapError(err, errors.ErrPagination, "parse next link")
	}

	current := resp.URL
	if current == nil {
		current, _ = url.Parse(p.nextURL)
	}
	if current != nil && current.IsAbs() {
		nextURL = current.ResolveReference(nextURL)
		if !sameOrigin(current, nextURL) {
			return errors.WrapError(
				fmt.Errorf("next link %s leaves %s://%s", nextURL.Redacted(), current.Scheme, current.Host),
				errors.ErrPagination,
				"update page state",
			)
		}
	} else if nextURL.IsAbs() || nextURL.Host != "" {
		// without an absolute origin there is nothing to check against
		return errors.WrapError(
			fmt.Errorf("absolute next link %s from a relative page", nextURL.Redacted()),
			errors.ErrPagination,
			"update page state",
		)
	}

	p.nextURL = nextURL.String()
	return nil
}

func sameOrigin(a, b *url.URL) bool {
	return strings.EqualFold(a.Scheme, b.Scheme) && strings.EqualFold(a.Host, b.Host)
}

// ParseLinkHeader maps rel values to URLs
func ParseLinkHeader(header string) map[string]string {
	parts := strings.Split(header, ",")
	links := make(map[string]string, len(parts))
	for _, part := range parts {
		seg := strings.Split(strings.TrimSpace(part), ";")
		if len(seg) < 2 {
			continue
		}
		urlPart := strings.Trim(seg[0], "<> ")
		var rel string
		for _, param := range seg[1:] {
			k, v, ok := strings.Cut(strings.TrimSpace(param), "=")
			if ok && k == "rel" {
				rel = strings.Trim(v, `"`)
			}
		}
		// rel may hold several space separated values
		for _, r := range strings.Fields(rel) {
			links[r] = urlPart
		}
	}
	return links
}
