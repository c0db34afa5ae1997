package graphql

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jk2pr/GoGit-KMP/pkg/errors"
)

// Pager drives cursor paging over a GraphQL connection with thread safety.
// The query must take the cursor as a variable, e.g.
//
//	query($after: String) { viewer { repositories(first: 50, after: $after) {
//	  nodes { name } pageInfo { endCursor hasNextPage } } } }
type Pager struct {
	// Immutable configuration
	builder     *Builder
	client      *Client
	cursorKey   string
	nextPath    []string
	hasNextPath []string

	// Mutable state (protected by mutex)
	mu      sync.Mutex
	cursor  string
	hasNext bool
}

// NewPager returns a Pager over the data of the query in builder.
// nextPath and hasNextPath locate endCursor and hasNextPage inside "data".
// Does NOT execute any requests during creation.
func NewPager(
	builder *Builder,
	client *Client,
	cursorKey string,
	nextPath, hasNextPath []string,
) (*Pager, error) {
	// Validate inputs
	if builder == nil {
		return nil, errors.WrapError(fmt.Errorf("builder cannot be nil"), errors.ErrConfiguration, "create pager")
	}
	if client == nil {
		return nil, errors.WrapError(fmt.Errorf("client cannot be nil"), errors.ErrConfiguration, "create pager")
	}
	if cursorKey == "" {
		return nil, errors.WrapError(fmt.Errorf("cursorKey cannot be empty"), errors.ErrConfiguration, "create pager")
	}
	if len(nextPath) == 0 {
		return nil, errors.WrapError(fmt.Errorf("nextPath cannot be empty"), errors.ErrConfiguration, "create pager")
	}
	if len(hasNextPath) == 0 {
		return nil, errors.WrapError(fmt.Errorf("hasNextPath cannot be empty"), errors.ErrConfiguration, "create pager")
	}

	return &Pager{
		builder:     builder.Clone(),
		client:      client,
		cursorKey:   cursorKey,
		nextPath:    nextPath,
		hasNextPath: hasNextPath,
		hasNext:     true,
	}, nil
}

// SplitPath turns "viewer.repositories.pageInfo.endCursor" into path keys.
func SplitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// Next fetches the next page and returns its data, or (nil, nil) when the
// connection is exhausted. Calls are serialized.
func (p *Pager) Next(ctx context.Context) (map[string]any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.hasNext {
		return nil, nil
	}

	// Work on a copy so the configured variables stay untouched
	b := p.builder.Clone()
	if p.cursor != "" {
		b.Variables[p.cursorKey] = p.cursor
	}

	var data map[string]any
	if _, err := p.client.Do(ctx, b, &data); err != nil {
		return nil, err
	}

	cursor, _ := traverse(data, p.nextPath...).(string)
	hasNext, _ := traverse(data, p.hasNextPath...).(bool)

	// Without a fresh cursor another request would repeat this page
	if cursor == "" || cursor == p.cursor {
		hasNext = false
	}
	p.cursor = cursor
	p.hasNext = hasNext

	return data, nil
}

// All walks every remaining page.
func (p *Pager) All(ctx context.Context) ([]map[string]any, error) {
	var pages []map[string]any
	for {
		page, err := p.Next(ctx)
		if err != nil {
			return pages, err
		}
		if page == nil {
			return pages, nil
		}
		pages = append(pages, page)
	}
}

// HasMore returns whether more pages are available (thread-safe).
func (p *Pager) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasNext
}

// Cursor returns the cursor the next request will send
func (p *Pager) Cursor() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}

// Reset resets pagination to start from the beginning.
func (p *Pager) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.hasNext = true
	p.cursor = ""
}

// traverse digs into nested maps via a path of keys.
func traverse(m map[string]any, path ...string) any {
	cur := any(m)
	for _, key := range path {
		mp, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = mp[key]
	}
	return cur
}
