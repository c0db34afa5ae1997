package pagination

import (
	"fmt"
	"sort"
	"sync"

	"github.com/jk2pr/GoGit-KMP/pkg/errors"
	"github.com/jk2pr/GoGit-KMP/pkg/transport/rest"
)

// Creator builds a Pager or errors on bad opts.
type Creator func(*rest.Request, map[string]any) (Pager, error)

// Factory holds a registry of Pager creators.
type Factory struct {
	mu       sync.RWMutex
	registry map[string]Creator
}

// NewFactory returns an empty Factory.
func NewFactory() *Factory {
	return &Factory{
		registry: make(map[string]Creator),
	}
}

// RegisterPager adds a new Pager creator.
// It errors if something is already registered
func (f *Factory) RegisterPager(kind string, creator Creator) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.registry[kind]; exists {
		return errors.WrapError(
			fmt.Errorf("pager %q already registered", kind),
			errors.ErrConfiguration,
			"register pager",
		)
	}
	f.registry[kind] = creator
	return nil
}

// CreatePager looks up and invokes a creator.
// It returns a wrapped error on missing kind (i.e, cursor, page, link) or bad options.
func (f *Factory) CreatePager(kind string, req *rest.Request, opts map[string]any) (Pager, error) {
	f.mu.RLock()
	creator, ok := f.registry[kind]
	f.mu.RUnlock()
	if !ok {
		return nil, errors.WrapError(
			fmt.Errorf("unsupported pager type: %s", kind),
			errors.ErrConfiguration,
			"create pager",
		)
	}
	pager, err := creator(req, opts)
	if err != nil {
		return nil, errors.WrapError(
			err,
			errors.ErrConfiguration,
			fmt.Sprintf("creating %q pager", kind),
		)
	}
	return pager, nil
}

// GetAvailablePagers returns a sorted list of registered kinds.
func (f *Factory) GetAvailablePagers() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	kinds := make([]string, 0, len(f.registry))
	for kind := range f.registry {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// DefaultFactory is the global registry.
var DefaultFactory = NewFactory()

func init() {
	_ = DefaultFactory.RegisterPager("cursor", cursorCreator)
	_ = DefaultFactory.RegisterPager("page", pageCreator)
	_ = DefaultFactory.RegisterPager("link", linkCreator)
}

func cursorCreator(r *rest.Request, opts map[string]any) (Pager, error) {
	cp, err := getStringOption(opts, "cursorParam")
	if err != nil {
		return nil, err
	}
	np, err := getStringOption(opts, "nextPath")
	if err != nil {
		return nil, err
	}
	return NewCursorPager(r, cp, np), nil
}

func pageCreator(r *rest.Request, opts map[string]any) (Pager, error) {
	pp, err := getStringOption(opts, "pageParam")
	if err != nil {
		return nil, err
	}
	p := NewPagePager(r, pp,
		getOptionalStringOption(opts, "sizeParam"),
		getOptionalIntOption(opts, "startPage", 1),
		getOptionalIntOption(opts, "pageSize", 100),
	)
	p.HasMorePath = getOptionalStringOption(opts, "hasMorePath")
	p.TotalPagesPath = getOptionalStringOption(opts, "totalPagesPath")
	return p, nil
}

func linkCreator(r *rest.Request, _ map[string]any) (Pager, error) {
	return NewLinkPager(r), nil
}

// Helper functions for option extraction
func getStringOption(opts map[string]any, key string) (string, error) {
	v, ok := opts[key]
	if !ok {
		return "", fmt.Errorf("%s missing", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%s must be a non-empty string, got %T", key, v)
	}
	return s, nil
}

func getOptionalStringOption(opts map[string]any, key string) string {
	if s, ok := opts[key].(string); ok {
		return s
	}
	return ""
}

func getOptionalIntOption(opts map[string]any, key string, defaultVal int) int {
	switch x := opts[key].(type) {
	case int:
		return x
	case float64:
		return int(x)
	}
	return defaultVal
}
