package fetch

import (
	"context"
	"net/url"
	"sort"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

// Error types returned by this package.
const (
	ErrTypeUnsupportedScheme = "unsupported_scheme"
	ErrTypeFetchFailed       = "fetch_failed"
)

// Source retrieves the bytes behind a locator of one scheme.
type Source interface {
	Fetch(ctx context.Context, u *url.URL) ([]byte, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, u *url.URL) ([]byte, error)

func (f SourceFunc) Fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	return f(ctx, u)
}

// Registry maps URL schemes to sources.
// It is not safe for concurrent registration; register at startup.
type Registry struct {
	sources map[string]Source
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]Source)}
}

// Register adds a source for scheme, replacing any previous one.
// Panics if scheme is empty or s is nil (programmer error).
func (r *Registry) Register(scheme string, s Source) {
	if scheme == "" {
		panic("fetch: Register called with empty scheme")
	}
	if s == nil {
		panic("fetch: Register called with nil source")
	}
	r.sources[strings.ToLower(scheme)] = s
}

// Lookup returns the source registered for the scheme of u.
func (r *Registry) Lookup(u *url.URL) (Source, error) {
	s, ok := r.sources[strings.ToLower(u.Scheme)]
	if !ok {
		return nil, errors.New("unsupported locator scheme").
			WithType(ErrTypeUnsupportedScheme).
			WithTag("scheme", u.Scheme).
			WithTag("available", strings.Join(r.Schemes(), ", "))
	}
	return s, nil
}

// Fetch resolves locator and reads it with the matching source.
func (r *Registry) Fetch(ctx context.Context, locator string) ([]byte, error) {
	u, err := ParseLocator(locator)
	if err != nil {
		return nil, err
	}
	return r.FetchURL(ctx, u)
}

// FetchURL reads u with the source registered for its scheme.
func (r *Registry) FetchURL(ctx context.Context, u *url.URL) ([]byte, error) {
	s, err := r.Lookup(u)
	if err != nil {
		return nil, err
	}
	data, err := s.Fetch(ctx, u)
	if err != nil {
		return nil, errors.New("fetching asset failed").
			WithType(ErrTypeFetchFailed).
			WithTag("locator", u.String()).
			Wrap(err)
	}
	return data, nil
}

// Schemes returns the registered schemes in sorted order.
func (r *Registry) Schemes() []string {
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
