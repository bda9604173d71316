package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
)

// maxBodySize bounds a single fetched body.
const maxBodySize = 256 << 20

// HTTPSource fetches http and https locators.
type HTTPSource struct {
	Client *http.Client
}

func (s HTTPSource) Fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
}

// FileSource reads file locators from the local filesystem.
type FileSource struct{}

func (FileSource) Fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(filepath.FromSlash(u.Path))
}

// RegisterBuiltins registers the http, https and file sources.
func RegisterBuiltins(reg *Registry, client *http.Client) {
	web := HTTPSource{Client: client}
	reg.Register("http", web)
	reg.Register("https", web)
	reg.Register("file", FileSource{})
}

// DefaultRegistry returns a Registry with the built-in sources.
func DefaultRegistry(client *http.Client) *Registry {
	reg := NewRegistry()
	RegisterBuiltins(reg, client)
	return reg
}
