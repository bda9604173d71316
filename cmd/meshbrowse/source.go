package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"time"

	"github.com/aukilabs/go-tooling/pkg/logs"

	"github.com/smileynet/meshbrowse"
	"github.com/smileynet/meshbrowse/internal/assettree"
	"github.com/smileynet/meshbrowse/internal/config"
	"github.com/smileynet/meshbrowse/internal/fetch"
)

// demoOverrideDir may hold a tree.json that replaces the embedded demo.
const demoOverrideDir = ".meshbrowse/demo"

// treeSource is a tree description and the place it was read from.
type treeSource struct {
	key      string   // session key; the normalized locator or meshbrowse.DemoSource
	base     *url.URL // relative asset locators resolve against this; nil for the demo
	file     string   // local path when the description is a file
	registry *fetch.Registry
	maxDepth int
	timeout  time.Duration // bounds reading the description; zero waits forever
}

// openSource prepares the registry and locates the description named by
// locator. An empty locator selects the embedded demo.
func openSource(cfg *config.Config, locator string) (*treeSource, error) {
	src := &treeSource{
		key:      meshbrowse.DemoSource,
		registry: fetch.DefaultRegistry(&http.Client{}),
		maxDepth: cfg.Tree.MaxDepth,
		timeout:  cfg.Fetch.Timeout,
	}
	if locator == "" || locator == meshbrowse.DemoSource {
		return src, nil
	}

	u, err := fetch.ParseLocator(locator)
	if err != nil {
		return nil, err
	}
	if _, err := src.registry.Lookup(u); err != nil {
		return nil, err
	}
	src.key = u.String()
	src.base = u
	if u.Scheme == "file" {
		src.file = filepath.FromSlash(u.Path)
	}
	return src, nil
}

// read fetches and parses the description.
func (s *treeSource) read(ctx context.Context) (*assettree.Tree, error) {
	opts := []assettree.BuildOption{assettree.WithMaxDepth(s.maxDepth)}

	if s.base == nil {
		data, err := meshbrowse.DemoTree(demoOverrideDir)
		if err != nil {
			return nil, fmt.Errorf("reading demo tree: %w", err)
		}
		return assettree.Parse(data, assettree.FormatJSON, opts...)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	data, err := s.registry.FetchURL(ctx, s.base)
	if err != nil {
		return nil, err
	}
	tree, err := assettree.Parse(data, assettree.FormatFromPath(s.base.Path), opts...)
	if err != nil {
		return nil, err
	}

	logs.WithTag("source", s.key).
		WithTag("nodes", tree.Len()).
		Debug("tree loaded")
	return tree, nil
}

// fetcher returns an asset Fetcher sharing the source's registry.
func (s *treeSource) fetcher(ctx context.Context, cfg *config.Config) *fetch.Fetcher {
	return fetch.NewFetcher(ctx, s.registry,
		fetch.WithConcurrency(cfg.Fetch.Concurrency),
		fetch.WithTimeout(cfg.Fetch.Timeout),
		fetch.WithBase(s.base),
	)
}
