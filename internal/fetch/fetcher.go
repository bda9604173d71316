// Package fetch retrieves tree descriptions and assets by locator and
// reports asset completion to the loading coordinator's tick loop.
package fetch

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"golang.org/x/sync/semaphore"

	"github.com/smileynet/meshbrowse/internal/loading"
)

const (
	DefaultConcurrency = 4
	DefaultTimeout     = 30 * time.Second
)

// Result describes a finished fetch.
type Result struct {
	Locator string
	Size    int
	Err     error
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithConcurrency bounds the number of fetches in flight. Values below 1
// are ignored.
func WithConcurrency(n int) Option {
	return func(f *Fetcher) {
		if n >= 1 {
			f.concurrency = n
		}
	}
}

// WithTimeout bounds each fetch. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithBase sets the URL relative asset identifiers are resolved against,
// usually the tree source.
func WithBase(base *url.URL) Option {
	return func(f *Fetcher) {
		f.base = base
	}
}

// Fetcher starts asset fetches in the background. Load and IsComplete may
// be called from the tick context while fetches run.
//
// A failed fetch is logged and never reported complete, so the view it
// belongs to stays Loading.
type Fetcher struct {
	registry    *Registry
	base        *url.URL
	concurrency int
	timeout     time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	sem    *semaphore.Weighted
	wg     sync.WaitGroup

	mu       sync.Mutex
	inflight map[loading.Handle]context.CancelFunc
	results  map[loading.Handle]Result
}

// NewFetcher returns a Fetcher reading through reg. Fetches stop when ctx
// is cancelled or Close is called.
func NewFetcher(ctx context.Context, reg *Registry, opts ...Option) *Fetcher {
	f := &Fetcher{
		registry:    reg,
		concurrency: DefaultConcurrency,
		timeout:     DefaultTimeout,
		inflight:    make(map[loading.Handle]context.CancelFunc),
		results:     make(map[loading.Handle]Result),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.ctx, f.cancel = context.WithCancel(ctx)
	f.sem = semaphore.NewWeighted(int64(f.concurrency))
	return f
}

// Load starts fetching locator for h and returns immediately.
func (f *Fetcher) Load(h loading.Handle, locator string) {
	ctx, cancel := context.WithCancel(f.ctx)

	f.mu.Lock()
	f.inflight[h] = cancel
	f.mu.Unlock()

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		defer cancel()
		f.finish(h, f.fetch(ctx, h, locator))
	}()
}

func (f *Fetcher) fetch(ctx context.Context, h loading.Handle, locator string) Result {
	res := Result{Locator: locator}

	if err := f.sem.Acquire(ctx, 1); err != nil {
		res.Err = err
		return res
	}
	defer f.sem.Release(1)

	u, err := Resolve(f.base, locator)
	if err != nil {
		res.Err = err
		return res
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	start := time.Now()
	data, err := f.registry.FetchURL(ctx, u)
	if err != nil {
		res.Err = err
		return res
	}
	res.Size = len(data)

	logs.WithTag("handle", h.String()).
		WithTag("locator", u.String()).
		WithTag("bytes", res.Size).
		WithTag("duration", time.Since(start).String()).
		Debug("asset fetched")
	return res
}

func (f *Fetcher) finish(h loading.Handle, res Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	// A handle forgotten while its fetch was running is not recorded.
	if _, ok := f.inflight[h]; !ok {
		return
	}
	delete(f.inflight, h)
	f.results[h] = res

	if res.Err != nil {
		logs.WithTag("handle", h.String()).
			WithTag("locator", res.Locator).
			Error(res.Err)
	}
}

// IsComplete reports whether the fetch for h finished successfully.
func (f *Fetcher) IsComplete(h loading.Handle) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.results[h]
	return ok && res.Err == nil
}

// Result returns the outcome of the fetch for h once it has finished.
func (f *Fetcher) Result(h loading.Handle) (Result, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.results[h]
	return res, ok
}

// Forget drops recorded results for handles no longer displayed. Fetches
// still running or queued for them are cancelled, which frees their
// concurrency slot.
func (f *Fetcher) Forget(handles ...loading.Handle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, h := range handles {
		if cancel, ok := f.inflight[h]; ok {
			cancel()
			delete(f.inflight, h)
		}
		delete(f.results, h)
	}
}

// Wait blocks until every started fetch has finished.
func (f *Fetcher) Wait() {
	f.wg.Wait()
}

// Close cancels fetches in flight and waits for them to return.
func (f *Fetcher) Close() {
	f.cancel()
	f.wg.Wait()
}
