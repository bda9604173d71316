package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/alecthomas/kong"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"

	"github.com/smileynet/meshbrowse/internal/config"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// CLI is the top-level command structure for meshbrowse.
type CLI struct {
	Version kong.VersionFlag `help:"Show version." short:"V"`
	Browse  BrowseCmd        `cmd:"" help:"Browse an asset tree interactively."`
	Watch   WatchCmd         `cmd:"" help:"Load one tree position headlessly and report until it is ready."`
	Inspect InspectCmd       `cmd:"" help:"Print the outline of an asset tree."`
	Layout  LayoutCmd        `cmd:"" help:"Print the grid computed for a number of items."`
	Forget  ForgetCmd        `cmd:"" help:"Remove the saved browsing position of a source."`
}

// loadConfig loads layered config from user and project paths with env overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadLayered(
		os.ExpandEnv("$HOME/.config/meshbrowse/config.yaml"),
		".meshbrowse/config.yaml",
	)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setupLogging configures the log level and encoders. When toFile is set,
// entries go to the configured log file so they do not corrupt a full
// screen terminal UI. The returned func closes the file.
func setupLogging(cfg *config.Config, toFile bool) (func(), error) {
	logs.SetLevel(logs.ParseLevel(strings.ToLower(cfg.Log.Level)))
	logs.Encoder = json.Marshal
	errors.Encoder = json.Marshal

	if !toFile || cfg.Log.File == "" {
		return func() {}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	var mu sync.Mutex
	logs.SetLogger(func(e logs.Entry) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintln(f, e)
	})

	return func() {
		logs.SetLogger(func(logs.Entry) {})
		f.Close()
	}, nil
}

// serveMetrics exposes prometheus metrics on addr until ctx is done.
func serveMetrics(ctx context.Context, addr string) {
	var mux http.ServeMux
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           &mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	logs.WithTag("addr", addr).Info("serving metrics")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logs.Warn(errors.New("metrics server failed").WithTag("addr", addr).Wrap(err))
	}
}

// Exit codes.
const (
	exitSuccess  = 0
	exitNotReady = 1
	exitSetup    = 2
)

// errTypeNotReady marks a view that could not finish loading.
const errTypeNotReady = "not_ready"

// exitCode maps an error to the appropriate exit code.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	for e := err; e != nil; e = stderrors.Unwrap(e) {
		if errors.IsType(e, errTypeNotReady) {
			return exitNotReady
		}
	}
	return exitSetup
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("meshbrowse"),
		kong.Description("Browse hierarchical collections of remote 3D assets."),
		kong.Vars{"version": version + " " + commit + " " + date},
	)
	err := ctx.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(exitCode(err))
	}
}
