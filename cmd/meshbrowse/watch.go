package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"

	"github.com/smileynet/meshbrowse/internal/assettree"
	"github.com/smileynet/meshbrowse/internal/fetch"
	"github.com/smileynet/meshbrowse/internal/loading"
	"github.com/smileynet/meshbrowse/internal/navigation"
	"github.com/smileynet/meshbrowse/internal/tui"
)

// WatchCmd loads one tree position without the interactive browser and
// reports progress until the view is ready.
type WatchCmd struct {
	Source      string `arg:"" optional:"" help:"Tree description file or URL. Defaults to the embedded demo."`
	Path        string `help:"Tree path to load, e.g. 0.2." default:"."`
	Timeout     int    `help:"Give up after this many seconds (0 waits forever)." default:"120"`
	MetricsAddr string `help:"Serve prometheus metrics on this address while loading."`
	NoTUI       bool   `help:"Force plain text output even if stdout is a TTY." default:"false"`
}

// Run executes the watch command.
func (w *WatchCmd) Run() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	if w.MetricsAddr != "" {
		cfg.Metrics.Addr = w.MetricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	pos, err := assettree.ParsePath(w.Path)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	// The TUI display owns stdout; log to the file in that case.
	useTUI := !w.NoTUI && tui.IsTerminal(os.Stdout)
	closeLog, err := setupLogging(cfg, useTUI)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	src, err := openSource(cfg, w.Source)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	tree, err := src.read(ctx)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	fetcher := src.fetcher(ctx, cfg)
	defer fetcher.Close()

	if cfg.Metrics.Addr != "" {
		go serveMetrics(ctx, cfg.Metrics.Addr)
	}

	bridge := tui.NewBridge()
	reporter := tui.NewReporter(bridge, fetcher.Result)
	coord := loading.New(loading.WithConfirmationFrames(cfg.Loading.ConfirmationFrames))
	ctrl := navigation.New(tree, coord, fetcher, reporter)

	// Cancelling runCtx stops the driver when the display quits first.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	display := tui.NewDisplay(tui.DisplayOptions{Writer: os.Stdout, ForcePlain: !useTUI})
	events := bridge.Events()
	displayErr := make(chan error, 1)
	go func() {
		err := display.Run(runCtx, events)
		cancel()
		// Keep the reporter unblocked until the bridge is closed.
		for range events {
		}
		displayErr <- err
	}()

	d := driver{
		ctrl:     ctrl,
		reporter: reporter,
		results:  fetcher.Result,
		interval: cfg.Loading.TickInterval,
		timeout:  time.Duration(w.Timeout) * time.Second,
	}
	runErr := d.run(runCtx, pos)
	if runErr != nil {
		bridge.Error(runErr)
	} else {
		bridge.Done()
	}
	dispErr := <-displayErr

	if runErr != nil && runErr != context.Canceled {
		return fmt.Errorf("watch: %w", runErr)
	}
	if dispErr != nil && dispErr != context.Canceled && dispErr != runErr {
		return fmt.Errorf("watch: %w", dispErr)
	}
	return nil
}

// driver ticks a controller until its view is ready.
type driver struct {
	ctrl     *navigation.Controller
	reporter *tui.Reporter
	results  tui.ResultFunc
	interval time.Duration
	timeout  time.Duration
}

// run moves to pos and ticks until the view is Ready. A failed fetch can
// never complete, so the first failure ends the run instead of waiting for
// the timeout.
func (d driver) run(ctx context.Context, pos assettree.Path) error {
	if len(pos) > 0 {
		d.ctrl.SetPosition(pos)
	} else {
		d.ctrl.Start()
	}
	if !d.ctrl.Position().Equal(pos) {
		logs.Warn(errors.New("requested path not found, loading the root").
			WithTag("requested", pos.String()))
	}

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	var deadline <-chan time.Time
	if d.timeout > 0 {
		timer := time.NewTimer(d.timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-deadline:
			return errors.New("view did not become ready").
				WithType(errTypeNotReady).
				WithTag("path", d.ctrl.Position().String()).
				WithTag("timeout", d.timeout.String())

		case <-ticker.C:
			status := d.ctrl.Tick()
			d.reporter.Poll()
			if status == loading.StatusReady {
				return nil
			}
			if res, ok := firstFailure(d.ctrl.View(), d.results); ok {
				return errors.New("asset fetch failed").
					WithType(errTypeNotReady).
					WithTag("locator", res.Locator).
					Wrap(res.Err)
			}
		}
	}
}

// firstFailure returns the first failed fetch of the view's placements.
func firstFailure(v navigation.View, results tui.ResultFunc) (fetch.Result, bool) {
	for _, p := range v.Placements {
		if res, ok := results(p.Handle); ok && res.Err != nil {
			return res, true
		}
	}
	return fetch.Result{}, false
}
