package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/aukilabs/go-tooling/pkg/logs"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/smileynet/meshbrowse/internal/assettree"
	"github.com/smileynet/meshbrowse/internal/browser"
	"github.com/smileynet/meshbrowse/internal/config"
	"github.com/smileynet/meshbrowse/internal/layout"
	"github.com/smileynet/meshbrowse/internal/loading"
	"github.com/smileynet/meshbrowse/internal/state"
)

// BrowseCmd opens the interactive browser.
type BrowseCmd struct {
	Source string `arg:"" optional:"" help:"Tree description file or URL. Defaults to the embedded demo."`
	Path   string `help:"Tree path to start at, e.g. 0.2." default:"."`
	Watch  bool   `help:"Reload the tree when its description file changes."`
	Resume bool   `help:"Start at the position saved for this source."`
}

// Run executes the browse command.
func (b *BrowseCmd) Run() error {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return fmt.Errorf("browse: requires a terminal (TTY)")
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("browse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("browse: %w", err)
	}

	closeLog, err := setupLogging(cfg, true)
	if err != nil {
		return fmt.Errorf("browse: %w", err)
	}
	defer closeLog()

	start, err := assettree.ParsePath(b.Path)
	if err != nil {
		return fmt.Errorf("browse: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	src, err := openSource(cfg, b.Source)
	if err != nil {
		return fmt.Errorf("browse: %w", err)
	}
	tree, err := src.read(ctx)
	if err != nil {
		return fmt.Errorf("browse: %w", err)
	}

	store := state.NewFileStore(cfg.State.Dir)
	if b.Resume {
		start = resumePath(store, src.key, start)
	}

	fetcher := src.fetcher(ctx, cfg)
	defer fetcher.Close()

	if cfg.Metrics.Addr != "" {
		go serveMetrics(ctx, cfg.Metrics.Addr)
	}

	opts := []browser.Option{
		browser.WithTickInterval(cfg.Loading.TickInterval),
		browser.WithResults(fetcher),
		browser.WithStartPath(start),
		browser.WithNavigateHook(func(p assettree.Path) {
			if err := store.Save(src.key, p); err != nil {
				logs.Warn(err)
			}
		}),
	}

	if b.Watch {
		if src.file == "" {
			return fmt.Errorf("browse: --watch needs a local tree file")
		}
		tw, err := browser.WatchTree(src.file, func() (*assettree.Tree, error) {
			return src.read(ctx)
		})
		if err != nil {
			return fmt.Errorf("browse: %w", err)
		}
		defer tw.Close()
		opts = append(opts, browser.WithReloads(tw.Changes()))
	}

	coord := loading.New(loading.WithConfirmationFrames(cfg.Loading.ConfirmationFrames))
	m := browser.New(tree, coord, fetcher, opts...)

	logs.WithTag("source", src.key).
		WithTag("nodes", tree.Len()).
		WithTag("version", version).
		Info("starting browser")

	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("browse: %w", err)
	}
	return nil
}

// resumePath returns the saved position for key, or fallback when there is
// none or it cannot be read.
func resumePath(store *state.FileStore, key string, fallback assettree.Path) assettree.Path {
	sess, ok, err := store.Load(key)
	if err != nil {
		logs.Warn(err)
		return fallback
	}
	if !ok {
		return fallback
	}
	p, err := sess.Position()
	if err != nil {
		logs.Warn(err)
		return fallback
	}
	return p
}

// InspectCmd prints a tree outline.
type InspectCmd struct {
	Source string `arg:"" optional:"" help:"Tree description file or URL. Defaults to the embedded demo."`
}

// Run executes the inspect command.
func (i *InspectCmd) Run() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("inspect: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("inspect: %w", err)
	}
	if _, err := setupLogging(cfg, false); err != nil {
		return fmt.Errorf("inspect: %w", err)
	}

	src, err := openSource(cfg, i.Source)
	if err != nil {
		return fmt.Errorf("inspect: %w", err)
	}
	tree, err := src.read(context.Background())
	if err != nil {
		return fmt.Errorf("inspect: %w", err)
	}
	return tree.Outline(os.Stdout)
}

// LayoutCmd prints a computed grid.
type LayoutCmd struct {
	Count  int     `arg:"" help:"Number of items to lay out."`
	Aspect float32 `help:"Viewport aspect ratio (width / height)." default:"1"`
}

// Run executes the layout command.
func (l *LayoutCmd) Run() error {
	grid, err := layout.Compute(l.Count, l.Aspect)
	if err != nil {
		return fmt.Errorf("layout: %w", err)
	}
	return printGrid(os.Stdout, grid)
}

// printGrid writes the grid dimensions and one line per item.
func printGrid(w io.Writer, g layout.Grid) error {
	fmt.Fprintf(w, "grid %dx%d  aspect %.3g  scale %.4f\n", g.Rows, g.Cols, g.Aspect, g.Scale)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ITEM\tROW\tCOL\tX\tY")
	for i, pos := range g.Positions {
		row, col := g.Cell(i)
		fmt.Fprintf(tw, "%d\t%d\t%d\t%.4f\t%.4f\n", i, row, col, pos.X, pos.Y)
	}
	return tw.Flush()
}

// ForgetCmd removes a saved browsing position.
type ForgetCmd struct {
	Source string `arg:"" optional:"" help:"Tree description file or URL. Defaults to the embedded demo."`
}

// Run executes the forget command.
func (f *ForgetCmd) Run() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("forget: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("forget: %w", err)
	}
	return forgetSession(cfg, f.Source)
}

func forgetSession(cfg *config.Config, locator string) error {
	src, err := openSource(cfg, locator)
	if err != nil {
		return fmt.Errorf("forget: %w", err)
	}
	if err := state.NewFileStore(cfg.State.Dir).Remove(src.key); err != nil {
		return fmt.Errorf("forget: %w", err)
	}
	return nil
}
