// Package tui renders the load progress of a view for the headless watch
// command, as a Bubble Tea program on a terminal or as plain text lines.
package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
)

// DisplayEvent is an event sent to a Display via the update channel.
type DisplayEvent interface {
	isDisplayEvent()
}

func (ViewMsg) isDisplayEvent()       {}
func (ItemUpdateMsg) isDisplayEvent() {}
func (StatusMsg) isDisplayEvent()     {}
func (DoneMsg) isDisplayEvent()       {}
func (ErrorMsg) isDisplayEvent()      {}

// Display renders load progress.
type Display interface {
	Run(ctx context.Context, events <-chan DisplayEvent) error
}

// DisplayOptions configures display creation.
type DisplayOptions struct {
	Writer     io.Writer // Output destination (default: os.Stdout).
	ForcePlain bool      // Force plain text even if TTY.
}

// NewDisplay returns a TUI display when the writer is a TTY, or a plain text
// display otherwise. ForcePlain overrides TTY detection.
func NewDisplay(opts DisplayOptions) Display {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}

	if opts.ForcePlain || !isTTY(opts.Writer) {
		return &PlainDisplay{w: opts.Writer, now: time.Now}
	}

	return &TUIDisplay{w: opts.Writer}
}

// isTTY reports whether w is connected to a terminal.
func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// IsTerminal reports whether w is connected to a terminal.
func IsTerminal(w io.Writer) bool {
	return isTTY(w)
}

// Bridge manages the channel between a status producer and a Display consumer.
type Bridge struct {
	ch chan DisplayEvent
}

// NewBridge creates a Bridge with a buffered event channel.
func NewBridge() *Bridge {
	return &Bridge{ch: make(chan DisplayEvent, 64)}
}

// Events returns the read-only channel for Display.Run() to consume.
func (b *Bridge) Events() <-chan DisplayEvent {
	return b.ch
}

// Send delivers an event to the display.
// It blocks if the channel buffer is full.
func (b *Bridge) Send(ev DisplayEvent) {
	b.ch <- ev
}

// Done signals success and closes the channel.
func (b *Bridge) Done() {
	b.ch <- DoneMsg{}
	close(b.ch)
}

// Error signals failure and closes the channel.
func (b *Bridge) Error(err error) {
	b.ch <- ErrorMsg{Err: err}
	close(b.ch)
}

// PlainDisplay renders events as timestamped text lines.
type PlainDisplay struct {
	w     io.Writer
	now   func() time.Time
	items []string
}

// Run loops over events, printing each as a text line.
// Returns the reported error on failure, or the context error if cancelled.
func (d *PlainDisplay) Run(ctx context.Context, events <-chan DisplayEvent) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch msg := ev.(type) {
			case ViewMsg:
				d.items = msg.Items
				d.printf("%s, %d item(s)", viewHeading(msg.Path, msg.Mode, msg.Rows, msg.Cols), len(msg.Items))
			case ItemUpdateMsg:
				d.renderItem(msg)
			case StatusMsg:
				d.printf("%s", statusLine(msg.Status, msg.Elapsed))
			case DoneMsg:
				return nil
			case ErrorMsg:
				return msg.Err
			}
		}
	}
}

func (d *PlainDisplay) renderItem(msg ItemUpdateMsg) {
	name := fmt.Sprintf("#%d", msg.Index)
	if msg.Index >= 0 && msg.Index < len(d.items) {
		name = d.items[msg.Index]
	}
	progress := fmt.Sprintf("%d/%d", msg.Index+1, len(d.items))

	switch msg.Status {
	case ItemLoaded:
		d.printf("[%s] %s loaded (%s)", progress, name, FormatBytes(msg.Size))
	case ItemFailed:
		d.printf("[%s] %s failed: %v", progress, name, msg.Err)
	default:
		d.printf("[%s] %s %s", progress, name, msg.Status)
	}
}

func (d *PlainDisplay) printf(format string, args ...any) {
	now := time.Now
	if d.now != nil {
		now = d.now
	}
	ts := now().Format("15:04:05")
	_, _ = fmt.Fprintf(d.w, "[%s] %s\n", ts, fmt.Sprintf(format, args...))
}

// TUIDisplay renders events using a Bubble Tea terminal UI.
// Falls back to PlainDisplay if the TUI program fails to start.
type TUIDisplay struct {
	w io.Writer
}

// Run starts the Bubble Tea program and feeds events from the channel.
// If the TUI fails to initialize, it falls back to plain text output.
func (d *TUIDisplay) Run(ctx context.Context, events <-chan DisplayEvent) error {
	p := tea.NewProgram(NewModel(), tea.WithOutput(d.w), tea.WithContext(ctx))

	// Forward events through an intermediate channel so we can stop
	// the goroutine cleanly on TUI failure before falling back.
	fwd := make(chan DisplayEvent, 16)
	stop := make(chan struct{})

	go func() {
		defer close(fwd)
		for ev := range events {
			select {
			case fwd <- ev:
			case <-stop:
				return
			}
		}
	}()

	go func() {
		for ev := range fwd {
			p.Send(ev)
		}
	}()

	final, err := p.Run()
	if err != nil {
		close(stop)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		plain := &PlainDisplay{w: d.w, now: time.Now}
		return plain.Run(ctx, events)
	}

	if m, ok := final.(Model); ok && m.err != nil {
		return m.err
	}
	return nil
}
