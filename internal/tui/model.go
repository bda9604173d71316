package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/meshbrowse/internal/loading"
)

// ItemStatus is the fetch state of one displayed asset.
type ItemStatus string

const (
	ItemPending ItemStatus = "pending"
	ItemLoaded  ItemStatus = "loaded"
	ItemFailed  ItemStatus = "failed"
)

// ItemState tracks the display state of a single asset of the view.
type ItemState struct {
	Identifier string
	Status     ItemStatus
	Size       int
	Err        error
}

// ViewMsg announces a new view and resets the item list.
type ViewMsg struct {
	Path  string
	Mode  string
	Rows  int
	Cols  int
	Items []string
}

// ItemUpdateMsg reports that the fetch of one item finished.
type ItemUpdateMsg struct {
	Index  int
	Status ItemStatus
	Size   int
	Err    error
}

// StatusMsg reports a loading status change of the view.
type StatusMsg struct {
	Status  loading.Status
	Elapsed time.Duration
}

// DoneMsg signals that watching finished successfully.
type DoneMsg struct{}

// ErrorMsg signals that watching failed.
type ErrorMsg struct {
	Err error
}

// Model is the Bubble Tea model for the load status of one view.
type Model struct {
	path    string
	mode    string
	rows    int
	cols    int
	items   []ItemState
	status  loading.Status
	elapsed time.Duration
	spinner spinner.Model
	width   int
	done    bool
	err     error
}

// NewModel creates an empty Model.
func NewModel() Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return Model{spinner: s}
}

// Init starts the spinner tick.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ViewMsg:
		m.path, m.mode = msg.Path, msg.Mode
		m.rows, m.cols = msg.Rows, msg.Cols
		m.items = make([]ItemState, len(msg.Items))
		for i, id := range msg.Items {
			m.items[i] = ItemState{Identifier: id, Status: ItemPending}
		}
		m.status = loading.StatusLoading
		m.elapsed = 0
		return m, nil

	case ItemUpdateMsg:
		if msg.Index >= 0 && msg.Index < len(m.items) {
			item := &m.items[msg.Index]
			item.Status = msg.Status
			item.Size = msg.Size
			item.Err = msg.Err
		}
		return m, nil

	case StatusMsg:
		m.status = msg.Status
		m.elapsed = msg.Elapsed
		return m, nil

	case DoneMsg:
		m.done = true
		return m, tea.Quit

	case ErrorMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.done = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the item list with status indicators.
func (m Model) View() string {
	var b strings.Builder

	if m.path != "" {
		fmt.Fprintf(&b, "  %s\n", viewHeading(m.path, m.mode, m.rows, m.cols))
	}

	for _, item := range m.items {
		fmt.Fprintf(&b, "  %s %s", itemIndicator(item.Status, m.spinner.View()), item.Identifier)
		switch item.Status {
		case ItemLoaded:
			fmt.Fprintf(&b, " %s", FormatBytes(item.Size))
		case ItemFailed:
			if item.Err != nil {
				fmt.Fprintf(&b, ": %s", item.Err)
			}
		}
		b.WriteString("\n")
	}

	if m.path != "" {
		b.WriteString("\n  " + statusLine(m.status, m.elapsed) + "\n")
	}

	if m.done && m.err != nil {
		fmt.Fprintf(&b, "\n  Error: %s\n", m.err)
	}

	return b.String()
}

func viewHeading(path, mode string, rows, cols int) string {
	if mode == "grid" {
		return fmt.Sprintf("%s (grid %dx%d)", path, rows, cols)
	}
	return fmt.Sprintf("%s (%s)", path, mode)
}

func statusLine(status loading.Status, elapsed time.Duration) string {
	if status == loading.StatusReady {
		return fmt.Sprintf("ready in %.1fs", elapsed.Seconds())
	}
	return "loading…"
}

// itemIndicator returns the Unicode indicator for an item status.
func itemIndicator(status ItemStatus, spinnerView string) string {
	switch status {
	case ItemPending:
		return spinnerView
	case ItemLoaded:
		return "✓"
	case ItemFailed:
		return "✗"
	default:
		return "?"
	}
}

// FormatBytes renders a byte count with a binary unit.
func FormatBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
