package browser

import (
	"fmt"
	"strings"
	"time"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/smileynet/meshbrowse/internal/assettree"
	"github.com/smileynet/meshbrowse/internal/loading"
	"github.com/smileynet/meshbrowse/internal/navigation"
	"github.com/smileynet/meshbrowse/internal/tui"
)

// DefaultTickInterval is how often the loading coordinator is ticked.
const DefaultTickInterval = 50 * time.Millisecond

// headerHeight is the number of lines above the grid.
const headerHeight = 1

// Option configures a Model.
type Option func(*Model)

// WithTickInterval sets the coordinator tick interval.
func WithTickInterval(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithResults lets cells show fetch outcomes.
func WithResults(r Results) Option {
	return func(m *Model) {
		m.results = r
	}
}

// WithReloads makes the browser swap in trees received on ch.
func WithReloads(ch <-chan TreeChangedMsg) Option {
	return func(m *Model) {
		m.reloads = ch
	}
}

// WithNavigateHook registers fn to be called with the new path after
// every navigation.
func WithNavigateHook(fn func(assettree.Path)) Option {
	return func(m *Model) {
		m.onNavigate = fn
	}
}

// WithStartPath starts browsing at p instead of the root.
func WithStartPath(p assettree.Path) Option {
	return func(m *Model) {
		m.start = p
	}
}

// Model is the root Bubble Tea model of the browser.
type Model struct {
	ctrl   *navigation.Controller
	coord  *loading.Coordinator
	screen *screen

	results    Results
	reloads    <-chan TreeChangedMsg
	onNavigate func(assettree.Path)
	start      assettree.Path
	interval   time.Duration

	keys    keyMap
	help    help.Model
	spinner spinner.Model

	width    int
	height   int
	cursor   int // placement index under the keyboard cursor
	seen     int // screen generation the cursor belongs to
	err      error
	quitting bool
}

// New creates a browser over tree. Loads are issued through loader once
// the program starts.
func New(tree *assettree.Tree, coord *loading.Coordinator, loader navigation.Loader, opts ...Option) Model {
	m := Model{
		coord:    coord,
		interval: DefaultTickInterval,
		keys:     defaultKeys(),
		help:     help.New(),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.screen = newScreen(m.results)
	m.ctrl = navigation.New(tree, coord, loader, m.screen)
	return m
}

// Controller exposes the navigation controller driven by the model.
func (m Model) Controller() *navigation.Controller {
	return m.ctrl
}

// Init starts the first refresh, the coordinator tick, the spinner and
// the reload watch.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return startMsg{} },
		tick(m.interval),
		m.spinner.Tick,
		waitForReload(m.reloads),
	)
}

// Update handles incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case startMsg:
		if len(m.start) > 0 {
			m.ctrl.SetPosition(m.start)
		} else {
			m.ctrl.Start()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.screen.ready = true
		if aspect, ok := m.aspect(); ok {
			m.ctrl.OnViewportResized(aspect)
		}

	case tickMsg:
		m.ctrl.Tick()
		cmd = tick(m.interval)

	case TreeChangedMsg:
		if msg.Err != nil {
			m.err = msg.Err
			logs.Warn(msg.Err)
		} else {
			m.err = nil
			m.ctrl.Reload(msg.Tree)
			logs.WithTag("nodes", msg.Tree.Len()).Info("tree reloaded")
		}
		cmd = waitForReload(m.reloads)

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)

	case tea.MouseMsg:
		m = m.handleMouse(msg)

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		m = m.handleKey(msg)
	}

	return m.syncView(), cmd
}

// handleKey moves the cursor or navigates.
func (m Model) handleKey(msg tea.KeyMsg) Model {
	switch {
	case key.Matches(msg, m.keys.Parent):
		m.ctrl.SelectParent()
	case key.Matches(msg, m.keys.Root):
		m.ctrl.SelectRoot()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		if aspect, ok := m.aspect(); ok {
			m.ctrl.OnViewportResized(aspect)
		}
	case key.Matches(msg, m.keys.Select):
		if child, ok := m.childAt(m.cursor); ok {
			m.ctrl.Dispatch(navigation.Interaction{Kind: navigation.Press, Index: child})
			m.ctrl.Dispatch(navigation.Interaction{Kind: navigation.Release, Index: child})
		}
	case key.Matches(msg, m.keys.Left):
		m = m.moveCursor(0, -1)
	case key.Matches(msg, m.keys.Right):
		m = m.moveCursor(0, 1)
	case key.Matches(msg, m.keys.Up):
		m = m.moveCursor(-1, 0)
	case key.Matches(msg, m.keys.Down):
		m = m.moveCursor(1, 0)
	}

	return m
}

// moveCursor steps the cursor by whole cells and hovers the item under it.
func (m Model) moveCursor(dRow, dCol int) Model {
	v := m.screen.view
	if v.Mode != navigation.ModeGrid || len(v.Placements) == 0 {
		return m
	}
	row, col := gridCell(v.Placements[m.cursor], v)
	target, ok := m.screen.cells()[[2]int{row + dRow, col + dCol}]
	if !ok {
		return m
	}
	m.cursor = target
	m.hover(target)
	return m
}

// handleMouse maps pointer events onto grid cells.
func (m Model) handleMouse(msg tea.MouseMsg) Model {
	idx, ok := m.placementAt(msg.X, msg.Y)
	if !ok {
		if hovered := m.ctrl.Hovered(); hovered >= 0 && msg.Action == tea.MouseActionMotion {
			m.ctrl.Dispatch(navigation.Interaction{Kind: navigation.Leave, Index: hovered})
		}
		return m
	}
	child, _ := m.childAt(idx)

	switch msg.Action {
	case tea.MouseActionMotion:
		m.cursor = idx
		if m.ctrl.Hovered() != child {
			m.hover(idx)
		}
	case tea.MouseActionPress:
		if msg.Button == tea.MouseButtonLeft {
			m.ctrl.Dispatch(navigation.Interaction{Kind: navigation.Press, Index: child})
		}
	case tea.MouseActionRelease:
		m.ctrl.Dispatch(navigation.Interaction{Kind: navigation.Release, Index: child})
	}
	return m
}

func (m Model) hover(idx int) {
	if child, ok := m.childAt(idx); ok {
		m.ctrl.Dispatch(navigation.Interaction{Kind: navigation.Hover, Index: child})
	}
}

// syncView resets the cursor after the controller showed a new view and
// reports the navigation.
func (m Model) syncView() Model {
	if m.screen.generation == m.seen {
		return m
	}
	m.seen = m.screen.generation
	m.cursor = 0
	m.hover(0)
	if m.onNavigate != nil {
		m.onNavigate(m.ctrl.Position())
	}
	return m
}

// childAt returns the child index of the placement at idx in grid mode.
func (m Model) childAt(idx int) (int, bool) {
	v := m.screen.view
	if v.Mode != navigation.ModeGrid || idx < 0 || idx >= len(v.Placements) {
		return 0, false
	}
	return v.Placements[idx].ChildIndex, true
}

// placementAt returns the placement drawn at terminal cell (x, y).
func (m Model) placementAt(x, y int) (int, bool) {
	v := m.screen.view
	areaW, areaH := m.gridArea()
	cellW, cellH := CellSize(areaW, areaH, v.Rows, v.Cols)
	if cellW == 0 || x < 0 || y < headerHeight {
		return 0, false
	}
	idx, ok := m.screen.cells()[[2]int{(y - headerHeight) / cellH, x / cellW}]
	return idx, ok
}

// gridArea is the terminal area available to cells.
func (m Model) gridArea() (width, height int) {
	height = m.height - headerHeight - lipgloss.Height(m.help.View(m.keys))
	return max(m.width, 0), max(height, 0)
}

// aspect converts the grid area to a viewport aspect ratio. Terminal cells
// are about twice as tall as wide.
func (m Model) aspect() (float32, bool) {
	w, h := m.gridArea()
	if w <= 0 || h <= 0 {
		return 0, false
	}
	return float32(w) / float32(2*h), true
}

// View renders the header, the cells and the help bar.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var body string
	switch m.screen.view.Mode {
	case navigation.ModeGrid:
		body = m.viewGrid()
	case navigation.ModeLeaf:
		body = m.viewLeaf()
	default:
		body = dimStyle.Render("(nothing to show)")
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.viewHeader(), body, m.help.View(m.keys))
}

func (m Model) viewHeader() string {
	var status string
	switch {
	case m.err != nil:
		status = errorStyle.Render("reload failed: " + m.err.Error())
	case m.screen.status == loading.StatusReady:
		status = readyStyle.Render("✓ ready")
	default:
		status = fmt.Sprintf("%s loading (%d pending)", m.spinner.View(), m.coord.Pending())
	}

	v := m.screen.view
	mode := v.Mode.String()
	if v.Mode == navigation.ModeGrid {
		mode = fmt.Sprintf("grid %dx%d", v.Rows, v.Cols)
	}

	return fmt.Sprintf("%s  %s  %s", headerStyle.Render(m.breadcrumb()), dimStyle.Render(mode), status)
}

// breadcrumb lists the names from the root down to the current node.
func (m Model) breadcrumb() string {
	node, ok := m.ctrl.Node()
	if !ok {
		return "?"
	}
	var names []string
	for {
		names = append(names, displayName(node.Identifier()))
		parent, ok := node.Parent()
		if !ok {
			break
		}
		node = parent
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, " › ")
}

func (m Model) viewGrid() string {
	v := m.screen.view
	areaW, areaH := m.gridArea()
	cellW, cellH := CellSize(areaW, areaH, v.Rows, v.Cols)
	cells := m.screen.cells()

	rows := make([]string, v.Rows)
	for r := 0; r < v.Rows; r++ {
		cols := make([]string, 0, v.Cols)
		for c := 0; c < v.Cols; c++ {
			idx, ok := cells[[2]int{r, c}]
			if !ok {
				cols = append(cols, lipgloss.NewStyle().Width(cellW).Height(cellH).Render(""))
				continue
			}
			p := v.Placements[idx]
			style := CellBorder(p.ChildIndex == m.screen.highlighted).
				Width(cellW - 2).
				Height(cellH - 2)
			cols = append(cols, style.Render(m.cellContent(p, cellW-2)))
		}
		rows[r] = lipgloss.JoinHorizontal(lipgloss.Top, cols...)
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) viewLeaf() string {
	v := m.screen.view
	if len(v.Placements) == 0 {
		return ""
	}
	areaW, areaH := m.gridArea()
	w, h := CellSize(areaW, areaH, 1, 1)
	content := m.cellContent(v.Placements[0], w-2) + "\n" + dimStyle.Render("camera free")
	return CellBorder(false).Width(w - 2).Height(h - 2).Render(content)
}

// cellContent is the asset name and its fetch state.
func (m Model) cellContent(p navigation.Placement, width int) string {
	state := m.spinner.View()
	if m.results != nil {
		if res, ok := m.results.Result(p.Handle); ok {
			if res.Err != nil {
				state = errorStyle.Render("✗ failed")
			} else {
				state = readyStyle.Render("✓ " + tui.FormatBytes(res.Size))
			}
		}
	}
	return truncate(displayName(p.Identifier), width) + "\n" + state
}
