package navigation

import (
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/chewxy/math32"

	"github.com/smileynet/meshbrowse/internal/assettree"
	"github.com/smileynet/meshbrowse/internal/layout"
	"github.com/smileynet/meshbrowse/internal/loading"
)

// --- Consumer-side interfaces ---

// Loader starts asset fetches and reports their completion.
// Load must not block; IsComplete is polled once per tick.
type Loader interface {
	Load(h loading.Handle, locator string)
	IsComplete(h loading.Handle) bool
}

// Display receives placements and status changes.
type Display interface {
	// PipelinesReady reports whether the display can present loaded assets.
	PipelinesReady() bool
	// Show replaces the displayed content with a freshly requested view.
	Show(v View)
	// Relayout moves the items of the current view without new loads.
	Relayout(v View)
	// Highlight toggles the hover state of a grid item.
	Highlight(index int, on bool)
	// StatusChanged is called whenever the loading status changes.
	StatusChanged(s loading.Status)
}

// Placement is one item the display should show.
type Placement struct {
	Identifier string
	Handle     loading.Handle
	ChildIndex int // token returned on selection; -1 in leaf mode
	Position   layout.Vec2
	Scale      float32
}

// View is everything the display needs for one refresh.
type View struct {
	Mode       ModeKind
	Path       assettree.Path
	Placements []Placement
	Rows, Cols int
	Aspect     float32
}

// CameraFree reports whether the camera may orbit (single-item view).
func (v View) CameraFree() bool {
	return v.Mode == ModeLeaf
}

// Option configures a Controller.
type Option func(*Controller)

// WithAspect sets the initial viewport aspect ratio (width / height).
func WithAspect(aspect float32) Option {
	return func(c *Controller) {
		if validAspect(aspect) {
			c.aspect = aspect
		}
	}
}

// Controller holds the current tree position and drives loading and layout
// when it changes. Every method must be called from the single tick context.
type Controller struct {
	tree    *assettree.Tree
	pos     assettree.Path
	coord   *loading.Coordinator
	loader  Loader
	display Display

	aspect float32
	mode   RenderMode
	view   View
	status loading.Status

	hovered int
	pressed int
}

// New returns a Controller positioned at the root of tree. Nothing is loaded
// until Start or a selection call.
func New(tree *assettree.Tree, coord *loading.Coordinator, loader Loader, display Display, opts ...Option) *Controller {
	c := &Controller{
		tree:    tree,
		pos:     assettree.Path{},
		coord:   coord,
		loader:  loader,
		display: display,
		aspect:  1,
		status:  coord.Status(),
		hovered: -1,
		pressed: -1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start performs the initial refresh at the current position.
func (c *Controller) Start() {
	c.refresh()
}

// SelectChild descends into child i of the current node. An absent position
// or an out-of-range index is ignored; both can only come from stale UI
// state.
func (c *Controller) SelectChild(i int) {
	node, ok := c.current()
	if !ok {
		return
	}
	if i < 0 || i >= node.ChildCount() {
		logs.WithTag("index", i).
			WithTag("path", c.pos.String()).
			Debug("ignoring out-of-range selection")
		return
	}
	c.pos = c.pos.Child(i)
	c.refresh()
}

// SelectRoot returns to the root of the tree.
func (c *Controller) SelectRoot() {
	if _, ok := c.tree.Resolve(assettree.Path{}); !ok {
		return
	}
	c.pos = assettree.Path{}
	c.refresh()
}

// SelectParent moves one level up. It is a no-op at the root.
func (c *Controller) SelectParent() {
	node, ok := c.current()
	if !ok {
		return
	}
	parent, ok := node.Parent()
	if !ok {
		return
	}
	c.pos = parent.Path()
	c.refresh()
}

// SetPosition moves to p, or to the root when p does not resolve.
func (c *Controller) SetPosition(p assettree.Path) {
	if _, ok := c.tree.Resolve(p); ok {
		c.pos = append(assettree.Path{}, p...)
	} else {
		c.pos = assettree.Path{}
	}
	c.refresh()
}

// Reload swaps in a new tree, releasing the old one. The current path is
// kept when it still resolves in the new tree; otherwise the position
// resets to the root.
func (c *Controller) Reload(tree *assettree.Tree) {
	old := c.tree
	c.tree = tree
	if old != nil && old != tree {
		old.Release()
	}
	c.SetPosition(c.pos)
}

// OnViewportResized recomputes grid placements for the new aspect. It
// never issues or registers loads.
func (c *Controller) OnViewportResized(aspect float32) {
	if !validAspect(aspect) {
		return
	}
	c.aspect = aspect
	if c.mode.Kind != ModeGrid {
		c.view.Aspect = aspect
		return
	}
	if _, ok := c.current(); !ok {
		return
	}

	grid, err := layout.Compute(len(c.view.Placements), aspect)
	if err != nil {
		logs.Warn(err)
		return
	}
	c.applyGrid(grid)
	c.display.Relayout(c.view)
}

// Tick polls the loader and display, advances the coordinator and reports
// status changes. It returns the resulting status.
func (c *Controller) Tick() loading.Status {
	c.coord.SetPipelinesReady(c.display.PipelinesReady())
	c.coord.Sweep(c.loader.IsComplete)
	c.setStatus(c.coord.Tick())
	return c.status
}

// Position returns a copy of the current path.
func (c *Controller) Position() assettree.Path {
	return append(assettree.Path{}, c.pos...)
}

// Node resolves the current position.
func (c *Controller) Node() (assettree.Node, bool) {
	return c.current()
}

// Mode returns the render mode of the last refresh.
func (c *Controller) Mode() RenderMode {
	return c.mode
}

// View returns the view of the last refresh or relayout.
func (c *Controller) View() View {
	return c.view
}

// Status returns the last observed loading status.
func (c *Controller) Status() loading.Status {
	return c.status
}

// Tree returns the tree currently being browsed.
func (c *Controller) Tree() *assettree.Tree {
	return c.tree
}

func (c *Controller) current() (assettree.Node, bool) {
	if c.tree == nil {
		return assettree.Node{}, false
	}
	return c.tree.Resolve(c.pos)
}

// refresh abandons pending loads, decides the render mode for the current
// node and issues its loads. Old handles are cleared before new ones are
// registered.
func (c *Controller) refresh() {
	node, ok := c.current()
	if !ok {
		return
	}

	c.coord.Reset()
	c.hovered, c.pressed = -1, -1
	c.mode = RenderModeFor(node)
	c.view = View{Mode: c.mode.Kind, Path: c.Position(), Aspect: c.aspect}

	switch c.mode.Kind {
	case ModeLeaf:
		h := c.request(c.mode.Leaf)
		c.view.Rows, c.view.Cols = 1, 1
		c.view.Placements = []Placement{{
			Identifier: c.mode.Leaf,
			Handle:     h,
			ChildIndex: -1,
			Scale:      1,
		}}

	case ModeGrid:
		c.view.Placements = make([]Placement, len(c.mode.Items))
		for i, item := range c.mode.Items {
			c.view.Placements[i] = Placement{
				Identifier: item.Identifier,
				Handle:     c.request(item.Identifier),
				ChildIndex: item.Index,
			}
		}
		grid, err := layout.Compute(len(c.mode.Items), c.aspect)
		if err != nil {
			logs.Warn(err)
		} else {
			c.applyGrid(grid)
		}
	}

	logs.WithTag("path", c.pos.String()).
		WithTag("mode", c.mode.Kind.String()).
		WithTag("loads", len(c.view.Placements)).
		Debug("navigated")

	c.display.Show(c.view)
	c.status = c.coord.Status()
	c.display.StatusChanged(c.status)
}

// request registers a new handle and starts its load.
func (c *Controller) request(locator string) loading.Handle {
	h := loading.NewHandle()
	c.coord.Register(h)
	c.loader.Load(h, locator)
	return h
}

func (c *Controller) applyGrid(grid layout.Grid) {
	c.view.Rows, c.view.Cols = grid.Rows, grid.Cols
	c.view.Aspect = grid.Aspect

	// Copy so that a view already handed to the display is not mutated.
	placements := make([]Placement, len(c.view.Placements))
	copy(placements, c.view.Placements)
	for i := range placements {
		placements[i].Position = grid.Positions[i]
		placements[i].Scale = grid.Scale
	}
	c.view.Placements = placements
}

func (c *Controller) setStatus(s loading.Status) {
	if s == c.status {
		return
	}
	c.status = s
	c.display.StatusChanged(s)
}

func validAspect(aspect float32) bool {
	return aspect > 0 && !math32.IsNaN(aspect) && !math32.IsInf(aspect, 0)
}
