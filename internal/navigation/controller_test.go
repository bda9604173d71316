package navigation

import (
	"reflect"
	"testing"

	"github.com/smileynet/meshbrowse/internal/assettree"
	"github.com/smileynet/meshbrowse/internal/layout"
	"github.com/smileynet/meshbrowse/internal/loading"
)

func TestStart_LoadsRootGrid(t *testing.T) {
	// Given/When: a controller started at the root
	h := newHarness(t)

	// Then: one load per child, in order, all registered
	want := []string{"B", "C", "D"}
	if got := locators(h.loader.loads); !reflect.DeepEqual(got, want) {
		t.Fatalf("loads = %v, want %v", got, want)
	}
	if h.coord.Pending() != 3 {
		t.Errorf("pending = %d, want 3", h.coord.Pending())
	}
	for _, c := range h.loader.loads {
		if !h.coord.IsPending(c.handle) {
			t.Errorf("handle for %s is not pending", c.locator)
		}
	}

	// Then: the display received a grid view and a Loading signal
	if len(h.display.shown) != 1 {
		t.Fatalf("shown = %d, want 1", len(h.display.shown))
	}
	v := h.display.shown[0]
	if v.Mode != ModeGrid || v.CameraFree() {
		t.Errorf("view mode = %v camera free = %v, want fixed grid", v.Mode, v.CameraFree())
	}
	if len(v.Placements) != 3 || v.Rows*v.Cols < 3 {
		t.Errorf("placements = %d in %dx%d, want 3", len(v.Placements), v.Rows, v.Cols)
	}
	for i, p := range v.Placements {
		if p.ChildIndex != i {
			t.Errorf("placement[%d].ChildIndex = %d", i, p.ChildIndex)
		}
		if p.Handle != h.loader.loads[i].handle {
			t.Errorf("placement[%d] handle does not match load", i)
		}
	}
	if len(h.display.statuses) != 1 || h.display.statuses[0] != loading.StatusLoading {
		t.Errorf("statuses = %v, want [loading]", h.display.statuses)
	}
}

func TestSelectChild_CollapsedLeaf(t *testing.T) {
	// Given: a controller at the root
	h := newHarness(t)

	// When: the child with a single leaf child is selected
	h.ctrl.SelectChild(1)

	// Then: the position moves and the grandchild's asset is loaded alone
	if got := h.ctrl.Position(); !reflect.DeepEqual(got, assettree.Path{1}) {
		t.Errorf("position = %v, want [1]", got)
	}
	last := h.loader.loads[len(h.loader.loads)-1]
	if last.locator != "C1" {
		t.Errorf("last load = %q, want C1", last.locator)
	}
	if h.coord.Pending() != 1 || !h.coord.IsPending(last.handle) {
		t.Errorf("pending = %d, want only the C1 handle", h.coord.Pending())
	}
	v := h.ctrl.View()
	if v.Mode != ModeLeaf || !v.CameraFree() {
		t.Errorf("view mode = %v, want leaf with free camera", v.Mode)
	}
	if len(v.Placements) != 1 || v.Placements[0].ChildIndex != -1 {
		t.Errorf("placements = %+v, want one leaf placement", v.Placements)
	}
}

func TestSelectChild_OutOfRangeIsIgnored(t *testing.T) {
	// Given: a controller at the root
	h := newHarness(t)
	loads := len(h.loader.loads)
	shown := len(h.display.shown)

	// When: indices outside the child list are selected
	h.ctrl.SelectChild(3)
	h.ctrl.SelectChild(-1)

	// Then: nothing changes
	if len(h.ctrl.Position()) != 0 {
		t.Errorf("position = %v, want root", h.ctrl.Position())
	}
	if len(h.loader.loads) != loads {
		t.Errorf("loads = %d, want %d", len(h.loader.loads), loads)
	}
	if len(h.display.shown) != shown {
		t.Errorf("shown = %d, want %d", len(h.display.shown), shown)
	}
}

func TestSelectRootAndParent(t *testing.T) {
	// Given: a controller two levels down
	h := newHarness(t)
	h.ctrl.SelectChild(2)
	h.ctrl.SelectChild(0)
	if got := h.ctrl.Position(); !reflect.DeepEqual(got, assettree.Path{2, 0}) {
		t.Fatalf("position = %v, want [2 0]", got)
	}

	// When: moving to the parent
	h.ctrl.SelectParent()

	// Then: the grid of D is shown
	if got := h.ctrl.Position(); !reflect.DeepEqual(got, assettree.Path{2}) {
		t.Errorf("position = %v, want [2]", got)
	}
	if got := locators(h.loader.loads[len(h.loader.loads)-2:]); !reflect.DeepEqual(got, []string{"D1", "D2"}) {
		t.Errorf("last loads = %v, want [D1 D2]", got)
	}

	// When: selecting the root
	h.ctrl.SelectRoot()

	// Then: the position is the root and parent is a no-op there
	if len(h.ctrl.Position()) != 0 {
		t.Errorf("position = %v, want root", h.ctrl.Position())
	}
	loads := len(h.loader.loads)
	h.ctrl.SelectParent()
	if len(h.loader.loads) != loads {
		t.Errorf("SelectParent at root issued loads")
	}
}

func TestTick_ReachesReady(t *testing.T) {
	// Given: a started controller whose loads have not finished
	h := newHarness(t)
	if got := h.tickN(10); got != loading.StatusLoading {
		t.Fatalf("status = %v, want loading", got)
	}

	// When: every load completes
	h.loader.completeAll()

	// Then: Ready follows after exactly five clean ticks
	if got := h.tickN(loading.DefaultConfirmationFrames - 1); got != loading.StatusLoading {
		t.Errorf("status after 4 clean ticks = %v, want loading", got)
	}
	if got := h.ctrl.Tick(); got != loading.StatusReady {
		t.Errorf("status after 5 clean ticks = %v, want ready", got)
	}
	last := h.display.statuses[len(h.display.statuses)-1]
	if last != loading.StatusReady {
		t.Errorf("last signalled status = %v, want ready", last)
	}
}

func TestTick_PipelinesNotReady(t *testing.T) {
	// Given: all loads complete but the display is not ready
	h := newHarness(t)
	h.display.ready = false
	h.loader.completeAll()

	// When/Then: the status stays Loading
	if got := h.tickN(20); got != loading.StatusLoading {
		t.Errorf("status = %v, want loading", got)
	}

	// When: the display becomes ready
	h.display.ready = true

	// Then: Ready follows
	if got := h.tickN(5); got != loading.StatusReady {
		t.Errorf("status = %v, want ready", got)
	}
}

func TestNavigation_ResignalsLoading(t *testing.T) {
	// Given: a controller that reached Ready
	h := newHarness(t)
	h.loader.completeAll()
	h.tickN(5)

	// When: a child is selected
	h.ctrl.SelectChild(0)

	// Then: Loading is signalled again
	if h.ctrl.Status() != loading.StatusLoading {
		t.Errorf("status = %v, want loading", h.ctrl.Status())
	}
	last := h.display.statuses[len(h.display.statuses)-1]
	if last != loading.StatusLoading {
		t.Errorf("last signalled status = %v, want loading", last)
	}
}

func TestStaleCompletionsDoNotSatisfyNewPosition(t *testing.T) {
	// Given: the root grid is loading
	h := newHarness(t)
	rootLoads := append([]loadCall(nil), h.loader.loads...)

	// When: the user navigates away and the old loads finish afterwards
	h.ctrl.SelectChild(2)
	for _, c := range rootLoads {
		h.loader.complete[c.handle] = true
		h.coord.MarkComplete(c.handle)
	}

	// Then: the new position keeps waiting for its own loads
	if h.coord.Pending() != 2 {
		t.Errorf("pending = %d, want 2", h.coord.Pending())
	}
	if got := h.tickN(10); got != loading.StatusLoading {
		t.Errorf("status = %v, want loading", got)
	}
}

func TestOnViewportResized_RelayoutsWithoutLoads(t *testing.T) {
	// Given: the root grid at aspect 1
	h := newHarness(t)
	loads := len(h.loader.loads)
	pending := h.coord.Pending()
	before := h.ctrl.View()

	// When: the viewport becomes wide
	h.ctrl.OnViewportResized(2)

	// Then: the grid is recomputed without new loads or registrations
	if len(h.loader.loads) != loads {
		t.Errorf("loads = %d, want %d", len(h.loader.loads), loads)
	}
	if h.coord.Pending() != pending {
		t.Errorf("pending = %d, want %d", h.coord.Pending(), pending)
	}
	if len(h.display.relayouts) != 1 {
		t.Fatalf("relayouts = %d, want 1", len(h.display.relayouts))
	}
	v := h.display.relayouts[0]
	if v.Rows != 1 || v.Cols != 3 {
		t.Errorf("grid = %dx%d, want 1x3", v.Rows, v.Cols)
	}
	for i, p := range v.Placements {
		if p.Handle != before.Placements[i].Handle {
			t.Errorf("placement[%d] handle changed on resize", i)
		}
	}

	// Then: the view handed out earlier keeps its 2x2 positions
	want := layout.Vec2{X: -0.25, Y: 0.25}
	if got := h.display.shown[0].Placements[0].Position; got != want {
		t.Errorf("earlier view position = %v, want %v", got, want)
	}
}

func TestOnViewportResized_LeafAndInvalid(t *testing.T) {
	// Given: a leaf view
	h := newHarness(t)
	h.ctrl.SelectChild(0)

	// When: resized, and given invalid aspects
	h.ctrl.OnViewportResized(1.5)
	h.ctrl.OnViewportResized(0)
	h.ctrl.OnViewportResized(-2)

	// Then: leaf views are not re-laid out
	if len(h.display.relayouts) != 0 {
		t.Errorf("relayouts = %d, want 0", len(h.display.relayouts))
	}
	if h.ctrl.View().Aspect != 1.5 {
		t.Errorf("aspect = %v, want 1.5", h.ctrl.View().Aspect)
	}
}

func TestWithAspect(t *testing.T) {
	// Given/When: a controller started in a wide viewport
	h := newHarness(t, WithAspect(2))

	// Then: the initial grid uses that aspect
	v := h.ctrl.View()
	if v.Aspect != 2 || v.Rows != 1 || v.Cols != 3 {
		t.Errorf("view = %dx%d @%v, want 1x3 @2", v.Rows, v.Cols, v.Aspect)
	}
}

func TestSetPosition(t *testing.T) {
	tests := []struct {
		name string
		path assettree.Path
		want assettree.Path
	}{
		{"valid", assettree.Path{2, 1}, assettree.Path{2, 1}},
		{"out of range falls back to root", assettree.Path{5}, assettree.Path{}},
		{"past a leaf falls back to root", assettree.Path{0, 0}, assettree.Path{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.ctrl.SetPosition(tt.path)
			if got := h.ctrl.Position(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("position = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReload(t *testing.T) {
	// Given: a controller positioned at D
	h := newHarness(t)
	h.ctrl.SelectChild(2)
	old := h.tree

	// When: a new tree where that path still exists is loaded
	h.ctrl.Reload(sampleTree(t))

	// Then: the old tree is released and the path is kept
	if !old.Released() {
		t.Error("old tree was not released")
	}
	if got := h.ctrl.Position(); !reflect.DeepEqual(got, assettree.Path{2}) {
		t.Errorf("position = %v, want [2]", got)
	}
	if n, ok := h.ctrl.Node(); !ok || n.Identifier() != "D" {
		t.Errorf("node = %v, want D", n.Identifier())
	}

	// When: a smaller tree without that path is loaded
	small, err := assettree.Build(assettree.Description{Identifier: "solo"})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	h.ctrl.Reload(small)

	// Then: the position resets to the root
	if len(h.ctrl.Position()) != 0 {
		t.Errorf("position = %v, want root", h.ctrl.Position())
	}
	if h.ctrl.Mode().Kind != ModeLeaf || h.ctrl.Mode().Leaf != "solo" {
		t.Errorf("mode = %+v, want leaf solo", h.ctrl.Mode())
	}
}

func TestReleasedTreeIsNoOp(t *testing.T) {
	// Given: a controller whose tree is released underneath it
	h := newHarness(t)
	h.tree.Release()
	loads := len(h.loader.loads)

	// When: navigation is attempted
	h.ctrl.SelectChild(0)
	h.ctrl.SelectParent()
	h.ctrl.SelectRoot()

	// Then: nothing is loaded
	if len(h.loader.loads) != loads {
		t.Errorf("loads = %d, want %d", len(h.loader.loads), loads)
	}
	if _, ok := h.ctrl.Node(); ok {
		t.Error("Node() resolved on a released tree")
	}
}
