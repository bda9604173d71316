package navigation

import (
	"testing"

	"github.com/smileynet/meshbrowse/internal/assettree"
	"github.com/smileynet/meshbrowse/internal/loading"
)

// sampleTree builds:
//
//	A
//	├── B
//	├── C
//	│   └── C1
//	└── D
//	    ├── D1
//	    └── D2
func sampleTree(t *testing.T) *assettree.Tree {
	t.Helper()
	tree, err := assettree.Build(assettree.Description{
		Identifier: "A",
		Children: []assettree.Description{
			{Identifier: "B"},
			{Identifier: "C", Children: []assettree.Description{{Identifier: "C1"}}},
			{Identifier: "D", Children: []assettree.Description{
				{Identifier: "D1"},
				{Identifier: "D2"},
			}},
		},
	})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return tree
}

type loadCall struct {
	handle  loading.Handle
	locator string
}

type fakeLoader struct {
	loads    []loadCall
	complete map[loading.Handle]bool
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{complete: make(map[loading.Handle]bool)}
}

func (l *fakeLoader) Load(h loading.Handle, locator string) {
	l.loads = append(l.loads, loadCall{handle: h, locator: locator})
}

func (l *fakeLoader) IsComplete(h loading.Handle) bool {
	return l.complete[h]
}

func (l *fakeLoader) completeAll() {
	for _, c := range l.loads {
		l.complete[c.handle] = true
	}
}

type highlightCall struct {
	index int
	on    bool
}

type fakeDisplay struct {
	ready      bool
	shown      []View
	relayouts  []View
	highlights []highlightCall
	statuses   []loading.Status
}

func (d *fakeDisplay) PipelinesReady() bool {
	return d.ready
}

func (d *fakeDisplay) Show(v View) {
	d.shown = append(d.shown, v)
}

func (d *fakeDisplay) Relayout(v View) {
	d.relayouts = append(d.relayouts, v)
}

func (d *fakeDisplay) Highlight(index int, on bool) {
	d.highlights = append(d.highlights, highlightCall{index: index, on: on})
}

func (d *fakeDisplay) StatusChanged(s loading.Status) {
	d.statuses = append(d.statuses, s)
}

type harness struct {
	tree    *assettree.Tree
	coord   *loading.Coordinator
	loader  *fakeLoader
	display *fakeDisplay
	ctrl    *Controller
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		tree:    sampleTree(t),
		coord:   loading.New(),
		loader:  newFakeLoader(),
		display: &fakeDisplay{ready: true},
	}
	h.ctrl = New(h.tree, h.coord, h.loader, h.display, opts...)
	h.ctrl.Start()
	return h
}

func (h *harness) tickN(n int) loading.Status {
	var s loading.Status
	for i := 0; i < n; i++ {
		s = h.ctrl.Tick()
	}
	return s
}

func locators(calls []loadCall) []string {
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.locator
	}
	return out
}
