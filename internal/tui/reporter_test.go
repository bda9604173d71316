package tui

import (
	"errors"
	"testing"
	"time"

	"github.com/smileynet/meshbrowse/internal/assettree"
	"github.com/smileynet/meshbrowse/internal/fetch"
	"github.com/smileynet/meshbrowse/internal/loading"
	"github.com/smileynet/meshbrowse/internal/navigation"
)

func drain(b *Bridge) []DisplayEvent {
	var out []DisplayEvent
	for {
		select {
		case ev := <-b.Events():
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestReporter_ForwardsViewAndStatus(t *testing.T) {
	// Given: a reporter with a controllable clock
	b := NewBridge()
	r := NewReporter(b, func(loading.Handle) (fetch.Result, bool) { return fetch.Result{}, false })
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return start }

	// When: a view is shown and later becomes ready
	r.Show(navigation.View{
		Mode: navigation.ModeGrid,
		Path: assettree.Path{1},
		Rows: 1, Cols: 2,
		Placements: []navigation.Placement{{Identifier: "a"}, {Identifier: "b"}},
	})
	r.now = func() time.Time { return start.Add(750 * time.Millisecond) }
	r.StatusChanged(loading.StatusReady)

	// Then: a ViewMsg and a StatusMsg with the elapsed time are sent
	events := drain(b)
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	vm, ok := events[0].(ViewMsg)
	if !ok || vm.Path != "1" || vm.Mode != "grid" || len(vm.Items) != 2 {
		t.Errorf("events[0] = %+v, want grid ViewMsg for path 1", events[0])
	}
	sm, ok := events[1].(StatusMsg)
	if !ok || sm.Status != loading.StatusReady || sm.Elapsed != 750*time.Millisecond {
		t.Errorf("events[1] = %+v, want ready after 750ms", events[1])
	}
}

func TestReporter_PollReportsEachItemOnce(t *testing.T) {
	// Given: one loaded, one failed and one pending item
	loaded, failed, pending := loading.NewHandle(), loading.NewHandle(), loading.NewHandle()
	results := map[loading.Handle]fetch.Result{
		loaded: {Locator: "a", Size: 42},
		failed: {Locator: "b", Err: errors.New("404")},
	}
	b := NewBridge()
	r := NewReporter(b, func(h loading.Handle) (fetch.Result, bool) {
		res, ok := results[h]
		return res, ok
	})
	r.Show(navigation.View{
		Mode: navigation.ModeGrid,
		Placements: []navigation.Placement{
			{Identifier: "a", Handle: loaded},
			{Identifier: "b", Handle: failed},
			{Identifier: "c", Handle: pending},
		},
	})
	drain(b)

	// When: polled twice
	r.Poll()
	r.Poll()

	// Then: each finished item is reported exactly once
	events := drain(b)
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	first := events[0].(ItemUpdateMsg)
	if first.Index != 0 || first.Status != ItemLoaded || first.Size != 42 {
		t.Errorf("first = %+v, want item 0 loaded 42 bytes", first)
	}
	second := events[1].(ItemUpdateMsg)
	if second.Index != 1 || second.Status != ItemFailed || second.Err == nil {
		t.Errorf("second = %+v, want item 1 failed", second)
	}
}

func TestReporter_IsAlwaysReady(t *testing.T) {
	r := NewReporter(NewBridge(), nil)
	if !r.PipelinesReady() {
		t.Error("PipelinesReady() = false, want true")
	}
}
