package tui

import (
	"time"

	"github.com/smileynet/meshbrowse/internal/fetch"
	"github.com/smileynet/meshbrowse/internal/loading"
	"github.com/smileynet/meshbrowse/internal/navigation"
)

// Compile-time check: Reporter satisfies navigation.Display.
var _ navigation.Display = (*Reporter)(nil)

// ResultFunc looks up the outcome of a finished fetch.
type ResultFunc func(h loading.Handle) (fetch.Result, bool)

// Reporter is a headless navigation.Display. It forwards views and status
// changes to a Bridge and, on Poll, reports fetches that have finished.
type Reporter struct {
	bridge   *Bridge
	results  ResultFunc
	now      func() time.Time
	view     navigation.View
	reported []bool
	started  time.Time
}

// NewReporter creates a Reporter sending to b. results is polled for the
// outcome of each displayed item.
func NewReporter(b *Bridge, results ResultFunc) *Reporter {
	return &Reporter{bridge: b, results: results, now: time.Now}
}

// PipelinesReady always reports true; there is nothing to render.
func (r *Reporter) PipelinesReady() bool {
	return true
}

func (r *Reporter) Show(v navigation.View) {
	r.view = v
	r.reported = make([]bool, len(v.Placements))
	r.started = r.now()

	items := make([]string, len(v.Placements))
	for i, p := range v.Placements {
		items[i] = p.Identifier
	}
	r.bridge.Send(ViewMsg{
		Path:  v.Path.String(),
		Mode:  v.Mode.String(),
		Rows:  v.Rows,
		Cols:  v.Cols,
		Items: items,
	})
}

func (r *Reporter) Relayout(v navigation.View) {
	r.view = v
}

func (r *Reporter) Highlight(int, bool) {}

func (r *Reporter) StatusChanged(s loading.Status) {
	r.bridge.Send(StatusMsg{Status: s, Elapsed: r.now().Sub(r.started)})
}

// Poll sends an ItemUpdateMsg for every item whose fetch finished since the
// last call.
func (r *Reporter) Poll() {
	for i, p := range r.view.Placements {
		if r.reported[i] {
			continue
		}
		res, ok := r.results(p.Handle)
		if !ok {
			continue
		}
		r.reported[i] = true

		msg := ItemUpdateMsg{Index: i, Status: ItemLoaded, Size: res.Size}
		if res.Err != nil {
			msg.Status = ItemFailed
			msg.Err = res.Err
		}
		r.bridge.Send(msg)
	}
}
