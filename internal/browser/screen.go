package browser

import (
	"github.com/smileynet/meshbrowse/internal/loading"
	"github.com/smileynet/meshbrowse/internal/navigation"
)

// Compile-time check: screen satisfies navigation.Display.
var _ navigation.Display = (*screen)(nil)

// screen is the navigation.Display of the browser. The controller writes
// to it during Update; View reads it. Both run on the Bubble Tea loop.
type screen struct {
	ready       bool // set once the terminal size is known
	view        navigation.View
	highlighted int // child index, or -1
	status      loading.Status
	generation  int // bumped on every Show
	results     Results
}

func newScreen(results Results) *screen {
	return &screen{highlighted: -1, results: results}
}

func (s *screen) PipelinesReady() bool {
	return s.ready
}

func (s *screen) Show(v navigation.View) {
	if s.results != nil && len(s.view.Placements) > 0 {
		old := make([]loading.Handle, len(s.view.Placements))
		for i, p := range s.view.Placements {
			old[i] = p.Handle
		}
		s.results.Forget(old...)
	}
	s.view = v
	s.highlighted = -1
	s.generation++
}

func (s *screen) Relayout(v navigation.View) {
	s.view = v
}

func (s *screen) Highlight(index int, on bool) {
	switch {
	case on:
		s.highlighted = index
	case s.highlighted == index:
		s.highlighted = -1
	}
}

func (s *screen) StatusChanged(st loading.Status) {
	s.status = st
}

// cells maps each grid cell to the placement shown in it. Cells are derived
// from the placement positions so the terminal grid matches the layout.
func (s *screen) cells() map[[2]int]int {
	v := s.view
	out := make(map[[2]int]int, len(v.Placements))
	if v.Mode != navigation.ModeGrid || v.Rows < 1 || v.Cols < 1 {
		return out
	}
	for i, p := range v.Placements {
		row, col := gridCell(p, v)
		out[[2]int{row, col}] = i
	}
	return out
}

// gridCell converts a placement's viewport position back to its cell.
func gridCell(p navigation.Placement, v navigation.View) (row, col int) {
	col = int((p.Position.X + v.Aspect/2) / v.Aspect * float32(v.Cols))
	row = int((0.5 - p.Position.Y) * float32(v.Rows))
	return clamp(row, 0, v.Rows-1), clamp(col, 0, v.Cols-1)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
