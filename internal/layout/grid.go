// Package layout computes where to place several objects inside a viewport.
package layout

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/chewxy/math32"
)

// ErrTypeInvalidAspect is returned for a viewport aspect that is not a
// positive finite number.
const ErrTypeInvalidAspect = "invalid_aspect"

// Vec2 is a viewport-relative position.
type Vec2 struct {
	X, Y float32
}

// Grid is the arrangement of a set of items.
//
// The viewport has height 1 and width equal to its aspect ratio, centered on
// the origin with +Y up. Positions are cell centers in row-major order, row 0
// at the top. Scale is the largest uniform size that fits every cell.
type Grid struct {
	Rows      int
	Cols      int
	Aspect    float32
	Positions []Vec2
	Scale     float32
}

// Cell returns the row and column of the item at index i.
func (g Grid) Cell(i int) (row, col int) {
	if g.Cols == 0 {
		return 0, 0
	}
	return i / g.Cols, i % g.Cols
}

// Compute arranges itemCount items in a viewport of the given aspect
// (width / height). The ideal continuous grid is height = sqrt(n/aspect),
// width = sqrt(n*aspect); whichever dimension is closer to its ceiling is
// rounded up first and the other is derived as ceil(n / chosen). When both
// are equally close, columns are rounded first.
//
// The result has exactly itemCount positions. Unused trailing cells are not
// returned. A zero itemCount yields an empty grid.
func Compute(itemCount int, aspect float32) (Grid, error) {
	if aspect <= 0 || math32.IsNaN(aspect) || math32.IsInf(aspect, 0) {
		return Grid{}, errors.New("viewport aspect must be a positive finite number").
			WithType(ErrTypeInvalidAspect).
			WithTag("aspect", aspect)
	}
	if itemCount <= 0 {
		return Grid{Aspect: aspect}, nil
	}

	rows, cols := dimensions(itemCount, aspect)

	cellHeight := 1 / float32(rows)
	cellWidth := aspect / float32(cols)

	positions := make([]Vec2, itemCount)
	for i := range positions {
		row, col := i/cols, i%cols
		positions[i] = Vec2{
			X: -aspect/2 + (float32(col)+0.5)*cellWidth,
			Y: 0.5 - (float32(row)+0.5)*cellHeight,
		}
	}

	return Grid{
		Rows:      rows,
		Cols:      cols,
		Aspect:    aspect,
		Positions: positions,
		Scale:     math32.Min(cellHeight, cellWidth),
	}, nil
}

// dimensions picks rows and cols with rows*cols >= n.
func dimensions(n int, aspect float32) (rows, cols int) {
	count := float32(n)
	height := math32.Sqrt(count / aspect)
	width := math32.Sqrt(count * aspect)

	heightGap := math32.Ceil(height) - height
	widthGap := math32.Ceil(width) - width

	if heightGap < widthGap {
		rows = clampCount(math32.Ceil(height), n)
		cols = ceilDiv(n, rows)
	} else {
		cols = clampCount(math32.Ceil(width), n)
		rows = ceilDiv(n, cols)
	}
	return rows, cols
}

// clampCount keeps a rounded dimension within [1, n]. Extreme aspects would
// otherwise ask for more rows or columns than there are items.
func clampCount(v float32, n int) int {
	if v < 1 {
		return 1
	}
	if v > float32(n) {
		return n
	}
	return int(v)
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
