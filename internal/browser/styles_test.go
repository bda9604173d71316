package browser

import (
	"testing"

	"github.com/smileynet/meshbrowse/internal/layout"
	"github.com/smileynet/meshbrowse/internal/navigation"
)

func TestCellSize(t *testing.T) {
	tests := []struct {
		name             string
		w, h, rows, cols int
		wantW, wantH     int
	}{
		{"even split", 90, 30, 3, 3, 30, 10},
		{"minimum width", 20, 30, 1, 5, MinCellWidth, 30},
		{"minimum height", 80, 6, 4, 2, 40, MinCellHeight},
		{"empty grid", 80, 24, 0, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := CellSize(tt.w, tt.h, tt.rows, tt.cols)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("CellSize() = %d, %d; want %d, %d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestGridCellMatchesLayout(t *testing.T) {
	// Given: layouts for several counts and aspects
	for _, aspect := range []float32{0.5, 1, 1.8, 3} {
		for n := 1; n <= 12; n++ {
			grid, err := layout.Compute(n, aspect)
			if err != nil {
				t.Fatal(err)
			}
			v := navigation.View{Mode: navigation.ModeGrid, Rows: grid.Rows, Cols: grid.Cols, Aspect: aspect}

			// Then: every position maps back to its row-major cell
			for i, pos := range grid.Positions {
				row, col := gridCell(navigation.Placement{Position: pos}, v)
				wantRow, wantCol := grid.Cell(i)
				if row != wantRow || col != wantCol {
					t.Errorf("n=%d aspect=%v item %d: cell = (%d,%d), want (%d,%d)",
						n, aspect, i, row, col, wantRow, wantCol)
				}
			}
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://example.com/models/cube.glb", "cube.glb"},
		{"https://example.com/models/cube.glb?v=2", "cube.glb"},
		{"models/set/", "set"},
		{"plain", "plain"},
		{"/", "/"},
	}
	for _, tt := range tests {
		if got := displayName(tt.in); got != tt.want {
			t.Errorf("displayName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"toolongname", 5, "tool…"},
		{"x", 0, ""},
		{"ab", 1, "…"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
