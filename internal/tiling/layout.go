package tiling

import (
	"fmt"
	"math"

	"github.com/1broseidon/snaptile/internal/config"
	"github.com/1broseidon/snaptile/internal/geom"
)

// CalculateGrid determines the optimal grid dimensions for the given number of windows
func CalculateGrid(numWindows int) (rows, cols int) {
	if numWindows <= 0 {
		return 0, 0
	}

	// Calculate columns first (ceiling of square root)
	cols = int(math.Ceil(math.Sqrt(float64(numWindows))))

	// Calculate rows needed
	rows = int(math.Ceil(float64(numWindows) / float64(cols)))

	return rows, cols
}

// LayoutRects resolves a layout against workArea and returns at most count
// tiled rects (count <= 0 means every rect of a ratio layout). Rects
// partition their part of the work area exactly; gaps are applied later.
func LayoutRects(layout *config.Layout, workArea geom.Rect, count int) ([]geom.Rect, error) {
	if !workArea.Valid() {
		return nil, fmt.Errorf("invalid work area: %v", workArea)
	}

	var rects []geom.Rect
	switch layout.Mode {
	case config.LayoutModeRatio:
		n := len(layout.Rects)
		if count > 0 && count < n {
			n = count
		}
		rects = make([]geom.Rect, 0, n)
		for _, r := range layout.Rects[:n] {
			rects = append(rects, workArea.Scale(r.X, r.Y, r.Width, r.Height))
		}

	case config.LayoutModeGrid:
		if count <= 0 {
			return nil, nil
		}
		rects = gridRects(workArea, count)

	default:
		return nil, fmt.Errorf("unsupported layout mode: %q", layout.Mode)
	}

	for i, r := range rects {
		if !r.Valid() {
			return nil, fmt.Errorf(
				"insufficient space for layout: work area=%dx%d rect %d=%v",
				workArea.Width, workArea.Height, i, r,
			)
		}
	}
	return rects, nil
}

// gridRects lays count cells out row by row. A short last row expands to
// fill the width.
func gridRects(area geom.Rect, count int) []geom.Rect {
	rows, cols := CalculateGrid(count)
	rects := make([]geom.Rect, 0, count)
	for row := 0; row < rows; row++ {
		inRow := min(cols, count-row*cols)
		y1 := area.Y + area.Height*row/rows
		y2 := area.Y + area.Height*(row+1)/rows
		for col := 0; col < inRow; col++ {
			x1 := area.X + area.Width*col/inRow
			x2 := area.X + area.Width*(col+1)/inRow
			rects = append(rects, geom.Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1})
		}
	}
	return rects
}
