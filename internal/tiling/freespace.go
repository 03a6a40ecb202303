package tiling

import "github.com/1broseidon/snaptile/internal/geom"

// DefaultMinFreeSpace is the smallest width and height an unambiguous free
// area needs before it is offered as a tiling target.
const DefaultMinFreeSpace = 250

// FreeSpaceOptions tunes the free-space solver. Fields are used as given: a
// zero SliverMargin subtracts exactly and a zero MinSize accepts any block.
type FreeSpaceOptions struct {
	SliverMargin int
	MinSize      int
}

// DefaultFreeSpaceOptions returns the default sliver margin and minimum size.
func DefaultFreeSpaceOptions() FreeSpaceOptions {
	return FreeSpaceOptions{SliverMargin: geom.DefaultSliverMargin, MinSize: DefaultMinFreeSpace}
}

// FreeSpaceReport describes the free space of one display.
type FreeSpaceReport struct {
	DisplayID int         `json:"display_id"`
	WorkArea  geom.Rect   `json:"work_area"`
	Occupied  []geom.Rect `json:"occupied"`
	Regions   []geom.Rect `json:"regions"`
	Free      *geom.Rect  `json:"free,omitempty"`
}

// PlanFreeSpace computes the free regions and the single free rect with the
// same options, so Free is always derived from Regions.
func PlanFreeSpace(workArea geom.Rect, occupied []geom.Rect, opts FreeSpaceOptions) FreeSpaceReport {
	regions := FreeRegions(workArea, occupied, opts.SliverMargin)
	report := FreeSpaceReport{
		WorkArea: workArea,
		Occupied: occupied,
		Regions:  regions,
	}
	if free, ok := freeBlock(workArea, regions, opts.MinSize); ok {
		report.Free = &free
	}
	return report
}

// FreeRegions returns the parts of workArea not covered by occupied. Each
// occupied rect is subtracted from the whole current free set in turn, so
// later subtractions work on the already reduced free space.
func FreeRegions(workArea geom.Rect, occupied []geom.Rect, margin int) []geom.Rect {
	free := []geom.Rect{workArea}
	for _, o := range occupied {
		next := make([]geom.Rect, 0, len(free)+3)
		for _, f := range free {
			next = append(next, f.MinusMargin(o, margin)...)
		}
		free = next
		if len(free) == 0 {
			return nil
		}
	}
	return free
}

// FreeSpace reduces the free regions to one rectangle. It only succeeds when
// the regions form a single gapless block and that block is large enough to
// hold a window. The minimum size is capped at half the work-area dimension
// so small work areas can still be split in two.
func FreeSpace(workArea geom.Rect, occupied []geom.Rect, opts FreeSpaceOptions) (geom.Rect, bool) {
	return freeBlock(workArea, FreeRegions(workArea, occupied, opts.SliverMargin), opts.MinSize)
}

func freeBlock(workArea geom.Rect, regions []geom.Rect, minSize int) (geom.Rect, bool) {
	union, ok := geom.UnionAll(regions)
	if !ok {
		return geom.Rect{}, false
	}

	sum := 0
	for _, r := range regions {
		sum += r.Area()
	}
	if union.Area() != sum {
		return geom.Rect{}, false
	}

	minWidth := min(minSize, workArea.Width/2)
	minHeight := min(minSize, workArea.Height/2)
	if union.Width < minWidth || union.Height < minHeight {
		return geom.Rect{}, false
	}
	return union, true
}
