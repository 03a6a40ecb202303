package geom

import (
	"errors"
	"reflect"
	"testing"
)

func totalArea(rects []Rect) int {
	sum := 0
	for _, r := range rects {
		sum += r.Area()
	}
	return sum
}

func TestNew_RejectsDegenerate(t *testing.T) {
	tests := []struct {
		name string
		w, h int
	}{
		{"zero width", 0, 10},
		{"zero height", 10, 0},
		{"negative width", -5, 10},
		{"negative height", 10, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(0, 0, tt.w, tt.h)
			if !errors.Is(err, ErrDegenerate) {
				t.Fatalf("expected ErrDegenerate, got %v", err)
			}
		})
	}

	if _, err := New(5, 5, 1, 1); err != nil {
		t.Fatalf("unexpected error for 1x1: %v", err)
	}
}

func TestIntersect_DegenerateInputPanics(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic for degenerate rect")
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrDegenerate) {
			t.Fatalf("expected ErrDegenerate panic, got %v", r)
		}
	}()
	Rect{0, 0, 10, 10}.Intersect(Rect{0, 0, 0, 10})
}

func TestIntersect(t *testing.T) {
	tests := []struct {
		name   string
		a, b   Rect
		want   Rect
		wantOK bool
	}{
		{"overlap", Rect{0, 0, 100, 100}, Rect{50, 50, 100, 100}, Rect{50, 50, 50, 50}, true},
		{"contained", Rect{0, 0, 100, 100}, Rect{10, 20, 30, 40}, Rect{10, 20, 30, 40}, true},
		{"touching edge", Rect{0, 0, 100, 100}, Rect{100, 0, 100, 100}, Rect{}, false},
		{"touching corner", Rect{0, 0, 100, 100}, Rect{100, 100, 10, 10}, Rect{}, false},
		{"disjoint", Rect{0, 0, 10, 10}, Rect{50, 50, 10, 10}, Rect{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.a.Intersect(tt.b)
			if ok != tt.wantOK || got != tt.want {
				t.Fatalf("Intersect(%v, %v) = %v, %v; want %v, %v", tt.a, tt.b, got, ok, tt.want, tt.wantOK)
			}
			if tt.a.Overlaps(tt.b) != tt.wantOK {
				t.Fatalf("Overlaps disagrees with Intersect")
			}
		})
	}
}

func TestContainsAndUnion(t *testing.T) {
	a := Rect{0, 0, 100, 100}
	if !a.Contains(Rect{0, 0, 100, 100}) {
		t.Fatalf("a rect contains itself")
	}
	if a.Contains(Rect{50, 50, 60, 10}) {
		t.Fatalf("expected partial overlap not to be contained")
	}

	u := a.Union(Rect{150, 20, 50, 200})
	if u != (Rect{0, 0, 200, 220}) {
		t.Fatalf("unexpected union %v", u)
	}

	if _, ok := UnionAll(nil); ok {
		t.Fatalf("expected no union for empty input")
	}
}

func TestApproxEqual(t *testing.T) {
	a := Rect{0, 0, 100, 100}
	b := Rect{2, -1, 99, 102}
	if !a.ApproxEqual(b, 2) {
		t.Fatalf("expected %v ~ %v within 2px", a, b)
	}
	if a.ApproxEqual(b, 1) {
		t.Fatalf("expected %v !~ %v within 1px", a, b)
	}
}

func TestMinus_InnerRectYieldsFourPieces(t *testing.T) {
	a := Rect{0, 0, 100, 100}
	b := Rect{25, 25, 50, 50}

	got := a.Minus(b)
	want := []Rect{
		{0, 0, 25, 100},  // left, full height
		{75, 0, 25, 100}, // right, full height
		{25, 0, 50, 25},  // top, overlap span only
		{25, 75, 50, 25}, // bottom, overlap span only
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Minus = %v, want %v", got, want)
	}
	if totalArea(got) != a.Area()-b.Area() {
		t.Fatalf("expected area %d, got %d", a.Area()-b.Area(), totalArea(got))
	}
}

func TestMinus_FullContainment(t *testing.T) {
	a := Rect{10, 10, 100, 100}
	if got := a.Minus(a); len(got) != 0 {
		t.Fatalf("Minus(a, a) = %v, want empty", got)
	}
	if got := a.Minus(Rect{0, 0, 200, 200}); len(got) != 0 {
		t.Fatalf("Minus(a, superset) = %v, want empty", got)
	}
}

func TestMinus_DisjointReturnsOriginal(t *testing.T) {
	a := Rect{0, 0, 100, 100}
	got := a.Minus(Rect{100, 0, 100, 100})
	if !reflect.DeepEqual(got, []Rect{a}) {
		t.Fatalf("Minus of adjacent rect = %v, want [%v]", got, a)
	}
}

func TestMinus_DropsSlivers(t *testing.T) {
	a := Rect{0, 0, 1000, 500}
	// Leaves a 10px strip on the left, below the default margin.
	b := Rect{10, 0, 990, 500}

	if got := a.Minus(b); len(got) != 0 {
		t.Fatalf("expected sliver to be dropped, got %v", got)
	}
	got := a.MinusMargin(b, 0)
	if !reflect.DeepEqual(got, []Rect{{0, 0, 10, 500}}) {
		t.Fatalf("expected exact sliver with zero margin, got %v", got)
	}
}

func TestMinusAll_FoldsLeftoverSets(t *testing.T) {
	work := Rect{0, 0, 200, 200}
	occupied := []Rect{
		{0, 0, 100, 100},   // top-left
		{100, 100, 100, 100}, // bottom-right
	}

	got := work.MinusAll(occupied, 0)
	want := []Rect{
		{100, 0, 100, 100},
		{0, 100, 100, 100},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("MinusAll = %v, want %v", got, want)
	}

	if got := work.MinusAll(nil, 0); !reflect.DeepEqual(got, []Rect{work}) {
		t.Fatalf("MinusAll(nil) = %v, want [work]", got)
	}
	if got := work.MinusAll([]Rect{{0, 0, 10, 10}, work}, 0); len(got) != 0 {
		t.Fatalf("expected nothing left when one rect covers everything, got %v", got)
	}
}

func TestAddGaps(t *testing.T) {
	work := Rect{0, 0, 1000, 800}
	left := Rect{0, 0, 500, 800}
	right := Rect{500, 0, 500, 800}

	l := left.AddGaps(work, 10, 8)
	r := right.AddGaps(work, 10, 8)

	if l != (Rect{8, 8, 487, 784}) {
		t.Fatalf("left frame = %v", l)
	}
	if r != (Rect{505, 8, 487, 784}) {
		t.Fatalf("right frame = %v", r)
	}
	if r.X-l.X2() != 10 {
		t.Fatalf("expected a 10px gap between frames, got %d", r.X-l.X2())
	}
}

func TestScale_KeepsAdjacency(t *testing.T) {
	work := Rect{0, 0, 1001, 601}
	a := work.Scale(0, 0, 1.0/3, 1)
	b := work.Scale(1.0/3, 0, 1.0/3, 1)
	c := work.Scale(2.0/3, 0, 1.0/3, 1)

	if a.X2() != b.X || b.X2() != c.X {
		t.Fatalf("scaled thirds not adjacent: %v %v %v", a, b, c)
	}
	if c.X2() != work.X2() {
		t.Fatalf("last third does not reach the edge: %v", c)
	}
}
