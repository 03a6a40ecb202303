package tiling

import (
	"errors"
	"testing"

	"github.com/1broseidon/snaptile/internal/geom"
)

func TestEngine_EndResizeCommitsTiledRects(t *testing.T) {
	e := NewEngine(DefaultSettings())
	table := e.Table()
	if err := table.SetTiled(1, 0, leftHalf, geom.Rect{}); err != nil {
		t.Fatalf("SetTiled: %v", err)
	}
	if err := table.SetTiled(2, 0, rightHalf, geom.Rect{}); err != nil {
		t.Fatalf("SetTiled: %v", err)
	}

	grabbed := TiledWindow{ID: 1, TiledRect: leftHalf, Frame: leftHalf}
	group := []TiledWindow{{ID: 2, TiledRect: rightHalf, Frame: rightHalf}}
	if err := e.BeginResize(grabbed, GrabEast, group, geom.Rect{Width: 1000, Height: 800}); err != nil {
		t.Fatalf("BeginResize: %v", err)
	}
	if !e.ResizeActive() {
		t.Fatalf("expected resize to be active")
	}
	if err := e.BeginResize(grabbed, GrabEast, group, geom.Rect{Width: 1000, Height: 800}); !errors.Is(err, ErrResizeActive) {
		t.Fatalf("expected ErrResizeActive, got %v", err)
	}

	live := geom.Rect{Width: 600, Height: 800}
	if _, err := e.OnResizing(live, nil); err != nil {
		t.Fatalf("OnResizing: %v", err)
	}
	if got, _ := table.TiledRect(2); got != rightHalf {
		t.Fatalf("tiled rect changed before the resize ended: %v", got)
	}

	if _, err := e.EndResize(live, nil); err != nil {
		t.Fatalf("EndResize: %v", err)
	}
	if e.ResizeActive() {
		t.Fatalf("expected resize to be finished")
	}
	if got, _ := table.TiledRect(1); got != (geom.Rect{Width: 600, Height: 800}) {
		t.Fatalf("grabbed tiled rect = %v", got)
	}
	if got, _ := table.TiledRect(2); got != (geom.Rect{X: 600, Y: 0, Width: 400, Height: 800}) {
		t.Fatalf("neighbour tiled rect = %v", got)
	}
}

func TestEngine_AbortResizeWithoutGrab(t *testing.T) {
	e := NewEngine(DefaultSettings())
	if _, err := e.AbortResize(nil); !errors.Is(err, ErrNoResize) {
		t.Fatalf("expected ErrNoResize, got %v", err)
	}
}

func TestEngine_BestFitUsesTable(t *testing.T) {
	e := NewEngine(DefaultSettings())
	quarter := geom.Rect{Width: 500, Height: 400}
	if err := e.Table().SetTiled(1, 0, quarter, geom.Rect{}); err != nil {
		t.Fatalf("SetTiled: %v", err)
	}
	group := []TiledWindow{
		{ID: 1, TiledRect: quarter},
		{ID: 2, TiledRect: geom.Rect{X: 0, Y: 400, Width: 1000, Height: 400}},
	}

	// The frame is ignored for a tiled window; its tiled rect is grown.
	got, ok := e.BestFitRect(1, geom.Rect{X: 8, Y: 8, Width: 484, Height: 384}, group, testWork)
	if !ok || got != (geom.Rect{Width: 1000, Height: 400}) {
		t.Fatalf("BestFitRect() = %v,%v", got, ok)
	}

	// An untracked window is treated as floating.
	got, ok = e.BestFitRect(3, geom.Rect{X: 100, Y: 100, Width: 10, Height: 10}, group[1:], testWork)
	if !ok || got != (geom.Rect{Width: 1000, Height: 400}) {
		t.Fatalf("BestFitRect() for floating window = %v,%v", got, ok)
	}
}
