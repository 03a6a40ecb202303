package tiling

import (
	"errors"
	"reflect"
	"testing"

	"github.com/1broseidon/snaptile/internal/geom"
)

var (
	testWork  = geom.Rect{Width: 1000, Height: 800}
	leftHalf  = geom.Rect{X: 0, Y: 0, Width: 500, Height: 800}
	rightHalf = geom.Rect{X: 500, Y: 0, Width: 500, Height: 800}
)

func tiledTable(t *testing.T, rects map[WindowID]geom.Rect) *Table {
	t.Helper()
	table := NewTable()
	for id, r := range rects {
		if err := table.SetTiled(id, 0, r, geom.Rect{}); err != nil {
			t.Fatalf("SetTiled(%d): %v", id, err)
		}
	}
	return table
}

func groupIDs(group []TiledWindow) []WindowID {
	ids := GroupIDs(group)
	if len(ids) == 0 {
		return nil
	}
	return ids
}

func TestTopGroup(t *testing.T) {
	table := tiledTable(t, map[WindowID]geom.Rect{
		1: leftHalf,
		2: rightHalf,
		4: {X: 0, Y: 0, Width: 500, Height: 400},
		6: testWork,
	})

	tests := []struct {
		name    string
		windows []Window
		opts    TopGroupOptions
		want    []WindowID
	}{
		{
			name:    "side by side",
			windows: []Window{{ID: 1, Frame: leftHalf}, {ID: 2, Frame: rightHalf}},
			want:    []WindowID{1, 2},
		},
		{
			name: "floating window occludes both",
			windows: []Window{
				{ID: 3, Frame: geom.Rect{X: 400, Y: 0, Width: 200, Height: 200}},
				{ID: 1, Frame: leftHalf},
				{ID: 2, Frame: rightHalf},
			},
			want: nil,
		},
		{
			name: "always on top window is ignored",
			windows: []Window{
				{ID: 3, Frame: geom.Rect{X: 400, Y: 0, Width: 200, Height: 200}, Above: true},
				{ID: 1, Frame: leftHalf},
				{ID: 2, Frame: rightHalf},
			},
			want: []WindowID{1, 2},
		},
		{
			name: "overlapping tiled window is left out",
			windows: []Window{
				{ID: 1, Frame: leftHalf},
				{ID: 4, Frame: geom.Rect{X: 0, Y: 0, Width: 500, Height: 400}},
				{ID: 2, Frame: rightHalf},
			},
			want: []WindowID{1, 2},
		},
		{
			name: "other monitor and minimized windows are skipped",
			windows: []Window{
				{ID: 3, MonitorID: 1, Frame: geom.Rect{X: 400, Y: 0, Width: 200, Height: 200}},
				{ID: 5, Frame: geom.Rect{X: 400, Y: 0, Width: 200, Height: 200}, Minimized: true},
				{ID: 1, Frame: leftHalf},
				{ID: 2, Frame: rightHalf},
			},
			want: []WindowID{1, 2},
		},
		{
			name: "full screen tiled window stops the scan",
			windows: []Window{
				{ID: 6, Frame: testWork},
				{ID: 1, Frame: leftHalf},
			},
			want: nil,
		},
		{
			name: "maximized floating window stops the scan",
			windows: []Window{
				{ID: 7, Frame: testWork, Maximized: true},
				{ID: 1, Frame: leftHalf},
			},
			want: nil,
		},
		{
			name: "ignore top skips a dragged window",
			windows: []Window{
				{ID: 3, Frame: geom.Rect{X: 400, Y: 0, Width: 200, Height: 200}},
				{ID: 1, Frame: leftHalf},
				{ID: 2, Frame: rightHalf},
			},
			opts: TopGroupOptions{IgnoreTop: true},
			want: []WindowID{1, 2},
		},
		{
			name: "ignore id",
			windows: []Window{
				{ID: 1, Frame: leftHalf},
				{ID: 2, Frame: rightHalf},
			},
			opts: TopGroupOptions{IgnoreID: 1},
			want: []WindowID{2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TopGroup(tt.windows, table, testWork, tt.opts)
			if ids := groupIDs(got); !reflect.DeepEqual(ids, tt.want) {
				t.Fatalf("TopGroup() = %v, want %v", ids, tt.want)
			}
		})
	}
}

func TestTopGroup_RecordsStackOrderAndRects(t *testing.T) {
	table := tiledTable(t, map[WindowID]geom.Rect{1: leftHalf, 2: rightHalf})
	frame := geom.Rect{X: 508, Y: 8, Width: 484, Height: 784}
	windows := []Window{
		{ID: 9, Frame: geom.Rect{X: 0, Y: 0, Width: 10, Height: 10}, Above: true},
		{ID: 2, Frame: frame},
		{ID: 1, Frame: leftHalf},
	}

	got := TopGroup(windows, table, testWork, TopGroupOptions{})
	want := []TiledWindow{
		{ID: 2, TiledRect: rightHalf, Frame: frame, StackOrder: 1},
		{ID: 1, TiledRect: leftHalf, Frame: leftHalf, StackOrder: 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("TopGroup() = %+v, want %+v", got, want)
	}
}

func TestTopGroup_Idempotent(t *testing.T) {
	table := tiledTable(t, map[WindowID]geom.Rect{
		1: leftHalf,
		2: {X: 500, Y: 0, Width: 500, Height: 400},
		3: {X: 500, Y: 400, Width: 500, Height: 400},
	})
	windows := []Window{
		{ID: 3, Frame: geom.Rect{X: 500, Y: 400, Width: 500, Height: 400}},
		{ID: 1, Frame: leftHalf},
		{ID: 2, Frame: geom.Rect{X: 500, Y: 0, Width: 500, Height: 400}},
	}

	first := TopGroup(windows, table, testWork, TopGroupOptions{})
	second := TopGroup(windows, table, testWork, TopGroupOptions{})
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("TopGroup is not idempotent: %v vs %v", first, second)
	}
	if len(first) != 3 {
		t.Fatalf("expected all three windows grouped, got %v", GroupIDs(first))
	}
}

func TestTable_SetTiledKeepsFirstUntiledRect(t *testing.T) {
	table := NewTable()
	floating := geom.Rect{X: 100, Y: 100, Width: 300, Height: 200}

	if err := table.SetTiled(1, 0, leftHalf, floating); err != nil {
		t.Fatalf("SetTiled: %v", err)
	}
	if err := table.SetTiled(1, 0, rightHalf, leftHalf); err != nil {
		t.Fatalf("SetTiled: %v", err)
	}

	if got, _ := table.TiledRect(1); got != rightHalf {
		t.Fatalf("TiledRect = %v, want %v", got, rightHalf)
	}
	if got, ok := table.UntiledRect(1); !ok || got != floating {
		t.Fatalf("UntiledRect = %v,%v, want %v", got, ok, floating)
	}

	restored, ok := table.Untile(1)
	if !ok || restored != floating {
		t.Fatalf("Untile = %v,%v, want %v", restored, ok, floating)
	}
	if _, tiled := table.TiledRect(1); tiled {
		t.Fatalf("expected window to be forgotten after Untile")
	}
}

func TestTable_SetTiledRejectsDegenerateRect(t *testing.T) {
	err := NewTable().SetTiled(1, 0, geom.Rect{Width: 0, Height: 10}, geom.Rect{})
	if !errors.Is(err, geom.ErrDegenerate) {
		t.Fatalf("expected ErrDegenerate, got %v", err)
	}
}

func TestTable_UpdateGroupIsSymmetric(t *testing.T) {
	table := tiledTable(t, map[WindowID]geom.Rect{1: leftHalf, 2: rightHalf, 3: rightHalf})

	table.UpdateGroup([]WindowID{1, 2, 3, 99})
	if got := table.Members(1); !reflect.DeepEqual(got, []WindowID{2, 3}) {
		t.Fatalf("Members(1) = %v", got)
	}
	if got := table.Members(2); !reflect.DeepEqual(got, []WindowID{1, 3}) {
		t.Fatalf("Members(2) = %v", got)
	}

	table.UpdateGroup([]WindowID{1, 2})
	if got := table.Members(1); !reflect.DeepEqual(got, []WindowID{2}) {
		t.Fatalf("Members(1) after regroup = %v", got)
	}
	if got := table.Members(3); len(got) != 0 {
		t.Fatalf("expected window 3 to lose its peers, got %v", got)
	}
}

func TestTable_RemovePurgesMembership(t *testing.T) {
	table := tiledTable(t, map[WindowID]geom.Rect{1: leftHalf, 2: rightHalf, 3: rightHalf})
	table.UpdateGroup([]WindowID{1, 2, 3})

	table.Remove(2)
	if got := table.Members(1); !reflect.DeepEqual(got, []WindowID{3}) {
		t.Fatalf("Members(1) = %v", got)
	}
	if got := table.Members(3); !reflect.DeepEqual(got, []WindowID{1}) {
		t.Fatalf("Members(3) = %v", got)
	}
	if _, ok := table.TiledRect(2); ok {
		t.Fatalf("expected window 2 to be removed")
	}
}

func TestTable_Prune(t *testing.T) {
	table := tiledTable(t, map[WindowID]geom.Rect{1: leftHalf, 2: rightHalf, 3: rightHalf})
	table.UpdateGroup([]WindowID{1, 2, 3})

	removed := table.Prune(func(id WindowID) bool { return id != 2 })
	if !reflect.DeepEqual(removed, []WindowID{2}) {
		t.Fatalf("Prune() = %v", removed)
	}
	if got := table.IDs(); !reflect.DeepEqual(got, []WindowID{1, 3}) {
		t.Fatalf("IDs() = %v", got)
	}
	if got := table.Members(1); !reflect.DeepEqual(got, []WindowID{3}) {
		t.Fatalf("Members(1) = %v", got)
	}
}

func TestTable_RaiseDoesNotRecurse(t *testing.T) {
	table := tiledTable(t, map[WindowID]geom.Rect{1: leftHalf, 2: rightHalf, 3: rightHalf})
	table.UpdateGroup([]WindowID{1, 2, 3})

	var raised []WindowID
	var raise func(WindowID)
	raise = func(id WindowID) {
		raised = append(raised, id)
		// A host that raises the group again whenever a member is raised.
		table.Raise(id, raise)
	}

	table.Raise(1, raise)
	if want := []WindowID{2, 3, 1}; !reflect.DeepEqual(raised, want) {
		t.Fatalf("raised %v, want %v", raised, want)
	}

	raised = nil
	table.Raise(2, raise)
	if want := []WindowID{1, 3, 2}; !reflect.DeepEqual(raised, want) {
		t.Fatalf("second raise %v, want %v", raised, want)
	}
}
