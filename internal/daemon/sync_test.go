package daemon

import (
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/1broseidon/snaptile/internal/platform"
)

type fakePruner struct {
	tracked []platform.WindowID
}

func (p *fakePruner) Prune(alive func(platform.WindowID) bool) []platform.WindowID {
	var kept, removed []platform.WindowID
	for _, id := range p.tracked {
		if alive(id) {
			kept = append(kept, id)
		} else {
			removed = append(removed, id)
		}
	}
	p.tracked = kept
	return removed
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStateSynchronizer_Sync(t *testing.T) {
	pruner := &fakePruner{tracked: []platform.WindowID{1, 2, 3}}
	list := func() ([]platform.WindowID, error) { return []platform.WindowID{1, 3, 7}, nil }
	s := NewStateSynchronizer(pruner, list, discardLogger())

	removed, err := s.Sync()
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if !reflect.DeepEqual(removed, []platform.WindowID{2}) {
		t.Fatalf("removed = %v", removed)
	}
	if !reflect.DeepEqual(pruner.tracked, []platform.WindowID{1, 3}) {
		t.Fatalf("tracked = %v", pruner.tracked)
	}
}

func TestStateSynchronizer_SyncKeepsStateOnListFailure(t *testing.T) {
	pruner := &fakePruner{tracked: []platform.WindowID{1, 2}}

	failing := func() ([]platform.WindowID, error) { return nil, errors.New("connection lost") }
	if _, err := NewStateSynchronizer(pruner, failing, discardLogger()).Sync(); err == nil {
		t.Fatalf("expected error when listing fails")
	}

	empty := func() ([]platform.WindowID, error) { return nil, nil }
	if _, err := NewStateSynchronizer(pruner, empty, discardLogger()).Sync(); err == nil {
		t.Fatalf("expected error for an empty window list")
	}
	if len(pruner.tracked) != 2 {
		t.Fatalf("tracked windows were dropped: %v", pruner.tracked)
	}
}

func TestReconciler_ReconcileNow(t *testing.T) {
	pruner := &fakePruner{tracked: []platform.WindowID{4, 5}}
	list := func() ([]platform.WindowID, error) { return []platform.WindowID{5}, nil }
	r := NewReconciler(ReconcilerConfig{Logger: discardLogger()}, NewStateSynchronizer(pruner, list, discardLogger()))

	r.ReconcileNow()
	if !reflect.DeepEqual(pruner.tracked, []platform.WindowID{5}) {
		t.Fatalf("tracked = %v", pruner.tracked)
	}
}
