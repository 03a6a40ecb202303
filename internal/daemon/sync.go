package daemon

import (
	"fmt"
	"log/slog"

	"github.com/1broseidon/snaptile/internal/platform"
)

// WindowLister returns the ids of every window that still exists.
type WindowLister func() ([]platform.WindowID, error)

// Pruner forgets tiled windows for which alive returns false.
type Pruner interface {
	Prune(alive func(platform.WindowID) bool) []platform.WindowID
}

// StateSynchronizer drops tile state of windows that were closed.
type StateSynchronizer struct {
	pruner      Pruner
	listWindows WindowLister
	logger      *slog.Logger
}

// NewStateSynchronizer creates a new state synchronizer.
func NewStateSynchronizer(pruner Pruner, listWindows WindowLister, logger *slog.Logger) *StateSynchronizer {
	return &StateSynchronizer{
		pruner:      pruner,
		listWindows: listWindows,
		logger:      logger,
	}
}

// Sync compares tracked windows against the live window list and returns
// the ids that were forgotten. An empty window list is treated as a failed
// query rather than as every window having closed.
func (s *StateSynchronizer) Sync() ([]platform.WindowID, error) {
	ids, err := s.listWindows()
	if err != nil {
		return nil, fmt.Errorf("failed to list windows: %w", err)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("window manager reported no windows")
	}

	alive := make(map[platform.WindowID]struct{}, len(ids))
	for _, id := range ids {
		alive[id] = struct{}{}
	}
	removed := s.pruner.Prune(func(id platform.WindowID) bool {
		_, ok := alive[id]
		return ok
	})
	for _, id := range removed {
		s.logger.Info("window closed, dropping tile state", "window_id", id)
	}
	return removed, nil
}
