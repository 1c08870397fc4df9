package interaction

import (
	"context"
	"fmt"
	"log/slog"
)

// Coordinator applies toggles optimistically and settles them against the
// server's answer.
type Coordinator struct {
	Store  *Store
	Logger *slog.Logger
}

// NewCoordinator returns a Coordinator for the store. A nil logger falls back
// to slog.Default.
func NewCoordinator(store *Store, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		Store:  store,
		Logger: logger,
	}
}

// Toggle flips the viewer's interaction with the target, calls the server and
// reconciles the store with its answer. The store changes before call runs.
// When call fails the change is rolled back and the error returned; there is
// no retry. Answers to edits superseded by a newer toggle are dropped.
func (c *Coordinator) Toggle(ctx context.Context, seed Target, call RemoteCall) error {
	cmd := NewToggleCommand(c.Store, seed)
	optimistic := cmd.Apply()
	c.Logger.Debug("Applied optimistic toggle",
		"target", seed.ID, "kind", optimistic.Kind, "acted", optimistic.Acted, "score", optimistic.Score)

	res, err := call(ctx)
	if err != nil {
		if restored, ok := cmd.Rollback(); ok {
			c.Logger.Error("Toggle failed, rolled back",
				"target", seed.ID, "acted", restored.Acted, "score", restored.Score, "error", err.Error())
		} else {
			c.Logger.Error("Toggle failed after being superseded", "target", seed.ID, "error", err.Error())
		}
		return fmt.Errorf("toggle %s %s: %w", optimistic.Kind, seed.ID, err)
	}

	if _, ok := cmd.Reconcile(res); !ok {
		c.Logger.Debug("Discarded superseded toggle response",
			"target", seed.ID, "acted", res.Acted, "score", res.Score)
	}
	return nil
}
