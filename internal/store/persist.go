package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"feedbird/internal/models"
	"feedbird/internal/observability"
)

// SnapshotKey is the fixed Redis key the workspace tree is persisted under.
// The suffix is a schema version: bumping it abandons old snapshots instead
// of migrating them.
const SnapshotKey = "feedbird-store:v4"

const snapshotTTL = 30 * 24 * time.Hour

type snapshot struct {
	Version    int                `json:"version"`
	SavedAt    time.Time          `json:"saved_at"`
	Workspaces []models.Workspace `json:"workspaces"`
}

// Persister saves and restores tree snapshots in Redis. A nil client makes
// every method a no-op, matching the rest of the system's Redis-optional
// posture.
type Persister struct {
	rdb *redis.Client
}

func NewPersister(rdb *redis.Client) *Persister {
	return &Persister{rdb: rdb}
}

// Save serializes the current tree under SnapshotKey.
func (p *Persister) Save(ctx context.Context, t *Tree) error {
	if p.rdb == nil {
		return nil
	}
	snap := snapshot{Version: 4, SavedAt: time.Now().UTC(), Workspaces: t.Workspaces()}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return p.rdb.Set(ctx, SnapshotKey, data, snapshotTTL).Err()
}

// Load hydrates the tree from a stored snapshot. A missing key is not an
// error: the tree simply starts empty and fills from the backend.
func (p *Persister) Load(ctx context.Context, t *Tree) (bool, error) {
	if p.rdb == nil {
		return false, nil
	}
	data, err := p.rdb.Get(ctx, SnapshotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load snapshot: %w", err)
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		// A corrupt or incompatible snapshot is discarded, not fatal.
		observability.GlobalLogger.Warn("discarding unreadable store snapshot", "error", err)
		return false, nil
	}
	t.Hydrate(snap.Workspaces)
	return true, nil
}

// StartAutosave persists the tree on a fixed cadence until ctx is done.
func (p *Persister) StartAutosave(ctx context.Context, t *Tree, every time.Duration) {
	if p.rdb == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := p.Save(ctx, t); err != nil {
					observability.GlobalLogger.Warn("store autosave failed", "error", err)
				}
			}
		}
	}()
}
