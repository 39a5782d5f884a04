package lifecycle

import (
	"context"
	"sync/atomic"
	"time"

	"feedbird/internal/models"
	"feedbird/internal/observability"
	"feedbird/internal/store"
)

// DefaultSweepInterval is how often the reconciler rechecks the tree.
const DefaultSweepInterval = 60 * time.Second

// Reconciler periodically repairs posts whose status drifted from wall-clock
// time, e.g. a Scheduled post whose publish date passed while the process
// was down. Corrections are local-only and silent: no backend write, no
// activity, no notification.
type Reconciler struct {
	tree     *store.Tree
	interval time.Duration
	running  atomic.Bool
	now      func() time.Time
}

// NewReconciler returns a reconciler over the given tree. A non-positive
// interval falls back to DefaultSweepInterval.
func NewReconciler(tree *store.Tree, interval time.Duration) *Reconciler {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Reconciler{tree: tree, interval: interval, now: time.Now}
}

// Start runs sweeps on the configured cadence until ctx is done.
func (r *Reconciler) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Sweep()
			}
		}
	}()
}

type correction struct {
	workspaceID string
	postID      string
	from        models.Status
	to          models.Status
}

// Sweep scans every post once and applies time corrections. Sweeps are
// single-flight: a sweep arriving while one is running returns immediately
// with zero corrections.
func (r *Reconciler) Sweep() int {
	if !r.running.CompareAndSwap(false, true) {
		return 0
	}
	defer r.running.Store(false)

	observability.ReconcileSweeps.Inc()
	now := r.now()

	// Collect under the read lock, apply after. Posts with no publish date
	// can never drift, so they are skipped without computing anything.
	var pending []correction
	r.tree.EachPost(func(workspaceID string, p models.Post) {
		if p.PublishDate == nil || p.PublishDate.IsZero() {
			return
		}
		next := ReconcileTime(p.Status, p.PublishDate, now)
		if next != p.Status {
			pending = append(pending, correction{workspaceID, p.ID, p.Status, next})
		}
	})

	applied := 0
	for _, c := range pending {
		corrected := false
		r.tree.UpdatePost(c.workspaceID, c.postID, func(p *models.Post) {
			// Recheck: the post may have moved since the scan.
			if p.Status == c.from && ReconcileTime(p.Status, p.PublishDate, now) == c.to {
				p.Status = c.to
				corrected = true
			}
		})
		if corrected {
			applied++
			observability.ReconcileCorrections.WithLabelValues(string(c.from), string(c.to)).Inc()
		}
	}
	return applied
}
