// Package repo provides the diagnostics repository over the columnar store
package repo

import (
	"context"

	perr "github.com/Scotts-Thoughts/fury-cutter/internal/platform/errors"
	"github.com/Scotts-Thoughts/fury-cutter/internal/platform/store"
	"github.com/Scotts-Thoughts/fury-cutter/internal/services/diagnostics/domain"
)

// Storage is the minimal persistence surface the diagnostics service needs
type Storage interface {
	WriteDrops(ctx context.Context, xs []domain.Drop) error
	WriteProbeStats(ctx context.Context, st domain.ProbeStats) error
}

// CH writes diagnostics rows through the Clickhouse seam.
// A nil seam turns every write into a no-op so runs work without the store
type CH struct {
	DB         store.Clickhouse
	DropsTable string
	StatsTable string
}

// NewCH constructs the repository. Empty table names get defaults
func NewCH(db store.Clickhouse, dropsTable, statsTable string) *CH {
	if dropsTable == "" {
		dropsTable = "battle_drops"
	}
	if statsTable == "" {
		statsTable = "run_probe_stats"
	}
	return &CH{DB: db, DropsTable: dropsTable, StatsTable: statsTable}
}

// WriteDrops persists refinement casualties in one batch
func (r *CH) WriteDrops(ctx context.Context, xs []domain.Drop) error {
	if r.DB == nil || len(xs) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(xs))
	for _, d := range xs {
		rows = append(rows, []any{
			d.RunID,
			d.Key,
			int64(d.Seed),
			d.Reason,
			d.At.UTC(),
		})
	}

	target := r.DropsTable + " (run_id, event_key, seed_frame, reason, at)"
	if err := r.DB.Insert(ctx, target, rows); err != nil {
		return perr.Unavailablef("diagnostics: insert %s: %v", r.DropsTable, err)
	}
	return nil
}

// WriteProbeStats persists the run's counter snapshot
func (r *CH) WriteProbeStats(ctx context.Context, st domain.ProbeStats) error {
	if r.DB == nil {
		return nil
	}

	row := []any{
		st.RunID,
		int32(st.Probed),
		int32(st.Recognized),
		int32(st.Accepted),
		int32(st.Suppressed),
		int32(st.ProbeFailures),
		int32(st.CachedFrames),
		int32(st.InFallbacks),
		int32(st.OutFallbacks),
		int32(st.Rescues),
		int32(st.Dropped),
		st.Degraded,
		st.At.UTC(),
	}

	target := r.StatsTable + " (run_id, probed, recognized, accepted, suppressed," +
		" probe_failures, cached_frames, in_fallbacks, out_fallbacks, rescues," +
		" dropped, degraded, at)"
	if err := r.DB.Insert(ctx, target, [][]any{row}); err != nil {
		return perr.Unavailablef("diagnostics: insert %s: %v", r.StatsTable, err)
	}
	return nil
}
