// Package repo provides the cutlists repository implementation
package repo

import (
	"context"
	stdsql "database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Scotts-Thoughts/fury-cutter/internal/core/timeline"
	"github.com/Scotts-Thoughts/fury-cutter/internal/modkit/repokit"
	perr "github.com/Scotts-Thoughts/fury-cutter/internal/platform/errors"
	"github.com/Scotts-Thoughts/fury-cutter/internal/services/cutlists/domain"
)

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG constructs a new repo binder for Postgres
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

// Storage defines the cutlists repository
type Storage interface {
	BeginRun(ctx context.Context, in domain.BeginRun) error
	FinishRun(ctx context.Context, in domain.FinishRun) error
	WriteIntervals(ctx context.Context, xs []domain.IntervalWrite) (int, error)
	ListRuns(ctx context.Context, in domain.ListInput, limit int) ([]domain.Run, domain.AfterKey, error)
	GetRun(ctx context.Context, id string) (domain.Run, error)
	ListIntervals(ctx context.Context, runID string, f domain.IntervalFilter) ([]domain.IntervalRow, error)
}

// BeginRun implements Storage
func (s *pg) BeginRun(ctx context.Context, in domain.BeginRun) error {
	const sql = `INSERT INTO runs
		(id, video_path, game_id, fps, total_frames, workers, status, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := s.q.Exec(ctx, sql,
		in.ID, in.VideoPath, in.GameID, in.FPS, int64(in.Frames),
		in.Workers, domain.RunStatusRunning, in.StartedAt.UTC(),
	)
	return perr.FromPostgresf(err, "begin run %s", in.ID)
}

// FinishRun implements Storage
func (s *pg) FinishRun(ctx context.Context, in domain.FinishRun) error {
	const sql = `UPDATE runs SET
		status = $2, detections = $3, intervals = $4, dropped = $5,
		degraded = $6, error = $7, finished_at = $8
		WHERE id = $1`
	tag, err := s.q.Exec(ctx, sql,
		in.ID, in.Status, in.Detections, in.Intervals, in.Dropped,
		in.Degraded, in.Error, in.FinishedAt.UTC(),
	)
	if err != nil {
		return perr.FromPostgresf(err, "finish run %s", in.ID)
	}
	if tag.RowsAffected() == 0 {
		return perr.NotFoundf("run %s not found", in.ID)
	}
	return nil
}

// WriteIntervals implements Storage.
// Idempotent for re-runs of the same cutlist
func (s *pg) WriteIntervals(ctx context.Context, xs []domain.IntervalWrite) (int, error) {
	if len(xs) == 0 {
		return 0, nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO cut_intervals
		(run_id, event_key, label, start_frame, end_frame, seed_frame, in_kind, out_kind) VALUES `)

	args := make([]any, 0, len(xs)*8)
	for i, iv := range xs {
		if i > 0 {
			sb.WriteByte(',')
		}
		base := i*8 + 1
		fmt.Fprintf(&sb, "($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base, base+1, base+2, base+3, base+4, base+5, base+6, base+7)

		args = append(args,
			iv.RunID, iv.Key, iv.Label, int64(iv.Start), int64(iv.End),
			int64(iv.Seed), iv.InKind, iv.OutKind,
		)
	}
	sb.WriteString(` ON CONFLICT (run_id, event_key, start_frame) DO NOTHING`)

	tag, err := s.q.Exec(ctx, sb.String(), args...)
	if err != nil {
		return 0, perr.FromPostgresf(err, "write %d intervals", len(xs))
	}
	return int(tag.RowsAffected()), nil
}

// ListRuns implements Storage
func (s *pg) ListRuns(
	ctx context.Context,
	in domain.ListInput,
	limit int,
) ([]domain.Run, domain.AfterKey, error) {
	var sb strings.Builder
	var args []any
	arg := func(v any) string { args = append(args, v); return fmt.Sprintf("$%d", len(args)) }

	sb.WriteString(`
		SELECT
			r.id::text, r.video_path, r.game_id, r.fps, r.total_frames, r.workers,
			r.status, r.detections, r.intervals, r.dropped, r.degraded,
			COALESCE(r.error, '') AS error, r.started_at, r.finished_at
		FROM runs r
		WHERE TRUE
	`)

	// Keyset only when AfterKey is set (avoid ""::uuid on first page)
	if in.After.ID != "" {
		sb.WriteString("  AND (r.started_at, r.id) > (" + arg(in.After.StartedAt) + ", " + arg(in.After.ID) + "::uuid)\n")
	}
	if in.GameID != "" {
		sb.WriteString("  AND r.game_id = " + arg(in.GameID) + "\n")
	}
	if in.Status != "" {
		sb.WriteString("  AND r.status = " + arg(in.Status) + "\n")
	}

	sb.WriteString("ORDER BY r.started_at, r.id\nLIMIT " + arg(limit))

	rows, err := s.q.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, domain.AfterKey{}, perr.FromPostgres(err, "list runs")
	}
	defer rows.Close()

	out := make([]domain.Run, 0, limit)
	var last domain.AfterKey
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, domain.AfterKey{}, err
		}
		out = append(out, r)
		last = domain.AfterKey{StartedAt: r.StartedAt, ID: r.ID}
	}
	return out, last, rows.Err()
}

// GetRun implements Storage
func (s *pg) GetRun(ctx context.Context, id string) (domain.Run, error) {
	const sql = `
		SELECT
			r.id::text, r.video_path, r.game_id, r.fps, r.total_frames, r.workers,
			r.status, r.detections, r.intervals, r.dropped, r.degraded,
			COALESCE(r.error, '') AS error, r.started_at, r.finished_at
		FROM runs r
		WHERE r.id = $1::uuid`

	row := s.q.QueryRow(ctx, sql, id)
	r, err := scanRun(row)
	if err != nil {
		if errors.Is(err, stdsql.ErrNoRows) {
			return domain.Run{}, perr.NotFoundf("run %s not found", id)
		}
		return domain.Run{}, perr.FromPostgresf(err, "get run %s", id)
	}
	return r, nil
}

// ListIntervals implements Storage, returning the cutlist in timeline order
func (s *pg) ListIntervals(
	ctx context.Context,
	runID string,
	f domain.IntervalFilter,
) ([]domain.IntervalRow, error) {
	var sb strings.Builder
	var args []any
	arg := func(v any) string { args = append(args, v); return fmt.Sprintf("$%d", len(args)) }

	sb.WriteString(`
		SELECT ci.run_id::text, ci.event_key, ci.label,
			ci.start_frame, ci.end_frame, ci.seed_frame, ci.in_kind, ci.out_kind
		FROM cut_intervals ci
		WHERE ci.run_id = ` + arg(runID) + `::uuid
	`)
	if f.Key != "" {
		sb.WriteString("  AND ci.event_key = " + arg(f.Key) + "\n")
	}
	sb.WriteString("ORDER BY ci.start_frame, ci.event_key")

	rows, err := s.q.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, perr.FromPostgresf(err, "list intervals for run %s", runID)
	}
	defer rows.Close()

	var out []domain.IntervalRow
	for rows.Next() {
		var iv domain.IntervalRow
		var start, end, seed int64
		if err := rows.Scan(
			&iv.RunID, &iv.Key, &iv.Label, &start, &end, &seed, &iv.InKind, &iv.OutKind,
		); err != nil {
			return nil, err
		}
		iv.Start, iv.End, iv.Seed = timeline.Frame(start), timeline.Frame(end), timeline.Frame(seed)
		out = append(out, iv)
	}
	return out, rows.Err()
}

// scanner covers both Row and Rows for shared run scanning
type scanner interface{ Scan(dest ...any) error }

func scanRun(sc scanner) (domain.Run, error) {
	var r domain.Run
	var frames int64
	if err := sc.Scan(
		&r.ID, &r.VideoPath, &r.GameID, &r.FPS, &frames, &r.Workers,
		&r.Status, &r.Detections, &r.Intervals, &r.Dropped, &r.Degraded,
		&r.Error, &r.StartedAt, &r.FinishedAt,
	); err != nil {
		return domain.Run{}, err
	}
	r.Frames = timeline.Frame(frames)
	return r, nil
}
