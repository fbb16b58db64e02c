// Package http provides http transport for the stored-run read API
package http

import (
	stdhttp "net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Scotts-Thoughts/fury-cutter/internal/core/timeline"
	"github.com/Scotts-Thoughts/fury-cutter/internal/modkit/httpkit"
	perr "github.com/Scotts-Thoughts/fury-cutter/internal/platform/errors"
	"github.com/Scotts-Thoughts/fury-cutter/internal/services/api/cutlists/domain"
	cutdom "github.com/Scotts-Thoughts/fury-cutter/internal/services/cutlists/domain"
)

// Register mounts the runs endpoints on the given router
func Register(r httpkit.Router, reader cutdom.ReaderPort) {
	h := &handlers{reader: reader}

	httpkit.Get(r, "/", h.list)
	httpkit.Get(r, "/{id}", h.get)
	httpkit.Get(r, "/{id}/intervals", h.intervals)
}

type handlers struct{ reader cutdom.ReaderPort }

// swagger:route GET /runs Runs runsList
// @Summary List analysis runs, newest first, keyset paginated
// @Tags Runs
// @Produce json
// @Param game_id query string false "filter by game id"
// @Param status query string false "filter by run status" Enums(running, done, failed)
// @Param limit query int false "page size (max 200)"
// @Param after_started_at query string false "cursor half from the previous page"
// @Param after_id query string false "cursor half from the previous page"
// @Success 200 {object} domain.RunsPage "ok"
// @Router /runs [get]
func (h *handlers) list(r *stdhttp.Request) (any, error) {
	q := r.URL.Query()
	in := domain.RunsQuery{
		GameID:         q.Get("game_id"),
		Status:         q.Get("status"),
		AfterStartedAt: q.Get("after_started_at"),
		AfterID:        q.Get("after_id"),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, perr.InvalidArgf("limit: %q is not an integer", v)
		}
		in.Limit = n
	}
	if err := httpkit.Validate(in); err != nil {
		return nil, err
	}

	list := cutdom.ListInput{GameID: in.GameID, Status: in.Status, Limit: in.Limit}
	if in.AfterStartedAt != "" || in.AfterID != "" {
		if in.AfterStartedAt == "" || in.AfterID == "" {
			return nil, perr.InvalidArgf("after_started_at and after_id travel together")
		}
		ts, err := time.Parse(time.RFC3339Nano, in.AfterStartedAt)
		if err != nil {
			return nil, perr.InvalidArgf("after_started_at: %v", err)
		}
		list.After = cutdom.AfterKey{StartedAt: ts, ID: in.AfterID}
	}

	rows, next, err := h.reader.ListRuns(r.Context(), list)
	if err != nil {
		return nil, err
	}

	page := domain.RunsPage{Runs: make([]domain.Run, 0, len(rows))}
	for _, run := range rows {
		page.Runs = append(page.Runs, toRun(run))
	}
	if next.ID != "" {
		page.NextStartedAt = next.StartedAt.UTC().Format(time.RFC3339Nano)
		page.NextID = next.ID
	}
	return page, nil
}

// swagger:route GET /runs/{id} Runs runsGet
// @Summary Fetch one run
// @Tags Runs
// @Produce json
// @Param id path string true "run id"
// @Success 200 {object} domain.Run "ok"
// @Router /runs/{id} [get]
func (h *handlers) get(r *stdhttp.Request) (any, error) {
	run, err := h.reader.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return nil, err
	}
	return toRun(run), nil
}

// swagger:route GET /runs/{id}/intervals Runs runsIntervals
// @Summary Fetch a run's cutlist rendered against its frame rate
// @Tags Runs
// @Produce json
// @Param id path string true "run id"
// @Param key query string false "restrict to one trainer key"
// @Success 200 {object} domain.IntervalsResponse "ok"
// @Router /runs/{id}/intervals [get]
func (h *handlers) intervals(r *stdhttp.Request) (any, error) {
	id := chi.URLParam(r, "id")
	in := domain.IntervalsQuery{Key: r.URL.Query().Get("key")}
	if err := httpkit.Validate(in); err != nil {
		return nil, err
	}

	run, err := h.reader.GetRun(r.Context(), id)
	if err != nil {
		return nil, err
	}
	rows, err := h.reader.ListIntervals(r.Context(), id, cutdom.IntervalFilter{Key: in.Key})
	if err != nil {
		return nil, err
	}

	resp := domain.IntervalsResponse{
		RunID:     run.ID,
		FPS:       run.FPS,
		Intervals: make([]domain.Interval, 0, len(rows)),
	}
	for _, row := range rows {
		resp.Intervals = append(resp.Intervals, domain.Interval{
			Key:           row.Key,
			Label:         row.Label,
			StartFrame:    int64(row.Start),
			EndFrame:      int64(row.End),
			StartSeconds:  timeline.Seconds(row.Start, run.FPS),
			EndSeconds:    timeline.Seconds(row.End, run.FPS),
			StartTimecode: timeline.Timecode(row.Start, run.FPS),
			EndTimecode:   timeline.Timecode(row.End, run.FPS),
			SeedFrame:     int64(row.Seed),
			InKind:        row.InKind,
			OutKind:       row.OutKind,
		})
	}
	return resp, nil
}

func toRun(run cutdom.Run) domain.Run {
	out := domain.Run{
		ID:         run.ID,
		VideoPath:  run.VideoPath,
		GameID:     run.GameID,
		FPS:        run.FPS,
		Frames:     int64(run.Frames),
		Workers:    run.Workers,
		Status:     run.Status,
		Detections: run.Detections,
		Intervals:  run.Intervals,
		Dropped:    run.Dropped,
		Degraded:   run.Degraded,
		Error:      run.Error,
		StartedAt:  run.StartedAt.UTC().Format(time.RFC3339Nano),
	}
	if run.FinishedAt != nil {
		out.FinishedAt = run.FinishedAt.UTC().Format(time.RFC3339Nano)
	}
	return out
}
