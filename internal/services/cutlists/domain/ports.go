package domain

import "context"

// WriterPort persists runs and their refined intervals
type WriterPort interface {
	BeginRun(ctx context.Context, in BeginRun) error
	FinishRun(ctx context.Context, in FinishRun) error

	// WriteIntervals inserts refined cuts idempotently on
	// (run_id, event_key, start_frame) and reports how many landed
	WriteIntervals(ctx context.Context, xs []IntervalWrite) (int, error)
}

// ReaderPort reads persisted runs for the API and the export binary
type ReaderPort interface {
	// ListRuns returns up to Limit rows ordered by (started_at, id)
	ListRuns(ctx context.Context, in ListInput) (rows []Run, next AfterKey, err error)
	GetRun(ctx context.Context, id string) (Run, error)
	ListIntervals(ctx context.Context, runID string, f IntervalFilter) ([]IntervalRow, error)
}
