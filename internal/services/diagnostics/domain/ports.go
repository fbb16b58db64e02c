package domain

import "context"

// RecorderPort captures run telemetry. Recording is best effort: a
// storage outage degrades to a logged warning and must never fail the
// run that produced the numbers, so the methods return nothing
type RecorderPort interface {
	// RecordDrops persists refinement casualties for one run
	RecordDrops(ctx context.Context, xs []Drop)

	// RecordProbeStats persists the run's counter snapshot
	RecordProbeStats(ctx context.Context, st ProbeStats)
}
