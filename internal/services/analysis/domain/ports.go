package domain

import (
	"context"

	"github.com/Scotts-Thoughts/fury-cutter/internal/core/probe"
	cutdom "github.com/Scotts-Thoughts/fury-cutter/internal/services/cutlists/domain"
	diagdom "github.com/Scotts-Thoughts/fury-cutter/internal/services/diagnostics/domain"
)

// RunnerPort is the external port for the analysis job
type RunnerPort interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (RunSummary, error)
}

// SourcePort opens capture files as probeable sources
type SourcePort interface {
	Open(ctx context.Context, spec OpenSpec) (probe.Source, error)
}

// Ports are dependencies injected into the analysis module
type Ports struct {
	Cutlists    cutdom.WriterPort    // required
	Diagnostics diagdom.RecorderPort // required
}
