// Package service provides the diagnostics service implementation
package service

import (
	"context"

	"github.com/Scotts-Thoughts/fury-cutter/internal/platform/logger"
	"github.com/Scotts-Thoughts/fury-cutter/internal/services/diagnostics/domain"
	"github.com/Scotts-Thoughts/fury-cutter/internal/services/diagnostics/repo"
)

// Service implements domain.RecorderPort. Write failures are logged at
// warn and swallowed so telemetry can never sink the run it describes
type Service struct {
	Storage repo.Storage
}

// New constructs the diagnostics service
func New(storage repo.Storage) *Service {
	return &Service{Storage: storage}
}

var _ domain.RecorderPort = (*Service)(nil)

// RecordDrops implements domain.RecorderPort
func (s *Service) RecordDrops(ctx context.Context, xs []domain.Drop) {
	if len(xs) == 0 {
		return
	}
	if err := s.Storage.WriteDrops(ctx, xs); err != nil {
		l := logger.C(ctx).With().Str("mod", "diagnostics").Logger()
		l.Warn().Err(err).Int("drops", len(xs)).Msg("drop write failed")
	}
}

// RecordProbeStats implements domain.RecorderPort
func (s *Service) RecordProbeStats(ctx context.Context, st domain.ProbeStats) {
	if err := s.Storage.WriteProbeStats(ctx, st); err != nil {
		l := logger.C(ctx).With().Str("mod", "diagnostics").Logger()
		l.Warn().Err(err).Str("run_id", st.RunID).Msg("stats write failed")
	}
}
