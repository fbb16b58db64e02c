// Package service provides the cutlists service implementation
package service

import (
	"context"

	"github.com/Scotts-Thoughts/fury-cutter/internal/modkit/repokit"
	"github.com/Scotts-Thoughts/fury-cutter/internal/services/cutlists/domain"
	"github.com/Scotts-Thoughts/fury-cutter/internal/services/cutlists/repo"
)

// Config for the cutlists service
type Config struct {
	// HardLimit is the maximum allowed limit per ListRuns call; defaults to 100 if <=0
	HardLimit int
}

// Service implements domain.WriterPort and domain.ReaderPort
type Service struct {
	DB     repokit.TxRunner
	Binder repokit.Binder[repo.Storage]
	Cfg    Config
}

// New constructs a new cutlists service
func New(db repokit.TxRunner, b repokit.Binder[repo.Storage], cfg Config) *Service {
	if cfg.HardLimit <= 0 {
		cfg.HardLimit = 100
	}
	return &Service{DB: db, Binder: b, Cfg: cfg}
}

// BeginRun implements domain.WriterPort
func (s *Service) BeginRun(ctx context.Context, in domain.BeginRun) error {
	return s.DB.Tx(ctx, func(q repokit.Queryer) error {
		return s.Binder.Bind(q).BeginRun(ctx, in)
	})
}

// FinishRun implements domain.WriterPort
func (s *Service) FinishRun(ctx context.Context, in domain.FinishRun) error {
	return s.DB.Tx(ctx, func(q repokit.Queryer) error {
		return s.Binder.Bind(q).FinishRun(ctx, in)
	})
}

// WriteIntervals implements domain.WriterPort; the batch lands atomically
func (s *Service) WriteIntervals(ctx context.Context, xs []domain.IntervalWrite) (int, error) {
	var n int
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		n, err = s.Binder.Bind(q).WriteIntervals(ctx, xs)
		return err
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// ListRuns implements domain.ReaderPort
func (s *Service) ListRuns(ctx context.Context, in domain.ListInput) ([]domain.Run, domain.AfterKey, error) {
	limit := in.Limit
	if limit <= 0 || limit > s.Cfg.HardLimit {
		limit = s.Cfg.HardLimit
	}

	var rows []domain.Run
	var next domain.AfterKey
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		rows, next, err = s.Binder.Bind(q).ListRuns(ctx, in, limit)
		return err
	})
	if err != nil {
		return nil, domain.AfterKey{}, err
	}
	return rows, next, nil
}

// GetRun implements domain.ReaderPort
func (s *Service) GetRun(ctx context.Context, id string) (domain.Run, error) {
	var run domain.Run
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		run, err = s.Binder.Bind(q).GetRun(ctx, id)
		return err
	})
	if err != nil {
		return domain.Run{}, err
	}
	return run, nil
}

// ListIntervals implements domain.ReaderPort
func (s *Service) ListIntervals(
	ctx context.Context,
	runID string,
	f domain.IntervalFilter,
) ([]domain.IntervalRow, error) {
	var rows []domain.IntervalRow
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		rows, err = s.Binder.Bind(q).ListIntervals(ctx, runID, f)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}
