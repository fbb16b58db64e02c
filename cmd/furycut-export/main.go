// Command furycut-export re-renders a stored run's cutlist into the editor
// exchange formats without re-analyzing the capture
package main

import (
	"context"
	"flag"
	"log"

	"github.com/Scotts-Thoughts/fury-cutter/internal/adapters/export"
	"github.com/Scotts-Thoughts/fury-cutter/internal/core/timeline"
	"github.com/Scotts-Thoughts/fury-cutter/internal/modkit"
	"github.com/Scotts-Thoughts/fury-cutter/internal/modkit/module"
	"github.com/Scotts-Thoughts/fury-cutter/internal/platform/config"
	"github.com/Scotts-Thoughts/fury-cutter/internal/platform/logger"
	"github.com/Scotts-Thoughts/fury-cutter/internal/platform/store"

	cutdom "github.com/Scotts-Thoughts/fury-cutter/internal/services/cutlists/domain"
	cutmod "github.com/Scotts-Thoughts/fury-cutter/internal/services/cutlists/module"
)

func main() {
	var (
		runID    = flag.String("run", "", "run id to export (required)")
		timebolt = flag.String("timebolt", "", "Timebolt segment JSON output path")
		blocks   = flag.String("blocks", "", "Automation Blocks label JSON output path")
		key      = flag.String("key", "", "restrict to one trainer key")
	)
	flag.Parse()

	if *runID == "" {
		log.Fatal("run is required")
	}
	if *timebolt == "" && *blocks == "" {
		log.Fatal("nothing to do: pass -timebolt and/or -blocks")
	}

	root := config.New()
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	l := logger.Get()

	st, err := store.Open(context.Background(), store.Config{
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 2)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
	}, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	deps := modkit.Deps{
		Cfg: root,
		PG:  st.PG,
		Log: *l,
	}

	cl := cutmod.New(deps)
	module.Register(cl.Name(), cl.Ports())
	reader := module.MustPortsOf[cutmod.Ports](cl).Reader

	ctx := context.Background()
	run, err := reader.GetRun(ctx, *runID)
	if err != nil {
		l.Fatal().Err(err).Str("run_id", *runID).Msg("load run failed")
	}
	rows, err := reader.ListIntervals(ctx, *runID, cutdom.IntervalFilter{Key: *key})
	if err != nil {
		l.Fatal().Err(err).Str("run_id", *runID).Msg("load intervals failed")
	}

	ivs := make([]timeline.Interval, 0, len(rows))
	for _, row := range rows {
		ivs = append(ivs, timeline.Interval{
			Key:   row.Key,
			Start: row.Start,
			End:   row.End,
			Label: row.Label,
		})
	}

	if *timebolt != "" {
		if err := export.WriteTimebolt(*timebolt, ivs, run.Frames, run.FPS); err != nil {
			l.Fatal().Err(err).Msg("write timebolt failed")
		}
	}
	if *blocks != "" {
		if err := export.WriteBlocks(*blocks, ivs, run.FPS); err != nil {
			l.Fatal().Err(err).Msg("write blocks failed")
		}
	}

	l.Info().
		Str("run_id", run.ID).
		Str("game", run.GameID).
		Int("intervals", len(ivs)).
		Msg("export done")
}
