// Command furycut analyzes one capture end to end: scan, refine, persist
// and optionally export the cutlist for the editor
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Scotts-Thoughts/fury-cutter/internal/core/timeline"
	"github.com/Scotts-Thoughts/fury-cutter/internal/modkit"
	"github.com/Scotts-Thoughts/fury-cutter/internal/modkit/module"
	"github.com/Scotts-Thoughts/fury-cutter/internal/platform/config"
	"github.com/Scotts-Thoughts/fury-cutter/internal/platform/logger"
	"github.com/Scotts-Thoughts/fury-cutter/internal/platform/store"

	analysisdom "github.com/Scotts-Thoughts/fury-cutter/internal/services/analysis/domain"
	analysismod "github.com/Scotts-Thoughts/fury-cutter/internal/services/analysis/module"
	cutmod "github.com/Scotts-Thoughts/fury-cutter/internal/services/cutlists/module"
	diagmod "github.com/Scotts-Thoughts/fury-cutter/internal/services/diagnostics/module"
)

func splitKeys(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	var keys []string
	for _, k := range strings.Split(csv, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

func main() {
	var (
		video     = flag.String("video", "", "capture file to analyze (required)")
		game      = flag.String("game", "", "game id from the embedded pack (required)")
		keys      = flag.String("keys", "", "comma separated trainer keys; empty runs every key the game defines")
		fps       = flag.Float64("fps", 0, "frame rate override; 0 trusts the container")
		workers   = flag.Int("workers", 0, "refinement workers; 0 = cores-1")
		dense     = flag.Int("dense-step", 0, "probe stride inside the dense window (frames)")
		sparse    = flag.Int("sparse-step", 0, "probe stride after the dense window (frames)")
		until     = flag.Int("dense-until", 0, "dense window bound (frames)")
		jump      = flag.Int("jump", 0, "boundary walk stride (frames)")
		downscale = flag.Float64("downscale", 0, "probe crop downscale factor; 0 takes the default")
		timebolt  = flag.String("timebolt", "", "Timebolt segment JSON output path")
		blocks    = flag.String("blocks", "", "Automation Blocks label JSON output path")
		debugDir  = flag.String("debug-dir", "", "dump recognizer input crops here")
	)
	flag.Parse()

	if *video == "" || *game == "" {
		log.Fatal("video/game are required")
	}

	root := config.New()
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_")
	l := logger.Get()

	// ClickHouse carries best-effort telemetry only; the analyzer runs
	// without it when no DSN is configured
	chURL := chCfg.MayString("DBURL", "")

	st, err := store.Open(context.Background(), store.Config{
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
		CH: store.CHConfig{
			Enabled: chURL != "",
			URL:     chURL,
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
		CH:  st.CH,
		Log: *l,
	}

	// Build dependency modules first
	cl := cutmod.New(deps)
	dg := diagmod.New(deps)

	// Build the analysis module with ports injected from deps modules
	am := analysismod.New(
		deps,
		analysismod.Options{},
		analysismod.WithDepsModules(cl, dg),
	)

	// Register ports
	module.Register(cl.Name(), cl.Ports())
	module.Register(dg.Name(), dg.Ports())
	module.Register(am.Name(), am.Ports())

	// Kick the runner
	ports := am.Ports().(analysismod.Ports)
	sum, err := ports.Runner.Analyze(context.Background(), analysisdom.AnalyzeRequest{
		VideoPath:    *video,
		GameID:       *game,
		Keys:         splitKeys(*keys),
		FPS:          *fps,
		Workers:      *workers,
		DenseStep:    timeline.Frame(*dense),
		SparseStep:   timeline.Frame(*sparse),
		DenseUntil:   timeline.Frame(*until),
		JumpBack:     timeline.Frame(*jump),
		Downscale:    *downscale,
		DebugDir:     *debugDir,
		TimeboltPath: *timebolt,
		BlocksPath:   *blocks,
	})
	if err != nil {
		l.Fatal().Err(err).Msg("analyze failed")
	}

	printSummary(sum)
}

func printSummary(sum analysisdom.RunSummary) {
	fmt.Printf("run %s: %s (%s, %.2f fps, %d frames)\n",
		sum.RunID, sum.VideoPath, sum.GameID, sum.FPS, int64(sum.Frames))
	fmt.Printf("detections=%d intervals=%d dropped=%d degraded=%v elapsed=%s\n",
		sum.Detections, len(sum.Intervals), sum.Dropped, sum.Degraded, sum.Elapsed.Round(time.Millisecond))

	if len(sum.Intervals) == 0 {
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tLABEL\tIN\tOUT\tFRAMES")
	for _, iv := range sum.Intervals {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d-%d\n",
			iv.Key,
			iv.Label,
			timeline.Timecode(iv.Start, sum.FPS),
			timeline.Timecode(iv.End, sum.FPS),
			int64(iv.Start), int64(iv.End),
		)
	}
	_ = w.Flush()
}
