package module

import (
	"github.com/Scotts-Thoughts/fury-cutter/internal/platform/config"
)

// Options configures the diagnostics module
type Options struct {
	DropsTable string
	StatsTable string
}

// FromConfig reads options from config.Conf
func FromConfig(cfg config.Conf) Options {
	df := cfg.Prefix("CORE_DIAG_")
	return Options{
		DropsTable: df.MayString("DROPS_TABLE", "battle_drops"),
		StatsTable: df.MayString("STATS_TABLE", "run_probe_stats"),
	}
}
