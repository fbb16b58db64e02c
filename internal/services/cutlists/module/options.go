package module

import (
	"github.com/Scotts-Thoughts/fury-cutter/internal/platform/config"
)

// Options configures the cutlists module
type Options struct {
	HardLimit int
}

// FromConfig reads options from config.Conf
func FromConfig(cfg config.Conf) Options {
	cf := cfg.Prefix("CORE_CUTLISTS_")
	return Options{
		HardLimit: cf.MayInt("HARD_LIMIT", 100),
	}
}
