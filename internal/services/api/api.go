// Package api provides the read-only HTTP API over stored runs
package api

import (
	"crypto/subtle"

	"github.com/Scotts-Thoughts/fury-cutter/internal/platform/config"
	perr "github.com/Scotts-Thoughts/fury-cutter/internal/platform/errors"
	"github.com/Scotts-Thoughts/fury-cutter/internal/platform/logger"
	phttp "github.com/Scotts-Thoughts/fury-cutter/internal/platform/net/http"
	"github.com/Scotts-Thoughts/fury-cutter/internal/platform/net/middleware"
	"github.com/Scotts-Thoughts/fury-cutter/internal/platform/store"

	"github.com/Scotts-Thoughts/fury-cutter/internal/modkit"
	"github.com/Scotts-Thoughts/fury-cutter/internal/modkit/httpkit"
	"github.com/Scotts-Thoughts/fury-cutter/internal/modkit/module"
	"github.com/Scotts-Thoughts/fury-cutter/internal/modkit/swaggerkit"

	runsmod "github.com/Scotts-Thoughts/fury-cutter/internal/services/api/cutlists/module"
	metamod "github.com/Scotts-Thoughts/fury-cutter/internal/services/api/meta/module"

	// Cutlists service module (owns the Reader port over Postgres)
	cutmod "github.com/Scotts-Thoughts/fury-cutter/internal/services/cutlists/module"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	EnableSwagger  bool
	EnableProfiler bool
}

// AuthPort returns a bearer token verifier for the runs surface when a
// shared token is configured. A nil port leaves the surface open
func AuthPort(cfg config.Conf) middleware.AuthPort {
	token := cfg.MayString("TOKEN", "")
	if token == "" {
		return nil
	}
	return httpkit.NewPortFunc(func(tok string) (string, error) {
		if subtle.ConstantTimeCompare([]byte(tok), []byte(token)) != 1 {
			return "", perr.Unauthorizedf("invalid bearer token")
		}
		return "api", nil
	})
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) {
	// shared deps for modules
	deps := modkit.Deps{
		Cfg: opt.Config,
		PG:  opt.Store.PG,
		CH:  opt.Store.CH,
	}

	// Construct the cutlists service module first and extract its Reader port
	cutlists := cutmod.New(deps)
	reader := module.MustPortsOf[cutmod.Ports](cutlists).Reader

	// Inject that Reader into the runs API module
	runsAPI := runsmod.New(
		deps,
		modkit.WithPorts(runsmod.Ports{
			Reader: reader,
		}),
	)

	meta := metamod.New(deps)
	for _, m := range []module.Module{meta, cutlists, runsAPI} {
		// register each module's ports under its own name (for cross-module lookups)
		module.Register(m.Name(), m.Ports())
	}

	authPort := AuthPort(opt.Config)

	// versioned API with a common middleware stack
	httpkit.MountAPIV1(r, httpkit.CommonStack(), func(api httpkit.Router) {
		// Swagger + profiler
		swaggerkit.Mount(r, opt.EnableSwagger)
		phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

		// meta stays open; health checks and version need no token
		meta.MountRoutes(api)
		cutlists.MountRoutes(api)

		// the runs surface sits behind bearer auth when a token is set
		httpkit.Protected(api, authPort, func(gr httpkit.Router) {
			runsAPI.MountRoutes(gr)
		})
	})
}
