// Package module implements the analysis module
package module

import (
	"net/http"

	"github.com/Scotts-Thoughts/fury-cutter/internal/core/gamepack"
	"github.com/Scotts-Thoughts/fury-cutter/internal/core/timeline"
	"github.com/Scotts-Thoughts/fury-cutter/internal/modkit"
	"github.com/Scotts-Thoughts/fury-cutter/internal/modkit/httpkit"
	mmodule "github.com/Scotts-Thoughts/fury-cutter/internal/modkit/module"
	"github.com/Scotts-Thoughts/fury-cutter/internal/services/analysis/domain"
	"github.com/Scotts-Thoughts/fury-cutter/internal/services/analysis/service"
	cutmod "github.com/Scotts-Thoughts/fury-cutter/internal/services/cutlists/module"
	diagmod "github.com/Scotts-Thoughts/fury-cutter/internal/services/diagnostics/module"
)

// Ports exposed by the analysis module
type Ports struct {
	Runner domain.RunnerPort
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs a new analysis module
func New(deps modkit.Deps, overrides Options, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("analysis"),
	}, opts...)...)

	// Basic guardrails against incorrect wiring
	ports := resolvePorts(b.Ports)
	if ports.Cutlists == nil || ports.Diagnostics == nil {
		panic("analysis module: Ports missing Cutlists or Diagnostics")
	}

	// Merge config + overrides
	cfg := FromConfig(deps.Cfg)
	if overrides.Workers != 0 {
		cfg.Workers = overrides.Workers
	}
	if overrides.DenseStep != 0 {
		cfg.DenseStep = overrides.DenseStep
	}
	if overrides.SparseStep != 0 {
		cfg.SparseStep = overrides.SparseStep
	}
	if overrides.DenseUntil != 0 {
		cfg.DenseUntil = overrides.DenseUntil
	}
	if overrides.JumpBack != 0 {
		cfg.JumpBack = overrides.JumpBack
	}
	if overrides.Downscale != 0 {
		cfg.Downscale = overrides.Downscale
	}
	if overrides.PSM != 0 {
		cfg.PSM = overrides.PSM
	}
	if overrides.Lang != "" {
		cfg.Lang = overrides.Lang
	}
	if overrides.Binarize != 0 {
		cfg.Binarize = overrides.Binarize
	}

	// Shared game pack for the runner
	pack, err := gamepack.Load()
	if err != nil {
		panic(err)
	}

	runner := service.New(
		ffmpegSource{psm: cfg.PSM, lang: cfg.Lang, binarize: cfg.Binarize},
		ports.Cutlists,
		ports.Diagnostics,
		pack,
		service.Config{
			Workers:    cfg.Workers,
			DenseStep:  timeline.Frame(cfg.DenseStep),
			SparseStep: timeline.Frame(cfg.SparseStep),
			DenseUntil: timeline.Frame(cfg.DenseUntil),
			JumpBack:   timeline.Frame(cfg.JumpBack),
			Downscale:  cfg.Downscale,
		},
	)

	m := &Module{deps: deps}
	m.ports = Ports{Runner: runner}
	return m
}

// resolvePorts accepts either wired domain ports or the dependency
// modules themselves via WithDepsModules
func resolvePorts(v any) domain.Ports {
	switch p := v.(type) {
	case domain.Ports:
		return p
	case DepsModules:
		return domain.Ports{
			Cutlists:    mmodule.MustPortsOf[cutmod.Ports](p.Cutlists).Writer,
			Diagnostics: mmodule.MustPortsOf[diagmod.Ports](p.Diagnostics).Recorder,
		}
	default:
		panic("analysis module: expected WithPorts(analysis/domain.Ports) or WithDepsModules(cutlists, diagnostics)")
	}
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "analysis" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// Prefix satisfies modkit.Module
func (m *Module) Prefix() string { return "" }

// Middlewares satisfies modkit.Module
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return nil }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(_ httpkit.Router) {}
