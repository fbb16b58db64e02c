// Package module provides the diagnostics module
package module

import (
	"net/http"

	"github.com/Scotts-Thoughts/fury-cutter/internal/modkit"
	"github.com/Scotts-Thoughts/fury-cutter/internal/modkit/httpkit"
	"github.com/Scotts-Thoughts/fury-cutter/internal/services/diagnostics/domain"
	"github.com/Scotts-Thoughts/fury-cutter/internal/services/diagnostics/repo"
	"github.com/Scotts-Thoughts/fury-cutter/internal/services/diagnostics/service"
)

// Ports exposed by the diagnostics module
type Ports struct {
	Recorder domain.RecorderPort
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs a new diagnostics module.
// deps.CH may be nil, in which case recording is a silent no-op
func New(deps modkit.Deps) *Module {
	opts := FromConfig(deps.Cfg)

	storage := repo.NewCH(deps.CH, opts.DropsTable, opts.StatsTable)
	svc := service.New(storage)

	m := &Module{deps: deps}
	m.ports = Ports{Recorder: svc}
	return m
}

// Name implements modkit.Module
func (m *Module) Name() string { return "diagnostics" }

// Ports implements modkit.Module
func (m *Module) Ports() any { return m.ports }

// Prefix implements modkit.Module
func (m *Module) Prefix() string { return "" }

// Middlewares implements modkit.Module
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return nil }

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {}
