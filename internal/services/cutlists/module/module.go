// Package module provides the cutlists module
package module

import (
	"net/http"

	"github.com/Scotts-Thoughts/fury-cutter/internal/modkit"
	"github.com/Scotts-Thoughts/fury-cutter/internal/modkit/httpkit"
	"github.com/Scotts-Thoughts/fury-cutter/internal/modkit/repokit"
	"github.com/Scotts-Thoughts/fury-cutter/internal/services/cutlists/domain"
	"github.com/Scotts-Thoughts/fury-cutter/internal/services/cutlists/repo"
	"github.com/Scotts-Thoughts/fury-cutter/internal/services/cutlists/service"
)

// Ports exposed by the cutlists module
type Ports struct {
	Writer domain.WriterPort
	Reader domain.ReaderPort
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs a new cutlists module
func New(deps modkit.Deps) *Module {
	opts := FromConfig(deps.Cfg)

	binder := repo.NewPG()
	svc := service.New(repokit.TxRunner(deps.PG), binder, service.Config{
		HardLimit: opts.HardLimit,
	})

	m := &Module{deps: deps}
	m.ports = Ports{Writer: svc, Reader: svc}
	return m
}

// Name implements modkit.Module
func (m *Module) Name() string { return "cutlists" }

// Ports implements modkit.Module
func (m *Module) Ports() any { return m.ports }

// Prefix implements modkit.Module
func (m *Module) Prefix() string { return "" }

// Middlewares implements modkit.Module
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return nil }

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {}
