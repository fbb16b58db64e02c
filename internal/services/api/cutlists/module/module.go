// Package module wires the stored-run read API using modkit
package module

import (
	"net/http"

	modkit "github.com/Scotts-Thoughts/fury-cutter/internal/modkit"
	"github.com/Scotts-Thoughts/fury-cutter/internal/modkit/httpkit"
	str "github.com/Scotts-Thoughts/fury-cutter/internal/platform/strings"

	cuthttp "github.com/Scotts-Thoughts/fury-cutter/internal/services/api/cutlists/http"
	cutdom "github.com/Scotts-Thoughts/fury-cutter/internal/services/cutlists/domain"
)

// Ports declares the injected reader this API module serves
type Ports struct {
	Reader cutdom.ReaderPort
}

// Module implements the runs API module
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws       []func(http.Handler) http.Handler
	ports     any
	swaggerOn bool

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)
}

// New constructs the runs module around an injected cutlists reader
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("runs"),
		modkit.WithPrefix("/runs"),
	}, opts...)...)

	var injected Ports
	if p, ok := b.Ports.(Ports); ok {
		injected = p
	}
	if injected.Reader == nil {
		panic("runs API module requires Reader port (from services/cutlists)")
	}

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		swaggerOn: b.SwaggerOn,
		subrouter: b.Subrouter,
	}
	m.ports = injected

	external := b.Register
	m.register = func(r httpkit.Router) {
		cuthttp.Register(r, injected.Reader)
		if external != nil {
			external(r)
		}
	}
	return m
}

// MountRoutes mounts the module routes on the given router
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Route(m.prefix, func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		if m.subrouter != nil {
			rr = m.subrouter(rr)
		}
		if m.register != nil {
			m.register(rr)
		}
	})
}

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.name, "module name") }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }

// Middlewares returns the module middlewares
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return m.mws }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
