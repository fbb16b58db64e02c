package module

import (
	modkit "github.com/Scotts-Thoughts/fury-cutter/internal/modkit"
	mmodule "github.com/Scotts-Thoughts/fury-cutter/internal/modkit/module"
)

// DepsModules is a convenience carrier of dependency *modules*.
// The analysis module will extract the required ports internally
type DepsModules struct {
	Cutlists    mmodule.Module
	Diagnostics mmodule.Module
}

// WithDepsModules lets callers pass dependency modules without exposing MustPortsOf in main
func WithDepsModules(cl mmodule.Module, diag mmodule.Module) modkit.Option {
	return modkit.WithPorts(DepsModules{Cutlists: cl, Diagnostics: diag})
}
