// Package workspace holds the Package/DependencySpec data model and the
// in-memory workspace that analysis, propagation, and publishing operate
// over.
package workspace

import (
	"fmt"
	"strings"

	berrors "github.com/berthrelease/berth/internal/errors"
	"github.com/berthrelease/berth/pkg/semver"
	"github.com/berthrelease/berth/pkg/types"
)

// Ecosystem identifies the package-manifest format a package is described
// by, so internal/manifest dispatches to the matching EcosystemHandler.
type Ecosystem string

const (
	EcosystemGo     Ecosystem = "go"
	EcosystemNPM    Ecosystem = "npm"
	EcosystemPython Ecosystem = "python"
	EcosystemCargo  Ecosystem = "cargo"
	EcosystemHelm   Ecosystem = "helm"
	EcosystemDeno   Ecosystem = "deno"
)

// DependencySpec is a declared dependency edge's range, keyed by
// dependency name and kind in the consumer's manifest.
type DependencySpec struct {
	Name     string
	Kind     types.DependencyKind
	Range    string
	Operator types.RangeOperator
}

// Package is the unit the release pipeline versions, propagates bumps
// across, and publishes. Identity is Name, the canonical name including
// scope.
type Package struct {
	Name    string
	Path    string // on-disk root, relative to the workspace root
	Ecosystem Ecosystem

	// Private packages never publish but still participate in the
	// dependency graph.
	Private bool

	CurrentVersion  semver.Version
	RegistryVersion semver.Version // per active dist-tag, populated from the registry adapter

	Dependencies []DependencySpec
}

// Workspace is the set of packages discovered under a repository root.
type Workspace struct {
	Root     string
	Packages map[string]*Package
}

// New creates an empty Workspace rooted at root.
func New(root string) *Workspace {
	return &Workspace{Root: root, Packages: make(map[string]*Package)}
}

// Add registers a package. Returns an error if the name is already taken —
// package identity is the canonical name, so a collision is ambiguous.
func (w *Workspace) Add(pkg *Package) error {
	if _, exists := w.Packages[pkg.Name]; exists {
		return fmt.Errorf("duplicate package name: %s", pkg.Name)
	}
	w.Packages[pkg.Name] = pkg
	return nil
}

// Get returns the package with the given name.
func (w *Workspace) Get(name string) (*Package, bool) {
	p, ok := w.Packages[name]
	return p, ok
}

// All returns every package in the workspace, in no particular order.
func (w *Workspace) All() []*Package {
	out := make([]*Package, 0, len(w.Packages))
	for _, p := range w.Packages {
		out = append(out, p)
	}
	return out
}

// Names returns every package name in the workspace.
func (w *Workspace) Names() []string {
	out := make([]string, 0, len(w.Packages))
	for name := range w.Packages {
		out = append(out, name)
	}
	return out
}

// ValidateDependencies rejects any declared dependency that names a
// package absent from the workspace. Self-dependencies and dependency
// cycles are not rejected here — cycle rejection among non-private
// packages at analysis time is the graph's job.
func (w *Workspace) ValidateDependencies() error {
	var bad []string
	for _, pkg := range w.Packages {
		for _, dep := range pkg.Dependencies {
			if _, ok := w.Packages[dep.Name]; !ok {
				bad = append(bad, fmt.Sprintf("%s -> %s", pkg.Name, dep.Name))
			}
		}
	}
	if len(bad) > 0 {
		return berrors.NewWorkspaceError("", "dependencies reference unknown packages: "+strings.Join(bad, ", "))
	}
	return nil
}
