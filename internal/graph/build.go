package graph

import (
	"fmt"

	berrors "github.com/berthrelease/berth/internal/errors"
	"github.com/berthrelease/berth/internal/workspace"
)

// Build constructs a dependency graph from a workspace. Returns a
// *errors.WorkspaceError if any dependency references a package absent
// from the workspace.
func Build(ws *workspace.Workspace) (*DependencyGraph, error) {
	g := NewGraph()

	for _, pkg := range ws.All() {
		if err := g.AddNode(*pkg); err != nil {
			return nil, fmt.Errorf("failed to add package node %s: %w", pkg.Name, err)
		}
	}

	for _, pkg := range ws.All() {
		for _, dep := range pkg.Dependencies {
			if _, exists := g.GetNode(dep.Name); !exists {
				return nil, berrors.NewWorkspaceError(pkg.Name, fmt.Sprintf("depends on non-existent package %s", dep.Name))
			}
			if err := g.AddEdge(pkg.Name, dep.Name, dep.Kind); err != nil {
				return nil, fmt.Errorf("failed to add dependency edge from %s to %s: %w", pkg.Name, dep.Name, err)
			}
		}
	}

	return g, nil
}
