package graph

import (
	"testing"

	"github.com/berthrelease/berth/internal/workspace"
	"github.com/berthrelease/berth/pkg/types"
	"github.com/stretchr/testify/require"
)

// buildTestGraph constructs a graph from a map of package name -> list of
// dependency names, all runtime-kind, wiring each through Build.
func buildTestGraph(t *testing.T, deps map[string][]string) *DependencyGraph {
	t.Helper()
	ws := workspace.New("/repo")
	for name := range deps {
		require.NoError(t, ws.Add(&workspace.Package{Name: name, Path: "./" + name, Ecosystem: workspace.EcosystemGo}))
	}
	for name, targets := range deps {
		pkg, _ := ws.Get(name)
		for _, target := range targets {
			pkg.Dependencies = append(pkg.Dependencies, workspace.DependencySpec{Name: target, Kind: types.DependencyRuntime})
		}
	}
	g, err := Build(ws)
	require.NoError(t, err)
	return g
}
