// Package propagate walks the dependency graph outward from a set of
// explicit version strategies, adding a patch-level (or higher, via
// diamond convergence) strategy entry for every affected dependent.
package propagate

import (
	"sort"

	"github.com/berthrelease/berth/internal/analyzer"
	"github.com/berthrelease/berth/internal/graph"
	"github.com/berthrelease/berth/pkg/types"
)

// Propagate takes the explicit strategy map produced by the change
// analyzer and returns a new map that also contains a propagated entry for
// every package reachable, along runtime and peer dependency edges (dev and
// optional edges are skipped), from a package with an explicit or
// already-propagated strategy.
//
// Every propagated bump is patch-level; a dependent reached from more than
// one provider still gets a single patch entry. An explicit entry is never
// overwritten by propagation. The walk proceeds in rounds until a fixed
// point is reached, which takes at most len(g.GetAllNodes()) rounds since
// each round only introduces entries not already in the map.
func Propagate(g *graph.DependencyGraph, strategies analyzer.StrategyMap) analyzer.StrategyMap {
	result := make(analyzer.StrategyMap, len(strategies))
	for name, s := range strategies {
		result[name] = s
	}

	dependents := dependentsOf(g)

	changed := make([]string, 0, len(result))
	for name := range result {
		changed = append(changed, name)
	}
	sort.Strings(changed)

	for len(changed) > 0 {
		nextSet := make(map[string]bool)
		var next []string

		for _, provider := range changed {
			for _, dep := range dependents[provider] {
				if _, isExplicit := strategies[dep.name]; isExplicit {
					continue
				}

				level := types.ChangeTypePatch
				if existing, ok := result[dep.name]; ok {
					if existing.Origin != analyzer.OriginPropagated {
						continue
					}
					combined := types.Max(existing.BumpLevel, level)
					if combined == existing.BumpLevel {
						continue
					}
					level = combined
				}

				result[dep.name] = &analyzer.Strategy{
					BumpLevel: level,
					Origin:    analyzer.OriginPropagated,
				}
				if !nextSet[dep.name] {
					nextSet[dep.name] = true
					next = append(next, dep.name)
				}
			}
		}

		sort.Strings(next)
		changed = next
	}

	return result
}

type dependentEdge struct {
	name string
	kind types.DependencyKind
}

// dependentsOf inverts the graph's consumer->provider edges into a
// provider->dependents index, dropping development edges and edges that
// don't propagate (optional edges never propagate; peer and runtime edges
// do).
func dependentsOf(g *graph.DependencyGraph) map[string][]dependentEdge {
	out := make(map[string][]dependentEdge)
	for _, node := range g.GetAllNodes() {
		for _, edge := range g.PropagationEdges(node.Package.Name) {
			if edge.Kind == types.DependencyOptional {
				continue
			}
			out[edge.To] = append(out[edge.To], dependentEdge{name: edge.From, kind: edge.Kind})
		}
	}
	return out
}
