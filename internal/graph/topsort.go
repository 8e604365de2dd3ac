package graph

import "fmt"

// TopologicalLevels groups nodes into dependency levels using Kahn's
// algorithm: level 0 holds every node with no outgoing edges (no
// dependencies within the graph), level 1 holds nodes whose dependencies
// are all in level 0, and so on. The publish scheduler starts a group only
// after every package in the prior group has completed, so this is the
// grouping the "topological" option needs rather than a single flattened
// order.
//
// The graph must already be free of cycles among non-private packages —
// that rejection happens earlier, at analysis time. A cycle still present
// here (e.g. entirely among private packages) is reported as an error
// rather than silently broken.
func TopologicalLevels(g *DependencyGraph) ([][]*GraphNode, error) {
	if g == nil || g.GetNodeCount() == 0 {
		return [][]*GraphNode{}, nil
	}

	remaining := make(map[string]int, g.GetNodeCount())
	dependents := make(map[string][]string)

	for _, node := range g.GetAllNodes() {
		remaining[node.Package.Name] = 0
	}
	for _, node := range g.GetAllNodes() {
		for _, edge := range g.GetEdgesFrom(node.Package.Name) {
			remaining[node.Package.Name]++
			dependents[edge.To] = append(dependents[edge.To], node.Package.Name)
		}
	}

	var levels [][]*GraphNode
	processed := 0

	for {
		var ready []string
		for name, count := range remaining {
			if count == 0 {
				ready = append(ready, name)
			}
		}
		if len(ready) == 0 {
			break
		}

		level := make([]*GraphNode, 0, len(ready))
		for _, name := range ready {
			node, _ := g.GetNode(name)
			level = append(level, node)
			delete(remaining, name)
			processed++
		}
		levels = append(levels, level)

		for _, name := range ready {
			for _, dependent := range dependents[name] {
				if _, ok := remaining[dependent]; ok {
					remaining[dependent]--
				}
			}
		}
	}

	if processed != g.GetNodeCount() {
		return nil, fmt.Errorf("cycle detected: %d of %d nodes could not be ordered", g.GetNodeCount()-processed, g.GetNodeCount())
	}

	return levels, nil
}
