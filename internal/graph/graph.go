package graph

import (
	"fmt"

	"github.com/berthrelease/berth/internal/workspace"
	"github.com/berthrelease/berth/pkg/types"
)

// GraphNode represents a node in the dependency graph
type GraphNode struct {
	Package workspace.Package
	SCC     int // Strongly Connected Component ID (0 until Tarjan's pass assigns every node one)
}

// GraphEdge represents a directed edge from a consumer to a provider
// package.
type GraphEdge struct {
	From string
	To   string
	Kind types.DependencyKind
}

// DependencyGraph represents a directed graph of package dependencies
type DependencyGraph struct {
	nodes map[string]*GraphNode
	edges map[string][]GraphEdge
}

// NewGraph creates a new empty dependency graph
func NewGraph() *DependencyGraph {
	return &DependencyGraph{
		nodes: make(map[string]*GraphNode),
		edges: make(map[string][]GraphEdge),
	}
}

// AddNode adds a package node to the graph
// Returns an error if a node with the same name already exists
func (g *DependencyGraph) AddNode(pkg workspace.Package) error {
	if _, exists := g.nodes[pkg.Name]; exists {
		return fmt.Errorf("node already exists: %s", pkg.Name)
	}

	g.nodes[pkg.Name] = &GraphNode{
		Package: pkg,
		SCC:     0, // Unassigned until Tarjan's pass runs
	}

	// Initialize empty edge list
	if g.edges[pkg.Name] == nil {
		g.edges[pkg.Name] = []GraphEdge{}
	}

	return nil
}

// AddEdge adds a directed consumer-to-provider edge carrying the
// dependency's kind. Returns an error if either node doesn't exist.
func (g *DependencyGraph) AddEdge(from, to string, kind types.DependencyKind) error {
	// Verify both nodes exist
	if _, exists := g.nodes[from]; !exists {
		return fmt.Errorf("source node not found: %s", from)
	}
	if _, exists := g.nodes[to]; !exists {
		return fmt.Errorf("target node not found: %s", to)
	}

	g.edges[from] = append(g.edges[from], GraphEdge{From: from, To: to, Kind: kind})
	return nil
}

// PropagationEdges returns every edge used by the reverse-propagation walk:
// every kind except development, since a dev dependency changing does not
// bump its dependent.
func (g *DependencyGraph) PropagationEdges(from string) []GraphEdge {
	all := g.GetEdgesFrom(from)
	out := make([]GraphEdge, 0, len(all))
	for _, e := range all {
		if e.Kind != types.DependencyDev {
			out = append(out, e)
		}
	}
	return out
}

// GroupingGraph returns a graph restricted to the edges the publish
// scheduler's topological grouping should see: every kind, or every kind
// except development when includeDev is false.
func (g *DependencyGraph) GroupingGraph(includeDev bool) *DependencyGraph {
	if includeDev {
		return g
	}

	filtered := NewGraph()
	for _, node := range g.GetAllNodes() {
		_ = filtered.AddNode(node.Package)
	}
	for _, node := range g.GetAllNodes() {
		for _, edge := range g.GetEdgesFrom(node.Package.Name) {
			if edge.Kind == types.DependencyDev {
				continue
			}
			_ = filtered.AddEdge(edge.From, edge.To, edge.Kind)
		}
	}
	return filtered
}

// GetNode returns the node with the given name, or nil if not found
func (g *DependencyGraph) GetNode(name string) (*GraphNode, bool) {
	node, exists := g.nodes[name]
	return node, exists
}

// GetEdgesFrom returns all edges originating from the given node
func (g *DependencyGraph) GetEdgesFrom(from string) []GraphEdge {
	edges, exists := g.edges[from]
	if !exists {
		return []GraphEdge{}
	}
	return edges
}

// GetAllNodes returns all nodes in the graph
func (g *DependencyGraph) GetAllNodes() []*GraphNode {
	nodes := make([]*GraphNode, 0, len(g.nodes))
	for _, node := range g.nodes {
		nodes = append(nodes, node)
	}
	return nodes
}

// SetSCC sets the Strongly Connected Component ID for a node
func (g *DependencyGraph) SetSCC(name string, sccID int) error {
	node, exists := g.nodes[name]
	if !exists {
		return fmt.Errorf("node not found: %s", name)
	}
	node.SCC = sccID
	return nil
}

// GetNodeCount returns the number of nodes in the graph
func (g *DependencyGraph) GetNodeCount() int {
	return len(g.nodes)
}

// GetEdgeCount returns the total number of edges in the graph
func (g *DependencyGraph) GetEdgeCount() int {
	count := 0
	for _, edges := range g.edges {
		count += len(edges)
	}
	return count
}
