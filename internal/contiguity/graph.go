// Package contiguity builds polygon adjacency graphs from shared-boundary tests.
package contiguity

import "sort"

// Graph maps unit IDs to their neighbor IDs. It is symmetric by construction
// (an edge is always recorded in both directions) and contains no self-loops.
// Units with no geometric neighbors (islands) keep an empty neighbor set.
type Graph struct {
	IDs       []string            // units in input order
	Neighbors map[string][]string // sorted neighbor IDs per unit
}

// NewGraph creates an empty graph over the given unit IDs.
func NewGraph(ids []string) *Graph {
	g := &Graph{
		IDs:       make([]string, len(ids)),
		Neighbors: make(map[string][]string, len(ids)),
	}
	copy(g.IDs, ids)
	for _, id := range ids {
		g.Neighbors[id] = nil
	}
	return g
}

// AddEdge records a symmetric adjacency between a and b. Self-loops and
// duplicate edges are ignored.
func (g *Graph) AddEdge(a, b string) {
	if a == b {
		return
	}
	g.addDirected(a, b)
	g.addDirected(b, a)
}

func (g *Graph) addDirected(from, to string) {
	for _, n := range g.Neighbors[from] {
		if n == to {
			return
		}
	}
	g.Neighbors[from] = append(g.Neighbors[from], to)
}

// Sort orders every neighbor list lexicographically for deterministic output.
func (g *Graph) Sort() {
	for _, ns := range g.Neighbors {
		sort.Strings(ns)
	}
}

// Islands returns the IDs of units with no neighbors, in input order.
func (g *Graph) Islands() []string {
	var islands []string
	for _, id := range g.IDs {
		if len(g.Neighbors[id]) == 0 {
			islands = append(islands, id)
		}
	}
	return islands
}

// IsSymmetric reports whether every edge appears in both directions.
func (g *Graph) IsSymmetric() bool {
	for id, ns := range g.Neighbors {
		for _, n := range ns {
			if !g.hasDirected(n, id) {
				return false
			}
		}
	}
	return true
}

func (g *Graph) hasDirected(from, to string) bool {
	for _, n := range g.Neighbors[from] {
		if n == to {
			return true
		}
	}
	return false
}

// EdgeCount returns the number of undirected adjacencies.
func (g *Graph) EdgeCount() int {
	total := 0
	for _, ns := range g.Neighbors {
		total += len(ns)
	}
	return total / 2
}
