// SPDX-License-Identifier: MPL-2.0

// Package dag provides directed graph operations over module references:
// topological ordering and cycle detection. `minapack graph` uses it to
// report modules that reference each other in a loop. Such loops are legal
// for entry discovery but usually unintended.
package dag

import (
	"fmt"
	"slices"
	"strings"
)

type (
	// CycleError indicates that the graph contains a cycle, preventing topological ordering.
	CycleError struct {
		// Cycle is one closed path through the graph; the first node is
		// repeated at the end.
		Cycle []string
	}

	// Graph is a directed graph with string nodes. An edge from A to B means
	// A references B.
	Graph struct {
		// adjacency maps each node to its outgoing neighbors in insertion order.
		adjacency map[string][]string
		// nodes tracks all nodes in insertion order for deterministic output.
		nodes []string
		// nodeSet provides O(1) lookup for node existence.
		nodeSet map[string]bool
	}
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("reference cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		adjacency: make(map[string][]string),
		nodeSet:   make(map[string]bool),
	}
}

// AddNode adds a node to the graph. If the node already exists, this is a no-op.
func (g *Graph) AddNode(name string) {
	if g.nodeSet[name] {
		return
	}
	g.nodeSet[name] = true
	g.nodes = append(g.nodes, name)
}

// AddEdge adds a directed edge from -> to. Both nodes are implicitly added.
// Duplicate edges are ignored.
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	if slices.Contains(g.adjacency[from], to) {
		return
	}
	g.adjacency[from] = append(g.adjacency[from], to)
}

// Nodes returns the nodes in insertion order.
func (g *Graph) Nodes() []string {
	return slices.Clone(g.nodes)
}

// TopologicalSort orders the nodes so that every node precedes the nodes it
// references, using Kahn's algorithm. Nodes at the same level keep insertion
// order. Returns CycleError if the graph contains a cycle.
func (g *Graph) TopologicalSort() ([]string, error) {
	if len(g.nodes) == 0 {
		return nil, nil
	}

	inDegree := make(map[string]int, len(g.nodes))
	for _, node := range g.nodes {
		inDegree[node] = 0
	}
	for _, neighbors := range g.adjacency {
		for _, neighbor := range neighbors {
			inDegree[neighbor]++
		}
	}

	queue := make([]string, 0)
	for _, node := range g.nodes {
		if inDegree[node] == 0 {
			queue = append(queue, node)
		}
	}

	var result []string
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		for _, neighbor := range g.adjacency[node] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				queue = append(queue, neighbor)
			}
		}
	}

	if len(result) != len(g.nodes) {
		cycles := g.Cycles()
		if len(cycles) == 0 {
			// Unreachable: Kahn's residue always contains a cycle.
			return nil, &CycleError{}
		}
		return nil, &CycleError{Cycle: cycles[0]}
	}

	return result, nil
}

// Cycles returns one closed path per back edge found by a depth-first walk
// from every node in insertion order. A graph without cycles returns nil.
func (g *Graph) Cycles() [][]string {
	const (
		unvisited = iota
		onPath
		finished
	)

	state := make(map[string]int, len(g.nodes))
	var (
		path   []string
		cycles [][]string
		visit  func(node string)
	)
	visit = func(node string) {
		state[node] = onPath
		path = append(path, node)
		for _, next := range g.adjacency[node] {
			switch state[next] {
			case unvisited:
				visit(next)
			case onPath:
				start := slices.Index(path, next)
				cycle := append(slices.Clone(path[start:]), next)
				cycles = append(cycles, cycle)
			}
		}
		path = path[:len(path)-1]
		state[node] = finished
	}

	for _, node := range g.nodes {
		if state[node] == unvisited {
			visit(node)
		}
	}
	return cycles
}
