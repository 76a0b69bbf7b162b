package dataset

import (
	"slices"
)

// depGraph tracks which datasets read which others. Nodes are dataset
// names; an edge from d to p means d's formulas read p. The graph is
// kept acyclic by construction: every mutation that adds edges runs
// wouldCycle first.
type depGraph struct {
	precedents map[string]map[string]struct{} // dataset -> names its formulas read
	dependents map[string]map[string]struct{} // dataset -> names whose formulas read it
}

func newDepGraph() *depGraph {
	return &depGraph{
		precedents: make(map[string]map[string]struct{}),
		dependents: make(map[string]map[string]struct{}),
	}
}

// setPrecedents replaces the outgoing edges of name.
func (g *depGraph) setPrecedents(name string, precs []string) {
	for p := range g.precedents[name] {
		delete(g.dependents[p], name)
	}
	delete(g.precedents, name)

	if len(precs) == 0 {
		return
	}
	set := make(map[string]struct{}, len(precs))
	for _, p := range precs {
		set[p] = struct{}{}
		if g.dependents[p] == nil {
			g.dependents[p] = make(map[string]struct{})
		}
		g.dependents[p][name] = struct{}{}
	}
	g.precedents[name] = set
}

// remove drops a node and all its edges.
func (g *depGraph) remove(name string) {
	g.setPrecedents(name, nil)
	for d := range g.dependents[name] {
		delete(g.precedents[d], name)
	}
	delete(g.dependents, name)
}

// rename moves a node to a new name, rewiring both edge directions.
func (g *depGraph) rename(old, new string) {
	if precs := g.precedents[old]; precs != nil {
		delete(g.precedents, old)
		g.precedents[new] = precs
		for p := range precs {
			delete(g.dependents[p], old)
			g.dependents[p][new] = struct{}{}
		}
	}
	if deps := g.dependents[old]; deps != nil {
		delete(g.dependents, old)
		g.dependents[new] = deps
		for d := range deps {
			delete(g.precedents[d], old)
			g.precedents[d][new] = struct{}{}
		}
	}
}

// precedentsOf returns the direct precedents of name, sorted.
func (g *depGraph) precedentsOf(name string) []string {
	return sortedKeys(g.precedents[name])
}

// dependentsOf returns the direct dependents of name, sorted.
func (g *depGraph) dependentsOf(name string) []string {
	return sortedKeys(g.dependents[name])
}

// transitiveDependents returns every dataset that transitively reads
// name, sorted. name itself is not included.
func (g *depGraph) transitiveDependents(name string) []string {
	seen := map[string]struct{}{name: {}}
	queue := []string{name}
	var out []string

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for d := range g.dependents[n] {
			if _, ok := seen[d]; ok {
				continue
			}
			seen[d] = struct{}{}
			out = append(out, d)
			queue = append(queue, d)
		}
	}

	slices.Sort(out)
	return out
}

// transitivePrecedents returns every dataset that name transitively
// reads, sorted. name itself is not included.
func (g *depGraph) transitivePrecedents(name string) []string {
	seen := map[string]struct{}{name: {}}
	queue := []string{name}
	var out []string

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for p := range g.precedents[n] {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
			queue = append(queue, p)
		}
	}

	slices.Sort(out)
	return out
}

// wouldCycle reports whether giving name the listed precedents would
// close a loop. That happens exactly when a precedent is name itself
// or already depends on name.
func (g *depGraph) wouldCycle(name string, precs []string) bool {
	if len(precs) == 0 {
		return false
	}
	readers := map[string]struct{}{}
	for _, d := range g.transitiveDependents(name) {
		readers[d] = struct{}{}
	}
	for _, p := range precs {
		if p == name {
			return true
		}
		if _, ok := readers[p]; ok {
			return true
		}
	}
	return false
}

// calcOrder returns the names in set ordered so that every dataset
// comes after the precedents it reads within the set. The graph is
// acyclic by construction, so a plain DFS post-order suffices.
func (g *depGraph) calcOrder(set map[string]struct{}) []string {
	var order []string
	visited := make(map[string]struct{}, len(set))

	var visit func(name string)
	visit = func(name string) {
		if _, ok := visited[name]; ok {
			return
		}
		visited[name] = struct{}{}
		for _, p := range g.precedentsOf(name) {
			if _, ok := set[p]; ok {
				visit(p)
			}
		}
		order = append(order, name)
	}

	for _, name := range sortedKeys(set) {
		visit(name)
	}
	return order
}

func sortedKeys(m map[string]struct{}) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
