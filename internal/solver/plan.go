package solver

import (
	"github.com/emirpasic/gods/stacks/arraystack"
	"github.com/zyedidia/generic/mapset"

	"github.com/lawnchairsociety/dungeontopo/internal/graph"
)

// planStep is one edge of the walk. An assign step reaches an unassigned
// room; a verify step closes an edge between two rooms that will both be
// assigned by the time it runs.
type planStep struct {
	from, to int
	edge     int
	verify   bool
}

type cursor struct {
	room int
	next int
}

// buildPlan walks the graph depth-first from start in adjacency order and
// lists each edge exactly once.
func buildPlan(t Topology, start int) []planStep {
	edges := t.Edges()
	index := make(map[graph.Edge]int, len(edges))
	for i, e := range edges {
		key := e.Normalized()
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}

	var out []planStep
	visited := mapset.New[int]()
	seen := mapset.New[graph.Edge]()

	visited.Put(start)
	stack := arraystack.New()
	stack.Push(&cursor{room: start})

	for !stack.Empty() {
		top, _ := stack.Peek()
		c := top.(*cursor)
		adj := t.Neighbors(c.room)
		if c.next >= len(adj) {
			stack.Pop()
			continue
		}
		w := adj[c.next]
		c.next++

		key := graph.Edge{Source: c.room, Destination: w}.Normalized()
		if seen.Has(key) {
			continue
		}
		seen.Put(key)

		step := planStep{from: c.room, to: w, edge: index[key]}
		if visited.Has(w) {
			step.verify = true
			out = append(out, step)
			continue
		}
		visited.Put(w)
		out = append(out, step)
		stack.Push(&cursor{room: w})
	}

	return out
}
