package graph

import (
	"fmt"

	"github.com/emirpasic/gods/queues/arrayqueue"
	"github.com/emirpasic/gods/stacks/arraystack"
	"github.com/zyedidia/generic/mapset"
)

// IsConnected reports whether every vertex is reachable from vertex 0.
func (g *Graph) IsConnected() bool {
	return g.connectedWithin(g.vertices)
}

// connectedWithin runs a DFS from vertex 0 restricted to vertices below n.
func (g *Graph) connectedWithin(n int) bool {
	if n <= 1 {
		return true
	}

	visited := mapset.New[int]()
	stack := arraystack.New()
	stack.Push(0)

	for !stack.Empty() {
		top, _ := stack.Pop()
		v := top.(int)
		if visited.Has(v) {
			continue
		}
		visited.Put(v)
		for _, w := range g.adjacency[v] {
			if w < n && !visited.Has(w) {
				stack.Push(w)
			}
		}
	}

	return visited.Size() == n
}

// Distances returns BFS hop counts from start. Unreachable vertices get -1.
func (g *Graph) Distances(start int) []int {
	dist := make([]int, g.vertices)
	for i := range dist {
		dist[i] = -1
	}
	if start < 0 || start >= g.vertices {
		return dist
	}

	dist[start] = 0
	queue := arrayqueue.New()
	queue.Enqueue(start)

	for !queue.Empty() {
		front, _ := queue.Dequeue()
		v := front.(int)
		for _, w := range g.adjacency[v] {
			if dist[w] == -1 {
				dist[w] = dist[v] + 1
				queue.Enqueue(w)
			}
		}
	}

	return dist
}

// FindNodeFurthestFrom returns the vertex with the greatest BFS distance from
// start. Ties go to the lowest index.
func (g *Graph) FindNodeFurthestFrom(start int) int {
	dist := g.Distances(start)
	best, bestDist := start, 0
	for v, d := range dist {
		if d > bestDist {
			best, bestDist = v, d
		}
	}
	return best
}

// AttachBossRoom joins boss to the regular leaf furthest from vertex 0. All
// vertices below boss are regular. The anchor's cap grows by one for the boss
// corridor and the boss is capped at a single door. It returns the anchor.
func (g *Graph) AttachBossRoom(boss int) (int, error) {
	if boss < 1 || boss >= g.vertices {
		return -1, fmt.Errorf("%w: boss index %d in a %d-room graph", ErrInvalidVertexCount, boss, g.vertices)
	}

	dist := g.Distances(0)
	anchor, anchorDist := -1, -1
	for v := 0; v < boss; v++ {
		if g.Degree(v) != 1 || dist[v] < 0 {
			continue
		}
		if dist[v] > anchorDist {
			anchor, anchorDist = v, dist[v]
		}
	}
	if anchor == -1 {
		return -1, ErrNoBossAnchor
	}

	g.maxDegree[anchor]++
	g.maxDegree[boss] = 1
	g.AddEdge(anchor, boss)
	return anchor, nil
}
