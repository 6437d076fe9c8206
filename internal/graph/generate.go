package graph

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/lawnchairsociety/dungeontopo/internal/unionfind"
)

// GenerateConnectedGraph builds a random spanning tree over vertices
// 0..regular-1 while respecting each vertex's degree cap. Vertices at or
// above regular are left isolated (the boss slot). Each attempt reshuffles
// the candidate edges with rng; after MaxTreeAttempts failed attempts it
// returns ErrTreeAttemptsExhausted.
func (g *Graph) GenerateConnectedGraph(rng *rand.Rand, regular int) error {
	return g.GenerateConnectedGraphContext(context.Background(), rng, regular)
}

// GenerateConnectedGraphContext is GenerateConnectedGraph with ctx checked
// before every shuffle. Caps that sum to fewer than the 2(regular-1) edge
// endpoints a tree needs fail at once, without consuming rng.
func (g *Graph) GenerateConnectedGraphContext(ctx context.Context, rng *rand.Rand, regular int) error {
	if regular < 1 || regular > g.vertices {
		return fmt.Errorf("%w: %d regular rooms in a %d-room graph", ErrInvalidVertexCount, regular, g.vertices)
	}

	g.Reset()
	total := 0
	for v := 0; v < regular; v++ {
		total += g.maxDegree[v]
	}
	if need := 2 * (regular - 1); total < need {
		return fmt.Errorf("%w: caps allow %d edge endpoints, a tree over %d rooms needs %d",
			ErrTreeAttemptsExhausted, total, regular, need)
	}

	candidates := candidateEdges(regular)

	var lastErr error
	for attempt := 0; attempt < MaxTreeAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		g.Reset()
		shuffle(rng, candidates)

		placed := g.kruskal(candidates, regular)
		if placed != regular-1 {
			lastErr = fmt.Errorf("placed %d of %d edges", placed, regular-1)
			continue
		}
		if !g.connectedWithin(regular) {
			lastErr = ErrNotConnected
			continue
		}
		return nil
	}

	g.Reset()
	return fmt.Errorf("%w: %d rooms, %d attempts: %v", ErrTreeAttemptsExhausted, regular, MaxTreeAttempts, lastErr)
}

// kruskal adds candidates in order when they join two components and neither
// endpoint is at its cap. It returns the number of edges placed.
func (g *Graph) kruskal(candidates []Edge, n int) int {
	uf := unionfind.New(n)
	placed := 0
	examined := 0

	for _, e := range candidates {
		if placed == n-1 || examined >= MaxEdgeAttempts {
			break
		}
		examined++

		if uf.Connected(e.Source, e.Destination) {
			continue
		}
		if g.Degree(e.Source) >= g.maxDegree[e.Source] || g.Degree(e.Destination) >= g.maxDegree[e.Destination] {
			continue
		}

		uf.Union(e.Source, e.Destination)
		g.AddEdge(e.Source, e.Destination)
		placed++
	}

	return placed
}

// candidateEdges lists all C(n,2) pairs.
func candidateEdges(n int) []Edge {
	edges := make([]Edge, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			edges = append(edges, Edge{Source: i, Destination: j})
		}
	}
	return edges
}

// shuffle is a Fisher-Yates permutation driven by rng.
func shuffle(rng *rand.Rand, edges []Edge) {
	for i := len(edges) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		edges[i], edges[j] = edges[j], edges[i]
	}
}
