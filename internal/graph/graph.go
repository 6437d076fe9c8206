// Package graph holds the room graph: vertices, edges, adjacency lists and
// per-room degree caps. It builds degree-capped random spanning trees,
// answers BFS distance queries, attaches the boss room and assigns room
// archetypes from the realized degree.
package graph

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/lawnchairsociety/dungeontopo/internal/archetype"
)

var (
	ErrInvalidVertexCount    = errors.New("graph: vertex count must be at least 1")
	ErrInvalidDegree         = errors.New("graph: max degree must be at least 1")
	ErrTreeAttemptsExhausted = errors.New("graph: could not build a spanning tree within the attempt limit")
	ErrNotConnected          = errors.New("graph: graph is not fully connected")
	ErrNoBossAnchor          = errors.New("graph: no leaf room available for the boss corridor")
)

const (
	// MaxEdgeAttempts bounds the candidate edges examined in one Kruskal pass.
	MaxEdgeAttempts = 1000
	// MaxTreeAttempts bounds the fresh shuffles tried before giving up.
	MaxTreeAttempts = 100
)

// Edge is an unordered pair of rooms.
type Edge struct {
	Source      int `yaml:"source" json:"source"`
	Destination int `yaml:"destination" json:"destination"`
}

// Equal reports whether e and o join the same two rooms, in either order.
func (e Edge) Equal(o Edge) bool {
	return (e.Source == o.Source && e.Destination == o.Destination) ||
		(e.Source == o.Destination && e.Destination == o.Source)
}

// Normalized returns e with the smaller endpoint first.
func (e Edge) Normalized() Edge {
	if e.Source > e.Destination {
		return Edge{Source: e.Destination, Destination: e.Source}
	}
	return e
}

// Touches reports whether v is an endpoint of e.
func (e Edge) Touches(v int) bool {
	return e.Source == v || e.Destination == v
}

// Other returns the endpoint of e that is not v.
func (e Edge) Other(v int) int {
	if e.Source == v {
		return e.Destination
	}
	return e.Source
}

func (e Edge) String() string {
	return fmt.Sprintf("%d - %d", e.Source, e.Destination)
}

// Graph is an undirected room graph with a fixed vertex count.
type Graph struct {
	vertices   int
	edges      []Edge
	adjacency  [][]int
	baseDegree []int
	maxDegree  []int
	types      []archetype.Archetype
}

// DefaultDegrees cycles caps 1, 2, 3 by index, matching one-, two- and
// three-door rooms.
func DefaultDegrees(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i%3 + 1
	}
	return out
}

// UniformDegrees gives every room the same cap.
func UniformDegrees(n, degree int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = degree
	}
	return out
}

// New creates a graph with the given vertex count and per-vertex degree caps.
// A nil maxDegrees applies DefaultDegrees.
func New(vertices int, maxDegrees []int) (*Graph, error) {
	if vertices < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidVertexCount, vertices)
	}
	if maxDegrees == nil {
		maxDegrees = DefaultDegrees(vertices)
	}
	if len(maxDegrees) != vertices {
		return nil, fmt.Errorf("%w: %d caps for %d vertices", ErrInvalidDegree, len(maxDegrees), vertices)
	}
	for v, d := range maxDegrees {
		if d < 1 {
			return nil, fmt.Errorf("%w: vertex %d has cap %d", ErrInvalidDegree, v, d)
		}
	}

	g := &Graph{
		vertices:   vertices,
		baseDegree: slices.Clone(maxDegrees),
	}
	g.Reset()
	return g, nil
}

// Reset discards edges, archetypes and any cap changes made by boss
// attachment. Vertex indices are kept.
func (g *Graph) Reset() {
	g.edges = g.edges[:0]
	g.adjacency = make([][]int, g.vertices)
	g.maxDegree = slices.Clone(g.baseDegree)
	g.types = nil
}

// Vertices returns the vertex count.
func (g *Graph) Vertices() int {
	return g.vertices
}

// Edges returns a copy of the edge list in insertion order.
func (g *Graph) Edges() []Edge {
	return slices.Clone(g.edges)
}

// Neighbors returns a copy of v's adjacency list in insertion order.
func (g *Graph) Neighbors(v int) []int {
	if v < 0 || v >= g.vertices {
		return nil
	}
	return slices.Clone(g.adjacency[v])
}

// Degree returns the number of edges touching v.
func (g *Graph) Degree(v int) int {
	return len(g.adjacency[v])
}

// MaxDegree returns v's current cap.
func (g *Graph) MaxDegree(v int) int {
	return g.maxDegree[v]
}

// Type returns v's archetype. It is only meaningful after AssignRoomTypes.
func (g *Graph) Type(v int) archetype.Archetype {
	return g.types[v]
}

// Types returns a copy of every room's archetype, or nil before assignment.
func (g *Graph) Types() []archetype.Archetype {
	return slices.Clone(g.types)
}

// HasEdge reports whether a and b are adjacent.
func (g *Graph) HasEdge(a, b int) bool {
	return slices.Contains(g.adjacency[a], b)
}

// AddEdge joins a and b. Duplicates are not checked here; tree construction
// never proposes one.
func (g *Graph) AddEdge(a, b int) {
	g.edges = append(g.edges, Edge{Source: a, Destination: b})
	g.adjacency[a] = append(g.adjacency[a], b)
	g.adjacency[b] = append(g.adjacency[b], a)
}

// AssignRoomTypes sets each room's archetype from its realized degree and
// narrows its cap to the archetype's door count. boss, when not -1, always
// becomes the boss archetype. A regular room with no edges (the lone room of
// a one-room tree) is typed as a one-door room.
func (g *Graph) AssignRoomTypes(catalog *archetype.Catalog, boss int) error {
	types := make([]archetype.Archetype, g.vertices)

	for v := 0; v < g.vertices; v++ {
		var a archetype.Archetype
		switch {
		case v == boss:
			a = archetype.Boss
		case g.Degree(v) == 0:
			a = archetype.OneDoor
		default:
			var err error
			a, err = catalog.ForDegree(g.Degree(v))
			if err != nil {
				return fmt.Errorf("room %d: %w", v, err)
			}
		}

		doors, err := catalog.MaxDegree(a)
		if err != nil {
			return fmt.Errorf("room %d: %w", v, err)
		}
		if g.Degree(v) > doors {
			return fmt.Errorf("room %d: %w: degree %d exceeds %s door count %d",
				v, archetype.ErrUnexpectedDegree, g.Degree(v), a, doors)
		}

		types[v] = a
		g.maxDegree[v] = doors
	}

	g.types = types
	return nil
}

// DOT renders the graph in Graphviz DOT format.
func (g *Graph) DOT() string {
	return DOT(g.edges)
}

// EdgeList renders one "a - b" line per edge.
func (g *Graph) EdgeList() string {
	return EdgeList(g.edges)
}

// DOT renders edges in Graphviz DOT format.
func DOT(edges []Edge) string {
	var b strings.Builder
	b.WriteString("graph G {\n")
	b.WriteString("  node [shape=circle];\n")
	for _, e := range edges {
		fmt.Fprintf(&b, "  %d -- %d;\n", e.Source, e.Destination)
	}
	b.WriteString("}\n")
	return b.String()
}

// EdgeList renders one "a - b" line per edge.
func EdgeList(edges []Edge) string {
	var b strings.Builder
	for _, e := range edges {
		b.WriteString(e.String())
		b.WriteByte('\n')
	}
	return b.String()
}
