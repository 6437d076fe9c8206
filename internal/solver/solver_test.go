package solver

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lawnchairsociety/dungeontopo/internal/archetype"
	"github.com/lawnchairsociety/dungeontopo/internal/direction"
	"github.com/lawnchairsociety/dungeontopo/internal/graph"
)

// fakeTopology lets tests pin archetypes that a real graph would never assign.
type fakeTopology struct {
	n     int
	edges []graph.Edge
	types []archetype.Archetype
}

func newFake(types []archetype.Archetype, edges ...graph.Edge) *fakeTopology {
	return &fakeTopology{n: len(types), edges: edges, types: types}
}

func (f *fakeTopology) Vertices() int                  { return f.n }
func (f *fakeTopology) Edges() []graph.Edge            { return slices.Clone(f.edges) }
func (f *fakeTopology) Type(v int) archetype.Archetype { return f.types[v] }

func (f *fakeTopology) Neighbors(v int) []int {
	var out []int
	for _, e := range f.edges {
		if e.Touches(v) {
			out = append(out, e.Other(v))
		}
	}
	return out
}

func edge(a, b int) graph.Edge {
	return graph.Edge{Source: a, Destination: b}
}

func generated(t *testing.T, n int, seed int64) *graph.Graph {
	t.Helper()
	g, err := graph.New(n, graph.UniformDegrees(n, 3))
	require.NoError(t, err)
	require.NoError(t, g.GenerateConnectedGraph(rand.New(rand.NewSource(seed)), n))
	require.NoError(t, g.AssignRoomTypes(archetype.DefaultCatalog(), -1))
	return g
}

func TestSolveSingleRoom(t *testing.T) {
	topo := newFake([]archetype.Archetype{archetype.OneDoor})
	sol, err := New(archetype.DefaultCatalog()).Solve(topo, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, sol.Rotations)
	assert.Empty(t, sol.Doors)
}

func TestSolveTwoRoomsTrace(t *testing.T) {
	var events []Event
	topo := newFake([]archetype.Archetype{archetype.OneDoor, archetype.OneDoor}, edge(0, 1))

	sol, err := New(archetype.DefaultCatalog(), WithTrace(func(e Event) {
		events = append(events, e)
	})).Solve(topo, 0)
	require.NoError(t, err)

	// Room 0 keeps its east door; room 1 turns twice so its door faces west.
	assert.Equal(t, []int{0, 2}, sol.Rotations)
	assert.Equal(t, []DoorPair{{Source: direction.East, Destination: direction.West}}, sol.Doors)
	assert.Equal(t, []Event{{Kind: EventAssign, Room: 0, Neighbor: 1, Rotation: 2, Door: direction.East}}, events)
	assert.Equal(t, direction.East, sol.ConnectingDoor(0, 1))
	assert.Equal(t, direction.West, sol.ConnectingDoor(1, 0))
	assert.Equal(t, direction.None, sol.ConnectingDoor(0, 5))
}

func TestSolveDoorPairFollowsEdgeOrientation(t *testing.T) {
	// The edge is stored as 1-0 but the walk starts at 0.
	topo := newFake([]archetype.Archetype{archetype.OneDoor, archetype.OneDoor}, edge(1, 0))
	sol, err := New(archetype.DefaultCatalog()).Solve(topo, 0)
	require.NoError(t, err)
	assert.Equal(t, []DoorPair{{Source: direction.West, Destination: direction.East}}, sol.Doors)
	require.NoError(t, Audit(topo, archetype.DefaultCatalog(), sol))
}

func TestSolveChain(t *testing.T) {
	types := []archetype.Archetype{archetype.OneDoor, archetype.TwoDoor, archetype.ThreeDoor, archetype.OneDoor, archetype.OneDoor}
	topo := newFake(types, edge(0, 1), edge(1, 2), edge(2, 3), edge(2, 4))

	sol, err := New(archetype.DefaultCatalog()).Solve(topo, 0)
	require.NoError(t, err)
	require.NoError(t, Audit(topo, archetype.DefaultCatalog(), sol))
	assert.Equal(t, 0, sol.Rotations[0])
	assert.Zero(t, sol.Backtracks)
}

func TestSolveBacktracksThenFails(t *testing.T) {
	// Room 0 has one door but two neighbors: after 0-1 takes the door, 0-2
	// has nothing left. Room 0 is the start room, so undoing 0-1 leaves no
	// earlier choice to reopen.
	var kinds []EventKind
	types := []archetype.Archetype{archetype.OneDoor, archetype.OneDoor, archetype.OneDoor}
	topo := newFake(types, edge(0, 1), edge(0, 2))

	_, err := New(archetype.DefaultCatalog(), WithTrace(func(e Event) {
		kinds = append(kinds, e.Kind)
	})).Solve(topo, 0)

	require.ErrorIs(t, err, ErrUnsolvable)
	assert.Equal(t, []EventKind{EventAssign, EventUndo}, kinds)
}

// overfullBranch is a chain 0-1 with two leaves hanging off two-door room 1.
// Room 1 runs out of doors at its second leaf whatever its rotation, so every
// rotation of room 1 is tried and rejected.
func overfullBranch() *fakeTopology {
	types := []archetype.Archetype{archetype.OneDoor, archetype.TwoDoor, archetype.TwoDoor, archetype.OneDoor}
	return newFake(types, edge(0, 1), edge(1, 2), edge(1, 3))
}

func TestSolveFailureReturnsToParentFrame(t *testing.T) {
	var events []Event
	_, err := New(archetype.DefaultCatalog(), WithTrace(func(e Event) {
		events = append(events, e)
	})).Solve(overfullBranch(), 0)
	require.ErrorIs(t, err, ErrUnsolvable)

	// When 1-3 fails, the finished leaf 2 is dropped without trying its
	// other rotation, and the search resumes at room 1's next rotation.
	e := direction.East
	assert.Equal(t, []Event{
		{Kind: EventAssign, Room: 0, Neighbor: 1, Rotation: 0, Door: e},
		{Kind: EventAssign, Room: 1, Neighbor: 2, Rotation: 0, Door: e},
		{Kind: EventUndo, Room: 1, Neighbor: 2, Rotation: 0, Door: e},
		{Kind: EventUndo, Room: 0, Neighbor: 1, Rotation: 0, Door: e},
		{Kind: EventAssign, Room: 0, Neighbor: 1, Rotation: 2, Door: e},
		{Kind: EventAssign, Room: 1, Neighbor: 2, Rotation: 0, Door: e},
		{Kind: EventUndo, Room: 1, Neighbor: 2, Rotation: 0, Door: e},
		{Kind: EventUndo, Room: 0, Neighbor: 1, Rotation: 2, Door: e},
	}, events)
}

func TestSolveCycleVerifies(t *testing.T) {
	// Three two-door rooms in a loop line up east-west.
	types := []archetype.Archetype{archetype.TwoDoor, archetype.TwoDoor, archetype.TwoDoor}
	topo := newFake(types, edge(0, 1), edge(1, 2), edge(2, 0))

	var verified int
	sol, err := New(archetype.DefaultCatalog(), WithTrace(func(e Event) {
		if e.Kind == EventVerify {
			verified++
		}
	})).Solve(topo, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, verified)
	require.NoError(t, Audit(topo, archetype.DefaultCatalog(), sol))
}

func TestSolveCycleMisaligned(t *testing.T) {
	// Room 2 has a single door, so the closing edge 2-0 cannot be served.
	types := []archetype.Archetype{archetype.TwoDoor, archetype.TwoDoor, archetype.OneDoor}
	topo := newFake(types, edge(0, 1), edge(1, 2), edge(2, 0))

	_, err := New(archetype.DefaultCatalog()).Solve(topo, 0)
	assert.ErrorIs(t, err, ErrMisaligned)
}

func TestSolveBadStart(t *testing.T) {
	topo := newFake([]archetype.Archetype{archetype.OneDoor})
	_, err := New(archetype.DefaultCatalog()).Solve(topo, 3)
	assert.ErrorIs(t, err, ErrBadStart)
}

func TestSolveUnknownArchetypeIsFatal(t *testing.T) {
	topo := newFake([]archetype.Archetype{archetype.Archetype(12)})
	_, err := New(archetype.DefaultCatalog()).Solve(topo, 0)
	assert.ErrorIs(t, err, archetype.ErrUnknownArchetype)
}

func TestSolveGeneratedTrees(t *testing.T) {
	catalog := archetype.DefaultCatalog()
	for seed := int64(1); seed <= 30; seed++ {
		g := generated(t, 12, seed)

		sol, err := New(catalog).Solve(g, 0)
		require.NoError(t, err, "seed %d", seed)
		require.NoError(t, Audit(g, catalog, sol), "seed %d", seed)

		for v := 0; v < g.Vertices(); v++ {
			assert.Contains(t, []int{0, 1, 2, 3}, sol.Rotations[v])
			assert.LessOrEqual(t, sol.Used[v].Len(), g.MaxDegree(v))
		}

		for _, e := range g.Edges() {
			a := sol.ConnectingDoor(e.Source, e.Destination)
			b := sol.ConnectingDoor(e.Destination, e.Source)
			require.NotEqual(t, direction.None, a, "seed %d edge %s", seed, e)
			assert.Equal(t, a.Opposite(), b, "seed %d edge %s", seed, e)

			rotated, err := catalog.RotatedDoors(g.Type(e.Destination), sol.Rotations[e.Destination])
			require.NoError(t, err)
			assert.Contains(t, rotated, a.Opposite())
		}
	}
}

// shadowDoorCounts replays the trace against a per-room count of used doors
// and checks every count stays within the room's door count at every event.
func shadowDoorCounts(t *testing.T, topo Topology) ([]int, int, error) {
	t.Helper()
	catalog := archetype.DefaultCatalog()
	st, err := newState(catalog, topo)
	require.NoError(t, err)

	counts := make([]int, topo.Vertices())
	undos := 0
	_, err = New(catalog, WithTrace(func(e Event) {
		switch e.Kind {
		case EventAssign, EventVerify:
			counts[e.Room]++
			counts[e.Neighbor]++
		case EventUndo:
			counts[e.Room]--
			counts[e.Neighbor]--
			undos++
		}
		for v, c := range counts {
			assert.LessOrEqual(t, c, st.maxDeg[v], "room %d", v)
			assert.GreaterOrEqual(t, c, 0, "room %d", v)
		}
	})).Solve(topo, 0)
	return counts, undos, err
}

func TestSolveUsedDoorsNeverExceedCap(t *testing.T) {
	_, _, err := shadowDoorCounts(t, generated(t, 15, 7))
	require.NoError(t, err)
}

func TestSolveUsedDoorsNeverExceedCapWhileBacktracking(t *testing.T) {
	counts, undos, err := shadowDoorCounts(t, overfullBranch())
	require.ErrorIs(t, err, ErrUnsolvable)
	assert.Equal(t, 4, undos)
	assert.Equal(t, []int{0, 0, 0, 0}, counts, "every door released after the search gives up")
}

func TestAuditRejectsTampering(t *testing.T) {
	catalog := archetype.DefaultCatalog()
	g := generated(t, 8, 5)

	fresh := func() *Solution {
		sol, err := New(catalog).Solve(g, 0)
		require.NoError(t, err)
		return sol
	}

	t.Run("rotation", func(t *testing.T) {
		sol := fresh()
		e := g.Edges()[0]
		sol.Rotations[e.Destination] = (sol.Rotations[e.Destination] + 1) % 4
		assert.ErrorIs(t, Audit(g, catalog, sol), ErrMisaligned)
	})

	t.Run("door pair", func(t *testing.T) {
		sol := fresh()
		sol.Doors[0].Destination = sol.Doors[0].Source
		assert.ErrorIs(t, Audit(g, catalog, sol), ErrMisaligned)
	})

	t.Run("used set", func(t *testing.T) {
		sol := fresh()
		e := g.Edges()[0]
		sol.Used[e.Source].Remove(sol.Doors[0].Source)
		assert.ErrorIs(t, Audit(g, catalog, sol), ErrMisaligned)
	})

	t.Run("rotation out of range", func(t *testing.T) {
		sol := fresh()
		sol.Rotations[0] = 4
		assert.ErrorIs(t, Audit(g, catalog, sol), ErrMisaligned)
	})
}

func TestBuildPlanCoversEachEdgeOnce(t *testing.T) {
	types := []archetype.Archetype{archetype.TwoDoor, archetype.TwoDoor, archetype.TwoDoor, archetype.OneDoor}
	topo := newFake(types, edge(0, 1), edge(1, 2), edge(2, 0), edge(2, 3))

	p := buildPlan(topo, 0)
	require.Len(t, p, 4)

	seen := map[int]bool{}
	verifies := 0
	for _, s := range p {
		assert.False(t, seen[s.edge], "edge %d planned twice", s.edge)
		seen[s.edge] = true
		if s.verify {
			verifies++
		}
	}
	assert.Equal(t, 1, verifies)
	assert.Equal(t, planStep{from: 0, to: 1, edge: 0}, p[0])
	assert.Equal(t, planStep{from: 1, to: 2, edge: 1}, p[1])
}
