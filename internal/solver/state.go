package solver

import (
	"slices"

	"github.com/lawnchairsociety/dungeontopo/internal/archetype"
	"github.com/lawnchairsociety/dungeontopo/internal/direction"
	"github.com/lawnchairsociety/dungeontopo/internal/graph"
)

type undoKind int

const (
	undoRotation undoKind = iota
	undoDoor
	undoPair
)

// undo reverses a single mutation of the assignment table.
type undo struct {
	kind undoKind
	room int
	door direction.Direction
	edge int
}

// state is the mutable assignment table shared by every frame.
type state struct {
	doors    [][]direction.Direction // un-rotated layout per room
	maxDeg   []int
	rotation []int
	used     []direction.Set
	edges    []graph.Edge
	pairs    []DoorPair
	trail    []undo
}

func newState(catalog *archetype.Catalog, t Topology) (*state, error) {
	n := t.Vertices()
	st := &state{
		doors:    make([][]direction.Direction, n),
		maxDeg:   make([]int, n),
		rotation: make([]int, n),
		used:     make([]direction.Set, n),
		edges:    t.Edges(),
	}
	for v := 0; v < n; v++ {
		doors, err := catalog.Doors(t.Type(v))
		if err != nil {
			return nil, err
		}
		st.doors[v] = doors
		st.maxDeg[v] = len(doors)
		st.rotation[v] = Unassigned
	}
	st.pairs = make([]DoorPair, len(st.edges))
	for i := range st.pairs {
		st.pairs[i] = DoorPair{Source: direction.None, Destination: direction.None}
	}
	return st, nil
}

func (st *state) rotated(room, rotation int) []direction.Direction {
	out := make([]direction.Direction, len(st.doors[room]))
	for i, d := range st.doors[room] {
		out[i] = d.Rotate(rotation)
	}
	return out
}

func (st *state) exposes(room int, d direction.Direction, rotation int) bool {
	return slices.Contains(st.rotated(room, rotation), d)
}

// doorInCurrent picks the first unused door of step.from, in declared order
// after rotation, whose opposite some rotation of step.to can expose.
func (st *state) doorInCurrent(step planStep) direction.Direction {
	for _, d := range st.rotated(step.from, st.rotation[step.from]) {
		if st.used[step.from].Has(d) {
			continue
		}
		for r := 0; r < 4; r++ {
			if st.exposes(step.to, d.Opposite(), r) {
				return d
			}
		}
	}
	return direction.None
}

// nextRotation finds the smallest rotation >= f.next for step.to that faces
// f.door and leaves both rooms within their door counts.
func (st *state) nextRotation(step planStep, f *frame) (int, bool) {
	if f.door == direction.None {
		return 0, false
	}
	if st.used[step.from].Len() >= st.maxDeg[step.from] || st.used[step.to].Len() >= st.maxDeg[step.to] {
		return 0, false
	}
	need := f.door.Opposite()
	for r := f.next; r < 4; r++ {
		if st.exposes(step.to, need, r) {
			return r, true
		}
	}
	return 0, false
}

// verifyDoor recomputes the door for an edge whose rooms are both assigned
// and checks the far room's fixed rotation faces it with an unused door.
func (st *state) verifyDoor(step planStep) (direction.Direction, bool) {
	for _, d := range st.rotated(step.from, st.rotation[step.from]) {
		if st.used[step.from].Has(d) {
			continue
		}
		need := d.Opposite()
		if st.exposes(step.to, need, st.rotation[step.to]) && !st.used[step.to].Has(need) {
			return d, true
		}
	}
	return direction.None, false
}

func (st *state) assign(step planStep, rotation int, door direction.Direction) {
	st.rotation[step.to] = rotation
	st.trail = append(st.trail, undo{kind: undoRotation, room: step.to})
	st.markEdge(step, door)
}

// markEdge records door on step.from, its opposite on step.to, and the pair
// on the edge.
func (st *state) markEdge(step planStep, door direction.Direction) {
	far := door.Opposite()
	st.markUsed(step.from, door)
	st.markUsed(step.to, far)

	pair := DoorPair{Source: door, Destination: far}
	if st.edges[step.edge].Source != step.from {
		pair = DoorPair{Source: far, Destination: door}
	}
	st.pairs[step.edge] = pair
	st.trail = append(st.trail, undo{kind: undoPair, edge: step.edge})
}

func (st *state) markUsed(room int, d direction.Direction) {
	if st.used[room].Has(d) {
		return
	}
	_ = st.used[room].Add(d)
	st.trail = append(st.trail, undo{kind: undoDoor, room: room, door: d})
}

// rollback pops the trail back to mark, restoring each mutation in reverse.
func (st *state) rollback(mark int) {
	for len(st.trail) > mark {
		u := st.trail[len(st.trail)-1]
		st.trail = st.trail[:len(st.trail)-1]
		switch u.kind {
		case undoRotation:
			st.rotation[u.room] = Unassigned
		case undoDoor:
			st.used[u.room].Remove(u.door)
		case undoPair:
			st.pairs[u.edge] = DoorPair{Source: direction.None, Destination: direction.None}
		}
	}
}
