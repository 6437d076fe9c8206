// Package solver assigns a rotation to every room so that each edge of the
// room graph is served by a pair of opposite-facing doors.
//
// The search is a depth-first backtracking walk over a plan derived from the
// graph. It keeps an explicit stack of frames and a trail of every mutation to
// the assignment table, so undoing a choice is a pop of the trail rather than
// an unwinding of the call stack.
package solver

import (
	"errors"
	"fmt"

	"github.com/emirpasic/gods/stacks/arraystack"

	"github.com/lawnchairsociety/dungeontopo/internal/archetype"
	"github.com/lawnchairsociety/dungeontopo/internal/direction"
	"github.com/lawnchairsociety/dungeontopo/internal/graph"
)

var (
	ErrUnsolvable = errors.New("solver: no rotation assignment aligns every door")
	ErrMisaligned = errors.New("solver: door pair is not aligned")
	ErrBadStart   = errors.New("solver: start room out of range")
)

// Unassigned marks a room whose rotation has not been chosen.
const Unassigned = -1

// Topology is the read-only view of a room graph the solver needs.
// *graph.Graph satisfies it.
type Topology interface {
	Vertices() int
	Edges() []graph.Edge
	Neighbors(v int) []int
	Type(v int) archetype.Archetype
}

// DoorPair is the pair of doors serving one edge: Source is the door in the
// edge's source room, Destination the door in its destination room.
type DoorPair struct {
	Source      direction.Direction `yaml:"source" json:"source"`
	Destination direction.Direction `yaml:"destination" json:"destination"`
}

// Aligned reports whether the two doors face each other.
func (p DoorPair) Aligned() bool {
	return p.Source.Compass() && p.Source.Opposite() == p.Destination
}

// Solution is a complete rotation assignment.
type Solution struct {
	Rotations  []int
	Used       []direction.Set
	Edges      []graph.Edge
	Doors      []DoorPair // parallel to Edges
	Steps      int
	Backtracks int
}

// ConnectingDoor returns the door in room a that serves the edge to b, or
// None if the rooms are not adjacent.
func (s *Solution) ConnectingDoor(a, b int) direction.Direction {
	want := graph.Edge{Source: a, Destination: b}
	for i, e := range s.Edges {
		if !e.Equal(want) {
			continue
		}
		if e.Source == a {
			return s.Doors[i].Source
		}
		return s.Doors[i].Destination
	}
	return direction.None
}

// EventKind identifies a solver trace event.
type EventKind int

const (
	EventAssign EventKind = iota
	EventUndo
	EventVerify
)

func (k EventKind) String() string {
	switch k {
	case EventAssign:
		return "assign"
	case EventUndo:
		return "undo"
	case EventVerify:
		return "verify"
	default:
		return "unknown"
	}
}

// Event describes one solver decision. Room is the room being extended and
// Neighbor the room on the far side of the edge.
type Event struct {
	Kind     EventKind
	Room     int
	Neighbor int
	Rotation int
	Door     direction.Direction
}

// Solver runs the rotation search against a catalog.
type Solver struct {
	catalog *archetype.Catalog
	trace   func(Event)
}

// Option configures a Solver.
type Option func(*Solver)

// WithTrace registers a callback invoked for every assign, undo and verify.
func WithTrace(fn func(Event)) Option {
	return func(s *Solver) {
		s.trace = fn
	}
}

// New creates a Solver.
func New(catalog *archetype.Catalog, opts ...Option) *Solver {
	s := &Solver{catalog: catalog}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// frame is one committed (or about to be committed) assign step.
type frame struct {
	step int
	door direction.Direction // door in the step's current room; None if none fits
	next int                 // next neighbor rotation to try
	mark int                 // trail length before this frame's mutations
}

// Solve assigns rotations starting from start, which is fixed at rotation 0.
func (s *Solver) Solve(t Topology, start int) (*Solution, error) {
	n := t.Vertices()
	if start < 0 || start >= n {
		return nil, fmt.Errorf("%w: %d of %d", ErrBadStart, start, n)
	}

	st, err := newState(s.catalog, t)
	if err != nil {
		return nil, err
	}
	p := buildPlan(t, start)

	st.rotation[start] = 0
	sol := &Solution{Edges: st.edges}

	frames := arraystack.New()
	var resume *frame

	for i := 0; i < len(p); {
		sol.Steps++
		step := p[i]

		if step.verify {
			door, ok := st.verifyDoor(step)
			if !ok {
				e := st.edges[step.edge]
				return nil, fmt.Errorf("%w: rooms %d and %d at rotations %d and %d",
					ErrMisaligned, e.Source, e.Destination, st.rotation[step.from], st.rotation[step.to])
			}
			st.markEdge(step, door)
			s.emit(Event{Kind: EventVerify, Room: step.from, Neighbor: step.to, Rotation: st.rotation[step.to], Door: door})
			i++
			continue
		}

		f := resume
		resume = nil
		if f == nil {
			f = &frame{step: i, mark: len(st.trail)}
			f.door = st.doorInCurrent(step)
		}

		if r, ok := st.nextRotation(step, f); ok {
			f.next = r + 1
			st.assign(step, r, f.door)
			frames.Push(f)
			s.emit(Event{Kind: EventAssign, Room: step.from, Neighbor: step.to, Rotation: r, Door: f.door})
			i++
			continue
		}

		// Every rotation of this neighbor failed, so step.from's subtree
		// fails as a whole. Unwind to the frame that placed step.from and
		// try its next rotation; subtrees finished in between are dropped.
		parent := s.unwind(frames, p, step.from)
		if parent == nil {
			return nil, fmt.Errorf("%w: room %d cannot reach room %d", ErrUnsolvable, step.from, step.to)
		}
		st.rollback(parent.mark)
		sol.Backtracks++
		i = parent.step
		resume = parent
	}

	for v, r := range st.rotation {
		if r == Unassigned {
			return nil, fmt.Errorf("%w: room %d is not reachable from room %d", ErrUnsolvable, v, start)
		}
	}

	sol.Rotations = st.rotation
	sol.Used = st.used
	sol.Doors = st.pairs
	return sol, nil
}

// unwind pops frames up to and including the one whose step assigned room,
// emitting an undo for each. It returns nil once the stack is empty, which
// happens when room is the start room.
func (s *Solver) unwind(frames *arraystack.Stack, p []planStep, room int) *frame {
	for {
		top, ok := frames.Pop()
		if !ok {
			return nil
		}
		f := top.(*frame)
		step := p[f.step]
		s.emit(Event{Kind: EventUndo, Room: step.from, Neighbor: step.to, Rotation: f.next - 1, Door: f.door})
		if step.to == room {
			return f
		}
	}
}

func (s *Solver) emit(e Event) {
	if s.trace != nil {
		s.trace(e)
	}
}
