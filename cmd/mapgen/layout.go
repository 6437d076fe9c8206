package main

import (
	"github.com/emirpasic/gods/queues/arrayqueue"

	"github.com/lawnchairsociety/dungeontopo/internal/direction"
	"github.com/lawnchairsociety/dungeontopo/internal/topology"
)

// GridPos is a cell on the map grid. Y grows southward.
type GridPos struct {
	X, Y int
}

// Step returns the neighbouring cell through door d.
func (p GridPos) Step(d direction.Direction) GridPos {
	switch d {
	case direction.North:
		return GridPos{p.X, p.Y - 1}
	case direction.South:
		return GridPos{p.X, p.Y + 1}
	case direction.East:
		return GridPos{p.X + 1, p.Y}
	case direction.West:
		return GridPos{p.X - 1, p.Y}
	}
	return p
}

// Overlap records a room whose door-implied cell was already occupied.
type Overlap struct {
	Room     int
	Occupant int
	Pos      GridPos
}

// Layout places every room of a topology on a grid.
type Layout struct {
	// Positions holds the door-implied cell of every room, overlapping or not.
	Positions map[int]GridPos
	// Cells maps each occupied cell to the first room placed there.
	Cells    map[GridPos]int
	Overlaps []Overlap
}

// layoutRooms walks the topology breadth-first from the start room. Each
// corridor moves one cell in the direction of the door it leaves through.
func layoutRooms(r *topology.Result) Layout {
	l := Layout{
		Positions: make(map[int]GridPos, r.Rooms()),
		Cells:     make(map[GridPos]int, r.Rooms()),
	}
	if r.Rooms() == 0 {
		return l
	}

	start := r.StartRoom
	l.Positions[start] = GridPos{}
	l.Cells[GridPos{}] = start

	queue := arrayqueue.New()
	queue.Enqueue(start)

	for !queue.Empty() {
		front, _ := queue.Dequeue()
		v := front.(int)
		for _, n := range r.Neighbors(v) {
			if _, placed := l.Positions[n]; placed {
				continue
			}
			pos := l.Positions[v].Step(r.ConnectingDoor(v, n))
			l.Positions[n] = pos
			if occupant, taken := l.Cells[pos]; taken {
				l.Overlaps = append(l.Overlaps, Overlap{Room: n, Occupant: occupant, Pos: pos})
			} else {
				l.Cells[pos] = n
			}
			queue.Enqueue(n)
		}
	}
	return l
}

// Bounds returns the min and max occupied cells.
func (l Layout) Bounds() (minPos, maxPos GridPos) {
	first := true
	for pos := range l.Cells {
		if first {
			minPos, maxPos = pos, pos
			first = false
			continue
		}
		minPos.X = min(minPos.X, pos.X)
		minPos.Y = min(minPos.Y, pos.Y)
		maxPos.X = max(maxPos.X, pos.X)
		maxPos.Y = max(maxPos.Y, pos.Y)
	}
	return minPos, maxPos
}

// hasPassage reports whether the room at pos has a corridor through door d
// to the room drawn in the adjacent cell.
func (l Layout) hasPassage(r *topology.Result, pos GridPos, d direction.Direction) bool {
	room, ok := l.Cells[pos]
	if !ok {
		return false
	}
	neighbor, ok := l.Cells[pos.Step(d)]
	if !ok {
		return false
	}
	return r.ConnectingDoor(room, neighbor) == d
}
