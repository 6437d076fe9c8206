package topology

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/lawnchairsociety/dungeontopo/internal/archetype"
	"github.com/lawnchairsociety/dungeontopo/internal/direction"
	"github.com/lawnchairsociety/dungeontopo/internal/graph"
	"github.com/lawnchairsociety/dungeontopo/internal/solver"
)

// Result is a finished dungeon topology. Rooms are numbered 0..len(RoomTypes)-1;
// the boss room, when present, is the last one.
type Result struct {
	Seed       int64                 `json:"seed" yaml:"seed"`
	Attempts   int                   `json:"attempts" yaml:"attempts"`
	Edges      []graph.Edge          `json:"edges" yaml:"edges"`
	RoomTypes  []archetype.Archetype `json:"room_types" yaml:"room_types"`
	Rotations  []int                 `json:"rotations" yaml:"rotations"`
	Doors      []solver.DoorPair     `json:"doors" yaml:"doors"` // parallel to Edges
	StartRoom  int                   `json:"start_room" yaml:"start_room"`
	BossRoom   *int                  `json:"boss_room,omitempty" yaml:"boss_room,omitempty"`
	BossAnchor int                   `json:"boss_anchor" yaml:"boss_anchor"` // -1 without a boss
	Steps      int                   `json:"steps" yaml:"steps"`
	Backtracks int                   `json:"backtracks" yaml:"backtracks"`
}

// Rooms returns the number of rooms, boss included.
func (r *Result) Rooms() int {
	return len(r.RoomTypes)
}

// HasBoss reports whether a boss room was attached.
func (r *Result) HasBoss() bool {
	return r.BossRoom != nil
}

// Neighbors returns the rooms adjacent to room in edge order, or nil if room
// does not exist.
func (r *Result) Neighbors(room int) []int {
	if room < 0 || room >= r.Rooms() {
		return nil
	}
	out := []int{}
	for _, e := range r.Edges {
		if e.Touches(room) {
			out = append(out, e.Other(room))
		}
	}
	return out
}

// ConnectingDoor returns the door of room a that leads to room b, or None if
// the rooms are not adjacent.
func (r *Result) ConnectingDoor(a, b int) direction.Direction {
	want := graph.Edge{Source: a, Destination: b}
	for i, e := range r.Edges {
		if !e.Equal(want) || i >= len(r.Doors) {
			continue
		}
		if e.Source == a {
			return r.Doors[i].Source
		}
		return r.Doors[i].Destination
	}
	return direction.None
}

// DOT renders the topology in Graphviz DOT format.
func (r *Result) DOT() string {
	return graph.DOT(r.Edges)
}

// EdgeList renders one "a - b" line per edge.
func (r *Result) EdgeList() string {
	return graph.EdgeList(r.Edges)
}

// canonical is the text hashed by Fingerprint. Seed and attempt statistics are
// left out so two seeds producing the same dungeon share a fingerprint.
func (r *Result) canonical() string {
	var b strings.Builder
	for _, e := range r.Edges {
		n := e.Normalized()
		fmt.Fprintf(&b, "e %d %d\n", n.Source, n.Destination)
	}
	for i, a := range r.RoomTypes {
		rot := 0
		if i < len(r.Rotations) {
			rot = r.Rotations[i]
		}
		fmt.Fprintf(&b, "r %d %s %d\n", i, a, rot)
	}
	fmt.Fprintf(&b, "s %d\n", r.StartRoom)
	if r.BossRoom != nil {
		fmt.Fprintf(&b, "b %d\n", *r.BossRoom)
	}
	return b.String()
}

// Fingerprint returns a hex BLAKE2b-256 digest of the rooms, rotations and
// edges.
func (r *Result) Fingerprint() string {
	sum := blake2b.Sum256([]byte(r.canonical()))
	return hex.EncodeToString(sum[:])
}
