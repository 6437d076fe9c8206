package solver

import (
	"fmt"
	"slices"

	"github.com/lawnchairsociety/dungeontopo/internal/archetype"
	"github.com/lawnchairsociety/dungeontopo/internal/direction"
)

// Audit checks a solution against the topology without touching either. It
// recomputes rotated door sets from the catalog and verifies, for every edge,
// that the recorded doors face each other, exist on their rooms, are marked
// used, and serve no other edge. It also checks door counts per room.
func Audit(t Topology, catalog *archetype.Catalog, sol *Solution) error {
	n := t.Vertices()
	edges := t.Edges()

	if len(sol.Rotations) != n || len(sol.Used) != n {
		return fmt.Errorf("%w: solution covers %d rooms, topology has %d", ErrMisaligned, len(sol.Rotations), n)
	}
	if len(sol.Doors) != len(edges) {
		return fmt.Errorf("%w: solution has %d door pairs for %d edges", ErrMisaligned, len(sol.Doors), len(edges))
	}

	rotated := make([][]direction.Direction, n)
	for v := 0; v < n; v++ {
		r := sol.Rotations[v]
		if r < 0 || r > 3 {
			return fmt.Errorf("%w: room %d has rotation %d", ErrMisaligned, v, r)
		}
		doors, err := catalog.RotatedDoors(t.Type(v), r)
		if err != nil {
			return fmt.Errorf("room %d: %w", v, err)
		}
		rotated[v] = doors
	}

	claimed := make([]direction.Set, n)
	claim := func(room int, d direction.Direction) error {
		if !slices.Contains(rotated[room], d) {
			return fmt.Errorf("room %d has no %s door at rotation %d", room, d, sol.Rotations[room])
		}
		if !sol.Used[room].Has(d) {
			return fmt.Errorf("room %d door %s is not marked used", room, d)
		}
		if claimed[room].Has(d) {
			return fmt.Errorf("room %d door %s serves two edges", room, d)
		}
		return claimed[room].Add(d)
	}

	for i, e := range edges {
		pair := sol.Doors[i]
		if !pair.Aligned() {
			return fmt.Errorf("%w: edge %s doors %s/%s do not face each other", ErrMisaligned, e, pair.Source, pair.Destination)
		}
		if err := claim(e.Source, pair.Source); err != nil {
			return fmt.Errorf("%w: edge %s: %v", ErrMisaligned, e, err)
		}
		if err := claim(e.Destination, pair.Destination); err != nil {
			return fmt.Errorf("%w: edge %s: %v", ErrMisaligned, e, err)
		}
	}

	for v := 0; v < n; v++ {
		if sol.Used[v].Len() > len(rotated[v]) {
			return fmt.Errorf("%w: room %d uses %d doors but has %d", ErrMisaligned, v, sol.Used[v].Len(), len(rotated[v]))
		}
		if sol.Used[v].Len() != claimed[v].Len() {
			return fmt.Errorf("%w: room %d marks %d doors used but edges claim %d", ErrMisaligned, v, sol.Used[v].Len(), claimed[v].Len())
		}
	}

	return nil
}
