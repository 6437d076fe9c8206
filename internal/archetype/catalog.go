package archetype

import (
	"fmt"
	"slices"

	"github.com/lawnchairsociety/dungeontopo/internal/direction"
)

// Catalog maps archetypes to their ordered, un-rotated door layouts. A
// Catalog is immutable once built; NewCatalog validates every layout so that
// no unknown direction can reach rotation arithmetic.
type Catalog struct {
	layouts map[Archetype][]direction.Direction
}

// DefaultCatalog returns the built-in layouts.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(map[Archetype][]direction.Direction{
		OneDoor:   {direction.East},
		TwoDoor:   {direction.East, direction.West},
		ThreeDoor: {direction.East, direction.West, direction.South},
		Boss:      {direction.South},
	})
	if err != nil {
		panic(err) // built-in table is constant
	}
	return c
}

// NewCatalog validates layouts and returns a Catalog. Every known archetype
// must be present with exactly its door count, no duplicates and no None.
func NewCatalog(layouts map[Archetype][]direction.Direction) (*Catalog, error) {
	c := &Catalog{layouts: make(map[Archetype][]direction.Direction, len(layouts))}

	for a, doors := range layouts {
		want, ok := a.doorCount()
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownArchetype, int(a))
		}
		if len(doors) != want {
			return nil, fmt.Errorf("%w: %s declares %d doors, want %d", ErrInvalidLayout, a, len(doors), want)
		}

		var seen direction.Set
		for _, d := range doors {
			if !d.Compass() {
				return nil, fmt.Errorf("%w: %s has door %s", ErrInvalidLayout, a, d)
			}
			if seen.Has(d) {
				return nil, fmt.Errorf("%w: %s repeats door %s", ErrInvalidLayout, a, d)
			}
			_ = seen.Add(d)
		}
		c.layouts[a] = slices.Clone(doors)
	}

	for _, a := range Known() {
		if _, ok := c.layouts[a]; !ok {
			return nil, fmt.Errorf("%w: missing layout for %s", ErrInvalidLayout, a)
		}
	}

	return c, nil
}

// Doors returns the ordered door list for a. The slice is a copy.
func (c *Catalog) Doors(a Archetype) ([]direction.Direction, error) {
	doors, ok := c.layouts[a]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownArchetype, int(a))
	}
	return slices.Clone(doors), nil
}

// MaxDegree returns the number of doors a offers.
func (c *Catalog) MaxDegree(a Archetype) (int, error) {
	doors, ok := c.layouts[a]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownArchetype, int(a))
	}
	return len(doors), nil
}

// ForDegree maps a realized adjacency degree to a regular archetype.
func (c *Catalog) ForDegree(degree int) (Archetype, error) {
	switch degree {
	case 1:
		return OneDoor, nil
	case 2:
		return TwoDoor, nil
	case 3:
		return ThreeDoor, nil
	}
	return 0, fmt.Errorf("%w: %d", ErrUnexpectedDegree, degree)
}

// RotatedDoors returns a's doors after rotation quarter turns, in declared order.
func (c *Catalog) RotatedDoors(a Archetype, rotation int) ([]direction.Direction, error) {
	doors, err := c.Doors(a)
	if err != nil {
		return nil, err
	}
	for i, d := range doors {
		doors[i] = d.Rotate(rotation)
	}
	return doors, nil
}

// Exposes reports whether a, turned by rotation, has a door facing d.
func (c *Catalog) Exposes(a Archetype, d direction.Direction, rotation int) (bool, error) {
	doors, err := c.RotatedDoors(a, rotation)
	if err != nil {
		return false, err
	}
	return slices.Contains(doors, d), nil
}

// RotationsExposing lists the rotations, in increasing order, under which a
// has a door facing d.
func (c *Catalog) RotationsExposing(a Archetype, d direction.Direction) ([]int, error) {
	var out []int
	for r := 0; r < 4; r++ {
		ok, err := c.Exposes(a, d, r)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, r)
		}
	}
	return out, nil
}
