package direction

import "fmt"

// Set is a fixed-size set of compass directions. The zero value is empty.
type Set struct {
	north, east, south, west bool
}

func (s *Set) slot(d Direction) *bool {
	switch d {
	case North:
		return &s.north
	case East:
		return &s.east
	case South:
		return &s.south
	case West:
		return &s.west
	default:
		return nil
	}
}

// Add inserts d. Only compass directions can be stored.
func (s *Set) Add(d Direction) error {
	p := s.slot(d)
	if p == nil {
		return fmt.Errorf("%w: cannot store %s in a door set", ErrInvalidDirection, d)
	}
	*p = true
	return nil
}

// Remove deletes d if present.
func (s *Set) Remove(d Direction) {
	if p := s.slot(d); p != nil {
		*p = false
	}
}

// Has reports whether d is in the set.
func (s Set) Has(d Direction) bool {
	p := s.slot(d)
	return p != nil && *p
}

// Len returns the number of directions in the set.
func (s Set) Len() int {
	n := 0
	for _, d := range All() {
		if s.Has(d) {
			n++
		}
	}
	return n
}

// Slice returns the members in enum order.
func (s Set) Slice() []Direction {
	out := make([]Direction, 0, 4)
	for _, d := range All() {
		if s.Has(d) {
			out = append(out, d)
		}
	}
	return out
}

func (s Set) String() string {
	return fmt.Sprint(s.Slice())
}
