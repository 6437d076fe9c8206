// Package direction implements the compass algebra used to rotate room doors.
package direction

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDirection is returned when a value outside the known variants
// reaches direction arithmetic.
var ErrInvalidDirection = errors.New("direction: invalid direction")

// Direction represents a door facing. North through West map to 0..3 so that
// rotation is addition mod 4.
type Direction int

const (
	North Direction = iota
	East
	South
	West
	None
)

// String returns the string representation of a Direction
func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	case None:
		return "none"
	default:
		return "unknown"
	}
}

// Valid reports whether d is one of the five known variants.
func (d Direction) Valid() bool {
	return d >= North && d <= None
}

// Compass reports whether d is one of the four arithmetic directions.
func (d Direction) Compass() bool {
	return d >= North && d <= West
}

// Rotate turns d clockwise by steps quarter turns. None and out-of-range
// values come back as None; use the package-level Rotate to get an error.
func (d Direction) Rotate(steps int) Direction {
	if !d.Compass() {
		return None
	}
	return Direction(((int(d)+steps)%4 + 4) % 4)
}

// Opposite returns the direction facing d.
func (d Direction) Opposite() Direction {
	return d.Rotate(2)
}

// Rotate is the checked form of Direction.Rotate.
func Rotate(d Direction, steps int) (Direction, error) {
	if !d.Valid() {
		return None, fmt.Errorf("%w: %d", ErrInvalidDirection, int(d))
	}
	if d == None {
		return None, nil
	}
	return d.Rotate(steps), nil
}

// Opposite is the checked form of Direction.Opposite.
func Opposite(d Direction) (Direction, error) {
	return Rotate(d, 2)
}

// Parse converts a name such as "north" or "N" into a Direction.
func Parse(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "north", "n":
		return North, nil
	case "east", "e":
		return East, nil
	case "south", "s":
		return South, nil
	case "west", "w":
		return West, nil
	case "none", "":
		return None, nil
	}
	return None, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

// All returns the four compass directions in enum order.
func All() []Direction {
	return []Direction{North, East, South, West}
}

// MarshalText implements encoding.TextMarshaler.
func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDirection, int(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
