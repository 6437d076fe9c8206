// Package archetype defines the room archetypes and the catalog that maps
// each one to its un-rotated door layout.
package archetype

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownArchetype = errors.New("archetype: unknown archetype")
	ErrUnexpectedDegree = errors.New("archetype: realized degree has no archetype")
	ErrInvalidLayout    = errors.New("archetype: invalid door layout")
)

// Archetype is a category of room defined by its fixed door set.
type Archetype int

const (
	OneDoor Archetype = iota
	TwoDoor
	ThreeDoor
	Boss
)

// MaxRegularDegree is the largest degree ForDegree can type.
const MaxRegularDegree = 3

// Known returns every archetype in declaration order.
func Known() []Archetype {
	return []Archetype{OneDoor, TwoDoor, ThreeDoor, Boss}
}

// String returns the string representation of an Archetype
func (a Archetype) String() string {
	switch a {
	case OneDoor:
		return "one_door"
	case TwoDoor:
		return "two_door"
	case ThreeDoor:
		return "three_door"
	case Boss:
		return "boss"
	default:
		return "unknown"
	}
}

// doorCount is the number of doors each archetype must declare.
func (a Archetype) doorCount() (int, bool) {
	switch a {
	case OneDoor, Boss:
		return 1, true
	case TwoDoor:
		return 2, true
	case ThreeDoor:
		return 3, true
	default:
		return 0, false
	}
}

// Parse converts a name such as "two_door" into an Archetype.
func Parse(s string) (Archetype, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.ReplaceAll(name, "-", "_")
	for _, a := range Known() {
		if a.String() == name {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownArchetype, s)
}

// MarshalText implements encoding.TextMarshaler.
func (a Archetype) MarshalText() ([]byte, error) {
	if _, ok := a.doorCount(); !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownArchetype, int(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Archetype) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
