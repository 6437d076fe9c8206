package topology

import (
	"errors"

	"github.com/lawnchairsociety/dungeontopo/internal/archetype"
	"github.com/lawnchairsociety/dungeontopo/internal/direction"
	"github.com/lawnchairsociety/dungeontopo/internal/graph"
	"github.com/lawnchairsociety/dungeontopo/internal/solver"
)

var (
	ErrInvalidRoomCount = errors.New("topology: room count must be at least 1")
	ErrInvalidOptions   = errors.New("topology: invalid generation options")
	ErrRetriesExhausted = errors.New("topology: generation retries exhausted")
)

// fatal lists the errors that indicate bad input or an inconsistent catalog.
// Retrying with a fresh shuffle cannot fix any of them.
var fatal = []error{
	ErrInvalidRoomCount,
	ErrInvalidOptions,
	archetype.ErrUnknownArchetype,
	archetype.ErrUnexpectedDegree,
	archetype.ErrInvalidLayout,
	direction.ErrInvalidDirection,
	graph.ErrInvalidVertexCount,
	graph.ErrInvalidDegree,
	solver.ErrBadStart,
}

// IsFatal reports whether err is an input or catalog error. Exhausted
// retries are not fatal.
func IsFatal(err error) bool {
	if err == nil || IsExhausted(err) {
		return false
	}
	for _, target := range fatal {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsExhausted reports whether generation gave up after its attempt limit.
func IsExhausted(err error) bool {
	return errors.Is(err, ErrRetriesExhausted)
}
