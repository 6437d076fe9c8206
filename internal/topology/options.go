package topology

import (
	"fmt"
	"strings"

	"github.com/lawnchairsociety/dungeontopo/internal/archetype"
	"github.com/lawnchairsociety/dungeontopo/internal/graph"
)

// DegreeRule selects how per-room degree caps are derived.
type DegreeRule string

const (
	// DegreeCycle caps room i at i%3+1 doors.
	DegreeCycle DegreeRule = "cycle"
	// DegreeUniform caps every room at UniformDegree doors.
	DegreeUniform DegreeRule = "uniform"
	// DegreeExplicit takes the caps from Degrees.
	DegreeExplicit DegreeRule = "explicit"
)

// DefaultMaxAttempts bounds the number of full pipeline restarts.
const DefaultMaxAttempts = 100

// ParseDegreeRule parses a rule name. An empty string selects DegreeCycle.
func ParseDegreeRule(s string) (DegreeRule, error) {
	switch DegreeRule(strings.ToLower(strings.TrimSpace(s))) {
	case "", DegreeCycle:
		return DegreeCycle, nil
	case DegreeUniform:
		return DegreeUniform, nil
	case DegreeExplicit:
		return DegreeExplicit, nil
	}
	return "", fmt.Errorf("%w: unknown degree rule %q", ErrInvalidOptions, s)
}

// Options controls a generation run.
type Options struct {
	Rooms         int        // regular rooms, excluding the boss
	Boss          bool       // attach a boss room after the tree is built
	DegreeRule    DegreeRule // cycle, uniform or explicit
	UniformDegree int        // used by DegreeUniform
	Degrees       []int      // used by DegreeExplicit, one cap per regular room
	Seed          int64
	MaxAttempts   int
	Catalog       *archetype.Catalog

	// OnPublish is called once with the result of a successful run. It is
	// never called for a failed run.
	OnPublish func(*Result)
}

// DefaultOptions returns the seven-room boss dungeon.
func DefaultOptions() Options {
	return Options{
		Rooms:         7,
		Boss:          true,
		DegreeRule:    DegreeCycle,
		UniformDegree: 3,
		MaxAttempts:   DefaultMaxAttempts,
	}
}

// Validate checks the options without touching the random source.
func (o Options) Validate() error {
	if o.Rooms < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidRoomCount, o.Rooms)
	}
	if o.MaxAttempts < 0 {
		return fmt.Errorf("%w: max attempts %d", ErrInvalidOptions, o.MaxAttempts)
	}
	_, err := o.degrees()
	return err
}

func (o Options) catalog() *archetype.Catalog {
	if o.Catalog == nil {
		return archetype.DefaultCatalog()
	}
	return o.Catalog
}

func (o Options) maxAttempts() int {
	if o.MaxAttempts == 0 {
		return DefaultMaxAttempts
	}
	return o.MaxAttempts
}

// vertices returns the total vertex count and the boss index, or -1.
func (o Options) vertices() (int, int) {
	if o.Boss {
		return o.Rooms + 1, o.Rooms
	}
	return o.Rooms, -1
}

// degrees builds the cap slice for every vertex. The boss slot is capped at
// one door. Caps above archetype.MaxRegularDegree have no archetype and are
// rejected.
func (o Options) degrees() ([]int, error) {
	rule, err := ParseDegreeRule(string(o.DegreeRule))
	if err != nil {
		return nil, err
	}

	var caps []int
	switch rule {
	case DegreeCycle:
		caps = graph.DefaultDegrees(o.Rooms)
	case DegreeUniform:
		caps = graph.UniformDegrees(o.Rooms, o.UniformDegree)
	case DegreeExplicit:
		if len(o.Degrees) != o.Rooms {
			return nil, fmt.Errorf("%w: %d explicit degrees for %d rooms", ErrInvalidOptions, len(o.Degrees), o.Rooms)
		}
		caps = append([]int(nil), o.Degrees...)
	}

	for i, d := range caps {
		if d < 1 {
			return nil, fmt.Errorf("room %d: %w: got %d", i, graph.ErrInvalidDegree, d)
		}
		if d > archetype.MaxRegularDegree {
			return nil, fmt.Errorf("room %d: %w: cap %d exceeds %d doors", i, archetype.ErrUnexpectedDegree, d, archetype.MaxRegularDegree)
		}
	}

	if o.Boss {
		caps = append(caps, 1)
	}
	return caps, nil
}
