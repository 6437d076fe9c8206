package topology

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/dungeontopo/internal/archetype"
	"github.com/lawnchairsociety/dungeontopo/internal/direction"
	"github.com/lawnchairsociety/dungeontopo/internal/graph"
	"github.com/lawnchairsociety/dungeontopo/internal/solver"
)

// TopologyData is the serialized form of a Result.
type TopologyData struct {
	Seed        int64      `yaml:"seed"`
	Attempts    int        `yaml:"attempts"`
	Fingerprint string     `yaml:"fingerprint"`
	SavedAt     time.Time  `yaml:"saved_at"`
	StartRoom   int        `yaml:"start_room"`
	BossRoom    *int       `yaml:"boss_room,omitempty"`
	BossAnchor  int        `yaml:"boss_anchor"`
	Rooms       []RoomData `yaml:"rooms"`
	Edges       []EdgeData `yaml:"edges"`
}

// RoomData represents a serialized room
type RoomData struct {
	ID       int            `yaml:"id"`
	Type     string         `yaml:"type"`
	Rotation int            `yaml:"rotation"`
	Exits    map[string]int `yaml:"exits,omitempty"` // door -> room id
}

// EdgeData represents a serialized edge and the doors serving it
type EdgeData struct {
	Source          int    `yaml:"source"`
	Destination     int    `yaml:"destination"`
	SourceDoor      string `yaml:"source_door"`
	DestinationDoor string `yaml:"destination_door"`
}

// Serialize converts a Result to TopologyData stamped with savedAt.
func Serialize(r *Result, savedAt time.Time) TopologyData {
	data := TopologyData{
		Seed:        r.Seed,
		Attempts:    r.Attempts,
		Fingerprint: r.Fingerprint(),
		SavedAt:     savedAt,
		StartRoom:   r.StartRoom,
		BossRoom:    r.BossRoom,
		BossAnchor:  r.BossAnchor,
		Rooms:       make([]RoomData, 0, r.Rooms()),
		Edges:       make([]EdgeData, 0, len(r.Edges)),
	}

	for i, a := range r.RoomTypes {
		room := RoomData{ID: i, Type: a.String(), Rotation: r.Rotations[i]}
		for _, n := range r.Neighbors(i) {
			if room.Exits == nil {
				room.Exits = make(map[string]int)
			}
			room.Exits[r.ConnectingDoor(i, n).String()] = n
		}
		data.Rooms = append(data.Rooms, room)
	}

	for i, e := range r.Edges {
		data.Edges = append(data.Edges, EdgeData{
			Source:          e.Source,
			Destination:     e.Destination,
			SourceDoor:      r.Doors[i].Source.String(),
			DestinationDoor: r.Doors[i].Destination.String(),
		})
	}
	return data
}

// Deserialize rebuilds a Result from TopologyData. Room exits are derived
// from the edges and are not read back.
func Deserialize(data TopologyData) (*Result, error) {
	rooms := append([]RoomData(nil), data.Rooms...)
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })

	r := &Result{
		Seed:       data.Seed,
		Attempts:   data.Attempts,
		StartRoom:  data.StartRoom,
		BossRoom:   data.BossRoom,
		BossAnchor: data.BossAnchor,
		RoomTypes:  make([]archetype.Archetype, len(rooms)),
		Rotations:  make([]int, len(rooms)),
		Edges:      make([]graph.Edge, 0, len(data.Edges)),
		Doors:      make([]solver.DoorPair, 0, len(data.Edges)),
	}

	for i, room := range rooms {
		if room.ID != i {
			return nil, fmt.Errorf("room ids must be 0..%d, found %d", len(rooms)-1, room.ID)
		}
		a, err := archetype.Parse(room.Type)
		if err != nil {
			return nil, fmt.Errorf("room %d: %w", room.ID, err)
		}
		if room.Rotation < 0 || room.Rotation > 3 {
			return nil, fmt.Errorf("room %d: rotation %d out of range", room.ID, room.Rotation)
		}
		r.RoomTypes[i] = a
		r.Rotations[i] = room.Rotation
	}

	for _, e := range data.Edges {
		if e.Source < 0 || e.Source >= len(rooms) || e.Destination < 0 || e.Destination >= len(rooms) {
			return nil, fmt.Errorf("edge %d - %d references a missing room", e.Source, e.Destination)
		}
		src, err := direction.Parse(e.SourceDoor)
		if err != nil {
			return nil, fmt.Errorf("edge %d - %d: %w", e.Source, e.Destination, err)
		}
		dst, err := direction.Parse(e.DestinationDoor)
		if err != nil {
			return nil, fmt.Errorf("edge %d - %d: %w", e.Source, e.Destination, err)
		}
		r.Edges = append(r.Edges, graph.Edge{Source: e.Source, Destination: e.Destination})
		r.Doors = append(r.Doors, solver.DoorPair{Source: src, Destination: dst})
	}

	if data.Fingerprint != "" && data.Fingerprint != r.Fingerprint() {
		return nil, fmt.Errorf("fingerprint mismatch: file has %s, content hashes to %s", data.Fingerprint, r.Fingerprint())
	}
	return r, nil
}

// SaveYAML writes r to filename as YAML.
func SaveYAML(r *Result, filename string) error {
	data := Serialize(r, time.Now().UTC())

	yamlData, err := yaml.Marshal(&data)
	if err != nil {
		return fmt.Errorf("failed to marshal topology data: %w", err)
	}

	if err := os.WriteFile(filename, yamlData, 0644); err != nil {
		return fmt.Errorf("failed to write topology file: %w", err)
	}

	return nil
}

// LoadYAML reads a topology written by SaveYAML.
func LoadYAML(filename string) (*Result, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read topology file: %w", err)
	}

	var data TopologyData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse topology YAML: %w", err)
	}

	r, err := Deserialize(data)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize topology: %w", err)
	}
	return r, nil
}

// SaveDOT writes the Graphviz DOT form of r to filename.
func SaveDOT(r *Result, filename string) error {
	if err := os.WriteFile(filename, []byte(r.DOT()), 0644); err != nil {
		return fmt.Errorf("failed to write DOT file: %w", err)
	}
	return nil
}
