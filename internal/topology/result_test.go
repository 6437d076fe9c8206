package topology

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/dungeontopo/internal/archetype"
	"github.com/lawnchairsociety/dungeontopo/internal/direction"
	"github.com/lawnchairsociety/dungeontopo/internal/graph"
	"github.com/lawnchairsociety/dungeontopo/internal/solver"
)

// chain is a hand-built 0 - 1 - 2 corridor with a boss hanging off room 2.
func chain() *Result {
	boss := 3
	return &Result{
		Seed: 7,
		Edges: []graph.Edge{
			{Source: 0, Destination: 1},
			{Source: 1, Destination: 2},
			{Source: 2, Destination: 3},
		},
		RoomTypes: []archetype.Archetype{archetype.OneDoor, archetype.TwoDoor, archetype.TwoDoor, archetype.Boss},
		Rotations: []int{0, 0, 0, 0},
		Doors: []solver.DoorPair{
			{Source: direction.East, Destination: direction.West},
			{Source: direction.East, Destination: direction.West},
			{Source: direction.East, Destination: direction.West},
		},
		StartRoom:  0,
		BossRoom:   &boss,
		BossAnchor: 2,
	}
}

func TestResultNeighbors(t *testing.T) {
	r := chain()

	assert.Equal(t, []int{1}, r.Neighbors(0))
	assert.Equal(t, []int{0, 2}, r.Neighbors(1))
	assert.Equal(t, []int{2}, r.Neighbors(3))
	assert.Nil(t, r.Neighbors(-1))
	assert.Nil(t, r.Neighbors(4))
}

func TestResultConnectingDoor(t *testing.T) {
	r := chain()

	assert.Equal(t, direction.East, r.ConnectingDoor(1, 2))
	assert.Equal(t, direction.West, r.ConnectingDoor(2, 1))
	assert.Equal(t, direction.None, r.ConnectingDoor(0, 2))
	assert.Equal(t, direction.None, r.ConnectingDoor(0, 9))
}

func TestResultDebugFormats(t *testing.T) {
	r := chain()

	assert.Equal(t, "0 - 1\n1 - 2\n2 - 3\n", r.EdgeList())
	assert.Equal(t, "graph G {\n  node [shape=circle];\n  0 -- 1;\n  1 -- 2;\n  2 -- 3;\n}\n", r.DOT())

	detailed := r.DetailedDOT()
	assert.Contains(t, detailed, "3 [label=\"3\\nboss r0\", shape=doublecircle")
	assert.Contains(t, detailed, "0 [label=\"0\\none_door r0\", style=filled")
	assert.Contains(t, detailed, "1 -- 2 [taillabel=\"east\", headlabel=\"west\"];")
}

func TestResultFingerprint(t *testing.T) {
	a := chain()
	b := chain()
	b.Seed = 99
	b.Attempts = 5

	assert.Len(t, a.Fingerprint(), 64)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint(), "seed and attempts are not part of the fingerprint")

	b.Rotations[1] = 2
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())

	c := chain()
	c.Edges[0] = graph.Edge{Source: 1, Destination: 0}
	assert.Equal(t, a.Fingerprint(), c.Fingerprint(), "edge orientation is normalized")
}

func TestSaveLoadYAML(t *testing.T) {
	res, err := Generate(opts(8, true, 31))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "topology.yaml")
	require.NoError(t, SaveYAML(res, path))

	loaded, err := LoadYAML(path)
	require.NoError(t, err)

	assert.Equal(t, res.Seed, loaded.Seed)
	assert.Equal(t, res.Attempts, loaded.Attempts)
	assert.Equal(t, res.Edges, loaded.Edges)
	assert.Equal(t, res.RoomTypes, loaded.RoomTypes)
	assert.Equal(t, res.Rotations, loaded.Rotations)
	assert.Equal(t, res.Doors, loaded.Doors)
	assert.Equal(t, res.StartRoom, loaded.StartRoom)
	assert.Equal(t, res.BossRoom, loaded.BossRoom)
	assert.Equal(t, res.BossAnchor, loaded.BossAnchor)
	assert.Equal(t, res.Fingerprint(), loaded.Fingerprint())
}

func TestSerializeExits(t *testing.T) {
	data := Serialize(chain(), time.Time{})

	require.Len(t, data.Rooms, 4)
	assert.Equal(t, map[string]int{"east": 1}, data.Rooms[0].Exits)
	assert.Equal(t, map[string]int{"west": 0, "east": 2}, data.Rooms[1].Exits)
	assert.Equal(t, "boss", data.Rooms[3].Type)
	assert.Equal(t, EdgeData{Source: 2, Destination: 3, SourceDoor: "east", DestinationDoor: "west"}, data.Edges[2])
}

func TestLoadYAMLErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadYAML(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	write := func(name string, data TopologyData) string {
		out, err := yaml.Marshal(&data)
		require.NoError(t, err)
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, out, 0644))
		return path
	}

	tests := []struct {
		name    string
		mutate  func(*TopologyData)
		wantErr error
	}{
		{"fingerprint", func(d *TopologyData) { d.Rooms[1].Rotation = 3 }, nil},
		{"archetype", func(d *TopologyData) { d.Rooms[1].Type = "four_door" }, archetype.ErrUnknownArchetype},
		{"door", func(d *TopologyData) { d.Edges[0].SourceDoor = "up" }, direction.ErrInvalidDirection},
		{"rotation", func(d *TopologyData) { d.Rooms[0].Rotation = 4; d.Fingerprint = "" }, nil},
		{"room ids", func(d *TopologyData) { d.Rooms[2].ID = 7; d.Fingerprint = "" }, nil},
		{"dangling edge", func(d *TopologyData) { d.Edges[0].Destination = 12; d.Fingerprint = "" }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := Serialize(chain(), time.Time{})
			tt.mutate(&data)
			_, err := LoadYAML(write(tt.name+".yaml", data))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestSaveDOT(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topology.dot")
	require.NoError(t, SaveDOT(chain(), path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, chain().DOT(), string(raw))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("SVG")
	require.NoError(t, err)
	assert.EqualValues(t, "svg", f)

	f, err = ParseFormat("png")
	require.NoError(t, err)
	assert.EqualValues(t, "png", f)

	_, err = ParseFormat("gif")
	assert.Error(t, err)
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), chain().DetailedDOT())
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(svg), "<svg"), "output is not SVG")

	_, err = RenderSVG(context.Background(), "graph {")
	assert.Error(t, err)
}
