package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/lawnchairsociety/dungeontopo/internal/archetype"
	"github.com/lawnchairsociety/dungeontopo/internal/direction"
	"github.com/lawnchairsociety/dungeontopo/internal/topology"
)

func main() {
	inputFile := flag.String("input", "topology.yaml", "Path to a topology YAML export")
	outputFile := flag.String("output", "", "Output file (empty for stdout)")
	showLegend := flag.Bool("legend", true, "Show legend")
	flag.Parse()

	result, err := topology.LoadYAML(*inputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading topology: %v\n", err)
		os.Exit(1)
	}

	output := renderMap(result, *showLegend)

	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, []byte(output), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Map written to %s\n", *outputFile)
	} else {
		fmt.Print(output)
	}
}

// renderMap draws the topology as an ASCII grid followed by an overlap
// report and per-room details.
func renderMap(r *topology.Result, showLegend bool) string {
	var output strings.Builder

	output.WriteString(fmt.Sprintf("Dungeon Map (Seed: %d, Rooms: %d)\n", r.Seed, r.Rooms()))
	output.WriteString(fmt.Sprintf("Fingerprint: %s\n", r.Fingerprint()))
	output.WriteString(strings.Repeat("=", 60) + "\n\n")

	layout := layoutRooms(r)
	renderGrid(&output, r, layout)

	if len(layout.Overlaps) > 0 {
		output.WriteString("\nWARNING: Overlapping rooms detected!\n")
		for _, o := range layout.Overlaps {
			output.WriteString(fmt.Sprintf("  - room %d lands on room %d at (%d,%d)\n", o.Room, o.Occupant, o.Pos.X, o.Pos.Y))
		}
	} else {
		output.WriteString(fmt.Sprintf("\nAll %d rooms placed without overlap.\n", r.Rooms()))
	}

	renderDetails(&output, r, layout)

	if showLegend {
		output.WriteString(getLegend())
	}
	return output.String()
}

func renderGrid(output *strings.Builder, r *topology.Result, layout Layout) {
	if len(layout.Cells) == 0 {
		output.WriteString("  (No rooms to display)\n")
		return
	}

	minPos, maxPos := layout.Bounds()

	// Each cell is 5 chars wide, 3 chars tall
	// Format:
	//   |     (north connection)
	// --[R]-- (west-room-east)
	//   |     (south connection)
	for y := minPos.Y; y <= maxPos.Y; y++ {
		for x := minPos.X; x <= maxPos.X; x++ {
			if layout.hasPassage(r, GridPos{x, y}, direction.North) {
				output.WriteString("  |  ")
			} else {
				output.WriteString("     ")
			}
		}
		output.WriteString("\n")

		for x := minPos.X; x <= maxPos.X; x++ {
			pos := GridPos{x, y}
			room, ok := layout.Cells[pos]
			if !ok {
				output.WriteString("     ")
				continue
			}
			if layout.hasPassage(r, pos, direction.West) {
				output.WriteString("-")
			} else {
				output.WriteString(" ")
			}
			output.WriteString("[" + getRoomSymbol(r, room) + "]")
			if layout.hasPassage(r, pos, direction.East) {
				output.WriteString("-")
			} else {
				output.WriteString(" ")
			}
		}
		output.WriteString("\n")

		for x := minPos.X; x <= maxPos.X; x++ {
			if layout.hasPassage(r, GridPos{x, y}, direction.South) {
				output.WriteString("  |  ")
			} else {
				output.WriteString("     ")
			}
		}
		output.WriteString("\n")
	}
}

func renderDetails(output *strings.Builder, r *topology.Result, layout Layout) {
	output.WriteString("\nRoom Details:\n")

	for room := 0; room < r.Rooms(); room++ {
		pos := layout.Positions[room]
		details := fmt.Sprintf("  [%s] room %-3d %-10s r%d (%d,%d)",
			getRoomSymbol(r, room), room, r.RoomTypes[room], r.Rotations[room], pos.X, pos.Y)

		var exits []string
		for _, n := range r.Neighbors(room) {
			exits = append(exits, fmt.Sprintf("%s→%d", r.ConnectingDoor(room, n), n))
		}
		sort.Strings(exits)
		if len(exits) > 0 {
			details += " exits: " + strings.Join(exits, ", ")
		}

		var markers []string
		if room == r.StartRoom {
			markers = append(markers, "start")
		}
		if r.BossRoom != nil && room == *r.BossRoom {
			markers = append(markers, "boss")
		}
		if len(markers) > 0 {
			details += " [" + strings.Join(markers, ", ") + "]"
		}

		output.WriteString(details + "\n")
	}
}

func getRoomSymbol(r *topology.Result, room int) string {
	if room == r.StartRoom {
		return "S"
	}
	switch r.RoomTypes[room] {
	case archetype.Boss:
		return "B"
	case archetype.OneDoor:
		return "1"
	case archetype.TwoDoor:
		return "2"
	case archetype.ThreeDoor:
		return "3"
	default:
		return "?"
	}
}

func getLegend() string {
	return `
Legend:
  [S] Start room
  [B] Boss room
  [1] One-door room (dead end)
  [2] Two-door room
  [3] Three-door room

  Connections:
  -   Horizontal passage (east-west)
  |   Vertical passage (north-south)
`
}
