package test

import (
	"fmt"

	"github.com/lawnchairsociety/dungeontopo/internal/archetype"
	"github.com/lawnchairsociety/dungeontopo/internal/direction"
	"github.com/lawnchairsociety/dungeontopo/internal/testclient"
)

// =============================================================================
// Group 2: Topology invariants
// =============================================================================

// TestDeterministicSeed tests that the same seed yields the same topology
func TestDeterministicSeed(serverAddr string) TestResult {
	const testName = "Deterministic Seed"

	client, failed := connect(testName, serverAddr)
	if failed != nil {
		return *failed
	}
	defer client.Close()

	var fingerprints []string
	for i := 0; i < 2; i++ {
		logAction(testName, fmt.Sprintf("Requesting seed 1234 (run %d)...", i+1))
		reply, err := client.Generate(request(9, true, 1234), replyTimeout)
		if err != nil || reply.Failed() {
			return fail(testName, "Generate failed: %v %s", err, errorOf(reply))
		}
		fingerprints = append(fingerprints, reply.Fingerprint)
	}

	if fingerprints[0] != fingerprints[1] {
		return fail(testName, "Fingerprints differ: %s vs %s", fingerprints[0], fingerprints[1])
	}
	return pass(testName, "Seed 1234 reproduced %s", fingerprints[0][:12])
}

// TestBossPlacement tests that the boss room is a leaf with one door and the
// start room is as far from it as any room
func TestBossPlacement(serverAddr string) TestResult {
	const testName = "Boss Placement"

	client, failed := connect(testName, serverAddr)
	if failed != nil {
		return *failed
	}
	defer client.Close()

	for seed := int64(1); seed <= 5; seed++ {
		reply, err := client.Generate(request(8, true, seed), replyTimeout)
		if err != nil || reply.Failed() {
			return fail(testName, "Generate failed: %v %s", err, errorOf(reply))
		}
		if reply.BossRoom == nil {
			return fail(testName, "Seed %d: no boss room", seed)
		}
		boss := *reply.BossRoom
		if boss != reply.Rooms()-1 {
			return fail(testName, "Seed %d: boss is room %d, want last room %d", seed, boss, reply.Rooms()-1)
		}
		if reply.RoomTypes[boss] != archetype.Boss {
			return fail(testName, "Seed %d: boss room typed %s", seed, reply.RoomTypes[boss])
		}
		if n := reply.Neighbors(boss); len(n) != 1 || n[0] != reply.BossAnchor {
			return fail(testName, "Seed %d: boss neighbours %v, anchor %d", seed, n, reply.BossAnchor)
		}

		dist := distances(reply.Rooms(), reply.Neighbors, boss)
		for room, d := range dist {
			if d > dist[reply.StartRoom] {
				return fail(testName, "Seed %d: room %d is further from the boss than start room %d", seed, room, reply.StartRoom)
			}
		}
		logResult(testName, true, fmt.Sprintf("seed %d: boss %d via %d, start %d", seed, boss, reply.BossAnchor, reply.StartRoom))
	}
	return pass(testName, "Boss is a one-door leaf and start is furthest for 5 seeds")
}

// TestExplicitDegrees tests that per-room caps are honored
func TestExplicitDegrees(serverAddr string) TestResult {
	const testName = "Explicit Degrees"

	client, failed := connect(testName, serverAddr)
	if failed != nil {
		return *failed
	}
	defer client.Close()

	req := request(4, false, 3)
	req.Degrees = []int{1, 3, 1, 1}
	reply, err := client.Generate(req, replyTimeout)
	if err != nil || reply.Failed() {
		return fail(testName, "Generate failed: %v %s", err, errorOf(reply))
	}
	if n := reply.Neighbors(1); len(n) != 3 {
		return fail(testName, "Room 1 should be the hub of a star, has neighbours %v", n)
	}
	return pass(testName, "Caps [1,3,1,1] produced a star around room 1")
}

// TestDoorAlignment tests that every corridor joins facing doors
func TestDoorAlignment(serverAddr string) TestResult {
	const testName = "Door Alignment"

	client, failed := connect(testName, serverAddr)
	if failed != nil {
		return *failed
	}
	defer client.Close()

	checked := 0
	for seed := int64(10); seed < 20; seed++ {
		reply, err := client.Generate(request(12, true, seed), replyTimeout)
		if err != nil || reply.Failed() {
			return fail(testName, "Generate failed: %v %s", err, errorOf(reply))
		}
		for i, e := range reply.Edges {
			pair := reply.Doors[i]
			if pair.Source == direction.None || pair.Destination != pair.Source.Opposite() {
				return fail(testName, "Seed %d: edge %d-%d doors %s/%s do not face", seed, e.Source, e.Destination, pair.Source, pair.Destination)
			}
			checked++
		}
	}
	return pass(testName, "%d corridors across 10 seeds join facing doors", checked)
}

// distances returns hop counts from start over the neighbour function.
func distances(n int, neighbors func(int) []int, start int) []int {
	dist := make([]int, n)
	for i := range dist {
		dist[i] = -1
	}
	dist[start] = 0
	queue := []int{start}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, w := range neighbors(v) {
			if dist[w] == -1 {
				dist[w] = dist[v] + 1
				queue = append(queue, w)
			}
		}
	}
	return dist
}

func errorOf(reply *testclient.Reply) string {
	if reply == nil {
		return ""
	}
	return reply.Error
}
