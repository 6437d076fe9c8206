package test

import (
	"strings"

	"github.com/lawnchairsociety/dungeontopo/internal/server"
)

// =============================================================================
// Group 3: Failures
// =============================================================================

// TestInvalidRoomCount tests that bad room counts are rejected without retrying
func TestInvalidRoomCount(serverAddr string) TestResult {
	const testName = "Invalid Room Count"

	client, failed := connect(testName, serverAddr)
	if failed != nil {
		return *failed
	}
	defer client.Close()

	cases := []struct {
		req  server.GenerateRequest
		kind string
	}{
		{request(0, false, 1), "fatal"},
		{request(server.MaxRooms+1, false, 1), "request"},
	}

	for _, tc := range cases {
		reply, err := client.Generate(tc.req, replyTimeout)
		if err != nil {
			return fail(testName, "No reply: %v", err)
		}
		logResult(testName, reply.Kind == tc.kind, reply.Error)
		if reply.Kind != tc.kind {
			return fail(testName, "Rooms %d boss %v: expected kind %s, got %+v", *tc.req.Rooms, *tc.req.Boss, tc.kind, reply)
		}
	}
	return pass(testName, "Zero rooms and oversized requests rejected")
}

// TestExhaustedRetries tests that unsatisfiable degree caps report exhaustion
func TestExhaustedRetries(serverAddr string) TestResult {
	const testName = "Exhausted Retries"

	client, failed := connect(testName, serverAddr)
	if failed != nil {
		return *failed
	}
	defer client.Close()

	req := request(4, false, 1)
	req.DegreeRule = "uniform"
	req.UniformDegree = intPtr(1)

	logAction(testName, "Requesting four one-door rooms...")
	reply, err := client.Generate(req, replyTimeout)
	if err != nil {
		return fail(testName, "No reply: %v", err)
	}
	if reply.Kind != "exhausted" {
		return fail(testName, "Expected kind exhausted, got %+v", reply)
	}
	if !strings.Contains(reply.Error, "attempts") {
		return fail(testName, "Exhaustion message should report attempts: %s", reply.Error)
	}

	logAction(testName, "Requesting a boss room next to a single room...")
	reply, err = client.Generate(request(1, true, 1), replyTimeout)
	if err != nil {
		return fail(testName, "No reply: %v", err)
	}
	if reply.Kind != "exhausted" {
		return fail(testName, "Lone room with boss: expected kind exhausted, got %+v", reply)
	}
	return pass(testName, "Four one-door rooms and a lone boss anchor exhausted retries")
}
