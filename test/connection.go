package test

import (
	"time"
)

// =============================================================================
// Group 1: Connection & protocol
// =============================================================================

// TestBasicGenerate tests that a client can request the default topology
func TestBasicGenerate(serverAddr string) TestResult {
	const testName = "Basic Generate"

	client, failed := connect(testName, serverAddr)
	if failed != nil {
		return *failed
	}
	defer client.Close()

	logAction(testName, "Sending empty request (server defaults)...")
	if err := client.Send("{}"); err != nil {
		return fail(testName, "Send failed: %v", err)
	}
	reply, err := client.WaitForReply(replyTimeout)
	if err != nil {
		return fail(testName, "No reply: %v", err)
	}
	if reply.Failed() {
		return fail(testName, "Server error: %s", reply.Error)
	}
	logResult(testName, true, "Received topology "+reply.Fingerprint)

	return pass(testName, "Generated %d rooms in %d attempt(s)", reply.Rooms(), reply.Attempts)
}

// TestBlankMessagesIgnored tests that whitespace-only messages get no reply
func TestBlankMessagesIgnored(serverAddr string) TestResult {
	const testName = "Blank Messages"

	client, failed := connect(testName, serverAddr)
	if failed != nil {
		return *failed
	}
	defer client.Close()

	logAction(testName, "Sending blank messages...")
	client.Send("")
	client.Send("   \n")
	if reply, err := client.WaitForReply(300 * time.Millisecond); err == nil {
		return fail(testName, "Blank message produced a reply: %+v", reply)
	}

	reply, err := client.Generate(request(3, false, 1), replyTimeout)
	if err != nil || reply.Failed() {
		return fail(testName, "Connection unusable after blank messages: %v", err)
	}
	return pass(testName, "Blank messages skipped, connection still usable")
}

// TestMalformedRequest tests that bad JSON yields an error reply, not a disconnect
func TestMalformedRequest(serverAddr string) TestResult {
	const testName = "Malformed Request"

	client, failed := connect(testName, serverAddr)
	if failed != nil {
		return *failed
	}
	defer client.Close()

	logAction(testName, "Sending invalid JSON...")
	client.Send("{rooms: seven}")
	reply, err := client.WaitForReply(replyTimeout)
	if err != nil {
		return fail(testName, "No reply: %v", err)
	}
	logResult(testName, reply.Kind == "request", "kind="+reply.Kind)
	if reply.Kind != "request" {
		return fail(testName, "Expected request error, got %+v", reply)
	}

	if reply, err := client.Generate(request(3, false, 1), replyTimeout); err != nil || reply.Failed() {
		return fail(testName, "Connection unusable after malformed request: %v", err)
	}
	return pass(testName, "Malformed request answered with kind=request")
}
