package test

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/lawnchairsociety/dungeontopo/internal/server"
	"github.com/lawnchairsociety/dungeontopo/internal/testclient"
)

// replyTimeout bounds every wait for a server reply.
const replyTimeout = 10 * time.Second

// uniqueCounter provides unique client names within a single run
var uniqueCounter uint64

func uniqueName(base string) string {
	return fmt.Sprintf("%s-%d", base, atomic.AddUint64(&uniqueCounter, 1))
}

// Verbose controls whether detailed logging is shown during tests
var Verbose = false

// TestResult represents the result of a test
type TestResult struct {
	Name    string
	Passed  bool
	Message string
}

// logAction logs a test action when verbose mode is enabled
func logAction(testName, action string) {
	if Verbose {
		fmt.Printf("  [%s] %s\n", testName, action)
	}
}

// logResult logs an expected vs actual result when verbose mode is enabled
func logResult(testName string, success bool, detail string) {
	if Verbose {
		status := "OK"
		if !success {
			status = "FAIL"
		}
		fmt.Printf("  [%s] %s: %s\n", testName, status, detail)
	}
}

func fail(name, format string, args ...any) TestResult {
	return TestResult{Name: name, Passed: false, Message: fmt.Sprintf(format, args...)}
}

func pass(name, format string, args ...any) TestResult {
	return TestResult{Name: name, Passed: true, Message: fmt.Sprintf(format, args...)}
}

// connect opens a client or returns the failing result.
func connect(testName, serverAddr string) (*testclient.TestClient, *TestResult) {
	name := uniqueName(testName)
	logAction(testName, fmt.Sprintf("Connecting as '%s'...", name))
	client, err := testclient.NewTestClient(name, serverAddr)
	if err != nil {
		r := fail(testName, "Failed to connect: %v", err)
		return nil, &r
	}
	return client, nil
}

func intPtr(v int) *int      { return &v }
func seedPtr(v int64) *int64 { return &v }
func boolPtr(v bool) *bool   { return &v }

// request builds a generation request for rooms regular rooms.
func request(rooms int, boss bool, seed int64) server.GenerateRequest {
	return server.GenerateRequest{Rooms: intPtr(rooms), Boss: boolPtr(boss), Seed: seedPtr(seed)}
}

// RunAllTests runs every scenario against serverAddr.
func RunAllTests(serverAddr string) []TestResult {
	results := make([]TestResult, 0)

	// Group 1: Connection & protocol
	results = append(results, TestBasicGenerate(serverAddr))
	results = append(results, TestBlankMessagesIgnored(serverAddr))
	results = append(results, TestMalformedRequest(serverAddr))

	// Group 2: Topology invariants
	results = append(results, TestDeterministicSeed(serverAddr))
	results = append(results, TestBossPlacement(serverAddr))
	results = append(results, TestExplicitDegrees(serverAddr))
	results = append(results, TestDoorAlignment(serverAddr))

	// Group 3: Failures
	results = append(results, TestInvalidRoomCount(serverAddr))
	results = append(results, TestExhaustedRetries(serverAddr))

	// Group 4: Concurrency
	results = append(results, TestConcurrentClients(serverAddr))

	return results
}

// PrintResults prints a pass/fail table and totals.
func PrintResults(results []TestResult) {
	passed := 0
	failed := 0

	fmt.Println("============================================================")
	fmt.Println("Smoke Test Results")
	fmt.Println("============================================================")
	fmt.Println()

	for _, r := range results {
		status := "PASS"
		if !r.Passed {
			status = "FAIL"
			failed++
		} else {
			passed++
		}
		fmt.Printf("[%s] %s: %s\n", status, r.Name, r.Message)
	}

	fmt.Println()
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Total: %d | Passed: %d | Failed: %d\n", len(results), passed, failed)
	fmt.Println("------------------------------------------------------------")
}
