package test

import (
	"fmt"
	"sync"
)

// =============================================================================
// Group 4: Concurrency
// =============================================================================

// TestConcurrentClients tests that parallel clients get independent,
// reproducible answers
func TestConcurrentClients(serverAddr string) TestResult {
	const testName = "Concurrent Clients"
	const clients = 8

	var wg sync.WaitGroup
	fingerprints := make([]string, clients)
	errs := make([]error, clients)

	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			client, failed := connect(testName, serverAddr)
			if failed != nil {
				errs[i] = fmt.Errorf("%s", failed.Message)
				return
			}
			defer client.Close()

			// even clients share a seed, odd clients get their own
			seed := int64(500)
			if i%2 == 1 {
				seed = int64(600 + i)
			}
			reply, err := client.Generate(request(10, true, seed), replyTimeout)
			if err != nil {
				errs[i] = err
				return
			}
			if reply.Failed() {
				errs[i] = fmt.Errorf("server error: %s", reply.Error)
				return
			}
			fingerprints[i] = reply.Fingerprint
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return fail(testName, "Client %d: %v", i, err)
		}
	}
	for i := 2; i < clients; i += 2 {
		if fingerprints[i] != fingerprints[0] {
			return fail(testName, "Clients 0 and %d used seed 500 but got different topologies", i)
		}
	}
	return pass(testName, "%d clients answered, shared seeds agree", clients)
}
