package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/lawnchairsociety/dungeontopo/test"
)

func main() {
	serverAddr := flag.String("addr", "localhost:8080", "Preview server address")
	verbose := flag.Bool("v", false, "Verbose output - show detailed actions for each test")
	flag.Parse()

	// Set verbose mode
	test.Verbose = *verbose

	fmt.Printf("Running smoke tests against %s\n", *serverAddr)
	fmt.Println("Make sure 'dungeongen serve' is running!")
	if *verbose {
		fmt.Println("Verbose mode enabled - showing detailed test actions")
	}
	fmt.Println()

	results := test.RunAllTests(*serverAddr)
	test.PrintResults(results)

	// Exit with error code if any tests failed
	for _, result := range results {
		if !result.Passed {
			os.Exit(1)
		}
	}
}
