package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/abogadai/abogadai/internal/pkg/cache"
	"github.com/abogadai/abogadai/internal/pkg/database"
	"github.com/abogadai/abogadai/internal/pkg/env"
	"github.com/abogadai/abogadai/internal/pkg/tasks"
)

// Scheduled maintenance entry point, invoked by cron:
//
//	0 0 * * *  tasks midnight
//	0 1 * * *  tasks cleanup
func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	runner := tasks.NewRunnerFromDB(database.GetDB())

	var results []tasks.Result
	switch os.Args[1] {
	case "midnight":
		results = runner.Midnight()
	case "cleanup":
		results = runner.Cleanup()
	case "all":
		results = runner.RunAll()
	default:
		printUsage()
		os.Exit(1)
	}

	payload, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode results: %v", err)
	}
	fmt.Println(string(payload))

	if !tasks.Succeeded(results) {
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: go run cmd/tasks/main.go [command]")
	fmt.Println("Available commands:")
	fmt.Println("  midnight - Recalculate tiers, reset daily bonuses, sweep stale usage")
	fmt.Println("  cleanup  - Remove expired unpaid documents and abandoned drafts")
	fmt.Println("  all      - Run both batches in order")
}
