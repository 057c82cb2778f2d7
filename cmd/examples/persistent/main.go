package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/avi3tal/lazyflow/pkg/workflow"
)

// Run twice: the second run is served from the disk cache.
func main() {
	cfgPath := flag.String("config", "", "config file (default: built-in defaults and LAZYFLOW_* env)")
	export := flag.String("export", "", "write the evaluated graph as JSON to this path")
	invalidate := flag.String("invalidate", "", "drop cached results of this node before evaluating")
	flag.Parse()

	if *cfgPath != "" {
		if _, err := os.Stat(*cfgPath); os.IsNotExist(err) {
			if err := workflow.WriteDefaultConfig(*cfgPath); err != nil {
				log.Fatalf("Failed to write default config: %v", err)
			}
			fmt.Printf("wrote default config to %s\n", *cfgPath)
		}
	}

	app, err := workflow.Open(*cfgPath)
	if err != nil {
		log.Fatalf("Failed to open workflow: %v", err)
	}
	defer app.Close()

	ttl := app.Config.DefaultTTL
	if ttl == 0 {
		ttl = time.Hour
	}

	b := app.Builder()
	b.Node("dataset", func(context.Context, workflow.Inputs) (any, error) {
		fmt.Println("  computing dataset (slow)")
		time.Sleep(500 * time.Millisecond)
		return map[string]int{"alpha": 3, "beta": 7}, nil
	}).TTL(ttl).
		Then("total", func(_ context.Context, in workflow.Inputs) (any, error) {
			fmt.Println("  computing total")
			data, err := workflow.As[map[string]int](in["dataset"])
			if err != nil {
				return nil, err
			}
			sum := 0
			for _, v := range data {
				sum += v
			}
			return sum, nil
		}).TTL(ttl)

	if _, err := b.Build(); err != nil {
		log.Fatalf("Failed to register nodes: %v", err)
	}

	ctx := context.Background()
	if *invalidate != "" {
		if err := app.InvalidateCache(ctx, *invalidate); err != nil {
			log.Fatalf("Failed to invalidate %s: %v", *invalidate, err)
		}
	}

	start := time.Now()
	v, err := app.Evaluate(ctx, "total")
	if err != nil {
		log.Fatalf("Evaluation failed: %v", err)
	}
	total, _ := workflow.As[int](v)
	fmt.Printf("total = %d (%s)\n", total, time.Since(start).Round(time.Millisecond))

	stats := app.Cache().Stats()
	fmt.Printf("cache: %d in memory, %d on disk (%d bytes) under %s\n",
		stats.MemoryEntries, stats.DiskEntries, stats.TotalSizeBytes, app.Cache().Dir())

	if *export != "" {
		if err := app.ExportGraph(*export); err != nil {
			log.Fatalf("Failed to export graph: %v", err)
		}
		fmt.Printf("graph written to %s\n", *export)
	}
}
