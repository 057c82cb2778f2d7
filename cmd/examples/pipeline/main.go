package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/avi3tal/lazyflow/internal/logging"
	"github.com/avi3tal/lazyflow/pkg/workflow"
)

// A small log-analysis pipeline: fetch -> parse -> {errors, warnings} -> report.
func main() {
	ctx := context.Background()

	e := workflow.New(
		workflow.WithName("pipeline"),
		workflow.WithLogger(logging.New("debug", "text", os.Stderr)),
	)
	defer e.Close()

	b := workflow.NewBuilder(e, time.Minute)
	parse := b.Node("fetch", func(context.Context, workflow.Inputs) (any, error) {
		return "INFO start\nWARN disk 80%\nERROR timeout\nINFO done\nERROR refused", nil
	}).Then("parse", func(_ context.Context, in workflow.Inputs) (any, error) {
		raw, err := workflow.As[string](in["fetch"])
		if err != nil {
			return nil, err
		}
		return strings.Split(raw, "\n"), nil
	})

	count := func(level string) workflow.ComputeFunc {
		return func(_ context.Context, in workflow.Inputs) (any, error) {
			lines, err := workflow.As[[]string](in["parse"])
			if err != nil {
				return nil, err
			}
			n := 0
			for _, l := range lines {
				if strings.HasPrefix(l, level) {
					n++
				}
			}
			return n, nil
		}
	}
	parse.Then("errors", count("ERROR"))
	parse.Then("warnings", count("WARN"))

	b.Node("report", func(_ context.Context, in workflow.Inputs) (any, error) {
		errs, _ := workflow.As[int](in["errors"])
		warns, _ := workflow.As[int](in["warnings"])
		return fmt.Sprintf("%d errors, %d warnings", errs, warns), nil
	}).DependsOn("errors", "warnings").NoCache()

	if _, err := b.Build(); err != nil {
		log.Fatalf("Failed to build pipeline: %v", err)
	}

	for i := 0; i < 2; i++ {
		v, err := e.Evaluate(ctx, "report")
		if err != nil {
			log.Fatalf("Evaluation failed: %v", err)
		}
		fmt.Printf("run %d: %v\n", i+1, v)
	}

	e.Graph().Print(os.Stdout)

	fmt.Println("\nMetrics:")
	order, _ := e.Graph().TopologicalSort()
	for _, id := range order {
		if m, ok := e.NodeMetrics(id); ok {
			fmt.Printf("  %-9s %-9s cache_hit=%v\n", id, m.State, m.CacheHit)
		}
	}
	s := e.Summary()
	fmt.Printf("\n%d/%d nodes evaluated, hit rate %.0f%%\n", s.EvaluatedNodes, s.TotalNodes, s.CacheHitRate*100)
}
