package tests

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/avi3tal/lazyflow/pkg/workflow"
)

type report struct {
	Total float64  `json:"total"`
	Tags  []string `json:"tags"`
}

func openApp(t *testing.T, cfgPath string) *workflow.App {
	t.Helper()
	app, err := workflow.Open(cfgPath, workflow.WithLogOutput(&bytes.Buffer{}))
	require.NoError(t, err)
	return app
}

func registerReport(t *testing.T, app *workflow.App, calls *callCounts) {
	t.Helper()
	b := app.Builder()
	b.Node("inputs", calls.track("inputs", func(context.Context, workflow.Inputs) (any, error) {
		return []int{3, 4, 5}, nil
	})).
		Then("report", calls.track("report", func(_ context.Context, in workflow.Inputs) (any, error) {
			nums, err := workflow.As[[]int](in["inputs"])
			if err != nil {
				return nil, err
			}
			r := report{Tags: []string{"weekly"}}
			for _, n := range nums {
				r.Total += float64(n)
			}
			return r, nil
		}))
	_, err := b.Build()
	require.NoError(t, err)
}

func TestPersistence_AcrossInstances(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()

	cfgPath := filepath.Join(dir, "lazyflow.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(
		"cache_dir: "+filepath.Join(dir, "cache")+"\ndefault_ttl: 1h\nlog:\n  level: debug\n",
	), 0o600))

	first := openApp(t, cfgPath)
	firstCalls := &callCounts{}
	registerReport(t, first, firstCalls)

	v, err := first.Evaluate(ctx, "report")
	require.NoError(t, err)
	require.Equal(t, report{Total: 12, Tags: []string{"weekly"}}, v)
	require.Equal(t, 2, first.Cache().Stats().DiskEntries)
	require.NoError(t, first.Close())

	second := openApp(t, cfgPath)
	t.Cleanup(func() { _ = second.Close() })
	secondCalls := &callCounts{}
	registerReport(t, second, secondCalls)

	v, err = second.Evaluate(ctx, "report")
	require.NoError(t, err)
	require.Zero(t, secondCalls.of("inputs"))
	require.Zero(t, secondCalls.of("report"))

	got, err := workflow.As[report](v)
	require.NoError(t, err)
	require.Equal(t, report{Total: 12, Tags: []string{"weekly"}}, got)

	require.Equal(t, 1.0, second.Summary().CacheHitRate)
}

func TestPersistence_InvalidateOnlyTouchesOneNode(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()

	e := workflow.New(workflow.WithCacheDir(dir))
	calls := &callCounts{}
	for _, id := range []string{"left", "right"} {
		require.NoError(t, e.Register(id, calls.track(id, func(context.Context, workflow.Inputs) (any, error) {
			return id, nil
		}), workflow.CacheTTL(time.Hour)))
	}

	_, err := e.EvaluateAll(ctx)
	require.NoError(t, err)
	require.NoError(t, e.InvalidateCache(ctx, "left"))
	require.NoError(t, e.Close())

	fresh := workflow.New(workflow.WithCacheDir(dir))
	again := &callCounts{}
	for _, id := range []string{"left", "right"} {
		require.NoError(t, fresh.Register(id, again.track(id, func(context.Context, workflow.Inputs) (any, error) {
			return id, nil
		}), workflow.CacheTTL(time.Hour)))
	}

	results, err := fresh.EvaluateAll(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]any{"left": "left", "right": "right"}, results)
	require.Equal(t, 1, again.of("left"))
	require.Zero(t, again.of("right"))
}

func TestExportAfterEvaluation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := workflow.New()
	calls := &callCounts{}
	chain(t, e, calls, time.Minute)

	_, err := e.EvaluateAll(ctx)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "graph.json")
	require.NoError(t, e.ExportGraph(path))

	snap := e.Snapshot()
	require.Len(t, snap.Nodes, 3)
	require.Len(t, snap.Metrics, 3)
	require.Equal(t, 3, snap.Summary.EvaluatedNodes)
	require.Equal(t, []string{"B"}, snap.Edges["C"])
}
