package tests

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/avi3tal/lazyflow/pkg/workflow"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type callCounts struct {
	mu sync.Mutex
	n  map[string]int
}

func (c *callCounts) track(id string, fn workflow.ComputeFunc) workflow.ComputeFunc {
	return func(ctx context.Context, in workflow.Inputs) (any, error) {
		c.mu.Lock()
		if c.n == nil {
			c.n = make(map[string]int)
		}
		c.n[id]++
		c.mu.Unlock()
		return fn(ctx, in)
	}
}

func (c *callCounts) of(id string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n[id]
}

func number(in workflow.Inputs, id string) float64 {
	v, err := workflow.As[float64](in[id])
	if err != nil {
		panic(err)
	}
	return v
}

// chain builds A -> B -> C with A=10, B=A*2, C=B+5
func chain(t *testing.T, e *workflow.Engine, calls *callCounts, ttl time.Duration) {
	t.Helper()
	b := workflow.NewBuilder(e, ttl)
	b.Node("A", calls.track("A", func(context.Context, workflow.Inputs) (any, error) {
		return 10, nil
	})).
		Then("B", calls.track("B", func(_ context.Context, in workflow.Inputs) (any, error) {
			return number(in, "A") * 2, nil
		})).
		Then("C", calls.track("C", func(_ context.Context, in workflow.Inputs) (any, error) {
			return number(in, "B") + 5, nil
		}))
	_, err := b.Build()
	require.NoError(t, err)
}

func TestScenario_LinearChain(t *testing.T) {
	t.Parallel()
	e := workflow.New()
	calls := &callCounts{}
	chain(t, e, calls, 0)

	v, err := e.Evaluate(context.Background(), "C")
	require.NoError(t, err)
	require.EqualValues(t, 25, v)

	require.Equal(t, 1, calls.of("A"))
	require.Equal(t, 1, calls.of("B"))
	require.Equal(t, 1, calls.of("C"))
}

func TestScenario_CachedReevaluation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := workflow.New()
	calls := &callCounts{}
	chain(t, e, calls, time.Hour)

	_, err := e.Evaluate(ctx, "C")
	require.NoError(t, err)
	v, err := e.Evaluate(ctx, "C")
	require.NoError(t, err)
	require.EqualValues(t, 25, v)

	require.Equal(t, 1, calls.of("A"))
	require.Equal(t, 1, calls.of("B"))
	require.Equal(t, 1, calls.of("C"))

	m, ok := e.NodeMetrics("C")
	require.True(t, ok)
	require.True(t, m.CacheHit)
	require.Equal(t, workflow.StateCached, m.State)
}

func TestScenario_TwoNodeCycle(t *testing.T) {
	t.Parallel()
	e := workflow.New()
	calls := &callCounts{}

	b := workflow.NewBuilder(e, 0)
	b.Node("X", calls.track("X", func(context.Context, workflow.Inputs) (any, error) { return 1, nil })).DependsOn("Y")
	b.Node("Y", calls.track("Y", func(context.Context, workflow.Inputs) (any, error) { return 2, nil })).DependsOn("X")
	_, err := b.Build()
	require.NoError(t, err)

	_, err = e.Evaluate(context.Background(), "X")
	require.ErrorIs(t, err, workflow.ErrCyclicDependency)

	var cycle *workflow.CycleError
	require.ErrorAs(t, err, &cycle)
	require.Subset(t, cycle.Path, []string{"X", "Y"})
	require.Zero(t, calls.of("X"))
	require.Zero(t, calls.of("Y"))

	has, path := e.Graph().HasCycles()
	require.True(t, has)
	require.Subset(t, path, []string{"X", "Y"})
}

func TestScenario_ExpiryThenInvalidate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clk := newClock()
	e := workflow.New(workflow.WithClock(clk.Now))
	calls := &callCounts{}

	require.NoError(t, e.Register("node", calls.track("node", func(context.Context, workflow.Inputs) (any, error) {
		return "fresh", nil
	}), workflow.CacheTTL(time.Second)))

	_, err := e.Evaluate(ctx, "node")
	require.NoError(t, err)
	require.Equal(t, 1, calls.of("node"))

	clk.Sleep(1100 * time.Millisecond)
	_, err = e.Evaluate(ctx, "node")
	require.NoError(t, err)
	require.Equal(t, 2, calls.of("node"))

	require.NoError(t, e.InvalidateCache(ctx, "node"))
	_, err = e.Evaluate(ctx, "node")
	require.NoError(t, err)
	require.Equal(t, 3, calls.of("node"))
}

func TestScenario_ForceAlwaysComputes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := workflow.New()
	calls := &callCounts{}
	chain(t, e, calls, time.Hour)

	for i := 1; i <= 3; i++ {
		_, err := e.Evaluate(ctx, "C", workflow.WithForce())
		require.NoError(t, err)
		require.Equal(t, i, calls.of("C"))
	}
	require.Equal(t, 1, calls.of("A"))
}
