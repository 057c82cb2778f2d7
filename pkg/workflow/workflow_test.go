package workflow

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func constant(v any) ComputeFunc {
	return func(context.Context, Inputs) (any, error) { return v, nil }
}

func TestBuilder_ChainAndDefaults(t *testing.T) {
	t.Parallel()
	e := New()
	b := NewBuilder(e, time.Minute)

	b.Node("a", constant(1)).
		Then("b", constant(2)).Meta("owner", "data").
		Then("c", constant(3)).NoCache()
	b.Node("d", constant(4)).DependsOn("a", "c").TTL(time.Hour)

	got, err := b.Build()
	require.NoError(t, err)
	require.Same(t, e, got)

	g := e.Graph()
	require.Equal(t, []string{"a", "b", "c", "d"}, g.IDs())

	deps, err := g.Dependencies("c")
	require.NoError(t, err)
	require.Equal(t, []string{"b"}, deps)

	a, _ := g.Node("a")
	c, _ := g.Node("c")
	d, _ := g.Node("d")
	bn, _ := g.Node("b")
	require.Equal(t, time.Minute, a.CacheTTL())
	require.Zero(t, c.CacheTTL())
	require.Equal(t, time.Hour, d.CacheTTL())
	require.Equal(t, "data", bn.Metadata()["owner"])

	v, err := e.Evaluate(context.Background(), "d")
	require.NoError(t, err)
	require.Equal(t, 4, v)
}

func TestBuilder_ReportsRegistrationError(t *testing.T) {
	t.Parallel()
	e := New()
	require.NoError(t, e.Register("taken", constant(0)))

	b := NewBuilder(e, 0)
	b.Node("fine", constant(1))
	b.Node("taken", constant(2))

	_, err := b.Build()
	require.ErrorIs(t, err, ErrDuplicateNode)
	require.ErrorContains(t, err, `"taken"`)
	require.False(t, e.Graph().HasNode("fine"), "a failed build registers nothing")
	require.Equal(t, 1, e.Graph().Len())

	b.Remove("taken")
	built, err := b.Build()
	require.NoError(t, err)
	require.Same(t, e, built)
	require.True(t, e.Graph().HasNode("fine"))
}

func TestBuilder_RejectsInvalidDeclarationsBeforeRegistering(t *testing.T) {
	t.Parallel()
	e := New()

	b := NewBuilder(e, 0)
	b.Node("a", constant(1))
	b.Node("b", constant(2)).TTL(-time.Second)
	_, err := b.Build()
	require.ErrorIs(t, err, ErrInvalidNode)
	require.Zero(t, e.Graph().Len())

	b = NewBuilder(e, 0)
	b.Node("a", constant(1))
	b.Node("a", constant(2))
	_, err = b.Build()
	require.ErrorIs(t, err, ErrDuplicateNode)
	require.Zero(t, e.Graph().Len())
}

func TestBuilder_Version(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := New()
	calls := 0
	version := "1"

	b := NewBuilder(e, time.Hour)
	b.Node("v", func(context.Context, Inputs) (any, error) {
		calls++
		return calls, nil
	}).Version(func(Inputs) string { return version })
	_, err := b.Build()
	require.NoError(t, err)

	n, _ := e.Graph().Node("v")
	_, err = e.Evaluate(ctx, "v")
	require.NoError(t, err)

	n.Reset()
	_, err = e.Evaluate(ctx, "v")
	require.NoError(t, err)
	require.Equal(t, 1, calls, "same version is served from the cache")

	n.Reset()
	version = "2"
	_, err = e.Evaluate(ctx, "v")
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestAs(t *testing.T) {
	t.Parallel()

	n, err := As[int](7)
	require.NoError(t, err)
	require.Equal(t, 7, n)

	n, err = As[int](float64(7))
	require.NoError(t, err)
	require.Equal(t, 7, n)

	type point struct {
		X int `json:"x"`
		Y int `json:"y"`
	}
	p, err := As[point](map[string]any{"x": 1.0, "y": 2.0})
	require.NoError(t, err)
	require.Equal(t, point{X: 1, Y: 2}, p)

	s, err := As[[]string]([]any{"a", "b"})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, s)

	_, err = As[int]("seven")
	require.Error(t, err)

	_, err = As[int](make(chan int))
	require.Error(t, err)
}

func TestErrorAliases(t *testing.T) {
	t.Parallel()
	e := New()
	require.NoError(t, e.Register("bad", func(context.Context, Inputs) (any, error) {
		return nil, errors.New("nope")
	}))

	_, err := e.Evaluate(context.Background(), "bad")
	var evalErr *EvaluationError
	require.ErrorAs(t, err, &evalErr)
	require.Equal(t, "bad", evalErr.Node)

	_, err = e.Evaluate(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNodeNotFound)
}

func TestOpen_Defaults(t *testing.T) {
	t.Setenv("LAZYFLOW_CACHE_DIR", filepath.Join(t.TempDir(), "cache"))
	var logs bytes.Buffer

	app, err := Open("", WithLogOutput(&logs))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	require.Equal(t, os.Getenv("LAZYFLOW_CACHE_DIR"), app.Cache().Dir())
	require.Zero(t, app.Config.DefaultTTL)

	require.NoError(t, app.Register("x", constant("y")))
	require.NoError(t, app.InvalidateCache(context.Background(), "x"))
	require.Contains(t, logs.String(), "cache invalidated")
}

func TestOpen_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lazyflow.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	app, err := Open(path,
		WithLogOutput(&bytes.Buffer{}),
		WithEngineOptions(WithCacheDir(filepath.Join(dir, "override")), WithName("configured")),
	)
	require.NoError(t, err)

	require.Equal(t, filepath.Join(dir, "override"), app.Cache().Dir())
	require.Regexp(t, "^configured-", app.ID())
	require.NoError(t, app.Close())

	_, err = app.Evaluate(context.Background(), "anything")
	require.ErrorIs(t, err, ErrEngineClosed)
}

func TestFromConfig_Invalid(t *testing.T) {
	t.Parallel()
	app, err := Open(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	require.Nil(t, app)

	cfg := Config{DefaultTTL: -time.Second}
	_, err = FromConfig(cfg)
	require.ErrorContains(t, err, "default_ttl")
}
