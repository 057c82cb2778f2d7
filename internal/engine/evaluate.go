package engine

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/avi3tal/lazyflow/internal/graph"
	"github.com/avi3tal/lazyflow/internal/tracing"
	"github.com/avi3tal/lazyflow/pkg/types"
)

// pass memoizes results within one Evaluate or EvaluateAll call, so a node
// shared by several dependents runs at most once even when uncacheable.
type pass struct {
	results map[string]any
}

func newPass() *pass {
	return &pass{results: make(map[string]any)}
}

// Evaluate returns the result of id, evaluating its dependencies first.
//
// Structural problems (unknown node, unknown dependency, cycle) are reported
// before any compute function runs. A compute failure is returned as an
// *EvaluationError and leaves the node failed until it is forced or
// invalidated.
func (e *Engine) Evaluate(ctx context.Context, id string, opts ...EvaluateOption) (any, error) {
	var cfg evaluateConfig
	for _, o := range opts {
		o(&cfg)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, ErrEngineClosed
	}

	ctx, span := e.tracer.Start(ctx, tracing.SpanEvaluate, trace.WithAttributes(
		attribute.String(tracing.AttrEngineID, e.id),
		attribute.String(tracing.AttrNodeID, id),
		attribute.Bool(tracing.AttrForce, cfg.force),
	))
	defer span.End()

	if err := e.graph.Validate(id); err != nil {
		e.logger.Error("evaluation rejected", "node", id, "err", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	v, err := e.evaluateNode(ctx, newPass(), id, cfg.force)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return v, nil
}

// EvaluateAll evaluates every node in topological order and returns all
// results. It stops at the first error and then returns no results.
func (e *Engine) EvaluateAll(ctx context.Context) (map[string]any, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, ErrEngineClosed
	}

	ctx, span := e.tracer.Start(ctx, tracing.SpanEvaluateAll, trace.WithAttributes(
		attribute.String(tracing.AttrEngineID, e.id),
	))
	defer span.End()

	order, err := e.graph.TopologicalSort()
	if err != nil {
		e.logger.Error("evaluation rejected", "err", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	p := newPass()
	for _, id := range order {
		if _, err := e.evaluateNode(ctx, p, id, false); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
	}

	results := make(map[string]any, len(p.results))
	for id, v := range p.results {
		results[id] = v
	}
	return results, nil
}

// evaluateNode resolves one node. The subgraph of id must already be validated.
func (e *Engine) evaluateNode(ctx context.Context, p *pass, id string, force bool) (any, error) {
	if v, ok := p.results[id]; ok {
		return v, nil
	}

	n, _ := e.graph.Node(id)
	deps := n.Dependencies()

	ctx, span := e.tracer.Start(ctx, tracing.SpanNode, trace.WithAttributes(
		attribute.String(tracing.AttrNodeID, id),
		attribute.StringSlice(tracing.AttrNodeDependencies, deps),
	))
	defer func() {
		span.SetAttributes(attribute.String(tracing.AttrNodeState, n.State().String()))
		span.End()
	}()

	start := e.now()

	if !force {
		if n.State() == types.StateFailed {
			err := n.Err()
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		if n.IsCacheValid() {
			v, _ := n.Result()
			_ = n.MarkCached(nil, time.Time{})
			return e.served(p, n, span, start, v)
		}
	}

	inputs := make(types.Inputs, len(deps))
	for _, dep := range deps {
		v, err := e.evaluateNode(ctx, p, dep, false)
		if err != nil {
			// any prior result here is stale or forced out, so it is not kept
			n.Reset()
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		inputs[dep] = v
	}

	if err := ctx.Err(); err != nil {
		n.Reset()
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	fp := fingerprint(n, inputs)
	n.Reset()

	if !force && n.Cacheable() {
		if entry, ok := e.cache.Get(ctx, id, fp, n.CacheTTL()); ok {
			_ = n.MarkCached(entry.Value, entry.StoredAt)
			return e.served(p, n, span, start, entry.Value)
		}
	}

	return e.compute(ctx, p, n, span, start, inputs, fp)
}

// served records a result reused without running the compute function
func (e *Engine) served(p *pass, n *graph.Node, span trace.Span, start time.Time, v any) (any, error) {
	span.SetAttributes(attribute.Bool(tracing.AttrCacheHit, true))
	e.record(n, start, true, nil)
	e.logger.Debug("node served from cache", "node", n.ID())

	p.results[n.ID()] = v
	return v, nil
}

func (e *Engine) compute(
	ctx context.Context,
	p *pass,
	n *graph.Node,
	span trace.Span,
	start time.Time,
	inputs types.Inputs,
	fp string,
) (any, error) {
	id := n.ID()
	span.SetAttributes(attribute.Bool(tracing.AttrCacheHit, false))

	if err := n.MarkEvaluating(); err != nil {
		return nil, err
	}

	v, err := runCompute(ctx, n.Compute(), inputs)
	if err != nil {
		evalErr := &EvaluationError{Node: id, Err: err}
		_ = n.Fail(evalErr)
		e.record(n, start, false, evalErr)

		e.logger.Error("node evaluation failed", "node", id, "err", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, evalErr.Error())
		return nil, evalErr
	}

	if err := n.SetResult(v); err != nil {
		return nil, err
	}
	if n.Cacheable() {
		if err := e.cache.Set(ctx, id, fp, v, n.CacheTTL()); err != nil {
			e.logger.Debug("result kept in memory only", "node", id)
		}
	}
	e.record(n, start, false, nil)
	e.logger.Debug("node evaluated", "node", id, "fingerprint", fp)

	p.results[id] = v
	return v, nil
}

// runCompute invokes fn, turning a panic into an error
func runCompute(ctx context.Context, fn types.ComputeFunc, in types.Inputs) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, &panicError{value: r}
		}
	}()
	return fn(ctx, in)
}
