package tracing

// TracerName is the instrumentation scope of engine spans.
const TracerName = "github.com/avi3tal/lazyflow"

// Span names.
const (
	SpanEvaluate    = "lazyflow.evaluate"
	SpanEvaluateAll = "lazyflow.evaluate_all"
	SpanNode        = "lazyflow.node"
)

// Span attribute keys.
const (
	AttrEngineID         = "engine.id"
	AttrNodeID           = "node.id"
	AttrNodeState        = "node.state"
	AttrNodeDependencies = "node.dependencies"
	AttrCacheHit         = "cache.hit"
	AttrForce            = "evaluate.force"
)
