package engine

import (
	"errors"
	"fmt"
)

// ErrEngineClosed is returned by every operation after Close
var ErrEngineClosed = errors.New("engine is closed")

// EvaluationError reports a compute function failure. Err is the original error.
type EvaluationError struct {
	Node string
	Err  error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluation of node '%s' failed: %v", e.Node, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

// panicError carries a value recovered from a panicking compute function
type panicError struct {
	value any
}

func (p *panicError) Error() string {
	return fmt.Sprintf("panic: %v", p.value)
}
