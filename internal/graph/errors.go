package graph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/avi3tal/lazyflow/pkg/types"
)

var (
	// ErrInvalidNode is returned when a node fails validation
	ErrInvalidNode = errors.New("invalid node")

	// ErrDuplicateNode is returned when adding a node that already exists
	ErrDuplicateNode = errors.New("node with this ID already exists")

	// ErrNodeNotFound is returned when referencing a non-existent node
	ErrNodeNotFound = errors.New("node not found")

	// ErrUnknownDependency is returned when a dependency id is not registered
	ErrUnknownDependency = errors.New("unknown dependency")

	// ErrCyclicDependency is returned when a cycle is detected in the graph
	ErrCyclicDependency = errors.New("cyclic dependency detected")

	// ErrNotEvaluated is returned when reading the result of a node without one
	ErrNotEvaluated = errors.New("node has not been evaluated")

	// ErrInvalidTransition is returned when a node state change is not allowed
	ErrInvalidTransition = errors.New("invalid state transition")
)

// DuplicateNodeError reports a second registration of the same node id.
type DuplicateNodeError struct {
	Node string
}

func (e *DuplicateNodeError) Error() string {
	return fmt.Sprintf("node '%s': %v", e.Node, ErrDuplicateNode)
}

func (e *DuplicateNodeError) Unwrap() error {
	return ErrDuplicateNode
}

// NodeNotFoundError reports a lookup of an unregistered node id.
type NodeNotFoundError struct {
	Node string
}

func (e *NodeNotFoundError) Error() string {
	return fmt.Sprintf("node '%s': %v", e.Node, ErrNodeNotFound)
}

func (e *NodeNotFoundError) Unwrap() error {
	return ErrNodeNotFound
}

// UnknownDependencyError reports a dependency id that is not present in the graph.
type UnknownDependencyError struct {
	// Node is the node declaring the dependency
	Node string
	// Dependency is the missing id
	Dependency string
}

func (e *UnknownDependencyError) Error() string {
	return fmt.Sprintf("node '%s' depends on '%s': %v", e.Node, e.Dependency, ErrUnknownDependency)
}

func (e *UnknownDependencyError) Unwrap() error {
	return ErrUnknownDependency
}

// CycleError carries the closed path of a dependency cycle, e.g. [A B C A].
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	if len(e.Path) == 0 {
		return ErrCyclicDependency.Error()
	}
	return fmt.Sprintf("%v: %s", ErrCyclicDependency, strings.Join(e.Path, " -> "))
}

func (e *CycleError) Unwrap() error {
	return ErrCyclicDependency
}

// NotEvaluatedError is returned by Node.Result when no result is available.
type NotEvaluatedError struct {
	Node  string
	State types.NodeState
}

func (e *NotEvaluatedError) Error() string {
	return fmt.Sprintf("node '%s' (state: %s): %v", e.Node, e.State, ErrNotEvaluated)
}

func (e *NotEvaluatedError) Unwrap() error {
	return ErrNotEvaluated
}

// TransitionError reports a disallowed lifecycle change.
type TransitionError struct {
	Node string
	From types.NodeState
	To   types.NodeState
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("node '%s': %v: %s -> %s", e.Node, ErrInvalidTransition, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

func invalidNodef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidNode, fmt.Sprintf(format, args...))
}
