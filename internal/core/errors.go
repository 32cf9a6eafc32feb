package core

import (
	"errors"
	"fmt"
)

// ErrNotFound wraps lookups of unknown branches, commits, objects, and
// merge/rollback IDs.
var ErrNotFound = errors.New("not found")

// NotFoundError reports an unknown entity reference
func NotFoundError(kind, ref string) error {
	return fmt.Errorf("%s %q: %w", kind, ref, ErrNotFound)
}

// UnresolvedConflictError is returned when a merge cannot proceed because
// conflicts remain unresolved (ABORT_ON_CONFLICT, or finalizing before all
// conflicts are resolved).
type UnresolvedConflictError struct {
	MergeID    string
	Unresolved int
}

func (e *UnresolvedConflictError) Error() string {
	return fmt.Sprintf("merge %s has %d unresolved conflicts", e.MergeID, e.Unresolved)
}

// CustomDefinitionSyntaxError is returned when a CUSTOM resolution fails the
// dry parse. Nothing is recorded when the parse fails.
type CustomDefinitionSyntaxError struct {
	ObjectID string
	Cause    error
}

func (e *CustomDefinitionSyntaxError) Error() string {
	return fmt.Sprintf("custom definition for %s rejected: %v", e.ObjectID, e.Cause)
}

func (e *CustomDefinitionSyntaxError) Unwrap() error {
	return e.Cause
}

// DependencyCycleError is returned when the induced dependency subgraph
// cannot be ordered topologically.
type DependencyCycleError struct {
	Cycle []string
}

func (e *DependencyCycleError) Error() string {
	return fmt.Sprintf("dependency cycle involving %v", e.Cycle)
}

// TransactionAbortedError is returned when execution or verification fails
// mid-pipeline. The enclosing transaction is fully rolled back, so nothing
// is partially applied.
type TransactionAbortedError struct {
	Stage string
	Cause error
}

func (e *TransactionAbortedError) Error() string {
	return fmt.Sprintf("rollback aborted at %s stage: %v", e.Stage, e.Cause)
}

func (e *TransactionAbortedError) Unwrap() error {
	return e.Cause
}

// ValidationBlockedError is returned when pre-flight findings block an
// execution and the caller did not (or cannot) override them.
type ValidationBlockedError struct {
	Findings int
}

func (e *ValidationBlockedError) Error() string {
	return fmt.Sprintf("rollback blocked by %d validation findings", e.Findings)
}
