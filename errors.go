package runner

import (
	"fmt"
	"strings"
)

// DuplicateIdError is raised by the Store when two distinct definitions
// declare the same id.
type DuplicateIdError struct {
	ID string
}

func (e *DuplicateIdError) Error() string {
	return fmt.Sprintf("runner: duplicate id %q", e.ID)
}

// UnknownIdError is raised when a reference (dependency, hook target
// event, middleware or tag reference, emitEvent or getResourceValue by
// id) names an id absent from the registry. Missing override targets
// and unknown task ids have their own errors (OverrideTargetMissingError,
// UnknownTaskError).
type UnknownIdError struct {
	ID      string
	Context string
}

func (e *UnknownIdError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("runner: unknown id %q (%s)", e.ID, e.Context)
	}
	return fmt.Sprintf("runner: unknown id %q", e.ID)
}

// OverrideTargetMissingError is raised when a resource's overrides list
// names an id that was never registered.
type OverrideTargetMissingError struct {
	ID string
}

func (e *OverrideTargetMissingError) Error() string {
	return fmt.Sprintf("runner: override target %q is not registered", e.ID)
}

// CycleError is raised when the resource -> resource dependency subgraph
// contains a cycle. Path lists the full cycle, first id repeated last.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("runner: resource dependency cycle: %s", strings.Join(e.Path, " -> "))
}

// TagContractViolationError describes a tag's declared input/output
// contract structurally mismatching the definition it is attached to.
// The type is defined, but no kernel code path returns it.
type TagContractViolationError struct {
	TagID string
	DefID string
	Side  string // "input" or "output"
	Cause error
}

func (e *TagContractViolationError) Error() string {
	return fmt.Sprintf("runner: tag %q %s contract violated on %q: %v", e.TagID, e.Side, e.DefID, e.Cause)
}

func (e *TagContractViolationError) Unwrap() error { return e.Cause }

// MiddlewareContractViolationError is the middleware-declared analogue of
// TagContractViolationError, describing composed input/output contracts
// that disagree with a runtime value. The type is defined, but the
// middleware manager never returns it.
type MiddlewareContractViolationError struct {
	MiddlewareID string
	TaskID       string
	Side         string
	Cause        error
}

func (e *MiddlewareContractViolationError) Error() string {
	return fmt.Sprintf("runner: middleware %q %s contract violated on %q: %v", e.MiddlewareID, e.Side, e.TaskID, e.Cause)
}

func (e *MiddlewareContractViolationError) Unwrap() error { return e.Cause }

// TunnelOwnershipConflictError is raised when more than one tunnel
// resource selects the same task.
type TunnelOwnershipConflictError struct {
	TaskID    string
	TunnelIDs []string
}

func (e *TunnelOwnershipConflictError) Error() string {
	return fmt.Sprintf("runner: task %q is claimed by multiple tunnels: %s", e.TaskID, strings.Join(e.TunnelIDs, ", "))
}

// JournalKeyInUseError is raised by Journal.Set when a key already holds
// a value and override was not requested.
type JournalKeyInUseError struct {
	Key string
}

func (e *JournalKeyInUseError) Error() string {
	return fmt.Sprintf("runner: journal key %q already set", e.Key)
}

// EventCycleError is raised by the event manager's runtime cycle detector
// when a hook re-emits an event already on the current emission chain.
type EventCycleError struct {
	Path []string
}

func (e *EventCycleError) Error() string {
	return fmt.Sprintf("runner: event emission cycle: %s", strings.Join(e.Path, " -> "))
}

// EventProtocolConflictError is raised when an emission requests
// WithReturnPayload against an event registered with WithEventParallel
// (§4.4.6, invariant #6): the "returned payload" fold assumes an ordered
// sequential pass over hooks, which a parallel batch cannot provide.
type EventProtocolConflictError struct {
	EventID string
}

func (e *EventProtocolConflictError) Error() string {
	return fmt.Sprintf("runner: event %q is parallel and cannot be emitted with returnPayload", e.EventID)
}

// DisposalError wraps every error observed while disposing resources.
// Disposal never stops early on a single failure; all are collected here.
type DisposalError struct {
	Causes []error
}

func (e *DisposalError) Error() string {
	msgs := make([]string, len(e.Causes))
	for i, c := range e.Causes {
		msgs[i] = c.Error()
	}
	return fmt.Sprintf("runner: %d resource(s) failed to dispose: %s", len(e.Causes), strings.Join(msgs, "; "))
}

func (e *DisposalError) Unwrap() []error { return e.Causes }

// ValidationError wraps a schema rejection, recording which boundary
// raised it (input, result, config, payload, middleware config).
type ValidationError struct {
	Boundary string
	DefID    string
	Cause    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("runner: %s validation failed for %q: %v", e.Boundary, e.DefID, e.Cause)
}

func (e *ValidationError) Unwrap() error { return e.Cause }

// UnknownTaskError is raised by runTask when the given id/reference does
// not resolve to a registered task.
type UnknownTaskError struct {
	ID string
}

func (e *UnknownTaskError) Error() string {
	return fmt.Sprintf("runner: unknown task %q", e.ID)
}

// ContractViolationError describes the composed middleware/tag
// contracts for a task rejecting the runtime input or output shape. The
// type is defined, but the invoker does not check contracts and never
// returns it.
type ContractViolationError struct {
	TaskID string
	Side   string
	Cause  error
}

func (e *ContractViolationError) Error() string {
	return fmt.Sprintf("runner: contract violated on %q (%s): %v", e.TaskID, e.Side, e.Cause)
}

func (e *ContractViolationError) Unwrap() error { return e.Cause }

// ValidationResult accumulates every batched validation error found while
// checking the registered graph (validate in validator.go). It is itself
// an error, and AsErr turns an empty result into a nil error.
type ValidationResult struct {
	Errors []error
}

func (v *ValidationResult) Add(err error) {
	if err != nil {
		v.Errors = append(v.Errors, err)
	}
}

func (v *ValidationResult) HasErrors() bool { return len(v.Errors) > 0 }

func (v *ValidationResult) Error() string {
	msgs := make([]string, len(v.Errors))
	for i, e := range v.Errors {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("runner: %d validation error(s):\n  %s", len(v.Errors), strings.Join(msgs, "\n  "))
}

// AsErr returns nil if the result carries no errors, itself otherwise - a
// convenience for `return result.AsErr()` at the end of a validation pass.
func (v *ValidationResult) AsErr() error {
	if v.HasErrors() {
		return v
	}
	return nil
}
