package signalgraph

import (
	"errors"
	"fmt"
)

// Distinguished errors. All four are ordinary sentinel values usable with
// [errors.Is]; user code may wrap them with [fmt.Errorf] and "%w" and the
// wrapping survives unchanged through the graph, per the core spec's
// "custom error types from user code propagate unchanged" rule.
var (
	// Closed is the ordinary end-of-stream error. Delivered as a Failure
	// value like any other; it is not special-cased by the dispatch loop.
	Closed = errors.New("signalgraph: closed")

	// Inactive is returned from Send when a channel has no active sink
	// downstream (phase Disabled). Never delivered in-band.
	Inactive = errors.New("signalgraph: inactive")

	// Duplicate is delivered through a synthetic pre-closed signal to a
	// second subscriber attempting to attach to a single-output channel.
	Duplicate = errors.New("signalgraph: duplicate subscriber")

	// Cancelled is returned from Send when the (predecessor, activation
	// counter) pair attached to the send is stale, and delivered to any
	// input whose channel has been torn down or superseded.
	Cancelled = errors.New("signalgraph: cancelled")

	// ErrLoop is returned from Join when attaching the given input would
	// create a cycle in the predecessor graph.
	ErrLoop = errors.New("signalgraph: would create a loop")
)

// WrapError wraps err with a message, preserving it as the unwrap target
// for errors.Is/errors.As.
func WrapError(message string, err error) error {
	return fmt.Errorf("%s: %w", message, err)
}

// Result is the sum type Success(T) | Failure(error) used throughout the
// engine for values flowing through the graph. The zero Result is neither
// success nor failure and must not be constructed directly; use
// [Success] or [Failure].
type Result[T any] struct {
	value     T
	err       error
	isSuccess bool
}

// Success constructs a successful Result carrying v.
func Success[T any](v T) Result[T] {
	return Result[T]{value: v, isSuccess: true}
}

// Failure constructs a failed Result carrying err. Passing a nil err is a
// caller bug; it is treated as [Closed] to avoid panicking deep inside the
// dispatch loop.
func Failure[T any](err error) Result[T] {
	if err == nil {
		err = Closed
	}
	return Result[T]{err: err}
}

// IsSuccess reports whether r holds a value rather than an error.
func (r Result[T]) IsSuccess() bool { return r.isSuccess }

// Value returns the carried value and true, or the zero value and false
// if r is a Failure.
func (r Result[T]) Value() (T, bool) {
	return r.value, r.isSuccess
}

// Err returns the carried error, or nil if r is a Success.
func (r Result[T]) Err() error {
	if r.isSuccess {
		return nil
	}
	return r.err
}

// String implements fmt.Stringer for debugging/log output.
func (r Result[T]) String() string {
	if r.isSuccess {
		return fmt.Sprintf("Success(%v)", r.value)
	}
	return fmt.Sprintf("Failure(%v)", r.err)
}
