// Package signalgraph implements a reactive dataflow engine: a library for
// composing directed graphs of typed, push-based asynchronous streams
// ("signals") with deterministic delivery, dynamic graph mutation,
// controllable activation semantics, and disciplined concurrency.
//
// # Architecture
//
// The graph is built from [Channel] values (the queue-bearing, mutex
// protected node state) paired with a handler (source, processor, or sink).
// Data flows from a source ([Input] or [Generator]) through zero or more
// processors ([Transform], [Combine2]..[Combine5], the multi-output
// variants, [Capture], [Junction], [MergeSet]) to one or more sinks
// ([Endpoint]).
//
// # Thread safety
//
// Every exported type in this package is safe for concurrent use. No
// user-supplied closure is ever invoked while an internal mutex is held;
// see [deferredWork] for the mechanism that enforces this.
//
// # Execution contexts
//
// Handler invocation happens inside a user-supplied [ExecutionContext].
// This package only consumes that interface — it never runs an event loop
// itself. Package contexts provides small reference implementations
// (immediate, serial, async) sized for tests and simple programs.
//
// # Errors
//
// [Closed], [Inactive], [Duplicate], and [Cancelled] are the distinguished
// stream-terminating/operational errors described by the core spec; see
// their doc comments for delivery semantics.
package signalgraph
