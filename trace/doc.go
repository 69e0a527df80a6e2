// Package trace records the observable history of agent executions as an
// append-only stream of immutable events. Events carry parent links, so a
// tool invocation can be traced back through its dispatch to the run that
// triggered it.
//
// Parent relationships are managed by Recorders: each execution context
// (a run loop, a tool batch, a workflow step) owns its own recorder with
// its own scope stack, so concurrent flows never corrupt each other's
// nesting.
package trace
