// Package thread owns the run loop: one thread binds an agent to a
// conversation history and processes inputs as tracked runs, including
// tool round-trips and the follow-up model call that folds tool results
// into an answer.
package thread
