// Package memory holds conversation history and cross-agent shared state.
// The Conversation interface is the contract threads depend on; Buffer is
// the process-local implementation. Swap in a persistent backend at wiring
// time if history must survive the process.
package memory
