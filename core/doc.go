// Package core provides the foundational domain types shared across
// AgentSwarm. It defines:
//
//   - Messages (conversation entries with roles and metadata)
//   - ToolCalls / ToolOutputs (structured tool requests and their results)
//   - Runs (lifecycle records with a guarded state machine)
//   - CallLimiter (per-run model invocation budgets)
//
// The package intentionally has no knowledge of providers, threads or the
// event trace; higher layers compose these types without core importing
// them back.
package core
