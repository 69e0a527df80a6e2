// Package model defines the provider-agnostic gateway for invoking
// language models inside AgentSwarm.
//
// Core pieces:
//   - Request / Response: normalized shapes; every model answer is either
//     a plain message or a structured batch of tool calls
//   - Strategy: per-provider formatting, invocation and parsing, with a
//     closed set of known model variants and their token ceilings
//   - Registry: maps model-ID prefixes to strategies (longest match wins)
//   - Gateway: validates parameters before any network call, retries only
//     throttle failures with doubling delays, and normalizes inline
//     tool-protocol JSON into structured responses
//
// Providers (Anthropic, OpenAI) implement Strategy in sub-packages so
// higher layers remain decoupled from vendor SDKs. MockStrategy backs
// tests and examples.
package model
