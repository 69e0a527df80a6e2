// Package agent defines the configured unit of work in an agency: a named
// persona bound to a model family, an instruction source, generation
// parameters and a tool registry. Agents hold no conversation state;
// threads own history and runs.
package agent
