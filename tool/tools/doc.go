// Package tools provides the built-in tools agents can be equipped with:
// a calculator, a clock and inter-agent messaging. Built-ins follow the
// same Tool contract as user-defined tools and carry no special wiring
// beyond the capabilities injected at construction.
package tools
