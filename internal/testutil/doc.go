// Package testutil contains helper builders used across tests to reduce
// boilerplate when constructing tools and scripted behaviors. These
// helpers are intentionally minimal and not intended for production use.
package testutil
