// Package dialect is the Dialect Registry: immutable records describing the
// lexical conventions of a SQL flavor (identifier quoting, string quoting,
// parameter prefix, paging strategy, string concatenation, and LIKE
// escaping), plus the pure functions that apply those conventions to
// produce dialect-correct SQL fragments.
//
// Dialect records are process-scoped constants; callers never mutate a
// Dialect returned by Lookup.
package dialect
