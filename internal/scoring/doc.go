// Package scoring implements the deterministic compatibility engine.
//
// Raw survey answers are normalized against a question catalog, scored per
// category (intent, structure, connection, chemistry, lifestyle) with
// coverage tracking, and combined into an overall score and tier using
// weights renormalized over the included categories only.
//
// Everything in this package is pure: no I/O, no clocks, no shared mutable
// state. An Engine may be used concurrently by any number of goroutines.
package scoring
