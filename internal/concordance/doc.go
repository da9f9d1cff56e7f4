// Package concordance builds the allocation matrix of a code correspondence
// table.
//
// Each Entry says that a fraction Share of an old code's value goes to a new
// code. Build turns the entries into a Matrix with one row per new code and
// one column per old code, both sorted. A repeated (old, new) pair keeps the
// last share and is reported by Duplicates. Every column must sum to 1
// within the configured tolerance.
//
//	entries, err := concordance.EntriesFromTable(table, concordance.DefaultColumns(), 8)
//	m, err := concordance.Build(entries, concordance.WithTolerance(1e-6))
//
// Flags marks the new codes that receive any fractional share.
package concordance
