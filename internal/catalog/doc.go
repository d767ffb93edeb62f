// Package catalog is a durable cache of compiled queries.
//
// Entries live in a SQLite database keyed by the query fingerprint from
// package encoding, so adding the same query twice (in any surface
// syntax) returns the existing entry. Each entry keeps the original
// text, the canonical document and the S-expression algebra.
//
// Ordering is deterministic: List returns entries by insertion sequence,
// ties broken by ID.
package catalog
