// Package encoding produces deterministic JSON documents for compiled
// queries and content-addressed fingerprints over them.
//
// Documents are built from a closed set of value types (no floats, no
// null) and serialized as RFC 8785 canonical JSON: object keys sorted by
// UTF-16 code units, strings NFC normalized, no HTML escaping. Two
// queries that compile to the same algebra, form, base and dataset have
// the same fingerprint regardless of how their text was written.
package encoding
