// Package rewrite holds the translation rules the parser applies while it
// builds algebra: join reduction and BGP coalescing, blank node reuse
// checks, aggregate and window extraction, and property path
// simplification.
//
// Every rule is a pure function of its inputs (Extractor keeps only its
// own counters), so each can be tested without a parser.
package rewrite
