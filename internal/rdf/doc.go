// Package rdf provides the RDF value types consumed by the SPARQL front end.
//
// This package contains value types only. The lexer, algebra and parser
// packages import rdf; rdf imports nothing internal.
//
// Key design constraints:
//   - Term and Node are comparable structs, safe to use as map keys
//   - Values are immutable once constructed
//   - Numeric literals compare by value, everything else by lexical form and type
package rdf
