// Package harness runs syntax conformance manifests against the parser.
//
// A manifest is a YAML file listing positive and negative syntax cases.
// A positive case must parse; it may also pin the projected variables or
// the S-expression algebra. A negative case must fail, optionally with a
// specific error code from package lexer or parser.
//
// Runs are deterministic: cases execute in manifest order against a fresh
// parser each, and the report summary is stable enough to snapshot with
// goldie (see RunWithGolden).
package harness
