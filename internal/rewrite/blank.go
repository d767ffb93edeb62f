package rewrite

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/roach88/sparqlsyntax/internal/algebra"
	"github.com/roach88/sparqlsyntax/internal/rdf"
)

// BlankReuseError reports a blank node label used in more than one block
// of a group graph pattern.
type BlankReuseError struct {
	Label string
}

func (e *BlankReuseError) Error() string {
	return fmt.Sprintf("blank node label _:%s used in more than one block", e.Label)
}

// CheckBlankNodeReuse verifies that no blank node label appears in two
// blocks. A block is the fragments of one triples block (adjacent BGP and
// path fragments share a block) or a single other element of the group.
// The labels of every block are returned for checks at the enclosing
// level.
func CheckBlankNodeReuse(blocks [][]algebra.Algebra) (map[string]bool, error) {
	seen := map[string]bool{}
	for _, block := range blocks {
		labels := map[string]bool{}
		for _, f := range block {
			maps.Copy(labels, BlankLabels(f))
		}
		for _, l := range slices.Sorted(maps.Keys(labels)) {
			if seen[l] {
				return nil, &BlankReuseError{Label: l}
			}
		}
		maps.Copy(seen, labels)
	}
	return seen, nil
}

// BlankLabels returns the blank node labels used by patterns in a,
// including those already turned into non-binding variables and those
// inside EXISTS patterns.
func BlankLabels(a algebra.Algebra) map[string]bool {
	labels := map[string]bool{}
	collect := func(n rdf.Node) (rdf.Node, bool) {
		if t, ok := n.Term(); ok && t.IsBlank() {
			labels[t.Value] = true
		} else if label, ok := strings.CutPrefix(n.Name(), algebra.BlankVariablePrefix); ok && !n.Binds() {
			labels[label] = true
		}
		return n, false
	}
	algebra.ReplaceNodes(a, collect)
	return labels
}

// BlankNodesToVariables replaces every blank node term in a with a
// non-binding variable, so blank nodes act as scoped existential
// variables.
func BlankNodesToVariables(a algebra.Algebra) algebra.Algebra {
	return algebra.ReplaceNodes(a, blankToVariable)
}

// blankToVariable maps a blank node term to its stand-in variable.
func blankToVariable(n rdf.Node) (rdf.Node, bool) {
	t, ok := n.Term()
	if !ok || !t.IsBlank() {
		return n, false
	}
	return rdf.HiddenVar(algebra.BlankVariablePrefix + t.Value), true
}
