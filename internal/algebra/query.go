package algebra

import (
	"fmt"
	"slices"

	"github.com/roach88/sparqlsyntax/internal/rdf"
)

// Form is the result form of a query.
//
// This is a sealed interface: Select, Ask, Construct or Describe.
type Form interface {
	formNode()
}

// Select projects solutions. Star selects every in-scope variable.
type Select struct {
	Star      bool
	Variables []string
}

// Ask reports whether any solution exists.
type Ask struct{}

// Construct instantiates Template for every solution.
type Construct struct {
	Template []rdf.TriplePattern
}

// Describe describes Nodes, or every in-scope variable when Star is set.
type Describe struct {
	Star  bool
	Nodes []rdf.Node
}

func (Select) formNode()    {}
func (Ask) formNode()       {}
func (Construct) formNode() {}
func (Describe) formNode()  {}

// FormName returns the lower-case keyword of a query form.
func FormName(f Form) string {
	switch f.(type) {
	case Select:
		return "select"
	case Ask:
		return "ask"
	case Construct:
		return "construct"
	case Describe:
		return "describe"
	}
	return ""
}

// Dataset lists the FROM and FROM NAMED graph IRIs.
type Dataset struct {
	Default []string
	Named   []string
}

// IsEmpty reports whether the dataset names no graphs.
func (d *Dataset) IsEmpty() bool {
	return d == nil || (len(d.Default) == 0 && len(d.Named) == 0)
}

// Query is a complete, validated query.
type Query struct {
	Form    Form
	Algebra Algebra
	Dataset *Dataset
	Base    string
}

// ValidationError reports a query that is well formed but not legal.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewQuery builds a query and checks projection legality.
//
// A SELECT * over an aggregating body is rejected. A SELECT with explicit
// variables over an aggregating body may only project group keys and
// names bound above the aggregation. Duplicate projected variables are
// removed, keeping the first occurrence.
func NewQuery(form Form, body Algebra, dataset *Dataset, base string) (*Query, error) {
	if dataset.IsEmpty() {
		dataset = nil
	}
	if sel, ok := form.(Select); ok {
		if IsAggregation(body) {
			if sel.Star {
				return nil, &ValidationError{Message: "aggregation queries cannot use SELECT *"}
			}
			projectable := ProjectableVariables(body)
			for _, v := range sel.Variables {
				if !slices.Contains(projectable, v) {
					return nil, &ValidationError{
						Message: fmt.Sprintf("cannot project non-grouped variable ?%s in aggregation query", v),
					}
				}
			}
		}
		sel.Variables = dedupe(sel.Variables)
		form = sel
	}
	return &Query{Form: form, Algebra: body, Dataset: dataset, Base: base}, nil
}

func dedupe(vars []string) []string {
	if vars == nil {
		return nil
	}
	seen := make(map[string]bool, len(vars))
	out := make([]string, 0, len(vars))
	for _, v := range vars {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// ProjectedVariables returns the variables a query produces, in order.
// For SELECT * and DESCRIBE * these are the body's in-scope variables.
func (q *Query) ProjectedVariables() []string {
	switch f := q.Form.(type) {
	case Select:
		if f.Star {
			return InScope(q.Algebra)
		}
		return slices.Clone(f.Variables)
	case Describe:
		if f.Star {
			return InScope(q.Algebra)
		}
		var out []string
		for _, n := range f.Nodes {
			if n.IsVariable() {
				out = append(out, n.Name())
			}
		}
		return out
	}
	return nil
}
