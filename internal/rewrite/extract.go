package rewrite

import (
	"reflect"
	"strconv"

	"github.com/roach88/sparqlsyntax/internal/algebra"
)

// Fresh variable prefixes. A leading dot cannot start a user variable.
const (
	AggregatePrefix = ".agg-"
	WindowPrefix    = ".window-"
)

// IsFreshVariable reports whether name was minted by an Extractor.
func IsFreshVariable(name string) bool {
	return len(name) > 0 && name[0] == '.'
}

// Extractor hoists aggregate and window calls out of expressions.
//
// Each distinct aggregation gets a fresh variable named from a counter
// (.agg-1, .agg-2, ...) in first-occurrence order; repeating an identical
// aggregation reuses its variable. Window applications are numbered
// separately (.window-1, ...). Aggregates nested inside a window's
// partition, order or frame expressions are hoisted as aggregates.
type Extractor struct {
	Aggregations []algebra.AggregationMapping
	Windows      []algebra.WindowMapping

	aggCount    int
	windowCount int
}

// Extract returns e with every aggregate and window call replaced by a
// reference to its fresh variable.
func (x *Extractor) Extract(e algebra.Expression) (algebra.Expression, error) {
	return algebra.ReplaceExpression(e, func(e algebra.Expression) (algebra.Expression, bool, error) {
		switch e := e.(type) {
		case algebra.AggregateExpr:
			return algebra.Var(x.aggregation(e.Aggregation)), true, nil
		case algebra.WindowExpr:
			app, err := x.hoistInsideWindow(e.Application)
			if err != nil {
				return nil, false, err
			}
			return algebra.Var(x.window(app)), true, nil
		case algebra.Exists:
			// EXISTS patterns have their own scope
			return e, true, nil
		}
		return nil, false, nil
	})
}

// HasAggregations reports whether any aggregation has been extracted.
func (x *Extractor) HasAggregations() bool {
	return len(x.Aggregations) > 0
}

// HasWindows reports whether any window application has been extracted.
func (x *Extractor) HasWindows() bool {
	return len(x.Windows) > 0
}

// AggregationFor returns the aggregation mapped to variable.
func (x *Extractor) AggregationFor(variable string) (algebra.Aggregation, bool) {
	for _, m := range x.Aggregations {
		if m.Variable == variable {
			return m.Aggregation, true
		}
	}
	return algebra.Aggregation{}, false
}

// RenameWindow retargets the window mapped to from so that it binds to
// instead. It reports false when from is not a window variable.
func (x *Extractor) RenameWindow(from, to string) bool {
	for i, m := range x.Windows {
		if m.Variable == from {
			x.Windows[i].Variable = to
			return true
		}
	}
	return false
}

func (x *Extractor) aggregation(a algebra.Aggregation) string {
	for _, m := range x.Aggregations {
		if reflect.DeepEqual(m.Aggregation, a) {
			return m.Variable
		}
	}
	x.aggCount++
	name := AggregatePrefix + strconv.Itoa(x.aggCount)
	x.Aggregations = append(x.Aggregations, algebra.AggregationMapping{Aggregation: a, Variable: name})
	return name
}

func (x *Extractor) window(w algebra.WindowApplication) string {
	x.windowCount++
	name := WindowPrefix + strconv.Itoa(x.windowCount)
	x.Windows = append(x.Windows, algebra.WindowMapping{Application: w, Variable: name})
	return name
}

// hoistInsideWindow extracts aggregates from the expressions that shape a
// window, leaving the window function itself in place.
func (x *Extractor) hoistInsideWindow(w algebra.WindowApplication) (algebra.WindowApplication, error) {
	var err error
	hoist := func(e algebra.Expression) algebra.Expression {
		if e == nil || err != nil {
			return e
		}
		var out algebra.Expression
		out, err = x.Extract(e)
		return out
	}
	out := w
	out.Partition = make([]algebra.Expression, len(w.Partition))
	for i, e := range w.Partition {
		out.Partition[i] = hoist(e)
	}
	out.Order = make([]algebra.Comparator, len(w.Order))
	for i, c := range w.Order {
		out.Order[i] = algebra.Comparator{Ascending: c.Ascending, Expr: hoist(c.Expr)}
	}
	out.Frame.From.Expr = hoist(w.Frame.From.Expr)
	out.Frame.To.Expr = hoist(w.Frame.To.Expr)
	if w.Partition == nil {
		out.Partition = nil
	}
	if w.Order == nil {
		out.Order = nil
	}
	return out, err
}
