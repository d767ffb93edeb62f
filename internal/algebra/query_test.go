package algebra

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sparqlsyntax/internal/rdf"
)

func grouped() Algebra {
	return Extend{
		Child: Aggregate{
			Child:        triple(x, p, y),
			Groups:       []Expression{Var("x")},
			Aggregations: []AggregationMapping{{Aggregation: Aggregation{Kind: Max, Expr: Var("y")}, Variable: ".agg-1"}},
		},
		Expr:     Var(".agg-1"),
		Variable: "top",
	}
}

func TestNewQuery(t *testing.T) {
	tests := []struct {
		name    string
		form    Form
		body    Algebra
		wantErr string
		want    Form
	}{
		{name: "star over aggregation", form: Select{Star: true}, body: grouped(), wantErr: "SELECT *"},
		{name: "non-grouped variable", form: Select{Variables: []string{"x", "y"}}, body: grouped(), wantErr: "non-grouped variable ?y"},
		{name: "group key and extension", form: Select{Variables: []string{"x", "top"}}, body: grouped(), want: Select{Variables: []string{"x", "top"}}},
		{name: "duplicates removed", form: Select{Variables: []string{"x", "y", "x"}}, body: triple(x, p, y), want: Select{Variables: []string{"x", "y"}}},
		{name: "ask untouched", form: Ask{}, body: grouped(), want: Ask{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := NewQuery(tt.form, tt.body, nil, "")
			if tt.wantErr != "" {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Contains(t, verr.Message, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, q.Form)
		})
	}
}

func TestNewQuery_EmptyDatasetIsNil(t *testing.T) {
	q, err := NewQuery(Ask{}, triple(x, p, y), &Dataset{}, "http://e/")
	require.NoError(t, err)
	assert.Nil(t, q.Dataset)
	assert.Equal(t, "http://e/", q.Base)
}

func TestProjectedVariables(t *testing.T) {
	body := triple(x, p, y)

	tests := []struct {
		name string
		form Form
		want []string
	}{
		{name: "select star", form: Select{Star: true}, want: []string{"x", "y"}},
		{name: "select list", form: Select{Variables: []string{"y"}}, want: []string{"y"}},
		{name: "describe nodes", form: Describe{Nodes: []rdf.Node{y, p}}, want: []string{"y"}},
		{name: "ask", form: Ask{}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &Query{Form: tt.form, Algebra: body}
			assert.Equal(t, tt.want, q.ProjectedVariables())
		})
	}
}
