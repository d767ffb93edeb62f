package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sparqlsyntax/internal/algebra"
)

func sum(v string) algebra.AggregateExpr {
	return algebra.AggregateExpr{Aggregation: algebra.Aggregation{Kind: algebra.Sum, Expr: algebra.Var(v)}}
}

func TestExtractor_NumbersAndReuses(t *testing.T) {
	var x Extractor

	first, err := x.Extract(algebra.Binary{Op: algebra.OpAdd, Left: sum("a"), Right: sum("b")})
	require.NoError(t, err)
	again, err := x.Extract(sum("a"))
	require.NoError(t, err)

	assert.Equal(t, algebra.Binary{Op: algebra.OpAdd, Left: algebra.Var(".agg-1"), Right: algebra.Var(".agg-2")}, first)
	assert.Equal(t, algebra.Var(".agg-1"), again)
	assert.Len(t, x.Aggregations, 2)
	assert.True(t, x.HasAggregations())
	assert.False(t, x.HasWindows())

	agg, ok := x.AggregationFor(".agg-2")
	require.True(t, ok)
	assert.Equal(t, algebra.Var("b"), agg.Expr)
}

func TestExtractor_DistinctIsADifferentAggregation(t *testing.T) {
	var x Extractor
	distinct := sum("a")
	distinct.Aggregation.Distinct = true

	_, err := x.Extract(sum("a"))
	require.NoError(t, err)
	got, err := x.Extract(distinct)
	require.NoError(t, err)

	assert.Equal(t, algebra.Var(".agg-2"), got)
}

func TestExtractor_Windows(t *testing.T) {
	var x Extractor
	win := algebra.WindowExpr{Application: algebra.WindowApplication{
		Function:  algebra.WindowFunction{Kind: algebra.RowNumber},
		Partition: []algebra.Expression{sum("a")},
		Frame:     algebra.DefaultFrame(),
	}}

	got, err := x.Extract(win)
	require.NoError(t, err)
	assert.Equal(t, algebra.Var(".window-1"), got)

	require.Len(t, x.Windows, 1)
	assert.Equal(t, []algebra.Expression{algebra.Var(".agg-1")}, x.Windows[0].Application.Partition)
	assert.Nil(t, x.Windows[0].Application.Order)
	assert.True(t, x.HasAggregations())

	assert.True(t, x.RenameWindow(".window-1", "rank"))
	assert.Equal(t, "rank", x.Windows[0].Variable)
	assert.False(t, x.RenameWindow(".window-9", "other"))
}

func TestExtractor_LeavesExistsAlone(t *testing.T) {
	var x Extractor
	exists := algebra.Exists{Pattern: algebra.Filter{Child: triple(s, p, o), Condition: sum("o")}}

	got, err := x.Extract(exists)
	require.NoError(t, err)
	assert.Equal(t, exists, got)
	assert.False(t, x.HasAggregations())
}

func TestIsFreshVariable(t *testing.T) {
	assert.True(t, IsFreshVariable(".agg-1"))
	assert.True(t, IsFreshVariable(".window-2"))
	assert.False(t, IsFreshVariable("agg"))
	assert.False(t, IsFreshVariable(""))
}
