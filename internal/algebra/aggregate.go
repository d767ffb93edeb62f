package algebra

// AggregationKind identifies an aggregate function.
type AggregationKind int

const (
	CountAll AggregationKind = iota
	Count
	Sum
	Avg
	Min
	Max
	Sample
	GroupConcat
)

var aggregationNames = [...]string{
	CountAll:    "COUNT",
	Count:       "COUNT",
	Sum:         "SUM",
	Avg:         "AVG",
	Min:         "MIN",
	Max:         "MAX",
	Sample:      "SAMPLE",
	GroupConcat: "GROUP_CONCAT",
}

// Keyword returns the SPARQL keyword for the aggregate.
func (k AggregationKind) Keyword() string { return aggregationNames[k] }

// AggregationKindFor maps an uppercase aggregate keyword to its kind.
// COUNT maps to Count; COUNT(*) is recognized by the parser.
func AggregationKindFor(keyword string) (AggregationKind, bool) {
	for k, name := range aggregationNames {
		if AggregationKind(k) != CountAll && name == keyword {
			return AggregationKind(k), true
		}
	}
	return 0, false
}

// DefaultSeparator is the GROUP_CONCAT separator when none is given.
const DefaultSeparator = " "

// Aggregation is a single aggregate call. Expr is nil for CountAll.
type Aggregation struct {
	Kind      AggregationKind
	Expr      Expression
	Distinct  bool
	Separator string
}

// AggregationMapping binds the result of an aggregation to a variable.
type AggregationMapping struct {
	Aggregation Aggregation
	Variable    string
}

// Comparator is one ORDER BY key.
type Comparator struct {
	Ascending bool
	Expr      Expression
}

// WindowFunctionKind identifies a window function.
type WindowFunctionKind int

const (
	RowNumber WindowFunctionKind = iota
	Rank
	DenseRank
	Ntile
	WindowAggregation
	CustomWindow
)

// WindowFunction is the function part of a window application.
//
// N is the bucket count for Ntile. Aggregation is set for aggregates
// applied over a window. IRI and Args describe a custom function.
type WindowFunction struct {
	Kind        WindowFunctionKind
	N           int64
	Aggregation *Aggregation
	IRI         string
	Args        []Expression
}

// FrameType selects ROWS or RANGE framing.
type FrameType int

const (
	FrameRows FrameType = iota
	FrameRange
)

// FrameBoundKind identifies one edge of a window frame.
type FrameBoundKind int

const (
	Unbounded FrameBoundKind = iota
	CurrentRow
	Preceding
	Following
)

// FrameBound is one edge of a window frame. Expr is set for Preceding and
// Following.
type FrameBound struct {
	Kind FrameBoundKind
	Expr Expression
}

// WindowFrame is the frame a window function is evaluated over.
type WindowFrame struct {
	Type FrameType
	From FrameBound
	To   FrameBound
}

// DefaultFrame is the frame used when a window has no explicit frame:
// unbounded on both ends.
func DefaultFrame() WindowFrame {
	return WindowFrame{Type: FrameRows, From: FrameBound{Kind: Unbounded}, To: FrameBound{Kind: Unbounded}}
}

// IsDefault reports whether f is the unbounded ROWS frame.
func (f WindowFrame) IsDefault() bool {
	return f.Type == FrameRows && f.From.Kind == Unbounded && f.To.Kind == Unbounded
}

// WindowApplication is a window function with its OVER clause.
type WindowApplication struct {
	Function  WindowFunction
	Partition []Expression
	Order     []Comparator
	Frame     WindowFrame
}

// WindowMapping binds the result of a window application to a variable.
type WindowMapping struct {
	Application WindowApplication
	Variable    string
}
