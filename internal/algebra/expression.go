package algebra

import (
	"github.com/roach88/sparqlsyntax/internal/rdf"
)

// Expression is a scalar SPARQL expression.
//
// This is a sealed interface. Variants:
//   - NodeExpr: a term or variable reference
//   - AggregateExpr, WindowExpr: nested aggregate or window calls
//   - Unary, Binary: operators and built-in predicates
//   - Cast: xsd datatype casts
//   - Call: built-in calls by keyword, extension functions by IRI
//   - In: IN and NOT IN
//   - Exists: EXISTS and NOT EXISTS over a graph pattern
type Expression interface {
	expressionNode()
}

// NodeExpr references a term or a variable.
type NodeExpr struct {
	Node rdf.Node
}

func (NodeExpr) expressionNode() {}

// Var returns an expression referencing the binding variable name.
func Var(name string) NodeExpr {
	return NodeExpr{Node: rdf.Var(name)}
}

// Const returns an expression holding the term t.
func Const(t rdf.Term) NodeExpr {
	return NodeExpr{Node: rdf.Bound(t)}
}

// AggregateExpr is an aggregate call appearing inside an expression.
type AggregateExpr struct {
	Aggregation Aggregation
}

func (AggregateExpr) expressionNode() {}

// WindowExpr is a window function call appearing inside an expression.
type WindowExpr struct {
	Application WindowApplication
}

func (WindowExpr) expressionNode() {}

// UnaryOp identifies a one-argument operator or built-in.
type UnaryOp int

const (
	OpNeg UnaryOp = iota
	OpNot
	OpBound
	OpIsIRI
	OpIsBlank
	OpIsLiteral
	OpIsNumeric
	OpLang
	OpDatatype
)

var unaryNames = [...]string{
	OpNeg:       "neg",
	OpNot:       "not",
	OpBound:     "bound",
	OpIsIRI:     "isiri",
	OpIsBlank:   "isblank",
	OpIsLiteral: "isliteral",
	OpIsNumeric: "isnumeric",
	OpLang:      "lang",
	OpDatatype:  "datatype",
}

func (op UnaryOp) String() string { return unaryNames[op] }

// Unary applies a one-argument operator.
type Unary struct {
	Op   UnaryOp
	Expr Expression
}

func (Unary) expressionNode() {}

// BinaryOp identifies a two-argument operator or built-in.
type BinaryOp int

const (
	OpOr BinaryOp = iota
	OpAnd
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpSameTerm
	OpLangMatches
)

var binaryNames = [...]string{
	OpOr:          "||",
	OpAnd:         "&&",
	OpEq:          "=",
	OpNe:          "!=",
	OpLt:          "<",
	OpLe:          "<=",
	OpGt:          ">",
	OpGe:          ">=",
	OpAdd:         "+",
	OpSub:         "-",
	OpMul:         "*",
	OpDiv:         "/",
	OpSameTerm:    "sameterm",
	OpLangMatches: "langmatches",
}

func (op BinaryOp) String() string { return binaryNames[op] }

// IsFunction reports whether op is written in call syntax.
func (op BinaryOp) IsFunction() bool {
	return op == OpSameTerm || op == OpLangMatches
}

// Binary applies a two-argument operator.
type Binary struct {
	Op    BinaryOp
	Left  Expression
	Right Expression
}

func (Binary) expressionNode() {}

// Cast converts its argument to an XSD datatype.
type Cast struct {
	Datatype string
	Expr     Expression
}

func (Cast) expressionNode() {}

// Call invokes a function. Function is either an uppercase built-in
// keyword (STR, REGEX, COALESCE, ...) or an extension function IRI.
type Call struct {
	Function string
	Args     []Expression
}

func (Call) expressionNode() {}

// In tests membership of Expr in List. Not selects NOT IN.
type In struct {
	Expr Expression
	List []Expression
	Not  bool
}

func (In) expressionNode() {}

// Exists tests whether Pattern has a solution. Not selects NOT EXISTS.
type Exists struct {
	Pattern Algebra
	Not     bool
}

func (Exists) expressionNode() {}

// And combines expressions with logical conjunction, left to right.
// It returns nil when given no expressions.
func And(exprs ...Expression) Expression {
	var out Expression
	for _, e := range exprs {
		if out == nil {
			out = e
			continue
		}
		out = Binary{Op: OpAnd, Left: out, Right: e}
	}
	return out
}

// True is the constant true expression.
var True Expression = Const(rdf.True)
