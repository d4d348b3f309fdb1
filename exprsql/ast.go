// Package exprsql is the Expression-to-SQL Translator (C5). It walks a
// tagged-variant predicate/projection/update AST expressed in terms of
// entity properties and captured values, and folds it into a SQL fragment
// plus an ordered parameter set. The AST shape generalizes the teacher's
// generic predicate-function pattern (dialect/sql/predicate.go's
// StringField[P]/PredicateFunc) into an explicit tree so CASE/GROUP BY/
// HAVING rewriting has something to fold over.
package exprsql

import "fmt"

// Node is one AST node. The translator never silently drops a node it
// cannot render — every renderer path either emits SQL or returns
// ErrUnsupportedExpression naming the node kind (spec §4.5).
type Node interface{ isExprNode() }

// BinaryOp is the closed set of binary operators the translator renders.
type BinaryOp string

const (
	OpEq  BinaryOp = "="
	OpNeq BinaryOp = "<>"
	OpGt  BinaryOp = ">"
	OpGte BinaryOp = ">="
	OpLt  BinaryOp = "<"
	OpLte BinaryOp = "<="
	OpAdd BinaryOp = "+"
	OpSub BinaryOp = "-"
	OpMul BinaryOp = "*"
	OpDiv BinaryOp = "/"
	OpAnd BinaryOp = "AND"
	OpOr  BinaryOp = "OR"
)

// BinaryNode is a binary arithmetic, comparison, or logical node.
type BinaryNode struct {
	Op          BinaryOp
	Left, Right Node
}

// NotNode negates its operand (logical NOT, or rendered as a boolean flip
// for a bare boolean member).
type NotNode struct{ X Node }

// MemberNode references an entity property by its Go member name; the
// renderer resolves it to a quoted column via the active Entity Descriptor.
type MemberNode struct{ Name string }

// ConstNode is a literal constant embedded directly in the expression tree
// at build time (as opposed to a CaptureNode, whose value is a closure
// variable resolved at Render time).
type ConstNode struct{ Value any }

// CaptureNode is a captured free variable: a value supplied by the caller
// when building the query (the Go analogue of a C# lambda's closed-over
// local). Per spec §4.5, captures are inlined as SQL literals by default;
// Query.Parameterize() switches a whole render to parameter binding.
type CaptureNode struct {
	Name  string
	Value any
}

// NullNode represents the SQL NULL literal, used by the == nil / != nil
// rewrite rule (spec §4.5 and the invariant in spec §8).
type NullNode struct{}

// CallKind is the closed set of method calls the translator recognizes.
type CallKind string

const (
	CallContains     CallKind = "Contains"
	CallStartsWith   CallKind = "StartsWith"
	CallEndsWith     CallKind = "EndsWith"
	CallToUpper      CallKind = "ToUpper"
	CallToLower      CallKind = "ToLower"
	CallTrim         CallKind = "Trim"
	CallSubstring    CallKind = "Substring"
	CallIn           CallKind = "In" // Enumerable.Contains(collection, col)
	CallAbs          CallKind = "Abs"
	CallCeiling      CallKind = "Ceiling"
	CallFloor        CallKind = "Floor"
	CallAddDays      CallKind = "AddDays"
	CallAddYears     CallKind = "AddYears"
)

// CallNode is a method call limited to the closed list in spec §4.5.
type CallNode struct {
	Kind CallKind
	Recv Node
	Args []Node
}

// ConditionalNode maps a ternary/conditional expression to CASE WHEN.
type ConditionalNode struct{ Cond, Then, Else Node }

// CoalesceNode maps to SQL COALESCE(...).
type CoalesceNode struct{ Args []Node }

// AggregateKind is the closed set of aggregate functions a GroupBy
// projection may rewrite a member access into.
type AggregateKind string

const (
	AggCount AggregateKind = "COUNT"
	AggSum   AggregateKind = "SUM"
	AggAvg   AggregateKind = "AVG"
	AggMin   AggregateKind = "MIN"
	AggMax   AggregateKind = "MAX"
)

// AggregateNode is a GroupBy projection term (spec §4.5's "g.Count()"/
// "g.Sum(...)" rewriting); Of is nil for COUNT(*).
type AggregateNode struct {
	Kind AggregateKind
	Of   Node
}

func (BinaryNode) isExprNode()      {}
func (NotNode) isExprNode()         {}
func (MemberNode) isExprNode()      {}
func (ConstNode) isExprNode()       {}
func (CaptureNode) isExprNode()     {}
func (NullNode) isExprNode()        {}
func (CallNode) isExprNode()        {}
func (ConditionalNode) isExprNode() {}
func (CoalesceNode) isExprNode()    {}
func (AggregateNode) isExprNode()   {}

// ErrUnsupportedExpression is the spec §7 taxonomy entry emitted when the
// translator meets a node kind it does not recognize.
var ErrUnsupportedExpression = fmt.Errorf("exprsql: unsupported expression")

// Unsupported builds an ErrUnsupportedExpression naming the offending kind,
// as required by spec §4.5 ("never silently drops a node").
func Unsupported(kind string) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedExpression, kind)
}

// Col is a convenience constructor for a MemberNode.
func Col(name string) Node { return MemberNode{Name: name} }

// Lit is a convenience constructor for a ConstNode.
func Lit(v any) Node { return ConstNode{Value: v} }

// Capture is a convenience constructor for a CaptureNode.
func Capture(name string, v any) Node { return CaptureNode{Name: name, Value: v} }

// Eq, Neq, Gt, Gte, Lt, Lte build the corresponding BinaryNode, rewriting a
// NullNode operand into IS [NOT] NULL at render time.
func Eq(l, r Node) Node  { return BinaryNode{Op: OpEq, Left: l, Right: r} }
func Neq(l, r Node) Node { return BinaryNode{Op: OpNeq, Left: l, Right: r} }
func Gt(l, r Node) Node  { return BinaryNode{Op: OpGt, Left: l, Right: r} }
func Gte(l, r Node) Node { return BinaryNode{Op: OpGte, Left: l, Right: r} }
func Lt(l, r Node) Node  { return BinaryNode{Op: OpLt, Left: l, Right: r} }
func Lte(l, r Node) Node { return BinaryNode{Op: OpLte, Left: l, Right: r} }

// And, Or, Not build the corresponding logical node.
func And(l, r Node) Node { return BinaryNode{Op: OpAnd, Left: l, Right: r} }
func Or(l, r Node) Node  { return BinaryNode{Op: OpOr, Left: l, Right: r} }
func Not(x Node) Node    { return NotNode{X: x} }

// Null is the SQL NULL literal constructor.
func Null() Node { return NullNode{} }
