package exprsql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sqlxgen/sqlxgen/dialect"
	"github.com/sqlxgen/sqlxgen/typesys"
)

// Param is one bound value produced by a Parameterize-mode render. Name is
// the capture's name and is set for every dialect, including the
// positional ones (spec §3's Parameter Descriptor, reused here rather than
// redefined).
type Param struct {
	Name  string
	Value any
}

// RenderMode selects how CaptureNode leaves are rendered. Literal inlines
// the value as a SQL literal; Parameterize binds it and substitutes a
// dialect-correct parameter reference. ConstNode leaves are inlined as
// literals in both modes. Per spec §4.5's resolution of the
// parameterize-vs-inline Open Question, the translator defaults to Literal
// — the opposite of sqltemplate's default — because expression-tree values
// are typically compile-time-bound closures over constants, not end-user
// input forwarded at call time.
type RenderMode int

const (
	ModeLiteral RenderMode = iota
	ModeParameterize
)

type translator struct {
	dialect dialect.Dialect
	entity  *typesys.Entity
	mode    RenderMode
	params  []Param
}

func (t *translator) render(n Node) (string, error) {
	switch v := n.(type) {
	case BinaryNode:
		return t.renderBinary(v)
	case NotNode:
		inner, err := t.renderPredicate(v.X)
		if err != nil {
			return "", err
		}
		return "NOT (" + inner + ")", nil
	case MemberNode:
		col, err := t.column(v.Name)
		if err != nil {
			return "", err
		}
		return dialect.WrapIdent(t.dialect, col), nil
	case ConstNode:
		return t.literal(v.Value), nil
	case CaptureNode:
		return t.bind(v.Name, v.Value), nil
	case NullNode:
		return "NULL", nil
	case CallNode:
		return t.renderCall(v)
	case ConditionalNode:
		return t.renderConditional(v)
	case CoalesceNode:
		return t.renderCoalesce(v)
	case AggregateNode:
		return t.renderAggregate(v)
	default:
		return "", Unsupported(fmt.Sprintf("%T", n))
	}
}

func (t *translator) renderBinary(b BinaryNode) (string, error) {
	// I-NULL (spec §4.5/§8): `member == nil` / `member != nil` rewrites to
	// IS [NOT] NULL rather than `= NULL`, which SQL always evaluates to
	// unknown.
	if _, ok := b.Right.(NullNode); ok && (b.Op == OpEq || b.Op == OpNeq) {
		left, err := t.render(b.Left)
		if err != nil {
			return "", err
		}
		if b.Op == OpEq {
			return left + " IS NULL", nil
		}
		return left + " IS NOT NULL", nil
	}
	if _, ok := b.Left.(NullNode); ok && (b.Op == OpEq || b.Op == OpNeq) {
		return t.renderBinary(BinaryNode{Op: b.Op, Left: b.Right, Right: b.Left})
	}

	left, err := t.renderOperand(b.Left, b.Op)
	if err != nil {
		return "", err
	}
	right, err := t.renderOperand(b.Right, b.Op)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s %s", left, string(b.Op), right), nil
}

// precedence orders BinaryOp the way SQL does, lowest first, so
// renderOperand knows when a nested BinaryNode needs parens to preserve
// grouping (OR inside AND, or either inside arithmetic).
func precedence(op BinaryOp) int {
	switch op {
	case OpOr:
		return 1
	case OpAnd:
		return 2
	case OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte:
		return 3
	case OpAdd, OpSub:
		return 4
	case OpMul, OpDiv:
		return 5
	default:
		return 0
	}
}

// renderOperand renders n as an operand of a BinaryNode whose operator is
// parentOp. AND/OR operands render in predicate position (spec §4.5/§8: a
// bare boolean member used as a predicate rewrites to `col = TRUE`/`col =
// 1`, not the bare column); a nested BinaryNode with strictly lower
// precedence than parentOp is parenthesized to preserve grouping, matching
// SQL's own operator precedence so equal/higher-precedence children (the
// common case — a chain of ANDed comparisons) render paren-free, as spec
// §8's literal scenarios show.
func (t *translator) renderOperand(n Node, parentOp BinaryOp) (string, error) {
	var (
		s   string
		err error
	)
	if parentOp == OpAnd || parentOp == OpOr {
		s, err = t.renderPredicate(n)
	} else {
		s, err = t.render(n)
	}
	if err != nil {
		return "", err
	}
	if bn, ok := n.(BinaryNode); ok && precedence(bn.Op) < precedence(parentOp) {
		return "(" + s + ")", nil
	}
	return s, nil
}

// renderPredicate renders n as it appears in predicate position — the
// top-level Where/Having clause, an And/Or operand, or a Not operand (spec
// §4.5). A bare boolean MemberNode used there is not valid SQL on its own
// on dialects with no native boolean type (SqlServer/Sqlite can't test a
// bit column as a predicate by itself), so it is rewritten to an explicit
// `col = <true literal>` comparison; every other node renders unchanged.
func (t *translator) renderPredicate(n Node) (string, error) {
	if isBoolMember(t.entity, n) {
		col, err := t.render(n)
		if err != nil {
			return "", err
		}
		return col + " = " + dialect.BoolLiteral(t.dialect, true), nil
	}
	return t.render(n)
}

func (t *translator) renderCall(c CallNode) (string, error) {
	switch c.Kind {
	case CallToUpper, CallToLower, CallTrim:
		recv, err := t.render(c.Recv)
		if err != nil {
			return "", err
		}
		fn := map[CallKind]string{CallToUpper: "UPPER", CallToLower: "LOWER", CallTrim: "TRIM"}[c.Kind]
		return fmt.Sprintf("%s(%s)", fn, recv), nil
	case CallAbs, CallCeiling, CallFloor:
		recv, err := t.render(c.Recv)
		if err != nil {
			return "", err
		}
		fn := map[CallKind]string{CallAbs: "ABS", CallCeiling: "CEILING", CallFloor: "FLOOR"}[c.Kind]
		return fmt.Sprintf("%s(%s)", fn, recv), nil
	case CallContains, CallStartsWith, CallEndsWith:
		return t.renderLikeCall(c)
	case CallSubstring:
		recv, err := t.render(c.Recv)
		if err != nil {
			return "", err
		}
		var args []string
		for _, a := range c.Args {
			s, err := t.render(a)
			if err != nil {
				return "", err
			}
			args = append(args, s)
		}
		return fmt.Sprintf("SUBSTRING(%s, %s)", recv, strings.Join(args, ", ")), nil
	case CallIn:
		return t.renderIn(c)
	case CallAddDays, CallAddYears:
		return t.renderDateAdd(c)
	default:
		return "", Unsupported(string(c.Kind))
	}
}

func (t *translator) renderLikeCall(c CallNode) (string, error) {
	recv, err := t.render(c.Recv)
	if err != nil {
		return "", err
	}
	if len(c.Args) != 1 {
		return "", Unsupported(string(c.Kind) + ": expected exactly one argument")
	}
	lit, ok := literalString(c.Args[0])
	if !ok {
		return "", Unsupported(string(c.Kind) + ": argument must be a constant or captured string")
	}
	escaped := dialect.EscapeLikeWildcards(t.dialect, lit)
	var pattern string
	switch c.Kind {
	case CallContains:
		pattern = "%" + escaped + "%"
	case CallStartsWith:
		pattern = escaped + "%"
	case CallEndsWith:
		pattern = "%" + escaped
	}
	patternExpr := t.literal(pattern)
	return dialect.Like(t.dialect, recv, patternExpr), nil
}

func literalString(n Node) (string, bool) {
	switch v := n.(type) {
	case ConstNode:
		s, ok := v.Value.(string)
		return s, ok
	case CaptureNode:
		s, ok := v.Value.(string)
		return s, ok
	default:
		return "", false
	}
}

func (t *translator) renderIn(c CallNode) (string, error) {
	if len(c.Args) == 0 {
		return "", Unsupported("In: requires a collection argument")
	}
	recv, err := t.render(c.Recv)
	if err != nil {
		return "", err
	}
	coll, ok := c.Args[0].(CaptureNode)
	if !ok {
		return "", Unsupported("In: collection argument must be a captured slice")
	}
	values, err := toSlice(coll.Value)
	if err != nil {
		return "", err
	}
	if len(values) == 0 {
		return "1 = 0", nil // an empty IN() list can never match.
	}
	var refs []string
	for i, v := range values {
		refs = append(refs, t.bind(fmt.Sprintf("%s%d", coll.Name, i), v))
	}
	return fmt.Sprintf("%s IN (%s)", recv, strings.Join(refs, ", ")), nil
}

func toSlice(v any) ([]any, error) {
	switch s := v.(type) {
	case []any:
		return s, nil
	case []string:
		out := make([]any, len(s))
		for i, x := range s {
			out[i] = x
		}
		return out, nil
	case []int:
		out := make([]any, len(s))
		for i, x := range s {
			out[i] = x
		}
		return out, nil
	case []int64:
		out := make([]any, len(s))
		for i, x := range s {
			out[i] = x
		}
		return out, nil
	default:
		return nil, Unsupported(fmt.Sprintf("In: unsupported collection type %T", v))
	}
}

func (t *translator) renderDateAdd(c CallNode) (string, error) {
	recv, err := t.render(c.Recv)
	if err != nil {
		return "", err
	}
	if len(c.Args) != 1 {
		return "", Unsupported(string(c.Kind) + ": expected exactly one argument")
	}
	amount, err := t.render(c.Args[0])
	if err != nil {
		return "", err
	}
	unit := "DAY"
	if c.Kind == CallAddYears {
		unit = "YEAR"
	}
	switch t.dialect.Kind {
	case dialect.PostgreSQL, dialect.SQLite:
		return fmt.Sprintf("(%s + INTERVAL '%s %s')", recv, strings.Trim(amount, "'"), unit), nil
	case dialect.MySQL:
		return fmt.Sprintf("DATE_ADD(%s, INTERVAL %s %s)", recv, amount, unit), nil
	case dialect.SQLServer:
		return fmt.Sprintf("DATEADD(%s, %s, %s)", unit, amount, recv), nil
	default:
		return fmt.Sprintf("(%s + %s)", recv, amount), nil
	}
}

func (t *translator) renderConditional(c ConditionalNode) (string, error) {
	cond, err := t.renderPredicate(c.Cond)
	if err != nil {
		return "", err
	}
	then, err := t.render(c.Then)
	if err != nil {
		return "", err
	}
	els, err := t.render(c.Else)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("CASE WHEN %s THEN %s ELSE %s END", cond, then, els), nil
}

func (t *translator) renderCoalesce(c CoalesceNode) (string, error) {
	var args []string
	for _, a := range c.Args {
		s, err := t.render(a)
		if err != nil {
			return "", err
		}
		args = append(args, s)
	}
	return fmt.Sprintf("COALESCE(%s)", strings.Join(args, ", ")), nil
}

func (t *translator) renderAggregate(a AggregateNode) (string, error) {
	if a.Of == nil {
		if a.Kind != AggCount {
			return "", Unsupported(string(a.Kind) + ": requires an operand")
		}
		return "COUNT(*)", nil
	}
	of, err := t.render(a.Of)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s(%s)", string(a.Kind), of), nil
}

func (t *translator) column(member string) (string, error) {
	if t.entity == nil {
		return "", fmt.Errorf("exprsql: member %q referenced with no entity bound", member)
	}
	p, err := t.entity.Property(member)
	if err != nil {
		return "", err
	}
	return p.ColumnName, nil
}

func (t *translator) literal(v any) string {
	switch x := v.(type) {
	case string:
		return dialect.WrapString(t.dialect, x)
	case bool:
		return dialect.BoolLiteral(t.dialect, x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case nil:
		return "NULL"
	default:
		return dialect.WrapString(t.dialect, fmt.Sprintf("%v", x))
	}
}

func (t *translator) bind(name string, v any) string {
	if t.mode == ModeLiteral {
		return t.literal(v)
	}
	idx := len(t.params) + 1
	t.params = append(t.params, Param{Name: name, Value: v})
	return dialect.ParamRef(t.dialect, name, idx)
}

func isBoolMember(e *typesys.Entity, n Node) bool {
	m, ok := n.(MemberNode)
	if !ok || e == nil {
		return false
	}
	p, err := e.Property(m.Name)
	if err != nil {
		return false
	}
	return p.Class != nil && p.Class.ScalarKind == typesys.ScalarBool
}

// Render folds expr into a SQL boolean/scalar expression under dialect d,
// resolving member access against entity (which may be nil for expressions
// with no entity-bound member, such as a pure constant projection). mode
// selects literal-inlining vs parameter binding for captures; constants are
// always inlined.
// The root of expr renders in predicate position (see renderPredicate), so
// a bare boolean member passed directly as expr gets the same `col = TRUE`
// rewrite a Query.Where/Having root does.
func Render(d dialect.Dialect, entity *typesys.Entity, expr Node, mode RenderMode) (string, []Param, error) {
	t := &translator{dialect: d, entity: entity, mode: mode}
	sql, err := t.renderPredicate(expr)
	if err != nil {
		return "", nil, err
	}
	return sql, t.params, nil
}
