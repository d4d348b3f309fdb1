package sqltemplate

import (
	"fmt"
	"strings"

	"github.com/sqlxgen/sqlxgen/dialect"
)

// RenderMode selects how Render embeds a resolved value into the output
// SQL text: Parameterize collects it into a numbered parameter (p0, p1, …)
// and substitutes the parameter reference; Literal inlines it as an
// escaped SQL literal. Render defaults to Parameterize — the Open Question
// in spec §9 is resolved this way for the template engine, the opposite of
// exprsql's literal-inlining default (see exprsql/translate.go).
type RenderMode int

const (
	ModeParameterize RenderMode = iota
	ModeLiteral
)

// Scope resolves a dotted variable path (as used by {{var}}, {{if cond}},
// {{each item in coll}}) to a Go value for rendering.
type Scope map[string]any

func (s Scope) resolve(path []string) (any, bool) {
	var cur any = map[string]any(s)
	for _, p := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// builtinFns is the closed set of functions {{fn(arg,…)}} may call.
var builtinFns = map[string]func(args []string, s Scope) (string, error){
	"upper": func(args []string, s Scope) (string, error) { return strings.ToUpper(argText(args, s)), nil },
	"lower": func(args []string, s Scope) (string, error) { return strings.ToLower(argText(args, s)), nil },
	"trim":  func(args []string, s Scope) (string, error) { return strings.TrimSpace(argText(args, s)), nil },
}

func argText(args []string, s Scope) string {
	if len(args) == 0 {
		return ""
	}
	v, ok := s.resolve([]string{args[0]})
	if !ok {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

// Render walks a Parsed document's node tree, substituting variables and
// evaluating if/each directives against scope, and returns the rendered
// SQL text plus (in Parameterize mode) the ordered bound values.
func Render(p *Parsed, d dialect.Dialect, scope Scope, mode RenderMode) (string, []any, error) {
	var (
		b      strings.Builder
		params []any
	)
	var walk func(nodes []Node, scope Scope) error
	walk = func(nodes []Node, scope Scope) error {
		for _, n := range nodes {
			switch v := n.(type) {
			case TextNode:
				b.WriteString(v.Text)
			case VarNode:
				val, ok := scope.resolve(v.Path)
				if !ok {
					return fmt.Errorf("%w: unbound variable %q", ErrTemplateSyntax, strings.Join(v.Path, "."))
				}
				if mode == ModeParameterize {
					params = append(params, val)
					fmt.Fprintf(&b, "p%d", len(params)-1)
				} else {
					b.WriteString(literal(d, val))
				}
			case CallNode:
				fn, ok := builtinFns[v.Name]
				if !ok {
					return fmt.Errorf("%w: unknown function %q", ErrTemplateSyntax, v.Name)
				}
				out, err := fn(v.Args, scope)
				if err != nil {
					return err
				}
				b.WriteString(out)
			case *IfNode:
				val, _ := scope.resolve(v.Cond)
				truthy := isTruthy(val)
				if v.Not {
					truthy = !truthy
				}
				if truthy {
					if err := walk(v.Body, scope); err != nil {
						return err
					}
				}
			case *EachNode:
				coll, ok := scope.resolve(v.Coll)
				if !ok {
					return fmt.Errorf("%w: unbound collection %q", ErrTemplateSyntax, strings.Join(v.Coll, "."))
				}
				items, ok := coll.([]any)
				if !ok {
					return fmt.Errorf("%w: %q is not iterable", ErrTemplateSyntax, strings.Join(v.Coll, "."))
				}
				for _, item := range items {
					child := make(Scope, len(scope)+1)
					for k, vv := range scope {
						child[k] = vv
					}
					child[v.Item] = item
					if err := walk(v.Body, child); err != nil {
						return err
					}
				}
			}
		}
		return nil
	}
	if err := walk(p.Nodes, scope); err != nil {
		return "", nil, err
	}
	return b.String(), params, nil
}

func isTruthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	default:
		return true
	}
}

func literal(d dialect.Dialect, v any) string {
	switch t := v.(type) {
	case string:
		return dialect.WrapString(d, t)
	case bool:
		return dialect.BoolLiteral(d, t)
	case nil:
		return "NULL"
	default:
		return fmt.Sprintf("%v", t)
	}
}
