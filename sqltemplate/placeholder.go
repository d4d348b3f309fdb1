// Package sqltemplate is the SQL Template Engine (C4). It hosts two
// coexisting template languages selected by attribute: (a) placeholder
// expansion, used by per-method SQL attributes and by the Operation
// Inferrer's synthesized SQL; (b) a text template with if/each/var/fn
// directives, used when a caller renders SQL at compile time (directive.go).
package sqltemplate

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/sqlxgen/sqlxgen/dialect"
	"github.com/sqlxgen/sqlxgen/namemap"
	"github.com/sqlxgen/sqlxgen/typesys"
)

// Placeholder is one parsed `{{op[:arg][|key=value]*}}` occurrence.
type Placeholder struct {
	Raw string
	Op  string
	Arg string
	KV  map[string]string
}

var placeholderRe = regexp.MustCompile(`\{\{([^{}]*)\}\}`)

// ParsePlaceholders scans text for `{{...}}` occurrences and parses each
// into a Placeholder. It never errors: an empty or malformed body between
// braces becomes a Placeholder with an empty Op, which Expander.Expand
// treats as unknown and preserves verbatim.
func ParsePlaceholders(text string) []Placeholder {
	matches := placeholderRe.FindAllStringSubmatchIndex(text, -1)
	out := make([]Placeholder, 0, len(matches))
	for _, m := range matches {
		body := text[m[2]:m[3]]
		out = append(out, parsePlaceholderBody(text[m[0]:m[1]], body))
	}
	return out
}

func parsePlaceholderBody(raw, body string) Placeholder {
	parts := strings.Split(body, "|")
	head := strings.TrimSpace(parts[0])
	op, arg, _ := strings.Cut(head, ":")
	p := Placeholder{Raw: raw, Op: strings.TrimSpace(op), Arg: strings.TrimSpace(arg), KV: map[string]string{}}
	for _, kv := range parts[1:] {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		p.KV[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return p
}

// Parameter is the engine's rendering of a Parameter Descriptor (spec §3):
// a bound value's name, its source, and its positional index.
type Parameter struct {
	Name     string
	Index    int
	Source   ParamSource
	Class    *typesys.Classification
}

// ParamSource identifies where a bound parameter's value comes from.
type ParamSource int

const (
	SourceMethodParam ParamSource = iota
	SourceEntityProperty
	SourceLiteral
)

// MethodParam describes one method parameter available to placeholder
// expansion; where:auto is the op that reads the Expander's Params list.
type MethodParam struct {
	Name  string
	Class *typesys.Classification
}

// Unknown is a diagnostic-worthy unknown op, carried back to the Driver's
// sink as a warning (spec §4.4: "Unknown ops are preserved verbatim and
// emit a warning diagnostic").
type Unknown struct {
	Placeholder Placeholder
}

// Expander expands placeholder-style SQL templates into dialect-specific
// SQL plus an ordered Parameter list.
type Expander struct {
	Dialect dialect.Dialect
	Entity  *typesys.Entity
	Params  []MethodParam
}

// Expand renders rawText, returning the final SQL, the ordered parameters
// referenced in it, and any unknown placeholders encountered (non-fatal).
func (e *Expander) Expand(rawText string) (string, []Parameter, []Unknown, error) {
	var (
		params  []Parameter
		unknown []Unknown
		index   int
	)
	nextParam := func(name string, src ParamSource, class *typesys.Classification) string {
		index++
		ref := dialect.ParamRef(e.Dialect, name, index)
		params = append(params, Parameter{Name: name, Index: index, Source: src, Class: class})
		return ref
	}

	var outErr error
	out := placeholderRe.ReplaceAllStringFunc(rawText, func(raw string) string {
		if outErr != nil {
			return raw
		}
		body := raw[2 : len(raw)-2]
		ph := parsePlaceholderBody(raw, body)
		repl, err := e.expandOne(ph, nextParam)
		if err != nil {
			outErr = err
			return raw
		}
		if repl == unknownSentinel {
			unknown = append(unknown, Unknown{Placeholder: ph})
			return ph.Raw
		}
		return repl
	})
	if outErr != nil {
		return "", nil, nil, outErr
	}
	return out, params, unknown, nil
}

const unknownSentinel = "\x00unknown\x00"

func (e *Expander) expandOne(ph Placeholder, nextParam func(string, ParamSource, *typesys.Classification) string) (string, error) {
	switch ph.Op {
	case "table":
		return dialect.WrapIdent(e.Dialect, e.Entity.TableName), nil
	case "columns":
		return e.expandColumns(ph)
	case "values":
		return e.expandValues(ph, nextParam)
	case "set":
		return e.expandSet(ph, nextParam)
	case "where":
		return e.expandWhere(ph, nextParam)
	case "orderby":
		return e.expandOrderBy(ph)
	case "limit":
		return e.expandLimit(ph)
	case "sum", "avg", "min", "max", "count":
		return e.expandAggregate(ph)
	case "upper", "lower", "trim":
		return e.expandStringFunc(ph)
	case "today", "week", "month", "year":
		return e.expandDateTrunc(ph)
	case "between":
		return e.expandBetween(ph, nextParam)
	case "like":
		return e.expandLike(ph, nextParam)
	case "in":
		return e.expandIn(ph, nextParam)
	case "notnull", "isnull":
		return e.expandNullPredicate(ph)
	case "round":
		return e.expandRound(ph)
	case "distinct":
		return "DISTINCT " + dialect.WrapIdent(e.Dialect, e.column(ph.Arg)), nil
	default:
		return unknownSentinel, nil
	}
}

func (e *Expander) column(name string) string {
	if e.Entity == nil {
		return name
	}
	for _, p := range e.Entity.Properties {
		if p.MemberName == name || p.ColumnName == name {
			return p.ColumnName
		}
	}
	return namemap.Map(name)
}

func (e *Expander) excluded(ph Placeholder) map[string]bool {
	ex := map[string]bool{}
	if v, ok := ph.KV["exclude"]; ok {
		for _, name := range strings.Split(v, ",") {
			ex[strings.TrimSpace(name)] = true
		}
	}
	return ex
}

// expandColumns handles columns:auto (every readable property, identity
// column included — the SELECT shape), columns:quoted (same, dialect
// quoted), and columns:insert (identity column excluded, so it pairs with
// values:auto's column set and INSERT statements never write the
// auto-generated key).
func (e *Expander) expandColumns(ph Placeholder) (string, error) {
	ex := e.excluded(ph)
	var cols []string
	for _, p := range e.Entity.Properties {
		if ex[p.MemberName] || ex[p.ColumnName] {
			continue
		}
		if ph.Arg == "insert" && p.IsIdentity {
			continue
		}
		if ph.Arg == "quoted" {
			cols = append(cols, dialect.WrapIdent(e.Dialect, p.ColumnName))
		} else {
			cols = append(cols, p.ColumnName)
		}
	}
	return strings.Join(cols, ", "), nil
}

func (e *Expander) expandValues(ph Placeholder, nextParam func(string, ParamSource, *typesys.Classification) string) (string, error) {
	ex := e.excluded(ph)
	var refs []string
	for _, p := range e.Entity.Properties {
		if ex[p.MemberName] || ex[p.ColumnName] || p.IsIdentity {
			continue
		}
		refs = append(refs, nextParam(p.ColumnName, SourceEntityProperty, p.Class))
	}
	return strings.Join(refs, ", "), nil
}

func (e *Expander) expandSet(ph Placeholder, nextParam func(string, ParamSource, *typesys.Classification) string) (string, error) {
	ex := e.excluded(ph)
	var pairs []string
	for _, p := range e.Entity.Properties {
		if p.IsIdentity || ex[p.MemberName] || ex[p.ColumnName] {
			continue
		}
		ref := nextParam(p.ColumnName, SourceEntityProperty, p.Class)
		pairs = append(pairs, fmt.Sprintf("%s = %s", dialect.WrapIdent(e.Dialect, p.ColumnName), ref))
	}
	return strings.Join(pairs, ", "), nil
}

func (e *Expander) expandWhere(ph Placeholder, nextParam func(string, ParamSource, *typesys.Classification) string) (string, error) {
	if ph.Arg == "id" {
		ref := nextParam("id", SourceMethodParam, nil)
		return fmt.Sprintf("%s = %s", dialect.WrapIdent(e.Dialect, "id"), ref), nil
	}
	// where:auto — AND of col = param for every non-context method parameter.
	var preds []string
	for _, mp := range e.Params {
		if isContextParam(mp) {
			continue
		}
		ref := nextParam(mp.Name, SourceMethodParam, mp.Class)
		preds = append(preds, fmt.Sprintf("%s = %s", dialect.WrapIdent(e.Dialect, namemap.Map(mp.Name)), ref))
	}
	if len(preds) == 0 {
		return "1 = 1", nil
	}
	return strings.Join(preds, " AND "), nil
}

func isContextParam(mp MethodParam) bool {
	return mp.Name == "ctx" || mp.Class == nil
}

func (e *Expander) expandOrderBy(ph Placeholder) (string, error) {
	var cols []string
	for _, c := range strings.Split(ph.Arg, ",") {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		dir := "ASC"
		fields := strings.Fields(c)
		name := fields[0]
		if len(fields) > 1 {
			dir = strings.ToUpper(fields[1])
		}
		cols = append(cols, dialect.WrapIdent(e.Dialect, e.column(name))+" "+dir)
	}
	return "ORDER BY " + strings.Join(cols, ", "), nil
}

// expandLimit renders whichever of Prefix/Suffix/Predicate the dialect's
// paging strategy produces (dialect.Paging sets exactly one per dialect —
// RowNum yields only a Predicate, e.g. "ROWNUM <= 10"). A template using
// {{limit:default}} against a RowNum dialect (Oracle) must place the token
// inside the query's WHERE clause; placed after ORDER BY as a suffix-style
// dialect would expect, it still renders the predicate text rather than
// silently vanishing.
func (e *Expander) expandLimit(ph Placeholder) (string, error) {
	count, _ := strconv.Atoi(ph.KV["count"])
	offset, _ := strconv.Atoi(ph.KV["offset"])
	page := dialect.Paging(e.Dialect, offset, count)
	return strings.TrimSpace(page.Prefix + page.Suffix + page.Predicate), nil
}

func (e *Expander) expandAggregate(ph Placeholder) (string, error) {
	fn := strings.ToUpper(ph.Op)
	if ph.Op == "count" && ph.Arg == "" {
		return "COUNT(*)", nil
	}
	return fmt.Sprintf("%s(%s)", fn, dialect.WrapIdent(e.Dialect, e.column(ph.Arg))), nil
}

func (e *Expander) expandStringFunc(ph Placeholder) (string, error) {
	fn := strings.ToUpper(ph.Op)
	return fmt.Sprintf("%s(%s)", fn, dialect.WrapIdent(e.Dialect, e.column(ph.Arg))), nil
}

func (e *Expander) expandDateTrunc(ph Placeholder) (string, error) {
	col := dialect.WrapIdent(e.Dialect, e.column(ph.Arg))
	switch e.Dialect.Kind {
	case dialect.PostgreSQL:
		return fmt.Sprintf("DATE_TRUNC('%s', %s)", ph.Op, col), nil
	case dialect.MySQL:
		format := map[string]string{"today": "%Y-%m-%d", "week": "%x-%v", "month": "%Y-%m-01", "year": "%Y-01-01"}[ph.Op]
		if format == "" {
			format = "%Y-%m-%d"
		}
		return fmt.Sprintf("DATE_FORMAT(%s, '%s')", col, format), nil
	default:
		return fmt.Sprintf("CAST(%s AS DATE)", col), nil
	}
}

func (e *Expander) expandBetween(ph Placeholder, nextParam func(string, ParamSource, *typesys.Classification) string) (string, error) {
	col := dialect.WrapIdent(e.Dialect, e.column(ph.Arg))
	minRef := nextParam(ph.KV["min"], SourceMethodParam, nil)
	maxRef := nextParam(ph.KV["max"], SourceMethodParam, nil)
	return fmt.Sprintf("%s BETWEEN %s AND %s", col, minRef, maxRef), nil
}

func (e *Expander) expandLike(ph Placeholder, nextParam func(string, ParamSource, *typesys.Classification) string) (string, error) {
	col := dialect.WrapIdent(e.Dialect, e.column(ph.Arg))
	ref := nextParam(ph.KV["pattern"], SourceMethodParam, nil)
	return dialect.Like(e.Dialect, col, ref), nil
}

func (e *Expander) expandIn(ph Placeholder, nextParam func(string, ParamSource, *typesys.Classification) string) (string, error) {
	col := dialect.WrapIdent(e.Dialect, e.column(ph.Arg))
	values := strings.Split(ph.KV["values"], ",")
	sort.Strings(values) // deterministic output (invariant I3).
	var refs []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		refs = append(refs, nextParam(v, SourceMethodParam, nil))
	}
	return fmt.Sprintf("%s IN (%s)", col, strings.Join(refs, ", ")), nil
}

func (e *Expander) expandNullPredicate(ph Placeholder) (string, error) {
	col := dialect.WrapIdent(e.Dialect, e.column(ph.Arg))
	if ph.Op == "notnull" {
		return col + " IS NOT NULL", nil
	}
	return col + " IS NULL", nil
}

func (e *Expander) expandRound(ph Placeholder) (string, error) {
	col := dialect.WrapIdent(e.Dialect, e.column(ph.Arg))
	return fmt.Sprintf("ROUND(%s, %s)", col, ph.KV["decimals"]), nil
}
