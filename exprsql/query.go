package exprsql

import (
	"fmt"
	"strings"

	"github.com/sqlxgen/sqlxgen/dialect"
	"github.com/sqlxgen/sqlxgen/typesys"
)

// OrderTerm is one ORDER BY term.
type OrderTerm struct {
	Column string
	Desc   bool
}

// Query is a fluent builder over the expression AST, mirroring the chained
// Where/OrderBy/Take shape spec §2 scenario 3 describes
// ("ForSqlServer().Where(...).OrderBy(...).Take(10)"). It composes the
// WHERE/ORDER BY/paging/GROUP BY/HAVING renderers into one SQL fragment.
// The Driver and the Emitter do not call it; method SQL comes from
// templates, raw SQL, or the synthesized default.
type Query struct {
	dialect dialect.Dialect
	entity  *typesys.Entity
	where   []Node
	order   []OrderTerm
	groupBy []string
	having  []Node
	limit   int
	offset  int
	mode    RenderMode
}

// ForDialect starts a Query rendering against d.
func ForDialect(d dialect.Dialect) *Query {
	return &Query{dialect: d, mode: ModeLiteral}
}

// For binds the entity member names in subsequent Where/OrderBy/GroupBy
// calls resolve against.
func (q *Query) For(e *typesys.Entity) *Query {
	q.entity = e
	return q
}

// Parameterize switches the render from literal-inlining to bound
// parameters (spec §4.5's Open Question: callers that forward user input
// through an expression tree should opt into this explicitly).
func (q *Query) Parameterize() *Query {
	q.mode = ModeParameterize
	return q
}

// Where AND-combines pred with any previously added predicates.
func (q *Query) Where(pred Node) *Query {
	q.where = append(q.where, pred)
	return q
}

// OrderBy appends an ORDER BY term.
func (q *Query) OrderBy(column string, desc bool) *Query {
	q.order = append(q.order, OrderTerm{Column: column, Desc: desc})
	return q
}

// GroupBy appends a GROUP BY column.
func (q *Query) GroupBy(column string) *Query {
	q.groupBy = append(q.groupBy, column)
	return q
}

// Having AND-combines pred with any previously added HAVING predicates;
// Having predicates may reference AggregateNode terms, unlike Where.
func (q *Query) Having(pred Node) *Query {
	q.having = append(q.having, pred)
	return q
}

// Take sets the page size (SQL LIMIT/TOP/FETCH equivalent).
func (q *Query) Take(n int) *Query {
	q.limit = n
	return q
}

// Skip sets the page offset.
func (q *Query) Skip(n int) *Query {
	q.offset = n
	return q
}

// Rendered is the output of Query.Render: the composed SQL fragment (WHERE
// / GROUP BY / HAVING / ORDER BY / paging clauses, in that order, each
// present only if the builder used it), its bound parameters (empty unless
// Parameterize was called), and non-fatal warnings.
type Rendered struct {
	SQL      string
	Params   []Param
	Warnings []string
}

// Render folds every clause the builder accumulated into one Rendered
// result. A Skip without an OrderBy is non-deterministic in standard SQL
// (spec §4.5/§8's Skip-without-OrderBy invariant): Render emits a GEN050
// warning and, when the bound entity has an identity column, falls back to
// ordering by it so the page is at least stable run-to-run.
func (q *Query) Render() (*Rendered, error) {
	t := &translator{dialect: q.dialect, entity: q.entity, mode: q.mode}
	r := &Rendered{}

	if len(q.where) > 0 {
		combined := q.where[0]
		for _, w := range q.where[1:] {
			combined = And(combined, w)
		}
		sql, err := t.renderPredicate(combined)
		if err != nil {
			return nil, err
		}
		r.SQL += "WHERE " + sql
	}

	if len(q.groupBy) > 0 {
		var cols []string
		for _, c := range q.groupBy {
			col, err := t.column(c)
			if err != nil {
				return nil, err
			}
			cols = append(cols, dialect.WrapIdent(q.dialect, col))
		}
		r.SQL = appendClause(r.SQL, "GROUP BY "+strings.Join(cols, ", "))
	}

	if len(q.having) > 0 {
		combined := q.having[0]
		for _, h := range q.having[1:] {
			combined = And(combined, h)
		}
		sql, err := t.renderPredicate(combined)
		if err != nil {
			return nil, err
		}
		r.SQL = appendClause(r.SQL, "HAVING "+sql)
	}

	order := q.order
	if q.offset > 0 && len(order) == 0 {
		r.Warnings = append(r.Warnings, "GEN050: Skip used without OrderBy; result order is not guaranteed")
		if q.entity != nil {
			for _, p := range q.entity.Properties {
				if p.IsIdentity {
					order = []OrderTerm{{Column: p.MemberName}}
					break
				}
			}
		}
	}
	if len(order) > 0 {
		var terms []string
		for _, o := range order {
			col, err := t.column(o.Column)
			if err != nil {
				return nil, err
			}
			dir := "ASC"
			if o.Desc {
				dir = "DESC"
			}
			terms = append(terms, fmt.Sprintf("%s %s", dialect.WrapIdent(q.dialect, col), dir))
		}
		r.SQL = appendClause(r.SQL, "ORDER BY "+strings.Join(terms, ", "))
	}

	page := dialect.Paging(q.dialect, q.offset, q.limit)
	if page.Predicate != "" {
		if r.SQL == "" {
			r.SQL = "WHERE " + page.Predicate
		} else if strings.HasPrefix(r.SQL, "WHERE ") {
			r.SQL = "WHERE (" + r.SQL[len("WHERE "):] + ") AND " + page.Predicate
		} else {
			r.SQL = appendClause(r.SQL, "WHERE "+page.Predicate)
		}
	}
	if page.Suffix != "" {
		r.SQL = appendClause(r.SQL, page.Suffix)
	}

	r.Params = t.params
	return r, nil
}

func appendClause(sql, clause string) string {
	if sql == "" {
		return clause
	}
	return sql + " " + clause
}
