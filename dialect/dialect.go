package dialect

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies one of the closed set of dialects the registry knows
// about. The integer values are part of the attribute surface (C9) and
// must stay stable: they are the enum values emitted into generated
// attribute constants.
type Kind int

// Predefined dialect kinds, matching the stable enum in spec §6.
const (
	MySQL Kind = iota
	SQLServer
	PostgreSQL
	Oracle
	DB2
	SQLite
)

// String implements fmt.Stringer for diagnostics and doc comments.
func (k Kind) String() string {
	switch k {
	case MySQL:
		return "MySql"
	case SQLServer:
		return "SqlServer"
	case PostgreSQL:
		return "PostgreSql"
	case Oracle:
		return "Oracle"
	case DB2:
		return "DB2"
	case SQLite:
		return "Sqlite"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// PagingStrategy is the dialect-specific idiom used to express a paged
// result set.
type PagingStrategy int

const (
	// OffsetFetch produces the ANSI "OFFSET n ROWS FETCH NEXT m ROWS ONLY" suffix.
	OffsetFetch PagingStrategy = iota
	// LimitOffset produces the "LIMIT m OFFSET n" suffix.
	LimitOffset
	// RowNum produces an Oracle-style ROWNUM predicate instead of a suffix.
	RowNum
	// Top produces a "TOP (n)" prefix inserted after SELECT, used by
	// dialects/configurations that predate OFFSET/FETCH support.
	Top
)

// ConcatKind selects how the dialect spells string concatenation.
type ConcatKind int

const (
	// Plus concatenates with the "+" operator (SqlServer).
	Plus ConcatKind = iota
	// Concat wraps operands in a CONCAT(...) call (MySql, DB2).
	Concat
	// DoublePipe concatenates with "||" (PostgreSql, Sqlite, standard Oracle too).
	DoublePipe
)

// Dialect is an immutable record of the lexical and syntactic conventions
// that distinguish one SQL flavor from another. Dialect values returned by
// Lookup are process-scoped constants; never mutate one in place — build a
// copy with the struct literal instead (see SqlDefine's 5-tuple override in
// package attrs).
type Dialect struct {
	Kind           Kind
	OpenIdent      string
	CloseIdent     string
	OpenString     string
	CloseString    string
	ParamPrefix    string
	PagingStrategy PagingStrategy
	ConcatKind     ConcatKind
	LikeEscape     byte
}

// Invariant (I1, spec §3): every dialect quotes strings with a single
// quote; only identifier quoting characters vary.
const stringQuote = "'"

var registry = map[Kind]Dialect{
	MySQL: {
		Kind: MySQL, OpenIdent: "`", CloseIdent: "`",
		OpenString: stringQuote, CloseString: stringQuote,
		ParamPrefix: "?", PagingStrategy: LimitOffset, ConcatKind: Concat, LikeEscape: '\\',
	},
	SQLServer: {
		Kind: SQLServer, OpenIdent: "[", CloseIdent: "]",
		OpenString: stringQuote, CloseString: stringQuote,
		ParamPrefix: "@", PagingStrategy: OffsetFetch, ConcatKind: Plus, LikeEscape: '\\',
	},
	PostgreSQL: {
		Kind: PostgreSQL, OpenIdent: `"`, CloseIdent: `"`,
		OpenString: stringQuote, CloseString: stringQuote,
		ParamPrefix: "$", PagingStrategy: LimitOffset, ConcatKind: DoublePipe, LikeEscape: '\\',
	},
	Oracle: {
		Kind: Oracle, OpenIdent: `"`, CloseIdent: `"`,
		OpenString: stringQuote, CloseString: stringQuote,
		ParamPrefix: ":", PagingStrategy: RowNum, ConcatKind: DoublePipe, LikeEscape: '\\',
	},
	DB2: {
		Kind: DB2, OpenIdent: `"`, CloseIdent: `"`,
		OpenString: stringQuote, CloseString: stringQuote,
		ParamPrefix: "?", PagingStrategy: OffsetFetch, ConcatKind: Concat, LikeEscape: '\\',
	},
	SQLite: {
		Kind: SQLite, OpenIdent: `"`, CloseIdent: `"`,
		OpenString: stringQuote, CloseString: stringQuote,
		ParamPrefix: "@", PagingStrategy: LimitOffset, ConcatKind: DoublePipe, LikeEscape: '\\',
	},
}

// Lookup returns the predefined Dialect record for kind. It panics if kind
// is not one of the six predefined dialects — Lookup is always called with
// a value resolved from the closed Kind enum, so an unknown kind indicates
// a programmer error in a caller, not user input.
func Lookup(kind Kind) Dialect {
	d, ok := registry[kind]
	if !ok {
		panic(fmt.Sprintf("dialect: unknown kind %d", int(kind)))
	}
	return d
}

// Custom builds a Dialect from the 5-tuple accepted by the SqlDefine
// attribute (open/close ident, open/close string, param prefix), defaulting
// paging/concat/escape to the PostgreSql-like ANSI idiom. Used when a user
// supplies an explicit tuple instead of a named Kind.
func Custom(openIdent, closeIdent, openString, closeString, paramPrefix string) Dialect {
	return Dialect{
		Kind:           -1,
		OpenIdent:      openIdent,
		CloseIdent:     closeIdent,
		OpenString:     openString,
		CloseString:    closeString,
		ParamPrefix:    paramPrefix,
		PagingStrategy: LimitOffset,
		ConcatKind:     DoublePipe,
		LikeEscape:     '\\',
	}
}

// WrapIdent wraps name in the dialect's identifier quoting characters.
// Dotted names (schema.table) are wrapped segment-by-segment.
func WrapIdent(d Dialect, name string) string {
	if !strings.Contains(name, ".") {
		return d.OpenIdent + name + d.CloseIdent
	}
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = d.OpenIdent + p + d.CloseIdent
	}
	return strings.Join(parts, ".")
}

// WrapString wraps literal in the dialect's string quoting characters,
// doubling any embedded quote character (the ANSI escaping rule every
// predefined dialect shares).
func WrapString(d Dialect, literal string) string {
	escaped := strings.ReplaceAll(literal, d.CloseString, d.CloseString+d.CloseString)
	return d.OpenString + escaped + d.CloseString
}

// ParamRef renders the dialect-correct reference to a bound parameter.
// index is the 1-based positional index, used by PostgreSql ("$n") and
// Oracle (":n"); MySql and DB2 render a bare "?" that ignores name and
// index alike.
func ParamRef(d Dialect, name string, index int) string {
	switch d.Kind {
	case MySQL, DB2:
		return "?"
	case Oracle:
		return d.ParamPrefix + strconv.Itoa(index)
	case PostgreSQL:
		return d.ParamPrefix + strconv.Itoa(index)
	default:
		return d.ParamPrefix + name
	}
}

// Page describes where paging text must be spliced into a rendered SELECT:
// Prefix goes immediately after "SELECT " (used by Top); Suffix goes at the
// end of the statement (used by every other strategy); Predicate is an
// additional WHERE-clause fragment (used by RowNum, which has no native
// suffix syntax).
type Page struct {
	Prefix    string
	Suffix    string
	Predicate string
}

// Paging produces the dialect-correct paging fragment for offset/limit.
// offset may be 0 (first page); limit <= 0 means "no limit" and yields a
// zero Page.
func Paging(d Dialect, offset, limit int) Page {
	if limit <= 0 {
		return Page{}
	}
	switch d.PagingStrategy {
	case OffsetFetch:
		return Page{Suffix: fmt.Sprintf("OFFSET %d ROWS FETCH NEXT %d ROWS ONLY", offset, limit)}
	case LimitOffset:
		return Page{Suffix: fmt.Sprintf("LIMIT %d OFFSET %d", limit, offset)}
	case RowNum:
		if offset == 0 {
			return Page{Predicate: fmt.Sprintf("ROWNUM <= %d", limit)}
		}
		return Page{Predicate: fmt.Sprintf("ROWNUM <= %d AND ROWNUM > %d", offset+limit, offset)}
	case Top:
		return Page{Prefix: fmt.Sprintf("TOP (%d) ", limit)}
	default:
		return Page{}
	}
}

// ConcatExpr joins operand expressions with the dialect's string
// concatenation idiom.
func ConcatExpr(d Dialect, operands ...string) string {
	switch d.ConcatKind {
	case Plus:
		return strings.Join(operands, " + ")
	case Concat:
		return "CONCAT(" + strings.Join(operands, ", ") + ")"
	case DoublePipe:
		return strings.Join(operands, " || ")
	default:
		return strings.Join(operands, " || ")
	}
}

// Like renders a LIKE predicate for column against pattern (already wildcard
// escaped by the caller). patternExpr is used as given: Like adds no
// wildcards and does not compose it with ConcatExpr, whether it is a
// literal or a parameter reference.
func Like(d Dialect, columnExpr, patternExpr string) string {
	return fmt.Sprintf("%s LIKE %s ESCAPE '%c'", columnExpr, patternExpr, d.LikeEscape)
}

// BoolLiteral renders a boolean literal per dialect idiom: SqlServer and
// Sqlite represent booleans as 0/1 integers; PostgreSql and MySql accept
// the TRUE/FALSE keywords.
func BoolLiteral(d Dialect, v bool) string {
	switch d.Kind {
	case SQLServer, SQLite:
		if v {
			return "1"
		}
		return "0"
	default:
		if v {
			return "TRUE"
		}
		return "FALSE"
	}
}

// EscapeLikeWildcards escapes the LIKE-special characters %, _ and the
// dialect's escape byte itself, so a literal substring search never
// accidentally behaves as a wildcard pattern.
func EscapeLikeWildcards(d Dialect, s string) string {
	esc := string(d.LikeEscape)
	s = strings.ReplaceAll(s, esc, esc+esc)
	s = strings.ReplaceAll(s, "%", esc+"%")
	s = strings.ReplaceAll(s, "_", esc+"_")
	return s
}
