// Package opinfer is the Operation Inferrer (C6). It resolves the SQL
// operation kind for a discovered method using a three-step precedence
// chain — explicit attribute, SQL leading keyword, method-name prefix —
// falling back to Select, matching spec §4.6.
package opinfer

import (
	"fmt"
	"strings"
)

// Kind is the closed set of SQL operation kinds the generator recognizes.
// The integer values are part of the attribute surface (C9) and must stay
// stable.
type Kind int

const (
	Select Kind = iota
	Update
	Insert
	Delete
	BatchInsert
	BatchUpdate
	BatchDelete
	BatchCommand
	Scalar
	Exists
)

func (k Kind) String() string {
	switch k {
	case Select:
		return "Select"
	case Scalar:
		return "Scalar"
	case Exists:
		return "Exists"
	case Insert:
		return "Insert"
	case Update:
		return "Update"
	case Delete:
		return "Delete"
	case BatchInsert:
		return "BatchInsert"
	case BatchUpdate:
		return "BatchUpdate"
	case BatchDelete:
		return "BatchDelete"
	case BatchCommand:
		return "BatchCommand"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// IsBatch reports whether k is one of the Batch* kinds.
func (k Kind) IsBatch() bool {
	switch k {
	case BatchInsert, BatchUpdate, BatchDelete, BatchCommand:
		return true
	default:
		return false
	}
}

// ErrBatchRequiresCollection is the spec §4.6 diagnostic for a BatchCommand
// method with no sequence-typed parameter.
var ErrBatchRequiresCollection = fmt.Errorf("opinfer: BatchCommand requires a sequence parameter")

// Method is the subset of a discovered method's shape the inferrer needs:
// an explicit attribute kind (if any), the SQL source text (template,
// RawSql, or synthesized — whichever is present), the method name, and
// whether at least one parameter is sequence-shaped.
type Method struct {
	ExplicitKind   *Kind
	SQLText        string
	Name           string
	HasSequenceArg bool
}

var prefixTable = []struct {
	prefixes []string
	kind     Kind
}{
	{[]string{"get", "find", "select", "query", "list", "search"}, Select},
	{[]string{"count"}, Scalar},
	{[]string{"exists"}, Exists},
	{[]string{"add", "create", "insert"}, Insert},
	{[]string{"update", "modify", "set"}, Update},
	{[]string{"delete", "remove"}, Delete},
}

var sqlKeywordTable = []struct {
	keyword string
	kind    Kind
}{
	{"SELECT", Select},
	{"INSERT", Insert},
	{"UPDATE", Update},
	{"DELETE", Delete},
}

// Infer resolves m's operation kind following the precedence chain in
// spec §4.6: explicit attribute, then SQL leading keyword, then method-name
// prefix, then a default of Select. It returns ErrBatchRequiresCollection
// if the resolved kind is BatchCommand and m has no sequence parameter.
func Infer(m Method) (Kind, error) {
	kind := resolve(m)
	if kind == BatchCommand && !m.HasSequenceArg {
		return kind, ErrBatchRequiresCollection
	}
	return kind, nil
}

func resolve(m Method) Kind {
	if m.ExplicitKind != nil {
		return *m.ExplicitKind
	}
	if kind, ok := fromSQLKeyword(m.SQLText); ok {
		return kind
	}
	if kind, ok := fromNamePrefix(m.Name); ok {
		return kind
	}
	return Select
}

func fromSQLKeyword(sql string) (Kind, bool) {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return 0, false
	}
	upper := strings.ToUpper(trimmed)
	for _, e := range sqlKeywordTable {
		if strings.HasPrefix(upper, e.keyword) {
			return e.kind, true
		}
	}
	return 0, false
}

func fromNamePrefix(name string) (Kind, bool) {
	lower := strings.ToLower(name)
	for _, e := range prefixTable {
		for _, p := range e.prefixes {
			if strings.HasPrefix(lower, p) {
				return e.kind, true
			}
		}
	}
	return 0, false
}
