// Package attrs is the Attribute Surface (C9): the marker vocabulary the
// Discovery Pass recognizes on host source. C# attributes have no direct
// analogue in Go, so the surface takes two cooperating forms, mirroring
// the kubebuilder/controller-tools marker convention:
//
//   - doc-comment directives of the form `// +sqlxgen:<name> <value>`,
//     parsed by package discovery directly out of the AST;
//   - the zero-size marker types declared here, embedded in the host
//     struct so `go/types` resolves them (RepositoryFor[T], DbSetType[T]);
//     a field's declared type carries the marker where a comment alone
//     could not express a type argument.
//
// If the host module does not already reference this package, the Driver
// auto-emits a copy of it (spec §6: "attribute surface, auto-emitted if
// absent") so `// +sqlxgen:...` directives always resolve against a type
// this module understands.
package attrs

import "github.com/sqlxgen/sqlxgen/dialect"

// Directive name constants for the `// +sqlxgen:<name> ...` comment
// vocabulary the Discovery Pass scans for.
const (
	DirectiveRepositoryFor   = "repository-for"
	DirectiveSqlDefine       = "dialect"
	DirectiveExecuteType     = "execute-type"
	DirectiveSqlx            = "sql"
	DirectiveRawSql          = "raw-sql"
	DirectiveSqlTemplate     = "sql-template"
	DirectiveTableName       = "table"
	DirectiveReturnInsertId  = "returns-inserted-id"
	DirectiveDbSet           = "db-set"
)

// DirectivePrefix is the marker comment prefix, matching the
// controller-tools/kubebuilder `+` convention.
const DirectivePrefix = "+sqlxgen:"

// RepositoryFor is a zero-size marker embedded in an implementation struct
// to designate T as the target service interface (spec §4.7/§6:
// "RepositoryFor(type) on a class"). Embedding it is equivalent to writing
// `// +sqlxgen:repository-for T` above the struct; the generic type
// argument lets discovery resolve T through go/types without parsing a
// type expression out of a comment string.
type RepositoryFor[T any] struct{}

// DbSetType is a zero-size marker selecting T as an alternative entity
// root when a repository's primary entity cannot be inferred from its
// interface's return shapes alone (spec §6: "DbSetType(type)"). The
// Discovery Pass does not read this marker; entity roots come from method
// return and parameter shapes only.
type DbSetType[T any] struct{}

// CustomDialect is the 5-tuple form SqlDefine accepts in place of a named
// Kind (spec §6: "dialect selection by enum or by a 5-tuple").
type CustomDialect struct {
	OpenIdent   string
	CloseIdent  string
	OpenString  string
	CloseString string
	ParamPrefix string
}

// SqlDefine selects the dialect for every method on the repository it
// annotates, either by a predefined Kind or by a CustomDialect tuple.
// Exactly one of Kind (via HasKind) or Custom should be set.
type SqlDefine struct {
	Kind    dialect.Kind
	HasKind bool
	Custom  *CustomDialect
}

// Resolve returns the dialect.Dialect this SqlDefine designates.
func (s SqlDefine) Resolve() dialect.Dialect {
	if s.Custom != nil {
		c := s.Custom
		return dialect.Custom(c.OpenIdent, c.CloseIdent, c.OpenString, c.CloseString, c.ParamPrefix)
	}
	return dialect.Lookup(s.Kind)
}

// SqlExecuteType declares an explicit operation kind and target table for
// a method, short-circuiting the Operation Inferrer's name-prefix step
// (spec §4.6 step 1, §6: "SqlExecuteType(op, table)"). Op holds the stable
// integer values from spec §6's enum table; package opinfer's Kind shares
// the same values, so a discovered SqlExecuteType.Op converts directly.
type SqlExecuteType struct {
	Op    int
	Table string
}

// Operation kind stable values (spec §6), duplicated here (rather than
// importing opinfer) so the attribute surface has no dependency on the
// inferrer it feeds — discovery converts between the two via identical
// integer values.
const (
	OpSelect = iota
	OpUpdate
	OpInsert
	OpDelete
	OpBatchInsert
	OpBatchUpdate
	OpBatchDelete
	OpBatchCommand
)

// ReturnInsertedId marks an Insert method as returning the newly generated
// key (spec §6: "marker for INSERT methods returning the new key").
type ReturnInsertedId struct{}

// TableName overrides the name-mapped table name for an entity or a single
// method (spec §6: "per-entity or per-method table override").
type TableName string

// Sqlx, RawSql, and SqlTemplate distinguish the three method-level SQL
// source kinds a `// +sqlxgen:sql|raw-sql|sql-template` directive may carry
// (spec §6): Sqlx and SqlTemplate both go through the same placeholder
// expansion and are treated identically; RawSql is copied verbatim with no
// expansion.
type Sqlx string
type RawSql string
type SqlTemplate string
