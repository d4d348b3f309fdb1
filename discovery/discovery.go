// Package discovery is the Discovery Pass (C7). It loads a Go package with
// golang.org/x/tools/go/packages, walks its syntax and type-checked
// semantic model for repository markers (package attrs), and builds one
// Repository Spec per marked struct. The walk style — parse with a
// fileset, match AST nodes, cross-reference go/types.Info — follows the
// same shape leapstack-labs-leapsql's architecture tests use to police
// its own tree (pkg/core/arch_test.go), generalized here from a test
// assertion into the generator's primary input stage.
package discovery

import (
	"fmt"
	"go/ast"
	"go/types"
	"strconv"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/sqlxgen/sqlxgen/dialect"
	"github.com/sqlxgen/sqlxgen/opinfer"
	"github.com/sqlxgen/sqlxgen/typesys"
)

// Diagnostic codes this package produces (spec §7).
var (
	ErrTargetNotInterface = fmt.Errorf("discovery: repository-for target is not an interface")
	ErrMissingConnection  = fmt.Errorf("discovery: repository struct has no connection field")
	ErrAmbiguousDialect   = fmt.Errorf("discovery: class and method dialects conflict")
)

// MethodSource identifies where a Method Spec's SQL comes from.
type MethodSource int

const (
	SourceInferred MethodSource = iota
	SourceTemplate
	SourceRawSQL
	SourceExpression
)

// Method is the Method Spec (spec §3): one interface method slated for
// generation, with its resolved operation kind and SQL source.
type Method struct {
	Name               string
	Func               *types.Func
	Source             MethodSource
	SQLTemplate        string
	RawSQL             string
	TableOverride      string
	ExplicitOp         *opinfer.Kind
	ReturnsInsertedID  bool
	HasCancellation    bool
	Params             []Param
	Return             *typesys.Classification
	Dialect            dialect.Dialect
}

// Param is one method parameter available to the template/expression
// renderers.
type Param struct {
	Name  string
	Class *typesys.Classification
}

// Repository is the Repository Spec (spec §3): a discovered struct, the
// service interface it implements, its resolved dialect, and its methods.
type Repository struct {
	ImplName  string
	ImplType  *types.Named
	Iface     *types.Named
	Dialect   dialect.Dialect
	Methods   []Method
	Package   *packages.Package
}

// connFieldTypeNames is the set of connection-abstraction type names the
// MissingConnection check accepts, matching the common database/sql
// handle shapes (spec §4.7: "primary-constructor parameter whose declared
// type is the connection abstraction").
var connFieldTypeNames = map[string]bool{
	"database/sql.DB": true,
	"database/sql.Tx": true,
	"database/sql.Conn": true,
}

// Load parses and type-checks the package at dir (a directory or Go
// package pattern understood by golang.org/x/tools/go/packages) and
// returns every Repository Spec it finds, along with non-fatal warnings.
// defaultDialect is the configured global fallback spec §3's Repository
// Spec calls for ("dialect defaults to a configured global or
// first-encountered dialect attribute on class or method"), used for any
// repository/method that carries neither a class- nor method-level
// dialect directive.
func Load(dir string, defaultDialect dialect.Dialect) ([]*Repository, []string, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedSyntax |
			packages.NeedTypes | packages.NeedTypesInfo | packages.NeedDeps | packages.NeedImports,
	}
	pkgs, err := packages.Load(cfg, dir)
	if err != nil {
		return nil, nil, fmt.Errorf("discovery: load %s: %w", dir, err)
	}
	var repos []*Repository
	var warnings []string
	analyzer := typesys.NewAnalyzer()
	for _, pkg := range pkgs {
		for _, err := range pkg.Errors {
			warnings = append(warnings, err.Error())
		}
		found, errs := scanPackage(pkg, analyzer, defaultDialect)
		repos = append(repos, found...)
		for _, e := range errs {
			warnings = append(warnings, e.Error())
		}
	}
	return repos, warnings, nil
}

func scanPackage(pkg *packages.Package, analyzer *typesys.Analyzer, defaultDialect dialect.Dialect) ([]*Repository, []error) {
	var repos []*Repository
	var errs []error
	for _, file := range pkg.Syntax {
		ast.Inspect(file, func(n ast.Node) bool {
			ts, ok := n.(*ast.TypeSpec)
			if !ok {
				return true
			}
			st, ok := ts.Type.(*ast.StructType)
			if !ok {
				return true
			}
			iface, ok := repositoryForTarget(pkg, st)
			if !ok {
				return true
			}
			repo, err := buildRepository(pkg, ts, st, iface, analyzer, defaultDialect)
			if err != nil {
				errs = append(errs, err)
				return true
			}
			repos = append(repos, repo)
			return true
		})
	}
	return repos, errs
}

// repositoryForTarget finds an embedded attrs.RepositoryFor[T] field in st
// and returns T's *types.Named whether or not T is an interface (spec
// §4.7's TargetNotInterface check is surfaced as an error from
// buildRepository instead, so a non-interface T still gets a diagnostic
// rather than being silently skipped).
func repositoryForTarget(pkg *packages.Package, st *ast.StructType) (*types.Named, bool) {
	if st.Fields == nil {
		return nil, false
	}
	for _, f := range st.Fields.List {
		if len(f.Names) != 0 {
			continue // not an embedded field
		}
		named, ok := embeddedGenericInstance(pkg, f.Type, "RepositoryFor")
		if !ok {
			continue
		}
		return named, true
	}
	return nil, false
}

// embeddedGenericInstance matches an embedded field expression of the form
// pkg.Name[T] (an *ast.IndexExpr or *ast.IndexListExpr whose X is a
// qualified identifier ending in wantName) and returns T's resolved named
// type via the package's type-checked Info.
func embeddedGenericInstance(pkg *packages.Package, expr ast.Expr, wantName string) (*types.Named, bool) {
	var xExpr, argExpr ast.Expr
	switch e := expr.(type) {
	case *ast.IndexExpr:
		xExpr, argExpr = e.X, e.Index
	case *ast.IndexListExpr:
		if len(e.Indices) != 1 {
			return nil, false
		}
		xExpr, argExpr = e.X, e.Indices[0]
	default:
		return nil, false
	}
	sel, ok := xExpr.(*ast.SelectorExpr)
	if !ok || sel.Sel.Name != wantName {
		return nil, false
	}
	tv, ok := pkg.TypesInfo.Types[argExpr]
	if !ok {
		return nil, false
	}
	named, ok := tv.Type.(*types.Named)
	if !ok {
		return nil, false
	}
	return named, true
}

func buildRepository(pkg *packages.Package, ts *ast.TypeSpec, st *ast.StructType, iface *types.Named, analyzer *typesys.Analyzer, defaultDialect dialect.Dialect) (*Repository, error) {
	if _, ok := iface.Underlying().(*types.Interface); !ok {
		return nil, fmt.Errorf("%w: %s", ErrTargetNotInterface, iface.Obj().Name())
	}
	obj := pkg.Types.Scope().Lookup(ts.Name.Name)
	implNamed, ok := obj.Type().(*types.Named)
	if !ok {
		return nil, fmt.Errorf("discovery: %s is not a named type", ts.Name.Name)
	}

	classDialect, classOK := directiveDialect(ts.Doc)
	if !hasConnectionField(st) {
		return nil, fmt.Errorf("%w: %s", ErrMissingConnection, ts.Name.Name)
	}

	ifaceType := iface.Underlying().(*types.Interface).Complete()
	methods := make([]Method, 0, ifaceType.NumMethods())
	ifaceDecl := findInterfaceDecl(pkg, iface)
	for i := 0; i < ifaceType.NumMethods(); i++ {
		fn := ifaceType.Method(i)
		doc := methodDoc(ifaceDecl, fn.Name())
		m, err := buildMethod(fn, doc, analyzer)
		if err != nil {
			return nil, err
		}
		methodDialect, methodOK := directiveDialect(doc)
		d := classDialect
		if !classOK {
			d = defaultDialect
		}
		if methodOK {
			if classOK && methodDialect.Kind != classDialect.Kind {
				return nil, fmt.Errorf("%w: %s.%s", ErrAmbiguousDialect, ts.Name.Name, fn.Name())
			}
			d = methodDialect
		}
		m.Dialect = d
		methods = append(methods, m)
	}

	d := classDialect
	if !classOK {
		d = defaultDialect
	}

	return &Repository{
		ImplName: ts.Name.Name,
		ImplType: implNamed,
		Iface:    iface,
		Dialect:  d,
		Methods:  methods,
		Package:  pkg,
	}, nil
}

func hasConnectionField(st *ast.StructType) bool {
	if st.Fields == nil {
		return false
	}
	for _, f := range st.Fields.List {
		if typeRefName(f.Type) != "" {
			if connFieldTypeNames[typeRefName(f.Type)] {
				return true
			}
		}
	}
	return false
}

// typeRefName renders a *sql.DB / sql.DB-shaped expression as
// "database/sql.DB" using only lexical matching on the selector, since the
// Discovery Pass has already loaded the package's imports and a precise
// types.Info lookup is unnecessary for this coarse a check.
func typeRefName(expr ast.Expr) string {
	star, ok := expr.(*ast.StarExpr)
	if ok {
		expr = star.X
	}
	sel, ok := expr.(*ast.SelectorExpr)
	if !ok {
		return ""
	}
	pkgIdent, ok := sel.X.(*ast.Ident)
	if !ok {
		return ""
	}
	if pkgIdent.Name != "sql" {
		return ""
	}
	return "database/sql." + sel.Sel.Name
}

func findInterfaceDecl(pkg *packages.Package, iface *types.Named) *ast.InterfaceType {
	name := iface.Obj().Name()
	for _, file := range pkg.Syntax {
		for _, decl := range file.Decls {
			gd, ok := decl.(*ast.GenDecl)
			if !ok {
				continue
			}
			for _, spec := range gd.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok || ts.Name.Name != name {
					continue
				}
				if it, ok := ts.Type.(*ast.InterfaceType); ok {
					return it
				}
			}
		}
	}
	return nil
}

func methodDoc(iface *ast.InterfaceType, name string) *ast.CommentGroup {
	if iface == nil || iface.Methods == nil {
		return nil
	}
	for _, f := range iface.Methods.List {
		for _, n := range f.Names {
			if n.Name == name {
				return f.Doc
			}
		}
	}
	return nil
}

func buildMethod(fn *types.Func, doc *ast.CommentGroup, analyzer *typesys.Analyzer) (Method, error) {
	sig := fn.Type().(*types.Signature)
	m := Method{Name: fn.Name(), Func: fn}

	for i := 0; i < sig.Params().Len(); i++ {
		p := sig.Params().At(i)
		if isContextType(p.Type()) {
			m.HasCancellation = true
			m.Params = append(m.Params, Param{Name: p.Name(), Class: nil})
			continue
		}
		cls, err := analyzer.Classify(p.Type())
		if err != nil {
			return Method{}, fmt.Errorf("discovery: %s param %s: %w", fn.Name(), p.Name(), err)
		}
		m.Params = append(m.Params, Param{Name: paramName(p, i), Class: cls})
	}

	if n := sig.Results().Len(); n > 0 {
		valueIdx := -1
		for i := 0; i < n; i++ {
			if !isErrorType(sig.Results().At(i).Type()) {
				valueIdx = i
				break
			}
		}
		if valueIdx >= 0 {
			cls, err := analyzer.Classify(sig.Results().At(valueIdx).Type())
			if err != nil {
				return Method{}, fmt.Errorf("discovery: %s return: %w", fn.Name(), err)
			}
			m.Return = cls
		}
	}

	if directives := parseDirectives(doc); directives != nil {
		if v, ok := directives["sql"]; ok {
			m.Source = SourceTemplate
			m.SQLTemplate = v
		}
		if v, ok := directives["raw-sql"]; ok {
			m.Source = SourceRawSQL
			m.RawSQL = v
		}
		if v, ok := directives["sql-template"]; ok {
			m.Source = SourceTemplate
			m.SQLTemplate = v
		}
		if v, ok := directives["table"]; ok {
			m.TableOverride = v
		}
		if _, ok := directives["returns-inserted-id"]; ok {
			m.ReturnsInsertedID = true
		}
		if v, ok := directives["execute-type"]; ok {
			if k, ok := parseOpKind(v); ok {
				m.ExplicitOp = &k
			}
		}
	}
	return m, nil
}

func paramName(p *types.Var, i int) string {
	if p.Name() != "" {
		return p.Name()
	}
	return fmt.Sprintf("arg%d", i)
}

func isContextType(t types.Type) bool {
	named, ok := t.(*types.Named)
	if !ok {
		return false
	}
	return named.Obj().Pkg() != nil && named.Obj().Pkg().Path() == "context" && named.Obj().Name() == "Context"
}

func isErrorType(t types.Type) bool {
	return t.String() == "error"
}

// parseOpKind maps an "execute-type" directive value (a name from the
// spec §6 operation-kind enum) to an opinfer.Kind.
func parseOpKind(v string) (opinfer.Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "select":
		return opinfer.Select, true
	case "scalar":
		return opinfer.Scalar, true
	case "exists":
		return opinfer.Exists, true
	case "insert":
		return opinfer.Insert, true
	case "update":
		return opinfer.Update, true
	case "delete":
		return opinfer.Delete, true
	case "batchinsert":
		return opinfer.BatchInsert, true
	case "batchupdate":
		return opinfer.BatchUpdate, true
	case "batchdelete":
		return opinfer.BatchDelete, true
	case "batchcommand":
		return opinfer.BatchCommand, true
	default:
		return 0, false
	}
}

// directiveDialect scans doc for a `// +sqlxgen:dialect <Name>` marker.
func directiveDialect(doc *ast.CommentGroup) (dialect.Dialect, bool) {
	directives := parseDirectives(doc)
	if directives == nil {
		return dialect.Dialect{}, false
	}
	v, ok := directives["dialect"]
	if !ok {
		return dialect.Dialect{}, false
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "mysql":
		return dialect.Lookup(dialect.MySQL), true
	case "sqlserver":
		return dialect.Lookup(dialect.SQLServer), true
	case "postgresql", "postgres":
		return dialect.Lookup(dialect.PostgreSQL), true
	case "oracle":
		return dialect.Lookup(dialect.Oracle), true
	case "db2":
		return dialect.Lookup(dialect.DB2), true
	case "sqlite":
		return dialect.Lookup(dialect.SQLite), true
	default:
		return dialect.Dialect{}, false
	}
}

// parseDirectives extracts every `// +sqlxgen:<name> <value...>` line from
// doc into a name->value map. A directive value that looks like a
// double-quoted Go string literal is unquoted.
func parseDirectives(doc *ast.CommentGroup) map[string]string {
	if doc == nil {
		return nil
	}
	out := map[string]string{}
	for _, c := range doc.List {
		text := strings.TrimSpace(strings.TrimPrefix(c.Text, "//"))
		if !strings.HasPrefix(text, "+sqlxgen:") {
			continue
		}
		rest := strings.TrimPrefix(text, "+sqlxgen:")
		name, value, _ := strings.Cut(rest, " ")
		value = strings.TrimSpace(value)
		if unquoted, err := strconv.Unquote(value); err == nil {
			value = unquoted
		}
		out[strings.TrimSpace(name)] = value
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
