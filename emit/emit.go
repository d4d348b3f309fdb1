// Package emit is the Emitter (C8). For each discovered method it
// synthesizes a Go method body with dave/jennifer: argument validation,
// connection/command acquisition with release-on-every-exit-path
// semantics, parameter binding, execution dispatch per operation kind,
// cancellation handling, and a doc comment. The per-file assembly this
// package's File builds on mirrors the teacher's JenniferGenerator
// (compiler/gen/generate.go): one jen.File per repository, one jen.Func
// per method, streamed rather than template-rendered.
package emit

import (
	"fmt"
	"go/types"

	"github.com/dave/jennifer/jen"

	"github.com/sqlxgen/sqlxgen/dialect"
	"github.com/sqlxgen/sqlxgen/discovery"
	"github.com/sqlxgen/sqlxgen/opinfer"
	"github.com/sqlxgen/sqlxgen/typesys"
)

// Rendered is the SQL and bound parameters a method's body executes,
// produced upstream by either the Template Engine or the Expression
// Translator (or expanded from the Driver's synthesized default template
// when the method has neither).
type Rendered struct {
	SQL    string
	Params []RenderedParam
}

// RenderedParam is one bound parameter, passed as a positional argument of
// the generated database/sql call: Expr is the Go expression yielding its value (a method
// parameter reference, an entity property selector, or a literal).
type RenderedParam struct {
	Name string
	Expr jen.Code
}

// File assembles one repository's generated source file.
type File struct {
	PackageName string
	jenFile     *jen.File
}

// NewFile starts a File for packageName.
func NewFile(packageName string) *File {
	f := jen.NewFile(packageName)
	f.HeaderComment("Code generated by sqlxgen. DO NOT EDIT.")
	return &File{PackageName: packageName, jenFile: f}
}

// Render returns the formatted (but not goimports-processed) Go source.
func (f *File) Render() ([]byte, error) {
	var buf []byte
	w := &byteWriter{}
	if err := f.jenFile.Render(w); err != nil {
		return nil, err
	}
	buf = w.buf
	return buf, nil
}

type byteWriter struct{ buf []byte }

func (w *byteWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	return len(p), nil
}

// Method emits one method implementation onto the repository struct
// receiver named recv (e.g. "r"; "" also yields "r") of type *structName
// for m, whose SQL and parameter
// bindings have already been resolved by the Template Engine or
// Translator into rendered.
func (f *File) Method(recv, structName string, m discovery.Method, op opinfer.Kind, d dialect.Dialect, entity *typesys.Entity, rendered Rendered) error {
	fn := jen.Func().Params(jen.Id(recvVar(recv)).Op("*").Id(structName)).Id(m.Name)
	params, err := paramList(m)
	if err != nil {
		return err
	}
	fn = fn.Params(params...)
	fn = fn.Params(returnList(m)...)

	body, err := methodBody(recvVar(recv), m, op, d, entity, rendered)
	if err != nil {
		return err
	}
	for _, line := range docLines(m, op) {
		f.jenFile.Comment(line)
	}
	f.jenFile.Add(fn.Block(body...).Line())
	return nil
}

func recvVar(recv string) string {
	if recv == "" {
		return "r"
	}
	return recv
}

// docLines builds the structured doc comment spec §4.8 step 7 calls for:
// one line naming the operation kind, and one line per CancellationToken
// parameter.
func docLines(m discovery.Method, op opinfer.Kind) []string {
	lines := []string{fmt.Sprintf("%s performs a %s operation.", m.Name, op)}
	for _, p := range m.Params {
		if p.Class == nil {
			lines = append(lines, fmt.Sprintf("%s carries cancellation for this call.", p.Name))
		}
	}
	return lines
}

func paramList(m discovery.Method) ([]jen.Code, error) {
	var out []jen.Code
	for _, p := range m.Params {
		if p.Class == nil {
			out = append(out, jen.Id(p.Name).Qual("context", "Context"))
			continue
		}
		out = append(out, jen.Id(p.Name).Add(goType(p.Class)))
	}
	return out, nil
}

func returnList(m discovery.Method) []jen.Code {
	var out []jen.Code
	if m.Return != nil {
		out = append(out, goType(m.Return))
	} else if m.ReturnsInsertedID {
		out = append(out, jen.Int64())
	}
	out = append(out, jen.Error())
	return out
}

func goType(c *typesys.Classification) jen.Code {
	var base jen.Code
	switch c.Category {
	case typesys.CategoryEntity:
		// TODO: qualify with the entity's package path (jen.Qual) once the
		// Driver threads discovery's *types.Named through to the Emitter
		// instead of just its display name; same-package entities are
		// unaffected.
		base = jen.Op("*").Id(c.GoType.(*types.Named).Obj().Name())
	case typesys.CategorySequence:
		elem := goType(c.Element)
		base = jen.Index().Add(elem)
		return base
	case typesys.CategoryScalar:
		base = scalarGoType(c.ScalarKind)
	default:
		base = jen.Any()
	}
	if c.Nullable && c.Category != typesys.CategoryEntity {
		return jen.Op("*").Add(base)
	}
	return base
}

func scalarGoType(k typesys.ScalarKind) jen.Code {
	switch k {
	case typesys.ScalarString:
		return jen.String()
	case typesys.ScalarBool:
		return jen.Bool()
	case typesys.ScalarInt:
		return jen.Int()
	case typesys.ScalarInt64:
		return jen.Int64()
	case typesys.ScalarFloat64:
		return jen.Float64()
	case typesys.ScalarTime:
		return jen.Qual("time", "Time")
	case typesys.ScalarDuration:
		return jen.Qual("time", "Duration")
	case typesys.ScalarUUID:
		return jen.Qual("github.com/google/uuid", "UUID")
	case typesys.ScalarBytes:
		return jen.Index().Byte()
	case typesys.ScalarDecimalLike:
		return jen.Qual("github.com/shopspring/decimal", "Decimal")
	default:
		return jen.Any()
	}
}

func methodBody(recv string, m discovery.Method, op opinfer.Kind, d dialect.Dialect, entity *typesys.Entity, rendered Rendered) ([]jen.Code, error) {
	var stmts []jen.Code

	stmts = append(stmts, cancellationGuard(m)...)
	stmts = append(stmts, argumentGuards(m, op)...)

	switch {
	case op.IsBatch():
		stmts = append(stmts, batchBody(recv, m, rendered)...)
	case op == opinfer.Scalar || op == opinfer.Exists:
		stmts = append(stmts, scalarBody(recv, m, op, rendered)...)
	case op == opinfer.Insert, op == opinfer.Update, op == opinfer.Delete:
		stmts = append(stmts, nonQueryBody(recv, m, d, rendered)...)
	default:
		stmts = append(stmts, readerBody(recv, m, entity, rendered)...)
	}
	return stmts, nil
}

func cancellationGuard(m discovery.Method) []jen.Code {
	if !m.HasCancellation {
		return nil
	}
	var ctxName string
	for _, p := range m.Params {
		if p.Class == nil {
			ctxName = p.Name
			break
		}
	}
	if ctxName == "" {
		return nil
	}
	return []jen.Code{
		jen.If(jen.Id(ctxName).Dot("Err").Call().Op("!=").Nil()).Block(
			jen.Return(zeroReturnValues(m, jen.Id(ctxName).Dot("Err").Call())...),
		),
	}
}

// argumentGuards emits an InvalidArgument-style empty-length guard for
// every sequence parameter of a batch op (spec §4.8 step 1). No other
// parameter gets a guard.
func argumentGuards(m discovery.Method, op opinfer.Kind) []jen.Code {
	var stmts []jen.Code
	for _, p := range m.Params {
		if p.Class == nil {
			continue
		}
		if op.IsBatch() && p.Class.Category == typesys.CategorySequence {
			stmts = append(stmts, jen.If(jen.Len(jen.Id(p.Name)).Op("==").Lit(0)).Block(
				jen.Return(zeroReturnValues(m, jen.Qual("fmt", "Errorf").Call(jen.Lit(p.Name+": "+"must not be empty")))...),
			))
		}
	}
	return stmts
}

func zeroReturnValues(m discovery.Method, errExpr jen.Code) []jen.Code {
	var out []jen.Code
	if m.Return != nil {
		out = append(out, m.Return.DefaultExpr())
	} else if m.ReturnsInsertedID {
		out = append(out, jen.Lit(0))
	}
	out = append(out, errExpr)
	return out
}

func sqlLiteral(rendered Rendered) jen.Code {
	return jen.Lit(rendered.SQL)
}

// ctxIdent returns the name of m's context.Context parameter, if it has
// one and the Emitter should thread it through to the driver call.
func ctxIdent(m discovery.Method) (string, bool) {
	if !m.HasCancellation {
		return "", false
	}
	for _, p := range m.Params {
		if p.Class == nil {
			return p.Name, true
		}
	}
	return "", false
}

func callArgs(m discovery.Method, rendered Rendered) []jen.Code {
	return append([]jen.Code{sqlLiteral(rendered)}, flatten(rendered)...)
}

// queryRowCall emits r.conn.QueryRowContext(ctx, sql, args...) when m
// carries a context.Context parameter, falling back to the context-less
// QueryRow otherwise. Per spec §4.8 step 5 and §5 ("cancellation points
// coincide with suspension points"), the context must reach the driver
// call itself so cancellation after the upfront cancellationGuard check
// still takes effect.
func queryRowCall(recv string, m discovery.Method, rendered Rendered) *jen.Statement {
	args := callArgs(m, rendered)
	if ctx, ok := ctxIdent(m); ok {
		return jen.Id(recv).Dot("conn").Dot("QueryRowContext").Call(append([]jen.Code{jen.Id(ctx)}, args...)...)
	}
	return jen.Id(recv).Dot("conn").Dot("QueryRow").Call(args...)
}

func queryCall(recv string, m discovery.Method, rendered Rendered) *jen.Statement {
	args := callArgs(m, rendered)
	if ctx, ok := ctxIdent(m); ok {
		return jen.Id(recv).Dot("conn").Dot("QueryContext").Call(append([]jen.Code{jen.Id(ctx)}, args...)...)
	}
	return jen.Id(recv).Dot("conn").Dot("Query").Call(args...)
}

// execCall appends ExecContext/Exec onto base (either "r.conn" or a
// transaction identifier), threading m's context when it has one.
func execCall(base *jen.Statement, m discovery.Method, rendered Rendered) *jen.Statement {
	args := callArgs(m, rendered)
	if ctx, ok := ctxIdent(m); ok {
		return base.Dot("ExecContext").Call(append([]jen.Code{jen.Id(ctx)}, args...)...)
	}
	return base.Dot("Exec").Call(args...)
}

// beginCall starts the transaction batchBody executes within, using
// BeginTx(ctx, nil) when m carries a context.Context parameter.
func beginCall(recv string, m discovery.Method) *jen.Statement {
	if ctx, ok := ctxIdent(m); ok {
		return jen.Id(recv).Dot("conn").Dot("BeginTx").Call(jen.Id(ctx), jen.Nil())
	}
	return jen.Id(recv).Dot("conn").Dot("Begin").Call()
}

func scalarBody(recv string, m discovery.Method, op opinfer.Kind, rendered Rendered) []jen.Code {
	var stmts []jen.Code
	rowExpr := queryRowCall(recv, m, rendered)

	if op == opinfer.Exists {
		// Exists* methods declare a bool return, but the probe SQL yields a
		// COUNT(*)/0-or-1 integer — Scan into an int64 scratch and compare,
		// per spec §4.8 ("Exists* returns value != 0"); scanning the count
		// directly into the declared bool would be a Scan type mismatch.
		stmts = append(stmts, jen.Var().Id("v").Int64())
		stmts = append(stmts, jen.If(jen.Err().Op(":=").Add(rowExpr).Dot("Scan").Call(jen.Op("&").Id("v")), jen.Err().Op("!=").Nil()).Block(
			jen.Return(zeroReturnValues(m, jen.Err())...),
		))
		stmts = append(stmts, jen.Return(jen.Id("v").Op("!=").Lit(0), jen.Nil()))
		return stmts
	}

	var scanTarget jen.Code = jen.Id("v")
	var decl jen.Code = jen.Var().Id("v").Any()
	if m.Return != nil {
		decl = jen.Var().Id("v").Add(goType(m.Return))
	}
	stmts = append(stmts, decl)
	stmts = append(stmts, jen.If(jen.Err().Op(":=").Add(rowExpr).Dot("Scan").Call(jen.Op("&").Add(scanTarget)), jen.Err().Op("!=").Nil()).Block(
		jen.Return(zeroReturnValues(m, jen.Err())...),
	))
	stmts = append(stmts, jen.Return(jen.Id("v"), jen.Nil()))
	return stmts
}

func nonQueryBody(recv string, m discovery.Method, d dialect.Dialect, rendered Rendered) []jen.Code {
	var stmts []jen.Code
	if m.ReturnsInsertedID {
		switch d.Kind {
		case dialect.PostgreSQL:
			stmts = append(stmts, jen.Var().Id("id").Int64())
			stmts = append(stmts, jen.If(
				jen.Err().Op(":=").Add(queryRowCall(recv, m, rendered)).Dot("Scan").Call(jen.Op("&").Id("id")),
				jen.Err().Op("!=").Nil(),
			).Block(jen.Return(jen.Lit(0), jen.Err())))
			stmts = append(stmts, jen.Return(jen.Id("id"), jen.Nil()))
			return stmts
		default:
			stmts = append(stmts, jen.Id("res").Op(",").Err().Op(":=").Add(execCall(jen.Id(recv).Dot("conn"), m, rendered)))
			stmts = append(stmts, jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Lit(0), jen.Err())))
			stmts = append(stmts, jen.Return(jen.Id("res").Dot("LastInsertId").Call()))
			return stmts
		}
	}
	stmts = append(stmts, jen.List(jen.Id("res"), jen.Err()).Op(":=").Add(execCall(jen.Id(recv).Dot("conn"), m, rendered)))
	if m.Return == nil {
		stmts = append(stmts, jen.Return(jen.Err()))
		return stmts
	}
	stmts = append(stmts, jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(zeroReturnValues(m, jen.Err())...)))
	stmts = append(stmts, jen.List(jen.Id("n"), jen.Err()).Op(":=").Id("res").Dot("RowsAffected").Call())
	stmts = append(stmts, jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(zeroReturnValues(m, jen.Err())...)))
	stmts = append(stmts, jen.Return(jen.Add(goType(m.Return)).Call(jen.Id("n")), jen.Nil()))
	return stmts
}

// readerBody emits a database/sql Query + rows.Next loop and binds every
// scanned row into a freshly constructed entity, per spec §4.8 step 4. Scan
// destination ordinals follow entity.Properties' declaration order, which is
// exactly the order columns:auto lists them in (sqltemplate.expandColumns) —
// so any method whose SQL came from the columns:auto placeholder lines up
// without an explicit column list round-trip.
func readerBody(recv string, m discovery.Method, entity *typesys.Entity, rendered Rendered) []jen.Code {
	var stmts []jen.Code
	stmts = append(stmts, jen.List(jen.Id("rows"), jen.Err()).Op(":=").Add(queryCall(recv, m, rendered)))
	stmts = append(stmts, jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(zeroReturnValues(m, jen.Err())...)))
	stmts = append(stmts, jen.Defer().Id("rows").Dot("Close").Call())

	isSeq := m.Return != nil && m.Return.Category == typesys.CategorySequence
	var elemClass *typesys.Classification
	if isSeq {
		elemClass = m.Return.Element
	} else {
		elemClass = m.Return
	}

	if isSeq {
		elemType := goType(elemClass)
		stmts = append(stmts, jen.Var().Id("out").Index().Add(elemType))
		loopBody := append([]jen.Code{itemDecl(elemClass)}, scanStatements(entity, elemClass, []jen.Code{jen.Return(jen.Nil(), jen.Err())})...)
		loopBody = append(loopBody, jen.Id("out").Op("=").Append(jen.Id("out"), jen.Id("item")))
		stmts = append(stmts, jen.For(jen.Id("rows").Dot("Next").Call()).Block(loopBody...))
		stmts = append(stmts, jen.Return(jen.Id("out"), jen.Id("rows").Dot("Err").Call()))
		return stmts
	}

	stmts = append(stmts, jen.If(jen.Op("!").Id("rows").Dot("Next").Call()).Block(
		jen.Return(zeroReturnValues(m, jen.Id("rows").Dot("Err").Call())...),
	))
	stmts = append(stmts, itemDecl(elemClass))
	stmts = append(stmts, scanStatements(entity, elemClass, zeroReturnValues(m, jen.Err()))...)
	stmts = append(stmts, jen.Return(jen.Id("item"), jen.Nil()))
	return stmts
}

// itemDecl declares the per-row scratch variable readerBody scans into: a
// pointer composite literal for an Entity (so field selectors address
// directly into it), a plain var for a bare scalar reader query.
func itemDecl(elemClass *typesys.Classification) jen.Code {
	if elemClass != nil && elemClass.Category == typesys.CategoryEntity {
		name := elemClass.GoType.(*types.Named).Obj().Name()
		return jen.Id("item").Op(":=").Op("&").Id(name).Values()
	}
	var t jen.Code = jen.Any()
	if elemClass != nil {
		t = goType(elemClass)
	}
	return jen.Var().Id("item").Add(t)
}

// scanStatements binds one row's columns to item. For an Entity it declares
// one scratch variable per property (via typesys.Classification.Reader, the
// same strong-typed-accessor machinery the Type Analyzer exposes), scans
// into all of them in one rows.Scan call, then assigns each converted value
// onto item's field; for a bare scalar it scans straight into item.
func scanStatements(entity *typesys.Entity, elemClass *typesys.Classification, onErr []jen.Code) []jen.Code {
	if entity == nil || elemClass == nil || elemClass.Category != typesys.CategoryEntity {
		return []jen.Code{
			jen.If(jen.Err().Op(":=").Id("rows").Dot("Scan").Call(jen.Op("&").Id("item")), jen.Err().Op("!=").Nil()).Block(onErr...),
		}
	}
	var decls []jen.Code
	var scanArgs []jen.Code
	var assigns []jen.Code
	for i, p := range entity.Properties {
		if p.Class == nil {
			continue
		}
		varName := fmt.Sprintf("col%d", i)
		ra := p.Class.Reader(varName)
		decls = append(decls, ra.Decl)
		scanArgs = append(scanArgs, ra.ScanTarget)
		assigns = append(assigns, jen.Id("item").Dot(p.MemberName).Op("=").Add(ra.ValueExpr))
	}
	stmts := append([]jen.Code{}, decls...)
	stmts = append(stmts, jen.If(jen.Err().Op(":=").Id("rows").Dot("Scan").Call(scanArgs...), jen.Err().Op("!=").Nil()).Block(onErr...))
	stmts = append(stmts, assigns...)
	return stmts
}

func batchBody(recv string, m discovery.Method, rendered Rendered) []jen.Code {
	var seqParam string
	for _, p := range m.Params {
		if p.Class != nil && p.Class.Category == typesys.CategorySequence {
			seqParam = p.Name
			break
		}
	}
	var stmts []jen.Code
	stmts = append(stmts, jen.List(jen.Id("tx"), jen.Err()).Op(":=").Add(beginCall(recv, m)))
	stmts = append(stmts, jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Lit(0), jen.Err())))
	stmts = append(stmts, jen.Var().Id("affected").Int())
	stmts = append(stmts, jen.For(jen.List(jen.Id("_"), jen.Id("item")).Op(":=").Range().Id(seqParam)).Block(
		jen.List(jen.Id("res"), jen.Err()).Op(":=").Add(execCall(jen.Id("tx"), m, rendered)),
		jen.If(jen.Err().Op("!=").Nil()).Block(
			jen.Id("tx").Dot("Rollback").Call(),
			jen.Return(jen.Lit(0), jen.Err()),
		),
		jen.List(jen.Id("n"), jen.Id("_")).Op(":=").Id("res").Dot("RowsAffected").Call(),
		jen.Id("affected").Op("+=").Int().Call(jen.Id("n")),
	))
	stmts = append(stmts, jen.If(jen.Err().Op(":=").Id("tx").Dot("Commit").Call(), jen.Err().Op("!=").Nil()).Block(
		jen.Return(jen.Lit(0), jen.Err()),
	))
	stmts = append(stmts, jen.Return(jen.Id("affected"), jen.Nil()))
	return stmts
}

func flatten(rendered Rendered) []jen.Code {
	var out []jen.Code
	for _, p := range rendered.Params {
		out = append(out, p.Expr)
	}
	return out
}
