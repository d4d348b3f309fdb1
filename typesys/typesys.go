// Package typesys is the Type Analyzer (C3): it classifies a go/types.Type
// drawn from a discovered method's parameters and return values into one of
// Scalar, Entity, Sequence(Entity|Scalar), or a stripped future wrapper, and
// builds the per-run Entity Descriptor cache the Emitter and SQL Template
// Engine consult for column lists and reader targets.
package typesys

import (
	"fmt"
	"go/types"
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/sqlxgen/sqlxgen/namemap"
)

// Category is the coarse shape a type was classified into.
type Category int

const (
	// CategoryScalar covers primitives, string, time.Time, decimal-like
	// numerics, uuid.UUID, time.Duration, and enums.
	CategoryScalar Category = iota
	// CategoryEntity is a user-defined struct with >=1 readable field
	// outside the curated standard-library namespace set.
	CategoryEntity
	// CategorySequence is a slice (or named slice) of Entity or Scalar.
	CategorySequence
	// CategoryVoid is the empty return shape (methods returning only error).
	CategoryVoid
)

// ScalarKind refines CategoryScalar for reader-access and default-value
// selection.
type ScalarKind int

const (
	ScalarOther ScalarKind = iota
	ScalarString
	ScalarBool
	ScalarInt
	ScalarInt64
	ScalarFloat64
	ScalarDecimalLike
	ScalarTime
	ScalarDuration
	ScalarUUID
	ScalarBytes
	ScalarEnum
)

// Classification is the result of analyzing one go/types.Type.
type Classification struct {
	Category   Category
	ScalarKind ScalarKind
	GoType     types.Type
	Nullable   bool // T was a pointer to the classified type.
	Element    *Classification // set when Category == CategorySequence
	Async      bool            // the original type was a future wrapper (stripped).
}

// curatedStdNamespaces lists package paths whose named types are never
// classified as Entity, mirroring spec §4.3's "curated set of framework/
// standard namespaces".
var curatedStdNamespaces = map[string]bool{
	"time":            true,
	"database/sql":    true,
	"context":         true,
	"github.com/google/uuid": true,
}

// Analyzer classifies types and caches Entity Descriptors for one
// generation run (spec §3: "cache lives for one run").
type Analyzer struct {
	entities map[*types.Named]*Entity
}

// NewAnalyzer returns an Analyzer with an empty per-run Entity cache.
func NewAnalyzer() *Analyzer {
	return &Analyzer{entities: make(map[*types.Named]*Entity)}
}

// Classify analyzes t and returns its Classification. It strips pointer
// (nullable) and future-wrapper layers before settling on a final category.
func (a *Analyzer) Classify(t types.Type) (*Classification, error) {
	nullable := false
	async := false
	for {
		if ptr, ok := t.(*types.Pointer); ok {
			nullable = true
			t = ptr.Elem()
			continue
		}
		if named, ok := t.(*types.Named); ok && isFutureWrapper(named) {
			async = true
			t = named.TypeArgs().At(0)
			continue
		}
		break
	}

	if basic, ok := t.(*types.Basic); ok {
		return &Classification{Category: CategoryScalar, ScalarKind: basicScalarKind(basic), GoType: t, Nullable: nullable, Async: async}, nil
	}

	if named, ok := t.(*types.Named); ok {
		if kind, ok := namedScalarKind(named); ok {
			return &Classification{Category: CategoryScalar, ScalarKind: kind, GoType: t, Nullable: nullable, Async: async}, nil
		}
	}

	if isBytesSlice(t) {
		return &Classification{Category: CategoryScalar, ScalarKind: ScalarBytes, GoType: t, Nullable: nullable, Async: async}, nil
	}

	if elem, ok := sequenceElem(t); ok {
		ec, err := a.Classify(elem)
		if err != nil {
			return nil, err
		}
		return &Classification{Category: CategorySequence, GoType: t, Element: ec, Nullable: nullable, Async: async}, nil
	}

	if named, ok := t.(*types.Named); ok {
		if _, ok := named.Underlying().(*types.Struct); ok {
			if curatedStdNamespaces[pkgPath(named)] {
				return &Classification{Category: CategoryScalar, ScalarKind: ScalarOther, GoType: t, Nullable: nullable, Async: async}, nil
			}
			ent, err := a.Entity(named)
			if err != nil {
				return nil, err
			}
			if len(ent.Properties) == 0 {
				return nil, fmt.Errorf("typesys: %s has no readable properties, cannot be an Entity", named.Obj().Name())
			}
			return &Classification{Category: CategoryEntity, GoType: t, Nullable: nullable, Async: async}, nil
		}
		// enum: named type over a basic numeric/string underlying.
		if basic, ok := named.Underlying().(*types.Basic); ok {
			return &Classification{Category: CategoryScalar, ScalarKind: enumOrBasicKind(basic), GoType: t, Nullable: nullable, Async: async}, nil
		}
	}

	return nil, fmt.Errorf("typesys: cannot classify type %s", t)
}

func isFutureWrapper(named *types.Named) bool {
	if named.TypeArgs() == nil || named.TypeArgs().Len() != 1 {
		return false
	}
	name := named.Obj().Name()
	return strings.HasSuffix(name, "Future") || strings.HasSuffix(name, "Task") || strings.HasSuffix(name, "Deferred")
}

func sequenceElem(t types.Type) (types.Type, bool) {
	switch s := t.(type) {
	case *types.Slice:
		return s.Elem(), true
	case *types.Array:
		return s.Elem(), true
	case *types.Named:
		if u, ok := s.Underlying().(*types.Slice); ok {
			return u.Elem(), true
		}
	}
	return nil, false
}

func isBytesSlice(t types.Type) bool {
	s, ok := t.(*types.Slice)
	if !ok {
		return false
	}
	b, ok := s.Elem().(*types.Basic)
	return ok && b.Kind() == types.Byte
}

func basicScalarKind(b *types.Basic) ScalarKind {
	switch b.Info() {
	case types.IsBoolean:
		return ScalarBool
	case types.IsString:
		return ScalarString
	}
	switch b.Kind() {
	case types.Int64, types.Uint64:
		return ScalarInt64
	case types.Float32, types.Float64:
		return ScalarFloat64
	default:
		if b.Info()&types.IsInteger != 0 {
			return ScalarInt
		}
		return ScalarOther
	}
}

func enumOrBasicKind(b *types.Basic) ScalarKind {
	if b.Info()&types.IsInteger != 0 || b.Info()&types.IsString != 0 {
		return ScalarEnum
	}
	return ScalarOther
}

func namedScalarKind(named *types.Named) (ScalarKind, bool) {
	switch fmt.Sprintf("%s.%s", pkgPath(named), named.Obj().Name()) {
	case "time.Time":
		return ScalarTime, true
	case "time.Duration":
		return ScalarDuration, true
	case "github.com/google/uuid.UUID":
		return ScalarUUID, true
	case "github.com/shopspring/decimal.Decimal":
		return ScalarDecimalLike, true
	}
	return ScalarOther, false
}

func pkgPath(named *types.Named) string {
	if named.Obj() == nil || named.Obj().Pkg() == nil {
		return ""
	}
	return named.Obj().Pkg().Path()
}

// DefaultExpr returns the zero-value expression for this classification,
// per spec §4.3's default-value table.
func (c *Classification) DefaultExpr() jen.Code {
	if c.Nullable {
		return jen.Nil()
	}
	switch c.Category {
	case CategoryEntity:
		return jen.Nil()
	case CategorySequence:
		return jen.Nil()
	case CategoryScalar:
		switch c.ScalarKind {
		case ScalarBool:
			return jen.False()
		case ScalarString:
			return jen.Lit("")
		default:
			return jen.Lit(0)
		}
	default:
		return jen.Nil()
	}
}

// ReaderAccess describes how to materialize one column value from a
// database/sql row into this classification's Go representation: the
// scratch variable declaration, the address passed to rows.Scan, and the
// expression that converts the scratch variable into the final value.
type ReaderAccess struct {
	Decl       jen.Code // var raw <scratch-type>
	ScanTarget jen.Code // &raw, passed to rows.Scan
	ValueExpr  jen.Code // expression yielding the typed Go value
}

// Reader returns the ReaderAccess for a scalar classification bound to
// scratch variable varName. Go's database/sql already dispatches on the
// destination pointer's type (sql.Scanner/driver.Valuer), so the
// "strong-typed accessor" spec calls for is expressed here as choosing the
// correct scratch-variable type up front — *sql.NullString etc. for
// nullable scalars — rather than a runtime GetXxx call, avoiding the
// interface-boxing spec §4.3 warns about.
func (c *Classification) Reader(varName string) ReaderAccess {
	goType := c.scratchType()
	if c.Nullable {
		goType = c.nullScratchType()
	}
	decl := jen.Var().Id(varName).Add(goType)
	target := jen.Op("&").Id(varName)
	var value jen.Code = jen.Id(varName)
	if c.Nullable {
		value = c.nullValueExpr(varName)
	}
	return ReaderAccess{Decl: decl, ScanTarget: target, ValueExpr: value}
}

func (c *Classification) scratchType() jen.Code {
	switch c.ScalarKind {
	case ScalarString:
		return jen.String()
	case ScalarBool:
		return jen.Bool()
	case ScalarInt:
		return jen.Int()
	case ScalarInt64:
		return jen.Int64()
	case ScalarFloat64:
		return jen.Float64()
	case ScalarTime:
		return jen.Qual("time", "Time")
	case ScalarDuration:
		return jen.Qual("time", "Duration")
	case ScalarUUID:
		return jen.Qual("github.com/google/uuid", "UUID")
	case ScalarBytes:
		return jen.Index().Byte()
	case ScalarDecimalLike:
		return jen.Qual("github.com/shopspring/decimal", "Decimal")
	default:
		return jen.Any()
	}
}

func (c *Classification) nullScratchType() jen.Code {
	switch c.ScalarKind {
	case ScalarString:
		return jen.Qual("database/sql", "NullString")
	case ScalarBool:
		return jen.Qual("database/sql", "NullBool")
	case ScalarInt, ScalarInt64:
		return jen.Qual("database/sql", "NullInt64")
	case ScalarFloat64:
		return jen.Qual("database/sql", "NullFloat64")
	case ScalarTime:
		return jen.Qual("database/sql", "NullTime")
	default:
		return jen.Op("*").Add(c.scratchType())
	}
}

func (c *Classification) nullValueExpr(varName string) jen.Code {
	switch c.ScalarKind {
	case ScalarString, ScalarBool, ScalarInt, ScalarInt64, ScalarFloat64, ScalarTime:
		field := map[ScalarKind]string{
			ScalarString: "String", ScalarBool: "Bool", ScalarInt: "Int64",
			ScalarInt64: "Int64", ScalarFloat64: "Float64", ScalarTime: "Time",
		}[c.ScalarKind]
		return jen.Id(varName).Dot(field)
	default:
		return jen.Id(varName)
	}
}

// Entity is the Entity Descriptor (spec §3): a user type whose instances
// correspond to rows, with its table name (override-aware) and properties.
type Entity struct {
	TypeName   string
	Named      *types.Named
	TableName  string
	Properties []Property
}

// Property is one readable field of an Entity, mapped to a column.
type Property struct {
	MemberName string
	ColumnName string
	Class      *Classification
	IsIdentity bool
	IsReadable bool
	IsInitOnly bool
}

// Entity builds (or returns the cached) Entity Descriptor for named,
// consulting namemap's table/column override hooks for the default name
// each property and the entity itself would otherwise get.
func (a *Analyzer) Entity(named *types.Named) (*Entity, error) {
	if e, ok := a.entities[named]; ok {
		return e, nil
	}
	st, ok := named.Underlying().(*types.Struct)
	if !ok {
		return nil, fmt.Errorf("typesys: %s is not a struct", named.Obj().Name())
	}
	e := &Entity{
		TypeName:  named.Obj().Name(),
		Named:     named,
		TableName: namemap.TableName(named.Obj().Name(), ""),
	}
	for i := 0; i < st.NumFields(); i++ {
		f := st.Field(i)
		if !f.Exported() {
			continue
		}
		col := namemap.ColumnName(f.Name(), structTagOverride(st.Tag(i), "column"))
		classification, err := a.Classify(f.Type())
		if err != nil {
			return nil, fmt.Errorf("typesys: field %s.%s: %w", e.TypeName, f.Name(), err)
		}
		e.Properties = append(e.Properties, Property{
			MemberName: f.Name(),
			ColumnName: col,
			Class:      classification,
			IsIdentity: strings.EqualFold(f.Name(), "id") || strings.EqualFold(col, "id"),
			IsReadable: true,
			IsInitOnly: false,
		})
	}
	a.entities[named] = e
	return e, nil
}

func structTagOverride(tag, key string) string {
	// Minimal struct-tag lookup (avoids importing reflect for a single key).
	want := key + `:"`
	idx := strings.Index(tag, want)
	if idx < 0 {
		return ""
	}
	rest := tag[idx+len(want):]
	end := strings.IndexByte(rest, '"')
	if end < 0 {
		return ""
	}
	val := rest[:end]
	if comma := strings.IndexByte(val, ','); comma >= 0 {
		val = val[:comma]
	}
	return val
}

// Property looks up a named property by its Go member name, returning
// ErrUnknownProperty (spec §7) when absent.
func (e *Entity) Property(member string) (*Property, error) {
	for i := range e.Properties {
		if e.Properties[i].MemberName == member {
			return &e.Properties[i], nil
		}
	}
	return nil, fmt.Errorf("typesys: %w: %s.%s", ErrUnknownProperty, e.TypeName, member)
}
