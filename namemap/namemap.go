// Package namemap implements the Name Mapper (C2): a deterministic
// property-name to column-name conversion, plus the table/column override
// hooks a Repository Spec consults before falling back to the default
// mapping.
package namemap

import (
	"errors"
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"
)

// ErrInvalidName is returned by MapPtr for a nil name. Map itself takes a
// plain string and never fails; MapPtr preserves the taxonomy entry from
// spec §7 for callers that thread an optional identifier through.
var ErrInvalidName = errors.New("namemap: invalid name")

// Map converts name using the algorithm in spec §4.2:
//  1. empty input returns empty output;
//  2. input that is entirely upper-case letters, digits and underscores is
//     lower-cased as-is;
//  3. otherwise, an underscore is emitted before every upper-case rune not
//     at position 0, and the rune is lower-cased.
//
// Map is pure and safe for concurrent use; it allocates no shared state.
func Map(name string) string {
	if name == "" {
		return ""
	}
	if isShouting(name) {
		return strings.ToLower(name)
	}
	var b strings.Builder
	b.Grow(len(name) + 4)
	for i, r := range name {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// MapPtr is Map for an optional name, returning ErrInvalidName for a nil
// pointer (the only failure mode the generator's metadata can produce for a
// source-derived identifier, spec §7 InvalidName).
func MapPtr(name *string) (string, error) {
	if name == nil {
		return "", ErrInvalidName
	}
	return Map(*name), nil
}

func isShouting(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) || unicode.IsDigit(r) || r == '_' {
			continue
		}
		return false
	}
	return true
}

// TableName resolves the default table name for a Go entity type name,
// applying the table-override hook first, then pluralizing the mapped name.
// Pluralization is delegated to inflect.Pluralize, which matches the
// teacher's own dependency for this exact concern (compiler/gen's generated
// client uses the same library for collection naming).
func TableName(entityName string, override string) string {
	if override != "" {
		return override
	}
	return inflect.Pluralize(Map(entityName))
}

// ColumnName resolves the default column name for an entity property,
// applying the column-override hook first.
func ColumnName(propertyName string, override string) string {
	if override != "" {
		return override
	}
	return Map(propertyName)
}

// Idempotent reports whether applying Map twice yields the same result as
// applying it once — the property asserted by invariant I4, which
// TestMapIdempotent in namemap_test.go checks over a fixed set of inputs.
func Idempotent(name string) bool {
	once := Map(name)
	return Map(once) == once
}
