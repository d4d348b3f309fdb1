package typesys

import "errors"

// Sentinel errors for the lookup-miss taxonomy entries in spec §7.
var (
	// ErrUnknownProperty is returned by Entity.Property when the entity
	// has no property with the given Go member name (invariant I2).
	ErrUnknownProperty = errors.New("typesys: unknown property")
	// ErrUnknownColumn names the unknown-column taxonomy entry. No function
	// in this module returns it.
	ErrUnknownColumn = errors.New("typesys: unknown column")
)
