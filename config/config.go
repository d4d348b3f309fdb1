// Package config is the generation run configuration: a functional-options
// struct following the same Option func(*Config) error shape as the
// teacher's compiler/gen package, generalized to this generator's knobs
// (global default dialect, output directory, output package name, and the
// gofmt/goimports formatting toggle).
package config

import (
	"fmt"

	"github.com/sqlxgen/sqlxgen/dialect"
)

// Config is the resolved configuration for one generation run.
type Config struct {
	DefaultDialect dialect.Dialect
	OutDir         string
	PackageName    string
	Format         bool
	Header         string
}

// Option configures a Config.
type Option func(*Config) error

// ConfigError reports an invalid option value, named consistently with the
// teacher's own NewConfigError convention.
type ConfigError struct {
	Field string
	Value any
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s=%v: %s", e.Field, e.Value, e.Msg)
}

// NewConfigError builds a ConfigError.
func NewConfigError(field string, value any, msg string) error {
	return &ConfigError{Field: field, Value: value, Msg: msg}
}

// WithDefaultDialect sets the dialect used when neither a class nor a
// method specifies one.
func WithDefaultDialect(kind dialect.Kind) Option {
	return func(c *Config) error {
		c.DefaultDialect = dialect.Lookup(kind)
		return nil
	}
}

// WithOutDir sets the directory generated files are written into.
func WithOutDir(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return NewConfigError("OutDir", dir, "output directory cannot be empty")
		}
		c.OutDir = dir
		return nil
	}
}

// WithPackageName sets the package clause emitted into generated files.
func WithPackageName(name string) Option {
	return func(c *Config) error {
		if name == "" {
			return NewConfigError("PackageName", name, "package name cannot be empty")
		}
		c.PackageName = name
		return nil
	}
}

// WithFormat toggles running generated source through x/tools/imports
// before it is written.
func WithFormat(enabled bool) Option {
	return func(c *Config) error {
		c.Format = enabled
		return nil
	}
}

// WithHeader sets a file header comment prepended to every generated file.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// New builds a Config from opts, applied in order, defaulting to
// PostgreSql, ".", package "sqlxgen_gen", and formatting enabled.
func New(opts ...Option) (*Config, error) {
	c := &Config{
		DefaultDialect: dialect.Lookup(dialect.PostgreSQL),
		OutDir:         ".",
		PackageName:    "sqlxgen_gen",
		Format:         true,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}
