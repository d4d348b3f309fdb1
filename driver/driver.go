// Package driver is the Driver (C10). It glues Discovery Pass → Operation
// Inferrer → (SQL Template Engine ∥ Expression Translator) → Emitter,
// collects diagnostics, enforces one output file per discovered class, and
// auto-emits the attribute surface when the target module does not
// already reference it.
package driver

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sqlxgen/sqlxgen/config"
	"github.com/sqlxgen/sqlxgen/diag"
	"github.com/sqlxgen/sqlxgen/discovery"
	"github.com/sqlxgen/sqlxgen/emit"
	"github.com/sqlxgen/sqlxgen/opinfer"
	"github.com/sqlxgen/sqlxgen/sqltemplate"
	"github.com/sqlxgen/sqlxgen/typesys"
)

// Generated is one repository's generated output, ready for Writer.
type Generated struct {
	FileName string
	Source   []byte
}

// Driver runs one generation pass over a loaded package's Repository
// Specs.
type Driver struct {
	cfg      *config.Config
	sink     *diag.Sink
	engine   *sqltemplate.Engine
	analyzer *typesys.Analyzer
	log      *zap.Logger
}

// New builds a Driver for one generation run, logging through log (pass
// zap.NewNop() to silence it).
func New(cfg *config.Config, log *zap.Logger) *Driver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Driver{cfg: cfg, sink: diag.NewSink(), engine: sqltemplate.NewEngine(), analyzer: typesys.NewAnalyzer(), log: log}
}

// Sink returns the diagnostics collected so far.
func (d *Driver) Sink() *diag.Sink { return d.sink }

// Run processes every Repository Spec in repos and returns one Generated
// file per repository that had at least one successfully emitted method,
// plus sqlxgen_attrs_gen.go when at least one file was generated and no
// repository's package imports package attrs.
// A method that fails (template syntax error, unsupported expression,
// batch-without-collection, ...) is skipped with a diagnostic; sibling
// methods on the same repository still generate (spec §7's "abort
// generation for that method only").
func (d *Driver) Run(repos []*discovery.Repository) ([]Generated, error) {
	var out []Generated
	seen := map[string]bool{}
	for _, repo := range repos {
		fileName := outputFileName(repo)
		if seen[fileName] {
			return nil, fmt.Errorf("driver: %s would produce %s twice (single-output-per-class violated)", repo.ImplName, fileName)
		}
		seen[fileName] = true

		g, err := d.runRepository(repo)
		if err != nil {
			return nil, err
		}
		if g != nil {
			out = append(out, *g)
		}
	}

	if len(out) > 0 && needsAttrsSurface(repos) {
		src, err := renderAttrsSurface(d.cfg.PackageName)
		if err != nil {
			return nil, err
		}
		d.log.Info("no package imports attrs, auto-emitting local attribute surface copy")
		out = append(out, Generated{FileName: attrsSurfaceFileName, Source: src})
	}
	return out, nil
}

func outputFileName(repo *discovery.Repository) string {
	return repo.ImplName + "_sqlxgen.go"
}

func (d *Driver) runRepository(repo *discovery.Repository) (*Generated, error) {
	d.log.Info("generating repository", zap.String("impl", repo.ImplName), zap.Int("methods", len(repo.Methods)))
	f := emit.NewFile(d.cfg.PackageName)
	methodsEmitted := 0
	for _, m := range repo.Methods {
		if err := d.runMethod(f, repo, m); err != nil {
			d.log.Warn("method skipped", zap.String("impl", repo.ImplName), zap.String("method", m.Name), zap.Error(err))
			d.sink.Errorf(codeForError(err), diag.Span{}, m.Name, "%v", err)
			continue
		}
		methodsEmitted++
	}
	if methodsEmitted == 0 {
		d.log.Warn("no methods emitted, skipping output", zap.String("impl", repo.ImplName))
		return nil, nil
	}
	src, err := f.Render()
	if err != nil {
		return nil, fmt.Errorf("driver: render %s: %w", repo.ImplName, err)
	}
	d.log.Info("repository generated", zap.String("impl", repo.ImplName), zap.Int("methods", methodsEmitted))
	return &Generated{FileName: outputFileName(repo), Source: src}, nil
}

func (d *Driver) runMethod(f *emit.File, repo *discovery.Repository, m discovery.Method) error {
	op, err := opinfer.Infer(opinfer.Method{
		ExplicitKind:   m.ExplicitOp,
		SQLText:        methodSQLText(m),
		Name:           m.Name,
		HasSequenceArg: hasSequenceParam(m),
	})
	if err != nil {
		return err
	}

	rendered, err := d.renderMethodSQL(repo, m, op)
	if err != nil {
		return err
	}

	entity, err := d.resolveEntity(m)
	if err != nil {
		return err
	}

	return f.Method("r", repo.ImplName, m, op, repo.Dialect, entity, rendered)
}

func methodSQLText(m discovery.Method) string {
	if m.RawSQL != "" {
		return m.RawSQL
	}
	return m.SQLTemplate
}

func hasSequenceParam(m discovery.Method) bool {
	for _, p := range m.Params {
		if p.Class != nil && p.Class.Category == typesys.CategorySequence {
			return true
		}
	}
	return false
}

func codeForError(err error) diag.Code {
	switch {
	case errors.Is(err, opinfer.ErrBatchRequiresCollection):
		return diag.CodeBatchRequiresCollection
	default:
		return diag.CodeTemplateSyntax
	}
}
