package driver

import (
	"fmt"
	"go/types"

	"github.com/dave/jennifer/jen"

	"github.com/sqlxgen/sqlxgen/diag"
	"github.com/sqlxgen/sqlxgen/discovery"
	"github.com/sqlxgen/sqlxgen/emit"
	"github.com/sqlxgen/sqlxgen/opinfer"
	"github.com/sqlxgen/sqlxgen/sqltemplate"
	"github.com/sqlxgen/sqlxgen/typesys"
)

// renderMethodSQL resolves m's final SQL text and bound-parameter
// expressions, choosing the source per spec §2's data-flow: a template
// string expands through the Template Engine; raw SQL passes through
// verbatim with its `?`/`@name` markers already in the target dialect;
// absent either, the inferrer's synthesized default (columns:auto /
// where:id shaped) is used.
func (d *Driver) renderMethodSQL(repo *discovery.Repository, m discovery.Method, op opinfer.Kind) (emit.Rendered, error) {
	switch {
	case m.RawSQL != "":
		return emit.Rendered{SQL: m.RawSQL, Params: paramExprs(m)}, nil
	case m.SQLTemplate != "":
		return d.renderTemplate(repo, m, op)
	default:
		return d.renderSynthesized(repo, m, op)
	}
}

func paramExprs(m discovery.Method) []emit.RenderedParam {
	var out []emit.RenderedParam
	for _, p := range m.Params {
		if p.Class == nil {
			continue
		}
		out = append(out, emit.RenderedParam{Name: p.Name, Expr: jen.Id(p.Name)})
	}
	return out
}

// renderTemplate expands a method's Sqlx/SqlTemplate attribute text through
// the placeholder-style half of the Template Engine (spec §4.4(a)) — the
// {{if}}/{{each}} directive half (sqltemplate.Engine) resolves conditions
// against compile-time-known values (dialect, entity shape) rather than
// per-call runtime arguments, so it is not used for method-body SQL.
func (d *Driver) renderTemplate(repo *discovery.Repository, m discovery.Method, op opinfer.Kind) (emit.Rendered, error) {
	return d.expand(repo, m, m.SQLTemplate, op.IsBatch())
}

func (d *Driver) renderSynthesized(repo *discovery.Repository, m discovery.Method, op opinfer.Kind) (emit.Rendered, error) {
	return d.expand(repo, m, synthesizeTemplate(op), op.IsBatch())
}

func (d *Driver) expand(repo *discovery.Repository, m discovery.Method, raw string, batch bool) (emit.Rendered, error) {
	var methodParams []sqltemplate.MethodParam
	for _, p := range m.Params {
		if p.Class == nil {
			continue
		}
		methodParams = append(methodParams, sqltemplate.MethodParam{Name: p.Name, Class: p.Class})
	}
	entity, err := d.resolveEntity(m)
	if err != nil {
		return emit.Rendered{}, fmt.Errorf("driver: %s: %w", m.Name, err)
	}
	if m.TableOverride != "" && entity != nil {
		overridden := *entity
		overridden.TableName = m.TableOverride
		entity = &overridden
	}
	exp := &sqltemplate.Expander{Dialect: repo.Dialect, Entity: entity, Params: methodParams}
	sql, params, unknown, err := exp.Expand(raw)
	if err != nil {
		return emit.Rendered{}, fmt.Errorf("driver: %s: %w", m.Name, err)
	}
	for _, u := range unknown {
		d.sink.Warnf(diag.CodeUnknownPlaceholder, diag.Span{}, m.Name, "unknown placeholder %s left verbatim", u.Placeholder.Raw)
	}
	return emit.Rendered{SQL: sql, Params: bindExprs(m, entity, params, batch)}, nil
}

// bindExprs converts the Expander's Parameter Descriptors into jen
// expressions: a method-parameter-sourced value binds to that parameter's
// identifier; an entity-property-sourced value binds to a selector off the
// first Entity-shaped method parameter — or, for a batch operation, off
// "item", the per-element loop variable emit.batchBody ranges over, since a
// batch method's entity-shaped data arrives as a collection, not a single
// parameter.
func bindExprs(m discovery.Method, entity *typesys.Entity, params []sqltemplate.Parameter, batch bool) []emit.RenderedParam {
	entityParam := ""
	if batch {
		entityParam = "item"
	} else {
		for _, p := range m.Params {
			if p.Class != nil && p.Class.Category == typesys.CategoryEntity {
				entityParam = p.Name
				break
			}
		}
	}
	out := make([]emit.RenderedParam, 0, len(params))
	for _, p := range params {
		switch p.Source {
		case sqltemplate.SourceEntityProperty:
			member := p.Name
			if entity != nil {
				for _, prop := range entity.Properties {
					if prop.ColumnName == p.Name {
						member = prop.MemberName
						break
					}
				}
			}
			out = append(out, emit.RenderedParam{Name: p.Name, Expr: jen.Id(entityParam).Dot(member)})
		default:
			out = append(out, emit.RenderedParam{Name: p.Name, Expr: jen.Id(p.Name)})
		}
	}
	return out
}

// resolveEntity finds the Entity Descriptor a synthesized template should
// bind column names against: the method's own Entity/Sequence(Entity)
// return shape, or (for Insert/Update/Delete, whose return is typically a
// scalar affected-row count) the first Entity-shaped parameter.
func (d *Driver) resolveEntity(m discovery.Method) (*typesys.Entity, error) {
	if c := entityClassification(m.Return); c != nil {
		return d.analyzer.Entity(c.GoType.(*types.Named))
	}
	for _, p := range m.Params {
		if c := entityClassification(p.Class); c != nil {
			return d.analyzer.Entity(c.GoType.(*types.Named))
		}
	}
	return nil, nil
}

func entityClassification(c *typesys.Classification) *typesys.Classification {
	if c == nil {
		return nil
	}
	if c.Category == typesys.CategoryEntity {
		return c
	}
	if c.Category == typesys.CategorySequence && c.Element != nil && c.Element.Category == typesys.CategoryEntity {
		return c.Element
	}
	return nil
}

func synthesizeTemplate(op opinfer.Kind) string {
	switch op {
	case opinfer.Insert, opinfer.BatchInsert:
		return "INSERT INTO {{table}} ({{columns:insert}}) VALUES ({{values:auto}})"
	case opinfer.Update, opinfer.BatchUpdate:
		return "UPDATE {{table}} SET {{set:auto}} WHERE {{where:id}}"
	case opinfer.Delete, opinfer.BatchDelete:
		return "DELETE FROM {{table}} WHERE {{where:id}}"
	case opinfer.Scalar:
		return "SELECT {{count}} FROM {{table}} WHERE {{where:auto}}"
	case opinfer.Exists:
		return "SELECT {{count}} FROM {{table}} WHERE {{where:auto}}"
	default:
		return "SELECT {{columns:auto}} FROM {{table}} WHERE {{where:auto}}"
	}
}
