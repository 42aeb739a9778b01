// Package schema provides static descriptors for entities, projections and
// nested records. Descriptors are built fluently at registration time and
// carry everything the model package needs: column names, primary-key and
// version markers, generation strategy, and inline versus foreign-key
// nesting. No runtime reflection is involved.
package schema

import "github.com/go-openapi/inflect"

// Kind classifies what a definition maps to.
type Kind uint8

const (
	// KindRecord is a plain nested record, usable only as an inline
	// component or a foreign-key target.
	KindRecord Kind = iota
	// KindEntity maps to a table with a primary key and supports CRUD.
	KindEntity
	// KindProjection maps to a read-only view or computed result.
	KindProjection
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindEntity:
		return "entity"
	case KindProjection:
		return "projection"
	default:
		return "record"
	}
}

// Definition describes one record type. It is immutable once handed to the
// model registry; reusing a *Definition across goroutines is safe.
type Definition struct {
	name   string
	table  string
	kind   Kind
	fields []*Field
}

// New creates an entity definition. The table name defaults to the
// pluralized snake_case of the type name (Owner -> owners) and can be
// overridden with Table.
func New(name string, fields ...*Field) *Definition {
	return &Definition{name: name, kind: KindEntity, fields: fields}
}

// NewProjection creates a read-only projection definition.
func NewProjection(name string, fields ...*Field) *Definition {
	return &Definition{name: name, kind: KindProjection, fields: fields}
}

// NewRecord creates a plain record definition for inline components and
// compound-key types.
func NewRecord(name string, fields ...*Field) *Definition {
	return &Definition{name: name, kind: KindRecord, fields: fields}
}

// AddFields appends fields after construction. It exists so mutually
// referencing definitions can be declared: build both, then close the
// cycle. Definitions must not change once registered with the model
// registry.
func (d *Definition) AddFields(fields ...*Field) *Definition {
	d.fields = append(d.fields, fields...)
	return d
}

// Table overrides the derived table name.
func (d *Definition) Table(name string) *Definition {
	d.table = name
	return d
}

// Name returns the type name.
func (d *Definition) Name() string { return d.name }

// Kind returns the definition kind.
func (d *Definition) Kind() Kind { return d.kind }

// TableName returns the configured or derived table name.
func (d *Definition) TableName() string {
	if d.table != "" {
		return d.table
	}
	return inflect.Pluralize(inflect.Underscore(d.name))
}

// Fields returns the declared fields in declaration order.
func (d *Definition) Fields() []*Field { return d.fields }

// Field returns the declared field with the given name, or nil.
func (d *Definition) Field(name string) *Field {
	for _, f := range d.fields {
		if f.name == name {
			return f
		}
	}
	return nil
}
