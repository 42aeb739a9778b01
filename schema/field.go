package schema

import (
	"fmt"

	"github.com/go-openapi/inflect"
	"github.com/google/uuid"
)

// Type is the scalar type of a field.
type Type uint8

// Field types.
const (
	TypeInvalid Type = iota
	TypeString
	TypeInt
	TypeInt64
	TypeFloat32
	TypeFloat64
	TypeBool
	TypeTime
	TypeUUID
	TypeBytes
	TypeRecord
)

var typeNames = [...]string{
	TypeInvalid: "invalid",
	TypeString:  "string",
	TypeInt:     "int",
	TypeInt64:   "int64",
	TypeFloat32: "float32",
	TypeFloat64: "float64",
	TypeBool:    "bool",
	TypeTime:    "time",
	TypeUUID:    "uuid",
	TypeBytes:   "bytes",
	TypeRecord:  "record",
}

// String returns the type name.
func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("type(%d)", t)
}

// Numeric reports whether the type is numeric.
func (t Type) Numeric() bool {
	switch t {
	case TypeInt, TypeInt64, TypeFloat32, TypeFloat64:
		return true
	}
	return false
}

// Float reports whether the type is a floating-point type.
func (t Type) Float() bool {
	return t == TypeFloat32 || t == TypeFloat64
}

// RefKind describes how a record-typed field attaches to its owner.
type RefKind uint8

const (
	// RefInline flattens the nested record's fields into the owning
	// table's own columns. This is the default for record fields.
	RefInline RefKind = iota
	// RefJoin marks the field as a foreign key, reachable via a join.
	RefJoin
	// RefLazy is a foreign key whose full record is fetched on demand;
	// queries may project the reference columns only.
	RefLazy
)

// Field is a single field descriptor. Constructors return a *Field whose
// options are set fluently; descriptors are immutable once the definition
// is registered with the model registry.
type Field struct {
	name       string
	typ        Type
	column     string
	pk         bool
	version    bool
	nullable   bool
	noInsert   bool
	noUpdate   bool
	identity   bool
	sequence   string
	ref        *Definition
	refKind    RefKind
	convert    func(any) any
	err        error
}

// String returns a string field descriptor.
func String(name string) *Field { return &Field{name: name, typ: TypeString} }

// Int returns an int field descriptor.
func Int(name string) *Field { return &Field{name: name, typ: TypeInt} }

// Int64 returns an int64 field descriptor.
func Int64(name string) *Field { return &Field{name: name, typ: TypeInt64} }

// Float32 returns a float32 field descriptor.
func Float32(name string) *Field { return &Field{name: name, typ: TypeFloat32} }

// Float64 returns a float64 field descriptor.
func Float64(name string) *Field { return &Field{name: name, typ: TypeFloat64} }

// Bool returns a bool field descriptor.
func Bool(name string) *Field { return &Field{name: name, typ: TypeBool} }

// Time returns a time field descriptor.
func Time(name string) *Field { return &Field{name: name, typ: TypeTime} }

// Bytes returns a binary field descriptor.
func Bytes(name string) *Field { return &Field{name: name, typ: TypeBytes} }

// UUID returns a UUID field descriptor. Values bind as their canonical
// string form.
func UUID(name string) *Field {
	return &Field{name: name, typ: TypeUUID, convert: func(v any) any {
		if id, ok := v.(uuid.UUID); ok {
			return id.String()
		}
		return v
	}}
}

// Record returns an inline record field: the nested definition's fields
// are flattened into the owning table's columns, prefixed by this field's
// path. Use Joined or Ref to make it a foreign key instead.
func Record(name string, def *Definition) *Field {
	f := &Field{name: name, typ: TypeRecord, ref: def, refKind: RefInline}
	if def == nil {
		f.err = fmt.Errorf("schema: record field %q has nil definition", name)
	}
	return f
}

// Ref returns a foreign-key field referencing another definition.
// It is shorthand for Record(name, def).Joined().
func Ref(name string, def *Definition) *Field {
	return Record(name, def).Joined()
}

// LazyRef returns a fetch-on-demand foreign-key field: the graph records
// the relationship, but query builders may emit an ID-only projection
// instead of a full join.
func LazyRef(name string, def *Definition) *Field {
	f := Record(name, def)
	f.refKind = RefLazy
	return f
}

// PrimaryKey marks the field as (part of) the primary key. Declaring the
// marker on more than one field forms a compound key in declaration order.
func (f *Field) PrimaryKey() *Field {
	f.pk = true
	return f
}

// Version marks the field as the optimistic-locking version column.
func (f *Field) Version() *Field {
	f.version = true
	return f
}

// Nullable marks the field as nullable in the database.
func (f *Field) Nullable() *Field {
	f.nullable = true
	return f
}

// Immutable excludes the field from UPDATE column sets.
func (f *Field) Immutable() *Field {
	f.noUpdate = true
	return f
}

// Computed excludes the field from both INSERT and UPDATE column sets.
func (f *Field) Computed() *Field {
	f.noInsert = true
	f.noUpdate = true
	return f
}

// Identity marks the primary key as database-generated; inserts omit the
// column and the generated key is retrieved post-execution.
func (f *Field) Identity() *Field {
	f.identity = true
	return f
}

// Sequence marks the primary key as sequence-generated with the given
// sequence name; inserts render the dialect's next-value expression.
func (f *Field) Sequence(name string) *Field {
	f.sequence = name
	return f
}

// Column overrides the derived column name.
func (f *Field) Column(name string) *Field {
	f.column = name
	return f
}

// Convert sets a converter applied to bound values before execution.
func (f *Field) Convert(fn func(any) any) *Field {
	f.convert = fn
	return f
}

// Joined flips a record field from inline to foreign key.
func (f *Field) Joined() *Field {
	if f.typ != TypeRecord {
		f.err = fmt.Errorf("schema: Joined on non-record field %q", f.name)
		return f
	}
	f.refKind = RefJoin
	return f
}

// Name returns the field name.
func (f *Field) Name() string { return f.name }

// Type returns the field type.
func (f *Field) Type() Type { return f.typ }

// ColumnName returns the configured or derived (snake_case) column name.
func (f *Field) ColumnName() string {
	if f.column != "" {
		return f.column
	}
	return inflect.Underscore(f.name)
}

// IsPrimaryKey reports whether the field carries the primary-key marker.
func (f *Field) IsPrimaryKey() bool { return f.pk }

// IsVersion reports whether the field carries the version marker.
func (f *Field) IsVersion() bool { return f.version }

// IsNullable reports whether the field is nullable.
func (f *Field) IsNullable() bool { return f.nullable }

// Insertable reports whether the field participates in INSERT column sets.
func (f *Field) Insertable() bool { return !f.noInsert }

// Updatable reports whether the field participates in UPDATE column sets.
func (f *Field) Updatable() bool { return !f.noUpdate }

// IsIdentity reports whether the field is database-generated.
func (f *Field) IsIdentity() bool { return f.identity }

// SequenceName returns the configured sequence name, if any.
func (f *Field) SequenceName() string { return f.sequence }

// RefDefinition returns the referenced definition for record fields.
func (f *Field) RefDefinition() *Definition { return f.ref }

// RefKind returns how a record field attaches to its owner.
func (f *Field) RefKind() RefKind { return f.refKind }

// Converter returns the configured bind converter, if any.
func (f *Field) Converter() func(any) any { return f.convert }

// Err returns the first error recorded while building the descriptor.
func (f *Field) Err() error { return f.err }
