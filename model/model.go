// Package model builds the entity graph model: the immutable, memoized
// description of a record type's columns, primary key, foreign keys,
// inline components, version column and generation strategy. It also
// resolves metamodel paths (e.g. "address.city" or "owner.name") against
// that graph.
package model

import (
	"fmt"

	storm "github.com/storm-repo/storm-go"
	"github.com/storm-repo/storm-go/schema"
)

// GenerationStrategy determines how primary-key values are produced
// on insert.
type GenerationStrategy uint8

const (
	// GenerateNone inserts the caller-supplied key value.
	GenerateNone GenerationStrategy = iota
	// GenerateSequence renders the dialect's next-value expression for a
	// named sequence.
	GenerateSequence
	// GenerateIdentity omits the key column and retrieves the generated
	// key post-execution.
	GenerateIdentity
)

// String returns the strategy name.
func (g GenerationStrategy) String() string {
	switch g {
	case GenerateSequence:
		return "sequence"
	case GenerateIdentity:
		return "identity"
	default:
		return "none"
	}
}

// Column describes one column of the mapped table.
type Column struct {
	// Name is the column name in the table, e.g. "address_city".
	Name string
	// Path is the dotted field path from the root, e.g. "address.city".
	Path string
	// FieldName is the terminal field name, e.g. "city".
	FieldName string
	// Type is the declared scalar type.
	Type schema.Type

	PrimaryKey bool
	Version    bool
	Nullable   bool
	Insertable bool
	Updatable  bool

	// Converter, if set, is applied to bound values before execution.
	Converter func(any) any
}

// ForeignKey describes a joinable relationship to another model. The
// referencing columns live in the owning table and are also listed in the
// owner's Columns, so ID-only projections resolve without a join.
type ForeignKey struct {
	// FieldName is the declaring field, e.g. "owner".
	FieldName string
	// Path is the dotted path from the root, e.g. "owner" or "address.owner".
	Path string
	// Columns are the referencing columns in the owning table, one per
	// referenced primary-key column, in declaration order.
	Columns []*Column
	// Ref is the referenced model. For cyclic graphs this may point to a
	// model that was still under construction when the link was made; it
	// is fully populated by the time the registry returns.
	Ref *Model
	// Lazy marks fetch-on-demand references.
	Lazy bool
}

// Model is the entity graph model of one record type. It is immutable
// after construction and shared process-wide via the registry.
type Model struct {
	// Name is the record type name.
	Name string
	// Table is the mapped table name.
	Table string
	// Kind classifies entity, projection or plain record.
	Kind schema.Kind
	// Columns holds every column of the mapped table in declaration order,
	// inline components flattened.
	Columns []*Column
	// PrimaryKey holds the key columns in declaration order. Compound
	// keys have more than one entry.
	PrimaryKey []*Column
	// ForeignKeys holds the joinable relationships in declaration order.
	ForeignKeys []*ForeignKey
	// VersionColumn is the optimistic-locking column, if declared.
	VersionColumn *Column
	// Generation is the primary-key generation strategy.
	Generation GenerationStrategy
	// SequenceName is set when Generation is GenerateSequence.
	SequenceName string

	def    *schema.Definition
	byPath map[string]*Column
}

// ColumnByPath returns the column with the given dotted path, or nil.
func (m *Model) ColumnByPath(path string) *Column { return m.byPath[path] }

// ForeignKey returns the foreign key declared at the given path, or nil.
func (m *Model) ForeignKey(path string) *ForeignKey {
	for _, fk := range m.ForeignKeys {
		if fk.Path == path {
			return fk
		}
	}
	return nil
}

// RequirePrimaryKey returns the primary-key columns or a ModelError when
// the model declares none. Operations that need a key (find-by-id, key
// filters, identity inserts) call this at the point the key is required.
func (m *Model) RequirePrimaryKey() ([]*Column, error) {
	if len(m.PrimaryKey) == 0 {
		return nil, storm.NewMissingPrimaryKeyError(m.Name)
	}
	return m.PrimaryKey, nil
}

// builder constructs models, breaking foreign-key cycles with an
// in-progress set keyed by definition identity.
type builder struct {
	reg        *Registry
	inProgress map[*schema.Definition]*Model
}

func (b *builder) build(def *schema.Definition) (*Model, error) {
	if m, ok := b.inProgress[def]; ok {
		return m, nil
	}
	if m := b.reg.lookup(def); m != nil {
		return m, nil
	}
	m := &Model{
		Name:   def.Name(),
		Table:  def.TableName(),
		Kind:   def.Kind(),
		def:    def,
		byPath: make(map[string]*Column),
	}
	b.inProgress[def] = m
	if err := b.walk(m, def, "", false, map[*schema.Definition]bool{def: true}); err != nil {
		delete(b.inProgress, def)
		return nil, err
	}
	if err := finish(m); err != nil {
		delete(b.inProgress, def)
		return nil, err
	}
	return m, nil
}

// walk flattens def's fields into m at the given path prefix. The inline
// set guards against inline cycles, which have no finite column layout.
// keyed marks every flattened column as part of the primary key, used when
// a compound key is mapped to a nested record type.
func (b *builder) walk(m *Model, def *schema.Definition, prefix string, keyed bool, inline map[*schema.Definition]bool) error {
	for _, f := range def.Fields() {
		if err := f.Err(); err != nil {
			return &storm.ModelError{Type: m.Name, Field: f.Name(), Message: "invalid field descriptor", Cause: err}
		}
		path := f.Name()
		if prefix != "" {
			path = prefix + "." + f.Name()
		}
		if f.Type() != schema.TypeRecord {
			col := columnOf(f, path, prefix)
			if keyed {
				col.PrimaryKey = true
			}
			if err := addColumn(m, col); err != nil {
				return err
			}
			continue
		}
		ref := f.RefDefinition()
		switch f.RefKind() {
		case schema.RefInline:
			if inline[ref] {
				return storm.NewModelError(m.Name, f.Name(), "inline component cycle via "+ref.Name())
			}
			inline[ref] = true
			if err := b.walk(m, ref, path, keyed || f.IsPrimaryKey(), inline); err != nil {
				return err
			}
			delete(inline, ref)
		case schema.RefJoin, schema.RefLazy:
			refModel, err := b.build(ref)
			if err != nil {
				return err
			}
			fk := &ForeignKey{
				FieldName: f.Name(),
				Path:      path,
				Ref:       refModel,
				Lazy:      f.RefKind() == schema.RefLazy,
			}
			// The referenced key layout is read from the definition, not
			// the (possibly still in-progress) model.
			refPK := primaryKeyFields(ref)
			if len(refPK) == 0 {
				return &storm.ModelError{
					Type: m.Name, Field: f.Name(),
					Message: fmt.Sprintf("foreign key to %s which has no primary key", ref.Name()),
					Cause:   storm.ErrMissingPrimaryKey,
				}
			}
			for _, pk := range refPK {
				col := &Column{
					Name:       underscored(path) + "_" + pk.ColumnName(),
					Path:       path + "." + pk.Name(),
					FieldName:  pk.Name(),
					Type:       pk.Type(),
					Nullable:   f.IsNullable(),
					Insertable: f.Insertable(),
					Updatable:  f.Updatable(),
					Converter:  pk.Converter(),
				}
				if err := addColumn(m, col); err != nil {
					return err
				}
				fk.Columns = append(fk.Columns, col)
			}
			m.ForeignKeys = append(m.ForeignKeys, fk)
		}
	}
	return nil
}

func columnOf(f *schema.Field, path, prefix string) *Column {
	name := f.ColumnName()
	if prefix != "" {
		name = underscored(prefix) + "_" + name
	}
	return &Column{
		Name:       name,
		Path:       path,
		FieldName:  f.Name(),
		Type:       f.Type(),
		PrimaryKey: f.IsPrimaryKey(),
		Version:    f.IsVersion(),
		Nullable:   f.IsNullable(),
		Insertable: f.Insertable(),
		Updatable:  f.Updatable(),
		Converter:  f.Converter(),
	}
}

func addColumn(m *Model, col *Column) error {
	if _, ok := m.byPath[col.Path]; ok {
		return storm.NewModelError(m.Name, col.Path, "duplicate field path")
	}
	m.Columns = append(m.Columns, col)
	m.byPath[col.Path] = col
	return nil
}

// finish derives the key, version and generation metadata after the walk.
func finish(m *Model) error {
	for _, col := range m.Columns {
		if col.PrimaryKey {
			m.PrimaryKey = append(m.PrimaryKey, col)
		}
		if col.Version {
			if m.VersionColumn != nil {
				return storm.NewModelError(m.Name, col.Path, "more than one version column")
			}
			m.VersionColumn = col
		}
	}
	var genField *schema.Field
	for _, f := range m.def.Fields() {
		if f.IsIdentity() || f.SequenceName() != "" {
			if genField != nil {
				return storm.NewModelError(m.Name, f.Name(), "more than one generated field")
			}
			genField = f
		}
	}
	if genField == nil {
		return nil
	}
	switch {
	case !genField.IsPrimaryKey():
		return storm.NewModelError(m.Name, genField.Name(), "generation strategy on non-key field")
	case genField.IsIdentity() && genField.SequenceName() != "":
		return storm.NewModelError(m.Name, genField.Name(), "both identity and sequence generation configured")
	case len(m.PrimaryKey) > 1:
		return storm.NewModelError(m.Name, genField.Name(), "generation strategy on compound primary key")
	case genField.IsIdentity():
		m.Generation = GenerateIdentity
	default:
		m.Generation = GenerateSequence
		m.SequenceName = genField.SequenceName()
	}
	return nil
}

// primaryKeyFields returns def's directly-declared primary-key fields.
func primaryKeyFields(def *schema.Definition) []*schema.Field {
	var pk []*schema.Field
	for _, f := range def.Fields() {
		if f.IsPrimaryKey() {
			pk = append(pk, f)
		}
	}
	return pk
}

func underscored(path string) string {
	out := make([]byte, 0, len(path))
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			out = append(out, '_')
		} else {
			out = append(out, path[i])
		}
	}
	return string(out)
}
