package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/storm-repo/storm-go/schema"
)

// Manifest is the YAML schema description the codegen command consumes.
type Manifest struct {
	Package string         `yaml:"package"`
	Out     string         `yaml:"out"`
	Types   []TypeManifest `yaml:"types"`
}

// TypeManifest declares one record type.
type TypeManifest struct {
	Name   string          `yaml:"name"`
	Kind   string          `yaml:"kind"` // entity (default), projection, record
	Table  string          `yaml:"table"`
	Fields []FieldManifest `yaml:"fields"`
}

// FieldManifest declares one field of a type.
type FieldManifest struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Ref        string `yaml:"ref"`  // target type name for record/reference fields
	Mode       string `yaml:"mode"` // inline (default), joined, lazy
	Column     string `yaml:"column"`
	Sequence   string `yaml:"sequence"`
	PrimaryKey bool   `yaml:"primaryKey"`
	Identity   bool   `yaml:"identity"`
	Version    bool   `yaml:"version"`
	Nullable   bool   `yaml:"nullable"`
	Immutable  bool   `yaml:"immutable"`
	Computed   bool   `yaml:"computed"`
}

// LoadManifest reads and parses a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if len(m.Types) == 0 {
		return nil, fmt.Errorf("manifest %s declares no types", path)
	}
	return &m, nil
}

// Definitions builds schema definitions from the manifest. Types are
// created first and fields attached second, so references may point
// forward, backward or at the declaring type itself.
func (m *Manifest) Definitions() ([]*schema.Definition, error) {
	byName := make(map[string]*schema.Definition, len(m.Types))
	defs := make([]*schema.Definition, 0, len(m.Types))
	for _, t := range m.Types {
		if byName[t.Name] != nil {
			return nil, fmt.Errorf("type %s declared twice", t.Name)
		}
		var def *schema.Definition
		switch t.Kind {
		case "", "entity":
			def = schema.New(t.Name)
		case "projection":
			def = schema.NewProjection(t.Name)
		case "record":
			def = schema.NewRecord(t.Name)
		default:
			return nil, fmt.Errorf("type %s: unknown kind %q", t.Name, t.Kind)
		}
		if t.Table != "" {
			def.Table(t.Table)
		}
		byName[t.Name] = def
		defs = append(defs, def)
	}
	for i, t := range m.Types {
		for _, f := range t.Fields {
			fld, err := buildField(f, byName)
			if err != nil {
				return nil, fmt.Errorf("type %s: %w", t.Name, err)
			}
			defs[i].AddFields(fld)
		}
	}
	return defs, nil
}

func buildField(f FieldManifest, byName map[string]*schema.Definition) (*schema.Field, error) {
	var fld *schema.Field
	switch f.Type {
	case "string":
		fld = schema.String(f.Name)
	case "int":
		fld = schema.Int(f.Name)
	case "int64":
		fld = schema.Int64(f.Name)
	case "float32":
		fld = schema.Float32(f.Name)
	case "float64":
		fld = schema.Float64(f.Name)
	case "bool":
		fld = schema.Bool(f.Name)
	case "time":
		fld = schema.Time(f.Name)
	case "bytes":
		fld = schema.Bytes(f.Name)
	case "uuid":
		fld = schema.UUID(f.Name)
	case "record":
		ref := byName[f.Ref]
		if ref == nil {
			return nil, fmt.Errorf("field %s references unknown type %q", f.Name, f.Ref)
		}
		switch f.Mode {
		case "", "inline":
			fld = schema.Record(f.Name, ref)
		case "joined":
			fld = schema.Ref(f.Name, ref)
		case "lazy":
			fld = schema.LazyRef(f.Name, ref)
		default:
			return nil, fmt.Errorf("field %s: unknown mode %q", f.Name, f.Mode)
		}
	default:
		return nil, fmt.Errorf("field %s: unknown type %q", f.Name, f.Type)
	}
	if f.PrimaryKey {
		fld.PrimaryKey()
	}
	if f.Identity {
		fld.Identity()
	}
	if f.Sequence != "" {
		fld.Sequence(f.Sequence)
	}
	if f.Version {
		fld.Version()
	}
	if f.Nullable {
		fld.Nullable()
	}
	if f.Immutable {
		fld.Immutable()
	}
	if f.Computed {
		fld.Computed()
	}
	if f.Column != "" {
		fld.Column(f.Column)
	}
	return fld, fld.Err()
}
