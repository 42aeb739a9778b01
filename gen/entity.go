package gen

import (
	"fmt"

	"github.com/dave/jennifer/jen"

	"github.com/storm-repo/storm-go/schema"
)

const (
	queryPkg = "github.com/storm-repo/storm-go/query"
	uuidPkg  = "github.com/google/uuid"
)

// entityFile renders the generated source for one record type: the
// record struct, its metamodel path descriptors and the equality and
// value helpers the builders consume.
func (g *Generator) entityFile(def *schema.Definition) (*jen.File, error) {
	f := jen.NewFile(g.cfg.Package)
	f.HeaderComment("Code generated by storm. DO NOT EDIT.")

	if err := emitStruct(f, def); err != nil {
		return nil, err
	}
	if def.Kind() != schema.KindRecord {
		e := &metaEmitter{f: f}
		rootType := def.Name() + "Meta"
		if err := e.emitMeta(def, rootType, nil, map[*schema.Definition]bool{def: true}); err != nil {
			return nil, err
		}
		value, err := e.metaValue(def, rootType, nil, map[*schema.Definition]bool{def: true})
		if err != nil {
			return nil, err
		}
		f.Commentf("%sPath is the %s metamodel: typed path descriptors for", def.Name(), def.Name())
		f.Comment("predicates, ordering and projections.")
		f.Var().Id(def.Name() + "Path").Op("=").Add(value)
	}
	if def.Kind() != schema.KindRecord {
		if err := emitAccessors(f, def); err != nil {
			return nil, err
		}
	}
	if err := emitEqual(f, def); err != nil {
		return nil, err
	}
	emitKeyEqual(f, def)
	emitValues(f, def)
	return f, nil
}

// emitAccessors generates the accessor interface for directly declared
// entity and projection types, plus the getter methods satisfying it.
// Nested records get no interface of their own.
func emitAccessors(f *jen.File, def *schema.Definition) error {
	methods := make([]jen.Code, 0, len(def.Fields()))
	var getters []func()
	for _, fld := range def.Fields() {
		fld := fld
		name := exportedName(fld.Name())
		typ, err := goType(fld)
		if err != nil {
			return err
		}
		methods = append(methods, jen.Id("Get"+name).Params().Add(typ))
		getters = append(getters, func() {
			f.Func().Params(jen.Id("a").Op("*").Id(def.Name())).
				Id("Get" + name).Params().Add(typ).
				Block(jen.Return(jen.Id("a").Dot(name)))
		})
	}
	f.Commentf("%sAccessor exposes %s's declared fields.", def.Name(), def.Name())
	f.Type().Id(def.Name() + "Accessor").Interface(methods...)
	for _, emit := range getters {
		emit()
	}
	return nil
}

// goType maps a declared field to its Go type.
func goType(fld *schema.Field) (jen.Code, error) {
	var base jen.Code
	switch fld.Type() {
	case schema.TypeString:
		base = jen.String()
	case schema.TypeInt:
		base = jen.Int()
	case schema.TypeInt64:
		base = jen.Int64()
	case schema.TypeFloat32:
		base = jen.Float32()
	case schema.TypeFloat64:
		base = jen.Float64()
	case schema.TypeBool:
		base = jen.Bool()
	case schema.TypeTime:
		base = jen.Qual("time", "Time")
	case schema.TypeUUID:
		base = jen.Qual(uuidPkg, "UUID")
	case schema.TypeBytes:
		return jen.Index().Byte(), nil
	case schema.TypeRecord:
		if fld.RefKind() == schema.RefInline {
			return jen.Id(fld.RefDefinition().Name()), nil
		}
		return jen.Op("*").Id(fld.RefDefinition().Name()), nil
	default:
		return nil, fmt.Errorf("gen: field %s has unsupported type %s", fld.Name(), fld.Type())
	}
	if fld.IsNullable() {
		return jen.Op("*").Add(base), nil
	}
	return base, nil
}

// pathType maps a scalar field to its typed query path.
func pathType(fld *schema.Field) jen.Code {
	switch fld.Type() {
	case schema.TypeString:
		return jen.Qual(queryPkg, "StringPath")
	case schema.TypeInt:
		return jen.Qual(queryPkg, "NumberPath").Index(jen.Int())
	case schema.TypeInt64:
		return jen.Qual(queryPkg, "NumberPath").Index(jen.Int64())
	case schema.TypeFloat32:
		return jen.Qual(queryPkg, "NumberPath").Index(jen.Float32())
	case schema.TypeFloat64:
		return jen.Qual(queryPkg, "NumberPath").Index(jen.Float64())
	case schema.TypeBool:
		return jen.Qual(queryPkg, "BoolPath")
	case schema.TypeTime:
		return jen.Qual(queryPkg, "TimePath")
	case schema.TypeUUID:
		return jen.Qual(queryPkg, "UUIDPath")
	default:
		return jen.Qual(queryPkg, "BytesPath")
	}
}

func emitStruct(f *jen.File, def *schema.Definition) error {
	fields := make([]jen.Code, 0, len(def.Fields()))
	for _, fld := range def.Fields() {
		typ, err := goType(fld)
		if err != nil {
			return err
		}
		fields = append(fields, jen.Id(exportedName(fld.Name())).Add(typ))
	}
	f.Commentf("%s is the generated %s type.", def.Name(), def.Kind())
	f.Type().Id(def.Name()).Struct(fields...)
	return nil
}

// metaEmitter generates the metamodel path structs. A "currently
// expanding" set bounds recursion over cyclic graphs: a foreign key
// back into an expanding type emits a key-only descriptor instead of
// recursing.
type metaEmitter struct {
	f *jen.File
}

func dotted(prefix []string, name string) string {
	p := name
	for i := len(prefix) - 1; i >= 0; i-- {
		p = prefix[i] + "." + p
	}
	return p
}

func (e *metaEmitter) emitMeta(def *schema.Definition, typeName string, prefix []string, expanding map[*schema.Definition]bool) error {
	var nested []func() error
	fields := make([]jen.Code, 0, len(def.Fields()))
	for _, fld := range def.Fields() {
		fld := fld
		name := exportedName(fld.Name())
		if fld.Type() != schema.TypeRecord {
			fields = append(fields, jen.Id(name).Add(pathType(fld)))
			continue
		}
		ref := fld.RefDefinition()
		childType := typeName[:len(typeName)-len("Meta")] + name + "Meta"
		childPrefix := append(append([]string{}, prefix...), fld.Name())
		switch {
		case fld.RefKind() == schema.RefInline:
			if expanding[ref] {
				return fmt.Errorf("gen: inline cycle through %s", ref.Name())
			}
			fields = append(fields, jen.Id(name).Id(childType))
			nested = append(nested, func() error {
				expanding[ref] = true
				defer delete(expanding, ref)
				return e.emitMeta(ref, childType, childPrefix, expanding)
			})
		case expanding[ref]:
			// Cycle: descend no further, expose the reference key only.
			refType := childType[:len(childType)-len("Meta")] + "RefMeta"
			fields = append(fields, jen.Id(name).Id(refType))
			nested = append(nested, func() error {
				return e.emitRefMeta(ref, refType, childPrefix)
			})
		default:
			fields = append(fields, jen.Id(name).Id(childType))
			nested = append(nested, func() error {
				expanding[ref] = true
				defer delete(expanding, ref)
				return e.emitMeta(ref, childType, childPrefix, expanding)
			})
		}
	}
	e.f.Type().Id(typeName).Struct(fields...)
	for _, emit := range nested {
		if err := emit(); err != nil {
			return err
		}
	}
	return nil
}

// emitRefMeta generates the key-only descriptor used when a cycle stops
// the expansion.
func (e *metaEmitter) emitRefMeta(def *schema.Definition, typeName string, prefix []string) error {
	fields := make([]jen.Code, 0, 1)
	for _, fld := range def.Fields() {
		if !fld.IsPrimaryKey() || fld.Type() == schema.TypeRecord {
			continue
		}
		fields = append(fields, jen.Id(exportedName(fld.Name())).Add(pathType(fld)))
	}
	e.f.Type().Id(typeName).Struct(fields...)
	return nil
}

func (e *metaEmitter) metaValue(def *schema.Definition, typeName string, prefix []string, expanding map[*schema.Definition]bool) (jen.Code, error) {
	dict := jen.Dict{}
	for _, fld := range def.Fields() {
		name := exportedName(fld.Name())
		if fld.Type() != schema.TypeRecord {
			dict[jen.Id(name)] = jen.Lit(dotted(prefix, fld.Name()))
			continue
		}
		ref := fld.RefDefinition()
		childType := typeName[:len(typeName)-len("Meta")] + name + "Meta"
		childPrefix := append(append([]string{}, prefix...), fld.Name())
		if fld.RefKind() != schema.RefInline && expanding[ref] {
			refType := childType[:len(childType)-len("Meta")] + "RefMeta"
			refDict := jen.Dict{}
			for _, pk := range ref.Fields() {
				if !pk.IsPrimaryKey() || pk.Type() == schema.TypeRecord {
					continue
				}
				refDict[jen.Id(exportedName(pk.Name()))] = jen.Lit(dotted(childPrefix, pk.Name()))
			}
			dict[jen.Id(name)] = jen.Id(refType).Values(refDict)
			continue
		}
		expanding[ref] = true
		child, err := e.metaValue(ref, childType, childPrefix, expanding)
		delete(expanding, ref)
		if err != nil {
			return nil, err
		}
		dict[jen.Id(name)] = child
	}
	return jen.Id(typeName).Values(dict), nil
}

// emitEqual generates field-wise equality. Floats compare by bit
// pattern so NaN-carrying records stay equal to themselves.
func emitEqual(f *jen.File, def *schema.Definition) error {
	conds := make([]jen.Code, 0, len(def.Fields()))
	for _, fld := range def.Fields() {
		cond, err := equalCond(fld)
		if err != nil {
			return err
		}
		conds = append(conds, cond)
	}
	body := []jen.Code{
		jen.If(jen.Id("a").Op("==").Nil().Op("||").Id("b").Op("==").Nil()).Block(
			jen.Return(jen.Id("a").Op("==").Id("b")),
		),
	}
	if len(conds) == 0 {
		body = append(body, jen.Return(jen.True()))
	} else {
		expr := conds[0]
		for _, c := range conds[1:] {
			expr = jen.Add(expr).Op("&&").Line().Add(c)
		}
		body = append(body, jen.Return(expr))
	}
	f.Comment("Equal reports field-wise equality, comparing floats by bit pattern")
	f.Comment("and foreign-key references by key identity.")
	f.Func().Params(jen.Id("a").Op("*").Id(def.Name())).Id("Equal").
		Params(jen.Id("b").Op("*").Id(def.Name())).Bool().
		Block(body...)
	return nil
}

func fieldRef(owner, field string) *jen.Statement {
	return jen.Id(owner).Dot(field)
}

func equalCond(fld *schema.Field) (jen.Code, error) {
	name := exportedName(fld.Name())
	a, b := fieldRef("a", name), fieldRef("b", name)
	switch fld.Type() {
	case schema.TypeBytes:
		return jen.Qual("bytes", "Equal").Call(a, b), nil
	case schema.TypeRecord:
		if fld.RefKind() == schema.RefInline {
			return a.Clone().Dot("Equal").Call(jen.Op("&").Add(b)), nil
		}
		ref := fld.RefDefinition()
		return refKeyCond(name, ref), nil
	}
	if fld.IsNullable() {
		return nullableCond(fld, name)
	}
	switch fld.Type() {
	case schema.TypeFloat32:
		return jen.Qual("math", "Float32bits").Call(a).Op("==").Qual("math", "Float32bits").Call(b), nil
	case schema.TypeFloat64:
		return jen.Qual("math", "Float64bits").Call(a).Op("==").Qual("math", "Float64bits").Call(b), nil
	case schema.TypeTime:
		return a.Clone().Dot("Equal").Call(b), nil
	default:
		return a.Clone().Op("==").Add(b), nil
	}
}

func nullableCond(fld *schema.Field, name string) (jen.Code, error) {
	a, b := fieldRef("a", name), fieldRef("b", name)
	var inner jen.Code
	da, db := jen.Op("*").Add(a.Clone()), jen.Op("*").Add(b.Clone())
	switch fld.Type() {
	case schema.TypeFloat32:
		inner = jen.Qual("math", "Float32bits").Call(da).Op("==").Qual("math", "Float32bits").Call(db)
	case schema.TypeFloat64:
		inner = jen.Qual("math", "Float64bits").Call(da).Op("==").Qual("math", "Float64bits").Call(db)
	case schema.TypeTime:
		inner = jen.Parens(da).Dot("Equal").Call(db)
	default:
		inner = jen.Add(da).Op("==").Add(db)
	}
	return jen.Parens(a.Clone().Op("==").Nil()).Op("==").Parens(b.Clone().Op("==").Nil()).
		Op("&&").
		Parens(a.Clone().Op("==").Nil().Op("||").Parens(inner)), nil
}

// refKeyCond compares a foreign-key reference by the target's primary
// key, treating two nils as equal.
func refKeyCond(name string, ref *schema.Definition) jen.Code {
	a, b := fieldRef("a", name), fieldRef("b", name)
	var keyConds []jen.Code
	for _, pk := range ref.Fields() {
		if !pk.IsPrimaryKey() {
			continue
		}
		pkName := exportedName(pk.Name())
		if pk.Type() == schema.TypeRecord {
			keyConds = append(keyConds,
				a.Clone().Dot(pkName).Dot("Equal").Call(jen.Op("&").Add(b.Clone().Dot(pkName))))
			continue
		}
		keyConds = append(keyConds, a.Clone().Dot(pkName).Op("==").Add(b.Clone().Dot(pkName)))
	}
	if len(keyConds) == 0 {
		// No key on the target; fall back to pointer identity.
		return a.Clone().Op("==").Add(b)
	}
	expr := keyConds[0]
	for _, c := range keyConds[1:] {
		expr = jen.Add(expr).Op("&&").Add(c)
	}
	return jen.Parens(a.Clone().Op("==").Nil()).Op("==").Parens(b.Clone().Op("==").Nil()).
		Op("&&").
		Parens(a.Clone().Op("==").Nil().Op("||").Parens(expr))
}

// emitKeyEqual generates primary-key identity for keyed types.
func emitKeyEqual(f *jen.File, def *schema.Definition) {
	var conds []jen.Code
	for _, fld := range def.Fields() {
		if !fld.IsPrimaryKey() {
			continue
		}
		name := exportedName(fld.Name())
		a, b := fieldRef("a", name), fieldRef("b", name)
		if fld.Type() == schema.TypeRecord {
			conds = append(conds, a.Clone().Dot("Equal").Call(jen.Op("&").Add(b)))
			continue
		}
		conds = append(conds, a.Clone().Op("==").Add(b))
	}
	if len(conds) == 0 {
		return
	}
	expr := conds[0]
	for _, c := range conds[1:] {
		expr = jen.Add(expr).Op("&&").Add(c)
	}
	f.Comment("KeyEqual reports primary-key identity.")
	f.Func().Params(jen.Id("a").Op("*").Id(def.Name())).Id("KeyEqual").
		Params(jen.Id("b").Op("*").Id(def.Name())).Bool().
		Block(
			jen.If(jen.Id("a").Op("==").Nil().Op("||").Id("b").Op("==").Nil()).Block(
				jen.Return(jen.Id("a").Op("==").Id("b")),
			),
			jen.Return(expr),
		)
}

// emitValues generates the path-value map consumed by insert builders.
// Generated keys and version counters are left to the compiler.
func emitValues(f *jen.File, def *schema.Definition) {
	entries := jen.Dict{}
	var refs []jen.Code
	addScalars(entries, &refs, def, nil, "a")
	f.Comment("Values returns the insertable path-value map for this record.")
	f.Func().Params(jen.Id("a").Op("*").Id(def.Name())).Id("Values").
		Params().Map(jen.String()).Any().
		Block(append([]jen.Code{
			jen.Id("v").Op(":=").Map(jen.String()).Any().Values(entries),
		}, append(refs, jen.Return(jen.Id("v")))...)...)
}

func addScalars(entries jen.Dict, refs *[]jen.Code, def *schema.Definition, prefix []string, recv string) {
	for _, fld := range def.Fields() {
		if fld.IsVersion() || fld.IsIdentity() || fld.SequenceName() != "" || !fld.Insertable() {
			continue
		}
		name := exportedName(fld.Name())
		if fld.Type() != schema.TypeRecord {
			entries[jen.Lit(dotted(prefix, fld.Name()))] = sel(recv, prefix, name)
			continue
		}
		childPrefix := append(append([]string{}, prefix...), fld.Name())
		if fld.RefKind() == schema.RefInline {
			addScalars(entries, refs, fld.RefDefinition(), childPrefix, recv)
			continue
		}
		// Foreign keys bind the related record's key columns when set.
		ref := fld.RefDefinition()
		assigns := []jen.Code{}
		for _, pk := range ref.Fields() {
			if !pk.IsPrimaryKey() || pk.Type() == schema.TypeRecord {
				continue
			}
			path := dotted(childPrefix, pk.Name())
			assigns = append(assigns,
				jen.Id("v").Index(jen.Lit(path)).Op("=").
					Add(sel(recv, prefix, name)).Dot(exportedName(pk.Name())))
		}
		if len(assigns) > 0 {
			*refs = append(*refs, jen.If(sel(recv, prefix, name).Op("!=").Nil()).Block(assigns...))
		}
	}
}

// sel builds the selector expression recv.Prefix1.Prefix2.Field.
func sel(recv string, prefix []string, field string) *jen.Statement {
	s := jen.Id(recv)
	for _, p := range prefix {
		s = s.Dot(exportedName(p))
	}
	return s.Dot(field)
}
