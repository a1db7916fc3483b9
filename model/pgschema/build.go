package pgschema

import (
	"fmt"

	"github.com/exocore-dev/exocore"
	"github.com/exocore-dev/exocore/model/ast"
	"github.com/exocore-dev/exocore/sqlmodel"
)

// logicalTypeDefaults maps the DSL's built-in scalar type names to
// their default PhysicalType (spec §4.1 "default physical type
// mapping"); a field whose TypeRef names a declared model type instead
// of one of these becomes a relation, not a scalar column.
var logicalTypeDefaults = map[string]sqlmodel.PhysicalType{
	"Int":       {Kind: sqlmodel.KindInt, Bits: 32},
	"Float":     {Kind: sqlmodel.KindFloat, Bits: 64},
	"Boolean":   {Kind: sqlmodel.KindBoolean},
	"String":    {Kind: sqlmodel.KindText},
	"Instant":   {Kind: sqlmodel.KindTimestampTZ},
	"LocalDate": {Kind: sqlmodel.KindDate},
	"LocalTime": {Kind: sqlmodel.KindTime},
	"Uuid":      {Kind: sqlmodel.KindUUID},
	"Json":      {Kind: sqlmodel.KindJSONB},
	"Blob":      {Kind: sqlmodel.KindBytea},
	"Vector":    {Kind: sqlmodel.KindVector, Length: 1536},
}

// Builder accumulates declared types across one or more parsed files
// and lowers them into a sqlmodel.Schema on Build.
type Builder struct {
	schemaName string
	types      map[string]*ast.TypeDecl
	enums      map[string]*ast.EnumDecl
	order      []string // type names in declaration order, for deterministic output
	errors     exocore.CompileErrors
}

// NewBuilder returns a Builder emitting tables into the named Postgres
// schema (defaulting to "public" when schemaName is empty).
func NewBuilder(schemaName string) *Builder {
	if schemaName == "" {
		schemaName = "public"
	}
	return &Builder{
		schemaName: schemaName,
		types:      map[string]*ast.TypeDecl{},
		enums:      map[string]*ast.EnumDecl{},
	}
}

// AddFile registers every type/enum declaration in f, recursing into
// module bodies. Fragments are expected to have already been expanded
// into their containing types by an earlier compiler phase; a
// FragmentDecl reaching this builder is ignored.
//
// AddFile is for callers (tests, ad-hoc tooling) that skip straight to
// @postgres dispatch without running fragment expansion first — it
// reports an error for each unexpanded spread and builds the table
// without that spread's fields. Pipeline callers
// going through model.Compile use AddExpandedTypes instead, where a
// leftover spread is a compiler invariant violation, not routine input.
func (b *Builder) AddFile(f *ast.File) {
	b.addDecls(f.Decls)
}

// AddExpandedTypes registers types that have already been through
// fragment expansion (model.Compile phase 2): every FieldDecl is
// expected to be a concrete field, never a spread. This is the entry
// point model.Compile uses.
func (b *Builder) AddExpandedTypes(types []*ast.TypeDecl) {
	for _, td := range types {
		if _, exists := b.types[td.Name]; !exists {
			b.order = append(b.order, td.Name)
		}
		b.types[td.Name] = td
	}
}

func (b *Builder) addDecls(decls []ast.Decl) {
	for _, d := range decls {
		switch d := d.(type) {
		case *ast.ModuleDecl:
			b.addDecls(d.Decls)
		case *ast.TypeDecl:
			if _, exists := b.types[d.Name]; !exists {
				b.order = append(b.order, d.Name)
			}
			b.types[d.Name] = d
		case *ast.EnumDecl:
			b.enums[d.Name] = d
		}
	}
}

func (b *Builder) errorf(sp exocore.Span, format string, args ...any) {
	b.errors = append(b.errors, &exocore.CompileError{
		Span:    sp,
		Kind:    exocore.KindType,
		Message: fmt.Sprintf(format, args...),
	})
}

// Build lowers every registered type into a sqlmodel.Schema. It
// reports as many independent diagnostics as it can before returning
// (spec §4.1), rather than aborting on the first one.
func (b *Builder) Build() (*sqlmodel.Schema, exocore.CompileErrors) {
	schema := &sqlmodel.Schema{Name: b.schemaName, Managed: true}

	for _, name := range sortedEnumNames(b.enums) {
		schema.Enums = append(schema.Enums, b.buildEnum(b.enums[name]))
	}

	tables := map[string]*sqlmodel.Table{}
	for _, name := range b.order {
		t := b.buildTable(b.types[name])
		tables[name] = t
		schema.Tables = append(schema.Tables, t)
	}

	// second pass: relation fields need every table already built, since
	// a relation may reference a type declared later in the file.
	for _, name := range b.order {
		b.buildRelations(b.types[name], tables)
	}

	return schema, b.errors
}

func sortedEnumNames(m map[string]*ast.EnumDecl) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	// declaration order isn't tracked separately for enums since they
	// have no cross-references to order around; lexical order keeps
	// output deterministic.
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j-1] > names[j]; j-- {
			names[j-1], names[j] = names[j], names[j-1]
		}
	}
	return names
}

func (b *Builder) buildEnum(e *ast.EnumDecl) *sqlmodel.Enum {
	return &sqlmodel.Enum{
		SchemaName: b.schemaName,
		Name:       SnakeCase(e.Name),
		Values:     append([]string(nil), e.Values...),
	}
}

func (b *Builder) buildTable(td *ast.TypeDecl) *sqlmodel.Table {
	tableName := TableNameFor(td.Name)
	managed := true
	for _, ann := range td.Annotations {
		if ann.Name != "table" {
			continue
		}
		ov := b.tableOverride(ann)
		if ov.Name != "" {
			tableName = ov.Name
		} else if nameArg, ok := ann.Arg(""); ok && nameArg.Value.Kind == ast.ValString {
			tableName = nameArg.Value.Str
		}
		if ov.ManagedSet {
			managed = ov.Managed
		}
	}

	table := &sqlmodel.Table{SchemaName: b.schemaName, Name: tableName, Managed: managed}

	for _, f := range td.Fields {
		if f.IsSpread() {
			// Reaching AddExpandedTypes, this is a compiler invariant
			// violation (phase 2 must have inlined every spread);
			// reaching it via the raw AddFile entry point, it's a
			// caller that skipped phase 2 on purpose. Either way the
			// field the spread would have contributed is unrecoverable
			// here, so report it instead of silently dropping it.
			b.errorf(f.Span(), "unexpanded fragment spread %q reached @postgres dispatch; run fragment expansion first", f.Spread)
			continue
		}
		if _, isRelation := b.types[f.Type.Name]; isRelation {
			// relation field (to-one or to-many): to-one gets its FK
			// column built in buildRelations once every table exists;
			// to-many relations own no column on this side at all (the
			// inverse FK lives on the other table). Either way, no
			// plain column is emitted here.
			continue
		}
		col := b.buildColumn(tableName, f)
		table.Columns = append(table.Columns, col.Column)
		if col.isPK {
			table.PrimaryKey = append(table.PrimaryKey, col.Column)
		}
		if len(col.indexGroups) > 0 {
			addToIndexGroups(table, col.Column, col.indexGroups)
		}
	}

	return table
}

// columnBuild pairs the emitted sqlmodel.Column with the builder-only
// metadata (PK/index-group membership) not worth carrying on the
// public sqlmodel type itself.
type columnBuild struct {
	*sqlmodel.Column
	isPK        bool
	indexGroups []string
}

func (b *Builder) buildColumn(tableName string, f ast.FieldDecl) columnBuild {
	colName := ColumnNameFor(f.Name)
	phys, ok := logicalTypeDefaults[f.Type.Name]
	if !ok {
		if _, isEnum := b.enums[f.Type.Name]; isEnum {
			phys = sqlmodel.PhysicalType{Kind: sqlmodel.KindEnum, EnumName: SnakeCase(f.Type.Name)}
		} else {
			b.errorf(f.Type.Span(), "unknown field type %q", f.Type.Name)
			phys = sqlmodel.PhysicalType{Kind: sqlmodel.KindText}
		}
	}
	if f.Type.Array {
		elem := phys
		phys = sqlmodel.PhysicalType{Kind: sqlmodel.KindArray, Elem: &elem}
	}

	col := &sqlmodel.Column{Table: tableName, Name: colName, Type: phys, Nullable: f.Type.Optional}
	build := columnBuild{Column: col}

	for _, ann := range f.Annotations {
		switch ann.Name {
		case "pk":
			build.isPK = true
			col.Nullable = false
		case "unique":
			col.Unique = true
		case "readonly":
			col.ReadOnly = true
		case "column":
			if nameArg, ok := ann.Arg(""); ok && nameArg.Value.Kind == ast.ValString {
				col.Name = nameArg.Value.Str
			}
			if nameArg, ok := ann.Arg("name"); ok {
				col.Name = nameArg.Value.Str
			}
			if mappingArg, ok := ann.Arg("mapping"); ok {
				col.Name = mappingArg.Value.Str
			}
		case "maxLength":
			if len(ann.Args) > 0 {
				n := int(ann.Args[0].Value.Int)
				col.Size = n
				col.Type.Kind = sqlmodel.KindVarchar
				col.Type.Length = n
			}
		case "precision":
			if len(ann.Args) > 0 {
				col.Type.Kind = sqlmodel.KindNumeric
				col.Type.Precision = int(ann.Args[0].Value.Int)
			}
		case "scale":
			if len(ann.Args) > 0 {
				col.Type.Scale = int(ann.Args[0].Value.Int)
			}
		case "singlePrecision":
			col.Type.Bits = 32
		case "bits16":
			col.Type.Bits = 16
		case "bits32":
			col.Type.Bits = 32
		case "bits64":
			col.Type.Bits = 64
		case "size":
			if len(ann.Args) > 0 {
				n := int(ann.Args[0].Value.Int)
				col.Size = n
				col.Type.Length = n
			}
		case "index":
			for _, arg := range ann.Args {
				if arg.Value.Kind == ast.ValString || arg.Value.Kind == ast.ValIdent {
					build.indexGroups = append(build.indexGroups, arg.Value.Str)
				}
			}
			if len(build.indexGroups) == 0 {
				build.indexGroups = []string{colName + "_idx"}
			}
		}
	}

	if build.isPK && col.Default == nil && col.Type.Kind == sqlmodel.KindInt {
		col.Default = &sqlmodel.Default{Kind: sqlmodel.DefaultAutoIncrement, Sequence: SequenceNameFor(tableName, col.Name)}
	}

	return build
}

func (b *Builder) tableOverride(ann ast.Annotation) TableOverride {
	var ov TableOverride
	if nameArg, ok := ann.Arg("name"); ok {
		ov.Name = nameArg.Value.Str
	}
	if schemaArg, ok := ann.Arg("schema"); ok {
		ov.Schema = schemaArg.Value.Str
	}
	if managedArg, ok := ann.Arg("managed"); ok {
		ov.Managed = managedArg.Value.Bool
		ov.ManagedSet = true
	}
	return ov
}

func addToIndexGroups(table *sqlmodel.Table, col *sqlmodel.Column, groups []string) {
	for _, g := range groups {
		var idx *sqlmodel.Index
		for _, existing := range table.Indexes {
			if existing.Name == g {
				idx = existing
				break
			}
		}
		if idx == nil {
			idx = &sqlmodel.Index{Name: g, Table: table.Name}
			table.Indexes = append(table.Indexes, idx)
		}
		idx.Columns = append(idx.Columns, col)
	}
}

// buildRelations adds the owner-side foreign key column and
// ForeignKey entry for each to-one relation field, now that every
// table in this build has already been constructed.
func (b *Builder) buildRelations(td *ast.TypeDecl, tables map[string]*sqlmodel.Table) {
	table := tables[td.Name]
	for _, f := range td.Fields {
		if f.IsSpread() || f.Type.Array {
			continue
		}
		refDecl, isRelation := b.types[f.Type.Name]
		if !isRelation {
			continue
		}
		refTable := tables[refDecl.Name]
		if refTable == nil || len(refTable.PrimaryKey) == 0 {
			b.errorf(f.Span(), "relation field %q references type %q with no primary key", f.Name, f.Type.Name)
			continue
		}

		fkColName := ForeignKeyColumnFor(f.Name)
		onDelete := sqlmodel.Restrict
		onUpdate := sqlmodel.NoAction
		for _, ann := range f.Annotations {
			if ann.Name != "relation" {
				continue
			}
			if v, ok := ann.Arg("onDelete"); ok {
				onDelete = sqlmodel.ReferentialAction(v.Value.Str)
			}
			if v, ok := ann.Arg("onUpdate"); ok {
				onUpdate = sqlmodel.ReferentialAction(v.Value.Str)
			}
		}

		refPK := refTable.PrimaryKey[0]
		fkCol := &sqlmodel.Column{Table: table.Name, Name: fkColName, Type: refPK.Type, Nullable: f.Type.Optional}
		table.Columns = append(table.Columns, fkCol)
		table.ForeignKeys = append(table.ForeignKeys, &sqlmodel.ForeignKey{
			Name:        table.Name + "_" + fkColName + "_fkey",
			Table:       table.Name,
			Columns:     []*sqlmodel.Column{fkCol},
			RefTable:    refTable,
			RefColumns:  []*sqlmodel.Column{refPK},
			Cardinality: sqlmodel.ManyToOne,
			OnDelete:    onDelete,
			OnUpdate:    onUpdate,
		})
	}
}
