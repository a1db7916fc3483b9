package migration

import (
	atlasschema "ariga.io/atlas/sql/schema"

	"github.com/exocore-dev/exocore/sqlmodel"
)

// toAtlasSchema converts a sqlmodel.Schema to the shape
// ariga.io/atlas's diffing engine operates on. Only the parts the
// differ actually inspects (tables, columns, primary/foreign keys,
// indexes) are populated; attrs/objects atlas models for other
// dialects have no sqlmodel counterpart.
func toAtlasSchema(s *sqlmodel.Schema) *atlasschema.Schema {
	as := &atlasschema.Schema{Name: s.Name}
	tableByName := map[string]*atlasschema.Table{}
	for _, t := range s.Tables {
		at := toAtlasTable(as, t)
		as.Tables = append(as.Tables, at)
		tableByName[t.Name] = at
	}
	// Foreign keys reference other tables, so they're wired in a second
	// pass once every table in the schema has been converted.
	for _, t := range s.Tables {
		at := tableByName[t.Name]
		for _, fk := range t.ForeignKeys {
			refTable, ok := tableByName[fk.RefTable.Name]
			if !ok {
				continue
			}
			at.ForeignKeys = append(at.ForeignKeys, toAtlasForeignKey(at, refTable, fk))
		}
	}
	return as
}

func toAtlasTable(as *atlasschema.Schema, t *sqlmodel.Table) *atlasschema.Table {
	at := &atlasschema.Table{Name: t.Name, Schema: as}
	colByName := map[string]*atlasschema.Column{}
	for _, c := range t.Columns {
		ac := toAtlasColumn(c)
		at.Columns = append(at.Columns, ac)
		colByName[c.Name] = ac
	}
	if len(t.PrimaryKey) > 0 {
		pk := &atlasschema.Index{Name: t.Name + "_pkey", Table: at, Unique: true}
		for i, c := range t.PrimaryKey {
			pk.Parts = append(pk.Parts, &atlasschema.IndexPart{SeqNo: i, C: colByName[c.Name]})
		}
		at.PrimaryKey = pk
	}
	for _, idx := range t.Indexes {
		ai := &atlasschema.Index{Name: idx.Name, Table: at, Unique: idx.Unique}
		for i, c := range idx.Columns {
			ai.Parts = append(ai.Parts, &atlasschema.IndexPart{SeqNo: i, C: colByName[c.Name]})
		}
		at.Indexes = append(at.Indexes, ai)
	}
	return at
}

func toAtlasColumn(c *sqlmodel.Column) *atlasschema.Column {
	ac := &atlasschema.Column{
		Name: c.Name,
		Type: &atlasschema.ColumnType{Type: toAtlasType(c.Type), Raw: c.Type.SQL(), Null: c.Nullable},
	}
	if c.Default != nil {
		ac.Default = &atlasschema.RawExpr{X: c.Default.SQL()}
	}
	return ac
}

// toAtlasType maps a sqlmodel.PhysicalType onto one of atlas's concrete
// schema.Type implementations so the postgres differ's typeChanged
// comparison (which switches on the Go type of Column.Type.Type) sees
// the same dialect-native shape it would from a live introspection.
func toAtlasType(t sqlmodel.PhysicalType) atlasschema.Type {
	switch t.Kind {
	case sqlmodel.KindBoolean:
		return &atlasschema.BoolType{T: "boolean"}
	case sqlmodel.KindInt:
		switch t.Bits {
		case 16:
			return &atlasschema.IntegerType{T: "smallint"}
		case 64:
			return &atlasschema.IntegerType{T: "bigint"}
		default:
			return &atlasschema.IntegerType{T: "integer"}
		}
	case sqlmodel.KindFloat:
		if t.Bits == 32 {
			return &atlasschema.FloatType{T: "real", Precision: 24}
		}
		return &atlasschema.FloatType{T: "double precision", Precision: 53}
	case sqlmodel.KindNumeric:
		return &atlasschema.DecimalType{T: "numeric", Precision: t.Precision, Scale: t.Scale}
	case sqlmodel.KindText:
		return &atlasschema.StringType{T: "text"}
	case sqlmodel.KindVarchar:
		return &atlasschema.StringType{T: "character varying", Size: t.Length}
	case sqlmodel.KindUUID:
		return &atlasschema.UUIDType{T: "uuid"}
	case sqlmodel.KindTimestamp:
		return &atlasschema.TimeType{T: "timestamp"}
	case sqlmodel.KindTimestampTZ:
		return &atlasschema.TimeType{T: "timestamp with time zone"}
	case sqlmodel.KindDate:
		return &atlasschema.TimeType{T: "date"}
	case sqlmodel.KindTime:
		return &atlasschema.TimeType{T: "time"}
	case sqlmodel.KindJSON:
		return &atlasschema.JSONType{T: "json"}
	case sqlmodel.KindJSONB:
		return &atlasschema.JSONType{T: "jsonb"}
	case sqlmodel.KindBytea:
		return &atlasschema.BinaryType{T: "bytea"}
	case sqlmodel.KindEnum:
		return &atlasschema.EnumType{T: t.EnumName}
	default:
		// KindVector and KindArray have no atlas-native representation;
		// the raw SQL text still participates in a correct string-equal
		// comparison via schema.UnsupportedType.
		return &atlasschema.UnsupportedType{T: t.SQL()}
	}
}

func toAtlasForeignKey(at, refTable *atlasschema.Table, fk *sqlmodel.ForeignKey) *atlasschema.ForeignKey {
	afk := &atlasschema.ForeignKey{
		Symbol:   fk.Name,
		Table:    at,
		RefTable: refTable,
		OnUpdate: toAtlasRefOption(fk.OnUpdate),
		OnDelete: toAtlasRefOption(fk.OnDelete),
	}
	colByName := map[string]*atlasschema.Column{}
	for _, c := range at.Columns {
		colByName[c.Name] = c
	}
	refColByName := map[string]*atlasschema.Column{}
	for _, c := range refTable.Columns {
		refColByName[c.Name] = c
	}
	for _, c := range fk.Columns {
		afk.Columns = append(afk.Columns, colByName[c.Name])
	}
	for _, c := range fk.RefColumns {
		afk.RefColumns = append(afk.RefColumns, refColByName[c.Name])
	}
	return afk
}

func toAtlasRefOption(a sqlmodel.ReferentialAction) atlasschema.ReferenceOption {
	switch a {
	case sqlmodel.Restrict:
		return atlasschema.Restrict
	case sqlmodel.Cascade:
		return atlasschema.Cascade
	case sqlmodel.SetNull:
		return atlasschema.SetNull
	case sqlmodel.SetDefault:
		return atlasschema.SetDefault
	default:
		return atlasschema.NoAction
	}
}
