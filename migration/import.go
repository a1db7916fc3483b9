package migration

import (
	"context"
	"fmt"

	"ariga.io/atlas/sql/postgres"
	atlasschema "ariga.io/atlas/sql/schema"

	"github.com/exocore-dev/exocore/sqlir"
	"github.com/exocore-dev/exocore/sqlmodel"
)

// Introspect reads a live database's actual shape via atlas's Postgres
// inspector (`schema import`, spec §6) and converts it back into a
// sqlmodel.Schema so it can feed Diff the same way the compiled model's
// desired shape does.
func Introspect(ctx context.Context, db *sqlir.Driver, schemaName string) (*sqlmodel.Schema, error) {
	drv, err := postgres.Open(db.DB())
	if err != nil {
		return nil, fmt.Errorf("migration: open atlas driver: %w", err)
	}
	as, err := drv.InspectSchema(ctx, schemaName, nil)
	if err != nil {
		return nil, fmt.Errorf("migration: inspect schema %q: %w", schemaName, err)
	}
	return fromAtlasSchema(as), nil
}

func fromAtlasSchema(as *atlasschema.Schema) *sqlmodel.Schema {
	s := &sqlmodel.Schema{Name: as.Name, Managed: true}
	tableByName := map[string]*sqlmodel.Table{}
	for _, at := range as.Tables {
		t := fromAtlasTable(at)
		s.Tables = append(s.Tables, t)
		tableByName[t.Name] = t
	}
	for _, at := range as.Tables {
		t := tableByName[at.Name]
		for _, afk := range at.ForeignKeys {
			refTable, ok := tableByName[afk.RefTable.Name]
			if !ok {
				continue
			}
			t.ForeignKeys = append(t.ForeignKeys, fromAtlasForeignKey(t.Name, refTable, afk))
		}
	}
	return s
}

func fromAtlasTable(at *atlasschema.Table) *sqlmodel.Table {
	t := &sqlmodel.Table{Name: at.Name, Managed: true}
	colByName := map[string]*sqlmodel.Column{}
	for _, ac := range at.Columns {
		c := fromAtlasColumn(at.Name, ac)
		t.Columns = append(t.Columns, c)
		colByName[c.Name] = c
	}
	if at.PrimaryKey != nil {
		for _, p := range at.PrimaryKey.Parts {
			if p.C != nil {
				t.PrimaryKey = append(t.PrimaryKey, colByName[p.C.Name])
			}
		}
	}
	for _, ai := range at.Indexes {
		idx := &sqlmodel.Index{Name: ai.Name, Table: at.Name, Unique: ai.Unique}
		for _, p := range ai.Parts {
			if p.C != nil {
				idx.Columns = append(idx.Columns, colByName[p.C.Name])
			}
		}
		t.Indexes = append(t.Indexes, idx)
	}
	return t
}

func fromAtlasColumn(table string, ac *atlasschema.Column) *sqlmodel.Column {
	return &sqlmodel.Column{
		Table:    table,
		Name:     ac.Name,
		Type:     fromAtlasType(ac.Type),
		Nullable: ac.Type.Null,
	}
}

func fromAtlasType(ct *atlasschema.ColumnType) sqlmodel.PhysicalType {
	switch t := ct.Type.(type) {
	case *atlasschema.BoolType:
		return sqlmodel.PhysicalType{Kind: sqlmodel.KindBoolean}
	case *atlasschema.IntegerType:
		bits := 32
		switch t.T {
		case "smallint":
			bits = 16
		case "bigint":
			bits = 64
		}
		return sqlmodel.PhysicalType{Kind: sqlmodel.KindInt, Bits: bits}
	case *atlasschema.FloatType:
		bits := 64
		if t.Precision <= 24 {
			bits = 32
		}
		return sqlmodel.PhysicalType{Kind: sqlmodel.KindFloat, Bits: bits}
	case *atlasschema.DecimalType:
		return sqlmodel.PhysicalType{Kind: sqlmodel.KindNumeric, Precision: t.Precision, Scale: t.Scale}
	case *atlasschema.StringType:
		if t.T == "text" {
			return sqlmodel.PhysicalType{Kind: sqlmodel.KindText}
		}
		return sqlmodel.PhysicalType{Kind: sqlmodel.KindVarchar, Length: t.Size}
	case *atlasschema.UUIDType:
		return sqlmodel.PhysicalType{Kind: sqlmodel.KindUUID}
	case *atlasschema.TimeType:
		switch t.T {
		case "timestamp with time zone":
			return sqlmodel.PhysicalType{Kind: sqlmodel.KindTimestampTZ}
		case "date":
			return sqlmodel.PhysicalType{Kind: sqlmodel.KindDate}
		case "time":
			return sqlmodel.PhysicalType{Kind: sqlmodel.KindTime}
		default:
			return sqlmodel.PhysicalType{Kind: sqlmodel.KindTimestamp}
		}
	case *atlasschema.JSONType:
		if t.T == "jsonb" {
			return sqlmodel.PhysicalType{Kind: sqlmodel.KindJSONB}
		}
		return sqlmodel.PhysicalType{Kind: sqlmodel.KindJSON}
	case *atlasschema.BinaryType:
		return sqlmodel.PhysicalType{Kind: sqlmodel.KindBytea}
	case *atlasschema.EnumType:
		return sqlmodel.PhysicalType{Kind: sqlmodel.KindEnum, EnumName: t.T}
	default:
		return sqlmodel.PhysicalType{Kind: sqlmodel.KindText}
	}
}

func fromAtlasForeignKey(tableName string, refTable *sqlmodel.Table, afk *atlasschema.ForeignKey) *sqlmodel.ForeignKey {
	fk := &sqlmodel.ForeignKey{
		Name:     afk.Symbol,
		Table:    tableName,
		RefTable: refTable,
		OnDelete: fromAtlasRefOption(afk.OnDelete),
		OnUpdate: fromAtlasRefOption(afk.OnUpdate),
	}
	refColByName := map[string]*sqlmodel.Column{}
	for _, c := range refTable.Columns {
		refColByName[c.Name] = c
	}
	for _, c := range afk.Columns {
		fk.Columns = append(fk.Columns, &sqlmodel.Column{Table: tableName, Name: c.Name})
	}
	for _, c := range afk.RefColumns {
		if rc, ok := refColByName[c.Name]; ok {
			fk.RefColumns = append(fk.RefColumns, rc)
		}
	}
	return fk
}

func fromAtlasRefOption(o atlasschema.ReferenceOption) sqlmodel.ReferentialAction {
	switch o {
	case atlasschema.Restrict:
		return sqlmodel.Restrict
	case atlasschema.Cascade:
		return sqlmodel.Cascade
	case atlasschema.SetNull:
		return sqlmodel.SetNull
	case atlasschema.SetDefault:
		return sqlmodel.SetDefault
	default:
		return sqlmodel.NoAction
	}
}
