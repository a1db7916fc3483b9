package gqlplan

import (
	"github.com/exocore-dev/exocore/access"
	"github.com/exocore-dev/exocore/sqlir"
	"github.com/exocore-dev/exocore/sqlmodel"
)

// schemaRelations implements access.RelationResolver over a compiled
// sqlmodel.Schema: a relation named after a field resolves to the
// owner-side foreign key pgschema.Builder attached to that field (spec
// §4.2's RelationSome/RelationAll lowering needs the related table, the
// column on it pointing back to the outer row, and the outer row's own
// key column).
type schemaRelations struct {
	schema *sqlmodel.Schema
	table  *sqlmodel.Table
}

// Relation implements access.RelationResolver.
func (r schemaRelations) Relation(name string) (related access.TableRef, relatedFK string, outerKey string, ok bool) {
	fkColumn := columnNameFor(name) + "_id"
	for _, fk := range r.table.ForeignKeys {
		if len(fk.Columns) != 1 || fk.Columns[0].Name != fkColumn {
			continue
		}
		refPK := fk.RefColumns[0]
		return access.TableRef{
			Table: sqlir.Table{Schema: fk.RefTable.SchemaName, Name: fk.RefTable.Name},
			Alias: fk.RefTable.Name,
		}, refPK.Name, fkColumn, true
	}
	// Inverse (to-many) relation: find a table whose FK points back at us.
	for _, t := range r.schema.Tables {
		for _, fk := range t.ForeignKeys {
			if fk.RefTable.Name != r.table.Name || len(fk.Columns) != 1 {
				continue
			}
			if t.Name != columnNameFor(name) && t.Name != columnNameFor(name)+"s" {
				continue
			}
			outerPK := r.table.PrimaryKey[0]
			return access.TableRef{
				Table: sqlir.Table{Schema: t.SchemaName, Name: t.Name},
				Alias: t.Name,
			}, fk.Columns[0].Name, outerPK.Name, true
		}
	}
	return access.TableRef{}, "", "", false
}
