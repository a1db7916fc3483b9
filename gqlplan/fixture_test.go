package gqlplan_test

import "github.com/exocore-dev/exocore/sqlmodel"

// testSchema builds a two-table schema (todos -> users) shared by the
// gqlplan tests: enough relation/column surface to exercise filters,
// orderings, and both foreign-key directions without pulling in the
// full model compiler.
func testSchema() *sqlmodel.Schema {
	users := &sqlmodel.Table{
		Name: "users",
		Columns: []*sqlmodel.Column{
			{Name: "id", Type: sqlmodel.PhysicalType{Kind: sqlmodel.KindUUID}},
			{Name: "name", Type: sqlmodel.PhysicalType{Kind: sqlmodel.KindText}},
		},
	}
	users.PrimaryKey = []*sqlmodel.Column{users.Columns[0]}

	todos := &sqlmodel.Table{
		Name: "todos",
		Columns: []*sqlmodel.Column{
			{Name: "id", Type: sqlmodel.PhysicalType{Kind: sqlmodel.KindUUID}},
			{Name: "title", Type: sqlmodel.PhysicalType{Kind: sqlmodel.KindText}},
			{Name: "done", Type: sqlmodel.PhysicalType{Kind: sqlmodel.KindBoolean}},
			{Name: "owner_id", Type: sqlmodel.PhysicalType{Kind: sqlmodel.KindUUID}},
		},
	}
	todos.PrimaryKey = []*sqlmodel.Column{todos.Columns[0]}
	todos.ForeignKeys = []*sqlmodel.ForeignKey{{
		Name:       "todos_owner_id_fkey",
		Table:      "todos",
		Columns:    []*sqlmodel.Column{todos.Columns[3]},
		RefTable:   users,
		RefColumns: []*sqlmodel.Column{users.Columns[0]},
	}}

	return &sqlmodel.Schema{Name: "public", Managed: true, Tables: []*sqlmodel.Table{todos, users}}
}
