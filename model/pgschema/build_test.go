package pgschema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exocore-dev/exocore/model/ast"
	"github.com/exocore-dev/exocore/model/pgschema"
	"github.com/exocore-dev/exocore/sqlmodel"
)

func parse(t *testing.T, src string) *ast.File {
	t.Helper()
	f, errs := ast.ParseFile("test.exo", src)
	require.Empty(t, errs)
	return f
}

func TestBuilderDerivesTableAndColumnNames(t *testing.T) {
	f := parse(t, `
type TodoItem {
  id: Int @pk
  createdAt: Instant
  isDone: Boolean
}
`)
	b := pgschema.NewBuilder("")
	b.AddFile(f)
	schema, errs := b.Build()
	require.Empty(t, errs)
	require.Len(t, schema.Tables, 1)

	table := schema.Tables[0]
	assert.Equal(t, "todo_items", table.Name)
	assert.Equal(t, "public", schema.Name)

	names := map[string]*sqlmodel.Column{}
	for _, c := range table.Columns {
		names[c.Name] = c
	}
	require.Contains(t, names, "id")
	require.Contains(t, names, "created_at")
	require.Contains(t, names, "is_done")
	assert.Equal(t, sqlmodel.KindTimestampTZ, names["created_at"].Type.Kind)
	assert.Equal(t, sqlmodel.KindBoolean, names["is_done"].Type.Kind)

	require.Len(t, table.PrimaryKey, 1)
	assert.Equal(t, "id", table.PrimaryKey[0].Name)
	require.NotNil(t, table.PrimaryKey[0].Default)
	assert.Equal(t, sqlmodel.DefaultAutoIncrement, table.PrimaryKey[0].Default.Kind)
}

func TestBuilderAppliesTableAndColumnOverrides(t *testing.T) {
	f := parse(t, `
type Todo {
  id: Int @pk
  title: String @column(name = "todo_title")
}
type TodoAlias @table(name = "todos_v2") {
  id: Int @pk
}
`)
	b := pgschema.NewBuilder("")
	b.AddFile(f)
	schema, errs := b.Build()
	require.Empty(t, errs)

	var todo, alias *sqlmodel.Table
	for _, tbl := range schema.Tables {
		switch tbl.Name {
		case "todos":
			todo = tbl
		case "todos_v2":
			alias = tbl
		}
	}
	require.NotNil(t, todo)
	require.NotNil(t, alias)

	var titleCol *sqlmodel.Column
	for _, c := range todo.Columns {
		if c.Name == "todo_title" {
			titleCol = c
		}
	}
	require.NotNil(t, titleCol)
}

func TestBuilderAppliesMaxLengthPrecisionAndUnique(t *testing.T) {
	f := parse(t, `
type Todo {
  id: Int @pk
  title: String @maxLength(200) @unique
  amount: Float @precision(10) @scale(2)
}
`)
	b := pgschema.NewBuilder("")
	b.AddFile(f)
	schema, errs := b.Build()
	require.Empty(t, errs)

	table := schema.Tables[0]
	var title, amount *sqlmodel.Column
	for _, c := range table.Columns {
		switch c.Name {
		case "title":
			title = c
		case "amount":
			amount = c
		}
	}
	require.NotNil(t, title)
	assert.Equal(t, sqlmodel.KindVarchar, title.Type.Kind)
	assert.Equal(t, 200, title.Type.Length)
	assert.True(t, title.Unique)

	require.NotNil(t, amount)
	assert.Equal(t, sqlmodel.KindNumeric, amount.Type.Kind)
	assert.Equal(t, 10, amount.Type.Precision)
	assert.Equal(t, 2, amount.Type.Scale)
}

func TestBuilderBuildsManyToOneRelationForeignKey(t *testing.T) {
	f := parse(t, `
type User {
  id: Int @pk
}
type Todo {
  id: Int @pk
  owner: User @relation
}
`)
	b := pgschema.NewBuilder("")
	b.AddFile(f)
	schema, errs := b.Build()
	require.Empty(t, errs)

	var todo *sqlmodel.Table
	for _, tbl := range schema.Tables {
		if tbl.Name == "todos" {
			todo = tbl
		}
	}
	require.NotNil(t, todo)

	var ownerCol *sqlmodel.Column
	for _, c := range todo.Columns {
		if c.Name == "owner_id" {
			ownerCol = c
		}
	}
	require.NotNil(t, ownerCol)

	require.Len(t, todo.ForeignKeys, 1)
	fk := todo.ForeignKeys[0]
	assert.Equal(t, "users", fk.RefTable.Name)
	assert.Equal(t, sqlmodel.Restrict, fk.OnDelete)
	assert.Equal(t, sqlmodel.ManyToOne, fk.Cardinality)
}

func TestBuilderRelationHonorsOnDeleteOverride(t *testing.T) {
	f := parse(t, `
type User {
  id: Int @pk
}
type Todo {
  id: Int @pk
  owner: User @relation(onDelete = "CASCADE")
}
`)
	b := pgschema.NewBuilder("")
	b.AddFile(f)
	schema, errs := b.Build()
	require.Empty(t, errs)

	var todo *sqlmodel.Table
	for _, tbl := range schema.Tables {
		if tbl.Name == "todos" {
			todo = tbl
		}
	}
	require.NotNil(t, todo)
	require.Len(t, todo.ForeignKeys, 1)
	assert.Equal(t, sqlmodel.Cascade, todo.ForeignKeys[0].OnDelete)
}

func TestBuilderGroupsColumnsIntoCompositeIndex(t *testing.T) {
	f := parse(t, `
type Todo {
  id: Int @pk
  tenantId: Int @index("tenant_status_idx")
  status: String @index("tenant_status_idx")
}
`)
	b := pgschema.NewBuilder("")
	b.AddFile(f)
	schema, errs := b.Build()
	require.Empty(t, errs)

	table := schema.Tables[0]
	require.Len(t, table.Indexes, 1)
	assert.Equal(t, "tenant_status_idx", table.Indexes[0].Name)
	require.Len(t, table.Indexes[0].Columns, 2)
}

func TestBuilderReportsUnknownFieldType(t *testing.T) {
	f := parse(t, `
type Todo {
  id: Int @pk
  widget: Widget
}
`)
	b := pgschema.NewBuilder("")
	b.AddFile(f)
	_, errs := b.Build()
	require.NotEmpty(t, errs)
	assert.Contains(t, errs.Error(), "unknown field type")
}

func TestBuilderBuildsEnumAndEnumField(t *testing.T) {
	f := parse(t, `
enum Status {
  ACTIVE
  DONE
}
type Todo {
  id: Int @pk
  status: Status
}
`)
	b := pgschema.NewBuilder("")
	b.AddFile(f)
	schema, errs := b.Build()
	require.Empty(t, errs)

	require.Len(t, schema.Enums, 1)
	assert.Equal(t, "status", schema.Enums[0].Name)
	assert.Equal(t, []string{"ACTIVE", "DONE"}, schema.Enums[0].Values)

	table := schema.Tables[0]
	var statusCol *sqlmodel.Column
	for _, c := range table.Columns {
		if c.Name == "status" {
			statusCol = c
		}
	}
	require.NotNil(t, statusCol)
	assert.Equal(t, sqlmodel.KindEnum, statusCol.Type.Kind)
	assert.Equal(t, "status", statusCol.Type.EnumName)
}
