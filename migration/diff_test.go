package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exocore-dev/exocore/sqlmodel"
)

func col(name string, kind sqlmodel.Kind, nullable bool) *sqlmodel.Column {
	return &sqlmodel.Column{Name: name, Type: sqlmodel.PhysicalType{Kind: kind}, Nullable: nullable}
}

func TestDiffEmitsCreateTableForNewTable(t *testing.T) {
	t.Parallel()

	current := &sqlmodel.Schema{Name: "public"}
	users := &sqlmodel.Table{Name: "users", Columns: []*sqlmodel.Column{col("id", sqlmodel.KindUUID, false), col("email", sqlmodel.KindText, false)}}
	users.PrimaryKey = []*sqlmodel.Column{users.Columns[0]}
	desired := &sqlmodel.Schema{Name: "public", Tables: []*sqlmodel.Table{users}}

	plan, err := Diff(current, desired, Scope{}, Interactions{}, false)
	require.NoError(t, err)
	require.Len(t, plan.Statements, 1)
	assert.Equal(t, CreateTable, plan.Statements[0].Kind)
	assert.Contains(t, plan.Statements[0].SQL, `CREATE TABLE "users"`)
	assert.False(t, plan.Statements[0].Destructive)
}

func TestDiffEmitsDropTableCommentedWithoutAllowDestructive(t *testing.T) {
	t.Parallel()

	users := &sqlmodel.Table{Name: "users", Columns: []*sqlmodel.Column{col("id", sqlmodel.KindUUID, false)}}
	users.PrimaryKey = []*sqlmodel.Column{users.Columns[0]}
	current := &sqlmodel.Schema{Name: "public", Tables: []*sqlmodel.Table{users}}
	desired := &sqlmodel.Schema{Name: "public"}

	plan, err := Diff(current, desired, Scope{}, Interactions{}, false)
	require.NoError(t, err)
	require.Len(t, plan.Statements, 1)
	assert.Equal(t, DropTable, plan.Statements[0].Kind)
	assert.True(t, plan.Statements[0].Destructive)
	assert.True(t, plan.Statements[0].Commented)
	assert.Equal(t, "-- "+plan.Statements[0].SQL, plan.Statements[0].Rendered())
}

func TestDiffAllowDestructiveLeavesStatementLive(t *testing.T) {
	t.Parallel()

	users := &sqlmodel.Table{Name: "users", Columns: []*sqlmodel.Column{col("id", sqlmodel.KindUUID, false)}}
	users.PrimaryKey = []*sqlmodel.Column{users.Columns[0]}
	current := &sqlmodel.Schema{Name: "public", Tables: []*sqlmodel.Table{users}}
	desired := &sqlmodel.Schema{Name: "public"}

	plan, err := Diff(current, desired, Scope{}, Interactions{}, true)
	require.NoError(t, err)
	require.Len(t, plan.Statements, 1)
	assert.False(t, plan.Statements[0].Commented)
	assert.Equal(t, plan.Statements[0].SQL, plan.Statements[0].Rendered())
}

func TestDiffAddColumnOnExistingTable(t *testing.T) {
	t.Parallel()

	currentUsers := &sqlmodel.Table{Name: "users", Columns: []*sqlmodel.Column{col("id", sqlmodel.KindUUID, false)}}
	currentUsers.PrimaryKey = []*sqlmodel.Column{currentUsers.Columns[0]}
	current := &sqlmodel.Schema{Name: "public", Tables: []*sqlmodel.Table{currentUsers}}

	desiredUsers := &sqlmodel.Table{Name: "users", Columns: []*sqlmodel.Column{
		col("id", sqlmodel.KindUUID, false),
		col("email", sqlmodel.KindText, false),
	}}
	desiredUsers.PrimaryKey = []*sqlmodel.Column{desiredUsers.Columns[0]}
	desired := &sqlmodel.Schema{Name: "public", Tables: []*sqlmodel.Table{desiredUsers}}

	plan, err := Diff(current, desired, Scope{}, Interactions{}, false)
	require.NoError(t, err)
	require.Len(t, plan.Statements, 1)
	assert.Equal(t, AddColumn, plan.Statements[0].Kind)
	assert.Contains(t, plan.Statements[0].SQL, `ADD COLUMN "email"`)
}

func TestDiffScopeExcludesUnmatchedTables(t *testing.T) {
	t.Parallel()

	accounts := &sqlmodel.Table{Name: "accounts", Columns: []*sqlmodel.Column{col("id", sqlmodel.KindUUID, false)}}
	accounts.PrimaryKey = []*sqlmodel.Column{accounts.Columns[0]}
	logs := &sqlmodel.Table{Name: "audit_logs", Columns: []*sqlmodel.Column{col("id", sqlmodel.KindUUID, false)}}
	logs.PrimaryKey = []*sqlmodel.Column{logs.Columns[0]}

	current := &sqlmodel.Schema{Name: "public"}
	desired := &sqlmodel.Schema{Name: "public", Tables: []*sqlmodel.Table{accounts, logs}}

	plan, err := Diff(current, desired, ParseScope("audit_*"), Interactions{}, false)
	require.NoError(t, err)
	require.Len(t, plan.Statements, 1)
	assert.Equal(t, "audit_logs", plan.Statements[0].Table)
}

func TestDiffRenameTableInteractionAvoidsDropAdd(t *testing.T) {
	t.Parallel()

	oldTable := &sqlmodel.Table{Name: "todo_items", Columns: []*sqlmodel.Column{col("id", sqlmodel.KindUUID, false)}}
	oldTable.PrimaryKey = []*sqlmodel.Column{oldTable.Columns[0]}
	current := &sqlmodel.Schema{Name: "public", Tables: []*sqlmodel.Table{oldTable}}

	newTable := &sqlmodel.Table{Name: "todos", Columns: []*sqlmodel.Column{col("id", sqlmodel.KindUUID, false)}}
	newTable.PrimaryKey = []*sqlmodel.Column{newTable.Columns[0]}
	desired := &sqlmodel.Schema{Name: "public", Tables: []*sqlmodel.Table{newTable}}

	in := Interactions{RenameTables: []TableRename{{OldTable: "todo_items", NewTable: "todos"}}}
	plan, err := Diff(current, desired, Scope{}, in, false)
	require.NoError(t, err)
	require.Len(t, plan.Statements, 1)
	assert.Equal(t, RenameTable, plan.Statements[0].Kind)
}
