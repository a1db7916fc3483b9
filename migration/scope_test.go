package migration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exocore-dev/exocore/sqlmodel"
)

func TestParseScopeSplitsOnComma(t *testing.T) {
	t.Parallel()

	s := ParseScope("users,audit_*")
	assert.Equal(t, []string{"users", "audit_*"}, s.Patterns)
}

func TestParseScopeEmptyFlagMatchesEverything(t *testing.T) {
	t.Parallel()

	s := ParseScope("")
	assert.True(t, s.matches("anything"))
}

func TestScopeMatchesGlob(t *testing.T) {
	t.Parallel()

	s := ParseScope("audit_*")
	assert.True(t, s.matches("audit_logs"))
	assert.False(t, s.matches("users"))
}

func TestScopePartitionSplitsEachPatternIndependently(t *testing.T) {
	t.Parallel()

	parts := ParseScope("users,audit_*").Partition()
	require.Len(t, parts, 2)
	assert.Equal(t, []string{"users"}, parts[0].Patterns)
	assert.Equal(t, []string{"audit_*"}, parts[1].Patterns)
}

func TestScopePartitionOfEmptyScopeIsSingleton(t *testing.T) {
	t.Parallel()

	parts := Scope{}.Partition()
	require.Len(t, parts, 1)
	assert.Empty(t, parts[0].Patterns)
}

func TestDiffConcurrentMergesPartitionsInOrder(t *testing.T) {
	t.Parallel()

	accounts := &sqlmodel.Table{Name: "accounts", Columns: []*sqlmodel.Column{col("id", sqlmodel.KindUUID, false)}}
	accounts.PrimaryKey = []*sqlmodel.Column{accounts.Columns[0]}
	logs := &sqlmodel.Table{Name: "audit_logs", Columns: []*sqlmodel.Column{col("id", sqlmodel.KindUUID, false)}}
	logs.PrimaryKey = []*sqlmodel.Column{logs.Columns[0]}

	current := &sqlmodel.Schema{Name: "public"}
	desired := &sqlmodel.Schema{Name: "public", Tables: []*sqlmodel.Table{accounts, logs}}

	plan, err := DiffConcurrent(context.Background(), current, desired, ParseScope("accounts,audit_*"), Interactions{}, false)
	require.NoError(t, err)
	require.Len(t, plan.Statements, 2)
	assert.Equal(t, "accounts", plan.Statements[0].Table)
	assert.Equal(t, "audit_logs", plan.Statements[1].Table)
}
