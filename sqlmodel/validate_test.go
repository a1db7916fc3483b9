package sqlmodel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exocore-dev/exocore/sqlmodel"
)

func col(name string, typ sqlmodel.Kind, nullable bool) *sqlmodel.Column {
	return &sqlmodel.Column{Name: name, Type: sqlmodel.PhysicalType{Kind: typ}, Nullable: nullable}
}

func TestValidateDiffFlagsDroppedTableAsBreakingByDefault(t *testing.T) {
	t.Parallel()

	current := []*sqlmodel.Table{{Name: "todos", Columns: []*sqlmodel.Column{col("id", sqlmodel.KindUUID, false)}}}
	result := sqlmodel.ValidateDiff(current, nil)

	require.True(t, result.HasErrors())
	assert.True(t, result.HasBreakingChanges())
	assert.Equal(t, "todos", result.Errors[0].Table)
}

func TestValidateDiffAllowDropTableDemotesToWarning(t *testing.T) {
	t.Parallel()

	current := []*sqlmodel.Table{{Name: "todos"}}
	result := sqlmodel.ValidateDiff(current, nil, sqlmodel.AllowDropTable())

	assert.False(t, result.HasErrors())
	require.True(t, result.HasWarnings())
	assert.True(t, result.HasBreakingChanges())
}

func TestValidateDiffNullToNotNullIsBreakingUnlessAllowed(t *testing.T) {
	t.Parallel()

	current := []*sqlmodel.Table{{Name: "todos", Columns: []*sqlmodel.Column{col("title", sqlmodel.KindText, true)}}}
	desired := []*sqlmodel.Table{{Name: "todos", Columns: []*sqlmodel.Column{col("title", sqlmodel.KindText, false)}}}

	result := sqlmodel.ValidateDiff(current, desired)
	require.True(t, result.HasErrors())
	assert.True(t, result.Errors[0].Breaking)

	relaxed := sqlmodel.ValidateDiff(current, desired, sqlmodel.AllowNullToNotNull())
	assert.False(t, relaxed.HasErrors())
	assert.True(t, relaxed.HasWarnings())
}

func TestValidateDiffTypeChangeIsWarningOnly(t *testing.T) {
	t.Parallel()

	current := []*sqlmodel.Table{{Name: "todos", Columns: []*sqlmodel.Column{col("rank", sqlmodel.KindInt, false)}}}
	desired := []*sqlmodel.Table{{Name: "todos", Columns: []*sqlmodel.Column{col("rank", sqlmodel.KindFloat, false)}}}

	result := sqlmodel.ValidateDiff(current, desired)
	assert.False(t, result.HasErrors())
	require.True(t, result.HasWarnings())
	assert.False(t, result.HasBreakingChanges())
}

func TestValidateDiffSizeReductionWarns(t *testing.T) {
	t.Parallel()

	bigCol := &sqlmodel.Column{Name: "name", Type: sqlmodel.PhysicalType{Kind: sqlmodel.KindVarchar}, Size: 255}
	smallCol := &sqlmodel.Column{Name: "name", Type: sqlmodel.PhysicalType{Kind: sqlmodel.KindVarchar}, Size: 32}

	current := []*sqlmodel.Table{{Name: "todos", Columns: []*sqlmodel.Column{bigCol}}}
	desired := []*sqlmodel.Table{{Name: "todos", Columns: []*sqlmodel.Column{smallCol}}}

	result := sqlmodel.ValidateDiff(current, desired)
	require.True(t, result.HasWarnings())
	assert.Contains(t, result.Warnings[0].Message, "truncate")
}

func TestValidateTableDetectsDuplicateColumnsAndMissingPK(t *testing.T) {
	t.Parallel()

	table := &sqlmodel.Table{
		Name: "todos",
		Columns: []*sqlmodel.Column{
			col("id", sqlmodel.KindUUID, false),
			col("id", sqlmodel.KindUUID, false),
		},
	}
	result := sqlmodel.ValidateTable(table)
	require.True(t, result.HasErrors())
	require.True(t, result.HasWarnings())
	assert.Contains(t, result.Errors[0].Message, "duplicate column")
	assert.Contains(t, result.Warnings[0].Message, "no primary key")
}

func TestValidateTableDetectsIndexReferencingMissingColumn(t *testing.T) {
	t.Parallel()

	table := &sqlmodel.Table{
		Name:    "todos",
		Columns: []*sqlmodel.Column{col("id", sqlmodel.KindUUID, false)},
		Indexes: []*sqlmodel.Index{{Name: "idx_title", Columns: []*sqlmodel.Column{{Name: "title"}}}},
	}
	result := sqlmodel.ValidateTable(table)
	require.True(t, result.HasErrors())
	assert.Contains(t, result.Errors[0].Message, "non-existent column")
}

func TestValidateSchemaDetectsDanglingForeignKeyTable(t *testing.T) {
	t.Parallel()

	todos := &sqlmodel.Table{
		Name:    "todos",
		Columns: []*sqlmodel.Column{col("user_id", sqlmodel.KindUUID, false)},
		ForeignKeys: []*sqlmodel.ForeignKey{{
			Name:       "todos_user_id_fkey",
			Columns:    []*sqlmodel.Column{{Name: "user_id"}},
			RefTable:   &sqlmodel.Table{Name: "users"},
			RefColumns: []*sqlmodel.Column{{Name: "id"}},
		}},
	}
	result := sqlmodel.ValidateSchema([]*sqlmodel.Table{todos})
	require.True(t, result.HasErrors())
	assert.Contains(t, result.Errors[0].Message, "non-existent table")
}

func TestValidationResultStringSummarizesCleanly(t *testing.T) {
	t.Parallel()

	clean := &sqlmodel.ValidationResult{}
	assert.Equal(t, "No issues found", clean.String())

	dirty := &sqlmodel.ValidationResult{Errors: []*sqlmodel.ValidationError{{Table: "todos", Message: "boom", Breaking: true}}}
	assert.Contains(t, dirty.String(), "[BREAKING]")
}
