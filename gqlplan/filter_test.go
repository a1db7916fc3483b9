package gqlplan_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exocore-dev/exocore/gqlplan"
	"github.com/exocore-dev/exocore/sqlir"
)

func TestLowerFilterBareValueIsEquality(t *testing.T) {
	t.Parallel()

	pred, err := gqlplan.LowerFilter("t", map[string]any{"title": "milk"})
	require.NoError(t, err)
	out := sqlir.RenderSelect(&sqlir.Select{
		From:  sqlir.BaseTable{Table: sqlir.Table{Name: "todos"}, Alias: "t"},
		Where: pred,
	})
	assert.Contains(t, out.Query, `"t"."title" = $1`)
	assert.Equal(t, []any{"milk"}, out.Args)
}

func TestLowerFilterScalarOperator(t *testing.T) {
	t.Parallel()

	pred, err := gqlplan.LowerFilter("t", map[string]any{"done": map[string]any{"eq": true}})
	require.NoError(t, err)
	out := sqlir.RenderSelect(&sqlir.Select{From: sqlir.BaseTable{Table: sqlir.Table{Name: "todos"}, Alias: "t"}, Where: pred})
	assert.Contains(t, out.Query, `"t"."done" = $1`)
}

func TestLowerFilterInList(t *testing.T) {
	t.Parallel()

	pred, err := gqlplan.LowerFilter("t", map[string]any{"title": map[string]any{"in": []any{"milk", "eggs"}}})
	require.NoError(t, err)
	out := sqlir.RenderSelect(&sqlir.Select{From: sqlir.BaseTable{Table: sqlir.Table{Name: "todos"}, Alias: "t"}, Where: pred})
	assert.Contains(t, out.Query, "IN")
	assert.Equal(t, []any{"milk", "eggs"}, out.Args)
}

func TestLowerFilterAndOr(t *testing.T) {
	t.Parallel()

	pred, err := gqlplan.LowerFilter("t", map[string]any{
		"or": []any{
			map[string]any{"title": "milk"},
			map[string]any{"done": map[string]any{"eq": true}},
		},
	})
	require.NoError(t, err)
	out := sqlir.RenderSelect(&sqlir.Select{From: sqlir.BaseTable{Table: sqlir.Table{Name: "todos"}, Alias: "t"}, Where: pred})
	assert.Contains(t, out.Query, "OR")
}

func TestLowerFilterUnknownOperator(t *testing.T) {
	t.Parallel()

	_, err := gqlplan.LowerFilter("t", map[string]any{"title": map[string]any{"bogus": "x"}})
	assert.Error(t, err)
}

func TestLowerFilterNilIsNilPredicate(t *testing.T) {
	t.Parallel()

	pred, err := gqlplan.LowerFilter("t", nil)
	require.NoError(t, err)
	assert.Nil(t, pred)
}
