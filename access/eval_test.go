package access_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exocore-dev/exocore/access"
	"github.com/exocore-dev/exocore/sqlir"
)

type noRelations struct{}

func (noRelations) Relation(string) (access.TableRef, string, string, bool) {
	return access.TableRef{}, "", "", false
}

func outerTodos() access.TableRef {
	return access.TableRef{Table: sqlir.Table{Name: "todos"}, Alias: "t"}
}

func TestEvalPureContextFoldsToAlways(t *testing.T) {
	t.Parallel()

	ctx := access.Context{"AuthContext": {"role": "admin"}}
	expr := access.Cmp{
		Left:  access.ContextValue{ContextName: "AuthContext", ClaimPath: "role"},
		Op:    access.CmpEQ,
		Right: access.Literal{Value: "admin"},
	}
	d := access.Eval(ctx, expr, outerTodos(), noRelations{})
	assert.True(t, d.IsAlways())
}

func TestEvalPureContextFoldsToNever(t *testing.T) {
	t.Parallel()

	ctx := access.Context{"AuthContext": {"role": "guest"}}
	expr := access.Cmp{
		Left:  access.ContextValue{ContextName: "AuthContext", ClaimPath: "role"},
		Op:    access.CmpEQ,
		Right: access.Literal{Value: "admin"},
	}
	d := access.Eval(ctx, expr, outerTodos(), noRelations{})
	assert.True(t, d.IsNever())
}

func TestEvalFieldDependentBecomesResidue(t *testing.T) {
	t.Parallel()

	ctx := access.Context{"AuthContext": {"id": "u1"}}
	expr := access.Cmp{
		Left:  access.FieldValue{Field: "owner_id"},
		Op:    access.CmpEQ,
		Right: access.ContextValue{ContextName: "AuthContext", ClaimPath: "id"},
	}
	d := access.Eval(ctx, expr, outerTodos(), noRelations{})
	require.True(t, d.IsResidue())
	out := sqlir.RenderSelect(&sqlir.Select{From: sqlir.BaseTable{Table: sqlir.Table{Name: "todos"}, Alias: "t"}, Where: d.Pred})
	assert.Equal(t, `SELECT * FROM "todos" AS "t" WHERE "t"."owner_id" = $1`, out.Query)
	assert.Equal(t, []any{"u1"}, out.Args)
}

func TestDecisionAndConjunctionTable(t *testing.T) {
	t.Parallel()

	r := access.ResidueDecision(sqlir.Cmp{Left: sqlir.Col("t", "a"), Op: sqlir.OpEQ, Right: sqlir.Param(1)})

	assert.Equal(t, r, access.AlwaysDecision.And(r))
	assert.True(t, access.NeverDecision.And(r).IsNever())
	assert.True(t, access.AlwaysDecision.Or(r).IsAlways())
	assert.Equal(t, r, access.NeverDecision.Or(r))
}

func TestDecisionNegation(t *testing.T) {
	t.Parallel()

	assert.True(t, access.AlwaysDecision.Not().IsNever())
	assert.True(t, access.NeverDecision.Not().IsAlways())

	r := access.ResidueDecision(sqlir.Cmp{Left: sqlir.Col("t", "a"), Op: sqlir.OpEQ, Right: sqlir.Param(1)})
	neg := r.Not()
	require.True(t, neg.IsResidue())
	_, ok := neg.Pred.(sqlir.Not)
	assert.True(t, ok)
}

type todoComments struct{}

func (todoComments) Relation(name string) (access.TableRef, string, string, bool) {
	if name != "comments" {
		return access.TableRef{}, "", "", false
	}
	return access.TableRef{Table: sqlir.Table{Name: "comments"}, Alias: "c"}, "todo_id", "id", true
}

func TestEvalRelationSomeBuildsExists(t *testing.T) {
	t.Parallel()

	ctx := access.Context{}
	expr := access.RelationSome{
		Relation: "comments",
		Pred:     access.Cmp{Left: access.FieldValue{Field: "flagged"}, Op: access.CmpEQ, Right: access.Literal{Value: true}},
	}
	d := access.Eval(ctx, expr, outerTodos(), todoComments{})
	require.True(t, d.IsResidue())
	_, ok := d.Pred.(sqlir.Exists)
	assert.True(t, ok)
}
