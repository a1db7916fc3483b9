package sqlir_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/exocore-dev/exocore/sqlir"
)

func TestRenderSelectSimpleFilter(t *testing.T) {
	t.Parallel()

	limit := uint64(0)
	s := &sqlir.Select{
		From: sqlir.BaseTable{Table: sqlir.Table{Name: "logs"}, Alias: "logs"},
		Projection: []sqlir.ProjectionItem{{
			Expr: sqlir.Raw{
				Fragment: "json_build_object('id', ?, 'text', ?, 'timestamp', ?)",
				Args:     []sqlir.Expr{sqlir.Col("logs", "id"), sqlir.Col("logs", "text"), sqlir.Col("logs", "timestamp")},
			},
		}},
		Where: sqlir.Cmp{Left: sqlir.Col("logs", "timestamp"), Op: sqlir.OpLT, Right: sqlir.Param(9)},
	}
	_ = limit

	out := sqlir.RenderSelect(s)
	assert.Equal(t,
		`SELECT json_build_object('id', "logs"."id", 'text', "logs"."text", 'timestamp', "logs"."timestamp") FROM "logs" AS "logs" WHERE "logs"."timestamp" < $1`,
		out.Query)
	assert.Equal(t, []any{9}, out.Args)
}

func TestRenderInsertReturning(t *testing.T) {
	t.Parallel()

	ins := &sqlir.Insert{
		Into:    sqlir.Table{Name: "todos"},
		Columns: []string{"title", "done"},
		Rows:    sqlir.ValuesRows{Rows: [][]sqlir.Expr{{sqlir.Param("buy milk"), sqlir.Param(false)}}},
		Returning: []sqlir.ProjectionItem{
			{Expr: sqlir.Col("", "id"), Alias: "id"},
		},
	}
	out := sqlir.RenderInsert(ins)
	assert.Equal(t, `INSERT INTO "todos" ("title", "done") VALUES ($1, $2) RETURNING "id" AS "id"`, out.Query)
	assert.Equal(t, []any{"buy milk", false}, out.Args)
}

func TestRenderEmptyInListIsFalse(t *testing.T) {
	t.Parallel()

	s := &sqlir.Select{
		From:  sqlir.BaseTable{Table: sqlir.Table{Name: "todos"}, Alias: "t"},
		Where: sqlir.InList{Expr: sqlir.Col("t", "id"), Values: nil},
	}
	out := sqlir.RenderSelect(s)
	assert.Contains(t, out.Query, "WHERE FALSE")
}

func TestRenderAndOrFolding(t *testing.T) {
	t.Parallel()

	empty := sqlir.RenderSelect(&sqlir.Select{Where: sqlir.AndAll()})
	assert.Contains(t, empty.Query, "WHERE TRUE")

	s := &sqlir.Select{
		Where: sqlir.AndAll(
			sqlir.Cmp{Left: sqlir.Col("t", "a"), Op: sqlir.OpEQ, Right: sqlir.Param(1)},
			sqlir.Cmp{Left: sqlir.Col("t", "b"), Op: sqlir.OpEQ, Right: sqlir.Param(2)},
		),
	}
	out := sqlir.RenderSelect(s)
	assert.Equal(t, `SELECT * WHERE ("t"."a" = $1) AND ("t"."b" = $2)`, out.Query)
}

func TestRenderExistsForRelationPredicate(t *testing.T) {
	t.Parallel()

	sub := &sqlir.Select{
		From:       sqlir.BaseTable{Table: sqlir.Table{Name: "comments"}, Alias: "c"},
		Projection: []sqlir.ProjectionItem{{Expr: sqlir.Param(1)}},
		Where: sqlir.AndAll(
			sqlir.Cmp{Left: sqlir.Col("c", "post_id"), Op: sqlir.OpEQ, Right: sqlir.Col("p", "id")},
			sqlir.Cmp{Left: sqlir.Col("c", "flagged"), Op: sqlir.OpEQ, Right: sqlir.Param(true)},
		),
	}
	s := &sqlir.Select{
		From:  sqlir.BaseTable{Table: sqlir.Table{Name: "posts"}, Alias: "p"},
		Where: sqlir.Exists{Select: sub},
	}
	out := sqlir.RenderSelect(s)
	assert.Contains(t, out.Query, "WHERE EXISTS (SELECT $1 FROM")
	assert.Equal(t, []any{1, true}, out.Args)
}

func TestRenderVectorDistanceOperator(t *testing.T) {
	t.Parallel()

	s := &sqlir.Select{
		From:       sqlir.BaseTable{Table: sqlir.Table{Name: "docs"}, Alias: "d"},
		Projection: []sqlir.ProjectionItem{{Expr: sqlir.Col("d", "embedding")}},
		OrderBy: []sqlir.OrderTerm{{
			Expr: sqlir.Raw{Fragment: `"d"."embedding" <-> ?`, Args: []sqlir.Expr{sqlir.Param("[0.1,0.2]")}},
			Dir:  sqlir.Asc,
		}},
	}
	out := sqlir.RenderSelect(s)
	assert.Contains(t, out.Query, `ORDER BY "d"."embedding" <-> $1 ASC`)
}
