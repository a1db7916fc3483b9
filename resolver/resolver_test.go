package resolver_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exocore-dev/exocore"
	"github.com/exocore-dev/exocore/access"
	"github.com/exocore-dev/exocore/gqlplan"
	"github.com/exocore-dev/exocore/model"
	"github.com/exocore-dev/exocore/resolver"
	"github.com/exocore-dev/exocore/sqlir"
	"github.com/exocore-dev/exocore/sqlmodel"
)

func testModel() *model.Model {
	todos := &sqlmodel.Table{
		Name: "todos",
		Columns: []*sqlmodel.Column{
			{Name: "id", Type: sqlmodel.PhysicalType{Kind: sqlmodel.KindUUID}},
			{Name: "title", Type: sqlmodel.PhysicalType{Kind: sqlmodel.KindText}},
		},
	}
	todos.PrimaryKey = []*sqlmodel.Column{todos.Columns[0]}
	return &model.Model{
		Schema:   &sqlmodel.Schema{Name: "public", Tables: []*sqlmodel.Table{todos}},
		Policies: map[string]model.Policy{"Todo": {}},
	}
}

func TestExecuteQueryReturnsScannedRows(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectQuery(`SELECT .* FROM "todos"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow("t1", "milk"))

	rv := resolver.NewResolver(testModel(), sqlir.OpenDB(db), 1)
	req := resolver.NewRequest("Todo", exocore.OpQueryOne)
	req.Operation = "todo"
	req.Args = gqlplan.QueryArgs{ID: "t1"}

	rows, err := rv.ExecuteQuery(context.Background(), req, gqlplan.Interceptors{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "milk", rows[0]["title"])
	assert.Equal(t, resolver.Responded, req.State)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteMutationRollsBackOnError(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "todos"`).WillReturnError(assert.AnError)
	mock.ExpectRollback()

	rv := resolver.NewResolver(testModel(), sqlir.OpenDB(db), 1)
	req := resolver.NewRequest("Todo", exocore.OpCreateOne)
	req.Data = map[string]any{"title": "milk"}

	_, err = rv.ExecuteMutation(context.Background(), req, gqlplan.Interceptors{})
	require.Error(t, err)
	assert.Equal(t, resolver.Responded, req.State)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteMutationCommitsOnSuccess(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "todos"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow("t1", "milk"))
	mock.ExpectCommit()

	rv := resolver.NewResolver(testModel(), sqlir.OpenDB(db), 1)
	req := resolver.NewRequest("Todo", exocore.OpCreateOne)
	req.Data = map[string]any{"title": "milk"}

	row, err := rv.ExecuteMutation(context.Background(), req, gqlplan.Interceptors{})
	require.NoError(t, err)
	assert.Equal(t, "milk", row["title"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteQueryAuthorizationNeverRejectsBeforeSQL(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	m := testModel()
	m.Policies["Todo"] = model.Policy{Query: access.BoolConst(false)}

	rv := resolver.NewResolver(m, sqlir.OpenDB(db), 1)
	req := resolver.NewRequest("Todo", exocore.OpQueryMany)
	req.Operation = "todos"
	req.AccessCtx = access.Context{}

	_, err = rv.ExecuteQuery(context.Background(), req, gqlplan.Interceptors{})
	require.Error(t, err)
	var authErr *exocore.AuthorizationError
	assert.ErrorAs(t, err, &authErr)
	require.NoError(t, mock.ExpectationsWereMet())
}
