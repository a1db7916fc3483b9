package migration

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/exocore-dev/exocore/sqlir"
)

func TestApplierCommitsOnSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	drv := sqlir.OpenDB(db)

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE "users"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`ALTER TABLE "users" ADD COLUMN "email"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	plan := &Plan{Statements: []Statement{
		{Kind: CreateTable, Table: "users", SQL: `CREATE TABLE "users" (...)`},
		{Kind: AddColumn, Table: "users", SQL: `ALTER TABLE "users" ADD COLUMN "email" text`},
		{Kind: DropColumn, Table: "users", SQL: `ALTER TABLE "users" DROP COLUMN "legacy"`, Destructive: true, Commented: true},
	}}

	a := &Applier{DB: drv}
	require.NoError(t, a.Apply(context.Background(), plan))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplierRollsBackOnFirstFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	drv := sqlir.OpenDB(db)

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE "users"`).WillReturnError(assertErr)
	mock.ExpectRollback()

	plan := &Plan{Statements: []Statement{
		{Kind: CreateTable, Table: "users", SQL: `CREATE TABLE "users" (...)`},
		{Kind: AddColumn, Table: "users", SQL: `ALTER TABLE "users" ADD COLUMN "email" text`},
	}}

	a := &Applier{DB: drv}
	err = a.Apply(context.Background(), plan)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

var assertErr = errBoom{}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }
