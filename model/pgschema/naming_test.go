package pgschema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/exocore-dev/exocore/model/pgschema"
)

func TestSnakeCaseHandlesCamelCase(t *testing.T) {
	assert.Equal(t, "owner_id", pgschema.SnakeCase("ownerId"))
	assert.Equal(t, "id", pgschema.SnakeCase("id"))
	assert.Equal(t, "http_status", pgschema.SnakeCase("HTTPStatus"))
	assert.Equal(t, "created_at", pgschema.SnakeCase("createdAt"))
}

func TestTableNameForPluralizesAndSnakeCases(t *testing.T) {
	assert.Equal(t, "todos", pgschema.TableNameFor("Todo"))
	assert.Equal(t, "users", pgschema.TableNameFor("User"))
}

func TestForeignKeyColumnForAppendsID(t *testing.T) {
	assert.Equal(t, "owner_id", pgschema.ForeignKeyColumnFor("owner"))
}

func TestSequenceNameForJoinsTableAndColumn(t *testing.T) {
	assert.Equal(t, "todos_id_seq", pgschema.SequenceNameFor("todos", "id"))
}
