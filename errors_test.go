package exocore_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exocore-dev/exocore"
)

func TestNotFoundError(t *testing.T) {
	t.Parallel()

	err := exocore.NewNotFoundErrorWithID("Todo", 42)
	assert.True(t, exocore.IsNotFound(err))
	assert.True(t, errors.Is(err, exocore.ErrNotFound))
	assert.Contains(t, err.Error(), "Todo")
	assert.Contains(t, err.Error(), "42")
}

func TestAuthorizationErrorMessageIsFixed(t *testing.T) {
	t.Parallel()

	err := &exocore.AuthorizationError{Operation: "updateTodo", Field: "secret"}
	assert.Equal(t, "Not authorized", err.Error())
}

func TestSQLErrorHidesCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("duplicate key value violates unique constraint")
	err := exocore.NewSQLError("INSERT INTO todos ...", cause)
	assert.Equal(t, "Operation failed", err.Error())
	require.ErrorIs(t, err, cause)
}

func TestExographErrorPropagatesVerbatim(t *testing.T) {
	t.Parallel()

	err := exocore.ExographError("insufficient balance")
	assert.Equal(t, "insufficient balance", err.Error())
	assert.Equal(t, exocore.KindUserRuntime, exocore.KindOf(err))
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		kind exocore.Kind
	}{
		{&exocore.AuthorizationError{}, exocore.KindAuthorization},
		{&exocore.FieldMergeError{}, exocore.KindFieldMerge},
		{exocore.NewSQLError("", errors.New("x")), exocore.KindSQL},
		{exocore.ExographError("boom"), exocore.KindUserRuntime},
		{errors.New("anything else"), exocore.KindInternal},
	}
	for _, c := range cases {
		assert.Equal(t, c.kind, exocore.KindOf(c.err))
	}
}

func TestAggregateError(t *testing.T) {
	t.Parallel()

	assert.Nil(t, exocore.NewAggregateError(nil, nil))

	single := exocore.NewAggregateError(nil, errors.New("one"))
	assert.Equal(t, "one", single.Error())

	multi := exocore.NewAggregateError(errors.New("one"), errors.New("two"))
	var agg *exocore.AggregateError
	require.ErrorAs(t, multi, &agg)
	assert.Len(t, agg.Errors, 2)
}

func TestOpIs(t *testing.T) {
	t.Parallel()

	assert.True(t, exocore.OpCreateOne.Is(exocore.OpCreate))
	assert.True(t, exocore.OpCreateOne.Is(exocore.OpMutation))
	assert.False(t, exocore.OpQueryOne.Is(exocore.OpMutation))
	assert.Equal(t, "deleteMany", exocore.OpDeleteMany.String())
}
