package gqlplan_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exocore-dev/exocore/gqlplan"
	"github.com/exocore-dev/exocore/sqlir"
)

func TestLowerOrderingPreservesListOrder(t *testing.T) {
	t.Parallel()

	terms, err := gqlplan.LowerOrdering("t", []map[string]any{
		{"createdAt": "DESC"},
		{"title": "ASC"},
	})
	require.NoError(t, err)
	require.Len(t, terms, 2)
	assert.Equal(t, sqlir.Desc, terms[0].Dir)
	assert.Equal(t, sqlir.Asc, terms[1].Dir)
}

func TestLowerOrderingRejectsMultiFieldEntry(t *testing.T) {
	t.Parallel()

	_, err := gqlplan.LowerOrdering("t", []map[string]any{{"a": "ASC", "b": "DESC"}})
	assert.Error(t, err)
}

func TestLowerOrderingRejectsUnknownDirection(t *testing.T) {
	t.Parallel()

	_, err := gqlplan.LowerOrdering("t", []map[string]any{{"title": "SIDEWAYS"}})
	assert.Error(t, err)
}
