package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exocore-dev/exocore/model/ast"
)

func parseSrc(t *testing.T, src string) *ast.File {
	t.Helper()
	f, errs := ast.ParseFile("test.exo", src)
	require.Empty(t, errs)
	return f
}

func TestExpandFragmentsInlinesSpreadFields(t *testing.T) {
	f := parseSrc(t, `
fragment Timestamped {
  createdAt: Instant
  updatedAt: Instant
}
type Todo {
  id: Int @pk
  ...Timestamped
  title: String
}
`)
	types, errs := expandFragments([]*ast.File{f})
	require.Empty(t, errs)
	require.Len(t, types, 1)

	var names []string
	for _, fld := range types[0].Fields {
		names = append(names, fld.Name)
	}
	assert.Equal(t, []string{"id", "createdAt", "updatedAt", "title"}, names)
}

func TestExpandFragmentsReportsFieldCollision(t *testing.T) {
	f := parseSrc(t, `
fragment Timestamped {
  createdAt: Instant
}
type Todo {
  id: Int @pk
  createdAt: Instant
  ...Timestamped
}
`)
	_, errs := expandFragments([]*ast.File{f})
	require.NotEmpty(t, errs)
	assert.Contains(t, errs.Error(), "collides")
}

func TestExpandFragmentsReportsUnknownFragment(t *testing.T) {
	f := parseSrc(t, `
type Todo {
  id: Int @pk
  ...Missing
}
`)
	_, errs := expandFragments([]*ast.File{f})
	require.NotEmpty(t, errs)
	assert.Contains(t, errs.Error(), "unknown fragment")
}

func TestExpandFragmentsInlinesNestedFragment(t *testing.T) {
	f := parseSrc(t, `
fragment Base {
  id: Int @pk
}
fragment WithBase {
  ...Base
  createdAt: Instant
}
type Todo {
  ...WithBase
  title: String
}
`)
	types, errs := expandFragments([]*ast.File{f})
	require.Empty(t, errs)
	require.Len(t, types, 1)

	var names []string
	for _, fld := range types[0].Fields {
		names = append(names, fld.Name)
	}
	assert.Equal(t, []string{"id", "createdAt", "title"}, names)
}
