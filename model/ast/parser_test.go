package ast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exocore-dev/exocore/model/ast"
)

func TestParseFileParsesTypeWithAnnotatedFields(t *testing.T) {
	src := `
type Todo {
  id: Int @pk @autoIncrement
  title: String @maxLength(200)
  owner: User @relation
  done: Boolean
}
`
	f, errs := ast.ParseFile("todo.exo", src)
	require.Empty(t, errs)
	require.Len(t, f.Decls, 1)

	td, ok := f.Decls[0].(*ast.TypeDecl)
	require.True(t, ok)
	assert.Equal(t, "Todo", td.Name)
	require.Len(t, td.Fields, 4)

	id := td.Fields[0]
	assert.Equal(t, "id", id.Name)
	assert.Equal(t, "Int", id.Type.Name)
	require.Len(t, id.Annotations, 2)
	assert.Equal(t, "pk", id.Annotations[0].Name)
	assert.Equal(t, "autoIncrement", id.Annotations[1].Name)

	title := td.Fields[1]
	require.Len(t, title.Annotations, 1)
	require.Len(t, title.Annotations[0].Args, 1)
	assert.Equal(t, ast.ValInt, title.Annotations[0].Args[0].Value.Kind)
	assert.EqualValues(t, 200, title.Annotations[0].Args[0].Value.Int)
}

func TestParseFileParsesFragmentSpread(t *testing.T) {
	src := `
fragment Timestamped {
  createdAt: Instant
}
type Todo {
  id: Int @pk
  ...Timestamped
}
`
	f, errs := ast.ParseFile("todo.exo", src)
	require.Empty(t, errs)
	require.Len(t, f.Decls, 2)

	td := f.Decls[1].(*ast.TypeDecl)
	require.Len(t, td.Fields, 2)
	assert.True(t, td.Fields[1].IsSpread())
	assert.Equal(t, "Timestamped", td.Fields[1].Spread)
}

func TestParseFileParsesArrayAndOptionalTypeRefs(t *testing.T) {
	src := `
type Todo {
  tags: String[]
  note: String?
  comments: Comment[]?
}
`
	f, errs := ast.ParseFile("todo.exo", src)
	require.Empty(t, errs)
	td := f.Decls[0].(*ast.TypeDecl)

	assert.True(t, td.Fields[0].Type.Array)
	assert.False(t, td.Fields[0].Type.Optional)

	assert.False(t, td.Fields[1].Type.Array)
	assert.True(t, td.Fields[1].Type.Optional)

	assert.True(t, td.Fields[2].Type.Array)
	assert.True(t, td.Fields[2].Type.Optional)
}

func TestParseFileParsesModuleWithAccessAnnotation(t *testing.T) {
	src := `
module Todo @postgres @access(self.owner == AuthContext.id) {
  type Todo {
    id: Int @pk
  }
}
`
	f, errs := ast.ParseFile("todo.exo", src)
	require.Empty(t, errs)
	require.Len(t, f.Decls, 1)

	md := f.Decls[0].(*ast.ModuleDecl)
	assert.Equal(t, "Todo", md.Name)
	require.Len(t, md.Annotations, 2)
	assert.Equal(t, "postgres", md.Annotations[0].Name)
	assert.Equal(t, "access", md.Annotations[1].Name)
	require.Len(t, md.Annotations[1].Args, 1)
	assert.Equal(t, ast.ValExpr, md.Annotations[1].Args[0].Value.Kind)
	assert.Contains(t, md.Annotations[1].Args[0].Value.Str, "owner")
	assert.Contains(t, md.Annotations[1].Args[0].Value.Str, "AuthContext")

	require.Len(t, md.Decls, 1)
	_, ok := md.Decls[0].(*ast.TypeDecl)
	assert.True(t, ok)
}

func TestParseFileParsesNamedAnnotationArgs(t *testing.T) {
	src := `
type Todo {
  id: Int @table(name = "todos", schema = "app")
}
`
	f, errs := ast.ParseFile("todo.exo", src)
	require.Empty(t, errs)
	td := f.Decls[0].(*ast.TypeDecl)
	ann := td.Fields[0].Annotations[0]
	nameArg, ok := ann.Arg("name")
	require.True(t, ok)
	assert.Equal(t, "todos", nameArg.Value.Str)
	schemaArg, ok := ann.Arg("schema")
	require.True(t, ok)
	assert.Equal(t, "app", schemaArg.Value.Str)
}

func TestParseFileParsesEnumDecl(t *testing.T) {
	src := `
enum Status {
  ACTIVE
  DONE
}
`
	f, errs := ast.ParseFile("todo.exo", src)
	require.Empty(t, errs)
	ed := f.Decls[0].(*ast.EnumDecl)
	assert.Equal(t, "Status", ed.Name)
	assert.Equal(t, []string{"ACTIVE", "DONE"}, ed.Values)
}

func TestParseFileParsesContextDecl(t *testing.T) {
	src := `
context AuthContext {
  id: Int @jwt("sub")
  role: String @jwt("role")
}
`
	f, errs := ast.ParseFile("todo.exo", src)
	require.Empty(t, errs)
	cd := f.Decls[0].(*ast.ContextDecl)
	assert.Equal(t, "AuthContext", cd.Name)
	require.Len(t, cd.Fields, 2)
	assert.Equal(t, "id", cd.Fields[0].Name)
	require.Len(t, cd.Fields[0].Annotations, 1)
	assert.Equal(t, "jwt", cd.Fields[0].Annotations[0].Name)
	assert.Equal(t, "sub", cd.Fields[0].Annotations[0].Args[0].Value.Str)
}

func TestParseFileReportsErrorOnMissingBrace(t *testing.T) {
	src := `type Todo { id: Int`
	_, errs := ast.ParseFile("todo.exo", src)
	require.NotEmpty(t, errs)
}

func TestParseFileParsesListAndBooleanValues(t *testing.T) {
	src := `
type Todo {
  id: Int @index(group = ["a", "b"]) @readonly(true)
}
`
	f, errs := ast.ParseFile("todo.exo", src)
	require.Empty(t, errs)
	td := f.Decls[0].(*ast.TypeDecl)
	indexAnn := td.Fields[0].Annotations[0]
	groupArg, ok := indexAnn.Arg("group")
	require.True(t, ok)
	require.Equal(t, ast.ValList, groupArg.Value.Kind)
	require.Len(t, groupArg.Value.List, 2)
	assert.Equal(t, "a", groupArg.Value.List[0].Str)

	readonlyAnn := td.Fields[0].Annotations[1]
	assert.Equal(t, ast.ValBool, readonlyAnn.Args[0].Value.Kind)
	assert.True(t, readonlyAnn.Args[0].Value.Bool)
}
