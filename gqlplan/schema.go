// Package gqlplan is the GraphQL planner (spec §4.4, component C5): it
// derives the GraphQL schema a compiled model exposes, lowers a parsed
// GraphQL operation into the sqlir statement tree component C2
// renders, and consults the access-control solver (package access) once
// per plan to attach row-level residue.
//
// Schema derivation follows spec §4.4 "Schema derivation": from the
// image the planner deterministically derives, per logical type T, a
// creation input, update input, filter, ordering, reference input and
// aggregate type, plus query/mutation root fields. This file builds
// that schema as GraphQL SDL text and loads it with
// github.com/vektah/gqlparser/v2, the same library the document a
// request carries is parsed with.
package gqlplan

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vektah/gqlparser/v2"
	gqlast "github.com/vektah/gqlparser/v2/ast"

	"github.com/exocore-dev/exocore/model"
	modelast "github.com/exocore-dev/exocore/model/ast"
	"github.com/exocore-dev/exocore/sqlmodel"
)

// scalarGQLType maps a column's physical kind to the GraphQL scalar
// spec §4.4's derivation uses for it.
func scalarGQLType(col *sqlmodel.Column) string {
	base := "String"
	switch col.Type.Kind {
	case sqlmodel.KindInt:
		base = "Int"
	case sqlmodel.KindFloat, sqlmodel.KindNumeric:
		base = "Float"
	case sqlmodel.KindBoolean:
		base = "Boolean"
	case sqlmodel.KindUUID:
		base = "ID"
	case sqlmodel.KindTimestamp, sqlmodel.KindTimestampTZ, sqlmodel.KindDate, sqlmodel.KindTime:
		base = "String"
	case sqlmodel.KindJSON, sqlmodel.KindJSONB:
		base = "JSON"
	case sqlmodel.KindEnum:
		base = gqlTypeName(col.Type.EnumName)
	case sqlmodel.KindVector:
		base = "[Float!]"
		if col.Nullable {
			return base
		}
		return base + "!"
	}
	if col.Nullable {
		return base
	}
	return base + "!"
}

// gqlTypeName capitalizes a snake_case SQL name back into the PascalCase
// GraphQL type name convention (e.g. "todo_items" won't occur here since
// callers pass the model's own TypeDecl.Name, but enum names stored in
// snake_case on the sqlmodel side need this to round-trip).
func gqlTypeName(snake string) string {
	parts := strings.Split(snake, "_")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}

// DeriveSDL renders the full GraphQL schema text for a compiled model:
// an object type per logical type, plus its filter/ordering/creation
// input/update input/reference input/aggregate companions and root
// Query/Mutation fields (spec §4.4).
func DeriveSDL(m *model.Model) string {
	var b strings.Builder
	b.WriteString("scalar JSON\n\n")
	for _, scalar := range []string{"Int", "Float", "String", "Boolean", "ID"} {
		fmt.Fprintf(&b, "input %sFilter {\n  eq: %s\n  neq: %s\n  gt: %s\n  gte: %s\n  lt: %s\n  lte: %s\n  in: [%s!]\n}\n\n",
			scalar, scalar, scalar, scalar, scalar, scalar, scalar, scalar)
	}

	for _, e := range m.Schema.Enums {
		fmt.Fprintf(&b, "enum %s {\n", gqlTypeName(e.Name))
		for _, v := range e.Values {
			fmt.Fprintf(&b, "  %s\n", v)
		}
		b.WriteString("}\n\n")
	}

	tableByName := map[string]*sqlmodel.Table{}
	for _, t := range m.Schema.Tables {
		tableByName[t.Name] = t
	}

	names := make([]string, 0, len(m.Types))
	for _, td := range m.Types {
		names = append(names, td.Name)
	}
	sort.Strings(names)
	typeByName := map[string]int{}
	for i, td := range m.Types {
		typeByName[td.Name] = i
	}

	for _, name := range names {
		td := m.Types[typeByName[name]]
		writeObjectType(&b, td, tableByName)
		writeFilterType(&b, td, tableByName)
		writeOrderingType(&b, td, tableByName)
		writeCreationInput(&b, td, tableByName)
		writeUpdateInput(&b, td, tableByName)
		writeReferenceInput(&b, td)
		writeAggType(&b, td, tableByName)
	}

	writeRootTypes(&b, names)
	return b.String()
}

func tableFor(typeName string, tables map[string]*sqlmodel.Table) *sqlmodel.Table {
	return tables[tableNameGuess(typeName, tables)]
}

// tableNameGuess finds the sqlmodel.Table the pgschema builder derived
// for a logical type, matching by scanning since pgschema owns the
// pluralization/snake_case rules (package pgschema) and this package
// must not duplicate them.
func tableNameGuess(typeName string, tables map[string]*sqlmodel.Table) string {
	lower := strings.ToLower(typeName)
	for name := range tables {
		stripped := strings.ReplaceAll(name, "_", "")
		if stripped == lower || stripped == lower+"s" || stripped == lower+"es" {
			return name
		}
	}
	return ""
}

func writeObjectType(b *strings.Builder, td *modelast.TypeDecl, tables map[string]*sqlmodel.Table) {
	fmt.Fprintf(b, "type %s {\n", td.Name)
	t := tableFor(td.Name, tables)
	if t != nil {
		for _, c := range t.Columns {
			fmt.Fprintf(b, "  %s: %s\n", gqlFieldName(c.Name), scalarGQLType(c))
		}
	}
	b.WriteString("}\n\n")
}

func writeFilterType(b *strings.Builder, td *modelast.TypeDecl, tables map[string]*sqlmodel.Table) {
	fmt.Fprintf(b, "input %sFilter {\n", td.Name)
	t := tableFor(td.Name, tables)
	if t != nil {
		for _, c := range t.Columns {
			fmt.Fprintf(b, "  %s: %sFilter\n", gqlFieldName(c.Name), strings.TrimSuffix(scalarGQLType(c), "!"))
		}
	}
	b.WriteString("  and: [" + td.Name + "Filter!]\n")
	b.WriteString("  or: [" + td.Name + "Filter!]\n")
	b.WriteString("  not: " + td.Name + "Filter\n")
	b.WriteString("}\n\n")
}

func writeOrderingType(b *strings.Builder, td *modelast.TypeDecl, tables map[string]*sqlmodel.Table) {
	fmt.Fprintf(b, "input %sOrdering {\n", td.Name)
	t := tableFor(td.Name, tables)
	if t != nil {
		for _, c := range t.Columns {
			fmt.Fprintf(b, "  %s: Ordering\n", gqlFieldName(c.Name))
		}
	}
	b.WriteString("}\n\n")
}

func writeCreationInput(b *strings.Builder, td *modelast.TypeDecl, tables map[string]*sqlmodel.Table) {
	fmt.Fprintf(b, "input %sCreationInput {\n", td.Name)
	t := tableFor(td.Name, tables)
	if t != nil {
		for _, c := range t.Columns {
			if isAutoPK(t, c) {
				continue
			}
			fmt.Fprintf(b, "  %s: %s\n", gqlFieldName(c.Name), scalarGQLType(c))
		}
	}
	b.WriteString("}\n\n")
}

func writeUpdateInput(b *strings.Builder, td *modelast.TypeDecl, tables map[string]*sqlmodel.Table) {
	fmt.Fprintf(b, "input %sUpdateInput {\n", td.Name)
	t := tableFor(td.Name, tables)
	if t != nil {
		for _, c := range t.Columns {
			if isAutoPK(t, c) {
				continue
			}
			fmt.Fprintf(b, "  %s: %s\n", gqlFieldName(c.Name), strings.TrimSuffix(scalarGQLType(c), "!"))
		}
	}
	b.WriteString("}\n\n")
}

func writeReferenceInput(b *strings.Builder, td *modelast.TypeDecl) {
	fmt.Fprintf(b, "input %sReferenceInput {\n  id: ID!\n}\n\n", td.Name)
}

func writeAggType(b *strings.Builder, td *modelast.TypeDecl, tables map[string]*sqlmodel.Table) {
	fmt.Fprintf(b, "type %sAgg {\n  count: Int!\n", td.Name)
	t := tableFor(td.Name, tables)
	if t != nil {
		for _, c := range t.Columns {
			if c.Type.Kind == sqlmodel.KindInt || c.Type.Kind == sqlmodel.KindFloat || c.Type.Kind == sqlmodel.KindNumeric {
				fmt.Fprintf(b, "  %sSum: Float\n  %sAvg: Float\n  %sMin: Float\n  %sMax: Float\n",
					gqlFieldName(c.Name), gqlFieldName(c.Name), gqlFieldName(c.Name), gqlFieldName(c.Name))
			}
		}
	}
	b.WriteString("}\n\n")
}

func writeRootTypes(b *strings.Builder, names []string) {
	b.WriteString("enum Ordering {\n  ASC\n  DESC\n}\n\n")
	b.WriteString("type Query {\n")
	for _, n := range names {
		lower := lowerFirst(n)
		fmt.Fprintf(b, "  %s(id: ID!): %s\n", lower, n)
		fmt.Fprintf(b, "  %ss(where: %sFilter, orderBy: [%sOrdering!], limit: Int, offset: Int): [%s!]!\n", lower, n, n, n)
		fmt.Fprintf(b, "  %ssAgg(where: %sFilter): %sAgg!\n", lower, n, n)
	}
	b.WriteString("}\n\n")

	b.WriteString("type Mutation {\n")
	for _, n := range names {
		fmt.Fprintf(b, "  create%s(data: %sCreationInput!): %s!\n", n, n, n)
		fmt.Fprintf(b, "  update%s(id: ID!, data: %sUpdateInput!): %s!\n", n, n, n)
		fmt.Fprintf(b, "  delete%s(id: ID!): %s!\n", n, n)
	}
	b.WriteString("}\n")
}

func isAutoPK(t *sqlmodel.Table, c *sqlmodel.Column) bool {
	if c.Default == nil || c.Default.Kind != sqlmodel.DefaultAutoIncrement {
		return false
	}
	for _, pk := range t.PrimaryKey {
		if pk.Name == c.Name {
			return true
		}
	}
	return false
}

func gqlFieldName(colName string) string {
	parts := strings.Split(colName, "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// BuildSchema parses the derived SDL with gqlparser, the library every
// incoming request document is also parsed with (spec §4.4).
func BuildSchema(m *model.Model) (*gqlast.Schema, error) {
	sdl := DeriveSDL(m)
	return gqlparser.LoadSchema(&gqlast.Source{Name: "exocore.graphql", Input: sdl})
}
