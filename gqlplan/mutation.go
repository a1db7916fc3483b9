package gqlplan

import (
	"fmt"

	"github.com/exocore-dev/exocore"
	"github.com/exocore-dev/exocore/access"
	"github.com/exocore-dev/exocore/sqlir"
	"github.com/exocore-dev/exocore/sqlmodel"
)

// BuildCreate lowers `create<T>(data)` into an INSERT ... RETURNING
// (spec §4.4 "Mutation lowering"). Columns with an autoincrement
// default and no supplied value are omitted from the column list so
// Postgres applies the sequence/default.
func BuildCreate(schema *sqlmodel.Schema, table *sqlmodel.Table, policy access.Expr, ctx access.Context, data map[string]any) (*sqlir.Insert, error) {
	if policy != nil {
		outer := access.TableRef{Table: sqlir.Table{Schema: table.SchemaName, Name: table.Name}, Alias: table.Name}
		decision := access.Eval(ctx, policy, outer, schemaRelations{schema: schema, table: table})
		if decision.Kind == access.Never {
			return nil, &exocore.AuthorizationError{Operation: "create" + table.Name}
		}
		// A Residue decision on create has no existing row to test against
		// and is handled by the resolver re-querying the inserted row
		// through BuildQuery post-commit (spec §4.4 "a create's access
		// expression is checked against the row as committed").
	}

	var cols []string
	var row []sqlir.Expr
	for _, c := range table.Columns {
		v, ok := data[gqlFieldName(c.Name)]
		if !ok {
			continue
		}
		cols = append(cols, c.Name)
		row = append(row, sqlir.Param(v))
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("gqlplan: create%s: no fields supplied", table.Name)
	}

	returning := make([]sqlir.ProjectionItem, 0, len(table.Columns))
	for _, c := range table.Columns {
		returning = append(returning, sqlir.ProjectionItem{Expr: sqlir.Col("", c.Name), Alias: c.Name})
	}

	return &sqlir.Insert{
		Into:      sqlir.Table{Schema: table.SchemaName, Name: table.Name},
		Columns:   cols,
		Rows:      sqlir.ValuesRows{Rows: [][]sqlir.Expr{row}},
		Returning: returning,
	}, nil
}

// BuildUpdate lowers `update<T>(id, data)` into an UPDATE ... RETURNING,
// ANDing the primary-key equality with the policy's residue so a
// viewer can never update a row outside their access window even by
// guessing its id (spec §4.4, §8 scenario).
func BuildUpdate(schema *sqlmodel.Schema, table *sqlmodel.Table, policy access.Expr, ctx access.Context, id any, data map[string]any) (*sqlir.Update, error) {
	if len(table.PrimaryKey) == 0 {
		return nil, fmt.Errorf("gqlplan: update%s: table has no primary key", table.Name)
	}
	alias := table.Name
	where := sqlir.Predicate(sqlir.Cmp{Left: sqlir.Col(alias, table.PrimaryKey[0].Name), Op: sqlir.OpEQ, Right: sqlir.Param(id)})

	if policy != nil {
		outer := access.TableRef{Table: sqlir.Table{Schema: table.SchemaName, Name: table.Name}, Alias: alias}
		decision := access.Eval(ctx, policy, outer, schemaRelations{schema: schema, table: table})
		switch decision.Kind {
		case access.Never:
			return nil, &exocore.AuthorizationError{Operation: "update" + table.Name}
		case access.Residue:
			where = sqlir.AndAll(where, decision.Pred)
		}
	}

	var set []sqlir.SetClause
	for _, c := range table.Columns {
		v, ok := data[gqlFieldName(c.Name)]
		if !ok {
			continue
		}
		set = append(set, sqlir.SetClause{Column: c.Name, Value: sqlir.Param(v)})
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("gqlplan: update%s: no fields supplied", table.Name)
	}

	returning := make([]sqlir.ProjectionItem, 0, len(table.Columns))
	for _, c := range table.Columns {
		returning = append(returning, sqlir.ProjectionItem{Expr: sqlir.Col("", c.Name), Alias: c.Name})
	}

	return &sqlir.Update{
		Table:     sqlir.Table{Schema: table.SchemaName, Name: table.Name},
		Alias:     alias,
		Set:       set,
		Where:     where,
		Returning: returning,
	}, nil
}

// BuildDelete lowers `delete<T>(id)` into a DELETE ... RETURNING, with
// the same policy-residue treatment as BuildUpdate.
func BuildDelete(schema *sqlmodel.Schema, table *sqlmodel.Table, policy access.Expr, ctx access.Context, id any) (*sqlir.Delete, error) {
	if len(table.PrimaryKey) == 0 {
		return nil, fmt.Errorf("gqlplan: delete%s: table has no primary key", table.Name)
	}
	alias := table.Name
	where := sqlir.Predicate(sqlir.Cmp{Left: sqlir.Col(alias, table.PrimaryKey[0].Name), Op: sqlir.OpEQ, Right: sqlir.Param(id)})

	if policy != nil {
		outer := access.TableRef{Table: sqlir.Table{Schema: table.SchemaName, Name: table.Name}, Alias: alias}
		decision := access.Eval(ctx, policy, outer, schemaRelations{schema: schema, table: table})
		switch decision.Kind {
		case access.Never:
			return nil, &exocore.AuthorizationError{Operation: "delete" + table.Name}
		case access.Residue:
			where = sqlir.AndAll(where, decision.Pred)
		}
	}

	returning := make([]sqlir.ProjectionItem, 0, len(table.Columns))
	for _, c := range table.Columns {
		returning = append(returning, sqlir.ProjectionItem{Expr: sqlir.Col("", c.Name), Alias: c.Name})
	}

	return &sqlir.Delete{
		From:      sqlir.Table{Schema: table.SchemaName, Name: table.Name},
		Alias:     alias,
		Where:     where,
		Returning: returning,
	}, nil
}
