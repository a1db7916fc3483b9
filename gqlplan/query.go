package gqlplan

import (
	"github.com/exocore-dev/exocore"
	"github.com/exocore-dev/exocore/access"
	"github.com/exocore-dev/exocore/sqlir"
	"github.com/exocore-dev/exocore/sqlmodel"
)

// QueryArgs is the decoded argument set of a query root field (spec
// §4.4): `t(id)`, `ts(where, orderBy, limit, offset)`, `tsAgg(where)`.
type QueryArgs struct {
	ID      any
	Where   map[string]any
	OrderBy []map[string]any
	Limit   *uint64
	Offset  *uint64
}

// BuildQuery lowers one query root field against table into a
// sqlir.Select, attaching the type's compiled access policy as
// residue (spec §4.2 "Per-field access": Always contributes nothing,
// Never rejects the whole operation up front, Residue(p) is ANDed into
// WHERE).
func BuildQuery(schema *sqlmodel.Schema, table *sqlmodel.Table, policy access.Expr, ctx access.Context, operation string, args QueryArgs) (*sqlir.Select, error) {
	alias := table.Name

	var where sqlir.Predicate
	if args.ID != nil && len(table.PrimaryKey) > 0 {
		where = sqlir.Cmp{Left: sqlir.Col(alias, table.PrimaryKey[0].Name), Op: sqlir.OpEQ, Right: sqlir.Param(args.ID)}
	} else if args.Where != nil {
		p, err := LowerFilter(alias, args.Where)
		if err != nil {
			return nil, err
		}
		where = p
	}

	if policy != nil {
		outer := access.TableRef{Table: sqlir.Table{Schema: table.SchemaName, Name: table.Name}, Alias: alias}
		decision := access.Eval(ctx, policy, outer, schemaRelations{schema: schema, table: table})
		switch decision.Kind {
		case access.Never:
			return nil, &exocore.AuthorizationError{Operation: operation}
		case access.Residue:
			where = sqlir.AndAll(where, decision.Pred)
		}
	}

	order, err := LowerOrdering(alias, args.OrderBy)
	if err != nil {
		return nil, err
	}

	projection := make([]sqlir.ProjectionItem, 0, len(table.Columns))
	for _, c := range table.Columns {
		projection = append(projection, sqlir.ProjectionItem{Expr: sqlir.Col(alias, c.Name), Alias: c.Name})
	}

	return &sqlir.Select{
		From:       sqlir.BaseTable{Table: sqlir.Table{Schema: table.SchemaName, Name: table.Name}, Alias: alias},
		Projection: projection,
		Where:      where,
		OrderBy:    order,
		Limit:      args.Limit,
		Offset:     args.Offset,
	}, nil
}
