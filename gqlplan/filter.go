package gqlplan

import (
	"fmt"

	"github.com/exocore-dev/exocore/sqlir"
)

// scalarFilterOps maps a filter input's sub-field name to the sqlir
// comparison operator it lowers to (spec §4.4 "Query lowering",
// "<Field>Filter" scalar comparison operators).
var scalarFilterOps = map[string]sqlir.PredOp{
	"eq":  sqlir.OpEQ,
	"neq": sqlir.OpNEQ,
	"gt":  sqlir.OpGT,
	"gte": sqlir.OpGTE,
	"lt":  sqlir.OpLT,
	"lte": sqlir.OpLTE,
}

// LowerFilter lowers a GraphQL `where` argument (already decoded from
// its input object into a plain map by the resolver's argument
// binding) into an sqlir.Predicate scoped to alias. filter may be nil,
// in which case LowerFilter returns nil (no predicate contributed).
func LowerFilter(alias string, filter map[string]any) (sqlir.Predicate, error) {
	if len(filter) == 0 {
		return nil, nil
	}

	var operands []sqlir.Predicate
	for field, raw := range filter {
		switch field {
		case "and", "or":
			items, ok := raw.([]any)
			if !ok {
				return nil, fmt.Errorf("gqlplan: %q must be a list", field)
			}
			var nested []sqlir.Predicate
			for _, item := range items {
				m, ok := item.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("gqlplan: %q entries must be filter objects", field)
				}
				p, err := LowerFilter(alias, m)
				if err != nil {
					return nil, err
				}
				if p != nil {
					nested = append(nested, p)
				}
			}
			if field == "and" {
				operands = append(operands, sqlir.AndAll(nested...))
			} else {
				operands = append(operands, sqlir.OrAny(nested...))
			}
		case "not":
			m, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("gqlplan: \"not\" must be a filter object")
			}
			p, err := LowerFilter(alias, m)
			if err != nil {
				return nil, err
			}
			if p != nil {
				operands = append(operands, sqlir.Not{Operand: p})
			}
		default:
			p, err := lowerScalarFilter(alias, columnNameFor(field), raw)
			if err != nil {
				return nil, err
			}
			if p != nil {
				operands = append(operands, p)
			}
		}
	}
	return sqlir.AndAll(operands...), nil
}

func lowerScalarFilter(alias, column string, raw any) (sqlir.Predicate, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		// A bare scalar value is sugar for equality (spec §4.4:
		// "omitting the operator defaults to eq").
		return sqlir.Cmp{Left: sqlir.Col(alias, column), Op: sqlir.OpEQ, Right: sqlir.Param(raw)}, nil
	}

	var operands []sqlir.Predicate
	for op, v := range m {
		if op == "in" {
			values, ok := v.([]any)
			if !ok {
				return nil, fmt.Errorf("gqlplan: %q.in must be a list", column)
			}
			elems := make([]sqlir.Expr, len(values))
			for i, val := range values {
				elems[i] = sqlir.Param(val)
			}
			operands = append(operands, sqlir.InList{Expr: sqlir.Col(alias, column), Values: elems})
			continue
		}
		sqlOp, ok := scalarFilterOps[op]
		if !ok {
			return nil, fmt.Errorf("gqlplan: unknown filter operator %q on %q", op, column)
		}
		operands = append(operands, sqlir.Cmp{Left: sqlir.Col(alias, column), Op: sqlOp, Right: sqlir.Param(v)})
	}
	return sqlir.AndAll(operands...), nil
}

// columnNameFor converts a GraphQL camelCase filter field back to the
// snake_case column name pgschema derived (the inverse of
// gqlFieldName); it does not need access to the table since the
// mapping is mechanical and collision-free for identifiers produced by
// TableNameFor/ColumnNameFor.
func columnNameFor(gqlName string) string {
	var out []byte
	for i := 0; i < len(gqlName); i++ {
		c := gqlName[i]
		if c >= 'A' && c <= 'Z' {
			out = append(out, '_', c-'A'+'a')
			continue
		}
		out = append(out, c)
	}
	return string(out)
}
