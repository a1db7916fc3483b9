package gqlplan

import (
	"fmt"
	"strings"

	"github.com/exocore-dev/exocore/sqlir"
)

// LowerOrdering lowers a GraphQL `orderBy` argument — a list of
// single-field objects, e.g. `[{createdAt: DESC}, {title: ASC}]` — into
// sqlir.OrderTerms scoped to alias, preserving list order since
// multi-key ORDER BY is order-sensitive (spec §4.4).
func LowerOrdering(alias string, orderings []map[string]any) ([]sqlir.OrderTerm, error) {
	var terms []sqlir.OrderTerm
	for _, ord := range orderings {
		if len(ord) != 1 {
			return nil, fmt.Errorf("gqlplan: each ordering entry must name exactly one field")
		}
		for field, dir := range ord {
			d, err := parseDir(dir)
			if err != nil {
				return nil, err
			}
			terms = append(terms, sqlir.OrderTerm{
				Expr: sqlir.Col(alias, columnNameFor(field)),
				Dir:  d,
			})
		}
	}
	return terms, nil
}

func parseDir(v any) (sqlir.Dir, error) {
	s, ok := v.(string)
	if !ok {
		return sqlir.Asc, fmt.Errorf("gqlplan: ordering direction must be a string")
	}
	switch strings.ToUpper(s) {
	case "ASC":
		return sqlir.Asc, nil
	case "DESC":
		return sqlir.Desc, nil
	default:
		return sqlir.Asc, fmt.Errorf("gqlplan: unknown ordering direction %q", s)
	}
}
