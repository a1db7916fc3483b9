package sqlir

import (
	"fmt"
	"strconv"
	"strings"
)

// Rendered is a statement rendered to parameterized SQL text plus its
// ordered parameter list, ready for Conn.Query/Conn.Exec.
type Rendered struct {
	Query string
	Args  []any
}

// render accumulates text and the $n parameter list for one statement.
type render struct {
	sb   strings.Builder
	args []any
}

func (r *render) lit(v any) {
	r.args = append(r.args, v)
	r.sb.WriteByte('$')
	r.sb.WriteString(strconv.Itoa(len(r.args)))
}

// quoteIdent double-quotes a SQL identifier, doubling any embedded quote.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (r *render) table(t Table) {
	if t.Schema != "" {
		r.sb.WriteString(quoteIdent(t.Schema))
		r.sb.WriteByte('.')
	}
	r.sb.WriteString(quoteIdent(t.Name))
}

func (r *render) expr(e Expr) {
	switch v := e.(type) {
	case ColumnExpr:
		if v.Column.Table != "" {
			r.sb.WriteString(quoteIdent(v.Column.Table))
			r.sb.WriteByte('.')
		}
		r.sb.WriteString(quoteIdent(v.Column.Name))
	case Lit:
		r.lit(v.Value)
	case Raw:
		r.rawFragment(v)
	case Subquery:
		r.sb.WriteByte('(')
		r.selectStmt(v.Select)
		r.sb.WriteByte(')')
	default:
		panic(fmt.Sprintf("sqlir: unknown Expr %T", e))
	}
}

// rawFragment substitutes each "?" in fragment with the rendering of the
// corresponding Arg, in order.
func (r *render) rawFragment(raw Raw) {
	argIdx := 0
	for i := 0; i < len(raw.Fragment); i++ {
		c := raw.Fragment[i]
		if c == '?' && argIdx < len(raw.Args) {
			r.expr(raw.Args[argIdx])
			argIdx++
			continue
		}
		r.sb.WriteByte(c)
	}
}

func (r *render) predicate(p Predicate) {
	switch v := p.(type) {
	case nil:
		r.sb.WriteString("TRUE")
	case Cmp:
		r.expr(v.Left)
		r.sb.WriteByte(' ')
		r.sb.WriteString(string(v.Op))
		r.sb.WriteByte(' ')
		r.expr(v.Right)
	case InList:
		if len(v.Values) == 0 {
			if v.Negate {
				r.sb.WriteString("TRUE")
			} else {
				r.sb.WriteString("FALSE")
			}
			return
		}
		r.expr(v.Expr)
		if v.Negate {
			r.sb.WriteString(" NOT")
		}
		r.sb.WriteString(" IN (")
		for i, val := range v.Values {
			if i > 0 {
				r.sb.WriteString(", ")
			}
			r.expr(val)
		}
		r.sb.WriteByte(')')
	case IsNull:
		r.expr(v.Expr)
		r.sb.WriteString(" IS")
		if v.Negate {
			r.sb.WriteString(" NOT")
		}
		r.sb.WriteString(" NULL")
	case Exists:
		if v.Negate {
			r.sb.WriteString("NOT ")
		}
		r.sb.WriteString("EXISTS (")
		r.selectStmt(v.Select)
		r.sb.WriteByte(')')
	case And:
		r.junction(v.Operands, "AND", "TRUE")
	case Or:
		r.junction(v.Operands, "OR", "FALSE")
	case Not:
		r.sb.WriteString("NOT (")
		r.predicate(v.Operand)
		r.sb.WriteByte(')')
	default:
		panic(fmt.Sprintf("sqlir: unknown Predicate %T", p))
	}
}

func (r *render) junction(operands []Predicate, op, identity string) {
	if len(operands) == 0 {
		r.sb.WriteString(identity)
		return
	}
	if len(operands) == 1 {
		r.predicate(operands[0])
		return
	}
	for i, o := range operands {
		if i > 0 {
			r.sb.WriteByte(' ')
			r.sb.WriteString(op)
			r.sb.WriteByte(' ')
		}
		r.sb.WriteByte('(')
		r.predicate(o)
		r.sb.WriteByte(')')
	}
}

func (r *render) tableExpr(t TableExpr) {
	switch v := t.(type) {
	case BaseTable:
		r.table(v.Table)
		r.sb.WriteString(" AS ")
		r.sb.WriteString(quoteIdent(v.Alias))
	case SubqueryTable:
		r.sb.WriteByte('(')
		r.selectStmt(v.Select)
		r.sb.WriteString(") AS ")
		r.sb.WriteString(quoteIdent(v.Alias))
	case Join:
		r.tableExpr(v.Left)
		switch v.Kind {
		case LeftJoin:
			r.sb.WriteString(" LEFT JOIN ")
		case LateralJoin:
			r.sb.WriteString(" LEFT JOIN LATERAL ")
		default:
			r.sb.WriteString(" JOIN ")
		}
		r.tableExpr(v.Right)
		if v.Kind == LateralJoin {
			r.sb.WriteString(" ON TRUE")
			return
		}
		r.sb.WriteString(" ON ")
		r.predicate(v.On)
	default:
		panic(fmt.Sprintf("sqlir: unknown TableExpr %T", t))
	}
}

func (r *render) projection(items []ProjectionItem) {
	for i, it := range items {
		if i > 0 {
			r.sb.WriteString(", ")
		}
		r.expr(it.Expr)
		if it.Alias != "" {
			r.sb.WriteString(" AS ")
			r.sb.WriteString(quoteIdent(it.Alias))
		}
	}
}

func (r *render) ctes(ctes []CTE) {
	if len(ctes) == 0 {
		return
	}
	r.sb.WriteString("WITH ")
	for i, c := range ctes {
		if i > 0 {
			r.sb.WriteString(", ")
		}
		r.sb.WriteString(quoteIdent(c.Name))
		r.sb.WriteString(" AS (")
		switch {
		case c.Insert != nil:
			r.insertStmt(c.Insert)
		case c.Update != nil:
			r.updateStmt(c.Update)
		case c.Delete != nil:
			r.deleteStmt(c.Delete)
		default:
			r.selectStmt(c.Select)
		}
		r.sb.WriteByte(')')
	}
	r.sb.WriteByte(' ')
}

func (r *render) selectStmt(s *Select) {
	r.ctes(s.CTEs)
	r.sb.WriteString("SELECT ")
	if len(s.Projection) == 0 {
		r.sb.WriteByte('*')
	} else {
		r.projection(s.Projection)
	}
	if s.From != nil {
		r.sb.WriteString(" FROM ")
		r.tableExpr(s.From)
	}
	if s.Where != nil {
		r.sb.WriteString(" WHERE ")
		r.predicate(s.Where)
	}
	if len(s.GroupBy) > 0 {
		r.sb.WriteString(" GROUP BY ")
		for i, e := range s.GroupBy {
			if i > 0 {
				r.sb.WriteString(", ")
			}
			r.expr(e)
		}
	}
	if len(s.OrderBy) > 0 {
		r.sb.WriteString(" ORDER BY ")
		for i, ot := range s.OrderBy {
			if i > 0 {
				r.sb.WriteString(", ")
			}
			r.expr(ot.Expr)
			if ot.Dir == Desc {
				r.sb.WriteString(" DESC")
			} else {
				r.sb.WriteString(" ASC")
			}
		}
	}
	if s.Limit != nil {
		r.sb.WriteString(" LIMIT ")
		r.lit(*s.Limit)
	}
	if s.Offset != nil {
		r.sb.WriteString(" OFFSET ")
		r.lit(*s.Offset)
	}
}

func (r *render) insertStmt(ins *Insert) {
	r.sb.WriteString("INSERT INTO ")
	r.table(ins.Into)
	r.sb.WriteString(" (")
	for i, c := range ins.Columns {
		if i > 0 {
			r.sb.WriteString(", ")
		}
		r.sb.WriteString(quoteIdent(c))
	}
	r.sb.WriteByte(')')
	switch src := ins.Rows.(type) {
	case ValuesRows:
		r.sb.WriteString(" VALUES ")
		for i, row := range src.Rows {
			if i > 0 {
				r.sb.WriteString(", ")
			}
			r.sb.WriteByte('(')
			for j, v := range row {
				if j > 0 {
					r.sb.WriteString(", ")
				}
				r.expr(v)
			}
			r.sb.WriteByte(')')
		}
	case SelectRows:
		r.sb.WriteByte(' ')
		r.selectStmt(src.Select)
	default:
		panic(fmt.Sprintf("sqlir: unknown RowsSource %T", ins.Rows))
	}
	r.returning(ins.Returning)
}

func (r *render) updateStmt(u *Update) {
	r.sb.WriteString("UPDATE ")
	r.table(u.Table)
	if u.Alias != "" {
		r.sb.WriteString(" AS ")
		r.sb.WriteString(quoteIdent(u.Alias))
	}
	r.sb.WriteString(" SET ")
	for i, sc := range u.Set {
		if i > 0 {
			r.sb.WriteString(", ")
		}
		r.sb.WriteString(quoteIdent(sc.Column))
		r.sb.WriteString(" = ")
		r.expr(sc.Value)
	}
	if u.Where != nil {
		r.sb.WriteString(" WHERE ")
		r.predicate(u.Where)
	}
	r.returning(u.Returning)
}

func (r *render) deleteStmt(d *Delete) {
	r.sb.WriteString("DELETE FROM ")
	r.table(d.From)
	if d.Alias != "" {
		r.sb.WriteString(" AS ")
		r.sb.WriteString(quoteIdent(d.Alias))
	}
	if d.Where != nil {
		r.sb.WriteString(" WHERE ")
		r.predicate(d.Where)
	}
	r.returning(d.Returning)
}

func (r *render) returning(items []ProjectionItem) {
	if len(items) == 0 {
		return
	}
	r.sb.WriteString(" RETURNING ")
	r.projection(items)
}

// RenderSelect renders a Select to parameterized SQL.
func RenderSelect(s *Select) Rendered {
	r := &render{}
	r.selectStmt(s)
	return Rendered{Query: r.sb.String(), Args: r.args}
}

// RenderInsert renders an Insert to parameterized SQL.
func RenderInsert(ins *Insert) Rendered {
	r := &render{}
	r.insertStmt(ins)
	return Rendered{Query: r.sb.String(), Args: r.args}
}

// RenderUpdate renders an Update to parameterized SQL.
func RenderUpdate(u *Update) Rendered {
	r := &render{}
	r.updateStmt(u)
	return Rendered{Query: r.sb.String(), Args: r.args}
}

// RenderDelete renders a Delete to parameterized SQL.
func RenderDelete(d *Delete) Rendered {
	r := &render{}
	r.deleteStmt(d)
	return Rendered{Query: r.sb.String(), Args: r.args}
}
