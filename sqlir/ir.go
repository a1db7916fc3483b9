// Package sqlir also carries the typed statement tree spec §4.3
// describes for component C2: Select/Insert/Update/Delete over a
// recursive TableExpr and a boolean Predicate tree, rendered to
// parameterized SQL text by render.go. Statements are built as literals
// of the exported node types below (plus helpers such as AndAll); the
// node types do not check arity or type compatibility. Rendering itself
// never fails (spec §4.3 "Rendering is total and non-failing").
package sqlir

// Dir is an ORDER BY direction.
type Dir uint8

const (
	Asc Dir = iota
	Desc
)

// Table names a physical table, optionally schema-qualified.
type Table struct {
	Schema string
	Name   string
}

// Column is a reference to a column, scoped to a table alias so the same
// column can appear under different joins within one statement.
type Column struct {
	Table string // alias, not necessarily the table's own name
	Name  string
}

// Expr is the sum type for scalar expressions used in projections,
// SET clauses, ORDER BY and predicates.
type Expr interface{ isExpr() }

// ColumnExpr references a Column.
type ColumnExpr struct{ Column Column }

// Lit is a parameterized literal; Render substitutes it with "$n" and
// appends Value to the parameter list — literals never appear inlined
// in the rendered SQL text (spec §4.3 "every literal crosses this
// boundary exclusively through parameters").
type Lit struct{ Value any }

// Raw is an escape hatch for SQL function calls and operators the tree
// doesn't model as first-class nodes (e.g. json_build_object(...),
// coalesce(json_agg(...), '[]')). Args are nested Exprs substituted in
// declaration order for "?" placeholders in Fragment.
type Raw struct {
	Fragment string
	Args     []Expr
}

// Subquery embeds a full Select as a scalar expression (used for
// ManyToOne json_build_object lateral correlated subqueries and Set<T>
// json_agg aggregates, spec §4.4 "Query lowering").
type Subquery struct{ Select *Select }

func (ColumnExpr) isExpr() {}
func (Lit) isExpr()        {}
func (Raw) isExpr()        {}
func (Subquery) isExpr()   {}

// Col is shorthand for ColumnExpr{Column{alias, name}}.
func Col(alias, name string) Expr { return ColumnExpr{Column{Table: alias, Name: name}} }

// Param wraps a Go value as a parameterized literal.
func Param(v any) Expr { return Lit{Value: v} }

// ProjectionItem is one entry of a SELECT's projection list.
type ProjectionItem struct {
	Expr  Expr
	Alias string
}

// PredOp is a comparison/membership operator.
type PredOp string

const (
	OpEQ        PredOp = "="
	OpNEQ       PredOp = "<>"
	OpLT        PredOp = "<"
	OpLTE       PredOp = "<="
	OpGT        PredOp = ">"
	OpGTE       PredOp = ">="
	OpLike      PredOp = "LIKE"
	OpILike     PredOp = "ILIKE"
	OpContains  PredOp = "@>" // JSON/array containment
	OpContained PredOp = "<@"
	OpHasKey    PredOp = "?"
	OpHasAnyKey PredOp = "?|"
	OpHasAllKey PredOp = "?&"
	OpL2Dist    PredOp = "<->" // vector Euclidean distance
	OpCosDist   PredOp = "<=>" // vector cosine distance
	OpInnerProd PredOp = "<#>" // vector negative inner product
)

// Predicate is the boolean tree over comparisons, membership and
// relation existence (spec §4.3).
type Predicate interface{ isPredicate() }

// Cmp is a binary comparison between two expressions.
type Cmp struct {
	Left  Expr
	Op    PredOp
	Right Expr
}

// InList is `expr IN (values...)`; an empty Values list renders as the
// always-false predicate (spec invariant: IN () can never match).
type InList struct {
	Expr   Expr
	Values []Expr
	Negate bool
}

// IsNull is `expr IS [NOT] NULL`.
type IsNull struct {
	Expr   Expr
	Negate bool
}

// Exists wraps a correlated subquery used for EXISTS(...) relation
// predicates (spec §4.2 "self.relation.some(p)").
type Exists struct {
	Select *Select
	Negate bool
}

// And/Or/Not are the logical combinators. And()/Or() with zero operands
// render as TRUE/FALSE respectively so callers can fold empty predicate
// lists without a special case.
type And struct{ Operands []Predicate }
type Or struct{ Operands []Predicate }
type Not struct{ Operand Predicate }

func (Cmp) isPredicate()    {}
func (InList) isPredicate() {}
func (IsNull) isPredicate() {}
func (Exists) isPredicate() {}
func (And) isPredicate()    {}
func (Or) isPredicate()     {}
func (Not) isPredicate()    {}

// TableExpr is the recursive FROM-clause tree: base table, derived
// subquery, join, or VALUES rows source for bulk inserts.
type TableExpr interface{ isTableExpr() }

// BaseTable is a plain table reference with an alias.
type BaseTable struct {
	Table Table
	Alias string
}

// SubqueryTable is a derived table: `(SELECT ...) AS alias`.
type SubqueryTable struct {
	Select *Select
	Alias  string
}

// JoinKind enumerates supported join types.
type JoinKind uint8

const (
	InnerJoin JoinKind = iota
	LeftJoin
	LateralJoin // LEFT JOIN LATERAL, used for nested-selection subqueries
)

// Join combines two TableExprs with an ON predicate (absent for
// LateralJoin, which correlates through the subquery's own WHERE).
type Join struct {
	Kind  JoinKind
	Left  TableExpr
	Right TableExpr
	On    Predicate
}

func (BaseTable) isTableExpr()     {}
func (SubqueryTable) isTableExpr() {}
func (Join) isTableExpr()          {}

// CTE is one entry of a WITH clause (spec §4.4 "WITH inserted AS
// (INSERT ... RETURNING pk) SELECT ...").
type CTE struct {
	Name   string
	Select *Select
	Insert *Insert
	Update *Update
	Delete *Delete
}

// OrderTerm is one ORDER BY entry.
type OrderTerm struct {
	Expr Expr
	Dir  Dir
}

// Select is a full SELECT statement.
type Select struct {
	CTEs       []CTE
	From       TableExpr
	Projection []ProjectionItem
	Where      Predicate
	GroupBy    []Expr
	OrderBy    []OrderTerm
	Limit      *uint64
	Offset     *uint64
}

// RowsSource supplies INSERT values: a literal multi-row VALUES list
// (bulk create with a shared shape) or a nested Select (INSERT ...
// SELECT, used when an insert's values depend on a prior CTE).
type RowsSource interface{ isRowsSource() }

// ValuesRows is a literal `VALUES (...), (...)` source; every row must
// have the same length as Columns on the owning Insert (checked neither
// at construction nor at render time).
type ValuesRows struct{ Rows [][]Expr }

// SelectRows sources INSERT ... SELECT rows, used for nested-create
// chains that read a parent's freshly returned id out of an earlier CTE.
type SelectRows struct{ Select *Select }

func (ValuesRows) isRowsSource() {}
func (SelectRows) isRowsSource() {}

// Insert is a full INSERT statement.
type Insert struct {
	Into      Table
	Columns   []string
	Rows      RowsSource
	Returning []ProjectionItem
}

// SetClause is one `column = expr` assignment of an UPDATE.
type SetClause struct {
	Column string
	Value  Expr
}

// Update is a full UPDATE statement.
type Update struct {
	Table     Table
	Alias     string
	Set       []SetClause
	Where     Predicate
	Returning []ProjectionItem
}

// Delete is a full DELETE statement.
type Delete struct {
	From      Table
	Alias     string
	Where     Predicate
	Returning []ProjectionItem
}

// AndAll folds zero-or-more predicates into a conjunction; zero operands
// render as the always-true predicate so callers never special-case an
// empty WHERE (mirrors the access solver's NNF short-circuit folding in
// package access).
func AndAll(ps ...Predicate) Predicate {
	flat := make([]Predicate, 0, len(ps))
	for _, p := range ps {
		if p != nil {
			flat = append(flat, p)
		}
	}
	return And{Operands: flat}
}

// OrAny folds zero-or-more predicates into a disjunction.
func OrAny(ps ...Predicate) Predicate {
	flat := make([]Predicate, 0, len(ps))
	for _, p := range ps {
		if p != nil {
			flat = append(flat, p)
		}
	}
	return Or{Operands: flat}
}
