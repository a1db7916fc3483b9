package access

import "github.com/exocore-dev/exocore/sqlir"

// Expr is the access-control expression language of spec §4.2: a
// propositional/first-order tree whose atoms compare a context value
// against a row-field reference. It is produced by the model compiler
// (package model) from an `@access` annotation and evaluated once per
// plan by Eval.
type Expr interface{ isAccessExpr() }

// BoolConst is a literal true/false, the base case eval folds everything
// down to.
type BoolConst bool

// CmpOp is a comparison operator over two Values.
type CmpOp string

const (
	CmpEQ  CmpOp = "="
	CmpNEQ CmpOp = "<>"
	CmpLT  CmpOp = "<"
	CmpLTE CmpOp = "<="
	CmpGT  CmpOp = ">"
	CmpGTE CmpOp = ">="
	CmpIn  CmpOp = "in"
)

// Value is one operand of a Cmp: either a context path (`AuthContext.role`),
// a row-field reference (`self.ownerId`), or a literal constant.
type Value interface{ isAccessValue() }

// ContextValue reads a named claim from the resolved request context
// (spec §3 "Context": the set of per-request bindings, each backed by a
// configured provider — JWT claim, header, cookie, env var, client IP).
type ContextValue struct {
	ContextName string
	ClaimPath   string
}

// FieldValue references a column of the row under evaluation, optionally
// through a relation path (`self.post.author.id`).
type FieldValue struct {
	RelationPath []string
	Field        string
}

// Literal is a constant value known at compile time.
type Literal struct{ Value any }

func (ContextValue) isAccessValue() {}
func (FieldValue) isAccessValue()   {}
func (Literal) isAccessValue()      {}

// Cmp compares two Values.
type Cmp struct {
	Left  Value
	Op    CmpOp
	Right Value
}

// And/Or/Not are the logical combinators.
type And struct{ Operands []Expr }
type Or struct{ Operands []Expr }
type Not struct{ Operand Expr }

// RelationSome is `self.relation.some(p)`: true iff at least one related
// row satisfies p (spec §4.2).
type RelationSome struct {
	Relation string
	Pred     Expr
}

// RelationAll is the universally-quantified counterpart, used for
// relation fields guarded by "every related row must satisfy p".
type RelationAll struct {
	Relation string
	Pred     Expr
}

func (BoolConst) isAccessExpr()    {}
func (Cmp) isAccessExpr()          {}
func (And) isAccessExpr()          {}
func (Or) isAccessExpr()           {}
func (Not) isAccessExpr()          {}
func (RelationSome) isAccessExpr() {}
func (RelationAll) isAccessExpr()  {}

// TableRef names the physical table and alias a FieldValue/RelationSome
// should resolve column references against when lowering to sqlir.
type TableRef struct {
	Table sqlir.Table
	Alias string
}
