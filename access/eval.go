package access

import (
	"fmt"

	"github.com/exocore-dev/exocore/sqlir"
)

// Context is the resolved set of per-request context bindings (spec §3
// "Context"): context name → claim path → value, already extracted by
// the configured provider chain (JWT claim, header, cookie, env, IP)
// before planning begins — Eval never performs I/O (spec §4.2 "The
// solver is pure, deterministic, and free of I/O").
type Context map[string]map[string]any

// Get looks up a claim, returning ok=false if the context or claim is
// absent.
func (c Context) Get(contextName, claimPath string) (any, bool) {
	claims, ok := c[contextName]
	if !ok {
		return nil, false
	}
	v, ok := claims[claimPath]
	return v, ok
}

// RelationResolver supplies the join/correlation shape for a named
// relation so RelationSome/RelationAll and self.relation.field can be
// lowered to EXISTS subqueries or joins.
type RelationResolver interface {
	// Relation returns the related table, the column on it that points
	// back to the outer row (owner side fk), and the outer row's own
	// key column.
	Relation(name string) (related TableRef, relatedFK string, outerKey string, ok bool)
}

// evalCtx threads the pieces Eval needs through recursive calls.
type evalCtx struct {
	ctx   Context
	outer TableRef
	rel   RelationResolver
}

// Eval implements the three-valued partial evaluator of spec §4.2:
// eval(ctx, expr) → Always | Never | Residue(sql). outer names the table
// and alias field references resolve against; rel supplies relation
// shapes for RelationSome/RelationAll.
func Eval(ctx Context, expr Expr, outer TableRef, rel RelationResolver) Decision {
	e := evalCtx{ctx: ctx, outer: outer, rel: rel}
	return e.eval(expr)
}

func (e evalCtx) eval(expr Expr) Decision {
	switch v := expr.(type) {
	case BoolConst:
		if v {
			return AlwaysDecision
		}
		return NeverDecision
	case Cmp:
		return e.evalCmp(v)
	case And:
		d := AlwaysDecision
		for _, o := range v.Operands {
			d = d.And(e.eval(o))
			if d.IsNever() {
				return NeverDecision // early contradiction short-circuit
			}
		}
		return d
	case Or:
		d := NeverDecision
		for _, o := range v.Operands {
			d = d.Or(e.eval(o))
			if d.IsAlways() {
				return AlwaysDecision
			}
		}
		return d
	case Not:
		return e.eval(v.Operand).Not()
	case RelationSome:
		return e.evalRelationSome(v, false)
	case RelationAll:
		return e.evalRelationSome(RelationSome(v), true)
	default:
		panic(fmt.Sprintf("access: unknown Expr %T", expr))
	}
}

// resolved is the outcome of resolving one Value: either a compile-time
// constant (known==true) or a field reference lowered to an sqlir.Expr.
type resolved struct {
	known bool
	value any
	expr  sqlir.Expr
}

func (e evalCtx) resolveValue(v Value) resolved {
	switch val := v.(type) {
	case Literal:
		return resolved{known: true, value: val.Value}
	case ContextValue:
		if x, ok := e.ctx.Get(val.ContextName, val.ClaimPath); ok {
			return resolved{known: true, value: x}
		}
		return resolved{known: true, value: nil}
	case FieldValue:
		alias := e.outer.Alias
		if len(val.RelationPath) > 0 {
			// Multi-hop field paths resolve through successive joins;
			// the planner supplies the final alias via RelationPath
			// traversal at lowering time. Evaluated lazily here as a
			// plain column reference using the last path segment as the
			// alias hint, refined by the caller when building the join.
			alias = val.RelationPath[len(val.RelationPath)-1]
		}
		return resolved{expr: sqlir.Col(alias, val.Field)}
	default:
		panic(fmt.Sprintf("access: unknown Value %T", v))
	}
}

func (e evalCtx) evalCmp(c Cmp) Decision {
	l := e.resolveValue(c.Left)
	r := e.resolveValue(c.Right)

	if l.known && r.known {
		ok, matched := compareConst(l.value, r.value, c.Op)
		if !matched {
			// Incomparable constants (type mismatch) can never be
			// satisfied; treat as a proven-false atom.
			return NeverDecision
		}
		if ok {
			return AlwaysDecision
		}
		return NeverDecision
	}

	// At least one side is a field reference: becomes a residue
	// predicate over the row.
	leftExpr := l.expr
	if l.known {
		leftExpr = sqlir.Param(l.value)
	}
	rightExpr := r.expr
	if r.known {
		rightExpr = sqlir.Param(r.value)
	}
	if c.Op == CmpIn {
		if r.known {
			if values, ok := r.value.([]any); ok {
				elems := make([]sqlir.Expr, len(values))
				for i, v := range values {
					elems[i] = sqlir.Param(v)
				}
				return ResidueDecision(sqlir.InList{Expr: leftExpr, Values: elems})
			}
		}
		return ResidueDecision(sqlir.InList{Expr: leftExpr, Values: []sqlir.Expr{rightExpr}})
	}
	return ResidueDecision(sqlir.Cmp{Left: leftExpr, Op: sqlOp(c.Op), Right: rightExpr})
}

func sqlOp(op CmpOp) sqlir.PredOp {
	switch op {
	case CmpEQ:
		return sqlir.OpEQ
	case CmpNEQ:
		return sqlir.OpNEQ
	case CmpLT:
		return sqlir.OpLT
	case CmpLTE:
		return sqlir.OpLTE
	case CmpGT:
		return sqlir.OpGT
	case CmpGTE:
		return sqlir.OpGTE
	default:
		return sqlir.OpEQ
	}
}

// compareConst evaluates a comparison between two compile-time-known
// values. matched is false when the operand types can't be compared,
// in which case the caller treats the atom as Never per spec's "early
// contradiction detection".
func compareConst(a, b any, op CmpOp) (result bool, matched bool) {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return compareOrdered(af, bf, op), true
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		switch op {
		case CmpEQ:
			return as == bs, true
		case CmpNEQ:
			return as != bs, true
		case CmpLT:
			return as < bs, true
		case CmpLTE:
			return as <= bs, true
		case CmpGT:
			return as > bs, true
		case CmpGTE:
			return as >= bs, true
		}
	}
	if op == CmpEQ {
		return a == b, true
	}
	if op == CmpNEQ {
		return a != b, true
	}
	return false, false
}

func compareOrdered(a, b float64, op CmpOp) bool {
	switch op {
	case CmpEQ:
		return a == b
	case CmpNEQ:
		return a != b
	case CmpLT:
		return a < b
	case CmpLTE:
		return a <= b
	case CmpGT:
		return a > b
	case CmpGTE:
		return a >= b
	default:
		return false
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func (e evalCtx) evalRelationSome(v RelationSome, universal bool) Decision {
	related, relatedFK, outerKey, ok := e.rel.Relation(v.Relation)
	if !ok {
		panic(fmt.Sprintf("access: unknown relation %q", v.Relation))
	}
	inner := evalCtx{ctx: e.ctx, outer: related, rel: e.rel}
	innerDecision := inner.eval(v.Pred)

	correlate := sqlir.Cmp{
		Left:  sqlir.Col(related.Alias, relatedFK),
		Op:    sqlir.OpEQ,
		Right: sqlir.Col(e.outer.Alias, outerKey),
	}

	switch innerDecision.Kind {
	case Always:
		if universal {
			return AlwaysDecision
		}
		return ResidueDecision(sqlir.Exists{Select: &sqlir.Select{
			From:       sqlir.BaseTable{Table: related.Table, Alias: related.Alias},
			Projection: []sqlir.ProjectionItem{{Expr: sqlir.Param(1)}},
			Where:      correlate,
		}})
	case Never:
		if universal {
			// ALL over an inner Never means "no related row may exist".
			return ResidueDecision(sqlir.Not{Operand: sqlir.Exists{Select: &sqlir.Select{
				From:       sqlir.BaseTable{Table: related.Table, Alias: related.Alias},
				Projection: []sqlir.ProjectionItem{{Expr: sqlir.Param(1)}},
				Where:      correlate,
			}}})
		}
		return NeverDecision
	default:
		where := sqlir.AndAll(correlate, innerDecision.Pred)
		if universal {
			where = sqlir.AndAll(correlate, sqlir.Not{Operand: innerDecision.Pred})
		}
		sub := &sqlir.Select{
			From:       sqlir.BaseTable{Table: related.Table, Alias: related.Alias},
			Projection: []sqlir.ProjectionItem{{Expr: sqlir.Param(1)}},
			Where:      where,
		}
		if universal {
			// ALL(p) == NOT EXISTS(NOT p) over the related set.
			return ResidueDecision(sqlir.Exists{Select: sub, Negate: true})
		}
		return ResidueDecision(sqlir.Exists{Select: sub})
	}
}
