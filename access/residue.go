package access

import "github.com/exocore-dev/exocore/sqlir"

// DecisionKind classifies a Decision the way spec §4.2 describes:
// eval(ctx, expr) → Always | Never | Residue(sql).
type DecisionKind uint8

const (
	Always DecisionKind = iota
	Never
	Residue
)

// Decision is the three-valued result of evaluating an Expr. A Residue
// decision carries the sqlir.Predicate the planner attaches as an
// additional WHERE/join condition or CASE WHEN guard (spec §4.4
// "Per-field access").
type Decision struct {
	Kind DecisionKind
	Pred sqlir.Predicate
}

// AlwaysDecision is the fixed Always value.
var AlwaysDecision = Decision{Kind: Always}

// NeverDecision is the fixed Never value.
var NeverDecision = Decision{Kind: Never}

// ResidueDecision wraps an sqlir.Predicate as a Residue decision.
func ResidueDecision(p sqlir.Predicate) Decision { return Decision{Kind: Residue, Pred: p} }

// IsAlways/IsNever/IsResidue are readability helpers.
func (d Decision) IsAlways() bool  { return d.Kind == Always }
func (d Decision) IsNever() bool   { return d.Kind == Never }
func (d Decision) IsResidue() bool { return d.Kind == Residue }

// And implements the conjunction table from spec §4.2:
// Always ∧ R → R; Never ∧ _ → Never; R1 ∧ R2 → Residue(R1 AND R2).
func (d Decision) And(o Decision) Decision {
	switch {
	case d.IsNever() || o.IsNever():
		return NeverDecision
	case d.IsAlways():
		return o
	case o.IsAlways():
		return d
	default:
		return ResidueDecision(sqlir.AndAll(d.Pred, o.Pred))
	}
}

// Or implements the disjunction table: Always ∨ _ → Always; Never ∨ R →
// R; R1 ∨ R2 → Residue(R1 OR R2).
func (d Decision) Or(o Decision) Decision {
	switch {
	case d.IsAlways() || o.IsAlways():
		return AlwaysDecision
	case d.IsNever():
		return o
	case o.IsNever():
		return d
	default:
		return ResidueDecision(sqlir.OrAny(d.Pred, o.Pred))
	}
}

// Not implements negation: ¬Always → Never; ¬Never → Always;
// ¬Residue(p) → Residue(NOT p).
func (d Decision) Not() Decision {
	switch d.Kind {
	case Always:
		return NeverDecision
	case Never:
		return AlwaysDecision
	default:
		return ResidueDecision(sqlir.Not{Operand: d.Pred})
	}
}
