// Package access implements the access-control layer described in spec
// §4.2 (component C3): a declarative partial evaluator (expr.go, eval.go,
// residue.go) that lowers an `@access` expression against a known subset
// of context into Always / Never / Residue(predicate). This file keeps
// the teacher's imperative rule-chain vocabulary (Allow/Deny/Skip,
// Policy, FilterFunc) as the escape hatch a deployment's Go code can use
// to register rules the declarative language can't express. A Policy
// is evaluated only where Go code calls it: the plan builder (package
// gqlplan) and the resolver apply compiled @access expressions and do
// not consult a Policy.
package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/exocore-dev/exocore"
	"github.com/exocore-dev/exocore/sqlir"
)

// Policy decision sentinel errors. Use errors.Is to check for these.
var (
	// Allow terminates rule evaluation with an allow decision.
	Allow = errors.New("access: allow rule")

	// Deny terminates rule evaluation with a deny decision.
	Deny = errors.New("access: deny rule")

	// Skip abstains, passing evaluation to the next rule.
	Skip = errors.New("access: skip rule")
)

// Allowf returns a formatted decision wrapping Allow.
func Allowf(format string, a ...any) error { return fmt.Errorf(format+": %w", append(a, Allow)...) }

// Denyf returns a formatted decision wrapping Deny.
func Denyf(format string, a ...any) error { return fmt.Errorf(format+": %w", append(a, Deny)...) }

// Skipf returns a formatted decision wrapping Skip.
func Skipf(format string, a ...any) error { return fmt.Errorf(format+": %w", append(a, Skip)...) }

// Query is the minimal view of a planned query operation a rule can
// inspect: which logical type and which Op (spec §4.4 query/mutation
// lowering hands the planner one of these per top-level field).
type Query interface {
	Op() exocore.Op
	TypeName() string
}

// Mutation is the mutation counterpart of Query. Field exposes an input
// value by name so rules like IsOwner/TenantRule can inspect it without
// depending on a generated per-type mutation struct.
type Mutation interface {
	Op() exocore.Op
	TypeName() string
	Field(name string) (any, bool)
}

// AlwaysAllowRule returns a rule that always allows.
func AlwaysAllowRule() QueryMutationRule { return fixedDecision{Allow} }

// AlwaysDenyRule returns a rule that always denies.
func AlwaysDenyRule() QueryMutationRule { return fixedDecision{Deny} }

// ContextQueryMutationRule builds a rule purely from context: useful for
// viewer-presence checks that don't depend on the operation shape.
func ContextQueryMutationRule(eval func(context.Context) error) QueryMutationRule {
	return contextDecision{eval}
}

type (
	// QueryRule decides whether a query is allowed.
	QueryRule interface {
		EvalQuery(context.Context, Query) error
	}

	// QueryPolicy combines multiple query rules.
	QueryPolicy []QueryRule

	// MutationRule decides whether a mutation is allowed.
	MutationRule interface {
		EvalMutation(context.Context, Mutation) error
	}

	// MutationPolicy combines multiple mutation rules.
	MutationPolicy []MutationRule

	// QueryMutationRule groups query and mutation rules.
	QueryMutationRule interface {
		QueryRule
		MutationRule
	}
)

// MutationRuleFunc adapts an ordinary function to a MutationRule.
type MutationRuleFunc func(context.Context, Mutation) error

// EvalMutation returns f(ctx, m).
func (f MutationRuleFunc) EvalMutation(ctx context.Context, m Mutation) error { return f(ctx, m) }

// OnMutationOperation restricts rule to mutations matching op.
func OnMutationOperation(rule MutationRule, op exocore.Op) MutationRule {
	return MutationRuleFunc(func(ctx context.Context, m Mutation) error {
		if m.Op().Is(op) {
			return rule.EvalMutation(ctx, m)
		}
		return Skip
	})
}

// DenyMutationOperationRule denies every mutation matching op.
func DenyMutationOperationRule(op exocore.Op) MutationRule {
	rule := MutationRuleFunc(func(_ context.Context, m Mutation) error {
		return Denyf("access: operation %s is not allowed", m.Op())
	})
	return OnMutationOperation(rule, op)
}

// Policy groups a query and a mutation policy — the shape a deployment
// registers per logical type alongside (or instead of) an `@access`
// annotation.
type Policy struct {
	Query    QueryPolicy
	Mutation MutationPolicy
}

// EvalQuery forwards to the query policy.
func (p Policy) EvalQuery(ctx context.Context, q Query) error { return p.Query.EvalQuery(ctx, q) }

// EvalMutation forwards to the mutation policy.
func (p Policy) EvalMutation(ctx context.Context, m Mutation) error {
	return p.Mutation.EvalMutation(ctx, m)
}

// PolicyProvider is implemented by types that expose a Policy.
type PolicyProvider interface{ Policy() Policy }

// NewPolicies collects the policies of the given providers into one
// combined Policies value.
func NewPolicies(providers ...PolicyProvider) Policies {
	policies := make(Policies, 0, len(providers))
	for _, p := range providers {
		policies = append(policies, p.Policy())
	}
	return policies
}

// Policies combines multiple policies, evaluated in order until one
// returns a non-Skip decision.
type Policies []Policy

// EvalQuery evaluates the query policies in order.
func (policies Policies) EvalQuery(ctx context.Context, q Query) error {
	return policies.eval(ctx, func(p Policy) error { return p.EvalQuery(ctx, q) })
}

// EvalMutation evaluates the mutation policies in order.
func (policies Policies) EvalMutation(ctx context.Context, m Mutation) error {
	return policies.eval(ctx, func(p Policy) error { return p.EvalMutation(ctx, m) })
}

func (policies Policies) eval(ctx context.Context, eval func(Policy) error) error {
	if decision, ok := DecisionFromContext(ctx); ok {
		return decision
	}
	for _, policy := range policies {
		switch decision := eval(policy); {
		case decision == nil || errors.Is(decision, Skip):
		case errors.Is(decision, Allow):
			return nil
		default:
			return decision
		}
	}
	return nil
}

// EvalQuery evaluates q against every rule in order.
func (policies QueryPolicy) EvalQuery(ctx context.Context, q Query) error {
	for _, policy := range policies {
		switch decision := policy.EvalQuery(ctx, q); {
		case decision == nil || errors.Is(decision, Skip):
		default:
			return decision
		}
	}
	return nil
}

// EvalMutation evaluates m against every rule in order.
func (policies MutationPolicy) EvalMutation(ctx context.Context, m Mutation) error {
	for _, policy := range policies {
		switch decision := policy.EvalMutation(ctx, m); {
		case decision == nil || errors.Is(decision, Skip):
		default:
			return decision
		}
	}
	return nil
}

type decisionCtxKey struct{}

// DecisionContext attaches a prior decision to ctx so nested evaluation
// (e.g. a nested mutation within the same request) reuses it instead of
// re-running rules.
func DecisionContext(parent context.Context, decision error) context.Context {
	if decision == nil || errors.Is(decision, Skip) {
		return parent
	}
	return context.WithValue(parent, decisionCtxKey{}, decision)
}

// DecisionFromContext retrieves a decision attached by DecisionContext.
func DecisionFromContext(ctx context.Context) (error, bool) {
	decision, ok := ctx.Value(decisionCtxKey{}).(error)
	if ok && errors.Is(decision, Allow) {
		decision = nil
	}
	return decision, ok
}

type fixedDecision struct{ decision error }

func (f fixedDecision) EvalQuery(context.Context, Query) error       { return f.decision }
func (f fixedDecision) EvalMutation(context.Context, Mutation) error { return f.decision }

type contextDecision struct{ eval func(context.Context) error }

func (c contextDecision) EvalQuery(ctx context.Context, _ Query) error       { return c.eval(ctx) }
func (c contextDecision) EvalMutation(ctx context.Context, _ Mutation) error { return c.eval(ctx) }

// Filter lets a rule attach an extra sqlir.Predicate to the statement the
// planner is building for a query or mutation, the Go-code equivalent of
// a compiled Residue (spec §4.2 "a residue expression attached to the
// plan").
type Filter interface {
	Where(sqlir.Predicate)
}

// Filterable is implemented by plan nodes that accept an extra filter.
type Filterable interface {
	Filter() Filter
}

// FilterFunc adapts an ordinary function into a rule that filters rather
// than allows/denies outright.
type FilterFunc func(context.Context, Filter) error

// EvalQuery calls f(ctx, q.Filter()) if q is Filterable.
func (f FilterFunc) EvalQuery(ctx context.Context, q Query) error {
	fr, ok := q.(Filterable)
	if !ok {
		return Denyf("access: query type %T does not support filtering", q)
	}
	return f(ctx, fr.Filter())
}

// EvalMutation calls f(ctx, m.Filter()) if m is Filterable.
func (f FilterFunc) EvalMutation(ctx context.Context, m Mutation) error {
	fr, ok := m.(Filterable)
	if !ok {
		return Denyf("access: mutation type %T does not support filtering", m)
	}
	return f(ctx, fr.Filter())
}

var _ QueryMutationRule = FilterFunc(nil)
