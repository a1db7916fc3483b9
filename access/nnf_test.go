package access_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/exocore-dev/exocore/access"
)

func TestNormalizePushesNotThroughAnd(t *testing.T) {
	t.Parallel()

	expr := access.Not{Operand: access.And{Operands: []access.Expr{
		access.Cmp{Left: access.FieldValue{Field: "a"}, Op: access.CmpEQ, Right: access.Literal{Value: 1}},
		access.Cmp{Left: access.FieldValue{Field: "b"}, Op: access.CmpLT, Right: access.Literal{Value: 2}},
	}}}

	got := access.Normalize(expr).(access.Or)
	assert.Len(t, got.Operands, 2)
	assert.Equal(t, access.CmpNEQ, got.Operands[0].(access.Cmp).Op)
	assert.Equal(t, access.CmpGTE, got.Operands[1].(access.Cmp).Op)
}

func TestNormalizeDoubleNegationElimination(t *testing.T) {
	t.Parallel()

	inner := access.Cmp{Left: access.FieldValue{Field: "a"}, Op: access.CmpEQ, Right: access.Literal{Value: 1}}
	expr := access.Not{Operand: access.Not{Operand: inner}}
	assert.Equal(t, inner, access.Normalize(expr))
}

func TestNormalizeFoldsConstantAndToFalse(t *testing.T) {
	t.Parallel()

	expr := access.And{Operands: []access.Expr{
		access.BoolConst(true),
		access.BoolConst(false),
		access.Cmp{Left: access.FieldValue{Field: "a"}, Op: access.CmpEQ, Right: access.Literal{Value: 1}},
	}}
	assert.Equal(t, access.BoolConst(false), access.Normalize(expr))
}

func TestNormalizeFoldsConstantOrToTrue(t *testing.T) {
	t.Parallel()

	expr := access.Or{Operands: []access.Expr{
		access.BoolConst(false),
		access.BoolConst(true),
		access.Cmp{Left: access.FieldValue{Field: "a"}, Op: access.CmpEQ, Right: access.Literal{Value: 1}},
	}}
	assert.Equal(t, access.BoolConst(true), access.Normalize(expr))
}

func TestNormalizeDropsIdentityOperandsAndCollapsesSingleton(t *testing.T) {
	t.Parallel()

	cmp := access.Cmp{Left: access.FieldValue{Field: "a"}, Op: access.CmpEQ, Right: access.Literal{Value: 1}}
	expr := access.And{Operands: []access.Expr{access.BoolConst(true), cmp}}
	assert.Equal(t, cmp, access.Normalize(expr))
}

func TestNormalizePushesNotThroughRelationSomeAsWrappedNot(t *testing.T) {
	t.Parallel()

	rel := access.RelationSome{Relation: "comments", Pred: access.BoolConst(true)}
	expr := access.Not{Operand: rel}
	got := access.Normalize(expr).(access.Not)
	_, ok := got.Operand.(access.RelationSome)
	assert.True(t, ok)
}
