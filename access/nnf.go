package access

// Normalize rewrites expr into negation-normal form (NOT only ever
// wraps a Cmp/RelationSome/RelationAll leaf) and folds constant
// subtrees, giving the model compiler a chance to prove an access
// expression trivially Always/Never before a single request ever
// evaluates it (spec §4.2 "Constants, equality chains, and antisymmetry
// permit early contradiction detection").
func Normalize(expr Expr) Expr {
	switch v := expr.(type) {
	case Not:
		return negate(v.Operand)
	case And:
		return foldAnd(mapNormalize(v.Operands))
	case Or:
		return foldOr(mapNormalize(v.Operands))
	case RelationSome:
		return RelationSome{Relation: v.Relation, Pred: Normalize(v.Pred)}
	case RelationAll:
		return RelationAll{Relation: v.Relation, Pred: Normalize(v.Pred)}
	default:
		return expr
	}
}

func mapNormalize(exprs []Expr) []Expr {
	out := make([]Expr, len(exprs))
	for i, e := range exprs {
		out[i] = Normalize(e)
	}
	return out
}

// negate pushes a NOT inward one level via De Morgan's laws, then
// recursively normalizes the result.
func negate(expr Expr) Expr {
	switch v := expr.(type) {
	case BoolConst:
		return BoolConst(!v)
	case Not:
		return Normalize(v.Operand)
	case And:
		ors := make([]Expr, len(v.Operands))
		for i, o := range v.Operands {
			ors[i] = negate(o)
		}
		return foldOr(ors)
	case Or:
		ands := make([]Expr, len(v.Operands))
		for i, o := range v.Operands {
			ands[i] = negate(o)
		}
		return foldAnd(ands)
	case Cmp:
		if v.Op == CmpIn {
			// IN has no complementary CmpOp, so its negation stays a Not leaf.
			return Not{Operand: v}
		}
		return Cmp{Left: v.Left, Op: negateCmpOp(v.Op), Right: v.Right}
	default:
		return Not{Operand: Normalize(expr)}
	}
}

func negateCmpOp(op CmpOp) CmpOp {
	switch op {
	case CmpEQ:
		return CmpNEQ
	case CmpNEQ:
		return CmpEQ
	case CmpLT:
		return CmpGTE
	case CmpLTE:
		return CmpGT
	case CmpGT:
		return CmpLTE
	case CmpGTE:
		return CmpLT
	default:
		return op
	}
}

// foldAnd drops BoolConst(true) operands and short-circuits to
// BoolConst(false) if any operand is a proven-false constant.
func foldAnd(operands []Expr) Expr {
	out := make([]Expr, 0, len(operands))
	for _, o := range operands {
		if b, ok := o.(BoolConst); ok {
			if !bool(b) {
				return BoolConst(false)
			}
			continue
		}
		out = append(out, o)
	}
	if len(out) == 0 {
		return BoolConst(true)
	}
	if len(out) == 1 {
		return out[0]
	}
	return And{Operands: out}
}

// foldOr drops BoolConst(false) operands and short-circuits to
// BoolConst(true) if any operand is a proven-true constant.
func foldOr(operands []Expr) Expr {
	out := make([]Expr, 0, len(operands))
	for _, o := range operands {
		if b, ok := o.(BoolConst); ok {
			if bool(b) {
				return BoolConst(true)
			}
			continue
		}
		out = append(out, o)
	}
	if len(out) == 0 {
		return BoolConst(false)
	}
	if len(out) == 1 {
		return out[0]
	}
	return Or{Operands: out}
}
