package model

import (
	"fmt"
	"strconv"

	"github.com/exocore-dev/exocore"
	"github.com/exocore-dev/exocore/access"
	"github.com/exocore-dev/exocore/model/ast"
)

// parseAccessExpr turns the raw, unparsed text the lexer captured for an
// `@access(...)` argument (ast.ValExpr, carried as unparsed source text)
// into an access.Expr (spec §4.2's propositional/first-order tree). It
// is called from crossCheck (phase 6), where an access expression's
// operands are checked against the declaring type's fields and the
// context declarations, rather than during parsing.
//
// Grammar (precedence low to high): or -> and -> not -> cmp -> primary.
//
//	primary   := path | literal | "(" or ")"
//	path      := ident ("." ident)*
//	cmp       := primary (("=="|"!="|"<"|"<="|">"|">=") primary)?
//	not       := "!" not | cmp
//	and       := not ("&&" not)*
//	or        := and ("||" and)*
func parseAccessExpr(owner string, sp exocore.Span, text string) (access.Expr, exocore.CompileErrors) {
	sc := ast.NewScanner(sp.File, text)
	var toks []ast.Token
	for {
		tok := sc.Next()
		toks = append(toks, tok)
		if tok.Kind == ast.TokEOF {
			break
		}
	}
	if errs := sc.Errors(); len(errs) > 0 {
		return nil, exocore.CompileErrors(errs)
	}

	p := &exprParser{toks: toks, owner: owner, declSpan: sp}
	e := p.parseOr()
	if len(p.errs) == 0 && p.pos < len(p.toks)-1 {
		p.errorf("unexpected trailing input in access expression")
	}
	return e, p.errs
}

type exprParser struct {
	toks     []ast.Token
	pos      int
	owner    string
	declSpan exocore.Span
	errs     exocore.CompileErrors
}

func (p *exprParser) errorf(format string, args ...any) {
	p.errs = append(p.errs, &exocore.CompileError{
		Span:    p.declSpan,
		Kind:    exocore.KindType,
		Message: fmt.Sprintf("type %q: access expression: %s", p.owner, fmt.Sprintf(format, args...)),
	})
}

func (p *exprParser) peek() ast.Token { return p.toks[p.pos] }

func (p *exprParser) next() ast.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *exprParser) accept(k ast.Kind) bool {
	if p.peek().Kind == k {
		p.next()
		return true
	}
	return false
}

func (p *exprParser) parseOr() access.Expr {
	left := p.parseAnd()
	var ops []access.Expr
	for p.accept(ast.TokPipePipe) {
		if ops == nil {
			ops = []access.Expr{left}
		}
		ops = append(ops, p.parseAnd())
	}
	if ops == nil {
		return left
	}
	return access.Or{Operands: ops}
}

func (p *exprParser) parseAnd() access.Expr {
	left := p.parseNot()
	var ops []access.Expr
	for p.accept(ast.TokAmpAmp) {
		if ops == nil {
			ops = []access.Expr{left}
		}
		ops = append(ops, p.parseNot())
	}
	if ops == nil {
		return left
	}
	return access.And{Operands: ops}
}

func (p *exprParser) parseNot() access.Expr {
	if p.accept(ast.TokBang) {
		return access.Not{Operand: p.parseNot()}
	}
	return p.parseCmp()
}

var cmpOps = map[ast.Kind]access.CmpOp{
	ast.TokEqEq:  access.CmpEQ,
	ast.TokNotEq: access.CmpNEQ,
	ast.TokLt:    access.CmpLT,
	ast.TokLte:   access.CmpLTE,
	ast.TokGt:    access.CmpGT,
	ast.TokGte:   access.CmpGTE,
}

func (p *exprParser) parseCmp() access.Expr {
	left := p.parsePrimary()
	if op, ok := cmpOps[p.peek().Kind]; ok {
		p.next()
		right := p.parsePrimary()
		leftVal, lok := left.(access.Value)
		rightVal, rok := right.(access.Value)
		if !lok || !rok {
			p.errorf("comparison operands must be values, not boolean expressions")
			return access.BoolConst(false)
		}
		return access.Cmp{Left: leftVal, Op: op, Right: rightVal}
	}
	if v, ok := left.(access.Value); ok {
		// A bare path/literal in boolean position, e.g. "self.isPublic".
		return valueAsBool(v)
	}
	return left
}

// valueAsBool lifts a bare boolean-typed field/context reference into an
// Expr; literal booleans fold to a constant directly.
func valueAsBool(v access.Value) access.Expr {
	if lit, ok := v.(access.Literal); ok {
		if b, ok := lit.Value.(bool); ok {
			return access.BoolConst(b)
		}
	}
	return access.Cmp{Left: v, Op: access.CmpEQ, Right: access.Literal{Value: true}}
}

// parsePrimary returns either an access.Expr ("(" or ")" subexpression)
// or an access.Value (path/literal) — parseCmp distinguishes the two by
// type assertion.
func (p *exprParser) parsePrimary() any {
	tok := p.peek()
	switch tok.Kind {
	case ast.TokLParen:
		p.next()
		e := p.parseOr()
		if !p.accept(ast.TokRParen) {
			p.errorf("expected ')'")
		}
		return e
	case ast.TokBang:
		return p.parseNot()
	case ast.TokString:
		p.next()
		return access.Literal{Value: tok.Text}
	case ast.TokInt:
		p.next()
		n, _ := strconv.ParseInt(tok.Text, 10, 64)
		return access.Literal{Value: n}
	case ast.TokFloat:
		p.next()
		f, _ := strconv.ParseFloat(tok.Text, 64)
		return access.Literal{Value: f}
	case ast.TokIdent:
		return p.parsePath()
	default:
		p.errorf("unexpected token %q", tok.Text)
		p.next()
		return access.Literal{Value: nil}
	}
}

// parsePath parses a dotted identifier chain, recognizing "true"/"false"
// as boolean literals, "self.<field...>" as a FieldValue, and
// "<Context>.<claim...>" as a ContextValue.
func (p *exprParser) parsePath() any {
	first := p.next()
	switch first.Text {
	case "true":
		return access.Literal{Value: true}
	case "false":
		return access.Literal{Value: false}
	}

	var path []string
	for p.accept(ast.TokDot) {
		seg := p.next()
		path = append(path, seg.Text)
	}

	if first.Text == "self" {
		if len(path) == 0 {
			p.errorf("'self' must be followed by a field reference")
			return access.FieldValue{}
		}
		return access.FieldValue{RelationPath: path[:len(path)-1], Field: path[len(path)-1]}
	}

	if len(path) == 0 {
		p.errorf("context reference %q must include a claim, e.g. %q", first.Text, first.Text+".sub")
		return access.ContextValue{ContextName: first.Text}
	}
	return access.ContextValue{ContextName: first.Text, ClaimPath: joinDots(path)}
}

func joinDots(parts []string) string {
	out := parts[0]
	for _, p := range parts[1:] {
		out += "." + p
	}
	return out
}
