package ast

import (
	"fmt"
	"strconv"

	"github.com/exocore-dev/exocore"
)

// Parser consumes a Scanner's token stream and builds a File.
type Parser struct {
	file   string
	sc     *Scanner
	tok    Token
	peeked *Token
	errors []*exocore.CompileError
}

// NewParser returns a Parser over src, attributed to file in
// diagnostics.
func NewParser(file, src string) *Parser {
	p := &Parser{file: file, sc: NewScanner(file, src)}
	p.tok = p.sc.Next()
	return p
}

// Errors returns parse errors accumulated so far, including any
// lexical errors from the underlying scanner, as exocore.CompileErrors
// ready for the compiler pipeline to aggregate (spec §4.1: "reports as
// many errors as can be proved independent before aborting").
func (p *Parser) Errors() exocore.CompileErrors {
	return append(append(exocore.CompileErrors{}, p.sc.Errors()...), p.errors...)
}

func (p *Parser) errorf(sp exocore.Span, format string, args ...any) {
	p.errors = append(p.errors, &exocore.CompileError{
		Span:    sp,
		Kind:    exocore.KindParse,
		Message: fmt.Sprintf(format, args...),
	})
}

func (p *Parser) advance() Token {
	cur := p.tok
	if p.peeked != nil {
		p.tok = *p.peeked
		p.peeked = nil
	} else {
		p.tok = p.sc.Next()
	}
	return cur
}

func (p *Parser) peek2() Token {
	if p.peeked == nil {
		t := p.sc.Next()
		p.peeked = &t
	}
	return *p.peeked
}

func (p *Parser) expect(k Kind, what string) Token {
	if p.tok.Kind != k {
		p.errorf(p.tok.Span, "expected %s, got %q", what, p.tok.Text)
		return p.tok
	}
	return p.advance()
}

func (p *Parser) at(k Kind) bool { return p.tok.Kind == k }

func (p *Parser) atKeyword(kw string) bool {
	return p.tok.Kind == TokIdent && p.tok.Text == kw
}

// ParseFile parses a complete source file into a File AST.
func ParseFile(path, src string) (*File, exocore.CompileErrors) {
	p := NewParser(path, src)
	f := &File{Path: path}
	for p.tok.Kind != TokEOF {
		d := p.parseDecl()
		if d != nil {
			f.Decls = append(f.Decls, d)
		} else {
			// avoid infinite loop on unrecoverable token
			p.advance()
		}
	}
	return f, p.Errors()
}

func (p *Parser) parseDecl() Decl {
	switch {
	case p.atKeyword("module"):
		return p.parseModule()
	case p.atKeyword("type"):
		return p.parseType()
	case p.atKeyword("fragment"):
		return p.parseFragment()
	case p.atKeyword("enum"):
		return p.parseEnum()
	case p.atKeyword("context"):
		return p.parseContext()
	default:
		p.errorf(p.tok.Span, "expected a top-level declaration (module/type/fragment/enum/context), got %q", p.tok.Text)
		return nil
	}
}

func (p *Parser) parseAnnotations() []Annotation {
	var anns []Annotation
	for p.at(TokAt) {
		anns = append(anns, p.parseAnnotation())
	}
	return anns
}

// accessLikeAnnotations take a boolean access-control expression (or
// "query=expr, mutation=expr") as their argument rather than an
// ordinary value list; that grammar is independent of annotation
// arguments in general, so it's captured as raw text here and parsed
// by the access-expression parser in phase 6 (cross-subsystem
// validation).
var accessLikeAnnotations = map[string]bool{
	"access":   true,
	"precheck": true,
}

func (p *Parser) parseAnnotation() Annotation {
	sp := p.tok.Span
	p.advance() // '@'
	name := p.expect(TokIdent, "annotation name").Text
	ann := Annotation{Name: name, Sp: sp}
	if p.at(TokLParen) {
		if accessLikeAnnotations[name] {
			ann.Args = p.parseAccessExprArgs()
			return ann
		}
		p.advance()
		for !p.at(TokRParen) && !p.at(TokEOF) {
			ann.Args = append(ann.Args, p.parseAnnotationArg())
			if p.at(TokComma) {
				p.advance()
			} else {
				break
			}
		}
		p.expect(TokRParen, "')'")
	}
	return ann
}

// parseAccessExprArgs consumes "( expr )" or "( query = expr , mutation
// = expr )", capturing each expr as raw, unparsed source text (joined
// without artificial spacing around '.' so field-path tokens like
// "self.owner" survive verbatim).
func (p *Parser) parseAccessExprArgs() []AnnotationArg {
	p.advance() // '('
	var args []AnnotationArg
	for {
		sp := p.tok.Span
		argName := ""
		if p.at(TokIdent) && (p.tok.Text == "query" || p.tok.Text == "mutation") && p.peek2().Kind == TokEquals {
			argName = p.advance().Text
			p.advance() // '='
		}
		text := p.captureExprUntil(TokComma, TokRParen)
		args = append(args, AnnotationArg{Name: argName, Value: Value{Kind: ValExpr, Str: text, Sp: sp}, Sp: sp})
		if p.at(TokComma) {
			p.advance()
			continue
		}
		break
	}
	p.expect(TokRParen, "')'")
	return args
}

// captureExprUntil concatenates token text up to (not including) a
// top-level occurrence of stop1 or stop2, tracking nested paren depth
// so inner parens are captured verbatim.
func (p *Parser) captureExprUntil(stop1, stop2 Kind) string {
	var sb []byte
	depth := 0
	prev := TokEOF
	havePrev := false
	for {
		if depth == 0 && (p.at(stop1) || p.at(stop2)) {
			return string(sb)
		}
		if p.at(TokEOF) {
			p.errorf(p.tok.Span, "unterminated expression")
			return string(sb)
		}
		switch p.tok.Kind {
		case TokLParen:
			depth++
		case TokRParen:
			depth--
		}
		if havePrev && needsSpaceBetween(prev, p.tok.Kind) {
			sb = append(sb, ' ')
		}
		sb = append(sb, p.tok.Text...)
		prev, havePrev = p.tok.Kind, true
		p.advance()
	}
}

func needsSpaceBetween(prev, cur Kind) bool {
	switch prev {
	case TokDot, TokLParen:
		return false
	}
	switch cur {
	case TokDot, TokRParen, TokComma, TokLParen:
		return false
	}
	return true
}

func (p *Parser) parseAnnotationArg() AnnotationArg {
	sp := p.tok.Span
	// named form: ident '=' value
	if p.at(TokIdent) && p.peek2().Kind == TokEquals {
		name := p.advance().Text
		p.advance() // '='
		v := p.parseValue()
		return AnnotationArg{Name: name, Value: v, Sp: sp}
	}
	v := p.parseValue()
	return AnnotationArg{Value: v, Sp: sp}
}

func (p *Parser) parseValue() Value {
	sp := p.tok.Span
	switch p.tok.Kind {
	case TokString:
		t := p.advance()
		return Value{Kind: ValString, Str: t.Text, Sp: sp}
	case TokInt:
		t := p.advance()
		n, err := strconv.ParseInt(t.Text, 10, 64)
		if err != nil {
			p.errorf(sp, "invalid integer literal %q", t.Text)
		}
		return Value{Kind: ValInt, Int: n, Sp: sp}
	case TokFloat:
		t := p.advance()
		f, err := strconv.ParseFloat(t.Text, 64)
		if err != nil {
			p.errorf(sp, "invalid float literal %q", t.Text)
		}
		return Value{Kind: ValFloat, Float: f, Sp: sp}
	case TokMinus:
		p.advance()
		inner := p.parseValue()
		switch inner.Kind {
		case ValInt:
			inner.Int = -inner.Int
		case ValFloat:
			inner.Float = -inner.Float
		default:
			p.errorf(sp, "unary '-' only applies to numeric literals")
		}
		inner.Sp = sp
		return inner
	case TokIdent:
		t := p.advance()
		if t.Text == "true" || t.Text == "false" {
			return Value{Kind: ValBool, Bool: t.Text == "true", Sp: sp}
		}
		return Value{Kind: ValIdent, Str: t.Text, Sp: sp}
	case TokLBracket:
		p.advance()
		var items []Value
		for !p.at(TokRBracket) && !p.at(TokEOF) {
			items = append(items, p.parseValue())
			if p.at(TokComma) {
				p.advance()
			} else {
				break
			}
		}
		p.expect(TokRBracket, "']'")
		return Value{Kind: ValList, List: items, Sp: sp}
	case TokLParen:
		// an @access(expr) boolean expression: captured as raw
		// source text and re-parsed by the access-expression parser
		// in phase 6, since its grammar (&&, ||, !, comparisons,
		// field paths) is independent of this annotation-argument
		// grammar.
		return p.parseParenExprAsRawText()
	default:
		p.errorf(sp, "expected a value, got %q", p.tok.Text)
		p.advance()
		return Value{Kind: ValIdent, Sp: sp}
	}
}

// parseParenExprAsRawText consumes a balanced "(...)" group and
// captures its contents verbatim for later parsing as an access
// expression.
func (p *Parser) parseParenExprAsRawText() Value {
	sp := p.tok.Span
	depth := 0
	var text []byte
	for {
		switch p.tok.Kind {
		case TokLParen:
			depth++
			if depth > 1 {
				text = append(text, '('...)
			}
			p.advance()
			continue
		case TokRParen:
			depth--
			if depth == 0 {
				p.advance()
				return Value{Kind: ValExpr, Str: string(text), Sp: sp}
			}
			text = append(text, ')'...)
			p.advance()
			continue
		case TokEOF:
			p.errorf(sp, "unterminated expression, missing ')'")
			return Value{Kind: ValExpr, Str: string(text), Sp: sp}
		default:
			if len(text) > 0 {
				text = append(text, ' ')
			}
			text = append(text, p.tok.Text...)
			p.advance()
		}
	}
}

func (p *Parser) parseModule() Decl {
	sp := p.tok.Span
	p.advance() // 'module'
	name := p.expect(TokIdent, "module name").Text
	anns := p.parseAnnotations()
	p.expect(TokLBrace, "'{'")
	m := &ModuleDecl{Name: name, Annotations: anns, Sp: sp}
	for !p.at(TokRBrace) && !p.at(TokEOF) {
		d := p.parseDecl()
		if d != nil {
			m.Decls = append(m.Decls, d)
		} else {
			p.advance()
		}
	}
	p.expect(TokRBrace, "'}'")
	return m
}

func (p *Parser) parseType() Decl {
	sp := p.tok.Span
	p.advance() // 'type'
	name := p.expect(TokIdent, "type name").Text
	anns := p.parseAnnotations()
	p.expect(TokLBrace, "'{'")
	t := &TypeDecl{Name: name, Annotations: anns, Sp: sp}
	for !p.at(TokRBrace) && !p.at(TokEOF) {
		t.Fields = append(t.Fields, p.parseField())
	}
	p.expect(TokRBrace, "'}'")
	return t
}

func (p *Parser) parseFragment() Decl {
	sp := p.tok.Span
	p.advance() // 'fragment'
	name := p.expect(TokIdent, "fragment name").Text
	p.expect(TokLBrace, "'{'")
	f := &FragmentDecl{Name: name, Sp: sp}
	for !p.at(TokRBrace) && !p.at(TokEOF) {
		f.Fields = append(f.Fields, p.parseField())
	}
	p.expect(TokRBrace, "'}'")
	return f
}

func (p *Parser) parseEnum() Decl {
	sp := p.tok.Span
	p.advance() // 'enum'
	name := p.expect(TokIdent, "enum name").Text
	anns := p.parseAnnotations()
	p.expect(TokLBrace, "'{'")
	e := &EnumDecl{Name: name, Annotations: anns, Sp: sp}
	for !p.at(TokRBrace) && !p.at(TokEOF) {
		e.Values = append(e.Values, p.expect(TokIdent, "enum value").Text)
		if p.at(TokComma) {
			p.advance()
		}
	}
	p.expect(TokRBrace, "'}'")
	return e
}

func (p *Parser) parseContext() Decl {
	sp := p.tok.Span
	p.advance() // 'context'
	name := p.expect(TokIdent, "context name").Text
	p.expect(TokLBrace, "'{'")
	c := &ContextDecl{Name: name, Sp: sp}
	for !p.at(TokRBrace) && !p.at(TokEOF) {
		fsp := p.tok.Span
		fname := p.expect(TokIdent, "context field name").Text
		p.expect(TokColon, "':'")
		typ := p.parseTypeRef()
		anns := p.parseAnnotations()
		c.Fields = append(c.Fields, ContextFieldDecl{Name: fname, Type: typ, Annotations: anns, Sp: fsp})
	}
	p.expect(TokRBrace, "'}'")
	return c
}

func (p *Parser) parseField() FieldDecl {
	sp := p.tok.Span
	if p.at(TokDotDotDot) {
		p.advance()
		name := p.expect(TokIdent, "fragment name").Text
		return FieldDecl{Spread: name, Sp: sp}
	}
	name := p.expect(TokIdent, "field name").Text
	p.expect(TokColon, "':'")
	typ := p.parseTypeRef()
	anns := p.parseAnnotations()
	return FieldDecl{Name: name, Type: typ, Annotations: anns, Sp: sp}
}

func (p *Parser) parseTypeRef() TypeRef {
	sp := p.tok.Span
	name := p.expect(TokIdent, "type name").Text
	t := TypeRef{Name: name, Sp: sp}
	if p.at(TokLBracket) {
		p.advance()
		p.expect(TokRBracket, "']'")
		t.Array = true
	}
	if p.at(TokQuestion) {
		p.advance()
		t.Optional = true
	}
	return t
}
