// Package ast is the lex/parse front end of the model compiler (spec
// §4.1 phase 1, component C4): it turns model-DSL source text into an
// untyped AST tagged with source spans, the input to package model's
// later phases (fragment expansion, name resolution, type check).
//
// The DSL has no existing grammar in the retrieved pack to copy (the
// teacher is an ent-style Go-struct schema builder, not a textual DSL),
// so the scanner/parser shape here follows the general hand-rolled
// recursive-descent idiom visible in the pack's own parsers
// (github.com/vektah/gqlparser/v2's lexer, ariga.io/atlas's schemahcl
// parser): a rune-at-a-time Scanner producing a flat Token stream, and a
// Parser that consumes it by one-token lookahead.
package ast

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/exocore-dev/exocore"
)

// TokenKind classifies a lexical token.
type TokenKind uint8

const (
	TokEOF TokenKind = iota
	TokIdent
	TokInt
	TokFloat
	TokString
	TokAt       // @
	TokLBrace   // {
	TokRBrace   // }
	TokLParen   // (
	TokRParen   // )
	TokLBracket // [
	TokRBracket // ]
	TokColon    // :
	TokComma    // ,
	TokEquals   // =
	TokQuestion // ?
	TokBang     // !
	TokDot      // .
	TokDotDotDot
	TokAmpAmp // &&
	TokPipePipe
	TokEqEq
	TokNotEq
	TokLt
	TokLte
	TokGt
	TokGte
	TokPlus
	TokMinus
)

// Token is one lexical unit with its source span.
type Token struct {
	Kind Kind
	Text string
	Span exocore.Span
}

// Kind is an alias so callers can write ast.Kind instead of ast.TokenKind.
type Kind = TokenKind

// Scanner tokenizes source text for a single file.
type Scanner struct {
	file   string
	src    string
	pos    int
	line   int
	col    int
	errors []*exocore.CompileError
}

// NewScanner returns a Scanner over src, attributing spans to file.
func NewScanner(file, src string) *Scanner {
	return &Scanner{file: file, src: src, line: 1, col: 1}
}

// Errors returns lexical errors accumulated so far.
func (s *Scanner) Errors() []*exocore.CompileError { return s.errors }

func (s *Scanner) errorf(sp exocore.Span, format string, args ...any) {
	s.errors = append(s.errors, &exocore.CompileError{
		Span:    sp,
		Kind:    exocore.KindParse,
		Message: fmt.Sprintf(format, args...),
	})
}

func (s *Scanner) peekByte() byte {
	if s.pos >= len(s.src) {
		return 0
	}
	return s.src[s.pos]
}

func (s *Scanner) peekByteAt(off int) byte {
	if s.pos+off >= len(s.src) {
		return 0
	}
	return s.src[s.pos+off]
}

func (s *Scanner) advance() byte {
	b := s.src[s.pos]
	s.pos++
	if b == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return b
}

func (s *Scanner) here() exocore.Span {
	return exocore.Span{File: s.file, Line: s.line, Col: s.col, EndLine: s.line, EndCol: s.col}
}

func (s *Scanner) skipTrivia() {
	for s.pos < len(s.src) {
		b := s.peekByte()
		switch {
		case b == ' ' || b == '\t' || b == '\r' || b == '\n':
			s.advance()
		case b == '/' && s.peekByteAt(1) == '/':
			for s.pos < len(s.src) && s.peekByte() != '\n' {
				s.advance()
			}
		case b == '/' && s.peekByteAt(1) == '*':
			s.advance()
			s.advance()
			for s.pos < len(s.src) && !(s.peekByte() == '*' && s.peekByteAt(1) == '/') {
				s.advance()
			}
			if s.pos < len(s.src) {
				s.advance()
				s.advance()
			}
		default:
			return
		}
	}
}

// Next returns the next token, or a TokEOF token at end of input.
func (s *Scanner) Next() Token {
	s.skipTrivia()
	start := s.here()
	if s.pos >= len(s.src) {
		return Token{Kind: TokEOF, Span: start}
	}
	b := s.peekByte()
	switch {
	case b == '"':
		return s.scanString(start)
	case isDigit(b):
		return s.scanNumber(start)
	case isIdentStart(rune(b)):
		return s.scanIdent(start)
	}
	switch b {
	case '@':
		s.advance()
		return Token{Kind: TokAt, Text: "@", Span: start}
	case '{':
		s.advance()
		return Token{Kind: TokLBrace, Text: "{", Span: start}
	case '}':
		s.advance()
		return Token{Kind: TokRBrace, Text: "}", Span: start}
	case '(':
		s.advance()
		return Token{Kind: TokLParen, Text: "(", Span: start}
	case ')':
		s.advance()
		return Token{Kind: TokRParen, Text: ")", Span: start}
	case '[':
		s.advance()
		return Token{Kind: TokLBracket, Text: "[", Span: start}
	case ']':
		s.advance()
		return Token{Kind: TokRBracket, Text: "]", Span: start}
	case ':':
		s.advance()
		return Token{Kind: TokColon, Text: ":", Span: start}
	case ',':
		s.advance()
		return Token{Kind: TokComma, Text: ",", Span: start}
	case '?':
		s.advance()
		return Token{Kind: TokQuestion, Text: "?", Span: start}
	case '+':
		s.advance()
		return Token{Kind: TokPlus, Text: "+", Span: start}
	case '-':
		s.advance()
		return Token{Kind: TokMinus, Text: "-", Span: start}
	case '.':
		s.advance()
		if s.peekByte() == '.' && s.peekByteAt(1) == '.' {
			s.advance()
			s.advance()
			return Token{Kind: TokDotDotDot, Text: "...", Span: start}
		}
		return Token{Kind: TokDot, Text: ".", Span: start}
	case '=':
		s.advance()
		if s.peekByte() == '=' {
			s.advance()
			return Token{Kind: TokEqEq, Text: "==", Span: start}
		}
		return Token{Kind: TokEquals, Text: "=", Span: start}
	case '!':
		s.advance()
		if s.peekByte() == '=' {
			s.advance()
			return Token{Kind: TokNotEq, Text: "!=", Span: start}
		}
		return Token{Kind: TokBang, Text: "!", Span: start}
	case '<':
		s.advance()
		if s.peekByte() == '=' {
			s.advance()
			return Token{Kind: TokLte, Text: "<=", Span: start}
		}
		return Token{Kind: TokLt, Text: "<", Span: start}
	case '>':
		s.advance()
		if s.peekByte() == '=' {
			s.advance()
			return Token{Kind: TokGte, Text: ">=", Span: start}
		}
		return Token{Kind: TokGt, Text: ">", Span: start}
	case '&':
		s.advance()
		if s.peekByte() == '&' {
			s.advance()
			return Token{Kind: TokAmpAmp, Text: "&&", Span: start}
		}
		s.errorf(start, "unexpected '&'")
		return s.Next()
	case '|':
		s.advance()
		if s.peekByte() == '|' {
			s.advance()
			return Token{Kind: TokPipePipe, Text: "||", Span: start}
		}
		s.errorf(start, "unexpected '|'")
		return s.Next()
	default:
		s.advance()
		s.errorf(start, "unexpected character %q", string(b))
		return s.Next()
	}
}

func (s *Scanner) scanIdent(start exocore.Span) Token {
	begin := s.pos
	for s.pos < len(s.src) {
		r, size := utf8.DecodeRuneInString(s.src[s.pos:])
		if !isIdentCont(r) {
			break
		}
		for range make([]struct{}, size) {
			s.advance()
		}
	}
	return Token{Kind: TokIdent, Text: s.src[begin:s.pos], Span: start}
}

func (s *Scanner) scanNumber(start exocore.Span) Token {
	begin := s.pos
	isFloat := false
	for s.pos < len(s.src) && isDigit(s.peekByte()) {
		s.advance()
	}
	if s.peekByte() == '.' && isDigit(s.peekByteAt(1)) {
		isFloat = true
		s.advance()
		for s.pos < len(s.src) && isDigit(s.peekByte()) {
			s.advance()
		}
	}
	kind := TokInt
	if isFloat {
		kind = TokFloat
	}
	return Token{Kind: kind, Text: s.src[begin:s.pos], Span: start}
}

func (s *Scanner) scanString(start exocore.Span) Token {
	s.advance() // opening quote
	var sb strings.Builder
	for s.pos < len(s.src) && s.peekByte() != '"' {
		b := s.advance()
		if b == '\\' && s.pos < len(s.src) {
			esc := s.advance()
			switch esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '"', '\\':
				sb.WriteByte(esc)
			default:
				sb.WriteByte(esc)
			}
			continue
		}
		sb.WriteByte(b)
	}
	if s.pos < len(s.src) {
		s.advance() // closing quote
	} else {
		s.errorf(start, "unterminated string literal")
	}
	return Token{Kind: TokString, Text: sb.String(), Span: start}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentCont(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
