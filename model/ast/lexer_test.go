package ast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exocore-dev/exocore/model/ast"
)

func tokenize(src string) []ast.Token {
	sc := ast.NewScanner("test.exo", src)
	var toks []ast.Token
	for {
		tok := sc.Next()
		toks = append(toks, tok)
		if tok.Kind == ast.TokEOF {
			return toks
		}
	}
}

func TestScannerTokenizesTypeDeclaration(t *testing.T) {
	toks := tokenize(`type Todo {
  id: Int @pk
}`)
	var kinds []ast.Kind
	for _, tk := range toks {
		kinds = append(kinds, tk.Kind)
	}
	require.Equal(t, []ast.Kind{
		ast.TokIdent, ast.TokIdent, ast.TokLBrace,
		ast.TokIdent, ast.TokColon, ast.TokIdent, ast.TokAt, ast.TokIdent,
		ast.TokRBrace, ast.TokEOF,
	}, kinds)
	assert.Equal(t, "type", toks[0].Text)
	assert.Equal(t, "Todo", toks[1].Text)
	assert.Equal(t, "pk", toks[7].Text)
}

func TestScannerSkipsLineAndBlockComments(t *testing.T) {
	toks := tokenize(`// a comment
type /* inline */ Todo {}`)
	require.Len(t, toks, 5)
	assert.Equal(t, "type", toks[0].Text)
	assert.Equal(t, "Todo", toks[1].Text)
}

func TestScannerParsesStringWithEscapes(t *testing.T) {
	toks := tokenize(`"hello \"world\""`)
	require.Len(t, toks, 2)
	assert.Equal(t, ast.TokString, toks[0].Kind)
	assert.Equal(t, `hello "world"`, toks[0].Text)
}

func TestScannerParsesNumbers(t *testing.T) {
	toks := tokenize(`42 3.14`)
	require.Len(t, toks, 3)
	assert.Equal(t, ast.TokInt, toks[0].Kind)
	assert.Equal(t, "42", toks[0].Text)
	assert.Equal(t, ast.TokFloat, toks[1].Kind)
	assert.Equal(t, "3.14", toks[1].Text)
}

func TestScannerRecognizesOperators(t *testing.T) {
	toks := tokenize(`&& || == != <= >= ...`)
	var kinds []ast.Kind
	for _, tk := range toks {
		kinds = append(kinds, tk.Kind)
	}
	assert.Equal(t, []ast.Kind{
		ast.TokAmpAmp, ast.TokPipePipe, ast.TokEqEq, ast.TokNotEq,
		ast.TokLte, ast.TokGte, ast.TokDotDotDot, ast.TokEOF,
	}, kinds)
}

func TestScannerTracksLineAndColumnSpans(t *testing.T) {
	toks := tokenize("type Todo {\n  id: Int\n}")
	// "id" begins on line 2.
	var idTok ast.Token
	for _, tk := range toks {
		if tk.Kind == ast.TokIdent && tk.Text == "id" {
			idTok = tk
		}
	}
	assert.Equal(t, 2, idTok.Span.Line)
}

func TestScannerReportsUnexpectedCharacter(t *testing.T) {
	sc := ast.NewScanner("test.exo", `type Todo % {}`)
	for {
		tok := sc.Next()
		if tok.Kind == ast.TokEOF {
			break
		}
	}
	require.NotEmpty(t, sc.Errors())
	assert.Contains(t, sc.Errors()[0].Error(), "unexpected character")
}
