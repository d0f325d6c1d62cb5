package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Lexer_tokenKindSequence(t *testing.T) {
	testCases := []struct {
		name   string
		input  string
		expect []TokenKind
	}{
		{name: "empty", input: "", expect: []TokenKind{TokEOF}},
		{name: "whitespace only", input: "   \n\t  ", expect: []TokenKind{TokEOF}},
		{name: "comment only", input: "# this is a comment", expect: []TokenKind{TokEOF}},
		{name: "identifier", input: "foo_bar", expect: []TokenKind{TokIdent, TokEOF}},
		{name: "number", input: "42", expect: []TokenKind{TokNumber, TokEOF}},
		{name: "decimal number", input: "3.14", expect: []TokenKind{TokNumber, TokEOF}},
		{name: "number then dot access", input: "3.sqrt", expect: []TokenKind{TokNumber, TokDot, TokIdent, TokEOF}},
		{name: "string", input: `"hello"`, expect: []TokenKind{TokString, TokEOF}},
		{name: "keywords", input: "while if else fn", expect: []TokenKind{
			TokKeywordWhile, TokKeywordIf, TokKeywordElse, TokKeywordFn, TokEOF,
		}},
		{name: "punctuation", input: "(){}[]=;,.", expect: []TokenKind{
			TokLParen, TokRParen, TokLBrace, TokRBrace, TokLBracket, TokRBracket,
			TokAssign, TokSemicolon, TokComma, TokDot, TokEOF,
		}},
		{name: "assignment with comment trailing", input: "x = 1 # set x", expect: []TokenKind{
			TokIdent, TokAssign, TokNumber, TokEOF,
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			lx := NewLexer(tc.input)
			var got []TokenKind
			for {
				tok, err := lx.next()
				assert.NoError(t, err)
				got = append(got, tok.Kind)
				if tok.Kind == TokEOF {
					break
				}
			}
			assert.Equal(t, tc.expect, got)
		})
	}
}

func Test_Lexer_stringEscapes(t *testing.T) {
	lx := NewLexer(`"a\nb\t\"c\""`)
	tok, err := lx.next()
	assert.NoError(t, err)
	assert.Equal(t, TokString, tok.Kind)
	assert.Equal(t, "a\nb\t\"c\"", tok.Text)
}

func Test_Lexer_unterminatedString(t *testing.T) {
	lx := NewLexer(`"unterminated`)
	_, err := lx.next()
	assert.Error(t, err)
}

func Test_Lexer_remainingIsTrivial(t *testing.T) {
	lx := NewLexer("x = 1")
	_, _ = lx.next()
	_, _ = lx.next()
	_, _ = lx.next()
	assert.True(t, lx.remainingIsTrivial())

	lx2 := NewLexer("x = ")
	_, _ = lx2.next()
	_, _ = lx2.next()
	assert.True(t, lx2.remainingIsTrivial())
}
