package lang

import (
	"fmt"
	"strings"

	"github.com/dunelang/dune/internal/langerr"
)

// file parser.go is a recursive-descent parser with unlimited backtracking,
// directly implementing the grammar of spec.md §4.1. Tokenisation is pulled
// on demand from a Lexer; backtracking saves/restores both the lexer
// position and the parser's one-token lookahead buffer.

// Parse parses src as a complete program: zero or more expressions followed
// by end of input. On success it returns the program's Suite. On failure it
// returns a langerr.SyntaxError value; SyntaxError.NeedsMore is true when the
// failure was simply running out of tokens (the REPL should accumulate more
// input rather than report an error -- spec.md §4.1/§6).
func Parse(src string) (*Suite, error) {
	p := newParser(src)
	if err := p.advance(); err != nil {
		return nil, p.wrapLexErr(err)
	}

	return p.parseExprSeq(TokEOF)
}

type parser struct {
	lx  *Lexer
	cur Token

	// lines of the original source, used only to build error snippets.
	lines []string
}

func newParser(src string) *parser {
	return &parser{lx: NewLexer(src), lines: strings.Split(src, "\n")}
}

type parserMark struct {
	lex mark
	cur Token
}

func (p *parser) save() parserMark {
	return parserMark{lex: p.lx.snapshot(), cur: p.cur}
}

func (p *parser) restore(m parserMark) {
	p.lx.restore(m.lex)
	p.cur = m.cur
}

func (p *parser) advance() error {
	tok, err := p.lx.next()
	if err != nil {
		return err
	}
	p.cur = tok
	return nil
}

func (p *parser) sourceLine(line int) string {
	if line < 1 || line > len(p.lines) {
		return ""
	}
	return p.lines[line-1]
}

func (p *parser) wrapLexErr(err error) error {
	return langerr.SyntaxError{
		Line:       p.cur.Line,
		Col:        p.cur.Col,
		SourceLine: p.sourceLine(p.cur.Line),
		Message:    err.Error(),
		// an unterminated string literal runs the lexer to end of input
		// before failing; that's "needs more", not a hard error, exactly
		// like running out of tokens mid-grammar-rule.
		NeedsMore: p.lx.eof(),
	}
}

func (p *parser) errExpected(what string) error {
	return langerr.SyntaxError{
		Line:       p.cur.Line,
		Col:        p.cur.Col,
		SourceLine: p.sourceLine(p.cur.Line),
		Message:    fmt.Sprintf("expected %s, found %s", what, p.cur.human()),
		NeedsMore:  p.cur.Kind == TokEOF,
	}
}

func (p *parser) errUnexpected(context string) error {
	return langerr.SyntaxError{
		Line:       p.cur.Line,
		Col:        p.cur.Col,
		SourceLine: p.sourceLine(p.cur.Line),
		Message:    fmt.Sprintf("unexpected %s (wanted %s)", p.cur.human(), context),
		NeedsMore:  p.cur.Kind == TokEOF,
	}
}

func (p *parser) expect(k TokenKind) (Token, error) {
	if p.cur.Kind != k {
		return Token{}, p.errExpected(k.human())
	}
	tok := p.cur
	if err := p.advance(); err != nil {
		return Token{}, p.wrapLexErr(err)
	}
	return tok, nil
}

func (p *parser) expectIdent() (string, error) {
	if p.cur.Kind != TokIdent {
		return "", p.errExpected("an identifier")
	}
	text := p.cur.Text
	if err := p.advance(); err != nil {
		return "", p.wrapLexErr(err)
	}
	return text, nil
}

// parseExprSeq parses (expr)* up to stop (TokRBrace for a nested suite,
// TokEOF for the top-level program). Running out of input before reaching
// stop, or hitting a token that cannot start an expr, is a real error (and
// is propagated, not swallowed) rather than a signal to quietly stop early:
// an unclosed suite is incomplete input, not an empty one.
func (p *parser) parseExprSeq(stop TokenKind) (*Suite, error) {
	suite := &Suite{}
	for {
		if p.cur.Kind == stop {
			return suite, nil
		}
		if p.cur.Kind == TokEOF {
			return suite, p.errExpected(stop.human())
		}
		e, err := p.parseExpr()
		if err != nil {
			return suite, err
		}
		suite.Exprs = append(suite.Exprs, e)
	}
}

// suite := "{" (expr)* "}"
func (p *parser) parseSuite() (*Suite, error) {
	if _, err := p.expect(TokLBrace); err != nil {
		return nil, err
	}
	suite, err := p.parseExprSeq(TokRBrace)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokRBrace); err != nil {
		return nil, err
	}
	return suite, nil
}

// expr := ( assignment | while | ifelse | fndef | valueExpr ) (";")?
func (p *parser) parseExpr() (*Expr, error) {
	switch p.cur.Kind {
	case TokKeywordWhile:
		return p.parseWhile()
	case TokKeywordIf:
		return p.parseIfElse()
	case TokKeywordFn:
		// "fn" followed by a name is a function definition; "fn" followed by
		// "(" is an anonymous function literal and falls through to
		// valueExpr.
		save := p.save()
		if err := p.advance(); err == nil && p.cur.Kind != TokLParen {
			p.restore(save)
			if e, err := p.parseFnDef(); err == nil {
				return e, nil
			}
		}
		p.restore(save)
	}

	// assignment := name "=" value
	save := p.save()
	if name, ok, err := p.parseName(); err == nil && ok && p.cur.Kind == TokAssign {
		if err := p.advance(); err != nil {
			return nil, p.wrapLexErr(err)
		}
		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		p.consumeOptSemicolon()
		return &Expr{Kind: ExprAssignment, AssignTo: name, AssignValue: val}, nil
	}
	p.restore(save)

	val, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	p.consumeOptSemicolon()
	return &Expr{Kind: ExprValue, Value: val}, nil
}

func (p *parser) consumeOptSemicolon() {
	if p.cur.Kind == TokSemicolon {
		_ = p.advance()
	}
}

// while := "while" value suite
func (p *parser) parseWhile() (*Expr, error) {
	if _, err := p.expect(TokKeywordWhile); err != nil {
		return nil, err
	}
	cond, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	body, err := p.parseSuite()
	if err != nil {
		return nil, err
	}
	p.consumeOptSemicolon()
	return &Expr{Kind: ExprWhile, Cond: cond, Then: body}, nil
}

// ifelse := "if" value suite ("else" suite)?
func (p *parser) parseIfElse() (*Expr, error) {
	if _, err := p.expect(TokKeywordIf); err != nil {
		return nil, err
	}
	cond, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	then, err := p.parseSuite()
	if err != nil {
		return nil, err
	}
	elseSuite := &Suite{}
	if p.cur.Kind == TokKeywordElse {
		if err := p.advance(); err != nil {
			return nil, p.wrapLexErr(err)
		}
		elseSuite, err = p.parseSuite()
		if err != nil {
			return nil, err
		}
	}
	p.consumeOptSemicolon()
	return &Expr{Kind: ExprIf, Cond: cond, Then: then, Else: elseSuite}, nil
}

// fndef := "fn" name "(" ident ("," ident)* | ε ")" suite
func (p *parser) parseFnDef() (*Expr, error) {
	if _, err := p.expect(TokKeywordFn); err != nil {
		return nil, err
	}
	name, ok, err := p.parseName()
	if err != nil || !ok {
		return nil, p.errExpected("a function name")
	}
	params, err := p.parseParamList()
	if err != nil {
		return nil, err
	}
	body, err := p.parseSuite()
	if err != nil {
		return nil, err
	}
	p.consumeOptSemicolon()
	return &Expr{
		Kind: ExprFuncDef,
		FuncDef: &FunctionDef{
			Name: name,
			Fn:   &FunctionLit{Params: params, Body: body},
		},
	}, nil
}

func (p *parser) parseParamList() ([]string, error) {
	if _, err := p.expect(TokLParen); err != nil {
		return nil, err
	}
	var params []string
	if p.cur.Kind != TokRParen {
		for {
			id, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			params = append(params, id)
			if p.cur.Kind != TokComma {
				break
			}
			if err := p.advance(); err != nil {
				return nil, p.wrapLexErr(err)
			}
		}
	}
	if _, err := p.expect(TokRParen); err != nil {
		return nil, err
	}
	return params, nil
}

// value := function | fncall | builtin | name | group | literal
func (p *parser) parseValue() (*ValueExpr, error) {
	if p.cur.Kind == TokKeywordFn {
		return p.parseFunctionLiteral()
	}

	save := p.save()
	if v, err := p.parseFnCall(); err == nil {
		return v, nil
	}
	p.restore(save)

	if b, ok := p.parseBareBuiltin(); ok {
		return b, nil
	}
	p.restore(save)

	if name, ok, err := p.parseName(); err == nil && ok {
		return &ValueExpr{Kind: ValueName, Name: name}, nil
	}
	p.restore(save)

	if v, err := p.parseGroup(); err == nil {
		return v, nil
	}
	p.restore(save)

	return p.parseLiteralValue()
}

// function := "fn" "(" params ")" suite
func (p *parser) parseFunctionLiteral() (*ValueExpr, error) {
	if _, err := p.expect(TokKeywordFn); err != nil {
		return nil, err
	}
	params, err := p.parseParamList()
	if err != nil {
		return nil, err
	}
	body, err := p.parseSuite()
	if err != nil {
		return nil, err
	}
	return &ValueExpr{Kind: ValueFunction, Fn: &FunctionLit{Params: params, Body: body}}, nil
}

// group := "(" value ")"
func (p *parser) parseGroup() (*ValueExpr, error) {
	if _, err := p.expect(TokLParen); err != nil {
		return nil, err
	}
	v, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokRParen); err != nil {
		return nil, err
	}
	return v, nil
}

func (p *parser) parseLiteralValue() (*ValueExpr, error) {
	lit, err := p.parseLiteral()
	if err != nil {
		return nil, err
	}
	return &ValueExpr{Kind: ValueLiteral, Literal: lit}, nil
}

// literal := string | number
func (p *parser) parseLiteral() (*Literal, error) {
	switch p.cur.Kind {
	case TokString:
		text := p.cur.Text
		if err := p.advance(); err != nil {
			return nil, p.wrapLexErr(err)
		}
		return &Literal{IsString: true, Str: text}, nil
	case TokNumber:
		n := p.cur.Num
		if err := p.advance(); err != nil {
			return nil, p.wrapLexErr(err)
		}
		return &Literal{Num: n}, nil
	default:
		return nil, p.errExpected("a string or number literal")
	}
}

// parseBareBuiltin matches a built-in keyword used directly as a value,
// without a juxtaposed or parenthesised argument list.
func (p *parser) parseBareBuiltin() (*ValueExpr, bool) {
	if p.cur.Kind != TokIdent {
		return nil, false
	}
	b, ok := builtinNames[p.cur.Text]
	if !ok {
		return nil, false
	}
	if err := p.advance(); err != nil {
		return nil, false
	}
	return &ValueExpr{Kind: ValueBuiltin, Builtin: b}, true
}

// fncall := juxtaCall | parenCall
//
// juxtaCall applies only when the callee is a built-in (builtin value
// (value)+); parenCall applies to any callee (built-in, name, or group) and
// permits zero arguments.
func (p *parser) parseFnCall() (*ValueExpr, error) {
	calleeSave := p.save()

	var callee *ValueExpr
	isBuiltin := false

	if b, ok := p.parseBareBuiltin(); ok {
		callee = b
		isBuiltin = true
	} else {
		p.restore(calleeSave)
		if name, ok, err := p.parseName(); err == nil && ok {
			callee = &ValueExpr{Kind: ValueName, Name: name}
		} else {
			p.restore(calleeSave)
			if g, err := p.parseGroup(); err == nil {
				callee = g
			}
		}
	}

	if callee == nil {
		p.restore(calleeSave)
		return nil, p.errUnexpected("a callable value")
	}

	if p.cur.Kind == TokLParen {
		args, err := p.parseParenArgs()
		if err != nil {
			p.restore(calleeSave)
			return nil, err
		}
		return &ValueExpr{Kind: ValueCall, Call: &FnCall{Callee: callee, Args: args}}, nil
	}

	if isBuiltin {
		var args []*ValueExpr
		for {
			save := p.save()
			v, err := p.parseJuxtaArg()
			if err != nil {
				p.restore(save)
				break
			}
			args = append(args, v)
		}
		if len(args) == 0 {
			p.restore(calleeSave)
			return nil, p.errUnexpected("at least one juxtaposed argument")
		}
		return &ValueExpr{Kind: ValueCall, Call: &FnCall{Callee: callee, Args: args}}, nil
	}

	p.restore(calleeSave)
	return nil, p.errUnexpected("a call")
}

// parseJuxtaArg parses one argument of a juxtaposition call with parseValue.
// No value form is excluded, so an argument may itself be a built-in
// juxtaposition call, which then takes the following values greedily.
func (p *parser) parseJuxtaArg() (*ValueExpr, error) {
	return p.parseValue()
}

func (p *parser) parseParenArgs() ([]*ValueExpr, error) {
	if _, err := p.expect(TokLParen); err != nil {
		return nil, err
	}
	var args []*ValueExpr
	if p.cur.Kind != TokRParen {
		for {
			v, err := p.parseValue()
			if err != nil {
				return nil, err
			}
			args = append(args, v)
			if p.cur.Kind != TokComma {
				break
			}
			if err := p.advance(); err != nil {
				return nil, p.wrapLexErr(err)
			}
		}
	}
	if _, err := p.expect(TokRParen); err != nil {
		return nil, err
	}
	if args == nil {
		args = []*ValueExpr{}
	}
	return args, nil
}

// name := dotName | indexName | Identifier
//
// dotName and indexName are tried before a bare identifier (longest match
// wins); a head of group, literal, or identifier is accepted for both.
func (p *parser) parseName() (*Name, bool, error) {
	headSave := p.save()

	head, headOK := p.parseNameHead()
	if headOK {
		if p.cur.Kind == TokDot {
			var path []string
			for p.cur.Kind == TokDot {
				if err := p.advance(); err != nil {
					return nil, false, p.wrapLexErr(err)
				}
				id, err := p.expectIdent()
				if err != nil {
					return nil, false, err
				}
				path = append(path, id)
			}
			return &Name{Kind: NameDot, Head: head, DotPath: path}, true, nil
		}
		if p.cur.Kind == TokLBracket {
			var path []*ValueExpr
			for p.cur.Kind == TokLBracket {
				if err := p.advance(); err != nil {
					return nil, false, p.wrapLexErr(err)
				}
				v, err := p.parseValue()
				if err != nil {
					return nil, false, err
				}
				if _, err := p.expect(TokRBracket); err != nil {
					return nil, false, err
				}
				path = append(path, v)
			}
			return &Name{Kind: NameIndex, Head: head, IndexPath: path}, true, nil
		}
	}

	p.restore(headSave)
	if p.cur.Kind == TokIdent && !IsReservedWord(p.cur.Text) {
		id := p.cur.Text
		if err := p.advance(); err != nil {
			return nil, false, p.wrapLexErr(err)
		}
		return &Name{Kind: NameSimple, Simple: id}, true, nil
	}

	return nil, false, nil
}

// parseNameHead matches the head of a dot/index access path: a parenthesised
// group, a literal, or a bare identifier.
func (p *parser) parseNameHead() (*ValueExpr, bool) {
	if p.cur.Kind == TokLParen {
		if v, err := p.parseGroup(); err == nil {
			return v, true
		}
		return nil, false
	}
	if p.cur.Kind == TokString || p.cur.Kind == TokNumber {
		if v, err := p.parseLiteralValue(); err == nil {
			return v, true
		}
		return nil, false
	}
	if p.cur.Kind == TokIdent && !IsReservedWord(p.cur.Text) {
		id := p.cur.Text
		if err := p.advance(); err != nil {
			return nil, false
		}
		return &ValueExpr{Kind: ValueName, Name: &Name{Kind: NameSimple, Simple: id}}, true
	}
	return nil, false
}
