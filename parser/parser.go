// Package parser implements a recursive-descent parser for Sona source
// text, turning a token stream from package scanner into an *ast.File.
// Grounded on cue/parser/parser.go: a parser struct holding the scanner
// plus one token of lookahead, next()/expect()/errorExpected() helpers,
// and syncing past a bad statement on error so the rest of the file can
// still be reported. Sona's grammar (spec.md §4.1) is simpler than CUE's
// (no field/struct-lattice productions) so the parser is a single file
// rather than CUE's split across parser.go/resolve.go/short_test.go.
package parser

import (
	"fmt"

	"github.com/Bryantad/Sona-sub003/ast"
	"github.com/Bryantad/Sona-sub003/errors"
	"github.com/Bryantad/Sona-sub003/literal"
	"github.com/Bryantad/Sona-sub003/scanner"
	"github.com/Bryantad/Sona-sub003/token"
)

type parser struct {
	file   *token.File
	errors errors.List

	scanner scanner.Scanner

	pos token.Pos
	tok token.Token
	lit string

	prev token.Token // the token consumed by the last call to next
}

func (p *parser) init(filename string, src []byte) {
	p.file = token.NewFile(filename, len(src))
	p.scanner.Init(p.file, src, func(pos token.Position, msg string) {
		p.errors = append(p.errors, errors.Newf(errors.ParseError, p.posAt(pos), "%s", msg))
	}, 0)
	p.next()
}

func (p *parser) posAt(pos token.Position) token.Pos {
	return p.file.Pos(pos.Offset)
}

func (p *parser) next() {
	p.prev = p.tok
	p.pos, p.tok, p.lit = p.scanner.Scan()
}

func (p *parser) errorf(pos token.Pos, format string, args ...interface{}) {
	p.errors = append(p.errors, errors.Newf(errors.ParseError, pos, format, args...))
}

func (p *parser) errorExpected(pos token.Pos, want string) {
	p.errorf(pos, "expected %s, found %s", want, describe(p.tok, p.lit))
}

func describe(tok token.Token, lit string) string {
	if tok.IsLiteral() && lit != "" {
		return fmt.Sprintf("%q", lit)
	}
	return tok.String()
}

func (p *parser) expect(tok token.Token) token.Pos {
	pos := p.pos
	if p.tok != tok {
		p.errorExpected(pos, tok.String())
	}
	p.next()
	return pos
}

// skipTerm consumes one or more SEMICOLON tokens
// (newline-inserted or explicit `;`), which spec.md §4.1 treats
// interchangeably.
func (p *parser) skipTerm() {
	for p.tok == token.SEMICOLON {
		p.next()
	}
}

// sync advances past tokens until it finds one that plausibly starts a
// new statement, so a single parse error doesn't cascade (mirroring
// cue/parser.syncExpr/syncStmt).
func (p *parser) sync() {
	for p.tok != token.EOF {
		switch p.tok {
		case token.SEMICOLON, token.RBRACE, token.LET, token.FUNC, token.IF,
			token.WHILE, token.FOR, token.REPEAT, token.RETURN, token.IMPORT,
			token.CLASS, token.TRY:
			return
		}
		p.next()
	}
}

// ParseFile parses a complete Sona source file.
func ParseFile(filename string, src []byte) (*ast.File, error) {
	var p parser
	p.init(filename, src)
	f := &ast.File{Filename: filename}
	p.skipTerm()
	for p.tok != token.EOF {
		s := p.parseStmt()
		if s != nil {
			f.Stmts = append(f.Stmts, s)
		}
		p.skipTerm()
	}
	if len(p.errors) > 0 {
		p.errors.Sort()
		return f, p.errors
	}
	return f, nil
}

// ParseExpr parses a single expression, used by eval_repl (spec.md §6)
// and by f-string interpolation re-entry.
func ParseExpr(filename string, src []byte) (ast.Expr, error) {
	var p parser
	p.init(filename, src)
	x := p.parseExpr()
	if len(p.errors) > 0 {
		p.errors.Sort()
		return x, p.errors
	}
	return x, nil
}

// ---------------------------------------------------------------------------
// Statements

func (p *parser) parseStmt() ast.Stmt {
	switch p.tok {
	case token.LET:
		return p.parseLet()
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhile()
	case token.FOR:
		return p.parseFor()
	case token.REPEAT:
		return p.parseRepeat()
	case token.FUNC:
		return p.parseFuncStmt()
	case token.RETURN:
		return p.parseReturn()
	case token.BREAK:
		pos := p.pos
		p.next()
		return &ast.Break{TokPos: pos}
	case token.CONTINUE:
		pos := p.pos
		p.next()
		return &ast.Continue{TokPos: pos}
	case token.IMPORT, token.FROM:
		return p.parseImport()
	case token.TRY:
		return p.parseTry()
	case token.THROW:
		pos := p.pos
		p.next()
		return &ast.Raise{TokPos: pos, Value: p.parseExpr()}
	case token.CLASS:
		return p.parseClass()
	case token.DELETE:
		pos := p.pos
		p.next()
		return &ast.Delete{TokPos: pos, Target: p.parseExpr()}
	default:
		return p.parseSimpleStmt()
	}
}

// parseSimpleStmt parses an assignment or bare expression statement,
// disambiguated by a single token of lookahead after the left-hand side.
func (p *parser) parseSimpleStmt() ast.Stmt {
	pos := p.pos
	x := p.parseExpr()
	if p.tok == token.ASSIGN {
		p.next()
		val := p.parseExpr()
		return &ast.Assign{TokPos: pos, Target: x, Value: val}
	}
	return &ast.ExprStmt{X: x}
}

func (p *parser) parseBlock() []ast.Stmt {
	p.expect(token.LBRACE)
	p.skipTerm()
	var stmts []ast.Stmt
	for p.tok != token.RBRACE && p.tok != token.EOF {
		s := p.parseStmt()
		if s != nil {
			stmts = append(stmts, s)
		}
		if p.tok == token.SEMICOLON {
			p.skipTerm()
		} else if p.tok != token.RBRACE && p.prev != token.RBRACE {
			// a statement that ends in its own `}` (if/while/func/...) may
			// be followed by another statement on the same line
			p.errorExpected(p.pos, "'}' or statement terminator")
			p.sync()
		}
	}
	p.expect(token.RBRACE)
	return stmts
}

func (p *parser) parseLet() ast.Stmt {
	pos := p.pos
	p.next()
	name := p.parseIdentName()
	p.expect(token.ASSIGN)
	val := p.parseExpr()
	return &ast.Let{TokPos: pos, Name: name, Value: val}
}

func (p *parser) parseIdentName() string {
	if p.tok != token.IDENT {
		p.errorExpected(p.pos, "identifier")
		name := p.lit
		p.next()
		return name
	}
	name := p.lit
	p.next()
	return name
}

func (p *parser) parseIf() ast.Stmt {
	pos := p.pos
	p.next()
	cond := p.parseExpr()
	then := p.parseBlock()
	n := &ast.If{TokPos: pos, Cond: cond, Then: then}
	for p.tok == token.ELIF {
		p.next()
		c := p.parseExpr()
		b := p.parseBlock()
		n.Elifs = append(n.Elifs, ast.ElifClause{Cond: c, Body: b})
	}
	if p.tok == token.ELSE {
		p.next()
		if p.tok == token.IF {
			// `else if` written without `elif` is accepted as sugar.
			n.Else = []ast.Stmt{p.parseIf()}
		} else {
			n.Else = p.parseBlock()
		}
	}
	return n
}

func (p *parser) parseWhile() ast.Stmt {
	pos := p.pos
	p.next()
	cond := p.parseExpr()
	body := p.parseBlock()
	return &ast.While{TokPos: pos, Cond: cond, Body: body}
}

func (p *parser) parseFor() ast.Stmt {
	pos := p.pos
	p.next()
	name := p.parseIdentName()
	p.expect(token.IN)
	iter := p.parseExpr()
	body := p.parseBlock()
	return &ast.For{TokPos: pos, Var: name, Iter: iter, Body: body}
}

func (p *parser) parseRepeat() ast.Stmt {
	pos := p.pos
	p.next()
	count := p.parseExpr()
	body := p.parseBlock()
	return &ast.Repeat{TokPos: pos, Count: count, Body: body}
}

func (p *parser) parseParams() []ast.Param {
	p.expect(token.LPAREN)
	var params []ast.Param
	for p.tok != token.RPAREN && p.tok != token.EOF {
		name := p.parseIdentName()
		param := ast.Param{Name: name}
		if p.tok == token.ASSIGN {
			p.next()
			param.Default = p.parseExpr()
		}
		params = append(params, param)
		if p.tok == token.COMMA {
			p.next()
		} else {
			break
		}
	}
	p.expect(token.RPAREN)
	return params
}

func (p *parser) parseFuncStmt() ast.Stmt {
	pos := p.pos
	p.next()
	name := p.parseIdentName()
	params := p.parseParams()
	body := p.parseBlock()
	return &ast.Func{TokPos: pos, Name: name, Params: params, Body: body}
}

func (p *parser) parseReturn() ast.Stmt {
	pos := p.pos
	p.next()
	if p.tok == token.SEMICOLON || p.tok == token.RBRACE || p.tok == token.EOF {
		return &ast.Return{TokPos: pos}
	}
	return &ast.Return{TokPos: pos, Value: p.parseExpr()}
}

// parseImport accepts both `import X[.Y] [as Z]` and
// `from X import a, b | *` (spec.md §4.1).
func (p *parser) parseImport() ast.Stmt {
	pos := p.pos
	if p.tok == token.FROM {
		p.next()
		path := p.parseDottedPath()
		p.expect(token.IMPORT)
		n := &ast.Import{TokPos: pos, Path: path}
		if p.tok == token.MUL {
			p.next()
			n.Wildcard = true
			return n
		}
		for {
			n.Names = append(n.Names, p.parseIdentName())
			if p.tok == token.COMMA {
				p.next()
				continue
			}
			break
		}
		return n
	}
	p.next()
	path := p.parseDottedPath()
	n := &ast.Import{TokPos: pos, Path: path}
	if p.tok == token.AS {
		p.next()
		n.Alias = p.parseIdentName()
	}
	return n
}

func (p *parser) parseDottedPath() []string {
	parts := []string{p.parseIdentName()}
	for p.tok == token.PERIOD {
		p.next()
		parts = append(parts, p.parseIdentName())
	}
	return parts
}

func (p *parser) parseTry() ast.Stmt {
	pos := p.pos
	p.next()
	body := p.parseBlock()
	n := &ast.Try{TokPos: pos, Body: body}
	if p.tok == token.CATCH {
		p.next()
		n.HasCatch = true
		if p.tok == token.IDENT {
			n.CatchName = p.lit
			p.next()
		}
		n.CatchBody = p.parseBlock()
	}
	if p.tok == token.FINALLY {
		p.next()
		n.HasFinally = true
		n.FinallyBody = p.parseBlock()
	}
	return n
}

func (p *parser) parseClass() ast.Stmt {
	pos := p.pos
	p.next()
	name := p.parseIdentName()
	n := &ast.Class{TokPos: pos, Name: name}
	if p.tok == token.EXTENDS {
		p.next()
		n.Extends = p.parseIdentName()
	}
	p.expect(token.LBRACE)
	p.skipTerm()
	for p.tok != token.RBRACE && p.tok != token.EOF {
		switch p.tok {
		case token.FUNC:
			m := p.parseFuncStmt().(*ast.Func)
			n.Methods = append(n.Methods, m)
		case token.LET:
			l := p.parseLet().(*ast.Let)
			n.Fields = append(n.Fields, *l)
		default:
			p.errorExpected(p.pos, "method or field declaration")
			p.sync()
		}
		p.skipTerm()
	}
	p.expect(token.RBRACE)
	return n
}

// ---------------------------------------------------------------------------
// Expressions: precedence-climbing with a dedicated chained-comparison pass.

func (p *parser) parseExpr() ast.Expr {
	return p.parseOr()
}

func (p *parser) parseOr() ast.Expr {
	x := p.parseAnd()
	for p.tok == token.OR {
		pos := p.pos
		p.next()
		y := p.parseAnd()
		x = &ast.Binary{TokPos: pos, Op: token.OR, X: x, Y: y}
	}
	return x
}

func (p *parser) parseAnd() ast.Expr {
	x := p.parseNot()
	for p.tok == token.AND {
		pos := p.pos
		p.next()
		y := p.parseNot()
		x = &ast.Binary{TokPos: pos, Op: token.AND, X: x, Y: y}
	}
	return x
}

func (p *parser) parseNot() ast.Expr {
	if p.tok == token.NOT {
		pos := p.pos
		p.next()
		return &ast.Unary{TokPos: pos, Op: token.NOT, X: p.parseNot()}
	}
	return p.parseComparison()
}

var comparisonOps = map[token.Token]bool{
	token.EQL: true, token.NEQ: true, token.LSS: true, token.LEQ: true,
	token.GTR: true, token.GEQ: true, token.IN: true,
}

// parseComparison implements spec.md §4.1's chained comparisons: `a < b <
// c` parses into a single Chained node so the evaluator can guarantee
// each shared operand is evaluated exactly once (spec.md scenario 6).
func (p *parser) parseComparison() ast.Expr {
	pos := p.pos
	first := p.parseAdditive()
	if !comparisonOps[p.tok] {
		return first
	}
	operands := []ast.Expr{first}
	var ops []token.Token
	for comparisonOps[p.tok] {
		ops = append(ops, p.tok)
		p.next()
		operands = append(operands, p.parseAdditive())
	}
	if len(ops) == 1 {
		return &ast.Binary{TokPos: pos, Op: ops[0], X: operands[0], Y: operands[1]}
	}
	return &ast.Chained{TokPos: pos, Operands: operands, Ops: ops}
}

func (p *parser) parseAdditive() ast.Expr {
	x := p.parseMultiplicative()
	for p.tok == token.ADD || p.tok == token.SUB {
		pos, op := p.pos, p.tok
		p.next()
		y := p.parseMultiplicative()
		x = &ast.Binary{TokPos: pos, Op: op, X: x, Y: y}
	}
	return x
}

func (p *parser) parseMultiplicative() ast.Expr {
	x := p.parseUnary()
	for p.tok == token.MUL || p.tok == token.QUO || p.tok == token.IQUO || p.tok == token.REM {
		pos, op := p.pos, p.tok
		p.next()
		y := p.parseUnary()
		x = &ast.Binary{TokPos: pos, Op: op, X: x, Y: y}
	}
	return x
}

func (p *parser) parseUnary() ast.Expr {
	if p.tok == token.SUB {
		pos := p.pos
		p.next()
		return &ast.Unary{TokPos: pos, Op: token.SUB, X: p.parseUnary()}
	}
	return p.parsePower()
}

func (p *parser) parsePower() ast.Expr {
	x := p.parseCallIndexAttr()
	if p.tok == token.POW {
		pos := p.pos
		p.next()
		// right-associative
		y := p.parseUnary()
		return &ast.Binary{TokPos: pos, Op: token.POW, X: x, Y: y}
	}
	return x
}

func (p *parser) parseCallIndexAttr() ast.Expr {
	x := p.parsePrimary()
	for {
		switch p.tok {
		case token.LPAREN:
			x = p.parseCall(x)
		case token.LBRACK:
			x = p.parseIndexOrSlice(x)
		case token.PERIOD:
			pos := p.pos
			p.next()
			name := p.parseIdentName()
			x = &ast.Attr{TokPos: pos, X: x, Name: name}
		default:
			return x
		}
	}
}

func (p *parser) parseCall(fn ast.Expr) ast.Expr {
	pos := p.expect(token.LPAREN)
	n := &ast.Call{TokPos: pos, Fn: fn}
	for p.tok != token.RPAREN && p.tok != token.EOF {
		spread := false
		if p.tok == token.ELLIPSIS {
			p.next()
			spread = true
		}
		n.Args = append(n.Args, p.parseExpr())
		n.Spread = append(n.Spread, spread)
		if p.tok == token.COMMA {
			p.next()
			continue
		}
		break
	}
	p.expect(token.RPAREN)
	return n
}

// parseIndexOrSlice handles both `a[i]` and `a[i:j[:k]]` (spec.md §4.3).
func (p *parser) parseIndexOrSlice(x ast.Expr) ast.Expr {
	pos := p.expect(token.LBRACK)
	var low, high, step ast.Expr
	isSlice := false
	if p.tok != token.COLON {
		low = p.parseExpr()
	}
	if p.tok == token.COLON {
		isSlice = true
		p.next()
		if p.tok != token.COLON && p.tok != token.RBRACK {
			high = p.parseExpr()
		}
		if p.tok == token.COLON {
			p.next()
			if p.tok != token.RBRACK {
				step = p.parseExpr()
			}
		}
	}
	p.expect(token.RBRACK)
	if isSlice {
		return &ast.Slice{TokPos: pos, X: x, Low: low, High: high, Step: step}
	}
	return &ast.Index{TokPos: pos, X: x, Idx: low}
}

func (p *parser) parsePrimary() ast.Expr {
	pos := p.pos
	switch p.tok {
	case token.INT, token.FLOAT, token.STRING:
		lit := p.lit
		kind := p.tok
		p.next()
		return &ast.Literal{TokPos: pos, Kind: kind, Value: lit}
	case token.TRUE, token.FALSE, token.NULL:
		kind := p.tok
		p.next()
		return &ast.Literal{TokPos: pos, Kind: kind}
	case token.IDENT:
		if p.lit == "f" {
			return p.parseFStringMaybe()
		}
		name := p.lit
		p.next()
		return &ast.Identifier{TokPos: pos, Name: name}
	case token.SELF:
		p.next()
		return &ast.Self{TokPos: pos}
	case token.SUPER:
		p.next()
		return &ast.Super{TokPos: pos}
	case token.LPAREN:
		p.next()
		x := p.parseExpr()
		p.expect(token.RPAREN)
		return x
	case token.LBRACK:
		return p.parseListOrComprehension()
	case token.LBRACE:
		return p.parseDictLit()
	case token.LAMBDA:
		return p.parseLambda()
	case token.MATCH:
		return p.parseMatch()
	case token.ELLIPSIS:
		p.next()
		return &ast.Spread{TokPos: pos, X: p.parseExpr()}
	default:
		p.errorExpected(pos, "expression")
		p.next()
		return &ast.Literal{TokPos: pos, Kind: token.NULL}
	}
}

// parseFStringMaybe disambiguates `f"..."` from a plain identifier named
// `f` using the one token of lookahead the scanner already gives
// (spec.md §4.1: "at most two tokens").
func (p *parser) parseFStringMaybe() ast.Expr {
	pos := p.pos
	p.next() // consume 'f'
	if p.tok != token.STRING {
		return &ast.Identifier{TokPos: pos, Name: "f"}
	}
	lit := p.lit
	p.next() // consume the string literal
	return p.parseFString(lit, pos)
}

// parseFString splits the raw string literal (including quotes) around
// `{expr}` interpolations, recursively parsing each one and leaving `{{`/
// `}}` as literal braces (spec.md §4.1).
func (p *parser) parseFString(raw string, pos token.Pos) ast.Expr {
	body, _ := stripFStringQuotes(raw)
	n := &ast.FString{TokPos: pos}
	var cur []byte
	i := 0
	for i < len(body) {
		switch {
		case i+1 < len(body) && body[i] == '{' && body[i+1] == '{':
			cur = append(cur, '{')
			i += 2
		case i+1 < len(body) && body[i] == '}' && body[i+1] == '}':
			cur = append(cur, '}')
			i += 2
		case body[i] == '{':
			end, spec := findInterpEnd(body, i+1)
			inner := body[i+1 : end-len(spec)-boolToInt(spec != "")]
			n.Parts = append(n.Parts, decodeFStringText(string(cur)))
			cur = nil
			expr, err := ParseExpr(pos.Filename(), []byte(inner))
			if err != nil {
				expr = &ast.Literal{TokPos: pos, Kind: token.NULL}
			}
			n.Exprs = append(n.Exprs, expr)
			n.Specs = append(n.Specs, spec)
			i = end
		default:
			cur = append(cur, body[i])
			i++
		}
	}
	n.Parts = append(n.Parts, decodeFStringText(string(cur)))
	return n
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// findInterpEnd scans from the character after `{` to the matching `}`,
// honoring a `:spec` format-specifier suffix, and returns the index just
// past the closing `}` plus the specifier text (without the colon).
func findInterpEnd(body string, start int) (end int, spec string) {
	depth := 1
	specStart := -1
	i := start
	for i < len(body) {
		switch body[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				if specStart >= 0 {
					spec = body[specStart:i]
				}
				return i + 1, spec
			}
		case ':':
			if depth == 1 && specStart < 0 {
				specStart = i + 1
			}
		}
		i++
	}
	return len(body), spec
}

func stripFStringQuotes(raw string) (string, rune) {
	if len(raw) >= 6 && (hasPrefix(raw, `"""`) || hasPrefix(raw, "'''")) {
		return raw[3 : len(raw)-3], rune(raw[0])
	}
	return raw[1 : len(raw)-1], rune(raw[0])
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

func decodeFStringText(s string) string {
	out, err := literal.Unquote(`"` + s + `"`)
	if err != nil {
		return s
	}
	return out
}

func (p *parser) parseListOrComprehension() ast.Expr {
	pos := p.expect(token.LBRACK)
	if p.tok == token.RBRACK {
		p.next()
		return &ast.ListLit{TokPos: pos}
	}
	spread := false
	if p.tok == token.ELLIPSIS {
		p.next()
		spread = true
	}
	first := p.parseExpr()
	if !spread && p.tok == token.FOR {
		return p.parseComprehensionTail(pos, first, nil, false)
	}
	n := &ast.ListLit{TokPos: pos, Elems: []ast.Expr{first}, Spread: []bool{spread}}
	for p.tok == token.COMMA {
		p.next()
		if p.tok == token.RBRACK {
			break
		}
		spread = false
		if p.tok == token.ELLIPSIS {
			p.next()
			spread = true
		}
		n.Elems = append(n.Elems, p.parseExpr())
		n.Spread = append(n.Spread, spread)
	}
	p.expect(token.RBRACK)
	return n
}

func (p *parser) parseComprehensionTail(pos token.Pos, elem, keyElem ast.Expr, isDict bool) ast.Expr {
	p.expect(token.FOR)
	v := p.parseIdentName()
	p.expect(token.IN)
	iter := p.parseExpr()
	n := &ast.Comprehension{TokPos: pos, Elem: elem, KeyElem: keyElem, Var: v, Iter: iter, IsDict: isDict}
	if p.tok == token.IF {
		p.next()
		n.Cond = p.parseExpr()
	}
	if isDict {
		p.expect(token.RBRACE)
	} else {
		p.expect(token.RBRACK)
	}
	return n
}

func (p *parser) parseDictLit() ast.Expr {
	pos := p.expect(token.LBRACE)
	n := &ast.DictLit{TokPos: pos}
	if p.tok == token.RBRACE {
		p.next()
		return n
	}
	key := p.parseDictKey()
	p.expect(token.COLON)
	val := p.parseExpr()
	if p.tok == token.FOR {
		return p.parseComprehensionTail(pos, val, key, true)
	}
	n.Keys = append(n.Keys, key)
	n.Values = append(n.Values, val)
	for p.tok == token.COMMA {
		p.next()
		if p.tok == token.RBRACE {
			break
		}
		k := p.parseDictKey()
		p.expect(token.COLON)
		v := p.parseExpr()
		n.Keys = append(n.Keys, k)
		n.Values = append(n.Values, v)
	}
	p.expect(token.RBRACE)
	return n
}

// parseDictKey accepts both a quoted string and a bareword identifier
// key, per spec.md §4.3 dot-notation/dict key symmetry.
func (p *parser) parseDictKey() ast.Expr {
	pos := p.pos
	if p.tok == token.STRING {
		lit := p.lit
		p.next()
		return &ast.Literal{TokPos: pos, Kind: token.STRING, Value: lit}
	}
	name := p.parseIdentName()
	return &ast.Literal{TokPos: pos, Kind: token.STRING, Value: `"` + name + `"`}
}

func (p *parser) parseLambda() ast.Expr {
	pos := p.pos
	p.next()
	var params []ast.Param
	if p.tok == token.LPAREN {
		params = p.parseParams()
	} else {
		for {
			params = append(params, ast.Param{Name: p.parseIdentName()})
			if p.tok == token.COMMA {
				p.next()
				continue
			}
			break
		}
	}
	p.expect(token.COLON)
	body := p.parseExpr()
	return &ast.Lambda{TokPos: pos, Params: params, Body: body}
}

func (p *parser) parseMatch() ast.Expr {
	pos := p.pos
	p.next()
	subject := p.parseExpr()
	p.expect(token.LBRACE)
	p.skipTerm()
	n := &ast.Match{TokPos: pos, Subject: subject}
	for p.tok != token.RBRACE && p.tok != token.EOF {
		c := ast.MatchCase{}
		if p.tok == token.IDENT && p.lit == "_" {
			p.next()
			c.Wildcard = true
		} else {
			c.Patterns = append(c.Patterns, p.parseExpr())
			for p.tok == token.OR {
				p.next()
				c.Patterns = append(c.Patterns, p.parseExpr())
			}
		}
		p.expect(token.ARROW)
		c.Body = p.parseExpr()
		n.Cases = append(n.Cases, c)
		if p.tok == token.COMMA {
			p.next()
		}
		p.skipTerm()
	}
	p.expect(token.RBRACE)
	return n
}
