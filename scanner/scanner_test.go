package scanner

import (
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/Bryantad/Sona-sub003/token"
)

func scanAll(t *testing.T, src string) []token.Token {
	t.Helper()
	file := token.NewFile("<test>", len(src))
	var s Scanner
	s.Init(file, []byte(src), func(pos token.Position, msg string) {
		t.Fatalf("scanner error at %v: %s", pos, msg)
	}, 0)
	var toks []token.Token
	for {
		_, tok, _ := s.Scan()
		if tok == token.EOF {
			return toks
		}
		toks = append(toks, tok)
	}
}

func scanFirstLit(t *testing.T, src string) (token.Token, string) {
	t.Helper()
	file := token.NewFile("<test>", len(src))
	var s Scanner
	s.Init(file, []byte(src), func(pos token.Position, msg string) {
		t.Fatalf("scanner error at %v: %s", pos, msg)
	}, 0)
	_, tok, lit := s.Scan()
	return tok, lit
}

func TestTripleQuotedStringScansWholeBody(t *testing.T) {
	tok, lit := scanFirstLit(t, `"""Hello
World"""`)
	qt.Assert(t, qt.Equals(tok, token.STRING))
	qt.Assert(t, qt.Equals(lit, "\"\"\"Hello\nWorld\"\"\""))
}

func TestTripleQuotedStringStopsAtClosingTriple(t *testing.T) {
	toks := scanAll(t, `x = """a"""
y = 1`)
	// IDENT '=' STRING SEMICOLON IDENT '=' INT SEMICOLON, not corrupted
	// by the string literal bleeding into the rest of the file.
	qt.Assert(t, qt.DeepEquals(toks, []token.Token{
		token.IDENT, token.ASSIGN, token.STRING, token.SEMICOLON,
		token.IDENT, token.ASSIGN, token.INT, token.SEMICOLON,
	}))
}

func TestOrdinaryStringLiteral(t *testing.T) {
	tok, lit := scanFirstLit(t, `"hello"`)
	qt.Assert(t, qt.Equals(tok, token.STRING))
	qt.Assert(t, qt.Equals(lit, `"hello"`))
}
