package lexer_test

import (
	"testing"

	"github.com/natc-lang/natc/internal/lexer"
)

func TestNextTokenBasic(t *testing.T) {
	input := `local x := 1 + 2
print "hello world"`

	want := []lexer.TokenType{
		lexer.LOCAL, lexer.IDENT, lexer.ASSIGN, lexer.INT, lexer.PLUS, lexer.INT,
		lexer.IDENT, lexer.STRING, lexer.EOF,
	}

	l := lexer.New(input)
	for i, wt := range want {
		tok := l.NextToken()
		if tok.Type != wt {
			t.Fatalf("token %d: got %s, want %s (literal %q)", i, tok.Type, wt, tok.Literal)
		}
	}
}

func TestDirectiveForms(t *testing.T) {
	input := "## staticassert(true)\nlocal y := #[ 1 + 1 ]#\nlocal #| \"z\" |# := 2"
	toks := lexer.Tokenize(input)

	var kinds []lexer.TokenType
	for _, tok := range toks {
		kinds = append(kinds, tok.Type)
	}

	found := map[lexer.TokenType]bool{}
	for _, k := range kinds {
		found[k] = true
	}
	for _, want := range []lexer.TokenType{lexer.PPSTMT, lexer.PPEXPR, lexer.PPNAME} {
		if !found[want] {
			t.Errorf("expected a %s token in %v", want, kinds)
		}
	}
}

func TestLiteralSuffixIsKeptVerbatim(t *testing.T) {
	l := lexer.New("1_x")
	tok := l.NextToken()
	if tok.Type != lexer.INT || tok.Literal != "1_x" {
		t.Fatalf("got %v, want INT(1_x)", tok)
	}
}

func TestPositionTracksLinesAndColumns(t *testing.T) {
	l := lexer.New("a\nbb")
	first := l.NextToken()
	if first.Pos.Line != 1 || first.Pos.Column != 1 {
		t.Fatalf("got %v", first.Pos)
	}
	second := l.NextToken()
	if second.Pos.Line != 2 || second.Pos.Column != 1 {
		t.Fatalf("got %v", second.Pos)
	}
}

func TestIllegalCharacterRecorded(t *testing.T) {
	l := lexer.New("@")
	tok := l.NextToken()
	if tok.Type != lexer.ILLEGAL {
		t.Fatalf("got %v", tok)
	}
	if len(l.Errors()) == 0 {
		t.Fatal("expected a lexer error to be recorded")
	}
}
