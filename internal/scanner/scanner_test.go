package scanner

import (
	"testing"

	"loxvm/internal/token"
)

func TestScanToken(t *testing.T) {
	input := `var five = 5;
var ten = 10.5;

if (five < ten) {
  print "less";
} else {
  print "not less";
}

five == ten
five != ten
"foo bar"
// a comment
!true
`

	tests := []struct {
		expectedType    token.TokenType
		expectedLiteral string
	}{
		{token.VAR, "var"},
		{token.IDENTIFIER, "five"},
		{token.ASSIGN, "="},
		{token.NUMBER, "5"},
		{token.SEMI, ";"},
		{token.VAR, "var"},
		{token.IDENTIFIER, "ten"},
		{token.ASSIGN, "="},
		{token.NUMBER, "10.5"},
		{token.SEMI, ";"},
		{token.IF, "if"},
		{token.LPAREN, "("},
		{token.IDENTIFIER, "five"},
		{token.LT, "<"},
		{token.IDENTIFIER, "ten"},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.PRINT, "print"},
		{token.STRING, "less"},
		{token.SEMI, ";"},
		{token.RBRACE, "}"},
		{token.ELSE, "else"},
		{token.LBRACE, "{"},
		{token.PRINT, "print"},
		{token.STRING, "not less"},
		{token.SEMI, ";"},
		{token.RBRACE, "}"},
		{token.IDENTIFIER, "five"},
		{token.EQ, "=="},
		{token.IDENTIFIER, "ten"},
		{token.IDENTIFIER, "five"},
		{token.NEQ, "!="},
		{token.IDENTIFIER, "ten"},
		{token.STRING, "foo bar"},
		{token.NOT, "!"},
		{token.TRUE, "true"},
		{token.EOF, ""},
	}

	s := New(input)

	for i, tt := range tests {
		tok := s.ScanToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q (%q)",
				i, tt.expectedType, tok.Type, tok.Literal)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestUnterminatedString(t *testing.T) {
	s := New(`"unterminated`)
	tok := s.ScanToken()
	if tok.Type != token.ERROR {
		t.Fatalf("expected ERROR token, got %q", tok.Type)
	}
	if tok.Literal != "Unterminated string." {
		t.Fatalf("unexpected message: %q", tok.Literal)
	}
}

func TestUnexpectedCharacter(t *testing.T) {
	s := New(`@`)
	tok := s.ScanToken()
	if tok.Type != token.ERROR {
		t.Fatalf("expected ERROR token, got %q", tok.Type)
	}
	if tok.Literal != "Unexpected character." {
		t.Fatalf("unexpected message: %q", tok.Literal)
	}
}

func TestEOFIsIdempotent(t *testing.T) {
	s := New("")
	for i := 0; i < 3; i++ {
		if tok := s.ScanToken(); tok.Type != token.EOF {
			t.Fatalf("call %d: expected EOF, got %q", i, tok.Type)
		}
	}
}
