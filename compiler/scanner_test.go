package compiler

import (
	"errors"
	"testing"
)

// scanAll returns every token up to and including EOF. Scan errors fail the
// test.
func scanAll(t *testing.T, source string) ([]Token, *Scanner) {
	t.Helper()
	s := NewScanner(source)
	var toks []Token
	for i := 0; i < 1000; i++ {
		tok, err := s.ScanToken()
		if err != nil {
			t.Fatalf("ScanToken(%q): unexpected error: %v", source, err)
		}
		toks = append(toks, tok)
		if tok.Type == TokenEOF {
			return toks, s
		}
	}
	t.Fatalf("ScanToken(%q): no EOF after 1000 tokens", source)
	return nil, nil
}

func TestScannerPunctuation(t *testing.T) {
	input := `( ) { } , . - + ; / * ! != = == > >= < <=`
	expected := []struct {
		typ TokenType
		lit string
	}{
		{TokenLeftParen, "("},
		{TokenRightParen, ")"},
		{TokenLeftBrace, "{"},
		{TokenRightBrace, "}"},
		{TokenComma, ","},
		{TokenDot, "."},
		{TokenMinus, "-"},
		{TokenPlus, "+"},
		{TokenSemicolon, ";"},
		{TokenSlash, "/"},
		{TokenStar, "*"},
		{TokenBang, "!"},
		{TokenBangEqual, "!="},
		{TokenEqual, "="},
		{TokenEqualEqual, "=="},
		{TokenGreater, ">"},
		{TokenGreaterEqual, ">="},
		{TokenLess, "<"},
		{TokenLessEqual, "<="},
		{TokenEOF, ""},
	}

	toks, s := scanAll(t, input)
	if len(toks) != len(expected) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(expected))
	}
	for i, exp := range expected {
		if toks[i].Type != exp.typ {
			t.Errorf("token[%d] type = %v, want %v", i, toks[i].Type, exp.typ)
		}
		lit, err := s.Lexeme(toks[i])
		if err != nil {
			t.Fatalf("token[%d] Lexeme: %v", i, err)
		}
		if lit != exp.lit {
			t.Errorf("token[%d] lexeme = %q, want %q", i, lit, exp.lit)
		}
	}
}

func TestScannerAdjacentOperators(t *testing.T) {
	toks, _ := scanAll(t, "!!=<==")
	want := []TokenType{TokenBang, TokenBangEqual, TokenLessEqual, TokenEqual, TokenEOF}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i, w := range want {
		if toks[i].Type != w {
			t.Errorf("token[%d] = %v, want %v", i, toks[i].Type, w)
		}
	}
}

func TestScannerKeywords(t *testing.T) {
	for _, word := range Keywords() {
		toks, _ := scanAll(t, word)
		if !toks[0].Type.IsKeyword() {
			t.Errorf("Scan(%q) = %v, want a keyword", word, toks[0].Type)
		}
		if toks[0].Type.String() != word {
			t.Errorf("Scan(%q) = %v", word, toks[0].Type)
		}
	}
}

func TestScannerIdentifiers(t *testing.T) {
	tests := []string{
		"x", "_", "_x1", "andy", "an", "fo", "f", "fals", "funk", "t", "th",
		"thisx", "tru", "classy", "orr", "printf", "Nil", "whiles", "v",
	}

	for _, input := range tests {
		toks, s := scanAll(t, input)
		if toks[0].Type != TokenIdentifier {
			t.Errorf("Scan(%q) = %v, want IDENTIFIER", input, toks[0].Type)
			continue
		}
		lit, _ := s.Lexeme(toks[0])
		if lit != input {
			t.Errorf("Scan(%q) lexeme = %q", input, lit)
		}
	}
}

func TestScannerNumbers(t *testing.T) {
	tests := []struct {
		input string
		want  []string
		types []TokenType
	}{
		{"123", []string{"123"}, []TokenType{TokenNumber}},
		{"1.5", []string{"1.5"}, []TokenType{TokenNumber}},
		{"0.25", []string{"0.25"}, []TokenType{TokenNumber}},
		{"1.", []string{"1", "."}, []TokenType{TokenNumber, TokenDot}},
		{".5", []string{".", "5"}, []TokenType{TokenDot, TokenNumber}},
		{"1.2.3", []string{"1.2", ".", "3"}, []TokenType{TokenNumber, TokenDot, TokenNumber}},
	}

	for _, tc := range tests {
		toks, s := scanAll(t, tc.input)
		if len(toks) != len(tc.types)+1 {
			t.Errorf("Scan(%q): got %d tokens, want %d", tc.input, len(toks), len(tc.types)+1)
			continue
		}
		for i := range tc.types {
			if toks[i].Type != tc.types[i] {
				t.Errorf("Scan(%q)[%d] = %v, want %v", tc.input, i, toks[i].Type, tc.types[i])
			}
			lit, _ := s.Lexeme(toks[i])
			if lit != tc.want[i] {
				t.Errorf("Scan(%q)[%d] lexeme = %q, want %q", tc.input, i, lit, tc.want[i])
			}
		}
	}
}

func TestScannerStrings(t *testing.T) {
	toks, s := scanAll(t, `"hello world"`)
	if toks[0].Type != TokenString {
		t.Fatalf("type = %v, want STRING", toks[0].Type)
	}
	lit, _ := s.Lexeme(toks[0])
	if lit != `"hello world"` {
		t.Errorf("lexeme = %q", lit)
	}

	toks, _ = scanAll(t, "\"a\nb\" 1")
	if toks[0].Type != TokenString {
		t.Fatalf("type = %v, want STRING", toks[0].Type)
	}
	if toks[1].Line != 2 {
		t.Errorf("token after multi-line string on line %d, want 2", toks[1].Line)
	}
}

func TestScannerUnterminatedString(t *testing.T) {
	s := NewScanner("\n\"abc\n\ndef")
	tok, err := s.ScanToken()
	if tok.Type != TokenError {
		t.Errorf("type = %v, want ERROR", tok.Type)
	}
	var strErr *UnterminatedStringError
	if !errors.As(err, &strErr) {
		t.Fatalf("err = %v, want *UnterminatedStringError", err)
	}
	if strErr.Line != 2 {
		t.Errorf("error line = %d, want 2 (line the string started)", strErr.Line)
	}
	if s.Line() != 4 {
		t.Errorf("scanner line = %d, want 4", s.Line())
	}

	tok, err = s.ScanToken()
	if err != nil || tok.Type != TokenEOF {
		t.Errorf("after error: got %v, %v; want EOF", tok, err)
	}
}

func TestScannerUnexpectedCharacter(t *testing.T) {
	tests := []struct {
		input string
		char  rune
	}{
		{"@1", '@'},
		{"#1", '#'},
		{"é1", 'é'},
	}

	for _, tc := range tests {
		s := NewScanner(tc.input)
		tok, err := s.ScanToken()
		if tok.Type != TokenError {
			t.Errorf("Scan(%q) type = %v, want ERROR", tc.input, tok.Type)
		}
		if !errors.Is(err, ErrUnexpectedToken) {
			t.Errorf("Scan(%q) err = %v, want ErrUnexpectedToken", tc.input, err)
		}
		var charErr *UnexpectedCharError
		if errors.As(err, &charErr) && charErr.Char != tc.char {
			t.Errorf("Scan(%q) char = %q, want %q", tc.input, charErr.Char, tc.char)
		}

		tok, err = s.ScanToken()
		if err != nil || tok.Type != TokenNumber {
			t.Errorf("Scan(%q) after error: got %v, %v; want NUMBER", tc.input, tok, err)
		}
	}
}

func TestScannerComments(t *testing.T) {
	toks, _ := scanAll(t, "// leading comment\n1 // trailing\n")
	if len(toks) != 2 {
		t.Fatalf("got %d tokens, want 2", len(toks))
	}
	if toks[0].Type != TokenNumber || toks[0].Line != 2 {
		t.Errorf("token = %v, want NUMBER@2", toks[0])
	}
	if toks[1].Line != 3 {
		t.Errorf("EOF line = %d, want 3", toks[1].Line)
	}
}

func TestScannerLoneSlash(t *testing.T) {
	toks, _ := scanAll(t, "/")
	if len(toks) != 2 || toks[0].Type != TokenSlash {
		t.Errorf("Scan(\"/\") = %v, want [/ EOF]", toks)
	}

	toks, _ = scanAll(t, "4 / 2")
	want := []TokenType{TokenNumber, TokenSlash, TokenNumber, TokenEOF}
	for i, w := range want {
		if toks[i].Type != w {
			t.Errorf("token[%d] = %v, want %v", i, toks[i].Type, w)
		}
	}
}

func TestScannerLines(t *testing.T) {
	toks, _ := scanAll(t, "1\n2\r\n\n3")
	wantLines := []int{1, 2, 4, 4}
	for i, w := range wantLines {
		if toks[i].Line != w {
			t.Errorf("token[%d] line = %d, want %d", i, toks[i].Line, w)
		}
	}
}

func TestScannerEOFRepeats(t *testing.T) {
	s := NewScanner("  ")
	for i := 0; i < 3; i++ {
		tok, err := s.ScanToken()
		if err != nil {
			t.Fatalf("ScanToken: %v", err)
		}
		if tok.Type != TokenEOF {
			t.Errorf("call %d: type = %v, want EOF", i, tok.Type)
		}
		if tok.ID != NoString {
			t.Errorf("call %d: EOF carries ID %d", i, tok.ID)
		}
		lit, err := s.Lexeme(tok)
		if err != nil || lit != "" {
			t.Errorf("call %d: Lexeme(EOF) = %q, %v", i, lit, err)
		}
	}
}

func TestScannerIndexesLexemes(t *testing.T) {
	_, s := scanAll(t, "1 + 2")
	if got := s.Strings().Len(); got != 3 {
		t.Errorf("indexed %d lexemes, want 3", got)
	}
}

func TestScannerSingleCharacter(t *testing.T) {
	tests := []struct {
		input string
		typ   TokenType
	}{
		{"1", TokenNumber},
		{"+", TokenPlus},
		{"x", TokenIdentifier},
		{"!", TokenBang},
		{"<", TokenLess},
	}
	for _, tc := range tests {
		toks, s := scanAll(t, tc.input)
		if len(toks) != 2 || toks[0].Type != tc.typ {
			t.Errorf("Scan(%q) = %v, want [%v EOF]", tc.input, toks, tc.typ)
			continue
		}
		if lit, _ := s.Lexeme(toks[0]); lit != tc.input {
			t.Errorf("Scan(%q) lexeme = %q", tc.input, lit)
		}
	}
}
