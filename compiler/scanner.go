package compiler

import (
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// Scanner: on-demand tokenizer
// ---------------------------------------------------------------------------

// Scanner produces tokens one at a time. It never backtracks: two-character
// operators are resolved by peeking a single byte ahead.
type Scanner struct {
	source  string
	start   int // offset of the lexeme being scanned
	current int // offset of the next unread byte
	line    int // current line (1-based)

	strings *StringIndexer
}

// NewScanner creates a scanner over source.
func NewScanner(source string) *Scanner {
	return &Scanner{
		source:  source,
		line:    1,
		strings: NewStringIndexer(source),
	}
}

// ScanToken returns the next token. Once the input is exhausted it returns
// an EOF token on every call.
//
// On a lexical error the returned token has type TokenError and the error is
// an *UnexpectedCharError or *UnterminatedStringError. The offending input
// has been consumed, so calling ScanToken again continues after it.
func (s *Scanner) ScanToken() (Token, error) {
	s.skipWhitespace()
	s.start = s.current

	if s.isAtEnd() {
		return Token{Type: TokenEOF, ID: NoString, Line: s.line}, nil
	}

	c := s.advance()
	switch c {
	case '(':
		return s.makeToken(TokenLeftParen), nil
	case ')':
		return s.makeToken(TokenRightParen), nil
	case '{':
		return s.makeToken(TokenLeftBrace), nil
	case '}':
		return s.makeToken(TokenRightBrace), nil
	case ';':
		return s.makeToken(TokenSemicolon), nil
	case ',':
		return s.makeToken(TokenComma), nil
	case '.':
		return s.makeToken(TokenDot), nil
	case '-':
		return s.makeToken(TokenMinus), nil
	case '+':
		return s.makeToken(TokenPlus), nil
	case '/':
		return s.makeToken(TokenSlash), nil
	case '*':
		return s.makeToken(TokenStar), nil
	case '!':
		return s.makeToken(s.pick('=', TokenBangEqual, TokenBang)), nil
	case '=':
		return s.makeToken(s.pick('=', TokenEqualEqual, TokenEqual)), nil
	case '<':
		return s.makeToken(s.pick('=', TokenLessEqual, TokenLess)), nil
	case '>':
		return s.makeToken(s.pick('=', TokenGreaterEqual, TokenGreater)), nil
	case '"':
		return s.string()
	}

	switch {
	case isDigit(c):
		return s.number(), nil
	case isAlpha(c):
		return s.identifier(), nil
	}

	// Consume the whole rune so the error names the real character and the
	// next scan starts on a rune boundary.
	r, size := utf8.DecodeRuneInString(s.source[s.start:])
	s.current = s.start + size
	return s.errorToken(), &UnexpectedCharError{Line: s.line, Char: r}
}

// Lexeme returns the source text of tok. Synthetic tokens have no text.
func (s *Scanner) Lexeme(tok Token) (string, error) {
	if tok.ID == NoString {
		return "", nil
	}
	return s.strings.Get(tok.ID)
}

// Strings returns the indexer holding every lexeme scanned so far.
func (s *Scanner) Strings() *StringIndexer {
	return s.strings
}

// Line returns the line the scanner is currently on.
func (s *Scanner) Line() int {
	return s.line
}

// skipWhitespace skips blanks, newlines and // comments.
func (s *Scanner) skipWhitespace() {
	for {
		switch s.peek() {
		case ' ', '\r', '\t':
			s.current++
		case '\n':
			s.line++
			s.current++
		case '/':
			if s.peekNext() != '/' {
				return
			}
			for s.peek() != '\n' && !s.isAtEnd() {
				s.current++
			}
		default:
			return
		}
	}
}

// string scans a string literal. The opening quote has been consumed.
func (s *Scanner) string() (Token, error) {
	startLine := s.line
	for s.peek() != '"' && !s.isAtEnd() {
		if s.peek() == '\n' {
			s.line++
		}
		s.current++
	}

	if s.isAtEnd() {
		return s.errorToken(), &UnterminatedStringError{Line: startLine}
	}

	// Consume closing "
	s.current++
	return s.makeToken(TokenString), nil
}

// number scans digits with an optional fractional part. There is no
// exponent notation.
func (s *Scanner) number() Token {
	for isDigit(s.peek()) {
		s.current++
	}

	if s.peek() == '.' && isDigit(s.peekNext()) {
		// Consume the "."
		s.current++
		for isDigit(s.peek()) {
			s.current++
		}
	}

	return s.makeToken(TokenNumber)
}

// identifier scans an identifier or reserved word.
func (s *Scanner) identifier() Token {
	for isAlpha(s.peek()) || isDigit(s.peek()) {
		s.current++
	}
	return s.makeToken(s.identifierType())
}

// identifierType classifies the current lexeme. The first byte selects a
// branch (the second byte too for f and t) and the remainder is compared
// exactly.
func (s *Scanner) identifierType() TokenType {
	switch s.source[s.start] {
	case 'a':
		return s.checkKeyword(1, "nd", TokenAnd)
	case 'c':
		return s.checkKeyword(1, "lass", TokenClass)
	case 'e':
		return s.checkKeyword(1, "lse", TokenElse)
	case 'f':
		if s.current-s.start > 1 {
			switch s.source[s.start+1] {
			case 'a':
				return s.checkKeyword(2, "lse", TokenFalse)
			case 'o':
				return s.checkKeyword(2, "r", TokenFor)
			case 'u':
				return s.checkKeyword(2, "n", TokenFun)
			}
		}
	case 'i':
		return s.checkKeyword(1, "f", TokenIf)
	case 'n':
		return s.checkKeyword(1, "il", TokenNil)
	case 'o':
		return s.checkKeyword(1, "r", TokenOr)
	case 'p':
		return s.checkKeyword(1, "rint", TokenPrint)
	case 'r':
		return s.checkKeyword(1, "eturn", TokenReturn)
	case 's':
		return s.checkKeyword(1, "uper", TokenSuper)
	case 't':
		if s.current-s.start > 1 {
			switch s.source[s.start+1] {
			case 'h':
				return s.checkKeyword(2, "is", TokenThis)
			case 'r':
				return s.checkKeyword(2, "ue", TokenTrue)
			}
		}
	case 'v':
		return s.checkKeyword(1, "ar", TokenVar)
	case 'w':
		return s.checkKeyword(1, "hile", TokenWhile)
	}
	return TokenIdentifier
}

// checkKeyword returns t if the lexeme is exactly the branch prefix
// followed by rest.
func (s *Scanner) checkKeyword(offset int, rest string, t TokenType) TokenType {
	if s.current-s.start == offset+len(rest) && s.source[s.start+offset:s.current] == rest {
		return t
	}
	return TokenIdentifier
}

// pick consumes expected and returns matched if the next byte is expected,
// otherwise it returns single.
func (s *Scanner) pick(expected byte, matched, single TokenType) TokenType {
	if s.match(expected) {
		return matched
	}
	return single
}

func (s *Scanner) match(expected byte) bool {
	if s.isAtEnd() || s.source[s.current] != expected {
		return false
	}
	s.current++
	return true
}

func (s *Scanner) advance() byte {
	c := s.source[s.current]
	s.current++
	return c
}

// peek returns the next unread byte, or 0 at end of input.
func (s *Scanner) peek() byte {
	if s.isAtEnd() {
		return 0
	}
	return s.source[s.current]
}

// peekNext returns the byte after peek, or 0.
func (s *Scanner) peekNext() byte {
	if s.current+1 >= len(s.source) {
		return 0
	}
	return s.source[s.current+1]
}

func (s *Scanner) isAtEnd() bool {
	return s.current >= len(s.source)
}

func (s *Scanner) makeToken(t TokenType) Token {
	return Token{
		Type: t,
		ID:   s.strings.Add(s.start, s.current),
		Line: s.line,
	}
}

func (s *Scanner) errorToken() Token {
	return Token{Type: TokenError, ID: NoString, Line: s.line}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}
