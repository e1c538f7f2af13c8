package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Token types
// ---------------------------------------------------------------------------

// TokenType represents the type of a token. Values are dense so they can
// index the parse rule table directly.
type TokenType int

const (
	// Single-character tokens
	TokenLeftParen TokenType = iota
	TokenRightParen
	TokenLeftBrace
	TokenRightBrace
	TokenComma
	TokenDot
	TokenMinus
	TokenPlus
	TokenSemicolon
	TokenSlash
	TokenStar

	// One or two character tokens
	TokenBang
	TokenBangEqual
	TokenEqual
	TokenEqualEqual
	TokenGreater
	TokenGreaterEqual
	TokenLess
	TokenLessEqual

	// Literals
	TokenIdentifier
	TokenString
	TokenNumber

	// Keywords
	TokenAnd
	TokenClass
	TokenElse
	TokenFalse
	TokenFor
	TokenFun
	TokenIf
	TokenNil
	TokenOr
	TokenPrint
	TokenReturn
	TokenSuper
	TokenThis
	TokenTrue
	TokenVar
	TokenWhile

	// Special tokens
	TokenError
	TokenEOF

	tokenTypeCount
)

var tokenNames = [tokenTypeCount]string{
	TokenLeftParen:    "(",
	TokenRightParen:   ")",
	TokenLeftBrace:    "{",
	TokenRightBrace:   "}",
	TokenComma:        ",",
	TokenDot:          ".",
	TokenMinus:        "-",
	TokenPlus:         "+",
	TokenSemicolon:    ";",
	TokenSlash:        "/",
	TokenStar:         "*",
	TokenBang:         "!",
	TokenBangEqual:    "!=",
	TokenEqual:        "=",
	TokenEqualEqual:   "==",
	TokenGreater:      ">",
	TokenGreaterEqual: ">=",
	TokenLess:         "<",
	TokenLessEqual:    "<=",
	TokenIdentifier:   "IDENTIFIER",
	TokenString:       "STRING",
	TokenNumber:       "NUMBER",
	TokenAnd:          "and",
	TokenClass:        "class",
	TokenElse:         "else",
	TokenFalse:        "false",
	TokenFor:          "for",
	TokenFun:          "fun",
	TokenIf:           "if",
	TokenNil:          "nil",
	TokenOr:           "or",
	TokenPrint:        "print",
	TokenReturn:       "return",
	TokenSuper:        "super",
	TokenThis:         "this",
	TokenTrue:         "true",
	TokenVar:          "var",
	TokenWhile:        "while",
	TokenError:        "ERROR",
	TokenEOF:          "EOF",
}

func (t TokenType) String() string {
	if t >= 0 && t < tokenTypeCount {
		return tokenNames[t]
	}
	return fmt.Sprintf("Token(%d)", int(t))
}

// IsKeyword returns true for reserved words.
func (t TokenType) IsKeyword() bool {
	return t >= TokenAnd && t <= TokenWhile
}

// Keywords returns the reserved words in table order.
func Keywords() []string {
	words := make([]string, 0, TokenWhile-TokenAnd+1)
	for t := TokenAnd; t <= TokenWhile; t++ {
		words = append(words, tokenNames[t])
	}
	return words
}

// Token is one lexical unit. The lexeme is not copied out of the source;
// ID is a handle into the scanner's StringIndexer.
type Token struct {
	Type TokenType
	ID   StringID // lexeme handle, NoString for synthetic tokens
	Line int      // 1-based source line
}

func (t Token) String() string {
	return fmt.Sprintf("%s@%d", t.Type, t.Line)
}
