package compiler

import "fmt"

// Precedence orders binding strength from loosest to tightest.
type Precedence int

const (
	PrecNone Precedence = iota
	PrecAssignment
	PrecOr
	PrecAnd
	PrecEquality
	PrecComparison
	PrecTerm
	PrecFactor
	PrecUnary
	PrecCall
	PrecPrimary
)

var precedenceNames = [...]string{
	PrecNone:       "None",
	PrecAssignment: "Assignment",
	PrecOr:         "Or",
	PrecAnd:        "And",
	PrecEquality:   "Equality",
	PrecComparison: "Comparison",
	PrecTerm:       "Term",
	PrecFactor:     "Factor",
	PrecUnary:      "Unary",
	PrecCall:       "Call",
	PrecPrimary:    "Primary",
}

func (p Precedence) String() string {
	if p >= PrecNone && p <= PrecPrimary {
		return precedenceNames[p]
	}
	return fmt.Sprintf("Precedence(%d)", int(p))
}

// Add returns the level n steps tighter than p, saturating at PrecPrimary.
func (p Precedence) Add(n int) Precedence {
	q := p + Precedence(n)
	if q > PrecPrimary || q < p {
		return PrecPrimary
	}
	return q
}

// Next returns the next tighter level. Next of PrecPrimary is PrecPrimary.
func (p Precedence) Next() Precedence {
	return p.Add(1)
}

// ParseFn names a parse routine in the rule table.
type ParseFn uint8

const (
	FnNone ParseFn = iota
	FnGrouping
	FnUnary
	FnBinary
	FnNumber
	FnLiteral
)

// ParseRule is one row of the Pratt table: what to do when a token starts
// an expression, what to do when it follows one, and how tightly it binds
// as an infix operator.
type ParseRule struct {
	Prefix     ParseFn
	Infix      ParseFn
	Precedence Precedence
}

// rules is indexed by TokenType. Tokens without an entry have no prefix or
// infix role and PrecNone.
var rules = [tokenTypeCount]ParseRule{
	TokenLeftParen:    {FnGrouping, FnNone, PrecNone},
	TokenMinus:        {FnUnary, FnBinary, PrecTerm},
	TokenPlus:         {FnNone, FnBinary, PrecTerm},
	TokenSlash:        {FnNone, FnBinary, PrecFactor},
	TokenStar:         {FnNone, FnBinary, PrecFactor},
	TokenBang:         {FnUnary, FnNone, PrecNone},
	TokenBangEqual:    {FnNone, FnBinary, PrecEquality},
	TokenEqualEqual:   {FnNone, FnBinary, PrecEquality},
	TokenGreater:      {FnNone, FnBinary, PrecComparison},
	TokenGreaterEqual: {FnNone, FnBinary, PrecComparison},
	TokenLess:         {FnNone, FnBinary, PrecComparison},
	TokenLessEqual:    {FnNone, FnBinary, PrecComparison},
	TokenNumber:       {FnNumber, FnNone, PrecNone},
	TokenFalse:        {FnLiteral, FnNone, PrecNone},
	TokenNil:          {FnLiteral, FnNone, PrecNone},
	TokenTrue:         {FnLiteral, FnNone, PrecNone},
}

// GetRule returns the parse rule for t. Out-of-range types get the empty
// rule.
func GetRule(t TokenType) ParseRule {
	if t < 0 || t >= tokenTypeCount {
		return ParseRule{}
	}
	return rules[t]
}
