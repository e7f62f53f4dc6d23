package parser

// TokenType represents the type of a lexical token.
type TokenType uint8

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError

	// Literals
	TokenInt    // 123, 0xff, 0b101
	TokenFloat  // 3.14, 1e-10
	TokenString    // "hello", 'hello'
	TokenRawString // r'raw', no escape processing
	TokenRegex     // re'pattern'
	TokenBool   // true, false
	TokenNull   // null
	TokenName   // fieldName
	TokenSelf   // _ or @

	// Grouping symbols
	TokenParenOpen    // (
	TokenParenClose   // )
	TokenBracketOpen  // [
	TokenBracketClose // ]
	TokenBraceOpen    // {
	TokenBraceClose   // }

	// Basic symbols
	TokenDot      // .
	TokenDotDot   // ..
	TokenComma    // ,
	TokenColon    // :
	TokenQuestion // ?
	TokenHash     // #
	TokenUnpack   // ...

	// Arithmetic operators
	TokenPlus    // +
	TokenMinus   // -
	TokenStar    // * (also the wildcard)
	TokenDblStar // ** (recursive wildcard)
	TokenSlash   // /
	TokenPercent // %

	// Bitwise operators
	TokenShiftLeft  // <<
	TokenShiftRight // >>
	TokenBitAnd     // &
	TokenBitOr      // |
	TokenBitXor     // ^
	TokenBitNot     // ~

	// Comparison operators
	TokenEqual        // == (= is accepted as an alias)
	TokenNotEqual     // !=
	TokenLess         // <
	TokenLessEqual    // <=
	TokenGreater      // >
	TokenGreaterEqual // >=

	// Keyword operators
	TokenAnd    // and
	TokenOr     // or
	TokenNot    // not
	TokenTypeof // typeof
	TokenAs     // as
)

// String returns a string representation of the token type.
func (tt TokenType) String() string {
	switch tt {
	case TokenEOF:
		return "(eof)"
	case TokenError:
		return "(error)"
	case TokenInt:
		return "(int)"
	case TokenFloat:
		return "(float)"
	case TokenString:
		return "(string)"
	case TokenRawString:
		return "(raw string)"
	case TokenRegex:
		return "(regex)"
	case TokenBool:
		return "(bool)"
	case TokenNull:
		return "null"
	case TokenName:
		return "(name)"
	case TokenSelf:
		return "_"
	case TokenParenOpen:
		return "("
	case TokenParenClose:
		return ")"
	case TokenBracketOpen:
		return "["
	case TokenBracketClose:
		return "]"
	case TokenBraceOpen:
		return "{"
	case TokenBraceClose:
		return "}"
	case TokenDot:
		return "."
	case TokenDotDot:
		return ".."
	case TokenComma:
		return ","
	case TokenColon:
		return ":"
	case TokenQuestion:
		return "?"
	case TokenHash:
		return "#"
	case TokenUnpack:
		return "..."
	case TokenPlus:
		return "+"
	case TokenMinus:
		return "-"
	case TokenStar:
		return "*"
	case TokenDblStar:
		return "**"
	case TokenSlash:
		return "/"
	case TokenPercent:
		return "%"
	case TokenShiftLeft:
		return "<<"
	case TokenShiftRight:
		return ">>"
	case TokenBitAnd:
		return "&"
	case TokenBitOr:
		return "|"
	case TokenBitXor:
		return "^"
	case TokenBitNot:
		return "~"
	case TokenEqual:
		return "=="
	case TokenNotEqual:
		return "!="
	case TokenLess:
		return "<"
	case TokenLessEqual:
		return "<="
	case TokenGreater:
		return ">"
	case TokenGreaterEqual:
		return ">="
	case TokenAnd:
		return "and"
	case TokenOr:
		return "or"
	case TokenNot:
		return "not"
	case TokenTypeof:
		return "typeof"
	case TokenAs:
		return "as"
	default:
		return "(unknown)"
	}
}

// Token represents a lexical token in a query.
type Token struct {
	Type     TokenType // Type of the token
	Value    string    // Literal value of the token
	Position int       // Starting position in the input string
}

// symbols1 maps single-character symbols to token types.
var symbols1 = [...]TokenType{
	'(': TokenParenOpen,
	')': TokenParenClose,
	'[': TokenBracketOpen,
	']': TokenBracketClose,
	'{': TokenBraceOpen,
	'}': TokenBraceClose,
	'.': TokenDot,
	',': TokenComma,
	':': TokenColon,
	'?': TokenQuestion,
	'#': TokenHash,
	'+': TokenPlus,
	'-': TokenMinus,
	'*': TokenStar,
	'/': TokenSlash,
	'%': TokenPercent,
	'&': TokenBitAnd,
	'|': TokenBitOr,
	'^': TokenBitXor,
	'~': TokenBitNot,
	'=': TokenEqual,
	'<': TokenLess,
	'>': TokenGreater,
	'@': TokenSelf,
}

// runeTokenType pairs a rune with its corresponding token type.
type runeTokenType struct {
	r  rune
	tt TokenType
}

// symbols2 maps two-character symbol sequences to token types.
// The key is the first character of the sequence.
var symbols2 = [...][]runeTokenType{
	'=': {{'=', TokenEqual}},
	'!': {{'=', TokenNotEqual}},
	'<': {{'=', TokenLessEqual}, {'<', TokenShiftLeft}},
	'>': {{'=', TokenGreaterEqual}, {'>', TokenShiftRight}},
	'.': {{'.', TokenDotDot}},
	'*': {{'*', TokenDblStar}},
}

const (
	symbol1Count = rune(len(symbols1))
	symbol2Count = rune(len(symbols2))
)

// lookupSymbol1 returns the token type for a single-character symbol.
// Returns 0 if the rune is not a valid symbol.
func lookupSymbol1(r rune) TokenType {
	if r < 0 || r >= symbol1Count {
		return 0
	}
	return symbols1[r]
}

// lookupSymbol2 returns possible two-character symbol completions.
// Returns nil if the rune cannot start a two-character symbol.
func lookupSymbol2(r rune) []runeTokenType {
	if r < 0 || r >= symbol2Count {
		return nil
	}
	return symbols2[r]
}

// lookupKeyword returns the token type for a keyword.
// Returns 0 if the string is not a recognized keyword.
func lookupKeyword(s string) TokenType {
	switch s {
	case "and":
		return TokenAnd
	case "or":
		return TokenOr
	case "not":
		return TokenNot
	case "typeof":
		return TokenTypeof
	case "as":
		return TokenAs
	case "true", "false":
		return TokenBool
	case "null":
		return TokenNull
	case "_":
		return TokenSelf
	default:
		return 0
	}
}
