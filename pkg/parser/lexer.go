package parser

import (
	"unicode/utf8"

	"github.com/Klebert-Engineering/simfil/pkg/types"
)

const eof = -1

// Lexer converts a query string into a sequence of tokens.
// The implementation is based on Rob Pike's "Lexical Scanning in Go" technique.
type Lexer struct {
	input   string // Input string being scanned
	length  int    // Length of input string
	start   int    // Start position of current token
	current int    // Current position in input
	width   int    // Width of last rune read
	err     error  // First error encountered
}

// NewLexer creates a new lexer from the provided input string.
// The input is tokenized by successive calls to the Next method.
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:  input,
		length: len(input),
	}
}

// Next returns the next token from the input.
// When the end of the input is reached, Next returns TokenEOF for all
// subsequent calls.
func (l *Lexer) Next() Token {
	l.skipWhitespace()

	// skipWhitespace may have hit an unclosed block comment
	if l.err != nil {
		return l.error(types.ErrLex, l.err.Error())
	}

	ch := l.nextRune()
	if ch == eof {
		return l.eof()
	}

	// "..." needs a third-character check after the ".." match
	if ch == '.' && l.acceptRune('.') {
		if l.acceptRune('.') {
			return l.newToken(TokenUnpack)
		}
		return l.newToken(TokenDotDot)
	}

	// Two-character symbols (e.g. !=, <=, <<, **)
	if rts := lookupSymbol2(ch); rts != nil {
		for _, rt := range rts {
			if l.acceptRune(rt.r) {
				return l.newToken(rt.tt)
			}
		}
	}

	// Single-character symbols
	if tt := lookupSymbol1(ch); tt > 0 {
		return l.newToken(tt)
	}

	// String literals (single or double quoted)
	if ch == '"' || ch == '\'' {
		l.ignore()
		return l.scanString(ch, true)
	}

	// Number literals
	if ch >= '0' && ch <= '9' {
		l.backup()
		return l.scanNumber()
	}

	// Names, keywords, raw strings (r'...'), regex strings (re'...')
	if isNameStart(ch) {
		l.backup()
		return l.scanName()
	}

	return l.error(types.ErrLex, "Unexpected character "+string(ch))
}

// Error returns the first error encountered during lexing, if any.
func (l *Lexer) Error() error {
	return l.err
}

// scanString reads a string literal from the current position.
// The opening quote has already been consumed. With escapes disabled
// (raw and regex strings), backslashes are taken literally.
func (l *Lexer) scanString(quote rune, escapes bool) Token {
Loop:
	for {
		switch l.nextRune() {
		case quote:
			break Loop
		case '\\':
			if !escapes {
				break
			}
			// Consume escaped character
			if r := l.nextRune(); r != eof {
				break
			}
			fallthrough
		case eof:
			return l.error(types.ErrLex, "Unterminated string literal")
		}
	}

	l.backup()
	t := l.newToken(TokenString)
	l.acceptRune(quote)
	l.ignore()
	return t
}

// scanNumber reads a number literal from the current position.
// Supports decimal integers, 0x hex, 0b binary, decimals and scientific
// notation. Integer and float literals get distinct token types.
func (l *Lexer) scanNumber() Token {
	if l.acceptRune('0') {
		// Hex and binary forms are always integers.
		if l.acceptRunes2('x', 'X') {
			l.acceptAll(isHexDigit)
			return l.newToken(TokenInt)
		}
		if l.acceptRunes2('b', 'B') {
			l.acceptAll(isBinDigit)
			return l.newToken(TokenInt)
		}
	}
	l.acceptAll(isDigit)

	isFloat := false

	// Decimal part
	if l.acceptRune('.') {
		if !l.acceptAll(isDigit) {
			// No digits after the dot: the dot belongs to a path or
			// range operator (e.g. "1..x"), not the number.
			l.width = 1 // un-consume the dot, not the rune after it
			l.backup()
			return l.newToken(TokenInt)
		}
		isFloat = true
	}

	// Exponent part
	if l.acceptRunes2('e', 'E') {
		l.acceptRunes2('+', '-')
		l.acceptAll(isDigit)
		isFloat = true
	}

	if isFloat {
		return l.newToken(TokenFloat)
	}
	return l.newToken(TokenInt)
}

// scanName reads a name or keyword from the current position.
// Names start with a letter or underscore and continue with letters,
// digits and underscores. The prefixes r'...' and re'...' introduce raw
// and regex string literals.
func (l *Lexer) scanName() Token {
	l.accept(isNameStart)
	l.acceptAll(isNameRune)

	t := l.newToken(TokenName)

	// Raw and regex string prefixes bind to an immediately following
	// quote character.
	if t.Value == "r" || t.Value == "re" {
		if quote := l.nextRune(); quote == '\'' || quote == '"' {
			l.ignore()
			st := l.scanString(quote, false)
			if st.Type == TokenString {
				if t.Value == "re" {
					st.Type = TokenRegex
				} else {
					st.Type = TokenRawString
				}
			}
			st.Position = t.Position
			return st
		}
		l.backup()
	}

	if tt := lookupKeyword(t.Value); tt > 0 {
		t.Type = tt
	}
	return t
}

// Helper methods

func (l *Lexer) eof() Token {
	return Token{
		Type:     TokenEOF,
		Position: l.current,
	}
}

func (l *Lexer) error(code types.ErrorCode, message string) Token {
	t := l.newToken(TokenError)
	l.err = &types.Error{
		Code:     code,
		Message:  message,
		Position: t.Position,
		Token:    t.Value,
	}
	return t
}

func (l *Lexer) newToken(tt TokenType) Token {
	t := Token{
		Type:     tt,
		Value:    l.input[l.start:l.current],
		Position: l.start,
	}
	l.width = 0
	l.start = l.current
	return t
}

func (l *Lexer) nextRune() rune {
	if l.err != nil || l.current >= l.length {
		l.width = 0
		return eof
	}

	r, w := utf8.DecodeRuneInString(l.input[l.current:])
	l.width = w
	l.current += w
	return r
}

func (l *Lexer) backup() {
	l.current -= l.width
}

func (l *Lexer) ignore() {
	l.start = l.current
}

func (l *Lexer) acceptRune(r rune) bool {
	return l.accept(func(c rune) bool {
		return c == r
	})
}

func (l *Lexer) acceptRunes2(r1, r2 rune) bool {
	return l.accept(func(c rune) bool {
		return c == r1 || c == r2
	})
}

func (l *Lexer) accept(isValid func(rune) bool) bool {
	if isValid(l.nextRune()) {
		return true
	}
	l.backup()
	return false
}

func (l *Lexer) acceptAll(isValid func(rune) bool) bool {
	var matched bool
	for l.accept(isValid) {
		matched = true
	}
	return matched
}

// skipWhitespace consumes whitespace plus // line comments and /* */
// block comments.
func (l *Lexer) skipWhitespace() {
	for {
		if l.err != nil {
			return
		}

		l.acceptAll(isWhitespace)
		l.ignore()

		if !l.acceptRune('/') {
			return
		}

		if l.acceptRune('/') {
			// Line comment, runs to end of line or input
			for {
				ch := l.nextRune()
				if ch == eof || ch == '\n' {
					break
				}
			}
			l.ignore()
			continue
		}

		if l.acceptRune('*') {
			for {
				ch := l.nextRune()
				if ch == eof {
					l.err = &types.Error{
						Code:     types.ErrLex,
						Message:  "Unclosed comment",
						Position: l.current,
					}
					return
				}
				if ch == '*' && l.acceptRune('/') {
					break
				}
			}
			l.ignore()
			continue
		}

		// A lone '/' is the division operator
		l.backup()
		return
	}
}

// Character classification functions

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v':
		return true
	default:
		return false
	}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func isBinDigit(r rune) bool {
	return r == '0' || r == '1'
}

func isNameStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r >= utf8.RuneSelf
}

func isNameRune(r rune) bool {
	return isNameStart(r) || isDigit(r)
}
