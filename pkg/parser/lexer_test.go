package parser_test

import (
	"testing"

	"github.com/Klebert-Engineering/simfil/pkg/parser"
)

type lexerTestCase struct {
	name      string
	input     string
	expected  []parser.Token
	expectErr bool
}

func runLexerTests(t *testing.T, tests []lexerTestCase) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := parser.NewLexer(tt.input)

			var got []parser.Token
			for {
				tok := l.Next()
				if tok.Type == parser.TokenEOF {
					break
				}
				if tok.Type == parser.TokenError {
					if !tt.expectErr {
						t.Fatalf("unexpected lexer error: %v", l.Error())
					}
					return
				}
				got = append(got, tok)
			}

			if tt.expectErr {
				t.Fatalf("expected lexer error, got tokens %v", got)
			}
			if len(got) != len(tt.expected) {
				t.Fatalf("expected %d tokens, got %d: %v", len(tt.expected), len(got), got)
			}
			for i, want := range tt.expected {
				if got[i] != want {
					t.Errorf("token %d: expected %+v, got %+v", i, want, got[i])
				}
			}
		})
	}
}

func TestLexerWhitespaceAndComments(t *testing.T) {
	runLexerTests(t, []lexerTestCase{
		{
			name:  "no whitespace",
			input: "abc",
			expected: []parser.Token{
				{Type: parser.TokenName, Value: "abc", Position: 0},
			},
		},
		{
			name:  "mixed whitespace",
			input: " \t\n\r\vabc",
			expected: []parser.Token{
				{Type: parser.TokenName, Value: "abc", Position: 5},
			},
		},
		{
			name:  "line comment",
			input: "a // comment\nb",
			expected: []parser.Token{
				{Type: parser.TokenName, Value: "a", Position: 0},
				{Type: parser.TokenName, Value: "b", Position: 13},
			},
		},
		{
			name:  "block comment",
			input: "a /* comment */ b",
			expected: []parser.Token{
				{Type: parser.TokenName, Value: "a", Position: 0},
				{Type: parser.TokenName, Value: "b", Position: 16},
			},
		},
		{
			name:      "unclosed block comment",
			input:     "a /* comment",
			expectErr: true,
		},
		{
			name:  "lone slash is division",
			input: "a / b",
			expected: []parser.Token{
				{Type: parser.TokenName, Value: "a", Position: 0},
				{Type: parser.TokenSlash, Value: "/", Position: 2},
				{Type: parser.TokenName, Value: "b", Position: 4},
			},
		},
	})
}

func TestLexerNumbers(t *testing.T) {
	runLexerTests(t, []lexerTestCase{
		{
			name:  "integer",
			input: "123",
			expected: []parser.Token{
				{Type: parser.TokenInt, Value: "123", Position: 0},
			},
		},
		{
			name:  "float",
			input: "3.14",
			expected: []parser.Token{
				{Type: parser.TokenFloat, Value: "3.14", Position: 0},
			},
		},
		{
			name:  "scientific notation",
			input: "1e10",
			expected: []parser.Token{
				{Type: parser.TokenFloat, Value: "1e10", Position: 0},
			},
		},
		{
			name:  "negative exponent",
			input: "2.5e-3",
			expected: []parser.Token{
				{Type: parser.TokenFloat, Value: "2.5e-3", Position: 0},
			},
		},
		{
			name:  "hex integer",
			input: "0xFF",
			expected: []parser.Token{
				{Type: parser.TokenInt, Value: "0xFF", Position: 0},
			},
		},
		{
			name:  "binary integer",
			input: "0b101",
			expected: []parser.Token{
				{Type: parser.TokenInt, Value: "0b101", Position: 0},
			},
		},
		{
			name:  "integer followed by path dot",
			input: "1.x",
			expected: []parser.Token{
				{Type: parser.TokenInt, Value: "1", Position: 0},
				{Type: parser.TokenDot, Value: ".", Position: 1},
				{Type: parser.TokenName, Value: "x", Position: 2},
			},
		},
	})
}

func TestLexerStrings(t *testing.T) {
	runLexerTests(t, []lexerTestCase{
		{
			name:  "double quoted",
			input: `"hello"`,
			expected: []parser.Token{
				{Type: parser.TokenString, Value: "hello", Position: 1},
			},
		},
		{
			name:  "single quoted",
			input: `'world'`,
			expected: []parser.Token{
				{Type: parser.TokenString, Value: "world", Position: 1},
			},
		},
		{
			name:  "empty string",
			input: `""`,
			expected: []parser.Token{
				{Type: parser.TokenString, Value: "", Position: 1},
			},
		},
		{
			name:  "escaped quote stays in value",
			input: `"he said \"hi\""`,
			expected: []parser.Token{
				{Type: parser.TokenString, Value: `he said \"hi\"`, Position: 1},
			},
		},
		{
			name:  "raw string keeps backslashes",
			input: `r'a\n'`,
			expected: []parser.Token{
				{Type: parser.TokenRawString, Value: `a\n`, Position: 0},
			},
		},
		{
			name:  "regex string",
			input: `re'[0-9]+'`,
			expected: []parser.Token{
				{Type: parser.TokenRegex, Value: "[0-9]+", Position: 0},
			},
		},
		{
			name:  "name starting with r is not a raw string",
			input: "result",
			expected: []parser.Token{
				{Type: parser.TokenName, Value: "result", Position: 0},
			},
		},
		{
			name:      "unterminated string",
			input:     `"hello`,
			expectErr: true,
		},
	})
}

func TestLexerSymbols(t *testing.T) {
	runLexerTests(t, []lexerTestCase{
		{
			name:  "dots",
			input: ". .. ...",
			expected: []parser.Token{
				{Type: parser.TokenDot, Value: ".", Position: 0},
				{Type: parser.TokenDotDot, Value: "..", Position: 2},
				{Type: parser.TokenUnpack, Value: "...", Position: 5},
			},
		},
		{
			name:  "stars",
			input: "* **",
			expected: []parser.Token{
				{Type: parser.TokenStar, Value: "*", Position: 0},
				{Type: parser.TokenDblStar, Value: "**", Position: 2},
			},
		},
		{
			name:  "comparisons",
			input: "== = != <= >= < >",
			expected: []parser.Token{
				{Type: parser.TokenEqual, Value: "==", Position: 0},
				{Type: parser.TokenEqual, Value: "=", Position: 3},
				{Type: parser.TokenNotEqual, Value: "!=", Position: 5},
				{Type: parser.TokenLessEqual, Value: "<=", Position: 8},
				{Type: parser.TokenGreaterEqual, Value: ">=", Position: 11},
				{Type: parser.TokenLess, Value: "<", Position: 14},
				{Type: parser.TokenGreater, Value: ">", Position: 16},
			},
		},
		{
			name:  "shifts and bitwise",
			input: "<< >> & | ^ ~",
			expected: []parser.Token{
				{Type: parser.TokenShiftLeft, Value: "<<", Position: 0},
				{Type: parser.TokenShiftRight, Value: ">>", Position: 3},
				{Type: parser.TokenBitAnd, Value: "&", Position: 6},
				{Type: parser.TokenBitOr, Value: "|", Position: 8},
				{Type: parser.TokenBitXor, Value: "^", Position: 10},
				{Type: parser.TokenBitNot, Value: "~", Position: 12},
			},
		},
		{
			name:  "subscript",
			input: "a[?_>1]",
			expected: []parser.Token{
				{Type: parser.TokenName, Value: "a", Position: 0},
				{Type: parser.TokenBracketOpen, Value: "[", Position: 1},
				{Type: parser.TokenQuestion, Value: "?", Position: 2},
				{Type: parser.TokenSelf, Value: "_", Position: 3},
				{Type: parser.TokenGreater, Value: ">", Position: 4},
				{Type: parser.TokenInt, Value: "1", Position: 5},
				{Type: parser.TokenBracketClose, Value: "]", Position: 6},
			},
		},
		{
			name:      "unexpected character",
			input:     "a $ b",
			expectErr: true,
		},
	})
}

func TestLexerKeywords(t *testing.T) {
	runLexerTests(t, []lexerTestCase{
		{
			name:  "operators",
			input: "and or not typeof as",
			expected: []parser.Token{
				{Type: parser.TokenAnd, Value: "and", Position: 0},
				{Type: parser.TokenOr, Value: "or", Position: 4},
				{Type: parser.TokenNot, Value: "not", Position: 7},
				{Type: parser.TokenTypeof, Value: "typeof", Position: 11},
				{Type: parser.TokenAs, Value: "as", Position: 18},
			},
		},
		{
			name:  "constants",
			input: "true false null",
			expected: []parser.Token{
				{Type: parser.TokenBool, Value: "true", Position: 0},
				{Type: parser.TokenBool, Value: "false", Position: 5},
				{Type: parser.TokenNull, Value: "null", Position: 11},
			},
		},
		{
			name:  "context references",
			input: "_ @",
			expected: []parser.Token{
				{Type: parser.TokenSelf, Value: "_", Position: 0},
				{Type: parser.TokenSelf, Value: "@", Position: 2},
			},
		},
		{
			name:  "keyword prefix stays a name",
			input: "android",
			expected: []parser.Token{
				{Type: parser.TokenName, Value: "android", Position: 0},
			},
		},
	})
}
