package parser_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/Klebert-Engineering/simfil/pkg/parser"
	"github.com/Klebert-Engineering/simfil/pkg/types"
)

// parseDump parses the input and returns the S-expression dump.
func parseDump(t *testing.T, input string) string {
	t.Helper()
	expr, err := parser.Parse(input)
	if err != nil {
		t.Fatalf("failed to parse %q: %v", input, err)
	}
	return expr.Dump()
}

func TestParseLiterals(t *testing.T) {
	tests := []struct {
		input string
		dump  string
	}{
		{"42", "42"},
		{"0x10", "16"},
		{"0b101", "5"},
		{"3.14", "3.14"},
		{"1e3", "1000"},
		{`"hello"`, `"hello"`},
		{`'hello'`, `"hello"`},
		{`"a\nb"`, `"a\nb"`},
		{`"é"`, `"é"`},
		{`r'a\nb'`, `"a\\nb"`},
		{`re'[0-9]+'`, `"[0-9]+"`},
		{"true", "true"},
		{"false", "false"},
		{"null", "null"},
		{"_", "_"},
		{"@", "_"},
		{"*", "*"},
		{"**", "**"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseDump(t, tt.input); got != tt.dump {
				t.Errorf("expected %s, got %s", tt.dump, got)
			}
		})
	}
}

func TestParsePaths(t *testing.T) {
	tests := []struct {
		input string
		dump  string
	}{
		{"a", "a"},
		{"a.b", "(. a b)"},
		{"a.b.c", "(. a b c)"},
		{"a.*", "(. a *)"},
		{"a.**", "(. a **)"},
		{"a._", "(. a _)"},
		{"a..b", "(. a ** b)"},
		{"..b", "(. ** b)"},
		{"a[0]", "(. a (index 0))"},
		{"a[-1]", "(. a (index (- 1)))"},
		{"a[*]", "(. a *)"},
		{`b["x"]`, `(. b (index "x"))`},
		{"a[b.c]", "(. a (index (. b c)))"},
		{"a[?_ > 1]", "(. a (filter (> _ 1)))"},
		{"a{_ > 1}", "(. a (filter (> _ 1)))"},
		{"a[1:3]", "(. a (slice 1 3 _))"},
		{"a[:3]", "(. a (slice _ 3 _))"},
		{"a[1:]", "(. a (slice 1 _ _))"},
		{"a[::2]", "(. a (slice _ _ 2))"},
		{"a[::-1]", "(. a (slice _ _ (- 1)))"},
		{"a[0, 2]", "(. a (union 0 2))"},
		{"[0]", "(. _ (index 0))"},
		{"{_ > 1}", "(. _ (filter (> _ 1)))"},
		{"a[0].b[*].c", "(. a (index 0) b * c)"},
		// Keywords are valid field names after a dot.
		{"a.and.or", "(. a and or)"},
		{"a.not", "(. a not)"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseDump(t, tt.input); got != tt.dump {
				t.Errorf("expected %s, got %s", tt.dump, got)
			}
		})
	}
}

func TestParseOperators(t *testing.T) {
	tests := []struct {
		input string
		dump  string
	}{
		{"1 + 2", "(+ 1 2)"},
		{"1 + 2 * 3", "(+ 1 (* 2 3))"},
		{"(1 + 2) * 3", "(* (+ 1 2) 3)"},
		{"1 - 2 - 3", "(- (- 1 2) 3)"},
		{"10 / 2 % 3", "(% (/ 10 2) 3)"},
		{"-a", "(- a)"},
		{"~a", "(~ a)"},
		{"#a", "(# a)"},
		{"not a", "(not a)"},
		{"typeof a", "(typeof a)"},
		{"a?", "(? a)"},
		{"a...", "(... a)"},
		{"a == 1", "(== a 1)"},
		{"a = 1", "(== a 1)"}, // = is an alias for ==
		{"a != 1", "(!= a 1)"},
		{"a < b", "(< a b)"},
		{"1 << 2", "(<< 1 2)"},
		{"a & 1 | 2", "(| (& a 1) 2)"},
		{"a and b", "(and a b)"},
		{"a or b", "(or a b)"},
		{"a and b or c", "(or (and a b) c)"},
		{"not a and b", "(and (not a) b)"},
		{"a as int", "(as-int a)"},
		{"a as Float", "(as-float a)"},
		{"a as null", "(as-null a)"},
		{"a + 1 as string", "(+ a (as-string 1))"},
		{"a == 1 and b", "(and (== a 1) b)"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseDump(t, tt.input); got != tt.dump {
				t.Errorf("expected %s, got %s", tt.dump, got)
			}
		})
	}
}

func TestParseCalls(t *testing.T) {
	tests := []struct {
		input string
		dump  string
	}{
		{"f()", "(f)"},
		{"f(1)", "(f 1)"},
		{"f(1, 2)", "(f 1 2)"},
		{"count(a[*])", "(count (. a *))"},
		{"f(g(a), b.c)", "(f (g a) (. b c))"},
		{"a.f()", "(. a (f))"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseDump(t, tt.input); got != tt.dump {
				t.Errorf("expected %s, got %s", tt.dump, got)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  types.ErrorCode
	}{
		{"empty query", "", types.ErrParse},
		{"unclosed subscript", "a[", types.ErrParse},
		{"unclosed paren", "(a", types.ErrParse},
		{"dangling operator", "1 +", types.ErrParse},
		{"dangling dot", "a.", types.ErrParse},
		{"trailing token", "1 2", types.ErrParse},
		{"empty filter", "a[?]", types.ErrParse},
		{"invalid cast target", "a as banana", types.ErrParse},
		{"invalid regex", `re'['`, types.ErrParse},
		{"unterminated string", `"abc`, types.ErrLex},
		{"unclosed comment", "a /* b", types.ErrLex},
		{"unexpected character", "1 $", types.ErrLex},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.Parse(tt.input)
			if err == nil {
				t.Fatalf("expected error parsing %q", tt.input)
			}
			var serr *types.Error
			if !errors.As(err, &serr) {
				t.Fatalf("expected *types.Error, got %T: %v", err, err)
			}
			if serr.Code != tt.code {
				t.Errorf("expected code %s, got %s (%v)", tt.code, serr.Code, err)
			}
		})
	}
}

func TestParseErrorPosition(t *testing.T) {
	_, err := parser.Parse("a[")
	var serr *types.Error
	if !errors.As(err, &serr) {
		t.Fatalf("expected *types.Error, got %v", err)
	}
	if serr.Position != 2 {
		t.Errorf("expected error at position 2, got %d", serr.Position)
	}
}

func TestParseMaxDepth(t *testing.T) {
	deep := strings.Repeat("(", 20) + "1"
	if _, err := parser.Parse(deep, parser.WithMaxDepth(10)); err == nil {
		t.Fatal("expected nesting depth error")
	}

	// Path step chains stay flat and do not count against the depth.
	long := "a" + strings.Repeat(".b", 50)
	if _, err := parser.Parse(long, parser.WithMaxDepth(10)); err != nil {
		t.Fatalf("long path should parse: %v", err)
	}
}

func TestParseSourceRetained(t *testing.T) {
	expr, err := parser.Parse("a.b[0]")
	if err != nil {
		t.Fatal(err)
	}
	if expr.Source() != "a.b[0]" {
		t.Errorf("expected source to round-trip, got %q", expr.Source())
	}
}

// TestParseDumpGolden pins the dump of a representative query set.
func TestParseDumpGolden(t *testing.T) {
	queries := []string{
		"a",
		"a.b.c",
		"a[0].b",
		"a[-1]",
		"a[?_ > 1]",
		"a[1:3:2]",
		"a[:2]",
		"a[0, 2, 4]",
		"a..b.c",
		"**.name",
		"1 + 2 * 3",
		"(1 + 2) * 3",
		"a and b or not c",
		`typeof a == "int"`,
		"a as float",
		"count(a[*]) > 2",
		`split("a,b", ",")`,
		"_ % 2 == 0",
		`b["x"]`,
		"a[*]{_ > 0}",
	}

	var b strings.Builder
	for _, q := range queries {
		fmt.Fprintf(&b, "%s => %s\n", q, parseDump(t, q))
	}

	g := goldie.New(t)
	g.Assert(t, "ast_dump", []byte(b.String()))
}
