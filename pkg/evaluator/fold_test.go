package evaluator_test

import (
	"errors"
	"testing"

	"github.com/Klebert-Engineering/simfil/pkg/evaluator"
	"github.com/Klebert-Engineering/simfil/pkg/parser"
	"github.com/Klebert-Engineering/simfil/pkg/types"
)

// foldDump parses, folds and dumps a query.
func foldDump(t *testing.T, query string) string {
	t.Helper()
	expr, err := parser.Parse(query)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	folded, err := evaluator.NewEnv().Fold(expr.AST())
	if err != nil {
		t.Fatalf("fold failed: %v", err)
	}
	return folded.Dump()
}

func TestFoldConstants(t *testing.T) {
	tests := []struct {
		query string
		dump  string
	}{
		{"1 + 2 * 3", "7"},
		{"-1", "-1"},
		{`"a" + "b"`, `"ab"`},
		{"not false", "true"},
		{"1 < 2 and 3 < 4", "true"},
		{"typeof 1", `"int"`},
		{`"42" as int`, "42"},
		{"range(1, 3)", "(multi 1 2 3)"},
		{"count(range(1, 10))", "10"},
		{"sum(range(1, 4))", "10"},
		{"contains(\"hello\", \"ell\")", "true"},

		// Anything touching the model stays unfolded.
		{"a + 1", "(+ a 1)"},
		{"a[?_ > 1]", "(. a (filter (> _ 1)))"},
		{"count(a[*])", "(count (. a *))"},

		// Constant sub-trees fold inside larger expressions.
		{"a + 2 * 3", "(+ a 6)"},
		{"a[1 + 1]", "(. a (index 2))"},
		{"a[?_ > 2 + 3]", "(. a (filter (> _ 5)))"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			if got := foldDump(t, tt.query); got != tt.dump {
				t.Errorf("expected %s, got %s", tt.dump, got)
			}
		})
	}
}

// A constant expression that raises an error fails the fold, turning
// runtime errors in plain literals into compile errors.
func TestFoldErrors(t *testing.T) {
	tests := []struct {
		query string
		code  types.ErrorCode
	}{
		{"1 / 0", types.ErrDivZero},
		{"a + 1 / 0", types.ErrDivZero},
		{`-"x"`, types.ErrType},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			expr, err := parser.Parse(tt.query)
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			_, err = evaluator.NewEnv().Fold(expr.AST())
			var serr *types.Error
			if !errors.As(err, &serr) || serr.Code != tt.code {
				t.Fatalf("expected fold error %s, got %v", tt.code, err)
			}
		})
	}
}

// Oversized constant producers stay unfolded and evaluate lazily.
func TestFoldLimit(t *testing.T) {
	if got := foldDump(t, "range(1, 100000)"); got != "(range 1 100000)" {
		t.Errorf("large range should stay unfolded, got %s", got)
	}
}

// Impure functions never fold, even with constant arguments.
func TestFoldImpure(t *testing.T) {
	if got := foldDump(t, `trace("x", 1)`); got != `(trace "x" 1)` {
		t.Errorf("trace should stay unfolded, got %s", got)
	}
}
