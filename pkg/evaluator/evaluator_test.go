package evaluator_test

import (
	"testing"

	"github.com/Klebert-Engineering/simfil/pkg/evaluator"
	"github.com/Klebert-Engineering/simfil/pkg/jsonmodel"
	"github.com/Klebert-Engineering/simfil/pkg/model"
	"github.com/Klebert-Engineering/simfil/pkg/parser"
	"github.com/Klebert-Engineering/simfil/pkg/types"
)

// testPool builds a model pool from a JSON document.
func testPool(t *testing.T, doc string) *model.Pool {
	t.Helper()
	p, err := jsonmodel.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("invalid test document: %v", err)
	}
	return p
}

// evalQuery parses and evaluates a query, returning all result values.
func evalQuery(t *testing.T, env *evaluator.Env, query string, m model.Model) []types.Value {
	t.Helper()
	expr, err := parser.Parse(query)
	if err != nil {
		t.Fatalf("failed to parse %q: %v", query, err)
	}
	return env.EvalAll(expr, m)
}

// checkResults compares the Repr of every result against want.
func checkResults(t *testing.T, query string, m model.Model, want []string) {
	t.Helper()
	vals := evalQuery(t, evaluator.NewEnv(), query, m)
	if len(vals) != len(want) {
		t.Fatalf("%q: expected %d results %v, got %d: %v", query, len(want), want, len(vals), vals)
	}
	for i, v := range vals {
		if got := v.Repr(); got != want[i] {
			t.Errorf("%q: result %d: expected %s, got %s", query, i, want[i], got)
		}
	}
}

// checkError expects a single error-variant result with the given code.
func checkError(t *testing.T, query string, m model.Model, code types.ErrorCode) {
	t.Helper()
	vals := evalQuery(t, evaluator.NewEnv(), query, m)
	if len(vals) != 1 || !vals[0].IsError() {
		t.Fatalf("%q: expected one error result, got %v", query, vals)
	}
	if vals[0].Err.Code != code {
		t.Errorf("%q: expected error code %s, got %s", query, code, vals[0].Err.Code)
	}
}

func TestEvalPaths(t *testing.T) {
	doc := testPool(t, `{"a": [1, 2, 3], "b": {"x": 1}}`)

	tests := []struct {
		query string
		want  []string
	}{
		{"a[*]", []string{"1", "2", "3"}},
		{"b.x", []string{"1"}},
		{"b.y", []string{}},
		{"a[-1]", []string{"3"}},
		{"a[?@ > 1]", []string{"2", "3"}},
		{"a", []string{"array[3]"}},
		{"_", []string{"object{2}"}},
		{"a[0]", []string{"1"}},
		{"a[3]", []string{}},
		{"a[-4]", []string{}},
		{"a.b", []string{}}, // field on an array
		{"b.X", []string{"1"}},
		{`b["x"]`, []string{"1"}},
		{"*", []string{"array[3]", "object{1}"}},
		{"a[0, 2]", []string{"1", "3"}},
		{"a[?_ % 2 == 1]", []string{"1", "3"}},
		{"a{_ > 2}", []string{"3"}},
		{"**", []string{"object{2}", "array[3]", "1", "2", "3", "object{1}", "1"}},
		{"..x", []string{"1"}},
		{"a..*", []string{"1", "2", "3"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			checkResults(t, tt.query, doc, tt.want)
		})
	}
}

func TestEvalSlices(t *testing.T) {
	doc := testPool(t, `{"a": [1, 2, 3]}`)

	tests := []struct {
		query string
		want  []string
	}{
		{"a[1:]", []string{"2", "3"}},
		{"a[:2]", []string{"1", "2"}},
		{"a[1:100]", []string{"2", "3"}},
		{"a[5:]", []string{}},
		{"a[-2:]", []string{"2", "3"}},
		{"a[::2]", []string{"1", "3"}},
		{"a[::-1]", []string{"3", "2", "1"}},
		{"a[1::-1]", []string{"2", "1"}},
		{"a[:]", []string{"1", "2", "3"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			checkResults(t, tt.query, doc, tt.want)
		})
	}

	t.Run("zero step", func(t *testing.T) {
		checkError(t, "a[::0]", doc, types.ErrType)
	})
	t.Run("non-integer bound", func(t *testing.T) {
		checkError(t, `a["x":]`, doc, types.ErrType)
	})
}

// Subscript index expressions evaluate against the value the whole path
// was applied to, not against the array being indexed.
func TestEvalIndexContext(t *testing.T) {
	doc := testPool(t, `{"i": 1, "c": [10, 20, 30]}`)

	checkResults(t, "c[i]", doc, []string{"20"})
	checkResults(t, "c[i + 1]", doc, []string{"30"})
	checkResults(t, "c[?_ >= 20]", doc, []string{"20", "30"})
}

// Filters fan out: a container is filtered child by child, with each
// child as the condition's context, while a scalar stands for itself.
func TestEvalFilterFanOut(t *testing.T) {
	doc := testPool(t, `{"a": [1, 2, 3], "o": {"x": 1, "y": 5}}`)

	checkResults(t, "a[?@ > 1]", doc, []string{"2", "3"})
	checkResults(t, "o[?_ > 2]", doc, []string{"5"})
	checkResults(t, "a[0][?_ > 0]", doc, []string{"1"})
	checkResults(t, "a[0][?_ > 5]", doc, []string{})
	checkResults(t, "a[*][?_ != 2]", doc, []string{"1", "3"})
}

func TestEvalIndexTypeError(t *testing.T) {
	doc := testPool(t, `{"a": [1, 2, 3]}`)
	checkError(t, "a[true]", doc, types.ErrType)
}

func TestEvalArithmetic(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"1 + 2", []string{"3"}},
		{"1 + 2.5", []string{"3.5"}},
		{`"a" + 1`, []string{`"a1"`}},
		{`1 + "a"`, []string{`"1a"`}},
		{"2 * 3.5", []string{"7"}},
		{"10 / 4", []string{"2"}},
		{"10.0 / 4", []string{"2.5"}},
		{"7 % 3", []string{"1"}},
		{"1 + null", []string{"null"}},
		{"null * 2", []string{"null"}},
		{"1 << 3", []string{"8"}},
		{"6 & 3", []string{"2"}},
		{"6 | 3", []string{"7"}},
		{"6 ^ 3", []string{"5"}},
		{"~0", []string{"-1"}},
		{"null & 1", []string{"null"}},
		{"-5", []string{"-5"}},
		{"-2.5", []string{"-2.5"}},
		{"-null", []string{"null"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			checkResults(t, tt.query, nil, tt.want)
		})
	}
}

func TestEvalArithmeticErrors(t *testing.T) {
	tests := []struct {
		query string
		code  types.ErrorCode
	}{
		{"1 / 0", types.ErrDivZero},
		{"1 % 0", types.ErrDivZero},
		{"1.0 / 0.0", types.ErrDivZero},
		{"1 << 64", types.ErrType},
		{`1 - "a"`, types.ErrType},
		{`true + true`, types.ErrType},
		{`-"a"`, types.ErrType},
		{"~1.5", types.ErrType},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			checkError(t, tt.query, nil, tt.code)
		})
	}
}

func TestEvalComparisons(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"1 < 2", "true"},
		{"2 <= 2", "true"},
		{"3 > 2.5", "true"},
		{`"a" < "b"`, "true"},
		{"1 == 1.0", "true"},
		{`1 == "1"`, "false"},
		{"null == null", "true"},
		{"null != 1", "true"},
		// null orders below everything
		{"null < 1", "true"},
		{"1 < null", "false"},
		{"null <= null", "true"},
		{"null > null", "false"},
		// incompatible comparisons are false, not errors
		{`1 < "a"`, "false"},
		{`"a" >= 1`, "false"},
		{"true < 1", "false"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			checkResults(t, tt.query, nil, []string{tt.want})
		})
	}
}

func TestEvalNodeEquality(t *testing.T) {
	doc := testPool(t, `{"a": [1], "b": [1]}`)

	// Containers compare by node identity.
	checkResults(t, "a == a", doc, []string{"true"})
	checkResults(t, "a == b", doc, []string{"false"})
}

func TestEvalLogical(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		// and/or select one of their operand values
		{"1 and 2", "2"},
		{"1 or 2", "1"},
		{`null or "x"`, `"x"`},
		{`"" and 1`, `""`},
		// Numbers are truthy regardless of value
		{"0 and 2", "2"},
		{"0 or 2", "0"},
		{"0.0 or 2", "0"},
		{"not 0", "false"},
		{"not 0.0", "false"},
		{`not ""`, "true"},
		{"not null", "true"},
		{"not 3", "false"},
		{"1?", "true"},
		{"0?", "true"},
		{"null?", "false"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			checkResults(t, tt.query, nil, []string{tt.want})
		})
	}
}

func TestEvalTypeofAndLength(t *testing.T) {
	doc := testPool(t, `{"a": [1, 2, 3], "b": {"x": 1}}`)

	tests := []struct {
		query string
		want  string
	}{
		{"typeof 1", `"int"`},
		{"typeof 1.5", `"float"`},
		{`typeof "s"`, `"string"`},
		{"typeof null", `"null"`},
		{"typeof true", `"bool"`},
		{"typeof a", `"array"`},
		{"typeof b", `"object"`},
		{`#"abc"`, "3"},
		{`#"héllo"`, "5"},
		{"#a", "3"},
		{"#b", "1"},
		{"#null", "null"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			checkResults(t, tt.query, doc, []string{tt.want})
		})
	}
}

func TestEvalCasts(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{`"42" as int`, "42"},
		{`" 42 " as int`, "42"},
		{"3.9 as int", "3"},
		{"true as int", "1"},
		{`"1.5" as float`, "1.5"},
		{"2 as float", "2"},
		{"1 as string", `"1"`},
		{"1.5 as string", `"1.5"`},
		{"null as int", "null"},
		{"1 as bool", "true"},
		{"0 as bool", "false"},
		{"0.0 as bool", "false"},
		{"null as bool", "null"},
		{`"" as bool`, "false"},
		{"5 as null", "null"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			checkResults(t, tt.query, nil, []string{tt.want})
		})
	}

	t.Run("unparseable int", func(t *testing.T) {
		checkError(t, `"x" as int`, nil, types.ErrType)
	})
	t.Run("container to string", func(t *testing.T) {
		doc := testPool(t, `{"a": [1]}`)
		checkError(t, "a as string", doc, types.ErrType)
	})
}

func TestEvalCrossProduct(t *testing.T) {
	doc := testPool(t, `{"a": [1, 2, 3]}`)

	checkResults(t, "a[*] + 10", doc, []string{"11", "12", "13"})
	checkResults(t, "a[*] > 1", doc, []string{"false", "true", "true"})
	checkResults(t, "a[*] * a[*]", doc, []string{
		"1", "2", "3",
		"2", "4", "6",
		"3", "6", "9",
	})
}

// Errors are scoped to the branch that produced them; sibling values
// still evaluate.
func TestEvalErrorScoping(t *testing.T) {
	vals := evalQuery(t, evaluator.NewEnv(), "arr(1/0, 2)", nil)
	if len(vals) != 2 {
		t.Fatalf("expected 2 results, got %v", vals)
	}
	if !vals[0].IsError() || vals[0].Err.Code != types.ErrDivZero {
		t.Errorf("expected division error first, got %v", vals[0])
	}
	if vals[1].Repr() != "2" {
		t.Errorf("expected second result 2, got %v", vals[1])
	}
}

func TestEvalErrorPassthrough(t *testing.T) {
	checkError(t, "(1/0) == 1", nil, types.ErrDivZero)
	checkError(t, "not (1 << 64)", nil, types.ErrType)
}

// An unknown function surfaces as a lookup error value when evaluation
// bypasses compile-time validation.
func TestEvalUnknownFunction(t *testing.T) {
	checkError(t, "nope(1)", nil, types.ErrLookup)
}

func TestEvalNilModel(t *testing.T) {
	checkResults(t, "_", nil, []string{"null"})
	checkResults(t, "a.b", nil, []string{})
	checkResults(t, "1 + 2", nil, []string{"3"})
}

// Breaking out of the result sequence must stop evaluation early.
func TestEvalLazyCancellation(t *testing.T) {
	env := evaluator.NewEnv()
	expr, err := parser.Parse("range(1, 1000000)")
	if err != nil {
		t.Fatal(err)
	}

	var got []types.Value
	for v := range env.Evaluate(expr, nil) {
		got = append(got, v)
		if len(got) == 3 {
			break
		}
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}
	if got[2].Repr() != "3" {
		t.Errorf("expected third result 3, got %s", got[2].Repr())
	}
}

func TestEvalWarnings(t *testing.T) {
	env := evaluator.NewEnv()
	vals := evalQuery(t, env, `trace("lbl", range(1, 3))`, nil)
	if len(vals) != 3 {
		t.Fatalf("trace must pass values through, got %v", vals)
	}

	warnings := env.Warnings()
	if len(warnings) != 3 {
		t.Fatalf("expected 3 warnings, got %d", len(warnings))
	}
	if warnings[0].Message != "lbl" || warnings[0].Detail != "1" {
		t.Errorf("unexpected warning: %+v", warnings[0])
	}
}
