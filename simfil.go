// Package simfil is an embeddable query and filter language for
// tree-shaped data.
//
// A query is compiled once into an immutable expression and then
// evaluated lazily against any data model, yielding a sequence of
// result values. Data is accessed through the model.Model interface;
// the jsonmodel and yamlmodel packages provide ready-made backends.
//
// # Quick Start
//
//	// Compile once, evaluate many times
//	expr, err := simfil.Compile("a[?_ > 1]")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	pool, _ := jsonmodel.Parse(doc)
//	for v := range simfil.Evaluate(expr, pool) {
//	    fmt.Println(v)
//	}
//
//	// One-shot evaluation with expression caching
//	results, err := simfil.Eval("a.b", pool)
//
// Custom functions register on an environment before its first use:
//
//	env := simfil.NewEnv()
//	env.Registry().Register(&evaluator.Function{...})
//	expr, err := simfil.CompileWith(env, "myFn(a)")
//
// # More Information
//
// For detailed documentation, see:
//   - Parser: github.com/Klebert-Engineering/simfil/pkg/parser
//   - Evaluator: github.com/Klebert-Engineering/simfil/pkg/evaluator
//   - Model: github.com/Klebert-Engineering/simfil/pkg/model
//   - Codec: github.com/Klebert-Engineering/simfil/pkg/codec
package simfil

import (
	"fmt"

	"github.com/Klebert-Engineering/simfil/pkg/cache"
	"github.com/Klebert-Engineering/simfil/pkg/evaluator"
	"github.com/Klebert-Engineering/simfil/pkg/model"
	"github.com/Klebert-Engineering/simfil/pkg/parser"
	"github.com/Klebert-Engineering/simfil/pkg/types"
)

// Version returns the current library version.
func Version() string {
	return "v0.1.0-dev"
}

var (
	defaultEnv = evaluator.NewEnv()
	exprCache  = cache.New[*types.Expression](256)
)

// NewEnv creates a fresh evaluation environment with the built-in
// functions registered. Use it to isolate custom functions or warning
// collection from the package-level default.
func NewEnv() *evaluator.Env {
	return evaluator.NewEnv()
}

// Compile compiles a query for repeated evaluation against the default
// environment: parse, call validation and constant folding. The
// compiled expression is immutable and safe for concurrent use.
func Compile(query string, opts ...parser.CompileOption) (*types.Expression, error) {
	return CompileWith(defaultEnv, query, opts...)
}

// CompileWith compiles a query against a specific environment, whose
// registry resolves the function calls in the query.
func CompileWith(env *evaluator.Env, query string, opts ...parser.CompileOption) (*types.Expression, error) {
	expr, err := parser.Parse(query, opts...)
	if err != nil {
		return nil, err
	}

	if err := env.Registry().Validate(expr.AST()); err != nil {
		return nil, err
	}

	folded, err := env.Fold(expr.AST())
	if err != nil {
		return nil, err
	}
	return expr.WithAST(folded), nil
}

// MustCompile is like Compile but panics if the query cannot be
// compiled. It simplifies safe initialization of global variables.
func MustCompile(query string) *types.Expression {
	expr, err := Compile(query)
	if err != nil {
		panic(fmt.Sprintf("simfil: Compile(%q): %v", query, err))
	}
	return expr
}

// Evaluate returns the lazy result sequence of a compiled expression
// against m, using the default environment. Breaking out of the range
// loop cancels all remaining work.
func Evaluate(expr *types.Expression, m model.Model) evaluator.Seq {
	return defaultEnv.Evaluate(expr, m)
}

// Eval compiles and eagerly evaluates a query in one call. Compiled
// expressions are cached per query string, so repeated one-shot calls
// do not re-parse.
func Eval(query string, m model.Model) ([]types.Value, error) {
	expr, err := exprCache.GetOrCreate(query, func() (*types.Expression, error) {
		return Compile(query)
	})
	if err != nil {
		return nil, err
	}
	return defaultEnv.EvalAll(expr, m), nil
}
