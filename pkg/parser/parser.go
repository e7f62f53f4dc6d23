// Package parser implements the simfil query parser.
//
// The parser is a hand-written recursive descent parser using Pratt's
// "Top Down Operator Precedence" algorithm. Chained path steps (.field,
// [subscript], {sub-select}, recursive descent) are folded into a single
// path node with a flat step list, so tree depth stays proportional to
// operator nesting rather than path length.
//
// # Example
//
//	expr, err := parser.Parse("a.b[?_ > 1]")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ast := expr.AST()
package parser

import (
	"github.com/Klebert-Engineering/simfil/pkg/types"
)

// Parse parses a query and returns the compiled Expression.
//
// The function tokenizes the input and builds an AST. If parsing fails,
// it returns a *types.Error with position information.
func Parse(query string, opts ...CompileOption) (*types.Expression, error) {
	p := NewParser(query, opts...)
	return p.Parse()
}

// CompileOption configures parser behavior.
type CompileOption func(*CompileOptions)

// CompileOptions holds parser configuration.
type CompileOptions struct {
	// MaxDepth limits operator nesting depth to prevent stack overflow
	// on adversarial input.
	MaxDepth int
}

// WithMaxDepth sets the maximum parsing depth.
func WithMaxDepth(depth int) CompileOption {
	return func(opts *CompileOptions) {
		opts.MaxDepth = depth
	}
}
