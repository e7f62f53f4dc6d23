// Package types defines the core types shared by the simfil packages:
// compiled expressions, AST nodes, runtime values and structured errors.
package types

// Expression is a compiled query.
//
// An Expression can be evaluated any number of times against different
// models and is safe for concurrent use by multiple goroutines.
type Expression struct {
	ast    *ASTNode
	source string
	arena  *NodeArena
}

// NewExpression creates an Expression from a parsed AST. The arena, if
// any, is retained so node storage stays alive with the expression.
func NewExpression(ast *ASTNode, source string, arena *NodeArena) *Expression {
	return &Expression{
		ast:    ast,
		source: source,
		arena:  arena,
	}
}

// WithAST returns a copy of the expression with a different root,
// keeping the source text and node storage. Used after compile-time
// rewrites such as constant folding.
func (e *Expression) WithAST(ast *ASTNode) *Expression {
	return &Expression{
		ast:    ast,
		source: e.source,
		arena:  e.arena,
	}
}

// AST returns the root of the expression tree.
func (e *Expression) AST() *ASTNode {
	return e.ast
}

// Source returns the original query text. Expressions decoded from the
// binary form have an empty source.
func (e *Expression) Source() string {
	return e.source
}

// Dump returns the S-expression rendering of the tree.
func (e *Expression) Dump() string {
	return e.ast.Dump()
}

// String returns the original query text.
func (e *Expression) String() string {
	return e.source
}
