package types

import "strings"

// NodeType identifies the type of an AST node.
type NodeType string

// AST node types.
const (
	// Literals
	NodeLiteral      NodeType = "literal" // single constant value
	NodeMultiLiteral NodeType = "multi"   // constant-folded sequence

	// Path steps
	NodeSelf     NodeType = "self"     // _ or @
	NodeField    NodeType = "field"    // name
	NodeWildcard NodeType = "wildcard" // *
	NodeDescend  NodeType = "descend"  // ** or ..
	NodeIndex    NodeType = "index"    // [expr]
	NodeSlice    NodeType = "slice"    // [start:end:step]
	NodeFilter   NodeType = "filter"   // [?cond] or {cond}
	NodeUnion    NodeType = "union"    // [e1, e2, ...]

	// Operators
	NodeUnary  NodeType = "unary"  // not, -, ~, #, typeof, ?, casts
	NodeBinary NodeType = "binary" // arithmetic, comparison, bitwise
	NodeAnd    NodeType = "and"    // short-circuit value selector
	NodeOr     NodeType = "or"     // short-circuit value selector

	// Composite
	NodeCall NodeType = "call" // name(args...)
	NodePath NodeType = "path" // chained steps, flat
)

// ASTNode is one node of a parsed expression tree. Nodes are immutable
// after parsing; a tree is shared freely across goroutines.
//
// Chained path steps are folded into a single NodePath whose Steps slice
// holds one node per step, so tree depth is bounded by the step count
// rather than by grammar recursion.
type ASTNode struct {
	Type     NodeType
	Position int

	Val      Value   // NodeLiteral
	Vals     []Value // NodeMultiLiteral
	StrValue string  // field name, call name, operator symbol

	LHS       *ASTNode   // binary lhs; operand of unary, index, filter
	RHS       *ASTNode   // binary rhs
	Steps     []*ASTNode // NodePath
	Arguments []*ASTNode // call arguments, union sub-expressions

	Start *ASTNode // NodeSlice bounds, nil when omitted
	End   *ASTNode
	Step  *ASTNode
}

// NewASTNode creates a new AST node of the specified type.
// Prefer NodeArena.Alloc when parsing to reduce per-node heap allocations.
func NewASTNode(nodeType NodeType, position int) *ASTNode {
	return &ASTNode{
		Type:     nodeType,
		Position: position,
	}
}

// Dump renders the tree as an S-expression, the canonical form used by
// tests and the CLI's ast command. Examples:
//
//	a.b       -> (. a b)
//	a[0]      -> (. a (index 0))
//	a[?_ > 1] -> (. a (filter (> _ 1)))
func (n *ASTNode) Dump() string {
	var b strings.Builder
	n.dump(&b)
	return b.String()
}

func (n *ASTNode) dump(b *strings.Builder) {
	switch n.Type {
	case NodeLiteral:
		b.WriteString(n.Val.Repr())
	case NodeMultiLiteral:
		b.WriteString("(multi")
		for _, v := range n.Vals {
			b.WriteByte(' ')
			b.WriteString(v.Repr())
		}
		b.WriteByte(')')
	case NodeSelf:
		b.WriteByte('_')
	case NodeField:
		b.WriteString(n.StrValue)
	case NodeWildcard:
		b.WriteByte('*')
	case NodeDescend:
		b.WriteString("**")
	case NodeIndex:
		b.WriteString("(index ")
		n.LHS.dump(b)
		b.WriteByte(')')
	case NodeSlice:
		b.WriteString("(slice")
		for _, bound := range []*ASTNode{n.Start, n.End, n.Step} {
			b.WriteByte(' ')
			if bound == nil {
				b.WriteByte('_')
			} else {
				bound.dump(b)
			}
		}
		b.WriteByte(')')
	case NodeFilter:
		b.WriteString("(filter ")
		n.LHS.dump(b)
		b.WriteByte(')')
	case NodeUnion:
		b.WriteString("(union")
		for _, sub := range n.Arguments {
			b.WriteByte(' ')
			sub.dump(b)
		}
		b.WriteByte(')')
	case NodeUnary:
		b.WriteByte('(')
		b.WriteString(n.StrValue)
		b.WriteByte(' ')
		n.LHS.dump(b)
		b.WriteByte(')')
	case NodeBinary:
		b.WriteByte('(')
		b.WriteString(n.StrValue)
		b.WriteByte(' ')
		n.LHS.dump(b)
		b.WriteByte(' ')
		n.RHS.dump(b)
		b.WriteByte(')')
	case NodeAnd, NodeOr:
		b.WriteByte('(')
		b.WriteString(string(n.Type))
		b.WriteByte(' ')
		n.LHS.dump(b)
		b.WriteByte(' ')
		n.RHS.dump(b)
		b.WriteByte(')')
	case NodeCall:
		b.WriteByte('(')
		b.WriteString(n.StrValue)
		for _, arg := range n.Arguments {
			b.WriteByte(' ')
			arg.dump(b)
		}
		b.WriteByte(')')
	case NodePath:
		b.WriteString("(.")
		for _, step := range n.Steps {
			b.WriteByte(' ')
			step.dump(b)
		}
		b.WriteByte(')')
	}
}

// String returns a string representation of the node type.
func (n *ASTNode) String() string {
	return string(n.Type)
}

// arenaChunkSize is the number of ASTNode values pre-allocated per arena
// chunk. Most expressions fit in a single chunk.
const arenaChunkSize = 64

// NodeArena is a bump-pointer allocator for ASTNode values. The parser
// allocates all nodes of one expression from one arena, so a typical
// parse costs a single chunk allocation instead of one heap object per
// node.
//
// The arena must stay alive as long as any pointer returned by Alloc is
// reachable; attaching it to the [Expression] achieves this. Not safe
// for concurrent use; each parser owns its own arena.
type NodeArena struct {
	chunks [][]ASTNode
	pos    int // next free index in the last chunk
}

// NewNodeArena allocates an arena pre-warmed with one initial chunk.
func NewNodeArena() *NodeArena {
	return &NodeArena{
		chunks: [][]ASTNode{make([]ASTNode, arenaChunkSize)},
	}
}

// Alloc returns a pointer to a zero-valued ASTNode inside the arena with
// Type and Position set. All other fields remain zero and must be filled
// by the caller.
func (a *NodeArena) Alloc(nodeType NodeType, position int) *ASTNode {
	if a.pos >= arenaChunkSize {
		a.chunks = append(a.chunks, make([]ASTNode, arenaChunkSize))
		a.pos = 0
	}
	n := &a.chunks[len(a.chunks)-1][a.pos]
	a.pos++
	n.Type = nodeType
	n.Position = position
	return n
}
