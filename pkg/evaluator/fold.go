package evaluator

import (
	"github.com/Klebert-Engineering/simfil/pkg/types"
)

// foldLimit caps how many values a constant sub-expression may produce
// at compile time. Larger producers (e.g. huge ranges) stay unfolded
// and evaluate lazily instead.
const foldLimit = 1024

// Fold performs compile-time constant folding: sub-trees that do not
// touch the model evaluate once during compilation and collapse into
// literal nodes. Errors raised by constant sub-trees (e.g. a division
// by zero in plain literals) become compile errors.
func (e *Env) Fold(n *types.ASTNode) (*types.ASTNode, error) {
	if n == nil {
		return nil, nil
	}

	// Fold bottom-up so parent constness sees folded children.
	var err error
	for _, child := range []**types.ASTNode{&n.LHS, &n.RHS, &n.Start, &n.End, &n.Step} {
		if *child, err = e.Fold(*child); err != nil {
			return nil, err
		}
	}
	for i := range n.Steps {
		if n.Steps[i], err = e.Fold(n.Steps[i]); err != nil {
			return nil, err
		}
	}
	for i := range n.Arguments {
		if n.Arguments[i], err = e.Fold(n.Arguments[i]); err != nil {
			return nil, err
		}
	}

	if n.Type == types.NodeLiteral || n.Type == types.NodeMultiLiteral || !e.isConstant(n) {
		return n, nil
	}

	vals, folded, err := e.evalConst(n)
	if err != nil {
		return nil, err
	}
	if !folded {
		return n, nil
	}

	if len(vals) == 1 {
		lit := types.NewASTNode(types.NodeLiteral, n.Position)
		lit.Val = vals[0]
		return lit, nil
	}
	multi := types.NewASTNode(types.NodeMultiLiteral, n.Position)
	multi.Vals = vals
	return multi, nil
}

// isConstant reports whether n evaluates independently of the model and
// the context value.
func (e *Env) isConstant(n *types.ASTNode) bool {
	switch n.Type {
	case types.NodeLiteral, types.NodeMultiLiteral:
		return true
	case types.NodeUnary:
		return e.isConstant(n.LHS)
	case types.NodeBinary, types.NodeAnd, types.NodeOr:
		return e.isConstant(n.LHS) && e.isConstant(n.RHS)
	case types.NodeCall:
		fn := e.registry.Resolve(n.StrValue)
		if fn == nil || !fn.Pure {
			return false
		}
		for _, arg := range n.Arguments {
			if !e.isConstant(arg) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// evalConst evaluates a constant sub-tree against no model. folded is
// false when the result exceeds foldLimit.
func (e *Env) evalConst(n *types.ASTNode) (vals []types.Value, folded bool, err error) {
	ev := &evalState{env: e}
	overflow := false
	ev.eval(n, types.Null(), func(v types.Value) bool {
		if v.IsError() {
			err = v.Err
			return false
		}
		if len(vals) >= foldLimit {
			overflow = true
			return false
		}
		vals = append(vals, v)
		return true
	})
	if err != nil {
		return nil, false, err
	}
	return vals, !overflow, nil
}
