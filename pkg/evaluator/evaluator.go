// Package evaluator implements lazy evaluation of compiled queries
// against a data model.
//
// Evaluation is pull-driven: Evaluate returns an iter.Seq that produces
// result values on demand. Sub-expressions fan out relative to their
// context, and a consumer that stops pulling stops the whole pipeline,
// which is the engine's cancellation mechanism. Runtime type errors do
// not abort evaluation; they appear as error-variant values scoped to
// the branch that produced them.
package evaluator

import (
	"fmt"
	"iter"
	"slices"
	"sync"

	"github.com/Klebert-Engineering/simfil/pkg/model"
	"github.com/Klebert-Engineering/simfil/pkg/types"
)

// Seq is a lazy sequence of result values.
type Seq = iter.Seq[types.Value]

// Warning is a non-fatal diagnostic collected during evaluation.
type Warning struct {
	Message string
	Detail  string
}

// Env is an evaluation environment: the function registry plus
// collected warnings. An Env is safe for concurrent evaluations; the
// registry must not be modified once evaluations have started.
type Env struct {
	registry *Registry

	mu       sync.Mutex
	warnings []Warning
}

// NewEnv creates an environment with all built-in functions registered.
func NewEnv() *Env {
	return &Env{registry: NewRegistry()}
}

// Registry returns the environment's function registry, e.g. to
// register custom functions before the first evaluation.
func (e *Env) Registry() *Registry {
	return e.registry
}

// Warn records a runtime warning.
func (e *Env) Warn(message, detail string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.warnings = append(e.warnings, Warning{Message: message, Detail: detail})
}

// Warnings returns a copy of the warnings collected so far.
func (e *Env) Warnings() []Warning {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.warnings)
}

// Evaluate returns the lazy result sequence of expr against m. The
// expression is evaluated anew each time the sequence is ranged over;
// breaking out of the range loop stops all upstream work.
func (e *Env) Evaluate(expr *types.Expression, m model.Model) Seq {
	return func(yield func(types.Value) bool) {
		ev := &evalState{env: e, model: m}
		ev.eval(expr.AST(), rootValue(m), yield)
	}
}

// EvalAll evaluates expr eagerly and returns all results, including
// error-variant elements.
func (e *Env) EvalAll(expr *types.Expression, m model.Model) []types.Value {
	return slices.Collect(e.Evaluate(expr, m))
}

// rootValue is the evaluation context for a whole query: the model
// root, or null for an empty model.
func rootValue(m model.Model) types.Value {
	if m == nil {
		return types.Null()
	}
	root, ok := m.Root()
	if !ok {
		return types.Null()
	}
	return types.NodeVal(m, root)
}

// evalState carries per-evaluation state. One instance serves one
// ranging of the result sequence; it is never shared across goroutines.
type evalState struct {
	env   *Env
	model model.Model
}

// eval produces the results of n in the context value val. It calls
// yield for every result and returns false as soon as the consumer
// stops pulling, which every caller must propagate.
func (ev *evalState) eval(n *types.ASTNode, val types.Value, yield func(types.Value) bool) bool {
	switch n.Type {
	case types.NodeLiteral:
		return yield(n.Val)

	case types.NodeMultiLiteral:
		for _, v := range n.Vals {
			if !yield(v) {
				return false
			}
		}
		return true

	case types.NodeSelf:
		return yield(val)

	case types.NodeField:
		return ev.evalField(n.StrValue, val, yield)

	case types.NodeWildcard:
		return ev.evalWildcard(val, yield)

	case types.NodeDescend:
		return ev.evalDescend(val, yield)

	case types.NodePath:
		return ev.evalSteps(n.Steps, val, val, yield)

	case types.NodeIndex, types.NodeSlice, types.NodeFilter, types.NodeUnion:
		// Standalone subscript applied directly to the context.
		return ev.evalStep(n, val, val, yield)

	case types.NodeUnary:
		return ev.evalUnary(n, val, yield)

	case types.NodeBinary:
		return ev.evalBinary(n, val, yield)

	case types.NodeAnd:
		return ev.evalAnd(n, val, yield)

	case types.NodeOr:
		return ev.evalOr(n, val, yield)

	case types.NodeCall:
		return ev.evalCall(n, val, yield)
	}
	return true
}

// evalField resolves a member of the context object. A missing field or
// a non-object context yields nothing.
func (ev *evalState) evalField(name string, val types.Value, yield func(types.Value) bool) bool {
	if !val.HasNode() || val.Kind != types.KindObject {
		return true
	}
	child, ok := val.Model.Get(val.Node, name)
	if !ok {
		return true
	}
	return yield(types.NodeVal(val.Model, child))
}

// evalWildcard yields every direct child of the context container.
func (ev *evalState) evalWildcard(val types.Value, yield func(types.Value) bool) bool {
	if !val.HasNode() {
		return true
	}
	for _, child := range val.Model.Children(val.Node) {
		if !yield(types.NodeVal(val.Model, child)) {
			return false
		}
	}
	return true
}

// evalDescend yields the context value itself plus every descendant,
// pre-order depth-first. The traversal is deterministic because model
// child iteration is.
func (ev *evalState) evalDescend(val types.Value, yield func(types.Value) bool) bool {
	if !yield(val) {
		return false
	}
	if !val.HasNode() {
		return true
	}
	for _, child := range val.Model.Children(val.Node) {
		if !ev.evalDescend(types.NodeVal(val.Model, child), yield) {
			return false
		}
	}
	return true
}

// evalSteps threads the scope through a path's step list: every value
// produced by a step becomes the context for the remaining steps.
// pathCtx is the value the whole path was invoked with; subscript index
// expressions evaluate against it.
func (ev *evalState) evalSteps(steps []*types.ASTNode, pathCtx, val types.Value, yield func(types.Value) bool) bool {
	if len(steps) == 0 {
		return yield(val)
	}
	step, rest := steps[0], steps[1:]
	return ev.evalStep(step, pathCtx, val, func(v types.Value) bool {
		return ev.evalSteps(rest, pathCtx, v, yield)
	})
}

// evalStep applies one path step to one scope value.
func (ev *evalState) evalStep(step *types.ASTNode, pathCtx, val types.Value, yield func(types.Value) bool) bool {
	switch step.Type {
	case types.NodeIndex:
		return ev.eval(step.LHS, pathCtx, func(idx types.Value) bool {
			return ev.indexValue(val, idx, step.Position, yield)
		})

	case types.NodeSlice:
		return ev.evalSlice(step, pathCtx, val, yield)

	case types.NodeFilter:
		return ev.evalFilter(step, val, yield)

	case types.NodeUnion:
		for _, sub := range step.Arguments {
			ok := ev.eval(sub, pathCtx, func(idx types.Value) bool {
				return ev.indexValue(val, idx, step.Position, yield)
			})
			if !ok {
				return false
			}
		}
		return true

	default:
		// Fields, wildcards, descents, calls and arbitrary head
		// expressions evaluate against the scope value itself.
		return ev.eval(step, val, yield)
	}
}

// evalFilter keeps the candidates whose condition holds. A container
// scope fans out over its children, each child becoming the condition's
// context; a scalar scope is its own single candidate. Error values
// pass through untested.
func (ev *evalState) evalFilter(step *types.ASTNode, val types.Value, yield func(types.Value) bool) bool {
	if val.IsError() {
		return yield(val)
	}
	if val.HasNode() && val.HasContainer() {
		for _, child := range val.Model.Children(val.Node) {
			cv := types.NodeVal(val.Model, child)
			if !ev.condHolds(step.LHS, cv) {
				continue
			}
			if !yield(cv) {
				return false
			}
		}
		return true
	}
	if ev.condHolds(step.LHS, val) {
		return yield(val)
	}
	return true
}

// condHolds reports whether the condition yields at least one truthy
// value in the context of the candidate. The first truthy result
// short-circuits.
func (ev *evalState) condHolds(cond *types.ASTNode, val types.Value) bool {
	holds := false
	ev.eval(cond, val, func(c types.Value) bool {
		if c.Truthy() {
			holds = true
			return false
		}
		return true
	})
	return holds
}

// indexValue resolves one subscript result against one scope value.
// Integers index arrays (negative values count from the end), strings
// select object members. Out-of-range and missing lookups yield
// nothing; unusable subscript types yield a type error.
func (ev *evalState) indexValue(val, idx types.Value, position int, yield func(types.Value) bool) bool {
	if idx.IsError() {
		return yield(idx)
	}

	switch idx.Kind {
	case types.KindInt:
		if !val.HasNode() || val.Kind != types.KindArray {
			return true
		}
		i := int(idx.Int)
		if i < 0 {
			i += val.Model.Size(val.Node)
		}
		child, ok := val.Model.At(val.Node, i)
		if !ok {
			return true
		}
		return yield(types.NodeVal(val.Model, child))

	case types.KindString:
		if !val.HasNode() || val.Kind != types.KindObject {
			return true
		}
		child, ok := val.Model.Get(val.Node, idx.Str)
		if !ok {
			return true
		}
		return yield(types.NodeVal(val.Model, child))

	default:
		return yield(typeErrorf(position, "cannot subscript with %s", idx.TypeName()))
	}
}

// evalSlice applies a slice step to an array value: negative bounds
// count from the end, out-of-range bounds clamp, and a negative step
// walks backwards.
func (ev *evalState) evalSlice(step *types.ASTNode, pathCtx, val types.Value, yield func(types.Value) bool) bool {
	if !val.HasNode() || val.Kind != types.KindArray {
		return true
	}
	size := val.Model.Size(val.Node)

	start, err := ev.sliceBound(step.Start, pathCtx, step.Position)
	if err == nil {
		var end *int
		end, err = ev.sliceBound(step.End, pathCtx, step.Position)
		if err == nil {
			var stride *int
			stride, err = ev.sliceBound(step.Step, pathCtx, step.Position)
			if err == nil {
				stepBy := 1
				if stride != nil {
					stepBy = *stride
				}
				if stepBy == 0 {
					return yield(typeErrorf(step.Position, "slice step cannot be zero"))
				}
				return ev.yieldSlice(val, start, end, stepBy, size, yield)
			}
		}
	}
	return yield(types.ErrorVal(err))
}

func (ev *evalState) yieldSlice(val types.Value, start, end *int, stepBy, size int, yield func(types.Value) bool) bool {
	lo, hi := sliceRange(start, end, stepBy, size)
	if stepBy > 0 {
		for i := lo; i < hi; i += stepBy {
			child, _ := val.Model.At(val.Node, i)
			if !yield(types.NodeVal(val.Model, child)) {
				return false
			}
		}
	} else {
		for i := lo; i > hi; i += stepBy {
			child, _ := val.Model.At(val.Node, i)
			if !yield(types.NodeVal(val.Model, child)) {
				return false
			}
		}
	}
	return true
}

// sliceBound evaluates an optional slice bound to a single integer.
// Only the first value of the bound expression counts.
func (ev *evalState) sliceBound(n *types.ASTNode, pathCtx types.Value, position int) (*int, *types.Error) {
	if n == nil {
		return nil, nil
	}
	var result *int
	var err *types.Error
	ev.eval(n, pathCtx, func(v types.Value) bool {
		switch {
		case v.IsError():
			err = v.Err
		case v.Kind == types.KindInt:
			i := int(v.Int)
			result = &i
		default:
			err = types.NewError(types.ErrType, "slice bound must be an integer, got "+v.TypeName(), position)
		}
		return false
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, types.NewError(types.ErrType, "slice bound produced no value", position)
	}
	return result, nil
}

// sliceRange normalizes slice bounds to concrete loop limits.
func sliceRange(start, end *int, step, size int) (lo, hi int) {
	norm := func(b *int, def int) int {
		if b == nil {
			return def
		}
		v := *b
		if v < 0 {
			v += size
		}
		return v
	}
	clamp := func(v, lower, upper int) int {
		if v < lower {
			return lower
		}
		if v > upper {
			return upper
		}
		return v
	}

	if step > 0 {
		return clamp(norm(start, 0), 0, size), clamp(norm(end, size), 0, size)
	}
	return clamp(norm(start, size-1), -1, size-1), clamp(norm(end, -size-1), -1, size-1)
}

// evalAnd implements the Lua-style and: for each left value, a falsy
// left is the result, a truthy left selects the right-hand results.
func (ev *evalState) evalAnd(n *types.ASTNode, val types.Value, yield func(types.Value) bool) bool {
	return ev.eval(n.LHS, val, func(lv types.Value) bool {
		if !lv.Truthy() {
			return yield(lv)
		}
		return ev.eval(n.RHS, val, yield)
	})
}

// evalOr mirrors evalAnd: a truthy left short-circuits.
func (ev *evalState) evalOr(n *types.ASTNode, val types.Value, yield func(types.Value) bool) bool {
	return ev.eval(n.LHS, val, func(lv types.Value) bool {
		if lv.Truthy() {
			return yield(lv)
		}
		return ev.eval(n.RHS, val, yield)
	})
}

// evalUnary fans out over the operand's results.
func (ev *evalState) evalUnary(n *types.ASTNode, val types.Value, yield func(types.Value) bool) bool {
	return ev.eval(n.LHS, val, func(v types.Value) bool {
		if n.StrValue == "..." {
			// Unpack is a pass-through; sequence producers already
			// fan out on their own.
			return yield(v)
		}
		return yield(applyUnary(n.StrValue, v, n.Position))
	})
}

// evalBinary fans out as the cross product of both operand sequences,
// left in the outer loop.
func (ev *evalState) evalBinary(n *types.ASTNode, val types.Value, yield func(types.Value) bool) bool {
	return ev.eval(n.LHS, val, func(lv types.Value) bool {
		return ev.eval(n.RHS, val, func(rv types.Value) bool {
			return yield(applyBinary(n.StrValue, lv, rv, n.Position))
		})
	})
}

// evalCall resolves the function and hands it lazily re-evaluable
// argument sequences closed over the current context.
func (ev *evalState) evalCall(n *types.ASTNode, val types.Value, yield func(types.Value) bool) bool {
	fn := ev.env.registry.Resolve(n.StrValue)
	if fn == nil {
		return yield(types.ErrorVal(
			types.NewError(types.ErrLookup, "unknown function "+n.StrValue, n.Position)))
	}

	args := make([]Seq, len(n.Arguments))
	for i, arg := range n.Arguments {
		args[i] = func(y func(types.Value) bool) {
			ev.eval(arg, val, y)
		}
	}

	call := &Call{
		Env:      ev.env,
		Model:    ev.model,
		Context:  val,
		Args:     args,
		Position: n.Position,
	}
	return fn.Eval(call, yield)
}

// typeErrorf builds an error-variant value.
func typeErrorf(position int, format string, args ...any) types.Value {
	return types.ErrorVal(types.NewError(types.ErrType, fmt.Sprintf(format, args...), position))
}
