package evaluator

import (
	"fmt"
	"strings"
	"sync"

	"github.com/Klebert-Engineering/simfil/pkg/model"
	"github.com/Klebert-Engineering/simfil/pkg/types"
)

// Call carries everything a function implementation needs for one
// invocation: the environment, the model being queried, the context
// value the call was applied to, and the argument sequences. Argument
// sequences are lazy and replayable; a function pulls only what it
// needs.
type Call struct {
	Env      *Env
	Model    model.Model
	Context  types.Value
	Args     []Seq
	Position int
}

// ArgError builds an argument error value for this call site.
func (c *Call) ArgError(format string, args ...any) types.Value {
	return types.ErrorVal(types.NewError(types.ErrType, fmt.Sprintf(format, args...), c.Position))
}

// First pulls the first value of argument i. ok=false for an empty
// sequence.
func (c *Call) First(i int) (types.Value, bool) {
	var result types.Value
	found := false
	c.Args[i](func(v types.Value) bool {
		result = v
		found = true
		return false
	})
	return result, found
}

// Function is a named operation callable from queries. MaxArgs of -1
// means variadic. Pure functions may be evaluated at compile time
// during constant folding.
type Function struct {
	Name    string
	MinArgs int
	MaxArgs int
	Pure    bool
	Eval    func(c *Call, yield func(types.Value) bool) bool
}

// Registry maps case-insensitive function names to implementations.
// Registration must finish before evaluations start; Resolve is safe
// for concurrent use.
type Registry struct {
	mu  sync.RWMutex
	fns map[string]*Function
}

// NewRegistry returns a registry pre-populated with the built-in
// functions.
func NewRegistry() *Registry {
	r := &Registry{fns: make(map[string]*Function)}
	for _, fn := range builtins {
		r.fns[strings.ToLower(fn.Name)] = fn
	}
	r.fns["each"] = fnAll // historical alias
	return r
}

// Register adds a function. Re-registering an existing name is an
// error; built-ins cannot be replaced.
func (r *Registry) Register(fn *Function) error {
	if fn == nil || fn.Name == "" || fn.Eval == nil {
		return types.NewError(types.ErrLookup, "invalid function registration", -1)
	}
	key := strings.ToLower(fn.Name)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.fns[key]; exists {
		return types.NewError(types.ErrLookup, "function already registered: "+fn.Name, -1)
	}
	r.fns[key] = fn
	return nil
}

// Resolve looks up a function by name, case-insensitively. Returns nil
// if no such function exists.
func (r *Registry) Resolve(name string) *Function {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fns[strings.ToLower(name)]
}

// Validate walks an AST and checks that every call resolves to a
// registered function with a matching argument count. This runs at
// compile time so that typos surface before the first evaluation.
func (r *Registry) Validate(n *types.ASTNode) error {
	if n == nil {
		return nil
	}

	if n.Type == types.NodeCall {
		fn := r.Resolve(n.StrValue)
		if fn == nil {
			return types.NewError(types.ErrLookup, "unknown function "+n.StrValue, n.Position).
				WithToken(n.StrValue)
		}
		argc := len(n.Arguments)
		if argc < fn.MinArgs || (fn.MaxArgs >= 0 && argc > fn.MaxArgs) {
			return types.NewError(types.ErrArgCount,
				fmt.Sprintf("%s expects %s, got %d", fn.Name, arityString(fn), argc),
				n.Position).WithToken(n.StrValue)
		}
	}

	for _, child := range []*types.ASTNode{n.LHS, n.RHS, n.Start, n.End, n.Step} {
		if err := r.Validate(child); err != nil {
			return err
		}
	}
	for _, child := range n.Steps {
		if err := r.Validate(child); err != nil {
			return err
		}
	}
	for _, child := range n.Arguments {
		if err := r.Validate(child); err != nil {
			return err
		}
	}
	return nil
}

func arityString(fn *Function) string {
	switch {
	case fn.MaxArgs < 0:
		return fmt.Sprintf("at least %d arguments", fn.MinArgs)
	case fn.MinArgs == fn.MaxArgs:
		return fmt.Sprintf("%d arguments", fn.MinArgs)
	default:
		return fmt.Sprintf("%d to %d arguments", fn.MinArgs, fn.MaxArgs)
	}
}
