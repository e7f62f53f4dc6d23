package evaluator

import (
	"regexp"
	"strings"

	"github.com/Klebert-Engineering/simfil/pkg/cache"
	"github.com/Klebert-Engineering/simfil/pkg/types"
)

// builtins is the default function set. Names resolve
// case-insensitively.
var builtins = []*Function{
	fnExists,
	fnCount,
	fnLen,
	fnContains,
	fnMatches,
	fnSplit,
	fnArr,
	fnRange,
	fnAny,
	fnAll,
	fnKeys,
	fnSum,
	fnSelect,
	fnTrace,
}

// fnExists reports whether the argument produces at least one usable
// (non-null, non-error) value. It stops pulling as soon as one is seen.
var fnExists = &Function{
	Name: "exists", MinArgs: 1, MaxArgs: 1, Pure: true,
	Eval: func(c *Call, yield func(types.Value) bool) bool {
		found := false
		c.Args[0](func(v types.Value) bool {
			if v.Kind != types.KindNull && !v.IsError() {
				found = true
				return false
			}
			return true
		})
		return yield(types.BoolVal(found))
	},
}

// fnCount returns the number of values the argument produces. An error
// element aborts the count and becomes the result.
var fnCount = &Function{
	Name: "count", MinArgs: 1, MaxArgs: 1, Pure: true,
	Eval: func(c *Call, yield func(types.Value) bool) bool {
		var n int64
		var failed *types.Value
		c.Args[0](func(v types.Value) bool {
			if v.IsError() {
				failed = &v
				return false
			}
			n++
			return true
		})
		if failed != nil {
			return yield(*failed)
		}
		return yield(types.IntVal(n))
	},
}

// fnLen maps each argument value to its length, with the same rules as
// the # operator.
var fnLen = &Function{
	Name: "len", MinArgs: 1, MaxArgs: 1, Pure: true,
	Eval: func(c *Call, yield func(types.Value) bool) bool {
		ok := true
		c.Args[0](func(v types.Value) bool {
			ok = yield(applyUnary("#", v, c.Position))
			return ok
		})
		return ok
	},
}

func stringPairFn(name string, apply func(c *Call, s, t string) types.Value) func(c *Call, yield func(types.Value) bool) bool {
	return func(c *Call, yield func(types.Value) bool) bool {
		ok := true
		c.Args[0](func(l types.Value) bool {
			c.Args[1](func(r types.Value) bool {
				switch {
				case l.IsError():
					ok = yield(l)
				case r.IsError():
					ok = yield(r)
				case l.Kind != types.KindString || r.Kind != types.KindString:
					ok = yield(c.ArgError("%s expects strings, got %s and %s", name, l.TypeName(), r.TypeName()))
				default:
					ok = yield(apply(c, l.Str, r.Str))
				}
				return ok
			})
			return ok
		})
		return ok
	}
}

// fnContains tests substring containment for every pair of argument
// values.
var fnContains = &Function{
	Name: "contains", MinArgs: 2, MaxArgs: 2, Pure: true,
	Eval: stringPairFn("contains", func(_ *Call, s, sub string) types.Value {
		return types.BoolVal(strings.Contains(s, sub))
	}),
}

// regexCache holds compiled patterns across evaluations.
var regexCache = cache.New[*regexp.Regexp](256)

// fnMatches tests each string against a regular expression. Patterns
// compile once through a process-wide LRU cache.
var fnMatches = &Function{
	Name: "matches", MinArgs: 2, MaxArgs: 2, Pure: true,
	Eval: stringPairFn("matches", func(c *Call, s, pattern string) types.Value {
		re, err := regexCache.GetOrCreate(pattern, func() (*regexp.Regexp, error) {
			return regexp.Compile(pattern)
		})
		if err != nil {
			return c.ArgError("invalid regular expression: %v", err)
		}
		return types.BoolVal(re.MatchString(s))
	}),
}

// fnSplit splits each string and fans the parts out as separate
// results.
var fnSplit = &Function{
	Name: "split", MinArgs: 2, MaxArgs: 2, Pure: true,
	Eval: func(c *Call, yield func(types.Value) bool) bool {
		ok := true
		c.Args[0](func(l types.Value) bool {
			c.Args[1](func(r types.Value) bool {
				switch {
				case l.IsError():
					ok = yield(l)
				case r.IsError():
					ok = yield(r)
				case l.Kind != types.KindString || r.Kind != types.KindString:
					ok = yield(c.ArgError("split expects strings, got %s and %s", l.TypeName(), r.TypeName()))
				default:
					for _, part := range strings.Split(l.Str, r.Str) {
						if ok = yield(types.StrVal(part)); !ok {
							break
						}
					}
				}
				return ok
			})
			return ok
		})
		return ok
	},
}

// fnArr concatenates the values of all arguments in order.
var fnArr = &Function{
	Name: "arr", MinArgs: 0, MaxArgs: -1, Pure: true,
	Eval: func(c *Call, yield func(types.Value) bool) bool {
		for _, arg := range c.Args {
			ok := true
			arg(func(v types.Value) bool {
				ok = yield(v)
				return ok
			})
			if !ok {
				return false
			}
		}
		return true
	},
}

// fnRange yields the inclusive integer sequence lo..hi, with an
// optional step.
var fnRange = &Function{
	Name: "range", MinArgs: 2, MaxArgs: 3, Pure: true,
	Eval: func(c *Call, yield func(types.Value) bool) bool {
		lo, err := c.intArg(0)
		if err != nil {
			return yield(types.ErrorVal(err))
		}
		hi, err := c.intArg(1)
		if err != nil {
			return yield(types.ErrorVal(err))
		}
		step := int64(1)
		if len(c.Args) > 2 {
			step, err = c.intArg(2)
			if err != nil {
				return yield(types.ErrorVal(err))
			}
			if step == 0 {
				return yield(c.ArgError("range step cannot be zero"))
			}
		}
		if step > 0 {
			for i := lo; i <= hi; i += step {
				if !yield(types.IntVal(i)) {
					return false
				}
			}
		} else {
			for i := lo; i >= hi; i += step {
				if !yield(types.IntVal(i)) {
					return false
				}
			}
		}
		return true
	},
}

// intArg pulls the first value of argument i and requires it to be an
// integer.
func (c *Call) intArg(i int) (int64, *types.Error) {
	v, ok := c.First(i)
	if !ok {
		return 0, types.NewError(types.ErrType, "argument produced no value", c.Position)
	}
	if v.IsError() {
		return 0, v.Err
	}
	if v.Kind != types.KindInt {
		return 0, types.NewError(types.ErrType, "expected an integer, got "+v.TypeName(), c.Position)
	}
	return v.Int, nil
}

// fnAny is true if the argument produces at least one truthy value.
var fnAny = &Function{
	Name: "any", MinArgs: 1, MaxArgs: 1, Pure: true,
	Eval: func(c *Call, yield func(types.Value) bool) bool {
		found := false
		c.Args[0](func(v types.Value) bool {
			if v.Truthy() {
				found = true
				return false
			}
			return true
		})
		return yield(types.BoolVal(found))
	},
}

// fnAll is true if every value the argument produces is truthy. An
// empty sequence counts as true. Registered under "all" and "each".
var fnAll = &Function{
	Name: "all", MinArgs: 1, MaxArgs: 1, Pure: true,
	Eval: func(c *Call, yield func(types.Value) bool) bool {
		all := true
		c.Args[0](func(v types.Value) bool {
			if !v.Truthy() {
				all = false
				return false
			}
			return true
		})
		return yield(types.BoolVal(all))
	},
}

// fnKeys yields the member names of each object value.
var fnKeys = &Function{
	Name: "keys", MinArgs: 1, MaxArgs: 1, Pure: true,
	Eval: func(c *Call, yield func(types.Value) bool) bool {
		ok := true
		c.Args[0](func(v types.Value) bool {
			switch {
			case v.IsError():
				ok = yield(v)
			case v.Kind == types.KindObject && v.HasNode():
				for key := range v.Model.Children(v.Node) {
					if ok = yield(types.StrVal(key.Name)); !ok {
						break
					}
				}
			}
			return ok
		})
		return ok
	},
}

// fnSum adds up the numeric values of the argument. The sum stays an
// integer until a float is seen; an empty sequence sums to null.
var fnSum = &Function{
	Name: "sum", MinArgs: 1, MaxArgs: 1, Pure: true,
	Eval: func(c *Call, yield func(types.Value) bool) bool {
		var intSum int64
		var floatSum float64
		isFloat, seen := false, false
		var failed *types.Value

		c.Args[0](func(v types.Value) bool {
			switch {
			case v.IsError():
				failed = &v
				return false
			case v.Kind == types.KindInt:
				intSum += v.Int
			case v.Kind == types.KindFloat:
				if !isFloat {
					isFloat = true
					floatSum = float64(intSum)
				}
				floatSum += v.Float
			default:
				e := c.ArgError("sum expects numbers, got %s", v.TypeName())
				failed = &e
				return false
			}
			seen = true
			return true
		})

		switch {
		case failed != nil:
			return yield(*failed)
		case !seen:
			return yield(types.Null())
		case isFloat:
			return yield(types.FloatVal(floatSum))
		default:
			return yield(types.IntVal(intSum))
		}
	},
}

// fnSelect yields a window of the argument sequence: select(seq, start)
// skips the first start values, select(seq, start, count) additionally
// limits the result length. Lazy: pulling stops once the window is
// produced.
var fnSelect = &Function{
	Name: "select", MinArgs: 2, MaxArgs: 3, Pure: true,
	Eval: func(c *Call, yield func(types.Value) bool) bool {
		start, err := c.intArg(1)
		if err != nil {
			return yield(types.ErrorVal(err))
		}
		count := int64(-1)
		if len(c.Args) > 2 {
			count, err = c.intArg(2)
			if err != nil {
				return yield(types.ErrorVal(err))
			}
		}

		ok := true
		var index, taken int64
		c.Args[0](func(v types.Value) bool {
			defer func() { index++ }()
			if index < start {
				return true
			}
			if count >= 0 && taken >= count {
				return false
			}
			taken++
			ok = yield(v)
			return ok
		})
		return ok
	},
}

// fnTrace passes its values through unchanged while recording them as
// warnings on the environment, for debugging queries.
var fnTrace = &Function{
	Name: "trace", MinArgs: 1, MaxArgs: 2,
	Eval: func(c *Call, yield func(types.Value) bool) bool {
		label := "trace"
		seq := c.Args[0]
		if len(c.Args) > 1 {
			if l, ok := c.First(0); ok && l.Kind == types.KindString {
				label = l.Str
			}
			seq = c.Args[1]
		}

		ok := true
		seq(func(v types.Value) bool {
			c.Env.Warn(label, v.Repr())
			ok = yield(v)
			return ok
		})
		return ok
	},
}
