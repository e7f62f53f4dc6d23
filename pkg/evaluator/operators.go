package evaluator

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Klebert-Engineering/simfil/pkg/types"
)

// applyUnary evaluates a unary operator on a single value. Error values
// pass through untouched.
func applyUnary(op string, v types.Value, position int) types.Value {
	if v.IsError() {
		return v
	}

	switch op {
	case "not":
		return types.BoolVal(!v.Truthy())

	case "?":
		return types.BoolVal(v.Truthy())

	case "typeof":
		return types.StrVal(v.TypeName())

	case "-":
		switch v.Kind {
		case types.KindNull:
			return types.Null()
		case types.KindInt:
			return types.IntVal(-v.Int)
		case types.KindFloat:
			return types.FloatVal(-v.Float)
		}
		return typeErrorf(position, "cannot negate %s", v.TypeName())

	case "~":
		switch v.Kind {
		case types.KindNull:
			return types.Null()
		case types.KindInt:
			return types.IntVal(^v.Int)
		}
		return typeErrorf(position, "bitwise not requires an integer, got %s", v.TypeName())

	case "#":
		switch v.Kind {
		case types.KindNull:
			return types.Null()
		case types.KindString:
			return types.IntVal(int64(utf8.RuneCountInString(v.Str)))
		case types.KindArray, types.KindObject:
			return types.IntVal(int64(v.Model.Size(v.Node)))
		}
		return typeErrorf(position, "cannot take length of %s", v.TypeName())

	case "as-bool":
		return castBool(v)

	case "as-int":
		return castInt(v, position)

	case "as-float":
		return castFloat(v, position)

	case "as-string":
		if v.Kind == types.KindArray || v.Kind == types.KindObject {
			return typeErrorf(position, "cannot cast %s to string", v.TypeName())
		}
		return types.StrVal(v.String())

	case "as-null":
		return types.Null()
	}
	return typeErrorf(position, "unknown operator %s", op)
}

// castBool converts by value: zero numbers and empty strings become
// false. This is a cast, not the truth test, which treats every number
// as true.
func castBool(v types.Value) types.Value {
	switch v.Kind {
	case types.KindNull:
		return types.Null()
	case types.KindBool:
		return v
	case types.KindInt:
		return types.BoolVal(v.Int != 0)
	case types.KindFloat:
		return types.BoolVal(v.Float != 0)
	case types.KindString:
		return types.BoolVal(v.Str != "")
	case types.KindArray, types.KindObject:
		return types.BoolVal(v.Model.Size(v.Node) > 0)
	}
	return v
}

func castInt(v types.Value, position int) types.Value {
	switch v.Kind {
	case types.KindNull:
		return types.Null()
	case types.KindBool:
		if v.Bool {
			return types.IntVal(1)
		}
		return types.IntVal(0)
	case types.KindInt:
		return types.IntVal(v.Int)
	case types.KindFloat:
		return types.IntVal(int64(v.Float))
	case types.KindString:
		i, err := strconv.ParseInt(strings.TrimSpace(v.Str), 0, 64)
		if err != nil {
			return typeErrorf(position, "cannot parse %q as int", v.Str)
		}
		return types.IntVal(i)
	}
	return typeErrorf(position, "cannot cast %s to int", v.TypeName())
}

func castFloat(v types.Value, position int) types.Value {
	switch v.Kind {
	case types.KindNull:
		return types.Null()
	case types.KindBool:
		if v.Bool {
			return types.FloatVal(1)
		}
		return types.FloatVal(0)
	case types.KindInt:
		return types.FloatVal(float64(v.Int))
	case types.KindFloat:
		return types.FloatVal(v.Float)
	case types.KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return typeErrorf(position, "cannot parse %q as float", v.Str)
		}
		return types.FloatVal(f)
	}
	return typeErrorf(position, "cannot cast %s to float", v.TypeName())
}

// applyBinary evaluates a binary operator on one pair of operand
// values. Error values pass through; comparisons between incompatible
// types are false, never an error; null is absorbing for arithmetic.
func applyBinary(op string, l, r types.Value, position int) types.Value {
	if l.IsError() {
		return l
	}
	if r.IsError() {
		return r
	}

	switch op {
	case "==":
		return types.BoolVal(valueEqual(l, r))
	case "!=":
		return types.BoolVal(!valueEqual(l, r))
	case "<", "<=", ">", ">=":
		return types.BoolVal(valueLess(op, l, r))
	case "+":
		return addValues(l, r, position)
	case "-", "*", "/", "%":
		return arithValues(op, l, r, position)
	case "<<", ">>", "&", "|", "^":
		return bitwiseValues(op, l, r, position)
	}
	return typeErrorf(position, "unknown operator %s", op)
}

func isNumeric(v types.Value) bool {
	return v.Kind == types.KindInt || v.Kind == types.KindFloat
}

func asFloat(v types.Value) float64 {
	if v.Kind == types.KindInt {
		return float64(v.Int)
	}
	return v.Float
}

// valueEqual compares two values for equality. null equals only null;
// numbers compare numerically across int and float; containers compare
// by node identity; anything else cross-type is unequal.
func valueEqual(l, r types.Value) bool {
	switch {
	case l.Kind == types.KindNull || r.Kind == types.KindNull:
		return l.Kind == r.Kind
	case l.Kind == types.KindBool && r.Kind == types.KindBool:
		return l.Bool == r.Bool
	case l.Kind == types.KindInt && r.Kind == types.KindInt:
		return l.Int == r.Int
	case isNumeric(l) && isNumeric(r):
		return asFloat(l) == asFloat(r)
	case l.Kind == types.KindString && r.Kind == types.KindString:
		return l.Str == r.Str
	case l.HasNode() && r.HasNode():
		return l.Model == r.Model && l.Node == r.Node
	default:
		return false
	}
}

// valueLess implements the ordering comparisons. null orders below
// everything; numbers and strings order within their own family;
// incompatible pairs compare false.
func valueLess(op string, l, r types.Value) bool {
	lNull, rNull := l.Kind == types.KindNull, r.Kind == types.KindNull
	if lNull || rNull {
		switch op {
		case "<":
			return lNull && !rNull
		case "<=":
			return lNull
		case ">":
			return rNull && !lNull
		case ">=":
			return rNull
		}
	}

	var cmp int
	switch {
	case l.Kind == types.KindInt && r.Kind == types.KindInt:
		switch {
		case l.Int < r.Int:
			cmp = -1
		case l.Int > r.Int:
			cmp = 1
		}
	case isNumeric(l) && isNumeric(r):
		lf, rf := asFloat(l), asFloat(r)
		switch {
		case lf < rf:
			cmp = -1
		case lf > rf:
			cmp = 1
		}
	case l.Kind == types.KindString && r.Kind == types.KindString:
		cmp = strings.Compare(l.Str, r.Str)
	default:
		return false
	}

	switch op {
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	}
	return false
}

// addValues implements "+": null absorbing, string concatenation when
// either side is a string, numeric addition otherwise.
func addValues(l, r types.Value, position int) types.Value {
	if l.Kind == types.KindNull || r.Kind == types.KindNull {
		return types.Null()
	}
	if l.Kind == types.KindString || r.Kind == types.KindString {
		if l.HasContainer() || r.HasContainer() {
			return typeErrorf(position, "cannot concatenate %s and %s", l.TypeName(), r.TypeName())
		}
		return types.StrVal(l.String() + r.String())
	}
	if l.Kind == types.KindInt && r.Kind == types.KindInt {
		return types.IntVal(l.Int + r.Int)
	}
	if isNumeric(l) && isNumeric(r) {
		return types.FloatVal(asFloat(l) + asFloat(r))
	}
	return typeErrorf(position, "cannot add %s and %s", l.TypeName(), r.TypeName())
}

func arithValues(op string, l, r types.Value, position int) types.Value {
	if l.Kind == types.KindNull || r.Kind == types.KindNull {
		return types.Null()
	}
	if !isNumeric(l) || !isNumeric(r) {
		return typeErrorf(position, "operator %s requires numbers, got %s and %s", op, l.TypeName(), r.TypeName())
	}

	if l.Kind == types.KindInt && r.Kind == types.KindInt {
		switch op {
		case "-":
			return types.IntVal(l.Int - r.Int)
		case "*":
			return types.IntVal(l.Int * r.Int)
		case "/":
			if r.Int == 0 {
				return divZeroError(position)
			}
			return types.IntVal(l.Int / r.Int)
		case "%":
			if r.Int == 0 {
				return divZeroError(position)
			}
			return types.IntVal(l.Int % r.Int)
		}
	}

	lf, rf := asFloat(l), asFloat(r)
	switch op {
	case "-":
		return types.FloatVal(lf - rf)
	case "*":
		return types.FloatVal(lf * rf)
	case "/":
		if rf == 0 {
			return divZeroError(position)
		}
		return types.FloatVal(lf / rf)
	case "%":
		if rf == 0 {
			return divZeroError(position)
		}
		return types.FloatVal(math.Mod(lf, rf))
	}
	return typeErrorf(position, "unknown operator %s", op)
}

func bitwiseValues(op string, l, r types.Value, position int) types.Value {
	if l.Kind == types.KindNull || r.Kind == types.KindNull {
		return types.Null()
	}
	if l.Kind != types.KindInt || r.Kind != types.KindInt {
		return typeErrorf(position, "operator %s requires integers, got %s and %s", op, l.TypeName(), r.TypeName())
	}

	switch op {
	case "&":
		return types.IntVal(l.Int & r.Int)
	case "|":
		return types.IntVal(l.Int | r.Int)
	case "^":
		return types.IntVal(l.Int ^ r.Int)
	case "<<", ">>":
		if r.Int < 0 || r.Int > 63 {
			return typeErrorf(position, "shift amount out of range: %d", r.Int)
		}
		if op == "<<" {
			return types.IntVal(l.Int << uint(r.Int))
		}
		return types.IntVal(l.Int >> uint(r.Int))
	}
	return typeErrorf(position, "unknown operator %s", op)
}

func divZeroError(position int) types.Value {
	return types.ErrorVal(types.NewError(types.ErrDivZero, "division by zero", position))
}
