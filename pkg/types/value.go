package types

import (
	"fmt"
	"strconv"

	"github.com/Klebert-Engineering/simfil/pkg/model"
)

// ValueKind identifies the runtime type of a Value.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindObject
	KindError
)

// Value is one element of a result sequence. Scalars carry their payload
// inline; arrays and objects are references into a model. A Value may
// carry both: a scalar read from a model node keeps its node handle so
// that path steps can continue from it.
//
// Values are immutable once produced.
type Value struct {
	Kind  ValueKind
	Bool  bool
	Int   int64
	Float float64
	Str   string

	// Model/Node are set for values backed by a model node.
	Model model.Model
	Node  model.Node

	// Err is set for KindError values.
	Err *Error
}

// Null returns the null value.
func Null() Value {
	return Value{Kind: KindNull}
}

// BoolVal returns a detached bool value.
func BoolVal(b bool) Value {
	return Value{Kind: KindBool, Bool: b}
}

// IntVal returns a detached integer value.
func IntVal(i int64) Value {
	return Value{Kind: KindInt, Int: i}
}

// FloatVal returns a detached float value.
func FloatVal(f float64) Value {
	return Value{Kind: KindFloat, Float: f}
}

// StrVal returns a detached string value.
func StrVal(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// ErrorVal wraps err as an error-variant result element.
func ErrorVal(err *Error) Value {
	return Value{Kind: KindError, Err: err}
}

// NodeVal reads the value of a model node, keeping the node handle
// attached so path evaluation can continue from it.
func NodeVal(m model.Model, n model.Node) Value {
	v := Value{Model: m, Node: n}
	switch m.Kind(n) {
	case model.KindNull:
		v.Kind = KindNull
	case model.KindBool:
		v.Kind = KindBool
		v.Bool = m.Scalar(n).Bool
	case model.KindInt:
		v.Kind = KindInt
		v.Int = m.Scalar(n).Int
	case model.KindFloat:
		v.Kind = KindFloat
		v.Float = m.Scalar(n).Float
	case model.KindString:
		v.Kind = KindString
		v.Str = m.Scalar(n).Str
	case model.KindArray:
		v.Kind = KindArray
	case model.KindObject:
		v.Kind = KindObject
	}
	return v
}

// HasNode reports whether the value is backed by a model node.
func (v Value) HasNode() bool {
	return v.Model != nil && v.Node.Valid()
}

// HasContainer reports whether the value is an array or object.
func (v Value) HasContainer() bool {
	return v.Kind == KindArray || v.Kind == KindObject
}

// IsError reports whether the value is an error-variant result.
func (v Value) IsError() bool {
	return v.Kind == KindError
}

// Truthy implements the language's truth test: null, false, empty
// strings, empty containers and errors are falsy. Numbers are always
// truthy, zero included.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindNull, KindError:
		return false
	case KindBool:
		return v.Bool
	case KindInt, KindFloat:
		return true
	case KindString:
		return v.Str != ""
	case KindArray, KindObject:
		return v.Model.Size(v.Node) > 0
	}
	return false
}

// TypeName returns the name reported by typeof.
func (v Value) TypeName() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindError:
		return "error"
	}
	return "invalid"
}

// String renders the value for display. Strings are unquoted; use Repr
// for source-like output.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindString:
		return v.Str
	case KindArray:
		return fmt.Sprintf("array[%d]", v.Model.Size(v.Node))
	case KindObject:
		return fmt.Sprintf("object{%d}", v.Model.Size(v.Node))
	case KindError:
		return v.Err.Error()
	}
	return "invalid"
}

// Repr renders the value the way a literal would be written, with
// strings quoted. Used by the AST dump and the REPL.
func (v Value) Repr() string {
	if v.Kind == KindString {
		return strconv.Quote(v.Str)
	}
	return v.String()
}
