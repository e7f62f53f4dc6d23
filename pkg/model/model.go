// Package model defines the data-model abstraction queried by simfil
// expressions.
//
// A Model exposes a tree of nodes through opaque Node handles. The engine
// only ever talks to the Model interface; it never holds pointers into the
// backing store. The package also provides Pool, a column-store
// implementation of Model that backends such as jsonmodel and yamlmodel
// build their trees into.
package model

import "iter"

// Kind classifies a node.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindObject
)

// String returns the lowercase kind name as reported by typeof.
func (k Kind) String() string {
	switch k {
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
	default:
		return "invalid"
	}
}

// Node is an opaque handle to a node inside a Model. It is a (column,
// index) pair local to the owning store; the zero Node is invalid.
type Node struct {
	Col Column
	Idx uint32
}

// Column identifies the store column a Node lives in.
type Column uint8

const (
	ColInvalid Column = iota
	ColNull
	ColBool
	ColInt
	ColFloat
	ColString
	ColArray
	ColObject
)

// Valid reports whether n refers to a node at all.
func (n Node) Valid() bool {
	return n.Col != ColInvalid
}

// Scalar carries the value of a leaf node out of a Model.
type Scalar struct {
	Kind  Kind
	Bool  bool
	Int   int64
	Float float64
	Str   string
}

// Key addresses a child within its parent: a field name for object
// members, an index for array elements.
type Key struct {
	Name  string
	Index int
	Named bool
}

// Model is the read-side capability set a data source must provide.
// Implementations must be safe for concurrent readers once construction
// is finished.
type Model interface {
	// Root returns the tree root, or ok=false for an empty model.
	Root() (Node, bool)

	// Kind classifies the node.
	Kind(n Node) Kind

	// Scalar returns the value of a leaf node. For arrays and objects
	// the result is unspecified.
	Scalar(n Node) Scalar

	// Get resolves an object member by name. Name matching is
	// case-insensitive. ok=false if n is not an object or has no such
	// member.
	Get(n Node, name string) (Node, bool)

	// At resolves an array element by index. ok=false if n is not an
	// array or the index is out of range.
	At(n Node, i int) (Node, bool)

	// Size returns the child count for containers and the byte length
	// for strings; 0 otherwise.
	Size(n Node) int

	// Children iterates the direct children of a container in
	// deterministic order (objects: insertion order, arrays: index
	// order). Scalars yield nothing.
	Children(n Node) iter.Seq2[Key, Node]
}
