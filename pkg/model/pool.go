package model

import (
	"iter"
	"strings"
)

// Member is one object entry: interned key plus child node.
type Member struct {
	Key  StringID
	Node Node
}

// Pool is a column-store Model. Nodes of each kind live in their own
// column; a Node handle is the column tag plus the index within it.
// Build the tree bottom-up with the New* methods, set the root with
// AddRoot, then treat the pool as read-only. Concurrent reads are safe
// after construction.
type Pool struct {
	strings *StringPool

	ints    []int64
	floats  []float64
	strs    []string
	arrays  [][]Node
	objects [][]Member

	roots []Node
}

// NewPool returns an empty pool with its own string pool.
func NewPool() *Pool {
	return NewPoolWithStrings(NewStringPool())
}

// NewPoolWithStrings returns an empty pool sharing an existing string
// pool, so several pools can intern keys into one table.
func NewPoolWithStrings(sp *StringPool) *Pool {
	return &Pool{strings: sp}
}

// Strings returns the pool's key interner.
func (p *Pool) Strings() *StringPool {
	return p.strings
}

// Null returns the shared null node.
func (p *Pool) Null() Node {
	return Node{Col: ColNull}
}

// Bool returns one of the two shared bool nodes.
func (p *Pool) Bool(v bool) Node {
	if v {
		return Node{Col: ColBool, Idx: 1}
	}
	return Node{Col: ColBool, Idx: 0}
}

// Int appends an integer scalar.
func (p *Pool) Int(v int64) Node {
	p.ints = append(p.ints, v)
	return Node{Col: ColInt, Idx: uint32(len(p.ints) - 1)}
}

// Float appends a float scalar.
func (p *Pool) Float(v float64) Node {
	p.floats = append(p.floats, v)
	return Node{Col: ColFloat, Idx: uint32(len(p.floats) - 1)}
}

// String appends a string scalar.
func (p *Pool) String(v string) Node {
	p.strs = append(p.strs, v)
	return Node{Col: ColString, Idx: uint32(len(p.strs) - 1)}
}

// NewArray adopts elems as a new array node.
func (p *Pool) NewArray(elems []Node) Node {
	p.arrays = append(p.arrays, elems)
	return Node{Col: ColArray, Idx: uint32(len(p.arrays) - 1)}
}

// NewObject adopts members as a new object node. Keys must come from
// this pool's string pool.
func (p *Pool) NewObject(members []Member) Node {
	p.objects = append(p.objects, members)
	return Node{Col: ColObject, Idx: uint32(len(p.objects) - 1)}
}

// Key interns a field name for use in NewObject members.
func (p *Pool) Key(name string) StringID {
	return p.strings.Emplace(name)
}

// AddRoot designates n as a root node. The first root added is the one
// Root returns.
func (p *Pool) AddRoot(n Node) {
	p.roots = append(p.roots, n)
}

// NumRoots returns the number of designated roots.
func (p *Pool) NumRoots() int {
	return len(p.roots)
}

// RootAt returns the i-th root.
func (p *Pool) RootAt(i int) (Node, bool) {
	if i < 0 || i >= len(p.roots) {
		return Node{}, false
	}
	return p.roots[i], true
}

// Root implements Model.
func (p *Pool) Root() (Node, bool) {
	return p.RootAt(0)
}

// Kind implements Model.
func (p *Pool) Kind(n Node) Kind {
	switch n.Col {
	case ColNull:
		return KindNull
	case ColBool:
		return KindBool
	case ColInt:
		return KindInt
	case ColFloat:
		return KindFloat
	case ColString:
		return KindString
	case ColArray:
		return KindArray
	case ColObject:
		return KindObject
	default:
		return KindNull
	}
}

// Scalar implements Model.
func (p *Pool) Scalar(n Node) Scalar {
	switch n.Col {
	case ColBool:
		return Scalar{Kind: KindBool, Bool: n.Idx == 1}
	case ColInt:
		return Scalar{Kind: KindInt, Int: p.ints[n.Idx]}
	case ColFloat:
		return Scalar{Kind: KindFloat, Float: p.floats[n.Idx]}
	case ColString:
		return Scalar{Kind: KindString, Str: p.strs[n.Idx]}
	default:
		return Scalar{Kind: KindNull}
	}
}

// Get implements Model. Field lookup is case-insensitive through the
// string pool.
func (p *Pool) Get(n Node, name string) (Node, bool) {
	if n.Col != ColObject {
		return Node{}, false
	}
	id, ok := p.strings.Get(name)
	if !ok {
		return Node{}, false
	}
	for _, m := range p.objects[n.Idx] {
		if m.Key == id {
			return m.Node, true
		}
	}
	return Node{}, false
}

// At implements Model.
func (p *Pool) At(n Node, i int) (Node, bool) {
	if n.Col != ColArray {
		return Node{}, false
	}
	elems := p.arrays[n.Idx]
	if i < 0 || i >= len(elems) {
		return Node{}, false
	}
	return elems[i], true
}

// Size implements Model.
func (p *Pool) Size(n Node) int {
	switch n.Col {
	case ColArray:
		return len(p.arrays[n.Idx])
	case ColObject:
		return len(p.objects[n.Idx])
	case ColString:
		return len(p.strs[n.Idx])
	default:
		return 0
	}
}

// Children implements Model.
func (p *Pool) Children(n Node) iter.Seq2[Key, Node] {
	switch n.Col {
	case ColArray:
		elems := p.arrays[n.Idx]
		return func(yield func(Key, Node) bool) {
			for i, c := range elems {
				if !yield(Key{Index: i}, c) {
					return
				}
			}
		}
	case ColObject:
		members := p.objects[n.Idx]
		return func(yield func(Key, Node) bool) {
			for i, m := range members {
				name, _ := p.strings.Resolve(m.Key)
				if !yield(Key{Name: name, Index: i, Named: true}, m.Node) {
					return
				}
			}
		}
	default:
		return func(func(Key, Node) bool) {}
	}
}

// Snapshot is the serializable state of a Pool, consumed and produced
// by the codec package.
type Snapshot struct {
	Strings map[StringID]string
	Ints    []int64
	Floats  []float64
	Strs    []string
	Arrays  [][]Node
	Objects [][]Member
	Roots   []Node
}

// Snapshot captures the pool's full state.
func (p *Pool) Snapshot() Snapshot {
	strs := make(map[StringID]string, p.strings.Size())
	p.strings.Each(func(id StringID, s string) bool {
		strs[id] = s
		return true
	})
	return Snapshot{
		Strings: strs,
		Ints:    p.ints,
		Floats:  p.floats,
		Strs:    p.strs,
		Arrays:  p.arrays,
		Objects: p.objects,
		Roots:   p.roots,
	}
}

// FromSnapshot rebuilds a pool from serialized state.
func FromSnapshot(s Snapshot) *Pool {
	sp := NewStringPool()
	for id, str := range s.Strings {
		if id != EmptyStringID && id < firstDynamicID {
			sp.AddStatic(id, str)
		}
	}
	p := &Pool{
		strings: sp,
		ints:    s.Ints,
		floats:  s.Floats,
		strs:    s.Strs,
		arrays:  s.Arrays,
		objects: s.Objects,
		roots:   s.Roots,
	}
	restoreDynamic(sp, s.Strings)
	return p
}

func restoreDynamic(sp *StringPool, strs map[StringID]string) {
	max := firstDynamicID
	for id := range strs {
		if id >= max {
			max = id + 1
		}
	}
	sp.mu.Lock()
	defer sp.mu.Unlock()
	for id := firstDynamicID; id < max; id++ {
		s, ok := strs[id]
		if !ok {
			continue
		}
		sp.ids[strings.ToLower(s)] = id
		sp.byID[id] = s
	}
	sp.nextID = max
}
