package codec

import (
	"io"

	"github.com/Klebert-Engineering/simfil/pkg/types"
)

// AST node tags. Append only; existing values are part of the wire
// format.
const (
	tagLiteral byte = iota + 1
	tagMultiLiteral
	tagSelf
	tagField
	tagWildcard
	tagDescend
	tagIndex
	tagSlice
	tagFilter
	tagUnion
	tagUnary
	tagBinary
	tagAnd
	tagOr
	tagCall
	tagPath
)

var nodeTags = map[types.NodeType]byte{
	types.NodeLiteral:      tagLiteral,
	types.NodeMultiLiteral: tagMultiLiteral,
	types.NodeSelf:         tagSelf,
	types.NodeField:        tagField,
	types.NodeWildcard:     tagWildcard,
	types.NodeDescend:      tagDescend,
	types.NodeIndex:        tagIndex,
	types.NodeSlice:        tagSlice,
	types.NodeFilter:       tagFilter,
	types.NodeUnion:        tagUnion,
	types.NodeUnary:        tagUnary,
	types.NodeBinary:       tagBinary,
	types.NodeAnd:          tagAnd,
	types.NodeOr:           tagOr,
	types.NodeCall:         tagCall,
	types.NodePath:         tagPath,
}

var tagNodes = func() map[byte]types.NodeType {
	m := make(map[byte]types.NodeType, len(nodeTags))
	for nt, tag := range nodeTags {
		m[tag] = nt
	}
	return m
}()

// EncodeExpr writes a compiled expression to w in the binary format.
func EncodeExpr(w io.Writer, expr *types.Expression) error {
	ew := newWriter(w)
	ew.header(payloadExpr)
	encodeNode(ew, expr.AST())
	return ew.err
}

// DecodeExpr reads an expression written by EncodeExpr. The decoded
// expression has no source text; its structure and positions are
// identical to the encoded one.
func DecodeExpr(r io.Reader) (*types.Expression, error) {
	er := newReader(r)
	er.header(payloadExpr)
	root := decodeNode(er, 0)
	if er.err != nil {
		return nil, er.err
	}
	return types.NewExpression(root, "", nil), nil
}

func encodeNode(w *writer, n *types.ASTNode) {
	tag, ok := nodeTags[n.Type]
	if !ok {
		w.fail(codecError("cannot encode node type %s", n.Type))
		return
	}
	w.byte(tag)
	w.uvarint(uint64(n.Position))

	switch n.Type {
	case types.NodeLiteral:
		encodeValue(w, n.Val)

	case types.NodeMultiLiteral:
		w.count(len(n.Vals))
		for _, v := range n.Vals {
			encodeValue(w, v)
		}

	case types.NodeField:
		w.str(n.StrValue)

	case types.NodeSelf, types.NodeWildcard, types.NodeDescend:
		// No payload.

	case types.NodeIndex, types.NodeFilter:
		encodeNode(w, n.LHS)

	case types.NodeSlice:
		var presence byte
		if n.Start != nil {
			presence |= 1
		}
		if n.End != nil {
			presence |= 2
		}
		if n.Step != nil {
			presence |= 4
		}
		w.byte(presence)
		for _, bound := range []*types.ASTNode{n.Start, n.End, n.Step} {
			if bound != nil {
				encodeNode(w, bound)
			}
		}

	case types.NodeUnion:
		w.count(len(n.Arguments))
		for _, sub := range n.Arguments {
			encodeNode(w, sub)
		}

	case types.NodeUnary:
		w.str(n.StrValue)
		encodeNode(w, n.LHS)

	case types.NodeBinary:
		w.str(n.StrValue)
		encodeNode(w, n.LHS)
		encodeNode(w, n.RHS)

	case types.NodeAnd, types.NodeOr:
		encodeNode(w, n.LHS)
		encodeNode(w, n.RHS)

	case types.NodeCall:
		w.str(n.StrValue)
		w.count(len(n.Arguments))
		for _, arg := range n.Arguments {
			encodeNode(w, arg)
		}

	case types.NodePath:
		w.count(len(n.Steps))
		for _, step := range n.Steps {
			encodeNode(w, step)
		}
	}
}

func decodeNode(r *reader, depth int) *types.ASTNode {
	if depth > maxNodeDepth {
		r.fail(corruptError("node nesting too deep"))
		return nil
	}
	tag := r.byte()
	if r.err != nil {
		return nil
	}
	nt, ok := tagNodes[tag]
	if !ok {
		r.fail(corruptError("unknown node tag %d", tag))
		return nil
	}

	n := types.NewASTNode(nt, int(r.uvarint()))

	switch nt {
	case types.NodeLiteral:
		n.Val = decodeValue(r)

	case types.NodeMultiLiteral:
		count := r.count()
		for i := 0; i < count && r.err == nil; i++ {
			n.Vals = append(n.Vals, decodeValue(r))
		}

	case types.NodeField:
		n.StrValue = r.str()

	case types.NodeSelf, types.NodeWildcard, types.NodeDescend:
		// No payload.

	case types.NodeIndex, types.NodeFilter:
		n.LHS = decodeNode(r, depth+1)

	case types.NodeSlice:
		presence := r.byte()
		if presence&1 != 0 {
			n.Start = decodeNode(r, depth+1)
		}
		if presence&2 != 0 {
			n.End = decodeNode(r, depth+1)
		}
		if presence&4 != 0 {
			n.Step = decodeNode(r, depth+1)
		}

	case types.NodeUnion:
		count := r.count()
		for i := 0; i < count && r.err == nil; i++ {
			n.Arguments = append(n.Arguments, decodeNode(r, depth+1))
		}

	case types.NodeUnary:
		n.StrValue = r.str()
		n.LHS = decodeNode(r, depth+1)

	case types.NodeBinary:
		n.StrValue = r.str()
		n.LHS = decodeNode(r, depth+1)
		n.RHS = decodeNode(r, depth+1)

	case types.NodeAnd, types.NodeOr:
		n.LHS = decodeNode(r, depth+1)
		n.RHS = decodeNode(r, depth+1)

	case types.NodeCall:
		n.StrValue = r.str()
		count := r.count()
		for i := 0; i < count && r.err == nil; i++ {
			n.Arguments = append(n.Arguments, decodeNode(r, depth+1))
		}

	case types.NodePath:
		count := r.count()
		for i := 0; i < count && r.err == nil; i++ {
			n.Steps = append(n.Steps, decodeNode(r, depth+1))
		}
	}

	if r.err != nil {
		return nil
	}
	return n
}

// encodeValue writes a detached literal value. Model-backed containers
// have no meaning outside their pool and cannot appear in an AST.
func encodeValue(w *writer, v types.Value) {
	w.byte(byte(v.Kind))
	switch v.Kind {
	case types.KindNull:
	case types.KindBool:
		if v.Bool {
			w.byte(1)
		} else {
			w.byte(0)
		}
	case types.KindInt:
		w.varint(v.Int)
	case types.KindFloat:
		w.f64(v.Float)
	case types.KindString:
		w.str(v.Str)
	default:
		w.fail(codecError("cannot encode %s value", v.TypeName()))
	}
}

func decodeValue(r *reader) types.Value {
	switch kind := types.ValueKind(r.byte()); kind {
	case types.KindNull:
		return types.Null()
	case types.KindBool:
		return types.BoolVal(r.byte() != 0)
	case types.KindInt:
		return types.IntVal(r.varint())
	case types.KindFloat:
		return types.FloatVal(r.f64())
	case types.KindString:
		return types.StrVal(r.str())
	default:
		if r.err == nil {
			r.fail(corruptError("unknown value kind %d", kind))
		}
		return types.Null()
	}
}
