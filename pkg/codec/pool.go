package codec

import (
	"io"
	"sort"

	"github.com/Klebert-Engineering/simfil/pkg/model"
)

// EncodePool writes a model pool snapshot to w: the interned string
// table, the scalar columns, arrays, objects and root designations.
func EncodePool(w io.Writer, p *model.Pool) error {
	snap := p.Snapshot()
	pw := newWriter(w)
	pw.header(payloadPool)

	// String table, sorted by ID for a deterministic byte stream.
	ids := make([]model.StringID, 0, len(snap.Strings))
	for id := range snap.Strings {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	pw.count(len(ids))
	for _, id := range ids {
		pw.uvarint(uint64(id))
		pw.str(snap.Strings[id])
	}

	pw.count(len(snap.Ints))
	for _, v := range snap.Ints {
		pw.varint(v)
	}

	pw.count(len(snap.Floats))
	for _, v := range snap.Floats {
		pw.f64(v)
	}

	pw.count(len(snap.Strs))
	for _, v := range snap.Strs {
		pw.str(v)
	}

	pw.count(len(snap.Arrays))
	for _, elems := range snap.Arrays {
		pw.count(len(elems))
		for _, n := range elems {
			encodePoolNode(pw, n)
		}
	}

	pw.count(len(snap.Objects))
	for _, members := range snap.Objects {
		pw.count(len(members))
		for _, m := range members {
			pw.uvarint(uint64(m.Key))
			encodePoolNode(pw, m.Node)
		}
	}

	pw.count(len(snap.Roots))
	for _, n := range snap.Roots {
		encodePoolNode(pw, n)
	}

	return pw.err
}

// DecodePool reads a pool written by EncodePool. Node references are
// validated against the decoded column sizes.
func DecodePool(r io.Reader) (*model.Pool, error) {
	pr := newReader(r)
	pr.header(payloadPool)

	var snap model.Snapshot

	count := pr.count()
	snap.Strings = make(map[model.StringID]string, count)
	for i := 0; i < count && pr.err == nil; i++ {
		id := model.StringID(pr.uvarint())
		snap.Strings[id] = pr.str()
	}

	count = pr.count()
	for i := 0; i < count && pr.err == nil; i++ {
		snap.Ints = append(snap.Ints, pr.varint())
	}

	count = pr.count()
	for i := 0; i < count && pr.err == nil; i++ {
		snap.Floats = append(snap.Floats, pr.f64())
	}

	count = pr.count()
	for i := 0; i < count && pr.err == nil; i++ {
		snap.Strs = append(snap.Strs, pr.str())
	}

	count = pr.count()
	for i := 0; i < count && pr.err == nil; i++ {
		size := pr.count()
		elems := make([]model.Node, 0, size)
		for j := 0; j < size && pr.err == nil; j++ {
			elems = append(elems, decodePoolNode(pr))
		}
		snap.Arrays = append(snap.Arrays, elems)
	}

	count = pr.count()
	for i := 0; i < count && pr.err == nil; i++ {
		size := pr.count()
		members := make([]model.Member, 0, size)
		for j := 0; j < size && pr.err == nil; j++ {
			members = append(members, model.Member{
				Key:  model.StringID(pr.uvarint()),
				Node: decodePoolNode(pr),
			})
		}
		snap.Objects = append(snap.Objects, members)
	}

	count = pr.count()
	for i := 0; i < count && pr.err == nil; i++ {
		snap.Roots = append(snap.Roots, decodePoolNode(pr))
	}

	if pr.err != nil {
		return nil, pr.err
	}
	if err := validateSnapshot(&snap); err != nil {
		return nil, err
	}
	return model.FromSnapshot(snap), nil
}

func encodePoolNode(w *writer, n model.Node) {
	w.byte(byte(n.Col))
	w.uvarint(uint64(n.Idx))
}

func decodePoolNode(r *reader) model.Node {
	col := model.Column(r.byte())
	idx := r.uvarint()
	if r.err == nil && col > model.ColObject {
		r.fail(corruptError("unknown node column %d", col))
	}
	return model.Node{Col: col, Idx: uint32(idx)}
}

// validateSnapshot checks that every node reference points inside the
// decoded columns, so a corrupt payload cannot produce a pool that
// panics on access.
func validateSnapshot(snap *model.Snapshot) error {
	check := func(n model.Node) bool {
		switch n.Col {
		case model.ColNull:
			return true
		case model.ColBool:
			return n.Idx <= 1
		case model.ColInt:
			return int(n.Idx) < len(snap.Ints)
		case model.ColFloat:
			return int(n.Idx) < len(snap.Floats)
		case model.ColString:
			return int(n.Idx) < len(snap.Strs)
		case model.ColArray:
			return int(n.Idx) < len(snap.Arrays)
		case model.ColObject:
			return int(n.Idx) < len(snap.Objects)
		default:
			return false
		}
	}

	for _, elems := range snap.Arrays {
		for _, n := range elems {
			if !check(n) {
				return corruptError("array element out of range")
			}
		}
	}
	for _, members := range snap.Objects {
		for _, m := range members {
			if !check(m.Node) {
				return corruptError("object member out of range")
			}
			if _, ok := snap.Strings[m.Key]; !ok {
				return corruptError("object key %d not in string table", m.Key)
			}
		}
	}
	for _, n := range snap.Roots {
		if !check(n) {
			return corruptError("root node out of range")
		}
	}
	return nil
}
