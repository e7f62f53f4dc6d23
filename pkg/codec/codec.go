// Package codec implements the versioned binary format for compiled
// expressions and model pools.
//
// Every payload starts with a magic tag and a format version byte.
// Readers reject data written by a newer format version, so persisted
// queries and model snapshots can round-trip across releases. Decoding
// is all-or-nothing: corrupt or truncated input yields a CodecError and
// no partial result.
package codec

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/Klebert-Engineering/simfil/pkg/types"
)

// Format constants.
const (
	// Version is the current format version. Readers accept payloads
	// with a version up to and including this value.
	Version = 1

	payloadExpr byte = 'E'
	payloadPool byte = 'P'
)

// magic identifies simfil binary payloads.
var magic = [4]byte{'S', 'M', 'F', 'L'}

// Guard limits against corrupt length prefixes.
const (
	maxStringLen = 1 << 28
	maxCount     = 1 << 24
	maxNodeDepth = 1024
)

func codecError(format string, args ...any) *types.Error {
	return types.NewError(types.ErrCodec, fmt.Sprintf(format, args...), -1)
}

func corruptError(format string, args ...any) *types.Error {
	return types.NewError(types.ErrCodecCorrupt, fmt.Sprintf(format, args...), -1)
}

// writer accumulates encode errors so call sites stay linear.
type writer struct {
	w   io.Writer
	buf []byte
	err error
}

func newWriter(w io.Writer) *writer {
	return &writer{w: w, buf: make([]byte, 0, binary.MaxVarintLen64)}
}

func (w *writer) bytes(p []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.Write(p)
}

func (w *writer) byte(b byte) {
	w.bytes([]byte{b})
}

func (w *writer) uvarint(v uint64) {
	w.bytes(binary.AppendUvarint(w.buf[:0], v))
}

func (w *writer) varint(v int64) {
	w.bytes(binary.AppendVarint(w.buf[:0], v))
}

func (w *writer) f64(v float64) {
	w.bytes(binary.LittleEndian.AppendUint64(w.buf[:0], math.Float64bits(v)))
}

func (w *writer) str(s string) {
	if len(s) > maxStringLen {
		w.fail(codecError("string too long: %d bytes", len(s)))
		return
	}
	w.uvarint(uint64(len(s)))
	w.bytes([]byte(s))
}

func (w *writer) count(n int) {
	if n > maxCount {
		w.fail(codecError("collection too large: %d entries", n))
		return
	}
	w.uvarint(uint64(n))
}

func (w *writer) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

func (w *writer) header(payload byte) {
	w.bytes(magic[:])
	w.byte(Version)
	w.byte(payload)
}

// reader mirrors writer: the first error sticks and subsequent reads
// return zero values.
type reader struct {
	r   *bufio.Reader
	err error
}

func newReader(r io.Reader) *reader {
	return &reader{r: bufio.NewReader(r)}
}

func (r *reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *reader) failRead(err error) {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		r.fail(corruptError("unexpected end of input"))
		return
	}
	r.fail(types.NewError(types.ErrCodec, "read failed", -1).WithCause(err))
}

func (r *reader) byte() byte {
	if r.err != nil {
		return 0
	}
	b, err := r.r.ReadByte()
	if err != nil {
		r.failRead(err)
		return 0
	}
	return b
}

func (r *reader) bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	p := make([]byte, n)
	if _, err := io.ReadFull(r.r, p); err != nil {
		r.failRead(err)
		return nil
	}
	return p
}

func (r *reader) uvarint() uint64 {
	if r.err != nil {
		return 0
	}
	v, err := binary.ReadUvarint(r.r)
	if err != nil {
		r.failRead(err)
		return 0
	}
	return v
}

func (r *reader) varint() int64 {
	if r.err != nil {
		return 0
	}
	v, err := binary.ReadVarint(r.r)
	if err != nil {
		r.failRead(err)
		return 0
	}
	return v
}

func (r *reader) f64() float64 {
	p := r.bytes(8)
	if r.err != nil {
		return 0
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(p))
}

func (r *reader) str() string {
	n := r.uvarint()
	if n > maxStringLen {
		r.fail(corruptError("string length out of range: %d", n))
		return ""
	}
	return string(r.bytes(int(n)))
}

func (r *reader) count() int {
	n := r.uvarint()
	if n > maxCount {
		r.fail(corruptError("collection size out of range: %d", n))
		return 0
	}
	return int(n)
}

// header validates the magic, the version and the payload tag.
func (r *reader) header(payload byte) {
	got := r.bytes(len(magic))
	if r.err != nil {
		return
	}
	if string(got) != string(magic[:]) {
		r.fail(corruptError("bad magic"))
		return
	}
	version := r.byte()
	if r.err == nil && version > Version {
		r.fail(types.NewError(types.ErrCodecVersion,
			fmt.Sprintf("format version %d is newer than supported version %d", version, Version), -1))
		return
	}
	tag := r.byte()
	if r.err == nil && tag != payload {
		r.fail(corruptError("unexpected payload tag %q", tag))
	}
}
