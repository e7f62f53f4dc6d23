// Package jsonmodel builds model pools from JSON documents.
//
// The decoder walks the JSON token stream directly, so object members
// keep their document order and numbers stay integers unless the
// document spells them as floats. The engine itself never imports this
// package; it is one of the interchangeable model backends.
package jsonmodel

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Klebert-Engineering/simfil/pkg/model"
)

// Decode reads one JSON document from r into a fresh pool, with the
// document value as the pool's root.
func Decode(r io.Reader) (*model.Pool, error) {
	return DecodeInto(r, model.NewPool())
}

// DecodeInto reads one JSON document into an existing pool and adds its
// value as a new root, so several documents can share one pool and one
// string table.
func DecodeInto(r io.Reader, p *model.Pool) (*model.Pool, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	root, err := decodeValue(dec, p)
	if err != nil {
		return nil, err
	}
	p.AddRoot(root)
	return p, nil
}

// Parse decodes a JSON document held in memory.
func Parse(data []byte) (*model.Pool, error) {
	return Decode(bytes.NewReader(data))
}

func decodeValue(dec *json.Decoder, p *model.Pool) (model.Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return model.Node{}, fmt.Errorf("jsonmodel: %w", err)
	}
	return decodeToken(dec, p, tok)
}

func decodeToken(dec *json.Decoder, p *model.Pool, tok json.Token) (model.Node, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec, p)
		case '[':
			return decodeArray(dec, p)
		default:
			return model.Node{}, fmt.Errorf("jsonmodel: unexpected delimiter %q", t)
		}
	case string:
		return p.String(t), nil
	case json.Number:
		return decodeNumber(p, t)
	case bool:
		return p.Bool(t), nil
	case nil:
		return p.Null(), nil
	default:
		return model.Node{}, fmt.Errorf("jsonmodel: unexpected token %v", tok)
	}
}

// decodeNumber keeps integral numbers as int64 and falls back to float
// for fractional or exponent forms, or integers beyond int64 range.
func decodeNumber(p *model.Pool, n json.Number) (model.Node, error) {
	if !strings.ContainsAny(n.String(), ".eE") {
		if i, err := n.Int64(); err == nil {
			return p.Int(i), nil
		}
	}
	f, err := n.Float64()
	if err != nil {
		return model.Node{}, fmt.Errorf("jsonmodel: invalid number %q", n.String())
	}
	return p.Float(f), nil
}

func decodeObject(dec *json.Decoder, p *model.Pool) (model.Node, error) {
	var members []model.Member
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return model.Node{}, fmt.Errorf("jsonmodel: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return model.Node{}, fmt.Errorf("jsonmodel: object key is not a string: %v", keyTok)
		}
		child, err := decodeValue(dec, p)
		if err != nil {
			return model.Node{}, err
		}
		members = append(members, model.Member{Key: p.Key(key), Node: child})
	}
	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return model.Node{}, fmt.Errorf("jsonmodel: %w", err)
	}
	return p.NewObject(members), nil
}

func decodeArray(dec *json.Decoder, p *model.Pool) (model.Node, error) {
	var elems []model.Node
	for dec.More() {
		child, err := decodeValue(dec, p)
		if err != nil {
			return model.Node{}, err
		}
		elems = append(elems, child)
	}
	if _, err := dec.Token(); err != nil {
		return model.Node{}, fmt.Errorf("jsonmodel: %w", err)
	}
	return p.NewArray(elems), nil
}
