// Package yamlmodel builds model pools from YAML documents.
//
// Mappings are decoded in document order so child iteration stays
// deterministic. Like jsonmodel, this is an interchangeable backend;
// the engine never imports it.
package yamlmodel

import (
	"fmt"
	"io"

	"github.com/goccy/go-yaml"

	"github.com/Klebert-Engineering/simfil/pkg/model"
)

// Decode reads one YAML document from r into a fresh pool, with the
// document value as the pool's root.
func Decode(r io.Reader) (*model.Pool, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("yamlmodel: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML document held in memory.
func Parse(data []byte) (*model.Pool, error) {
	return ParseInto(data, model.NewPool())
}

// ParseInto decodes a YAML document into an existing pool and adds its
// value as a new root.
func ParseInto(data []byte, p *model.Pool) (*model.Pool, error) {
	var doc any
	if err := yaml.UnmarshalWithOptions(data, &doc, yaml.UseOrderedMap()); err != nil {
		return nil, fmt.Errorf("yamlmodel: %w", err)
	}

	root, err := build(p, doc)
	if err != nil {
		return nil, err
	}
	p.AddRoot(root)
	return p, nil
}

func build(p *model.Pool, v any) (model.Node, error) {
	switch t := v.(type) {
	case nil:
		return p.Null(), nil
	case bool:
		return p.Bool(t), nil
	case int:
		return p.Int(int64(t)), nil
	case int64:
		return p.Int(t), nil
	case uint64:
		if t > 1<<63-1 {
			return p.Float(float64(t)), nil
		}
		return p.Int(int64(t)), nil
	case float64:
		return p.Float(t), nil
	case string:
		return p.String(t), nil

	case []any:
		elems := make([]model.Node, 0, len(t))
		for _, item := range t {
			child, err := build(p, item)
			if err != nil {
				return model.Node{}, err
			}
			elems = append(elems, child)
		}
		return p.NewArray(elems), nil

	case yaml.MapSlice:
		members := make([]model.Member, 0, len(t))
		for _, item := range t {
			key, ok := item.Key.(string)
			if !ok {
				key = fmt.Sprint(item.Key)
			}
			child, err := build(p, item.Value)
			if err != nil {
				return model.Node{}, err
			}
			members = append(members, model.Member{Key: p.Key(key), Node: child})
		}
		return p.NewObject(members), nil

	default:
		return model.Node{}, fmt.Errorf("yamlmodel: unsupported value type %T", v)
	}
}
