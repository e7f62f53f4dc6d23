package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Klebert-Engineering/simfil/pkg/codec"
	"github.com/Klebert-Engineering/simfil/pkg/jsonmodel"
	"github.com/Klebert-Engineering/simfil/pkg/model"
	"github.com/Klebert-Engineering/simfil/pkg/yamlmodel"
)

// loadDocument builds a model pool from a document file, picking the
// backend by extension. ".smfl" files hold the binary pool format.
func loadDocument(path string) (*model.Pool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		p, err := yamlmodel.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return p, nil
	case ".smfl":
		p, err := codec.DecodePool(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return p, nil
	default:
		p, err := jsonmodel.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return p, nil
	}
}
