// Package registryfile decodes the YAML/JSON registry files that declare
// endpoints and publishers.
package registryfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type decoder struct {
	name string
	exts []string
	fn   func([]byte, any) error
}

var decoders = []decoder{
	{name: "yaml", exts: []string{".yaml", ".yml"}, fn: yaml.Unmarshal},
	{name: "json", exts: []string{".json"}, fn: json.Unmarshal},
}

// Load reads path and decodes it into a T chosen by the file extension.
// kind names the registry in error messages ("endpoints", "publishers").
func Load[T any](path, kind string) (T, error) {
	var zero T
	path = strings.TrimSpace(path)
	if path == "" {
		return zero, fmt.Errorf("%s file path is empty", kind)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return zero, fmt.Errorf("read %s file: %w", kind, err)
	}
	return Decode[T](raw, filepath.Ext(path), kind)
}

// Decode parses data with the decoder registered for ext. An unknown or
// empty ext tries every decoder in turn.
func Decode[T any](data []byte, ext, kind string) (T, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	candidates := decoders
	for _, d := range decoders {
		if contains(d.exts, ext) {
			candidates = []decoder{d}
			break
		}
	}

	var lastErr error
	for _, d := range candidates {
		var out T
		if err := d.fn(data, &out); err != nil {
			lastErr = fmt.Errorf("decode %s %s: %w", d.name, kind, err)
			continue
		}
		return out, nil
	}
	var zero T
	return zero, fmt.Errorf("%s file format not recognized (expected YAML or JSON): %w", kind, lastErr)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
