package source

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/ks89/esp32-configurator/internal/secrets"
)

// Format is a secrets file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the format by extension; anything unknown is YAML.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	case ".json":
		return FormatJSON
	default:
		return FormatYAML
	}
}

// Decode parses a secrets document into a Record. The document must be a
// mapping at the top level; an empty document yields an empty Record.
func Decode(format Format, data []byte) (secrets.Record, error) {
	rec := secrets.Record{}
	if len(bytes.TrimSpace(data)) == 0 {
		return rec, nil
	}

	var err error
	switch format {
	case FormatTOML:
		err = toml.Unmarshal(data, (*map[string]any)(&rec))
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err = dec.Decode((*map[string]any)(&rec)); err == nil {
			normalizeNumbers(rec)
		}
	case FormatYAML:
		err = yaml.Unmarshal(data, (*map[string]any)(&rec))
	default:
		return nil, errors.Errorf("unsupported secrets format %q", format)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s secrets", format)
	}
	return rec, nil
}

// normalizeNumbers turns json.Number values into int64 or float64, the types the
// YAML and TOML decoders produce, so 8883.0 reads as 8883 in every format.
func normalizeNumbers(rec secrets.Record) {
	for k, v := range rec {
		n, ok := v.(json.Number)
		if !ok {
			continue
		}
		if i, err := n.Int64(); err == nil {
			rec[k] = i
		} else if f, err := n.Float64(); err == nil {
			rec[k] = f
		}
	}
}

// File reads secrets from a local YAML, TOML or JSON file.
type File struct {
	Path string
}

func (f *File) String() string { return f.Path }

func (f *File) Load(_ context.Context) (secrets.Record, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read secrets file %s", f.Path)
	}
	rec, err := Decode(FormatFromPath(f.Path), data)
	if err != nil {
		return nil, errors.Wrap(err, f.Path)
	}
	return rec, nil
}
