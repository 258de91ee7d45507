// Package loader reads concept datasets from JSON or YAML documents, or from
// the dataset compiled into the binary.
package loader

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vanderheijden86/conceptgraph/pkg/model"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// DataEnvVar overrides the dataset path when no explicit path is given.
const DataEnvVar = "CG_DATA"

//go:embed data/concepts.json
var defaultDataset []byte

// Format is a dataset document encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

func (f Format) String() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "json"
}

// ErrUnsupportedFormat is returned for file extensions the loader cannot read.
var ErrUnsupportedFormat = errors.New("unsupported dataset format")

// FormatOf infers the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
}

// ResolvePath returns path, or the CG_DATA environment variable when path is
// empty. An empty result means the built-in dataset.
func ResolvePath(path string) string {
	if path != "" {
		return path
	}
	return os.Getenv(DataEnvVar)
}

// ParseOptions configures Parse.
type ParseOptions struct {
	// WarningHandler receives non-fatal notes (e.g. a node without a name).
	// If nil, warnings are dropped.
	WarningHandler func(string)
}

// Default returns the built-in concept dataset.
func Default() model.Dataset {
	ds, err := Parse(bytes.NewReader(defaultDataset), FormatJSON, ParseOptions{})
	if err != nil {
		panic(fmt.Sprintf("embedded dataset is invalid: %v", err))
	}
	return ds
}

// Load reads the dataset at path, or the built-in one when path is empty.
func Load(path string, opts ParseOptions) (model.Dataset, error) {
	return LoadContext(context.Background(), path, opts)
}

// LoadContext is Load honoring cancellation between reading and parsing.
func LoadContext(ctx context.Context, path string, opts ParseOptions) (model.Dataset, error) {
	if path == "" {
		return Default(), nil
	}
	format, err := FormatOf(path)
	if err != nil {
		return model.Dataset{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Dataset{}, fmt.Errorf("failed to read dataset: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return model.Dataset{}, err
	}
	ds, err := Parse(bytes.NewReader(data), format, opts)
	if err != nil {
		return model.Dataset{}, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// Parse decodes a dataset document. Kinds are normalized (trimmed, lower
// case) and nameless nodes fall back to their id; referential checks are left
// to graph.Load.
func Parse(r io.Reader, format Format, opts ParseOptions) (model.Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return model.Dataset{}, fmt.Errorf("error reading dataset: %w", err)
	}
	data = stripBOM(data)

	var ds model.Dataset
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &ds)
	default:
		err = json.Unmarshal(data, &ds)
	}
	if err != nil {
		return model.Dataset{}, fmt.Errorf("malformed %s dataset: %w", format, err)
	}

	warn := opts.WarningHandler
	if warn == nil {
		warn = func(string) {}
	}
	for i := range ds.Nodes {
		n := &ds.Nodes[i]
		n.ID = strings.TrimSpace(n.ID)
		n.Kind = normalizeKind(n.Kind)
		if n.Name == "" {
			warn(fmt.Sprintf("node %d (%s) has no name; using its id", i, n.ID))
			n.Name = n.ID
		}
	}
	for i := range ds.Links {
		ds.Links[i].Source = strings.TrimSpace(ds.Links[i].Source)
		ds.Links[i].Target = strings.TrimSpace(ds.Links[i].Target)
	}
	return ds, nil
}

// Write encodes ds in the given format.
func Write(w io.Writer, ds model.Dataset, format Format) error {
	if format == FormatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(ds); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ds)
}

// stripBOM removes the UTF-8 Byte Order Mark if present
func stripBOM(b []byte) []byte {
	if bytes.HasPrefix(b, []byte{0xEF, 0xBB, 0xBF}) {
		return b[3:]
	}
	return b
}

func normalizeKind(k model.Kind) model.Kind {
	trimmed := strings.TrimSpace(string(k))
	if trimmed == "" {
		return k
	}
	return model.Kind(strings.ToLower(trimmed))
}
