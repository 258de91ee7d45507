// Package export writes a settled concept graph to disk: SVG and PNG
// snapshots of the rendered scene, or a SQLite database of concepts,
// relationships and final layout positions.
package export

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vanderheijden86/conceptgraph/pkg/conceptgraph"
	"github.com/vanderheijden86/conceptgraph/pkg/model"
	"github.com/vanderheijden86/conceptgraph/pkg/render"

	json "github.com/goccy/go-json"
)

// Format is an output format.
type Format string

const (
	FormatSVG    Format = "svg"
	FormatPNG    Format = "png"
	FormatSQLite Format = "sqlite"
)

// ErrUnsupportedFormat is returned for unknown formats or extensions.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// FormatOf resolves the output format from an explicit name, falling back to
// the path extension.
func FormatOf(path, explicit string) (Format, error) {
	name := strings.ToLower(strings.TrimPrefix(explicit, "."))
	if name == "" {
		name = strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	}
	switch name {
	case "svg":
		return FormatSVG, nil
	case "png":
		return FormatPNG, nil
	case "sqlite", "sqlite3", "db":
		return FormatSQLite, nil
	case "":
		return "", fmt.Errorf("%w: no extension on %q", ErrUnsupportedFormat, path)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// NodeRecord is one concept with its final layout position.
type NodeRecord struct {
	model.Node
	X, Y    float64
	Visible bool
	Degree  int
}

// Snapshot is everything an exporter needs from a mounted graph.
type Snapshot struct {
	Title    string
	Scene    render.Scene
	Nodes    []NodeRecord
	Edges    []model.Edge
	Clusters int
	DataHash string
	Colors   render.Colors
}

// FromGraph captures g. Settle the graph first for a stable picture.
func FromGraph(g *conceptgraph.Graph, title string) Snapshot {
	m := g.Model()
	nodes := m.Nodes()
	edges := m.Edges()
	snap := Snapshot{
		Title:    title,
		Scene:    g.Renderer().Scene(),
		Nodes:    make([]NodeRecord, 0, len(nodes)),
		Edges:    edges,
		Clusters: m.Clusters(),
		DataHash: DataHash(model.Dataset{Nodes: nodes, Links: edges}),
		Colors:   render.DefaultColors(),
	}
	for _, n := range nodes {
		rec := NodeRecord{Node: n, Visible: m.IsVisible(n.ID), Degree: m.Degree(n.ID)}
		if p, ok := g.Engine().Position(n.ID); ok {
			rec.X, rec.Y = p.X, p.Y
		}
		snap.Nodes = append(snap.Nodes, rec)
	}
	return snap
}

// DataHash fingerprints a dataset for provenance.
func DataHash(ds model.Dataset) string {
	data, err := json.Marshal(ds)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

// Save writes snap to path in the given format.
func Save(snap Snapshot, path string, format Format) error {
	switch format {
	case FormatSVG, FormatPNG:
		return SaveImage(snap, path, format)
	case FormatSQLite:
		return SaveSQLite(snap, path)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
