package loader

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/conceptgraph/pkg/graph"
	"github.com/vanderheijden86/conceptgraph/pkg/model"
	"github.com/vanderheijden86/conceptgraph/pkg/testutil"
)

func TestDefaultDatasetIsValid(t *testing.T) {
	ds := Default()
	if len(ds.Nodes) < 20 {
		t.Errorf("expected at least 20 concepts, got %d", len(ds.Nodes))
	}
	testutil.AssertNoDuplicateIDs(t, ds)
	testutil.AssertLinksResolve(t, ds)

	m, err := graph.FromDataset(ds)
	if err != nil {
		t.Fatalf("built-in dataset does not load: %v", err)
	}
	if m.Clusters() != 1 {
		t.Errorf("expected one connected component, got %d", m.Clusters())
	}
	primaries := 0
	for _, n := range ds.Nodes {
		if n.Kind == model.KindPrimary {
			primaries++
		}
		if n.Description == "" {
			t.Errorf("node %s has no description", n.ID)
		}
	}
	if primaries != 7 {
		t.Errorf("expected 7 central themes, got %d", primaries)
	}
}

func TestLoadYAMLNormalizes(t *testing.T) {
	var warnings []string
	ds, err := Load("testdata/scenario.yaml", ParseOptions{
		WarningHandler: func(msg string) { warnings = append(warnings, msg) },
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	testutil.AssertNodeCount(t, ds, 4)
	if ds.Nodes[0].Kind != model.KindPrimary || ds.Nodes[2].Kind != model.KindSecondary {
		t.Errorf("kinds not normalized: %q %q", ds.Nodes[0].Kind, ds.Nodes[2].Kind)
	}
	if ds.Nodes[2].Name != "S1" {
		t.Errorf("nameless node should fall back to its id, got %q", ds.Nodes[2].Name)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "S1") {
		t.Errorf("expected one warning about S1, got %v", warnings)
	}
	if ds.Nodes[3].Color != "#123456" {
		t.Errorf("color override lost: %+v", ds.Nodes[3])
	}
	if len(ds.Links) != 3 || ds.Links[2].Relationship != "regulates" {
		t.Errorf("unexpected links: %v", ds.Links)
	}
}

func TestLoadJSONStripsBOM(t *testing.T) {
	ds, err := Load("testdata/bom.json", ParseOptions{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ds.Nodes) != 1 || ds.Nodes[0].ID != "a" {
		t.Errorf("unexpected dataset: %+v", ds)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load("graph.toml", ParseOptions{}); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json"), ParseOptions{}); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected a not-exist error, got %v", err)
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte(`{"nodes": [`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad, ParseOptions{}); err == nil || !strings.Contains(err.Error(), "malformed json") {
		t.Errorf("expected a malformed error, got %v", err)
	}
}

func TestLoadContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := LoadContext(ctx, "testdata/scenario.yaml", ParseOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestLoadEmptyPathUsesDefault(t *testing.T) {
	ds, err := Load("", ParseOptions{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ds.Nodes) != len(Default().Nodes) {
		t.Error("empty path should load the built-in dataset")
	}
}

func TestResolvePath(t *testing.T) {
	t.Setenv(DataEnvVar, "/tmp/from-env.json")
	if got := ResolvePath(""); got != "/tmp/from-env.json" {
		t.Errorf("ResolvePath(\"\") = %q", got)
	}
	if got := ResolvePath("explicit.yaml"); got != "explicit.yaml" {
		t.Errorf("explicit path should win, got %q", got)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	for _, f := range []Format{FormatJSON, FormatYAML} {
		var buf bytes.Buffer
		if err := Write(&buf, testutil.Scenario(), f); err != nil {
			t.Fatalf("Write(%s): %v", f, err)
		}
		ds, err := Parse(&buf, f, ParseOptions{})
		if err != nil {
			t.Fatalf("Parse(%s): %v", f, err)
		}
		if len(ds.Nodes) != 4 || len(ds.Links) != 3 || ds.Nodes[1].Description != "Second central theme." {
			t.Errorf("%s round trip lost data: %+v", f, ds)
		}
	}
}
