package testutil

import (
	"slices"
	"testing"

	"github.com/vanderheijden86/conceptgraph/pkg/model"
)

// AssertNodeCount verifies the expected number of nodes.
func AssertNodeCount(t *testing.T, ds model.Dataset, expected int) {
	t.Helper()
	if len(ds.Nodes) != expected {
		t.Errorf("expected %d nodes, got %d", expected, len(ds.Nodes))
	}
}

// AssertNoDuplicateIDs verifies all node IDs are unique.
func AssertNoDuplicateIDs(t *testing.T, ds model.Dataset) {
	t.Helper()
	seen := make(map[string]bool)
	for _, n := range ds.Nodes {
		if seen[n.ID] {
			t.Errorf("duplicate node ID: %s", n.ID)
		}
		seen[n.ID] = true
	}
}

// AssertLinksResolve verifies every link endpoint names an existing node.
func AssertLinksResolve(t *testing.T, ds model.Dataset) {
	t.Helper()
	ids := make(map[string]bool, len(ds.Nodes))
	for _, n := range ds.Nodes {
		ids[n.ID] = true
	}
	for i, l := range ds.Links {
		if !ids[l.Source] || !ids[l.Target] {
			t.Errorf("link %d (%s) has an unknown endpoint", i, l)
		}
	}
}

// AssertSameIDs compares two id lists ignoring order.
func AssertSameIDs(t *testing.T, what string, got, want []string) {
	t.Helper()
	g := slices.Clone(got)
	w := slices.Clone(want)
	slices.Sort(g)
	slices.Sort(w)
	if !slices.Equal(g, w) {
		t.Errorf("%s: got %v, want %v", what, g, w)
	}
}
