// Package testutil provides deterministic concept-graph fixtures, generators
// and a controllable clock for tests.
package testutil

import (
	"fmt"
	"math/rand"

	"github.com/vanderheijden86/conceptgraph/pkg/model"

	"pgregory.net/rapid"
)

// Scenario returns the four-node fixture used across packages:
// primaries P1, P2 and secondaries S1, S2 with links P1-S1, P1-S2, P2-S1.
func Scenario() model.Dataset {
	return model.Dataset{
		Nodes: []model.Node{
			{ID: "P1", Name: "Primary One", Kind: model.KindPrimary, Description: "First central theme."},
			{ID: "P2", Name: "Primary Two", Kind: model.KindPrimary, Description: "Second central theme."},
			{ID: "S1", Name: "Secondary One", Kind: model.KindSecondary, Description: "First related concept."},
			{ID: "S2", Name: "Secondary Two", Kind: model.KindSecondary, Description: "Second related concept."},
		},
		Links: []model.Edge{
			{Source: "P1", Target: "S1", Relationship: "includes"},
			{Source: "P1", Target: "S2", Relationship: "includes"},
			{Source: "P2", Target: "S1", Relationship: "regulates"},
		},
	}
}

// GeneratorConfig controls dataset generation.
type GeneratorConfig struct {
	Seed         int64   // Random seed for determinism
	IDPrefix     string  // Prefix for node IDs (default: "N")
	PrimaryRatio float64 // Fraction of primary nodes (default: 0.3)
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:         42,
		IDPrefix:     "N",
		PrimaryRatio: 0.3,
	}
}

// Generator creates datasets with various topologies.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	if cfg.IDPrefix == "" {
		cfg.IDPrefix = "N"
	}
	if cfg.PrimaryRatio <= 0 {
		cfg.PrimaryRatio = 0.3
	}
	return &Generator{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
}

func (g *Generator) nodes(n int) []model.Node {
	out := make([]model.Node, n)
	for i := range out {
		kind := model.KindSecondary
		if g.rng.Float64() < g.cfg.PrimaryRatio {
			kind = model.KindPrimary
		}
		id := fmt.Sprintf("%s%d", g.cfg.IDPrefix, i)
		out[i] = model.Node{
			ID:          id,
			Name:        "Concept " + id,
			Kind:        kind,
			Description: "Generated concept " + id + ".",
		}
	}
	return out
}

// Star creates a hub (always primary) linked to n-1 leaves.
func (g *Generator) Star(n int) model.Dataset {
	nodes := g.nodes(n)
	nodes[0].Kind = model.KindPrimary
	var links []model.Edge
	for i := 1; i < n; i++ {
		links = append(links, model.Edge{Source: nodes[0].ID, Target: nodes[i].ID})
	}
	return model.Dataset{Nodes: nodes, Links: links}
}

// Chain creates n nodes linked one after another.
func (g *Generator) Chain(n int) model.Dataset {
	nodes := g.nodes(n)
	var links []model.Edge
	for i := 1; i < n; i++ {
		links = append(links, model.Edge{Source: nodes[i-1].ID, Target: nodes[i].ID})
	}
	return model.Dataset{Nodes: nodes, Links: links}
}

// Random creates n nodes and m random links between existing nodes.
// Self loops are not generated.
func (g *Generator) Random(n, m int) model.Dataset {
	nodes := g.nodes(n)
	var links []model.Edge
	if n < 2 {
		return model.Dataset{Nodes: nodes}
	}
	for len(links) < m {
		a, b := g.rng.Intn(n), g.rng.Intn(n)
		if a == b {
			continue
		}
		links = append(links, model.Edge{Source: nodes[a].ID, Target: nodes[b].ID})
	}
	return model.Dataset{Nodes: nodes, Links: links}
}

// DatasetGen draws valid datasets (unique ids, resolvable links) for property
// tests.
func DatasetGen() *rapid.Generator[model.Dataset] {
	return rapid.Custom(func(t *rapid.T) model.Dataset {
		n := rapid.IntRange(1, 24).Draw(t, "nodes")
		nodes := make([]model.Node, n)
		for i := range nodes {
			kind := model.KindSecondary
			if rapid.Bool().Draw(t, fmt.Sprintf("primary%d", i)) {
				kind = model.KindPrimary
			}
			id := fmt.Sprintf("n%d", i)
			nodes[i] = model.Node{ID: id, Name: "Node " + id, Kind: kind, Description: "about " + id}
		}
		m := rapid.IntRange(0, 3*n).Draw(t, "links")
		links := make([]model.Edge, m)
		for i := range links {
			a := rapid.IntRange(0, n-1).Draw(t, fmt.Sprintf("src%d", i))
			b := rapid.IntRange(0, n-1).Draw(t, fmt.Sprintf("dst%d", i))
			links[i] = model.Edge{Source: nodes[a].ID, Target: nodes[b].ID}
		}
		return model.Dataset{Nodes: nodes, Links: links}
	})
}
