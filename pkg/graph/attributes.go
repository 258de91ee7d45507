package graph

import "github.com/vanderheijden86/conceptgraph/pkg/model"

// KindStyle holds the defaults a kind contributes to its nodes.
type KindStyle struct {
	Radius   float64
	Color    string
	LabelMax int
	FontSize float64
	Bold     bool
}

// Palette maps kinds to their default styling.
type Palette struct {
	Primary   KindStyle
	Secondary KindStyle
}

// DefaultPalette matches the stock look: larger green primaries, smaller
// magenta secondaries.
func DefaultPalette() Palette {
	return Palette{
		Primary:   KindStyle{Radius: 15, Color: "#52AE77", LabelMax: 15, FontSize: 12, Bold: true},
		Secondary: KindStyle{Radius: 10, Color: "#AE528E", LabelMax: 12, FontSize: 10},
	}
}

// For returns the style of kind k. Unknown kinds fall back to secondary.
func (p Palette) For(k model.Kind) KindStyle {
	if k == model.KindPrimary {
		return p.Primary
	}
	return p.Secondary
}

// Attributes are the derived per-node visual attributes.
type Attributes struct {
	Radius   float64
	Color    string
	LabelMax int
	FontSize float64
	Bold     bool
}

// Attributes derives the visual attributes of id. Per-node overrides win over
// the kind defaults.
func (m *Model) Attributes(id string, p Palette) Attributes {
	n, ok := m.Node(id)
	if !ok {
		return Attributes{}
	}
	return AttributesOf(n, p)
}

// AttributesOf derives visual attributes for a standalone node.
func AttributesOf(n model.Node, p Palette) Attributes {
	ks := p.For(n.Kind)
	a := Attributes{
		Radius:   ks.Radius,
		Color:    ks.Color,
		LabelMax: ks.LabelMax,
		FontSize: ks.FontSize,
		Bold:     ks.Bold,
	}
	if n.Radius > 0 {
		a.Radius = n.Radius
	}
	if n.Color != "" {
		a.Color = n.Color
	}
	return a
}
