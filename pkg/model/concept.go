// Package model defines the concept graph document: nodes, relationships and
// the notification payloads exchanged with UI collaborators.
package model

import "fmt"

// Kind classifies a concept. It decides default radius, color and label size.
type Kind string

const (
	KindPrimary   Kind = "primary"   // central theme
	KindSecondary Kind = "secondary" // related concept
)

// Kinds lists every known kind in display order.
var Kinds = []Kind{KindPrimary, KindSecondary}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k == KindPrimary || k == KindSecondary
}

// Label returns the human-readable name shown in tooltips and the drawer.
func (k Kind) Label() string {
	switch k {
	case KindPrimary:
		return "Central theme"
	case KindSecondary:
		return "Related concept"
	default:
		return string(k)
	}
}

// Node is a single concept in the knowledge graph.
type Node struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Kind        Kind   `json:"type" yaml:"type"`
	Description string `json:"description" yaml:"description"`

	// Optional overrides; zero means "derive from Kind".
	Radius float64 `json:"radius,omitempty" yaml:"radius,omitempty"`
	Color  string  `json:"color,omitempty" yaml:"color,omitempty"`
}

// Edge is a directed, labeled relationship between two concepts.
// The relationship label is display-only.
type Edge struct {
	Source       string `json:"source" yaml:"source"`
	Target       string `json:"target" yaml:"target"`
	Relationship string `json:"relationship,omitempty" yaml:"relationship,omitempty"`
}

// Touches reports whether id is one of the edge endpoints.
func (e Edge) Touches(id string) bool {
	return e.Source == id || e.Target == id
}

// Other returns the endpoint opposite to id.
func (e Edge) Other(id string) string {
	if e.Source == id {
		return e.Target
	}
	return e.Source
}

func (e Edge) String() string {
	return fmt.Sprintf("%s -> %s", e.Source, e.Target)
}

// Dataset is the static nodes/links document loaded at mount time.
type Dataset struct {
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Links []Edge `json:"links" yaml:"links"`
}

// Point is a position in world (layout) coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeSelected is broadcast whenever the user selects a concept.
type NodeSelected struct {
	ID          string
	Name        string
	Kind        Kind
	Description string
}

// SelectionOf builds the notification payload for n.
func SelectionOf(n Node) NodeSelected {
	return NodeSelected{
		ID:          n.ID,
		Name:        n.Name,
		Kind:        n.Kind,
		Description: n.Description,
	}
}
