// Package graph holds the authoritative concept dataset: the id index, the
// relationship list, per-node visibility and derived visual attributes.
//
// A Model is built once by Load and is not safe for concurrent mutation; it is
// owned by the UI loop like the rest of a mounted graph.
package graph

import (
	"fmt"
	"sort"

	"github.com/vanderheijden86/conceptgraph/pkg/model"

	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Model is the ConceptGraphModel.
type Model struct {
	nodes   []model.Node
	index   map[string]int // id -> position in nodes
	visible []bool
	edges   []model.Edge

	incident map[string][]int

	// Undirected view of the relationships for neighbor queries.
	g        *simple.UndirectedGraph
	idToNode map[string]int64
	nodeToID map[int64]string
}

// Load validates the dataset and builds the model. Nothing is constructed when
// validation fails.
func Load(nodes []model.Node, edges []model.Edge) (*Model, error) {
	if len(nodes) == 0 {
		return nil, ErrEmptyDataset
	}

	index := make(map[string]int, len(nodes))
	for i, n := range nodes {
		if first, dup := index[n.ID]; dup {
			return nil, &DuplicateIDError{ID: n.ID, First: first, Second: i}
		}
		if !n.Kind.Valid() {
			return nil, &DataIntegrityError{
				Index:  i,
				Reason: fmt.Sprintf("node %q has unknown type %q", n.ID, n.Kind),
			}
		}
		index[n.ID] = i
	}

	for i, e := range edges {
		if _, ok := index[e.Source]; !ok {
			return nil, &DataIntegrityError{Index: i, Source: e.Source, Target: e.Target, Missing: e.Source}
		}
		if _, ok := index[e.Target]; !ok {
			return nil, &DataIntegrityError{Index: i, Source: e.Source, Target: e.Target, Missing: e.Target}
		}
	}

	m := &Model{
		nodes:    append([]model.Node(nil), nodes...),
		index:    index,
		visible:  make([]bool, len(nodes)),
		edges:    append([]model.Edge(nil), edges...),
		incident: make(map[string][]int, len(nodes)),
		g:        simple.NewUndirectedGraph(),
		idToNode: make(map[string]int64, len(nodes)),
		nodeToID: make(map[int64]string, len(nodes)),
	}

	for i, n := range m.nodes {
		m.visible[i] = true
		gn := m.g.NewNode()
		m.g.AddNode(gn)
		m.idToNode[n.ID] = gn.ID()
		m.nodeToID[gn.ID()] = n.ID
	}

	for i, e := range m.edges {
		m.incident[e.Source] = append(m.incident[e.Source], i)
		if e.Target != e.Source {
			m.incident[e.Target] = append(m.incident[e.Target], i)
			u, v := m.g.Node(m.idToNode[e.Source]), m.g.Node(m.idToNode[e.Target])
			m.g.SetEdge(m.g.NewEdge(u, v))
		}
	}

	return m, nil
}

// FromDataset is Load over a dataset document.
func FromDataset(ds model.Dataset) (*Model, error) {
	return Load(ds.Nodes, ds.Links)
}

// Len returns the number of nodes.
func (m *Model) Len() int { return len(m.nodes) }

// EdgeCount returns the number of relationships.
func (m *Model) EdgeCount() int { return len(m.edges) }

// Node returns the node with the given id.
func (m *Model) Node(id string) (model.Node, bool) {
	i, ok := m.index[id]
	if !ok {
		return model.Node{}, false
	}
	return m.nodes[i], true
}

// Has reports whether id exists.
func (m *Model) Has(id string) bool {
	_, ok := m.index[id]
	return ok
}

// Nodes returns all nodes in dataset order.
func (m *Model) Nodes() []model.Node {
	return append([]model.Node(nil), m.nodes...)
}

// Edges returns all relationships in dataset order.
func (m *Model) Edges() []model.Edge {
	return append([]model.Edge(nil), m.edges...)
}

// Edge returns the relationship at index i.
func (m *Model) Edge(i int) model.Edge {
	return m.edges[i]
}

// Order returns the dataset position of id, or -1.
func (m *Model) Order(id string) int {
	if i, ok := m.index[id]; ok {
		return i
	}
	return -1
}

// SetVisibility sets the visible flag on every node of the given kind and
// reports whether any flag changed.
func (m *Model) SetVisibility(kind model.Kind, visible bool) bool {
	changed := false
	for i, n := range m.nodes {
		if n.Kind != kind || m.visible[i] == visible {
			continue
		}
		m.visible[i] = visible
		changed = true
	}
	return changed
}

// IsVisible reports whether the node is visible. Unknown ids are not.
func (m *Model) IsVisible(id string) bool {
	i, ok := m.index[id]
	return ok && m.visible[i]
}

// IsEdgeVisible reports whether both endpoints of e are visible.
func (m *Model) IsEdgeVisible(e model.Edge) bool {
	return m.IsVisible(e.Source) && m.IsVisible(e.Target)
}

// VisibleNodeIDs returns the ids of visible nodes in dataset order.
func (m *Model) VisibleNodeIDs() []string {
	ids := make([]string, 0, len(m.nodes))
	for i, n := range m.nodes {
		if m.visible[i] {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// VisibleEdgeIndexes returns the indexes of visible relationships.
func (m *Model) VisibleEdgeIndexes() []int {
	var out []int
	for i, e := range m.edges {
		if m.IsEdgeVisible(e) {
			out = append(out, i)
		}
	}
	return out
}

// IncidentEdges returns the indexes of the relationships touching id.
func (m *Model) IncidentEdges(id string) []int {
	return append([]int(nil), m.incident[id]...)
}

// Neighbors returns the ids directly connected to id, in dataset order.
func (m *Model) Neighbors(id string) []string {
	gid, ok := m.idToNode[id]
	if !ok {
		return nil
	}
	nodes := gonum.NodesOf(m.g.From(gid))
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, m.nodeToID[n.ID()])
	}
	sort.Slice(out, func(i, j int) bool {
		return m.index[out[i]] < m.index[out[j]]
	})
	return out
}

// Degree returns the number of distinct neighbors of id.
func (m *Model) Degree(id string) int {
	gid, ok := m.idToNode[id]
	if !ok {
		return 0
	}
	return m.g.From(gid).Len()
}

// Clusters returns the number of connected components across all nodes.
func (m *Model) Clusters() int {
	return len(topo.ConnectedComponents(m.g))
}
