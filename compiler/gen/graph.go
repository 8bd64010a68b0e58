package gen

import (
	"github.com/syssam/apigen/compiler/load"
)

// Graph holds the entities of one document. Types are kept in insertion
// order and addressed by name. A graph belongs to a single run and is
// never shared between runs.
type Graph struct {
	*Config
	// Nodes are list of the types in the graph, in insertion order.
	Nodes []*Type
	nodes map[string]int
}

// NewGraph creates a graph with the entities of the given document.
// Relations are not resolved; use a Resolver for that.
func NewGraph(c *Config, doc *load.Document) (*Graph, error) {
	if c == nil {
		c = DefaultConfig()
	}
	g := &Graph{Config: c, nodes: make(map[string]int)}
	if doc == nil {
		return g, nil
	}
	for _, s := range doc.Schemas {
		name, ok := g.entityName(s)
		if !ok {
			continue
		}
		t, err := NewType(c, name, s)
		if err != nil {
			return nil, err
		}
		g.Add(t)
	}
	return g, nil
}

// entityName reports if the schema describes an entity, and returns its name.
func (g *Graph) entityName(s *load.Schema) (string, bool) {
	if s.Type != "" && s.Type != string(TypeObject) {
		return "", false
	}
	name, ok := load.EntityName(s.Name, g.EntitySuffix)
	if !ok {
		return "", false
	}
	// Without a suffix, schemas without properties (such as error or
	// marker objects) are not entities.
	if g.EntitySuffix == "" && len(s.Properties) == 0 {
		return "", false
	}
	return name, true
}

// Add adds the type to the graph. A type with the same name replaces the
// existing one and keeps its position.
func (g *Graph) Add(t *Type) {
	if g.nodes == nil {
		g.nodes = make(map[string]int)
	}
	t.graph = g
	if i, ok := g.nodes[t.Name]; ok {
		g.Nodes[i].graph = nil
		g.Nodes[i] = t
		return
	}
	g.nodes[t.Name] = len(g.Nodes)
	g.Nodes = append(g.Nodes, t)
}

// Find returns the type with the given name.
func (g *Graph) Find(name string) (*Type, bool) {
	i, ok := g.nodes[name]
	if !ok {
		return nil, false
	}
	return g.Nodes[i], true
}

// Linked returns the type a link (schema object name) refers to. The link is
// mapped to an entity name with the configured entity suffix.
func (g *Graph) Linked(link string) (*Type, bool) {
	suffix := ""
	if g.Config != nil {
		suffix = g.EntitySuffix
	}
	name, ok := load.EntityName(link, suffix)
	if !ok {
		return nil, false
	}
	return g.Find(name)
}

// All returns the types in insertion order.
func (g *Graph) All() []*Type {
	return g.Nodes
}

// Len returns the number of types in the graph.
func (g *Graph) Len() int {
	return len(g.Nodes)
}

// Field resolves a column reference, or returns nil if the type or the field
// does not exist.
func (g *Graph) Field(ref ColumnRef) *Field {
	t, ok := g.Find(ref.Type)
	if !ok {
		return nil
	}
	f, ok := t.fields[ref.Field]
	if !ok {
		return nil
	}
	return f
}
