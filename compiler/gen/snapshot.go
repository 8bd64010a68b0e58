package gen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// Snapshot is the serializable view of a resolved graph. It is what the
// entity renderer consumes, and what the watch command compares between
// two runs.
type Snapshot struct {
	Bundle string          `json:"bundle" yaml:"bundle"`
	Types  []*TypeSnapshot `json:"types" yaml:"types"`
}

// TypeSnapshot describes one entity.
type TypeSnapshot struct {
	Name        string           `json:"name" yaml:"name"`
	Origin      string           `json:"origin" yaml:"origin"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
	Table       string           `json:"table" yaml:"table"`
	Class       string           `json:"class" yaml:"class"`
	Repository  string           `json:"repository" yaml:"repository"`
	Collections []string         `json:"collections,omitempty" yaml:"collections,omitempty"`
	Fields      []*FieldSnapshot `json:"fields" yaml:"fields"`
}

// FieldSnapshot describes one field and its resolved relation.
type FieldSnapshot struct {
	Name             string         `json:"name" yaml:"name"`
	Column           string         `json:"column" yaml:"column"`
	Accessor         string         `json:"accessor" yaml:"accessor"`
	ItemAccessor     string         `json:"item_accessor,omitempty" yaml:"item_accessor,omitempty"`
	Description      string         `json:"description,omitempty" yaml:"description,omitempty"`
	Type             string         `json:"type,omitempty" yaml:"type,omitempty"`
	Format           string         `json:"format,omitempty" yaml:"format,omitempty"`
	ItemsType        string         `json:"items_type,omitempty" yaml:"items_type,omitempty"`
	Required         bool           `json:"required,omitempty" yaml:"required,omitempty"`
	Primary          bool           `json:"primary,omitempty" yaml:"primary,omitempty"`
	Nullable         bool           `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	ReadOnly         bool           `json:"read_only,omitempty" yaml:"read_only,omitempty"`
	Enum             []EnumConstant `json:"enum,omitempty" yaml:"enum,omitempty"`
	Link             string         `json:"link,omitempty" yaml:"link,omitempty"`
	BackRef          string         `json:"backref,omitempty" yaml:"backref,omitempty"`
	UseList          *bool          `json:"uselist,omitempty" yaml:"uselist,omitempty"`
	MinLength        *int64         `json:"min_length,omitempty" yaml:"min_length,omitempty"`
	MaxLength        *int64         `json:"max_length,omitempty" yaml:"max_length,omitempty"`
	Minimum          *float64       `json:"minimum,omitempty" yaml:"minimum,omitempty"`
	Maximum          *float64       `json:"maximum,omitempty" yaml:"maximum,omitempty"`
	MinItems         *int64         `json:"min_items,omitempty" yaml:"min_items,omitempty"`
	MaxItems         *int64         `json:"max_items,omitempty" yaml:"max_items,omitempty"`
	Pattern          string         `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Relation         string         `json:"relation,omitempty" yaml:"relation,omitempty"`
	ForeignKey       bool           `json:"foreign_key,omitempty" yaml:"foreign_key,omitempty"`
	BackRefColumn    bool           `json:"backref_column,omitempty" yaml:"backref_column,omitempty"`
	JoinColumn       string         `json:"join_column,omitempty" yaml:"join_column,omitempty"`
	ReferencedColumn string         `json:"referenced_column,omitempty" yaml:"referenced_column,omitempty"`
}

// NewSnapshot creates the snapshot of the graph.
func NewSnapshot(g *Graph) *Snapshot {
	s := &Snapshot{Types: make([]*TypeSnapshot, 0, len(g.Nodes))}
	if g.Config != nil {
		s.Bundle = g.Bundle
	}
	for _, t := range g.Nodes {
		ts := &TypeSnapshot{
			Name:        t.Name,
			Origin:      t.OriginName,
			Description: t.Description,
			Table:       t.Table(),
			Class:       t.ClassName(),
			Repository:  t.RepositoryClass(),
			Fields:      make([]*FieldSnapshot, 0, len(t.Fields)),
		}
		for _, f := range t.OneToManyFields() {
			ts.Collections = append(ts.Collections, f.Name)
		}
		for _, f := range t.Fields {
			ts.Fields = append(ts.Fields, newFieldSnapshot(f))
		}
		s.Types = append(s.Types, ts)
	}
	return s
}

func newFieldSnapshot(f *Field) *FieldSnapshot {
	fs := &FieldSnapshot{
		Name:             f.Name,
		Column:           f.Column,
		Accessor:         f.Accessor(),
		ItemAccessor:     f.ItemAccessor(),
		Description:      f.Description,
		Type:             string(f.Type),
		Format:           f.Format,
		ItemsType:        f.ItemsType,
		Required:         f.Required,
		Primary:          f.Primary,
		Nullable:         f.Nullable,
		ReadOnly:         f.ReadOnly,
		Enum:             f.EnumConstants(),
		Link:             f.Link,
		BackRef:          f.BackRef,
		UseList:          f.UseList,
		MinLength:        f.MinLength,
		MaxLength:        f.MaxLength,
		Minimum:          f.Minimum,
		Maximum:          f.Maximum,
		MinItems:         f.MinItems,
		MaxItems:         f.MaxItems,
		Pattern:          f.Pattern,
		Relation:         f.Rel.Doctrine(),
		ForeignKey:       f.ForeignKey,
		BackRefColumn:    f.BackRefColumn,
		ReferencedColumn: f.ref.String(),
	}
	if f.ForeignKey {
		fs.JoinColumn = f.JoinColumn()
	}
	return fs
}

// Type returns the snapshot of the named type.
func (s *Snapshot) Type(name string) (*TypeSnapshot, bool) {
	for _, t := range s.Types {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// Field returns the snapshot of the named field.
func (t *TypeSnapshot) Field(name string) (*FieldSnapshot, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// JSON returns the indented JSON encoding of the snapshot.
func (s *Snapshot) JSON() ([]byte, error) {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// YAML returns the YAML encoding of the snapshot.
func (s *Snapshot) YAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Msgpack returns the msgpack encoding of the snapshot.
func (s *Snapshot) Msgpack() ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeSnapshot decodes a msgpack encoded snapshot.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	s := &Snapshot{}
	if err := dec.Decode(s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return s, nil
}

// LoadSnapshot reads a msgpack snapshot written by a previous run.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeSnapshot(data)
}

// Change describes a relation that differs between two snapshots.
type Change struct {
	Type  string `json:"type"`
	Field string `json:"field,omitempty"`
	// Old and New describe the relation as "ManyToOne User.id", or
	// "added"/"removed" for types and fields that exist on one side only.
	Old string `json:"old,omitempty"`
	New string `json:"new,omitempty"`
}

// String returns a human-readable description of the change.
func (c Change) String() string {
	name := c.Type
	if c.Field != "" {
		name += "." + c.Field
	}
	return fmt.Sprintf("%s: %q -> %q", name, c.Old, c.New)
}

// Diff returns the relation changes from s (the previous snapshot) to next.
// Types and fields are reported in the order of next, followed by removals.
func (s *Snapshot) Diff(next *Snapshot) []Change {
	var changes []Change
	for _, nt := range next.Types {
		pt, ok := s.Type(nt.Name)
		if !ok {
			changes = append(changes, Change{Type: nt.Name, Old: "", New: "added"})
			continue
		}
		for _, nf := range nt.Fields {
			pf, ok := pt.Field(nf.Name)
			switch {
			case !ok && nf.relation() != "":
				changes = append(changes, Change{Type: nt.Name, Field: nf.Name, New: nf.relation()})
			case ok && pf.relation() != nf.relation():
				changes = append(changes, Change{Type: nt.Name, Field: nf.Name, Old: pf.relation(), New: nf.relation()})
			}
		}
		for _, pf := range pt.Fields {
			if _, ok := nt.Field(pf.Name); !ok && pf.relation() != "" {
				changes = append(changes, Change{Type: nt.Name, Field: pf.Name, Old: pf.relation(), New: "removed"})
			}
		}
	}
	for _, pt := range s.Types {
		if _, ok := next.Type(pt.Name); !ok {
			changes = append(changes, Change{Type: pt.Name, Old: "", New: "removed"})
		}
	}
	return changes
}

// relation describes the relation of the field for diffing.
func (f *FieldSnapshot) relation() string {
	if f.Relation == "" {
		return ""
	}
	s := f.Relation + " " + f.ReferencedColumn
	switch {
	case f.ForeignKey:
		s += " (owner)"
	case f.BackRefColumn:
		s += " (inverse)"
	}
	return s
}
