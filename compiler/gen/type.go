package gen

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/syssam/apigen/compiler/load"
)

// Type represents one entity of the graph, the fields it holds and,
// after resolution, the relations these fields imply.
type Type struct {
	*Config
	schema *load.Schema
	graph  *Graph
	// Name holds the entity name, the schema object name without
	// the entity suffix.
	Name string
	// OriginName holds the raw schema object name.
	OriginName  string
	Description string
	// Fields holds the fields in declaration order.
	Fields []*Field
	fields map[string]*Field
}

// NewType creates a new type and its fields from the given schema.
func NewType(c *Config, name string, schema *load.Schema) (*Type, error) {
	if c == nil {
		c = DefaultConfig()
	}
	if name == "" {
		return nil, NewSchemaError(schema.Name, "", "empty entity name", nil)
	}
	typ := &Type{
		Config:      c,
		schema:      schema,
		Name:        name,
		OriginName:  schema.Name,
		Description: schema.Description,
		Fields:      make([]*Field, 0, len(schema.Properties)),
		fields:      make(map[string]*Field, len(schema.Properties)),
	}
	columns := make(map[string]string, len(schema.Properties))
	for _, p := range schema.Properties {
		f := newField(p, schema)
		f.typ = typ
		if prev, ok := columns[f.Column]; ok {
			return nil, NewSchemaError(name, f.Name, fmt.Sprintf("column %q is already used by field %q", f.Column, prev), nil)
		}
		columns[f.Column] = f.Name
		typ.Fields = append(typ.Fields, f)
		typ.fields[f.Name] = f
	}
	for _, pk := range schema.PrimaryKey {
		if _, ok := columns[pk]; !ok {
			return nil, NewSchemaError(name, pk, "x-primary-key names an unknown property", nil)
		}
	}
	return typ, nil
}

// Label returns the snake_case name of the type.
func (t *Type) Label() string {
	return snake(t.Name)
}

// Table returns the table name of the type.
func (t *Type) Table() string {
	if t.Config != nil && t.PluralTables {
		return plural(t.Label())
	}
	return t.Label()
}

// Namespace returns the PHP namespace of the entity class.
func (t *Type) Namespace() string {
	return t.bundle() + `\Entity`
}

// ClassName returns the fully qualified PHP class of the entity.
func (t *Type) ClassName() string {
	return t.Namespace() + `\` + t.Name
}

// RepositoryClass returns the fully qualified Doctrine repository class.
//
//	AppBundle\Repository\UserRepository
func (t *Type) RepositoryClass() string {
	return strings.Join([]string{t.bundle(), "Repository", t.Name + "Repository"}, `\`)
}

func (t *Type) bundle() string {
	if t.Config == nil || t.Bundle == "" {
		return defaultBundle
	}
	return t.Bundle
}

// Graph returns the graph the type was added to, or nil.
func (t *Type) Graph() *Graph { return t.graph }

// FieldByName returns the field with the given property name. The snake_case
// column name is accepted as well.
func (t *Type) FieldByName(name string) (*Field, bool) {
	if f, ok := t.fields[name]; ok {
		return f, true
	}
	return lo.Find(t.Fields, func(f *Field) bool {
		return f.Column == name
	})
}

// PrimaryKeys returns the fields listed in x-primary-key.
func (t *Type) PrimaryKeys() []*Field {
	return lo.Filter(t.Fields, func(f *Field, _ int) bool {
		return f.Primary
	})
}

// PrimaryKey returns the only primary key of the type. It fails with a
// PrimaryKeyError if the type declares zero or more than one key.
func (t *Type) PrimaryKey() (*Field, error) {
	return t.primaryKey("")
}

func (t *Type) primaryKey(referrer string) (*Field, error) {
	pks := t.PrimaryKeys()
	if len(pks) != 1 {
		return nil, NewPrimaryKeyError(t.Name, len(pks), referrer)
	}
	return pks[0], nil
}

// RelatedField returns the first field, in declaration order, that links to
// the schema object origin. The exclude field is skipped, so a field of a
// self-referencing type is never paired with itself.
func (t *Type) RelatedField(origin string, exclude *Field) *Field {
	f, _ := lo.Find(t.Fields, func(f *Field) bool {
		return f != exclude && f.Link == origin
	})
	return f
}

// RelatedFields returns all fields that link to the schema object origin,
// except exclude.
func (t *Type) RelatedFields(origin string, exclude *Field) []*Field {
	return lo.Filter(t.Fields, func(f *Field, _ int) bool {
		return f != exclude && f.Link == origin
	})
}

// ReferenceFields returns the fields that link to another schema object.
func (t *Type) ReferenceFields() []*Field {
	return lo.Filter(t.Fields, func(f *Field, _ int) bool {
		return f.IsReference()
	})
}

// EnumFields returns the fields that declare enum values.
func (t *Type) EnumFields() []*Field {
	return lo.Filter(t.Fields, func(f *Field, _ int) bool {
		return f.IsEnum()
	})
}

// OneToManyFields returns the fields that hold a collection of related
// entities (O2M and M2M). Doctrine initializes these as ArrayCollection
// in the entity constructor.
func (t *Type) OneToManyFields() []*Field {
	return lo.Filter(t.Fields, func(f *Field, _ int) bool {
		return f.IsCollection()
	})
}

// ForeignKeyFields returns the owning relation fields that hold a join
// column in the type table.
func (t *Type) ForeignKeyFields() []*Field {
	return lo.Filter(t.Fields, func(f *Field, _ int) bool {
		return f.ForeignKey
	})
}

// RelatedTypes returns all the types (nodes) that are related (with
// resolved relations) to this type.
func (t *Type) RelatedTypes() []*Type {
	if t.graph == nil {
		return nil
	}
	var related []*Type
	for _, f := range t.Fields {
		if !f.IsRelation() {
			continue
		}
		if target, ok := t.graph.Linked(f.Link); ok && target != t {
			related = append(related, target)
		}
	}
	return lo.Uniq(related)
}

// Line returns the line of the schema object in the source document.
func (t *Type) Line() int {
	if t.schema == nil {
		return 0
	}
	return t.schema.Line
}
