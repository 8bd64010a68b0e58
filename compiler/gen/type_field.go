package gen

import (
	"strings"

	"github.com/syssam/apigen/compiler/load"
)

// PropertyType is the OpenAPI type of a field. The zero value means the
// schema declares no type.
type PropertyType string

// Property types.
const (
	TypeUnset   PropertyType = ""
	TypeInteger PropertyType = "integer"
	TypeNumber  PropertyType = "number"
	TypeString  PropertyType = "string"
	TypeBoolean PropertyType = "boolean"
	TypeArray   PropertyType = "array"
	TypeObject  PropertyType = "object"
)

// String returns the type name, or "unset".
func (t PropertyType) String() string {
	if t == TypeUnset {
		return "unset"
	}
	return string(t)
}

// scalarRef reports if a reference of this type addresses a single row,
// that is, the type is integer or not declared.
func (t PropertyType) scalarRef() bool {
	return t == TypeInteger || t == TypeUnset
}

// ColumnRef identifies a field by its owner type name and field name.
// Relations store a ColumnRef instead of a pointer, and resolve it
// through the graph.
type ColumnRef struct {
	Type  string `json:"type" yaml:"type"`
	Field string `json:"field" yaml:"field"`
}

// IsZero reports if the reference is unset.
func (r ColumnRef) IsZero() bool { return r.Type == "" && r.Field == "" }

// String returns the reference as "Type.field".
func (r ColumnRef) String() string {
	if r.IsZero() {
		return ""
	}
	return r.Type + "." + r.Field
}

// ParseColumnRef parses a "Type.field" reference.
func ParseColumnRef(s string) (ColumnRef, bool) {
	typ, field, ok := strings.Cut(s, ".")
	if !ok || typ == "" || field == "" {
		return ColumnRef{}, false
	}
	return ColumnRef{Type: typ, Field: field}, true
}

// Field is a property of a Type. Besides the schema attributes it
// carries the relation state assigned by the Resolver.
type Field struct {
	def *load.Property
	typ *Type
	// Name is the property name as declared in the schema.
	Name string
	// Column is the snake_case database column name.
	Column      string
	Description string
	// Type is the OpenAPI type, TypeUnset when absent.
	Type      PropertyType
	Format    string
	ItemsType string
	Required  bool
	Primary   bool
	Nullable  bool
	ReadOnly  bool
	// Enum holds the snake_cased enum values, nil when absent.
	Enum []string
	// Link holds the schema object name a $ref (or items.$ref) points to.
	Link string
	// BackRef is the name of the inverse property on the linked type.
	BackRef string
	// UseList is the x-uselist hint; nil when the schema does not set it.
	UseList   *bool
	MinLength *int64
	MaxLength *int64
	Minimum   *float64
	Maximum   *float64
	MinItems  *int64
	MaxItems  *int64
	Pattern   string

	// Rel is the relation kind resolved for a reference field.
	Rel Rel
	// ForeignKey marks the owning side that holds the join column.
	ForeignKey bool
	// BackRefColumn marks the inverse side of a relation.
	BackRefColumn bool

	ref ColumnRef
}

func newField(p *load.Property, s *load.Schema) *Field {
	return &Field{
		def:         p,
		Name:        p.Name,
		Column:      snake(p.Name),
		Description: p.Description,
		Type:        PropertyType(p.Type),
		Format:      p.Format,
		ItemsType:   p.ItemsType,
		Required:    s.IsRequired(p),
		Primary:     s.IsPrimary(p),
		Nullable:    p.Nullable,
		ReadOnly:    p.ReadOnly,
		Enum:        p.Enum,
		Link:        p.Ref,
		BackRef:     p.BackRef,
		UseList:     p.UseList,
		MinLength:   p.MinLength,
		MaxLength:   p.MaxLength,
		Minimum:     p.Minimum,
		Maximum:     p.Maximum,
		MinItems:    p.MinItems,
		MaxItems:    p.MaxItems,
		Pattern:     p.Pattern,
	}
}

// Owner returns the type that declares the field.
func (f *Field) Owner() *Type { return f.typ }

// Ref returns the identifier of the referenced column.
func (f *Field) Ref() ColumnRef { return f.ref }

// ID returns the identifier of the field itself.
func (f *Field) ID() ColumnRef {
	var owner string
	if f.typ != nil {
		owner = f.typ.Name
	}
	return ColumnRef{Type: owner, Field: f.Name}
}

// String returns the field as "Type.field".
func (f *Field) String() string { return f.ID().String() }

// ReferencedColumn returns the field this field is paired with, or nil.
// For O2O and M2O owning sides it is the primary key of the target, for
// the inverse sides it is the owning field, and for M2M it is the primary
// key of the other type.
func (f *Field) ReferencedColumn() *Field {
	if f.ref.IsZero() || f.typ == nil || f.typ.graph == nil {
		return nil
	}
	return f.typ.graph.Field(f.ref)
}

// OneToOne indicates if the field resolved to an O2O relation.
func (f *Field) OneToOne() bool { return f.Rel == O2O }

// ManyToOne indicates if the field resolved to an M2O relation.
func (f *Field) ManyToOne() bool { return f.Rel == M2O }

// OneToMany indicates if the field resolved to an O2M relation.
func (f *Field) OneToMany() bool { return f.Rel == O2M }

// ManyToMany indicates if the field resolved to an M2M relation.
func (f *Field) ManyToMany() bool { return f.Rel == M2M }

// IsReference indicates if the field links to another schema object.
func (f *Field) IsReference() bool { return f.Link != "" }

// IsRelation indicates if the field resolved to any relation.
func (f *Field) IsRelation() bool { return f.Rel != Unk }

// IsCollection indicates if the field holds many related rows.
func (f *Field) IsCollection() bool { return f.Rel == O2M || f.Rel == M2M }

// IsArray indicates if the field is array-typed.
func (f *Field) IsArray() bool { return f.Type == TypeArray }

// IsEnum indicates if the field declares enum values.
func (f *Field) IsEnum() bool { return len(f.Enum) > 0 }

// HasColumn indicates if the field is stored in its owner's table.
// Inverse sides and M2M fields live elsewhere.
func (f *Field) HasColumn() bool {
	return !f.BackRefColumn && f.Rel != M2M && f.Rel != O2M
}

// JoinColumn returns the column name of an owning relation field.
//
//	author -> author_id
func (f *Field) JoinColumn() string {
	return idColumn(f.Name)
}

// Accessor returns the PascalCase name used by the entity getter and setter.
//
//	createdAt -> CreatedAt (getCreatedAt, setCreatedAt)
func (f *Field) Accessor() string {
	return pascal(f.Name)
}

// ItemAccessor returns the singular PascalCase name used by the adder and
// remover of a collection field, or an empty string for other fields.
//
//	posts -> Post (addPost, removePost)
func (f *Field) ItemAccessor() string {
	if !f.IsCollection() {
		return ""
	}
	return pascal(singular(snake(f.Name)))
}

// Line returns the line of the property in the source document.
func (f *Field) Line() int {
	if f.def == nil {
		return 0
	}
	return f.def.Line
}

// EnumConstant is a class constant generated for an enum value.
type EnumConstant struct {
	// Name is the constant name, e.g. STATUS_DRAFT.
	Name string `json:"name" yaml:"name"`
	// Value is the lower-case enum value, e.g. draft.
	Value string `json:"value" yaml:"value"`
}

// EnumConstants returns the class constants of an enum field.
//
//	status: [draft, published] -> STATUS_DRAFT = "draft", STATUS_PUBLISHED = "published"
func (f *Field) EnumConstants() []EnumConstant {
	if !f.IsEnum() {
		return nil
	}
	consts := make([]EnumConstant, len(f.Enum))
	for i, v := range f.Enum {
		consts[i] = EnumConstant{
			Name:  strings.ToUpper(f.Column + "_" + v),
			Value: strings.ToLower(v),
		}
	}
	return consts
}
