// Package load reads OpenAPI documents and extracts the object schemas
// that describe entities, keeping the declaration order of the document.
package load

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/iancoleman/strcase"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// ErrMalformed is returned when the document structure cannot be decoded.
var ErrMalformed = errors.New("load: malformed document")

// Document is the part of an OpenAPI document the generator consumes.
type Document struct {
	Title   string    `json:"title,omitempty"`
	Version string    `json:"version,omitempty"`
	Schemas []*Schema `json:"schemas,omitempty"`
}

// Schema represents one entry of components.schemas.
type Schema struct {
	// Name is the raw key of the schema object.
	Name        string      `json:"name,omitempty"`
	Type        string      `json:"type,omitempty"`
	Description string      `json:"description,omitempty"`
	Required    []string    `json:"required,omitempty"`
	PrimaryKey  []string    `json:"primary_key,omitempty"`
	Properties  []*Property `json:"properties,omitempty"`
	Line        int         `json:"-"`
}

// Property represents one entry of a schema's properties.
type Property struct {
	Name        string   `json:"name,omitempty"`
	Type        string   `json:"type,omitempty"`
	Format      string   `json:"format,omitempty"`
	ItemsType   string   `json:"items_type,omitempty"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	// Ref holds the schema object name referenced by $ref or items.$ref.
	Ref       string   `json:"ref,omitempty"`
	BackRef   string   `json:"backref,omitempty"`
	UseList   *bool    `json:"uselist,omitempty"`
	MinLength *int64   `json:"min_length,omitempty"`
	MaxLength *int64   `json:"max_length,omitempty"`
	Minimum   *float64 `json:"minimum,omitempty"`
	Maximum   *float64 `json:"maximum,omitempty"`
	MinItems  *int64   `json:"min_items,omitempty"`
	MaxItems  *int64   `json:"max_items,omitempty"`
	Pattern   string   `json:"pattern,omitempty"`
	Nullable  bool     `json:"nullable,omitempty"`
	ReadOnly  bool     `json:"read_only,omitempty"`
	Line      int      `json:"-"`
}

// IsRequired reports if the property is listed in the schema required list.
func (s *Schema) IsRequired(p *Property) bool {
	return contains(s.Required, Snake(p.Name))
}

// IsPrimary reports if the property is listed in the schema x-primary-key list.
func (s *Schema) IsPrimary(p *Property) bool {
	return contains(s.PrimaryKey, Snake(p.Name))
}

// ParseFile reads and parses the document at path.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load: read %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Parse parses a YAML or JSON encoded OpenAPI document.
func Parse(data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("load: decode document: %w", err)
	}
	doc := &Document{}
	if len(root.Content) == 0 {
		return doc, nil
	}
	top := root.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: line %d: document root is not a mapping", ErrMalformed, top.Line)
	}
	if info := lookup(top, "info"); info != nil {
		var i struct {
			Title   string `yaml:"title"`
			Version string `yaml:"version"`
		}
		if err := info.Decode(&i); err != nil {
			return nil, fmt.Errorf("%w: line %d: info: %v", ErrMalformed, info.Line, err)
		}
		doc.Title, doc.Version = i.Title, i.Version
	}
	schemas := lookup(lookup(top, "components"), "schemas")
	if schemas == nil {
		return doc, nil
	}
	if schemas.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: line %d: components.schemas is not a mapping", ErrMalformed, schemas.Line)
	}
	for i := 0; i+1 < len(schemas.Content); i += 2 {
		s, err := parseSchema(schemas.Content[i].Value, schemas.Content[i+1])
		if err != nil {
			return nil, err
		}
		doc.Schemas = append(doc.Schemas, s)
	}
	return doc, nil
}

type rawSchema struct {
	Type        typeName  `yaml:"type"`
	Description string    `yaml:"description"`
	Required    []string  `yaml:"required"`
	PrimaryKey  []string  `yaml:"x-primary-key"`
	Properties  yaml.Node `yaml:"properties"`
}

type rawItems struct {
	Type typeName `yaml:"type"`
	Ref  string   `yaml:"$ref"`
}

type rawProperty struct {
	Type        typeName  `yaml:"type"`
	Format      string    `yaml:"format"`
	Description string    `yaml:"description"`
	Enum        []any     `yaml:"enum"`
	Ref         string    `yaml:"$ref"`
	Items       *rawItems `yaml:"items"`
	BackRef     string    `yaml:"x-backref"`
	UseList     *bool     `yaml:"x-uselist"`
	MinLength   int64     `yaml:"minLength"`
	MaxLength   int64     `yaml:"maxLength"`
	Minimum     float64   `yaml:"minimum"`
	Maximum     float64   `yaml:"maximum"`
	MinItems    int64     `yaml:"minItems"`
	MaxItems    int64     `yaml:"maxItems"`
	Pattern     string    `yaml:"pattern"`
	Nullable    *bool     `yaml:"nullable"`
	ReadOnly    *bool     `yaml:"readOnly"`
}

func parseSchema(name string, node *yaml.Node) (*Schema, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: line %d: schema %q is not a mapping", ErrMalformed, node.Line, name)
	}
	var raw rawSchema
	if err := node.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: line %d: schema %q: %v", ErrMalformed, node.Line, name, err)
	}
	s := &Schema{
		Name:        name,
		Type:        raw.Type.name,
		Description: raw.Description,
		Required:    snakeAll(raw.Required),
		PrimaryKey:  snakeAll(raw.PrimaryKey),
		Line:        node.Line,
	}
	props := &raw.Properties
	switch props.Kind {
	case 0:
		return s, nil
	case yaml.MappingNode:
	default:
		return nil, fmt.Errorf("%w: line %d: properties of schema %q is not a mapping", ErrMalformed, props.Line, name)
	}
	for i := 0; i+1 < len(props.Content); i += 2 {
		p, err := parseProperty(props.Content[i].Value, props.Content[i+1])
		if err != nil {
			return nil, fmt.Errorf("schema %q: %w", name, err)
		}
		s.Properties = append(s.Properties, p)
	}
	return s, nil
}

func parseProperty(name string, node *yaml.Node) (*Property, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: line %d: property %q is not a mapping", ErrMalformed, node.Line, name)
	}
	var raw rawProperty
	if err := node.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: line %d: property %q: %v", ErrMalformed, node.Line, name, err)
	}
	p := &Property{
		Name:        name,
		Type:        raw.Type.name,
		Format:      raw.Format,
		Description: raw.Description,
		BackRef:     raw.BackRef,
		UseList:     raw.UseList,
		Pattern:     raw.Pattern,
		Nullable:    raw.Type.null || (raw.Nullable != nil && *raw.Nullable),
		ReadOnly:    raw.ReadOnly != nil && *raw.ReadOnly,
		Line:        node.Line,
	}
	for _, v := range raw.Enum {
		p.Enum = append(p.Enum, Snake(fmt.Sprint(v)))
	}
	if raw.Ref != "" {
		p.Ref = RefName(raw.Ref)
	}
	if raw.Items != nil {
		p.ItemsType = raw.Items.Type.name
		if raw.Items.Ref != "" {
			p.Ref = RefName(raw.Items.Ref)
		}
	}
	// Zero constraints are treated as absent.
	if raw.MinLength != 0 {
		p.MinLength = &raw.MinLength
	}
	if raw.MaxLength != 0 {
		p.MaxLength = &raw.MaxLength
	}
	if raw.Minimum != 0 {
		p.Minimum = &raw.Minimum
	}
	if raw.Maximum != 0 {
		p.Maximum = &raw.Maximum
	}
	if raw.MinItems != 0 {
		p.MinItems = &raw.MinItems
	}
	if raw.MaxItems != 0 {
		p.MaxItems = &raw.MaxItems
	}
	return p, nil
}

// typeName decodes the OpenAPI "type" keyword. Both the scalar form and the
// 3.1 list form ([integer, "null"]) are accepted.
type typeName struct {
	name string
	null bool
}

var fold = cases.Lower(language.Und)

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *typeName) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		t.name = fold.String(strings.TrimSpace(node.Value))
		return nil
	case yaml.SequenceNode:
		for _, n := range node.Content {
			switch v := fold.String(strings.TrimSpace(n.Value)); {
			case v == "null":
				t.null = true
			case t.name == "":
				t.name = v
			}
		}
		return nil
	default:
		return fmt.Errorf("line %d: type must be a string or a list of strings", node.Line)
	}
}

// RefName returns the schema object name a $ref points to.
//
//	RefName("#/components/schemas/User")          // User
//	RefName("common.yaml#/components/schemas/Tag") // Tag
func RefName(ref string) string {
	if i := strings.LastIndexByte(ref, '/'); i >= 0 {
		return ref[i+1:]
	}
	if i := strings.LastIndexByte(ref, '#'); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

// EntityName returns the entity name for a schema object name. With an empty
// suffix every object is an entity. Otherwise, only objects whose name ends
// with the suffix are entities and the suffix is trimmed from the name.
func EntityName(object, suffix string) (string, bool) {
	if suffix == "" {
		return object, object != ""
	}
	name, ok := strings.CutSuffix(object, suffix)
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

// Snake converts a camelCase or PascalCase name to snake_case.
func Snake(s string) string {
	return strcase.ToSnake(s)
}

func snakeAll(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = Snake(n)
	}
	return out
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// lookup returns the value node of key in a mapping node, or nil.
func lookup(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}
