package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-openapi/inflect"
	"github.com/iancoleman/strcase"

	"github.com/syssam/apigen/compiler/gen"
)

// DefaultStringSize is the size of string columns without a maxLength.
const DefaultStringSize = 255

// NewTables returns the tables of a resolved graph.
func NewTables(g *gen.Graph) ([]*Table, error) {
	return Tables(gen.NewSnapshot(g))
}

// Tables returns the tables described by a snapshot. Entity tables come
// first in declaration order, followed by the join tables of the
// many-to-many relations.
//
// Owning sides of one-to-one and many-to-one relations become foreign-key
// columns. Inverse sides have no column. Collections of scalars and
// objects without a reference are stored as JSON.
func Tables(s *gen.Snapshot) ([]*Table, error) {
	var (
		tables = make([]*Table, 0, len(s.Types))
		byType = make(map[string]*Table, len(s.Types))
	)
	for _, ts := range s.Types {
		t := NewTable(ts.Table)
		t.Comment = ts.Description
		for _, fs := range ts.Fields {
			if fs.Relation != "" || fs.Link != "" {
				continue
			}
			c := column(fs)
			if fs.Primary {
				t.AddPrimary(c)
			} else {
				t.AddColumn(c)
			}
		}
		tables = append(tables, t)
		byType[ts.Name] = t
	}
	for _, ts := range s.Types {
		t := byType[ts.Name]
		for _, fs := range ts.Fields {
			if !fs.ForeignKey {
				continue
			}
			_, refTable, refColumn, err := target(s, byType, ts, fs)
			if err != nil {
				return nil, err
			}
			c := &Column{
				Name:     fs.JoinColumn,
				Type:     refColumn.Type,
				Size:     refColumn.Size,
				Nullable: fs.Nullable || !fs.Required,
				Unique:   fs.Relation == gen.O2O.Doctrine(),
				Comment:  fs.Description,
			}
			if c.Unique {
				c.Key = UniqueKey
			}
			onDelete := NoAction
			if c.Nullable {
				onDelete = SetNull
			}
			t.AddColumn(c)
			t.AddForeignKey(&ForeignKey{
				Symbol:     symbol(t.Name, c.Name, refTable.Name, refColumn.Name),
				Columns:    []*Column{c},
				RefTable:   refTable,
				RefColumns: []*Column{refColumn},
				OnDelete:   onDelete,
			})
		}
	}
	joins := make(map[string]bool)
	for _, ts := range s.Types {
		for _, fs := range ts.Fields {
			if fs.Relation != gen.M2M.Doctrine() {
				continue
			}
			ref, refTable, refColumn, err := target(s, byType, ts, fs)
			if err != nil {
				return nil, err
			}
			owner := byType[ts.Name]
			if len(owner.PrimaryKey) != 1 {
				return nil, fmt.Errorf("dialect/sql/schema: join table of %s.%s: table %q must have one primary key column", ts.Name, fs.Name, owner.Name)
			}
			jt := joinTable(ts.Name, owner, ref.Type, refTable, refColumn, fs)
			if joins[jt.Name] {
				continue
			}
			joins[jt.Name] = true
			tables = append(tables, jt)
		}
	}
	if res := ValidateSchema(tables); res.HasErrors() {
		return nil, fmt.Errorf("dialect/sql/schema: invalid schema:\n%s", res)
	}
	return tables, nil
}

// target returns the table and column a relation field references.
func target(s *gen.Snapshot, byType map[string]*Table, ts *gen.TypeSnapshot, fs *gen.FieldSnapshot) (gen.ColumnRef, *Table, *Column, error) {
	ref, ok := gen.ParseColumnRef(fs.ReferencedColumn)
	if !ok {
		return ref, nil, nil, fmt.Errorf("dialect/sql/schema: field %s.%s has no referenced column", ts.Name, fs.Name)
	}
	rt, ok := s.Type(ref.Type)
	if !ok {
		return ref, nil, nil, fmt.Errorf("dialect/sql/schema: field %s.%s references unknown entity %q", ts.Name, fs.Name, ref.Type)
	}
	rf, ok := rt.Field(ref.Field)
	if !ok {
		return ref, nil, nil, fmt.Errorf("dialect/sql/schema: field %s.%s references unknown column %s", ts.Name, fs.Name, ref)
	}
	table := byType[rt.Name]
	c, ok := table.Column(rf.Column)
	if !ok {
		return ref, nil, nil, fmt.Errorf("dialect/sql/schema: column %q of table %q is not stored", rf.Column, table.Name)
	}
	return ref, table, c, nil
}

// joinTable returns the join table of a many-to-many relation. The table of
// two entities is named after both in alphabetical order, post_tag. A
// self-referencing relation is named after the owner table and the field,
// person_friends.
func joinTable(ownerType string, owner *Table, refType string, ref *Table, refColumn *Column, fs *gen.FieldSnapshot) *Table {
	var (
		name  string
		left  = strcase.ToSnake(ownerType)
		right = strcase.ToSnake(refType)
	)
	if ownerType == refType {
		name = owner.Name + "_" + fs.Column
		right = inflect.Singularize(fs.Column)
		if right == left {
			right = "related_" + right
		}
	} else {
		pair := []string{left, right}
		sort.Strings(pair)
		name = strings.Join(pair, "_")
	}
	type side struct {
		column    *Column
		table     *Table
		refColumn *Column
	}
	pk := owner.PrimaryKey[0]
	sides := []side{
		{&Column{Name: left + "_id", Type: pk.Type, Size: pk.Size}, owner, pk},
		{&Column{Name: right + "_id", Type: refColumn.Type, Size: refColumn.Size}, ref, refColumn},
	}
	if ownerType != refType && right < left {
		sides[0], sides[1] = sides[1], sides[0]
	}
	t := NewTable(name)
	t.JoinTable = true
	for _, sd := range sides {
		t.AddPrimary(sd.column)
		t.AddForeignKey(&ForeignKey{
			Symbol:     symbol(name, sd.column.Name, sd.table.Name, sd.refColumn.Name),
			Columns:    []*Column{sd.column},
			RefTable:   sd.table,
			RefColumns: []*Column{sd.refColumn},
			OnDelete:   Cascade,
		})
	}
	return t
}

// column returns the column of a scalar field.
func column(fs *gen.FieldSnapshot) *Column {
	c := &Column{
		Name:     fs.Column,
		Nullable: !fs.Primary && (fs.Nullable || !fs.Required),
		Comment:  fs.Description,
	}
	switch fs.Type {
	case "integer":
		c.Type = TypeInt
		c.Increment = fs.Primary
	case "number":
		c.Type = TypeFloat
	case "boolean":
		c.Type = TypeBool
	case "string":
		switch {
		case len(fs.Enum) > 0:
			c.Type = TypeEnum
			for _, e := range fs.Enum {
				c.Enums = append(c.Enums, e.Value)
			}
		case fs.Format == "date-time":
			c.Type = TypeTime
		case fs.Format == "date":
			c.Type = TypeDate
		case fs.Format == "uuid":
			c.Type = TypeUUID
		case fs.MaxLength != nil && *fs.MaxLength > 65535:
			c.Type = TypeText
		default:
			c.Type = TypeString
			c.Size = DefaultStringSize
			if fs.MaxLength != nil && *fs.MaxLength > 0 {
				c.Size = *fs.MaxLength
			}
		}
	default:
		c.Type = TypeJSON
	}
	return c
}
