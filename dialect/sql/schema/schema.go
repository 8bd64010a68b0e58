// Package schema builds the relational schema of a resolved model, plans
// its DDL with atlas and migrates live databases to it.
package schema

import "fmt"

// Table schema definition for SQL dialects.
type Table struct {
	Name        string
	Comment     string
	Columns     []*Column
	columns     map[string]*Column
	PrimaryKey  []*Column
	ForeignKeys []*ForeignKey
	Indexes     []*Index
	// JoinTable marks the tables created for many-to-many relations.
	JoinTable bool
}

// NewTable returns a new table with the given name.
func NewTable(name string) *Table {
	return &Table{
		Name:    name,
		columns: make(map[string]*Column),
	}
}

// AddColumn appends the given column to the table column list.
func (t *Table) AddColumn(c *Column) *Table {
	if t.columns == nil {
		t.columns = make(map[string]*Column)
	}
	t.columns[c.Name] = c
	t.Columns = append(t.Columns, c)
	return t
}

// AddPrimary adds a new primary key to the table.
func (t *Table) AddPrimary(c *Column) *Table {
	c.Key = PrimaryKey
	t.AddColumn(c)
	t.PrimaryKey = append(t.PrimaryKey, c)
	return t
}

// AddForeignKey adds a foreign key to the table.
func (t *Table) AddForeignKey(fk *ForeignKey) *Table {
	t.ForeignKeys = append(t.ForeignKeys, fk)
	return t
}

// AddIndex creates and adds a new index to the table from the given options.
func (t *Table) AddIndex(name string, unique bool, columns []string) *Table {
	idx := &Index{Name: name, Unique: unique}
	for _, name := range columns {
		if c, ok := t.Column(name); ok {
			idx.Columns = append(idx.Columns, c)
		}
	}
	t.Indexes = append(t.Indexes, idx)
	return t
}

// Column returns the column with the given name, if exists.
func (t *Table) Column(name string) (*Column, bool) {
	if c, ok := t.columns[name]; ok {
		return c, true
	}
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// ColumnType is the portable type of a column. It is mapped to a concrete
// type of each dialect when the table is converted to an atlas table.
type ColumnType string

// Column types.
const (
	TypeInt    ColumnType = "int"
	TypeFloat  ColumnType = "float"
	TypeBool   ColumnType = "bool"
	TypeString ColumnType = "string"
	TypeText   ColumnType = "text"
	TypeTime   ColumnType = "time"
	TypeDate   ColumnType = "date"
	TypeUUID   ColumnType = "uuid"
	TypeEnum   ColumnType = "enum"
	TypeJSON   ColumnType = "json"
)

// Column key types.
const (
	PrimaryKey = "PRI"
	UniqueKey  = "UNI"
)

// Column schema definition for SQL dialects.
type Column struct {
	Name      string
	Type      ColumnType
	Size      int64
	Key       string
	Unique    bool
	Increment bool
	Nullable  bool
	Default   any
	Enums     []string
	Comment   string
}

// PrimaryKey returns a boolean indicates if this column is on of the primary key columns.
func (c *Column) PrimaryKey() bool { return c.Key == PrimaryKey }

// ReferenceOption for constraint actions.
type ReferenceOption string

// Reference options.
const (
	NoAction ReferenceOption = "NO ACTION"
	Cascade  ReferenceOption = "CASCADE"
	SetNull  ReferenceOption = "SET NULL"
)

// ForeignKey definition for creation.
type ForeignKey struct {
	Symbol     string
	Columns    []*Column
	RefTable   *Table
	RefColumns []*Column
	OnDelete   ReferenceOption
}

// Index definition for table index.
type Index struct {
	Name    string
	Unique  bool
	Columns []*Column
}

// symbol returns the name of a foreign-key constraint.
//
//	post_author_id_user_id
func symbol(table, column, ref, refColumn string) string {
	return fmt.Sprintf("%s_%s_%s_%s", table, column, ref, refColumn)
}
