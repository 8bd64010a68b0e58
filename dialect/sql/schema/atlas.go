package schema

import (
	"bytes"
	"context"
	"fmt"

	"ariga.io/atlas/sql/migrate"
	"ariga.io/atlas/sql/mysql"
	"ariga.io/atlas/sql/postgres"
	"ariga.io/atlas/sql/schema"
	"ariga.io/atlas/sql/sqlite"

	"github.com/syssam/apigen/compiler/gen"
	"github.com/syssam/apigen/dialect"
)

// AtlasSchema converts the tables to an atlas schema with the column types
// of the given dialect.
func AtlasSchema(d, name string, tables []*Table) (*schema.Schema, error) {
	if !dialect.Valid(d) {
		return nil, fmt.Errorf("dialect/sql/schema: unsupported dialect %q", d)
	}
	var (
		s      = schema.New(name)
		byName = make(map[string]*schema.Table, len(tables))
	)
	for _, t := range tables {
		at := schema.NewTable(t.Name)
		if t.Comment != "" && d != dialect.SQLite {
			at.SetComment(t.Comment)
		}
		for _, c := range t.Columns {
			ac, err := atlasColumn(d, c)
			if err != nil {
				return nil, fmt.Errorf("dialect/sql/schema: table %q: %w", t.Name, err)
			}
			at.AddColumns(ac)
		}
		if len(t.PrimaryKey) > 0 {
			cols := make([]*schema.Column, len(t.PrimaryKey))
			for i, c := range t.PrimaryKey {
				cols[i], _ = at.Column(c.Name)
			}
			at.SetPrimaryKey(schema.NewPrimaryKey(cols...))
		}
		for _, c := range t.Columns {
			if c.Unique && !c.PrimaryKey() {
				ac, _ := at.Column(c.Name)
				at.AddIndexes(schema.NewUniqueIndex(fmt.Sprintf("%s_%s_key", t.Name, c.Name)).AddColumns(ac))
			}
		}
		for _, idx := range t.Indexes {
			ai := schema.NewIndex(idx.Name).SetUnique(idx.Unique)
			for _, c := range idx.Columns {
				ac, _ := at.Column(c.Name)
				ai.AddColumns(ac)
			}
			at.AddIndexes(ai)
		}
		s.AddTables(at)
		byName[t.Name] = at
	}
	for _, t := range tables {
		at := byName[t.Name]
		for _, fk := range t.ForeignKeys {
			ref, ok := byName[fk.RefTable.Name]
			if !ok {
				return nil, fmt.Errorf("dialect/sql/schema: foreign key %q references unknown table %q", fk.Symbol, fk.RefTable.Name)
			}
			afk := schema.NewForeignKey(fk.Symbol).SetTable(at).SetRefTable(ref)
			for _, c := range fk.Columns {
				ac, _ := at.Column(c.Name)
				afk.AddColumns(ac)
			}
			for _, c := range fk.RefColumns {
				ac, _ := ref.Column(c.Name)
				afk.AddRefColumns(ac)
			}
			if fk.OnDelete != "" {
				afk.SetOnDelete(schema.ReferenceOption(fk.OnDelete))
			}
			at.AddForeignKeys(afk)
		}
	}
	return s, nil
}

func atlasColumn(d string, c *Column) (*schema.Column, error) {
	t, err := atlasType(d, c)
	if err != nil {
		return nil, err
	}
	ac := schema.NewColumn(c.Name).SetType(t).SetNull(c.Nullable)
	if c.Comment != "" && d != dialect.SQLite {
		ac.SetComment(c.Comment)
	}
	if c.Increment && d == dialect.MySQL {
		ac.AddAttrs(&mysql.AutoIncrement{})
	}
	return ac, nil
}

func atlasType(d string, c *Column) (schema.Type, error) {
	switch c.Type {
	case TypeInt:
		switch {
		case d == dialect.SQLite:
			return &schema.IntegerType{T: "integer"}, nil
		case c.Increment && d == dialect.Postgres:
			return &postgres.SerialType{T: postgres.TypeBigSerial}, nil
		default:
			return &schema.IntegerType{T: "bigint"}, nil
		}
	case TypeFloat:
		return &schema.FloatType{T: pick(d, "double", "double precision", "real")}, nil
	case TypeBool:
		return &schema.BoolType{T: pick(d, "bool", "boolean", "bool")}, nil
	case TypeString:
		if d == dialect.SQLite {
			return &schema.StringType{T: "text"}, nil
		}
		size := c.Size
		if size == 0 {
			size = DefaultStringSize
		}
		return &schema.StringType{T: "varchar", Size: int(size)}, nil
	case TypeText:
		return &schema.StringType{T: pick(d, "longtext", "text", "text")}, nil
	case TypeTime:
		return &schema.TimeType{T: pick(d, "datetime", "timestamptz", "datetime")}, nil
	case TypeDate:
		return &schema.TimeType{T: "date"}, nil
	case TypeUUID:
		switch d {
		case dialect.Postgres:
			return &schema.UUIDType{T: "uuid"}, nil
		case dialect.MySQL:
			return &schema.StringType{T: "char", Size: 36}, nil
		default:
			return &schema.StringType{T: "text"}, nil
		}
	case TypeEnum:
		switch d {
		case dialect.MySQL:
			return &schema.EnumType{T: "enum", Values: c.Enums}, nil
		case dialect.Postgres:
			return &schema.StringType{T: "varchar", Size: DefaultStringSize}, nil
		default:
			return &schema.StringType{T: "text"}, nil
		}
	case TypeJSON:
		return &schema.JSONType{T: pick(d, "json", "jsonb", "json")}, nil
	default:
		return nil, fmt.Errorf("unknown type %q for column %q", c.Type, c.Name)
	}
}

// pick returns the type name of the dialect.
func pick(d, my, pg, lite string) string {
	switch d {
	case dialect.MySQL:
		return my
	case dialect.Postgres:
		return pg
	default:
		return lite
	}
}

// planner returns the offline planner of the dialect.
func planner(d string) (migrate.PlanApplier, error) {
	switch d {
	case dialect.MySQL:
		return mysql.DefaultPlan, nil
	case dialect.Postgres:
		return postgres.DefaultPlan, nil
	case dialect.SQLite:
		return sqlite.DefaultPlan, nil
	default:
		return nil, fmt.Errorf("dialect/sql/schema: unsupported dialect %q", d)
	}
}

// Plan plans the statements that create the tables in an empty database.
// It does not connect to a database. MySQL and PostgreSQL tables are
// created first and their foreign keys added afterwards. SQLite tables
// carry their foreign keys inline.
func Plan(ctx context.Context, d string, tables []*Table) (*migrate.Plan, error) {
	pl, err := planner(d)
	if err != nil {
		return nil, err
	}
	s, err := AtlasSchema(d, "", tables)
	if err != nil {
		return nil, err
	}
	var (
		changes = make([]schema.Change, 0, len(s.Tables))
		fks     []schema.Change
	)
	for _, t := range s.Tables {
		if d == dialect.SQLite || len(t.ForeignKeys) == 0 {
			changes = append(changes, &schema.AddTable{T: t})
			continue
		}
		create := *t
		create.ForeignKeys = nil
		changes = append(changes, &schema.AddTable{T: &create})
		modify := &schema.ModifyTable{T: t}
		for _, fk := range t.ForeignKeys {
			modify.Changes = append(modify.Changes, &schema.AddForeignKey{F: fk})
		}
		fks = append(fks, modify)
	}
	// The planner sorts the changes it is given, the foreign keys are
	// planned separately to keep them behind every table.
	plan, err := pl.PlanChanges(ctx, "create", changes)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql/schema: plan %s: %w", d, err)
	}
	if len(fks) == 0 {
		return plan, nil
	}
	fkPlan, err := pl.PlanChanges(ctx, "create", fks)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql/schema: plan %s foreign keys: %w", d, err)
	}
	plan.Changes = append(plan.Changes, fkPlan.Changes...)
	plan.Reversible = plan.Reversible && fkPlan.Reversible
	plan.Transactional = plan.Transactional && fkPlan.Transactional
	return plan, nil
}

// Statements returns the commands of a plan.
func Statements(plan *migrate.Plan) []string {
	stmts := make([]string, len(plan.Changes))
	for i, c := range plan.Changes {
		stmts[i] = c.Cmd
	}
	return stmts
}

// DDL returns the SQL script that creates the schema of the snapshot in an
// empty database of the given dialect.
func DDL(ctx context.Context, d string, s *gen.Snapshot) ([]byte, error) {
	tables, err := Tables(s)
	if err != nil {
		return nil, err
	}
	plan, err := Plan(ctx, d, tables)
	if err != nil {
		return nil, err
	}
	var b bytes.Buffer
	fmt.Fprintf(&b, "-- %s schema generated by apigen\n", d)
	for _, stmt := range Statements(plan) {
		b.WriteString(stmt)
		b.WriteString(";\n")
	}
	return b.Bytes(), nil
}
