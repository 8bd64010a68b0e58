package schema

import (
	"context"
	"errors"
	"fmt"

	"ariga.io/atlas/sql/migrate"
	"ariga.io/atlas/sql/mysql"
	"ariga.io/atlas/sql/postgres"
	"ariga.io/atlas/sql/schema"
	"ariga.io/atlas/sql/sqlite"
	"ariga.io/atlas/sql/sqltool"

	"github.com/syssam/apigen/dialect"
	"github.com/syssam/apigen/dialect/sql"
)

type (
	// Differ is the interface that wraps the Diff method.
	Differ interface {
		// Diff returns the changes that migrate the current schema to the
		// desired one.
		Diff(current, desired *schema.Schema) ([]schema.Change, error)
	}

	// DiffFunc type is an adapter to allow the use of ordinary functions as Differ.
	DiffFunc func(current, desired *schema.Schema) ([]schema.Change, error)

	// DiffHook defines the "diff middleware". A function that gets a Differ
	// and returns a Differ.
	DiffHook func(Differ) Differ
)

// Diff calls f(current, desired).
func (f DiffFunc) Diff(current, desired *schema.Schema) ([]schema.Change, error) {
	return f(current, desired)
}

// MigrateOption allows configuring Atlas using functional arguments.
type MigrateOption func(*Atlas)

// WithDropColumn sets the columns dropping option to the migration.
// Defaults to false.
func WithDropColumn(b bool) MigrateOption {
	return func(a *Atlas) {
		a.dropColumns = b
	}
}

// WithDropIndex sets the indexes dropping option to the migration.
// Defaults to false.
func WithDropIndex(b bool) MigrateOption {
	return func(a *Atlas) {
		a.dropIndexes = b
	}
}

// WithDiffHook adds a list of DiffHook to the schema migration.
//
//	schema.WithDiffHook(func(next schema.Differ) schema.Differ {
//		return schema.DiffFunc(func(current, desired *atlas.Schema) ([]atlas.Change, error) {
//			// Code before standard diff.
//			changes, err := next.Diff(current, desired)
//			if err != nil {
//				return nil, err
//			}
//			// After diff, you can filter
//			// changes or return new ones.
//			return changes, nil
//		})
//	})
func WithDiffHook(hooks ...DiffHook) MigrateOption {
	return func(a *Atlas) {
		a.diffHooks = append(a.diffHooks, hooks...)
	}
}

// WithDir sets the migration directory NamedDiff writes to. The file format
// follows the directory type unless WithFormatter is given.
func WithDir(dir migrate.Dir) MigrateOption {
	return func(a *Atlas) {
		a.dir = dir
	}
}

// WithFormatter sets the formatter of the migration files.
func WithFormatter(fmt migrate.Formatter) MigrateOption {
	return func(a *Atlas) {
		a.fmt = fmt
	}
}

// WithErrNoPlan makes NamedDiff fail with migrate.ErrNoPlan when there is
// nothing to migrate.
func WithErrNoPlan(b bool) MigrateOption {
	return func(a *Atlas) {
		a.errNoPlan = b
	}
}

// Atlas migrates a live database to the tables of a resolved model.
type Atlas struct {
	drv         *sql.Driver
	dropColumns bool
	dropIndexes bool
	errNoPlan   bool
	diffHooks   []DiffHook
	dir         migrate.Dir
	fmt         migrate.Formatter
}

// NewMigrate creates a new Atlas form the given driver.
func NewMigrate(drv *sql.Driver, opts ...MigrateOption) (*Atlas, error) {
	a := &Atlas{drv: drv}
	for _, opt := range opts {
		opt(a)
	}
	if a.dir != nil && a.fmt == nil {
		switch a.dir.(type) {
		case *sqltool.GooseDir:
			a.fmt = sqltool.GooseFormatter
		case *sqltool.DBMateDir:
			a.fmt = sqltool.DBMateFormatter
		case *sqltool.FlywayDir:
			a.fmt = sqltool.FlywayFormatter
		case *sqltool.LiquibaseDir:
			a.fmt = sqltool.LiquibaseFormatter
		default:
			a.fmt = sqltool.GolangMigrateFormatter
		}
	}
	return a, nil
}

// Create inspects the database, plans the changes to the given tables and
// applies them in one transaction.
func (a *Atlas) Create(ctx context.Context, tables ...*Table) (err error) {
	tx, err := a.drv.Tx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()
	plan, err := a.plan(ctx, tx, "changes", tables)
	if err != nil {
		return err
	}
	for _, c := range plan.Changes {
		if err := tx.Exec(ctx, c.Cmd, c.Args, nil); err != nil {
			if c.Comment != "" {
				err = fmt.Errorf("%s: %w", c.Comment, err)
			}
			return err
		}
	}
	return tx.Commit()
}

// Plan returns the changes Create would apply, without applying them.
func (a *Atlas) Plan(ctx context.Context, tables ...*Table) (*migrate.Plan, error) {
	return a.plan(ctx, a.drv, "changes", tables)
}

// NamedDiff writes the changes Create would apply to a new versioned
// migration file in the migration directory.
func (a *Atlas) NamedDiff(ctx context.Context, name string, tables ...*Table) error {
	if a.dir == nil {
		return errors.New("dialect/sql/schema: no migration directory configured")
	}
	plan, err := a.plan(ctx, a.drv, name, tables)
	if err != nil {
		return err
	}
	if len(plan.Changes) == 0 {
		if a.errNoPlan {
			return migrate.ErrNoPlan
		}
		return nil
	}
	if err := migrate.Validate(a.dir); err != nil && !errors.Is(err, migrate.ErrChecksumNotFound) {
		return err
	}
	return migrate.NewPlanner(nil, a.dir, migrate.PlanFormat(a.fmt)).WritePlan(plan)
}

func (a *Atlas) plan(ctx context.Context, conn sql.ExecQuerier, name string, tables []*Table) (*migrate.Plan, error) {
	drv, err := a.atlasDriver(conn)
	if err != nil {
		return nil, err
	}
	current, err := drv.InspectSchema(ctx, "", nil)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql/schema: inspect schema: %w", err)
	}
	desired, err := AtlasSchema(a.drv.Dialect(), current.Name, tables)
	if err != nil {
		return nil, err
	}
	var differ Differ = DiffFunc(func(current, desired *schema.Schema) ([]schema.Change, error) {
		return drv.SchemaDiff(current, desired)
	})
	for i := len(a.diffHooks) - 1; i >= 0; i-- {
		differ = a.diffHooks[i](differ)
	}
	changes, err := differ.Diff(current, desired)
	if err != nil {
		return nil, err
	}
	changes = a.filter(changes)
	if len(changes) == 0 {
		return &migrate.Plan{Name: name}, nil
	}
	return drv.PlanChanges(ctx, name, changes)
}

// filter drops the changes the migration is not allowed to apply. Tables
// are never dropped.
func (a *Atlas) filter(changes []schema.Change) []schema.Change {
	var out []schema.Change
	for _, c := range changes {
		switch c := c.(type) {
		case *schema.DropTable:
			continue
		case *schema.ModifyTable:
			var keep []schema.Change
			for _, mc := range c.Changes {
				switch mc.(type) {
				case *schema.DropColumn:
					if !a.dropColumns {
						continue
					}
				case *schema.DropIndex, *schema.DropForeignKey:
					if !a.dropIndexes {
						continue
					}
				}
				keep = append(keep, mc)
			}
			if len(keep) == 0 {
				continue
			}
			c.Changes = keep
		}
		out = append(out, c)
	}
	return out
}

func (a *Atlas) atlasDriver(conn sql.ExecQuerier) (migrate.Driver, error) {
	switch d := a.drv.Dialect(); d {
	case dialect.MySQL:
		return mysql.Open(conn)
	case dialect.Postgres:
		return postgres.Open(conn)
	case dialect.SQLite:
		return sqlite.Open(conn)
	default:
		return nil, fmt.Errorf("dialect/sql/schema: unsupported dialect %q", d)
	}
}
