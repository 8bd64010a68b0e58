package main

import (
	"fmt"

	"ariga.io/atlas/sql/migrate"
	"ariga.io/atlas/sql/sqltool"
	"github.com/spf13/cobra"

	"github.com/syssam/apigen/dialect/sql"
	"github.com/syssam/apigen/dialect/sql/schema"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// migrationDir opens a versioned migration directory of the given format.
func migrationDir(format, path string) (migrate.Dir, error) {
	switch format {
	case "atlas":
		return migrate.NewLocalDir(path)
	case "golang-migrate":
		return sqltool.NewGolangMigrateDir(path)
	case "goose":
		return sqltool.NewGooseDir(path)
	case "flyway":
		return sqltool.NewFlywayDir(path)
	case "dbmate":
		return sqltool.NewDBMateDir(path)
	case "liquibase":
		return sqltool.NewLiquibaseDir(path)
	default:
		return nil, fmt.Errorf("unknown migration format %q", format)
	}
}

func (a *app) migrateCmd() *cobra.Command {
	var (
		dsn       string
		dryRun    bool
		allowDrop bool
		dir       string
		format    string
		name      string
	)
	cmd := &cobra.Command{
		Use:   "migrate schema",
		Short: "Migrate a live database to the relational schema of the document",
		Long: `Inspect the database at --dsn and apply the changes that migrate it to the
relational schema of the document, in one transaction. Tables are never
dropped. Columns and indexes are dropped only with --allow-drop.

With --dir, the changes are written to a new versioned migration file
instead of being applied.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dsn == "" {
				return fmt.Errorf("missing --dsn")
			}
			r, err := a.load(args[0])
			if err != nil {
				return err
			}
			printWarnings(cmd, r)
			tables, err := schema.NewTables(r.Graph)
			if err != nil {
				return err
			}
			drv, err := sql.Open(r.Graph.Dialect, dsn)
			if err != nil {
				return err
			}
			defer drv.Close()
			opts := []schema.MigrateOption{
				schema.WithDropColumn(allowDrop),
				schema.WithDropIndex(allowDrop),
			}
			if dir != "" {
				d, err := migrationDir(format, dir)
				if err != nil {
					return err
				}
				opts = append(opts, schema.WithDir(d))
				if format == "atlas" {
					opts = append(opts, schema.WithFormatter(migrate.DefaultFormatter))
				}
			}
			m, err := schema.NewMigrate(drv, opts...)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			switch {
			case dir != "":
				if err := m.NamedDiff(ctx, name, tables...); err != nil {
					return err
				}
				a.log.Info().Str("dir", dir).Str("format", format).Msg("migration file written")
			case dryRun:
				plan, err := m.Plan(ctx, tables...)
				if err != nil {
					return err
				}
				for _, stmt := range schema.Statements(plan) {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s;\n", stmt)
				}
			default:
				if err := m.Create(ctx, tables...); err != nil {
					return err
				}
				a.log.Info().Str("dialect", r.Graph.Dialect).Int("tables", len(tables)).Msg("database migrated")
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&dsn, "dsn", "", "data source name of the database")
	f.BoolVar(&dryRun, "dry-run", false, "print the statements without applying them")
	f.BoolVar(&allowDrop, "allow-drop", false, "drop columns and indexes missing from the schema")
	f.StringVar(&dir, "dir", "", "write a versioned migration file to this directory")
	f.StringVar(&format, "format", "atlas", "migration file format: atlas, golang-migrate, goose, flyway, dbmate, liquibase")
	f.StringVar(&name, "name", "changes", "name of the migration file")
	return cmd
}
