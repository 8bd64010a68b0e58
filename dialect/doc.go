// Package dialect names the SQL dialects apigen plans relational schemas
// and migrations for: "mysql" (Doctrine's default platform), "postgres" and
// "sqlite".
//
// The name selects the column types, the offline planner and, for the
// migrate command, the database/sql driver:
//
//	tables, err := schema.NewTables(g)
//	if err != nil {
//		return err
//	}
//	plan, err := schema.Plan(ctx, dialect.Postgres, tables)
//
// Sub-packages:
//
//   - dialect/sql: connections used by live migrations
//   - dialect/sql/schema: relational tables, DDL planning, schema checks and migrations
package dialect
