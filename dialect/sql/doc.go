// Package sql wraps the database connections used to migrate a live
// database to the relational schema of a resolved model.
//
// # Drivers
//
// A Driver pairs a *sql.DB with the dialect it speaks:
//
//	import _ "github.com/lib/pq"
//
//	drv, err := sql.Open(dialect.Postgres, "postgres://localhost/blog?sslmode=disable")
//	if err != nil {
//	    return err
//	}
//	defer drv.Close()
//
// # Transactions
//
// Statements planned by dialect/sql/schema are executed in a transaction:
//
//	tx, err := drv.Tx(ctx)
//	if err != nil {
//	    return err
//	}
//	if err := tx.Exec(ctx, stmt, nil, nil); err != nil {
//	    return errors.Join(err, tx.Rollback())
//	}
//	return tx.Commit()
package sql
