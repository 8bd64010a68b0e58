package schema

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"ariga.io/atlas/sql/migrate"
	"ariga.io/atlas/sql/schema"
	"ariga.io/atlas/sql/sqltool"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/syssam/apigen/dialect"
	"github.com/syssam/apigen/dialect/sql"
)

// openSQLite opens a file database with foreign keys enforced.
func openSQLite(t *testing.T) *sql.Driver {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blog.db")
	drv, err := sql.Open(dialect.SQLite, "file:"+path+"?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	t.Cleanup(func() { drv.Close() })
	return drv
}

// sqliteTables returns the user tables of the database, sorted by name.
func sqliteTables(t *testing.T, drv *sql.Driver) []string {
	t.Helper()
	rows, err := drv.DB().QueryContext(context.Background(), "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	require.NoError(t, err)
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	return names
}

func noopDiff(Differ) Differ {
	return DiffFunc(func(_, _ *schema.Schema) ([]schema.Change, error) {
		return nil, nil
	})
}

func TestAtlas_Create(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	drv := openSQLite(t)
	require.NoError(drv.Exec(ctx, "CREATE TABLE `legacy` (`id` integer NOT NULL PRIMARY KEY)", nil, nil))

	tables, err := Tables(resolved(t, blogDoc))
	require.NoError(err)
	m, err := NewMigrate(drv)
	require.NoError(err)
	require.NoError(m.Create(ctx, tables...))
	require.Equal([]string{"legacy", "post", "post_tag", "tag", "user"}, sqliteTables(t, drv), "tables are never dropped")

	require.NoError(drv.Exec(ctx, "INSERT INTO `user` (`id`, `email`) VALUES (1, 'a8m@example.com')", nil, nil))
	require.NoError(drv.Exec(ctx, "INSERT INTO `post` (`id`, `title`, `author_id`) VALUES (1, 'Hello', 1)", nil, nil))
	require.NoError(drv.Exec(ctx, "INSERT INTO `tag` (`id`, `name`) VALUES (1, 'go')", nil, nil))
	require.NoError(drv.Exec(ctx, "INSERT INTO `post_tag` (`post_id`, `tag_id`) VALUES (1, 1)", nil, nil))

	err = drv.Exec(ctx, "INSERT INTO `post` (`id`, `author_id`) VALUES (2, 42)", nil, nil)
	require.Error(err, "author_id references a missing user")
	err = drv.Exec(ctx, "INSERT INTO `user` (`id`) VALUES (2)", nil, nil)
	require.Error(err, "email is NOT NULL")
}

func TestAtlas_Plan(t *testing.T) {
	drv := openSQLite(t)
	tables, err := Tables(resolved(t, blogDoc))
	require.NoError(t, err)
	m, err := NewMigrate(drv)
	require.NoError(t, err)

	plan, err := m.Plan(context.Background(), tables...)
	require.NoError(t, err)
	script := strings.Join(Statements(plan), "\n")
	assert.Contains(t, script, "CREATE TABLE `user`")
	assert.Contains(t, script, "CREATE TABLE `post_tag`")
	assert.Empty(t, sqliteTables(t, drv), "plan does not apply changes")
}

func TestAtlas_DiffHook(t *testing.T) {
	drv := openSQLite(t)
	tables, err := Tables(resolved(t, blogDoc))
	require.NoError(t, err)

	var called []string
	m, err := NewMigrate(drv, WithDiffHook(func(next Differ) Differ {
		return DiffFunc(func(current, desired *schema.Schema) ([]schema.Change, error) {
			called = append(called, "outer")
			return next.Diff(current, desired)
		})
	}, noopDiff))
	require.NoError(t, err)
	require.NoError(t, m.Create(context.Background(), tables...))
	assert.Equal(t, []string{"outer"}, called)
	assert.Empty(t, sqliteTables(t, drv), "inner hook dropped all changes")
}

func TestAtlas_NamedDiff(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	drv := openSQLite(t)
	tables, err := Tables(resolved(t, blogDoc))
	require.NoError(err)

	m, err := NewMigrate(drv)
	require.NoError(err)
	require.Error(m.NamedDiff(ctx, "init", tables...), "no directory")

	p := t.TempDir()
	d, err := migrate.NewLocalDir(p)
	require.NoError(err)
	m, err = NewMigrate(drv, WithDir(d))
	require.NoError(err)
	require.NoError(m.NamedDiff(ctx, "init", tables...))
	files, err := d.Files()
	require.NoError(err)
	require.NotEmpty(files)
	var up string
	for _, f := range files {
		if strings.HasSuffix(f.Name(), "_init.up.sql") {
			up = string(f.Bytes())
		}
	}
	require.Contains(up, "CREATE TABLE `user`")
	require.FileExists(filepath.Join(p, migrate.HashFileName))
	require.NoError(migrate.Validate(d))
	require.Empty(sqliteTables(t, drv), "diff does not apply changes")

	m, err = NewMigrate(drv, WithDir(d), WithDiffHook(noopDiff))
	require.NoError(err)
	require.NoError(m.NamedDiff(ctx, "empty", tables...))
	m, err = NewMigrate(drv, WithDir(d), WithDiffHook(noopDiff), WithErrNoPlan(true))
	require.NoError(err)
	require.ErrorIs(m.NamedDiff(ctx, "empty", tables...), migrate.ErrNoPlan)
}

func TestMigrate_Formatter(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var m *Atlas
	for _, tt := range []struct {
		dir migrate.Dir
		fmt migrate.Formatter
	}{
		{&migrate.LocalDir{}, sqltool.GolangMigrateFormatter},
		{&sqltool.GolangMigrateDir{}, sqltool.GolangMigrateFormatter},
		{&sqltool.GooseDir{}, sqltool.GooseFormatter},
		{&sqltool.DBMateDir{}, sqltool.DBMateFormatter},
		{&sqltool.FlywayDir{}, sqltool.FlywayFormatter},
		{&sqltool.LiquibaseDir{}, sqltool.LiquibaseFormatter},
	} {
		m, err = NewMigrate(sql.OpenDB(dialect.MySQL, db), WithDir(tt.dir))
		require.NoError(t, err)
		require.Equal(t, tt.fmt, m.fmt)
	}

	m, err = NewMigrate(sql.OpenDB(dialect.MySQL, db), WithDir(&migrate.LocalDir{}), WithFormatter(migrate.DefaultFormatter))
	require.NoError(t, err)
	require.Equal(t, migrate.DefaultFormatter, m.fmt)

	m, err = NewMigrate(sql.OpenDB(dialect.MySQL, db))
	require.NoError(t, err)
	require.Nil(t, m.fmt, "no directory")
}

func TestMigrateOptions(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	t.Run("WithDropColumn", func(t *testing.T) {
		m, err := NewMigrate(sql.OpenDB(dialect.MySQL, db), WithDropColumn(true))
		require.NoError(t, err)
		require.True(t, m.dropColumns)

		m, err = NewMigrate(sql.OpenDB(dialect.MySQL, db))
		require.NoError(t, err)
		require.False(t, m.dropColumns)
	})

	t.Run("WithDropIndex", func(t *testing.T) {
		m, err := NewMigrate(sql.OpenDB(dialect.MySQL, db), WithDropIndex(true))
		require.NoError(t, err)
		require.True(t, m.dropIndexes)
	})

	t.Run("WithDiffHook", func(t *testing.T) {
		m, err := NewMigrate(sql.OpenDB(dialect.MySQL, db), WithDiffHook(noopDiff), WithDiffHook(noopDiff, noopDiff))
		require.NoError(t, err)
		require.Len(t, m.diffHooks, 3)
	})
}

func TestAtlas_Filter(t *testing.T) {
	changes := func() []schema.Change {
		return []schema.Change{
			&schema.DropTable{T: schema.NewTable("legacy")},
			&schema.AddTable{T: schema.NewTable("tag")},
			&schema.ModifyTable{T: schema.NewTable("user"), Changes: []schema.Change{
				&schema.DropColumn{C: schema.NewColumn("age")},
				&schema.AddColumn{C: schema.NewColumn("email")},
			}},
			&schema.ModifyTable{T: schema.NewTable("post"), Changes: []schema.Change{
				&schema.DropIndex{I: schema.NewIndex("post_title")},
			}},
		}
	}
	tests := []struct {
		name    string
		opts    []MigrateOption
		want    int
		modify  int
		dropIdx bool
	}{
		{name: "default", want: 2, modify: 1},
		{name: "drop columns", opts: []MigrateOption{WithDropColumn(true)}, want: 2, modify: 2},
		{name: "drop indexes", opts: []MigrateOption{WithDropIndex(true)}, want: 3, modify: 1, dropIdx: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMigrate(nil, tt.opts...)
			require.NoError(t, err)
			got := m.filter(changes())
			require.Len(t, got, tt.want)
			for _, c := range got {
				_, ok := c.(*schema.DropTable)
				require.False(t, ok)
			}
			user, ok := got[1].(*schema.ModifyTable)
			require.True(t, ok)
			require.Len(t, user.Changes, tt.modify)
			if tt.dropIdx {
				post := got[2].(*schema.ModifyTable)
				require.IsType(t, &schema.DropIndex{}, post.Changes[0])
			}
		})
	}
}
