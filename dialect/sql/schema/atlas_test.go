package schema

import (
	"context"
	"strings"
	"testing"

	"ariga.io/atlas/sql/mysql"
	"ariga.io/atlas/sql/postgres"
	"ariga.io/atlas/sql/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/apigen/dialect"
)

func TestAtlasSchema(t *testing.T) {
	require := require.New(t)
	tables, err := Tables(resolved(t, blogDoc))
	require.NoError(err)

	s, err := AtlasSchema(dialect.Postgres, "public", tables)
	require.NoError(err)
	require.Equal("public", s.Name)
	require.Len(s.Tables, 4)

	user, ok := s.Table("user")
	require.True(ok)
	require.NotNil(user.PrimaryKey)
	id, ok := user.Column("id")
	require.True(ok)
	require.Equal(&postgres.SerialType{T: postgres.TypeBigSerial}, id.Type.Type)
	email, _ := user.Column("email")
	require.Equal(&schema.StringType{T: "varchar", Size: 180}, email.Type.Type)
	require.False(email.Type.Null)

	post, ok := s.Table("post")
	require.True(ok)
	status, _ := post.Column("status")
	require.Equal(&schema.StringType{T: "varchar", Size: DefaultStringSize}, status.Type.Type)
	author, _ := post.Column("author_id")
	require.Equal(&schema.IntegerType{T: "bigint"}, author.Type.Type)
	require.True(author.Type.Null)
	require.Len(post.ForeignKeys, 1)
	fk := post.ForeignKeys[0]
	require.Equal("post_author_id_user_id", fk.Symbol)
	require.Equal(user, fk.RefTable)
	require.Equal(schema.SetNull, fk.OnDelete)

	_, err = AtlasSchema("oracle", "", tables)
	require.Error(err)
}

func TestAtlasSchema_Dialects(t *testing.T) {
	tables, err := Tables(resolved(t, blogDoc))
	require.NoError(t, err)

	t.Run("MySQL", func(t *testing.T) {
		s, err := AtlasSchema(dialect.MySQL, "", tables)
		require.NoError(t, err)
		post, _ := s.Table("post")
		status, _ := post.Column("status")
		assert.Equal(t, &schema.EnumType{T: "enum", Values: []string{"draft", "published"}}, status.Type.Type)
		user, _ := s.Table("user")
		id, _ := user.Column("id")
		assert.Equal(t, []schema.Attr{&mysql.AutoIncrement{}}, id.Attrs)
	})

	t.Run("SQLite", func(t *testing.T) {
		s, err := AtlasSchema(dialect.SQLite, "main", tables)
		require.NoError(t, err)
		user, _ := s.Table("user")
		id, _ := user.Column("id")
		assert.Equal(t, &schema.IntegerType{T: "integer"}, id.Type.Type)
		email, _ := user.Column("email")
		assert.Equal(t, &schema.StringType{T: "text"}, email.Type.Type)
		assert.Empty(t, email.Attrs, "no comments on sqlite")
	})
}

func TestPlan(t *testing.T) {
	tables, err := Tables(resolved(t, blogDoc))
	require.NoError(t, err)

	tests := []struct {
		dialect string
		want    []string
	}{
		{
			dialect: dialect.MySQL,
			want: []string{
				"CREATE TABLE `user`",
				"CREATE TABLE `post_tag`",
				"ALTER TABLE `post` ADD CONSTRAINT `post_author_id_user_id` FOREIGN KEY (`author_id`) REFERENCES `user` (`id`)",
				"enum('draft','published')",
			},
		},
		{
			dialect: dialect.Postgres,
			want: []string{
				`CREATE TABLE "user"`,
				`CREATE TABLE "post_tag"`,
				`FOREIGN KEY ("author_id") REFERENCES "user" ("id")`,
				"bigserial",
			},
		},
		{
			dialect: dialect.SQLite,
			want: []string{
				"CREATE TABLE `user`",
				"CREATE TABLE `post`",
				"FOREIGN KEY (`author_id`) REFERENCES `user` (`id`)",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			plan, err := Plan(context.Background(), tt.dialect, tables)
			require.NoError(t, err)
			stmts := Statements(plan)
			require.NotEmpty(t, stmts)
			script := strings.Join(stmts, ";\n")
			for _, w := range tt.want {
				assert.Contains(t, script, w)
			}
			assert.True(t, strings.HasPrefix(stmts[0], "CREATE TABLE"), "tables are created first")
		})
	}
}

func TestPlan_ForeignKeysAfterTables(t *testing.T) {
	tables, err := Tables(resolved(t, blogDoc))
	require.NoError(t, err)
	for _, d := range []string{dialect.MySQL, dialect.Postgres} {
		t.Run(d, func(t *testing.T) {
			plan, err := Plan(context.Background(), d, tables)
			require.NoError(t, err)
			stmts := Statements(plan)
			lastCreate, firstAlter := -1, -1
			for i, s := range stmts {
				switch {
				case strings.HasPrefix(s, "CREATE TABLE"):
					lastCreate = i
				case strings.HasPrefix(s, "ALTER TABLE") && firstAlter == -1:
					firstAlter = i
				}
			}
			require.NotEqual(t, -1, lastCreate)
			require.NotEqual(t, -1, firstAlter)
			assert.Less(t, lastCreate, firstAlter)
			for _, s := range stmts[firstAlter:] {
				assert.True(t, strings.HasPrefix(s, "ALTER TABLE"), s)
			}
		})
	}
}

func TestDDL(t *testing.T) {
	b, err := DDL(context.Background(), dialect.SQLite, resolved(t, blogDoc))
	require.NoError(t, err)
	script := string(b)
	assert.True(t, strings.HasPrefix(script, "-- sqlite schema generated by apigen\n"))
	assert.Contains(t, script, "CREATE TABLE `post_tag`")
	assert.True(t, strings.HasSuffix(script, ";\n"))

	_, err = DDL(context.Background(), "oracle", resolved(t, blogDoc))
	require.Error(t, err)
}
