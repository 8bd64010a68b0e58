package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/apigen/compiler/load"
)

func boolPtr(b bool) *bool { return &b }

var userSchema = &load.Schema{
	Name:       "User",
	Type:       "object",
	Required:   []string{"email"},
	PrimaryKey: []string{"id"},
	Properties: []*load.Property{
		{Name: "id", Type: "integer"},
		{Name: "email", Type: "string", Format: "email"},
		{Name: "createdAt", Type: "string", Format: "date-time"},
		{Name: "status", Type: "string", Enum: []string{"draft", "published"}},
		{Name: "posts", Type: "array", Ref: "Post"},
	},
}

func TestType(t *testing.T) {
	require := require.New(t)
	typ, err := NewType(&Config{Bundle: "BlogBundle"}, "User", userSchema)
	require.NoError(err)
	require.NotNil(typ)
	require.Equal("User", typ.Name)
	require.Equal("User", typ.OriginName)
	require.Equal("user", typ.Label())
	require.Equal("user", typ.Table())
	require.Equal(`BlogBundle\Entity`, typ.Namespace())
	require.Equal(`BlogBundle\Entity\User`, typ.ClassName())
	require.Equal(`BlogBundle\Repository\UserRepository`, typ.RepositoryClass())
	require.Len(typ.Fields, 5)

	id := typ.Fields[0]
	require.True(id.Primary)
	require.Equal(TypeInteger, id.Type)
	require.Equal(typ, id.Owner())

	email, ok := typ.FieldByName("email")
	require.True(ok)
	require.True(email.Required)
	require.Equal("email", email.Format)

	created, ok := typ.FieldByName("created_at")
	require.True(ok, "lookup by column name")
	require.Equal("createdAt", created.Name)

	_, ok = typ.FieldByName("missing")
	require.False(ok)

	_, err = NewType(nil, "", &load.Schema{Name: "T"})
	require.Error(err)
	require.True(IsSchemaError(err))

	_, err = NewType(nil, "T", &load.Schema{
		Name: "T",
		Properties: []*load.Property{
			{Name: "createdAt", Type: "string"},
			{Name: "created_at", Type: "string"},
		},
	})
	require.Error(err, "columns must be unique")
	require.True(IsSchemaError(err))

	_, err = NewType(nil, "T", &load.Schema{
		Name:       "T",
		PrimaryKey: []string{"uuid"},
		Properties: []*load.Property{{Name: "id", Type: "integer"}},
	})
	require.Error(err, "primary key names an unknown property")
	require.True(IsSchemaError(err))
}

func TestType_Table(t *testing.T) {
	tests := []struct {
		name   string
		plural bool
		want   string
	}{
		{"User", false, "user"},
		{"User", true, "users"},
		{"BlogPost", false, "blog_post"},
		{"BlogPost", true, "blog_posts"},
		{"Category", true, "categories"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			typ := &Type{Name: tt.name, Config: &Config{PluralTables: tt.plural}}
			assert.Equal(t, tt.want, typ.Table())
		})
	}
}

func TestType_DefaultBundle(t *testing.T) {
	typ := &Type{Name: "Tag"}
	assert.Equal(t, `AppBundle\Entity\Tag`, typ.ClassName())
	assert.Equal(t, `AppBundle\Repository\TagRepository`, typ.RepositoryClass())
}

func TestType_PrimaryKey(t *testing.T) {
	require := require.New(t)
	typ, err := NewType(nil, "User", userSchema)
	require.NoError(err)
	pk, err := typ.PrimaryKey()
	require.NoError(err)
	require.Equal("id", pk.Name)

	none, err := NewType(nil, "Log", &load.Schema{
		Name:       "Log",
		Properties: []*load.Property{{Name: "message", Type: "string"}},
	})
	require.NoError(err)
	_, err = none.PrimaryKey()
	require.ErrorIs(err, ErrPrimaryKey)
	require.EqualError(err, `apigen: the entity "Log" doesn't have any primary key`)

	composite, err := NewType(nil, "Membership", &load.Schema{
		Name:       "Membership",
		PrimaryKey: []string{"user", "group"},
		Properties: []*load.Property{
			{Name: "user", Type: "integer"},
			{Name: "group", Type: "integer"},
		},
	})
	require.NoError(err)
	require.Len(composite.PrimaryKeys(), 2)
	_, err = composite.primaryKey("Member.membership")
	require.ErrorIs(err, ErrPrimaryKey)
	require.Contains(err.Error(), "more than one primary key (2)")
	require.Contains(err.Error(), "Member.membership")
}

func TestType_RelatedField(t *testing.T) {
	require := require.New(t)
	typ, err := NewType(nil, "Node", &load.Schema{
		Name:       "Node",
		PrimaryKey: []string{"id"},
		Properties: []*load.Property{
			{Name: "id", Type: "integer"},
			{Name: "parent", Type: "integer", Ref: "Node"},
			{Name: "children", Type: "array", Ref: "Node"},
		},
	})
	require.NoError(err)
	parent, _ := typ.FieldByName("parent")
	children, _ := typ.FieldByName("children")

	require.Equal(parent, typ.RelatedField("Node", nil))
	require.Equal(children, typ.RelatedField("Node", parent), "a field is never related to itself")
	require.Equal([]*Field{children}, typ.RelatedFields("Node", parent))
	require.Nil(typ.RelatedField("User", nil))
	require.Len(typ.ReferenceFields(), 2)
}

func TestType_Views(t *testing.T) {
	require := require.New(t)
	typ, err := NewType(nil, "User", userSchema)
	require.NoError(err)

	enums := typ.EnumFields()
	require.Len(enums, 1)
	require.Equal([]EnumConstant{
		{Name: "STATUS_DRAFT", Value: "draft"},
		{Name: "STATUS_PUBLISHED", Value: "published"},
	}, enums[0].EnumConstants())

	require.Empty(typ.OneToManyFields(), "relations are not resolved")
	require.Empty(typ.ForeignKeyFields())
	require.Nil(typ.RelatedTypes(), "type is not in a graph")

	posts, _ := typ.FieldByName("posts")
	posts.Rel = O2M
	require.Equal([]*Field{posts}, typ.OneToManyFields())
	require.False(posts.HasColumn())
	require.Equal("Posts", posts.Accessor())
	require.Equal("Post", posts.ItemAccessor())
}

func TestField(t *testing.T) {
	f := newField(&load.Property{
		Name:    "author",
		Ref:     "User",
		UseList: boolPtr(false),
		Line:    12,
	}, &load.Schema{Name: "Post", Required: []string{"author"}})

	assert.Equal(t, "author", f.Column)
	assert.Equal(t, TypeUnset, f.Type)
	assert.Equal(t, "unset", f.Type.String())
	assert.True(t, f.Type.scalarRef())
	assert.True(t, f.Required)
	assert.True(t, f.IsReference())
	assert.False(t, f.IsRelation())
	assert.False(t, f.IsArray())
	assert.True(t, f.HasColumn())
	assert.Equal(t, "author_id", f.JoinColumn())
	assert.Equal(t, "Author", f.Accessor())
	assert.Empty(t, f.ItemAccessor())
	assert.Equal(t, 12, f.Line())
	assert.Nil(t, f.ReferencedColumn())
	assert.Equal(t, ColumnRef{Field: "author"}, f.ID())
}

func TestColumnRef(t *testing.T) {
	ref, ok := ParseColumnRef("User.id")
	require.True(t, ok)
	assert.Equal(t, ColumnRef{Type: "User", Field: "id"}, ref)
	assert.Equal(t, "User.id", ref.String())
	assert.False(t, ref.IsZero())

	for _, s := range []string{"", "User", ".id", "User."} {
		_, ok := ParseColumnRef(s)
		assert.False(t, ok, s)
	}
	assert.True(t, ColumnRef{}.IsZero())
	assert.Empty(t, ColumnRef{}.String())
}
