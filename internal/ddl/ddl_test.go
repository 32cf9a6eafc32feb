package ddl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckSyntaxAccepts(t *testing.T) {
	valid := []string{
		"CREATE TABLE users (id integer PRIMARY KEY, name varchar(100))",
		"create table if not exists public.users (id integer)",
		"CREATE OR REPLACE VIEW active_users AS SELECT * FROM users WHERE active",
		"CREATE OR REPLACE FUNCTION touch() RETURNS trigger AS $$ BEGIN END $$",
		"CREATE UNIQUE INDEX idx_users_email ON users (email)",
		"CREATE INDEX CONCURRENTLY idx_users_name ON users (name)",
		"ALTER TABLE users ADD COLUMN email varchar(255)",
		"DROP TABLE IF EXISTS users",
		"CREATE TABLE t (note text DEFAULT 'it''s fine')",
		`CREATE TABLE "Weird Name" (id integer)`,
	}
	for _, def := range valid {
		assert.NoError(t, CheckSyntax(def), def)
	}
}

func TestCheckSyntaxRejects(t *testing.T) {
	cases := []struct {
		def    string
		reason string
	}{
		{"", "empty statement"},
		{"   ", "empty statement"},
		{"SELECT * FROM users", "statement must begin with CREATE, ALTER, or DROP"},
		{"NOT EVEN SQL", "statement must begin with CREATE, ALTER, or DROP"},
		{"CREATE SOMETHING users", "unknown object kind"},
		{"DROP TABLE", "missing object name"},
		{"CREATE TABLE users (id integer", "unbalanced parentheses"},
		{"CREATE TABLE users (id integer))", "unbalanced closing parenthesis"},
		{"ALTER TABLE users ADD COLUMN note text DEFAULT 'oops", "unterminated string literal"},
		{`CREATE TABLE "users (id integer)`, "unterminated quoted identifier"},
	}
	for _, tc := range cases {
		err := CheckSyntax(tc.def)
		require.Error(t, err, tc.def)
		var syntaxErr *SyntaxError
		require.ErrorAs(t, err, &syntaxErr, tc.def)
		assert.Equal(t, tc.reason, syntaxErr.Reason, tc.def)
	}
}

func TestParseCreateTable(t *testing.T) {
	def, err := ParseCreateTable(`CREATE TABLE public.users (
		id integer PRIMARY KEY,
		name varchar(100) NOT NULL,
		balance numeric(10,2) DEFAULT 0,
		PRIMARY KEY (id),
		CONSTRAINT uq_name UNIQUE (name)
	)`)
	require.NoError(t, err)
	assert.Equal(t, "public.users", def.Name)
	require.Len(t, def.Columns, 5)

	assert.Equal(t, "id", def.Columns[0].Name)
	assert.Equal(t, "integer PRIMARY KEY", def.Columns[0].Definition)
	assert.False(t, def.Columns[0].IsConstraint())

	// numeric(10,2): the comma inside the type does not split the item
	assert.Equal(t, "balance", def.Columns[2].Name)

	assert.True(t, def.Columns[3].IsConstraint())
	assert.True(t, def.Columns[4].IsConstraint())
	assert.Equal(t, "CONSTRAINT uq_name UNIQUE (name)", def.Columns[4].Raw)
}

func TestParseCreateTableErrors(t *testing.T) {
	_, err := ParseCreateTable("CREATE VIEW v AS SELECT 1")
	assert.Error(t, err)

	_, err = ParseCreateTable("CREATE TABLE users")
	assert.Error(t, err)
}

func TestRenderCreateTableRoundTrip(t *testing.T) {
	src := "CREATE TABLE users (id integer PRIMARY KEY, name varchar(100))"
	def, err := ParseCreateTable(src)
	require.NoError(t, err)

	rendered := RenderCreateTable(def)
	assert.Contains(t, rendered, "CREATE TABLE users (")
	assert.Contains(t, rendered, "id integer PRIMARY KEY")

	again, err := ParseCreateTable(rendered)
	require.NoError(t, err)
	assert.Equal(t, def.Columns, again.Columns)
}

func TestParseCreateTrigger(t *testing.T) {
	def, err := ParseCreateTrigger(
		"CREATE TRIGGER trg_audit AFTER INSERT OR UPDATE ON users FOR EACH ROW EXECUTE FUNCTION audit()")
	require.NoError(t, err)
	assert.Equal(t, "trg_audit", def.Name)
	assert.Equal(t, "AFTER", def.Timing)
	assert.Equal(t, []string{"INSERT", "UPDATE"}, def.Events)
	assert.Contains(t, def.Rest, "ON users")

	rendered := RenderCreateTrigger(def)
	assert.Contains(t, rendered, "AFTER INSERT OR UPDATE")
}

func TestParseCreateTriggerErrors(t *testing.T) {
	_, err := ParseCreateTrigger("CREATE TABLE users (id integer)")
	assert.Error(t, err)

	_, err = ParseCreateTrigger("CREATE TRIGGER trg_bad ON users EXECUTE FUNCTION f()")
	assert.Error(t, err)
}
