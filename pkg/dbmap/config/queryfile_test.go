package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleQueryFile = `
[MODULE]
name = sqlite

[DATABASE]
database = :memory:

[QUERY create_table]
statement1 = CREATE TABLE users (
        name     TEXT NOT NULL PRIMARY KEY,
        password TEXT NOT NULL
     )

[QUERY create_user_returning_id]
parameters  = name password
statement1  = INSERT INTO users(name, password) VALUES(${name}, ${password})
statement2  = SELECT last_insert_rowid() AS id
`

func TestParseQueryFile(t *testing.T) {
	cfg, err := ParseQueryFile(strings.NewReader(sampleQueryFile))
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"name": "sqlite"}, cfg["MODULE"])
	assert.Equal(t, map[string]any{"database": ":memory:"}, cfg["DATABASE"])

	queries, ok := cfg["QUERIES"].(map[string]any)
	require.True(t, ok)
	require.Len(t, queries, 2)

	createTable := queries["create_table"].(map[string]any)
	stmts := createTable["statements"].([]any)
	require.Len(t, stmts, 1)
	assert.Equal(t,
		"CREATE TABLE users ( name     TEXT NOT NULL PRIMARY KEY, password TEXT NOT NULL )",
		stmts[0])
	assert.NotContains(t, createTable, "parameters")

	returning := queries["create_user_returning_id"].(map[string]any)
	assert.Equal(t, []string{"name", "password"}, returning["parameters"])
	assert.Equal(t, []any{
		"INSERT INTO users(name, password) VALUES(${name}, ${password})",
		"SELECT last_insert_rowid() AS id",
	}, returning["statements"])
}

func TestParseQueryFile_StatementOrdering(t *testing.T) {
	src := `
[QUERY batch]
statement10 = SELECT 10
statement2  = SELECT 2
statement1  = SELECT 1
`

	cfg, err := ParseQueryFile(strings.NewReader(src))
	require.NoError(t, err)

	queries := cfg["QUERIES"].(map[string]any)
	spec := queries["batch"].(map[string]any)

	assert.Equal(t, []any{"SELECT 1", "SELECT 2", "SELECT 10"}, spec["statements"])
}

func TestParseQueryFile_CommentsAndBlankLines(t *testing.T) {
	src := `
# leading comment
[QUERY ping]
; another comment style
statement1 = SELECT 1
`

	cfg, err := ParseQueryFile(strings.NewReader(src))
	require.NoError(t, err)

	queries := cfg["QUERIES"].(map[string]any)
	assert.Contains(t, queries, "ping")
}

func TestParseQueryFile_SyntaxErrors(t *testing.T) {
	tests := []struct {
		desc string
		src  string
	}{
		{desc: "unterminated section header", src: "[QUERY broken\nstatement1 = SELECT 1\n"},
		{desc: "empty section name", src: "[]\n"},
		{desc: "value outside any section", src: "statement1 = SELECT 1\n"},
		{desc: "missing equals", src: "[QUERY q]\nstatement1 SELECT 1\n"},
		{desc: "empty key", src: "[QUERY q]\n= SELECT 1\n"},
		{desc: "duplicate key", src: "[QUERY q]\nstatement1 = a\nstatement1 = b\n"},
		{desc: "duplicate section", src: "[QUERY q]\nstatement1 = a\n\n[QUERY q]\nstatement1 = b\n"},
		{desc: "continuation without key", src: "[QUERY q]\n    dangling\n"},
		{desc: "unnamed query section", src: "[QUERY ]\nstatement1 = SELECT 1\n"},
	}

	for _, tc := range tests {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := ParseQueryFile(strings.NewReader(tc.src))
			assert.ErrorIs(t, err, ErrSyntax)
		})
	}
}
