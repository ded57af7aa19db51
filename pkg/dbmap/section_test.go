package dbmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeQuerySpec(t *testing.T) {
	tests := []struct {
		desc       string
		value      any
		statements []string
		parameters []string
	}{
		{
			desc:       "bare statement string",
			value:      "SELECT 1",
			statements: []string{"SELECT 1"},
		},
		{
			desc:       "statement sequence",
			value:      []any{"INSERT INTO t VALUES(${v})", "SELECT last_insert_rowid()"},
			statements: []string{"INSERT INTO t VALUES(${v})", "SELECT last_insert_rowid()"},
		},
		{
			desc: "record with parameters as fields",
			value: map[string]any{
				"statements": "SELECT * FROM t WHERE a = ${a} AND b = ${b}",
				"parameters": "a b",
			},
			statements: []string{"SELECT * FROM t WHERE a = ${a} AND b = ${b}"},
			parameters: []string{"a", "b"},
		},
		{
			desc: "legacy record with query key",
			value: map[string]any{
				"query":      "SELECT * FROM t WHERE a = ${a}",
				"parameters": []any{"a"},
			},
			statements: []string{"SELECT * FROM t WHERE a = ${a}"},
			parameters: []string{"a"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.desc, func(t *testing.T) {
			spec, err := decodeQuerySpec("q", tc.value)
			require.NoError(t, err)
			assert.Equal(t, tc.statements, spec.statements)
			assert.Equal(t, tc.parameters, spec.parameters)
		})
	}
}

func TestDecodeQuerySpec_Errors(t *testing.T) {
	tests := []struct {
		desc  string
		value any
	}{
		{desc: "unsupported entry type", value: 42},
		{desc: "non-string statement", value: []any{"SELECT 1", 2}},
		{desc: "record without statements", value: map[string]any{"parameters": "a"}},
		{desc: "unsupported statements type", value: map[string]any{"statements": 42}},
		{desc: "unsupported parameters type", value: map[string]any{"statements": "SELECT 1", "parameters": 42}},
	}

	for _, tc := range tests {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := decodeQuerySpec("q", tc.value)
			assert.ErrorIs(t, err, ErrInvalidQuerySpec)
		})
	}
}
