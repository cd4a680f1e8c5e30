package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowerfulfort/scurl/internal/errdef"
)

func TestConvertBracketNotation(t *testing.T) {
	assert.Equal(t, "0.id", convertBracketNotation("[0].id"))
	assert.Equal(t, "items.0.tags.1", convertBracketNotation("items[0].tags[1]"))
	assert.Equal(t, "plain.path", convertBracketNotation("plain.path"))
}

func TestQueryFilter(t *testing.T) {
	body := []byte(`{"user":{"name":"ann","age":41,"tags":["a","b"]}}`)
	tests := []struct {
		path string
		want string
	}{
		{"user.name", "ann\n"},
		{".user.age", "41\n"},
		{"user.tags", `["a","b"]` + "\n"},
		{"user.tags[1]", "b\n"},
		{"", string(body) + "\n"},
	}
	for _, tt := range tests {
		out, err := queryFilter(tt.path)("application/json; charset=utf-8", body)
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, string(out), tt.path)
	}
}

func TestQueryFilter_NoMatch(t *testing.T) {
	out, err := queryFilter("missing")("application/json", []byte(`{"a":1}`))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestQueryFilter_NonJSONPassesThrough(t *testing.T) {
	out, err := queryFilter("a")("text/plain", []byte("plain text"))
	require.NoError(t, err)
	assert.Equal(t, "plain text", string(out))
}

func TestQueryFilter_InvalidJSON(t *testing.T) {
	_, err := queryFilter("a")("application/json", []byte(`{"a":`))
	assert.True(t, errdef.Is(err, errdef.CodeParse))
}
