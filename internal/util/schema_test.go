package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSchema(t *testing.T) {
	type args struct {
		Query   string   `json:"query" description:"text to search for"`
		Limit   int      `json:"limit,omitempty"`
		Exact   *bool    `json:"exact"`
		Tags    []string `json:"tags,omitempty"`
		hidden  string   `json:"hidden"` // unexported, skipped
		Skipped string   `json:"-"`
	}

	schema := CreateSchema(args{})
	assert.Equal(t, "object", schema["type"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	require.Len(t, props, 4)

	query := props["query"].(map[string]any)
	assert.Equal(t, "string", query["type"])
	assert.Equal(t, "text to search for", query["description"])
	assert.Equal(t, "integer", props["limit"].(map[string]any)["type"])
	assert.Equal(t, "boolean", props["exact"].(map[string]any)["type"])
	assert.Equal(t, "array", props["tags"].(map[string]any)["type"])

	// Pointer and omitempty fields are optional.
	assert.Equal(t, []string{"query"}, schema["required"])
}

func TestCreateSchemaNonStruct(t *testing.T) {
	schema := CreateSchema(42)
	assert.Equal(t, "object", schema["type"])
	assert.Empty(t, schema["properties"])
}

func TestValidateParameters(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{"type": "string"},
			"limit": map[string]any{"type": "integer"},
			"exact": map[string]any{"type": "boolean"},
		},
		"required": []string{"query"},
	}

	tests := []struct {
		name      string
		params    map[string]any
		wantField string
	}{
		{name: "valid", params: map[string]any{"query": "revenue", "limit": 5}},
		{name: "json decoded integer", params: map[string]any{"query": "x", "limit": float64(3)}},
		{name: "extra fields allowed", params: map[string]any{"query": "x", "unknown": true}},
		{name: "missing required", params: map[string]any{"limit": 5}, wantField: "query"},
		{name: "wrong type", params: map[string]any{"query": 42}, wantField: "query"},
		{name: "fractional integer", params: map[string]any{"query": "x", "limit": 1.5}, wantField: "limit"},
		{name: "wrong bool", params: map[string]any{"query": "x", "exact": "yes"}, wantField: "exact"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateParameters(tt.params, schema)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestValidateParametersRequiredAsAny(t *testing.T) {
	// Schemas round-tripped through JSON carry []any for required.
	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{"query": map[string]any{"type": "string"}},
		"required":   []any{"query"},
	}

	err := ValidateParameters(map[string]any{}, schema)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "query", verr.Field)
}
