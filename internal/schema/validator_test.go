package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const itemSchema = `{
	"type": "object",
	"properties": {
		"name": {"type": "string", "minLength": 1},
		"quantity": {"type": "integer", "minimum": 0}
	},
	"required": ["name"],
	"additionalProperties": false
}`

func TestValidate(t *testing.T) {
	v, err := NewValidator([]byte(itemSchema))
	require.NoError(t, err)

	tests := []struct {
		name    string
		data    map[string]interface{}
		wantErr string
	}{
		{name: "valid", data: map[string]interface{}{"name": "Drill", "quantity": 2}},
		{name: "float that is an integer", data: map[string]interface{}{"name": "Drill", "quantity": float64(3)}},
		{name: "missing required", data: map[string]interface{}{}, wantErr: "name"},
		{name: "nil args", data: nil, wantErr: "name"},
		{name: "wrong type", data: map[string]interface{}{"name": 5}, wantErr: "name"},
		{name: "negative quantity", data: map[string]interface{}{"name": "x", "quantity": -1}, wantErr: "quantity"},
		{name: "unknown property", data: map[string]interface{}{"name": "x", "colour": "red"}, wantErr: "colour"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.data)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validation failed")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewValidatorRejectsBadSchema(t *testing.T) {
	_, err := NewValidator([]byte(`{"type": 12}`))
	assert.Error(t, err)

	assert.Panics(t, func() { MustValidator(`not json`) })
}
