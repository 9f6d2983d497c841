package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJSONSchema(t *testing.T) {
	schema, err := JSONSchema()
	assert.NoError(t, err)
	assert.NotEmpty(t, schema)

	var decoded map[string]interface{}
	err = json.Unmarshal(schema, &decoded)
	assert.NoError(t, err)
	assert.Contains(t, decoded, "$schema")
}
