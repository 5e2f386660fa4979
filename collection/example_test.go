package collection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExample(t *testing.T) {
	got, err := ParseExample([]byte(`{"name": "ana", "age": 30, "active": true, "tags": ["a","b"], "address": null}`))
	require.NoError(t, err)
	assert.Equal(t, "ana", got["name"])
	assert.Equal(t, float64(30), got["age"])
	assert.Equal(t, true, got["active"])
	assert.Equal(t, []any{"a", "b"}, got["tags"])
	assert.Nil(t, got["address"])
}

func TestParseExampleRejectsNonObject(t *testing.T) {
	_, err := ParseExample([]byte(`[1,2,3]`))
	assert.Error(t, err)
}

func TestParseExampleRejectsMalformed(t *testing.T) {
	_, err := ParseExample([]byte(`{not json`))
	assert.Error(t, err)
}
