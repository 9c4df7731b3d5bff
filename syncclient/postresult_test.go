package syncclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePOSTResult(t *testing.T) {
	body := []byte(`{"modified":1234567890.12,"success":["a","b"],"failed":{"c":"invalid json"},"batch":"abc123"}`)

	result, err := parsePOSTResult(body)
	require.NoError(t, err)

	assert.Equal(t, Timestamp(1234567890120), result.Modified)
	assert.Equal(t, []string{"a", "b"}, result.Success)
	assert.Equal(t, map[string]string{"c": "invalid json"}, result.Failed)
	assert.Equal(t, "abc123", result.BatchToken)
}

func TestParsePOSTResult_NoBatchToken(t *testing.T) {
	body := []byte(`{"modified":1.0,"success":[],"failed":{}}`)

	result, err := parsePOSTResult(body)
	require.NoError(t, err)
	assert.Empty(t, result.BatchToken)
}

func TestParsePOSTResult_Malformed(t *testing.T) {
	_, err := parsePOSTResult([]byte(`not json`))
	assert.Error(t, err)
}
