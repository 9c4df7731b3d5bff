package syncclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalEnvelope(t *testing.T) {
	limit := 5
	env := bsoEnvelope{ID: "abc", Payload: "hello", SortIndex: &limit}

	body, ok := marshalEnvelope(env)
	require.True(t, ok)
	assert.Contains(t, body, `"id":"abc"`)
	assert.Contains(t, body, `"payload":"hello"`)
	assert.Contains(t, body, `"sortindex":5`)
}
