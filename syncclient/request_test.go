package syncclient

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGETRequest_SetsAccept(t *testing.T) {
	req, err := newGETRequest(context.Background(), "https://example.com/storage/bookmarks")
	require.NoError(t, err)
	assert.Equal(t, "application/json", req.Header.Get("Accept"))
}

func TestNewDELETERequest_SetsConfirmHeader(t *testing.T) {
	req, err := newDELETERequest(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "1", req.Header.Get("X-Confirm-Delete"))
}

func TestNewPUTRequest_SetsContentTypeAndIfUnmodifiedSince(t *testing.T) {
	ts := Timestamp(1500)
	req, err := newPUTRequest(context.Background(), "https://example.com/bso/1", []byte(`{}`), &ts)
	require.NoError(t, err)
	assert.Equal(t, "application/json;charset=utf-8", req.Header.Get("Content-Type"))
	assert.Equal(t, "1.500", req.Header.Get("X-If-Unmodified-Since"))
}

func TestNewPOSTRequestLines_JoinsWithNewline(t *testing.T) {
	req, err := newPOSTRequestLines(context.Background(), "https://example.com/storage/bookmarks", []string{"a", "b", "c"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "application/newlines", req.Header.Get("Content-Type"))

	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Equal(t, "a\nb\nc", string(body))
}

func TestRequest_GetBodyIsReusable(t *testing.T) {
	req, err := newPUTRequest(context.Background(), "https://example.com", []byte("payload"), nil)
	require.NoError(t, err)
	require.NotNil(t, req.GetBody)

	body, err := req.GetBody()
	require.NoError(t, err)
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}
