package hawkauth

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mozilla-services/go-syncclient/token"
)

func TestNew_SignsRequest(t *testing.T) {
	tok, err := token.NewToken([]byte("shared-secret"), token.TokenPayload{
		Uid:     1234,
		Node:    "sync.example.com",
		Expires: 9999999999,
	})
	require.NoError(t, err)

	authorize := New(tok)

	req, err := http.NewRequest(http.MethodGet, "https://sync.example.com/1.5/1234/info/collections", nil)
	require.NoError(t, err)

	require.NoError(t, authorize(req))

	header := req.Header.Get("Authorization")
	assert.True(t, strings.HasPrefix(header, "Hawk "))
	assert.Contains(t, header, `id="`+tok.Token+`"`)
}

func TestNew_HeaderCarriesExpectedFields(t *testing.T) {
	tok, err := token.NewToken([]byte("shared-secret"), token.TokenPayload{
		Uid:     1,
		Node:    "example.com",
		Expires: 9999999999,
	})
	require.NoError(t, err)

	authorize := New(tok)

	req, err := http.NewRequest(http.MethodGet, "https://example.com/1.5/1/info/collections", nil)
	require.NoError(t, err)
	require.NoError(t, authorize(req))

	header := req.Header.Get("Authorization")
	for _, field := range []string{"mac=", "ts=", "nonce=", "id="} {
		assert.Contains(t, header, field)
	}
}

func TestNew_DifferentRequestsGetDifferentNonces(t *testing.T) {
	tok, err := token.NewToken([]byte("shared-secret"), token.TokenPayload{Uid: 1, Node: "x", Expires: 9999999999})
	require.NoError(t, err)

	authorize := New(tok)

	req1, _ := http.NewRequest(http.MethodGet, "https://example.com/a", nil)
	req2, _ := http.NewRequest(http.MethodGet, "https://example.com/b", nil)
	require.NoError(t, authorize(req1))
	require.NoError(t, authorize(req2))

	assert.NotEqual(t, req1.Header.Get("Authorization"), req2.Header.Get("Authorization"))
}

func TestNewFromSecret(t *testing.T) {
	authorize, err := NewFromSecret([]byte("shared-secret"), 42, "sync.example.com", 9999999999)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, "https://sync.example.com/1.5/42/info/collections", nil)
	require.NoError(t, err)
	require.NoError(t, authorize(req))

	assert.True(t, strings.HasPrefix(req.Header.Get("Authorization"), "Hawk "))
}

func TestNew_HashesBody(t *testing.T) {
	tok, err := token.NewToken([]byte("shared-secret"), token.TokenPayload{Uid: 1, Node: "x", Expires: 9999999999})
	require.NoError(t, err)

	authorize := New(tok)

	req, err := http.NewRequest(http.MethodPut, "https://example.com/storage/bookmarks/abc", strings.NewReader(`{"id":"abc"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json;charset=utf-8")

	require.NoError(t, authorize(req))
	assert.Contains(t, req.Header.Get("Authorization"), "hash=")

	body, err := req.GetBody()
	require.NoError(t, err)
	defer body.Close()
}
