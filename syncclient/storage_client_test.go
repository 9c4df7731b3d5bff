package syncclient

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageClient_WipeStorage(t *testing.T) {
	var gotPath, gotConfirm string
	client, srv := newTestStorageClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotConfirm = r.Header.Get("X-Confirm-Delete")
		assert.Equal(t, http.MethodDelete, r.Method)
		fmt.Fprint(w, "null")
	})
	defer srv.Close()

	_, err := client.WipeStorage(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/1.5/1", gotPath)
	assert.Equal(t, "1", gotConfirm)
}

func TestStorageClient_BackoffEnforced(t *testing.T) {
	var requestCount int
	client, srv := newTestStorageClient(t, func(w http.ResponseWriter, r *http.Request) {
		requestCount++
		w.Header().Set("X-Weave-Backoff", "30")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{}`)
	})
	defer srv.Close()

	_, err := client.GetInfoCollections(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, requestCount)

	_, err = client.GetInfoCollections(context.Background())
	var inBackoff *ServerInBackoffError
	require.ErrorAs(t, err, &inBackoff)
	assert.Equal(t, 1, requestCount, "second call must not hit the network")
}

func TestStorageClient_GetInfoCollections(t *testing.T) {
	client, srv := newTestStorageClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/1.5/1/info/collections", r.URL.Path)
		fmt.Fprint(w, `{"bookmarks":1234567890.12,"history":1000000000.00}`)
	})
	defer srv.Close()

	resp, err := client.GetInfoCollections(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Timestamp(1234567890120), resp.Value["bookmarks"])
	assert.Equal(t, Timestamp(1000000000000), resp.Value["history"])
}

func TestStorageClient_GetConfiguration_UpdatesLimits(t *testing.T) {
	client, srv := newTestStorageClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"max_post_records":50,"max_post_bytes":500000,"max_total_records":5000,"max_total_bytes":50000000,"max_request_bytes":2000000}`)
	})
	defer srv.Close()

	_, err := client.GetConfiguration(context.Background())
	require.NoError(t, err)

	cfg := client.Configuration()
	assert.Equal(t, 50, cfg.MaxPostRecords)
	assert.Equal(t, 500000, cfg.MaxPostBytes)
	assert.Equal(t, 5000, cfg.MaxBatchRecord)
	assert.Equal(t, 50000000, cfg.MaxBatchBytes)
	assert.Equal(t, 2000000, cfg.MaxRequestBytes)
}

func TestStorageClient_UploadMetaGlobal_RoundTrip(t *testing.T) {
	client, srv := newTestStorageClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "100.00")
	})
	defer srv.Close()

	resp, err := client.UploadMetaGlobal(context.Background(), MetaGlobal{SyncID: "abc", StorageVersion: 5}, nil)
	require.NoError(t, err)
	assert.Equal(t, Timestamp(100000), resp.Value)
}

func TestStorageClient_GetMetaGlobal(t *testing.T) {
	client, srv := newTestStorageClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"global","payload":"{\"syncID\":\"abc\",\"storageVersion\":5}"}`)
	})
	defer srv.Close()

	resp, err := client.GetMetaGlobal(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", resp.Value.SyncID)
	assert.Equal(t, 5, resp.Value.StorageVersion)
}

type cryptoKeysEncrypter struct{}

func (cryptoKeysEncrypter) Serialize(r Record[CryptoKeys]) (string, bool) {
	return fmt.Sprintf("keys:%d", len(r.Payload.Default)), true
}

func (cryptoKeysEncrypter) Parse(payload string) (CryptoKeys, bool) {
	return CryptoKeys{Default: []string{payload}}, true
}

func TestStorageClient_CryptoKeys_RoundTrip(t *testing.T) {
	var lastPath string
	client, srv := newTestStorageClient(t, func(w http.ResponseWriter, r *http.Request) {
		lastPath = r.URL.Path
		switch r.Method {
		case http.MethodPut:
			fmt.Fprint(w, "100.00")
		default:
			fmt.Fprint(w, `{"id":"keys","payload":"opaque"}`)
		}
	})
	defer srv.Close()

	_, err := client.UploadCryptoKeys(context.Background(), CryptoKeys{Default: []string{"a", "b"}}, cryptoKeysEncrypter{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "/1.5/1/storage/crypto/keys", lastPath)

	resp, err := client.GetCryptoKeys(context.Background(), cryptoKeysEncrypter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"opaque"}, resp.Value.Payload.Default)
}
