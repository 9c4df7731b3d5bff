package syncclient

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/pkg/errors"

	"github.com/mozilla-services/go-syncclient/backoff"
)

// CryptoCollection and CryptoKeysRecordID name the one collection whose
// records are encrypted under the sync key bundle rather than the bulk
// key.
const (
	CryptoCollection   = "crypto"
	CryptoKeysRecordID = "keys"
)

// InfoCollections maps a collection name to its last-modified timestamp,
// as returned by GET info/collections.
type InfoCollections map[string]Timestamp

// MetaGlobalEngine describes one engine's entry inside meta/global.
type MetaGlobalEngine struct {
	Version int    `json:"version"`
	SyncID  string `json:"syncID"`
}

// MetaGlobal is the payload of the meta/global record: which sync this
// account is on, the storage format version, and the per-engine sync IDs.
type MetaGlobal struct {
	SyncID         string                      `json:"syncID"`
	StorageVersion int                         `json:"storageVersion"`
	Engines        map[string]MetaGlobalEngine `json:"engines,omitempty"`
	Declined       []string                    `json:"declined,omitempty"`
}

// CryptoKeys is the payload of the crypto/keys record: the default bulk
// key bundle plus any per-collection overrides.
type CryptoKeys struct {
	Default     []string            `json:"default"`
	Collections map[string][]string `json:"collections,omitempty"`
}

// StorageClientConfig carries the overridable knobs for a StorageClient:
// a single optional struct passed alongside the required constructor
// arguments.
type StorageClientConfig struct {
	// HTTPClient is the shared HTTP session to issue requests over. If
	// nil, http.DefaultClient is used.
	HTTPClient *http.Client

	// UserAgent is sent on every request. Defaults to
	// "go-syncclient/1".
	UserAgent string

	// Logger receives debug/warn traces of request activity and backoff
	// transitions. Defaults to a logrus.New() logger at its default
	// level.
	Logger logrus.FieldLogger
}

// StorageClient is the root of the engine: it owns the authorizer, the
// server root URI, and the backoff store, and is the factory for
// CollectionClient instances.
type StorageClient struct {
	transport *transport
	rootURL   string // never has a trailing slash.

	mu     sync.RWMutex
	config InfoConfiguration
}

// NewStorageClient builds a StorageClient rooted at rootURL (e.g.
// "https://sync-1-us-east1.sync.services.mozilla.com/1.5/12345"). authorize
// signs every outgoing request; backoffStore persists "server is in
// backoff until T" across calls (and, typically, across StorageClient
// instances if the host wants that).
func NewStorageClient(rootURL string, authorize Authorizer, backoffStore backoff.Store, cfg *StorageClientConfig) *StorageClient {
	if cfg == nil {
		cfg = &StorageClientConfig{}
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "go-syncclient/1"
	}

	log := cfg.Logger
	if log == nil {
		log = logrus.New()
	}

	return &StorageClient{
		transport: &transport{
			httpClient: httpClient,
			authorize:  authorize,
			backoff:    backoffStore,
			userAgent:  userAgent,
			log:        log,
		},
		// Strip a trailing slash unconditionally: a wipe targets the
		// bare root (drop-user), while "<root>/" targets an empty
		// collection. Do not paper over this with a URL-join library.
		rootURL: strings.TrimSuffix(rootURL, "/"),
		config:  DefaultInfoConfiguration(),
	}
}

// Configuration returns the server limits currently in effect: the
// defaults until GetConfiguration has been called successfully.
func (sc *StorageClient) Configuration() InfoConfiguration {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.config
}

func (sc *StorageClient) collectionURI(collection string) string {
	return sc.rootURL + "/storage/" + collection
}

// WipeStorage issues a DELETE against the bare service root, which the
// server interprets as "drop this user's data."
func (sc *StorageClient) WipeStorage(ctx context.Context) (StorageResponse[json.RawMessage], error) {
	req, err := newDELETERequest(ctx, sc.rootURL)
	if err != nil {
		return StorageResponse[json.RawMessage]{}, err
	}

	return doRequest(sc.transport, req, func(body []byte) (json.RawMessage, error) {
		if len(body) == 0 {
			return json.RawMessage("null"), nil
		}
		return json.RawMessage(body), nil
	})
}

// GetInfoCollections fetches info/collections: the last-modified
// timestamp of every collection the user has.
func (sc *StorageClient) GetInfoCollections(ctx context.Context) (StorageResponse[InfoCollections], error) {
	req, err := newGETRequest(ctx, sc.rootURL+"/info/collections")
	if err != nil {
		return StorageResponse[InfoCollections]{}, err
	}

	return doRequest(sc.transport, req, func(body []byte) (InfoCollections, error) {
		var wire map[string]float64
		if err := json.Unmarshal(body, &wire); err != nil {
			return nil, errors.Wrap(err, "syncclient: could not parse info/collections")
		}
		out := make(InfoCollections, len(wire))
		for name, seconds := range wire {
			out[name] = secondsToTimestamp(seconds)
		}
		return out, nil
	})
}

// GetConfiguration fetches info/configuration and updates the limits
// returned by Configuration, so a caller isn't stuck with the hardcoded
// defaults once the server advertises its own.
func (sc *StorageClient) GetConfiguration(ctx context.Context) (StorageResponse[InfoConfiguration], error) {
	req, err := newGETRequest(ctx, sc.rootURL+"/info/configuration")
	if err != nil {
		return StorageResponse[InfoConfiguration]{}, err
	}

	resp, err := doRequest(sc.transport, req, func(body []byte) (InfoConfiguration, error) {
		var wire struct {
			MaxRequestBytes int `json:"max_request_bytes"`
			MaxPostRecords  int `json:"max_post_records"`
			MaxPostBytes    int `json:"max_post_bytes"`
			MaxBatchRecord  int `json:"max_total_records"`
			MaxBatchBytes   int `json:"max_total_bytes"`
		}
		if err := json.Unmarshal(body, &wire); err != nil {
			return InfoConfiguration{}, errors.Wrap(err, "syncclient: could not parse info/configuration")
		}
		cfg := DefaultInfoConfiguration()
		if wire.MaxRequestBytes > 0 {
			cfg.MaxRequestBytes = wire.MaxRequestBytes
		}
		if wire.MaxPostRecords > 0 {
			cfg.MaxPostRecords = wire.MaxPostRecords
		}
		if wire.MaxPostBytes > 0 {
			cfg.MaxPostBytes = wire.MaxPostBytes
		}
		if wire.MaxBatchRecord > 0 {
			cfg.MaxBatchRecord = wire.MaxBatchRecord
		}
		if wire.MaxBatchBytes > 0 {
			cfg.MaxBatchBytes = wire.MaxBatchBytes
		}
		return cfg, nil
	})
	if err != nil {
		return resp, err
	}

	sc.mu.Lock()
	sc.config = resp.Value
	sc.mu.Unlock()

	return resp, nil
}

// GetMetaGlobal fetches storage/meta/global. The envelope's payload
// string is itself JSON and is parsed into MetaGlobal.
func (sc *StorageClient) GetMetaGlobal(ctx context.Context) (StorageResponse[MetaGlobal], error) {
	req, err := newGETRequest(ctx, sc.rootURL+"/storage/meta/global")
	if err != nil {
		return StorageResponse[MetaGlobal]{}, err
	}

	return doRequest(sc.transport, req, func(body []byte) (MetaGlobal, error) {
		var env bsoEnvelope
		if err := json.Unmarshal(body, &env); err != nil {
			return MetaGlobal{}, errors.Wrap(err, "syncclient: could not parse meta/global envelope")
		}
		var mg MetaGlobal
		if err := json.Unmarshal([]byte(env.Payload), &mg); err != nil {
			return MetaGlobal{}, errors.Wrap(err, "syncclient: could not parse meta/global payload")
		}
		return mg, nil
	})
}

// UploadMetaGlobal PUTs a new meta/global record. If metaGlobal fails to
// serialize, the error is MalformedMetaGlobalError and no request is ever
// issued.
func (sc *StorageClient) UploadMetaGlobal(ctx context.Context, metaGlobal MetaGlobal, ifUnmodifiedSince *Timestamp) (StorageResponse[Timestamp], error) {
	payload, err := json.Marshal(metaGlobal)
	if err != nil {
		return StorageResponse[Timestamp]{}, &MalformedMetaGlobalError{Cause: err}
	}

	env := bsoEnvelope{ID: "global", Payload: string(payload)}
	body, err := json.Marshal(env)
	if err != nil {
		return StorageResponse[Timestamp]{}, &MalformedMetaGlobalError{Cause: err}
	}

	req, err := newPUTRequest(ctx, sc.rootURL+"/storage/meta/global", body, ifUnmodifiedSince)
	if err != nil {
		return StorageResponse[Timestamp]{}, err
	}

	return doRequest(sc.transport, req, parsePlainTimestamp)
}

// GetCryptoKeys fetches the crypto/keys bootstrap record, decrypting it
// with syncKeyEncrypter (the sync key bundle, not the bulk key -- this is
// the one collection that works this way).
func (sc *StorageClient) GetCryptoKeys(ctx context.Context, syncKeyEncrypter Encrypter[CryptoKeys]) (StorageResponse[Record[CryptoKeys]], error) {
	client := ClientForCollection(sc, CryptoCollection, syncKeyEncrypter)
	return client.Get(ctx, CryptoKeysRecordID)
}

// UploadCryptoKeys PUTs the crypto/keys bootstrap record, encrypted with
// syncKeyEncrypter.
func (sc *StorageClient) UploadCryptoKeys(ctx context.Context, keys CryptoKeys, syncKeyEncrypter Encrypter[CryptoKeys], ifUnmodifiedSince *Timestamp) (StorageResponse[Timestamp], error) {
	client := ClientForCollection(sc, CryptoCollection, syncKeyEncrypter)
	record := Record[CryptoKeys]{ID: CryptoKeysRecordID, Payload: keys}
	return client.Put(ctx, record, ifUnmodifiedSince)
}

// ClientForCollection builds a typed CollectionClient for collection,
// using encrypter for its records. It is a standalone generic function
// rather than a method because Go methods cannot introduce their own type
// parameters on a non-generic receiver.
func ClientForCollection[T CleartextPayload](sc *StorageClient, collection string, encrypter Encrypter[T]) *CollectionClient[T] {
	return &CollectionClient[T]{
		storage:       sc,
		collection:    collection,
		collectionURI: sc.collectionURI(collection),
		encrypter:     encrypter,
	}
}

func parsePlainTimestamp(body []byte) (Timestamp, error) {
	seconds, err := strconv.ParseFloat(strings.TrimSpace(string(body)), 64)
	if err != nil {
		return 0, errors.Wrap(err, "syncclient: could not parse timestamp body")
	}
	return secondsToTimestamp(seconds), nil
}
