package syncclient

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/pkg/errors"
)

// CollectionClient is a typed GET/PUT/POST client for a single
// collection; it has no DELETE operation. It holds a back-reference to the StorageClient it was built
// from -- never ownership -- so a StorageClient can hand out any number
// of collection clients without tracking their lifetimes.
type CollectionClient[T CleartextPayload] struct {
	storage       *StorageClient
	collection    string
	collectionURI string
	encrypter     Encrypter[T]
}

// GetSinceOptions configures CollectionClient.GetSince's optional query
// parameters.
type GetSinceOptions struct {
	Sort   SortOption
	Limit  int    // 0 means omit
	Offset string // "" means omit
}

// serializeRecord returns the full JSON envelope for record, or ok=false
// if the encrypter failed to produce a payload.
func (c *CollectionClient[T]) serializeRecord(record Record[T]) (string, bool) {
	payload, ok := c.encrypter.Serialize(record)
	if !ok {
		return "", false
	}

	env := bsoEnvelope{ID: record.ID, Payload: payload, SortIndex: record.SortIndex, TTL: record.TTL}
	if record.Modified != nil {
		env.Modified = float64(*record.Modified) / 1000
	}

	body, err := json.Marshal(env)
	if err != nil {
		return "", false
	}
	return string(body), true
}

func (c *CollectionClient[T]) decodeEnvelope(env bsoEnvelope) (Record[T], error) {
	value, ok := c.encrypter.Parse(env.Payload)
	if !ok {
		return Record[T]{}, errors.Errorf("syncclient: could not decrypt record %q", env.ID)
	}

	record := Record[T]{ID: env.ID, Payload: value, SortIndex: env.SortIndex, TTL: env.TTL}
	if env.Modified != 0 {
		ts := secondsToTimestamp(env.Modified)
		record.Modified = &ts
	}
	return record, nil
}

// Get fetches a single record by GUID.
func (c *CollectionClient[T]) Get(ctx context.Context, guid string) (StorageResponse[Record[T]], error) {
	req, err := newGETRequest(ctx, c.collectionURI+"/"+guid)
	if err != nil {
		return StorageResponse[Record[T]]{}, err
	}

	return doRequest(c.storage.transport, req, func(body []byte) (Record[T], error) {
		var env bsoEnvelope
		if err := json.Unmarshal(body, &env); err != nil {
			return Record[T]{}, errors.Wrap(err, "syncclient: could not parse record envelope")
		}
		return c.decodeEnvelope(env)
	})
}

// GetSince fetches every record modified after since, applying opts'
// optional sort/limit/offset. Envelopes that fail to decrypt are dropped
// silently rather than failing the whole call; the returned slice may be
// shorter than the server's actual match count.
func (c *CollectionClient[T]) GetSince(ctx context.Context, since Timestamp, opts GetSinceOptions) (StorageResponse[[]Record[T]], error) {
	q := url.Values{}
	q.Set("full", "1")
	q.Set("newer", secondsString(since))
	if opts.Sort != "" {
		q.Set("sort", string(opts.Sort))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset != "" {
		q.Set("offset", opts.Offset)
	}

	rawURL, err := withQueryParams(c.collectionURI, q)
	if err != nil {
		return StorageResponse[[]Record[T]]{}, err
	}

	req, err := newGETRequest(ctx, rawURL)
	if err != nil {
		return StorageResponse[[]Record[T]]{}, err
	}

	return doRequest(c.storage.transport, req, func(body []byte) ([]Record[T], error) {
		var envs []bsoEnvelope
		if err := json.Unmarshal(body, &envs); err != nil {
			return nil, errors.Wrap(err, "syncclient: could not parse record array")
		}

		records := make([]Record[T], 0, len(envs))
		for _, env := range envs {
			record, err := c.decodeEnvelope(env)
			if err != nil {
				continue
			}
			records = append(records, record)
		}
		return records, nil
	})
}

// postLines POSTs pre-serialized, newline-joined lines to the collection
// URI, with the given extra query parameters (e.g. batch=true,
// batch=<token>, commit=true).
func (c *CollectionClient[T]) postLines(ctx context.Context, lines []string, query url.Values, ifUnmodifiedSince *Timestamp) (StorageResponse[POSTResult], error) {
	rawURL, err := withQueryParams(c.collectionURI, query)
	if err != nil {
		return StorageResponse[POSTResult]{}, err
	}

	req, err := newPOSTRequestLines(ctx, rawURL, lines, ifUnmodifiedSince)
	if err != nil {
		return StorageResponse[POSTResult]{}, err
	}

	return doRequest(c.storage.transport, req, parsePOSTResult)
}

// Post POSTs records to the collection. Records that fail to serialize
// are filtered out silently -- the batch layer is responsible for
// detecting over-large records before this point.
func (c *CollectionClient[T]) Post(ctx context.Context, records []Record[T], ifUnmodifiedSince *Timestamp) (StorageResponse[POSTResult], error) {
	lines := make([]string, 0, len(records))
	for _, record := range records {
		if line, ok := c.serializeRecord(record); ok {
			lines = append(lines, line)
		}
	}
	return c.postLines(ctx, lines, nil, ifUnmodifiedSince)
}

// Put PUTs a single record to <collectionURI>/<record.ID>. The response
// body is a plain decimal-seconds timestamp, not JSON.
func (c *CollectionClient[T]) Put(ctx context.Context, record Record[T], ifUnmodifiedSince *Timestamp) (StorageResponse[Timestamp], error) {
	line, ok := c.serializeRecord(record)
	if !ok {
		return StorageResponse[Timestamp]{}, &RecordParseError{Cause: errors.Errorf("syncclient: could not serialize record %q", record.ID)}
	}

	req, err := newPUTRequest(ctx, c.collectionURI+"/"+record.ID, []byte(line), ifUnmodifiedSince)
	if err != nil {
		return StorageResponse[Timestamp]{}, err
	}

	return doRequest(c.storage.transport, req, parsePlainTimestamp)
}

// NewBatchOperation returns a single-use BatchClient for accumulating and
// committing a record set against this collection.
func (c *CollectionClient[T]) NewBatchOperation() *BatchClient[T] {
	return &BatchClient[T]{
		collection: c,
		config:     c.storage.Configuration(),
	}
}
