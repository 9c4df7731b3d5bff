package syncclient

import (
	"context"
	"net/url"
	"sort"
)

// BatchClient accumulates a record set and commits it to its collection in
// one of three strategies: a single POST, a single batched upload
// (possibly spanning several POSTs), or -- when the set exceeds the
// server's batch limits -- a failure, since this engine does not split a
// record set across more than one batch.
//
// A BatchClient is single-use: once Commit returns, its buffered records
// have either been uploaded or the whole attempt failed; it is not reset
// for reuse.
type BatchClient[T CleartextPayload] struct {
	collection *CollectionClient[T]
	records    []Record[T]
	config     InfoConfiguration
}

// AddRecords appends records to the batch's buffered set. It performs no
// I/O; records are only serialized and sized when Commit runs.
func (b *BatchClient[T]) AddRecords(records ...Record[T]) {
	b.records = append(b.records, records...)
}

// batchLine is a record paired with its serialized line and that line's
// UTF-8 byte length, the decorated form the chunking algorithm below
// operates on.
type batchLine struct {
	GUID  string
	Line  string
	Bytes int
}

// decorateAndValidate serializes every record in order, short-circuiting
// on the first failure (a record that won't serialize, or one whose line
// exceeds MaxRecordSizeBytes) so a caller never uploads part of a record
// set it asked to send as a unit.
func decorateAndValidate[T CleartextPayload](records []Record[T], encrypter Encrypter[T]) ([]batchLine, error) {
	pairs := make([]batchLine, 0, len(records))
	for _, record := range records {
		line, ok := encrypter.Serialize(record)
		if !ok {
			return nil, &RecordTooLargeError{GUID: record.ID, Size: 0}
		}

		env := bsoEnvelope{ID: record.ID, Payload: line, SortIndex: record.SortIndex, TTL: record.TTL}
		if record.Modified != nil {
			env.Modified = float64(*record.Modified) / 1000
		}
		serialized, ok := marshalEnvelope(env)
		if !ok {
			return nil, &RecordTooLargeError{GUID: record.ID, Size: 0}
		}

		size := len(serialized)
		if size > MaxRecordSizeBytes {
			return nil, &RecordTooLargeError{GUID: record.ID, Size: size}
		}

		pairs = append(pairs, batchLine{GUID: record.ID, Line: serialized, Bytes: size})
	}
	return pairs, nil
}

// packChunks greedily fills chunks from already-sorted pairs so that each
// satisfies sum(byteLen)+lineCount <= MaxPayloadSizeBytes and
// lineCount <= MaxPayloadItemCount.
func packChunks(pairs []batchLine) [][]string {
	var chunks [][]string
	var cur []string
	var sumBytes int

	for _, p := range pairs {
		wouldBeTotal := sumBytes + p.Bytes + len(cur) + 1
		if len(cur) > 0 && (wouldBeTotal > MaxPayloadSizeBytes || len(cur) >= MaxPayloadItemCount) {
			chunks = append(chunks, cur)
			cur = nil
			sumBytes = 0
		}
		cur = append(cur, p.Line)
		sumBytes += p.Bytes
	}
	if len(cur) > 0 {
		chunks = append(chunks, cur)
	}
	return chunks
}

// BatchesFromRecords validates and serializes every record, sorts the
// results ascending by size (smallest first, so chunks pack tightly and
// the largest records get their own room), and packs them into size- and
// count-bounded chunks.
func BatchesFromRecords[T CleartextPayload](records []Record[T], encrypter Encrypter[T]) ([][]string, error) {
	pairs, err := decorateAndValidate(records, encrypter)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].Bytes < pairs[j].Bytes })
	return packChunks(pairs), nil
}

// Commit picks the cheapest upload strategy the buffered record set fits
// within and drives it. onCollectionUploaded fires with the POSTResult of
// whichever request the server considers the canonical "collection
// modified" event: the single POST, the batch commit, or every POST in
// the non-batching fallback.
func (b *BatchClient[T]) Commit(ctx context.Context, ifUnmodifiedSince *Timestamp, onCollectionUploaded func(POSTResult)) error {
	pairs, err := decorateAndValidate(b.records, b.collection.encrypter)
	if err != nil {
		return err
	}

	count := len(pairs)
	var totalBytes int
	for _, p := range pairs {
		totalBytes += p.Bytes
	}
	totalBytes += count

	switch {
	case count <= b.config.MaxPostRecords && totalBytes <= b.config.MaxPostBytes:
		return b.commitSinglePost(ctx, pairs, ifUnmodifiedSince, onCollectionUploaded)

	case count <= b.config.MaxBatchRecord && totalBytes <= b.config.MaxBatchBytes:
		sorted := append([]batchLine(nil), pairs...)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Bytes < sorted[j].Bytes })
		chunks := packChunks(sorted)
		return b.commitBatch(ctx, chunks, ifUnmodifiedSince, onCollectionUploaded)

	default:
		sorted := append([]batchLine(nil), pairs...)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Bytes < sorted[j].Bytes })
		chunks := packChunks(sorted)
		return &NotImplementedError{RequiredBatches: len(chunks)}
	}
}

func (b *BatchClient[T]) commitSinglePost(ctx context.Context, pairs []batchLine, ifUnmodifiedSince *Timestamp, onCollectionUploaded func(POSTResult)) error {
	lines := make([]string, len(pairs))
	for i, p := range pairs {
		lines[i] = p.Line
	}

	resp, err := b.collection.postLines(ctx, lines, nil, ifUnmodifiedSince)
	if err != nil {
		return err
	}
	onCollectionUploaded(resp.Value)
	return nil
}

// commitBatch drives a batched upload through its probe, intermediate
// chunks (if any), and commit, falling back to plain sequential POSTs if
// the probe response shows the server doesn't support batching.
func (b *BatchClient[T]) commitBatch(ctx context.Context, chunks [][]string, ifUnmodifiedSince *Timestamp, onCollectionUploaded func(POSTResult)) error {
	if len(chunks) == 0 {
		return nil
	}

	// A record set that packs into exactly one chunk needs no separate
	// probe: send it once, already marked committed, so the data is
	// never uploaded twice.
	if len(chunks) == 1 {
		resp, err := b.collection.postLines(ctx, chunks[0], url.Values{"batch": {"true"}, "commit": {"true"}}, ifUnmodifiedSince)
		if err != nil {
			return err
		}
		onCollectionUploaded(resp.Value)
		return nil
	}

	// Probe: the server may not support batching at all, in which case
	// its response carries no "batch" field and we fall back to plain
	// multi-POST -- without re-uploading this first chunk.
	probe, err := b.collection.postLines(ctx, chunks[0], url.Values{"batch": {"true"}}, ifUnmodifiedSince)
	if err != nil {
		return err
	}

	if probe.Value.BatchToken == "" {
		onCollectionUploaded(probe.Value)
		for _, chunk := range chunks[1:] {
			resp, err := b.collection.postLines(ctx, chunk, nil, ifUnmodifiedSince)
			if err != nil {
				return err
			}
			onCollectionUploaded(resp.Value)
		}
		return nil
	}

	token := probe.Value.BatchToken
	for _, chunk := range chunks[1 : len(chunks)-1] {
		if _, err := b.collection.postLines(ctx, chunk, url.Values{"batch": {token}}, ifUnmodifiedSince); err != nil {
			return err
		}
	}

	last := chunks[len(chunks)-1]
	commitResp, err := b.collection.postLines(ctx, last, url.Values{"batch": {token}, "commit": {"true"}}, ifUnmodifiedSince)
	if err != nil {
		return err
	}
	onCollectionUploaded(commitResp.Value)
	return nil
}
