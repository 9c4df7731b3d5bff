package syncclient

import "encoding/json"

// CleartextPayload is the constraint a collection's payload type must
// satisfy. The engine never inspects the payload itself -- it is opaque to
// everything except the Encrypter the host supplies -- so, per the generic
// record envelope this package is built around, the constraint carries no
// methods of its own.
type CleartextPayload = any

// Timestamp is milliseconds since the Unix epoch. The wire protocol speaks
// decimal seconds; every Timestamp in this package has already been
// converted, so arithmetic and comparisons never need to round-trip
// through floats.
type Timestamp uint64

// Record is a single BSO (Basic Storage Object) with its cleartext payload
// already decrypted (on the way in) or ready to be encrypted (on the way
// out).
type Record[T CleartextPayload] struct {
	ID        string
	Payload   T
	Modified  *Timestamp
	SortIndex *int
	TTL       *int
}

// bsoEnvelope is the wire shape of a BSO: {id, payload, modified,
// sortindex, ttl}, where payload is itself a JSON-encoded string holding
// the (possibly encrypted) cleartext payload.
type bsoEnvelope struct {
	ID        string  `json:"id"`
	Payload   string  `json:"payload"`
	Modified  float64 `json:"modified,omitempty"`
	SortIndex *int    `json:"sortindex,omitempty"`
	TTL       *int    `json:"ttl,omitempty"`
}

func marshalEnvelope(env bsoEnvelope) (string, bool) {
	body, err := json.Marshal(env)
	if err != nil {
		return "", false
	}
	return string(body), true
}

// Encrypter turns cleartext payloads into opaque wire strings and back. It
// is supplied by the host; this package never implements the cryptographic
// envelope itself.
type Encrypter[T CleartextPayload] interface {
	// Serialize returns the opaque payload string for record, or
	// ok=false if encryption failed.
	Serialize(record Record[T]) (payload string, ok bool)

	// Parse recovers the cleartext payload from an opaque payload
	// string, or ok=false if decryption/decoding failed.
	Parse(payload string) (value T, ok bool)
}
