package syncclient

// StorageResponse pairs a decoded response body with its ResponseMetadata.
// Metadata.TimestampMilliseconds comes from X-Weave-Timestamp, which a
// storage server sends on every successful response; it is 0 when that
// header is absent. Whenever an operation returns an error, the
// StorageResponse is the zero value.
type StorageResponse[T any] struct {
	Value    T
	Metadata ResponseMetadata
}
