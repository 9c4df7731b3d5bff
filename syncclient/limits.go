package syncclient

// Hard protocol constants. These are client-enforced ceilings independent
// of whatever the server reports in info/configuration.
const (
	// MaxRecordSizeBytes is the largest a single serialized BSO envelope
	// line may be (approximately 256KiB - 4).
	MaxRecordSizeBytes = 262140

	// MaxPayloadSizeBytes bounds the running total (sum of line lengths
	// plus one byte per line for the newline separators) of any chunk
	// the batch engine will pack.
	MaxPayloadSizeBytes = 1000000

	// MaxPayloadItemCount bounds the number of records in any chunk the
	// batch engine will pack.
	MaxPayloadItemCount = 100
)

// InfoConfiguration holds the server-declared limits returned by
// info/configuration. It is treated as immutable for the lifetime of a
// sync session: fetch it once with StorageClient.GetConfiguration and reuse
// it across collections.
type InfoConfiguration struct {
	MaxRequestBytes int
	MaxPostRecords  int
	MaxPostBytes    int
	MaxBatchRecord  int
	MaxBatchBytes   int
}

// DefaultInfoConfiguration mirrors the values a Sync 1.5 storage server
// advertises by default, used until GetConfiguration populates the real
// values.
func DefaultInfoConfiguration() InfoConfiguration {
	return InfoConfiguration{
		MaxRequestBytes: 1048576,
		MaxPostRecords:  100,
		MaxPostBytes:    1048576,
		MaxBatchRecord:  10000,
		MaxBatchBytes:   104857600,
	}
}
