package syncclient

import (
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// ServerInBackoffError is returned when an operation is refused before any
// network activity because the backoff store reports the server is still
// in its advisory backoff window.
type ServerInBackoffError struct {
	Until time.Time
}

func (e *ServerInBackoffError) Error() string {
	return fmt.Sprintf("syncclient: server in backoff until %s", e.Until.Format(time.RFC3339))
}

// RequestError wraps a transport failure that produced no usable HTTP
// response at all.
type RequestError struct {
	Cause error
}

func (e *RequestError) Error() string { return "syncclient: request failed: " + e.Cause.Error() }
func (e *RequestError) Unwrap() error { return e.Cause }

// ServerError represents an HTTP 5xx response.
type ServerError struct {
	Response ResponseMetadata
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("syncclient: server error, status %d", e.Response.Status)
}

// NotFoundError represents an HTTP 404 response, typically a GET of a
// record or collection that doesn't exist.
type NotFoundError struct {
	Response ResponseMetadata
}

func (e *NotFoundError) Error() string { return "syncclient: not found" }

// BadRequestError represents any HTTP 4xx response other than 404.
type BadRequestError struct {
	Request  *http.Request
	Response ResponseMetadata
}

func (e *BadRequestError) Error() string {
	return fmt.Sprintf("syncclient: bad request, status %d", e.Response.Status)
}

// RecordParseError means a response body was present but could not be
// parsed into the shape the caller expected.
type RecordParseError struct {
	Cause error
}

func (e *RecordParseError) Error() string {
	return "syncclient: could not parse response: " + e.Cause.Error()
}
func (e *RecordParseError) Unwrap() error { return e.Cause }

// MalformedMetaGlobalError is a pre-flight failure: the meta-global value
// could not be serialized, so no request was ever issued.
type MalformedMetaGlobalError struct {
	Cause error
}

func (e *MalformedMetaGlobalError) Error() string {
	return "syncclient: malformed meta/global: " + e.Cause.Error()
}
func (e *MalformedMetaGlobalError) Unwrap() error { return e.Cause }

// RecordTooLargeError means a single record's serialized envelope exceeds
// MaxRecordSizeBytes (or failed to serialize at all, in which case Size is
// 0). Raised by the batch chunker before any network activity.
type RecordTooLargeError struct {
	GUID string
	Size int
}

func (e *RecordTooLargeError) Error() string {
	return fmt.Sprintf("syncclient: record %q is too large to upload (%d bytes)", e.GUID, e.Size)
}

// ErrNotImplemented is returned when a record set exceeds the server's
// batch limits (maxBatchRecord/maxBatchBytes) and would require splitting
// across more than one batch. This implementation fails loudly rather
// than silently dropping the excess records.
var ErrNotImplemented = errors.New("syncclient: multi-batch upload is not implemented")

// NotImplementedError wraps ErrNotImplemented with the number of batches
// the record set would have required.
type NotImplementedError struct {
	RequiredBatches int
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("%s: record set would require %d batches", ErrNotImplemented, e.RequiredBatches)
}
func (e *NotImplementedError) Unwrap() error { return ErrNotImplemented }
func (e *NotImplementedError) Is(target error) bool { return target == ErrNotImplemented }
