package syncclient

import (
	"math"
	"net/http"
	"strconv"
	"strings"
)

// ResponseMetadata is the decoded set of X-Weave-* and related headers a
// storage server attaches to every response. Decoding is pure and total:
// a missing or malformed header yields a nil field, never an error.
type ResponseMetadata struct {
	Status                   int
	Alert                    *string
	NextOffset               *string
	Records                  *uint64
	QuotaRemaining           *int64
	TimestampMilliseconds    uint64
	LastModifiedMilliseconds *uint64
	BackoffMilliseconds      *uint64
	RetryAfterMilliseconds   *uint64
}

// decodeResponseMetadata parses status and header into a ResponseMetadata.
// It never errors: malformed headers are simply absent from the result,
// so a server sending a garbled header degrades to "field missing"
// instead of failing the whole request.
func decodeResponseMetadata(status int, header http.Header) ResponseMetadata {
	m := ResponseMetadata{Status: status}

	if v := header.Get("X-Weave-Alert"); v != "" {
		m.Alert = &v
	}
	if v := header.Get("X-Weave-Next-Offset"); v != "" {
		m.NextOffset = &v
	}
	if ms := optionalSecondsHeader(header.Get("X-Weave-Timestamp")); ms != nil {
		m.TimestampMilliseconds = *ms
	}
	if ms := optionalSecondsHeader(header.Get("X-Last-Modified")); ms != nil {
		m.LastModifiedMilliseconds = ms
	}
	if v := header.Get("X-Weave-Records"); v != "" {
		if n, ok := parseUint(v); ok {
			m.Records = &n
		}
	}
	if v := header.Get("X-Weave-Quota-Remaining"); v != "" {
		if n, ok := parseInt(v); ok {
			m.QuotaRemaining = &n
		}
	}

	// X-Weave-Backoff takes precedence over the generic X-Backoff alias.
	backoff := optionalSecondsHeader(header.Get("X-Weave-Backoff"))
	if backoff == nil {
		backoff = optionalSecondsHeader(header.Get("X-Backoff"))
	}
	m.BackoffMilliseconds = backoff

	m.RetryAfterMilliseconds = optionalSecondsHeader(header.Get("Retry-After"))

	return m
}

// optionalSecondsHeader parses a header value that may be a quoted or
// unquoted decimal-seconds string, an integer of seconds, or any other
// numeric-looking value, into milliseconds. It returns nil for an empty or
// unparsable value -- never an error, so one malformed header can't fail
// decoding of the rest.
func optionalSecondsHeader(value string) *uint64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	value = strings.Trim(value, `"`)

	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	if seconds < 0 {
		return nil
	}

	ms := uint64(math.Trunc(seconds * 1000))
	return &ms
}

func parseUint(value string) (uint64, bool) {
	value = strings.Trim(strings.TrimSpace(value), `"`)
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseInt(value string) (int64, bool) {
	value = strings.Trim(strings.TrimSpace(value), `"`)
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
