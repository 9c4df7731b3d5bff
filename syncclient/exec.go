package syncclient

import (
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mozilla-services/go-syncclient/backoff"
)

// transport is the small slice of *http.Client every client in this
// package needs, plus the cross-cutting concerns (auth, backoff, logging)
// that wrap every request. It is shared by reference between a
// StorageClient and every CollectionClient/BatchClient built from it --
// none of them own it.
type transport struct {
	httpClient *http.Client
	authorize  Authorizer
	backoff    backoff.Store
	userAgent  string
	log        logrus.FieldLogger
}

// checkBackoff is consulted at the entry of every operation. If backoff
// is active, the request is refused before any network activity.
func (t *transport) checkBackoff() error {
	if until, ok := t.backoff.Check(time.Now()); ok {
		return &ServerInBackoffError{Until: until}
	}
	return nil
}

// doRequest runs the full request/response pipeline shared by every
// operation: authorize, send, decode metadata, update backoff, classify
// the HTTP status, and -- only if nothing above failed -- hand the body
// to parse.
func doRequest[T any](t *transport, req *http.Request, parse func(body []byte) (T, error)) (StorageResponse[T], error) {
	var zero StorageResponse[T]

	if err := t.checkBackoff(); err != nil {
		return zero, err
	}

	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
	if err := t.authorize(req); err != nil {
		return zero, &RequestError{Cause: err}
	}

	t.log.WithField("url", req.URL.String()).WithField("method", req.Method).Debug("syncclient: sending request")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		// No response at all (connection refused, timeout, etc.) -- there's
		// no status code or header to classify, so wrap it directly.
		return zero, &RequestError{Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, &RequestError{Cause: err}
	}

	metadata := decodeResponseMetadata(resp.StatusCode, resp.Header)
	t.updateBackoff(metadata)

	if statusErr := classifyStatus(req, metadata); statusErr != nil {
		return zero, statusErr
	}

	value, err := parse(body)
	if err != nil {
		return zero, &RecordParseError{Cause: err}
	}

	return StorageResponse[T]{Value: value, Metadata: metadata}, nil
}

// updateBackoff records a server-requested backoff before the response is
// classified, so a throttled or failing response still throttles future
// calls. X-Weave-Backoff/X-Backoff takes precedence over Retry-After, and
// either one sets the store to now+duration regardless of status code.
func (t *transport) updateBackoff(m ResponseMetadata) {
	var millis uint64
	switch {
	case m.BackoffMilliseconds != nil:
		millis = *m.BackoffMilliseconds
	case m.RetryAfterMilliseconds != nil:
		millis = *m.RetryAfterMilliseconds
	default:
		return
	}

	until := time.Now().Add(time.Duration(millis) * time.Millisecond)
	t.log.WithField("until", until).Warn("syncclient: server requested backoff")
	t.backoff.SetUntil(until)
}

// classifyStatus maps an HTTP status code to the typed error a caller can
// match with errors.As. It always runs after backoff has been updated, so
// classification never skips the backoff side effect.
func classifyStatus(req *http.Request, m ResponseMetadata) error {
	switch {
	case m.Status >= 500:
		return &ServerError{Response: m}
	case m.Status == http.StatusNotFound:
		return &NotFoundError{Response: m}
	case m.Status >= 400:
		return &BadRequestError{Request: req, Response: m}
	default:
		return nil
	}
}
