package syncclient

import (
	"bytes"
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// Authorizer attaches an Authorization header to an outgoing request. The
// engine never signs a request itself -- HAWK (or any other scheme) is an
// external collaborator supplied by the host. See package hawkauth for the
// default HAWK-based implementation.
type Authorizer func(req *http.Request) error

func newRequest(ctx context.Context, method, rawURL string, body []byte, contentType string, ifUnmodifiedSince *Timestamp) (*http.Request, error) {
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, errors.Wrap(err, "syncclient: could not build request")
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if ifUnmodifiedSince != nil {
		req.Header.Set("X-If-Unmodified-Since", secondsString(*ifUnmodifiedSince))
	}

	return req, nil
}

// newGETRequest builds a GET request.
func newGETRequest(ctx context.Context, rawURL string) (*http.Request, error) {
	req, err := newRequest(ctx, http.MethodGet, rawURL, nil, "", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// newDELETERequest builds a DELETE request carrying the confirmation
// header the server requires before it will drop data.
func newDELETERequest(ctx context.Context, rawURL string) (*http.Request, error) {
	req, err := newRequest(ctx, http.MethodDelete, rawURL, nil, "", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Confirm-Delete", "1")
	return req, nil
}

// newPUTRequest builds a PUT request with a compact JSON body.
func newPUTRequest(ctx context.Context, rawURL string, body []byte, ifUnmodifiedSince *Timestamp) (*http.Request, error) {
	return newRequest(ctx, http.MethodPut, rawURL, body, "application/json;charset=utf-8", ifUnmodifiedSince)
}

// newPOSTRequestJSON builds a POST request whose body is a single JSON
// object.
func newPOSTRequestJSON(ctx context.Context, rawURL string, body []byte, ifUnmodifiedSince *Timestamp) (*http.Request, error) {
	return newRequest(ctx, http.MethodPost, rawURL, body, "application/json;charset=utf-8", ifUnmodifiedSince)
}

// newPOSTRequestLines builds a POST request whose body is lines joined by
// "\n", the newline-framed shape used for collection posts and batch
// chunks.
func newPOSTRequestLines(ctx context.Context, rawURL string, lines []string, ifUnmodifiedSince *Timestamp) (*http.Request, error) {
	body := []byte(strings.Join(lines, "\n"))
	return newRequest(ctx, http.MethodPost, rawURL, body, "application/newlines", ifUnmodifiedSince)
}
