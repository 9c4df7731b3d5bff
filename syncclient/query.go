package syncclient

import (
	"fmt"
	"net/url"

	"github.com/pkg/errors"
)

// withQueryParams sets rawURL's query string to params, replacing any
// query rawURL already had. Unlike a
// url-join library, it never touches the path -- callers are responsible
// for getting the collection URI's trailing slash right themselves.
func withQueryParams(rawURL string, params url.Values) (string, error) {
	if len(params) == 0 {
		return rawURL, nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.Wrap(err, "syncclient: could not parse URL")
	}
	u.RawQuery = params.Encode()
	return u.String(), nil
}

// secondsString formats a Timestamp (milliseconds) as the decimal-seconds
// string the wire protocol expects, with three-decimal precision.
func secondsString(ts Timestamp) string {
	return fmt.Sprintf("%.3f", float64(ts)/1000)
}

// secondsToTimestamp converts a decimal-seconds float (as found in
// response bodies) to a millisecond Timestamp.
func secondsToTimestamp(seconds float64) Timestamp {
	return Timestamp(seconds * 1000)
}
