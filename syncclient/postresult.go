package syncclient

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// POSTResult is the parsed body of a successful collection POST: which
// records the server accepted, which it rejected (and why), the
// collection's new modified timestamp, and -- for batch uploads -- the
// batch token to continue with.
type POSTResult struct {
	Modified   Timestamp
	Success    []string
	Failed     map[string]string
	BatchToken string // empty means the response carried no "batch" field
}

type postResultWire struct {
	Modified float64           `json:"modified"`
	Success  []string          `json:"success"`
	Failed   map[string]string `json:"failed"`
	Batch    string            `json:"batch,omitempty"`
}

func parsePOSTResult(body []byte) (POSTResult, error) {
	var wire postResultWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return POSTResult{}, errors.Wrap(err, "syncclient: could not parse POST result")
	}

	return POSTResult{
		Modified:   secondsToTimestamp(wire.Modified),
		Success:    wire.Success,
		Failed:     wire.Failed,
		BatchToken: wire.Batch,
	}, nil
}
