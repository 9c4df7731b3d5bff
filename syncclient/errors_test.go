package syncclient

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotImplementedError_UnwrapsToSentinel(t *testing.T) {
	err := &NotImplementedError{RequiredBatches: 3}
	assert.True(t, errors.Is(err, ErrNotImplemented))
	assert.Contains(t, err.Error(), "3 batches")
}

func TestRequestError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &RequestError{Cause: cause}
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestRecordTooLargeError_Message(t *testing.T) {
	err := &RecordTooLargeError{GUID: "abc", Size: 500000}
	assert.Contains(t, err.Error(), "abc")
	assert.Contains(t, err.Error(), "500000")
}
