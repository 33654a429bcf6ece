package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompanionError(t *testing.T) {
	err := New(1500, "this is the error")
	assert.Equal(t, 1500, err.GetErrorCode(), "The error code was not returned correctly")
	assert.Equal(t, "[Error Code 1500] - this is the error", err.Error(), "The error message was not formatted correctly")

	wrapped := Wrap(err, "more detail")
	assert.Equal(t, "[Error Code 1500] - this is the error: more detail", wrapped.Error(), "The wrapped error message was not formatted correctly")

	errf := Newf(1501, "failed for table %s")
	formatted := errf.FormatError("attendees")
	assert.Equal(t, "[Error Code 1501] - failed for table attendees", formatted.Error(), "The formatted error message was not correct")
}
