package status

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Status_Severity(t *testing.T) {
	assert.Equal(t, SeveritySuccess, StatusSuccess.Severity())
	assert.Equal(t, SeveritySuccess, StatusPending.Severity())
	assert.Equal(t, SeverityInformational, StatusObjectNameExists.Severity())
	assert.Equal(t, SeverityWarning, StatusBufferOverflow.Severity())
	assert.Equal(t, SeverityError, StatusInvalidParameter.Severity())

	assert.True(t, StatusObjectNameExists.IsSuccess())
	assert.False(t, StatusBufferOverflow.IsSuccess())
	assert.False(t, StatusBufferOverflow.IsError())
	assert.True(t, StatusBufferOverflow.IsWarning())
	assert.True(t, StatusCancelled.IsError())
}

func Test_Status_Err(t *testing.T) {
	assert.NoError(t, StatusSuccess.Err())
	assert.NoError(t, StatusObjectNameExists.Err())

	err := StatusPending.Err()
	assert.ErrorIs(t, err, ErrIoPending)

	err = StatusBufferOverflow.Err()
	assert.ErrorIs(t, err, ErrMoreData)

	var se *StatusError
	if assert.True(t, errors.As(StatusDiskFull.Err(), &se)) {
		assert.Equal(t, StatusDiskFull, se.Status)
		assert.Equal(t, ErrDiskFull, se.Errno)
	}
}

func Test_Status_Unmapped(t *testing.T) {
	odd := Status(0xC0DE0001)
	assert.Equal(t, ErrMrMidNotFound, ToErrno(odd))
	assert.Equal(t, "STATUS_0xC0DE0001", odd.String())
	assert.ErrorIs(t, odd.Err(), ErrMrMidNotFound)
}
