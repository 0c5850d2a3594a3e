package colorsensor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusError(t *testing.T) {
	cause := errors.New("remote I/O error")
	err := error(&BusError{Op: "write", Register: 0x80, Err: cause})
	assert.Equal(t, "write register 0x80 failed: remote I/O error", err.Error())
	assert.ErrorIs(t, err, cause)

	err = &BusError{Op: "read", Register: 0x00, Err: cause}
	assert.Equal(t, "read register 0x00 failed: remote I/O error", err.Error())
}

func TestConfigStepError(t *testing.T) {
	err := error(&ConfigStepError{Step: 3, Name: "integration-time", Err: ErrBusBusy})
	assert.ErrorIs(t, err, ErrBusBusy)
	var stepErr *ConfigStepError
	assert.ErrorAs(t, err, &stepErr)
	assert.Equal(t, 3, stepErr.Step)
}
