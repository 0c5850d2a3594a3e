package colorsensor

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is returned by channel reads issued before the sensor
// completed its configuration sequence.
var ErrNotConfigured = errors.New("sensor is not configured")

// BusOpenError reports that the bus or the device address could not be acquired.
type BusOpenError struct {
	Device string
	Err    error
}

func (e *BusOpenError) Error() string {
	return fmt.Sprintf("could not open bus %s: %v", e.Device, e.Err)
}

func (e *BusOpenError) Unwrap() error {
	return e.Err
}

// BusError reports a single failed bus transaction.
type BusError struct {
	Op       string
	Register byte
	Err      error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("%s register %#04x failed: %v", e.Op, e.Register, e.Err)
}

func (e *BusError) Unwrap() error {
	return e.Err
}

// ConfigStepError reports the 1-indexed configuration step that failed.
type ConfigStepError struct {
	Step int
	Name string
	Err  error
}

func (e *ConfigStepError) Error() string {
	return fmt.Sprintf("configuration step %d (%s) failed: %v", e.Step, e.Name, e.Err)
}

func (e *ConfigStepError) Unwrap() error {
	return e.Err
}
