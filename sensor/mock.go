package sensor

import (
	"context"

	"github.com/mklimuk/colorsensor/color"
)

// RawBehaviorFunc produces a raw reading or an error.
type RawBehaviorFunc func(ctx context.Context) (color.RawChannels, error)

// MockColorSensor produces readings from a behavior function without any
// hardware.
//
// Example usage:
//
//	// Static value
//	s := NewMockColorSensor(func(ctx context.Context) (color.RawChannels, error) {
//		return color.RawChannels{Clear: 100, Red: 50, Green: 100, Blue: 25}, nil
//	})
//
//	// Error simulation
//	s := NewMockColorSensor(func(ctx context.Context) (color.RawChannels, error) {
//		return color.RawChannels{}, colorsensor.ErrNotConfigured
//	})
type MockColorSensor struct {
	behavior RawBehaviorFunc
}

func NewMockColorSensor(behavior RawBehaviorFunc) *MockColorSensor {
	return &MockColorSensor{behavior: behavior}
}

func (m *MockColorSensor) ReadRaw(ctx context.Context) (color.RawChannels, error) {
	return m.behavior(ctx)
}

func (m *MockColorSensor) ReadColor(ctx context.Context) (color.NormalizedColor, error) {
	raw, err := m.behavior(ctx)
	if err != nil {
		return color.NormalizedColor{}, err
	}
	return color.Normalize(raw), nil
}
