package sensor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/colorsensor/color"
	"github.com/mklimuk/colorsensor/query"
)

func TestMockColorSensor(t *testing.T) {
	calls := 0
	m := NewMockColorSensor(func(ctx context.Context) (color.RawChannels, error) {
		calls++
		if calls > 1 {
			return color.RawChannels{}, errors.New("sensor malfunction")
		}
		return color.RawChannels{Clear: 100, Red: 50, Green: 100, Blue: 25}, nil
	})

	v, err := query.NewService(m).ReadRed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 127, v)
	_, err = m.ReadColor(context.Background())
	assert.EqualError(t, err, "sensor malfunction")
}
