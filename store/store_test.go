package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/colorsensor/color"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func reading(ts time.Time, clear, red, green, blue uint16) *Reading {
	raw := color.RawChannels{Clear: clear, Red: red, Green: green, Blue: blue}
	return &Reading{Timestamp: ts, Raw: raw, Color: color.Normalize(raw)}
}

func TestStore_SaveLatest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Latest(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	now := time.Now().UTC().Truncate(time.Millisecond)
	first := reading(now.Add(-time.Minute), 100, 50, 100, 25)
	second := reading(now, 1000, 500, 250, 125)
	require.NoError(t, s.Save(ctx, first))
	require.NoError(t, s.Save(ctx, second))
	assert.NotZero(t, first.ID)
	assert.Greater(t, second.ID, first.ID)

	got, err := s.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
	assert.Equal(t, second.Raw, got.Raw)
	assert.Equal(t, color.NormalizedColor{R: 127, G: 63, B: 31}, got.Color)
	assert.True(t, now.Equal(got.Timestamp))
}

func TestStore_Since(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	require.NoError(t, s.Save(ctx, reading(now.Add(-2*time.Hour), 10, 1, 1, 1)))
	require.NoError(t, s.Save(ctx, reading(now.Add(-time.Hour), 10, 2, 2, 2)))
	require.NoError(t, s.Save(ctx, reading(now, 10, 3, 3, 3)))

	res, err := s.Since(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, uint16(2), res[0].Raw.Red)
	assert.Equal(t, uint16(3), res[1].Raw.Red)

	res, err = s.Since(ctx, now.Add(time.Second))
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestStore_Prune(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.Save(ctx, reading(now.Add(-48*time.Hour), 10, 1, 1, 1)))
	recent := reading(now.Add(-time.Hour), 10, 2, 2, 2)
	require.NoError(t, s.Save(ctx, recent))

	n, err := s.Prune(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	res, err := s.Since(ctx, time.Time{})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, recent.ID, res[0].ID)
}

func TestStore_SaveDefaultsTimestamp(t *testing.T) {
	s := newTestStore(t)
	r := &Reading{Raw: color.RawChannels{Clear: 1}}
	require.NoError(t, s.Save(context.Background(), r))
	assert.WithinDuration(t, time.Now(), r.Timestamp, 5*time.Second)
}
