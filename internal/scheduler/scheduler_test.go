package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextTickAligned(t *testing.T) {
	s := New(Options{Interval: time.Hour, AlignToBucket: true}, zerolog.Nop())
	now := time.Date(2025, 8, 1, 10, 17, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2025, 8, 1, 11, 0, 0, 0, time.UTC), s.nextTick(now))
	assert.Equal(t, time.Date(2025, 8, 1, 11, 0, 0, 0, time.UTC), s.nextTick(time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC), s.bucketStart(now))
}

func TestNextTickUnaligned(t *testing.T) {
	s := New(Options{Interval: time.Minute}, zerolog.Nop())
	now := time.Date(2025, 8, 1, 10, 17, 30, 0, time.UTC)

	assert.Equal(t, now.Add(time.Minute), s.nextTick(now))
	assert.Equal(t, now, s.bucketStart(now))
}

func TestRunOnStartAndKeepsGoingAfterError(t *testing.T) {
	s := New(Options{Interval: 10 * time.Millisecond, RunOnStart: true}, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	err := s.Run(ctx, func(context.Context, time.Time) error {
		if calls.Add(1) >= 3 {
			cancel()
		}
		return errors.New("boom")
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

func TestStartupDelayHonoursCancel(t *testing.T) {
	s := New(Options{Interval: time.Hour, StartupDelay: time.Hour, RunOnStart: true}, zerolog.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	called := false
	err := s.Run(ctx, func(context.Context, time.Time) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, called)
}

func TestNewPanicsOnZeroInterval(t *testing.T) {
	assert.Panics(t, func() { New(Options{}, zerolog.Nop()) })
}
