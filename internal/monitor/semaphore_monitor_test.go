package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSemaphoreMonitorExclusive(t *testing.T) {
	m := NewSemaphoreMonitor(0)
	assert.Equal(t, int64(1), m.Occupancy().Slots)
	assert.False(t, m.Busy())

	require.True(t, m.TryAcquire())
	assert.True(t, m.Busy())
	assert.False(t, m.TryAcquire())
	assert.Equal(t, 100.0, m.Occupancy().LoadPercentage)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, m.Acquire(ctx), context.DeadlineExceeded)

	m.Release()
	assert.False(t, m.Busy())
	assert.Equal(t, Occupancy{Active: 0, Slots: 1, Completed: 1}, m.Occupancy())

	require.NoError(t, m.Acquire(context.Background()))
	m.Release()
	assert.Equal(t, int64(2), m.Occupancy().Completed)
}

func TestSemaphoreMonitorChanged(t *testing.T) {
	m := NewSemaphoreMonitor(1)
	ch := m.Changed()

	select {
	case <-ch:
		t.Fatal("changed before any transition")
	default:
	}

	require.True(t, m.TryAcquire())
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("acquire did not signal")
	}

	next := m.Changed()
	m.Release()
	select {
	case <-next:
	case <-time.After(time.Second):
		t.Fatal("release did not signal")
	}
}
