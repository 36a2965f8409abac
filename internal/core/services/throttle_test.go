package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertThrottle_Disabled(t *testing.T) {
	var nilThrottle *InsertThrottle
	assert.False(t, nilThrottle.Enabled())
	assert.NoError(t, nilThrottle.Wait(context.Background()))

	th := NewInsertThrottle(0)
	assert.False(t, th.Enabled())
	for range 5 {
		assert.NoError(t, th.Wait(context.Background()))
	}
}

func TestInsertThrottle_SpacesCalls(t *testing.T) {
	const interval = 30 * time.Millisecond
	th := NewInsertThrottle(interval)
	require.True(t, th.Enabled())

	start := time.Now()
	require.NoError(t, th.Wait(context.Background()))
	assert.Less(t, time.Since(start), interval, "first wait should not block")

	require.NoError(t, th.Wait(context.Background()))
	require.NoError(t, th.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 2*interval-5*time.Millisecond)
}

func TestInsertThrottle_Cancelled(t *testing.T) {
	th := NewInsertThrottle(time.Hour)
	require.NoError(t, th.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, th.Wait(ctx))
}
