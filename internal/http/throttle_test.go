package http

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/catalog/internal/config"
)

func TestNewThrottle_DisabledWithoutRate(t *testing.T) {
	assert.Nil(t, NewThrottle(config.Lookup{}))
	assert.Nil(t, NewThrottle(config.Lookup{RatePerSecond: -1, Burst: 5}))
}

func TestThrottle_RefillsOverTime(t *testing.T) {
	th := NewThrottle(config.Lookup{RatePerSecond: 1, Burst: 2})
	require.NotNil(t, th)
	now := time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC)
	th.now = func() time.Time { return now }

	assert.True(t, th.Allow("ip:10.0.0.1"))
	assert.True(t, th.Allow("ip:10.0.0.1"))
	assert.False(t, th.Allow("ip:10.0.0.1"))
	assert.True(t, th.Allow("ip:10.0.0.2"), "clients have separate buckets")

	now = now.Add(time.Second)
	assert.True(t, th.Allow("ip:10.0.0.1"))
	assert.False(t, th.Allow("ip:10.0.0.1"))
}

func TestThrottle_EvictsIdleClients(t *testing.T) {
	th := NewThrottle(config.Lookup{RatePerSecond: 1, Burst: 1})
	now := time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC)
	th.now = func() time.Time { return now }

	th.Allow("ip:10.0.0.1")
	th.Allow("ip:10.0.0.2")
	assert.Len(t, th.clients, 2)

	now = now.Add(throttleIdleTTL + time.Minute)
	th.Allow("ip:10.0.0.3")
	assert.Len(t, th.clients, 1)
}
