package quota

import (
	"context"
	"testing"
	"time"

	"github.com/mhpenta/mifoto/kvstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(s string) func() time.Time {
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return ts }
}

func TestTracker_LoadDiscardsStaleRecord(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemory(0)
	require.NoError(t, store.Set(ctx, StorageKey, `{"count":5000,"date":"2026-10-17"}`))

	tracker := NewTracker(store, WithClock(fixedClock("2026-10-18T09:00:00Z")))
	usage, err := tracker.Load(ctx)

	require.NoError(t, err)
	assert.Equal(t, 0, usage.Count)
	assert.Equal(t, "2026-10-18", usage.Date)
	_, ok, _ := store.Get(ctx, StorageKey)
	assert.False(t, ok, "stale record must be removed")
}

func TestTracker_LoadDiscardsMalformedRecord(t *testing.T) {
	for _, payload := range []string{
		"not json",
		`{"count":"many","date":"2026-10-18"}`,
		`{"count":10}`,
		`{"count":10,"date":"yesterday"}`,
		`{"count":-5,"date":"2026-10-18"}`,
		`[]`,
	} {
		t.Run(payload, func(t *testing.T) {
			ctx := context.Background()
			store := kvstore.NewMemory(0)
			require.NoError(t, store.Set(ctx, StorageKey, payload))

			tracker := NewTracker(store, WithClock(fixedClock("2026-10-18T09:00:00Z")))
			usage, err := tracker.Load(ctx)

			require.NoError(t, err)
			assert.Equal(t, 0, usage.Count)
			_, ok, _ := store.Get(ctx, StorageKey)
			assert.False(t, ok)
		})
	}
}

func TestTracker_LoadKeepsTodaysRecord(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemory(0)
	require.NoError(t, store.Set(ctx, StorageKey, `{"count":250000,"date":"2026-10-18"}`))

	tracker := NewTracker(store, WithClock(fixedClock("2026-10-18T23:59:59Z")))
	usage, err := tracker.Load(ctx)

	require.NoError(t, err)
	assert.Equal(t, 250000, usage.Count)
	assert.Equal(t, DailyTokenLimit, usage.Limit)
	assert.InDelta(t, 25.0, usage.Percent, 0.001)
}

func TestTracker_RecordUsageAccumulates(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemory(0)
	tracker := NewTracker(store, WithClock(fixedClock("2026-10-18T12:00:00Z")))

	_, err := tracker.RecordUsage(ctx, 1234)
	require.NoError(t, err)
	usage, err := tracker.RecordUsage(ctx, 766)
	require.NoError(t, err)

	assert.Equal(t, 2000, usage.Count)
	raw, ok, err := store.Get(ctx, StorageKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"count":2000,"date":"2026-10-18"}`, raw)
}

func TestTracker_RecordUsageStartsFreshOnNewDay(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemory(0)
	now := fixedClock("2026-10-18T23:00:00Z")
	tracker := NewTracker(store, WithClock(func() time.Time { return now() }))

	_, err := tracker.RecordUsage(ctx, 900)
	require.NoError(t, err)

	now = fixedClock("2026-10-19T00:30:00Z")
	usage, err := tracker.RecordUsage(ctx, 100)
	require.NoError(t, err)

	assert.Equal(t, 100, usage.Count)
	assert.Equal(t, "2026-10-19", usage.Date)
}

func TestTracker_NeverBlocksOrDecrements(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(kvstore.NewMemory(0), WithLimit(1000), WithClock(fixedClock("2026-10-18T12:00:00Z")))

	usage, err := tracker.RecordUsage(ctx, 1500)
	require.NoError(t, err)
	assert.Equal(t, 1500, usage.Count)
	assert.Equal(t, 100.0, usage.Percent, "display saturates at 100%")

	usage, err = tracker.RecordUsage(ctx, -200)
	require.NoError(t, err)
	assert.Equal(t, 1500, usage.Count)
}
