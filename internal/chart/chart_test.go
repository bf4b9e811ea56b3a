package chart

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeekBucketSundayBelongsToPrecedingWeek(t *testing.T) {
	// 2025-06-01 is a Sunday; its Monday is 2025-05-26.
	start, end, _, _ := WeekBucket(day(2025, time.June, 1))
	assert.Equal(t, day(2025, time.May, 26), start)
	assert.Equal(t, day(2025, time.May, 31), end)

	// The following Monday starts a new bucket.
	nextStart, _, _, _ := WeekBucket(day(2025, time.June, 2))
	assert.Equal(t, day(2025, time.June, 2), nextStart)
	assert.True(t, nextStart.After(start))
}

func TestWeekBucketMidweek(t *testing.T) {
	// 2025-06-05 is a Thursday.
	start, end, _, _ := WeekBucket(day(2025, time.June, 5))
	assert.Equal(t, day(2025, time.June, 2), start)
	assert.Equal(t, day(2025, time.June, 7), end)
}

func TestWeekBucketYearAnchorsToMonday(t *testing.T) {
	// 2025-01-01 is a Wednesday; its Monday is 2024-12-30 — the bucket
	// belongs to 2024, not week 1 of 2025.
	start, _, number, year := WeekBucket(day(2025, time.January, 1))
	assert.Equal(t, day(2024, time.December, 30), start)
	assert.Equal(t, 2024, year)
	assert.Equal(t, ((start.YearDay()-1)/7)+1, number)

	// A Monday on Jan 1 owns week 1 of its own year (2024-01-01 is a Monday).
	_, _, number, year = WeekBucket(day(2024, time.January, 3))
	assert.Equal(t, 2024, year)
	assert.Equal(t, 1, number)
}

func TestRecordCompleteResultAndWeekGrouping(t *testing.T) {
	ctx := context.Background()
	agg := NewAggregator(zap.NewNop(), NewMemory())

	// Monday and Tuesday of one week, Thursday of the next.
	_, err := agg.RecordCompleteResult(ctx, "Kalyan", day(2025, time.June, 2), "123", "58", "456")
	require.NoError(t, err)
	_, err = agg.RecordCompleteResult(ctx, "Kalyan", day(2025, time.June, 3), "250", "71", "380")
	require.NoError(t, err)
	_, err = agg.RecordCompleteResult(ctx, "Kalyan", day(2025, time.June, 12), "100", "19", "900")
	require.NoError(t, err)
	// another game must not bleed into Kalyan's chart
	_, err = agg.RecordCompleteResult(ctx, "Milan", day(2025, time.June, 2), "777", "11", "888")
	require.NoError(t, err)

	weeks, err := agg.WeeksForGame(ctx, "Kalyan")
	require.NoError(t, err)
	require.Len(t, weeks, 2)

	first := weeks[0]
	assert.Equal(t, day(2025, time.June, 2), first.Start, "weeks ordered oldest first")
	require.NotNil(t, first.Days[0], "Monday slot")
	assert.Equal(t, "123", first.Days[0].OpenPanna)
	assert.Equal(t, "58", first.Days[0].Jodi)
	require.NotNil(t, first.Days[1], "Tuesday slot")
	assert.Equal(t, "250", first.Days[1].OpenPanna)
	for i := 2; i < 6; i++ {
		assert.Nil(t, first.Days[i], "days without results stay blank")
	}

	second := weeks[1]
	require.NotNil(t, second.Days[3], "Thursday slot")
	assert.Equal(t, "900", second.Days[3].ClosePanna)
}

func TestUpsertIsolation(t *testing.T) {
	ctx := context.Background()
	agg := NewAggregator(zap.NewNop(), NewMemory())

	_, err := agg.RecordCompleteResult(ctx, "Kalyan", day(2025, time.June, 2), "123", "58", "456")
	require.NoError(t, err)
	_, err = agg.RecordCompleteResult(ctx, "Kalyan", day(2025, time.June, 3), "250", "71", "380")
	require.NoError(t, err)

	// re-entering Tuesday overwrites Tuesday only
	_, err = agg.RecordCompleteResult(ctx, "Kalyan", day(2025, time.June, 3), "999", "00", "111")
	require.NoError(t, err)

	weeks, err := agg.WeeksForGame(ctx, "Kalyan")
	require.NoError(t, err)
	require.Len(t, weeks, 1)
	w := weeks[0]
	assert.Equal(t, "123", w.Days[0].OpenPanna, "Monday untouched")
	assert.Equal(t, "999", w.Days[1].OpenPanna)
	assert.Equal(t, "00", w.Days[1].Jodi)
	assert.Equal(t, "111", w.Days[1].ClosePanna)
}

func TestSundayRowBucketsWithoutSlot(t *testing.T) {
	ctx := context.Background()
	agg := NewAggregator(zap.NewNop(), NewMemory())

	_, err := agg.RecordCompleteResult(ctx, "Kalyan", day(2025, time.June, 1), "123", "58", "456")
	require.NoError(t, err)

	weeks, err := agg.WeeksForGame(ctx, "Kalyan")
	require.NoError(t, err)
	require.Len(t, weeks, 1)
	assert.Equal(t, day(2025, time.May, 26), weeks[0].Start)
	for i := 0; i < 6; i++ {
		assert.Nil(t, weeks[0].Days[i])
	}
}
