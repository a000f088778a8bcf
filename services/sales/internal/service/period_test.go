package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpanFor(t *testing.T) {
	now := time.Date(2026, 3, 15, 17, 45, 0, 0, time.UTC)
	day := func(d int) time.Time { return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		name     string
		r        Range
		date     string
		from, to time.Time
		open     bool
	}{
		{name: "today", r: RangeToday, from: day(15), to: day(16)},
		{name: "last 7 days includes today", r: RangeLast7Days, from: day(8), to: day(16)},
		{name: "last 30 days", r: RangeLast30Days, from: time.Date(2026, 2, 13, 0, 0, 0, 0, time.UTC), to: day(16)},
		{name: "all time", r: RangeAllTime, open: true},
		{name: "empty is all time", open: true},
		{name: "date wins over range", r: RangeToday, date: "2026-03-02", from: day(2), to: day(3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			span, err := SpanFor(tt.r, tt.date, now, time.UTC)
			require.NoError(t, err)
			if tt.open {
				assert.Nil(t, span.From)
				assert.Nil(t, span.To)
				return
			}
			require.NotNil(t, span.From)
			require.NotNil(t, span.To)
			assert.True(t, tt.from.Equal(*span.From), "from %s", span.From)
			assert.True(t, tt.to.Equal(*span.To), "to %s", span.To)
		})
	}
}

func TestSpanFor_Invalid(t *testing.T) {
	now := time.Now()
	_, err := SpanFor("yesterday", "", now, nil)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = SpanFor("", "15/03/2026", now, nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSpanFor_Location(t *testing.T) {
	loc := time.FixedZone("SAST", 2*60*60)
	// 23:30 UTC on the 14th is already the 15th in loc.
	now := time.Date(2026, 3, 14, 23, 30, 0, 0, time.UTC)

	span, err := SpanFor(RangeToday, "", now, loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 14, 22, 0, 0, 0, time.UTC), *span.From)
	assert.Equal(t, time.UTC, span.From.Location())
}
