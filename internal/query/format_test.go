package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatEventTime(t *testing.T) {
	loc := pacific(t)
	at := func(h, m int) time.Time {
		return time.Date(2026, 3, 10, h, m, 0, 0, loc)
	}

	t.Run("on the hour drops minutes", func(t *testing.T) {
		assert.Equal(t, "6 PM", FormatEventTime(at(18, 0), nil, loc, false))
	})

	t.Run("range on the hour", func(t *testing.T) {
		end := at(21, 0)
		assert.Equal(t, "6 PM - 9 PM", FormatEventTime(at(18, 0), &end, loc, false))
	})

	t.Run("range with minutes", func(t *testing.T) {
		end := at(21, 45)
		assert.Equal(t, "6:30 PM - 9:45 PM", FormatEventTime(at(18, 30), &end, loc, false))
	})

	t.Run("morning", func(t *testing.T) {
		assert.Equal(t, "9:15 AM", FormatEventTime(at(9, 15), nil, loc, false))
	})

	t.Run("show date prefixes long form", func(t *testing.T) {
		assert.Equal(t, "Tuesday, March 10, 6 PM", FormatEventTime(at(18, 0), nil, loc, true))
	})

	t.Run("utc input renders in location", func(t *testing.T) {
		// 2026-03-11 01:00 UTC is 6 PM the previous evening in Pacific.
		start := time.Date(2026, 3, 11, 1, 0, 0, 0, time.UTC)
		assert.Equal(t, "6 PM", FormatEventTime(start, nil, loc, false))
	})
}
