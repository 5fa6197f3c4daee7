package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDayKeyUsesUTC(t *testing.T) {
	// 23:30 in UTC-5 is already the next day in UTC
	loc := time.FixedZone("UTC-5", -5*3600)
	local := time.Date(2026, 3, 10, 23, 30, 0, 0, loc)

	assert.Equal(t, "2026-03-11", DayKey(local))
	assert.Equal(t, "2026-03-10", DayKey(local.Add(-4*time.Hour)))
}

func TestDayKeyBoundary(t *testing.T) {
	beforeMidnight := time.Date(2026, 1, 31, 23, 59, 59, 0, time.UTC)
	afterMidnight := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "2026-01-31", DayKey(beforeMidnight))
	assert.Equal(t, "2026-02-01", DayKey(afterMidnight))
	assert.NotEqual(t, DayKey(beforeMidnight), DayKey(afterMidnight))
}
