package quota

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDailyResetDue(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.True(t, Usage{}.DailyResetDue(now))
	assert.False(t, Usage{DailyResetAt: now.Add(-23 * time.Hour)}.DailyResetDue(now))
	assert.True(t, Usage{DailyResetAt: now.Add(-24 * time.Hour)}.DailyResetDue(now))
}

func TestMonthlyResetDue(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.True(t, Usage{}.MonthlyResetDue(now))
	assert.True(t, Usage{MonthlyLastReset: time.Date(2025, 2, 28, 23, 0, 0, 0, time.UTC)}.MonthlyResetDue(now))
	assert.False(t, Usage{MonthlyLastReset: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}.MonthlyResetDue(now))
}

func TestFirstOfMonth(t *testing.T) {
	now := time.Date(2025, 12, 31, 23, 59, 0, 0, time.FixedZone("X", 8*3600))
	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), FirstOfMonth(now))
}
