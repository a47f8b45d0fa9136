package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMillisRoundTrip tests millis/time conversion both ways
func TestMillisRoundTrip(t *testing.T) {
	now := time.Now().Truncate(time.Millisecond)
	millis := TimeToMillis(now)

	assert.True(t, MillisToTime(millis).Equal(now))
}

// TestIsExpired tests expiry evaluation including the no-expiry sentinel
func TestIsExpired(t *testing.T) {
	assert.False(t, IsExpired(0), "zero means no expiry")
	assert.False(t, IsExpired(GetCurrentTimeMillis()+60_000))
	assert.True(t, IsExpired(GetCurrentTimeMillis()-1))
}

// TestDaysFromNow tests future expiry computation
func TestDaysFromNow(t *testing.T) {
	now := GetCurrentTimeMillis()
	expiry := DaysFromNow(30)

	thirtyDays := int64(30 * 24 * 60 * 60 * 1000)
	assert.InDelta(t, now+thirtyDays, expiry, 1000)
	assert.False(t, IsExpired(expiry))
}

// TestFormatParseRoundTrip tests RFC3339 formatting
func TestFormatParseRoundTrip(t *testing.T) {
	now := time.Now().Truncate(time.Second)

	parsed, err := ParseTime(FormatTime(now))
	require.NoError(t, err)
	assert.True(t, parsed.Equal(now))

	_, err = ParseTime("not-a-time")
	assert.Error(t, err)
}
