package services_test

import (
	"testing"
	"time"

	"estatecrm/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeTimezone(t *testing.T) {
	assert.Equal(t, "UTC", services.SafeTimezone(""))
	assert.Equal(t, "UTC", services.SafeTimezone("Not/AZone"))
	assert.Equal(t, "UTC", services.SafeTimezone("garbage"))
	assert.Equal(t, "Europe/Madrid", services.SafeTimezone("Europe/Madrid"))
	assert.Equal(t, "America/New_York", services.SafeTimezone("America/New_York"))
}

func TestBlankTimezoneBehavesExactlyLikeUTC(t *testing.T) {
	instant := time.Date(2026, 4, 15, 8, 30, 0, 0, time.UTC)

	assert.Equal(t, services.LocalDate(instant, "UTC"), services.LocalDate(instant, ""))
	assert.Equal(t, services.LocalHour(instant, "UTC"), services.LocalHour(instant, ""))
	assert.Equal(t, services.LocalDate(instant, "UTC"), services.LocalDate(instant, "Mars/Olympus"))
}

func TestLocalDateCrossesMidnight(t *testing.T) {
	// 23:30 UTC on the 15th is already the 16th in Madrid (UTC+2 in April)
	instant := time.Date(2026, 4, 15, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "2026-04-15", services.LocalDate(instant, "UTC"))
	assert.Equal(t, "2026-04-16", services.LocalDate(instant, "Europe/Madrid"))
}

func TestLocalHour(t *testing.T) {
	// 12:15 UTC is 8:15 in New York during daylight saving time
	instant := time.Date(2026, 4, 15, 12, 15, 0, 0, time.UTC)
	assert.Equal(t, 12, services.LocalHour(instant, "UTC"))
	assert.Equal(t, 8, services.LocalHour(instant, "America/New_York"))

	midnight := time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, services.LocalHour(midnight, "UTC"))
}

func TestDayBoundaryUTC(t *testing.T) {
	start, end, err := services.DayBoundary("2026-04-15", "UTC")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 4, 15, 23, 59, 59, 999000000, time.UTC), end)
}

func TestDayBoundaryHonorsOffsetInEffectOnThatDate(t *testing.T) {
	// US daylight saving starts on 2026-03-08; the day before, New York
	// is UTC-5, the day after it is UTC-4.
	start, _, err := services.DayBoundary("2026-03-07", "America/New_York")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 7, 5, 0, 0, 0, time.UTC), start)

	start, _, err = services.DayBoundary("2026-03-09", "America/New_York")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 9, 4, 0, 0, 0, time.UTC), start)

	// Midsummer sanity check
	start, end, err := services.DayBoundary("2026-07-04", "America/New_York")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 7, 4, 4, 0, 0, 0, time.UTC), start)
	assert.Equal(t, start.Add(24*time.Hour-time.Millisecond), end)
}

func TestDayBoundaryRejectsMalformedDate(t *testing.T) {
	_, _, err := services.DayBoundary("15/04/2026", "UTC")
	require.Error(t, err)

	_, _, err = services.DayBoundary("not-a-date", "Europe/Madrid")
	require.Error(t, err)
}
