package services_test

import (
	"testing"
	"time"

	"estatecrm/internal/services"

	"github.com/stretchr/testify/assert"
)

func TestRenderPreStartUsesRecipientLocalTime(t *testing.T) {
	// 14:00 UTC is 4:00 PM in Madrid during daylight saving time
	startsAt := time.Date(2026, 4, 15, 14, 0, 0, 0, time.UTC)

	subject, html, text := services.RenderPreStart(
		"Jordan", "Flat viewing on Calle Mayor", "Viewing", startsAt, "Europe/Madrid", "Alicia Fontana")

	assert.Equal(t, `Reminder: Flat viewing on Calle Mayor at 4:00 PM`, subject)
	assert.Contains(t, text, "Jordan")
	assert.Contains(t, text, "viewing")
	assert.Contains(t, text, "Alicia Fontana")
	assert.Contains(t, text, "4:00 PM")
	assert.Contains(t, html, "<strong>Flat viewing on Calle Mayor</strong>")
}

func TestRenderPostStartNudgesToCloseOut(t *testing.T) {
	startedAt := time.Date(2026, 4, 15, 14, 0, 0, 0, time.UTC)

	subject, _, text := services.RenderPostStart(
		"Jordan", "Call with buyer", "Call", startedAt, "UTC", "Alicia Fontana")

	assert.Equal(t, "Still open: Call with buyer (started at 2:00 PM)", subject)
	assert.Contains(t, text, "still marked open")
	assert.Contains(t, text, "mark it completed")
}

func TestRenderDigestWithItems(t *testing.T) {
	items := []services.DigestItem{
		{When: time.Date(2026, 4, 15, 13, 0, 0, 0, time.UTC), TypeLabel: "Viewing", Title: "Flat viewing", LeadName: "Alicia Fontana"},
		{When: time.Date(2026, 4, 15, 19, 0, 0, 0, time.UTC), TypeLabel: "Call", Title: "Offer follow-up", LeadName: "Marco Bellini"},
	}

	subject, html, text := services.RenderDigest("Jordan", "2026-04-15", items, "America/New_York")

	assert.Equal(t, "Your agenda for 2026-04-15", subject)
	assert.Contains(t, text, "9:00 AM")
	assert.Contains(t, text, "3:00 PM")
	assert.Contains(t, text, "Flat viewing")
	assert.Contains(t, text, "Marco Bellini")
	assert.Contains(t, html, "<li>")
}

func TestRenderDigestEmptyDayIsStillAMessage(t *testing.T) {
	subject, html, text := services.RenderDigest("Jordan", "2026-04-15", nil, "UTC")

	assert.Equal(t, "Your agenda for 2026-04-15", subject)
	assert.Contains(t, text, "no activities scheduled")
	assert.Contains(t, html, "no activities scheduled")
}
