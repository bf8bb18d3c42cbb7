package services

import (
	"fmt"
	"strings"
	"time"
)

// DigestItem is one line of a daily digest: an open activity on the
// recipient's local day.
type DigestItem struct {
	When      time.Time
	TypeLabel string
	Title     string
	LeadName  string
}

const timeOfDayFormat = "3:04 PM"

// formatInZone renders an instant as local wall-clock time for the recipient
func formatInZone(t time.Time, zone string) string {
	loc, err := time.LoadLocation(SafeTimezone(zone))
	if err != nil {
		loc = time.UTC
	}
	return t.In(loc).Format(timeOfDayFormat)
}

// RenderPreStart builds the "starts in 1 hour" reminder email
func RenderPreStart(recipientName, title, typeLabel string, startsAt time.Time, zone, leadName string) (subject, html, text string) {
	localTime := formatInZone(startsAt, zone)

	subject = fmt.Sprintf("Reminder: %s at %s", title, localTime)

	text = fmt.Sprintf("Hello %s, your %s \"%s\" with %s starts in about an hour, at %s. Don't be late!",
		recipientName, strings.ToLower(typeLabel), title, leadName, localTime)

	html = fmt.Sprintf("<p>Hello %s,</p><p>Your %s <strong>%s</strong> with %s starts in about an hour, at %s.</p><p>Don't be late!</p>",
		recipientName, strings.ToLower(typeLabel), title, leadName, localTime)

	return subject, html, text
}

// RenderPostStart builds the "started an hour ago and is still open" nudge
func RenderPostStart(recipientName, title, typeLabel string, startedAt time.Time, zone, leadName string) (subject, html, text string) {
	localTime := formatInZone(startedAt, zone)

	subject = fmt.Sprintf("Still open: %s (started at %s)", title, localTime)

	text = fmt.Sprintf("Hello %s, your %s \"%s\" with %s started at %s and is still marked open. If it happened, mark it completed; otherwise reschedule it.",
		recipientName, strings.ToLower(typeLabel), title, leadName, localTime)

	html = fmt.Sprintf("<p>Hello %s,</p><p>Your %s <strong>%s</strong> with %s started at %s and is still marked open.</p><p>If it happened, mark it completed; otherwise reschedule it.</p>",
		recipientName, strings.ToLower(typeLabel), title, leadName, localTime)

	return subject, html, text
}

// RenderDigest builds the daily agenda email. An empty item list still
// produces a real message saying nothing is scheduled.
func RenderDigest(recipientName, localDate string, items []DigestItem, zone string) (subject, html, text string) {
	subject = fmt.Sprintf("Your agenda for %s", localDate)

	if len(items) == 0 {
		text = fmt.Sprintf("Hello %s, you have no activities scheduled for today (%s). Enjoy the quiet day!",
			recipientName, localDate)
		html = fmt.Sprintf("<p>Hello %s,</p><p>You have no activities scheduled for today (%s).</p><p>Enjoy the quiet day!</p>",
			recipientName, localDate)
		return subject, html, text
	}

	var textLines strings.Builder
	var htmlRows strings.Builder
	for _, item := range items {
		localTime := formatInZone(item.When, zone)
		textLines.WriteString(fmt.Sprintf("- %s  %s: %s (%s)\n", localTime, item.TypeLabel, item.Title, item.LeadName))
		htmlRows.WriteString(fmt.Sprintf("<li><strong>%s</strong> %s: %s (%s)</li>", localTime, item.TypeLabel, item.Title, item.LeadName))
	}

	text = fmt.Sprintf("Hello %s, here is your agenda for %s:\n%sHave a productive day!",
		recipientName, localDate, textLines.String())

	html = fmt.Sprintf("<p>Hello %s,</p><p>Here is your agenda for %s:</p><ul>%s</ul><p>Have a productive day!</p>",
		recipientName, localDate, htmlRows.String())

	return subject, html, text
}
