package services

import (
	"estatecrm/internal/metrics"
	"estatecrm/internal/models"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

const (
	// Time-window reminders look 55-65 minutes out (or back). The
	// sweeps run every 5 minutes, so a 10-minute window guarantees
	// every eligible activity is seen at least twice even with trigger
	// jitter; the claim store keeps the repeats from double-sending.
	windowNear = 55 * time.Minute
	windowFar  = 65 * time.Minute

	// Digests go out during the recipient's local 8 o'clock hour
	digestLocalHour = 8

	windowSweepSchedule = "*/5 * * * *"
	digestSweepSchedule = "*/15 * * * *"
)

// ReminderWorker runs the periodic reminder sweeps. Each sweep is
// fire-and-forget: candidates are processed independently, and a crashed
// run just leaves some claims pending for the audit trail — the next run
// starts fresh.
type ReminderWorker struct {
	directory ActivityDirectory
	claims    ClaimStore
	mailer    Mailer
	now       func() time.Time
}

// NewReminderWorker builds a worker on the CRM database and the given mailer
func NewReminderWorker(db *gorm.DB, mailer Mailer) *ReminderWorker {
	return &ReminderWorker{
		directory: NewGormActivityDirectory(db),
		claims:    NewGormClaimStore(db),
		mailer:    mailer,
		now:       time.Now,
	}
}

// NewReminderWorkerWith wires explicit collaborators; used by tests and
// anywhere the gorm-backed defaults don't apply.
func NewReminderWorkerWith(directory ActivityDirectory, claims ClaimStore, mailer Mailer, now func() time.Time) *ReminderWorker {
	if now == nil {
		now = time.Now
	}
	return &ReminderWorker{directory: directory, claims: claims, mailer: mailer, now: now}
}

// Start registers the sweeps with a cron scheduler and starts it.
// The scheduler is a thin adapter: all timing decisions live in the
// Run* methods and the timezone helpers so they stay testable.
func (w *ReminderWorker) Start() (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(windowSweepSchedule, w.RunPreStart); err != nil {
		return nil, err
	}
	if _, err := c.AddFunc(windowSweepSchedule, w.RunPostStart); err != nil {
		return nil, err
	}
	if _, err := c.AddFunc(digestSweepSchedule, w.RunDailyDigest); err != nil {
		return nil, err
	}
	c.Start()
	log.Printf("Reminder worker started (window sweeps %q, digest sweep %q)", windowSweepSchedule, digestSweepSchedule)
	return c, nil
}

// runCounts accumulates per-run outcome totals for the summary line
type runCounts struct {
	sent       int
	skipped    int
	failed     int
	duplicates int
}

func (w *ReminderWorker) finishRun(rt models.ReminderType, started time.Time, counts runCounts) {
	metrics.ReminderOutcomes.WithLabelValues(string(rt), "sent").Add(float64(counts.sent))
	metrics.ReminderOutcomes.WithLabelValues(string(rt), "skipped").Add(float64(counts.skipped))
	metrics.ReminderOutcomes.WithLabelValues(string(rt), "failed").Add(float64(counts.failed))
	metrics.ReminderOutcomes.WithLabelValues(string(rt), "duplicate").Add(float64(counts.duplicates))
	metrics.ReminderRunDuration.WithLabelValues(string(rt)).Observe(time.Since(started).Seconds())

	log.Printf("%s run: sent=%d skipped=%d failed=%d (duplicates=%d)",
		rt, counts.sent, counts.skipped, counts.failed, counts.duplicates)
}

// RunPreStart sweeps for open activities starting in roughly an hour
func (w *ReminderWorker) RunPreStart() {
	started := time.Now()
	now := w.now()

	activities, err := w.directory.OpenActivitiesInWindow(now.Add(windowNear), now.Add(windowFar))
	if err != nil {
		log.Printf("Error: pre_start_1h candidate query failed: %v", err)
		return
	}

	var counts runCounts
	for _, activity := range activities {
		w.processWindowCandidate(activity, models.ReminderPreStart1h, &counts)
	}
	w.finishRun(models.ReminderPreStart1h, started, counts)
}

// RunPostStart sweeps for activities that started roughly an hour ago
// and are still open
func (w *ReminderWorker) RunPostStart() {
	started := time.Now()
	now := w.now()

	activities, err := w.directory.OpenActivitiesInWindow(now.Add(-windowFar), now.Add(-windowNear))
	if err != nil {
		log.Printf("Error: post_start_1h_open candidate query failed: %v", err)
		return
	}

	var counts runCounts
	for _, activity := range activities {
		w.processWindowCandidate(activity, models.ReminderPostStart1hOpen, &counts)
	}
	w.finishRun(models.ReminderPostStart1hOpen, started, counts)
}

// processWindowCandidate runs the claim -> enrich -> render -> dispatch ->
// finalize pipeline for one activity. Every failure is contained to this
// candidate; the sweep always moves on to the next one.
func (w *ReminderWorker) processWindowCandidate(activity models.Activity, rt models.ReminderType, counts *runCounts) {
	// Unscheduled to-dos can slip in if a caller hands us a raw list;
	// they are never reminder-eligible.
	if activity.ScheduledAt == nil {
		return
	}

	claim := &models.ReminderClaim{
		ActivityID:   &activity.ID,
		AgentID:      activity.AssigneeID,
		ReminderType: rt,
		ScheduledFor: *activity.ScheduledAt,
		DedupeKey:    models.ActivityDedupeKey(rt, activity.ID),
		AgencyID:     activity.AgencyID,
	}

	claimed, existing, err := w.claims.Claim(claim)
	if err != nil {
		log.Printf("Error: claim %s failed: %v", claim.DedupeKey, err)
		counts.failed++
		return
	}
	if !claimed {
		// Someone else owns this occurrence (an earlier sweep or a
		// concurrent run); their row, their finalize.
		if existing != nil {
			log.Printf("Duplicate claim %s (existing status %s), skipping", claim.DedupeKey, existing.Status)
		}
		counts.duplicates++
		return
	}

	if rt == models.ReminderPostStart1hOpen {
		// The activity may have been completed or cancelled between
		// selection and claim. Re-check live state before nagging.
		// Pre-start has no such race: nothing closes an activity
		// before its own start.
		live, err := w.directory.ActivityByID(activity.ID)
		if err != nil {
			w.finalize(claim.ID, models.ClaimFailed, FinalizeDetails{ErrorMessage: err.Error()})
			counts.failed++
			return
		}
		if live == nil || live.Status != models.ActivityOpen {
			w.finalize(claim.ID, models.ClaimSkipped, FinalizeDetails{SkipReason: "already closed"})
			counts.skipped++
			return
		}
		activity = *live
	}

	agent, err := w.directory.AgentByID(activity.AssigneeID)
	if err != nil {
		w.finalize(claim.ID, models.ClaimFailed, FinalizeDetails{ErrorMessage: err.Error()})
		counts.failed++
		return
	}
	if agent == nil {
		w.finalize(claim.ID, models.ClaimSkipped, FinalizeDetails{SkipReason: "assignee not found"})
		counts.skipped++
		return
	}
	if agent.Email == "" {
		w.finalize(claim.ID, models.ClaimSkipped, FinalizeDetails{SkipReason: "assignee has no email address"})
		counts.skipped++
		return
	}

	// Lead context is display-only; a failed lookup degrades to a
	// placeholder instead of blocking the reminder.
	leadName := "Unknown lead"
	if activity.LeadID != "" {
		if lead, err := w.directory.LeadByID(activity.LeadID); err == nil && lead != nil {
			leadName = lead.Name
		} else if err != nil {
			log.Printf("Warning: lead lookup for activity %s failed: %v", activity.ID, err)
		}
	}

	zone := SafeTimezone(agent.Timezone)

	var subject, html, text string
	if rt == models.ReminderPreStart1h {
		subject, html, text = RenderPreStart(agent.RecipientName(), activity.Title, activity.TypeLabel(), *activity.ScheduledAt, zone, leadName)
	} else {
		subject, html, text = RenderPostStart(agent.RecipientName(), activity.Title, activity.TypeLabel(), *activity.ScheduledAt, zone, leadName)
	}

	messageID, err := w.mailer.Send(agent.Email, agent.RecipientName(), subject, html, text)
	if err != nil {
		w.finalize(claim.ID, models.ClaimFailed, FinalizeDetails{ErrorMessage: err.Error()})
		counts.failed++
		return
	}

	sentAt := w.now()
	w.finalize(claim.ID, models.ClaimSent, FinalizeDetails{SentAt: &sentAt, MessageID: messageID})
	counts.sent++
}

// RunDailyDigest sweeps all active agents and sends each at most one
// agenda email per local calendar day, during their local 8am hour.
// The sweep may run far more often than hourly; the hour gate plus the
// date-scoped dedupe key make the extra runs harmless.
func (w *ReminderWorker) RunDailyDigest() {
	started := time.Now()
	now := w.now()

	agents, err := w.directory.ActiveAgents()
	if err != nil {
		log.Printf("Error: daily_digest agent query failed: %v", err)
		return
	}

	var counts runCounts
	for _, agent := range agents {
		w.processDigestCandidate(agent, now, &counts)
	}
	w.finishRun(models.ReminderDailyDigest, started, counts)
}

func (w *ReminderWorker) processDigestCandidate(agent models.Agent, now time.Time, counts *runCounts) {
	zone := SafeTimezone(agent.Timezone)

	// Outside the agent's local 8am hour nothing happens, not even a
	// claim; the same sweep instant is "too early" for one timezone
	// and "too late" for another.
	if LocalHour(now, zone) != digestLocalHour {
		return
	}

	localDate := LocalDate(now, zone)

	claim := &models.ReminderClaim{
		AgentID:      agent.ID,
		ReminderType: models.ReminderDailyDigest,
		ScheduledFor: now,
		DedupeKey:    models.DigestDedupeKey(agent.ID, localDate),
		AgencyID:     agent.AgencyID,
	}

	claimed, _, err := w.claims.Claim(claim)
	if err != nil {
		log.Printf("Error: claim %s failed: %v", claim.DedupeKey, err)
		counts.failed++
		return
	}
	if !claimed {
		counts.duplicates++
		return
	}

	if agent.Email == "" {
		w.finalize(claim.ID, models.ClaimSkipped, FinalizeDetails{SkipReason: "agent has no email address"})
		counts.skipped++
		return
	}

	dayStart, dayEnd, err := DayBoundary(localDate, zone)
	if err != nil {
		w.finalize(claim.ID, models.ClaimFailed, FinalizeDetails{ErrorMessage: err.Error()})
		counts.failed++
		return
	}

	activities, err := w.directory.OpenActivitiesForAgentBetween(agent.ID, dayStart, dayEnd)
	if err != nil {
		w.finalize(claim.ID, models.ClaimFailed, FinalizeDetails{ErrorMessage: err.Error()})
		counts.failed++
		return
	}

	items := make([]DigestItem, 0, len(activities))
	for _, activity := range activities {
		if activity.ScheduledAt == nil {
			continue
		}
		leadName := "Unknown lead"
		if activity.Lead != nil {
			leadName = activity.Lead.Name
		}
		items = append(items, DigestItem{
			When:      *activity.ScheduledAt,
			TypeLabel: activity.TypeLabel(),
			Title:     activity.Title,
			LeadName:  leadName,
		})
	}

	subject, html, text := RenderDigest(agent.RecipientName(), localDate, items, zone)

	messageID, err := w.mailer.Send(agent.Email, agent.RecipientName(), subject, html, text)
	if err != nil {
		w.finalize(claim.ID, models.ClaimFailed, FinalizeDetails{ErrorMessage: err.Error()})
		counts.failed++
		return
	}

	sentAt := w.now()
	w.finalize(claim.ID, models.ClaimSent, FinalizeDetails{SentAt: &sentAt, MessageID: messageID})
	counts.sent++
}

// finalize wraps ClaimStore.Finalize with logging; a failed finalize
// leaves the row pending, which the audit trail surfaces.
func (w *ReminderWorker) finalize(id string, status models.ClaimStatus, details FinalizeDetails) {
	if err := w.claims.Finalize(id, status, details); err != nil {
		log.Printf("Error: failed to finalize claim %s as %s: %v", id, status, err)
	}
}
