package services_test

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"estatecrm/internal/models"
	"estatecrm/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// fakeDirectory is an in-memory ActivityDirectory. windowOverride, when
// set, is returned from OpenActivitiesInWindow verbatim so tests can
// feed the worker a stale candidate snapshot.
type fakeDirectory struct {
	mu             sync.Mutex
	activities     map[string]models.Activity
	agents         map[string]models.Agent
	leads          map[string]models.Lead
	leadErr        error
	windowOverride []models.Activity
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		activities: map[string]models.Activity{},
		agents:     map[string]models.Agent{},
		leads:      map[string]models.Lead{},
	}
}

func (d *fakeDirectory) OpenActivitiesInWindow(start, end time.Time) ([]models.Activity, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.windowOverride != nil {
		return d.windowOverride, nil
	}
	var out []models.Activity
	for _, a := range d.activities {
		if a.Status != models.ActivityOpen || a.ScheduledAt == nil {
			continue
		}
		if a.ScheduledAt.Before(start) || a.ScheduledAt.After(end) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (d *fakeDirectory) OpenActivitiesForAgentBetween(agentID string, start, end time.Time) ([]models.Activity, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []models.Activity
	for _, a := range d.activities {
		if a.AssigneeID != agentID || a.Status != models.ActivityOpen || a.ScheduledAt == nil {
			continue
		}
		if a.ScheduledAt.Before(start) || a.ScheduledAt.After(end) {
			continue
		}
		if d.leadErr == nil {
			if lead, ok := d.leads[a.LeadID]; ok {
				leadCopy := lead
				a.Lead = &leadCopy
			}
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(*out[j].ScheduledAt) })
	return out, nil
}

func (d *fakeDirectory) ActiveAgents() ([]models.Agent, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []models.Agent
	for _, a := range d.agents {
		if a.Active {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (d *fakeDirectory) AgentByID(id string) (*models.Agent, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if a, ok := d.agents[id]; ok {
		return &a, nil
	}
	return nil, nil
}

func (d *fakeDirectory) ActivityByID(id string) (*models.Activity, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if a, ok := d.activities[id]; ok {
		return &a, nil
	}
	return nil, nil
}

func (d *fakeDirectory) LeadByID(id string) (*models.Lead, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.leadErr != nil {
		return nil, d.leadErr
	}
	if l, ok := d.leads[id]; ok {
		return &l, nil
	}
	return nil, nil
}

// fakeClaimStore enforces the same contract as the Postgres-backed
// store: at most one row per dedupe key, terminal statuses sticky.
type fakeClaimStore struct {
	mu    sync.Mutex
	byKey map[string]*models.ReminderClaim
	byID  map[string]*models.ReminderClaim
}

func newFakeClaimStore() *fakeClaimStore {
	return &fakeClaimStore{
		byKey: map[string]*models.ReminderClaim{},
		byID:  map[string]*models.ReminderClaim{},
	}
}

func (s *fakeClaimStore) Claim(claim *models.ReminderClaim) (bool, *models.ReminderClaim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.byKey[claim.DedupeKey]; ok {
		existingCopy := *existing
		return false, &existingCopy, nil
	}
	claim.ID = uuid.NewString()
	claim.Status = models.ClaimPending
	stored := *claim
	s.byKey[claim.DedupeKey] = &stored
	s.byID[claim.ID] = &stored
	return true, nil, nil
}

func (s *fakeClaimStore) Finalize(id string, status models.ClaimStatus, details services.FinalizeDetails) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("claim %s not found", id)
	}
	if row.Status != models.ClaimPending {
		return fmt.Errorf("claim %s is not pending, refusing to finalize", id)
	}
	row.Status = status
	row.SentAt = details.SentAt
	row.MessageID = details.MessageID
	row.SkipReason = details.SkipReason
	row.ErrorMessage = details.ErrorMessage
	return nil
}

func (s *fakeClaimStore) byDedupeKey(key string) *models.ReminderClaim {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row, ok := s.byKey[key]; ok {
		rowCopy := *row
		return &rowCopy
	}
	return nil
}

func (s *fakeClaimStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byKey)
}

type sentEmail struct {
	to      string
	subject string
	html    string
	text    string
}

type fakeMailer struct {
	mu      sync.Mutex
	sent    []sentEmail
	failFor map[string]error
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{failFor: map[string]error{}}
}

func (m *fakeMailer) Send(toEmail, toName, subject, htmlBody, textBody string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failFor[toEmail]; ok {
		return "", err
	}
	m.sent = append(m.sent, sentEmail{to: toEmail, subject: subject, html: htmlBody, text: textBody})
	return fmt.Sprintf("msg-%d", len(m.sent)), nil
}

func (m *fakeMailer) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type fixture struct {
	dir    *fakeDirectory
	claims *fakeClaimStore
	mailer *fakeMailer
	now    time.Time
	worker *services.ReminderWorker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		dir:    newFakeDirectory(),
		claims: newFakeClaimStore(),
		mailer: newFakeMailer(),
		now:    time.Date(2026, 4, 15, 10, 0, 0, 0, time.UTC),
	}
	f.worker = services.NewReminderWorkerWith(f.dir, f.claims, f.mailer, func() time.Time { return f.now })
	return f
}

func (f *fixture) addAgent(email, timezone string) models.Agent {
	agent := models.Agent{
		ID:       uuid.NewString(),
		AgencyID: "agency-1",
		Email:    email,
		FullName: "Jordan Reyes",
		Timezone: timezone,
		Active:   true,
	}
	f.dir.agents[agent.ID] = agent
	return agent
}

func (f *fixture) addActivity(assigneeID string, scheduledAt time.Time) models.Activity {
	lead := models.Lead{ID: uuid.NewString(), AgencyID: "agency-1", Name: "Alicia Fontana"}
	f.dir.leads[lead.ID] = lead
	activity := models.Activity{
		ID:          uuid.NewString(),
		AgencyID:    "agency-1",
		Title:       "Flat viewing on Calle Mayor",
		Type:        models.ActivityViewing,
		ScheduledAt: &scheduledAt,
		Status:      models.ActivityOpen,
		AssigneeID:  assigneeID,
		LeadID:      lead.ID,
	}
	f.dir.activities[activity.ID] = activity
	return activity
}

func TestPreStartExactlyOnceUnderOverlappingTicks(t *testing.T) {
	f := newFixture(t)
	agent := f.addAgent("jordan@agency.test", "Europe/Madrid")
	trigger := f.now.Add(90 * time.Minute)
	activity := f.addActivity(agent.ID, trigger)

	// Drive the sweep at every 5-minute tick across the whole eligibility
	// window [trigger-65m, trigger-55m]; the candidate shows up in three
	// of them.
	for tick := trigger.Add(-70 * time.Minute); !tick.After(trigger.Add(-50 * time.Minute)); tick = tick.Add(5 * time.Minute) {
		f.now = tick
		f.worker.RunPreStart()
	}

	require.Equal(t, 1, f.mailer.sentCount())
	require.Equal(t, 1, f.claims.count())

	claim := f.claims.byDedupeKey("pre_start_1h:" + activity.ID)
	require.NotNil(t, claim)
	require.Equal(t, models.ClaimSent, claim.Status)
	require.NotNil(t, claim.SentAt)
}

func TestImmediateRerunIsAllDuplicateSkips(t *testing.T) {
	f := newFixture(t)
	agent := f.addAgent("jordan@agency.test", "")
	f.addActivity(agent.ID, f.now.Add(60*time.Minute))

	f.worker.RunPreStart()
	f.worker.RunPreStart()

	require.Equal(t, 1, f.mailer.sentCount())
	require.Equal(t, 1, f.claims.count())
}

func TestPreStartWindowBoundaries(t *testing.T) {
	f := newFixture(t)
	agent := f.addAgent("jordan@agency.test", "")

	// Exactly 60 minutes out: inside [now+55m, now+65m]
	inside := f.addActivity(agent.ID, f.now.Add(60*time.Minute))
	// 70 minutes out: not yet eligible
	outside := f.addActivity(agent.ID, f.now.Add(70*time.Minute))

	f.worker.RunPreStart()

	require.NotNil(t, f.claims.byDedupeKey("pre_start_1h:"+inside.ID))
	require.Nil(t, f.claims.byDedupeKey("pre_start_1h:"+outside.ID))
	require.Equal(t, 1, f.mailer.sentCount())
}

func TestPreStartSkipsAgentWithoutEmail(t *testing.T) {
	f := newFixture(t)
	agent := f.addAgent("", "")
	activity := f.addActivity(agent.ID, f.now.Add(60*time.Minute))

	f.worker.RunPreStart()

	require.Equal(t, 0, f.mailer.sentCount())
	claim := f.claims.byDedupeKey("pre_start_1h:" + activity.ID)
	require.NotNil(t, claim)
	require.Equal(t, models.ClaimSkipped, claim.Status)
	require.Equal(t, "assignee has no email address", claim.SkipReason)
}

func TestPreStartSkipsMissingAssignee(t *testing.T) {
	f := newFixture(t)
	activity := f.addActivity("nonexistent-agent", f.now.Add(60*time.Minute))

	f.worker.RunPreStart()

	require.Equal(t, 0, f.mailer.sentCount())
	claim := f.claims.byDedupeKey("pre_start_1h:" + activity.ID)
	require.NotNil(t, claim)
	require.Equal(t, models.ClaimSkipped, claim.Status)
	require.Equal(t, "assignee not found", claim.SkipReason)
}

func TestPreStartLeadLookupFailureFallsBackToPlaceholder(t *testing.T) {
	f := newFixture(t)
	agent := f.addAgent("jordan@agency.test", "")
	f.addActivity(agent.ID, f.now.Add(60*time.Minute))
	f.dir.leadErr = errors.New("lead table unavailable")

	f.worker.RunPreStart()

	require.Equal(t, 1, f.mailer.sentCount())
	require.Contains(t, f.mailer.sent[0].text, "Unknown lead")
}

func TestDispatchFailureDoesNotAbortTheBatch(t *testing.T) {
	f := newFixture(t)
	broken := f.addAgent("broken@agency.test", "")
	healthy := f.addAgent("healthy@agency.test", "")
	brokenActivity := f.addActivity(broken.ID, f.now.Add(60*time.Minute))
	healthyActivity := f.addActivity(healthy.ID, f.now.Add(60*time.Minute))
	f.mailer.failFor["broken@agency.test"] = errors.New("provider rejected message")

	f.worker.RunPreStart()

	require.Equal(t, 1, f.mailer.sentCount())

	failed := f.claims.byDedupeKey("pre_start_1h:" + brokenActivity.ID)
	require.NotNil(t, failed)
	require.Equal(t, models.ClaimFailed, failed.Status)
	require.Contains(t, failed.ErrorMessage, "provider rejected message")

	sent := f.claims.byDedupeKey("pre_start_1h:" + healthyActivity.ID)
	require.NotNil(t, sent)
	require.Equal(t, models.ClaimSent, sent.Status)
}

func TestPostStartRaceToCloseFinalizesSkipped(t *testing.T) {
	f := newFixture(t)
	agent := f.addAgent("jordan@agency.test", "")
	trigger := f.now.Add(-58 * time.Minute)
	activity := f.addActivity(agent.ID, trigger)

	// Feed the sweep a stale snapshot where the activity is still open,
	// then close the live row before the claim check re-fetches it.
	stale := f.dir.activities[activity.ID]
	f.dir.windowOverride = []models.Activity{stale}
	live := f.dir.activities[activity.ID]
	live.Status = models.ActivityCompleted
	f.dir.activities[activity.ID] = live

	f.worker.RunPostStart()

	require.Equal(t, 0, f.mailer.sentCount())
	claim := f.claims.byDedupeKey("post_start_1h_open:" + activity.ID)
	require.NotNil(t, claim)
	require.Equal(t, models.ClaimSkipped, claim.Status)
	require.Equal(t, "already closed", claim.SkipReason)
}

func TestPostStartSendsForStillOpenActivity(t *testing.T) {
	f := newFixture(t)
	agent := f.addAgent("jordan@agency.test", "")
	activity := f.addActivity(agent.ID, f.now.Add(-60*time.Minute))

	f.worker.RunPostStart()

	require.Equal(t, 1, f.mailer.sentCount())
	require.Contains(t, f.mailer.sent[0].subject, "Still open")
	claim := f.claims.byDedupeKey("post_start_1h_open:" + activity.ID)
	require.NotNil(t, claim)
	require.Equal(t, models.ClaimSent, claim.Status)
}

func TestUnscheduledActivityIsIgnoredSilently(t *testing.T) {
	f := newFixture(t)
	agent := f.addAgent("jordan@agency.test", "")
	activity := f.addActivity(agent.ID, f.now.Add(60*time.Minute))
	stale := f.dir.activities[activity.ID]
	stale.ScheduledAt = nil
	f.dir.windowOverride = []models.Activity{stale}

	f.worker.RunPreStart()

	require.Equal(t, 0, f.mailer.sentCount())
	require.Equal(t, 0, f.claims.count())
}

func TestDigestGatedOnLocalEightAMHour(t *testing.T) {
	f := newFixture(t)
	agent := f.addAgent("jordan@agency.test", "America/New_York")

	// 2026-04-15, Eastern Daylight Time (UTC-4): the local 8am hour is
	// 12:00-12:59 UTC. Sweep every 15 minutes around it, as the digest
	// cron would.
	base := time.Date(2026, 4, 15, 11, 0, 0, 0, time.UTC)
	for tick := base; tick.Before(base.Add(3 * time.Hour)); tick = tick.Add(15 * time.Minute) {
		f.now = tick
		f.worker.RunDailyDigest()
	}

	require.Equal(t, 1, f.mailer.sentCount())
	claim := f.claims.byDedupeKey("daily_digest:" + agent.ID + ":2026-04-15")
	require.NotNil(t, claim)
	require.Equal(t, models.ClaimSent, claim.Status)
	require.Equal(t, 1, f.claims.count())
}

func TestDigestListsTheDaysActivitiesInLocalTime(t *testing.T) {
	f := newFixture(t)
	agent := f.addAgent("jordan@agency.test", "America/New_York")
	// 3:00 PM local on 2026-04-15 is 19:00 UTC during EDT
	f.addActivity(agent.ID, time.Date(2026, 4, 15, 19, 0, 0, 0, time.UTC))

	f.now = time.Date(2026, 4, 15, 12, 10, 0, 0, time.UTC) // 8:10 local
	f.worker.RunDailyDigest()

	require.Equal(t, 1, f.mailer.sentCount())
	msg := f.mailer.sent[0]
	require.Contains(t, msg.subject, "2026-04-15")
	require.Contains(t, msg.text, "Flat viewing on Calle Mayor")
	require.Contains(t, msg.text, "3:00 PM")
	require.Contains(t, msg.text, "Alicia Fontana")
}

func TestEmptyDigestStillSendsExplicitMessage(t *testing.T) {
	f := newFixture(t)
	f.addAgent("jordan@agency.test", "UTC")

	f.now = time.Date(2026, 4, 15, 8, 30, 0, 0, time.UTC)
	f.worker.RunDailyDigest()

	require.Equal(t, 1, f.mailer.sentCount())
	require.Contains(t, f.mailer.sent[0].text, "no activities scheduled")
}

func TestDigestSkipsAgentWithoutEmail(t *testing.T) {
	f := newFixture(t)
	agent := f.addAgent("", "UTC")

	f.now = time.Date(2026, 4, 15, 8, 30, 0, 0, time.UTC)
	f.worker.RunDailyDigest()

	require.Equal(t, 0, f.mailer.sentCount())
	claim := f.claims.byDedupeKey("daily_digest:" + agent.ID + ":2026-04-15")
	require.NotNil(t, claim)
	require.Equal(t, models.ClaimSkipped, claim.Status)
	require.Equal(t, "agent has no email address", claim.SkipReason)
}

func TestDigestMissingTimezoneBehavesAsUTC(t *testing.T) {
	f := newFixture(t)
	blank := f.addAgent("blank@agency.test", "")
	explicit := f.addAgent("utc@agency.test", "UTC")

	f.now = time.Date(2026, 4, 15, 8, 30, 0, 0, time.UTC)
	f.worker.RunDailyDigest()

	require.Equal(t, 2, f.mailer.sentCount())
	for _, agent := range []models.Agent{blank, explicit} {
		claim := f.claims.byDedupeKey("daily_digest:" + agent.ID + ":2026-04-15")
		require.NotNil(t, claim)
		require.Equal(t, models.ClaimSent, claim.Status)
	}
}

func TestConcurrentSweepsSendAtMostOnce(t *testing.T) {
	f := newFixture(t)
	agent := f.addAgent("jordan@agency.test", "")
	activity := f.addActivity(agent.ID, f.now.Add(60*time.Minute))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.worker.RunPreStart()
		}()
	}
	wg.Wait()

	require.Equal(t, 1, f.mailer.sentCount())
	claim := f.claims.byDedupeKey("pre_start_1h:" + activity.ID)
	require.NotNil(t, claim)
	require.Equal(t, models.ClaimSent, claim.Status)
}

func TestDedupeKeyFormats(t *testing.T) {
	require.Equal(t, "pre_start_1h:abc", models.ActivityDedupeKey(models.ReminderPreStart1h, "abc"))
	require.Equal(t, "post_start_1h_open:abc", models.ActivityDedupeKey(models.ReminderPostStart1hOpen, "abc"))
	require.Equal(t, "daily_digest:u1:2026-04-15", models.DigestDedupeKey("u1", "2026-04-15"))
	require.True(t, strings.HasPrefix(models.DigestDedupeKey("u1", "2026-04-15"), string(models.ReminderDailyDigest)))
}
