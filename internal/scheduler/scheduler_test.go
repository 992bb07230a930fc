// internal/scheduler/scheduler_test.go
package scheduler

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faststart/inviter-backend/internal/config"
	"github.com/faststart/inviter-backend/internal/delivery"
	appErrors "github.com/faststart/inviter-backend/internal/errors"
	"github.com/faststart/inviter-backend/internal/model"
)

// ====================== fakes ======================

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// fakeStore is an in-memory Store with the same observable behavior as the
// Postgres repository: FIFO pending order, exactly-once terminal marks.
type fakeStore struct {
	mu        sync.Mutex
	campaigns map[string]*model.Campaign
	records   []*model.SendRecord
	friends   map[string]model.Friend
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		campaigns: map[string]*model.Campaign{},
		friends:   map[string]model.Friend{},
	}
}

func (s *fakeStore) Create(c *model.Campaign, friendIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.campaigns[c.ID] = &cp
	for i, fid := range friendIDs {
		s.records = append(s.records, &model.SendRecord{
			ID:         c.ID + "-r" + string(rune('a'+i)),
			CampaignID: c.ID,
			FriendID:   fid,
			Position:   i,
			Status:     model.SendPending,
		})
	}
	return nil
}

func (s *fakeStore) GetByID(id string) (*model.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	cp := *c
	return &cp, nil
}

func (s *fakeStore) GetActive() (*model.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.campaigns))
	for id := range s.campaigns {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		c := s.campaigns[id]
		if c.Status == model.CampaignActive || c.Status == model.CampaignPaused {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) UpdateStatus(campaignID string, status model.CampaignStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[campaignID]
	if !ok {
		return appErrors.NewCampaignNotFound(campaignID)
	}
	c.Status = status
	return nil
}

func (s *fakeStore) UpdateCounters(campaignID string, sentToday int, lastSendDate string, lastVariationIndex *int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[campaignID]
	if !ok {
		return appErrors.NewCampaignNotFound(campaignID)
	}
	c.SentToday = sentToday
	c.LastSendDate = lastSendDate
	c.LastVariationIndex = lastVariationIndex
	return nil
}

func (s *fakeStore) NextPendingTarget(campaignID string) (*model.PendingTarget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.CampaignID == campaignID && r.Status == model.SendPending {
			return s.targetLocked(r), nil
		}
	}
	return nil, nil
}

func (s *fakeStore) GetPendingRecord(recordID string) (*model.PendingTarget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.ID == recordID && r.Status == model.SendPending {
			return s.targetLocked(r), nil
		}
	}
	return nil, nil
}

func (s *fakeStore) targetLocked(r *model.SendRecord) *model.PendingTarget {
	rec := *r
	return &model.PendingTarget{Record: rec, Friend: s.friends[r.FriendID]}
}

func (s *fakeStore) EnsureScheduled(recordID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.ID == recordID && r.ScheduledAt == nil {
			t := at
			r.ScheduledAt = &t
		}
	}
	return nil
}

func (s *fakeStore) MarkSent(recordID string, sentAt time.Time, variation int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.ID == recordID && r.Status == model.SendPending {
			r.Status = model.SendSent
			t := sentAt
			r.SentAt = &t
			v := variation
			r.MessageVariation = &v
		}
	}
	return nil
}

func (s *fakeStore) MarkFailed(recordID string, reason string, variation *int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.ID == recordID && r.Status == model.SendPending {
			r.Status = model.SendFailed
			r.Error = reason
			r.MessageVariation = variation
		}
	}
	return nil
}

func (s *fakeStore) CountPending(campaignID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.records {
		if r.CampaignID == campaignID && r.Status == model.SendPending {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) GetCampaignStats(campaignID string) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := map[string]int{"sent": 0, "failed": 0, "pending": 0}
	for _, r := range s.records {
		if r.CampaignID == campaignID {
			stats[string(r.Status)]++
		}
	}
	return stats, nil
}

func (s *fakeStore) LastFailure(campaignID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	last := ""
	for _, r := range s.records {
		if r.CampaignID == campaignID && r.Status == model.SendFailed {
			last = r.Error
		}
	}
	return last, nil
}

func (s *fakeStore) record(id string) model.SendRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.ID == id {
			return *r
		}
	}
	return model.SendRecord{}
}

func (s *fakeStore) campaign(id string) model.Campaign {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.campaigns[id]
}

type fakeTemplates struct {
	template *model.MessageTemplate
}

func (f *fakeTemplates) GetByID(id string) (*model.MessageTemplate, error) {
	if f.template == nil || f.template.ID != id {
		return nil, appErrors.ErrTemplateNotFound
	}
	return f.template, nil
}

type fakeLists struct {
	friendIDs []string
}

func (f *fakeLists) FriendIDs(listID string) ([]string, error) {
	return f.friendIDs, nil
}

// fakeAdapter replays scripted outcomes and records every request. An
// optional hook runs mid-delivery, before the outcome is returned.
type fakeAdapter struct {
	mu       sync.Mutex
	outcomes []delivery.Outcome
	requests []delivery.Request
	hook     func()
}

func (a *fakeAdapter) Deliver(ctx context.Context, req delivery.Request) (delivery.Outcome, error) {
	a.mu.Lock()
	a.requests = append(a.requests, req)
	var out delivery.Outcome
	if len(a.outcomes) > 0 {
		out = a.outcomes[0]
		a.outcomes = a.outcomes[1:]
	} else {
		out = delivery.Sent()
	}
	hook := a.hook
	a.mu.Unlock()
	if hook != nil {
		hook()
	}
	return out, nil
}

func (a *fakeAdapter) delivered() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.requests)
}

// ====================== harness ======================

type harness struct {
	store     *fakeStore
	templates *fakeTemplates
	lists     *fakeLists
	adapter   *fakeAdapter
	clock     *fakeClock
	svc       *Service
}

func testConfig() config.Config {
	return config.Config{
		DailyCap:          10,
		WindowStartHour:   9,
		WindowEndHour:     20,
		MinGapMinutes:     30,
		MaxGapMinutes:     60,
		DeferDelayMinutes: 15,
	}
}

// newHarness wires a service around fakes, with the clock inside the send
// window at 10:00.
func newHarness(t *testing.T, friendIDs ...string) *harness {
	t.Helper()
	store := newFakeStore()
	for _, fid := range friendIDs {
		store.friends[fid] = model.Friend{ID: fid, Name: fid + " Surname", FirstName: fid}
	}
	templates := &fakeTemplates{template: &model.MessageTemplate{
		ID:   "tpl-1",
		Name: "default",
		Body: "Hey {{first_name}}, {hi|hello}!\n---\nHi {{first_name}}, {yo|hey}!",
	}}
	lists := &fakeLists{friendIDs: friendIDs}
	adapter := &fakeAdapter{}
	clock := &fakeClock{now: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)}

	svc := New(store, templates, lists, adapter, testConfig(), clock, rand.New(rand.NewSource(7)))
	t.Cleanup(svc.disarm)
	return &harness{store: store, templates: templates, lists: lists, adapter: adapter, clock: clock, svc: svc}
}

func (h *harness) start(t *testing.T) *model.Campaign {
	t.Helper()
	campaign, err := h.svc.Start("list-1", "tpl-1")
	require.NoError(t, err)
	return campaign
}

func (h *harness) wakeupIn(t *testing.T) time.Duration {
	t.Helper()
	at := h.svc.NextWakeupAt()
	require.NotNil(t, at, "expected an armed wake-up")
	return at.Sub(h.clock.Now())
}

// ====================== Start / lifecycle ======================

func TestStartCreatesPendingRecordsAndArms(t *testing.T) {
	h := newHarness(t, "Ann", "Bob", "Cid")
	campaign := h.start(t)

	assert.Equal(t, model.CampaignActive, campaign.Status)
	pending, _ := h.store.CountPending(campaign.ID)
	assert.Equal(t, 3, pending)
	assert.Equal(t, initialDelay, h.wakeupIn(t))
}

func TestStartRejectsSecondCampaign(t *testing.T) {
	h := newHarness(t, "Ann")
	h.start(t)

	_, err := h.svc.Start("list-1", "tpl-1")
	assert.ErrorIs(t, err, appErrors.ErrCampaignActive)
}

func TestStartRejectsPausedAsActive(t *testing.T) {
	h := newHarness(t, "Ann")
	h.start(t)
	require.NoError(t, h.svc.Pause())

	_, err := h.svc.Start("list-1", "tpl-1")
	assert.ErrorIs(t, err, appErrors.ErrCampaignActive)
}

func TestStartRejectsEmptyList(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.Start("list-1", "tpl-1")
	assert.ErrorIs(t, err, appErrors.ErrEmptyTargetList)
}

func TestStartRejectsUnknownTemplate(t *testing.T) {
	h := newHarness(t, "Ann")
	_, err := h.svc.Start("list-1", "missing")
	assert.ErrorIs(t, err, appErrors.ErrTemplateNotFound)
}

func TestStartOutsideWindowArmsForWindowOpen(t *testing.T) {
	h := newHarness(t, "Ann")
	h.clock.Set(time.Date(2026, 3, 2, 22, 0, 0, 0, time.UTC))
	h.start(t)

	assert.Equal(t, 11*time.Hour, h.wakeupIn(t)) // 22:00 -> 09:00 next day
}

func TestPauseDisarmsAndResumeRearms(t *testing.T) {
	h := newHarness(t, "Ann")
	h.start(t)

	require.NoError(t, h.svc.Pause())
	assert.Nil(t, h.svc.NextWakeupAt())

	require.NoError(t, h.svc.Resume())
	assert.Equal(t, initialDelay, h.wakeupIn(t))
}

func TestResumeOutsideWindowWaitsForOpen(t *testing.T) {
	h := newHarness(t, "Ann")
	h.start(t)
	require.NoError(t, h.svc.Pause())

	h.clock.Set(time.Date(2026, 3, 2, 6, 30, 0, 0, time.UTC))
	require.NoError(t, h.svc.Resume())
	assert.Equal(t, 150*time.Minute, h.wakeupIn(t)) // 06:30 -> 09:00
}

func TestCancelIsTerminal(t *testing.T) {
	h := newHarness(t, "Ann")
	campaign := h.start(t)

	require.NoError(t, h.svc.Cancel())
	assert.Nil(t, h.svc.NextWakeupAt())
	assert.Equal(t, model.CampaignCancelled, h.store.campaign(campaign.ID).Status)

	assert.ErrorIs(t, h.svc.Resume(), appErrors.ErrNoActiveCampaign)
}

func TestLifecycleOpsWithoutCampaign(t *testing.T) {
	h := newHarness(t, "Ann")
	assert.ErrorIs(t, h.svc.Pause(), appErrors.ErrNoActiveCampaign)
	assert.ErrorIs(t, h.svc.Resume(), appErrors.ErrNoActiveCampaign)
	assert.ErrorIs(t, h.svc.Cancel(), appErrors.ErrNoActiveCampaign)
}

// ====================== Tick ======================

func TestTickSendsInListOrderUntilComplete(t *testing.T) {
	h := newHarness(t, "Ann", "Bob")
	campaign := h.start(t)

	require.NoError(t, h.svc.tick(context.Background()))
	assert.Equal(t, 1, h.adapter.delivered())
	assert.Equal(t, "Ann", h.adapter.requests[0].FriendID)
	assert.Equal(t, model.SendSent, h.store.record(campaign.ID+"-ra").Status)
	assert.Equal(t, 1, h.store.campaign(campaign.ID).SentToday)

	gap := h.wakeupIn(t)
	assert.GreaterOrEqual(t, gap, 30*time.Minute)
	assert.LessOrEqual(t, gap, 60*time.Minute)

	require.NoError(t, h.svc.tick(context.Background()))
	assert.Equal(t, "Bob", h.adapter.requests[1].FriendID)
	assert.Equal(t, model.CampaignComplete, h.store.campaign(campaign.ID).Status)
	assert.Nil(t, h.svc.NextWakeupAt())
}

func TestTickRendersWithFriendFirstName(t *testing.T) {
	h := newHarness(t, "Ann")
	h.start(t)

	require.NoError(t, h.svc.tick(context.Background()))
	msg := h.adapter.requests[0].Message
	assert.Contains(t, msg, "Ann")
	assert.NotContains(t, msg, "{")
	assert.NotContains(t, msg, "first_name")
}

func TestTickRotatesVariations(t *testing.T) {
	h := newHarness(t, "Ann", "Bob", "Cid")
	campaign := h.start(t)

	require.NoError(t, h.svc.tick(context.Background()))
	require.NoError(t, h.svc.tick(context.Background()))
	require.NoError(t, h.svc.tick(context.Background()))

	first := h.store.record(campaign.ID + "-ra").MessageVariation
	second := h.store.record(campaign.ID + "-rb").MessageVariation
	third := h.store.record(campaign.ID + "-rc").MessageVariation
	require.NotNil(t, first)
	require.NotNil(t, second)
	require.NotNil(t, third)
	assert.NotEqual(t, *first, *second)
	assert.NotEqual(t, *second, *third)
}

func TestTickAtDailyCapWaitsForTomorrow(t *testing.T) {
	h := newHarness(t, "Ann")
	campaign := h.start(t)
	require.NoError(t, h.store.UpdateCounters(campaign.ID, 10, "2026-03-02", nil))

	require.NoError(t, h.svc.tick(context.Background()))
	assert.Equal(t, 0, h.adapter.delivered())
	assert.Equal(t, 23*time.Hour, h.wakeupIn(t)) // 10:00 -> 09:00 next day
}

func TestTickDailyRolloverResetsCounter(t *testing.T) {
	h := newHarness(t, "Ann")
	campaign := h.start(t)
	require.NoError(t, h.store.UpdateCounters(campaign.ID, 10, "2026-03-01", nil))

	require.NoError(t, h.svc.tick(context.Background()))
	assert.Equal(t, 1, h.adapter.delivered())
	c := h.store.campaign(campaign.ID)
	assert.Equal(t, "2026-03-02", c.LastSendDate)
	assert.Equal(t, 1, c.SentToday)
}

func TestTickOutsideWindowDoesNotSend(t *testing.T) {
	h := newHarness(t, "Ann")
	h.start(t)
	h.clock.Set(time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC)) // window closes at 20

	require.NoError(t, h.svc.tick(context.Background()))
	assert.Equal(t, 0, h.adapter.delivered())
	assert.Equal(t, 13*time.Hour, h.wakeupIn(t)) // 20:00 -> 09:00 next day
}

func TestTickDeferredKeepsRecordPending(t *testing.T) {
	h := newHarness(t, "Ann")
	campaign := h.start(t)
	h.adapter.outcomes = []delivery.Outcome{delivery.Deferred()}

	require.NoError(t, h.svc.tick(context.Background()))

	rec := h.store.record(campaign.ID + "-ra")
	assert.Equal(t, model.SendPending, rec.Status)
	require.NotNil(t, rec.ScheduledAt)
	firstScheduled := *rec.ScheduledAt
	assert.Equal(t, 0, h.store.campaign(campaign.ID).SentToday)
	assert.Equal(t, 15*time.Minute, h.wakeupIn(t))

	// Retry keeps the original scheduled time and can still succeed.
	h.clock.Set(h.clock.Now().Add(15 * time.Minute))
	require.NoError(t, h.svc.tick(context.Background()))
	rec = h.store.record(campaign.ID + "-ra")
	assert.Equal(t, model.SendSent, rec.Status)
	assert.Equal(t, firstScheduled, *rec.ScheduledAt)
}

func TestTickFailedIsTerminalAndSkipped(t *testing.T) {
	h := newHarness(t, "Ann", "Bob")
	campaign := h.start(t)
	h.adapter.outcomes = []delivery.Outcome{delivery.Failed("no message box")}

	require.NoError(t, h.svc.tick(context.Background()))
	rec := h.store.record(campaign.ID + "-ra")
	assert.Equal(t, model.SendFailed, rec.Status)
	assert.Equal(t, "no message box", rec.Error)
	assert.Equal(t, 0, h.store.campaign(campaign.ID).SentToday)

	// Next tick moves on to Bob, never back to Ann.
	require.NoError(t, h.svc.tick(context.Background()))
	assert.Equal(t, "Bob", h.adapter.requests[1].FriendID)
	assert.Equal(t, model.CampaignComplete, h.store.campaign(campaign.ID).Status)
}

func TestTickAllFailedCompletesCampaign(t *testing.T) {
	h := newHarness(t, "Ann")
	campaign := h.start(t)
	h.adapter.outcomes = []delivery.Outcome{delivery.Failed("boom")}

	require.NoError(t, h.svc.tick(context.Background()))
	assert.Equal(t, model.CampaignComplete, h.store.campaign(campaign.ID).Status)
	assert.Nil(t, h.svc.NextWakeupAt())
}

func TestTickDropsWhenSendInFlight(t *testing.T) {
	h := newHarness(t, "Ann")
	campaign := h.start(t)

	h.svc.sendMu.Lock()
	require.NoError(t, h.svc.tick(context.Background()))
	h.svc.sendMu.Unlock()

	assert.Equal(t, 0, h.adapter.delivered())
	assert.Equal(t, model.SendPending, h.store.record(campaign.ID+"-ra").Status)
	// The in-flight send's own completion re-arms; the dropped tick must not.
	assert.Nil(t, h.svc.NextWakeupAt())
}

func TestTickPausedCampaignDoesNothing(t *testing.T) {
	h := newHarness(t, "Ann")
	h.start(t)
	require.NoError(t, h.svc.Pause())

	require.NoError(t, h.svc.tick(context.Background()))
	assert.Equal(t, 0, h.adapter.delivered())
	assert.Nil(t, h.svc.NextWakeupAt())
}

func TestCancelMidDeliveryDropsResult(t *testing.T) {
	h := newHarness(t, "Ann")
	campaign := h.start(t)
	h.adapter.hook = func() {
		require.NoError(t, h.store.UpdateStatus(campaign.ID, model.CampaignCancelled))
	}

	require.NoError(t, h.svc.tick(context.Background()))

	// Outcome discarded: record still pending, counters untouched, no timer.
	assert.Equal(t, model.SendPending, h.store.record(campaign.ID+"-ra").Status)
	assert.Equal(t, 0, h.store.campaign(campaign.ID).SentToday)
	assert.Nil(t, h.svc.NextWakeupAt())
}

func TestCancelMidDeliveryDeferredDoesNotRearm(t *testing.T) {
	h := newHarness(t, "Ann")
	campaign := h.start(t)
	h.adapter.outcomes = []delivery.Outcome{delivery.Deferred()}
	h.adapter.hook = func() {
		require.NoError(t, h.store.UpdateStatus(campaign.ID, model.CampaignCancelled))
	}

	require.NoError(t, h.svc.tick(context.Background()))

	// Cancelled campaigns get no further wake-ups, not even the defer retry.
	assert.Nil(t, h.svc.NextWakeupAt())
	assert.Equal(t, model.SendPending, h.store.record(campaign.ID+"-ra").Status)
}

func TestPauseMidDeliveryDeferredDoesNotRearm(t *testing.T) {
	h := newHarness(t, "Ann")
	campaign := h.start(t)
	h.adapter.outcomes = []delivery.Outcome{delivery.Deferred()}
	h.adapter.hook = func() {
		require.NoError(t, h.store.UpdateStatus(campaign.ID, model.CampaignPaused))
	}

	require.NoError(t, h.svc.tick(context.Background()))
	assert.Nil(t, h.svc.NextWakeupAt())
}

// ====================== Recover ======================

func TestRecoverArmsForActiveCampaign(t *testing.T) {
	h := newHarness(t, "Ann")
	h.start(t)
	h.svc.disarm() // simulate a restart losing the timer

	require.NoError(t, h.svc.Recover())
	assert.Equal(t, initialDelay, h.wakeupIn(t))
}

func TestRecoverIsIdempotent(t *testing.T) {
	h := newHarness(t, "Ann")
	h.start(t)
	first := h.svc.NextWakeupAt()

	require.NoError(t, h.svc.Recover())
	assert.Equal(t, first, h.svc.NextWakeupAt())
}

func TestRecoverNoCampaignNoTimer(t *testing.T) {
	h := newHarness(t, "Ann")
	require.NoError(t, h.svc.Recover())
	assert.Nil(t, h.svc.NextWakeupAt())
}

func TestRecoverSkipsPausedCampaign(t *testing.T) {
	h := newHarness(t, "Ann")
	h.start(t)
	require.NoError(t, h.svc.Pause())

	require.NoError(t, h.svc.Recover())
	assert.Nil(t, h.svc.NextWakeupAt())
}

// ====================== SendNow ======================

func TestSendNowDeliversOneRecord(t *testing.T) {
	h := newHarness(t, "Ann", "Bob")
	campaign := h.start(t)
	before := h.svc.NextWakeupAt()

	outcome, err := h.svc.SendNow(context.Background(), campaign.ID+"-rb")
	require.NoError(t, err)
	assert.Equal(t, delivery.ResultSent, outcome.Result)
	assert.Equal(t, model.SendSent, h.store.record(campaign.ID+"-rb").Status)
	assert.Equal(t, 1, h.store.campaign(campaign.ID).SentToday)
	// Manual sends never reschedule the timer.
	assert.Equal(t, before, h.svc.NextWakeupAt())
}

func TestSendNowRejectsTerminalRecord(t *testing.T) {
	h := newHarness(t, "Ann")
	campaign := h.start(t)
	require.NoError(t, h.store.MarkFailed(campaign.ID+"-ra", "x", nil))

	_, err := h.svc.SendNow(context.Background(), campaign.ID+"-ra")
	assert.ErrorIs(t, err, appErrors.ErrRecordNotPending)
}

func TestSendNowRejectsWhileInFlight(t *testing.T) {
	h := newHarness(t, "Ann")
	campaign := h.start(t)

	h.svc.sendMu.Lock()
	_, err := h.svc.SendNow(context.Background(), campaign.ID+"-ra")
	h.svc.sendMu.Unlock()
	assert.ErrorIs(t, err, appErrors.ErrSendInFlight)
}

func TestSendNowWithoutCampaign(t *testing.T) {
	h := newHarness(t, "Ann")
	_, err := h.svc.SendNow(context.Background(), "whatever")
	assert.ErrorIs(t, err, appErrors.ErrNoActiveCampaign)
}

func TestSendNowLastRecordCompletesCampaign(t *testing.T) {
	h := newHarness(t, "Ann")
	campaign := h.start(t)

	_, err := h.svc.SendNow(context.Background(), campaign.ID+"-ra")
	require.NoError(t, err)
	assert.Equal(t, model.CampaignComplete, h.store.campaign(campaign.ID).Status)
}

// ====================== Status ======================

func TestStatusInactiveWhenNoCampaign(t *testing.T) {
	h := newHarness(t, "Ann")
	status, err := h.svc.Status()
	require.NoError(t, err)
	assert.False(t, status.Active)
}

func TestStatusReportsCountsAndEta(t *testing.T) {
	h := newHarness(t, "Ann", "Bob", "Cid")
	campaign := h.start(t)
	h.adapter.outcomes = []delivery.Outcome{delivery.Sent(), delivery.Failed("nope")}
	require.NoError(t, h.svc.tick(context.Background()))
	require.NoError(t, h.svc.tick(context.Background()))

	status, err := h.svc.Status()
	require.NoError(t, err)
	assert.True(t, status.Active)
	assert.Equal(t, campaign.ID, status.CampaignID)
	assert.Equal(t, 1, status.Sent)
	assert.Equal(t, 1, status.Failed)
	assert.Equal(t, 1, status.Pending)
	assert.Equal(t, 3, status.Total)
	assert.Equal(t, 1, status.SentToday)
	assert.Equal(t, "nope", status.LastError)
	assert.Equal(t, 1, status.DaysElapsed)
	require.NotNil(t, status.NextWakeupEtaMinutes)
	assert.NotEmpty(t, status.EstimatedCompletionDate)
}

func TestDaysElapsedCeilsToCalendarDays(t *testing.T) {
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, 1, daysElapsed(start, start))
	assert.Equal(t, 1, daysElapsed(start, start.Add(23*time.Hour)))
	assert.Equal(t, 1, daysElapsed(start, start.Add(24*time.Hour)))
	assert.Equal(t, 2, daysElapsed(start, start.Add(24*time.Hour+time.Minute)))
	assert.Equal(t, 3, daysElapsed(start, start.Add(49*time.Hour)))
}
