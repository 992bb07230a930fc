// internal/scheduler/scheduler.go
//
// Single-flight campaign scheduler. One timer drives everything: each tick
// runs the full decision chain (daily reset, quota, window, target pick,
// delivery, bookkeeping) to completion, then re-arms the timer. A mutex
// with TryLock guards the delivery path so a stray duplicate fire can never
// overlap an in-flight send; the newer trigger is dropped and the in-flight
// tick's own completion re-arms.
package scheduler

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/faststart/inviter-backend/internal/config"
	"github.com/faststart/inviter-backend/internal/delivery"
	appErrors "github.com/faststart/inviter-backend/internal/errors"
	"github.com/faststart/inviter-backend/internal/model"
	"github.com/faststart/inviter-backend/internal/spintax"
)

const dateLayout = "2006-01-02"

// initialDelay is the near-immediate wake-up after start/resume when the
// window is open.
const initialDelay = time.Minute

// avgSendsPerDay is the conservative throughput estimate used for the
// completion-date projection shown to the operator.
const avgSendsPerDay = 8

// Store is the campaign persistence the scheduler needs. Implemented by
// repository.CampaignRepository.
type Store interface {
	Create(c *model.Campaign, friendIDs []string) error
	GetByID(id string) (*model.Campaign, error)
	GetActive() (*model.Campaign, error)
	UpdateStatus(campaignID string, status model.CampaignStatus) error
	UpdateCounters(campaignID string, sentToday int, lastSendDate string, lastVariationIndex *int) error
	NextPendingTarget(campaignID string) (*model.PendingTarget, error)
	GetPendingRecord(recordID string) (*model.PendingTarget, error)
	EnsureScheduled(recordID string, at time.Time) error
	MarkSent(recordID string, sentAt time.Time, variation int) error
	MarkFailed(recordID string, reason string, variation *int) error
	CountPending(campaignID string) (int, error)
	GetCampaignStats(campaignID string) (map[string]int, error)
	LastFailure(campaignID string) (string, error)
}

// Templates resolves the message template a campaign renders from.
type Templates interface {
	GetByID(id string) (*model.MessageTemplate, error)
}

// Lists resolves a target list's friend ids in FIFO order.
type Lists interface {
	FriendIDs(listID string) ([]string, error)
}

// Service owns the campaign state machine: one timer handle, one send lock,
// injected store and delivery adapter. No ambient globals.
type Service struct {
	store     Store
	templates Templates
	lists     Lists
	adapter   delivery.Adapter
	cfg       config.Config
	clock     Clock
	log       *logrus.Entry

	mu           sync.Mutex // guards timer, nextWakeupAt, rng
	timer        *time.Timer
	nextWakeupAt *time.Time
	rng          *rand.Rand

	sendMu sync.Mutex // global send lock, TryLock only
}

func New(store Store, templates Templates, lists Lists, adapter delivery.Adapter, cfg config.Config, clock Clock, rng *rand.Rand) *Service {
	if clock == nil {
		clock = NewRealClock()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{
		store:     store,
		templates: templates,
		lists:     lists,
		adapter:   adapter,
		cfg:       cfg,
		clock:     clock,
		rng:       rng,
		log:       logrus.WithField("component", "scheduler"),
	}
}

// ====================== Operations ======================

// Start validates the target list and template, creates the campaign with
// all records pending, and arms the first wake-up.
func (s *Service) Start(listID, templateID string) (*model.Campaign, error) {
	existing, err := s.store.GetActive()
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, appErrors.ErrCampaignActive
	}

	if _, err := s.templates.GetByID(templateID); err != nil {
		return nil, err
	}

	friendIDs, err := s.lists.FriendIDs(listID)
	if err != nil {
		return nil, err
	}
	if len(friendIDs) == 0 {
		return nil, appErrors.ErrEmptyTargetList
	}

	now := s.clock.Now()
	campaign := &model.Campaign{
		ID:           uuid.NewString(),
		ListID:       listID,
		TemplateID:   templateID,
		Status:       model.CampaignActive,
		SentToday:    0,
		LastSendDate: now.Format(dateLayout),
		StartedAt:    now,
	}
	if err := s.store.Create(campaign, friendIDs); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"campaign": campaign.ID,
		"targets":  len(friendIDs),
	}).Info("campaign started")

	if s.inWindow(now) {
		s.arm(initialDelay)
	} else {
		s.arm(s.untilWindowOpen(now))
	}
	return campaign, nil
}

// Pause cancels the pending wake-up. An in-flight delivery is allowed to
// finish and write its terminal record; only the next tick is suppressed.
func (s *Service) Pause() error {
	campaign, err := s.requireCurrent()
	if err != nil {
		return err
	}
	if err := s.store.UpdateStatus(campaign.ID, model.CampaignPaused); err != nil {
		return err
	}
	s.disarm()
	s.log.WithField("campaign", campaign.ID).Info("campaign paused")
	return nil
}

// Resume re-arms the wake-up: immediate when in-window and under quota,
// otherwise at the next window open.
func (s *Service) Resume() error {
	campaign, err := s.requireCurrent()
	if err != nil {
		return err
	}
	if err := s.store.UpdateStatus(campaign.ID, model.CampaignActive); err != nil {
		return err
	}
	now := s.clock.Now()
	if s.inWindow(now) && s.underCap(campaign, now) {
		s.arm(initialDelay)
	} else {
		s.arm(s.untilWindowOpen(now))
	}
	s.log.WithField("campaign", campaign.ID).Info("campaign resumed")
	return nil
}

// Cancel is terminal. Records are retained for audit; an in-flight delivery
// finishes but its write-back turns into a no-op.
func (s *Service) Cancel() error {
	campaign, err := s.requireCurrent()
	if err != nil {
		return err
	}
	if err := s.store.UpdateStatus(campaign.ID, model.CampaignCancelled); err != nil {
		return err
	}
	s.disarm()
	s.log.WithField("campaign", campaign.ID).Info("campaign cancelled")
	return nil
}

// Detach drops the timer when the live campaign was deleted underneath the
// scheduler (template deletion cascades). Safe to call any time: with an
// active campaign still present it does nothing.
func (s *Service) Detach() {
	campaign, err := s.store.GetActive()
	if err != nil || campaign != nil {
		return
	}
	s.disarm()
}

// Recover re-arms the wake-up after a process restart if a campaign is
// active but no timer exists. Idempotent: with a timer already armed it is
// a no-op, and it never duplicates a campaign or resets counters.
func (s *Service) Recover() error {
	campaign, err := s.store.GetActive()
	if err != nil {
		return err
	}
	if campaign == nil || campaign.Status != model.CampaignActive {
		return nil
	}

	s.mu.Lock()
	armed := s.timer != nil
	s.mu.Unlock()
	if armed {
		return nil
	}

	s.log.WithField("campaign", campaign.ID).Info("recovery: active campaign with no wake-up, re-arming")
	now := s.clock.Now()
	if s.inWindow(now) && s.underCap(campaign, now) {
		s.arm(initialDelay)
	} else {
		s.arm(s.untilWindowOpen(now))
	}
	return nil
}

// SendNow delivers one pending record immediately, bypassing the timer but
// still respecting the global send lock.
func (s *Service) SendNow(ctx context.Context, recordID string) (delivery.Outcome, error) {
	campaign, err := s.store.GetActive()
	if err != nil {
		return delivery.Outcome{}, err
	}
	if campaign == nil {
		return delivery.Outcome{}, appErrors.ErrNoActiveCampaign
	}

	target, err := s.store.GetPendingRecord(recordID)
	if err != nil {
		return delivery.Outcome{}, err
	}
	if target == nil || target.Record.CampaignID != campaign.ID {
		return delivery.Outcome{}, appErrors.ErrRecordNotPending
	}

	if !s.sendMu.TryLock() {
		return delivery.Outcome{}, appErrors.ErrSendInFlight
	}
	outcome, variation, err := s.deliverLocked(ctx, campaign, target)
	s.sendMu.Unlock()
	if err != nil {
		return delivery.Outcome{}, err
	}

	if outcome.Result != delivery.ResultDeferred {
		if err := s.settle(campaign, target, outcome, variation, false); err != nil {
			return outcome, err
		}
	}
	return outcome, nil
}

// ====================== Tick ======================

// Tick is the timer callback. Errors are logged, never propagated: a failed
// tick leaves the store untouched and is retried on the next wake-up.
func (s *Service) Tick() {
	if err := s.tick(context.Background()); err != nil {
		s.log.WithError(err).Error("tick aborted")
		// The store read/write failed; retry the whole tick later rather
		// than guessing at partial state.
		s.arm(time.Duration(s.cfg.MinGapMinutes) * time.Minute)
	}
}

func (s *Service) tick(ctx context.Context) error {
	s.clearWakeup()

	campaign, err := s.store.GetActive()
	if err != nil {
		return err
	}
	if campaign == nil || campaign.Status != model.CampaignActive {
		s.log.Debug("no active campaign, skipping tick")
		return nil
	}

	now := s.clock.Now()
	today := now.Format(dateLayout)

	// Date rollover resets the daily counter.
	if campaign.LastSendDate != today {
		campaign.SentToday = 0
		campaign.LastSendDate = today
		if err := s.store.UpdateCounters(campaign.ID, 0, today, campaign.LastVariationIndex); err != nil {
			return err
		}
	}

	if campaign.SentToday >= s.cfg.DailyCap {
		s.log.WithField("sent_today", campaign.SentToday).Info("daily cap reached, rescheduling for tomorrow")
		s.arm(s.untilWindowOpen(now))
		return nil
	}

	if !s.inWindow(now) {
		s.log.Info("outside send window, rescheduling")
		s.arm(s.untilWindowOpen(now))
		return nil
	}

	target, err := s.store.NextPendingTarget(campaign.ID)
	if err != nil {
		return err
	}
	if target == nil {
		// Every record is terminal.
		if err := s.store.UpdateStatus(campaign.ID, model.CampaignComplete); err != nil {
			return err
		}
		s.log.WithField("campaign", campaign.ID).Info("campaign complete")
		return nil
	}

	if err := s.store.EnsureScheduled(target.Record.ID, now); err != nil {
		return err
	}

	// Fail fast, not queued: if a send is already in flight the in-flight
	// tick re-arms on completion, so this trigger is simply dropped.
	if !s.sendMu.TryLock() {
		s.log.Warn("send already in flight, dropping tick")
		return nil
	}
	outcome, variation, err := s.deliverLocked(ctx, campaign, target)
	s.sendMu.Unlock()
	if err != nil {
		return err
	}

	if outcome.Result == delivery.ResultDeferred {
		// Record untouched, pending. Re-read before backing off: a cancel or
		// pause that landed mid-delivery must not get another armed tick.
		current, err := s.store.GetActive()
		if err != nil {
			return err
		}
		if current == nil || current.ID != campaign.ID || current.Status != model.CampaignActive {
			s.log.Info("campaign no longer active, dropping deferred retry")
			s.disarm()
			return nil
		}
		s.log.WithField("friend", target.Friend.Name).Info("delivery deferred, human present")
		s.arm(time.Duration(s.cfg.DeferDelayMinutes) * time.Minute)
		return nil
	}

	return s.settle(campaign, target, outcome, variation, true)
}

// deliverLocked renders the message and invokes the adapter. Caller holds
// the send lock. Adapter transport errors are converted to failed outcomes
// so the record always reaches a terminal or pending state.
func (s *Service) deliverLocked(ctx context.Context, campaign *model.Campaign, target *model.PendingTarget) (delivery.Outcome, int, error) {
	template, err := s.templates.GetByID(campaign.TemplateID)
	if err != nil {
		return delivery.Outcome{}, 0, err
	}
	variations := template.Variations()

	s.mu.Lock()
	variation := spintax.NextVariation(s.rng, campaign.LastVariationIndex, len(variations))
	message := spintax.Render(s.rng, variations[variation], target.Friend.FirstName)
	s.mu.Unlock()

	outcome, err := s.adapter.Deliver(ctx, delivery.Request{
		RecordID:   target.Record.ID,
		FriendID:   target.Friend.ID,
		FriendName: target.Friend.Name,
		Message:    message,
	})
	if err != nil {
		outcome = delivery.Failed(err.Error())
	}
	return outcome, variation, nil
}

// settle writes the terminal record and counters for a sent/failed outcome,
// then handles completion and (for timer ticks) the next wake-up.
func (s *Service) settle(campaign *model.Campaign, target *model.PendingTarget, outcome delivery.Outcome, variation int, rearm bool) error {
	// Re-read: cancel or a cascade delete may have landed while the
	// delivery was in flight, in which case the write-back is a no-op.
	current, err := s.store.GetByID(campaign.ID)
	if err != nil {
		var nf *appErrors.ErrCampaignNotFound
		if errors.As(err, &nf) {
			s.log.Info("campaign vanished mid-delivery, dropping result")
			s.disarm()
			return nil
		}
		return err
	}
	if current.Status == model.CampaignCancelled {
		s.log.Info("campaign cancelled mid-delivery, dropping result")
		s.disarm()
		return nil
	}

	now := s.clock.Now()
	switch outcome.Result {
	case delivery.ResultSent:
		if err := s.store.MarkSent(target.Record.ID, now, variation); err != nil {
			return err
		}
		current.SentToday++
		current.LastVariationIndex = &variation
		if err := s.store.UpdateCounters(current.ID, current.SentToday, current.LastSendDate, current.LastVariationIndex); err != nil {
			return err
		}
		s.log.WithFields(logrus.Fields{
			"friend":     target.Friend.Name,
			"variation":  variation,
			"sent_today": current.SentToday,
		}).Info("message sent")
	case delivery.ResultFailed:
		// Terminal: failed records are never retried within a campaign.
		if err := s.store.MarkFailed(target.Record.ID, outcome.Reason, &variation); err != nil {
			return err
		}
		s.log.WithFields(logrus.Fields{
			"friend": target.Friend.Name,
			"reason": outcome.Reason,
		}).Warn("message failed")
	}

	pending, err := s.store.CountPending(current.ID)
	if err != nil {
		return err
	}
	if pending == 0 {
		if err := s.store.UpdateStatus(current.ID, model.CampaignComplete); err != nil {
			return err
		}
		s.log.WithField("campaign", current.ID).Info("campaign complete")
		s.disarm()
		return nil
	}

	if !rearm || current.Status != model.CampaignActive {
		return nil
	}
	if s.inWindow(now) && s.underCap(current, now) {
		s.arm(s.randomGap())
	} else {
		s.arm(s.untilWindowOpen(now))
	}
	return nil
}

// ====================== Status ======================

// Status is the operator-facing campaign snapshot.
type Status struct {
	Active                  bool                 `json:"active"`
	CampaignID              string               `json:"campaign_id,omitempty"`
	Status                  model.CampaignStatus `json:"status,omitempty"`
	Sent                    int                  `json:"sent"`
	Total                   int                  `json:"total"`
	Failed                  int                  `json:"failed"`
	Pending                 int                  `json:"pending"`
	SentToday               int                  `json:"sent_today"`
	NextWakeupEtaMinutes    *int                 `json:"next_wakeup_eta_minutes,omitempty"`
	EstimatedCompletionDate string               `json:"estimated_completion_date,omitempty"`
	DaysElapsed             int                  `json:"days_elapsed"`
	LastError               string               `json:"last_error,omitempty"`
}

func (s *Service) Status() (*Status, error) {
	campaign, err := s.store.GetActive()
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return &Status{Active: false}, nil
	}

	stats, err := s.store.GetCampaignStats(campaign.ID)
	if err != nil {
		return nil, err
	}
	lastError, err := s.store.LastFailure(campaign.ID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	status := &Status{
		Active:      true,
		CampaignID:  campaign.ID,
		Status:      campaign.Status,
		Sent:        stats["sent"],
		Failed:      stats["failed"],
		Pending:     stats["pending"],
		Total:       stats["sent"] + stats["failed"] + stats["pending"],
		SentToday:   campaign.SentToday,
		DaysElapsed: daysElapsed(campaign.StartedAt, now),
		LastError:   lastError,
	}

	s.mu.Lock()
	if s.nextWakeupAt != nil {
		eta := int(s.nextWakeupAt.Sub(now).Round(time.Minute) / time.Minute)
		if eta < 0 {
			eta = 0
		}
		status.NextWakeupEtaMinutes = &eta
	}
	s.mu.Unlock()

	if status.Pending > 0 {
		days := (status.Pending + avgSendsPerDay - 1) / avgSendsPerDay
		status.EstimatedCompletionDate = now.AddDate(0, 0, days).Format("Jan 2")
	}
	return status, nil
}

// NextWakeupAt exposes the armed wake-up time, nil when disarmed.
func (s *Service) NextWakeupAt() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nextWakeupAt == nil {
		return nil
	}
	at := *s.nextWakeupAt
	return &at
}

// ====================== Timer & time helpers ======================

func (s *Service) arm(delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	at := s.clock.Now().Add(delay)
	s.nextWakeupAt = &at
	s.timer = time.AfterFunc(delay, s.Tick)
	s.log.WithField("delay_min", delay.Minutes()).Debug("wake-up armed")
}

func (s *Service) disarm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.nextWakeupAt = nil
}

func (s *Service) clearWakeup() {
	s.mu.Lock()
	s.timer = nil
	s.nextWakeupAt = nil
	s.mu.Unlock()
}

func (s *Service) inWindow(t time.Time) bool {
	h := t.Hour()
	return h >= s.cfg.WindowStartHour && h < s.cfg.WindowEndHour
}

func (s *Service) underCap(c *model.Campaign, now time.Time) bool {
	if c.LastSendDate != now.Format(dateLayout) {
		return true // rollover pending, counter resets on next tick
	}
	return c.SentToday < s.cfg.DailyCap
}

// untilWindowOpen returns the delay until the window opens: later today if
// before the start hour, otherwise tomorrow.
func (s *Service) untilWindowOpen(now time.Time) time.Duration {
	open := time.Date(now.Year(), now.Month(), now.Day(), s.cfg.WindowStartHour, 0, 0, 0, now.Location())
	if now.Hour() >= s.cfg.WindowStartHour {
		open = open.AddDate(0, 0, 1)
	}
	return open.Sub(now)
}

// randomGap is uniform over [MinGapMinutes, MaxGapMinutes] so send timing
// never looks metronomic.
func (s *Service) randomGap() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	spread := s.cfg.MaxGapMinutes - s.cfg.MinGapMinutes
	gap := s.cfg.MinGapMinutes
	if spread > 0 {
		gap += s.rng.Intn(spread + 1)
	}
	return time.Duration(gap) * time.Minute
}

func (s *Service) requireCurrent() (*model.Campaign, error) {
	campaign, err := s.store.GetActive()
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, appErrors.ErrNoActiveCampaign
	}
	return campaign, nil
}

// daysElapsed counts calendar days since start, ceiling: exactly 24h in is
// still day 1, a minute past is day 2.
func daysElapsed(startedAt, now time.Time) int {
	days := int(math.Ceil(now.Sub(startedAt).Hours() / 24))
	if days < 1 {
		days = 1
	}
	return days
}
