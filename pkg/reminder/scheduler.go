// Package reminder schedules timed reminders created by the agent.
//
// A fired timer never trusts its closure: it re-reads the stored reminder and
// acts only when that reminder still exists and is pending. Deleting or
// dismissing a reminder therefore cancels it even if its timer is already
// running.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/entrhq/tabpilot/pkg/logging"
	"github.com/entrhq/tabpilot/pkg/types"
)

// NotificationTitle is the title of fired reminder notifications.
const NotificationTitle = "Reminder"

var (
	// ErrInvalidDuration is returned for non-positive delays.
	ErrInvalidDuration = errors.New("reminder duration must be positive")

	// ErrNotFound is returned for unknown reminder ids.
	ErrNotFound = errors.New("reminder not found")
)

// Store persists the reminder list.
type Store interface {
	Reminders() ([]types.Reminder, error)
	SaveReminders([]types.Reminder) error
}

// Notifier delivers fired reminders. browser.Host satisfies it.
type Notifier interface {
	Notify(ctx context.Context, title, message string) error
	Chime(ctx context.Context) error
}

// AfterFunc arms f to run after d and returns a function that disarms it.
type AfterFunc func(d time.Duration, f func()) (stop func() bool)

func realAfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

type armed struct {
	gen  uint64
	stop func() bool
}

// Scheduler arms timers for pending reminders.
type Scheduler struct {
	mu       sync.Mutex
	store    Store
	notifier Notifier
	timers   map[string]armed
	gen      uint64

	now       func() time.Time
	afterFunc AfterFunc
	onFire    func(types.Reminder)
	logger    *logging.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithAfterFunc replaces time.AfterFunc.
func WithAfterFunc(fn AfterFunc) Option {
	return func(s *Scheduler) { s.afterFunc = fn }
}

// WithOnFire registers a callback run after a reminder completes.
func WithOnFire(fn func(types.Reminder)) Option {
	return func(s *Scheduler) { s.onFire = fn }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// New creates a scheduler. notifier may be nil.
func New(store Store, notifier Notifier, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:     store,
		notifier:  notifier,
		timers:    make(map[string]armed),
		now:       time.Now,
		afterFunc: realAfterFunc,
		logger:    logging.Discard("reminder"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule records a pending reminder firing after d and arms its timer.
func (s *Scheduler) Schedule(ctx context.Context, message string, d time.Duration) (*types.Reminder, error) {
	if d <= 0 {
		return nil, ErrInvalidDuration
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.store.Reminders()
	if err != nil {
		return nil, fmt.Errorf("failed to load reminders: %w", err)
	}

	now := s.now()
	r := types.Reminder{
		ID:        uuid.New().String(),
		Message:   strings.TrimSpace(message),
		TriggerAt: now.Add(d),
		CreatedAt: now,
		Status:    types.ReminderPending,
	}
	if err := s.store.SaveReminders(append(list, r)); err != nil {
		return nil, fmt.Errorf("failed to save reminder: %w", err)
	}

	s.armLocked(r.ID, d)
	s.logger.Infof("reminder %s scheduled for %s", r.ID, r.TriggerAt.Format(time.RFC3339))
	return &r, nil
}

// Delete removes a reminder. A timer that fires afterwards does nothing.
func (s *Scheduler) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, idx, err := s.findLocked(id)
	if err != nil {
		return err
	}
	list = append(list[:idx], list[idx+1:]...)
	if err := s.store.SaveReminders(list); err != nil {
		return fmt.Errorf("failed to save reminders: %w", err)
	}
	s.disarmLocked(id)
	return nil
}

// Snooze moves a reminder's trigger to now+d and returns it to pending.
func (s *Scheduler) Snooze(ctx context.Context, id string, d time.Duration) (*types.Reminder, error) {
	if d <= 0 {
		return nil, ErrInvalidDuration
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list, idx, err := s.findLocked(id)
	if err != nil {
		return nil, err
	}
	list[idx].TriggerAt = s.now().Add(d)
	list[idx].Status = types.ReminderPending
	if err := s.store.SaveReminders(list); err != nil {
		return nil, fmt.Errorf("failed to save reminders: %w", err)
	}

	s.armLocked(id, d)
	r := list[idx]
	return &r, nil
}

// Dismiss marks a reminder dismissed so it never fires.
func (s *Scheduler) Dismiss(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, idx, err := s.findLocked(id)
	if err != nil {
		return err
	}
	list[idx].Status = types.ReminderDismissed
	if err := s.store.SaveReminders(list); err != nil {
		return fmt.Errorf("failed to save reminders: %w", err)
	}
	s.disarmLocked(id)
	return nil
}

// List returns the stored reminders.
func (s *Scheduler) List(ctx context.Context) ([]types.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Reminders()
}

// Restore arms timers for every pending reminder, e.g. after a restart.
// Overdue reminders fire immediately. It returns the number armed.
func (s *Scheduler) Restore(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.store.Reminders()
	if err != nil {
		return 0, fmt.Errorf("failed to load reminders: %w", err)
	}

	now := s.now()
	n := 0
	for _, r := range list {
		if r.Status != types.ReminderPending {
			continue
		}
		d := r.TriggerAt.Sub(now)
		if d < 0 {
			d = 0
		}
		s.armLocked(r.ID, d)
		n++
	}
	return n, nil
}

// Stop disarms every timer without touching stored state.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.timers {
		s.disarmLocked(id)
	}
}

func (s *Scheduler) findLocked(id string) ([]types.Reminder, int, error) {
	list, err := s.store.Reminders()
	if err != nil {
		return nil, -1, fmt.Errorf("failed to load reminders: %w", err)
	}
	for i, r := range list {
		if r.ID == id {
			return list, i, nil
		}
	}
	return nil, -1, fmt.Errorf("%w: %s", ErrNotFound, id)
}

func (s *Scheduler) armLocked(id string, d time.Duration) {
	s.disarmLocked(id)
	s.gen++
	gen := s.gen
	stop := s.afterFunc(d, func() { s.fire(id, gen) })
	s.timers[id] = armed{gen: gen, stop: stop}
}

func (s *Scheduler) disarmLocked(id string) {
	if t, ok := s.timers[id]; ok {
		t.stop()
		delete(s.timers, id)
	}
}

// fire completes a reminder if its timer is current and the stored reminder
// is still pending, then notifies.
func (s *Scheduler) fire(id string, gen uint64) {
	s.mu.Lock()
	if t, ok := s.timers[id]; !ok || t.gen != gen {
		s.mu.Unlock()
		return
	}
	delete(s.timers, id)

	list, idx, err := s.findLocked(id)
	if err != nil || list[idx].Status != types.ReminderPending {
		s.mu.Unlock()
		if err != nil && !errors.Is(err, ErrNotFound) {
			s.logger.Warnf("reminder %s: %v", id, err)
		}
		return
	}

	list[idx].Status = types.ReminderCompleted
	if err := s.store.SaveReminders(list); err != nil {
		s.mu.Unlock()
		s.logger.Errorf("failed to complete reminder %s: %v", id, err)
		return
	}
	r := list[idx]
	s.mu.Unlock()

	s.logger.Infof("reminder %s fired", id)
	if s.notifier != nil {
		ctx := context.Background()
		if err := s.notifier.Notify(ctx, NotificationTitle, r.Message); err != nil {
			s.logger.Warnf("reminder notification failed: %v", err)
		}
		if err := s.notifier.Chime(ctx); err != nil {
			s.logger.Warnf("reminder chime failed: %v", err)
		}
	}
	if s.onFire != nil {
		s.onFire(r)
	}
}
