package feature

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sarthak-bm-ai/Feature-Store-CRUD/internal/metrics"
)

// DefaultNotifyTimeout bounds a single notification publish.
const DefaultNotifyTimeout = 10 * time.Second

// Service runs the read and write flows over a Gateway, enforcing the category Policy
// and announcing writes through a Notifier.
type Service struct {
	gateway       Gateway
	policy        *Policy
	notifier      Notifier
	logger        *slog.Logger
	now           func() time.Time
	notifyTimeout time.Duration

	inflight sync.WaitGroup
}

// NewService creates a new Service. A nil notifier disables notifications.
func NewService(gateway Gateway, policy *Policy, notifier Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if policy == nil {
		policy = NewPolicy(nil, nil)
	}
	return &Service{
		gateway:       gateway,
		policy:        policy,
		notifier:      notifier,
		logger:        logger,
		now:           nowUTC,
		notifyTimeout: DefaultNotifyTimeout,
	}
}

// Policy returns the category policy of the service.
func (s *Service) Policy() *Policy { return s.policy }

// SetClock replaces the time source used for record timestamps.
func (s *Service) SetClock(now func() time.Time) {
	s.now = func() time.Time { return now().UTC().Truncate(time.Microsecond) }
}

// SetNotifyTimeout sets the deadline of each notification publish.
func (s *Service) SetNotifyTimeout(d time.Duration) {
	if d > 0 {
		s.notifyTimeout = d
	}
}

// notify publishes e in the background. The publish outlives the request that caused
// it and never reports failure to the caller.
func (s *Service) notify(ctx context.Context, e Event) {
	if s.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				metrics.NotifyOutcome(metrics.OutcomeError)
				s.logger.Error("notifier panicked", "category", e.Category, "panic", fmt.Sprint(r))
			}
		}()

		if err := s.notifier.Publish(ctx, e); err != nil {
			metrics.NotifyOutcome(metrics.OutcomeError)
			s.logger.Warn("publish feature event failed",
				"entity_type", string(e.EntityKind), "entity_id", e.EntityID,
				"category", e.Category, "error", err)
			return
		}
		metrics.NotifyOutcome(metrics.OutcomeOK)
	}()
}

// Close waits for in-flight notifications, or until ctx is done.
func (s *Service) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
