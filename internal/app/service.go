// Package service implements the activity directory operations used by the
// HTTP API and feeds successful roster changes into the journal pipeline.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/okian/mergington/internal/adapters/journal"
	changequeue "github.com/okian/mergington/internal/adapters/mq/queue"
	workerpool "github.com/okian/mergington/internal/adapters/mq/worker"
	"github.com/okian/mergington/internal/adapters/repository"
	"github.com/okian/mergington/internal/domain/model"
	"github.com/okian/mergington/pkg/logger"
	"github.com/okian/mergington/pkg/metrics"
)

const (
	opSignup     = "signup"
	opUnregister = "unregister"

	statsKey = "stats"
)

// Service owns the activity store and the roster change pipeline.
type Service struct {
	mu sync.RWMutex

	store   repository.Store
	journal *journal.Journal
	queue   changequeue.Queue
	pool    *workerpool.Pool
	stats   singleflight.Group

	workerCount int
	queueSize   int
	journalSize int
	now         func() time.Time

	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of journal workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the roster change queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithJournalSize sets how many recent changes the journal keeps.
func WithJournalSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.journalSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source used to stamp roster changes.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Service over store. The change pipeline is idle until
// Start is called; roster operations work either way.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:       store,
		workerCount: 2,
		queueSize:   10_000,
		journalSize: 1024,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("activity-service")
	}

	s.journal = journal.New(s.journalSize)
	return s
}

// Start creates the change queue and launches the journal workers. Workers
// are detached from ctx cancellation so that Stop can drain them.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.queue = changequeue.NewInMemoryQueue(
		changequeue.WithCapacity(s.queueSize),
		changequeue.WithLogger(s.logger.Named("queue")),
	)
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.journal)
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "activity service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("journalSize", s.journalSize),
		logger.Int("activities", s.store.Count(ctx)),
	)
	return nil
}

// Stop closes the change queue and waits for the workers to drain it, or for
// ctx to expire.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info(ctx, "stopping activity service...")
	err := s.pool.Shutdown(ctx)
	s.started = false
	if err != nil {
		s.logger.Warn(ctx, "journal workers did not drain", logger.Error(err))
		return err
	}
	s.logger.Info(ctx, "activity service stopped", logger.Int("journaled", s.journal.Len()))
	return nil
}

// ListActivities returns a deep copy of every activity.
func (s *Service) ListActivities(ctx context.Context) (model.Directory, error) {
	dir, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return dir, nil
}

// Signup adds email to the roster of activity.
func (s *Service) Signup(ctx context.Context, activity, email string) (model.Confirmation, error) {
	r, err := s.store.Signup(ctx, activity, email)
	if err != nil {
		s.reject(ctx, opSignup, activity, email, err)
		return model.Confirmation{}, err
	}

	metrics.RecordSignup(activity, r.Participants)
	s.logger.Info(ctx, "student signed up",
		logger.String("activity", activity),
		logger.String("email", email),
		logger.Int("participants", r.Participants),
	)
	s.publish(ctx, r, model.ChangeSignup)
	return model.Confirmation{Activity: r.Activity, Email: r.Email}, nil
}

// Unregister removes email from the roster of activity.
func (s *Service) Unregister(ctx context.Context, activity, email string) (model.Confirmation, error) {
	r, err := s.store.Unregister(ctx, activity, email)
	if err != nil {
		s.reject(ctx, opUnregister, activity, email, err)
		return model.Confirmation{}, err
	}

	metrics.RecordUnregister(activity, r.Participants)
	s.logger.Info(ctx, "student unregistered",
		logger.String("activity", activity),
		logger.String("email", email),
		logger.Int("participants", r.Participants),
	)
	s.publish(ctx, r, model.ChangeUnregister)
	return model.Confirmation{Activity: r.Activity, Email: r.Email}, nil
}

// History returns up to n journaled changes, newest first.
func (s *Service) History(ctx context.Context, n int) []model.RosterChange {
	return s.journal.Recent(ctx, n)
}

// GetStats returns service statistics for monitoring. Concurrent callers
// share one computation, since counting participants locks every activity.
func (s *Service) GetStats(ctx context.Context) model.Stats {
	v, _, _ := s.stats.Do(statsKey, func() (any, error) {
		return s.collectStats(context.WithoutCancel(ctx)), nil
	})
	stats, _ := v.(model.Stats)
	return stats
}

func (s *Service) collectStats(ctx context.Context) model.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := model.Stats{
		Started:         s.started,
		Activities:      s.store.Count(ctx),
		Participants:    s.store.Participants(ctx),
		QueueCapacity:   s.queueSize,
		JournalLength:   s.journal.Len(),
		JournalCapacity: s.journal.Cap(),
		JournalTotal:    s.journal.Total(),
	}
	if s.started {
		stats.WorkerCount = s.pool.Size()
		stats.QueueLength = s.queue.Len(ctx)
	}
	return stats
}

// publish enqueues the change described by r. A full or stopped pipeline
// never fails the roster operation that produced the change.
func (s *Service) publish(ctx context.Context, r repository.Receipt, kind model.ChangeKind) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := model.RosterChange{
		ID:       uuid.NewString(),
		Seq:      r.Seq,
		Activity: r.Activity,
		Email:    r.Email,
		Kind:     kind,
		At:       s.now(),
	}
	if !s.started {
		s.logger.Debug(ctx, "change pipeline not running, change not journaled", logger.String("id", c.ID))
		return
	}
	if !s.queue.Enqueue(ctx, c) {
		s.logger.Warn(ctx, "change queue full, change not journaled",
			logger.String("id", c.ID),
			logger.String("activity", r.Activity),
			logger.String("kind", string(kind)),
		)
	}
}

func (s *Service) reject(ctx context.Context, op, activity, email string, err error) {
	reason := ""
	switch {
	case errors.Is(err, repository.ErrActivityNotFound):
		reason = metrics.ReasonNotFound
	case errors.Is(err, repository.ErrAlreadyRegistered):
		reason = metrics.ReasonAlreadyRegistered
	case errors.Is(err, repository.ErrNotRegistered):
		reason = metrics.ReasonNotRegistered
	default:
		s.logger.Error(ctx, op+" failed",
			logger.String("activity", activity),
			logger.String("email", email),
			logger.Error(err),
		)
		return
	}

	if mErr := metrics.RecordRejection(op, reason); mErr != nil {
		s.logger.Warn(ctx, "rejection not counted", logger.Error(mErr))
	}
	s.logger.Info(ctx, op+" rejected",
		logger.String("activity", activity),
		logger.String("email", email),
		logger.String("reason", reason),
	)
}
