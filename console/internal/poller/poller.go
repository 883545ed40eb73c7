// Package poller re-runs top-level backend reads on fixed intervals,
// independently of the active view.
//
// # Feeds
//
// Each feed runs in its own goroutine with its own ticker and runs once
// immediately on start:
//
//   - notifications: unread notification count
//   - health: backend liveness plus console process health
//   - summary: global stats and the client list
//   - system: detailed system health (database, engine, recent errors, jobs)
//   - active-view: refreshes the active view if it opts into polling
//
// # Failure Handling
//
// A failed poll keeps the previous feed value; only Status changes. All
// backend calls share a circuit breaker so an unreachable backend is called
// at most once per open period. Nothing is retried beyond the next tick.
package poller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/pilot-net/spot-console/console/internal/metrics"
	"github.com/pilot-net/spot-console/pkg/types"
)

// Feed names.
const (
	FeedNotifications = "notifications"
	FeedHealth        = "health"
	FeedSummary       = "summary"
	FeedSystem        = "system"
	FeedActiveView    = "active-view"
)

// Backend is the read side of the backend API used by the feeds.
type Backend interface {
	Notifications(ctx context.Context, filter types.NotificationFilter) ([]types.Notification, error)
	Health(ctx context.Context) (*types.Health, error)
	GlobalStats(ctx context.Context) (*types.GlobalStats, error)
	ListClients(ctx context.Context) ([]types.Client, error)
	SystemHealth(ctx context.Context) (*types.SystemHealth, error)
}

// ActiveView refreshes whichever view is currently shown.
type ActiveView interface {
	PollActive(ctx context.Context) (bool, error)
}

// FeedCache persists last-known feed values.
type FeedCache interface {
	Load(ctx context.Context, feed string, v any) (bool, error)
	Store(ctx context.Context, feed string, v any) error
}

// Config configures the scheduler. A zero interval disables that feed.
type Config struct {
	NotificationInterval time.Duration
	HealthInterval       time.Duration
	SummaryInterval      time.Duration
	SystemInterval       time.Duration
	ActiveViewInterval   time.Duration

	NotificationFilter types.NotificationFilter

	BreakerFailures    uint32
	BreakerOpenTimeout time.Duration

	Views  ActiveView // optional
	Cache  FeedCache  // optional
	Logger *slog.Logger
}

// DefaultConfig returns the standard poll intervals.
func DefaultConfig() Config {
	return Config{
		NotificationInterval: 30 * time.Second,
		HealthInterval:       30 * time.Second,
		SummaryInterval:      60 * time.Second,
		SystemInterval:       60 * time.Second,
		ActiveViewInterval:   30 * time.Second,
		BreakerFailures:      3,
		BreakerOpenTimeout:   60 * time.Second,
	}
}

// Summary is the global summary feed value.
type Summary struct {
	Stats        types.GlobalStats `json:"stats"`
	Clients      []types.Client    `json:"clients"`
	TotalSavings float64           `json:"total_savings"`
	FetchedAt    time.Time         `json:"fetched_at"`
	FromCache    bool              `json:"from_cache,omitempty"`
}

// System is the system health feed value.
type System struct {
	Health    types.SystemHealth   `json:"health"`
	Issues    metrics.SystemIssues `json:"issues"`
	FetchedAt time.Time            `json:"fetched_at"`
}

// Values are the latest feed values and the status indicator.
type Values struct {
	UnreadNotifications int           `json:"unread_notifications"`
	Health              *types.Health `json:"health,omitempty"`
	Summary             *Summary      `json:"summary,omitempty"`
	System              *System       `json:"system,omitempty"`
	Process             ProcessHealth `json:"process"`
	Status              Status        `json:"status"`
}

// Scheduler owns the feed values.
type Scheduler struct {
	backend Backend
	cfg     Config
	breaker *breaker
	logger  *slog.Logger
	started time.Time

	mu     sync.RWMutex
	values Values

	subMu  sync.RWMutex
	subs   map[int]func(Values)
	nextID int
}

// New creates a scheduler. Nothing runs until Start.
func New(backend Backend, cfg Config) *Scheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "poller")
	return &Scheduler{
		backend: backend,
		cfg:     cfg,
		breaker: newBreaker(cfg.BreakerFailures, cfg.BreakerOpenTimeout, logger),
		logger:  logger,
		started: time.Now(),
		values: Values{
			Status: Status{Backend: ConnectivityUnknown},
		},
		subs: make(map[int]func(Values)),
	}
}

// Values returns a copy of the latest feed values.
func (s *Scheduler) Values() Values {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := s.values
	v.Status.Breaker = s.breaker.state()
	return v
}

// Subscribe registers fn to receive values after every poll. The returned
// function removes the subscription.
func (s *Scheduler) Subscribe(fn func(Values)) func() {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Scheduler) notify() {
	v := s.Values()
	s.subMu.RLock()
	defer s.subMu.RUnlock()
	for _, fn := range s.subs {
		fn(v)
	}
}

// Handle controls a running scheduler.
type Handle struct {
	cancel context.CancelFunc
	wg     sync.WaitGroup
	done   chan struct{}
	once   sync.Once
}

// Stop cancels every feed and waits for its goroutine to exit. No feed
// updates state after Stop returns. Stop is safe to call more than once.
func (h *Handle) Stop() {
	h.once.Do(func() {
		h.cancel()
		h.wg.Wait()
		close(h.done)
	})
}

// Done is closed once Stop has completed.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

type feed struct {
	name     string
	interval time.Duration
	run      func(ctx context.Context) error
}

func (s *Scheduler) feeds() []feed {
	feeds := []feed{
		{FeedNotifications, s.cfg.NotificationInterval, s.pollNotifications},
		{FeedHealth, s.cfg.HealthInterval, s.pollHealth},
		{FeedSummary, s.cfg.SummaryInterval, s.pollSummary},
		{FeedSystem, s.cfg.SystemInterval, s.pollSystem},
	}
	if s.cfg.Views != nil {
		feeds = append(feeds, feed{FeedActiveView, s.cfg.ActiveViewInterval, s.pollActiveView})
	}
	return feeds
}

// Start seeds cached values and launches one loop per enabled feed. The
// loops stop when ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, done: make(chan struct{})}

	s.seedFromCache(ctx)

	for _, f := range s.feeds() {
		if f.interval <= 0 {
			s.logger.Debug("feed disabled", "feed", f.name)
			continue
		}
		h.wg.Add(1)
		go func(f feed) {
			defer h.wg.Done()
			s.runFeedLoop(ctx, f)
		}(f)
	}
	return h
}

// runFeedLoop runs one feed until ctx is cancelled.
func (s *Scheduler) runFeedLoop(ctx context.Context, f feed) {
	s.logger.Info("starting feed", "feed", f.name, "interval", f.interval)

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	// Run immediately on start
	s.runOnce(ctx, f)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("stopping feed", "feed", f.name)
			return
		case <-ticker.C:
			s.runOnce(ctx, f)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, f feed) {
	start := time.Now()
	err := f.run(ctx)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		s.recordFailure(f.name, err)
		s.logger.Warn("poll failed", "feed", f.name, "error", err)
	} else {
		s.logger.Debug("poll complete", "feed", f.name, "elapsed", time.Since(start))
	}
	s.notify()
}

// call runs fn through the breaker and records success.
func (s *Scheduler) call(fn func() error) error {
	if err := s.breaker.do(fn); err != nil {
		return err
	}
	s.recordSuccess()
	return nil
}

func (s *Scheduler) recordSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := &s.values.Status
	st.ConsecutiveFailures = 0
	st.LastSuccess = time.Now()
	st.LastError, st.LastErrorFeed = "", ""
	if s.values.Health != nil && !s.values.Health.Healthy() {
		st.Backend = ConnectivityDegraded
	} else {
		st.Backend = ConnectivityOnline
	}
}

func (s *Scheduler) recordFailure(feedName string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := &s.values.Status
	st.ConsecutiveFailures++
	st.LastError = err.Error()
	st.LastErrorFeed = feedName
	st.Backend = classify(err)
}

func (s *Scheduler) pollNotifications(ctx context.Context) error {
	var notes []types.Notification
	err := s.call(func() (err error) {
		notes, err = s.backend.Notifications(ctx, s.cfg.NotificationFilter)
		return err
	})
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.values.UnreadNotifications = metrics.UnreadCount(notes)
	s.mu.Unlock()
	return nil
}

func (s *Scheduler) pollHealth(ctx context.Context) error {
	proc := collectProcessHealth(s.started)
	s.mu.Lock()
	s.values.Process = proc
	s.mu.Unlock()

	var health *types.Health
	err := s.breaker.do(func() (err error) {
		health, err = s.backend.Health(ctx)
		return err
	})
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.values.Health = health
	s.mu.Unlock()
	s.recordSuccess()
	return nil
}

func (s *Scheduler) pollSummary(ctx context.Context) error {
	var stats *types.GlobalStats
	var clients []types.Client
	err := s.call(func() (err error) {
		if stats, err = s.backend.GlobalStats(ctx); err != nil {
			return err
		}
		clients, err = s.backend.ListClients(ctx)
		return err
	})
	if err != nil {
		return err
	}

	summary := &Summary{
		Stats:        *stats,
		Clients:      clients,
		TotalSavings: stats.Totals.Savings.Float(),
		FetchedAt:    time.Now(),
	}
	s.mu.Lock()
	s.values.Summary = summary
	s.mu.Unlock()

	if s.cfg.Cache != nil {
		if err := s.cfg.Cache.Store(ctx, FeedSummary, summary); err != nil {
			s.logger.Warn("failed to cache summary", "error", err)
		}
	}
	return nil
}

func (s *Scheduler) pollSystem(ctx context.Context) error {
	var health *types.SystemHealth
	err := s.call(func() (err error) {
		health, err = s.backend.SystemHealth(ctx)
		return err
	})
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.values.System = &System{
		Health:    *health,
		Issues:    metrics.SummarizeSystem(health),
		FetchedAt: time.Now(),
	}
	s.mu.Unlock()
	return nil
}

func (s *Scheduler) pollActiveView(ctx context.Context) error {
	refreshed, err := s.cfg.Views.PollActive(ctx)
	if err != nil {
		// View errors are shown by the view itself.
		s.logger.Debug("active view poll failed", "error", err)
		return nil
	}
	if refreshed {
		s.logger.Debug("active view refreshed")
	}
	return nil
}

// seedFromCache shows the last cached summary until the first poll lands.
func (s *Scheduler) seedFromCache(ctx context.Context) {
	if s.cfg.Cache == nil {
		return
	}
	var summary Summary
	ok, err := s.cfg.Cache.Load(ctx, FeedSummary, &summary)
	if err != nil {
		s.logger.Warn("failed to load cached summary", "error", err)
		return
	}
	if !ok {
		return
	}
	summary.FromCache = true

	s.mu.Lock()
	if s.values.Summary == nil {
		s.values.Summary = &summary
	}
	s.mu.Unlock()
	s.logger.Info("seeded summary from cache", "fetched_at", summary.FetchedAt)
}

// IsUnavailable reports whether err is a poll skipped by the breaker.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrBackendUnavailable)
}
