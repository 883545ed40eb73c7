// Package console wires the backend client, view orchestrator, action
// coordinator and polling scheduler into one running console.
//
// # Console Lifecycle
//
//  1. Resolve the admin token
//  2. Create the backend client
//  3. Connect the optional feed cache
//  4. Open a view and start the poller
//  5. Run until shutdown signal
package console

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/pilot-net/spot-console/console/internal/action"
	"github.com/pilot-net/spot-console/console/internal/cache"
	"github.com/pilot-net/spot-console/console/internal/client"
	"github.com/pilot-net/spot-console/console/internal/config"
	"github.com/pilot-net/spot-console/console/internal/poller"
	"github.com/pilot-net/spot-console/console/internal/secrets"
	"github.com/pilot-net/spot-console/console/internal/view"
)

// The backend client serves every consumer.
var (
	_ view.Source      = (*client.Client)(nil)
	_ action.Backend   = (*client.Client)(nil)
	_ poller.Backend   = (*client.Client)(nil)
	_ poller.FeedCache = (*cache.Cache)(nil)
)

// Version is set at build time.
var Version = "dev"

// Console is one operator session against the backend.
type Console struct {
	cfg     *config.Config
	client  *client.Client
	views   *view.Orchestrator
	actions *action.Coordinator
	poller  *poller.Scheduler
	cache   *cache.Cache
	logger  *slog.Logger
}

// New creates a console. The confirmer answers destructive-action prompts;
// nil declines them all.
func New(ctx context.Context, cfg *config.Config, confirmer action.Confirmer, logger *slog.Logger) (*Console, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	tokens, err := secrets.NewTokenSource(secrets.Config{
		Backend:   cfg.Auth.Backend,
		Token:     cfg.Auth.Token,
		TokenFile: cfg.Auth.TokenFile,
		OnePassword: secrets.OnePasswordConfig{
			Host:    cfg.Auth.OnePassword.Host,
			Token:   cfg.Auth.OnePassword.Token,
			VaultID: cfg.Auth.OnePassword.VaultID,
			Item:    cfg.Auth.OnePassword.Item,
			Field:   cfg.Auth.OnePassword.Field,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("token source: %w", err)
	}
	token, err := tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving admin token from %s: %w", tokens.Name(), err)
	}

	backend := client.NewClient(client.Config{
		BaseURL:            cfg.Backend.URL,
		AuthToken:          token,
		InsecureSkipVerify: cfg.Backend.InsecureSkipVerify,
		Timeout:            cfg.Backend.Timeout,
		RateLimit:          cfg.Backend.RateLimit,
		UserAgent:          cfg.Backend.UserAgent,
		Logger:             logger,
	})

	c := &Console{
		cfg:    cfg,
		client: backend,
		logger: logger,
	}

	if cfg.Cache.RedisURL != "" {
		fc, err := cache.Open(ctx, cfg.Cache.RedisURL, cache.Options{
			Namespace: cfg.Cache.Namespace,
			TTL:       cfg.Cache.TTL,
			Logger:    logger,
		})
		if err != nil {
			// The cache only seeds feeds at startup; run without it.
			logger.Warn("feed cache unavailable", "error", err)
		} else {
			c.cache = fc
		}
	}

	c.views = view.New(backend, logger)
	c.actions = action.New(backend, c.views, confirmer, logger)

	pcfg := poller.Config{
		NotificationInterval: cfg.Polling.NotificationInterval,
		HealthInterval:       cfg.Polling.HealthInterval,
		SummaryInterval:      cfg.Polling.SummaryInterval,
		SystemInterval:       cfg.Polling.SystemInterval,
		ActiveViewInterval:   cfg.Polling.ActiveViewInterval,
		BreakerFailures:      cfg.Breaker.Failures,
		BreakerOpenTimeout:   cfg.Breaker.OpenTimeout,
		Views:                c.views,
		Logger:               logger,
	}
	if c.cache != nil {
		pcfg.Cache = c.cache
	}
	c.poller = poller.New(backend, pcfg)

	logger.Info("console ready",
		"backend", cfg.Backend.URL,
		"token_source", tokens.Name(),
		"cache", c.cache != nil,
		"version", Version)

	return c, nil
}

// Views returns the view orchestrator.
func (c *Console) Views() *view.Orchestrator { return c.views }

// Actions returns the action coordinator.
func (c *Console) Actions() *action.Coordinator { return c.actions }

// Poller returns the polling scheduler.
func (c *Console) Poller() *poller.Scheduler { return c.poller }

// Client returns the backend client for reads outside any view.
func (c *Console) Client() *client.Client { return c.client }

// Update is one change observed while watching.
type Update struct {
	View   *view.State    `json:"view,omitempty"`
	Values *poller.Values `json:"feeds,omitempty"`
}

// Watch opens d, starts the poller and delivers every view and feed change
// to fn until ctx is cancelled. fn is called from several goroutines.
func (c *Console) Watch(ctx context.Context, d view.Descriptor, fn func(Update)) error {
	unsubView := c.views.Subscribe(func(s view.State) {
		fn(Update{View: &s})
	})
	defer unsubView()
	unsubFeeds := c.poller.Subscribe(func(v poller.Values) {
		fn(Update{Values: &v})
	})
	defer unsubFeeds()

	if _, err := c.views.Open(ctx, d); err != nil {
		// A failed first load is shown as an errored view; polling retries it.
		c.logger.Warn("initial view load failed", "view", d.Key(), "error", err)
	}

	defer c.views.Close()
	h := c.poller.Start(ctx)
	defer h.Stop()

	<-ctx.Done()
	c.logger.Info("watch stopped", "view", d.Key())
	return nil
}

// Load opens d once and returns its settled state.
func (c *Console) Load(ctx context.Context, d view.Descriptor) (view.State, error) {
	defer c.views.Close()
	return c.views.Open(ctx, d)
}

// Close releases the feed cache connection.
func (c *Console) Close() error {
	if c.cache != nil {
		return c.cache.Close()
	}
	return nil
}
