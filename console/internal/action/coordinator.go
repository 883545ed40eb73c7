// Package action executes confirmed mutations against single backend
// entities and reconciles the active view afterwards.
//
// # Protocol
//
// Each action runs the same steps:
//
//  1. Validate inputs locally; a ValidationError never reaches the network
//  2. Mark the entity busy; a second mutation of it fails with ErrBusy
//  3. Ask the Confirmer when the action is irreversible or broad
//  4. Dispatch exactly one backend call
//  5. On success, patch or reload the active view
//
// Local patches are only applied after the backend confirmed the write, so
// a failed mutation leaves the held snapshot exactly as it was.
package action

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/pilot-net/spot-console/console/internal/client"
	"github.com/pilot-net/spot-console/console/internal/view"
	"github.com/pilot-net/spot-console/pkg/types"
)

// Backend is the write side of the backend API, plus the client lookup
// that typed delete confirmation checks against.
type Backend interface {
	ToggleAgentEnabled(ctx context.Context, agentID string, enabled bool) error
	UpdateAgentSettings(ctx context.Context, agentID string, settings types.AgentSettings) error
	UpdateAgentConfig(ctx context.Context, agentID string, cfg types.AgentConfig) error
	RetireAgent(ctx context.Context, agentID, reason string) error
	DeleteAgent(ctx context.Context, agentID string) error
	GetClient(ctx context.Context, clientID string) (*types.ClientDetail, error)
	CreateClient(ctx context.Context, req client.CreateClientRequest) (*types.CreatedClient, error)
	DeleteClient(ctx context.Context, clientID string) error
	RegenerateClientToken(ctx context.Context, clientID string) (string, error)
	ForceSwitch(ctx context.Context, instanceID string, req client.ForceSwitchRequest) error
	MarkNotificationRead(ctx context.Context, notificationID string) error
	MarkAllNotificationsRead(ctx context.Context, filter types.NotificationFilter) error
}

// Views is the part of the view orchestrator used for reconciliation.
type Views interface {
	Active() (view.Descriptor, bool)
	Refresh(ctx context.Context) (view.State, error)
	Patch(fn func(*view.Snapshot)) error
}

// Entity identifies the target of a mutation for busy tracking.
type Entity struct {
	Kind string
	ID   string
}

func (e Entity) String() string {
	return e.Kind + " " + e.ID
}

// AgentEntity, ClientEntity, InstanceEntity and NotificationEntity name
// mutation targets.
func AgentEntity(id string) Entity        { return Entity{"agent", id} }
func ClientEntity(id string) Entity       { return Entity{"client", id} }
func InstanceEntity(id string) Entity     { return Entity{"instance", id} }
func NotificationEntity(id string) Entity { return Entity{"notification", id} }

// Coordinator runs mutations.
type Coordinator struct {
	backend   Backend
	views     Views
	confirmer Confirmer
	logger    *slog.Logger

	mu   sync.Mutex
	busy map[Entity]struct{}
}

// New creates a coordinator. A nil confirmer declines every prompt.
func New(backend Backend, views Views, confirmer Confirmer, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	if confirmer == nil {
		confirmer = declineAll{}
	}
	return &Coordinator{
		backend:   backend,
		views:     views,
		confirmer: confirmer,
		logger:    logger.With("component", "action"),
		busy:      make(map[Entity]struct{}),
	}
}

// Busy reports whether a mutation of e is in flight.
func (c *Coordinator) Busy(e Entity) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.busy[e]
	return ok
}

// acquire marks e busy. The returned function releases it.
func (c *Coordinator) acquire(e Entity) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.busy[e]; ok {
		return nil, ErrBusy
	}
	c.busy[e] = struct{}{}
	return func() {
		c.mu.Lock()
		delete(c.busy, e)
		c.mu.Unlock()
	}, nil
}

// confirm asks the confirmer and checks the typed answer when the prompt
// demands one.
func (c *Coordinator) confirm(ctx context.Context, p Prompt) error {
	answer, err := c.confirmer.Confirm(ctx, p)
	if err != nil {
		return err
	}
	if !answer.Confirmed {
		return ErrDeclined
	}
	if p.TypeToConfirm != "" && answer.Typed != p.TypeToConfirm {
		return invalid("confirmation", "typed name does not match %q", p.TypeToConfirm)
	}
	return nil
}

// failed logs and wraps a rejected write.
func (c *Coordinator) failed(action string, target Entity, err error) error {
	c.logger.Warn("action failed", "action", action, "target", target.String(), "error", err)
	return &NotAppliedError{Action: action, Target: target.String(), Err: err}
}

// patch applies fn to the active view after a successful write. A view
// without data has nothing to reconcile.
func (c *Coordinator) patch(fn func(*view.Snapshot)) {
	if c.views == nil {
		return
	}
	err := c.views.Patch(fn)
	if err != nil && !errors.Is(err, view.ErrNoActiveView) && !errors.Is(err, view.ErrNoSnapshot) {
		c.logger.Warn("patch failed", "error", err)
	}
}

// reload re-runs the active view load after a successful write.
func (c *Coordinator) reload(ctx context.Context, action string) error {
	if c.views == nil {
		return nil
	}
	if _, ok := c.views.Active(); !ok {
		return nil
	}
	_, err := c.views.Refresh(ctx)
	if err == nil || errors.Is(err, view.ErrNoActiveView) || errors.Is(err, view.ErrDiscarded) {
		return nil
	}
	c.logger.Warn("reconcile failed", "action", action, "error", err)
	return &ReconcileError{Action: action, Err: err}
}
