package action

import (
	"context"
	"fmt"
	"strings"

	"github.com/pilot-net/spot-console/console/internal/view"
	"github.com/pilot-net/spot-console/pkg/types"
)

// ToggleAgent enables or disables an agent. On success the held snapshot is
// patched in place.
func (c *Coordinator) ToggleAgent(ctx context.Context, agentID string, enabled bool) error {
	if agentID == "" {
		return invalid("agent", "agent id is required")
	}
	target := AgentEntity(agentID)
	release, err := c.acquire(target)
	if err != nil {
		return err
	}
	defer release()

	if err := c.backend.ToggleAgentEnabled(ctx, agentID, enabled); err != nil {
		return c.failed("toggle agent", target, err)
	}

	c.patch(func(s *view.Snapshot) {
		if a := s.FindAgent(agentID); a != nil {
			a.Enabled = types.Flag(enabled)
		}
	})
	c.logger.Info("agent toggled", "agent", agentID, "enabled", enabled)
	return nil
}

// UpdateAgentSettings sets an agent's automation switches. On success the
// held snapshot is patched; on failure it keeps the last confirmed values.
func (c *Coordinator) UpdateAgentSettings(ctx context.Context, agentID string, settings types.AgentSettings) error {
	if agentID == "" {
		return invalid("agent", "agent id is required")
	}
	target := AgentEntity(agentID)
	release, err := c.acquire(target)
	if err != nil {
		return err
	}
	defer release()

	if err := c.backend.UpdateAgentSettings(ctx, agentID, settings); err != nil {
		return c.failed("update agent settings", target, err)
	}

	c.patch(func(s *view.Snapshot) {
		if a := s.FindAgent(agentID); a != nil {
			a.AutoSwitchEnabled = types.Flag(settings.AutoSwitchEnabled)
			a.AutoTerminateEnabled = types.Flag(settings.AutoTerminateEnabled)
		}
	})
	c.logger.Info("agent settings updated", "agent", agentID,
		"auto_switch", settings.AutoSwitchEnabled,
		"auto_terminate", settings.AutoTerminateEnabled)
	return nil
}

// UpdateAgentConfig replaces an agent's switching policy and reloads the
// active view.
func (c *Coordinator) UpdateAgentConfig(ctx context.Context, agentID string, cfg types.AgentConfig) error {
	if agentID == "" {
		return invalid("agent", "agent id is required")
	}
	if err := cfg.Validate(); err != nil {
		return invalid("config", "%v", err)
	}
	target := AgentEntity(agentID)
	release, err := c.acquire(target)
	if err != nil {
		return err
	}
	defer release()

	if err := c.backend.UpdateAgentConfig(ctx, agentID, cfg); err != nil {
		return c.failed("update agent config", target, err)
	}
	c.logger.Info("agent config updated", "agent", agentID)
	return c.reload(ctx, "update agent config")
}

// RemovalMode selects how an agent is removed.
type RemovalMode string

const (
	// RemovalRetire disables the agent and keeps all of its history.
	RemovalRetire RemovalMode = "retire"
	// RemovalDelete removes the agent row. Switch history stays queryable
	// without an agent reference.
	RemovalDelete RemovalMode = "delete"
)

// ParseRemovalMode parses "retire" or "delete".
func ParseRemovalMode(s string) (RemovalMode, error) {
	switch m := RemovalMode(strings.ToLower(strings.TrimSpace(s))); m {
	case RemovalRetire, RemovalDelete:
		return m, nil
	}
	return "", fmt.Errorf("unknown removal mode %q (want retire or delete)", s)
}

// RemoveAgentRequest names the agent and how to remove it. Mode has no
// default.
type RemoveAgentRequest struct {
	AgentID string
	Label   string // hostname or other display name
	Mode    RemovalMode
	Reason  string
}

// RemoveAgent retires or permanently deletes an agent after confirmation,
// then reloads the active view.
func (c *Coordinator) RemoveAgent(ctx context.Context, req RemoveAgentRequest) error {
	if req.AgentID == "" {
		return invalid("agent", "agent id is required")
	}
	if req.Mode != RemovalRetire && req.Mode != RemovalDelete {
		return invalid("mode", "choose retire or delete explicitly")
	}
	label := req.Label
	if label == "" {
		label = req.AgentID
	}

	target := AgentEntity(req.AgentID)
	release, err := c.acquire(target)
	if err != nil {
		return err
	}
	defer release()

	prompt := Prompt{
		Action: string(req.Mode) + " agent",
		Target: label,
	}
	if req.Mode == RemovalRetire {
		prompt.Message = fmt.Sprintf("Retire agent %s? It stops switching instances and is hidden from the agent list. Its switch history is kept.", label)
	} else {
		prompt.Message = fmt.Sprintf("Permanently delete agent %s? This cannot be undone. Switch history is kept without a reference to this agent.", label)
		prompt.Removes = []string{"agent record", "agent configuration", "instance assignments"}
	}
	if err := c.confirm(ctx, prompt); err != nil {
		return err
	}

	if req.Mode == RemovalRetire {
		reason := req.Reason
		if reason == "" {
			reason = "retired from console"
		}
		err = c.backend.RetireAgent(ctx, req.AgentID, reason)
	} else {
		err = c.backend.DeleteAgent(ctx, req.AgentID)
	}
	if err != nil {
		return c.failed(prompt.Action, target, err)
	}

	c.logger.Info("agent removed", "agent", req.AgentID, "mode", req.Mode)
	return c.reload(ctx, prompt.Action)
}
