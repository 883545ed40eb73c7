package client

import (
	"context"
	"net/http"

	"github.com/pilot-net/spot-console/pkg/types"
)

// ToggleAgentEnabled enables or disables an agent.
func (c *Client) ToggleAgentEnabled(ctx context.Context, agentID string, enabled bool) error {
	body := struct {
		Enabled bool `json:"enabled"`
	}{Enabled: enabled}
	return c.post(ctx, "/api/client/agents/"+escape(agentID)+"/toggle-enabled", body, nil)
}

// UpdateAgentSettings sets an agent's automation switches.
func (c *Client) UpdateAgentSettings(ctx context.Context, agentID string, settings types.AgentSettings) error {
	return c.post(ctx, "/api/client/agents/"+escape(agentID)+"/settings", settings, nil)
}

// UpdateAgentConfig replaces an agent's switching policy.
func (c *Client) UpdateAgentConfig(ctx context.Context, agentID string, cfg types.AgentConfig) error {
	return c.do(ctx, http.MethodPut, "/api/client/agents/"+escape(agentID)+"/config", nil, cfg, nil)
}

// RetireAgent soft-deletes an agent. Its history is preserved and it drops
// out of default agent listings.
func (c *Client) RetireAgent(ctx context.Context, agentID, reason string) error {
	body := struct {
		Reason string `json:"reason,omitempty"`
	}{Reason: reason}
	return c.post(ctx, "/api/client/agents/"+escape(agentID)+"/retire", body, nil)
}

// DeleteAgent permanently removes an agent row. Switch events keep a null
// agent reference.
func (c *Client) DeleteAgent(ctx context.Context, agentID string) error {
	return c.do(ctx, http.MethodDelete, "/api/client/agents/"+escape(agentID), nil, nil, nil)
}

// ForceSwitchRequest asks the owning agent to move an instance.
type ForceSwitchRequest struct {
	Target   types.Mode `json:"target"`
	PoolID   string     `json:"pool_id,omitempty"`
	Priority int        `json:"priority,omitempty"`
}

// ForceSwitch queues a manual switch command for an instance.
func (c *Client) ForceSwitch(ctx context.Context, instanceID string, req ForceSwitchRequest) error {
	return c.post(ctx, "/api/client/instances/"+escape(instanceID)+"/force-switch", req, nil)
}
