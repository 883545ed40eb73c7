package client

import (
	"context"

	"github.com/pilot-net/spot-console/pkg/types"
)

// GetClient returns a client's overview including its last decision.
func (c *Client) GetClient(ctx context.Context, clientID string) (*types.ClientDetail, error) {
	var result types.ClientDetail
	if err := c.get(ctx, "/api/client/"+escape(clientID), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListAgents returns a client's agents. Retired agents are only included
// when the filter asks for them.
func (c *Client) ListAgents(ctx context.Context, clientID string, filter types.AgentFilter) ([]types.Agent, error) {
	var result []types.Agent
	if err := c.get(ctx, "/api/client/"+escape(clientID)+"/agents", filter.Values(), &result); err != nil {
		return nil, err
	}
	return result, nil
}

// ListInstances returns a client's active instances.
func (c *Client) ListInstances(ctx context.Context, clientID string, filter types.InstanceFilter) ([]types.Instance, error) {
	var result []types.Instance
	if err := c.get(ctx, "/api/client/"+escape(clientID)+"/instances", filter.Values(), &result); err != nil {
		return nil, err
	}
	return result, nil
}

// SwitchHistory returns a client's switch events, newest first.
func (c *Client) SwitchHistory(ctx context.Context, clientID string, filter types.HistoryFilter) ([]types.SwitchEvent, error) {
	var result []types.SwitchEvent
	if err := c.get(ctx, "/api/client/"+escape(clientID)+"/switch-history", filter.Values(), &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Savings returns a client's daily, monthly and per-type savings.
func (c *Client) Savings(ctx context.Context, clientID string, filter types.SavingsFilter) (*types.SavingsReport, error) {
	var result types.SavingsReport
	if err := c.get(ctx, "/api/client/"+escape(clientID)+"/savings", filter.Values(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// LiveData returns the telemetry a client's agents reported in the last
// hour, newest first. The backend caps the list at 50 rows.
func (c *Client) LiveData(ctx context.Context, clientID string) ([]types.LiveSample, error) {
	var result []types.LiveSample
	if err := c.get(ctx, "/api/client/"+escape(clientID)+"/live-data", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// AgentConfig returns an agent's switching policy.
func (c *Client) AgentConfig(ctx context.Context, agentID string) (*types.AgentConfig, error) {
	var result types.AgentConfig
	if err := c.get(ctx, "/api/client/agents/"+escape(agentID)+"/config", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// InstancePools returns the current placement and alternate spot pools
// for an instance, as ranked by the backend.
func (c *Client) InstancePools(ctx context.Context, instanceID string) (*types.PoolOptions, error) {
	var result types.PoolOptions
	if err := c.get(ctx, "/api/client/instances/"+escape(instanceID)+"/pools", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
