package client

import (
	"context"
	"net/http"

	"github.com/pilot-net/spot-console/pkg/types"
)

// ListClients returns every client with its summary counters.
func (c *Client) ListClients(ctx context.Context) ([]types.Client, error) {
	var result []types.Client
	if err := c.get(ctx, "/api/admin/clients", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GlobalStats returns the fleet-wide admin summary.
func (c *Client) GlobalStats(ctx context.Context) (*types.GlobalStats, error) {
	var result types.GlobalStats
	if err := c.get(ctx, "/api/admin/stats", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateClientRequest is sent to create a client account.
type CreateClientRequest struct {
	Name        string `json:"name"`
	CompanyName string `json:"company_name,omitempty"`
}

// CreateClient creates a client account and returns its registration token.
func (c *Client) CreateClient(ctx context.Context, req CreateClientRequest) (*types.CreatedClient, error) {
	var result types.CreatedClient
	if err := c.post(ctx, "/api/admin/clients/create", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteClient deletes a client. The backend cascades the delete to the
// client's agents, instances and switch history.
func (c *Client) DeleteClient(ctx context.Context, clientID string) error {
	return c.do(ctx, http.MethodDelete, "/api/admin/clients/"+escape(clientID), nil, nil, nil)
}

// ClientToken returns a client's current agent registration token.
func (c *Client) ClientToken(ctx context.Context, clientID string) (string, error) {
	var result types.ClientToken
	if err := c.get(ctx, "/api/admin/clients/"+escape(clientID)+"/token", nil, &result); err != nil {
		return "", err
	}
	return result.Token, nil
}

// RegenerateClientToken replaces a client's registration token. Agents
// using the previous token can no longer register.
func (c *Client) RegenerateClientToken(ctx context.Context, clientID string) (string, error) {
	var result types.ClientToken
	if err := c.post(ctx, "/api/admin/clients/"+escape(clientID)+"/regenerate-token", nil, &result); err != nil {
		return "", err
	}
	return result.Token, nil
}

// Health checks backend liveness and version.
func (c *Client) Health(ctx context.Context) (*types.Health, error) {
	var result types.Health
	if err := c.getRaw(ctx, "/health", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SystemHealth returns database, engine and background job status.
func (c *Client) SystemHealth(ctx context.Context) (*types.SystemHealth, error) {
	var result types.SystemHealth
	if err := c.get(ctx, "/api/system/health", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ModelsStatus returns every decision engine registration and the engine
// configuration.
func (c *Client) ModelsStatus(ctx context.Context) (*types.ModelsStatus, error) {
	var result types.ModelsStatus
	if err := c.get(ctx, "/api/models/status", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
