package action

import (
	"context"
	"fmt"
	"strings"

	"github.com/pilot-net/spot-console/console/internal/client"
	"github.com/pilot-net/spot-console/pkg/types"
)

// CreateClient creates a tenant account and reloads the active view. The
// result carries the new client's registration token.
func (c *Coordinator) CreateClient(ctx context.Context, name, companyName string) (*types.CreatedClient, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "client name is required")
	}

	target := ClientEntity("new:" + name)
	release, err := c.acquire(target)
	if err != nil {
		return nil, err
	}
	defer release()

	created, err := c.backend.CreateClient(ctx, client.CreateClientRequest{
		Name:        name,
		CompanyName: strings.TrimSpace(companyName),
	})
	if err != nil {
		return nil, c.failed("create client", target, err)
	}

	c.logger.Info("client created", "client", created.ID, "name", created.Name)
	return created, c.reload(ctx, "create client")
}

// ClientRef identifies a client by id and, optionally, the display name the
// caller believes it has.
type ClientRef struct {
	ID   string
	Name string
}

// DeleteClient permanently deletes a client and everything under it. The
// client's name is read from the backend and the user must type it exactly
// before anything is sent. A caller-supplied name that differs from it is
// rejected.
func (c *Coordinator) DeleteClient(ctx context.Context, ref ClientRef) error {
	if ref.ID == "" {
		return invalid("client", "client id is required")
	}

	target := ClientEntity(ref.ID)
	release, err := c.acquire(target)
	if err != nil {
		return err
	}
	defer release()

	detail, err := c.backend.GetClient(ctx, ref.ID)
	if err != nil {
		return invalid("client", "cannot confirm deletion of %s: %v", ref.ID, err)
	}
	name := detail.Name
	if name == "" {
		return invalid("client", "client %s has no name to confirm deletion with", ref.ID)
	}
	if ref.Name != "" && ref.Name != name {
		return invalid("client", "client %s is named %q, not %q", ref.ID, name, ref.Name)
	}

	prompt := Prompt{
		Action:        "delete client",
		Target:        name,
		Message:       fmt.Sprintf("Permanently delete client %s and all of its data? This cannot be undone.", name),
		Removes:       []string{"agents", "instances", "switch history", "savings records", "notifications"},
		TypeToConfirm: name,
	}
	if err := c.confirm(ctx, prompt); err != nil {
		return err
	}

	if err := c.backend.DeleteClient(ctx, ref.ID); err != nil {
		return c.failed("delete client", target, err)
	}

	c.logger.Info("client deleted", "client", ref.ID, "name", name)
	return c.reload(ctx, "delete client")
}

// RegenerateToken issues a new registration token for a client after
// confirmation. Agents using the old token must be reconfigured.
func (c *Coordinator) RegenerateToken(ctx context.Context, ref ClientRef) (string, error) {
	if ref.ID == "" {
		return "", invalid("client", "client id is required")
	}
	label := ref.Name
	if label == "" {
		label = ref.ID
	}

	target := ClientEntity(ref.ID)
	release, err := c.acquire(target)
	if err != nil {
		return "", err
	}
	defer release()

	prompt := Prompt{
		Action:  "regenerate token",
		Target:  label,
		Message: fmt.Sprintf("Regenerate the token for %s? The current token stops working and every agent must be reconfigured.", label),
	}
	if err := c.confirm(ctx, prompt); err != nil {
		return "", err
	}

	token, err := c.backend.RegenerateClientToken(ctx, ref.ID)
	if err != nil {
		return "", c.failed("regenerate token", target, err)
	}

	c.logger.Info("client token regenerated", "client", ref.ID)
	return token, nil
}
