package action

import (
	"context"
	"fmt"

	"github.com/pilot-net/spot-console/console/internal/client"
	"github.com/pilot-net/spot-console/pkg/types"
)

// ForceSwitchRequest asks for an instance to move to a mode, optionally to a
// specific spot pool.
type ForceSwitchRequest struct {
	InstanceID string
	Label      string
	Target     types.Mode
	PoolID     string
	Priority   int
}

// ForceSwitch moves an instance to the requested mode after confirmation
// and reloads the active view. Choosing the pool is the caller's business;
// only the shape of the request is checked here.
func (c *Coordinator) ForceSwitch(ctx context.Context, req ForceSwitchRequest) error {
	if req.InstanceID == "" {
		return invalid("instance", "instance id is required")
	}
	if !req.Target.Valid() {
		return invalid("target", "target must be spot or ondemand")
	}
	if req.Target == types.ModeOnDemand && req.PoolID != "" {
		return invalid("pool", "a pool can only be chosen for a spot switch")
	}
	label := req.Label
	if label == "" {
		label = req.InstanceID
	}

	target := InstanceEntity(req.InstanceID)
	release, err := c.acquire(target)
	if err != nil {
		return err
	}
	defer release()

	msg := fmt.Sprintf("Switch instance %s to %s?", label, req.Target)
	if req.PoolID != "" {
		msg = fmt.Sprintf("Switch instance %s to spot pool %s?", label, req.PoolID)
	}
	prompt := Prompt{
		Action:  "force switch",
		Target:  label,
		Message: msg + " The instance is replaced and briefly unavailable.",
	}
	if err := c.confirm(ctx, prompt); err != nil {
		return err
	}

	err = c.backend.ForceSwitch(ctx, req.InstanceID, client.ForceSwitchRequest{
		Target:   req.Target,
		PoolID:   req.PoolID,
		Priority: req.Priority,
	})
	if err != nil {
		return c.failed("force switch", target, err)
	}

	c.logger.Info("switch requested", "instance", req.InstanceID, "target", req.Target, "pool", req.PoolID)
	return c.reload(ctx, "force switch")
}
