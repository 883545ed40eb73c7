package action

import (
	"context"

	"github.com/pilot-net/spot-console/console/internal/view"
	"github.com/pilot-net/spot-console/pkg/types"
)

// MarkNotificationRead marks one notification read and patches it in the
// held snapshot.
func (c *Coordinator) MarkNotificationRead(ctx context.Context, notificationID string) error {
	if notificationID == "" {
		return invalid("notification", "notification id is required")
	}
	target := NotificationEntity(notificationID)
	release, err := c.acquire(target)
	if err != nil {
		return err
	}
	defer release()

	if err := c.backend.MarkNotificationRead(ctx, notificationID); err != nil {
		return c.failed("mark notification read", target, err)
	}

	c.patch(func(s *view.Snapshot) {
		if n := s.FindNotification(notificationID); n != nil {
			n.IsRead = true
		}
	})
	return nil
}

// MarkAllNotificationsRead marks every notification in scope read and
// reloads the active view.
func (c *Coordinator) MarkAllNotificationsRead(ctx context.Context, filter types.NotificationFilter) error {
	target := NotificationEntity("all:" + filter.ClientID)
	release, err := c.acquire(target)
	if err != nil {
		return err
	}
	defer release()

	if err := c.backend.MarkAllNotificationsRead(ctx, filter); err != nil {
		return c.failed("mark all notifications read", target, err)
	}
	return c.reload(ctx, "mark all notifications read")
}
