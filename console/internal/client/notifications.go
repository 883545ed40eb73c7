package client

import (
	"context"
	"net/http"

	"github.com/pilot-net/spot-console/pkg/types"
)

// Notifications lists operational alerts, newest first.
func (c *Client) Notifications(ctx context.Context, filter types.NotificationFilter) ([]types.Notification, error) {
	var result []types.Notification
	if err := c.get(ctx, "/api/notifications", filter.Values(), &result); err != nil {
		return nil, err
	}
	return result, nil
}

// MarkNotificationRead marks one notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, notificationID string) error {
	return c.post(ctx, "/api/notifications/"+escape(notificationID)+"/mark-read", nil, nil)
}

// MarkAllNotificationsRead marks every notification in scope as read.
func (c *Client) MarkAllNotificationsRead(ctx context.Context, filter types.NotificationFilter) error {
	return c.do(ctx, http.MethodPost, "/api/notifications/mark-all-read", filter.Values(), nil, nil)
}
