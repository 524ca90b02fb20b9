package notification

import (
	"context"

	"firebase.google.com/go/v4/messaging"

	"bountyhub/internal/usecase"
	"bountyhub/pkg/logger"
)

// FCMNotifier delivers dispute events through Firebase Cloud Messaging.
// Delivery is fire-and-forget: the engine never blocks on it and failures are
// only logged.
type FCMNotifier struct {
	client *messaging.Client
}

func NewFCMNotifier(client *messaging.Client) *FCMNotifier {
	return &FCMNotifier{
		client: client,
	}
}

func (n *FCMNotifier) Notify(ctx context.Context, event usecase.NotificationEvent) {
	go n.send(context.WithoutCancel(ctx), event)
}

func (n *FCMNotifier) send(ctx context.Context, event usecase.NotificationEvent) {
	data := map[string]string{
		"type":       event.Type,
		"dispute_id": event.DisputeID,
	}
	if event.Priority != "" {
		data["priority"] = event.Priority
	}

	if event.Topic != "" {
		msg := &messaging.Message{
			Topic: event.Topic,
			Data:  data,
		}
		if _, err := n.client.Send(ctx, msg); err != nil {
			logger.Warn("Notification delivery failed for topic %s, event %s: %v", event.Topic, event.Type, err)
		}
		return
	}

	for _, recipient := range event.RecipientIDs {
		msg := &messaging.Message{
			// Recipient user ids double as per-user topics; the mobile app
			// subscribes each signed-in user to their own topic.
			Topic: "user-" + recipient,
			Data:  data,
		}
		if _, err := n.client.Send(ctx, msg); err != nil {
			logger.Warn("Notification delivery failed for user %s, event %s: %v", recipient, event.Type, err)
		}
	}
}
