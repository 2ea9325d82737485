package notifications

import "context"

// PushNotification is the platform-neutral payload handed to a sender.
// Payload carries client routing hints (team id, event id, category).
type PushNotification struct {
	Category string
	Title    string
	Subtitle string
	Content  string
	Payload  map[string]string
}

// PushSender delivers a notification to a batch of push registrations
// for one platform. Implementations must not retry indefinitely; a
// failed delivery is reported once and dropped.
type PushSender interface {
	Send(ctx context.Context, pushIDs []string, notification PushNotification) error
}
