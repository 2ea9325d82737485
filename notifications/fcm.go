package notifications

import (
	"context"
	"fmt"
	"log/slog"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// FCM multicast messages are capped at 500 tokens per call.
const fcmMulticastLimit = 500

type fcmSender struct {
	client *messaging.Client
	logger *slog.Logger
}

// NewFCMSender initializes a Firebase Cloud Messaging sender from a
// service-account credentials file.
func NewFCMSender(ctx context.Context, credentialsFile string, logger *slog.Logger) (PushSender, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get FCM messaging client: %w", err)
	}

	return &fcmSender{client: client, logger: logger}, nil
}

func (s *fcmSender) Send(ctx context.Context, pushIDs []string, notification PushNotification) error {
	for len(pushIDs) > 0 {
		batch := pushIDs
		if len(batch) > fcmMulticastLimit {
			batch = batch[:fcmMulticastLimit]
		}
		pushIDs = pushIDs[len(batch):]

		title := notification.Title
		if notification.Subtitle != "" {
			title = fmt.Sprintf("%s - %s", notification.Title, notification.Subtitle)
		}

		message := &messaging.MulticastMessage{
			Tokens: batch,
			Notification: &messaging.Notification{
				Title: title,
				Body:  notification.Content,
			},
			Data: notification.Payload,
		}

		response, err := s.client.SendEachForMulticast(ctx, message)
		if err != nil {
			return fmt.Errorf("failed to send FCM multicast message: %w", err)
		}

		if response.FailureCount > 0 {
			for i, resp := range response.Responses {
				if !resp.Success {
					s.logger.WarnContext(ctx, "FCM delivery failed for token",
						slog.Int("token_index", i),
						slog.Any("error", resp.Error),
					)
				}
			}
		}
	}

	return nil
}
