package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/coach-plus/backend/models"
	"github.com/coach-plus/backend/repositories"
)

const (
	dispatchQueueSize = 256
	dispatchTimeout   = 30 * time.Second
)

// Dispatcher fans out push notifications to the devices of a team's
// members. Enqueueing never blocks the caller and never reports
// delivery failures back; a full queue drops the task with a warning.
type Dispatcher interface {
	// Run consumes the task queue until ctx is cancelled.
	Run(ctx context.Context)

	// SendReminder notifies the team about an event, skipping the
	// excluded user and everyone who already responded.
	SendReminder(event *models.Event, excludedUserID int)

	// SendNews notifies the team about an announcement, skipping the
	// excluded user.
	SendNews(news *models.News, event *models.Event, excludedUserID int)
}

type dispatchTask func(ctx context.Context)

type pushDispatcher struct {
	membershipRepo    repositories.MembershipRepository
	deviceRepo        repositories.DeviceRepository
	participationRepo repositories.ParticipationRepository
	senders           map[models.DeviceSystem]PushSender
	tasks             chan dispatchTask
	logger            *slog.Logger
}

func NewPushDispatcher(
	membershipRepo repositories.MembershipRepository,
	deviceRepo repositories.DeviceRepository,
	participationRepo repositories.ParticipationRepository,
	senders map[models.DeviceSystem]PushSender,
	logger *slog.Logger,
) Dispatcher {
	return &pushDispatcher{
		membershipRepo:    membershipRepo,
		deviceRepo:        deviceRepo,
		participationRepo: participationRepo,
		senders:           senders,
		tasks:             make(chan dispatchTask, dispatchQueueSize),
		logger:            logger,
	}
}

func (d *pushDispatcher) Run(ctx context.Context) {
	d.logger.InfoContext(ctx, "notification dispatcher started")
	for {
		select {
		case <-ctx.Done():
			d.logger.InfoContext(ctx, "notification dispatcher stopped")
			return
		case task := <-d.tasks:
			taskCtx, cancel := context.WithTimeout(ctx, dispatchTimeout)
			task(taskCtx)
			cancel()
		}
	}
}

func (d *pushDispatcher) SendReminder(event *models.Event, excludedUserID int) {
	d.enqueue(func(ctx context.Context) {
		notification := PushNotification{
			Category: "reminder",
			Title:    event.Name,
			Subtitle: "Reminder",
			Content:  fmt.Sprintf("%s starts at %s", event.Name, event.Start.Format("02.01.2006 15:04")),
			Payload: map[string]string{
				"category": "reminder",
				"teamId":   strconv.Itoa(event.TeamID),
				"eventId":  strconv.Itoa(event.ID),
			},
		}

		responded, err := d.respondedUserIDs(ctx, event.ID)
		if err != nil {
			d.logger.ErrorContext(ctx, "failed to resolve responded users for reminder",
				slog.Int("event_id", event.ID), slog.Any("error", err))
			return
		}
		responded[excludedUserID] = true

		d.deliver(ctx, event.TeamID, responded, notification)
	})
}

func (d *pushDispatcher) SendNews(news *models.News, event *models.Event, excludedUserID int) {
	d.enqueue(func(ctx context.Context) {
		notification := PushNotification{
			Category: "news",
			Title:    event.Name,
			Subtitle: news.Title,
			Content:  news.Text,
			Payload: map[string]string{
				"category": "news",
				"teamId":   strconv.Itoa(event.TeamID),
				"eventId":  strconv.Itoa(event.ID),
				"newsId":   strconv.Itoa(news.ID),
			},
		}

		excluded := map[int]bool{excludedUserID: true}
		d.deliver(ctx, event.TeamID, excluded, notification)
	})
}

func (d *pushDispatcher) enqueue(task dispatchTask) {
	select {
	case d.tasks <- task:
	default:
		d.logger.Warn("notification queue full, dropping task")
	}
}

// respondedUserIDs collects every user with any participation record
// for the event, regardless of the recorded answer.
func (d *pushDispatcher) respondedUserIDs(ctx context.Context, eventID int) (map[int]bool, error) {
	participations, err := d.participationRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	responded := make(map[int]bool, len(participations))
	for _, p := range participations {
		responded[p.UserID] = true
	}
	return responded, nil
}

func (d *pushDispatcher) deliver(ctx context.Context, teamID int, excludedUserIDs map[int]bool, notification PushNotification) {
	memberships, err := d.membershipRepo.ListByTeamID(ctx, teamID)
	if err != nil {
		d.logger.ErrorContext(ctx, "failed to resolve team members for notification",
			slog.Int("team_id", teamID), slog.Any("error", err))
		return
	}

	recipientIDs := make([]int, 0, len(memberships))
	for _, membership := range memberships {
		if !excludedUserIDs[membership.UserID] {
			recipientIDs = append(recipientIDs, membership.UserID)
		}
	}
	if len(recipientIDs) == 0 {
		return
	}

	devices, err := d.deviceRepo.ListByUserIDs(ctx, recipientIDs)
	if err != nil {
		d.logger.ErrorContext(ctx, "failed to resolve devices for notification",
			slog.Int("team_id", teamID), slog.Any("error", err))
		return
	}

	pushIDsBySystem := make(map[models.DeviceSystem][]string)
	for _, device := range devices {
		pushIDsBySystem[device.System] = append(pushIDsBySystem[device.System], device.PushID)
	}

	for system, pushIDs := range pushIDsBySystem {
		sender, ok := d.senders[system]
		if !ok {
			d.logger.WarnContext(ctx, "no sender registered for platform", slog.String("system", string(system)))
			continue
		}
		if err := sender.Send(ctx, pushIDs, notification); err != nil {
			d.logger.ErrorContext(ctx, "push delivery failed",
				slog.String("system", string(system)),
				slog.Int("recipients", len(pushIDs)),
				slog.Any("error", err),
			)
		}
	}
}
