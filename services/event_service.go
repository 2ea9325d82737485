package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/coach-plus/backend/models"
	"github.com/coach-plus/backend/notifications"
	"github.com/coach-plus/backend/repositories"
	"github.com/coach-plus/backend/storage"
)

type EventService interface {
	GetEvents(ctx context.Context, callerID, teamID int) ([]*models.Event, error)
	GetEvent(ctx context.Context, callerID, teamID, eventID int) (*models.Event, error)
	// CreateEvent persists the event and enqueues a reminder fan-out to
	// the team, excluding the creator.
	CreateEvent(ctx context.Context, callerID, teamID int, input EventInput) (*models.Event, error)
	UpdateEvent(ctx context.Context, callerID, teamID, eventID int, input EventInput) (*models.Event, error)
	DeleteEvent(ctx context.Context, callerID, teamID, eventID int) error
	SendReminder(ctx context.Context, callerID, teamID, eventID int) error
	// SetWillAttend records the subject's intent. Only the subject may
	// call it, and only before the event starts.
	SetWillAttend(ctx context.Context, callerID, teamID, eventID, userID int, willAttend bool) (*models.Participation, error)
	// SetDidAttend records actual attendance. Coach only, and only once
	// the event has started.
	SetDidAttend(ctx context.Context, callerID, teamID, eventID, userID int, didAttend bool) (*models.Participation, error)
	GetParticipations(ctx context.Context, callerID, teamID, eventID int) ([]*models.UserParticipation, error)
}

type EventInput struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Start       time.Time        `json:"start"`
	End         time.Time        `json:"end"`
	Location    *models.Location `json:"location"`
}

type eventService struct {
	eventRepo         repositories.EventRepository
	participationRepo repositories.ParticipationRepository
	membershipRepo    repositories.MembershipRepository
	dispatcher        notifications.Dispatcher
	uploader          storage.FileUploader
}

func NewEventService(
	eventRepo repositories.EventRepository,
	participationRepo repositories.ParticipationRepository,
	membershipRepo repositories.MembershipRepository,
	dispatcher notifications.Dispatcher,
	uploader storage.FileUploader,
) EventService {
	return &eventService{
		eventRepo:         eventRepo,
		participationRepo: participationRepo,
		membershipRepo:    membershipRepo,
		dispatcher:        dispatcher,
		uploader:          uploader,
	}
}

func (s *eventService) GetEvents(ctx context.Context, callerID, teamID int) ([]*models.Event, error) {
	if _, err := s.requireMember(ctx, callerID, teamID); err != nil {
		return nil, err
	}

	events, err := s.eventRepo.ListByTeamID(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events of team %d: %w", teamID, err)
	}
	return events, nil
}

func (s *eventService) GetEvent(ctx context.Context, callerID, teamID, eventID int) (*models.Event, error) {
	if _, err := s.requireMember(ctx, callerID, teamID); err != nil {
		return nil, err
	}
	return s.getScopedEvent(ctx, teamID, eventID)
}

func (s *eventService) CreateEvent(ctx context.Context, callerID, teamID int, input EventInput) (*models.Event, error) {
	if err := s.requireCoach(ctx, callerID, teamID); err != nil {
		return nil, err
	}

	event := &models.Event{
		TeamID:      teamID,
		Name:        input.Name,
		Description: input.Description,
		Start:       input.Start,
		End:         input.End,
		Location:    input.Location,
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		if errors.Is(err, repositories.ErrEventTeamInvalid) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.dispatcher.SendReminder(event, callerID)
	return event, nil
}

func (s *eventService) UpdateEvent(ctx context.Context, callerID, teamID, eventID int, input EventInput) (*models.Event, error) {
	if err := s.requireCoach(ctx, callerID, teamID); err != nil {
		return nil, err
	}

	event, err := s.getScopedEvent(ctx, teamID, eventID)
	if err != nil {
		return nil, err
	}

	event.Name = input.Name
	event.Description = input.Description
	event.Start = input.Start
	event.End = input.End
	event.Location = input.Location

	if err := s.eventRepo.Update(ctx, event); err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to update event %d: %w", eventID, err)
	}

	return event, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, callerID, teamID, eventID int) error {
	if err := s.requireCoach(ctx, callerID, teamID); err != nil {
		return err
	}

	if err := s.eventRepo.Delete(ctx, eventID, teamID); err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return ErrEventNotFound
		}
		return fmt.Errorf("failed to delete event %d: %w", eventID, err)
	}

	return nil
}

func (s *eventService) SendReminder(ctx context.Context, callerID, teamID, eventID int) error {
	if err := s.requireCoach(ctx, callerID, teamID); err != nil {
		return err
	}

	event, err := s.getScopedEvent(ctx, teamID, eventID)
	if err != nil {
		return err
	}

	s.dispatcher.SendReminder(event, callerID)
	return nil
}

func (s *eventService) SetWillAttend(ctx context.Context, callerID, teamID, eventID, userID int, willAttend bool) (*models.Participation, error) {
	if callerID != userID {
		return nil, ErrUnauthorized
	}
	if _, err := s.requireMember(ctx, callerID, teamID); err != nil {
		return nil, err
	}

	event, err := s.getScopedEvent(ctx, teamID, eventID)
	if err != nil {
		return nil, err
	}

	if time.Now().After(event.Start) {
		return nil, ErrEventAlreadyStarted
	}

	participation, err := s.participationRepo.SetWillAttend(ctx, eventID, userID, willAttend)
	if err != nil {
		return nil, fmt.Errorf("failed to set willAttend: %w", err)
	}
	return participation, nil
}

func (s *eventService) SetDidAttend(ctx context.Context, callerID, teamID, eventID, userID int, didAttend bool) (*models.Participation, error) {
	// Recording attendance for someone else surfaces as Unauthorized,
	// matching the willAttend self-only gate.
	if err := s.requireCoach(ctx, callerID, teamID); err != nil {
		if errors.Is(err, ErrUserNotACoach) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	event, err := s.getScopedEvent(ctx, teamID, eventID)
	if err != nil {
		return nil, err
	}

	if time.Now().Before(event.Start) {
		return nil, ErrEventNotStartedYet
	}

	participation, err := s.participationRepo.SetDidAttend(ctx, eventID, userID, didAttend)
	if err != nil {
		return nil, fmt.Errorf("failed to set didAttend: %w", err)
	}
	return participation, nil
}

func (s *eventService) GetParticipations(ctx context.Context, callerID, teamID, eventID int) ([]*models.UserParticipation, error) {
	if _, err := s.requireMember(ctx, callerID, teamID); err != nil {
		return nil, err
	}

	if _, err := s.getScopedEvent(ctx, teamID, eventID); err != nil {
		return nil, err
	}

	var (
		memberships    []*models.Membership
		participations []*models.Participation
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		memberships, err = s.membershipRepo.ListByTeamID(gctx, teamID)
		return err
	})
	g.Go(func() error {
		var err error
		participations, err = s.participationRepo.ListByEventID(gctx, eventID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load participations of event %d: %w", eventID, err)
	}

	byUser := make(map[int]*models.Participation, len(participations))
	for _, p := range participations {
		byUser[p.UserID] = p
	}

	result := make([]*models.UserParticipation, 0, len(memberships))
	for _, m := range memberships {
		if m.User == nil {
			continue
		}
		populateUserImage(m.User, s.uploader)
		result = append(result, &models.UserParticipation{
			User:          m.User.Reduce(false),
			Participation: byUser[m.UserID],
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].User.ID == callerID {
			return result[j].User.ID != callerID
		}
		if result[j].User.ID == callerID {
			return false
		}
		return result[i].User.Lastname < result[j].User.Lastname
	})

	return result, nil
}

func (s *eventService) getScopedEvent(ctx context.Context, teamID, eventID int) (*models.Event, error) {
	event, err := s.eventRepo.GetByIDAndTeam(ctx, eventID, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event %d: %w", eventID, err)
	}
	return event, nil
}

func (s *eventService) requireMember(ctx context.Context, userID, teamID int) (*models.Membership, error) {
	membership, err := s.membershipRepo.GetByUserAndTeam(ctx, userID, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrMembershipNotFound) {
			return nil, ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to resolve membership: %w", err)
	}
	return membership, nil
}

func (s *eventService) requireCoach(ctx context.Context, userID, teamID int) error {
	membership, err := s.requireMember(ctx, userID, teamID)
	if err != nil {
		return err
	}
	if membership.Role != models.RoleCoach {
		return ErrUserNotACoach
	}
	return nil
}
