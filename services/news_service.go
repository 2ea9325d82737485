package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/coach-plus/backend/models"
	"github.com/coach-plus/backend/notifications"
	"github.com/coach-plus/backend/repositories"
	"github.com/coach-plus/backend/storage"
)

type NewsService interface {
	// CreateNews stamps the caller as author and enqueues a news
	// fan-out to the team, excluding the author.
	CreateNews(ctx context.Context, callerID, teamID, eventID int, input NewsInput) (*models.News, error)
	DeleteNews(ctx context.Context, callerID, teamID, eventID, newsID int) error
	GetNews(ctx context.Context, callerID, teamID, eventID int) ([]*models.News, error)
}

type NewsInput struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

type newsService struct {
	newsRepo       repositories.NewsRepository
	eventRepo      repositories.EventRepository
	membershipRepo repositories.MembershipRepository
	dispatcher     notifications.Dispatcher
	uploader       storage.FileUploader
}

func NewNewsService(
	newsRepo repositories.NewsRepository,
	eventRepo repositories.EventRepository,
	membershipRepo repositories.MembershipRepository,
	dispatcher notifications.Dispatcher,
	uploader storage.FileUploader,
) NewsService {
	return &newsService{
		newsRepo:       newsRepo,
		eventRepo:      eventRepo,
		membershipRepo: membershipRepo,
		dispatcher:     dispatcher,
		uploader:       uploader,
	}
}

func (s *newsService) CreateNews(ctx context.Context, callerID, teamID, eventID int, input NewsInput) (*models.News, error) {
	if err := s.requireCoach(ctx, callerID, teamID); err != nil {
		return nil, err
	}

	event, err := s.getScopedEvent(ctx, teamID, eventID)
	if err != nil {
		return nil, err
	}

	news := &models.News{
		EventID:  eventID,
		AuthorID: callerID,
		Title:    input.Title,
		Text:     input.Text,
	}

	if err := s.newsRepo.Create(ctx, news); err != nil {
		if errors.Is(err, repositories.ErrNewsEventInvalid) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to create news: %w", err)
	}

	s.dispatcher.SendNews(news, event, callerID)
	return news, nil
}

func (s *newsService) DeleteNews(ctx context.Context, callerID, teamID, eventID, newsID int) error {
	if err := s.requireCoach(ctx, callerID, teamID); err != nil {
		return err
	}

	if _, err := s.getScopedEvent(ctx, teamID, eventID); err != nil {
		return err
	}

	if err := s.newsRepo.Delete(ctx, newsID); err != nil {
		if errors.Is(err, repositories.ErrNewsNotFound) {
			return ErrNewsNotFound
		}
		return fmt.Errorf("failed to delete news %d: %w", newsID, err)
	}

	return nil
}

func (s *newsService) GetNews(ctx context.Context, callerID, teamID, eventID int) ([]*models.News, error) {
	if _, err := s.requireMember(ctx, callerID, teamID); err != nil {
		return nil, err
	}

	if _, err := s.getScopedEvent(ctx, teamID, eventID); err != nil {
		return nil, err
	}

	newsList, err := s.newsRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list news of event %d: %w", eventID, err)
	}

	// The repository hands back raw image keys; turn them into URLs.
	for _, news := range newsList {
		if news.Author == nil || news.Author.ImageKey == nil {
			continue
		}
		if url := s.uploader.GetPublicURL(*news.Author.ImageKey); url != "" {
			news.Author.ImageURL = &url
		}
	}

	return newsList, nil
}

func (s *newsService) getScopedEvent(ctx context.Context, teamID, eventID int) (*models.Event, error) {
	event, err := s.eventRepo.GetByIDAndTeam(ctx, eventID, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event %d: %w", eventID, err)
	}
	return event, nil
}

func (s *newsService) requireMember(ctx context.Context, userID, teamID int) (*models.Membership, error) {
	membership, err := s.membershipRepo.GetByUserAndTeam(ctx, userID, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrMembershipNotFound) {
			return nil, ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to resolve membership: %w", err)
	}
	return membership, nil
}

func (s *newsService) requireCoach(ctx context.Context, userID, teamID int) error {
	membership, err := s.requireMember(ctx, userID, teamID)
	if err != nil {
		return err
	}
	if membership.Role != models.RoleCoach {
		return ErrUserNotACoach
	}
	return nil
}
