package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"quickbook/internal/database"
	"quickbook/internal/domain"
	"quickbook/internal/events"
	"quickbook/internal/models"

	"github.com/rs/zerolog"
)

type FeedbackService struct {
	repo         domain.FeedbackRepository
	reservations domain.ReservationRepository
	eventBus     domain.EventPublisher
	logger       *zerolog.Logger
}

func NewFeedbackService(repo domain.FeedbackRepository, reservations domain.ReservationRepository, eventBus domain.EventPublisher, logger *zerolog.Logger) *FeedbackService {
	return &FeedbackService{
		repo:         repo,
		reservations: reservations,
		eventBus:     eventBus,
		logger:       logger,
	}
}

// Submit records the rating of a completed reservation by its owner. Each
// reservation takes at most one feedback.
func (s *FeedbackService) Submit(ctx context.Context, actor Actor, req models.FeedbackRequest) (*models.Feedback, error) {
	if req.Rating < models.MinRating || req.Rating > models.MaxRating {
		return nil, invalidf("rating must be between %d and %d", models.MinRating, models.MaxRating)
	}
	comment := strings.TrimSpace(req.Comment)
	if utf8.RuneCountInString(comment) > models.MaxCommentLength {
		return nil, invalidf("comment must be at most %d characters", models.MaxCommentLength)
	}

	res, err := s.reservations.GetReservation(ctx, req.ReservationID)
	if err != nil {
		return nil, err
	}
	if res.UserID != actor.UserID {
		return nil, fmt.Errorf("not authorized to give feedback for reservation %d: %w", res.ID, ErrForbidden)
	}
	if res.Status != models.ReservationCompleted {
		return nil, ErrFeedbackNotAllowed
	}
	if res.FeedbackProvided {
		return nil, fmt.Errorf("feedback for reservation %d: %w", res.ID, database.ErrDuplicate)
	}

	fb := &models.Feedback{
		ReservationID: res.ID,
		UserID:        actor.UserID,
		UserName:      res.UserName,
		RoomID:        res.RoomID,
		RoomName:      res.RoomName,
		Rating:        req.Rating,
		Comment:       comment,
	}
	if err := s.repo.CreateFeedback(ctx, fb); err != nil {
		return nil, err
	}

	payload := events.FeedbackEventPayload{
		FeedbackID:    fb.ID,
		ReservationID: fb.ReservationID,
		UserID:        fb.UserID,
		RoomID:        fb.RoomID,
		Rating:        fb.Rating,
	}
	if s.eventBus != nil {
		if err := s.eventBus.PublishJSON(events.EventFeedbackSubmitted, payload); err != nil {
			s.logger.Error().Err(err).Int64("feedback_id", fb.ID).Msg("publish event error")
		}
	}
	return fb, nil
}

func (s *FeedbackService) ListAll(ctx context.Context) ([]*models.Feedback, error) {
	return s.repo.ListFeedbacks(ctx)
}

func (s *FeedbackService) ListByRoom(ctx context.Context, roomID int64) ([]*models.Feedback, error) {
	return s.repo.ListFeedbacksByRoom(ctx, roomID)
}

func (s *FeedbackService) ListMine(ctx context.Context, actor Actor) ([]*models.Feedback, error) {
	return s.repo.ListFeedbacksByUser(ctx, actor.UserID)
}

func (s *FeedbackService) Delete(ctx context.Context, actor Actor, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	return s.repo.DeleteFeedback(ctx, id)
}
