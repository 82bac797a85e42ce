package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"quickbook/internal/booking"
	"quickbook/internal/database"
	"quickbook/internal/domain"
	"quickbook/internal/events"
	"quickbook/internal/metrics"
	"quickbook/internal/models"

	"github.com/rs/zerolog"
)

const maxTitleLength = 200

type ReservationService struct {
	repo         domain.ReservationRepository
	rooms        domain.RoomRepository
	eventBus     domain.EventPublisher
	sheetsWorker domain.SyncWorker
	rules        booking.Rules
	logger       *zerolog.Logger
	now          func() time.Time
}

func NewReservationService(
	repo domain.ReservationRepository,
	rooms domain.RoomRepository,
	eventBus domain.EventPublisher,
	sheetsWorker domain.SyncWorker,
	rules booking.Rules,
	logger *zerolog.Logger,
) *ReservationService {
	return &ReservationService{
		repo:         repo,
		rooms:        rooms,
		eventBus:     eventBus,
		sheetsWorker: sheetsWorker,
		rules:        rules,
		logger:       logger,
		now:          time.Now,
	}
}

// Rules are the booking-window constraints the service enforces.
func (s *ReservationService) Rules() booking.Rules {
	return s.rules
}

// prepare validates the request and returns the normalized title and amenities.
func (s *ReservationService) prepare(ctx context.Context, req models.ReservationRequest) (string, string, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return "", "", invalidf("title is required")
	}
	if len(title) > maxTitleLength {
		return "", "", invalidf("title must be at most %d characters", maxTitleLength)
	}

	tags, err := booking.ParseAmenities(req.Amenities)
	if err != nil {
		return "", "", err
	}

	if err := s.rules.ValidateFuture(booking.NewInterval(req.StartTime, req.EndTime), s.now()); err != nil {
		return "", "", err
	}

	room, err := s.rooms.GetRoom(ctx, req.RoomID)
	if err != nil {
		return "", "", err
	}
	if room.Availability == models.RoomUnderMaintenance {
		return "", "", ErrRoomUnderMaintenance
	}
	return title, booking.JoinAmenities(tags), nil
}

// Create books a room for the caller. Overlapping confirmed reservations
// make it fail with database.ErrSlotTaken.
func (s *ReservationService) Create(ctx context.Context, actor Actor, req models.ReservationRequest) (*models.Reservation, error) {
	title, amenities, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	res := &models.Reservation{
		UserID:    actor.UserID,
		RoomID:    req.RoomID,
		Title:     title,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Status:    models.ReservationConfirmed,
		Amenities: amenities,
	}
	if err := s.repo.CreateReservationWithLock(ctx, res); err != nil {
		if errors.Is(err, database.ErrSlotTaken) {
			metrics.IncReservations(metrics.EventConflict, 1)
		}
		return nil, err
	}

	res = s.reload(ctx, res)
	metrics.IncReservations(metrics.EventCreated, 1)
	s.publishEvent(events.EventReservationCreated, res, actor.UserID)
	s.enqueueSync(ctx, res, models.SyncTaskUpsert)
	return res, nil
}

// Update changes room, title, interval and amenities of the caller's own
// confirmed reservation.
func (s *ReservationService) Update(ctx context.Context, actor Actor, id int64, req models.ReservationRequest) (*models.Reservation, error) {
	res, err := s.repo.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.UserID != actor.UserID {
		return nil, fmt.Errorf("reservation %d belongs to another user: %w", id, ErrForbidden)
	}
	if res.Status != models.ReservationConfirmed {
		return nil, ErrNotEditable
	}

	title, amenities, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	res.RoomID = req.RoomID
	res.Title = title
	res.StartTime = req.StartTime
	res.EndTime = req.EndTime
	res.Amenities = amenities
	if err := s.repo.UpdateReservationWithLock(ctx, res); err != nil {
		if errors.Is(err, database.ErrSlotTaken) {
			metrics.IncReservations(metrics.EventConflict, 1)
		}
		return nil, err
	}

	res = s.reload(ctx, res)
	s.publishEvent(events.EventReservationUpdated, res, actor.UserID)
	s.enqueueSync(ctx, res, models.SyncTaskUpsert)
	return res, nil
}

// Cancel is allowed to the owner and to admins, and only before the start.
func (s *ReservationService) Cancel(ctx context.Context, actor Actor, id int64) (*models.Reservation, error) {
	res, err := s.repo.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, fmt.Errorf("reservation %d belongs to another user: %w", id, ErrForbidden)
	}

	if err := s.repo.CancelReservationIfFuture(ctx, id, s.now()); err != nil {
		return nil, err
	}

	res.Status = models.ReservationCancelled
	res = s.reload(ctx, res)
	metrics.IncReservations(metrics.EventCancelled, 1)
	s.publishEvent(events.EventReservationCancelled, res, actor.UserID)
	s.enqueueSync(ctx, res, models.SyncTaskUpdateStatus)
	return res, nil
}

// UpdateStatus lets an admin close a confirmed reservation as cancelled or
// completed. Closed reservations stay closed.
func (s *ReservationService) UpdateStatus(ctx context.Context, actor Actor, id int64, rawStatus string) (*models.Reservation, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	status, err := models.ParseReservationStatus(rawStatus)
	if err != nil {
		return nil, invalidf("%s", err.Error())
	}

	res, err := s.repo.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.Status != models.ReservationConfirmed || status == models.ReservationConfirmed {
		return nil, fmt.Errorf("reservation %d: %s to %s: %w", id, res.Status, status, ErrNotEditable)
	}
	if err := s.repo.UpdateReservationStatus(ctx, id, res.Version, status); err != nil {
		return nil, err
	}

	res.Status = status
	res.Version++
	res = s.reload(ctx, res)

	eventType := events.EventReservationUpdated
	switch status {
	case models.ReservationCancelled:
		eventType = events.EventReservationCancelled
		metrics.IncReservations(metrics.EventCancelled, 1)
	case models.ReservationCompleted:
		eventType = events.EventReservationCompleted
		metrics.IncReservations(metrics.EventCompleted, 1)
	}
	s.publishEvent(eventType, res, actor.UserID)
	s.enqueueSync(ctx, res, models.SyncTaskUpdateStatus)
	return res, nil
}

// Get returns a reservation visible to the caller.
func (s *ReservationService) Get(ctx context.Context, actor Actor, id int64) (*models.Reservation, error) {
	res, err := s.repo.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, fmt.Errorf("reservation %d belongs to another user: %w", id, ErrForbidden)
	}
	return res, nil
}

func (s *ReservationService) ListAll(ctx context.Context) ([]*models.Reservation, error) {
	return s.repo.ListReservations(ctx)
}

func (s *ReservationService) ListMine(ctx context.Context, actor Actor) ([]*models.Reservation, error) {
	return s.repo.ListReservationsByUser(ctx, actor.UserID)
}

func (s *ReservationService) ListByRoom(ctx context.Context, roomID int64) ([]*models.Reservation, error) {
	return s.repo.ListReservationsByRoom(ctx, roomID)
}

// CompleteExpired marks confirmed reservations that ended before now as
// completed and returns how many changed.
func (s *ReservationService) CompleteExpired(ctx context.Context, now time.Time) (int, error) {
	ids, err := s.repo.MarkCompletedReservations(ctx, now)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	metrics.IncReservations(metrics.EventCompleted, len(ids))
	for _, id := range ids {
		res, err := s.repo.GetReservation(ctx, id)
		if err != nil {
			s.logger.Error().Err(err).Int64("reservation_id", id).Msg("failed to load completed reservation")
			continue
		}
		s.publishEvent(events.EventReservationCompleted, res, 0)
		s.enqueueSync(ctx, res, models.SyncTaskUpdateStatus)
	}
	s.logger.Info().Int("count", len(ids)).Msg("reservations completed")
	return len(ids), nil
}

// reload fetches the joined user and room names; the input is kept on failure.
func (s *ReservationService) reload(ctx context.Context, res *models.Reservation) *models.Reservation {
	fresh, err := s.repo.GetReservation(ctx, res.ID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("reservation_id", res.ID).Msg("failed to reload reservation")
		return res
	}
	return fresh
}

func (s *ReservationService) publishEvent(eventType string, res *models.Reservation, actorID int64) {
	if s.eventBus == nil {
		return
	}
	payload := events.NewReservationPayload(res, actorID)
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("reservation_id", res.ID).Msg("publish event error")
	}
}

func (s *ReservationService) enqueueSync(ctx context.Context, res *models.Reservation, taskType string) {
	if s.sheetsWorker == nil {
		return
	}
	if err := s.sheetsWorker.EnqueueTask(ctx, taskType, res); err != nil {
		s.logger.Error().Err(err).Int64("reservation_id", res.ID).Str("task", taskType).Msg("sheets enqueue error")
	}
}
