package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"quickbook/internal/booking"
	"quickbook/internal/domain"
	"quickbook/internal/models"

	"github.com/rs/zerolog"
)

type RoomService struct {
	repo         domain.RoomRepository
	reservations domain.ReservationRepository
	logger       *zerolog.Logger
	now          func() time.Time
}

func NewRoomService(repo domain.RoomRepository, reservations domain.ReservationRepository, logger *zerolog.Logger) *RoomService {
	return &RoomService{
		repo:         repo,
		reservations: reservations,
		logger:       logger,
		now:          time.Now,
	}
}

func validateRoom(room *models.Room) error {
	room.Name = strings.TrimSpace(room.Name)
	if room.Name == "" {
		return invalidf("room name is required")
	}
	if !room.Location.Valid() {
		loc, err := models.ParseRoomLocation(string(room.Location))
		if err != nil {
			return invalidf("%s", err.Error())
		}
		room.Location = loc
	}
	if room.Capacity < 1 {
		return invalidf("capacity must be at least 1")
	}
	if room.Availability == "" {
		room.Availability = models.RoomAvailable
	}
	availability, err := models.ParseRoomAvailability(string(room.Availability))
	if err != nil {
		return invalidf("%s", err.Error())
	}
	room.Availability = availability
	return nil
}

func (s *RoomService) List(ctx context.Context) ([]*models.Room, error) {
	return s.repo.ListRooms(ctx)
}

func (s *RoomService) Get(ctx context.Context, id int64) (*models.Room, error) {
	return s.repo.GetRoom(ctx, id)
}

func (s *RoomService) ByName(ctx context.Context, name string) (*models.Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidf("room name is required")
	}
	return s.repo.GetRoomByName(ctx, name)
}

// ByLocation accepts both the stored and the display form of a location.
func (s *RoomService) ByLocation(ctx context.Context, raw string) ([]*models.Room, error) {
	loc, err := models.ParseRoomLocation(raw)
	if err != nil {
		return nil, invalidf("%s", err.Error())
	}
	return s.repo.ListRoomsByLocation(ctx, loc)
}

func (s *RoomService) ByMinCapacity(ctx context.Context, minCapacity int) ([]*models.Room, error) {
	if minCapacity < 1 {
		return nil, invalidf("capacity must be at least 1")
	}
	return s.repo.ListRoomsByMinCapacity(ctx, minCapacity)
}

// AvailableFor lists rooms bookable for the whole interval.
func (s *RoomService) AvailableFor(ctx context.Context, start, end time.Time) ([]*models.Room, error) {
	if start.IsZero() || end.IsZero() || !end.After(start) {
		return nil, booking.ErrInvalidInterval
	}
	return s.repo.ListAvailableRooms(ctx, start, end)
}

// Statuses evaluates every room against the interval, in room order.
func (s *RoomService) Statuses(ctx context.Context, iv booking.Interval) ([]booking.RoomAvailability, error) {
	if iv.Start.IsZero() || iv.Empty() {
		return nil, booking.ErrInvalidInterval
	}
	rooms, err := s.repo.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	reservations, err := s.reservations.ListReservationsInRange(ctx, iv.Start, iv.End)
	if err != nil {
		return nil, err
	}
	return booking.EvaluateAll(rooms, iv, reservations), nil
}

// Status evaluates a single room.
func (s *RoomService) Status(ctx context.Context, roomID int64, iv booking.Interval) (models.RoomStatus, error) {
	if iv.Start.IsZero() || iv.Empty() {
		return "", booking.ErrInvalidInterval
	}
	room, err := s.repo.GetRoom(ctx, roomID)
	if err != nil {
		return "", err
	}
	reservations, err := s.reservations.ListReservationsByRoomRange(ctx, roomID, iv.Start, iv.End)
	if err != nil {
		return "", err
	}
	return booking.Evaluate(room, iv, reservations), nil
}

// Schedule returns the room's reservations overlapping [from, to).
func (s *RoomService) Schedule(ctx context.Context, roomID int64, from, to time.Time) ([]*models.Reservation, error) {
	if !to.After(from) {
		return nil, booking.ErrInvalidInterval
	}
	if _, err := s.repo.GetRoom(ctx, roomID); err != nil {
		return nil, err
	}
	return s.reservations.ListReservationsByRoomRange(ctx, roomID, from, to)
}

func (s *RoomService) Create(ctx context.Context, actor Actor, room *models.Room) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := validateRoom(room); err != nil {
		return err
	}
	if err := s.repo.CreateRoom(ctx, room); err != nil {
		return err
	}
	s.logger.Info().Int64("room_id", room.ID).Str("name", room.Name).Msg("room created")
	return nil
}

func (s *RoomService) Update(ctx context.Context, actor Actor, room *models.Room) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := validateRoom(room); err != nil {
		return err
	}
	if err := s.repo.UpdateRoom(ctx, room); err != nil {
		return err
	}
	s.logger.Info().Int64("room_id", room.ID).Str("availability", string(room.Availability)).Msg("room updated")
	return nil
}

func (s *RoomService) Delete(ctx context.Context, actor Actor, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.repo.DeleteRoom(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("room_id", id).Msg("room deleted")
	return nil
}

// AddNote appends a timestamped remark to the room description.
func (s *RoomService) AddNote(ctx context.Context, id int64, note string) error {
	note = strings.TrimSpace(note)
	if note == "" {
		return invalidf("note is required")
	}
	if len(note) > models.MaxCommentLength {
		return invalidf("note must be at most %d characters", models.MaxCommentLength)
	}
	return s.repo.AppendRoomNote(ctx, id, note, s.now())
}

// Seed creates the rooms that do not exist yet and returns how many were added.
func (s *RoomService) Seed(ctx context.Context, seeds []models.SeedRoom) (int, error) {
	existing, err := s.repo.ListRooms(ctx)
	if err != nil {
		return 0, err
	}
	names := make(map[string]bool, len(existing))
	for _, r := range existing {
		names[strings.ToLower(r.Name)] = true
	}

	created := 0
	for _, seed := range seeds {
		if names[strings.ToLower(seed.Name)] {
			continue
		}
		room := &models.Room{
			Name:        seed.Name,
			Location:    models.RoomLocation(seed.Location),
			Capacity:    seed.Capacity,
			Description: seed.Description,
			ImageURL:    seed.ImageURL,
		}
		if err := validateRoom(room); err != nil {
			return created, fmt.Errorf("seed room %q: %w", seed.Name, err)
		}
		if err := s.repo.CreateRoom(ctx, room); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
