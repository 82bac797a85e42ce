package service

import (
	"context"
	"fmt"
	"time"

	"quickbook/internal/booking"
	"quickbook/internal/domain"
	"quickbook/internal/models"
)

const popularRoomsLimit = 5

type DashboardService struct {
	users        domain.UserRepository
	rooms        domain.RoomRepository
	reservations domain.ReservationRepository
	feedbacks    domain.FeedbackRepository
	loc          *time.Location
}

func NewDashboardService(users domain.UserRepository, rooms domain.RoomRepository, reservations domain.ReservationRepository, feedbacks domain.FeedbackRepository, loc *time.Location) *DashboardService {
	if loc == nil {
		loc = time.Local
	}
	return &DashboardService{
		users:        users,
		rooms:        rooms,
		reservations: reservations,
		feedbacks:    feedbacks,
		loc:          loc,
	}
}

// Summary aggregates the admin dashboard as of now.
func (s *DashboardService) Summary(ctx context.Context, now time.Time) (*models.DashboardSummary, error) {
	var (
		out models.DashboardSummary
		err error
	)
	if out.Users, err = s.users.CountUsers(ctx); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if out.Rooms, err = s.rooms.CountRooms(ctx); err != nil {
		return nil, fmt.Errorf("failed to count rooms: %w", err)
	}
	if out.Reservations, err = s.reservations.CountReservations(ctx); err != nil {
		return nil, fmt.Errorf("failed to count reservations: %w", err)
	}

	recent, err := s.feedbacks.ListRecentFeedbacks(ctx, models.RecentFeedbackCount)
	if err != nil {
		return nil, err
	}
	out.RecentFeedbacks = make([]models.Feedback, 0, len(recent))
	for _, fb := range recent {
		out.RecentFeedbacks = append(out.RecentFeedbacks, *fb)
	}

	if out.RoomUsage, err = s.roomUsage(ctx, now); err != nil {
		return nil, err
	}

	if out.PopularRooms, err = s.reservations.CountReservationsByRoom(ctx, popularRoomsLimit); err != nil {
		return nil, err
	}
	if out.PopularRooms == nil {
		out.PopularRooms = []models.RoomBookings{}
	}

	if out.LastSevenDays, err = s.lastSevenDays(ctx, now); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *DashboardService) roomUsage(ctx context.Context, now time.Time) (models.RoomUsage, error) {
	var usage models.RoomUsage
	rooms, err := s.rooms.ListRooms(ctx)
	if err != nil {
		return usage, err
	}
	iv := booking.NewInterval(now, now.Add(time.Second))
	reservations, err := s.reservations.ListReservationsInRange(ctx, iv.Start, iv.End)
	if err != nil {
		return usage, err
	}

	for _, ra := range booking.EvaluateAll(rooms, iv, reservations) {
		switch ra.Status {
		case models.StatusRoomBooked:
			usage.InUse++
		case models.StatusRoomUnderMaintenance:
			usage.Maintenance++
		default:
			usage.Available++
		}
	}
	return usage, nil
}

// lastSevenDays counts non-cancelled reservations per start day, oldest first,
// ending with today.
func (s *DashboardService) lastSevenDays(ctx context.Context, now time.Time) ([]models.DailyBookings, error) {
	local := now.In(s.loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
	from := today.AddDate(0, 0, -6)
	to := today.AddDate(0, 0, 1)

	reservations, err := s.reservations.ListReservationsInRange(ctx, from, to)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, r := range reservations {
		if r.Status == models.ReservationCancelled {
			continue
		}
		start := r.StartTime.In(s.loc)
		if start.Before(from) || !start.Before(to) {
			continue
		}
		counts[start.Format(time.DateOnly)]++
	}

	days := make([]models.DailyBookings, 0, 7)
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		key := d.Format(time.DateOnly)
		days = append(days, models.DailyBookings{
			Date:         key,
			Weekday:      d.Weekday().String()[:3],
			Reservations: counts[key],
		})
	}
	return days, nil
}
