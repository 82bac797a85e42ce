package listing

import (
	"time"

	"quickbook/internal/models"
)

// ReservationFilter is the admin reservations table filter.
type ReservationFilter struct {
	Query    string
	UserName string
	RoomName string
	Status   string
	Amenity  string
	Date     time.Time
}

func (f ReservationFilter) Predicate() Predicate[*models.Reservation] {
	return All(
		ContainsAny(f.Query,
			func(r *models.Reservation) string { return r.Title },
			func(r *models.Reservation) string { return r.UserName },
			func(r *models.Reservation) string { return r.RoomName },
		),
		Contains(func(r *models.Reservation) string { return r.UserName }, f.UserName),
		Contains(func(r *models.Reservation) string { return r.RoomName }, f.RoomName),
		Equals(func(r *models.Reservation) string { return string(r.Status) }, f.Status),
		Contains(func(r *models.Reservation) string { return r.Amenities }, f.Amenity),
		SameDay(func(r *models.Reservation) time.Time { return r.StartTime }, f.Date),
	)
}

// UserFilter matches name or e-mail and optionally a role.
type UserFilter struct {
	Query string
	Role  string
	// ExcludeAdmins hides administrators, as the users page does.
	ExcludeAdmins bool
}

func (f UserFilter) Predicate() Predicate[*models.User] {
	return All(
		ContainsAny(f.Query,
			func(u *models.User) string { return u.Name },
			func(u *models.User) string { return u.Email },
		),
		Equals(func(u *models.User) string { return string(u.Role) }, f.Role),
		func(u *models.User) bool { return !f.ExcludeAdmins || u.Role != models.RoleAdmin },
	)
}

type RoomFilter struct {
	Query        string
	Location     string
	Availability string
}

func (f RoomFilter) Predicate() Predicate[*models.Room] {
	return All(
		ContainsAny(f.Query,
			func(r *models.Room) string { return r.Name },
			func(r *models.Room) string { return r.Description },
		),
		Equals(func(r *models.Room) string { return string(r.Location) }, f.Location),
		Equals(func(r *models.Room) string { return string(r.Availability) }, f.Availability),
	)
}

type FeedbackFilter struct {
	Query string
	Date  time.Time
}

func (f FeedbackFilter) Predicate() Predicate[*models.Feedback] {
	return All(
		ContainsAny(f.Query,
			func(fb *models.Feedback) string { return fb.UserName },
			func(fb *models.Feedback) string { return fb.RoomName },
			func(fb *models.Feedback) string { return fb.Comment },
		),
		SameDay(func(fb *models.Feedback) time.Time { return fb.CreatedAt }, f.Date),
	)
}
