package listing

import (
	"cmp"
	"strings"
	"time"

	"quickbook/internal/models"
)

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func compareTime(a, b time.Time) int {
	return a.Compare(b)
}

// UserKeys are the sortable columns of the users table.
var UserKeys = Keys[*models.User]{
	"name":      func(a, b *models.User) int { return compareFold(a.Name, b.Name) },
	"email":     func(a, b *models.User) int { return compareFold(a.Email, b.Email) },
	"role":      func(a, b *models.User) int { return cmp.Compare(a.Role, b.Role) },
	"createdAt": func(a, b *models.User) int { return compareTime(a.CreatedAt, b.CreatedAt) },
}

var RoomKeys = Keys[*models.Room]{
	"name":     func(a, b *models.Room) int { return compareFold(a.Name, b.Name) },
	"location": func(a, b *models.Room) int { return cmp.Compare(a.Location, b.Location) },
	"capacity": func(a, b *models.Room) int { return cmp.Compare(a.Capacity, b.Capacity) },
}

var ReservationKeys = Keys[*models.Reservation]{
	"user":      func(a, b *models.Reservation) int { return compareFold(a.UserName, b.UserName) },
	"room":      func(a, b *models.Reservation) int { return compareFold(a.RoomName, b.RoomName) },
	"title":     func(a, b *models.Reservation) int { return compareFold(a.Title, b.Title) },
	"startTime": func(a, b *models.Reservation) int { return compareTime(a.StartTime, b.StartTime) },
	"endTime":   func(a, b *models.Reservation) int { return compareTime(a.EndTime, b.EndTime) },
	"status":    func(a, b *models.Reservation) int { return cmp.Compare(a.Status, b.Status) },
	"createdAt": func(a, b *models.Reservation) int { return compareTime(a.CreatedAt, b.CreatedAt) },
}

var FeedbackKeys = Keys[*models.Feedback]{
	"user":      func(a, b *models.Feedback) int { return compareFold(a.UserName, b.UserName) },
	"room":      func(a, b *models.Feedback) int { return compareFold(a.RoomName, b.RoomName) },
	"rating":    func(a, b *models.Feedback) int { return cmp.Compare(a.Rating, b.Rating) },
	"createdAt": func(a, b *models.Feedback) int { return compareTime(a.CreatedAt, b.CreatedAt) },
}
