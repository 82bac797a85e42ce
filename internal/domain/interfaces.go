package domain

import (
	"context"
	"time"

	"quickbook/internal/models"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	UpdateUserName(ctx context.Context, id int64, name string) error
	UpdateUserRole(ctx context.Context, id int64, role models.Role) error
	DeleteUser(ctx context.Context, id int64) error
	CountUsers(ctx context.Context) (int, error)
}

type RoomRepository interface {
	CreateRoom(ctx context.Context, room *models.Room) error
	UpdateRoom(ctx context.Context, room *models.Room) error
	GetRoom(ctx context.Context, id int64) (*models.Room, error)
	GetRoomByName(ctx context.Context, name string) (*models.Room, error)
	ListRooms(ctx context.Context) ([]*models.Room, error)
	ListRoomsByLocation(ctx context.Context, loc models.RoomLocation) ([]*models.Room, error)
	ListRoomsByMinCapacity(ctx context.Context, minCapacity int) ([]*models.Room, error)
	ListAvailableRooms(ctx context.Context, start, end time.Time) ([]*models.Room, error)
	DeleteRoom(ctx context.Context, id int64) error
	AppendRoomNote(ctx context.Context, id int64, note string, at time.Time) error
	CountRooms(ctx context.Context) (int, error)
}

type ReservationRepository interface {
	CreateReservationWithLock(ctx context.Context, res *models.Reservation) error
	UpdateReservationWithLock(ctx context.Context, res *models.Reservation) error
	GetReservation(ctx context.Context, id int64) (*models.Reservation, error)
	ListReservations(ctx context.Context) ([]*models.Reservation, error)
	ListReservationsByUser(ctx context.Context, userID int64) ([]*models.Reservation, error)
	ListReservationsByRoom(ctx context.Context, roomID int64) ([]*models.Reservation, error)
	ListReservationsByRoomRange(ctx context.Context, roomID int64, from, to time.Time) ([]*models.Reservation, error)
	ListReservationsInRange(ctx context.Context, from, to time.Time) ([]*models.Reservation, error)
	CancelReservationIfFuture(ctx context.Context, id int64, now time.Time) error
	UpdateReservationStatus(ctx context.Context, id, fromVersion int64, status models.ReservationStatus) error
	MarkCompletedReservations(ctx context.Context, now time.Time) ([]int64, error)
	CountReservations(ctx context.Context) (int, error)
	CountReservationsByRoom(ctx context.Context, limit int) ([]models.RoomBookings, error)
}

type FeedbackRepository interface {
	CreateFeedback(ctx context.Context, fb *models.Feedback) error
	GetFeedback(ctx context.Context, id int64) (*models.Feedback, error)
	ListFeedbacks(ctx context.Context) ([]*models.Feedback, error)
	ListRecentFeedbacks(ctx context.Context, limit int) ([]*models.Feedback, error)
	ListFeedbacksByRoom(ctx context.Context, roomID int64) ([]*models.Feedback, error)
	ListFeedbacksByUser(ctx context.Context, userID int64) ([]*models.Feedback, error)
	DeleteFeedback(ctx context.Context, id int64) error
}

type SyncQueue interface {
	CreateSyncTask(ctx context.Context, task *models.SyncTask) error
	GetPendingSyncTasks(ctx context.Context, limit int) ([]models.SyncTask, error)
	UpdateSyncTaskStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error
}

// OTPStore keeps one-time codes, the verified-email marks and request counters.
// A missing code reads as "" with a nil error.
type OTPStore interface {
	SaveOTP(ctx context.Context, email, code string, ttl time.Duration) error
	GetOTP(ctx context.Context, email string) (string, error)
	DeleteOTP(ctx context.Context, email string) error
	MarkVerified(ctx context.Context, email string, ttl time.Duration) error
	IsVerified(ctx context.Context, email string) (bool, error)
	ClearVerified(ctx context.Context, email string) error
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// SheetsWriter mirrors reservations into a spreadsheet.
type SheetsWriter interface {
	UpsertReservation(ctx context.Context, res *models.Reservation) error
	UpdateReservationStatus(ctx context.Context, reservationID int64, status models.ReservationStatus) error
	ReplaceReservations(ctx context.Context, reservations []*models.Reservation) error
}

type SyncWorker interface {
	EnqueueTask(ctx context.Context, taskType string, res *models.Reservation) error
}

// Mailer delivers transactional e-mail.
type Mailer interface {
	SendOTP(ctx context.Context, email, code string, ttl time.Duration) error
}
