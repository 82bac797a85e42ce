package models

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

type Feedback struct {
	ID            int64     `json:"id"`
	ReservationID int64     `json:"reservationId"`
	UserID        int64     `json:"userId"`
	UserName      string    `json:"userName"`
	RoomID        int64     `json:"roomId"`
	RoomName      string    `json:"roomName"`
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment"`
	CreatedAt     time.Time `json:"createdAt"`
}

type FeedbackRequest struct {
	ReservationID int64  `json:"reservationId"`
	Rating        int    `json:"rating"`
	Comment       string `json:"comment"`
}
