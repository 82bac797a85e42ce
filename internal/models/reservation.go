package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

type ReservationStatus string

const (
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCompleted ReservationStatus = "completed"
	ReservationCancelled ReservationStatus = "cancelled"
)

func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationConfirmed, ReservationCompleted, ReservationCancelled:
		return true
	}
	return false
}

func ParseReservationStatus(raw string) (ReservationStatus, error) {
	s := ReservationStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("invalid status: %s", raw)
	}
	return s, nil
}

// Amenity is an equipment tag a reservation can request.
type Amenity string

const (
	AmenityProjector        Amenity = "projector"
	AmenityMicSpeakers      Amenity = "mic-speakers"
	AmenityTable            Amenity = "table"
	AmenityWhiteboardMarker Amenity = "whiteboard-marker"
)

var amenities = map[Amenity]struct{}{
	AmenityProjector:        {},
	AmenityMicSpeakers:      {},
	AmenityTable:            {},
	AmenityWhiteboardMarker: {},
}

func (a Amenity) Valid() bool {
	_, ok := amenities[a]
	return ok
}

// AllAmenities returns the known tags in a stable order.
func AllAmenities() []Amenity {
	out := make([]Amenity, 0, len(amenities))
	for a := range amenities {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type Reservation struct {
	ID               int64             `json:"id"`
	UserID           int64             `json:"userId"`
	UserName         string            `json:"userName"`
	UserEmail        string            `json:"userEmail"`
	RoomID           int64             `json:"roomId"`
	RoomName         string            `json:"roomName"`
	Title            string            `json:"title"`
	StartTime        time.Time         `json:"startTime"`
	EndTime          time.Time         `json:"endTime"`
	Status           ReservationStatus `json:"status"`
	Amenities        string            `json:"amenities"`
	FeedbackProvided bool              `json:"feedbackProvided"`
	CreatedAt        time.Time         `json:"createdAt"`
	Version          int64             `json:"version"`
}

// ReservationRequest is the payload of a booking submission.
type ReservationRequest struct {
	RoomID    int64     `json:"roomId"`
	Title     string    `json:"title"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Amenities string    `json:"amenities"`
}
