package models

import (
	"fmt"
	"strings"
	"time"
)

// RoomLocation is the site a meeting room belongs to.
type RoomLocation string

const (
	LocationHyderabad        RoomLocation = "Hyderabad"
	LocationPuneWadgaonsheri RoomLocation = "Pune_Wadgaonsheri"
	LocationPuneBaner        RoomLocation = "Pune_Baner"
)

var roomLocations = []RoomLocation{LocationHyderabad, LocationPuneWadgaonsheri, LocationPuneBaner}

func (l RoomLocation) Valid() bool {
	for _, v := range roomLocations {
		if l == v {
			return true
		}
	}
	return false
}

// ParseRoomLocation accepts both "Pune_Baner" and the display form "Pune Baner".
func ParseRoomLocation(raw string) (RoomLocation, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(raw), ", ", "_")
	normalized = strings.ReplaceAll(normalized, " ", "_")
	for _, v := range roomLocations {
		if strings.EqualFold(string(v), normalized) {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid location: %s", raw)
}

// RoomAvailability is the static, admin-controlled state of a room.
type RoomAvailability string

const (
	RoomAvailable        RoomAvailability = "Available"
	RoomUnderMaintenance RoomAvailability = "Under_Maintenance"
)

func (a RoomAvailability) Valid() bool {
	return a == RoomAvailable || a == RoomUnderMaintenance
}

func ParseRoomAvailability(raw string) (RoomAvailability, error) {
	a := RoomAvailability(strings.TrimSpace(raw))
	if !a.Valid() {
		return "", fmt.Errorf("invalid availability status: %s", raw)
	}
	return a, nil
}

// RoomStatus is the bookability of a room for one candidate interval.
type RoomStatus string

const (
	StatusRoomAvailable        RoomStatus = "Available"
	StatusRoomBooked           RoomStatus = "booked"
	StatusRoomUnderMaintenance RoomStatus = "Under_Maintenance"
)

type Room struct {
	ID           int64            `json:"id"`
	Name         string           `json:"name"`
	Location     RoomLocation     `json:"location"`
	Capacity     int              `json:"capacity"`
	Availability RoomAvailability `json:"availability"`
	Description  string           `json:"description,omitempty"`
	ImageURL     string           `json:"imageURL,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
}

// SeedRoom is the shape of a room in the seed YAML file.
type SeedRoom struct {
	Name        string `yaml:"name"`
	Location    string `yaml:"location"`
	Capacity    int    `yaml:"capacity"`
	Description string `yaml:"description"`
	ImageURL    string `yaml:"image_url"`
}
