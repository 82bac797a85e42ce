package models

// DashboardSummary is the aggregate read behind the admin dashboard.
type DashboardSummary struct {
	Users           int             `json:"users"`
	Rooms           int             `json:"rooms"`
	Reservations    int             `json:"reservations"`
	RecentFeedbacks []Feedback      `json:"recentFeedbacks"`
	RoomUsage       RoomUsage       `json:"roomUsage"`
	PopularRooms    []RoomBookings  `json:"popularRooms"`
	LastSevenDays   []DailyBookings `json:"lastSevenDays"`
}

type RoomUsage struct {
	InUse       int `json:"inUse"`
	Available   int `json:"available"`
	Maintenance int `json:"maintenance"`
}

type RoomBookings struct {
	RoomID       int64  `json:"roomId"`
	RoomName     string `json:"roomName"`
	Reservations int    `json:"reservations"`
}

type DailyBookings struct {
	Date         string `json:"date"`
	Weekday      string `json:"weekday"`
	Reservations int    `json:"reservations"`
}
