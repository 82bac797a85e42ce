package models

import "time"

// AllowedEmailDomains are the only domains accepted at signup.
var AllowedEmailDomains = []string{"jadeglobal.com", "kanverse.com"}

const (
	MinNameLength     = 3
	MaxNameLength     = 100
	MinPasswordLength = 6
	MaxCommentLength  = 1000

	// OTPLength number of digits in a one-time password
	OTPLength = 6
	// OTPTTL validity of a one-time password
	OTPTTL = 5 * time.Minute
	// OTPVerifiedTTL how long a verified e-mail may complete signup
	OTPVerifiedTTL = 30 * time.Minute
	// OTPRequestLimit requests per OTPRequestWindow per e-mail
	OTPRequestLimit  = 5
	OTPRequestWindow = 10 * time.Minute

	// CompletionInterval period of the completed-status sweep
	CompletionInterval = time.Minute

	// RecentFeedbackCount feedback entries shown on the dashboard
	RecentFeedbackCount = 5

	// ClientTimeout fixed request timeout of the REST client
	ClientTimeout = 10 * time.Second

	// RoomsCacheTTL lifetime of cached room lists
	RoomsCacheTTL = 30 * time.Second
)

// Machine-readable codes sent with 409 responses.
const (
	ErrorCodeSlotTaken      = "slot_taken"
	ErrorCodeNotCancellable = "not_cancellable"
	ErrorCodeConflict       = "conflict"
)
