package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"quickbook/internal/booking"
	"quickbook/internal/database"
	"quickbook/internal/models"
	"quickbook/internal/service"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeMessage(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"message": message})
}

// errorStatus maps a service or store error onto an HTTP status and a client message.
func errorStatus(err error) (int, string) {
	var verr *booking.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Error()
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, booking.ErrInvalidInterval),
		errors.Is(err, booking.ErrStartInPast),
		errors.Is(err, booking.ErrUnknownAmenity),
		errors.Is(err, service.ErrInvalidOTP),
		errors.Is(err, service.ErrEmailNotVerified):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, service.ErrInvalidCredentials.Error()
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "access denied"
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, database.ErrSlotTaken):
		return http.StatusConflict, database.ErrSlotTaken.Error()
	case errors.Is(err, database.ErrDuplicate),
		errors.Is(err, database.ErrNotCancellable),
		errors.Is(err, database.ErrConcurrentModification),
		errors.Is(err, service.ErrRoomUnderMaintenance),
		errors.Is(err, service.ErrNotEditable),
		errors.Is(err, service.ErrFeedbackNotAllowed):
		return http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrRateLimited):
		return http.StatusTooManyRequests, service.ErrRateLimited.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// errorCode tells conflicts apart for clients. Only 409s carry a code.
func errorCode(err error) string {
	switch {
	case errors.Is(err, database.ErrSlotTaken):
		return models.ErrorCodeSlotTaken
	case errors.Is(err, database.ErrNotCancellable):
		return models.ErrorCodeNotCancellable
	default:
		return models.ErrorCodeConflict
	}
}

func (s *HTTPServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode, msg := errorStatus(err)
	if statusCode == http.StatusInternalServerError {
		s.log.Error().Err(err).
			Str("request_id", requestID(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
	}
	body := errorResponse{Error: msg}
	if statusCode == http.StatusConflict {
		body.Code = errorCode(err)
	}
	writeJSON(w, statusCode, body)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return id, nil
}

// parseTime accepts RFC 3339 and the zone-less "2006-01-02T15:04[:05]" forms.
// Zone-less values are read in loc.
func parseTime(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q, expected RFC 3339", raw)
}

func parseDate(raw string, loc *time.Location) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	d, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(raw), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format; expected YYYY-MM-DD")
	}
	return d, nil
}
