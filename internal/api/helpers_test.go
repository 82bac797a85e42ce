package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"quickbook/internal/auth"
	"quickbook/internal/booking"
	"quickbook/internal/config"
	"quickbook/internal/database"
	"quickbook/internal/events"
	"quickbook/internal/models"
	"quickbook/internal/repository"
	"quickbook/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// bookingDay is a Monday far enough ahead to always be in the future.
var bookingDay = time.Date(2030, 3, 4, 0, 0, 0, 0, time.UTC)

// captureMailer keeps the last code sent per address.
type captureMailer struct {
	mu    sync.Mutex
	codes map[string]string
}

func (m *captureMailer) SendOTP(ctx context.Context, email, code string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.codes == nil {
		m.codes = make(map[string]string)
	}
	m.codes[email] = code
	return nil
}

func (m *captureMailer) code(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[email]
}

type testEnv struct {
	db     *database.DB
	svc    Services
	issuer *auth.Issuer
	mailer *captureMailer
	server *HTTPServer
	ts     *httptest.Server
}

func testLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func testAPIConfig() config.APIConfig {
	return config.APIConfig{
		HTTP:      config.APIHTTPConfig{Enabled: true},
		RateLimit: config.APIRateLimitConfig{RPS: 1000, Burst: 1000},
		CacheTTL:  time.Minute,
	}
}

func newTestEnv(t *testing.T, cfg config.APIConfig) *testEnv {
	t.Helper()
	logger := testLogger()

	db, err := database.NewDB(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	issuer := auth.NewIssuer("test-secret-0123456789", time.Hour, "quickbook")
	otpStore := repository.NewMemoryOTPStore()
	mailer := &captureMailer{}
	bus := events.NewEventBus()

	rules := booking.DefaultRules()
	rules.Location = time.UTC

	svc := Services{
		Users:        service.NewUserService(db, otpStore, issuer, logger),
		OTP:          service.NewOTPService(otpStore, mailer, config.OTPConfig{}, logger),
		Rooms:        service.NewRoomService(db, db, logger),
		Reservations: service.NewReservationService(db, db, bus, nil, rules, logger),
		Feedbacks:    service.NewFeedbackService(db, db, bus, logger),
		Dashboard:    service.NewDashboardService(db, db, db, db, time.UTC),
	}

	server := NewHTTPServer(cfg, svc, issuer, nil, time.UTC, logger)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)

	return &testEnv{db: db, svc: svc, issuer: issuer, mailer: mailer, server: server, ts: ts}
}

// user creates an account directly in the store and returns it with a token.
func (e *testEnv) user(t *testing.T, name, email string, role models.Role) (*models.User, string) {
	t.Helper()
	hash, err := auth.HashPassword("secret1")
	require.NoError(t, err)
	u := &models.User{Name: name, Email: email, PasswordHash: hash, Role: role}
	require.NoError(t, e.db.CreateUser(context.Background(), u))
	token, err := e.issuer.MakeToken(u)
	require.NoError(t, err)
	return u, token
}

func (e *testEnv) room(t *testing.T, name string, availability models.RoomAvailability) *models.Room {
	t.Helper()
	r := &models.Room{Name: name, Location: models.LocationHyderabad, Capacity: 8, Availability: availability}
	require.NoError(t, e.db.CreateRoom(context.Background(), r))
	return r
}

type response struct {
	status int
	header http.Header
	body   []byte
}

func (r response) decode(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.body, v), string(r.body))
}

func (r response) errorMessage(t *testing.T) string {
	t.Helper()
	var body errorResponse
	r.decode(t, &body)
	return body.Error
}

func (r response) conflictCode(t *testing.T) string {
	t.Helper()
	var body errorResponse
	r.decode(t, &body)
	return body.Code
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, e.ts.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return response{status: resp.StatusCode, header: resp.Header, body: raw}
}

func reservationBody(roomID int64, title string, startHour, endHour int) map[string]any {
	return map[string]any{
		"roomId":    roomID,
		"title":     title,
		"startTime": bookingDay.Add(time.Duration(startHour) * time.Hour).Format(time.RFC3339),
		"endTime":   bookingDay.Add(time.Duration(endHour) * time.Hour).Format(time.RFC3339),
		"amenities": "projector",
	}
}

func configRate(rps float64, burst int) config.APIRateLimitConfig {
	return config.APIRateLimitConfig{RPS: rps, Burst: burst}
}
