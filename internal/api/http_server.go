package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"quickbook/internal/auth"
	"quickbook/internal/config"
	"quickbook/internal/service"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
)

// Services are the use cases the transport exposes.
type Services struct {
	Users        *service.UserService
	OTP          *service.OTPService
	Rooms        *service.RoomService
	Reservations *service.ReservationService
	Feedbacks    *service.FeedbackService
	Dashboard    *service.DashboardService
}

// HTTPServer serves the REST API under /api.
type HTTPServer struct {
	cfg     config.APIConfig
	svc     Services
	issuer  *auth.Issuer
	loc     *time.Location
	limiter *RateLimiter
	cache   *cache.Cache
	server  *http.Server
	log     zerolog.Logger
	now     func() time.Time
}

// NewHTTPServer wires routes and middleware. loc is the zone of dates and
// zone-less times in requests and of the export.
func NewHTTPServer(cfg config.APIConfig, svc Services, issuer *auth.Issuer, limiter *RateLimiter, loc *time.Location, logger *zerolog.Logger) *HTTPServer {
	if loc == nil {
		loc = time.UTC
	}
	if limiter == nil {
		limiter = NewRateLimiter(cfg.RateLimit)
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	srv := &HTTPServer{
		cfg:     cfg,
		svc:     svc,
		issuer:  issuer,
		loc:     loc,
		limiter: limiter,
		cache:   cache.New(ttl, 2*ttl),
		log:     zerolog.Nop(),
		now:     time.Now,
	}
	if logger != nil {
		srv.log = logger.With().Str("component", "http").Logger()
	}

	mux := http.NewServeMux()
	srv.routes(mux)

	handler := requestIDMiddleware(
		srv.loggingMiddleware(
			srv.corsMiddleware(
				srv.rateLimitMiddleware(
					srv.authMiddleware(mux)))))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}
	return srv
}

func (s *HTTPServer) routes(mux *http.ServeMux) {
	handle := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, route(pattern, h))
	}

	handle("GET /healthz", s.handleHealth)

	handle("POST /api/auth/login", s.handleLogin)
	handle("POST /api/auth/signup", s.handleSignup)
	handle("POST /api/auth/request-otp", s.handleRequestOTP)
	handle("POST /api/auth/verify-otp", s.handleVerifyOTP)

	handle("GET /api/users/profile", requireUser(s.handleGetProfile))
	handle("PUT /api/users/profile", requireUser(s.handleUpdateProfile))
	handle("GET /api/users/reservations", requireUser(s.handleAllReservations))
	handle("GET /api/users/my_reservations", requireUser(s.handleMyReservations))
	handle("POST /api/users/reservations", requireUser(s.handleCreateReservation))
	handle("PUT /api/users/reservations/{id}", requireUser(s.handleUpdateReservation))
	handle("DELETE /api/users/reservations/{id}", requireUser(s.handleCancelReservation))
	handle("POST /api/users/feedback", requireUser(s.handleSubmitFeedback))
	handle("GET /api/users/feedback/room/{roomId}", requireUser(s.handleRoomFeedbacks))
	handle("GET /api/users/feedback/my", requireUser(s.handleMyFeedbacks))

	handle("GET /api/rooms", requireUser(s.cached(s.handleListRooms)))
	handle("GET /api/rooms/available", requireUser(s.handleAvailableRooms))
	handle("GET /api/rooms/status", requireUser(s.handleRoomStatuses))
	handle("GET /api/rooms/{id}", requireUser(s.handleGetRoom))
	// name/{name}, location/{location} and capacity/{min}. A literal second
	// segment would collide with {id}/schedule in the mux.
	handle("GET /api/rooms/{by}/{value}", requireUser(s.handleRoomsBy))
	handle("GET /api/rooms/{id}/schedule", requireUser(s.handleRoomSchedule))
	handle("POST /api/rooms/{id}/feedback", requireUser(s.handleRoomNote))

	handle("POST /api/feedbacks", requireUser(s.handleSubmitFeedback))
	handle("GET /api/feedbacks/room/{roomId}", requireUser(s.handleRoomFeedbacks))
	handle("GET /api/feedbacks/user", requireUser(s.handleMyFeedbacks))

	handle("GET /api/admin/users", requireAdmin(s.handleListUsers))
	handle("GET /api/admin/users/{id}", requireAdmin(s.handleGetUser))
	handle("PUT /api/admin/users/{id}/role", requireAdmin(s.handleUpdateRole))
	handle("DELETE /api/admin/users/{id}", requireAdmin(s.handleDeleteUser))
	handle("GET /api/admin/rooms", requireAdmin(s.handleListRooms))
	handle("POST /api/admin/rooms", requireAdmin(s.handleCreateRoom))
	handle("PUT /api/admin/rooms/{id}", requireAdmin(s.handleUpdateRoom))
	handle("DELETE /api/admin/rooms/{id}", requireAdmin(s.handleDeleteRoom))
	handle("GET /api/admin/reservations", requireAdmin(s.handleAllReservations))
	handle("GET /api/admin/reservations/room/{roomId}", requireAdmin(s.handleRoomReservations))
	handle("PUT /api/admin/reservations/{id}/status", requireAdmin(s.handleUpdateReservationStatus))
	handle("GET /api/admin/reservations/export", requireAdmin(s.handleExportReservations))
	handle("GET /api/admin/feedbacks", requireAdmin(s.handleListFeedbacks))
	handle("DELETE /api/admin/feedback/{id}", requireAdmin(s.handleDeleteFeedback))
	handle("GET /api/admin/dashboard", requireAdmin(s.handleDashboard))
}

// Handler returns the full middleware chain, for tests and embedding.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
