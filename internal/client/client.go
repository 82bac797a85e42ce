package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"quickbook/internal/booking"
	"quickbook/internal/models"

	"github.com/redis/go-redis/v9"
)

const roomsCacheKey = "quickbook:rooms"

// Client calls the QuickBook REST API on behalf of one session.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
	rules      booking.Rules
	now        func() time.Time

	redis    *redis.Client
	cacheTTL time.Duration
}

// New builds a client with the fixed request timeout and default booking
// rules. A nil session starts signed out.
func New(baseURL string, session *Session) *Client {
	if session == nil {
		session = NewSession()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: models.ClientTimeout},
		session:    session,
		rules:      booking.DefaultRules(),
		now:        time.Now,
	}
}

// UseRedisCache enables caching of the room list.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// SetRules replaces the rules used for the local booking pre-check.
func (c *Client) SetRules(rules booking.Rules) {
	c.rules = rules
}

func (c *Client) Session() *Session {
	return c.session
}

// Login signs in and starts the session with the returned token.
func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	var resp struct {
		Token string       `json:"token"`
		User  *models.User `json:"user"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("%w: login response without token", ErrServer)
	}
	c.session.Begin(resp.Token)
	return resp.User, nil
}

// Logout ends the local session. Tokens are stateless, so the server is not called.
func (c *Client) Logout() {
	c.session.End()
}

func (c *Client) Signup(ctx context.Context, name, email, password string) (*models.User, error) {
	var resp struct {
		User *models.User `json:"user"`
	}
	body := map[string]string{"name": name, "email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/signup", body, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// RequestOTP mails a one-time password and returns how long it stays valid.
func (c *Client) RequestOTP(ctx context.Context, email string) (time.Duration, error) {
	var resp struct {
		ExpiresIn int `json:"expiresIn"`
	}
	path := "/api/auth/request-otp?" + url.Values{"email": {email}}.Encode()
	if err := c.do(ctx, http.MethodPost, path, nil, &resp); err != nil {
		return 0, err
	}
	return time.Duration(resp.ExpiresIn) * time.Second, nil
}

func (c *Client) VerifyOTP(ctx context.Context, email, otp string) error {
	path := "/api/auth/verify-otp?" + url.Values{"email": {email}, "otp": {otp}}.Encode()
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/api/users/profile", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) UpdateProfile(ctx context.Context, name string) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodPut, "/api/users/profile", map[string]string{"name": name}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Rooms lists every room, served from Redis when the cache is enabled.
func (c *Client) Rooms(ctx context.Context) ([]models.Room, error) {
	var rooms []models.Room
	if c.readCache(ctx, roomsCacheKey, &rooms) {
		return rooms, nil
	}
	if err := c.do(ctx, http.MethodGet, "/api/rooms", nil, &rooms); err != nil {
		return nil, err
	}
	c.writeCache(ctx, roomsCacheKey, rooms)
	return rooms, nil
}

func (c *Client) AllReservations(ctx context.Context) ([]models.Reservation, error) {
	var out []models.Reservation
	if err := c.do(ctx, http.MethodGet, "/api/users/reservations", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) MyReservations(ctx context.Context) ([]models.Reservation, error) {
	var out []models.Reservation
	if err := c.do(ctx, http.MethodGet, "/api/users/my_reservations", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// BookingRequest is what the booking form collects.
type BookingRequest struct {
	RoomID    int64
	Title     string
	Start     time.Time
	End       time.Time
	Amenities []models.Amenity
}

// BookRoom checks the booking rules locally and only then calls the server.
// A rule violation comes back as a *booking.ValidationError.
func (c *Client) BookRoom(ctx context.Context, req BookingRequest) (*models.Reservation, error) {
	if err := c.rules.ValidateFuture(booking.NewInterval(req.Start, req.End), c.now()); err != nil {
		return nil, err
	}
	body := map[string]any{
		"roomId":    req.RoomID,
		"title":     req.Title,
		"startTime": req.Start.Format(time.RFC3339),
		"endTime":   req.End.Format(time.RFC3339),
		"amenities": booking.JoinAmenities(req.Amenities),
	}
	var res models.Reservation
	if err := c.do(ctx, http.MethodPost, "/api/users/reservations", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// CancelReservation refuses locally for reservations that are no longer
// cancellable.
func (c *Client) CancelReservation(ctx context.Context, res *models.Reservation) (*models.Reservation, error) {
	if !booking.CanCancel(res, c.now()) {
		return nil, ErrNotCancellable
	}
	var out models.Reservation
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/users/reservations/%d", res.ID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SubmitFeedback(ctx context.Context, req models.FeedbackRequest) (*models.Feedback, error) {
	var fb models.Feedback
	if err := c.do(ctx, http.MethodPost, "/api/feedbacks", req, &fb); err != nil {
		return nil, err
	}
	return &fb, nil
}

func (c *Client) MyFeedback(ctx context.Context) ([]models.Feedback, error) {
	var out []models.Feedback
	if err := c.do(ctx, http.MethodGet, "/api/feedbacks/user", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(val, out) == nil
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.cacheTTL).Err()
}

func (c *Client) dropCache(ctx context.Context, key string) {
	if c.redis == nil {
		return
	}
	_ = c.redis.Del(ctx, key).Err()
}

// do sends body as JSON and decodes a 2xx response into out. Non-2xx
// responses map to the package sentinels; a 401 also ends the session.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		if resp.StatusCode == http.StatusUnauthorized {
			c.session.End()
		}
		msg, code := readError(resp.Body)
		return statusError(resp.StatusCode, msg, code)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", ErrServer, err)
	}
	return nil
}

// readError extracts "error" (or "message") and "code" from a JSON error body.
func readError(r io.Reader) (string, string) {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Code    string `json:"code"`
	}
	data, err := io.ReadAll(io.LimitReader(r, 64<<10))
	if err != nil || json.Unmarshal(data, &body) != nil {
		return strings.TrimSpace(string(data)), ""
	}
	if body.Error != "" {
		return body.Error, body.Code
	}
	return body.Message, body.Code
}
