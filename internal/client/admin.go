package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"quickbook/internal/models"
)

// RoomInput is the admin room form. Zero fields are left unchanged on update.
type RoomInput struct {
	Name         string                  `json:"name,omitempty"`
	Location     models.RoomLocation     `json:"location,omitempty"`
	Capacity     int                     `json:"capacity,omitempty"`
	Availability models.RoomAvailability `json:"availability,omitempty"`
	Description  *string                 `json:"description,omitempty"`
	ImageURL     *string                 `json:"imageURL,omitempty"`
}

func (c *Client) Users(ctx context.Context) ([]models.User, error) {
	var out []models.User
	if err := c.do(ctx, http.MethodGet, "/api/admin/users", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateUserRole(ctx context.Context, id int64, role models.Role) (*models.User, error) {
	path := fmt.Sprintf("/api/admin/users/%d/role?%s", id, url.Values{"role": {string(role)}}.Encode())
	var user models.User
	if err := c.do(ctx, http.MethodPut, path, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", id), nil, nil)
}

func (c *Client) CreateRoom(ctx context.Context, in RoomInput) (*models.Room, error) {
	var room models.Room
	if err := c.do(ctx, http.MethodPost, "/api/admin/rooms", in, &room); err != nil {
		return nil, err
	}
	c.dropCache(ctx, roomsCacheKey)
	return &room, nil
}

func (c *Client) UpdateRoom(ctx context.Context, id int64, in RoomInput) (*models.Room, error) {
	var room models.Room
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/admin/rooms/%d", id), in, &room); err != nil {
		return nil, err
	}
	c.dropCache(ctx, roomsCacheKey)
	return &room, nil
}

func (c *Client) DeleteRoom(ctx context.Context, id int64) error {
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/admin/rooms/%d", id), nil, nil); err != nil {
		return err
	}
	c.dropCache(ctx, roomsCacheKey)
	return nil
}

func (c *Client) AdminReservations(ctx context.Context) ([]models.Reservation, error) {
	var out []models.Reservation
	if err := c.do(ctx, http.MethodGet, "/api/admin/reservations", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Feedbacks(ctx context.Context) ([]models.Feedback, error) {
	var out []models.Feedback
	if err := c.do(ctx, http.MethodGet, "/api/admin/feedbacks", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteFeedback(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/admin/feedback/%d", id), nil, nil)
}

func (c *Client) Dashboard(ctx context.Context) (*models.DashboardSummary, error) {
	var out models.DashboardSummary
	if err := c.do(ctx, http.MethodGet, "/api/admin/dashboard", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
