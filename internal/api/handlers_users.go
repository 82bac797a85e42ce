package api

import (
	"net/http"
	"strings"

	"quickbook/internal/listing"
	"quickbook/internal/models"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"tokenType"`
	User      *models.User `json:"user"`
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type profileRequest struct {
	Name string `json:"name"`
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	token, user, err := s.svc.Users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, TokenType: "Bearer", User: user})
}

func (s *HTTPServer) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := s.svc.Users.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"user":    user,
	})
}

func (s *HTTPServer) handleRequestOTP(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}
	if err := s.svc.OTP.Request(r.Context(), email); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "OTP sent successfully",
		"expiresIn": int(s.svc.OTP.TTL().Seconds()),
	})
}

func (s *HTTPServer) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	email := strings.TrimSpace(q.Get("email"))
	code := strings.TrimSpace(q.Get("otp"))
	if email == "" || code == "" {
		writeError(w, http.StatusBadRequest, "email and otp are required")
		return
	}
	if err := s.svc.OTP.Verify(r.Context(), email, code); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "OTP verified successfully")
}

func (s *HTTPServer) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	user, err := s.svc.Users.Profile(r.Context(), actor.UserID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *HTTPServer) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := s.svc.Users.UpdateProfile(r.Context(), actor.UserID, req.Name)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *HTTPServer) handleListUsers(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	users, err := s.svc.Users.ListUsers(r.Context(), actor)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	q := r.URL.Query()
	filter := listing.UserFilter{
		Query:         q.Get("q"),
		Role:          q.Get("role"),
		ExcludeAdmins: q.Get("excludeAdmins") == "true",
	}
	sorter := listing.ParseSorter(q.Get("sort"), q.Get("dir"))
	writeJSON(w, http.StatusOK, listing.Apply(users, filter.Predicate(), sorter, listing.UserKeys))
}

func (s *HTTPServer) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	actor, _ := actorFrom(r.Context())
	user, err := s.svc.Users.GetUser(r.Context(), actor, id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *HTTPServer) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	role := r.URL.Query().Get("role")
	if role == "" {
		writeError(w, http.StatusBadRequest, "role is required")
		return
	}
	actor, _ := actorFrom(r.Context())
	user, err := s.svc.Users.UpdateRole(r.Context(), actor, id, role)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *HTTPServer) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	actor, _ := actorFrom(r.Context())
	if err := s.svc.Users.DeleteUser(r.Context(), actor, id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
