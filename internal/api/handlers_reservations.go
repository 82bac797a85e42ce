package api

import (
	"fmt"
	"net/http"
	"strings"

	"quickbook/internal/export"
	"quickbook/internal/listing"
	"quickbook/internal/models"
)

// reservationRequest accepts RFC 3339 or zone-less local times.
type reservationRequest struct {
	RoomID    int64  `json:"roomId"`
	Title     string `json:"title"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Amenities string `json:"amenities"`
}

func (s *HTTPServer) decodeReservation(w http.ResponseWriter, r *http.Request) (models.ReservationRequest, error) {
	var req reservationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return models.ReservationRequest{}, err
	}
	if req.RoomID <= 0 {
		return models.ReservationRequest{}, fmt.Errorf("roomId is required")
	}
	start, err := parseTime(req.StartTime, s.loc)
	if err != nil {
		return models.ReservationRequest{}, fmt.Errorf("startTime: %w", err)
	}
	end, err := parseTime(req.EndTime, s.loc)
	if err != nil {
		return models.ReservationRequest{}, fmt.Errorf("endTime: %w", err)
	}
	return models.ReservationRequest{
		RoomID:    req.RoomID,
		Title:     req.Title,
		StartTime: start,
		EndTime:   end,
		Amenities: req.Amenities,
	}, nil
}

func (s *HTTPServer) writeReservations(w http.ResponseWriter, r *http.Request, reservations []*models.Reservation) {
	q := r.URL.Query()
	date, err := parseDate(q.Get("date"), s.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	filter := listing.ReservationFilter{
		Query:    q.Get("q"),
		UserName: q.Get("user"),
		RoomName: q.Get("room"),
		Status:   q.Get("status"),
		Amenity:  q.Get("amenity"),
		Date:     date,
	}
	sorter := listing.ParseSorter(q.Get("sort"), q.Get("dir"))
	writeJSON(w, http.StatusOK, listing.Apply(reservations, filter.Predicate(), sorter, listing.ReservationKeys))
}

func (s *HTTPServer) handleAllReservations(w http.ResponseWriter, r *http.Request) {
	reservations, err := s.svc.Reservations.ListAll(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeReservations(w, r, reservations)
}

func (s *HTTPServer) handleMyReservations(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	reservations, err := s.svc.Reservations.ListMine(r.Context(), actor)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeReservations(w, r, reservations)
}

func (s *HTTPServer) handleRoomReservations(w http.ResponseWriter, r *http.Request) {
	roomID, err := pathID(r, "roomId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	reservations, err := s.svc.Reservations.ListByRoom(r.Context(), roomID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeReservations(w, r, reservations)
}

func (s *HTTPServer) handleCreateReservation(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeReservation(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	actor, _ := actorFrom(r.Context())
	res, err := s.svc.Reservations.Create(r.Context(), actor, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *HTTPServer) handleUpdateReservation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req, err := s.decodeReservation(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	actor, _ := actorFrom(r.Context())
	res, err := s.svc.Reservations.Update(r.Context(), actor, id, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *HTTPServer) handleCancelReservation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	actor, _ := actorFrom(r.Context())
	res, err := s.svc.Reservations.Cancel(r.Context(), actor, id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *HTTPServer) handleUpdateReservationStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	if status == "" {
		writeError(w, http.StatusBadRequest, "status is required")
		return
	}
	actor, _ := actorFrom(r.Context())
	res, err := s.svc.Reservations.UpdateStatus(r.Context(), actor, id, status)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *HTTPServer) handleExportReservations(w http.ResponseWriter, r *http.Request) {
	reservations, err := s.svc.Reservations.ListAll(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	rooms, err := s.svc.Rooms.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	f, err := export.ReservationsWorkbook(reservations, rooms, s.loc)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.writeServiceError(w, r, fmt.Errorf("error writing workbook: %w", err))
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.FileName(s.now().In(s.loc))))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
