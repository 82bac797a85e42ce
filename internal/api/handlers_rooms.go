package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"quickbook/internal/booking"
	"quickbook/internal/listing"
	"quickbook/internal/models"
)

type roomRequest struct {
	Name         string  `json:"name"`
	Location     string  `json:"location"`
	Capacity     int     `json:"capacity"`
	Availability string  `json:"availability"`
	Description  *string `json:"description"`
	ImageURL     *string `json:"imageURL"`
}

// apply overlays the request onto room. Empty fields keep the current value.
func (req roomRequest) apply(room *models.Room) {
	if name := strings.TrimSpace(req.Name); name != "" {
		room.Name = name
	}
	if req.Location != "" {
		room.Location = models.RoomLocation(req.Location)
	}
	if req.Capacity != 0 {
		room.Capacity = req.Capacity
	}
	if req.Availability != "" {
		room.Availability = models.RoomAvailability(strings.TrimSpace(req.Availability))
	}
	if req.Description != nil {
		room.Description = *req.Description
	}
	if req.ImageURL != nil {
		room.ImageURL = *req.ImageURL
	}
}

type roomStatusResponse struct {
	Start time.Time                  `json:"start"`
	End   time.Time                  `json:"end"`
	Rooms []booking.RoomAvailability `json:"rooms"`
}

func (s *HTTPServer) writeRooms(w http.ResponseWriter, r *http.Request, rooms []*models.Room) {
	q := r.URL.Query()
	filter := listing.RoomFilter{
		Query:        q.Get("q"),
		Location:     q.Get("location"),
		Availability: q.Get("availability"),
	}
	sorter := listing.ParseSorter(q.Get("sort"), q.Get("dir"))
	writeJSON(w, http.StatusOK, listing.Apply(rooms, filter.Predicate(), sorter, listing.RoomKeys))
}

func (s *HTTPServer) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.svc.Rooms.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeRooms(w, r, rooms)
}

func (s *HTTPServer) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	room, err := s.svc.Rooms.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (s *HTTPServer) handleRoomsBy(w http.ResponseWriter, r *http.Request) {
	var (
		rooms []*models.Room
		err   error
	)
	value := r.PathValue("value")
	switch r.PathValue("by") {
	case "name":
		room, err := s.svc.Rooms.ByName(r.Context(), value)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, room)
		return
	case "location":
		rooms, err = s.svc.Rooms.ByLocation(r.Context(), value)
	case "capacity":
		minCapacity, convErr := strconv.Atoi(value)
		if convErr != nil {
			writeError(w, http.StatusBadRequest, "invalid capacity: "+value)
			return
		}
		rooms, err = s.svc.Rooms.ByMinCapacity(r.Context(), minCapacity)
	default:
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeRooms(w, r, rooms)
}

func (s *HTTPServer) handleAvailableRooms(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := parseTime(q.Get("startTime"), s.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "startTime: "+err.Error())
		return
	}
	end, err := parseTime(q.Get("endTime"), s.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "endTime: "+err.Error())
		return
	}
	rooms, err := s.svc.Rooms.AvailableFor(r.Context(), start, end)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

// handleRoomStatuses evaluates every room for date (default today) between
// the start and end clocks.
func (s *HTTPServer) handleRoomStatuses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("start") == "" || q.Get("end") == "" {
		writeError(w, http.StatusBadRequest, "start and end are required (HH:MM)")
		return
	}

	var (
		iv  booking.Interval
		err error
	)
	if raw := q.Get("date"); raw != "" {
		day, perr := parseDate(raw, s.loc)
		if perr != nil {
			writeError(w, http.StatusBadRequest, perr.Error())
			return
		}
		iv, err = booking.DayInterval(day, q.Get("start"), q.Get("end"), s.loc)
	} else {
		iv, err = booking.TodayInterval(s.now(), q.Get("start"), q.Get("end"), s.loc)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	statuses, err := s.svc.Rooms.Statuses(r.Context(), iv)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, roomStatusResponse{Start: iv.Start, End: iv.End, Rooms: statuses})
}

// handleRoomSchedule lists the room's reservations, optionally limited to [from, to).
func (s *HTTPServer) handleRoomSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	q := r.URL.Query()
	rawFrom, rawTo := firstOf(q.Get("from"), q.Get("fromDate")), firstOf(q.Get("to"), q.Get("toDate"))
	if rawFrom == "" || rawTo == "" {
		if _, err := s.svc.Rooms.Get(r.Context(), id); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		reservations, err := s.svc.Reservations.ListByRoom(r.Context(), id)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, reservations)
		return
	}

	from, err := parseTime(rawFrom, s.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "from: "+err.Error())
		return
	}
	to, err := parseTime(rawTo, s.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "to: "+err.Error())
		return
	}
	reservations, err := s.svc.Rooms.Schedule(r.Context(), id, from, to)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reservations)
}

// handleRoomNote appends the "feedback" query value to the room description.
func (s *HTTPServer) handleRoomNote(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.svc.Rooms.AddNote(r.Context(), id, r.URL.Query().Get("feedback")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.invalidateRooms()

	room, err := s.svc.Rooms.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (s *HTTPServer) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req roomRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	room := &models.Room{}
	req.apply(room)

	actor, _ := actorFrom(r.Context())
	if err := s.svc.Rooms.Create(r.Context(), actor, room); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.invalidateRooms()
	writeJSON(w, http.StatusCreated, room)
}

func (s *HTTPServer) handleUpdateRoom(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req roomRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	room, err := s.svc.Rooms.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	req.apply(room)

	actor, _ := actorFrom(r.Context())
	if err := s.svc.Rooms.Update(r.Context(), actor, room); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.invalidateRooms()
	writeJSON(w, http.StatusOK, room)
}

func (s *HTTPServer) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	actor, _ := actorFrom(r.Context())
	if err := s.svc.Rooms.Delete(r.Context(), actor, id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.invalidateRooms()
	w.WriteHeader(http.StatusNoContent)
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
