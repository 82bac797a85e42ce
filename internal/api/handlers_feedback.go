package api

import (
	"net/http"

	"quickbook/internal/listing"
	"quickbook/internal/models"
)

func (s *HTTPServer) handleSubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var req models.FeedbackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	actor, _ := actorFrom(r.Context())
	fb, err := s.svc.Feedbacks.Submit(r.Context(), actor, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, fb)
}

func (s *HTTPServer) writeFeedbacks(w http.ResponseWriter, r *http.Request, feedbacks []*models.Feedback) {
	q := r.URL.Query()
	date, err := parseDate(q.Get("date"), s.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	filter := listing.FeedbackFilter{Query: q.Get("q"), Date: date}
	sorter := listing.ParseSorter(q.Get("sort"), q.Get("dir"))
	writeJSON(w, http.StatusOK, listing.Apply(feedbacks, filter.Predicate(), sorter, listing.FeedbackKeys))
}

func (s *HTTPServer) handleRoomFeedbacks(w http.ResponseWriter, r *http.Request) {
	roomID, err := pathID(r, "roomId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	feedbacks, err := s.svc.Feedbacks.ListByRoom(r.Context(), roomID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeFeedbacks(w, r, feedbacks)
}

func (s *HTTPServer) handleMyFeedbacks(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	feedbacks, err := s.svc.Feedbacks.ListMine(r.Context(), actor)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeFeedbacks(w, r, feedbacks)
}

func (s *HTTPServer) handleListFeedbacks(w http.ResponseWriter, r *http.Request) {
	feedbacks, err := s.svc.Feedbacks.ListAll(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeFeedbacks(w, r, feedbacks)
}

func (s *HTTPServer) handleDeleteFeedback(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	actor, _ := actorFrom(r.Context())
	if err := s.svc.Feedbacks.Delete(r.Context(), actor, id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleDashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := s.svc.Dashboard.Summary(r.Context(), s.now())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
