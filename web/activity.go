// ABOUTME: Interaction and reminder handlers, including the merged reminders feed
// ABOUTME: The feed combines computed attention reminders with pending custom reminders
package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/prm/models"
	"github.com/harperreed/prm/reminders"
)

type interactionRequest struct {
	Date        *time.Time          `json:"date"`
	Type        string              `json:"type" validate:"required,oneof=call email meeting"`
	Notes       string              `json:"notes"`
	Attachments []models.Attachment `json:"attachments" validate:"max=20"`
}

func (s *Server) handleListInteractions(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			s.respondError(w, r, fmt.Errorf("%w: invalid limit", errBadRequest))
			return
		}
	}
	interactions, err := s.repo.ListInteractions(r.Context(), id, limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, interactions)
}

func (s *Server) handleCreateInteraction(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var req interactionRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	i := models.Interaction{
		PartnerID:   id,
		Type:        req.Type,
		Notes:       req.Notes,
		Attachments: req.Attachments,
		Date:        s.now(),
	}
	if req.Date != nil {
		i.Date = *req.Date
	}
	if err := s.repo.CreateInteraction(r.Context(), &i); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, i)
}

func (s *Server) handleUpdateInteraction(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	i, err := s.repo.GetInteraction(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var req interactionRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	i.Type = req.Type
	i.Notes = req.Notes
	i.Attachments = req.Attachments
	if req.Date != nil {
		i.Date = *req.Date
	}
	if err := s.repo.UpdateInteraction(r.Context(), i); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, i)
}

func (s *Server) handleDeleteInteraction(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.repo.DeleteInteraction(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type reminderRequest struct {
	Title   string     `json:"title" validate:"required,max=500"`
	DueDate *time.Time `json:"due_date" validate:"required"`
}

func (s *Server) handleListPartnerReminders(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	includeCompleted := r.URL.Query().Get("all") == "true"
	list, err := s.repo.ListReminders(r.Context(), id, includeCompleted)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateReminder(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var req reminderRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	rem := models.CustomReminder{PartnerID: id, Title: strings.TrimSpace(req.Title), DueDate: *req.DueDate}
	if err := s.repo.CreateReminder(r.Context(), &rem); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rem)
}

func (s *Server) handleCompleteReminder(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	rem, err := s.repo.CompleteReminder(r.Context(), id, s.now())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rem)
}

func (s *Server) handleDeleteReminder(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.repo.DeleteReminder(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type remindersResponse struct {
	Reminders []reminders.Reminder `json:"reminders"`
	Overdue   int                  `json:"overdue"`
	Upcoming  int                  `json:"upcoming"`
}

// reminderFilter reads level, kind, partner and key_person from the query.
func reminderFilter(r *http.Request) (reminders.Filter, error) {
	q := r.URL.Query()
	f := reminders.Filter{
		Level:     reminders.Level(q.Get("level")),
		Kind:      reminders.Kind(q.Get("kind")),
		KeyPerson: q.Get("key_person"),
	}
	if err := f.Validate(); err != nil {
		return f, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if raw := q.Get("partner"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return f, fmt.Errorf("%w: invalid partner", errBadRequest)
		}
		f.PartnerID = &id
	}
	return f, nil
}

func (s *Server) mergedReminders(r *http.Request) ([]reminders.Reminder, error) {
	partners, err := s.repo.ListPartners(r.Context(), "")
	if err != nil {
		return nil, err
	}
	pending, err := s.repo.ListPendingReminders(r.Context())
	if err != nil {
		return nil, err
	}
	return reminders.Merge(partners, pending, s.now()), nil
}

func (s *Server) handleListReminders(w http.ResponseWriter, r *http.Request) {
	f, err := reminderFilter(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	merged, err := s.mergedReminders(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	list := f.Apply(merged)
	overdue, upcoming := reminders.Counts(list)
	writeJSON(w, http.StatusOK, remindersResponse{Reminders: list, Overdue: overdue, Upcoming: upcoming})
}
