// ABOUTME: Partner, contact and partner-tag handlers
// ABOUTME: Partner responses carry the computed attention state alongside the stored record
package web

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/harperreed/prm/db"
	"github.com/harperreed/prm/models"
	"github.com/harperreed/prm/reminders"
)

type partnerView struct {
	models.Partner
	Attention reminders.Attention `json:"attention"`
}

func (s *Server) viewOf(p *models.Partner) partnerView {
	return partnerView{Partner: *p, Attention: reminders.Evaluate(p, s.now())}
}

type partnerRequest struct {
	Name                string                      `json:"name" validate:"required,max=200"`
	HealthStatus        string                      `json:"health_status" validate:"omitempty,oneof=Active AtRisk Dormant"`
	KeyPersonID         *string                     `json:"key_person_id"`
	OwnerID             *uuid.UUID                  `json:"owner_id"`
	NeedsAttentionDays  int                         `json:"needs_attention_days" validate:"gte=0,lte=3650"`
	IntegrationProducts []models.ProductIntegration `json:"integration_products"`
	Vertical            string                      `json:"vertical" validate:"max=200"`
	UseCase             string                      `json:"use_case" validate:"max=2000"`
	LogoURL             string                      `json:"logo_url" validate:"omitempty,max=2000"`
	Version             int64                       `json:"version"`
}

func (req partnerRequest) apply(p *models.Partner) {
	p.Name = strings.TrimSpace(req.Name)
	p.HealthStatus = req.HealthStatus
	p.KeyPersonID = req.KeyPersonID
	if p.KeyPersonID != nil && strings.TrimSpace(*p.KeyPersonID) == "" {
		p.KeyPersonID = nil
	}
	p.OwnerID = req.OwnerID
	p.NeedsAttentionDays = req.NeedsAttentionDays
	p.IntegrationProducts = req.IntegrationProducts
	if p.IntegrationProducts == nil {
		p.IntegrationProducts = []models.ProductIntegration{}
	}
	p.Vertical = req.Vertical
	p.UseCase = req.UseCase
	p.LogoURL = req.LogoURL
}

// idParam parses a UUID path parameter.
func idParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s", errBadRequest, name)
	}
	return id, nil
}

// respondPartnerError answers conflicts with the server's current copy of
// the partner so the client can reload it.
func (s *Server) respondPartnerError(w http.ResponseWriter, r *http.Request, id uuid.UUID, err error) {
	if !errors.Is(err, db.ErrConflict) {
		s.respondError(w, r, err)
		return
	}
	p := Problem{Title: "Conflict", Status: http.StatusConflict, Detail: "partner was modified concurrently"}
	if current, getErr := s.repo.GetPartner(r.Context(), id); getErr == nil {
		p.Current = s.viewOf(current)
	}
	writeProblem(w, p)
}

func (s *Server) handleListPartners(w http.ResponseWriter, r *http.Request) {
	partners, err := s.repo.ListPartners(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.repo.AttachTags(r.Context(), partners); err != nil {
		s.respondError(w, r, err)
		return
	}

	health := r.URL.Query().Get("health")
	views := make([]partnerView, 0, len(partners))
	for i := range partners {
		if health != "" && partners[i].HealthStatus != health {
			continue
		}
		views = append(views, s.viewOf(&partners[i]))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreatePartner(w http.ResponseWriter, r *http.Request) {
	var req partnerRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	var p models.Partner
	req.apply(&p)
	if err := s.repo.CreatePartner(r.Context(), &p); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.viewOf(&p))
}

func (s *Server) loadPartner(r *http.Request) (*models.Partner, error) {
	id, err := idParam(r, "id")
	if err != nil {
		return nil, err
	}
	p, err := s.repo.GetPartner(r.Context(), id)
	if err != nil {
		return nil, err
	}
	p.Tags, err = s.repo.ListPartnerTags(r.Context(), id)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Server) handleGetPartner(w http.ResponseWriter, r *http.Request) {
	p, err := s.loadPartner(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.viewOf(p))
}

// handleUpdatePartner replaces the editable fields. A zero version in the
// body writes over whatever is stored.
func (s *Server) handleUpdatePartner(w http.ResponseWriter, r *http.Request) {
	p, err := s.loadPartner(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var req partnerRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	req.apply(p)
	if req.Version != 0 {
		p.Version = req.Version
	}
	if err := s.repo.UpdatePartner(r.Context(), p); err != nil {
		s.respondPartnerError(w, r, p.ID, err)
		return
	}
	writeJSON(w, http.StatusOK, s.viewOf(p))
}

func (s *Server) handleDeletePartner(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.repo.DeletePartner(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type bulkDeleteRequest struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1,max=500"`
}

// handleBulkDelete removes every listed partner or none.
func (s *Server) handleBulkDelete(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	n, err := s.repo.BulkDeletePartners(r.Context(), req.IDs)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
}

func (s *Server) handleDismissPartner(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.repo.DismissPartner(r.Context(), id, s.now()); err != nil {
		s.respondError(w, r, err)
		return
	}
	p, err := s.repo.GetPartner(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.viewOf(p))
}

type partnerTagsRequest struct {
	TagIDs []uuid.UUID `json:"tag_ids"`
}

func (s *Server) handleSetPartnerTags(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var req partnerTagsRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.repo.SetPartnerTags(r.Context(), id, req.TagIDs); err != nil {
		s.respondError(w, r, err)
		return
	}
	tags, err := s.repo.ListPartnerTags(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

type contactRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone" validate:"max=50"`
	Role  string `json:"role" validate:"max=200"`
	Notes string `json:"notes"`
}

func (req contactRequest) apply(c *models.Contact) {
	c.Name = strings.TrimSpace(req.Name)
	c.Email = req.Email
	c.Phone = req.Phone
	c.Role = req.Role
	c.Notes = req.Notes
}

func (s *Server) handleListContacts(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	contacts, err := s.repo.ListContacts(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

func (s *Server) handleCreateContact(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var req contactRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	c := models.Contact{PartnerID: id}
	req.apply(&c)
	if err := s.repo.CreateContact(r.Context(), &c); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleUpdateContact(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	c, err := s.repo.GetContact(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var req contactRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	req.apply(c)
	if err := s.repo.UpdateContact(r.Context(), c); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteContact(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.repo.DeleteContact(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
