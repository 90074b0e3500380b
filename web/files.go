// ABOUTME: Upload, file serving, push subscription and spreadsheet export handlers
// ABOUTME: Uploaded files become URLs that interactions and partner logos reference
package web

import (
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/harperreed/prm/auth"
	"github.com/harperreed/prm/export"
	"github.com/harperreed/prm/models"
)

func (s *Server) filesUnavailable(w http.ResponseWriter) {
	writeProblem(w, Problem{
		Title:  "Service Unavailable",
		Status: http.StatusServiceUnavailable,
		Detail: "file storage is not configured",
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.files == nil {
		s.filesUnavailable(w)
		return
	}
	data, name, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	obj, err := s.files.Put(r.Context(), name, http.DetectContentType(data), data)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, obj)
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	if s.files == nil {
		s.filesUnavailable(w)
		return
	}
	obj, data, err := s.files.Get(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": obj.Name}))
	w.Header().Set("Cache-Control", "private, max-age=86400")
	_, _ = w.Write(data)
}

func (s *Server) handlePushKey(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"public_key": s.opts.PushPublicKey,
		"enabled":    s.opts.PushPublicKey != "" && s.pusher != nil,
	})
}

// subscriptionRequest mirrors the browser's PushSubscription.toJSON().
type subscriptionRequest struct {
	Endpoint       string  `json:"endpoint" validate:"required,url"`
	ExpirationTime *int64  `json:"expirationTime"`
	Keys           subKeys `json:"keys"`
}

type subKeys struct {
	P256dh string `json:"p256dh" validate:"required"`
	Auth   string `json:"auth" validate:"required"`
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req subscriptionRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	sess := auth.FromContext(r.Context())
	sub := models.PushSubscription{
		UserID:   sess.UserID,
		Endpoint: req.Endpoint,
		P256dh:   req.Keys.P256dh,
		Auth:     req.Keys.Auth,
	}
	if err := s.repo.SaveSubscription(r.Context(), &sub); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint" validate:"required"`
}

func (s *Server) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	var req unsubscribeRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	sess := auth.FromContext(r.Context())
	if err := s.repo.DeleteSubscriptionByEndpoint(r.Context(), sess.UserID, req.Endpoint); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	partners, err := s.repo.ListPartners(r.Context(), "")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.repo.AttachTags(r.Context(), partners); err != nil {
		s.respondError(w, r, err)
		return
	}
	now := s.now()
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="partners-%s.xlsx"`, now.Format("2006-01-02")))
	if err := export.WriteXLSX(w, partners, now); err != nil {
		s.respondError(w, r, err)
	}
}
