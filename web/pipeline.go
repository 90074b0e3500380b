// ABOUTME: Pipeline board, product moves and dashboard handlers
// ABOUTME: Moves are version-checked; a lost race answers 409 with the current partner
package web

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/harperreed/prm/db"
	"github.com/harperreed/prm/metrics"
	"github.com/harperreed/prm/pipeline"
	"github.com/harperreed/prm/viz"
	"go.uber.org/zap"
)

func pipelineFilter(r *http.Request) pipeline.Filter {
	q := r.URL.Query()
	return pipeline.Filter{
		Search:    q.Get("q"),
		Vertical:  q.Get("vertical"),
		Product:   q.Get("product"),
		KeyPerson: q.Get("key_person"),
	}
}

// handlePipeline returns the board as JSON, or as an SVG graph with format=svg.
func (s *Server) handlePipeline(w http.ResponseWriter, r *http.Request) {
	partners, err := s.repo.ListPartners(r.Context(), "")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	board := pipeline.Build(partners, pipelineFilter(r))

	if r.URL.Query().Get("format") == "svg" {
		svg, err := viz.GeneratePipelineGraph(r.Context(), board, viz.FormatSVG)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = w.Write([]byte(svg))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"board":    board,
		"products": pipeline.Products(partners),
	})
}

type moveRequest struct {
	PartnerID uuid.UUID `json:"partner_id" validate:"required"`
	Product   string    `json:"product" validate:"required"`
	Status    string    `json:"status" validate:"required"`
	Version   int64     `json:"version" validate:"gte=0"`
}

func (s *Server) handlePipelineMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	p, err := s.repo.MoveProduct(r.Context(), req.PartnerID, req.Product, req.Status, req.Version)
	switch {
	case err == nil:
		metrics.PipelineMoves.WithLabelValues("ok").Inc()
	case errors.Is(err, db.ErrConflict):
		metrics.PipelineMoves.WithLabelValues("conflict").Inc()
		s.log.Info("pipeline move conflict",
			zap.String("partner_id", req.PartnerID.String()),
			zap.Int64("version", req.Version),
		)
	default:
		metrics.PipelineMoves.WithLabelValues("failed").Inc()
	}
	if err != nil {
		s.respondPartnerError(w, r, req.PartnerID, err)
		return
	}
	writeJSON(w, http.StatusOK, s.viewOf(p))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := viz.GenerateDashboardStats(r.Context(), s.repo, s.now())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
