// ABOUTME: HTTP server for the prm JSON API and the embedded reminders page
// ABOUTME: Wires chi routes, middleware, templates and the request-scoped collaborators
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/harperreed/prm/auth"
	"github.com/harperreed/prm/db"
	"github.com/harperreed/prm/models"
	"github.com/harperreed/prm/notify"
	"github.com/harperreed/prm/storage"
	"github.com/harperreed/prm/sweep"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

//go:embed templates/* static/*
var assetsFS embed.FS

// Options tune the server.
type Options struct {
	Addr               string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	UploadMaxBytes     int64
	RateLimitPerMinute int
	Production         bool
	PushPublicKey      string
}

// Deps are the collaborators the handlers use. Files, Pusher and Sweeper are optional.
type Deps struct {
	Repo    *db.Repository
	Files   *storage.Store
	Issuer  *auth.Issuer
	Pusher  notify.Pusher
	Sweeper *sweep.Sweeper
	Log     *zap.Logger
}

type Server struct {
	repo      *db.Repository
	files     *storage.Store
	issuer    *auth.Issuer
	pusher    notify.Pusher
	sweeper   *sweep.Sweeper
	log       *zap.Logger
	opts      Options
	templates *template.Template
	validate  *validator.Validate
	now       func() time.Time
}

func NewServer(deps Deps, opts Options) (*Server, error) {
	if deps.Repo == nil || deps.Issuer == nil {
		return nil, errors.New("web: repository and token issuer are required")
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if opts.UploadMaxBytes <= 0 {
		opts.UploadMaxBytes = 10 << 20
	}
	if opts.RateLimitPerMinute <= 0 {
		opts.RateLimitPerMinute = 300
	}

	funcMap := template.FuncMap{
		"lower": strings.ToLower,
	}
	tmpl, err := template.New("").Funcs(funcMap).ParseFS(assetsFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	validate := validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	return &Server{
		repo:      deps.Repo,
		files:     deps.Files,
		issuer:    deps.Issuer,
		pusher:    deps.Pusher,
		sweeper:   deps.Sweeper,
		log:       deps.Log,
		opts:      opts,
		templates: tmpl,
		validate:  validate,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// Routes builds the full handler tree.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	for _, mw := range s.middlewareStack() {
		r.Use(mw)
	}

	static, _ := fs.Sub(assetsFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	r.Get("/sw.js", s.handleServiceWorker)
	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/files/{key}", s.handleGetFile)
	r.Post("/auth/login", s.handleLogin)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.authenticate)

		r.Get("/me", s.handleMe)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/reminders", s.handleListReminders)
		r.Get("/pipeline", s.handlePipeline)
		r.Post("/pipeline/move", s.handlePipelineMove)
		r.Get("/tags", s.handleListTags)
		r.Get("/export.xlsx", s.handleExport)

		r.Route("/partners", func(r chi.Router) {
			r.Get("/", s.handleListPartners)
			r.Post("/", s.handleCreatePartner)
			r.With(s.requireRole(models.RoleAdmin)).Post("/bulk-delete", s.handleBulkDelete)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetPartner)
				r.Put("/", s.handleUpdatePartner)
				r.Delete("/", s.handleDeletePartner)
				r.Post("/dismiss", s.handleDismissPartner)
				r.Put("/tags", s.handleSetPartnerTags)
				r.Get("/contacts", s.handleListContacts)
				r.Post("/contacts", s.handleCreateContact)
				r.Get("/interactions", s.handleListInteractions)
				r.Post("/interactions", s.handleCreateInteraction)
				r.Get("/reminders", s.handleListPartnerReminders)
				r.Post("/reminders", s.handleCreateReminder)
			})
		})

		r.Put("/contacts/{id}", s.handleUpdateContact)
		r.Delete("/contacts/{id}", s.handleDeleteContact)
		r.Put("/interactions/{id}", s.handleUpdateInteraction)
		r.Delete("/interactions/{id}", s.handleDeleteInteraction)
		r.Post("/reminders/{id}/complete", s.handleCompleteReminder)
		r.Delete("/reminders/{id}", s.handleDeleteReminder)

		r.Post("/uploads", s.handleUpload)
		r.Get("/push/key", s.handlePushKey)
		r.Post("/push/subscriptions", s.handleSubscribe)
		r.Delete("/push/subscriptions", s.handleUnsubscribe)

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.requireRole(models.RoleAdmin))

			r.Post("/tags", s.handleCreateTag)
			r.Put("/tags/{id}", s.handleUpdateTag)
			r.Delete("/tags/{id}", s.handleDeleteTag)

			r.Get("/users", s.handleListUsers)
			r.Post("/users", s.handleCreateUser)
			r.Put("/users/{id}", s.handleUpdateUser)
			r.Delete("/users/{id}", s.handleDeleteUser)

			r.Get("/workgroups", s.handleListWorkgroups)
			r.Post("/workgroups", s.handleCreateWorkgroup)
			r.Put("/workgroups/{id}/members", s.handleSetWorkgroupMembers)
			r.Delete("/workgroups/{id}", s.handleDeleteWorkgroup)

			r.Post("/import", s.handleImport)
			r.Post("/sweep", s.handleRunSweep)
		})
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.Routes(),
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", zap.String("addr", s.opts.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	s.log.Info("http server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.DB().PingContext(r.Context()); err != nil {
		writeProblem(w, Problem{Title: "Unavailable", Status: http.StatusServiceUnavailable})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"Title":   "Reminders",
		"PushKey": s.opts.PushPublicKey,
	}
	s.renderTemplate(w, "layout.html", data)
}

func (s *Server) handleServiceWorker(w http.ResponseWriter, r *http.Request) {
	data, err := assetsFS.ReadFile("static/sw.js")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/javascript")
	w.Header().Set("Service-Worker-Allowed", "/")
	_, _ = w.Write(data)
}

func (s *Server) renderTemplate(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.log.Error("template error", zap.String("template", name), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
