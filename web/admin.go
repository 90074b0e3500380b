// ABOUTME: Login, session and admin handlers for tags, users, workgroups, import and sweeps
// ABOUTME: Everything under /api/admin is gated on the Admin role by the router
package web

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/harperreed/prm/auth"
	"github.com/harperreed/prm/export"
	"github.com/harperreed/prm/models"
	"go.uber.org/zap"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	token, user, err := auth.Login(r.Context(), s.repo, s.issuer, req.Email, req.Password)
	if err != nil {
		s.log.Info("login failed", zap.String("email", req.Email))
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	sess := auth.FromContext(r.Context())
	user, err := s.repo.GetUser(r.Context(), sess.UserID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type tagRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Color string `json:"color" validate:"max=30"`
}

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.repo.ListTags(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

func (s *Server) handleCreateTag(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	tag := models.Tag{Name: req.Name, Color: req.Color}
	if err := s.repo.CreateTag(r.Context(), &tag); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tag)
}

func (s *Server) handleUpdateTag(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var req tagRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	tag := models.Tag{ID: id, Name: req.Name, Color: req.Color}
	if err := s.repo.UpdateTag(r.Context(), &tag); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

func (s *Server) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.repo.DeleteTag(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type userRequest struct {
	Name            string  `json:"name" validate:"required,max=200"`
	Email           string  `json:"email" validate:"required,email"`
	Role            string  `json:"role" validate:"omitempty,oneof=Admin User Sales"`
	LinkedKeyPerson *string `json:"linked_key_person"`
	Password        string  `json:"password"`
}

func (req userRequest) apply(u *models.User) error {
	u.Name = strings.TrimSpace(req.Name)
	u.Email = req.Email
	u.Role = req.Role
	u.LinkedKeyPerson = req.LinkedKeyPerson
	if req.Password == "" {
		return nil
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	u.PasswordHash = hash
	return nil
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.repo.ListUsers(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.Password == "" {
		s.respondError(w, r, fmt.Errorf("%w: password is required", errBadRequest))
		return
	}
	var u models.User
	if err := req.apply(&u); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.repo.CreateUser(r.Context(), &u); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// handleUpdateUser keeps the stored password when the body omits one.
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	u, err := s.repo.GetUser(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var req userRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	u.PasswordHash = ""
	if err := req.apply(u); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.repo.UpdateUser(r.Context(), u); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if sess := auth.FromContext(r.Context()); sess != nil && sess.UserID == id {
		s.respondError(w, r, fmt.Errorf("%w: cannot delete your own account", errBadRequest))
		return
	}
	if err := s.repo.DeleteUser(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type workgroupRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

type membersRequest struct {
	UserIDs []uuid.UUID `json:"user_ids"`
}

func (s *Server) handleListWorkgroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.repo.ListWorkgroups(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (s *Server) handleCreateWorkgroup(w http.ResponseWriter, r *http.Request) {
	var req workgroupRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	wg := models.Workgroup{Name: req.Name}
	if err := s.repo.CreateWorkgroup(r.Context(), &wg); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, wg)
}

func (s *Server) handleSetWorkgroupMembers(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var req membersRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.repo.SetWorkgroupMembers(r.Context(), id, req.UserIDs); err != nil {
		s.respondError(w, r, err)
		return
	}
	members, err := s.repo.ListWorkgroupMembers(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "member_ids": members})
}

func (s *Server) handleDeleteWorkgroup(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.repo.DeleteWorkgroup(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type importResponse struct {
	Imported int               `json:"imported"`
	Rejected []export.RowError `json:"rejected"`
}

// handleImport reads a multipart "file" field holding a .csv or .xlsx sheet.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, name, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	parse := export.ParseCSV
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
	case ".xlsx":
		parse = export.ParseXLSX
	default:
		s.respondError(w, r, fmt.Errorf("%w: expected a .csv or .xlsx file", errBadRequest))
		return
	}

	partners, rowErrs, err := parse(bytes.NewReader(data))
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	n, err := export.Import(r.Context(), s.repo, partners)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if rowErrs == nil {
		rowErrs = []export.RowError{}
	}
	s.log.Info("partners imported", zap.String("file", name), zap.Int("imported", n), zap.Int("rejected", len(rowErrs)))
	writeJSON(w, http.StatusOK, importResponse{Imported: n, Rejected: rowErrs})
}

// readUpload returns the bytes and client filename of the multipart "file" field.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.UploadMaxBytes)
	if err := r.ParseMultipartForm(s.opts.UploadMaxBytes); err != nil {
		return nil, "", fmt.Errorf("%w: %v", errBadRequest, err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", fmt.Errorf("%w: missing file field", errBadRequest)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return data, header.Filename, nil
}

func (s *Server) handleRunSweep(w http.ResponseWriter, r *http.Request) {
	if s.sweeper == nil {
		writeProblem(w, Problem{
			Title:  "Service Unavailable",
			Status: http.StatusServiceUnavailable,
			Detail: "push notifications are not configured",
		})
		return
	}
	res, err := s.sweeper.Run(r.Context(), s.now())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
