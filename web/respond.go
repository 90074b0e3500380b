// ABOUTME: JSON responses and RFC7807 problem details for the HTTP API
// ABOUTME: Maps domain sentinel errors to status codes and hides internal failures
package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/harperreed/prm/auth"
	"github.com/harperreed/prm/db"
	"github.com/harperreed/prm/pipeline"
	"github.com/harperreed/prm/storage"
	"go.uber.org/zap"
)

var errBadRequest = errors.New("bad request")

// Problem is an RFC7807 problem document. Current carries the server's copy
// of a record after a conflicting write so the client can reload it.
type Problem struct {
	Type    string `json:"type,omitempty"`
	Title   string `json:"title"`
	Status  int    `json:"status"`
	Detail  string `json:"detail,omitempty"`
	Current any    `json:"current,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeProblem(w http.ResponseWriter, p Problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// statusFor maps an error onto a status code and a client-safe title.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, db.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, "Not Found"
	case errors.Is(err, db.ErrConflict):
		return http.StatusConflict, "Conflict"
	case errors.Is(err, db.ErrAlreadyCompleted):
		return http.StatusConflict, "Already Completed"
	case errors.Is(err, db.ErrInvalid),
		errors.Is(err, errBadRequest),
		errors.Is(err, pipeline.ErrInvalidStatus),
		errors.Is(err, pipeline.ErrProductNotFound),
		errors.Is(err, storage.ErrEmpty):
		return http.StatusBadRequest, "Bad Request"
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden, "Forbidden"
	default:
		return http.StatusInternalServerError, "Internal Server Error"
	}
}

// respondError writes the problem for err. Internal errors are logged and
// reported without detail.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, title := statusFor(err)
	p := Problem{Title: title, Status: status, Detail: err.Error()}
	if status == http.StatusInternalServerError {
		s.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		p.Detail = ""
	}
	writeProblem(w, p)
}

// decode reads a JSON body into dst and validates its struct tags.
func (s *Server) decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", errBadRequest, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}
