package http

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"max.ks1230/budget-tracker/internal/logger"
	"max.ks1230/budget-tracker/internal/model/customerr"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("cannot encode response", zap.Error(err))
	}
}

// statusOf maps a domain error onto an HTTP status.
func statusOf(err error) int {
	switch {
	case customerr.IsValidation(err):
		return http.StatusBadRequest
	case customerr.IsNotFound(err):
		return http.StatusNotFound
	case customerr.IsConflict(err):
		return http.StatusConflict
	case customerr.IsUnauthenticated(err):
		return http.StatusSeeOther
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	switch status {
	case http.StatusSeeOther:
		s.redirectToSignIn(w, r)
		return
	case http.StatusInternalServerError:
		logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeJSON(w, status, errorResponse{Error: http.StatusText(status)})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
