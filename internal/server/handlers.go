package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/carlosatFroom/learning-system/internal/logger"
	"github.com/carlosatFroom/learning-system/internal/mirror"
)

type errorResponse struct {
	Status  mirror.Status `json:"status"`
	Message string        `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, s.syncer.Status(r.Context()))
}

func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	force, err := boolParam(r, "force")
	if err != nil {
		s.writeJSON(w, r, http.StatusBadRequest, errorResponse{Status: mirror.StatusError, Message: err.Error()})
		return
	}
	reset, err := boolParam(r, "reset")
	if err != nil {
		s.writeJSON(w, r, http.StatusBadRequest, errorResponse{Status: mirror.StatusError, Message: err.Error()})
		return
	}

	// a client hanging up must not abort a run halfway
	rep := s.syncer.Run(context.WithoutCancel(r.Context()), mirror.RunOptions{Force: force, Reset: reset})

	code := http.StatusOK
	if rep.Status == mirror.StatusError {
		code = http.StatusInternalServerError
	}
	s.writeJSON(w, r, code, rep)
}

// boolParam reads an optional boolean query parameter; absent or empty is false.
func boolParam(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &paramError{name: name, value: raw}
	}
	return v, nil
}

type paramError struct {
	name, value string
}

func (e *paramError) Error() string {
	return "invalid boolean for " + e.name + ": " + strconv.Quote(e.value)
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromContext(r.Context()).ErrorWith("failed to write response", err, nil)
	}
}
