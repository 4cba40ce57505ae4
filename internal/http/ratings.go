package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Clark-Hu/game-ratings/internal/aggregator"
)

const (
	msgInvalidGameID  = "gameId має бути числом."
	msgInternalServer = "Internal server error"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleGetAverageRating(w http.ResponseWriter, r *http.Request) {
	res, err := s.aggregator.ComputeAverageRating(r.Context(), chi.URLParam(r, "gameId"))
	if err != nil {
		switch {
		case errors.Is(err, aggregator.ErrInvalidArgument):
			s.respondError(w, http.StatusBadRequest, msgInvalidGameID)
		default:
			// The aggregator already logged the store failure in full.
			s.respondError(w, http.StatusInternalServerError, msgInternalServer)
		}
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Errorw("failed to encode response", "error", err)
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, errorResponse{Error: message})
}
