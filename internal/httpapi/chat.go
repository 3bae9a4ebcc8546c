package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dpaliy/staffql/internal/chat"
	"github.com/dpaliy/staffql/internal/history"
)

type queryRequest struct {
	SessionID       string `json:"session_id"`
	Message         string `json:"message"`
	BypassTemplates bool   `json:"bypass_templates"`
	PageSize        int    `json:"page_size"`
}

type historyResponse struct {
	SessionID string         `json:"session_id"`
	Turns     []history.Turn `json:"turns"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "message required")
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		req.SessionID = "default"
	}

	resp, err := s.chat.Handle(r.Context(), chat.Request{
		SessionID:       req.SessionID,
		Message:         req.Message,
		BypassTemplates: req.BypassTemplates,
		PageSize:        req.PageSize,
	})
	if err != nil {
		status, code, message := failureStatus(err)
		respondError(w, status, code, message)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(chi.URLParam(r, "session"))
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "missing session id")
		return
	}
	limit := 20
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
			return
		}
		limit = n
	}

	turns, err := s.history.RecentTurns(r.Context(), sessionID, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	if turns == nil {
		turns = []history.Turn{}
	}
	respondJSON(w, http.StatusOK, historyResponse{SessionID: sessionID, Turns: turns})
}

// failureStatus maps the chat failure taxonomy onto HTTP responses. Unsafe
// SQL is an expected outcome and surfaces as a client error with the fixed
// clarification text.
func failureStatus(err error) (int, string, string) {
	var failure *chat.Failure
	if !errors.As(err, &failure) {
		return http.StatusInternalServerError, "internal_error", err.Error()
	}
	switch failure.Kind {
	case chat.FailBadRequest:
		return http.StatusBadRequest, string(failure.Kind), failure.Message
	case chat.FailUnsafeSQL:
		return http.StatusBadRequest, string(failure.Kind), failure.Message
	default:
		return http.StatusInternalServerError, string(failure.Kind), failure.Message
	}
}
