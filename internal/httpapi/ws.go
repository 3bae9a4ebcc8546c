package httpapi

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/dpaliy/staffql/internal/chat"
)

type wsInbound struct {
	Message         string `json:"message"`
	BypassTemplates bool   `json:"bypass_templates"`
	PageSize        int    `json:"page_size"`
}

type wsOutbound struct {
	Type    string         `json:"type"` // answer | error
	Answer  *chat.Response `json:"answer,omitempty"`
	Error   string         `json:"error,omitempty"`
	Message string         `json:"message,omitempty"`
}

// handleChatWS serves a persistent chat connection: one JSON frame in, one
// frame out, same semantics as the POST endpoint. The per-session lock in
// the chat service serializes frames that arrive faster than they complete.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		sessionID = "default"
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		var in wsInbound
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			return
		}

		resp, err := s.chat.Handle(r.Context(), chat.Request{
			SessionID:       sessionID,
			Message:         in.Message,
			BypassTemplates: in.BypassTemplates,
			PageSize:        in.PageSize,
		})
		if err != nil {
			_, code, message := failureStatus(err)
			if werr := conn.WriteJSON(wsOutbound{Type: "error", Error: code, Message: message}); werr != nil {
				return
			}
			continue
		}
		if werr := conn.WriteJSON(wsOutbound{Type: "answer", Answer: &resp}); werr != nil {
			return
		}
	}
}
