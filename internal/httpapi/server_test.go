package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dpaliy/staffql/internal/chat"
	"github.com/dpaliy/staffql/internal/config"
	"github.com/dpaliy/staffql/internal/employee"
	"github.com/dpaliy/staffql/internal/format"
	"github.com/dpaliy/staffql/internal/history"
	"github.com/dpaliy/staffql/internal/llm"
	"github.com/dpaliy/staffql/internal/schema"
	"github.com/dpaliy/staffql/internal/session"
	"github.com/dpaliy/staffql/internal/sqlguard"
	"github.com/dpaliy/staffql/internal/template"
	"github.com/dpaliy/staffql/internal/translate"
)

func newTestServer(t *testing.T, translatorContent string) (*Server, *history.Manager) {
	t.Helper()
	store := history.NewInMemoryStore()
	manager := history.NewManager(store, llm.NewMockCompleter(), 10, 10, nil)

	rows := []map[string]any{
		{"name": "Dana Reyes", "department": "Engineering"},
	}
	svc := chat.NewService(chat.Config{
		History:        manager,
		Translator:     translate.New(llm.NewMockCompleter(translatorContent), nil),
		Validator:      sqlguard.New(schema.Employees(), 50, 1000),
		Matcher:        template.New(),
		Querier:        employee.NewMockQuerier(rows),
		Formatter:      format.New(llm.NewMockCompleter("Dana Reyes works in Engineering.")),
		Locks:          session.NewLocks(time.Minute),
		ResultCacheTTL: time.Minute,
	})
	t.Cleanup(svc.Close)

	return New(config.Config{}, svc, manager, nil), manager
}

func postQuery(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/query", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleQueryOK(t *testing.T) {
	srv, _ := newTestServer(t, `{"sql":"SELECT name FROM employees","params":[]}`)
	handler := srv.Router()

	rec := postQuery(t, handler, `{"session_id":"s1","message":"who do we have?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp chat.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Formatted != "Dana Reyes works in Engineering." {
		t.Fatalf("formatted = %q", resp.Formatted)
	}
	if len(resp.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(resp.Rows))
	}
}

func TestHandleQueryValidation(t *testing.T) {
	srv, _ := newTestServer(t, `{"sql":"SELECT name FROM employees","params":[]}`)
	handler := srv.Router()

	cases := []struct {
		name string
		body string
	}{
		{"empty body", ``},
		{"missing message", `{"session_id":"s1"}`},
		{"blank message", `{"session_id":"s1","message":"  "}`},
		{"malformed json", `{"session_id":`},
	}
	for _, tc := range cases {
		rec := postQuery(t, handler, tc.body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d, want 400", tc.name, rec.Code)
		}
		var er errorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &er); err != nil {
			t.Fatalf("%s: decode error body: %v", tc.name, err)
		}
		if er.Error != "invalid_request" {
			t.Fatalf("%s: error code = %q", tc.name, er.Error)
		}
	}
}

func TestHandleQueryUnsafeSQL(t *testing.T) {
	srv, _ := newTestServer(t, `{"sql":"DELETE FROM employees","params":[]}`)
	handler := srv.Router()

	rec := postQuery(t, handler, `{"session_id":"s1","message":"clear the table"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var er errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &er); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if er.Error != "unsafe_sql" {
		t.Fatalf("error code = %q, want unsafe_sql", er.Error)
	}
	if er.Message != chat.ClarificationMessage {
		t.Fatalf("message = %q", er.Message)
	}
}

func TestHandleQueryDefaultsSession(t *testing.T) {
	srv, manager := newTestServer(t, `{"sql":"SELECT name FROM employees","params":[]}`)
	handler := srv.Router()

	rec := postQuery(t, handler, `{"message":"who do we have?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	turns, err := manager.RecentTurns(context.Background(), "default", 5)
	if err != nil {
		t.Fatalf("RecentTurns() error = %v", err)
	}
	if len(turns) != 1 {
		t.Fatalf("turns in default session = %d, want 1", len(turns))
	}
}

func TestHandleHistory(t *testing.T) {
	srv, manager := newTestServer(t, `{"sql":"SELECT name FROM employees","params":[]}`)
	handler := srv.Router()
	ctx := context.Background()

	if _, err := manager.AppendTurn(ctx, "s9", history.RoleUser, "who is around?"); err != nil {
		t.Fatalf("AppendTurn() error = %v", err)
	}
	if _, err := manager.AppendTurn(ctx, "s9", history.RoleAssistant, "Dana is around."); err != nil {
		t.Fatalf("AppendTurn() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/chat/s9/history?limit=10", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp historyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.SessionID != "s9" || len(resp.Turns) != 1 {
		t.Fatalf("response = %+v", resp)
	}
	if resp.Turns[0].Answer != "Dana is around." {
		t.Fatalf("turn = %+v", resp.Turns[0])
	}
}

func TestHandleHistoryEmptySessionIsEmptyArray(t *testing.T) {
	srv, _ := newTestServer(t, `{"sql":"SELECT name FROM employees","params":[]}`)
	handler := srv.Router()

	req := httptest.NewRequest(http.MethodGet, "/v1/chat/nobody/history", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte(`"turns":[]`)) {
		t.Fatalf("body = %s, want an empty turns array", rec.Body.String())
	}
}

func TestHandleHistoryBadLimit(t *testing.T) {
	srv, _ := newTestServer(t, `{"sql":"SELECT name FROM employees","params":[]}`)
	handler := srv.Router()

	req := httptest.NewRequest(http.MethodGet, "/v1/chat/s1/history?limit=zero", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, `{"sql":"SELECT name FROM employees","params":[]}`)
	handler := srv.Router()

	for _, path := range []string{"/healthz", "/readyz", "/v1/perf/latency"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d", path, rec.Code)
		}
	}
}

func TestChatWebsocketRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t, `{"sql":"SELECT name FROM employees","params":[]}`)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/chat/ws?session_id=s1"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]any{"message": "who do we have?"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	var out struct {
		Type   string         `json:"type"`
		Answer *chat.Response `json:"answer"`
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&out); err != nil {
		t.Fatalf("read: %v", err)
	}
	if out.Type != "answer" {
		t.Fatalf("type = %q, want answer", out.Type)
	}
	if out.Answer == nil || out.Answer.Formatted != "Dana Reyes works in Engineering." {
		t.Fatalf("answer = %+v", out.Answer)
	}
}
