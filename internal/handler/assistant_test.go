package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"core/internal/model"
	"core/internal/service"
	"core/internal/session"

	"github.com/gin-gonic/gin"
)

type stubRepo struct{}

func (stubRepo) UpcomingVisits(ctx context.Context, date *time.Time, limit int) ([]model.Visit, error) {
	return nil, nil
}

func (stubRepo) CreateProperty(ctx context.Context, draft *model.Entities) (int64, error) {
	return 1, nil
}

func (stubRepo) LogConversation(ctx context.Context, entry *model.AssistantLog) error {
	return nil
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	sessions := session.NewStore(30*time.Minute, session.SystemClock())
	assistant := service.NewAssistant(stubRepo{}, sessions, nil, session.SystemClock(), 10, time.Second)
	h := NewAssistantHandler(assistant)

	router := gin.New()
	router.POST("/api/v1/assistant/message", h.Message)
	router.POST("/api/v1/assistant/property/confirm", h.ConfirmProperty)
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestMessage_MissingFieldsRejected(t *testing.T) {
	router := newTestRouter()

	tests := []struct {
		name string
		body string
	}{
		{"missing message", `{"sessionId": "s1"}`},
		{"missing sessionId", `{"message": "hola"}`},
		{"empty body", `{}`},
		{"malformed json", `{"message": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, router, "/api/v1/assistant/message", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestMessage_ValidRequest(t *testing.T) {
	router := newTestRouter()

	rec := postJSON(t, router, "/api/v1/assistant/message",
		`{"message": "quiero publicar un departamento", "sessionId": "s1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body: %s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp model.ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Intent != model.IntentPropertyRegister {
		t.Errorf("intent = %q, want %q", resp.Intent, model.IntentPropertyRegister)
	}
	if resp.Reply == "" {
		t.Error("reply must not be empty")
	}
	if resp.Entities == nil {
		t.Error("entities must be present in the response")
	}
}

func TestConfirmProperty_MissingSessionRejected(t *testing.T) {
	router := newTestRouter()

	rec := postJSON(t, router, "/api/v1/assistant/property/confirm", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestConfirmProperty_IncompleteDraft(t *testing.T) {
	router := newTestRouter()

	// Session exists but has no filled slots
	postJSON(t, router, "/api/v1/assistant/message", `{"message": "hola", "sessionId": "s1"}`)

	rec := postJSON(t, router, "/api/v1/assistant/property/confirm", `{"sessionId": "s1"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d for incomplete draft", rec.Code, http.StatusBadRequest)
	}

	var resp model.ConfirmResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Success {
		t.Error("incomplete draft must not report success")
	}
}
