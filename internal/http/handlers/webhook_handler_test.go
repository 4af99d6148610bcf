package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-batchcode-backend/internal/monday"
	"github.com/tbourn/go-batchcode-backend/internal/services"
)

// stubWebhookSvc returns a canned result or error and records the payload.
type stubWebhookSvc struct {
	res  *services.WebhookResult
	err  error
	last *monday.WebhookPayload
}

func (s *stubWebhookSvc) Process(_ context.Context, p *monday.WebhookPayload) (*services.WebhookResult, error) {
	s.last = p
	if s.err != nil {
		return nil, s.err
	}
	return s.res, nil
}

type stubTester struct{ up bool }

func (s stubTester) TestConnection(context.Context) bool { return s.up }

func newWebhookRouter(svc WebhookService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := New(svc, stubTester{up: true}, nil, "test")
	r := gin.New()
	r.POST("/webhook", h.ReceiveWebhook)
	r.GET("/webhook", h.DescribeWebhook)
	return r
}

func TestReceiveWebhook_InvalidJSON(t *testing.T) {
	svc := &stubWebhookSvc{}
	r := newWebhookRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("json: %v", err)
	}
	if er.Code != ErrCodeBadRequest {
		t.Fatalf("unexpected code %q", er.Code)
	}
	if svc.last != nil {
		t.Fatalf("service must not be called on invalid JSON")
	}
}

func TestReceiveWebhook_Challenge(t *testing.T) {
	svc := &stubWebhookSvc{res: &services.WebhookResult{
		Challenge: "tok-1", Success: true, Message: "challenge accepted",
	}}
	r := newWebhookRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"challenge":"tok-1"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body["challenge"] != "tok-1" {
		t.Fatalf("expected challenge echo, got %v", body)
	}
	if svc.last == nil || svc.last.Challenge != "tok-1" {
		t.Fatalf("service did not receive the parsed payload")
	}
}

func TestReceiveWebhook_Success(t *testing.T) {
	svc := &stubWebhookSvc{res: &services.WebhookResult{
		Success:  true,
		Message:  "batch code generated",
		Code:     "TP6YM",
		ItemID:   "123",
		ItemName: "Widget",
		BoardID:  "456",
	}}
	r := newWebhookRouter(svc)

	payload := `{"event":{"type":"create_item","pulseId":123,"pulseName":"Widget","boardId":456}}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body["batch_code"] != "TP6YM" || body["success"] != true {
		t.Fatalf("unexpected body: %v", body)
	}
	if svc.last == nil || svc.last.Event == nil || svc.last.Event.Type != "create_item" {
		t.Fatalf("service did not receive the parsed event")
	}
}

func TestReceiveWebhook_ProcessingError(t *testing.T) {
	svc := &stubWebhookSvc{err: errors.New("remote update failed")}
	r := newWebhookRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"event":{"type":"create_item"}}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("json: %v", err)
	}
	if er.Code != ErrCodeWebhookFailed || er.Message != "remote update failed" {
		t.Fatalf("unexpected envelope: %+v", er)
	}
}

func TestDescribeWebhook(t *testing.T) {
	r := newWebhookRouter(&stubWebhookSvc{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/webhook", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body["status"] != "active" {
		t.Fatalf("unexpected body: %v", body)
	}
	// Only creation events assign codes; the descriptor must not advertise more.
	events, ok := body["supported_events"].([]any)
	if !ok || len(events) != 1 || events[0] != "create_item" {
		t.Fatalf("expected [create_item], got %v", body["supported_events"])
	}
}
