// Webhook HTTP handlers.
//
// This file exposes the inbound vendor endpoint:
//   - POST /webhook  (receive and process a Monday.com event)
//   - GET  /webhook  (endpoint descriptor, used for manual verification)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-batchcode-backend/internal/http/middleware"
	"github.com/tbourn/go-batchcode-backend/internal/monday"
	"github.com/tbourn/go-batchcode-backend/internal/observability"
	"github.com/tbourn/go-batchcode-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// WebhookService runs the batch-code pipeline for one inbound payload.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type WebhookService interface {
	Process(ctx context.Context, payload *monday.WebhookPayload) (*services.WebhookResult, error)
}

// ConnectionTester reports whether the remote Monday.com API is reachable
// with the configured credentials. Used by the health probe.
type ConnectionTester interface {
	TestConnection(ctx context.Context) bool
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for webhooks, stats, and health.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	webhookSvc WebhookService
	tester     ConnectionTester
	db         *gorm.DB

	version   string
	startedAt time.Time
}

// New constructs a Handlers instance bound to the given services.
// version may be empty; the health endpoint reports "dev" in that case.
func New(svc WebhookService, tester ConnectionTester, db *gorm.DB, version string) *Handlers {
	return &Handlers{
		webhookSvc: svc,
		tester:     tester,
		db:         db,
		version:    version,
		startedAt:  time.Now(),
	}
}

// webhookEndpoint is the metrics label for the inbound vendor route.
const webhookEndpoint = "/api/v1/webhook"

// ReceiveWebhook handles POST /webhook.
//
// Outcomes:
//   - invalid JSON body        -> 400 bad_request
//   - challenge payload        -> 200 with the echoed token
//   - filtered/ignored event   -> 200 with a descriptive no-op result
//   - code assigned (or replay)-> 200 with the structured result
//   - processing failure       -> 500 webhook_failed
func (h *Handlers) ReceiveWebhook(c *gin.Context) {
	var payload monday.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		observability.RecordWebhookRequest(http.MethodPost, http.StatusBadRequest, webhookEndpoint)
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	res, err := h.webhookSvc.Process(c.Request.Context(), &payload)
	if err != nil {
		observability.RecordWebhookRequest(http.MethodPost, http.StatusInternalServerError, webhookEndpoint)
		middleware.LoggerFrom(c).Error().Err(err).Msg("webhook processing failed")
		fail(c, http.StatusInternalServerError, ErrCodeWebhookFailed, err.Error())
		return
	}

	observability.RecordWebhookRequest(http.MethodPost, http.StatusOK, webhookEndpoint)
	ok(c, http.StatusOK, res)
}

// DescribeWebhook handles GET /webhook. Monday.com only ever POSTs, so the
// GET form exists for manual verification that the endpoint is live.
func (h *Handlers) DescribeWebhook(c *gin.Context) {
	observability.RecordWebhookRequest(http.MethodGet, http.StatusOK, webhookEndpoint)
	ok(c, http.StatusOK, gin.H{
		"message":          "Monday.com batch code generator webhook endpoint",
		"supported_events": []string{monday.EventCreateItem},
		"status":           "active",
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
	})
}
