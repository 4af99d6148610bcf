// Package services – WebhookProcessor
//
// This file implements the webhook processing workflow: challenge echo,
// payload validation, normalization, event filtering, the idempotency lookup,
// code generation, the remote column update, and persistence of the code and
// audit log. The processor is stateless across requests; every run is
// request-scoped and may execute concurrently with others.
//
// Ordering is deliberate: the remote update happens before the local code
// record is written, so a remote failure never leaves an orphaned local row
// claiming a code the remote system does not carry. The reverse gap (remote
// updated, local write lost to a crash) is reconcilable via the audit log.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-batchcode-backend/internal/domain"
	"github.com/tbourn/go-batchcode-backend/internal/monday"
	"github.com/tbourn/go-batchcode-backend/internal/repo"
)

// ItemUpdater is the remote write capability the processor depends on. The
// Monday.com client satisfies it; tests substitute counting stubs.
type ItemUpdater interface {
	UpdateItemColumn(ctx context.Context, boardID, itemID, columnID, value string) error
}

// WebhookResult is the structured outcome of one webhook processing run.
type WebhookResult struct {
	// Challenge echoes the verification token, when the payload carried one.
	Challenge string `json:"challenge,omitempty"`

	Success bool   `json:"success"`
	Skipped bool   `json:"skipped,omitempty"`
	Message string `json:"message"`

	Code     string `json:"batch_code,omitempty"`
	ItemID   string `json:"item_id,omitempty"`
	ItemName string `json:"item_name,omitempty"`
	BoardID  string `json:"board_id,omitempty"`

	// FromStore is true when the code came from a previous assignment and no
	// generation or remote call happened.
	FromStore bool `json:"from_store,omitempty"`

	ProcessingTimeMS int64 `json:"processing_time_ms"`
}

// WebhookProcessor orchestrates one webhook execution per call. All
// collaborators are injected at construction; the processor holds no state
// across requests.
type WebhookProcessor struct {
	// DB is the GORM handle used for all persistence.
	DB *gorm.DB
	// Updater applies the generated code to the remote item column.
	Updater ItemUpdater
	// ColumnID is the remote column the batch code is written into.
	ColumnID string
	// Gen produces unique batch codes.
	Gen *CodeGenerator
	// Obs receives outcome signals; never nil (NopObserver by default).
	Obs Observer

	// UpdateDelay optionally throttles the remote call. Zero disables it.
	UpdateDelay time.Duration

	now func() time.Time
}

// NewWebhookProcessor wires a processor against the given database handle and
// remote updater, generating codes with the repository-backed existence check.
func NewWebhookProcessor(db *gorm.DB, updater ItemUpdater, columnID string) *WebhookProcessor {
	gen := NewCodeGenerator(func(ctx context.Context, code string) (bool, error) {
		return repo.CodeExists(ctx, db, code)
	})
	return &WebhookProcessor{
		DB:       db,
		Updater:  updater,
		ColumnID: columnID,
		Gen:      gen,
		Obs:      NopObserver{},
		now:      time.Now,
	}
}

// Process runs the webhook state machine for one inbound payload.
//
// Terminal outcomes:
//   - challenge payloads echo the token, with no further processing;
//   - payloads without an event section fail with ErrMalformedPayload;
//   - unrecognized or non-creation events return a skipped (non-error) result;
//   - items that already hold a code return it without generation or a
//     remote call (at-most-once-per-item);
//   - otherwise a code is generated, written remotely, then persisted.
//
// Every terminal path attempts exactly one audit log append. Audit failures
// never mask the primary outcome.
func (p *WebhookProcessor) Process(ctx context.Context, payload *monday.WebhookPayload) (*WebhookResult, error) {
	start := p.clock()()
	p.Obs.JobStarted()
	defer p.Obs.JobFinished()

	// Verification challenge short-circuits everything, including schema
	// validation that would otherwise reject the payload.
	if payload != nil && payload.Challenge != "" {
		return &WebhookResult{Challenge: payload.Challenge, Success: true, Message: "challenge accepted"}, nil
	}

	if payload == nil || payload.Event == nil {
		p.audit(ctx, "unknown", "", payload, domain.WebhookStatusError, ErrMalformedPayload.Error(), start)
		p.Obs.ErrorRecorded("malformed_payload")
		return nil, ErrMalformedPayload
	}

	ev, ok := monday.Normalize(payload.Event)
	if !ok {
		p.audit(ctx, payload.Event.Type, "", payload, domain.WebhookStatusSkipped, "", start)
		return p.skipped(payload.Event.Type, start), nil
	}
	if ev.Type != monday.EventCreateItem {
		p.audit(ctx, payload.Event.Type, ev.ItemID, payload, domain.WebhookStatusSkipped, "", start)
		return p.skipped(payload.Event.Type, start), nil
	}

	// Idempotency: re-delivered creation events return the stored code and
	// perform zero remote calls.
	existing, err := repo.GetItemCode(ctx, p.DB, ev.ItemID)
	switch {
	case err == nil:
		p.audit(ctx, payload.Event.Type, ev.ItemID, payload, domain.WebhookStatusSuccess, "", start)
		return &WebhookResult{
			Success:          true,
			Message:          "item already has batch code",
			Code:             existing,
			ItemID:           ev.ItemID,
			ItemName:         ev.ItemName,
			BoardID:          ev.BoardID,
			FromStore:        true,
			ProcessingTimeMS: p.elapsedMS(start),
		}, nil
	case !errors.Is(err, repo.ErrNotFound):
		p.audit(ctx, payload.Event.Type, ev.ItemID, payload, domain.WebhookStatusError, err.Error(), start)
		p.Obs.ErrorRecorded("store")
		return nil, err
	}

	code := p.Gen.Generate(ctx)

	if p.UpdateDelay > 0 {
		select {
		case <-time.After(p.UpdateDelay):
		case <-ctx.Done():
			p.audit(ctx, payload.Event.Type, ev.ItemID, payload, domain.WebhookStatusError, ctx.Err().Error(), start)
			return nil, ctx.Err()
		}
	}

	// Remote first: a failed remote write must not leave a local record
	// pointing at an unconfirmed remote state.
	if err := p.Updater.UpdateItemColumn(ctx, ev.BoardID, ev.ItemID, p.ColumnID, code); err != nil {
		p.audit(ctx, payload.Event.Type, ev.ItemID, payload, domain.WebhookStatusError, err.Error(), start)
		p.Obs.ErrorRecorded("remote_update")
		p.Obs.CodeGenerated(p.clock()().Sub(start), false)
		return nil, err
	}

	if _, err := repo.CreateBatchCode(ctx, p.DB, code, ev.ItemID, ev.BoardID, ev.ItemName); err != nil {
		p.audit(ctx, payload.Event.Type, ev.ItemID, payload, domain.WebhookStatusError, err.Error(), start)
		p.Obs.ErrorRecorded("store")
		p.Obs.CodeGenerated(p.clock()().Sub(start), false)
		if errors.Is(err, repo.ErrDuplicate) {
			// Constraint-rejects-second: a concurrent run won the item. The
			// vendor's redelivery will take the already-assigned path.
			return nil, ErrItemAlreadyAssigned
		}
		return nil, err
	}

	p.audit(ctx, payload.Event.Type, ev.ItemID, payload, domain.WebhookStatusSuccess, "", start)
	p.Obs.CodeGenerated(p.clock()().Sub(start), true)

	return &WebhookResult{
		Success:          true,
		Message:          "batch code generated and assigned",
		Code:             code,
		ItemID:           ev.ItemID,
		ItemName:         ev.ItemName,
		BoardID:          ev.BoardID,
		ProcessingTimeMS: p.elapsedMS(start),
	}, nil
}

// skipped builds the no-op result for event types the backend does not act on.
func (p *WebhookProcessor) skipped(eventType string, start time.Time) *WebhookResult {
	return &WebhookResult{
		Skipped:          true,
		Message:          "event type not processed: " + eventType,
		ProcessingTimeMS: p.elapsedMS(start),
	}
}

// audit appends one webhook log row, best effort. A secondary failure while
// logging must not mask the primary outcome, so the error is dropped after
// being counted.
func (p *WebhookProcessor) audit(ctx context.Context, eventType, itemID string, payload *monday.WebhookPayload, status, errMsg string, start time.Time) {
	raw, _ := json.Marshal(payload)
	_, err := repo.AppendWebhookLog(ctx, p.DB, &domain.WebhookLog{
		EventType:        eventType,
		ItemID:           itemID,
		Payload:          string(raw),
		Status:           status,
		ErrorMessage:     errMsg,
		ProcessingTimeMS: p.elapsedMS(start),
	})
	if err != nil {
		p.Obs.ErrorRecorded("audit_log")
	}
}

func (p *WebhookProcessor) elapsedMS(start time.Time) int64 {
	return p.clock()().Sub(start).Milliseconds()
}

func (p *WebhookProcessor) clock() func() time.Time {
	if p.now != nil {
		return p.now
	}
	return time.Now
}
