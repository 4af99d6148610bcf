package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-batchcode-backend/internal/domain"
	"github.com/tbourn/go-batchcode-backend/internal/monday"
	"github.com/tbourn/go-batchcode-backend/internal/repo"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:webhooksvc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.BatchCode{}, &domain.WebhookLog{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// stubUpdater counts remote writes and can be told to fail.
type stubUpdater struct {
	calls int
	err   error
	last  struct {
		boardID, itemID, columnID, value string
	}
}

func (s *stubUpdater) UpdateItemColumn(ctx context.Context, boardID, itemID, columnID, value string) error {
	s.calls++
	s.last.boardID, s.last.itemID, s.last.columnID, s.last.value = boardID, itemID, columnID, value
	return s.err
}

func createPayload(itemID, itemName, boardID string) *monday.WebhookPayload {
	return &monday.WebhookPayload{
		Event: &monday.WebhookEvent{
			Type: "create_item",
			Data: &monday.EventData{ItemID: itemID, ItemName: itemName, BoardID: boardID, GroupID: "g1"},
		},
	}
}

func logCount(t *testing.T, db *gorm.DB, status string) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&domain.WebhookLog{}).Where("status = ?", status).Count(&n).Error; err != nil {
		t.Fatalf("count logs: %v", err)
	}
	return n
}

func TestProcess_ChallengeEcho(t *testing.T) {
	db := newTestDB(t)
	up := &stubUpdater{}
	p := NewWebhookProcessor(db, up, "batch_code")

	res, err := p.Process(context.Background(), &monday.WebhookPayload{
		Challenge: "tok-123",
		// Even an otherwise invalid body must not matter.
		Event: &monday.WebhookEvent{Type: "garbage"},
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Challenge != "tok-123" {
		t.Fatalf("challenge must be echoed verbatim, got %+v", res)
	}
	if up.calls != 0 {
		t.Fatalf("challenge must not trigger remote calls")
	}
	var n int64
	db.Model(&domain.WebhookLog{}).Count(&n)
	if n != 0 {
		t.Fatalf("challenge must not be audited, got %d rows", n)
	}
}

func TestProcess_MalformedPayload(t *testing.T) {
	db := newTestDB(t)
	p := NewWebhookProcessor(db, &stubUpdater{}, "batch_code")

	_, err := p.Process(context.Background(), &monday.WebhookPayload{})
	if !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
	if got := logCount(t, db, domain.WebhookStatusError); got != 1 {
		t.Fatalf("expected 1 error audit row, got %d", got)
	}
}

func TestProcess_SkipsUnrecognizedAndNonCreationEvents(t *testing.T) {
	db := newTestDB(t)
	up := &stubUpdater{}
	p := NewWebhookProcessor(db, up, "batch_code")

	for _, typ := range []string{"change_column_value", "update_item", "update_pulse"} {
		res, err := p.Process(context.Background(), &monday.WebhookPayload{
			Event: &monday.WebhookEvent{Type: typ, PulseID: json.Number("1")},
		})
		if err != nil {
			t.Fatalf("type %q: unexpected error %v", typ, err)
		}
		if !res.Skipped || res.Success {
			t.Fatalf("type %q: expected skipped no-op result, got %+v", typ, res)
		}
	}
	if up.calls != 0 {
		t.Fatalf("skipped events must not call the remote API")
	}
	if got := logCount(t, db, domain.WebhookStatusSkipped); got != 3 {
		t.Fatalf("expected 3 skipped audit rows, got %d", got)
	}
}

func TestProcess_HappyPath(t *testing.T) {
	db := newTestDB(t)
	up := &stubUpdater{}
	p := NewWebhookProcessor(db, up, "batch_code")

	res, err := p.Process(context.Background(), createPayload("123", "Widget", "456"))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !res.Success || res.Skipped || res.FromStore {
		t.Fatalf("unexpected result flags: %+v", res)
	}
	if !codeRE.MatchString(res.Code) {
		t.Fatalf("code %q malformed", res.Code)
	}
	if res.ItemID != "123" || res.ItemName != "Widget" || res.BoardID != "456" {
		t.Fatalf("canonical identifiers missing: %+v", res)
	}

	// Exactly one remote write, with the generated code.
	if up.calls != 1 {
		t.Fatalf("remote calls = %d, want 1", up.calls)
	}
	if up.last.boardID != "456" || up.last.itemID != "123" || up.last.columnID != "batch_code" || up.last.value != res.Code {
		t.Fatalf("remote call args: %+v", up.last)
	}

	// Exactly one persisted record.
	var recs []domain.BatchCode
	if err := db.Find(&recs).Error; err != nil {
		t.Fatalf("load records: %v", err)
	}
	if len(recs) != 1 || recs[0].Code != res.Code || recs[0].ItemID != "123" {
		t.Fatalf("unexpected batch_codes rows: %+v", recs)
	}

	if got := logCount(t, db, domain.WebhookStatusSuccess); got != 1 {
		t.Fatalf("expected 1 success audit row, got %d", got)
	}
}

func TestProcess_IdempotentReplay(t *testing.T) {
	db := newTestDB(t)
	up := &stubUpdater{}
	p := NewWebhookProcessor(db, up, "batch_code")

	first, err := p.Process(context.Background(), createPayload("item-9", "Widget", "b1"))
	if err != nil {
		t.Fatalf("first Process: %v", err)
	}

	second, err := p.Process(context.Background(), createPayload("item-9", "Widget", "b1"))
	if err != nil {
		t.Fatalf("second Process: %v", err)
	}
	if !second.FromStore || second.Code != first.Code {
		t.Fatalf("replay must return the stored code: first=%q second=%+v", first.Code, second)
	}
	if up.calls != 1 {
		t.Fatalf("replay must not call the remote API again: calls=%d", up.calls)
	}
	var n int64
	db.Model(&domain.BatchCode{}).Count(&n)
	if n != 1 {
		t.Fatalf("replay must not insert a second record: %d", n)
	}
}

func TestProcess_RemoteFailure_NoLocalRecord(t *testing.T) {
	db := newTestDB(t)
	up := &stubUpdater{err: &monday.APIError{Status: 500, Message: "boom"}}
	p := NewWebhookProcessor(db, up, "batch_code")

	_, err := p.Process(context.Background(), createPayload("item-1", "W", "b1"))
	var apiErr *monday.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected the remote error to propagate, got %v", err)
	}

	// Remote failure must not leave an orphaned local code record.
	var n int64
	db.Model(&domain.BatchCode{}).Count(&n)
	if n != 0 {
		t.Fatalf("expected 0 batch_codes rows after remote failure, got %d", n)
	}
	if got := logCount(t, db, domain.WebhookStatusError); got != 1 {
		t.Fatalf("expected 1 error audit row, got %d", got)
	}
}

func TestProcess_ConstraintRejectsSecond(t *testing.T) {
	db := newTestDB(t)
	up := &stubUpdater{}
	p := NewWebhookProcessor(db, up, "batch_code")

	// Simulate the losing side of two concurrent runs: the winner's row
	// appears between this run's idempotency check and its insert.
	if _, err := p.Process(context.Background(), createPayload("raced", "W", "b1")); err != nil {
		t.Fatalf("winner Process: %v", err)
	}
	// Remove the idempotency fast path by deleting and re-inserting the row
	// mid-flight via a generator hook is overkill; instead drive the repo
	// directly: a second insert for the same item must lose.
	_, err := repo.CreateBatchCode(context.Background(), db, "ZZZZ9", "raced", "b1", "")
	if !errors.Is(err, repo.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	code, err := repo.GetItemCode(context.Background(), db, "raced")
	if err != nil {
		t.Fatalf("GetItemCode: %v", err)
	}
	if code == "ZZZZ9" {
		t.Fatalf("loser must not overwrite the winner's code")
	}
}

func TestProcess_StoreDown_AuditBestEffort(t *testing.T) {
	db := newTestDB(t)
	// Drop the code table: the idempotency lookup now fails with a raw store
	// error, and the audit append fails too. The original error must win.
	if err := db.Migrator().DropTable(&domain.BatchCode{}); err != nil {
		t.Fatalf("drop table: %v", err)
	}
	p := NewWebhookProcessor(db, &stubUpdater{}, "batch_code")

	_, err := p.Process(context.Background(), createPayload("item-1", "W", "b1"))
	if err == nil || errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected the store error to propagate, got %v", err)
	}
}
