// Package domain defines the persistence models for batch codes and webhook
// processing logs. These types are mapped with GORM and form the core data
// layer of the batch code backend.
package domain

import "time"

// Webhook processing outcomes recorded in WebhookLog.Status.
const (
	WebhookStatusSuccess = "success"
	WebhookStatusError   = "error"
	WebhookStatusSkipped = "skipped"
)

// BatchCode represents a short unique code assigned to a Monday.com item.
// Codes are five characters drawn from [A-Z0-9] and are unique across the
// table; each item holds at most one code.
//
// Fields:
//   - ID: auto-incrementing primary key.
//   - Code: the generated batch code; globally unique (the unique index is
//     the final authority on uniqueness, not the pre-insert existence check).
//   - ItemID / BoardID: identifiers of the remote item and its board.
//   - ItemName: display name of the item at assignment time, if known.
//   - GeneratedAt / UpdatedAt: timestamps managed by GORM.
type BatchCode struct {
	ID          uint      `json:"id"              gorm:"primaryKey;autoIncrement"`
	Code        string    `json:"code"            gorm:"type:varchar(10);not null;uniqueIndex:ux_batch_code"`
	ItemID      string    `json:"monday_item_id"  gorm:"column:monday_item_id;type:varchar(50);not null;uniqueIndex:ux_batch_item"`
	BoardID     string    `json:"monday_board_id" gorm:"column:monday_board_id;type:varchar(50);not null;index:idx_batch_board"`
	ItemName    string    `json:"item_name,omitempty" gorm:"type:text"`
	GeneratedAt time.Time `json:"generated_at"    gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for BatchCode.
func (BatchCode) TableName() string { return "batch_codes" }

// WebhookLog is an append-only audit record of one webhook processing
// attempt. Rows are never mutated or deleted by the application.
//
// Fields:
//   - EventType: raw vendor event type as received (e.g. "create_item").
//   - ItemID: remote item identifier, when the payload carried one.
//   - Payload: the serialized inbound payload for later inspection.
//   - Status: one of the WebhookStatus* constants.
//   - ErrorMessage: failure description for status "error".
//   - ProcessingTimeMS: elapsed wall-clock processing time.
type WebhookLog struct {
	ID               uint      `json:"id"                 gorm:"primaryKey;autoIncrement"`
	EventType        string    `json:"event_type"         gorm:"type:varchar(50)"`
	ItemID           string    `json:"monday_item_id,omitempty" gorm:"column:monday_item_id;type:varchar(50);index:idx_webhook_item"`
	Payload          string    `json:"payload"            gorm:"type:text"`
	Status           string    `json:"status"             gorm:"type:varchar(20);index:idx_webhook_status;check:status IN ('success','error','skipped')"`
	ErrorMessage     string    `json:"error_message,omitempty" gorm:"type:text"`
	ProcessingTimeMS int64     `json:"processing_time_ms" gorm:"column:processing_time_ms"`
	CreatedAt        time.Time `json:"created_at"         gorm:"index:idx_webhook_created"`
}

// TableName returns the database table name for WebhookLog.
func (WebhookLog) TableName() string { return "webhook_logs" }
