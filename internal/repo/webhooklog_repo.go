// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the append-only webhook audit log.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-batchcode-backend/internal/domain"
)

// AppendWebhookLog inserts one audit row describing a webhook processing
// attempt and returns its ID. The log is append-only: rows are never updated
// or deleted by the application.
//
// CreatedAt is set to UTC at insert time unless the caller pre-filled it
// (tests seed historical rows that way).
func AppendWebhookLog(ctx context.Context, db *gorm.DB, entry *domain.WebhookLog) (uint, error) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if err := db.WithContext(ctx).Create(entry).Error; err != nil {
		return 0, err
	}
	return entry.ID, nil
}
