// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries
// exposed through the stats endpoint and used by operational dashboards.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-batchcode-backend/internal/domain"
)

// Stats holds aggregate counters over the batch code and webhook log tables.
type Stats struct {
	TotalCodes                int64 `json:"total_codes"`
	CodesLast24h              int64 `json:"codes_last_24h"`
	SuccessfulWebhooksLast24h int64 `json:"successful_webhooks_last_24h"`
}

// BatchCodeStats returns aggregate counts: all codes ever issued, codes
// generated in the 24 hours before now, and successful webhook runs in the
// same window. The window is computed relative to the now argument so tests
// can pin it.
func BatchCodeStats(ctx context.Context, db *gorm.DB, now time.Time) (Stats, error) {
	var s Stats
	since := now.Add(-24 * time.Hour)

	if err := db.WithContext(ctx).
		Model(&domain.BatchCode{}).
		Count(&s.TotalCodes).Error; err != nil {
		return Stats{}, err
	}

	if err := db.WithContext(ctx).
		Model(&domain.BatchCode{}).
		Where("generated_at >= ?", since).
		Count(&s.CodesLast24h).Error; err != nil {
		return Stats{}, err
	}

	if err := db.WithContext(ctx).
		Model(&domain.WebhookLog{}).
		Where("status = ? AND created_at >= ?", domain.WebhookStatusSuccess, since).
		Count(&s.SuccessfulWebhooksLast24h).Error; err != nil {
		return Stats{}, err
	}

	return s, nil
}
