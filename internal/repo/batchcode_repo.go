// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the BatchCode
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a record is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - CreateBatchCode returns ErrDuplicate when either the code or the item
//     already holds a row (UNIQUE violation). The unique indexes are the
//     final authority on uniqueness; callers must treat any pre-insert
//     existence check as a fast-path optimization only.
//   - On other DB errors the raw gorm error is propagated.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-batchcode-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate indicates a UNIQUE constraint violation: the batch code is
// already taken, or the item already has a code assigned.
var ErrDuplicate = errors.New("duplicate")

// CreateBatchCode inserts a new batch code row binding code to itemID on
// boardID. GeneratedAt is set to UTC at insert time.
//
// Two concurrent inserts for the same item resolve constraint-rejects-second:
// the loser receives ErrDuplicate and the stored code stays the one that won.
func CreateBatchCode(ctx context.Context, db *gorm.DB, code, itemID, boardID, itemName string) (*domain.BatchCode, error) {
	rec := &domain.BatchCode{
		Code:        code,
		ItemID:      itemID,
		BoardID:     boardID,
		ItemName:    itemName,
		GeneratedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}

// CodeExists reports whether code is already present in batch_codes.
// On DB error it returns the error; callers must not interpret an error as
// "absent".
func CodeExists(ctx context.Context, db *gorm.DB, code string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.BatchCode{}).
		Where("code = ?", code).
		Limit(1).
		Count(&n).Error
	return n > 0, err
}

// GetItemCode returns the batch code previously assigned to itemID, or
// ErrNotFound when the item has none.
func GetItemCode(ctx context.Context, db *gorm.DB, itemID string) (string, error) {
	var rec domain.BatchCode
	err := db.WithContext(ctx).
		Select("code").
		Where("monday_item_id = ?", itemID).
		First(&rec).Error
	if err != nil {
		return "", err
	}
	return rec.Code, nil
}

// isUniqueViolation sniffs driver errors for UNIQUE constraint failures.
// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique")
}
