package repository

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ErrNotFound is gorm's record-not-found error; lookups pass it through
// unwrapped so callers can match either name.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate is returned when a unique column (name, slug) collides.
var ErrDuplicate = errors.New("duplicate value")

// mapWriteError turns driver unique-constraint failures into ErrDuplicate.
func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "Duplicate entry") {
		return ErrDuplicate
	}
	return err
}

// updateResult reports not found when an update matched nothing. MySQL counts
// only changed rows, so a zero is confirmed with a lookup first.
func updateResult(db *gorm.DB, model interface{}, id uint, result *gorm.DB, what string) error {
	if result.Error != nil {
		return fmt.Errorf("failed to update %s ID %d: %w", what, id, mapWriteError(result.Error))
	}
	if result.RowsAffected > 0 {
		return nil
	}
	var count int64
	if err := db.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to verify %s ID %d: %w", what, id, err)
	}
	if count == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
