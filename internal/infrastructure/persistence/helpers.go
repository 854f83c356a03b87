package persistence

import (
	"errors"

	"gorm.io/gorm"
)

// first runs a single-row lookup. A missing row is not an error: the
// repositories report it as a nil result.
func first(tx *gorm.DB, dest any, query any, args ...any) (bool, error) {
	err := tx.Where(query, args...).First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
