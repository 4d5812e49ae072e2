package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

const (
	defaultPageSize = 50
	maxPageSize     = 1000
)

// page clamps caller supplied pagination to sane bounds.
func page(limit, offset int) (int, int) {
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func likePattern(s string) string {
	return "%" + strings.ToLower(strings.TrimSpace(s)) + "%"
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// Entities lists every table the repositories own, in dependency order.
func Entities() []any {
	return []any{
		&PersonEntity{},
		&AssetEntity{},
		&HireEntity{},
		&PaymentEntity{},
		&UnmatchedNotificationEntity{},
	}
}
