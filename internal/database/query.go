package database

import (
	"errors"

	"gorm.io/gorm"
)

var ErrNoRecord = errors.New("no record found")

type Query[T any] struct {
	db     *gorm.DB
	limit  int
	offset int
	order  string
}

func (q *Query[T]) get(tx *gorm.DB) []*T {
	var res []*T

	if q.order != "" {
		tx = tx.Order(q.order)
	}

	if q.limit > 0 {
		tx = tx.Limit(q.limit)
	}

	if q.offset > 0 {
		tx = tx.Offset(q.offset)
	}

	err := tx.Find(&res).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}

	return res
}

func (q *Query[T]) one(tx *gorm.DB) *T {
	res := new(T)

	err := tx.Take(&res).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}

	return res
}

func (q *Query[T]) count(tx *gorm.DB) int64 {
	var n int64

	tx.Count(&n)

	return n
}

// updateOrError applies updates and fails with ErrNoRecord when no row
// matched the predicate. Callers use this as a compare-and-swap: the
// predicate carries the expected current state.
func (q *Query[T]) updateOrError(tx *gorm.DB, updates map[string]any) error {
	tx.Updates(updates)

	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return ErrNoRecord
	}

	return nil
}
