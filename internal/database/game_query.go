package database

import (
	"time"

	"gorm.io/gorm"

	"github.com/kpelto/benchline/internal/model"
)

type GameQuery struct {
	Query[model.Game]
	id       uint
	tenantID uint
	statuses []string
	after    *time.Time
}

func NewGameQuery(db *gorm.DB) *GameQuery {
	return &GameQuery{
		Query: Query[model.Game]{
			db:    db,
			limit: 200,
			order: "games.starts_at",
		},
	}
}

func (q *GameQuery) Order(s string) *GameQuery {
	q.order = s
	return q
}

func (q *GameQuery) Limit(n int) *GameQuery {
	q.limit = n
	return q
}

func (q *GameQuery) Id(id uint) *GameQuery {
	q.id = id
	return q
}

func (q *GameQuery) Tenant(id uint) *GameQuery {
	q.tenantID = id
	return q
}

func (q *GameQuery) Status(s ...string) *GameQuery {
	q.statuses = s
	return q
}

func (q *GameQuery) After(t time.Time) *GameQuery {
	q.after = &t
	return q
}

func (q *GameQuery) where() *gorm.DB {
	tx := q.db

	if q.id != 0 {
		tx = tx.Where("id = ?", q.id)
	}

	if q.tenantID != 0 {
		tx = tx.Where("tenant_id = ?", q.tenantID)
	}

	if len(q.statuses) > 0 {
		tx = tx.Where("status IN ?", q.statuses)
	}

	if q.after != nil {
		tx = tx.Where("starts_at > ?", *q.after)
	}

	return tx
}

func (q *GameQuery) Get() []*model.Game {
	return q.get(q.where().Model(&model.Game{}))
}

func (q *GameQuery) One() *model.Game {
	return q.one(q.where().Model(&model.Game{}))
}

func (q *GameQuery) Update(updates map[string]any) error {
	return q.updateOrError(q.where().Model(&model.Game{}), updates)
}
