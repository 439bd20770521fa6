package database

import (
	"gorm.io/gorm"

	"github.com/kpelto/benchline/internal/model"
)

type PlayerQuery struct {
	Query[model.Player]
	id         uint
	tenantID   uint
	playerType string
	tier       int
	positions  []string
	active     *bool
}

func NewPlayerQuery(db *gorm.DB) *PlayerQuery {
	return &PlayerQuery{
		Query: Query[model.Player]{
			db:    db,
			limit: 1000,
			order: "players.created_at, players.id",
		},
	}
}

func (q *PlayerQuery) Order(s string) *PlayerQuery {
	q.order = s
	return q
}

func (q *PlayerQuery) Id(id uint) *PlayerQuery {
	q.id = id
	return q
}

func (q *PlayerQuery) Tenant(id uint) *PlayerQuery {
	q.tenantID = id
	return q
}

func (q *PlayerQuery) Type(s string) *PlayerQuery {
	q.playerType = s
	return q
}

func (q *PlayerQuery) Tier(n int) *PlayerQuery {
	q.tier = n
	return q
}

func (q *PlayerQuery) Positions(p ...string) *PlayerQuery {
	q.positions = p
	return q
}

func (q *PlayerQuery) Active(b bool) *PlayerQuery {
	q.active = &b
	return q
}

func (q *PlayerQuery) where() *gorm.DB {
	tx := q.db

	if q.id != 0 {
		tx = tx.Where("id = ?", q.id)
	}

	if q.tenantID != 0 {
		tx = tx.Where("tenant_id = ?", q.tenantID)
	}

	if q.playerType != "" {
		tx = tx.Where("player_type = ?", q.playerType)
	}

	if q.tier != 0 {
		tx = tx.Where("spare_tier = ?", q.tier)
	}

	if len(q.positions) > 0 {
		tx = tx.Where("position IN ?", q.positions)
	}

	if q.active != nil {
		tx = tx.Where("active = ?", *q.active)
	}

	return tx
}

func (q *PlayerQuery) Get() []*model.Player {
	return q.get(q.where().Model(&model.Player{}))
}

func (q *PlayerQuery) One() *model.Player {
	return q.one(q.where().Model(&model.Player{}))
}

func (q *PlayerQuery) Count() int64 {
	return q.count(q.where().Model(&model.Player{}))
}

func (q *PlayerQuery) Update(updates map[string]any) error {
	return q.updateOrError(q.where().Model(&model.Player{}), updates)
}
