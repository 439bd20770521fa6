package database

import (
	"gorm.io/gorm"

	"github.com/kpelto/benchline/internal/model"
)

type TenantQuery struct {
	Query[model.Tenant]
	id        uint
	subdomain string
	active    *bool
}

func NewTenantQuery(db *gorm.DB) *TenantQuery {
	return &TenantQuery{
		Query: Query[model.Tenant]{
			db:    db,
			limit: 100,
			order: "tenants.id",
		},
	}
}

func (q *TenantQuery) Id(id uint) *TenantQuery {
	q.id = id
	return q
}

func (q *TenantQuery) Subdomain(s string) *TenantQuery {
	q.subdomain = s
	return q
}

func (q *TenantQuery) Active(b bool) *TenantQuery {
	q.active = &b
	return q
}

func (q *TenantQuery) where() *gorm.DB {
	tx := q.db

	if q.id != 0 {
		tx = tx.Where("id = ?", q.id)
	}

	if q.subdomain != "" {
		tx = tx.Where("subdomain = ?", q.subdomain)
	}

	if q.active != nil {
		tx = tx.Where("active = ?", *q.active)
	}

	return tx
}

func (q *TenantQuery) Get() []*model.Tenant {
	return q.get(q.where().Model(&model.Tenant{}))
}

func (q *TenantQuery) One() *model.Tenant {
	return q.one(q.where().Model(&model.Tenant{}))
}

func (q *TenantQuery) Count() int64 {
	return q.count(q.where().Model(&model.Tenant{}))
}

func (q *TenantQuery) Update(updates map[string]any) error {
	return q.updateOrError(q.where().Model(&model.Tenant{}), updates)
}
