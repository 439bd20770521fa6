package database

import (
	"time"

	"gorm.io/gorm"

	"github.com/kpelto/benchline/internal/model"
)

type InvitationQuery struct {
	Query[model.Invitation]
	id            uint
	token         string
	tenantID      uint
	gameID        uint
	playerID      uint
	position      string
	tiers         []string
	responses     []string
	createdBefore *time.Time
	full          bool
}

func NewInvitationQuery(db *gorm.DB) *InvitationQuery {
	return &InvitationQuery{
		Query: Query[model.Invitation]{
			db:    db,
			limit: 1000,
			order: "invitations.created_at, invitations.id",
		},
	}
}

func (q *InvitationQuery) Order(s string) *InvitationQuery {
	q.order = s
	return q
}

func (q *InvitationQuery) Limit(n int) *InvitationQuery {
	q.limit = n
	return q
}

func (q *InvitationQuery) Id(id uint) *InvitationQuery {
	q.id = id
	return q
}

func (q *InvitationQuery) Token(s string) *InvitationQuery {
	q.token = s
	return q
}

func (q *InvitationQuery) Tenant(id uint) *InvitationQuery {
	q.tenantID = id
	return q
}

func (q *InvitationQuery) Game(id uint) *InvitationQuery {
	q.gameID = id
	return q
}

func (q *InvitationQuery) Player(id uint) *InvitationQuery {
	q.playerID = id
	return q
}

func (q *InvitationQuery) Position(s string) *InvitationQuery {
	q.position = s
	return q
}

func (q *InvitationQuery) Tiers(s ...string) *InvitationQuery {
	q.tiers = s
	return q
}

func (q *InvitationQuery) Response(s ...string) *InvitationQuery {
	q.responses = s
	return q
}

func (q *InvitationQuery) CreatedBefore(t time.Time) *InvitationQuery {
	q.createdBefore = &t
	return q
}

// Full preloads the player and game for dashboard views.
func (q *InvitationQuery) Full() *InvitationQuery {
	q.full = true
	return q
}

func (q *InvitationQuery) where() *gorm.DB {
	tx := q.db

	if q.full {
		tx = tx.Preload("Player").Preload("Game")
	}

	if q.id != 0 {
		tx = tx.Where("id = ?", q.id)
	}

	if q.token != "" {
		tx = tx.Where("token = ?", q.token)
	}

	if q.tenantID != 0 {
		tx = tx.Where("tenant_id = ?", q.tenantID)
	}

	if q.gameID != 0 {
		tx = tx.Where("game_id = ?", q.gameID)
	}

	if q.playerID != 0 {
		tx = tx.Where("player_id = ?", q.playerID)
	}

	if q.position != "" {
		tx = tx.Where("position = ?", q.position)
	}

	if len(q.tiers) > 0 {
		tx = tx.Where("tier IN ?", q.tiers)
	}

	if len(q.responses) > 0 {
		tx = tx.Where("response IN ?", q.responses)
	}

	if q.createdBefore != nil {
		tx = tx.Where("created_at < ?", *q.createdBefore)
	}

	return tx
}

func (q *InvitationQuery) Get() []*model.Invitation {
	return q.get(q.where().Model(&model.Invitation{}))
}

func (q *InvitationQuery) One() *model.Invitation {
	return q.one(q.where().Model(&model.Invitation{}))
}

func (q *InvitationQuery) Count() int64 {
	return q.count(q.where().Model(&model.Invitation{}))
}

// CountByPlayer returns lifetime invitation counts keyed by player id,
// the aggregate behind the fairness rotation. Filters set on the query
// (tenant, game, response) apply.
func (q *InvitationQuery) CountByPlayer() map[uint]int64 {
	type row struct {
		PlayerID uint
		N        int64
	}

	var rows []row

	q.where().Model(&model.Invitation{}).
		Select("player_id, count(*) as n").
		Group("player_id").
		Scan(&rows)

	res := make(map[uint]int64, len(rows))

	for _, r := range rows {
		res[r.PlayerID] = r.N
	}

	return res
}

// RecordResponse closes a pending invitation, first writer wins. The
// predicate includes the pending state, so a second response attempt
// matches no rows and gets ErrNoRecord.
func (q *InvitationQuery) RecordResponse(response, method, notes string) error {
	tx := q.where().Model(&model.Invitation{}).
		Where("response = ?", model.ResponsePending)

	return q.updateOrError(tx, map[string]any{
		"response":     response,
		"responded_at": time.Now(),
		"method":       method,
		"notes":        notes,
	})
}
