package rotation

import (
	"strconv"
	"time"

	"github.com/kpelto/benchline/internal/cache"
	"github.com/kpelto/benchline/internal/database"
	"github.com/kpelto/benchline/internal/model"
)

// Store is everything the rotation engine needs from persistence. Reads
// follow the query layer convention of returning nil for missing rows,
// writes return errors. AddPending must be atomic: it fails with a
// unique violation when the slot already has an outstanding spare
// invitation, which is how concurrent cascade steps are serialized.
type Store interface {
	Tenant(id uint) *model.Tenant
	Game(id uint) *model.Game
	SetGameStatus(id uint, status string) error

	ActivePlayers(tenantID uint, playerType string, positions []string) []*model.Player
	InvitationCounts(tenantID uint) map[uint]int64

	Invitation(id uint) *model.Invitation
	InvitationByToken(token string) *model.Invitation
	GameInvitations(gameID uint) []*model.Invitation
	InvitedPlayers(gameID uint) map[uint]bool
	AcceptedCount(gameID uint, position string) int64
	PendingSpareCount(gameID uint, position string) int64
	PendingOlderThan(t time.Time) []*model.Invitation
	PendingForGame(gameID uint) []*model.Invitation

	AddPending(inv *model.Invitation) error
	CloseInvitation(id uint, response, method, notes string) error
}

var _ Store = &DBStore{}

type DBStore struct {
	dbm *database.DatabaseManager

	// Position mode is fixed per tenant, so tenant rows are safe to
	// cache across rotation steps.
	tenants *cache.Cache[*model.Tenant]
}

func NewDBStore(dbm *database.DatabaseManager) *DBStore {
	s := &DBStore{dbm: dbm}

	s.tenants = cache.NewWithTTL(time.Minute, func(key string) *model.Tenant {
		id, err := strconv.Atoi(key)
		if err != nil {
			return nil
		}

		return s.dbm.TenantQuery().Id(uint(id)).One()
	})

	return s
}

func (s *DBStore) Tenant(id uint) *model.Tenant {
	return s.tenants.Load(strconv.Itoa(int(id)))
}

// InvalidateTenant drops the cached tenant row so the next rotation
// step sees updated settings. Called after tenant writes.
func (s *DBStore) InvalidateTenant(id uint) {
	s.tenants.Invalidate(strconv.Itoa(int(id)))
}

func (s *DBStore) Game(id uint) *model.Game {
	return s.dbm.GameQuery().Id(id).One()
}

func (s *DBStore) SetGameStatus(id uint, status string) error {
	return s.dbm.GameQuery().Id(id).Update(map[string]any{"status": status})
}

func (s *DBStore) ActivePlayers(tenantID uint, playerType string, positions []string) []*model.Player {
	q := s.dbm.PlayerQuery().Tenant(tenantID).Type(playerType).Active(true)

	if len(positions) > 0 {
		q = q.Positions(positions...)
	}

	return q.Get()
}

func (s *DBStore) InvitationCounts(tenantID uint) map[uint]int64 {
	return s.dbm.InvitationQuery().Tenant(tenantID).CountByPlayer()
}

func (s *DBStore) Invitation(id uint) *model.Invitation {
	return s.dbm.InvitationQuery().Id(id).One()
}

func (s *DBStore) InvitationByToken(token string) *model.Invitation {
	return s.dbm.InvitationQuery().Token(token).One()
}

func (s *DBStore) GameInvitations(gameID uint) []*model.Invitation {
	return s.dbm.InvitationQuery().Game(gameID).Full().Get()
}

func (s *DBStore) InvitedPlayers(gameID uint) map[uint]bool {
	res := make(map[uint]bool)

	for _, inv := range s.dbm.InvitationQuery().Game(gameID).Get() {
		res[inv.PlayerID] = true
	}

	return res
}

func (s *DBStore) AcceptedCount(gameID uint, position string) int64 {
	return s.dbm.InvitationQuery().
		Game(gameID).
		Position(position).
		Response(model.ResponseAccepted).
		Count()
}

func (s *DBStore) PendingSpareCount(gameID uint, position string) int64 {
	return s.dbm.InvitationQuery().
		Game(gameID).
		Position(position).
		Tiers(model.TierSpare1, model.TierSpare2).
		Response(model.ResponsePending).
		Count()
}

func (s *DBStore) PendingOlderThan(t time.Time) []*model.Invitation {
	return s.dbm.InvitationQuery().
		Response(model.ResponsePending).
		CreatedBefore(t).
		Get()
}

func (s *DBStore) PendingForGame(gameID uint) []*model.Invitation {
	return s.dbm.InvitationQuery().
		Game(gameID).
		Response(model.ResponsePending).
		Get()
}

func (s *DBStore) AddPending(inv *model.Invitation) error {
	return s.dbm.Create(inv)
}

func (s *DBStore) CloseInvitation(id uint, response, method, notes string) error {
	return s.dbm.InvitationQuery().Id(id).RecordResponse(response, method, notes)
}
