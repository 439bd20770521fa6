package database

import (
	"errors"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"github.com/kpelto/benchline/internal/model"
)

type DatabaseManager struct {
	db     *gorm.DB
	logger *slog.Logger
}

func New(db *gorm.DB) *DatabaseManager {
	return &DatabaseManager{
		db:     db,
		logger: slog.With("logger", "dbm"),
	}
}

func (mm *DatabaseManager) Migrate() error {
	if mm == nil || mm.db == nil {
		return gorm.ErrInvalidDB
	}

	if err := mm.db.AutoMigrate(
		&model.Tenant{},
		&model.Player{},
		&model.Game{},
		&model.Invitation{}); err != nil {
		return err
	}

	// One pending spare invitation per game/position slot. Gorm tags
	// cannot express a partial index, so the guard is created directly.
	// Racing cascade steps on the same slot fail here with a unique
	// violation. Regular invitations go out in bulk and are exempt.
	return mm.db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_invitations_one_pending " +
			"ON invitations(game_id, position) " +
			"WHERE response = 'pending' AND tier <> 'regular'").Error
}

func (mm *DatabaseManager) Create(s any) error {
	if mm == nil || mm.db == nil {
		return gorm.ErrInvalidDB
	}

	return mm.db.Create(s).Error
}

func (mm *DatabaseManager) Save(s any) error {
	if mm == nil || mm.db == nil {
		return gorm.ErrInvalidDB
	}

	err := mm.db.Save(s).Error

	if err != nil {
		mm.logger.Error("error saving object", slog.Any("error", err))
	}

	return err
}

func (mm *DatabaseManager) TenantQuery() *TenantQuery {
	return NewTenantQuery(mm.db)
}

func (mm *DatabaseManager) PlayerQuery() *PlayerQuery {
	return NewPlayerQuery(mm.db)
}

func (mm *DatabaseManager) GameQuery() *GameQuery {
	return NewGameQuery(mm.db)
}

func (mm *DatabaseManager) InvitationQuery() *InvitationQuery {
	return NewInvitationQuery(mm.db)
}

// IsUniqueViolation reports whether err is a unique constraint failure.
// The sqlite driver does not always translate to gorm.ErrDuplicatedKey,
// so the message is checked as well.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
