package model

import "time"

const (
	TierRegular = "regular"
	TierSpare1  = "spare_priority_1"
	TierSpare2  = "spare_priority_2"

	ResponsePending  = "pending"
	ResponseAccepted = "accepted"
	ResponseDeclined = "declined"
	ResponseExpired  = "expired"

	MethodEmail  = "email"
	MethodWeb    = "web"
	MethodAdmin  = "admin"
	MethodSystem = "system"
)

// Invitation is a row in the append-only invitation ledger. Rows are never
// deleted and the response is recorded exactly once. The fairness rotation
// is derived from the full history of these rows.
type Invitation struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	TenantID    uint `gorm:"index"`
	GameID      uint `gorm:"index"`
	Game        *Game
	PlayerID    uint `gorm:"index"`
	Player      *Player
	Position    string `gorm:"index"`
	Tier        string
	Token       string `gorm:"uniqueIndex"`
	Response    string `gorm:"index;default:pending"`
	RespondedAt *time.Time
	Method      string
	Notes       string
}

func (i *Invitation) IsPending() bool {
	return i != nil && i.Response == ResponsePending
}

func TierForSpare(tier int) string {
	if tier == TierSecond {
		return TierSpare2
	}

	return TierSpare1
}
