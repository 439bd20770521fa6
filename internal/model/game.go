package model

import "time"

const (
	GameScheduled = "scheduled"
	GameConfirmed = "confirmed"
	GameCancelled = "cancelled"
	GameCompleted = "completed"
)

type Game struct {
	ID                uint `gorm:"primaryKey"`
	CreatedAt         time.Time
	TenantID          uint `gorm:"index"`
	StartsAt          time.Time
	Venue             string
	Status            string `gorm:"index"`
	GoaltendersNeeded int
	DefenceNeeded     int
	ForwardsNeeded    int
	SkatersNeeded     int
}

func (g *Game) IsActive() bool {
	return g != nil && (g.Status == GameScheduled || g.Status == GameConfirmed)
}

// Needed returns the required headcount for a slot position. Slot positions
// are already resolved against the tenant's position mode, so only
// goaltender, defence, forward and skater can arrive here.
func (g *Game) Needed(position string) int {
	if g == nil {
		return 0
	}

	switch position {
	case PositionGoaltender:
		return g.GoaltendersNeeded
	case PositionDefence:
		return g.DefenceNeeded
	case PositionForward:
		return g.ForwardsNeeded
	case PositionSkater:
		return g.SkatersNeeded
	default:
		return 0
	}
}
