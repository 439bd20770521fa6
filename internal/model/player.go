package model

import "time"

const (
	PositionGoaltender = "goaltender"
	PositionDefence    = "defence"
	PositionForward    = "forward"
	PositionSkater     = "skater"

	TypeRegular = "regular"
	TypeSpare   = "spare"

	TierFirst  = 1
	TierSecond = 2
)

type Player struct {
	ID         uint `gorm:"primaryKey"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	TenantID   uint   `gorm:"index"`
	Name       string
	Email      string `gorm:"index"`
	Position   string `gorm:"index"`
	PlayerType string `gorm:"index"`
	SpareTier  int
	Language   string
	NoEmail    bool
	Active     bool
}

func (p *Player) IsSpare() bool {
	return p != nil && p.PlayerType == TypeSpare
}

func (p *Player) IsRegular() bool {
	return p != nil && p.PlayerType == TypeRegular
}

func (p *Player) GetLanguage() string {
	if p == nil || p.Language == "" {
		return "en"
	}

	return p.Language
}
