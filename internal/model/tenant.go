package model

import "time"

const (
	ModeThreePosition = "three_position"
	ModeTwoPosition   = "two_position"
)

type Tenant struct {
	ID           uint `gorm:"primaryKey"`
	CreatedAt    time.Time
	Name         string `gorm:"index"`
	Subdomain    string `gorm:"uniqueIndex"`
	PositionMode string
	Active       bool
}

func (t *Tenant) GetPositionMode() string {
	if t == nil || t.PositionMode == "" {
		return ModeThreePosition
	}

	return t.PositionMode
}
