package model

import "time"

// Web DTOs for the admin dashboard and the public respond pages.

type WebInvitation struct {
	ID          uint       `json:"id"`
	GameID      uint       `json:"game_id"`
	PlayerID    uint       `json:"player_id"`
	PlayerName  string     `json:"player_name,omitempty"`
	Position    string     `json:"position"`
	Tier        string     `json:"tier"`
	Response    string     `json:"response"`
	CreatedAt   time.Time  `json:"created_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
	Method      string     `json:"method,omitempty"`
	Notes       string     `json:"notes,omitempty"`
}

type WebSlot struct {
	GameID   uint   `json:"game_id"`
	Position string `json:"position"`
	Needed   int    `json:"needed"`
	Filled   int    `json:"filled"`
	State    string `json:"state"`
}

type WebGame struct {
	ID       uint       `json:"id"`
	TenantID uint       `json:"tenant_id"`
	StartsAt time.Time  `json:"starts_at"`
	Venue    string     `json:"venue"`
	Status   string     `json:"status"`
	Slots    []*WebSlot `json:"slots,omitempty"`
}

type WebPlayer struct {
	ID         uint   `json:"id"`
	TenantID   uint   `json:"tenant_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Position   string `json:"position"`
	PlayerType string `json:"player_type"`
	SpareTier  int    `json:"spare_tier,omitempty"`
	Active     bool   `json:"active"`
}

// TenantUpdate is the settings patch accepted by the admin api. Empty
// fields are left untouched.
type TenantUpdate struct {
	Name         string `json:"name"`
	PositionMode string `json:"position_mode"`
}

type FairnessEntry struct {
	PlayerID   uint   `json:"player_id"`
	PlayerName string `json:"player_name,omitempty"`
	Position   string `json:"position"`
	Tier       int    `json:"tier"`
	Invited    int64  `json:"invited"`
}

func ToWebInvitation(i *Invitation) *WebInvitation {
	if i == nil {
		return nil
	}

	w := &WebInvitation{
		ID:          i.ID,
		GameID:      i.GameID,
		PlayerID:    i.PlayerID,
		Position:    i.Position,
		Tier:        i.Tier,
		Response:    i.Response,
		CreatedAt:   i.CreatedAt,
		RespondedAt: i.RespondedAt,
		Method:      i.Method,
		Notes:       i.Notes,
	}

	if i.Player != nil {
		w.PlayerName = i.Player.Name
	}

	return w
}

func ToWebGame(g *Game) *WebGame {
	if g == nil {
		return nil
	}

	return &WebGame{
		ID:       g.ID,
		TenantID: g.TenantID,
		StartsAt: g.StartsAt,
		Venue:    g.Venue,
		Status:   g.Status,
	}
}

func ToWebPlayer(p *Player) *WebPlayer {
	if p == nil {
		return nil
	}

	return &WebPlayer{
		ID:         p.ID,
		TenantID:   p.TenantID,
		Name:       p.Name,
		Email:      p.Email,
		Position:   p.Position,
		PlayerType: p.PlayerType,
		SpareTier:  p.SpareTier,
		Active:     p.Active,
	}
}
