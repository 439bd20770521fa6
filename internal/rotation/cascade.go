package rotation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kdudkov/goutils/callback"

	"github.com/kpelto/benchline/internal/database"
	"github.com/kpelto/benchline/internal/model"
)

const (
	// Step outcomes. All of these except the error returns are normal,
	// handled results of a rotation step.
	OutcomeInvited   = "invited"
	OutcomeFilled    = "filled"
	OutcomeAwaiting  = "awaiting_response"
	OutcomeLostRace  = "lost_race"
	OutcomeExhausted = "exhausted"
	OutcomeInactive  = "game_inactive"
	OutcomeDuplicate = "already_resolved"

	// Slot states for the dashboard, derived from the ledger and the
	// requirement counts on every request.
	SlotFilled    = "filled"
	SlotAwaiting  = "awaiting_response"
	SlotOpen      = "open"
	SlotExhausted = "exhausted"
)

var ErrNotFound = errors.New("invitation not found")

// Gateway delivers an invitation to a player. Failure is a normal,
// expected outcome and must not abort the cascade.
type Gateway interface {
	Deliver(ctx context.Context, inv *model.Invitation, player *model.Player, game *model.Game) error
}

type StepResult struct {
	Outcome    string
	Invitation *model.Invitation
}

type SlotEvent struct {
	TenantID   uint              `json:"tenant_id"`
	GameID     uint              `json:"game_id"`
	Position   string            `json:"position"`
	State      string            `json:"state"`
	Invitation *model.Invitation `json:"invitation,omitempty"`
}

type DispatchSummary struct {
	Sent    int      `json:"sent"`
	Failed  int      `json:"failed"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// Cascade reacts to roster vacancies and drives rotation steps until the
// slot is filled or both spare tiers are exhausted. It holds no
// in-process locks: the single-pending invariant is enforced by the
// ledger's conditional insert, so steps may race freely across
// goroutines and processes.
type Cascade struct {
	store    Store
	selector *Selector
	gateway  Gateway
	events   *callback.Callback[*SlotEvent]
	logger   *slog.Logger
}

func NewCascade(store Store, gateway Gateway) *Cascade {
	return &Cascade{
		store:    store,
		selector: NewSelector(store),
		gateway:  gateway,
		events:   callback.New[*SlotEvent](),
		logger:   slog.With("logger", "cascade"),
	}
}

func (c *Cascade) Events() *callback.Callback[*SlotEvent] {
	return c.events
}

// OnDecline records a decline on a pending invitation and runs a
// rotation step for the vacated slot. Declining an already resolved
// invitation is a benign duplicate, not an error.
func (c *Cascade) OnDecline(ctx context.Context, invitationID uint, method, notes string) (*StepResult, error) {
	inv := c.store.Invitation(invitationID)

	if inv == nil {
		return nil, ErrNotFound
	}

	if err := c.store.CloseInvitation(invitationID, model.ResponseDeclined, method, notes); err != nil {
		if errors.Is(err, database.ErrNoRecord) {
			c.logger.Debug("duplicate decline", slog.Uint64("invitation", uint64(invitationID)))

			return &StepResult{Outcome: OutcomeDuplicate, Invitation: inv}, nil
		}

		return nil, err
	}

	responsesMetric.WithLabelValues(model.ResponseDeclined).Inc()
	c.logger.Info("invitation declined",
		slog.Uint64("invitation", uint64(invitationID)),
		slog.Uint64("game", uint64(inv.GameID)),
		slog.String("position", inv.Position))

	return c.RunRotationStep(ctx, inv.GameID, inv.Position)
}

// OnAccept records an acceptance and runs a follow-up step: when the
// position needs more than one player the next vacancy keeps cascading.
func (c *Cascade) OnAccept(ctx context.Context, invitationID uint, method, notes string) (*StepResult, error) {
	inv := c.store.Invitation(invitationID)

	if inv == nil {
		return nil, ErrNotFound
	}

	if err := c.store.CloseInvitation(invitationID, model.ResponseAccepted, method, notes); err != nil {
		if errors.Is(err, database.ErrNoRecord) {
			return &StepResult{Outcome: OutcomeDuplicate, Invitation: inv}, nil
		}

		return nil, err
	}

	responsesMetric.WithLabelValues(model.ResponseAccepted).Inc()
	c.logger.Info("invitation accepted",
		slog.Uint64("invitation", uint64(invitationID)),
		slog.Uint64("game", uint64(inv.GameID)),
		slog.String("position", inv.Position))

	res, err := c.RunRotationStep(ctx, inv.GameID, inv.Position)

	if err == nil && res.Outcome == OutcomeFilled {
		c.publish(inv.TenantID, inv.GameID, inv.Position, SlotFilled, inv)
	}

	return res, err
}

// OnExpiry expires the outstanding spare invitation for a slot and
// cascades. Regular invitations at the same position keep running on
// their own deadline and are only closed by the sweep. The expired
// response stays distinguishable from a decline in reporting.
func (c *Cascade) OnExpiry(ctx context.Context, gameID uint, position string) (*StepResult, error) {
	for _, inv := range c.store.PendingForGame(gameID) {
		if inv.Position != position || inv.Tier == model.TierRegular {
			continue
		}

		if err := c.expire(inv, "no response before deadline"); err != nil {
			return nil, err
		}
	}

	return c.RunRotationStep(ctx, gameID, position)
}

// RunRotationStep is the core cascade step. It re-verifies that the slot
// is still open, asks the selector for the next spare, writes the
// pending ledger row and dispatches the invitation. Safe to call
// concurrently for the same slot: losing the conditional insert race is
// a no-op, the other writer's invitation stands.
func (c *Cascade) RunRotationStep(ctx context.Context, gameID uint, position string) (*StepResult, error) {
	game := c.store.Game(gameID)

	if game == nil {
		return nil, fmt.Errorf("game %d not found", gameID)
	}

	if !game.IsActive() {
		return &StepResult{Outcome: OutcomeInactive}, nil
	}

	tenant := c.store.Tenant(game.TenantID)

	slotPos, err := SlotPosition(tenant.GetPositionMode(), position)
	if err != nil {
		return nil, err
	}

	if c.store.AcceptedCount(gameID, slotPos) >= int64(game.Needed(slotPos)) {
		return &StepResult{Outcome: OutcomeFilled}, nil
	}

	if c.store.PendingSpareCount(gameID, slotPos) > 0 {
		return &StepResult{Outcome: OutcomeAwaiting}, nil
	}

	// Candidates that fail delivery are skipped within this step, as if
	// they were never eligible, so a dead mailbox cannot stall the slot.
	skipped := make(map[uint]bool)

	for {
		cand, err := c.selector.Next(tenant, gameID, slotPos, skipped)
		if err != nil {
			return nil, err
		}

		if cand == nil {
			exhaustedMetric.WithLabelValues(slotPos).Inc()
			c.logger.Warn("no spares available",
				slog.Uint64("game", uint64(gameID)),
				slog.String("position", slotPos))
			c.publish(game.TenantID, gameID, slotPos, SlotExhausted, nil)

			return &StepResult{Outcome: OutcomeExhausted}, nil
		}

		inv := &model.Invitation{
			TenantID: game.TenantID,
			GameID:   gameID,
			PlayerID: cand.Player.ID,
			Position: slotPos,
			Tier:     model.TierForSpare(cand.Tier),
			Token:    uuid.NewString(),
			Response: model.ResponsePending,
		}

		if err := c.store.AddPending(inv); err != nil {
			if database.IsUniqueViolation(err) {
				c.logger.Debug("lost slot race",
					slog.Uint64("game", uint64(gameID)),
					slog.String("position", slotPos))

				return &StepResult{Outcome: OutcomeLostRace}, nil
			}

			return nil, err
		}

		if err := c.deliver(ctx, inv, cand.Player, game); err != nil {
			deliveryFailMetric.WithLabelValues(inv.Tier).Inc()
			c.logger.Error("delivery failed, skipping candidate",
				slog.Uint64("player", uint64(cand.Player.ID)),
				slog.Any("error", err))

			if err := c.expire(inv, "delivery failed"); err != nil {
				return nil, err
			}

			skipped[cand.Player.ID] = true

			continue
		}

		invitationsMetric.WithLabelValues(inv.Tier, slotPos).Inc()
		c.logger.Info("spare invited",
			slog.Uint64("game", uint64(gameID)),
			slog.String("position", slotPos),
			slog.Uint64("player", uint64(cand.Player.ID)),
			slog.Int("tier", cand.Tier))
		c.publish(game.TenantID, gameID, slotPos, SlotAwaiting, inv)

		return &StepResult{Outcome: OutcomeInvited, Invitation: inv}, nil
	}
}

// SweepExpired expires every pending invitation older than the deadline
// and cascades each affected slot. Returns the number of invitations
// expired.
func (c *Cascade) SweepExpired(ctx context.Context, deadline time.Time) int {
	n := 0

	for _, inv := range c.store.PendingOlderThan(deadline) {
		if err := c.expire(inv, "no response before deadline"); err != nil {
			// Lost to a concurrent response, nothing to cascade.
			continue
		}

		n++

		if _, err := c.RunRotationStep(ctx, inv.GameID, inv.Position); err != nil {
			c.logger.Error("rotation step failed",
				slog.Uint64("game", uint64(inv.GameID)),
				slog.Any("error", err))
		}
	}

	return n
}

// CancelGame marks the game cancelled and expires its outstanding
// invitations. No further rotation steps run for a cancelled game.
func (c *Cascade) CancelGame(gameID uint) error {
	if err := c.store.SetGameStatus(gameID, model.GameCancelled); err != nil {
		return err
	}

	for _, inv := range c.store.PendingForGame(gameID) {
		_ = c.expire(inv, "game cancelled")
	}

	c.logger.Info("game cancelled", slog.Uint64("game", uint64(gameID)))

	return nil
}

// InviteRegulars dispatches invitations to every active regular player
// of the game's tenant who has not been invited yet. Players without a
// usable email are skipped and reported.
func (c *Cascade) InviteRegulars(ctx context.Context, gameID uint) (*DispatchSummary, error) {
	game := c.store.Game(gameID)

	if game == nil {
		return nil, fmt.Errorf("game %d not found", gameID)
	}

	if !game.IsActive() {
		return nil, fmt.Errorf("game %d is not active", gameID)
	}

	tenant := c.store.Tenant(game.TenantID)
	invited := c.store.InvitedPlayers(gameID)
	sum := &DispatchSummary{}

	for _, p := range c.store.ActivePlayers(game.TenantID, model.TypeRegular, nil) {
		if invited[p.ID] {
			sum.Skipped++

			continue
		}

		if p.Email == "" || p.NoEmail {
			sum.Skipped++
			sum.Errors = append(sum.Errors, fmt.Sprintf("player %s has no usable email", p.Name))

			continue
		}

		slotPos, err := SlotPosition(tenant.GetPositionMode(), p.Position)
		if err != nil {
			return nil, err
		}

		inv := &model.Invitation{
			TenantID: game.TenantID,
			GameID:   gameID,
			PlayerID: p.ID,
			Position: slotPos,
			Tier:     model.TierRegular,
			Token:    uuid.NewString(),
			Response: model.ResponsePending,
		}

		if err := c.store.AddPending(inv); err != nil {
			return sum, err
		}

		if err := c.deliver(ctx, inv, p, game); err != nil {
			sum.Failed++
			sum.Errors = append(sum.Errors, fmt.Sprintf("delivery to %s failed", p.Name))

			_ = c.expire(inv, "delivery failed")

			continue
		}

		invitationsMetric.WithLabelValues(model.TierRegular, slotPos).Inc()
		sum.Sent++
	}

	c.logger.Info("regulars invited",
		slog.Uint64("game", uint64(gameID)),
		slog.Int("sent", sum.Sent),
		slog.Int("failed", sum.Failed),
		slog.Int("skipped", sum.Skipped))

	return sum, nil
}

// SlotStates derives the dashboard state of every slot of a game from
// the ledger and the requirement counts alone.
func (c *Cascade) SlotStates(gameID uint) ([]*model.WebSlot, error) {
	game := c.store.Game(gameID)

	if game == nil {
		return nil, fmt.Errorf("game %d not found", gameID)
	}

	tenant := c.store.Tenant(game.TenantID)
	mode := tenant.GetPositionMode()

	var positions []string

	if mode == model.ModeTwoPosition {
		positions = []string{model.PositionGoaltender, model.PositionSkater}
	} else {
		positions = []string{model.PositionGoaltender, model.PositionDefence, model.PositionForward}
	}

	res := make([]*model.WebSlot, 0, len(positions))

	for _, pos := range positions {
		needed := game.Needed(pos)

		if needed == 0 {
			continue
		}

		slot := &model.WebSlot{
			GameID:   gameID,
			Position: pos,
			Needed:   needed,
			Filled:   int(c.store.AcceptedCount(gameID, pos)),
		}

		switch {
		case slot.Filled >= needed:
			slot.State = SlotFilled
		case c.store.PendingSpareCount(gameID, pos) > 0:
			slot.State = SlotAwaiting
		default:
			cand, err := c.selector.Next(tenant, gameID, pos, nil)
			if err != nil {
				return nil, err
			}

			if cand == nil {
				slot.State = SlotExhausted
			} else {
				slot.State = SlotOpen
			}
		}

		res = append(res, slot)
	}

	return res, nil
}

// FairnessSnapshot lists lifetime invitation counts for a tenant's
// spares of one tier, zero counts included.
func (c *Cascade) FairnessSnapshot(tenantID uint, tier int) []*model.FairnessEntry {
	counts := c.store.InvitationCounts(tenantID)
	res := make([]*model.FairnessEntry, 0)

	for _, p := range c.store.ActivePlayers(tenantID, model.TypeSpare, nil) {
		if tier != 0 && p.SpareTier != tier {
			continue
		}

		res = append(res, &model.FairnessEntry{
			PlayerID:   p.ID,
			PlayerName: p.Name,
			Position:   p.Position,
			Tier:       p.SpareTier,
			Invited:    counts[p.ID],
		})
	}

	return res
}

func (c *Cascade) deliver(ctx context.Context, inv *model.Invitation, p *model.Player, g *model.Game) error {
	if err := c.gateway.Deliver(ctx, inv, p, g); err == nil {
		return nil
	}

	// One retry per candidate bounds the cascade length.
	return c.gateway.Deliver(ctx, inv, p, g)
}

func (c *Cascade) expire(inv *model.Invitation, reason string) error {
	err := c.store.CloseInvitation(inv.ID, model.ResponseExpired, model.MethodSystem, reason)

	if err == nil {
		responsesMetric.WithLabelValues(model.ResponseExpired).Inc()
	}

	return err
}

func (c *Cascade) publish(tenantID, gameID uint, position, state string, inv *model.Invitation) {
	c.events.AddMessage(&SlotEvent{
		TenantID:   tenantID,
		GameID:     gameID,
		Position:   position,
		State:      state,
		Invitation: inv,
	})
}
