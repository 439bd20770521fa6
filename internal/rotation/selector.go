package rotation

import (
	"log/slog"
	"sort"

	"github.com/kpelto/benchline/internal/model"
)

// Candidate is the selector's answer: the spare to invite next and the
// tier it was drawn from.
type Candidate struct {
	Player *model.Player
	Tier   int
}

// Selector picks the next spare for an open slot. It only reads: the
// rotation order is recomputed from the ledger on every call, so there
// is no cursor to drift out of sync after a crash.
type Selector struct {
	store  Store
	logger *slog.Logger
}

func NewSelector(store Store) *Selector {
	return &Selector{
		store:  store,
		logger: slog.With("logger", "selector"),
	}
}

// Next returns the best eligible spare for the slot, or nil when both
// tiers are exhausted. Exhaustion is an expected outcome, not an error.
// Players already invited for this game (any response state) and players
// in excluded are skipped. Ranking within a tier: lifetime invitation
// count ascending, then registration time, then id.
func (s *Selector) Next(tenant *model.Tenant, gameID uint, position string, excluded map[uint]bool) (*Candidate, error) {
	mode := tenant.GetPositionMode()

	slotPos, err := SlotPosition(mode, position)
	if err != nil {
		return nil, err
	}

	positions, err := SparePositions(mode, slotPos)
	if err != nil {
		return nil, err
	}

	pool := s.store.ActivePlayers(tenant.ID, model.TypeSpare, positions)

	if len(pool) == 0 {
		return nil, nil
	}

	counts := s.store.InvitationCounts(tenant.ID)
	invited := s.store.InvitedPlayers(gameID)

	for _, tier := range []int{model.TierFirst, model.TierSecond} {
		var eligible []*model.Player

		for _, p := range pool {
			if p.SpareTier != tier {
				continue
			}

			if invited[p.ID] || excluded[p.ID] {
				continue
			}

			eligible = append(eligible, p)
		}

		if len(eligible) == 0 {
			continue
		}

		sort.SliceStable(eligible, func(i, j int) bool {
			a, b := eligible[i], eligible[j]

			if counts[a.ID] != counts[b.ID] {
				return counts[a.ID] < counts[b.ID]
			}

			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}

			return a.ID < b.ID
		})

		s.logger.Debug("candidate selected",
			slog.Uint64("game", uint64(gameID)),
			slog.String("position", slotPos),
			slog.Int("tier", tier),
			slog.Uint64("player", uint64(eligible[0].ID)))

		return &Candidate{Player: eligible[0], Tier: tier}, nil
	}

	return nil, nil
}
