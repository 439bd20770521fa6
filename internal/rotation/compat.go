package rotation

import (
	"errors"
	"fmt"

	"github.com/kpelto/benchline/internal/model"
)

// ErrPositionMode marks a tenant data setup problem: the requested
// position cannot be resolved against the tenant's position mode.
// This is reported, never silently defaulted.
var ErrPositionMode = errors.New("position is not valid for position mode")

// slotPositions maps (position mode, requested position) to the canonical
// slot position. In two position mode every non-goaltender request
// collapses to skater.
var slotPositions = map[string]map[string]string{
	model.ModeThreePosition: {
		model.PositionGoaltender: model.PositionGoaltender,
		model.PositionDefence:    model.PositionDefence,
		model.PositionForward:    model.PositionForward,
	},
	model.ModeTwoPosition: {
		model.PositionGoaltender: model.PositionGoaltender,
		model.PositionDefence:    model.PositionSkater,
		model.PositionForward:    model.PositionSkater,
		model.PositionSkater:     model.PositionSkater,
	},
}

// sparePositions maps (position mode, slot position) to the set of player
// positions that may fill the slot. A skater spare covers any
// non-goaltender slot, goaltender slots only ever match goaltenders.
var sparePositions = map[string]map[string][]string{
	model.ModeThreePosition: {
		model.PositionGoaltender: {model.PositionGoaltender},
		model.PositionDefence:    {model.PositionDefence},
		model.PositionForward:    {model.PositionForward},
	},
	model.ModeTwoPosition: {
		model.PositionGoaltender: {model.PositionGoaltender},
		model.PositionSkater:     {model.PositionSkater, model.PositionDefence, model.PositionForward},
	},
}

// SlotPosition resolves a requested position to the slot position used in
// the ledger and the requirement counts.
func SlotPosition(mode, position string) (string, error) {
	m, ok := slotPositions[mode]

	if !ok {
		return "", fmt.Errorf("%w: unknown mode %q", ErrPositionMode, mode)
	}

	p, ok := m[position]

	if !ok {
		return "", fmt.Errorf("%w: %q in mode %q", ErrPositionMode, position, mode)
	}

	return p, nil
}

// SparePositions lists the player positions eligible for a slot.
func SparePositions(mode, slotPosition string) ([]string, error) {
	m, ok := sparePositions[mode]

	if !ok {
		return nil, fmt.Errorf("%w: unknown mode %q", ErrPositionMode, mode)
	}

	p, ok := m[slotPosition]

	if !ok {
		return nil, fmt.Errorf("%w: %q in mode %q", ErrPositionMode, slotPosition, mode)
	}

	return p, nil
}
