package rotation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kpelto/benchline/internal/model"
)

func TestSlotPosition(t *testing.T) {
	data := []struct {
		mode     string
		position string
		want     string
		wantErr  bool
	}{
		{model.ModeThreePosition, model.PositionGoaltender, model.PositionGoaltender, false},
		{model.ModeThreePosition, model.PositionDefence, model.PositionDefence, false},
		{model.ModeThreePosition, model.PositionForward, model.PositionForward, false},
		{model.ModeThreePosition, model.PositionSkater, "", true},
		{model.ModeTwoPosition, model.PositionGoaltender, model.PositionGoaltender, false},
		{model.ModeTwoPosition, model.PositionDefence, model.PositionSkater, false},
		{model.ModeTwoPosition, model.PositionForward, model.PositionSkater, false},
		{model.ModeTwoPosition, model.PositionSkater, model.PositionSkater, false},
		{"bad_mode", model.PositionForward, "", true},
		{model.ModeThreePosition, "winger", "", true},
	}

	for _, d := range data {
		got, err := SlotPosition(d.mode, d.position)

		if d.wantErr {
			require.ErrorIs(t, err, ErrPositionMode, "%s/%s", d.mode, d.position)

			continue
		}

		require.NoError(t, err)
		require.Equal(t, d.want, got, "%s/%s", d.mode, d.position)
	}
}

func TestSparePositions(t *testing.T) {
	p, err := SparePositions(model.ModeThreePosition, model.PositionDefence)
	require.NoError(t, err)
	require.Equal(t, []string{model.PositionDefence}, p)

	p, err = SparePositions(model.ModeTwoPosition, model.PositionSkater)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{model.PositionSkater, model.PositionDefence, model.PositionForward}, p)

	p, err = SparePositions(model.ModeTwoPosition, model.PositionGoaltender)
	require.NoError(t, err)
	require.Equal(t, []string{model.PositionGoaltender}, p)

	_, err = SparePositions(model.ModeTwoPosition, model.PositionDefence)
	require.ErrorIs(t, err, ErrPositionMode)
}
