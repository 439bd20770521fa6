package rotation

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/kpelto/benchline/internal/database"
	"github.com/kpelto/benchline/internal/model"
)

type testGateway struct {
	mx        sync.Mutex
	delivered []uint
	fail      map[uint]bool
}

func (g *testGateway) Deliver(_ context.Context, _ *model.Invitation, p *model.Player, _ *model.Game) error {
	g.mx.Lock()
	g.delivered = append(g.delivered, p.ID)
	g.mx.Unlock()

	if g.fail[p.ID] {
		return fmt.Errorf("mailbox for player %d is dead", p.ID)
	}

	return nil
}

func getTestCascade(t *testing.T) (*Cascade, *testGateway, *database.DatabaseManager) {
	t.Helper()

	store, dbm := getTestStore(t)
	gw := &testGateway{fail: make(map[uint]bool)}

	return NewCascade(store, gw), gw, dbm
}

func TestRunRotationStep_InvitesFairest(t *testing.T) {
	c, gw, dbm := getTestCascade(t)
	tenant := addTenant(t, dbm, model.ModeThreePosition)
	game := addGame(t, dbm, tenant.ID, 1, 0, 0)

	s1 := addSpare(t, dbm, tenant.ID, "s1", model.PositionForward, model.TierFirst)
	s2 := addSpare(t, dbm, tenant.ID, "s2", model.PositionForward, model.TierFirst)
	addHistory(t, dbm, tenant.ID, s1.ID, 3)
	addHistory(t, dbm, tenant.ID, s2.ID, 1)

	res, err := c.RunRotationStep(context.Background(), game.ID, model.PositionForward)
	require.NoError(t, err)
	require.Equal(t, OutcomeInvited, res.Outcome)
	require.Equal(t, s2.ID, res.Invitation.PlayerID)
	require.Equal(t, model.TierSpare1, res.Invitation.Tier)
	require.Equal(t, []uint{s2.ID}, gw.delivered)

	pending := dbm.InvitationQuery().Game(game.ID).Response(model.ResponsePending).Get()
	require.Len(t, pending, 1)
	require.NotEmpty(t, pending[0].Token)
}

func TestRunRotationStep_AwaitingWhilePending(t *testing.T) {
	c, gw, dbm := getTestCascade(t)
	tenant := addTenant(t, dbm, model.ModeThreePosition)
	game := addGame(t, dbm, tenant.ID, 1, 0, 0)

	addSpare(t, dbm, tenant.ID, "s1", model.PositionForward, model.TierFirst)
	addSpare(t, dbm, tenant.ID, "s2", model.PositionForward, model.TierFirst)

	res, err := c.RunRotationStep(context.Background(), game.ID, model.PositionForward)
	require.NoError(t, err)
	require.Equal(t, OutcomeInvited, res.Outcome)

	// A second step for the same open slot must not send anything.
	res, err = c.RunRotationStep(context.Background(), game.ID, model.PositionForward)
	require.NoError(t, err)
	require.Equal(t, OutcomeAwaiting, res.Outcome)
	require.Len(t, gw.delivered, 1)
	require.Equal(t, int64(1), dbm.InvitationQuery().Game(game.ID).Count())
}

func TestOnDecline_CascadesToNext(t *testing.T) {
	c, _, dbm := getTestCascade(t)
	tenant := addTenant(t, dbm, model.ModeThreePosition)
	game := addGame(t, dbm, tenant.ID, 1, 0, 0)

	s1 := addSpare(t, dbm, tenant.ID, "s1", model.PositionForward, model.TierFirst)
	s2 := addSpare(t, dbm, tenant.ID, "s2", model.PositionForward, model.TierFirst)

	res, err := c.RunRotationStep(context.Background(), game.ID, model.PositionForward)
	require.NoError(t, err)
	require.Equal(t, s1.ID, res.Invitation.PlayerID)

	res, err = c.OnDecline(context.Background(), res.Invitation.ID, model.MethodWeb, "")
	require.NoError(t, err)
	require.Equal(t, OutcomeInvited, res.Outcome)
	require.Equal(t, s2.ID, res.Invitation.PlayerID)

	// The declined row stays in the ledger untouched.
	require.Equal(t, int64(1), dbm.InvitationQuery().Game(game.ID).Response(model.ResponseDeclined).Count())
	require.Equal(t, int64(1), dbm.InvitationQuery().Game(game.ID).Response(model.ResponsePending).Count())
}

func TestOnDecline_DuplicateIsBenign(t *testing.T) {
	c, _, dbm := getTestCascade(t)
	tenant := addTenant(t, dbm, model.ModeThreePosition)
	game := addGame(t, dbm, tenant.ID, 1, 0, 0)

	addSpare(t, dbm, tenant.ID, "s1", model.PositionForward, model.TierFirst)
	addSpare(t, dbm, tenant.ID, "s2", model.PositionForward, model.TierFirst)

	res, err := c.RunRotationStep(context.Background(), game.ID, model.PositionForward)
	require.NoError(t, err)

	invID := res.Invitation.ID

	_, err = c.OnDecline(context.Background(), invID, model.MethodWeb, "")
	require.NoError(t, err)

	before := dbm.InvitationQuery().Game(game.ID).Count()

	res, err = c.OnDecline(context.Background(), invID, model.MethodWeb, "")
	require.NoError(t, err)
	require.Equal(t, OutcomeDuplicate, res.Outcome)
	require.Equal(t, before, dbm.InvitationQuery().Game(game.ID).Count())
}

func TestOnDecline_UnknownInvitation(t *testing.T) {
	c, _, _ := getTestCascade(t)

	_, err := c.OnDecline(context.Background(), 12345, model.MethodWeb, "")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestOnAccept_FillsSlot(t *testing.T) {
	c, _, dbm := getTestCascade(t)
	tenant := addTenant(t, dbm, model.ModeThreePosition)
	game := addGame(t, dbm, tenant.ID, 1, 0, 0)

	addSpare(t, dbm, tenant.ID, "s1", model.PositionForward, model.TierFirst)
	addSpare(t, dbm, tenant.ID, "s2", model.PositionForward, model.TierFirst)

	res, err := c.RunRotationStep(context.Background(), game.ID, model.PositionForward)
	require.NoError(t, err)

	res, err = c.OnAccept(context.Background(), res.Invitation.ID, model.MethodWeb, "")
	require.NoError(t, err)
	require.Equal(t, OutcomeFilled, res.Outcome)

	// Slot full, no further invitations.
	require.Equal(t, int64(0), dbm.InvitationQuery().Game(game.ID).Response(model.ResponsePending).Count())
}

func TestOnAccept_KeepsCascadingMultiSeatSlot(t *testing.T) {
	c, _, dbm := getTestCascade(t)
	tenant := addTenant(t, dbm, model.ModeThreePosition)
	game := addGame(t, dbm, tenant.ID, 2, 0, 0)

	s1 := addSpare(t, dbm, tenant.ID, "s1", model.PositionForward, model.TierFirst)
	s2 := addSpare(t, dbm, tenant.ID, "s2", model.PositionForward, model.TierFirst)

	res, err := c.RunRotationStep(context.Background(), game.ID, model.PositionForward)
	require.NoError(t, err)
	require.Equal(t, s1.ID, res.Invitation.PlayerID)

	// First acceptance leaves one seat open, so the cascade moves on.
	res, err = c.OnAccept(context.Background(), res.Invitation.ID, model.MethodWeb, "")
	require.NoError(t, err)
	require.Equal(t, OutcomeInvited, res.Outcome)
	require.Equal(t, s2.ID, res.Invitation.PlayerID)

	res, err = c.OnAccept(context.Background(), res.Invitation.ID, model.MethodWeb, "")
	require.NoError(t, err)
	require.Equal(t, OutcomeFilled, res.Outcome)
}

func TestCascade_TierTwoAfterTierOneExhausted(t *testing.T) {
	c, _, dbm := getTestCascade(t)
	tenant := addTenant(t, dbm, model.ModeThreePosition)
	game := addGame(t, dbm, tenant.ID, 1, 0, 0)

	s1 := addSpare(t, dbm, tenant.ID, "s1", model.PositionForward, model.TierFirst)
	s3 := addSpare(t, dbm, tenant.ID, "s3", model.PositionForward, model.TierSecond)

	res, err := c.RunRotationStep(context.Background(), game.ID, model.PositionForward)
	require.NoError(t, err)
	require.Equal(t, s1.ID, res.Invitation.PlayerID)

	res, err = c.OnDecline(context.Background(), res.Invitation.ID, model.MethodWeb, "")
	require.NoError(t, err)
	require.Equal(t, OutcomeInvited, res.Outcome)
	require.Equal(t, s3.ID, res.Invitation.PlayerID)
	require.Equal(t, model.TierSpare2, res.Invitation.Tier)
}

func TestCascade_Exhausted(t *testing.T) {
	c, _, dbm := getTestCascade(t)
	tenant := addTenant(t, dbm, model.ModeThreePosition)
	game := addGame(t, dbm, tenant.ID, 1, 0, 0)

	addSpare(t, dbm, tenant.ID, "s1", model.PositionForward, model.TierFirst)

	res, err := c.RunRotationStep(context.Background(), game.ID, model.PositionForward)
	require.NoError(t, err)

	res, err = c.OnDecline(context.Background(), res.Invitation.ID, model.MethodWeb, "")
	require.NoError(t, err)
	require.Equal(t, OutcomeExhausted, res.Outcome)

	// Exhaustion adds nothing to the ledger.
	require.Equal(t, int64(1), dbm.InvitationQuery().Game(game.ID).Count())

	// Re-running stays exhausted and still writes nothing.
	res, err = c.RunRotationStep(context.Background(), game.ID, model.PositionForward)
	require.NoError(t, err)
	require.Equal(t, OutcomeExhausted, res.Outcome)
	require.Equal(t, int64(1), dbm.InvitationQuery().Game(game.ID).Count())
}

func TestRunRotationStep_DeliveryFailureSkipsCandidate(t *testing.T) {
	c, gw, dbm := getTestCascade(t)
	tenant := addTenant(t, dbm, model.ModeThreePosition)
	game := addGame(t, dbm, tenant.ID, 1, 0, 0)

	s1 := addSpare(t, dbm, tenant.ID, "s1", model.PositionForward, model.TierFirst)
	s2 := addSpare(t, dbm, tenant.ID, "s2", model.PositionForward, model.TierFirst)
	gw.fail[s1.ID] = true

	res, err := c.RunRotationStep(context.Background(), game.ID, model.PositionForward)
	require.NoError(t, err)
	require.Equal(t, OutcomeInvited, res.Outcome)
	require.Equal(t, s2.ID, res.Invitation.PlayerID)

	// One retry for the dead mailbox, then one delivery to the next spare.
	require.Equal(t, []uint{s1.ID, s1.ID, s2.ID}, gw.delivered)

	// The failed attempt is recorded as expired, not left pending.
	expired := dbm.InvitationQuery().Game(game.ID).Response(model.ResponseExpired).Get()
	require.Len(t, expired, 1)
	require.Equal(t, s1.ID, expired[0].PlayerID)
}

func TestRunRotationStep_InactiveGame(t *testing.T) {
	c, gw, dbm := getTestCascade(t)
	tenant := addTenant(t, dbm, model.ModeThreePosition)
	game := addGame(t, dbm, tenant.ID, 1, 0, 0)
	addSpare(t, dbm, tenant.ID, "s1", model.PositionForward, model.TierFirst)

	require.NoError(t, dbm.GameQuery().Id(game.ID).Update(map[string]any{"status": model.GameCancelled}))

	res, err := c.RunRotationStep(context.Background(), game.ID, model.PositionForward)
	require.NoError(t, err)
	require.Equal(t, OutcomeInactive, res.Outcome)
	require.Empty(t, gw.delivered)
}

func TestRunRotationStep_UnknownGame(t *testing.T) {
	c, _, _ := getTestCascade(t)

	_, err := c.RunRotationStep(context.Background(), 12345, model.PositionForward)
	require.Error(t, err)
}

func TestCancelGame(t *testing.T) {
	c, _, dbm := getTestCascade(t)
	tenant := addTenant(t, dbm, model.ModeThreePosition)
	game := addGame(t, dbm, tenant.ID, 1, 0, 0)
	addSpare(t, dbm, tenant.ID, "s1", model.PositionForward, model.TierFirst)

	_, err := c.RunRotationStep(context.Background(), game.ID, model.PositionForward)
	require.NoError(t, err)

	require.NoError(t, c.CancelGame(game.ID))

	require.Equal(t, model.GameCancelled, dbm.GameQuery().Id(game.ID).One().Status)
	require.Equal(t, int64(0), dbm.InvitationQuery().Game(game.ID).Response(model.ResponsePending).Count())
	require.Equal(t, int64(1), dbm.InvitationQuery().Game(game.ID).Response(model.ResponseExpired).Count())
}

func TestSweepExpired(t *testing.T) {
	c, _, dbm := getTestCascade(t)
	tenant := addTenant(t, dbm, model.ModeThreePosition)
	game := addGame(t, dbm, tenant.ID, 1, 0, 0)

	s1 := addSpare(t, dbm, tenant.ID, "s1", model.PositionForward, model.TierFirst)
	s2 := addSpare(t, dbm, tenant.ID, "s2", model.PositionForward, model.TierFirst)

	res, err := c.RunRotationStep(context.Background(), game.ID, model.PositionForward)
	require.NoError(t, err)
	require.Equal(t, s1.ID, res.Invitation.PlayerID)

	// Not old enough yet.
	require.Equal(t, 0, c.SweepExpired(context.Background(), time.Now().Add(-time.Hour)))

	require.Equal(t, 1, c.SweepExpired(context.Background(), time.Now().Add(time.Hour)))

	pending := dbm.InvitationQuery().Game(game.ID).Response(model.ResponsePending).Get()
	require.Len(t, pending, 1)
	require.Equal(t, s2.ID, pending[0].PlayerID)
	require.Equal(t, int64(1), dbm.InvitationQuery().Game(game.ID).Response(model.ResponseExpired).Count())
}

func TestOnExpiry(t *testing.T) {
	c, _, dbm := getTestCascade(t)
	tenant := addTenant(t, dbm, model.ModeThreePosition)
	game := addGame(t, dbm, tenant.ID, 1, 0, 0)

	s1 := addSpare(t, dbm, tenant.ID, "s1", model.PositionForward, model.TierFirst)
	s2 := addSpare(t, dbm, tenant.ID, "s2", model.PositionForward, model.TierFirst)

	res, err := c.RunRotationStep(context.Background(), game.ID, model.PositionForward)
	require.NoError(t, err)
	require.Equal(t, s1.ID, res.Invitation.PlayerID)

	res, err = c.OnExpiry(context.Background(), game.ID, model.PositionForward)
	require.NoError(t, err)
	require.Equal(t, OutcomeInvited, res.Outcome)
	require.Equal(t, s2.ID, res.Invitation.PlayerID)
}

func TestOnExpiry_LeavesRegularsPending(t *testing.T) {
	c, _, dbm := getTestCascade(t)
	tenant := addTenant(t, dbm, model.ModeThreePosition)
	game := addGame(t, dbm, tenant.ID, 2, 0, 0)

	regular := addRegular(t, dbm, tenant.ID, "r1", model.PositionForward)
	s1 := addSpare(t, dbm, tenant.ID, "s1", model.PositionForward, model.TierFirst)
	s2 := addSpare(t, dbm, tenant.ID, "s2", model.PositionForward, model.TierFirst)

	sum, err := c.InviteRegulars(context.Background(), game.ID)
	require.NoError(t, err)
	require.Equal(t, 1, sum.Sent)

	res, err := c.RunRotationStep(context.Background(), game.ID, model.PositionForward)
	require.NoError(t, err)
	require.Equal(t, s1.ID, res.Invitation.PlayerID)

	// A slot expiry only closes the outstanding spare invitation, the
	// regular keeps their full response window.
	res, err = c.OnExpiry(context.Background(), game.ID, model.PositionForward)
	require.NoError(t, err)
	require.Equal(t, OutcomeInvited, res.Outcome)
	require.Equal(t, s2.ID, res.Invitation.PlayerID)

	require.Equal(t, model.ResponsePending, dbm.InvitationQuery().Game(game.ID).Player(regular.ID).One().Response)
	require.Equal(t, model.ResponseExpired, dbm.InvitationQuery().Game(game.ID).Player(s1.ID).One().Response)
}

// Fairness has to hold over a long run, not just for a single pick:
// after every ledger write, no tier 1 spare's lifetime count may exceed
// the minimum among its peers by more than one.
func TestCascade_FairnessOverManyDeclineCycles(t *testing.T) {
	c, _, dbm := getTestCascade(t)
	tenant := addTenant(t, dbm, model.ModeThreePosition)

	ids := make([]uint, 0, 4)

	for i := 0; i < 4; i++ {
		s := addSpare(t, dbm, tenant.ID, fmt.Sprintf("s%d", i+1), model.PositionForward, model.TierFirst)
		ids = append(ids, s.ID)
	}

	assertBalanced := func() {
		t.Helper()

		counts := dbm.InvitationQuery().Tenant(tenant.ID).CountByPlayer()

		minC, maxC := int64(-1), int64(0)

		for _, id := range ids {
			n := counts[id]

			if minC == -1 || n < minC {
				minC = n
			}

			if n > maxC {
				maxC = n
			}
		}

		require.LessOrEqual(t, maxC-minC, int64(1))
	}

	for i := 0; i < 10; i++ {
		game := addGame(t, dbm, tenant.ID, 1, 0, 0)

		res, err := c.RunRotationStep(context.Background(), game.ID, model.PositionForward)
		require.NoError(t, err)
		require.Equal(t, OutcomeInvited, res.Outcome)
		assertBalanced()

		for {
			next, err := c.OnDecline(context.Background(), res.Invitation.ID, model.MethodWeb, "")
			require.NoError(t, err)
			assertBalanced()

			if next.Outcome == OutcomeExhausted {
				break
			}

			require.Equal(t, OutcomeInvited, next.Outcome)
			res = next
		}
	}

	// Ten games, every spare asked exactly once per game.
	counts := dbm.InvitationQuery().Tenant(tenant.ID).CountByPlayer()

	for _, id := range ids {
		require.Equal(t, int64(10), counts[id])
	}
}

func TestInviteRegulars(t *testing.T) {
	c, gw, dbm := getTestCascade(t)
	tenant := addTenant(t, dbm, model.ModeThreePosition)
	game := addGame(t, dbm, tenant.ID, 2, 1, 1)

	r1 := addRegular(t, dbm, tenant.ID, "r1", model.PositionForward)
	r2 := addRegular(t, dbm, tenant.ID, "r2", model.PositionDefence)

	noMail := addRegular(t, dbm, tenant.ID, "r3", model.PositionForward)
	noMail.Email = ""
	require.NoError(t, dbm.Save(noMail))

	// Spares are not part of the bulk dispatch.
	addSpare(t, dbm, tenant.ID, "s1", model.PositionForward, model.TierFirst)

	sum, err := c.InviteRegulars(context.Background(), game.ID)
	require.NoError(t, err)
	require.Equal(t, 2, sum.Sent)
	require.Equal(t, 1, sum.Skipped)
	require.Equal(t, 0, sum.Failed)
	require.Len(t, sum.Errors, 1)
	require.ElementsMatch(t, []uint{r1.ID, r2.ID}, gw.delivered)

	invs := dbm.InvitationQuery().Game(game.ID).Get()
	require.Len(t, invs, 2)

	for _, inv := range invs {
		require.Equal(t, model.TierRegular, inv.Tier)
		require.Equal(t, model.ResponsePending, inv.Response)
	}

	// A second dispatch skips everyone already invited.
	sum, err = c.InviteRegulars(context.Background(), game.ID)
	require.NoError(t, err)
	require.Equal(t, 0, sum.Sent)
	require.Equal(t, 3, sum.Skipped)
}

func TestSlotStates(t *testing.T) {
	c, _, dbm := getTestCascade(t)
	tenant := addTenant(t, dbm, model.ModeThreePosition)
	game := addGame(t, dbm, tenant.ID, 1, 1, 1)

	addSpare(t, dbm, tenant.ID, "fwd", model.PositionForward, model.TierFirst)
	goalie := addSpare(t, dbm, tenant.ID, "goalie", model.PositionGoaltender, model.TierFirst)

	// Goaltender slot filled, forward slot awaiting, defence exhausted.
	require.NoError(t, dbm.Create(&model.Invitation{
		TenantID: tenant.ID,
		GameID:   game.ID,
		PlayerID: goalie.ID,
		Position: model.PositionGoaltender,
		Tier:     model.TierSpare1,
		Token:    uuid.NewString(),
		Response: model.ResponseAccepted,
	}))

	res, err := c.RunRotationStep(context.Background(), game.ID, model.PositionForward)
	require.NoError(t, err)
	require.Equal(t, OutcomeInvited, res.Outcome)

	slots, err := c.SlotStates(game.ID)
	require.NoError(t, err)
	require.Len(t, slots, 3)

	byPos := make(map[string]*model.WebSlot)
	for _, s := range slots {
		byPos[s.Position] = s
	}

	require.Equal(t, SlotFilled, byPos[model.PositionGoaltender].State)
	require.Equal(t, 1, byPos[model.PositionGoaltender].Filled)
	require.Equal(t, SlotAwaiting, byPos[model.PositionForward].State)
	require.Equal(t, SlotExhausted, byPos[model.PositionDefence].State)
}

// The full goaltender story: the regular goalie declines, the tier 1
// spare with the shorter history is asked first, declines, tier 1 is
// exhausted, the tier 2 spare accepts and the slot closes.
func TestCascade_GoaltenderScenario(t *testing.T) {
	c, _, dbm := getTestCascade(t)
	tenant := addTenant(t, dbm, model.ModeThreePosition)
	game := addGame(t, dbm, tenant.ID, 0, 0, 1)

	regular := addRegular(t, dbm, tenant.ID, "r", model.PositionGoaltender)
	s1 := addSpare(t, dbm, tenant.ID, "s1", model.PositionGoaltender, model.TierFirst)
	s2 := addSpare(t, dbm, tenant.ID, "s2", model.PositionGoaltender, model.TierFirst)
	s3 := addSpare(t, dbm, tenant.ID, "s3", model.PositionGoaltender, model.TierSecond)

	addHistory(t, dbm, tenant.ID, s1.ID, 3)
	addHistory(t, dbm, tenant.ID, s2.ID, 1)

	sum, err := c.InviteRegulars(context.Background(), game.ID)
	require.NoError(t, err)
	require.Equal(t, 1, sum.Sent)

	regularInv := dbm.InvitationQuery().Game(game.ID).Player(regular.ID).One()
	require.NotNil(t, regularInv)

	res, err := c.OnDecline(context.Background(), regularInv.ID, model.MethodWeb, "")
	require.NoError(t, err)
	require.Equal(t, OutcomeInvited, res.Outcome)
	require.Equal(t, s2.ID, res.Invitation.PlayerID)

	res, err = c.OnDecline(context.Background(), res.Invitation.ID, model.MethodWeb, "")
	require.NoError(t, err)
	require.Equal(t, OutcomeInvited, res.Outcome)
	require.Equal(t, s1.ID, res.Invitation.PlayerID)

	res, err = c.OnDecline(context.Background(), res.Invitation.ID, model.MethodWeb, "")
	require.NoError(t, err)
	require.Equal(t, OutcomeInvited, res.Outcome)
	require.Equal(t, s3.ID, res.Invitation.PlayerID)
	require.Equal(t, model.TierSpare2, res.Invitation.Tier)

	res, err = c.OnAccept(context.Background(), res.Invitation.ID, model.MethodWeb, "")
	require.NoError(t, err)
	require.Equal(t, OutcomeFilled, res.Outcome)

	// Four ledger rows, none deleted, exactly one accepted.
	require.Equal(t, int64(4), dbm.InvitationQuery().Game(game.ID).Count())
	require.Equal(t, int64(1), dbm.InvitationQuery().Game(game.ID).Response(model.ResponseAccepted).Count())
}

func TestRunRotationStep_Concurrent(t *testing.T) {
	c, _, dbm := getTestCascade(t)
	tenant := addTenant(t, dbm, model.ModeThreePosition)
	game := addGame(t, dbm, tenant.ID, 1, 0, 0)

	addSpare(t, dbm, tenant.ID, "s1", model.PositionForward, model.TierFirst)
	addSpare(t, dbm, tenant.ID, "s2", model.PositionForward, model.TierFirst)
	addSpare(t, dbm, tenant.ID, "s3", model.PositionForward, model.TierFirst)

	const n = 8

	outcomes := make(chan string, n)

	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			res, err := c.RunRotationStep(context.Background(), game.ID, model.PositionForward)

			if err != nil {
				outcomes <- "error: " + err.Error()

				return
			}

			outcomes <- res.Outcome
		}()
	}

	wg.Wait()
	close(outcomes)

	invited := 0

	for o := range outcomes {
		switch o {
		case OutcomeInvited:
			invited++
		case OutcomeAwaiting, OutcomeLostRace:
		default:
			t.Fatalf("unexpected outcome %q", o)
		}
	}

	require.Equal(t, 1, invited)
	require.Equal(t, int64(1), dbm.InvitationQuery().Game(game.ID).Response(model.ResponsePending).Count())
}

func TestFairnessSnapshot(t *testing.T) {
	c, _, dbm := getTestCascade(t)
	tenant := addTenant(t, dbm, model.ModeThreePosition)

	s1 := addSpare(t, dbm, tenant.ID, "s1", model.PositionForward, model.TierFirst)
	s2 := addSpare(t, dbm, tenant.ID, "s2", model.PositionForward, model.TierFirst)
	addSpare(t, dbm, tenant.ID, "s3", model.PositionForward, model.TierSecond)
	addHistory(t, dbm, tenant.ID, s1.ID, 2)

	all := c.FairnessSnapshot(tenant.ID, 0)
	require.Len(t, all, 3)

	tierOne := c.FairnessSnapshot(tenant.ID, model.TierFirst)
	require.Len(t, tierOne, 2)

	byID := make(map[uint]int64)
	for _, e := range tierOne {
		byID[e.PlayerID] = e.Invited
	}

	require.Equal(t, int64(2), byID[s1.ID])

	// Never invited spares show up with a zero count.
	require.Contains(t, byID, s2.ID)
	require.Equal(t, int64(0), byID[s2.ID])
}
