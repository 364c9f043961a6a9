package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindscale/src/core/domain"
)

// startGame opens a lobby in testGroup, joins the given players and starts
// round one.
func startGame(t *testing.T, h *harness, ids ...int64) {
	t.Helper()
	ctx := context.Background()
	_, err := h.engine.StartLobby(ctx, domain.Group{ID: testGroup, Title: "Friends"}, user(ids[0]))
	require.NoError(t, err)
	for _, id := range ids {
		_, err := h.engine.JoinLobby(ctx, testGroup, user(id))
		require.NoError(t, err)
	}
	require.NoError(t, h.engine.ForceStartLobby(ctx, testGroup, adminID))
}

func pick(t *testing.T, h *harness, userID int64, value int) {
	t.Helper()
	_, err := h.engine.SubmitPick(context.Background(), userID, value)
	require.NoError(t, err)
}

func scores(t *testing.T, h *harness) map[int64]int {
	t.Helper()
	players, err := h.engine.ListPlayers(testGroup)
	require.NoError(t, err)
	out := make(map[int64]int, len(players))
	for _, p := range players {
		out[p.UserID] = p.Score
	}
	return out
}

func roundResults(h *harness, round int) int {
	n := 0
	for _, r := range h.messages.group(domain.NoticeRoundResult) {
		if r.Round == round {
			n++
		}
	}
	return n
}

func TestSubmitPickRejections(t *testing.T) {
	h := newHarness(t, DefaultSettings())
	ctx := context.Background()
	e := h.engine

	_, err := e.SubmitPick(ctx, 1, 101)
	assert.ErrorIs(t, err, domain.ErrInvalidPick)
	_, err = e.SubmitPick(ctx, 1, -1)
	assert.True(t, domain.IsValidationError(err))

	_, err = e.SubmitPick(ctx, 1, 50)
	assert.ErrorIs(t, err, domain.ErrNotInRound, "unbound user")

	_, err = e.StartLobby(ctx, domain.Group{ID: testGroup}, user(1))
	require.NoError(t, err)
	_, err = e.JoinLobby(ctx, testGroup, user(1))
	require.NoError(t, err)
	_, err = e.SubmitPick(ctx, 1, 50)
	assert.ErrorIs(t, err, domain.ErrNotInRound, "no round during the lobby")

	_, err = e.JoinLobby(ctx, testGroup, user(2))
	require.NoError(t, err)
	require.NoError(t, e.ForceStartLobby(ctx, testGroup, adminID))

	receipt, err := e.SubmitPick(ctx, 1, 50)
	require.NoError(t, err)
	assert.Equal(t, PickReceipt{GroupID: testGroup, Round: 1, Value: 50}, receipt)
	assert.Len(t, h.messages.user(1, domain.NoticePickReceived), 1)

	_, err = e.SubmitPick(ctx, 1, 40)
	assert.ErrorIs(t, err, domain.ErrNotInRound, "second pick")
}

func TestRoundResolvesWhenEveryoneAnswered(t *testing.T) {
	h := newHarness(t, DefaultSettings())
	startGame(t, h, 1, 2, 3)

	pick(t, h, 1, 10)
	pick(t, h, 2, 20)
	assert.Zero(t, roundResults(h, 1))
	pick(t, h, 3, 30)

	require.Equal(t, 1, roundResults(h, 1))
	result := h.messages.group(domain.NoticeRoundResult)[0].Data.(domain.RoundResultData)
	assert.InDelta(t, 16.0, result.Target, 1e-9)
	assert.Equal(t, []int64{2}, result.Winners)
	assert.Len(t, h.messages.group(domain.NoticePicksRevealed), 1)

	assert.Equal(t, map[int64]int{1: -1, 2: 0, 3: -1}, scores(t, h))

	view, err := h.engine.Snapshot(testGroup)
	require.NoError(t, err)
	assert.Equal(t, 2, view.Round)
	assert.True(t, view.RoundActive)
	for _, p := range view.Players {
		assert.False(t, p.Answered)
		assert.Equal(t, 1, p.RoundsPlayed)
	}
}

func TestPickRemindersAndTimeouts(t *testing.T) {
	h := newHarness(t, DefaultSettings())
	startGame(t, h, 1, 2, 3)

	pick(t, h, 1, 10)
	pick(t, h, 2, 20)

	h.clock.Advance(domain.DefaultPickWindow - time.Millisecond)
	var left []int
	for _, n := range h.messages.group(domain.NoticePickReminder) {
		left = append(left, n.Data.(domain.CountdownData).SecondsLeft)
	}
	assert.Equal(t, []int{60, 30, 10}, left, "only the silent player is reminded")

	h.clock.Advance(time.Millisecond)
	assert.Len(t, h.messages.group(domain.NoticeTimeoutPenalty), 1)
	require.Equal(t, 1, roundResults(h, 1))

	// Target 12 from {10, 20}; the skipped player pays only the timeout.
	assert.Equal(t, map[int64]int{1: 0, 2: -1, 3: -2}, scores(t, h))

	players, err := h.engine.ListPlayers(testGroup)
	require.NoError(t, err)
	assert.Equal(t, 1, players[2].TimeoutCount)
	assert.Equal(t, 1, players[2].Penalties)

	// A second miss eliminates.
	pick(t, h, 1, 10)
	pick(t, h, 2, 20)
	h.clock.Advance(domain.DefaultPickWindow)

	assert.Len(t, h.messages.group(domain.NoticeTimeoutEliminate), 1)
	require.Equal(t, 1, roundResults(h, 2))

	players, err = h.engine.ListPlayers(testGroup)
	require.NoError(t, err)
	assert.True(t, players[2].Eliminated)
	assert.Equal(t, -2, players[2].Score)
	assert.Equal(t, 1, players[2].RoundsPlayed)

	_, err = h.engine.SubmitPick(context.Background(), 3, 10)
	assert.ErrorIs(t, err, domain.ErrNotInRound, "eliminated players cannot pick")
}

func TestRoundResolvesOnceWhenPickAndTimeoutRace(t *testing.T) {
	t.Run("timeout first", func(t *testing.T) {
		h := newHarness(t, DefaultSettings())
		startGame(t, h, 1, 2)

		pick(t, h, 1, 40)
		h.clock.Advance(domain.DefaultPickWindow)

		// The late pick lands in round two, never in round one.
		receipt, err := h.engine.SubmitPick(context.Background(), 2, 40)
		require.NoError(t, err)
		assert.Equal(t, 2, receipt.Round)
		assert.Equal(t, 1, roundResults(h, 1))
	})

	t.Run("pick first", func(t *testing.T) {
		h := newHarness(t, DefaultSettings())
		startGame(t, h, 1, 2)

		pick(t, h, 1, 40)
		pick(t, h, 2, 40)

		// Round one timers are gone; only round two has timers pending.
		assert.Equal(t, 2*(1+len(pickAlertMarks)), h.clock.Active())
		assert.Equal(t, 1, roundResults(h, 1))
		assert.Empty(t, h.messages.group(domain.NoticeTimeoutPenalty))
	})
}

func TestUnreachablePlayerFallsBackToGroup(t *testing.T) {
	h := newHarness(t, DefaultSettings())
	h.messages.failUsers[2] = true
	startGame(t, h, 1, 2)

	unreachable := h.messages.group(domain.NoticePickUnreachable)
	require.Len(t, unreachable, 1)
	assert.Equal(t, int64(2), unreachable[0].Data.(domain.RosterData).Players[0].UserID)
}

func TestStickyDuplicateRule(t *testing.T) {
	h := newHarness(t, DefaultSettings())
	startGame(t, h, 1, 2, 3, 4, 5)

	for id := int64(1); id <= 4; id++ {
		pick(t, h, id, 50)
	}
	pick(t, h, 5, 10)

	assert.Len(t, h.messages.group(domain.NoticeDuplicateTrigger), 1)
	assert.Empty(t, h.messages.group(domain.NoticeDuplicatePenalty), "arming round is not penalized")

	view, err := h.engine.Snapshot(testGroup)
	require.NoError(t, err)
	assert.True(t, view.DuplicateRuleSticky)

	// Round two: duplicates now cost a point.
	pick(t, h, 1, 20)
	pick(t, h, 2, 20)
	pick(t, h, 3, 30)
	pick(t, h, 4, 40)
	pick(t, h, 5, 60)
	assert.Len(t, h.messages.group(domain.NoticeDuplicatePenalty), 2)
}

func TestNoPicksEndsGame(t *testing.T) {
	h := newHarness(t, DefaultSettings())
	startGame(t, h, 1, 2)

	h.clock.Advance(domain.DefaultPickWindow)

	assert.Len(t, h.messages.group(domain.NoticeNoPicks), 1)
	assert.Empty(t, h.engine.ActiveGames())
	require.Len(t, h.results.all(), 1)
	assert.Equal(t, 1, h.results.all()[0].Rounds)
	assert.Zero(t, h.clock.Active())
}
