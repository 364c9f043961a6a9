package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindscale/src/core/domain"
)

func TestStartLobby(t *testing.T) {
	h := newHarness(t, DefaultSettings())
	ctx := context.Background()

	view, err := h.engine.StartLobby(ctx, domain.Group{ID: testGroup, Title: "Friends"}, user(1))
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseLobby, view.Phase)
	assert.Equal(t, h.clock.Now().Add(domain.DefaultJoinWindow), view.JoinDeadline)
	assert.Len(t, h.messages.group(domain.NoticeLobbyOpened), 1)

	_, err = h.engine.StartLobby(ctx, domain.Group{ID: testGroup}, user(2))
	assert.ErrorIs(t, err, domain.ErrAlreadyActive)
}

func TestJoinAndLeaveRejections(t *testing.T) {
	h := newHarness(t, DefaultSettings())
	ctx := context.Background()
	e := h.engine

	_, err := e.JoinLobby(ctx, testGroup, user(1))
	assert.ErrorIs(t, err, domain.ErrNoGame)
	assert.True(t, domain.IsNotFound(err))

	_, err = e.StartLobby(ctx, domain.Group{ID: testGroup}, user(1))
	require.NoError(t, err)
	_, err = e.StartLobby(ctx, domain.Group{ID: -2002}, user(1))
	require.NoError(t, err)

	_, err = e.JoinLobby(ctx, testGroup, user(1))
	require.NoError(t, err)

	_, err = e.JoinLobby(ctx, testGroup, user(1))
	assert.ErrorIs(t, err, domain.ErrAlreadyJoined)

	_, err = e.JoinLobby(ctx, -2002, user(1))
	assert.ErrorIs(t, err, domain.ErrAlreadyInOtherGame)

	err = e.LeaveLobby(ctx, testGroup, 5)
	assert.ErrorIs(t, err, domain.ErrNotMember)

	err = e.LeaveLobby(ctx, -3003, 1)
	assert.ErrorIs(t, err, domain.ErrNoGame)

	require.NoError(t, e.LeaveLobby(ctx, testGroup, 1))
	assert.Len(t, h.messages.group(domain.NoticePlayerLeft), 1)

	// Leaving frees the user for another group.
	_, err = e.JoinLobby(ctx, -2002, user(1))
	assert.NoError(t, err)
}

func TestLobbyExpiresWithTooFewPlayers(t *testing.T) {
	h := newHarness(t, DefaultSettings())
	ctx := context.Background()
	e := h.engine

	_, err := e.StartLobby(ctx, domain.Group{ID: testGroup}, user(1))
	require.NoError(t, err)
	_, err = e.JoinLobby(ctx, testGroup, user(1))
	require.NoError(t, err)

	h.clock.Advance(domain.DefaultJoinWindow)

	assert.Len(t, h.messages.group(domain.NoticeLobbyCancelled), 1)
	assert.Empty(t, e.ActiveGames())
	assert.Empty(t, h.results.all(), "a cancelled lobby records nothing")
	assert.Zero(t, h.clock.Active())

	// The player is free again.
	_, err = e.StartLobby(ctx, domain.Group{ID: -2002}, user(2))
	require.NoError(t, err)
	_, err = e.JoinLobby(ctx, -2002, user(1))
	assert.NoError(t, err)
}

func TestLobbyRemindersFollowWindow(t *testing.T) {
	cases := []struct {
		name   string
		window time.Duration
		want   []int
	}{
		{name: "default window", window: 120 * time.Second, want: []int{120, 60, 30, 10}},
		{name: "short window", window: 45 * time.Second, want: []int{30, 10}},
		{name: "tiny window", window: 5 * time.Second, want: nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			settings := DefaultSettings()
			settings.JoinWindow = tc.window
			h := newHarness(t, settings)

			_, err := h.engine.StartLobby(context.Background(), domain.Group{ID: testGroup}, user(1))
			require.NoError(t, err)

			h.clock.Advance(tc.window - time.Millisecond)

			var got []int
			for _, n := range h.messages.group(domain.NoticeLobbyReminder) {
				got = append(got, n.Data.(domain.CountdownData).SecondsLeft)
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExtendLobbyReschedules(t *testing.T) {
	h := newHarness(t, DefaultSettings())
	ctx := context.Background()
	e := h.engine

	_, err := e.StartLobby(ctx, domain.Group{ID: testGroup}, user(1))
	require.NoError(t, err)

	h.clock.Advance(50*time.Second + 500*time.Millisecond)
	require.Len(t, h.messages.group(domain.NoticeLobbyReminder), 1)

	_, err = e.ExtendLobby(ctx, testGroup, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidExtension)
	_, err = e.ExtendLobby(ctx, testGroup, domain.DefaultExtendCap+time.Second)
	assert.True(t, domain.IsValidationError(err))

	ext, err := e.ExtendLobby(ctx, testGroup, domain.DefaultExtension)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, ext.Added)
	assert.Equal(t, 99*time.Second, ext.Remaining, "69 whole seconds left plus 30")
	assert.Len(t, h.messages.group(domain.NoticeLobbyExtended), 1)

	view, err := e.Snapshot(testGroup)
	require.NoError(t, err)
	assert.Equal(t, h.clock.Now().Add(99*time.Second), view.JoinDeadline)

	// Old reminders were cancelled; only the new 60, 30 and 10 marks fire.
	h.clock.Advance(98 * time.Second)
	var got []int
	for _, n := range h.messages.group(domain.NoticeLobbyReminder) {
		got = append(got, n.Data.(domain.CountdownData).SecondsLeft)
	}
	assert.Equal(t, []int{120, 60, 30, 10}, got)

	view, err = e.Snapshot(testGroup)
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseLobby, view.Phase)

	h.clock.Advance(time.Second)
	_, err = e.Snapshot(testGroup)
	assert.ErrorIs(t, err, domain.ErrNoGame)
	assert.Len(t, h.messages.group(domain.NoticeLobbyCancelled), 1)
}

func TestExtendRequiresOpenLobby(t *testing.T) {
	settings := DefaultSettings()
	settings.MaxPlayers = 2
	h := newHarness(t, settings)
	ctx := context.Background()
	e := h.engine

	_, err := e.ExtendLobby(ctx, testGroup, time.Minute)
	assert.ErrorIs(t, err, domain.ErrNoGame)

	_, err = e.StartLobby(ctx, domain.Group{ID: testGroup}, user(1))
	require.NoError(t, err)
	_, err = e.JoinLobby(ctx, testGroup, user(1))
	require.NoError(t, err)
	_, err = e.JoinLobby(ctx, testGroup, user(2))
	require.NoError(t, err)

	_, err = e.ExtendLobby(ctx, testGroup, time.Minute)
	assert.ErrorIs(t, err, domain.ErrPhaseClosed)
}

func TestFullLobbyStartsImmediately(t *testing.T) {
	settings := DefaultSettings()
	settings.MaxPlayers = 3
	h := newHarness(t, settings)
	ctx := context.Background()
	e := h.engine

	_, err := e.StartLobby(ctx, domain.Group{ID: testGroup}, user(1))
	require.NoError(t, err)
	for id := int64(1); id <= 2; id++ {
		view, err := e.JoinLobby(ctx, testGroup, user(id))
		require.NoError(t, err)
		assert.Equal(t, domain.PhaseLobby, view.Phase)
	}

	view, err := e.JoinLobby(ctx, testGroup, user(3))
	require.NoError(t, err)
	assert.Equal(t, domain.PhasePlaying, view.Phase)
	assert.Equal(t, 1, view.Round)
	assert.True(t, view.RoundActive)
	assert.True(t, view.JoinDeadline.IsZero())

	assert.Len(t, h.messages.group(domain.NoticeLobbyFull), 1)
	assert.Len(t, h.messages.group(domain.NoticeMatchSettled), 1)
	assert.Len(t, h.messages.group(domain.NoticeRoundStarted), 1)
	for id := int64(1); id <= 3; id++ {
		assert.Len(t, h.messages.user(id, domain.NoticePickPrompt), 1)
	}

	_, err = e.JoinLobby(ctx, testGroup, user(4))
	assert.ErrorIs(t, err, domain.ErrPhaseClosed)

	err = e.LeaveLobby(ctx, testGroup, 1)
	assert.ErrorIs(t, err, domain.ErrPhaseClosed)

	// The lobby deadline no longer acts.
	h.clock.Advance(domain.DefaultJoinWindow)
	assert.Empty(t, h.messages.group(domain.NoticeLobbyCancelled))
}

func TestForceStart(t *testing.T) {
	h := newHarness(t, DefaultSettings())
	ctx := context.Background()
	e := h.engine

	err := e.ForceStartLobby(ctx, testGroup, adminID)
	assert.ErrorIs(t, err, domain.ErrNoGame)

	_, err = e.StartLobby(ctx, domain.Group{ID: testGroup}, user(1))
	require.NoError(t, err)
	_, err = e.JoinLobby(ctx, testGroup, user(1))
	require.NoError(t, err)

	err = e.ForceStartLobby(ctx, testGroup, 1)
	assert.ErrorIs(t, err, domain.ErrNotAdmin)
	assert.True(t, domain.IsForbidden(err))

	err = e.ForceStartLobby(ctx, testGroup, adminID)
	assert.ErrorIs(t, err, domain.ErrNotEnoughPlayers)

	_, err = e.JoinLobby(ctx, testGroup, user(2))
	require.NoError(t, err)
	require.NoError(t, e.ForceStartLobby(ctx, testGroup, adminID))

	view, err := e.Snapshot(testGroup)
	require.NoError(t, err)
	assert.Equal(t, domain.PhasePlaying, view.Phase)
	assert.Equal(t, 1, view.Round)
	assert.Len(t, h.messages.group(domain.NoticeForceStarted), 1)

	err = e.ForceStartLobby(ctx, testGroup, adminID)
	assert.ErrorIs(t, err, domain.ErrPhaseClosed)
}

func TestForceStartWithoutResolverIsForbidden(t *testing.T) {
	e := New(DefaultSettings(), Deps{Clock: newManualClock()}, nil)
	ctx := context.Background()

	_, err := e.StartLobby(ctx, domain.Group{ID: testGroup}, user(1))
	require.NoError(t, err)

	assert.ErrorIs(t, e.ForceStartLobby(ctx, testGroup, adminID), domain.ErrNotAdmin)
	assert.ErrorIs(t, e.ForceEndGame(ctx, testGroup, adminID), domain.ErrNotAdmin)
}
