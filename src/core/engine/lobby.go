package engine

import (
	"time"
)

// lobbyAlertMarks are the remaining times at which the group is reminded to
// join. Marks longer than the join window are skipped.
var lobbyAlertMarks = []time.Duration{120 * time.Second, 60 * time.Second, 30 * time.Second, 10 * time.Second}

func (e *Engine) openLobby(fx *outbox, m *Match) {
	e.armLobby(m, e.settings.JoinWindow)
	fx.group(lobbyOpenedNotice(m.Game, e.settings.JoinWindow, e.settings.MinPlayers))
}

// armLobby replaces the lobby deadline and its reminders with a fresh set
// ending total from now.
func (e *Engine) armLobby(m *Match, total time.Duration) {
	m.lobby.cancel()

	groupID := m.Game.Group.ID
	deadline := e.clock.Now().Add(total)
	m.lobby.deadline = deadline
	m.lobby.expiry = e.schedule(total, func(fx *outbox) {
		e.lobbyExpired(fx, groupID, deadline)
	})
	for _, mark := range lobbyAlertMarks {
		if mark > total {
			continue
		}
		m.lobby.alerts = append(m.lobby.alerts, e.schedule(total-mark, func(fx *outbox) {
			e.lobbyReminder(fx, groupID, deadline, mark)
		}))
	}
}

// openLobbyAt returns the match if its lobby is still open and deadline is
// still its authoritative deadline.
func (e *Engine) openLobbyAt(groupID int64, deadline time.Time) (*Match, bool) {
	m, ok := e.registry.Get(groupID)
	if !ok || !m.Game.JoinPhaseActive || !m.lobby.deadline.Equal(deadline) {
		return nil, false
	}
	return m, true
}

func (e *Engine) lobbyReminder(fx *outbox, groupID int64, deadline time.Time, left time.Duration) {
	m, ok := e.openLobbyAt(groupID, deadline)
	if !ok {
		return
	}
	fx.group(lobbyReminderNotice(m.Game, left))
}

func (e *Engine) lobbyExpired(fx *outbox, groupID int64, deadline time.Time) {
	m, ok := e.openLobbyAt(groupID, deadline)
	if !ok {
		return
	}
	e.log.Info("join phase expired", "group_id", groupID, "players", m.Game.Len())
	e.closeLobby(fx, m)
}

// closeLobby ends the join phase. Too few players cancel the game; too many
// are trimmed to the first joiners; otherwise round one starts.
func (e *Engine) closeLobby(fx *outbox, m *Match) {
	g := m.Game
	m.lobby.cancel()
	g.JoinPhaseActive = false

	if g.Len() < e.settings.MinPlayers {
		fx.group(lobbyCancelledNotice(g, e.settings.MinPlayers))
		e.log.Info("lobby cancelled", "group_id", g.Group.ID, "players", g.Len(), "min_players", e.settings.MinPlayers)
		e.discard(m)
		return
	}

	if g.Len() > e.settings.MaxPlayers {
		for _, p := range g.Truncate(e.settings.MaxPlayers) {
			e.registry.UnbindUser(p.ID)
			fx.user(p.ID, rosterTrimmedNotice(g, e.settings.MaxPlayers), nil)
		}
		e.log.Info("roster trimmed", "group_id", g.Group.ID, "players", g.Len())
	}

	fx.group(matchSettledNotice(g))
	e.startRound(fx, m)
}

// discard drops a game that never produced a result.
func (e *Engine) discard(m *Match) {
	m.cancelTimers()
	m.Game.Ended = true
	e.registry.Remove(m.Game.Group.ID)
}

// lobbyDeadline is the pending join deadline, zero outside the join phase.
func lobbyDeadline(m *Match) time.Time {
	if !m.Game.JoinPhaseActive {
		return time.Time{}
	}
	return m.lobby.deadline
}
