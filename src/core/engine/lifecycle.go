package engine

import (
	"mindscale/src/core/domain"
)

// finish ends a game: every timer is stopped, every player released and the
// match leaves the registry. A natural end announces the scorecard and the
// champion. An aborted game records statistics without a winner, and only if
// at least one round was played.
func (e *Engine) finish(fx *outbox, m *Match, aborted bool) {
	g := m.Game
	if g.Ended {
		return
	}
	m.cancelTimers()
	g.Ended = true
	g.RoundActive = false
	g.JoinPhaseActive = false

	var champion *domain.Player
	if !aborted {
		champion = g.Champion()
		fx.group(scorecardNotice(g, champion, false))
		if champion != nil {
			fx.group(championNotice(g, champion))
		}
	}
	fx.group(gameEndedNotice(g, aborted))

	if g.RoundNumber > 0 {
		fx.persist(domain.NewGameResult(g, champion, e.clock.Now(), aborted))
	}
	e.registry.Remove(g.Group.ID)

	args := []any{"group_id", g.Group.ID, "game_id", g.ID, "rounds", g.RoundNumber, "aborted", aborted}
	if champion != nil {
		args = append(args, "champion_id", champion.ID)
	}
	e.log.Info("game ended", args...)
}
