package engine

import (
	"time"

	"mindscale/src/core/domain"
	"mindscale/src/core/scoring"
)

// pickAlertMarks are the remaining times at which a silent player is nudged.
// Marks not shorter than the pick window are skipped.
var pickAlertMarks = []time.Duration{60 * time.Second, 30 * time.Second, 10 * time.Second}

func (e *Engine) startRound(fx *outbox, m *Match) {
	g := m.Game
	m.cancelRound()
	g.ResetPicks()
	g.RoundNumber++
	g.RoundResolved = false
	g.RoundActive = true

	alive := g.Alive()
	if len(alive) == 0 {
		fx.group(noPlayersNotice(g))
		e.finish(fx, m, false)
		return
	}

	fx.group(roundStartedNotice(g))
	e.log.Info("round started", "group_id", g.Group.ID, "round", g.RoundNumber, "alive", len(alive))

	window := e.settings.PickWindow
	groupID, round := g.Group.ID, g.RoundNumber
	for _, p := range alive {
		unreachable := pickUnreachableNotice(g, p)
		fx.user(p.ID, pickPromptNotice(g, window), &unreachable)

		userID := p.ID
		pt := &playerTimers{}
		pt.timeout = e.schedule(window, func(fx *outbox) {
			e.pickTimeout(fx, groupID, userID, round)
		})
		for _, mark := range pickAlertMarks {
			if window <= mark {
				continue
			}
			pt.alerts = append(pt.alerts, e.schedule(window-mark, func(fx *outbox) {
				e.pickReminder(fx, groupID, userID, round, mark)
			}))
		}
		m.round[userID] = pt
	}
}

// pendingPlayer returns the match and player if round is the active round of
// the group and the player still owes an answer.
func (e *Engine) pendingPlayer(groupID, userID int64, round int) (*Match, *domain.Player, bool) {
	m, ok := e.registry.Get(groupID)
	if !ok {
		return nil, nil, false
	}
	g := m.Game
	if g.Ended || !g.RoundActive || g.RoundNumber != round {
		return nil, nil, false
	}
	p, ok := g.Player(userID)
	if !ok || p.Eliminated || p.Pick.Answered() {
		return nil, nil, false
	}
	return m, p, true
}

func (e *Engine) pickReminder(fx *outbox, groupID, userID int64, round int, left time.Duration) {
	m, p, ok := e.pendingPlayer(groupID, userID, round)
	if !ok {
		return
	}
	fx.group(pickReminderNotice(m.Game, p, left))
}

// pickTimeout applies the missed-round rule: the first miss costs points and
// skips the round, the second eliminates.
func (e *Engine) pickTimeout(fx *outbox, groupID, userID int64, round int) {
	m, p, ok := e.pendingPlayer(groupID, userID, round)
	if !ok {
		return
	}
	m.cancelPlayer(userID)

	if p.TimeoutCount == 0 {
		p.Penalize(domain.TimeoutPenalty, 1)
		p.TimeoutCount = 1
		p.Pick = domain.SkippedPick()
		fx.group(timeoutPenaltyNotice(m.Game, p))
		e.log.Info("pick timed out", "group_id", groupID, "user_id", userID, "round", round)
	} else {
		p.Eliminated = true
		fx.group(timeoutEliminatedNotice(m.Game, p))
		e.log.Info("player eliminated by timeout", "group_id", groupID, "user_id", userID, "round", round)
	}

	e.maybeResolve(fx, m)
}

// maybeResolve resolves the round once every alive player has answered. The
// resolved flag makes it run once per round whatever triggers it.
func (e *Engine) maybeResolve(fx *outbox, m *Match) {
	g := m.Game
	if g.Ended || g.RoundResolved || !g.RoundActive || !g.AllAnswered() {
		return
	}
	g.RoundActive = false
	g.RoundResolved = true
	m.cancelRound()
	e.resolveRound(fx, m)
}

func (e *Engine) resolveRound(fx *outbox, m *Match) {
	g := m.Game
	alive := g.Alive()

	in := scoring.Input{
		Alive:      make([]scoring.Entry, len(alive)),
		Eliminated: g.EliminatedCount(),
		Sticky:     g.DuplicateRuleSticky,
	}
	for i, p := range alive {
		in.Alive[i] = scoring.Entry{UserID: p.ID, Score: p.Score, Pick: p.Pick.Value, HasPick: p.Pick.IsNumber()}
	}
	out := scoring.Evaluate(in)

	if out.NoPicks {
		fx.group(noPicksNotice(g))
		e.log.Info("round without picks", "group_id", g.Group.ID, "round", g.RoundNumber)
		e.finish(fx, m, false)
		return
	}

	fx.group(picksRevealedNotice(g, alive))

	if out.Duplicate.ClearSticky {
		g.DuplicateRuleSticky = false
	}
	if out.Duplicate.ArmSticky {
		g.NextRoundSticky = true
		fx.group(duplicateTriggerNotice(g))
	}

	var eliminated []*domain.Player
	for i, p := range alive {
		d := out.Deltas[i]
		p.RoundsPlayed++
		p.Penalize(-d.Score, d.Penalties)
		if d.DuplicatePenalized {
			fx.group(duplicatePenaltyNotice(g, p, p.Pick.Value))
		}
		if d.Eliminated {
			p.Eliminated = true
			eliminated = append(eliminated, p)
		}
	}

	fx.group(roundResultNotice(g, out))
	for _, p := range eliminated {
		fx.group(eliminatedNotice(g, p))
	}
	e.log.Info("round resolved",
		"group_id", g.Group.ID,
		"round", g.RoundNumber,
		"target", out.Target,
		"rule", out.Path,
		"winners", len(out.Winners),
		"eliminated", len(eliminated),
		"alive", out.AliveAfter,
	)

	if out.GameOver {
		e.finish(fx, m, false)
		return
	}

	if g.NextRoundSticky {
		g.DuplicateRuleSticky = true
	}
	g.NextRoundSticky = false
	e.startRound(fx, m)
}
