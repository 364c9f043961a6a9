package engine

import (
	"fmt"
	"strings"
	"time"

	"mindscale/src/core/domain"
	"mindscale/src/core/scoring"
)

func notice(g *domain.Game, kind domain.NoticeKind, text string, data any) domain.Notice {
	return domain.Notice{Kind: kind, GroupID: g.Group.ID, Round: g.RoundNumber, Text: text, Data: data}
}

func roster(players []*domain.Player) domain.RosterData {
	out := domain.RosterData{Players: make([]domain.NoticePlayer, 0, len(players))}
	for _, p := range players {
		out.Players = append(out.Players, domain.NoticePlayerOf(p))
	}
	return out
}

func playerData(p *domain.Player) domain.RosterData {
	return roster([]*domain.Player{p})
}

func seconds(d time.Duration) int {
	return int(d / time.Second)
}

// formatDuration renders 90s as "1m 30s".
func formatDuration(d time.Duration) string {
	total := seconds(d)
	m, s := total/60, total%60
	switch {
	case m > 0 && s > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

func lobbyOpenedNotice(g *domain.Game, window time.Duration, minPlayers int) domain.Notice {
	text := fmt.Sprintf("Mind Scale is starting. Join within %s. Minimum players: %d.", formatDuration(window), minPlayers)
	return notice(g, domain.NoticeLobbyOpened, text, domain.CountdownData{SecondsLeft: seconds(window)})
}

func playerJoinedNotice(g *domain.Game, p *domain.Player) domain.Notice {
	return notice(g, domain.NoticePlayerJoined, p.Name+" joined the match.", playerData(p))
}

func playerLeftNotice(g *domain.Game, p *domain.Player) domain.Notice {
	return notice(g, domain.NoticePlayerLeft, p.Name+" has left the match.", playerData(p))
}

func lobbyReminderNotice(g *domain.Game, left time.Duration) domain.Notice {
	text := fmt.Sprintf("Only %d seconds left to join the game!", seconds(left))
	return notice(g, domain.NoticeLobbyReminder, text, domain.CountdownData{SecondsLeft: seconds(left)})
}

func lobbyExtendedNotice(g *domain.Game, ext Extension) domain.Notice {
	text := fmt.Sprintf("Join phase extended by %s. Time remaining: %s.", formatDuration(ext.Added), formatDuration(ext.Remaining))
	return notice(g, domain.NoticeLobbyExtended, text, domain.CountdownData{SecondsLeft: seconds(ext.Remaining)})
}

func lobbyCancelledNotice(g *domain.Game, minPlayers int) domain.Notice {
	text := fmt.Sprintf("Join phase ended. Not enough players joined (%d/%d). The game has been cancelled.", g.Len(), minPlayers)
	return notice(g, domain.NoticeLobbyCancelled, text, roster(g.Players()))
}

func lobbyFullNotice(g *domain.Game) domain.Notice {
	text := fmt.Sprintf("%d players joined! Starting immediately.", g.Len())
	return notice(g, domain.NoticeLobbyFull, text, nil)
}

func forceStartedNotice(g *domain.Game) domain.Notice {
	return notice(g, domain.NoticeForceStarted, "An admin started the game early.", nil)
}

func rosterTrimmedNotice(g *domain.Game, maxPlayers int) domain.Notice {
	text := fmt.Sprintf("Sorry! The match can only have %d players. You won't be playing this time.", maxPlayers)
	return notice(g, domain.NoticeRosterTrimmed, text, nil)
}

func matchSettledNotice(g *domain.Game) domain.Notice {
	players := g.Players()
	var b strings.Builder
	fmt.Fprintf(&b, "Match settled. Players joined (%d):", len(players))
	for _, p := range players {
		b.WriteString("\n- " + p.Name)
	}
	return notice(g, domain.NoticeMatchSettled, b.String(), roster(players))
}

func roundStartedNotice(g *domain.Game) domain.Notice {
	text := fmt.Sprintf("Round %d is starting now. Send your number in a direct message!", g.RoundNumber)
	return notice(g, domain.NoticeRoundStarted, text, nil)
}

func pickPromptNotice(g *domain.Game, window time.Duration) domain.Notice {
	text := fmt.Sprintf("Round %d: send a number between %d and %d.", g.RoundNumber, domain.MinPick, domain.MaxPick)
	return notice(g, domain.NoticePickPrompt, text, domain.CountdownData{SecondsLeft: seconds(window)})
}

func pickUnreachableNotice(g *domain.Game, p *domain.Player) domain.Notice {
	text := fmt.Sprintf("Could not message %s. Please open a direct chat with the bot.", p.Name)
	return notice(g, domain.NoticePickUnreachable, text, playerData(p))
}

func pickReminderNotice(g *domain.Game, p *domain.Player, left time.Duration) domain.Notice {
	text := fmt.Sprintf("%s: %d seconds left to send your number!", p.Name, seconds(left))
	return notice(g, domain.NoticePickReminder, text, domain.CountdownData{SecondsLeft: seconds(left)})
}

func pickReceivedNotice(g *domain.Game, value int) domain.Notice {
	text := fmt.Sprintf("Number received: %d. Get ready for the results!", value)
	return notice(g, domain.NoticePickReceived, text, nil)
}

func timeoutPenaltyNotice(g *domain.Game, p *domain.Player) domain.Notice {
	text := fmt.Sprintf("%s did not respond in time! -%d penalty.", p.Name, domain.TimeoutPenalty)
	return notice(g, domain.NoticeTimeoutPenalty, text, playerData(p))
}

func timeoutEliminatedNotice(g *domain.Game, p *domain.Player) domain.Notice {
	return notice(g, domain.NoticeTimeoutEliminate, p.Name+" failed to answer again and is eliminated!", playerData(p))
}

func picksRevealedNotice(g *domain.Game, alive []*domain.Player) domain.Notice {
	data := domain.RosterData{Players: make([]domain.NoticePlayer, 0, len(alive))}
	var b strings.Builder
	fmt.Fprintf(&b, "Round %d picks:", g.RoundNumber)
	for _, p := range alive {
		np := domain.NoticePlayerOf(p)
		np.Pick = p.Pick.String()
		data.Players = append(data.Players, np)
		fmt.Fprintf(&b, "\n- %s: %s", p.Name, np.Pick)
	}
	return notice(g, domain.NoticePicksRevealed, b.String(), data)
}

func duplicateTriggerNotice(g *domain.Game) domain.Notice {
	text := fmt.Sprintf("%d or more players chose the same number. From the next round, duplicate numbers are penalized.", scoring.DuplicateThreshold)
	return notice(g, domain.NoticeDuplicateTrigger, text, nil)
}

func duplicatePenaltyNotice(g *domain.Game, p *domain.Player, value int) domain.Notice {
	text := fmt.Sprintf("%s picked a duplicate number (%d)! -%d penalty.", p.Name, value, scoring.DuplicatePenalty)
	return notice(g, domain.NoticeDuplicatePenalty, text, playerData(p))
}

func roundResultNotice(g *domain.Game, out scoring.Outcome) domain.Notice {
	data := domain.RoundResultData{
		Target:     out.Target,
		Rule:       string(out.Path),
		Winners:    out.Winners,
		Eliminated: out.Eliminated,
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Round %d results\nTarget: %.2f", g.RoundNumber, out.Target)

	var names []string
	for _, id := range out.Winners {
		if p, ok := g.Player(id); ok && !p.Eliminated {
			names = append(names, p.Name)
		}
	}
	if len(names) > 0 {
		label := "Winner"
		if len(names) > 1 {
			label = "Winners"
		}
		fmt.Fprintf(&b, "\n%s: %s", label, strings.Join(names, ", "))
	}

	b.WriteString("\nScores:")
	for _, p := range g.Ranking() {
		data.Scores = append(data.Scores, domain.NoticePlayerOf(p))
		if p.Eliminated {
			fmt.Fprintf(&b, "\n- %s: %d (eliminated)", p.Name, p.Score)
		} else {
			fmt.Fprintf(&b, "\n- %s: %d", p.Name, p.Score)
		}
	}
	return notice(g, domain.NoticeRoundResult, b.String(), data)
}

func eliminatedNotice(g *domain.Game, p *domain.Player) domain.Notice {
	return notice(g, domain.NoticeEliminated, p.Name+", you are eliminated!", playerData(p))
}

func noPicksNotice(g *domain.Game) domain.Notice {
	return notice(g, domain.NoticeNoPicks, "No valid picks received this round.", nil)
}

func noPlayersNotice(g *domain.Game) domain.Notice {
	return notice(g, domain.NoticeNoPicks, "No active players. Ending game.", nil)
}

func scorecardNotice(g *domain.Game, champion *domain.Player, aborted bool) domain.Notice {
	data := domain.ScorecardData{Aborted: aborted}
	var b strings.Builder
	b.WriteString("Final scorecard")
	ranking := g.Ranking()
	if len(ranking) == 0 {
		b.WriteString("\nNo players participated.")
	}
	for _, p := range ranking {
		data.Ranking = append(data.Ranking, domain.NoticePlayerOf(p))
		if p.Eliminated {
			fmt.Fprintf(&b, "\n- %s: %d (out)", p.Name, p.Score)
		} else {
			fmt.Fprintf(&b, "\n- %s: %d", p.Name, p.Score)
		}
	}
	if champion != nil {
		data.ChampionID = champion.ID
		fmt.Fprintf(&b, "\nChampion: %s", champion.Name)
	}
	return notice(g, domain.NoticeScorecard, b.String(), data)
}

func championNotice(g *domain.Game, champion *domain.Player) domain.Notice {
	return notice(g, domain.NoticeChampion, "Champion: "+champion.Name, playerData(champion))
}

func gameEndedNotice(g *domain.Game, aborted bool) domain.Notice {
	text := "The game has ended. Start a new one anytime."
	if aborted {
		text = "The game was ended by an admin. All timers cleared."
	}
	return notice(g, domain.NoticeGameEnded, text, domain.ScorecardData{Aborted: aborted})
}
