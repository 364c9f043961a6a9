package engine

import (
	"time"

	"github.com/google/uuid"

	"mindscale/src/core/domain"
)

// PlayerView is a read-only copy of a player. Picks stay hidden; Answered
// tells whether the player is done for the current round.
type PlayerView struct {
	UserID       int64
	Name         string
	Username     string
	Score        int
	Eliminated   bool
	Answered     bool
	TimeoutCount int
	Penalties    int
	RoundsPlayed int
	JoinedAt     time.Time
}

// GameView is a read-only copy of a game.
type GameView struct {
	GameID              uuid.UUID
	Group               domain.Group
	CreatedBy           int64
	CreatedAt           time.Time
	Phase               domain.Phase
	Round               int
	RoundActive         bool
	DuplicateRuleSticky bool
	// JoinDeadline is zero once the join phase is over.
	JoinDeadline time.Time
	Players      []PlayerView
}

func playerViews(players []*domain.Player) []PlayerView {
	out := make([]PlayerView, 0, len(players))
	for _, p := range players {
		out = append(out, PlayerView{
			UserID:       p.ID,
			Name:         p.Name,
			Username:     p.Username,
			Score:        p.Score,
			Eliminated:   p.Eliminated,
			Answered:     p.Pick.Answered(),
			TimeoutCount: p.TimeoutCount,
			Penalties:    p.TotalPenalties,
			RoundsPlayed: p.RoundsPlayed,
			JoinedAt:     p.JoinedAt,
		})
	}
	return out
}

func (e *Engine) view(m *Match) GameView {
	g := m.Game
	return GameView{
		GameID:              g.ID,
		Group:               g.Group,
		CreatedBy:           g.CreatedBy,
		CreatedAt:           g.CreatedAt,
		Phase:               g.Phase(),
		Round:               g.RoundNumber,
		RoundActive:         g.RoundActive,
		DuplicateRuleSticky: g.DuplicateRuleSticky,
		JoinDeadline:        lobbyDeadline(m),
		Players:             playerViews(g.Players()),
	}
}
