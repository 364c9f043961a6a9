package domain

import (
	"time"

	"github.com/google/uuid"
)

// PlayerResult is one player's contribution to a finished game.
type PlayerResult struct {
	UserID       int64
	Name         string
	Username     string
	ScoreDelta   int
	Eliminated   bool
	PenaltyDelta int
	RoundsPlayed int
	Won          bool
}

// GameResult is what the engine hands to persistence when a game ends.
type GameResult struct {
	GameID     uuid.UUID
	GroupID    int64
	GroupTitle string
	StartedAt  time.Time
	EndedAt    time.Time
	Rounds     int
	Aborted    bool
	WinnerIDs  []int64
	Players    []PlayerResult
}

// NewGameResult snapshots g. Players follow the final ranking. A nil
// champion (aborted games) records nobody as a winner.
func NewGameResult(g *Game, champion *Player, endedAt time.Time, aborted bool) GameResult {
	res := GameResult{
		GameID:     g.ID,
		GroupID:    g.Group.ID,
		GroupTitle: g.Group.Title,
		StartedAt:  g.CreatedAt,
		EndedAt:    endedAt,
		Rounds:     g.RoundNumber,
		Aborted:    aborted,
	}
	if champion != nil {
		res.WinnerIDs = []int64{champion.ID}
	}
	for _, p := range g.Ranking() {
		res.Players = append(res.Players, PlayerResult{
			UserID:       p.ID,
			Name:         p.Name,
			Username:     p.Username,
			ScoreDelta:   p.Score,
			Eliminated:   p.Eliminated,
			PenaltyDelta: p.TotalPenalties,
			RoundsPlayed: p.RoundsPlayed,
			Won:          champion != nil && champion.ID == p.ID,
		})
	}
	return res
}

// PlayerStats are the accumulated statistics of a user, globally or within
// one group (GroupID set).
type PlayerStats struct {
	Rank         int       `json:"rank"`
	UserID       int64     `json:"user_id"`
	GroupID      int64     `json:"group_id,omitempty"`
	Name         string    `json:"name"`
	Username     string    `json:"username,omitempty"`
	GamesPlayed  int       `json:"games_played"`
	Wins         int       `json:"wins"`
	Losses       int       `json:"losses"`
	RoundsPlayed int       `json:"rounds_played"`
	Eliminations int       `json:"eliminations"`
	TotalScore   int       `json:"total_score"`
	LastScore    int       `json:"last_score"`
	Penalties    int       `json:"penalties"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// WinRate is the share of games won, in percent with one decimal.
func (s PlayerStats) WinRate() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	rate := float64(s.Wins) / float64(s.GamesPlayed) * 100
	return float64(int(rate*10+0.5)) / 10
}
