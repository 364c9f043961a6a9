package dto

import (
	"time"

	"mindscale/src/core/domain"
)

// StatsResponse is one leaderboard row or a user's statistics.
type StatsResponse struct {
	Rank         int       `json:"rank"`
	UserID       int64     `json:"user_id"`
	GroupID      int64     `json:"group_id,omitempty"`
	Name         string    `json:"name"`
	Username     string    `json:"username,omitempty"`
	GamesPlayed  int       `json:"games_played"`
	Wins         int       `json:"wins"`
	Losses       int       `json:"losses"`
	WinRate      float64   `json:"win_rate"`
	RoundsPlayed int       `json:"rounds_played"`
	Eliminations int       `json:"eliminations"`
	TotalScore   int       `json:"total_score"`
	LastScore    int       `json:"last_score"`
	Penalties    int       `json:"penalties"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FromStats maps accumulated statistics.
func FromStats(s domain.PlayerStats) StatsResponse {
	return StatsResponse{
		Rank:         s.Rank,
		UserID:       s.UserID,
		GroupID:      s.GroupID,
		Name:         s.Name,
		Username:     s.Username,
		GamesPlayed:  s.GamesPlayed,
		Wins:         s.Wins,
		Losses:       s.Losses,
		WinRate:      s.WinRate(),
		RoundsPlayed: s.RoundsPlayed,
		Eliminations: s.Eliminations,
		TotalScore:   s.TotalScore,
		LastScore:    s.LastScore,
		Penalties:    s.Penalties,
		UpdatedAt:    s.UpdatedAt,
	}
}

// FromLeaderboard maps a ranked list.
func FromLeaderboard(rows []domain.PlayerStats) []StatsResponse {
	out := make([]StatsResponse, 0, len(rows))
	for _, s := range rows {
		out = append(out, FromStats(s))
	}
	return out
}
