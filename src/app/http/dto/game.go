package dto

import (
	"time"

	"mindscale/src/core/domain"
	"mindscale/src/core/engine"
)

// StartLobbyRequest is the optional payload for opening a lobby.
type StartLobbyRequest struct {
	Title string `json:"title" binding:"max=128"`
}

// ExtendRequest extends the join phase. A missing value uses the configured default.
type ExtendRequest struct {
	Seconds *int `json:"seconds"`
}

// PickRequest carries the raw pick text, validated like a direct message.
type PickRequest struct {
	Text string `json:"text" binding:"required"`
}

// PlayerResponse is the public view of a player.
type PlayerResponse struct {
	UserID       int64     `json:"user_id"`
	Name         string    `json:"name"`
	Username     string    `json:"username,omitempty"`
	Score        int       `json:"score"`
	Eliminated   bool      `json:"eliminated"`
	Answered     bool      `json:"answered"`
	TimeoutCount int       `json:"timeout_count"`
	Penalties    int       `json:"penalties"`
	RoundsPlayed int       `json:"rounds_played"`
	JoinedAt     time.Time `json:"joined_at"`
}

// GameResponse is the public view of a game.
type GameResponse struct {
	GameID              string           `json:"game_id"`
	GroupID             int64            `json:"group_id"`
	GroupTitle          string           `json:"group_title,omitempty"`
	CreatedBy           int64            `json:"created_by"`
	CreatedAt           time.Time        `json:"created_at"`
	Phase               domain.Phase     `json:"phase"`
	Round               int              `json:"round"`
	RoundActive         bool             `json:"round_active"`
	DuplicateRuleSticky bool             `json:"duplicate_rule_sticky"`
	JoinDeadline        *time.Time       `json:"join_deadline,omitempty"`
	Players             []PlayerResponse `json:"players"`
}

// ExtensionResponse reports a lobby extension.
type ExtensionResponse struct {
	AddedSeconds     int `json:"added_seconds"`
	RemainingSeconds int `json:"remaining_seconds"`
}

// PickResponse confirms an accepted pick.
type PickResponse struct {
	GroupID int64 `json:"group_id"`
	Round   int   `json:"round"`
	Value   int   `json:"value"`
}

// FromPlayers maps engine player views.
func FromPlayers(players []engine.PlayerView) []PlayerResponse {
	out := make([]PlayerResponse, 0, len(players))
	for _, p := range players {
		out = append(out, PlayerResponse{
			UserID:       p.UserID,
			Name:         p.Name,
			Username:     p.Username,
			Score:        p.Score,
			Eliminated:   p.Eliminated,
			Answered:     p.Answered,
			TimeoutCount: p.TimeoutCount,
			Penalties:    p.Penalties,
			RoundsPlayed: p.RoundsPlayed,
			JoinedAt:     p.JoinedAt,
		})
	}
	return out
}

// FromGame maps an engine game view.
func FromGame(g engine.GameView) GameResponse {
	res := GameResponse{
		GameID:              g.GameID.String(),
		GroupID:             g.Group.ID,
		GroupTitle:          g.Group.Title,
		CreatedBy:           g.CreatedBy,
		CreatedAt:           g.CreatedAt,
		Phase:               g.Phase,
		Round:               g.Round,
		RoundActive:         g.RoundActive,
		DuplicateRuleSticky: g.DuplicateRuleSticky,
		Players:             FromPlayers(g.Players),
	}
	if !g.JoinDeadline.IsZero() {
		deadline := g.JoinDeadline
		res.JoinDeadline = &deadline
	}
	return res
}

// FromGames maps a list of game views.
func FromGames(games []engine.GameView) []GameResponse {
	out := make([]GameResponse, 0, len(games))
	for _, g := range games {
		out = append(out, FromGame(g))
	}
	return out
}

// FromExtension maps an extension to whole seconds.
func FromExtension(ext engine.Extension) ExtensionResponse {
	return ExtensionResponse{
		AddedSeconds:     int(ext.Added / time.Second),
		RemainingSeconds: int(ext.Remaining / time.Second),
	}
}

// FromPickReceipt maps an accepted pick.
func FromPickReceipt(r engine.PickReceipt) PickResponse {
	return PickResponse{GroupID: r.GroupID, Round: r.Round, Value: r.Value}
}
