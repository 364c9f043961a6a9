package domain

// NoticeKind tags every message the engine emits so presenters can render it.
type NoticeKind string

const (
	NoticeLobbyOpened      NoticeKind = "LOBBY_OPENED"
	NoticePlayerJoined     NoticeKind = "PLAYER_JOINED"
	NoticePlayerLeft       NoticeKind = "PLAYER_LEFT"
	NoticeLobbyReminder    NoticeKind = "LOBBY_REMINDER"
	NoticeLobbyExtended    NoticeKind = "LOBBY_EXTENDED"
	NoticeLobbyCancelled   NoticeKind = "LOBBY_CANCELLED"
	NoticeLobbyFull        NoticeKind = "LOBBY_FULL"
	NoticeForceStarted     NoticeKind = "FORCE_STARTED"
	NoticeRosterTrimmed    NoticeKind = "ROSTER_TRIMMED"
	NoticeMatchSettled     NoticeKind = "MATCH_SETTLED"
	NoticeRoundStarted     NoticeKind = "ROUND_STARTED"
	NoticePickPrompt       NoticeKind = "PICK_PROMPT"
	NoticePickUnreachable  NoticeKind = "PICK_UNREACHABLE"
	NoticePickReminder     NoticeKind = "PICK_REMINDER"
	NoticePickReceived     NoticeKind = "PICK_RECEIVED"
	NoticeTimeoutPenalty   NoticeKind = "TIMEOUT_PENALTY"
	NoticeTimeoutEliminate NoticeKind = "TIMEOUT_ELIMINATED"
	NoticePicksRevealed    NoticeKind = "PICKS_REVEALED"
	NoticeDuplicateTrigger NoticeKind = "DUPLICATE_TRIGGER"
	NoticeDuplicatePenalty NoticeKind = "DUPLICATE_PENALTY"
	NoticeRoundResult      NoticeKind = "ROUND_RESULT"
	NoticeEliminated       NoticeKind = "ELIMINATED"
	NoticeNoPicks          NoticeKind = "NO_PICKS"
	NoticeScorecard        NoticeKind = "SCORECARD"
	NoticeChampion         NoticeKind = "CHAMPION"
	NoticeGameEnded        NoticeKind = "GAME_ENDED"
)

// Notice is a structured message for a user or a group. Text is a plain
// fallback rendering; Data carries the typed payload for richer presenters.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	GroupID int64      `json:"group_id"`
	Round   int        `json:"round,omitempty"`
	Text    string     `json:"text"`
	Data    any        `json:"data,omitempty"`
}

// NoticePlayer is the public face of a player inside notices.
type NoticePlayer struct {
	UserID     int64  `json:"user_id"`
	Name       string `json:"name"`
	Username   string `json:"username,omitempty"`
	Score      int    `json:"score"`
	Pick       string `json:"pick,omitempty"`
	Eliminated bool   `json:"eliminated,omitempty"`
}

// NoticePlayerOf converts a player for a notice payload.
func NoticePlayerOf(p *Player) NoticePlayer {
	return NoticePlayer{
		UserID:     p.ID,
		Name:       p.Name,
		Username:   p.Username,
		Score:      p.Score,
		Eliminated: p.Eliminated,
	}
}

// RosterData lists players, e.g. when the lobby settles.
type RosterData struct {
	Players []NoticePlayer `json:"players"`
}

// RoundResultData summarizes a resolved round.
type RoundResultData struct {
	Target     float64        `json:"target"`
	Rule       string         `json:"rule"`
	Winners    []int64        `json:"winners"`
	Eliminated []int64        `json:"eliminated,omitempty"`
	Scores     []NoticePlayer `json:"scores"`
}

// ScorecardData is the final ranking of a game.
type ScorecardData struct {
	Ranking    []NoticePlayer `json:"ranking"`
	ChampionID int64          `json:"champion_id,omitempty"`
	Aborted    bool           `json:"aborted,omitempty"`
}

// CountdownData accompanies reminders and extensions.
type CountdownData struct {
	SecondsLeft int `json:"seconds_left"`
}
