package domain

import (
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Role is a user's standing in a group chat, as reported by the chat platform.
type Role string

const (
	RoleCreator       Role = "creator"
	RoleAdministrator Role = "administrator"
	RoleMember        Role = "member"
	RoleLeft          Role = "left"
)

// CanModerate reports whether the role may force-start or force-end a game.
func (r Role) CanModerate() bool {
	return r == RoleCreator || r == RoleAdministrator
}

// Phase is the coarse lifecycle stage of a game.
type Phase string

const (
	PhaseLobby   Phase = "LOBBY"
	PhasePlaying Phase = "PLAYING"
	PhaseEnded   Phase = "ENDED"
)

// User identifies a chat user. Username is the optional public handle and is
// empty when the user has none.
type User struct {
	ID       int64
	Name     string
	Username string
}

// Group identifies the group chat a game is played in.
type Group struct {
	ID    int64
	Title string
}

// PickState tells whether a player has answered the current round.
type PickState uint8

const (
	PickPending PickState = iota
	PickNumber
	PickSkipped
)

// Pick is a player's answer for the current round. Value is meaningful only
// when State is PickNumber.
type Pick struct {
	State PickState
	Value int
}

// NumberPick returns a numeric pick.
func NumberPick(v int) Pick {
	return Pick{State: PickNumber, Value: v}
}

// SkippedPick marks a player that timed out this round.
func SkippedPick() Pick {
	return Pick{State: PickSkipped}
}

// IsNumber reports whether the pick carries a numeric value.
func (p Pick) IsNumber() bool { return p.State == PickNumber }

// Answered reports whether the player is done for this round, either by
// picking a number or by timing out.
func (p Pick) Answered() bool { return p.State != PickPending }

func (p Pick) String() string {
	switch p.State {
	case PickNumber:
		return strconv.Itoa(p.Value)
	case PickSkipped:
		return "skipped"
	default:
		return "pending"
	}
}

// Player is a participant in one game. It is owned by its Game.
type Player struct {
	User
	Score          int
	Pick           Pick
	Eliminated     bool
	TimeoutCount   int
	TotalPenalties int
	RoundsPlayed   int
	JoinedAt       time.Time
}

// Penalize subtracts points from the score and adds count to the penalty tally.
func (p *Player) Penalize(points, count int) {
	p.Score -= points
	p.TotalPenalties += count
}

// Game is the state of one contest in one group. Players keep join order.
type Game struct {
	ID        uuid.UUID
	Group     Group
	CreatedBy int64
	CreatedAt time.Time

	players map[int64]*Player
	order   []int64

	JoinPhaseActive bool
	RoundNumber     int
	RoundActive     bool
	RoundResolved   bool

	// DuplicateRuleSticky forces the duplicate penalty in every round until
	// two or fewer players are alive. NextRoundSticky arms it for the round
	// after the current one.
	DuplicateRuleSticky bool
	NextRoundSticky     bool

	Ended bool
}

// NewGame creates a game in its join phase.
func NewGame(id uuid.UUID, group Group, createdBy int64, now time.Time) *Game {
	return &Game{
		ID:              id,
		Group:           group,
		CreatedBy:       createdBy,
		CreatedAt:       now,
		players:         make(map[int64]*Player),
		JoinPhaseActive: true,
	}
}

// Phase derives the lifecycle stage from the game flags.
func (g *Game) Phase() Phase {
	switch {
	case g.Ended:
		return PhaseEnded
	case g.JoinPhaseActive:
		return PhaseLobby
	default:
		return PhasePlaying
	}
}

// AddPlayer appends a player. It returns false if the user already plays.
func (g *Game) AddPlayer(u User, now time.Time) (*Player, bool) {
	if _, ok := g.players[u.ID]; ok {
		return nil, false
	}
	p := &Player{User: u, JoinedAt: now}
	g.players[u.ID] = p
	g.order = append(g.order, u.ID)
	return p, true
}

// RemovePlayer drops a player and returns whether it was present.
func (g *Game) RemovePlayer(userID int64) bool {
	if _, ok := g.players[userID]; !ok {
		return false
	}
	delete(g.players, userID)
	for i, id := range g.order {
		if id == userID {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	return true
}

// Truncate keeps the first n joiners and returns the removed players.
func (g *Game) Truncate(n int) []*Player {
	if n < 0 || len(g.order) <= n {
		return nil
	}
	removed := make([]*Player, 0, len(g.order)-n)
	for _, id := range g.order[n:] {
		removed = append(removed, g.players[id])
		delete(g.players, id)
	}
	g.order = g.order[:n:n]
	return removed
}

// Player looks up a player by user id.
func (g *Game) Player(userID int64) (*Player, bool) {
	p, ok := g.players[userID]
	return p, ok
}

// Len returns the number of players, eliminated or not.
func (g *Game) Len() int { return len(g.order) }

// Players returns every player in join order.
func (g *Game) Players() []*Player {
	out := make([]*Player, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.players[id])
	}
	return out
}

// Alive returns the non-eliminated players in join order.
func (g *Game) Alive() []*Player {
	out := make([]*Player, 0, len(g.order))
	for _, id := range g.order {
		if p := g.players[id]; !p.Eliminated {
			out = append(out, p)
		}
	}
	return out
}

// EliminatedCount returns how many players are out.
func (g *Game) EliminatedCount() int {
	n := 0
	for _, p := range g.players {
		if p.Eliminated {
			n++
		}
	}
	return n
}

// ResetPicks clears every player's pick.
func (g *Game) ResetPicks() {
	for _, p := range g.players {
		p.Pick = Pick{}
	}
}

// AllAnswered reports whether every alive player picked or timed out.
func (g *Game) AllAnswered() bool {
	for _, p := range g.players {
		if !p.Eliminated && !p.Pick.Answered() {
			return false
		}
	}
	return true
}

// Ranking orders players by score, highest first. Equal scores keep join order.
func (g *Game) Ranking() []*Player {
	out := g.Players()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// Champion is the best ranked player still alive, or the best ranked player
// overall when everyone is out. It is nil for an empty game.
func (g *Game) Champion() *Player {
	ranking := g.Ranking()
	for _, p := range ranking {
		if !p.Eliminated {
			return p
		}
	}
	if len(ranking) > 0 {
		return ranking[0]
	}
	return nil
}
