package engine

import (
	"sort"

	"mindscale/src/core/domain"
)

// Match is a live game together with the timers that drive it.
type Match struct {
	Game *domain.Game

	lobby lobbyTimers
	round map[int64]*playerTimers
}

func newMatch(g *domain.Game) *Match {
	return &Match{Game: g, round: make(map[int64]*playerTimers)}
}

// cancelPlayer stops one player's round timers.
func (m *Match) cancelPlayer(userID int64) {
	m.round[userID].cancel()
	delete(m.round, userID)
}

// cancelRound stops every round timer.
func (m *Match) cancelRound() {
	for id, pt := range m.round {
		pt.cancel()
		delete(m.round, id)
	}
}

// cancelTimers stops everything the match scheduled.
func (m *Match) cancelTimers() {
	m.lobby.cancel()
	m.cancelRound()
}

// Registry maps groups to their live match and users to the group they play
// in. It is not safe for concurrent use; the engine guards it.
type Registry struct {
	matches map[int64]*Match
	users   map[int64]int64
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		matches: make(map[int64]*Match),
		users:   make(map[int64]int64),
	}
}

// Create registers a new match for the game's group.
func (r *Registry) Create(g *domain.Game) (*Match, error) {
	if _, ok := r.matches[g.Group.ID]; ok {
		return nil, domain.ErrAlreadyActive
	}
	m := newMatch(g)
	r.matches[g.Group.ID] = m
	return m, nil
}

// Get returns the live match of a group.
func (r *Registry) Get(groupID int64) (*Match, bool) {
	m, ok := r.matches[groupID]
	return m, ok
}

// Remove drops the match of a group and releases every user bound to it.
func (r *Registry) Remove(groupID int64) *Match {
	m, ok := r.matches[groupID]
	if !ok {
		return nil
	}
	delete(r.matches, groupID)
	for userID, gid := range r.users {
		if gid == groupID {
			delete(r.users, userID)
		}
	}
	return m
}

// BindUser records that userID plays in groupID. Binding twice to the same
// group is a no-op.
func (r *Registry) BindUser(userID, groupID int64) error {
	if gid, ok := r.users[userID]; ok && gid != groupID {
		return domain.ErrAlreadyInOtherGame
	}
	r.users[userID] = groupID
	return nil
}

// UnbindUser releases a user.
func (r *Registry) UnbindUser(userID int64) {
	delete(r.users, userID)
}

// GroupOf returns the group a user currently plays in.
func (r *Registry) GroupOf(userID int64) (int64, bool) {
	gid, ok := r.users[userID]
	return gid, ok
}

// Len returns the number of live matches.
func (r *Registry) Len() int { return len(r.matches) }

// Matches returns the live matches ordered by group id.
func (r *Registry) Matches() []*Match {
	out := make([]*Match, 0, len(r.matches))
	for _, m := range r.matches {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Game.Group.ID < out[j].Game.Group.ID })
	return out
}
