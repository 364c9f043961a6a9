// Package engine runs the games of every group.
//
// All state transitions, whether caused by a command or a timer, execute one
// at a time under a single mutex. Messages and persistence are queued while
// the mutex is held and delivered after it is released, in transition order.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"mindscale/src/core/domain"
	"mindscale/src/core/ports"
)

// Settings are fixed for the engine's lifetime.
type Settings struct {
	JoinWindow time.Duration
	PickWindow time.Duration
	MinPlayers int
	MaxPlayers int
	ExtendCap  time.Duration
	// CallTimeout bounds each messenger, membership and persistence call.
	CallTimeout time.Duration
}

// DefaultSettings returns the standard rules.
func DefaultSettings() Settings {
	return Settings{
		JoinWindow:  domain.DefaultJoinWindow,
		PickWindow:  domain.DefaultPickWindow,
		MinPlayers:  domain.DefaultMinPlayers,
		MaxPlayers:  domain.DefaultMaxPlayers,
		ExtendCap:   domain.DefaultExtendCap,
		CallTimeout: 10 * time.Second,
	}
}

func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.JoinWindow <= 0 {
		s.JoinWindow = d.JoinWindow
	}
	if s.PickWindow <= 0 {
		s.PickWindow = d.PickWindow
	}
	if s.MinPlayers <= 0 {
		s.MinPlayers = d.MinPlayers
	}
	if s.MaxPlayers < s.MinPlayers {
		s.MaxPlayers = max(d.MaxPlayers, s.MinPlayers)
	}
	if s.ExtendCap <= 0 {
		s.ExtendCap = d.ExtendCap
	}
	return s
}

// Deps are the engine's collaborators. Any of Messenger, Members and Results
// may be nil; Clock defaults to the wall clock.
type Deps struct {
	Messenger ports.Messenger
	Members   ports.MembershipResolver
	Results   ports.ResultRecorder
	Clock     Clock
	NewID     func() uuid.UUID
}

// Extension reports the outcome of a lobby extension.
type Extension struct {
	Added     time.Duration
	Remaining time.Duration
}

// PickReceipt confirms an accepted pick.
type PickReceipt struct {
	GroupID int64
	Round   int
	Value   int
}

// Engine owns the registry and every game in it.
type Engine struct {
	settings  Settings
	messenger ports.Messenger
	members   ports.MembershipResolver
	results   ports.ResultRecorder
	clock     Clock
	newID     func() uuid.UUID
	log       *slog.Logger

	mu       sync.Mutex
	registry *Registry
	closed   bool

	outq    *mailbox
	stopped chan struct{}
}

// New creates an engine.
func New(settings Settings, deps Deps, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if deps.Clock == nil {
		deps.Clock = SystemClock{}
	}
	if deps.NewID == nil {
		deps.NewID = uuid.New
	}
	e := &Engine{
		settings:  settings.withDefaults(),
		messenger: deps.Messenger,
		members:   deps.Members,
		results:   deps.Results,
		clock:     deps.Clock,
		newID:     deps.NewID,
		log:       log,
		registry:  NewRegistry(),
		outq:      newMailbox(),
		stopped:   make(chan struct{}),
	}
	go e.deliverLoop()
	return e
}

// Settings returns the effective settings.
func (e *Engine) Settings() Settings { return e.settings }

// StartLobby opens the join phase in a group.
func (e *Engine) StartLobby(ctx context.Context, group domain.Group, actor domain.User) (GameView, error) {
	var view GameView
	err := e.run(ctx, func(fx *outbox) error {
		if e.closed {
			return domain.Because(domain.ErrConflict, "engine is shutting down")
		}
		g := domain.NewGame(e.newID(), group, actor.ID, e.clock.Now())
		m, err := e.registry.Create(g)
		if err != nil {
			return err
		}
		e.openLobby(fx, m)
		view = e.view(m)
		e.log.Info("lobby opened", "group_id", group.ID, "game_id", g.ID, "actor_id", actor.ID)
		return nil
	})
	return view, e.rejected("start_lobby", err, "group_id", group.ID)
}

// JoinLobby adds a user to the open lobby of a group. Filling the lobby
// starts the first round.
func (e *Engine) JoinLobby(ctx context.Context, groupID int64, user domain.User) (GameView, error) {
	var view GameView
	err := e.run(ctx, func(fx *outbox) error {
		m, ok := e.registry.Get(groupID)
		if !ok {
			return domain.ErrNoGame
		}
		g := m.Game
		if _, ok := g.Player(user.ID); ok {
			return domain.ErrAlreadyJoined
		}
		if gid, ok := e.registry.GroupOf(user.ID); ok && gid != groupID {
			return domain.ErrAlreadyInOtherGame
		}
		if !g.JoinPhaseActive {
			return domain.ErrPhaseClosed
		}
		if g.Len() >= e.settings.MaxPlayers {
			return domain.ErrFull
		}

		if err := e.registry.BindUser(user.ID, groupID); err != nil {
			return err
		}
		p, _ := g.AddPlayer(user, e.clock.Now())
		fx.group(playerJoinedNotice(g, p))
		e.log.Info("player joined", "group_id", groupID, "user_id", user.ID, "players", g.Len())

		if g.Len() >= e.settings.MaxPlayers {
			fx.group(lobbyFullNotice(g))
			e.closeLobby(fx, m)
		}
		view = e.view(m)
		return nil
	})
	return view, e.rejected("join_lobby", err, "group_id", groupID, "user_id", user.ID)
}

// LeaveLobby removes a user from the open lobby of a group.
func (e *Engine) LeaveLobby(ctx context.Context, groupID, userID int64) error {
	err := e.run(ctx, func(fx *outbox) error {
		m, ok := e.registry.Get(groupID)
		if !ok {
			return domain.ErrNoGame
		}
		g := m.Game
		if !g.JoinPhaseActive {
			return domain.ErrPhaseClosed
		}
		p, ok := g.Player(userID)
		if !ok {
			return domain.ErrNotMember
		}
		g.RemovePlayer(userID)
		e.registry.UnbindUser(userID)
		fx.group(playerLeftNotice(g, p))
		e.log.Info("player left", "group_id", groupID, "user_id", userID, "players", g.Len())
		return nil
	})
	return e.rejected("leave_lobby", err, "group_id", groupID, "user_id", userID)
}

// ExtendLobby pushes the join deadline out by extra. The new remaining time
// is the whole seconds left on the current deadline plus extra.
func (e *Engine) ExtendLobby(ctx context.Context, groupID int64, extra time.Duration) (Extension, error) {
	var ext Extension
	err := e.run(ctx, func(fx *outbox) error {
		m, ok := e.registry.Get(groupID)
		if !ok {
			return domain.ErrNoGame
		}
		if !m.Game.JoinPhaseActive {
			return domain.ErrPhaseClosed
		}
		if extra <= 0 || extra > e.settings.ExtendCap {
			return domain.ErrInvalidExtension
		}

		remaining := m.lobby.deadline.Sub(e.clock.Now()).Truncate(time.Second)
		if remaining < 0 {
			remaining = 0
		}
		ext = Extension{Added: extra, Remaining: remaining + extra}
		e.armLobby(m, ext.Remaining)
		fx.group(lobbyExtendedNotice(m.Game, ext))
		e.log.Info("lobby extended", "group_id", groupID, "added", extra, "remaining", ext.Remaining)
		return nil
	})
	return ext, e.rejected("extend_lobby", err, "group_id", groupID)
}

// ForceStartLobby closes the join phase early. Only group admins may do it.
func (e *Engine) ForceStartLobby(ctx context.Context, groupID, actorID int64) error {
	if err := e.authorize(ctx, groupID, actorID); err != nil {
		return e.rejected("force_start", err, "group_id", groupID, "actor_id", actorID)
	}
	err := e.run(ctx, func(fx *outbox) error {
		m, ok := e.registry.Get(groupID)
		if !ok {
			return domain.ErrNoGame
		}
		g := m.Game
		if !g.JoinPhaseActive {
			return domain.ErrPhaseClosed
		}
		if g.Len() < e.settings.MinPlayers {
			return domain.ErrNotEnoughPlayers
		}
		fx.group(forceStartedNotice(g))
		e.log.Info("lobby force started", "group_id", groupID, "actor_id", actorID)
		e.closeLobby(fx, m)
		return nil
	})
	return e.rejected("force_start", err, "group_id", groupID, "actor_id", actorID)
}

// SubmitPick records a user's number for the round of the game they play in.
func (e *Engine) SubmitPick(ctx context.Context, userID int64, value int) (PickReceipt, error) {
	if !domain.ValidPick(value) {
		return PickReceipt{}, e.rejected("submit_pick", domain.ErrInvalidPick, "user_id", userID)
	}
	var receipt PickReceipt
	err := e.run(ctx, func(fx *outbox) error {
		groupID, ok := e.registry.GroupOf(userID)
		if !ok {
			return domain.Because(domain.ErrNotInRound, "user is not playing in any game")
		}
		m, ok := e.registry.Get(groupID)
		if !ok {
			e.registry.UnbindUser(userID)
			return domain.Because(domain.ErrNotInRound, "the game no longer exists")
		}
		g := m.Game
		if !g.RoundActive {
			return domain.Because(domain.ErrNotInRound, "there is no active round")
		}
		p, ok := g.Player(userID)
		switch {
		case !ok:
			return domain.Because(domain.ErrNotInRound, "user is not listed as a player")
		case p.Eliminated:
			return domain.Because(domain.ErrNotInRound, "user has been eliminated")
		case p.Pick.Answered():
			return domain.Because(domain.ErrNotInRound, "user already answered this round")
		}

		p.Pick = domain.NumberPick(value)
		m.cancelPlayer(userID)
		receipt = PickReceipt{GroupID: groupID, Round: g.RoundNumber, Value: value}
		fx.user(userID, pickReceivedNotice(g, value), nil)
		e.log.Debug("pick received", "group_id", groupID, "user_id", userID, "round", g.RoundNumber)

		e.maybeResolve(fx, m)
		return nil
	})
	return receipt, e.rejected("submit_pick", err, "user_id", userID)
}

// ForceEndGame stops a game in any phase. Only group admins may do it.
func (e *Engine) ForceEndGame(ctx context.Context, groupID, actorID int64) error {
	if err := e.authorize(ctx, groupID, actorID); err != nil {
		return e.rejected("force_end", err, "group_id", groupID, "actor_id", actorID)
	}
	err := e.run(ctx, func(fx *outbox) error {
		m, ok := e.registry.Get(groupID)
		if !ok {
			return domain.ErrNoGame
		}
		e.log.Info("game force ended", "group_id", groupID, "actor_id", actorID, "round", m.Game.RoundNumber)
		e.finish(fx, m, true)
		return nil
	})
	return e.rejected("force_end", err, "group_id", groupID, "actor_id", actorID)
}

// ListPlayers returns the players of a group's game in join order.
func (e *Engine) ListPlayers(groupID int64) ([]PlayerView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	m, ok := e.registry.Get(groupID)
	if !ok {
		return nil, domain.ErrNoGame
	}
	return playerViews(m.Game.Players()), nil
}

// Snapshot returns the state of a group's game.
func (e *Engine) Snapshot(groupID int64) (GameView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	m, ok := e.registry.Get(groupID)
	if !ok {
		return GameView{}, domain.ErrNoGame
	}
	return e.view(m), nil
}

// ActiveGames returns every live game ordered by group.
func (e *Engine) ActiveGames() []GameView {
	e.mu.Lock()
	defer e.mu.Unlock()

	matches := e.registry.Matches()
	out := make([]GameView, 0, len(matches))
	for _, m := range matches {
		out = append(out, e.view(m))
	}
	return out
}

// ActiveCount returns the number of live games.
func (e *Engine) ActiveCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.Len()
}

// Close cancels every pending timer, refuses new lobbies and waits until the
// effects already queued have been delivered. Live games stay readable.
// Effects of later transitions are dropped.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	for _, m := range e.registry.Matches() {
		m.cancelTimers()
	}
	active := e.registry.Len()
	e.outq.close()
	e.mu.Unlock()

	<-e.stopped
	e.log.Info("engine closed", "active_games", active)
}

func (e *Engine) authorize(ctx context.Context, groupID, actorID int64) error {
	if e.members == nil {
		return domain.ErrNotAdmin
	}
	var role domain.Role
	err := e.call(ctx, func(ctx context.Context) error {
		var err error
		role, err = e.members.ResolveGroupMembership(ctx, groupID, actorID)
		return err
	})
	if err != nil {
		e.log.Warn("membership lookup failed", "group_id", groupID, "user_id", actorID, "error", err)
		return domain.Because(domain.ErrNotAdmin, "could not verify admin status")
	}
	if !role.CanModerate() {
		return domain.ErrNotAdmin
	}
	return nil
}

// rejected logs expected rejections at debug and passes err through.
func (e *Engine) rejected(op string, err error, args ...any) error {
	if err == nil {
		return nil
	}
	args = append([]any{"op", op, "error", err}, args...)
	if domain.IsRejection(err) {
		e.log.Debug("command rejected", args...)
	} else {
		e.log.Error("command failed", args...)
	}
	return err
}
