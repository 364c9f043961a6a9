package handler

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"mindscale/src/app/http/dto"
	"mindscale/src/app/http/response"
	"mindscale/src/app/middleware"
	"mindscale/src/core/domain"
	"mindscale/src/core/engine"
)

// Games is the slice of the engine the HTTP layer drives.
type Games interface {
	StartLobby(ctx context.Context, group domain.Group, actor domain.User) (engine.GameView, error)
	JoinLobby(ctx context.Context, groupID int64, user domain.User) (engine.GameView, error)
	LeaveLobby(ctx context.Context, groupID, userID int64) error
	ExtendLobby(ctx context.Context, groupID int64, extra time.Duration) (engine.Extension, error)
	ForceStartLobby(ctx context.Context, groupID, actorID int64) error
	ForceEndGame(ctx context.Context, groupID, actorID int64) error
	SubmitPick(ctx context.Context, userID int64, value int) (engine.PickReceipt, error)
	ListPlayers(groupID int64) ([]engine.PlayerView, error)
	Snapshot(groupID int64) (engine.GameView, error)
	ActiveGames() []engine.GameView
}

// maxExtendSeconds bounds a requested extension before it becomes a Duration.
const maxExtendSeconds = 24 * 60 * 60

// GameHandler handles lobby, round and game endpoints.
type GameHandler struct {
	games         Games
	extendDefault time.Duration
}

func NewGameHandler(games Games, extendDefault time.Duration) *GameHandler {
	return &GameHandler{games: games, extendDefault: extendDefault}
}

// StartLobby opens a lobby in the group.
// POST /v1/groups/:group_id/lobby
func (h *GameHandler) StartLobby(c *gin.Context) {
	groupID, ok := parseInt64Param(c, "group_id")
	if !ok {
		return
	}
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req dto.StartLobbyRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, "invalid payload", middleware.GetRequestID(c))
		return
	}

	view, err := h.games.StartLobby(c.Request.Context(), domain.Group{ID: groupID, Title: req.Title}, actor)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, dto.FromGame(view))
}

// Join adds the caller to the open lobby.
// POST /v1/groups/:group_id/lobby/join
func (h *GameHandler) Join(c *gin.Context) {
	groupID, ok := parseInt64Param(c, "group_id")
	if !ok {
		return
	}
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	view, err := h.games.JoinLobby(c.Request.Context(), groupID, actor)
	if err != nil {
		fail(c, err)
		return
	}
	response.OK(c, dto.FromGame(view))
}

// Leave removes the caller from the open lobby.
// POST /v1/groups/:group_id/lobby/leave
func (h *GameHandler) Leave(c *gin.Context) {
	groupID, ok := parseInt64Param(c, "group_id")
	if !ok {
		return
	}
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	if err := h.games.LeaveLobby(c.Request.Context(), groupID, actor.ID); err != nil {
		fail(c, err)
		return
	}
	response.NoContent(c)
}

// Extend pushes the join deadline back.
// POST /v1/groups/:group_id/lobby/extend
func (h *GameHandler) Extend(c *gin.Context) {
	groupID, ok := parseInt64Param(c, "group_id")
	if !ok {
		return
	}
	var req dto.ExtendRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, "invalid payload", middleware.GetRequestID(c))
		return
	}
	extra := h.extendDefault
	if req.Seconds != nil {
		if *req.Seconds < 1 || *req.Seconds > maxExtendSeconds {
			fail(c, domain.NewValidationError("seconds", "must be between 1 and 86400"))
			return
		}
		extra = time.Duration(*req.Seconds) * time.Second
	}

	ext, err := h.games.ExtendLobby(c.Request.Context(), groupID, extra)
	if err != nil {
		fail(c, err)
		return
	}
	response.OK(c, dto.FromExtension(ext))
}

// ForceStart closes the lobby early. Admins only.
// POST /v1/groups/:group_id/lobby/start
func (h *GameHandler) ForceStart(c *gin.Context) {
	groupID, ok := parseInt64Param(c, "group_id")
	if !ok {
		return
	}
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	if err := h.games.ForceStartLobby(c.Request.Context(), groupID, actor.ID); err != nil {
		fail(c, err)
		return
	}
	response.NoContent(c)
}

// ForceEnd aborts the group's game. Admins only.
// POST /v1/groups/:group_id/end
func (h *GameHandler) ForceEnd(c *gin.Context) {
	groupID, ok := parseInt64Param(c, "group_id")
	if !ok {
		return
	}
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	if err := h.games.ForceEndGame(c.Request.Context(), groupID, actor.ID); err != nil {
		fail(c, err)
		return
	}
	response.NoContent(c)
}

// Players lists the group's players in join order.
// GET /v1/groups/:group_id/players
func (h *GameHandler) Players(c *gin.Context) {
	groupID, ok := parseInt64Param(c, "group_id")
	if !ok {
		return
	}
	players, err := h.games.ListPlayers(groupID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Items(c, dto.FromPlayers(players), len(players))
}

// Game returns the group's game.
// GET /v1/groups/:group_id
func (h *GameHandler) Game(c *gin.Context) {
	groupID, ok := parseInt64Param(c, "group_id")
	if !ok {
		return
	}
	view, err := h.games.Snapshot(groupID)
	if err != nil {
		fail(c, err)
		return
	}
	response.OK(c, dto.FromGame(view))
}

// Active lists every live game.
// GET /v1/groups
func (h *GameHandler) Active(c *gin.Context) {
	games := h.games.ActiveGames()
	response.Items(c, dto.FromGames(games), len(games))
}

// Pick submits the caller's number for the current round.
// POST /v1/picks
func (h *GameHandler) Pick(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req dto.PickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "text", "text is required", middleware.GetRequestID(c))
		return
	}
	value, err := domain.ParsePick(req.Text)
	if err != nil {
		fail(c, err)
		return
	}

	receipt, err := h.games.SubmitPick(c.Request.Context(), actor.ID, value)
	if err != nil {
		fail(c, err)
		return
	}
	response.OK(c, dto.FromPickReceipt(receipt))
}
