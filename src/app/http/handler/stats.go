package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"mindscale/src/app/http/dto"
	"mindscale/src/app/http/response"
	"mindscale/src/app/middleware"
	"mindscale/src/core/usecase"
)

// StatsHandler serves leaderboards and user statistics.
type StatsHandler struct {
	statsService *usecase.StatsService
}

func NewStatsHandler(statsService *usecase.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// Leaderboard returns the global ranking.
// GET /v1/leaderboard?limit=
func (h *StatsHandler) Leaderboard(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	board, err := h.statsService.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		fail(c, err)
		return
	}
	response.Items(c, dto.FromLeaderboard(board), len(board))
}

// GroupLeaderboard returns the ranking inside one group.
// GET /v1/groups/:group_id/leaderboard?limit=
func (h *StatsHandler) GroupLeaderboard(c *gin.Context) {
	groupID, ok := parseInt64Param(c, "group_id")
	if !ok {
		return
	}
	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	board, err := h.statsService.GroupLeaderboard(c.Request.Context(), groupID, limit)
	if err != nil {
		fail(c, err)
		return
	}
	response.Items(c, dto.FromLeaderboard(board), len(board))
}

// UserStats returns one user's statistics.
// GET /v1/users/:user_id/stats
func (h *StatsHandler) UserStats(c *gin.Context) {
	userID, ok := parseInt64Param(c, "user_id")
	if !ok {
		return
	}
	stats, err := h.statsService.UserStats(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	response.OK(c, dto.FromStats(*stats))
}

func parseLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		response.ValidationError(c, "limit", "limit must be an integer", middleware.GetRequestID(c))
		return 0, false
	}
	return limit, true
}
