package usecase

import (
	"context"
	"log/slog"

	"mindscale/src/core/domain"
	"mindscale/src/core/ports"
)

const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
)

// StatsService serves leaderboards and per-user statistics.
type StatsService struct {
	repo ports.StatsReader
	log  *slog.Logger
}

func NewStatsService(repo ports.StatsReader, log *slog.Logger) *StatsService {
	return &StatsService{repo: repo, log: log}
}

// Leaderboard returns the global ranking.
func (s *StatsService) Leaderboard(ctx context.Context, limit int) ([]domain.PlayerStats, error) {
	board, err := s.repo.Leaderboard(ctx, clampLimit(limit))
	if err != nil {
		s.log.Error("failed to load leaderboard", "error", err)
		return nil, err
	}
	return board, nil
}

// GroupLeaderboard returns the ranking inside one group.
func (s *StatsService) GroupLeaderboard(ctx context.Context, groupID int64, limit int) ([]domain.PlayerStats, error) {
	if groupID == 0 {
		return nil, domain.NewValidationError("group_id", "must be set")
	}
	board, err := s.repo.GroupLeaderboard(ctx, groupID, clampLimit(limit))
	if err != nil {
		s.log.Error("failed to load group leaderboard", "group_id", groupID, "error", err)
		return nil, err
	}
	return board, nil
}

// UserStats returns one user's global statistics.
func (s *StatsService) UserStats(ctx context.Context, userID int64) (*domain.PlayerStats, error) {
	if userID == 0 {
		return nil, domain.NewValidationError("user_id", "must be set")
	}
	stats, err := s.repo.UserStats(ctx, userID)
	if err != nil {
		if !domain.IsNotFound(err) {
			s.log.Error("failed to load user stats", "user_id", userID, "error", err)
		}
		return nil, err
	}
	return stats, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLeaderboardLimit
	case limit > MaxLeaderboardLimit:
		return MaxLeaderboardLimit
	default:
		return limit
	}
}
