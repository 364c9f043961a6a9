package usecase

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindscale/src/core/domain"
)

type fakeStats struct {
	limits []int
	group  int64
	err    error
}

func (f *fakeStats) Leaderboard(_ context.Context, limit int) ([]domain.PlayerStats, error) {
	f.limits = append(f.limits, limit)
	return []domain.PlayerStats{{Rank: 1, UserID: 7}}, f.err
}

func (f *fakeStats) GroupLeaderboard(_ context.Context, groupID int64, limit int) ([]domain.PlayerStats, error) {
	f.group = groupID
	f.limits = append(f.limits, limit)
	return nil, f.err
}

func (f *fakeStats) UserStats(_ context.Context, userID int64) (*domain.PlayerStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	if userID != 7 {
		return nil, domain.NewNotFoundError("user stats")
	}
	return &domain.PlayerStats{Rank: 1, UserID: 7}, nil
}

type probe struct{ err error }

func (p probe) Health(context.Context) error { return p.err }

type counter int

func (c counter) ActiveCount() int { return int(c) }

func discard() *slog.Logger { return slog.New(slog.DiscardHandler) }

func TestStatsServiceClampsLimit(t *testing.T) {
	repo := &fakeStats{}
	svc := NewStatsService(repo, discard())
	ctx := context.Background()

	for _, limit := range []int{0, -5, 25, 1000} {
		_, err := svc.Leaderboard(ctx, limit)
		require.NoError(t, err)
	}
	assert.Equal(t, []int{10, 10, 25, 100}, repo.limits)

	_, err := svc.GroupLeaderboard(ctx, -100, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(-100), repo.group)
	assert.Equal(t, 3, repo.limits[len(repo.limits)-1])
}

func TestStatsServiceValidation(t *testing.T) {
	svc := NewStatsService(&fakeStats{}, discard())
	ctx := context.Background()

	_, err := svc.GroupLeaderboard(ctx, 0, 10)
	assert.True(t, domain.IsValidationError(err))

	_, err = svc.UserStats(ctx, 0)
	assert.True(t, domain.IsValidationError(err))

	_, err = svc.UserStats(ctx, 8)
	assert.True(t, domain.IsNotFound(err))

	stats, err := svc.UserStats(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), stats.UserID)
}

func TestStatsServicePassesRepositoryErrors(t *testing.T) {
	boom := errors.New("db down")
	svc := NewStatsService(&fakeStats{err: boom}, discard())

	_, err := svc.Leaderboard(context.Background(), 5)
	assert.ErrorIs(t, err, boom)
	_, err = svc.UserStats(context.Background(), 7)
	assert.ErrorIs(t, err, boom)
}

func TestHealthService(t *testing.T) {
	ctx := context.Background()

	ok := NewHealthService(probe{}, probe{}, counter(2), discard()).Check(ctx)
	assert.Equal(t, "ok", ok.Status)
	assert.Equal(t, "healthy", ok.Components["database"].Status)
	assert.Equal(t, "healthy", ok.Components["notifications"].Status)
	assert.Equal(t, "2 active games", ok.Components["engine"].Message)

	bad := NewHealthService(probe{err: errors.New("unreachable")}, nil, nil, discard()).Check(ctx)
	assert.Equal(t, "degraded", bad.Status)
	assert.Equal(t, "unhealthy", bad.Components["database"].Status)
	assert.Equal(t, "unreachable", bad.Components["database"].Message)
	assert.NotContains(t, bad.Components, "notifications")
}
