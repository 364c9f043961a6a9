// Package ports defines interfaces (ports) that connect core domain to infrastructure.
// These interfaces follow the ports and adapters (hexagonal) architecture pattern.
//
// Ports are defined here in the core layer, while implementations (adapters)
// live in src/infra. This ensures the core has no dependency on infrastructure.
package ports

import (
	"context"

	"mindscale/src/core/domain"
)

// Repository is the base interface for all repositories.
// Concrete repositories should embed this and add entity-specific methods.
type Repository interface {
	// Health checks if the underlying storage is reachable.
	Health(ctx context.Context) error
}

// ResultRecorder receives finished games from the engine.
type ResultRecorder interface {
	// PersistGameResult folds one finished game into the stored statistics.
	//
	// Implementation detail: must be atomic and idempotent on GameID.
	PersistGameResult(ctx context.Context, result domain.GameResult) error
}

// StatsReader serves the accumulated statistics.
type StatsReader interface {
	// Leaderboard ranks users across every group by wins, then total score.
	Leaderboard(ctx context.Context, limit int) ([]domain.PlayerStats, error)
	// GroupLeaderboard ranks users within one group.
	GroupLeaderboard(ctx context.Context, groupID int64, limit int) ([]domain.PlayerStats, error)
	// UserStats returns the global statistics of one user with its rank.
	// It returns domain.ErrNotFound for users that never finished a game.
	UserStats(ctx context.Context, userID int64) (*domain.PlayerStats, error)
}

// ResultRepository is the composite statistics store.
type ResultRepository interface {
	Repository
	ResultRecorder
	StatsReader
}
