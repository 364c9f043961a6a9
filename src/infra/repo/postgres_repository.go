package repo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"mindscale/src/core/domain"
	"mindscale/src/core/ports"
	"mindscale/src/infra/db"
)

var _ ports.ResultRepository = (*PostgresRepository)(nil)

// PostgresRepository implements ResultRepository using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewPostgresRepository constructs a repository backed by Postgres.
func NewPostgresRepository(pg *db.Postgres, log *slog.Logger) *PostgresRepository {
	return &PostgresRepository{
		pool: pg.Pool,
		log:  log,
	}
}

func (r *PostgresRepository) Health(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}

// Results

func (r *PostgresRepository) PersistGameResult(ctx context.Context, res domain.GameResult) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const insertGame = `
		INSERT INTO games (game_id, group_id, started_at, ended_at, rounds, aborted, winner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (game_id) DO NOTHING
	`
	tag, err := tx.Exec(ctx, insertGame,
		res.GameID.String(), res.GroupID, res.StartedAt, res.EndedAt, res.Rounds, res.Aborted, winnerID(res),
	)
	if err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	if tag.RowsAffected() == 0 {
		r.log.Debug("game result already recorded", "game_id", res.GameID)
		return nil
	}

	const upsertGroup = `
		INSERT INTO chat_groups (group_id, title, games_played, last_game_at)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (group_id)
		DO UPDATE SET
			title = COALESCE(NULLIF(EXCLUDED.title, ''), chat_groups.title),
			games_played = chat_groups.games_played + 1,
			last_game_at = EXCLUDED.last_game_at
	`
	if _, err := tx.Exec(ctx, upsertGroup, res.GroupID, res.GroupTitle, res.EndedAt); err != nil {
		return fmt.Errorf("upsert group: %w", err)
	}

	const upsertUser = `
		INSERT INTO users (user_id, first_name, username, games_played, wins, losses,
			rounds_played, eliminations, total_score, last_score, penalties, created_at, updated_at)
		VALUES ($1, $2, $3, 1, $4, $5, $6, $7, $8, $8, $9, $10, $10)
		ON CONFLICT (user_id)
		DO UPDATE SET
			first_name = COALESCE(NULLIF(EXCLUDED.first_name, ''), users.first_name),
			username = COALESCE(NULLIF(EXCLUDED.username, ''), users.username),
			games_played = users.games_played + 1,
			wins = users.wins + EXCLUDED.wins,
			losses = users.losses + EXCLUDED.losses,
			rounds_played = users.rounds_played + EXCLUDED.rounds_played,
			eliminations = users.eliminations + EXCLUDED.eliminations,
			total_score = users.total_score + EXCLUDED.total_score,
			last_score = EXCLUDED.last_score,
			penalties = users.penalties + EXCLUDED.penalties,
			updated_at = EXCLUDED.updated_at
	`
	const upsertMember = `
		INSERT INTO user_group_stats (user_id, group_id, first_name, username, games_played, wins, losses,
			rounds_played, eliminations, total_score, last_score, penalties, updated_at)
		VALUES ($1, $2, $3, $4, 1, $5, $6, $7, $8, $9, $9, $10, $11)
		ON CONFLICT (user_id, group_id)
		DO UPDATE SET
			first_name = COALESCE(NULLIF(EXCLUDED.first_name, ''), user_group_stats.first_name),
			username = COALESCE(NULLIF(EXCLUDED.username, ''), user_group_stats.username),
			games_played = user_group_stats.games_played + 1,
			wins = user_group_stats.wins + EXCLUDED.wins,
			losses = user_group_stats.losses + EXCLUDED.losses,
			rounds_played = user_group_stats.rounds_played + EXCLUDED.rounds_played,
			eliminations = user_group_stats.eliminations + EXCLUDED.eliminations,
			total_score = user_group_stats.total_score + EXCLUDED.total_score,
			last_score = EXCLUDED.last_score,
			penalties = user_group_stats.penalties + EXCLUDED.penalties,
			updated_at = EXCLUDED.updated_at
	`
	for _, p := range res.Players {
		c := countersFor(p)
		if _, err := tx.Exec(ctx, upsertUser,
			p.UserID, p.Name, p.Username, c.wins, c.losses, p.RoundsPlayed, c.eliminations, p.ScoreDelta, p.PenaltyDelta, res.EndedAt,
		); err != nil {
			return fmt.Errorf("upsert user %d: %w", p.UserID, err)
		}
		if _, err := tx.Exec(ctx, upsertMember,
			p.UserID, res.GroupID, p.Name, p.Username, c.wins, c.losses, p.RoundsPlayed, c.eliminations, p.ScoreDelta, p.PenaltyDelta, res.EndedAt,
		); err != nil {
			if isForeignKeyViolation(err) {
				return domain.NewNotFoundError("group")
			}
			return fmt.Errorf("upsert group stats %d: %w", p.UserID, err)
		}
	}

	return tx.Commit(ctx)
}

// Statistics

func (r *PostgresRepository) Leaderboard(ctx context.Context, limit int) ([]domain.PlayerStats, error) {
	const q = `
		SELECT user_id, 0, first_name, username, games_played, wins, losses, rounds_played,
			eliminations, total_score, last_score, penalties, updated_at
		FROM users
		WHERE games_played > 0
		ORDER BY wins DESC, total_score DESC, user_id
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	return collectStats(rows)
}

func (r *PostgresRepository) GroupLeaderboard(ctx context.Context, groupID int64, limit int) ([]domain.PlayerStats, error) {
	const q = `
		SELECT user_id, group_id, first_name, username, games_played, wins, losses, rounds_played,
			eliminations, total_score, last_score, penalties, updated_at
		FROM user_group_stats
		WHERE group_id = $1 AND games_played > 0
		ORDER BY wins DESC, total_score DESC, user_id
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, q, groupID, limit)
	if err != nil {
		return nil, err
	}
	return collectStats(rows)
}

func (r *PostgresRepository) UserStats(ctx context.Context, userID int64) (*domain.PlayerStats, error) {
	const q = `
		SELECT pos, user_id, first_name, username, games_played, wins, losses, rounds_played,
			eliminations, total_score, last_score, penalties, updated_at
		FROM (
			SELECT *, ROW_NUMBER() OVER (ORDER BY wins DESC, total_score DESC, user_id) AS pos
			FROM users
			WHERE games_played > 0
		) ranked
		WHERE user_id = $1
	`
	var s domain.PlayerStats
	var pos int64
	err := r.pool.QueryRow(ctx, q, userID).Scan(
		&pos, &s.UserID, &s.Name, &s.Username, &s.GamesPlayed, &s.Wins, &s.Losses, &s.RoundsPlayed,
		&s.Eliminations, &s.TotalScore, &s.LastScore, &s.Penalties, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("user stats")
		}
		return nil, err
	}
	s.Rank = int(pos)
	return &s, nil
}

func collectStats(rows pgx.Rows) ([]domain.PlayerStats, error) {
	defer rows.Close()
	var out []domain.PlayerStats
	for rows.Next() {
		var s domain.PlayerStats
		if err := rows.Scan(
			&s.UserID, &s.GroupID, &s.Name, &s.Username, &s.GamesPlayed, &s.Wins, &s.Losses, &s.RoundsPlayed,
			&s.Eliminations, &s.TotalScore, &s.LastScore, &s.Penalties, &s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		s.Rank = len(out) + 1
		out = append(out, s)
	}
	return out, rows.Err()
}
