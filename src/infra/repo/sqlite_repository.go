package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mindscale/src/core/domain"
	"mindscale/src/core/ports"
	"mindscale/src/infra/db"
)

var _ ports.ResultRepository = (*SQLiteRepository)(nil)

// SQLiteRepository implements ResultRepository on a single sqlite file.
type SQLiteRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewSQLiteRepository constructs a repository backed by sqlite.
func NewSQLiteRepository(s *db.SQLite, log *slog.Logger) *SQLiteRepository {
	return &SQLiteRepository{db: s.DB, log: log}
}

func (r *SQLiteRepository) Health(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func (r *SQLiteRepository) PersistGameResult(ctx context.Context, res domain.GameResult) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	ended := toMillis(res.EndedAt)

	const insertGame = `
		INSERT INTO games (game_id, group_id, started_at, ended_at, rounds, aborted, winner_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (game_id) DO NOTHING
	`
	out, err := tx.ExecContext(ctx, insertGame,
		res.GameID.String(), res.GroupID, toMillis(res.StartedAt), ended, res.Rounds, res.Aborted, winnerID(res),
	)
	if err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	if n, err := out.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		r.log.Debug("game result already recorded", "game_id", res.GameID)
		return nil
	}

	const upsertGroup = `
		INSERT INTO chat_groups (group_id, title, games_played, last_game_at, created_at)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT (group_id)
		DO UPDATE SET
			title = COALESCE(NULLIF(excluded.title, ''), chat_groups.title),
			games_played = chat_groups.games_played + 1,
			last_game_at = excluded.last_game_at
	`
	if _, err := tx.ExecContext(ctx, upsertGroup, res.GroupID, res.GroupTitle, ended, ended); err != nil {
		return fmt.Errorf("upsert group: %w", err)
	}

	const upsertUser = `
		INSERT INTO users (user_id, first_name, username, games_played, wins, losses,
			rounds_played, eliminations, total_score, last_score, penalties, created_at, updated_at)
		VALUES (?1, ?2, ?3, 1, ?4, ?5, ?6, ?7, ?8, ?8, ?9, ?10, ?10)
		ON CONFLICT (user_id)
		DO UPDATE SET
			first_name = COALESCE(NULLIF(excluded.first_name, ''), users.first_name),
			username = COALESCE(NULLIF(excluded.username, ''), users.username),
			games_played = users.games_played + 1,
			wins = users.wins + excluded.wins,
			losses = users.losses + excluded.losses,
			rounds_played = users.rounds_played + excluded.rounds_played,
			eliminations = users.eliminations + excluded.eliminations,
			total_score = users.total_score + excluded.total_score,
			last_score = excluded.last_score,
			penalties = users.penalties + excluded.penalties,
			updated_at = excluded.updated_at
	`
	const upsertMember = `
		INSERT INTO user_group_stats (user_id, group_id, first_name, username, games_played, wins, losses,
			rounds_played, eliminations, total_score, last_score, penalties, updated_at)
		VALUES (?1, ?2, ?3, ?4, 1, ?5, ?6, ?7, ?8, ?9, ?9, ?10, ?11)
		ON CONFLICT (user_id, group_id)
		DO UPDATE SET
			first_name = COALESCE(NULLIF(excluded.first_name, ''), user_group_stats.first_name),
			username = COALESCE(NULLIF(excluded.username, ''), user_group_stats.username),
			games_played = user_group_stats.games_played + 1,
			wins = user_group_stats.wins + excluded.wins,
			losses = user_group_stats.losses + excluded.losses,
			rounds_played = user_group_stats.rounds_played + excluded.rounds_played,
			eliminations = user_group_stats.eliminations + excluded.eliminations,
			total_score = user_group_stats.total_score + excluded.total_score,
			last_score = excluded.last_score,
			penalties = user_group_stats.penalties + excluded.penalties,
			updated_at = excluded.updated_at
	`
	for _, p := range res.Players {
		c := countersFor(p)
		if _, err := tx.ExecContext(ctx, upsertUser,
			p.UserID, p.Name, p.Username, c.wins, c.losses, p.RoundsPlayed, c.eliminations, p.ScoreDelta, p.PenaltyDelta, ended,
		); err != nil {
			return fmt.Errorf("upsert user %d: %w", p.UserID, err)
		}
		if _, err := tx.ExecContext(ctx, upsertMember,
			p.UserID, res.GroupID, p.Name, p.Username, c.wins, c.losses, p.RoundsPlayed, c.eliminations, p.ScoreDelta, p.PenaltyDelta, ended,
		); err != nil {
			return fmt.Errorf("upsert group stats %d: %w", p.UserID, err)
		}
	}

	return tx.Commit()
}

func (r *SQLiteRepository) Leaderboard(ctx context.Context, limit int) ([]domain.PlayerStats, error) {
	const q = `
		SELECT user_id, 0, first_name, username, games_played, wins, losses, rounds_played,
			eliminations, total_score, last_score, penalties, updated_at
		FROM users
		WHERE games_played > 0
		ORDER BY wins DESC, total_score DESC, user_id
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	return scanStatsRows(rows)
}

func (r *SQLiteRepository) GroupLeaderboard(ctx context.Context, groupID int64, limit int) ([]domain.PlayerStats, error) {
	const q = `
		SELECT user_id, group_id, first_name, username, games_played, wins, losses, rounds_played,
			eliminations, total_score, last_score, penalties, updated_at
		FROM user_group_stats
		WHERE group_id = ? AND games_played > 0
		ORDER BY wins DESC, total_score DESC, user_id
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, q, groupID, limit)
	if err != nil {
		return nil, err
	}
	return scanStatsRows(rows)
}

func (r *SQLiteRepository) UserStats(ctx context.Context, userID int64) (*domain.PlayerStats, error) {
	const q = `
		SELECT pos, user_id, first_name, username, games_played, wins, losses, rounds_played,
			eliminations, total_score, last_score, penalties, updated_at
		FROM (
			SELECT *, ROW_NUMBER() OVER (ORDER BY wins DESC, total_score DESC, user_id) AS pos
			FROM users
			WHERE games_played > 0
		)
		WHERE user_id = ?
	`
	var (
		s       domain.PlayerStats
		pos     int64
		updated int64
	)
	err := r.db.QueryRowContext(ctx, q, userID).Scan(
		&pos, &s.UserID, &s.Name, &s.Username, &s.GamesPlayed, &s.Wins, &s.Losses, &s.RoundsPlayed,
		&s.Eliminations, &s.TotalScore, &s.LastScore, &s.Penalties, &updated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("user stats")
		}
		return nil, err
	}
	s.Rank = int(pos)
	s.UpdatedAt = fromMillis(updated)
	return &s, nil
}

func scanStatsRows(rows *sql.Rows) ([]domain.PlayerStats, error) {
	defer rows.Close()
	var out []domain.PlayerStats
	for rows.Next() {
		var (
			s       domain.PlayerStats
			updated int64
		)
		if err := rows.Scan(
			&s.UserID, &s.GroupID, &s.Name, &s.Username, &s.GamesPlayed, &s.Wins, &s.Losses, &s.RoundsPlayed,
			&s.Eliminations, &s.TotalScore, &s.LastScore, &s.Penalties, &updated,
		); err != nil {
			return nil, err
		}
		s.UpdatedAt = fromMillis(updated)
		s.Rank = len(out) + 1
		out = append(out, s)
	}
	return out, rows.Err()
}
