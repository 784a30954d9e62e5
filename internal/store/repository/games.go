package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fortuna/livescore/internal/scores"
	"github.com/fortuna/livescore/internal/store"
)

// GameRepository handles game data access
type GameRepository struct {
	db *store.Database
}

// NewGameRepository creates a new game repository
func NewGameRepository(db *store.Database) *GameRepository {
	return &GameRepository{db: db}
}

const gameColumns = `game_id, league, external_id, home_team_id, away_team_id,
	home_points, away_points, status, period, period_label, clock,
	start_time, source, cached_at`

// CreateGame inserts g. An existing game_id yields store.ErrDuplicate.
func (r *GameRepository) CreateGame(ctx context.Context, g scores.Game) error {
	query := `
		INSERT INTO games (` + gameColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.DB().ExecContext(ctx, query, gameArgs(g)...)
	if store.IsUniqueViolation(err) {
		return fmt.Errorf("creating game %s: %w", g.GameID, store.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("creating game %s: %w", g.GameID, err)
	}
	return nil
}

// UpdateGame overwrites the mutable fields of an existing game. The last
// writer wins.
func (r *GameRepository) UpdateGame(ctx context.Context, g scores.Game) error {
	query := `
		UPDATE games SET
			home_points = $2, away_points = $3, status = $4, period = $5,
			period_label = $6, clock = $7, start_time = $8, source = $9,
			cached_at = $10, updated_at = NOW()
		WHERE game_id = $1
	`

	res, err := r.db.DB().ExecContext(ctx, query,
		g.GameID, g.HomePoints, g.AwayPoints, string(g.Status),
		nullInt(g.Period), nullString(g.PeriodLabel), nullString(g.Clock),
		nullTime(g.StartTime), g.Source, g.CachedAt,
	)
	if err != nil {
		return fmt.Errorf("updating game %s: %w", g.GameID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("updating game %s: %w", g.GameID, store.ErrNotFound)
	}
	return nil
}

// GetGame finds a game by its game ID.
func (r *GameRepository) GetGame(ctx context.Context, gameID string) (*scores.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE game_id = $1`

	game, err := scanGame(r.db.DB().QueryRowContext(ctx, query, gameID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("game %s: %w", gameID, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying game: %w", err)
	}
	return game, nil
}

// ListByTeam returns a team's most recent games, newest start first.
func (r *GameRepository) ListByTeam(ctx context.Context, teamID string, limit int) ([]scores.Game, error) {
	query := `SELECT ` + gameColumns + `
		FROM games
		WHERE home_team_id = $1 OR away_team_id = $1
		ORDER BY start_time DESC NULLS LAST
		LIMIT $2
	`

	rows, err := r.db.DB().QueryContext(ctx, query, teamID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying team games: %w", err)
	}
	defer rows.Close()

	var games []scores.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning game: %w", err)
		}
		games = append(games, *g)
	}
	return games, rows.Err()
}

// DeleteFinishedBefore removes final games that started before cutoff.
func (r *GameRepository) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.DB().ExecContext(ctx,
		`DELETE FROM games WHERE status = 'final' AND start_time < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting finished games: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (*scores.Game, error) {
	var (
		g           scores.Game
		status      string
		externalID  sql.NullString
		period      sql.NullInt32
		periodLabel sql.NullString
		clock       sql.NullString
		startTime   sql.NullTime
	)
	err := row.Scan(
		&g.GameID, &g.League, &externalID, &g.HomeTeamID, &g.AwayTeamID,
		&g.HomePoints, &g.AwayPoints, &status, &period, &periodLabel, &clock,
		&startTime, &g.Source, &g.CachedAt,
	)
	if err != nil {
		return nil, err
	}

	g.Status = scores.Status(status)
	g.ExternalID = externalID.String
	g.Period = int(period.Int32)
	g.PeriodLabel = periodLabel.String
	g.Clock = clock.String
	if startTime.Valid {
		g.StartTime = startTime.Time
	}
	return &g, nil
}

func gameArgs(g scores.Game) []any {
	return []any{
		g.GameID, g.League, nullString(g.ExternalID), g.HomeTeamID, g.AwayTeamID,
		g.HomePoints, g.AwayPoints, string(g.Status), nullInt(g.Period),
		nullString(g.PeriodLabel), nullString(g.Clock), nullTime(g.StartTime),
		g.Source, g.CachedAt,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(n int) sql.NullInt32 {
	return sql.NullInt32{Int32: int32(n), Valid: n != 0}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
