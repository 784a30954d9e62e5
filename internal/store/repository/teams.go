package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/fortuna/livescore/internal/store"
)

// TeamRepository handles team data access
type TeamRepository struct {
	db *store.Database
}

// NewTeamRepository creates a new team repository
func NewTeamRepository(db *store.Database) *TeamRepository {
	return &TeamRepository{db: db}
}

// GetTeamsByLeague returns a league's teams ordered by code.
func (r *TeamRepository) GetTeamsByLeague(ctx context.Context, league string) ([]store.Team, error) {
	query := `
		SELECT team_id, league, code, name, tracked, updated_at
		FROM teams
		WHERE league = $1
		ORDER BY code
	`
	return r.query(ctx, query, strings.ToUpper(league))
}

// ListTracked returns every team that is explicitly tracked or appears in
// any user's favorites. These are the teams that get a live job.
func (r *TeamRepository) ListTracked(ctx context.Context) ([]store.Team, error) {
	query := `
		SELECT t.team_id, t.league, t.code, t.name, t.tracked, t.updated_at
		FROM teams t
		WHERE t.tracked
			OR EXISTS (
				SELECT 1 FROM user_profiles u
				WHERE t.team_id = ANY(u.favorite_teams)
			)
		ORDER BY t.team_id
	`
	return r.query(ctx, query)
}

// Upsert inserts or renames a team. The tracked flag of an existing row is
// left alone.
func (r *TeamRepository) Upsert(ctx context.Context, t store.Team) error {
	query := `
		INSERT INTO teams (team_id, league, code, name, tracked)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (team_id) DO UPDATE SET
			name = EXCLUDED.name,
			updated_at = NOW()
	`
	_, err := r.db.DB().ExecContext(ctx, query, t.TeamID, t.League, t.Code, t.Name, t.Tracked)
	if err != nil {
		return fmt.Errorf("upserting team %s: %w", t.TeamID, err)
	}
	return nil
}

// SetTracked flips the tracked flag for a team.
func (r *TeamRepository) SetTracked(ctx context.Context, teamID string, tracked bool) error {
	res, err := r.db.DB().ExecContext(ctx,
		`UPDATE teams SET tracked = $2, updated_at = NOW() WHERE team_id = $1`, teamID, tracked)
	if err != nil {
		return fmt.Errorf("updating team %s: %w", teamID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("team %s: %w", teamID, store.ErrNotFound)
	}
	return nil
}

func (r *TeamRepository) query(ctx context.Context, query string, args ...any) ([]store.Team, error) {
	rows, err := r.db.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying teams: %w", err)
	}
	defer rows.Close()

	var teams []store.Team
	for rows.Next() {
		var t store.Team
		if err := rows.Scan(&t.TeamID, &t.League, &t.Code, &t.Name, &t.Tracked, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning team: %w", err)
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}
