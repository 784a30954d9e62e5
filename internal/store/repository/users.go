package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/fortuna/livescore/internal/store"
)

// UserRepository reads the user profiles the user-scoped ingest path needs.
type UserRepository struct {
	db *store.Database
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *store.Database) *UserRepository {
	return &UserRepository{db: db}
}

// GetUserProfile finds a profile by user ID.
func (r *UserRepository) GetUserProfile(ctx context.Context, userID string) (*store.UserProfile, error) {
	query := `
		SELECT user_id, display_name, favorite_teams, updated_at
		FROM user_profiles
		WHERE user_id = $1
	`

	p := &store.UserProfile{}
	err := r.db.DB().QueryRowContext(ctx, query, userID).Scan(
		&p.UserID, &p.DisplayName, &p.FavoriteTeams, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", userID, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying user profile: %w", err)
	}
	return p, nil
}

// SetFavoriteTeams replaces a user's favorites, creating the profile if needed.
func (r *UserRepository) SetFavoriteTeams(ctx context.Context, userID string, teamIDs []string) error {
	query := `
		INSERT INTO user_profiles (user_id, favorite_teams)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET
			favorite_teams = EXCLUDED.favorite_teams,
			updated_at = NOW()
	`
	if _, err := r.db.DB().ExecContext(ctx, query, userID, pq.Array(teamIDs)); err != nil {
		return fmt.Errorf("saving favorites for %s: %w", userID, err)
	}
	return nil
}
