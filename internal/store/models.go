package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
)

var (
	// ErrDuplicate is returned when an insert collides with an existing key.
	ErrDuplicate = errors.New("store: duplicate key")
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("store: not found")
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// IsUniqueViolation reports whether err is a pq unique-key error.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// Team is a row of the teams table.
type Team struct {
	TeamID    string    `json:"team_id" db:"team_id"`
	League    string    `json:"league" db:"league"`
	Code      string    `json:"code" db:"code"`
	Name      string    `json:"name" db:"name"`
	Tracked   bool      `json:"tracked" db:"tracked"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// UserProfile is a row of the user_profiles table.
type UserProfile struct {
	UserID        string         `json:"user_id" db:"user_id"`
	DisplayName   sql.NullString `json:"display_name,omitempty" db:"display_name"`
	FavoriteTeams pq.StringArray `json:"favorite_teams" db:"favorite_teams"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`
}
