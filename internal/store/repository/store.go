package repository

import "github.com/fortuna/livescore/internal/store"

// Store bundles the repositories behind the single store handle the ingest
// agent and scheduler depend on.
type Store struct {
	*GameRepository
	*TeamRepository
	*UserRepository
}

// New builds every repository over db.
func New(db *store.Database) *Store {
	return &Store{
		GameRepository: NewGameRepository(db),
		TeamRepository: NewTeamRepository(db),
		UserRepository: NewUserRepository(db),
	}
}
