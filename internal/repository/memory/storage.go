// Package memory holds in-memory repository implementations.
// They mirror the postgres contract exactly and exist for unit tests and
// local development without a database.
package memory

import (
	"github.com/mkarpenko/livetrack/internal/repository"
)

type Storage struct {
	users   *UserRepo
	refresh *RefreshTokenRepo
}

func NewStorage() *Storage {
	return &Storage{
		users:   NewUserRepo(),
		refresh: NewRefreshTokenRepo(),
	}
}

func (s *Storage) User() repository.UserRepo {
	return s.users
}

func (s *Storage) Refresh() repository.RefreshTokenRepo {
	return s.refresh
}

// Users exposes the concrete user repo with its test helpers
func (s *Storage) Users() *UserRepo {
	return s.users
}
