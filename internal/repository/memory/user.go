package memory

import (
	"context"
	"sync"
	"time"

	"github.com/mkarpenko/livetrack/internal/apperrors"
	"github.com/mkarpenko/livetrack/internal/models"
	"github.com/mkarpenko/livetrack/internal/repository"
)

type UserRepo struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]models.User
	byMail map[string]int64
}

func NewUserRepo() *UserRepo {
	return &UserRepo{
		nextID: 1,
		byID:   make(map[int64]models.User),
		byMail: make(map[string]int64),
	}
}

func (r *UserRepo) CreateUser(ctx context.Context, arg repository.CreateUserParams) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byMail[arg.Email]; ok {
		return models.User{}, apperrors.ErrUserAlreadyExists
	}

	user := models.User{
		ID:           r.nextID,
		CreatedAt:    time.Now(),
		Name:         arg.Name,
		Email:        arg.Email,
		Role:         arg.Role,
		PasswordHash: arg.PasswordHash,
	}
	r.nextID++

	r.byID[user.ID] = user
	r.byMail[user.Email] = user.ID

	return user, nil
}

func (r *UserRepo) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return models.User{}, apperrors.ErrUserNotFound
	}

	return user, nil
}

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byMail[email]
	if !ok {
		return models.User{}, apperrors.ErrUserNotFound
	}

	return r.byID[id], nil
}

// DeleteUser removes the user entirely. Tests use it to model identities
// that disappear while their refresh credentials are still outstanding.
func (r *UserRepo) DeleteUser(ctx context.Context, id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user, ok := r.byID[id]; ok {
		delete(r.byMail, user.Email)
		delete(r.byID, id)
	}
}
