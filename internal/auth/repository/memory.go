package repository

import (
	"context"
	"notevault/internal/auth/model"
	"sync"
	"time"
)

// MemoryUserRepository is the in-process counterpart of UserRepository.
type MemoryUserRepository struct {
	mu      sync.Mutex
	byEmail map[string]model.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{byEmail: make(map[string]model.User)}
}

func (r *MemoryUserRepository) Create(_ context.Context, u model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[u.Email]; ok {
		return ErrEmailTaken
	}
	u.CreatedAt = time.Now().UTC()
	r.byEmail[u.Email] = u
	return nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byEmail[email]
	if !ok {
		return model.User{}, ErrUserNotFound
	}
	return u, nil
}
