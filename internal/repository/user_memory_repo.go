package repository

import (
	"context"
	"sync"

	"dailydevq/internal/domain"
)

// MemoryUserRepository guarda usuarios en memoria. Pensado para desarrollo y tests.
type MemoryUserRepository struct {
	mu           sync.RWMutex
	byID         map[string]domain.User
	byEmail      map[string]string
	byExternalID map[string]string
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:         make(map[string]domain.User),
		byEmail:      make(map[string]string),
		byExternalID: make(map[string]string),
	}
}

func (r *MemoryUserRepository) Create(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[user.Email]; ok {
		return ErrEmailTaken
	}
	r.byID[user.ID] = user
	r.byEmail[user.Email] = user.ID
	if user.ExternalID != "" {
		if _, ok := r.byExternalID[user.ExternalID]; !ok {
			r.byExternalID[user.ExternalID] = user.ID
		}
	}
	return nil
}

func (r *MemoryUserRepository) Update(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.byID[user.ID]
	if !ok {
		return ErrNotFound
	}
	if prev.Email != user.Email {
		if owner, taken := r.byEmail[user.Email]; taken && owner != user.ID {
			return ErrEmailTaken
		}
		delete(r.byEmail, prev.Email)
		r.byEmail[user.Email] = user.ID
	}
	if prev.ExternalID != user.ExternalID {
		if r.byExternalID[prev.ExternalID] == user.ID {
			delete(r.byExternalID, prev.ExternalID)
		}
		if user.ExternalID != "" {
			r.byExternalID[user.ExternalID] = user.ID
		}
	}
	r.byID[user.ID] = user
	return nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byID[id]
	if !ok {
		return domain.User{}, ErrNotFound
	}
	return user, nil
}

func (r *MemoryUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	r.mu.RLock()
	id, ok := r.byEmail[email]
	r.mu.RUnlock()
	if !ok {
		return domain.User{}, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *MemoryUserRepository) GetByExternalID(ctx context.Context, externalID string) (domain.User, error) {
	r.mu.RLock()
	id, ok := r.byExternalID[externalID]
	r.mu.RUnlock()
	if !ok {
		return domain.User{}, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// Len devuelve la cantidad de usuarios guardados.
func (r *MemoryUserRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
