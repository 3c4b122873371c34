package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"dailydevq/internal/domain"
)

func newUser(id, email string) domain.User {
	now := time.Date(2025, 1, 1, 7, 0, 0, 0, time.UTC)
	return domain.User{
		ID:                 id,
		Email:              email,
		AuthProvider:       domain.AuthProviderEmail,
		SubscriptionStatus: domain.SubscriptionActive,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func TestMemoryUserRepository_CreateAndLookup(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()
	user := newUser("u1", "alice@example.com")
	user.ExternalID = "g-1"

	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetByEmail(ctx, "alice@example.com")
	if err != nil || got.ID != "u1" {
		t.Fatalf("get by email: %+v, %v", got, err)
	}
	got, err = repo.GetByExternalID(ctx, "g-1")
	if err != nil || got.ID != "u1" {
		t.Fatalf("get by external id: %+v, %v", got, err)
	}
	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryUserRepository_CreateRejectsDuplicateEmail(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	if err := repo.Create(ctx, newUser("u1", "alice@example.com")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(ctx, newUser("u2", "alice@example.com")); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if repo.Len() != 1 {
		t.Fatalf("expected 1 user, got %d", repo.Len())
	}
}

func TestMemoryUserRepository_ConcurrentCreateSingleWinner(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := repo.Create(ctx, newUser(string(rune('a'+i)), "race@example.com"))
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if success != 1 || repo.Len() != 1 {
		t.Fatalf("expected exactly one winner, got success=%d len=%d", success, repo.Len())
	}
}

func TestMemoryUserRepository_UpdateMissing(t *testing.T) {
	repo := NewMemoryUserRepository()
	if err := repo.Update(context.Background(), newUser("nope", "x@example.com")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryUserRepository_UpdateKeepsIndexes(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()
	user := newUser("u1", "alice@example.com")
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("create: %v", err)
	}

	user.SubscriptionStatus = domain.SubscriptionUnsubscribed
	user.ExternalID = "g-9"
	if err := repo.Update(ctx, user); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := repo.GetByEmail(ctx, "alice@example.com")
	if err != nil || got.SubscriptionStatus != domain.SubscriptionUnsubscribed {
		t.Fatalf("unexpected user after update: %+v, %v", got, err)
	}
	if got, err := repo.GetByExternalID(ctx, "g-9"); err != nil || got.ID != "u1" {
		t.Fatalf("expected external index updated: %+v, %v", got, err)
	}
}
