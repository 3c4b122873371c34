package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"dailydevq/internal/domain"
)

// redisKV es el subconjunto de comandos de Redis que usa el repositorio.
type redisKV interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisUserRepository guarda cada usuario como JSON bajo user:{id} y mantiene
// los indices user:email:{email} y user:ext:{externalID} apuntando al id.
type RedisUserRepository struct {
	client redisKV
	prefix string
}

func NewRedisUserRepository(client *redis.Client, prefix string) *RedisUserRepository {
	return &RedisUserRepository{client: client, prefix: prefix}
}

func (r *RedisUserRepository) userKey(id string) string      { return r.prefix + "user:" + id }
func (r *RedisUserRepository) emailKey(email string) string  { return r.prefix + "user:email:" + email }
func (r *RedisUserRepository) externalKey(ext string) string { return r.prefix + "user:ext:" + ext }

func (r *RedisUserRepository) Create(ctx context.Context, user domain.User) error {
	payload, err := json.Marshal(toRecord(user))
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	// el registro se escribe antes de reclamar el email: quien lea el indice
	// siempre encuentra user:{id}
	userKey := r.userKey(user.ID)
	if err := r.client.Set(ctx, userKey, payload, 0).Err(); err != nil {
		return fmt.Errorf("write user: %w", err)
	}

	emailKey := r.emailKey(user.Email)
	claimed, err := r.client.SetNX(ctx, emailKey, user.ID, 0).Result()
	if err != nil {
		_ = r.client.Del(ctx, userKey).Err()
		return fmt.Errorf("claim email: %w", err)
	}
	if !claimed {
		_ = r.client.Del(ctx, userKey).Err()
		return ErrEmailTaken
	}

	if user.ExternalID != "" {
		if err := r.client.SetNX(ctx, r.externalKey(user.ExternalID), user.ID, 0).Err(); err != nil {
			_ = r.client.Del(ctx, emailKey, userKey).Err()
			return fmt.Errorf("index external id: %w", err)
		}
	}
	return nil
}

func (r *RedisUserRepository) Update(ctx context.Context, user domain.User) error {
	prev, err := r.GetByID(ctx, user.ID)
	if err != nil {
		return err
	}

	if prev.Email != user.Email {
		claimed, err := r.client.SetNX(ctx, r.emailKey(user.Email), user.ID, 0).Result()
		if err != nil {
			return fmt.Errorf("claim email: %w", err)
		}
		if !claimed {
			return ErrEmailTaken
		}
	}

	payload, err := json.Marshal(toRecord(user))
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := r.client.Set(ctx, r.userKey(user.ID), payload, 0).Err(); err != nil {
		return fmt.Errorf("write user: %w", err)
	}

	if prev.Email != user.Email {
		if err := r.client.Del(ctx, r.emailKey(prev.Email)).Err(); err != nil {
			return fmt.Errorf("release email: %w", err)
		}
	}
	if user.ExternalID != "" && prev.ExternalID != user.ExternalID {
		if err := r.client.Set(ctx, r.externalKey(user.ExternalID), user.ID, 0).Err(); err != nil {
			return fmt.Errorf("index external id: %w", err)
		}
	}
	return nil
}

func (r *RedisUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	raw, err := r.client.Get(ctx, r.userKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.User{}, ErrNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("read user: %w", err)
	}
	var rec userRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.User{}, fmt.Errorf("decode user: %w", err)
	}
	return rec.toDomain(), nil
}

func (r *RedisUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.lookup(ctx, r.emailKey(email))
}

func (r *RedisUserRepository) GetByExternalID(ctx context.Context, externalID string) (domain.User, error) {
	return r.lookup(ctx, r.externalKey(externalID))
}

func (r *RedisUserRepository) lookup(ctx context.Context, indexKey string) (domain.User, error) {
	id, err := r.client.Get(ctx, indexKey).Result()
	if errors.Is(err, redis.Nil) {
		return domain.User{}, ErrNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("read index: %w", err)
	}
	return r.GetByID(ctx, id)
}
