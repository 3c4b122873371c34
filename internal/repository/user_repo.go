package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"dailydevq/internal/domain"
)

var (
	// ErrNotFound indica que no existe un usuario para la clave consultada.
	ErrNotFound = errors.New("user not found")
	// ErrEmailTaken indica que otro registro ya posee el email.
	ErrEmailTaken = errors.New("email already registered")
)

// UserRepository define el contrato de persistencia para usuarios.
// Create debe ser condicional sobre la unicidad del email.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	Update(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByExternalID(ctx context.Context, externalID string) (domain.User, error)
}

// pgQuerier es la parte de pgxpool.Pool que usa el repositorio.
type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// codigo SQLSTATE de unique_violation
const pgUniqueViolation = "23505"

// PgUserRepository implementa UserRepository usando pgxpool.
type PgUserRepository struct {
	pool pgQuerier
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

const userColumns = `id, email, auth_provider, external_id, display_name, avatar_url, subscription_status, created_at, updated_at`

func (r *PgUserRepository) Create(ctx context.Context, user domain.User) error {
	const query = `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (email) DO NOTHING
	`
	tag, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		string(user.AuthProvider),
		nullableString(user.ExternalID),
		user.DisplayName,
		user.AvatarURL,
		string(user.SubscriptionStatus),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEmailTaken
	}
	return nil
}

func (r *PgUserRepository) Update(ctx context.Context, user domain.User) error {
	const query = `
		UPDATE users
		SET email = $2, auth_provider = $3, external_id = $4, display_name = $5,
		    avatar_url = $6, subscription_status = $7, updated_at = $8
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		string(user.AuthProvider),
		nullableString(user.ExternalID),
		user.DisplayName,
		user.AvatarURL,
		string(user.SubscriptionStatus),
		user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrEmailTaken
		}
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *PgUserRepository) GetByExternalID(ctx context.Context, externalID string) (domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE external_id = $1 ORDER BY created_at LIMIT 1`, externalID)
}

func (r *PgUserRepository) getOne(ctx context.Context, query string, arg any) (domain.User, error) {
	var (
		u          domain.User
		provider   string
		status     string
		externalID *string
	)
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&u.ID,
		&u.Email,
		&provider,
		&externalID,
		&u.DisplayName,
		&u.AvatarURL,
		&status,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, ErrNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("select user: %w", err)
	}
	u.AuthProvider = domain.AuthProvider(provider)
	u.SubscriptionStatus = domain.SubscriptionStatus(status)
	if externalID != nil {
		u.ExternalID = *externalID
	}
	return u, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
