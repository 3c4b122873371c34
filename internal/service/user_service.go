package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"dailydevq/internal/domain"
	"dailydevq/internal/email"
	"dailydevq/internal/metrics"
	"dailydevq/internal/repository"
)

var (
	ErrInvalidEmail = errors.New("invalid email")
	// ErrPersistence envuelve cualquier falla del store. Los handlers solo
	// exponen un mensaje generico; la causa queda para los logs.
	ErrPersistence = errors.New("user store failure")
)

const welcomeTimeout = 5 * time.Second

// UserService es el directorio de usuarios: reconcilia emails con registros.
type UserService struct {
	logger      *zap.Logger
	users       repository.UserRepository
	emailSender email.Sender
	metrics     metrics.Recorder
	validate    *validator.Validate
	now         func() time.Time
}

func NewUserService(logger *zap.Logger, users repository.UserRepository, emailSender email.Sender, recorder metrics.Recorder) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &UserService{
		logger:      logger,
		users:       users,
		emailSender: emailSender,
		metrics:     recorder,
		validate:    validator.New(),
		now:         time.Now,
	}
}

// UpsertInput son los datos de un alta por email o por login externo.
type UpsertInput struct {
	Email        string
	AuthProvider domain.AuthProvider
	ExternalID   string
	DisplayName  *string
	AvatarURL    *string
}

// UpsertResult indica que rama tomó UpsertByEmail.
type UpsertResult struct {
	User        domain.User
	Created     bool
	Reactivated bool
}

// UpsertByEmail crea el usuario si el email no existe, reactiva uno dado de baja,
// o devuelve el existente sin escribir. Los datos de perfil nuevos no se mezclan
// con un registro existente.
func (s *UserService) UpsertByEmail(ctx context.Context, in UpsertInput) (UpsertResult, error) {
	emailAddr := normalizeEmail(in.Email)
	if err := s.validate.Var(emailAddr, "required,email"); err != nil {
		return UpsertResult{}, ErrInvalidEmail
	}
	provider := in.AuthProvider
	if !provider.Valid() {
		provider = domain.AuthProviderEmail
	}

	existing, err := s.users.GetByEmail(ctx, emailAddr)
	if err == nil {
		return s.reconcile(ctx, existing)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return UpsertResult{}, persistenceErr("get user by email", err)
	}

	now := s.now().UTC()
	user := domain.User{
		ID:                 uuid.NewString(),
		Email:              emailAddr,
		AuthProvider:       provider,
		ExternalID:         strings.TrimSpace(in.ExternalID),
		DisplayName:        trimmedOrNil(in.DisplayName),
		AvatarURL:          trimmedOrNil(in.AvatarURL),
		SubscriptionStatus: domain.SubscriptionActive,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	err = s.users.Create(ctx, user)
	if errors.Is(err, repository.ErrEmailTaken) {
		// otro request creó el email entre la lectura y la escritura
		s.logger.Debug("concurrent create detected", zap.String("email", emailAddr))
		existing, err := s.users.GetByEmail(ctx, emailAddr)
		if err != nil {
			return UpsertResult{}, persistenceErr("reload user after conflict", err)
		}
		return s.reconcile(ctx, existing)
	}
	if err != nil {
		return UpsertResult{}, persistenceErr("create user", err)
	}

	s.metrics.RecordUserCreated(string(provider))
	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("provider", string(provider)))
	s.sendWelcome(ctx, user)
	return UpsertResult{User: user, Created: true}, nil
}

func (s *UserService) reconcile(ctx context.Context, user domain.User) (UpsertResult, error) {
	if user.SubscriptionStatus != domain.SubscriptionUnsubscribed {
		return UpsertResult{User: user}, nil
	}

	user.SubscriptionStatus = domain.SubscriptionActive
	user.Touch(s.now().UTC())
	if err := s.users.Update(ctx, user); err != nil {
		return UpsertResult{}, persistenceErr("reactivate user", err)
	}

	s.metrics.RecordReactivated()
	s.logger.Info("subscription reactivated", zap.String("user_id", user.ID))
	s.sendWelcome(ctx, user)
	return UpsertResult{User: user, Reactivated: true}, nil
}

// GetByEmail devuelve false sin error cuando el email no existe.
func (s *UserService) GetByEmail(ctx context.Context, emailAddr string) (domain.User, bool, error) {
	return s.lookup(s.users.GetByEmail(ctx, normalizeEmail(emailAddr)))
}

// GetByExternalID busca por el id del proveedor externo.
func (s *UserService) GetByExternalID(ctx context.Context, externalID string) (domain.User, bool, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return domain.User{}, false, nil
	}
	return s.lookup(s.users.GetByExternalID(ctx, externalID))
}

func (s *UserService) GetByID(ctx context.Context, id string) (domain.User, bool, error) {
	return s.lookup(s.users.GetByID(ctx, strings.TrimSpace(id)))
}

func (s *UserService) lookup(user domain.User, err error) (domain.User, bool, error) {
	if errors.Is(err, repository.ErrNotFound) {
		return domain.User{}, false, nil
	}
	if err != nil {
		return domain.User{}, false, persistenceErr("get user", err)
	}
	return user, true, nil
}

// SetUnsubscribed da de baja el email. Devuelve false si no existe, sin escribir.
func (s *UserService) SetUnsubscribed(ctx context.Context, emailAddr string) (bool, error) {
	user, found, err := s.GetByEmail(ctx, emailAddr)
	if err != nil || !found {
		return false, err
	}

	wasSubscribed := user.SubscriptionStatus != domain.SubscriptionUnsubscribed
	user.SubscriptionStatus = domain.SubscriptionUnsubscribed
	user.Touch(s.now().UTC())
	if err := s.users.Update(ctx, user); err != nil {
		return false, persistenceErr("unsubscribe user", err)
	}

	if wasSubscribed {
		s.metrics.RecordUnsubscribed()
	}
	s.logger.Info("user unsubscribed", zap.String("user_id", user.ID))
	return true, nil
}

func (s *UserService) sendWelcome(ctx context.Context, user domain.User) {
	if s.emailSender == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, welcomeTimeout)
	defer cancel()

	name := ""
	if user.DisplayName != nil {
		name = *user.DisplayName
	}
	if err := s.emailSender.SendWelcome(ctx, user.Email, name); err != nil {
		s.logger.Warn("send welcome email failed", zap.Error(err), zap.String("user_id", user.ID))
	}
}

func persistenceErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
