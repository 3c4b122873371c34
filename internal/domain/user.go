package domain

import "time"

// AuthProvider identifica el origen de la cuenta.
type AuthProvider string

const (
	AuthProviderEmail  AuthProvider = "email"
	AuthProviderGoogle AuthProvider = "google"
)

// Valid indica si el proveedor es uno de los soportados.
func (p AuthProvider) Valid() bool {
	return p == AuthProviderEmail || p == AuthProviderGoogle
}

// SubscriptionStatus representa el estado de suscripcion al newsletter.
type SubscriptionStatus string

const (
	SubscriptionActive       SubscriptionStatus = "active"
	SubscriptionInactive     SubscriptionStatus = "inactive" // reservado, ninguna operacion transiciona a este estado
	SubscriptionUnsubscribed SubscriptionStatus = "unsubscribed"
)

// User es la unica entidad del directorio. El email es unico entre usuarios.
type User struct {
	ID                 string             `json:"id"`
	Email              string             `json:"email"`
	AuthProvider       AuthProvider       `json:"auth_provider"`
	ExternalID         string             `json:"-"`
	DisplayName        *string            `json:"name"`
	AvatarURL          *string            `json:"profile_image"`
	SubscriptionStatus SubscriptionStatus `json:"subscription_status"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// IsSubscribed es verdadero solo para suscripciones activas.
func (u User) IsSubscribed() bool {
	return u.SubscriptionStatus == SubscriptionActive
}

// Touch actualiza UpdatedAt sin retroceder respecto de CreatedAt.
func (u *User) Touch(now time.Time) {
	if now.Before(u.CreatedAt) {
		now = u.CreatedAt
	}
	u.UpdatedAt = now
}
