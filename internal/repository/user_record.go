package repository

import (
	"time"

	"dailydevq/internal/domain"
)

// userRecord es la forma serializada del usuario en los stores clave-valor
// (Redis como JSON, DynamoDB como item). Los nombres de atributo son los de la tabla users existente.
type userRecord struct {
	ID                 string    `json:"id" dynamodbav:"id"`
	Email              string    `json:"email" dynamodbav:"email"`
	AuthProvider       string    `json:"auth_provider" dynamodbav:"auth_provider"`
	ExternalID         string    `json:"google_id,omitempty" dynamodbav:"google_id,omitempty"`
	DisplayName        *string   `json:"name,omitempty" dynamodbav:"name,omitempty"`
	AvatarURL          *string   `json:"profile_image,omitempty" dynamodbav:"profile_image,omitempty"`
	SubscriptionStatus string    `json:"subscription_status" dynamodbav:"subscription_status"`
	CreatedAt          time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

func toRecord(u domain.User) userRecord {
	return userRecord{
		ID:                 u.ID,
		Email:              u.Email,
		AuthProvider:       string(u.AuthProvider),
		ExternalID:         u.ExternalID,
		DisplayName:        u.DisplayName,
		AvatarURL:          u.AvatarURL,
		SubscriptionStatus: string(u.SubscriptionStatus),
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}

func (r userRecord) toDomain() domain.User {
	provider := domain.AuthProvider(r.AuthProvider)
	if provider == "" {
		provider = domain.AuthProviderEmail
	}
	status := domain.SubscriptionStatus(r.SubscriptionStatus)
	if status == "" {
		status = domain.SubscriptionActive
	}
	return domain.User{
		ID:                 r.ID,
		Email:              r.Email,
		AuthProvider:       provider,
		ExternalID:         r.ExternalID,
		DisplayName:        r.DisplayName,
		AvatarURL:          r.AvatarURL,
		SubscriptionStatus: status,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}
