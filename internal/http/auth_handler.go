package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dailydevq/internal/domain"
	"dailydevq/internal/google"
	"dailydevq/internal/metrics"
	"dailydevq/internal/service"
)

// IdentityResolver canjea un codigo de autorizacion por un perfil verificado.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, code, redirectURI string) (google.Profile, bool)
}

// AuthHandler mantiene dependencias para endpoints de autenticacion.
type AuthHandler struct {
	logger   *zap.Logger
	identity IdentityResolver
	userServ *service.UserService
	jwtServ  *service.JWTService
	metrics  metrics.Recorder
}

func NewAuthHandler(logger *zap.Logger, identity IdentityResolver, userServ *service.UserService, jwtServ *service.JWTService, recorder metrics.Recorder) *AuthHandler {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &AuthHandler{
		logger:   logger,
		identity: identity,
		userServ: userServ,
		jwtServ:  jwtServ,
		metrics:  recorder,
	}
}

// GoogleLogin maneja POST /auth/google.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var req struct {
		Code        string `json:"code" binding:"required"`
		RedirectURI string `json:"redirect_uri"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid google login request", zap.Error(err))
		errorResponse(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	profile, ok := h.identity.ResolveIdentity(c.Request.Context(), req.Code, req.RedirectURI)
	if !ok {
		h.metrics.RecordLogin("rejected")
		errorResponse(c, http.StatusBadRequest, "Google authentication failed. The code is invalid.")
		return
	}
	if !profile.EmailVerified {
		h.metrics.RecordLogin("rejected")
		h.logger.Warn("google login with unverified email", zap.String("external_id", profile.ExternalID))
		errorResponse(c, http.StatusBadRequest, "Google account email is not verified")
		return
	}

	res, err := h.userServ.UpsertByEmail(c.Request.Context(), service.UpsertInput{
		Email:        profile.Email,
		AuthProvider: domain.AuthProviderGoogle,
		ExternalID:   profile.ExternalID,
		DisplayName:  &profile.DisplayName,
		AvatarURL:    &profile.AvatarURL,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidEmail) {
			h.metrics.RecordLogin("rejected")
			errorResponse(c, http.StatusBadRequest, msgInvalidEmail)
			return
		}
		h.metrics.RecordLogin("error")
		h.logger.Error("google login upsert failed", zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, "an error occurred during Google authentication")
		return
	}

	token, err := h.jwtServ.Issue(res.User.ID)
	if err != nil {
		h.metrics.RecordLogin("error")
		h.logger.Error("jwt issue failed", zap.Error(err), zap.String("user_id", res.User.ID))
		errorResponse(c, http.StatusInternalServerError, "an error occurred during Google authentication")
		return
	}

	h.metrics.RecordLogin("success")
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      "Google login succeeded",
		"user":         res.User,
		"access_token": token,
		"token_type":   "bearer",
		"expires_in":   int(h.jwtServ.TTL().Seconds()),
	})
}

// Me maneja GET /auth/me. Requiere JWTAuthMiddleware.
func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		errorResponse(c, http.StatusUnauthorized, "missing token")
		return
	}

	user, found, err := h.userServ.GetByID(c.Request.Context(), claims.UserID())
	if err != nil {
		h.logger.Error("load current user failed", zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, "could not load user")
		return
	}
	if !found {
		errorResponse(c, http.StatusNotFound, msgUserNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}
