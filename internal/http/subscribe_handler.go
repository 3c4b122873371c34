package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dailydevq/internal/domain"
	"dailydevq/internal/service"
)

const (
	msgSubscribed         = "Subscription completed! You will receive the newsletter on weekdays at 7 AM."
	msgUnsubscribed       = "Your subscription has been cancelled"
	msgUserNotFound       = "User not found"
	msgSubscriptionAbsent = "Subscription not found"
	msgInvalidRequest     = "invalid request"
	msgInvalidEmail       = "invalid email"
)

// SubscribeHandler expone alta, baja y consulta de suscripciones.
type SubscribeHandler struct {
	logger   *zap.Logger
	userServ *service.UserService
}

func NewSubscribeHandler(logger *zap.Logger, userServ *service.UserService) *SubscribeHandler {
	return &SubscribeHandler{logger: logger, userServ: userServ}
}

// Subscribe maneja POST /subscribe/email.
func (h *SubscribeHandler) Subscribe(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid subscribe request", zap.Error(err))
		errorResponse(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	res, err := h.userServ.UpsertByEmail(c.Request.Context(), service.UpsertInput{
		Email:        req.Email,
		AuthProvider: domain.AuthProviderEmail,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidEmail) {
			errorResponse(c, http.StatusBadRequest, msgInvalidEmail)
			return
		}
		h.logger.Error("subscribe failed", zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, "could not complete subscription")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": msgSubscribed,
		"user":    res.User,
	})
}

// Unsubscribe maneja DELETE /subscribe/unsubscribe?email=.
func (h *SubscribeHandler) Unsubscribe(c *gin.Context) {
	email := strings.TrimSpace(c.Query("email"))
	if email == "" {
		errorResponse(c, http.StatusBadRequest, "email query parameter is required")
		return
	}

	ok, err := h.userServ.SetUnsubscribed(c.Request.Context(), email)
	if err != nil {
		h.logger.Error("unsubscribe failed", zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, "could not cancel subscription")
		return
	}
	if !ok {
		errorResponse(c, http.StatusNotFound, msgUserNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": msgUnsubscribed})
}

// Status maneja GET /subscribe/status/:email.
func (h *SubscribeHandler) Status(c *gin.Context) {
	user, found, err := h.userServ.GetByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		h.logger.Error("subscription status failed", zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, "could not read subscription status")
		return
	}
	if !found {
		c.JSON(http.StatusOK, gin.H{"subscribed": false, "message": msgSubscriptionAbsent})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"subscribed": user.IsSubscribed(),
		"status":     user.SubscriptionStatus,
		"email":      user.Email,
	})
}

func errorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}
