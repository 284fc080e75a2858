package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/shoplist/api/internal/metrics"
	"github.com/shoplist/api/internal/middleware"
	"github.com/shoplist/api/internal/models"
	"github.com/shoplist/api/internal/services"
	"github.com/shoplist/api/internal/session"
	"github.com/shoplist/api/pkg/logger"
	"github.com/shoplist/api/pkg/utils"
)

type AuthHandler struct {
	Identity *services.IdentityService
	Revoked  session.RevocationList
	Audit    *services.AuditService
	Metrics  *metrics.Metrics
}

func NewAuthHandler(identity *services.IdentityService, revoked session.RevocationList, audit *services.AuditService, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{Identity: identity, Revoked: revoked, Audit: audit, Metrics: m}
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func issueToken(user *models.User) (string, error) {
	return utils.GenerateToken(utils.TokenSubject{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	})
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req services.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.Identity.Register(c.UserContext(), req)
	if err != nil {
		return respondError(c, err, "user_register_failed")
	}
	h.Metrics.IncrementUsersRegistered()

	logger.Info("user_registered", map[string]interface{}{
		"user_id":  user.ID.String(),
		"username": user.Username,
	})

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &user.ID,
		Action:       services.ActionUserRegister,
		ResourceType: "user",
		ResourceID:   &user.ID,
		Details: map[string]interface{}{
			"username": user.Username,
		},
		IPAddress: c.IP(),
		RequestID: getRequestID(c),
	})

	token, err := issueToken(user)
	if err != nil {
		return respondError(c, err, "token_generation_failed")
	}
	return utils.Success(c, fiber.StatusCreated, authResponse{Token: token, User: user})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if services.NormalizeEmail(req.Email) == "" || req.Password == "" {
		return utils.Error(c, fiber.StatusBadRequest, "email and password are required")
	}

	user, err := h.Identity.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			h.Metrics.IncrementLoginFailures()
			logger.Warn("login_failed_invalid_credentials", map[string]interface{}{
				"email": services.NormalizeEmail(req.Email),
				"ip":    c.IP(),
			})
		}
		return respondError(c, err, "login_failed")
	}

	logger.Info("user_login", map[string]interface{}{
		"user_id": user.ID.String(),
		"ip":      c.IP(),
	})

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &user.ID,
		Action:       services.ActionUserLogin,
		ResourceType: "user",
		ResourceID:   &user.ID,
		IPAddress:    c.IP(),
		RequestID:    getRequestID(c),
	})

	token, err := issueToken(user)
	if err != nil {
		return respondError(c, err, "token_generation_failed")
	}
	return utils.Success(c, fiber.StatusOK, authResponse{Token: token, User: user})
}

// Logout revokes the presented token until it would have expired anyway.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	claims := middleware.GetClaims(c)
	if user == nil || claims == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	if err := h.Revoked.Revoke(c.UserContext(), claims.ID, claims.RemainingTTL()); err != nil {
		return respondError(c, err, "logout_revoke_failed")
	}

	logger.InfoWithUser(user.ID.String(), "user_logout", nil)
	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &user.ID,
		Action:       services.ActionUserLogout,
		ResourceType: "user",
		ResourceID:   &user.ID,
		IPAddress:    c.IP(),
		RequestID:    getRequestID(c),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"loggedOut": true})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	return utils.Success(c, fiber.StatusOK, user)
}
