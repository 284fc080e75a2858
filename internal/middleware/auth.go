package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"gorm.io/gorm"

	"github.com/shoplist/api/internal/models"
	"github.com/shoplist/api/internal/session"
	"github.com/shoplist/api/pkg/logger"
	"github.com/shoplist/api/pkg/utils"
)

const (
	currentUserKey = "currentUser"
	claimsKey      = "claims"
)

type AuthMiddleware struct {
	DB      *gorm.DB
	Revoked session.RevocationList
}

func NewAuthMiddleware(db *gorm.DB, revoked session.RevocationList) *AuthMiddleware {
	return &AuthMiddleware{DB: db, Revoked: revoked}
}

// CORS accepts a comma separated origin list.
func CORS(origins string) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins: strings.ReplaceAll(origins, " ", ""),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	})
}

func (a *AuthMiddleware) RequireAuth(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		logger.Warn("auth_missing_header", map[string]interface{}{
			"ip":   c.IP(),
			"path": c.Path(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "missing authorization header")
	}

	tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
	tokenString = strings.TrimSpace(tokenString)
	if !found || tokenString == "" {
		logger.Warn("auth_invalid_format", map[string]interface{}{
			"ip":          c.IP(),
			"path":        c.Path(),
			"auth_header": authHeader[:min(len(authHeader), 20)] + "...",
		})
		return utils.Error(c, fiber.StatusUnauthorized, "invalid authorization format")
	}

	claims, err := utils.ValidateToken(tokenString)
	if err != nil {
		logger.Warn("jwt_validation_failed", map[string]interface{}{
			"ip":    c.IP(),
			"path":  c.Path(),
			"error": err.Error(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "invalid or expired token")
	}

	if a.Revoked != nil {
		revoked, err := a.Revoked.IsRevoked(c.UserContext(), claims.ID)
		if err != nil {
			logger.Error("revocation_check_failed", err, map[string]interface{}{
				"path": c.Path(),
			})
			return utils.Error(c, fiber.StatusInternalServerError, "failed to verify session")
		}
		if revoked {
			logger.Warn("jwt_revoked", map[string]interface{}{
				"ip":      c.IP(),
				"path":    c.Path(),
				"user_id": claims.UserID.String(),
			})
			return utils.Error(c, fiber.StatusUnauthorized, "session has been logged out")
		}
	}

	var user models.User
	if err := a.DB.WithContext(c.UserContext()).First(&user, "id = ?", claims.UserID).Error; err != nil {
		logger.Warn("jwt_user_not_found", map[string]interface{}{
			"ip":      c.IP(),
			"path":    c.Path(),
			"user_id": claims.UserID.String(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "user not found")
	}

	c.Locals(currentUserKey, &user)
	c.Locals(claimsKey, claims)
	c.Locals(logger.UserIDKey, user.ID.String())
	return c.Next()
}

func GetCurrentUser(c *fiber.Ctx) *models.User {
	user, ok := c.Locals(currentUserKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// GetClaims returns the validated token claims of the current request.
func GetClaims(c *fiber.Ctx) *utils.Claims {
	claims, ok := c.Locals(claimsKey).(*utils.Claims)
	if !ok {
		return nil
	}
	return claims
}
