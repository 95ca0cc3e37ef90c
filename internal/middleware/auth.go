package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/learntrack/backend/internal/models"
	"github.com/learntrack/backend/internal/store"
	"github.com/learntrack/backend/pkg/logger"
	"github.com/learntrack/backend/pkg/utils"
)

const currentUserKey = "currentUser"

type AuthMiddleware struct {
	Roster *store.RosterStore
}

func NewAuthMiddleware(roster *store.RosterStore) *AuthMiddleware {
	return &AuthMiddleware{Roster: roster}
}

func CORS(origins string) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	})
}

// RequireAuth resolves the bearer token to a roster profile. The profile is
// re-read on every request so role and section changes apply immediately.
func (a *AuthMiddleware) RequireAuth(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		logger.Warn("jwt_missing_header", map[string]interface{}{
			"ip":   c.IP(),
			"path": c.Path(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "missing authorization header")
	}

	tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
	if tokenString == authHeader || tokenString == "" {
		logger.Warn("jwt_invalid_format", map[string]interface{}{
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

	profile, err := a.Roster.Get(c.UserContext(), claims.UserID)
	if err != nil {
		if store.IsUnavailable(err) {
			logger.Error("jwt_profile_lookup_failed", err, map[string]interface{}{
				"path":    c.Path(),
				"user_id": claims.UserID,
			})
			return utils.Error(c, fiber.StatusServiceUnavailable, "user store is unavailable")
		}
		logger.Warn("jwt_user_not_found", map[string]interface{}{
			"ip":      c.IP(),
			"path":    c.Path(),
			"user_id": claims.UserID,
		})
		return utils.Error(c, fiber.StatusUnauthorized, "user not found")
	}

	c.Locals(currentUserKey, profile)
	c.Locals("userID", profile.ID)
	return c.Next()
}

func AdminOnly(c *fiber.Ctx) error {
	user := GetCurrentUser(c)
	if user == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	if !user.IsAdmin() {
		return utils.Error(c, fiber.StatusForbidden, "admin access required")
	}
	return c.Next()
}

func GetCurrentUser(c *fiber.Ctx) *models.UserProfile {
	value := c.Locals(currentUserKey)
	if value == nil {
		return nil
	}
	user, ok := value.(*models.UserProfile)
	if !ok {
		return nil
	}
	return user
}
