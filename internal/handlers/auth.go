package handlers

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/learntrack/backend/internal/middleware"
	"github.com/learntrack/backend/internal/services"
	"github.com/learntrack/backend/pkg/logger"
	"github.com/learntrack/backend/pkg/utils"
)

type AuthHandler struct {
	Identity    *services.IdentityService
	OAuth       *services.OAuthService
	FrontendURL string
}

func NewAuthHandler(identity *services.IdentityService, oauth *services.OAuthService, frontendURL string) *AuthHandler {
	return &AuthHandler{Identity: identity, OAuth: oauth, FrontendURL: strings.TrimRight(frontendURL, "/")}
}

// OAuthLogin returns the provider URL to start sign-in. remember=true asks
// for the persistent-session expiry.
func (h *AuthHandler) OAuthLogin(c *fiber.Ctx) error {
	if h.OAuth == nil || !h.OAuth.Enabled() {
		return utils.Error(c, fiber.StatusNotFound, "sign-in provider is not configured")
	}

	remember, _ := strconv.ParseBool(c.Query("remember"))
	authURL, err := h.OAuth.AuthCodeURL(c.UserContext(), remember)
	if err != nil {
		logger.Error("oauth_login_url_failed", err, nil)
		return utils.Error(c, fiber.StatusBadGateway, "failed contacting sign-in provider")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"url": authURL})
}

func (h *AuthHandler) OAuthCallback(c *fiber.Ctx) error {
	if h.OAuth == nil || !h.OAuth.Enabled() {
		return utils.Error(c, fiber.StatusNotFound, "sign-in provider is not configured")
	}

	if providerErr := c.Query("error"); providerErr != "" {
		return h.redirectError(c, providerErr)
	}

	code := c.Query("code")
	if code == "" {
		return h.redirectError(c, "authorization code is required")
	}

	state, err := h.OAuth.ConsumeState(c.Query("state"))
	if err != nil {
		logger.Warn("oauth_state_rejected", map[string]interface{}{"ip": c.IP()})
		return h.redirectError(c, err.Error())
	}

	identity, err := h.OAuth.Exchange(c.UserContext(), code)
	if err != nil {
		return h.redirectError(c, "sign-in failed")
	}

	result, err := h.Identity.SignIn(c.UserContext(), *identity, state.Remember)
	if err != nil {
		return h.redirectError(c, "sign-in failed")
	}

	return c.Redirect(h.FrontendURL + "/auth/callback?token=" + url.QueryEscape(result.Token))
}

func (h *AuthHandler) redirectError(c *fiber.Ctx, message string) error {
	return c.Redirect(h.FrontendURL + "/login?error=" + url.QueryEscape(message))
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	return utils.Success(c, fiber.StatusOK, currentUser)
}

// Logout is stateless on the server: tokens are short-lived and the client
// drops its copy.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	logger.InfoWithUser(currentUser.ID, "user_signed_out", nil)
	return utils.Success(c, fiber.StatusOK, fiber.Map{"signedOut": true})
}
