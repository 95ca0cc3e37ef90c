package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/learntrack/backend/internal/middleware"
	"github.com/learntrack/backend/internal/models"
	"github.com/learntrack/backend/internal/store"
	"github.com/learntrack/backend/pkg/logger"
	"github.com/learntrack/backend/pkg/utils"
)

type UsersHandler struct {
	Roster *store.RosterStore
}

func NewUsersHandler(roster *store.RosterStore) *UsersHandler {
	return &UsersHandler{Roster: roster}
}

func (h *UsersHandler) List(c *fiber.Ctx) error {
	p := utils.ParsePagination(c)

	section, err := parseSectionParam(c.Query("section"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}

	profiles, err := h.Roster.List(c.UserContext(), section)
	if err != nil {
		return respondError(c, err, "users not found", "failed listing users")
	}

	return utils.Paginated(c, utils.Window(profiles, p), p.Page, p.Limit, int64(len(profiles)))
}

func (h *UsersHandler) Get(c *fiber.Ctx) error {
	userID := strings.TrimSpace(c.Params("id"))
	if userID == "" {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	profile, err := h.Roster.Get(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err, "user not found", "failed fetching user")
	}
	return utils.Success(c, fiber.StatusOK, profile)
}

// updateUserRequest edits role and section assignments. An empty section
// string unassigns the user.
type updateUserRequest struct {
	DisplayName *string `json:"displayName"`
	Role        *string `json:"role"`
	Section     *string `json:"section"`
}

func (h *UsersHandler) Update(c *fiber.Ctx) error {
	userID := strings.TrimSpace(c.Params("id"))
	if userID == "" {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	var req updateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	var update store.ProfileUpdate
	if req.DisplayName != nil {
		value := strings.TrimSpace(*req.DisplayName)
		if value == "" {
			return utils.Error(c, fiber.StatusBadRequest, "displayName cannot be empty")
		}
		update.DisplayName = &value
	}
	if req.Role != nil {
		role := models.UserRole(strings.ToLower(strings.TrimSpace(*req.Role)))
		if !role.Valid() {
			return utils.Error(c, fiber.StatusBadRequest, "role must be student or admin")
		}
		update.Role = &role
	}
	if req.Section != nil {
		if strings.TrimSpace(*req.Section) == "" {
			update.ClearSection = true
		} else {
			section, ok := models.ParseSection(*req.Section)
			if !ok {
				return utils.Error(c, fiber.StatusBadRequest, "unknown section")
			}
			update.Section = &section
		}
	}
	if update.Empty() {
		return utils.Error(c, fiber.StatusBadRequest, "no changes requested")
	}

	profile, err := h.Roster.Update(c.UserContext(), userID, update)
	if err != nil {
		return respondError(c, err, "user not found", "failed updating user")
	}

	if currentUser := middleware.GetCurrentUser(c); currentUser != nil {
		details := map[string]interface{}{
			"target_id": userID,
			"role":      string(profile.Role),
		}
		if profile.Section != nil {
			details["section"] = string(*profile.Section)
		}
		logger.InfoWithUser(currentUser.ID, "user_updated", details)
	}

	return utils.Success(c, fiber.StatusOK, profile)
}
