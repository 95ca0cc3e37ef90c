package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/learntrack/backend/internal/models"
	"github.com/learntrack/backend/internal/services"
	"github.com/learntrack/backend/internal/store"
	"github.com/learntrack/backend/pkg/utils"
)

var errUnknownSection = errors.New("unknown section")

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(value))
}

// parseSectionParam reads an optional section filter. An empty value means
// no filter.
func parseSectionParam(value string) (*models.Section, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	section, ok := models.ParseSection(value)
	if !ok {
		return nil, errUnknownSection
	}
	return &section, nil
}

// respondError turns a service error into the single message the client
// shows for the failed operation.
func respondError(c *fiber.Ctx, err error, notFound, fallback string) error {
	switch {
	case store.IsNotFound(err):
		return utils.Error(c, fiber.StatusNotFound, notFound)
	case errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidLink),
		errors.Is(err, services.ErrInvalidNote):
		return utils.Error(c, fiber.StatusBadRequest, validationMessage(err))
	case store.IsUnavailable(err):
		return utils.Error(c, fiber.StatusServiceUnavailable, "storage is temporarily unavailable, please retry")
	default:
		return utils.Error(c, fiber.StatusInternalServerError, fallback)
	}
}

// validationMessage drops the generic wrapper so the client sees the
// specific reason, e.g. "title is required".
func validationMessage(err error) string {
	msg := err.Error()
	if prefix := services.ErrInvalidNote.Error() + ": "; strings.HasPrefix(msg, prefix) {
		return strings.TrimPrefix(msg, prefix)
	}
	return msg
}
