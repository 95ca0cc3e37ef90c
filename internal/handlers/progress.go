package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/learntrack/backend/internal/middleware"
	"github.com/learntrack/backend/internal/models"
	"github.com/learntrack/backend/internal/services"
	"github.com/learntrack/backend/pkg/logger"
	"github.com/learntrack/backend/pkg/utils"
)

type ProgressHandler struct {
	Engine      *services.ProgressEngine
	Aggregation *services.AggregationService
}

func NewProgressHandler(engine *services.ProgressEngine, aggregation *services.AggregationService) *ProgressHandler {
	return &ProgressHandler{Engine: engine, Aggregation: aggregation}
}

func (h *ProgressHandler) List(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	records, err := h.Engine.GetForUser(c.UserContext(), currentUser.ID)
	if err != nil {
		return respondError(c, err, "progress not found", "failed loading progress")
	}
	return utils.Success(c, fiber.StatusOK, records)
}

type setStatusRequest struct {
	Status string `json:"status"`
}

// Set writes the caller's own status for a note. The record key is always
// the authenticated user, never a client-supplied id.
func (h *ProgressHandler) Set(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	noteID, err := parseUUID(c.Params("noteId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid note id")
	}

	var req setStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	status, ok := models.ParseProgressStatus(req.Status)
	if !ok {
		return utils.Error(c, fiber.StatusBadRequest, services.ErrInvalidStatus.Error())
	}

	record, err := h.Engine.SetStatus(c.UserContext(), currentUser.ID, noteID, status)
	if err != nil {
		return respondError(c, err, "note not found", "failed updating progress")
	}
	return utils.Success(c, fiber.StatusOK, record)
}

func (h *ProgressHandler) MyNotes(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	section, err := parseSectionParam(c.Query("section"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}

	notes, err := h.Aggregation.StudentNotes(c.UserContext(), currentUser.ID, section)
	if err != nil {
		return respondError(c, err, "notes not found", "failed loading notes")
	}
	return utils.Success(c, fiber.StatusOK, notes)
}

func (h *ProgressHandler) MyStats(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	section, err := parseSectionParam(c.Query("section"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}

	stats, err := h.Aggregation.StudentStats(c.UserContext(), currentUser.ID, section)
	if err != nil {
		return respondError(c, err, "stats not found", "failed computing stats")
	}
	return utils.Success(c, fiber.StatusOK, stats)
}

func (h *ProgressHandler) Sweep(c *fiber.Ctx) error {
	removed, err := h.Engine.SweepOrphans(c.UserContext())
	if err != nil {
		return respondError(c, err, "progress not found", "failed sweeping orphaned progress")
	}

	if currentUser := middleware.GetCurrentUser(c); currentUser != nil {
		logger.InfoWithUser(currentUser.ID, "progress_sweep_requested", map[string]interface{}{
			"removed": removed,
		})
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"removed": removed})
}
