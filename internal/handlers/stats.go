package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/learntrack/backend/internal/services"
	"github.com/learntrack/backend/pkg/utils"
)

type StatsHandler struct {
	Aggregation *services.AggregationService
}

func NewStatsHandler(aggregation *services.AggregationService) *StatsHandler {
	return &StatsHandler{Aggregation: aggregation}
}

func (h *StatsHandler) Sections(c *fiber.Ctx) error {
	stats, err := h.Aggregation.SectionStats(c.UserContext())
	if err != nil {
		return respondError(c, err, "stats not found", "failed computing section stats")
	}
	return utils.Success(c, fiber.StatusOK, stats)
}

func (h *StatsHandler) Students(c *fiber.Ctx) error {
	p := utils.ParsePagination(c)
	summaries, err := h.Aggregation.StudentSummaries(c.UserContext())
	if err != nil {
		return respondError(c, err, "stats not found", "failed computing student stats")
	}
	return utils.Paginated(c, utils.Window(summaries, p), p.Page, p.Limit, int64(len(summaries)))
}

// Progress is the admin roster view: one row per progress record.
func (h *StatsHandler) Progress(c *fiber.Ctx) error {
	p := utils.ParsePagination(c)
	rows, err := h.Aggregation.RosterView(c.UserContext())
	if err != nil {
		return respondError(c, err, "progress not found", "failed loading progress")
	}
	return utils.Paginated(c, utils.Window(rows, p), p.Page, p.Limit, int64(len(rows)))
}
