package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/learntrack/backend/internal/middleware"
	"github.com/learntrack/backend/internal/models"
	"github.com/learntrack/backend/internal/services"
	"github.com/learntrack/backend/pkg/logger"
	"github.com/learntrack/backend/pkg/utils"
)

type NotesHandler struct {
	Catalog        *services.CatalogService
	DefaultSection models.Section
}

func NewNotesHandler(catalog *services.CatalogService, defaultSection models.Section) *NotesHandler {
	return &NotesHandler{Catalog: catalog, DefaultSection: defaultSection}
}

func (h *NotesHandler) Sections(c *fiber.Ctx) error {
	return utils.Success(c, fiber.StatusOK, models.Sections())
}

// List returns notes newest first. Students without an explicit filter see
// their own section; admins see every section.
func (h *NotesHandler) List(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	section, err := parseSectionParam(c.Query("section"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}
	if section == nil && !currentUser.IsAdmin() {
		section = currentUser.Section
		if section == nil && h.DefaultSection != "" {
			fallback := h.DefaultSection
			section = &fallback
		}
	}

	notes, err := h.Catalog.List(c.UserContext(), section)
	if err != nil {
		return respondError(c, err, "notes not found", "failed listing notes")
	}
	return utils.Success(c, fiber.StatusOK, notes)
}

func (h *NotesHandler) Get(c *fiber.Ctx) error {
	noteID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid note id")
	}

	note, err := h.Catalog.Get(c.UserContext(), noteID)
	if err != nil {
		return respondError(c, err, "note not found", "failed fetching note")
	}
	return utils.Success(c, fiber.StatusOK, note)
}

type createLinkRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Section     string `json:"section"`
	URL         string `json:"url"`
}

func (h *NotesHandler) CreateLink(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req createLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	section, ok := models.ParseSection(req.Section)
	if !ok {
		return utils.Error(c, fiber.StatusBadRequest, "unknown section")
	}

	note, err := h.Catalog.PublishLink(c.UserContext(), currentUser, services.NoteInput{
		Title:       req.Title,
		Description: req.Description,
		Section:     section,
		URL:         req.URL,
	})
	if err != nil {
		return respondError(c, err, "note not found", "failed publishing link")
	}
	return utils.Success(c, fiber.StatusCreated, note)
}

func (h *NotesHandler) Upload(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "file is required")
	}

	section, ok := models.ParseSection(c.FormValue("section"))
	if !ok {
		return utils.Error(c, fiber.StatusBadRequest, "unknown section")
	}

	stream, err := fileHeader.Open()
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed opening uploaded file")
	}
	defer stream.Close()

	note, err := h.Catalog.PublishDocument(c.UserContext(), currentUser, services.NoteInput{
		Title:       strings.TrimSpace(c.FormValue("title")),
		Description: c.FormValue("description"),
		Section:     section,
	}, services.DocumentUpload{
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Reader:      stream,
	})
	if err != nil {
		return respondError(c, err, "note not found", "failed uploading document")
	}
	return utils.Success(c, fiber.StatusCreated, note)
}

func (h *NotesHandler) Delete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	noteID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid note id")
	}

	result, err := h.Catalog.Delete(c.UserContext(), noteID)
	if err != nil {
		return respondError(c, err, "note not found", "failed deleting note")
	}

	if currentUser != nil {
		logger.InfoWithUser(currentUser.ID, "note_delete_requested", map[string]interface{}{
			"note_id":          noteID.String(),
			"progress_removed": result.ProgressRemoved,
		})
	}

	if result.StorageErr != nil {
		return utils.SuccessWithWarning(c, fiber.StatusOK, result, "note deleted but its file could not be removed from storage")
	}
	return utils.Success(c, fiber.StatusOK, result)
}

func (h *NotesHandler) Download(c *fiber.Ctx) error {
	noteID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid note id")
	}

	link, err := h.Catalog.DownloadURL(c.UserContext(), noteID)
	if err != nil {
		return respondError(c, err, "note not found", "failed generating download url")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"url": link})
}
