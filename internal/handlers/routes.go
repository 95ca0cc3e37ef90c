package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/learntrack/backend/internal/middleware"
)

type Router struct {
	Auth     *AuthHandler
	Notes    *NotesHandler
	Progress *ProgressHandler
	Users    *UsersHandler
	Stats    *StatsHandler
	Guard    *middleware.AuthMiddleware
}

func (r *Router) Register(app *fiber.App) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")
	api.Get("/sections", r.Guard.RequireAuth, r.Notes.Sections)

	authRoutes := api.Group("/auth")
	authRoutes.Get("/oauth/login", r.Auth.OAuthLogin)
	authRoutes.Get("/oauth/callback", r.Auth.OAuthCallback)
	authRoutes.Get("/me", r.Guard.RequireAuth, r.Auth.Me)
	authRoutes.Post("/logout", r.Guard.RequireAuth, r.Auth.Logout)

	noteRoutes := api.Group("/notes", r.Guard.RequireAuth)
	noteRoutes.Get("/", r.Notes.List)
	noteRoutes.Post("/link", middleware.AdminOnly, r.Notes.CreateLink)
	noteRoutes.Post("/upload", middleware.AdminOnly, r.Notes.Upload)
	noteRoutes.Get("/:id/download", r.Notes.Download)
	noteRoutes.Get("/:id", r.Notes.Get)
	noteRoutes.Delete("/:id", middleware.AdminOnly, r.Notes.Delete)

	progressRoutes := api.Group("/progress", r.Guard.RequireAuth)
	progressRoutes.Get("/", r.Progress.List)
	progressRoutes.Post("/sweep", middleware.AdminOnly, r.Progress.Sweep)
	progressRoutes.Put("/:noteId", r.Progress.Set)

	meRoutes := api.Group("/me", r.Guard.RequireAuth)
	meRoutes.Get("/notes", r.Progress.MyNotes)
	meRoutes.Get("/stats", r.Progress.MyStats)

	userRoutes := api.Group("/users", r.Guard.RequireAuth, middleware.AdminOnly)
	userRoutes.Get("/", r.Users.List)
	userRoutes.Get("/:id", r.Users.Get)
	userRoutes.Put("/:id", r.Users.Update)

	statsRoutes := api.Group("/stats", r.Guard.RequireAuth, middleware.AdminOnly)
	statsRoutes.Get("/sections", r.Stats.Sections)
	statsRoutes.Get("/students", r.Stats.Students)
	statsRoutes.Get("/progress", r.Stats.Progress)
}
