package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/learntrack/backend/internal/config"
	"github.com/learntrack/backend/internal/database"
	"github.com/learntrack/backend/internal/middleware"
	"github.com/learntrack/backend/internal/models"
	"github.com/learntrack/backend/internal/services"
	"github.com/learntrack/backend/internal/storage"
	"github.com/learntrack/backend/internal/store"
	"github.com/learntrack/backend/pkg/logger"
	"github.com/learntrack/backend/pkg/utils"
	"gorm.io/gorm"
)

type testEnv struct {
	app      *fiber.App
	db       *gorm.DB
	roster   *store.RosterStore
	catalog  *store.CatalogStore
	progress *store.ProgressStore
	objects  *storage.MemoryStore
}

var testSetupOnce sync.Once

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	testSetupOnce.Do(func() {
		logger.SetOutput(io.Discard)
		utils.ConfigureJWT("test-secret", 24, 24*30)
	})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed automigrating models: %v", err)
	}

	clock := store.NewClock(time.Now)
	catalogStore := store.NewCatalogStore(db, clock)
	rosterStore := store.NewRosterStore(db, clock)
	progressStore := store.NewProgressStore(db, clock)
	objects := storage.NewMemoryStore("http://objects.test/learntrack-notes")

	engine := services.NewProgressEngine(catalogStore, rosterStore, progressStore)
	catalogService := services.NewCatalogService(catalogStore, engine, objects)
	aggregation := services.NewAggregationService(catalogStore, rosterStore, progressStore, models.SectionElectrical)
	identity := services.NewIdentityService(rosterStore, nil)
	oauth := services.NewOAuthService(config.SSOConfig{})

	router := &Router{
		Auth:     NewAuthHandler(identity, oauth, "http://localhost:3000"),
		Notes:    NewNotesHandler(catalogService, models.SectionElectrical),
		Progress: NewProgressHandler(engine, aggregation),
		Users:    NewUsersHandler(rosterStore),
		Stats:    NewStatsHandler(aggregation),
		Guard:    middleware.NewAuthMiddleware(rosterStore),
	}

	app := fiber.New(fiber.Config{BodyLimit: 10 * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS("http://localhost:3000"))
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())
	router.Register(app)

	return &testEnv{
		app:      app,
		db:       db,
		roster:   rosterStore,
		catalog:  catalogStore,
		progress: progressStore,
		objects:  objects,
	}
}

func createTestUser(t *testing.T, env *testEnv, id, name string, role models.UserRole, section *models.Section) (*models.UserProfile, string) {
	t.Helper()

	profile, err := env.roster.Upsert(context.Background(), &models.UserProfile{
		ID:          id,
		Email:       id + "@test.com",
		DisplayName: name,
		Role:        role,
		Section:     section,
	})
	if err != nil {
		t.Fatalf("failed creating test user: %v", err)
	}

	token, _, err := utils.GenerateToken(profile, false)
	if err != nil {
		t.Fatalf("failed generating auth token: %v", err)
	}

	return profile, token
}

func sectionPtr(s models.Section) *models.Section {
	return &s
}

func authHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func performRequest(t *testing.T, app *fiber.App, method, path string, body io.Reader, headers map[string]string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req, int((10 * time.Second).Milliseconds()))
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}

	return resp
}

func performJSONRequest(t *testing.T, app *fiber.App, method, path string, payload any, headers map[string]string) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}

	requestHeaders := map[string]string{}
	for key, value := range headers {
		requestHeaders[key] = value
	}
	if payload != nil {
		requestHeaders["Content-Type"] = "application/json"
	}

	return performRequest(t, app, method, path, body, requestHeaders)
}

func decodeJSONMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed reading response body: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("failed decoding JSON response: %v body=%q", err, string(raw))
	}

	return payload
}

func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

func assertEnvelopeError(t *testing.T, body map[string]any, expected string) {
	t.Helper()
	if success, _ := body["success"].(bool); success {
		t.Fatalf("expected success=false, got %+v", body)
	}
	if got, _ := body["error"].(string); got != expected {
		t.Fatalf("expected error %q, got %q", expected, got)
	}
}

func dataMap(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected object data, got %T: %+v", body["data"], body)
	}
	return data
}

func dataList(t *testing.T, body map[string]any) []any {
	t.Helper()
	data, ok := body["data"].([]any)
	if !ok {
		t.Fatalf("expected list data, got %T: %+v", body["data"], body)
	}
	return data
}
