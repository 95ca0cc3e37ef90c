package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func setupResponseTestApp() *fiber.App {
	app := fiber.New()

	app.Get("/success", func(c *fiber.Ctx) error {
		return Success(c, fiber.StatusCreated, fiber.Map{"id": "123"})
	})
	app.Get("/error", func(c *fiber.Ctx) error {
		return Error(c, fiber.StatusBadRequest, "invalid input")
	})
	app.Get("/warning", func(c *fiber.Ctx) error {
		return SuccessWithWarning(c, fiber.StatusOK, fiber.Map{"id": "123"}, "storage left behind")
	})
	app.Get("/paginated", func(c *fiber.Ctx) error {
		return Paginated(c, []string{"a", "b"}, 2, 20, 45)
	})
	app.Get("/page", func(c *fiber.Ctx) error {
		p := ParsePagination(c)
		return c.JSON(fiber.Map{"page": p.Page, "limit": p.Limit, "offset": p.Offset})
	})

	return app
}

func performResponseTestRequest(t *testing.T, app *fiber.App, path string) (int, map[string]any) {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
	if err != nil {
		t.Fatalf("request to %s failed: %v", path, err)
	}
	defer resp.Body.Close()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed decoding %s response body: %v", path, err)
	}
	return resp.StatusCode, body
}

func TestResponseEnvelopes(t *testing.T) {
	app := setupResponseTestApp()

	t.Run("success", func(t *testing.T) {
		status, body := performResponseTestRequest(t, app, "/success")
		if status != fiber.StatusCreated || body["success"] != true {
			t.Fatalf("unexpected response %d %+v", status, body)
		}
		data, _ := body["data"].(map[string]any)
		if data["id"] != "123" {
			t.Fatalf("unexpected data %+v", body["data"])
		}
		if _, ok := body["error"]; ok {
			t.Fatal("success envelope must not carry an error")
		}
	})

	t.Run("error", func(t *testing.T) {
		status, body := performResponseTestRequest(t, app, "/error")
		if status != fiber.StatusBadRequest || body["success"] != false || body["error"] != "invalid input" {
			t.Fatalf("unexpected response %d %+v", status, body)
		}
	})

	t.Run("warning", func(t *testing.T) {
		status, body := performResponseTestRequest(t, app, "/warning")
		if status != fiber.StatusOK || body["success"] != true || body["warning"] != "storage left behind" {
			t.Fatalf("unexpected response %d %+v", status, body)
		}
	})

	t.Run("paginated", func(t *testing.T) {
		_, body := performResponseTestRequest(t, app, "/paginated")
		pagination, _ := body["pagination"].(map[string]any)
		if pagination["total"] != float64(45) || pagination["totalPages"] != float64(3) || pagination["page"] != float64(2) {
			t.Fatalf("unexpected pagination %+v", pagination)
		}
	})
}

func TestParsePagination(t *testing.T) {
	app := setupResponseTestApp()

	tests := []struct {
		query               string
		page, limit, offset int
	}{
		{"", 1, 50, 0},
		{"page=3&limit=10", 3, 10, 20},
		{"page=0&limit=-5", 1, 50, 0},
		{"page=abc&limit=xyz", 1, 50, 0},
		{"limit=1000", 1, 200, 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			_, body := performResponseTestRequest(t, app, fmt.Sprintf("/page?%s", tt.query))
			if body["page"] != float64(tt.page) || body["limit"] != float64(tt.limit) || body["offset"] != float64(tt.offset) {
				t.Fatalf("query %q: unexpected params %+v", tt.query, body)
			}
		})
	}
}

func TestWindow(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	tests := []struct {
		name string
		p    PaginationParams
		want []int
	}{
		{"first page", PaginationParams{Page: 1, Limit: 2, Offset: 0}, []int{1, 2}},
		{"last partial page", PaginationParams{Page: 3, Limit: 2, Offset: 4}, []int{5}},
		{"past the end", PaginationParams{Page: 4, Limit: 2, Offset: 6}, []int{}},
		{"everything", PaginationParams{Page: 1, Limit: 50, Offset: 0}, items},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Window(items, tt.p)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("expected %v, got %v", tt.want, got)
				}
			}
		})
	}
}
