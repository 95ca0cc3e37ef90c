package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestNewClient(t *testing.T) {
	t.Run("appends the api prefix", func(t *testing.T) {
		client := NewClient("http://localhost:8080/", "test-token")
		if client.BaseURL != "http://localhost:8080/api" {
			t.Errorf("expected BaseURL 'http://localhost:8080/api', got %s", client.BaseURL)
		}
		if client.Token != "test-token" {
			t.Errorf("expected Token 'test-token', got %s", client.Token)
		}
	})

	t.Run("strips repeated trailing slashes", func(t *testing.T) {
		client := NewClient("http://example.com///", "")
		if client.BaseURL != "http://example.com/api" {
			t.Errorf("expected BaseURL 'http://example.com/api', got %s", client.BaseURL)
		}
	})

	t.Run("sets a timeout", func(t *testing.T) {
		client := NewClient("http://localhost:8080", "")
		if client.HTTPClient == nil || client.HTTPClient.Timeout == 0 {
			t.Error("expected HTTPClient with a timeout")
		}
	})
}

func TestAPIError(t *testing.T) {
	err := &APIError{Status: 404, Message: "note not found"}
	if err.Error() != "api: 404: note not found" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestClient_Get(t *testing.T) {
	t.Run("sends auth header and decodes the envelope", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				t.Errorf("expected GET, got %s", r.Method)
			}
			if r.URL.Path != "/api/notes" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if r.Header.Get("Authorization") != "Bearer test-token" {
				t.Errorf("unexpected Authorization header %q", r.Header.Get("Authorization"))
			}
			if r.URL.Query().Get("section") != "electrical" {
				t.Errorf("expected section query, got %q", r.URL.RawQuery)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"data":    []map[string]any{{"id": "7d3c1b1e-7f4e-4a52-9a6c-2b1d5e0f6a11", "title": "Wiring"}},
			})
		}))
		defer server.Close()

		client := NewClient(server.URL, "test-token")
		var resp Response[[]Note]
		if err := client.Get("/notes", map[string][]string{"section": {"electrical"}}, &resp); err != nil {
			t.Fatalf("Get() returned error: %v", err)
		}
		if !resp.Success || len(resp.Data) != 1 || resp.Data[0].Title != "Wiring" {
			t.Errorf("unexpected response %+v", resp)
		}
	})

	t.Run("surfaces the envelope error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "admin access required"})
		}))
		defer server.Close()

		err := NewClient(server.URL, "").Get("/users", nil, nil)
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected APIError, got %T", err)
		}
		if apiErr.Status != http.StatusForbidden || apiErr.Message != "admin access required" {
			t.Errorf("unexpected error %+v", apiErr)
		}
	})

	t.Run("falls back to the raw body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream down\n"))
		}))
		defer server.Close()

		err := NewClient(server.URL, "").Get("/notes", nil, nil)
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.Message != "upstream down" {
			t.Fatalf("unexpected error %v", err)
		}
	})
}

func TestClient_PutAndDelete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			if r.Header.Get("Content-Type") != "application/json" {
				t.Errorf("expected JSON content type, got %q", r.Header.Get("Content-Type"))
			}
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["status"] != "completed" {
				t.Errorf("unexpected body %+v", body)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": map[string]any{"status": "completed"}})
		case http.MethodDelete:
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"data":    map[string]any{"noteID": "n1", "progressRemoved": 2, "storageReleased": false},
				"warning": "note deleted but its file could not be removed from storage",
			})
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "tok")

	var put Response[ProgressRecord]
	if err := client.Put("/progress/n1", map[string]string{"status": "completed"}, &put); err != nil {
		t.Fatalf("Put() returned error: %v", err)
	}
	if put.Data.Status != "completed" {
		t.Errorf("unexpected record %+v", put.Data)
	}

	var del Response[DeleteResult]
	if err := client.Delete("/notes/n1", &del); err != nil {
		t.Fatalf("Delete() returned error: %v", err)
	}
	if del.Data.ProgressRemoved != 2 || del.Warning == "" {
		t.Errorf("unexpected delete response %+v", del)
	}
}

func TestClient_Upload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if r.FormValue("title") != "Manual" || r.FormValue("section") != "mechanical" {
			t.Errorf("unexpected fields %+v", r.MultipartForm.Value)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("missing file part: %v", err)
		}
		defer file.Close()
		content, _ := io.ReadAll(file)
		if header.Filename != "manual.pdf" || string(content) != "pdf-bytes" {
			t.Errorf("unexpected file %q %q", header.Filename, content)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": map[string]any{"title": "Manual", "kind": "document"}})
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "manual.pdf")
	if err := os.WriteFile(path, []byte("pdf-bytes"), 0600); err != nil {
		t.Fatal(err)
	}

	var resp Response[Note]
	err := NewClient(server.URL, "tok").Upload("/notes/upload", "file", path, map[string]string{
		"title":   "Manual",
		"section": "mechanical",
	}, &resp)
	if err != nil {
		t.Fatalf("Upload() returned error: %v", err)
	}
	if resp.Data.Kind != "document" {
		t.Errorf("unexpected note %+v", resp.Data)
	}
}

func TestClient_DownloadToFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Error("presigned downloads must not carry the session token")
		}
		if strings.HasSuffix(r.URL.Path, "/missing") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("document body"))
	}))
	defer server.Close()

	client := NewClient("http://unused", "tok")
	dest := filepath.Join(t.TempDir(), "out.pdf")

	if err := client.DownloadToFile(server.URL+"/obj", dest); err != nil {
		t.Fatalf("DownloadToFile() returned error: %v", err)
	}
	data, _ := os.ReadFile(dest)
	if string(data) != "document body" {
		t.Errorf("unexpected content %q", data)
	}

	if err := client.DownloadToFile(server.URL+"/missing", dest); err == nil {
		t.Error("expected error for 404")
	}
}

func TestTokenExpiry(t *testing.T) {
	expiresAt := time.Now().Add(2 * time.Hour).Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}).SignedString([]byte("whatever"))
	if err != nil {
		t.Fatal(err)
	}

	got, err := TokenExpiry(token)
	if err != nil {
		t.Fatalf("TokenExpiry() returned error: %v", err)
	}
	if !got.Equal(expiresAt) {
		t.Errorf("expected %v, got %v", expiresAt, got)
	}

	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "u"}).SignedString([]byte("k"))
	if _, err := TokenExpiry(noExp); !errors.Is(err, ErrTokenNoExpiry) {
		t.Errorf("expected ErrTokenNoExpiry, got %v", err)
	}

	if _, err := TokenExpiry("not-a-token"); err == nil {
		t.Error("expected parse error")
	}
}
