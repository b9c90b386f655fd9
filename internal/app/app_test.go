package app

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestNewWiresSQLiteStack(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	prompt := filepath.Join(dir, "system.md")
	if err := os.WriteFile(prompt, []byte("be kind"), 0o600); err != nil {
		t.Fatalf("write prompt: %v", err)
	}

	cfg := defaultConfig()
	cfg.Mode = "development"
	cfg.DB.Driver = "sqlite"
	cfg.DB.SQLitePath = filepath.Join(dir, "maia.db")
	cfg.Assistant.BaseURL = "http://127.0.0.1:0"
	cfg.SystemPromptPath = prompt
	cfg.KnowledgeDocsDir = filepath.Join(dir, "missing")
	cfg.MetricsEnabled = true

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if a.Clients.Limiter != nil {
		t.Fatalf("limiter should be disabled without a redis address")
	}

	cases := []struct {
		path string
		want int
	}{
		{"/healthcheck", http.StatusOK},
		{"/metrics", http.StatusOK},
		{"/auth/me", http.StatusUnauthorized},
		{"/therapists/alerts", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		a.Server.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))
		if w.Code != tc.want {
			t.Fatalf("%s: status=%d want %d body=%s", tc.path, w.Code, tc.want, w.Body.String())
		}
	}
}

func TestNewFailsWithoutSystemPrompt(t *testing.T) {
	dir := t.TempDir()
	cfg := defaultConfig()
	cfg.DB.Driver = "sqlite"
	cfg.DB.SQLitePath = filepath.Join(dir, "maia.db")
	cfg.SystemPromptPath = filepath.Join(dir, "nope.md")

	if _, err := New(cfg); err == nil {
		t.Fatalf("expected provisioning error")
	}
}

func TestMigrateCreatesSchema(t *testing.T) {
	dir := t.TempDir()
	cfg := defaultConfig()
	cfg.DB.Driver = "sqlite"
	cfg.DB.SQLitePath = filepath.Join(dir, "maia.db")

	if err := Migrate(cfg); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if _, err := os.Stat(cfg.DB.SQLitePath); err != nil {
		t.Fatalf("db file: %v", err)
	}
}
