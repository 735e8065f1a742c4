package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestHealthReportsUnconfiguredDependencies(t *testing.T) {
	handler := NewHealthHandler(nil, nil)

	app := fiber.New()
	app.Get("/health", handler.Health)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Status        string            `json:"status"`
		UptimeSeconds int64             `json:"uptime_seconds"`
		Checks        map[string]string `json:"checks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("got status %q, want ok", body.Status)
	}
	if body.Checks["postgres"] != "unconfigured" || body.Checks["redis"] != "unconfigured" {
		t.Errorf("unexpected checks: %+v", body.Checks)
	}
	if body.UptimeSeconds < 0 {
		t.Errorf("negative uptime: %d", body.UptimeSeconds)
	}
}
