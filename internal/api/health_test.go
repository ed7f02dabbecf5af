package api_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/pactorhq/pactor/internal/api"
)

func TestHealthHandler_Liveness_NoPool(t *testing.T) {
	h := api.NewHealthHandler(nil, nil, testLogger(), "test")

	r := gin.New()
	r.GET("/health", h.Liveness)

	w := doRequest(r, http.MethodGet, "/health", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp struct {
		Status        string `json:"status"`
		Version       string `json:"version"`
		Database      string `json:"database"`
		SchemaVersion int    `json:"schema_version"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}

	if resp.Status != "ok" || resp.Version != "test" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.Database != "not_configured" {
		t.Errorf("database = %q, want not_configured", resp.Database)
	}
	if resp.SchemaVersion < 1 {
		t.Errorf("schema_version = %d, want >= 1", resp.SchemaVersion)
	}
}
