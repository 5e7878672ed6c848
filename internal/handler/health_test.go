package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/swing-terminal/backend/internal/model"
)

func TestPing(t *testing.T) {
	router := gin.New()
	router.GET("/ping", Ping)

	w := performRequest(router, http.MethodGet, "/ping", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp model.PingResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if resp.Message != "pong" {
		t.Errorf("message = %q, want %q", resp.Message, "pong")
	}
}

func TestRoot(t *testing.T) {
	router := gin.New()
	router.GET("/", Root)

	w := performRequest(router, http.MethodGet, "/", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp model.RootResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if resp.Status != "ok" || resp.Message == "" {
		t.Errorf("unexpected banner: %+v", resp)
	}
}
