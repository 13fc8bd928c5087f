package admin

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/Netflix-Skunkworks/spectatord/internal/config"
	"github.com/Netflix-Skunkworks/spectatord/pkg/spectator"
)

func newTestServer() *Server {
	registry := spectator.NewRegistry(spectator.RegistryConfig{MeterTTL: time.Minute, GaugeTTL: time.Minute})
	cfg := config.Default()
	return New("localhost:0", registry, cfg)
}

func TestParseIDNameOnly(t *testing.T) {
	id := ParseID("requests")
	if id.Name() != "requests" {
		t.Errorf("Name() = %q, want requests", id.Name())
	}
	if id.Tags().Len() != 0 {
		t.Errorf("Tags().Len() = %d, want 0", id.Tags().Len())
	}
}

func TestParseIDWithTags(t *testing.T) {
	id := ParseID("requests,status=200,method=GET")
	if id.Name() != "requests" {
		t.Errorf("Name() = %q, want requests", id.Name())
	}
	if v := id.Tags().At("status"); v != "200" {
		t.Errorf("status tag = %q, want 200", v)
	}
	if v := id.Tags().At("method"); v != "GET" {
		t.Errorf("method tag = %q, want GET", v)
	}
}

func TestIsAllowedTag(t *testing.T) {
	if !isAllowedTag("nf.app") {
		t.Error("nf.app should be allowed")
	}
	if isAllowedTag("not.allowed") {
		t.Error("not.allowed should not be allowed")
	}
}

func TestLocalOnlyRejectsNonLocalHost(t *testing.T) {
	s := newTestServer()
	called := false
	h := s.localOnly(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodPost, "/config/common_tags", nil)
	req.Host = "example.com"
	w := httptest.NewRecorder()
	h(w, req)

	if called {
		t.Error("handler should not have been called for a non-local Host")
	}
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestLocalOnlyAllowsLocalhost(t *testing.T) {
	s := newTestServer()
	called := false
	h := s.localOnly(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodPost, "/config/common_tags", nil)
	req.Host = "localhost:1234"
	w := httptest.NewRecorder()
	h(w, req)

	if !called {
		t.Error("handler should have been called for a localhost Host")
	}
}

func TestGetConfigReturnsDescribe(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/config", nil)
	w := httptest.NewRecorder()
	s.getConfig(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if _, ok := body["batch_size"]; !ok {
		t.Error("expected batch_size in /config response")
	}
}

func TestPostCommonTagsRejectsDisallowedTag(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/config/common_tags", bytes.NewBufferString(`{"not.allowed":"x"}`))
	w := httptest.NewRecorder()
	s.postCommonTags(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestPostCommonTagsRejectsNonStringValue(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/config/common_tags", bytes.NewBufferString(`{"nf.app":5}`))
	w := httptest.NewRecorder()
	s.postCommonTags(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestPostCommonTagsSetsAndDeletes(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/config/common_tags", bytes.NewBufferString(`{"nf.app":"myapp"}`))
	w := httptest.NewRecorder()
	s.postCommonTags(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	if v := s.registry.CommonTags().At("nf.app"); v != "myapp" {
		t.Fatalf("common tag nf.app = %q, want myapp", v)
	}

	req = httptest.NewRequest(http.MethodPost, "/config/common_tags", bytes.NewBufferString(`{"nf.app":""}`))
	w = httptest.NewRecorder()
	s.postCommonTags(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	if s.registry.CommonTags().Has("nf.app") {
		t.Fatal("expected nf.app common tag to have been deleted")
	}
}

func TestGetMetricsReportsStats(t *testing.T) {
	s := newTestServer()
	s.registry.GetCounter(s.registry.CreateId("requests", spectator.Tags{})).Add(1)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	s.getMetrics(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	counters, ok := body["counters"].([]any)
	if !ok || len(counters) != 1 {
		t.Fatalf("counters = %+v, want one entry", body["counters"])
	}
}

func TestDeleteMetricsNotFoundForUnknownId(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodDelete, "/metrics/Counter/unknown", nil)
	req = mux.SetURLVars(req, map[string]string{"type": "Counter", "id": "unknown"})
	w := httptest.NewRecorder()
	s.deleteMetrics(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}
