package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type settingView struct {
	SettingDef
	Value    string `json:"value"`
	HasValue bool   `json:"has_value"`
}

func settingsByKey(t *testing.T, h *SettingsHandler) map[string]settingView {
	t.Helper()
	rec := httptest.NewRecorder()
	h.GetSettings(rec, httptest.NewRequest("GET", "/api/settings", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get settings: status %d", rec.Code)
	}
	var list []settingView
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	out := make(map[string]settingView)
	for _, s := range list {
		out[s.Key] = s
	}
	return out
}

func TestSettingsAPIKeyMasked(t *testing.T) {
	env := newTestEnv(t)
	h := NewSettingsHandler(env.db)

	rec := httptest.NewRecorder()
	body := strings.NewReader(`{"gemini_api_key":"AIzaSecretKey1234","gemini_model":"gemini-2.0-pro"}`)
	h.UpdateSettings(rec, httptest.NewRequest("PUT", "/api/settings", body))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("update settings: status %d", rec.Code)
	}

	settings := settingsByKey(t, h)

	key, ok := settings["gemini_api_key"]
	if !ok {
		t.Fatal("gemini_api_key not listed")
	}
	if !key.Secret {
		t.Error("gemini_api_key should be marked secret")
	}
	if !key.HasValue {
		t.Error("stored key should report has_value")
	}
	if key.Value != "••••••••1234" {
		t.Errorf("secret not masked to last 4 chars: %q", key.Value)
	}

	model := settings["gemini_model"]
	if model.Value != "gemini-2.0-pro" {
		t.Errorf("non-secret setting should be returned verbatim, got %q", model.Value)
	}
}

func TestSettingsMaskedValueNotSaved(t *testing.T) {
	env := newTestEnv(t)
	h := NewSettingsHandler(env.db)

	rec := httptest.NewRecorder()
	h.UpdateSettings(rec, httptest.NewRequest("PUT", "/api/settings",
		strings.NewReader(`{"gemini_api_key":"AIzaSecretKey1234"}`)))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("update settings: status %d", rec.Code)
	}

	// A client echoing back the masked form must not clobber the stored key.
	rec = httptest.NewRecorder()
	h.UpdateSettings(rec, httptest.NewRequest("PUT", "/api/settings",
		strings.NewReader(`{"gemini_api_key":"••••••••1234"}`)))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("update settings: status %d", rec.Code)
	}

	if got := env.db.GetSetting("gemini_api_key", ""); got != "AIzaSecretKey1234" {
		t.Fatalf("stored key clobbered: %q", got)
	}
}

func TestSettingsUnknownKeyIgnored(t *testing.T) {
	env := newTestEnv(t)
	h := NewSettingsHandler(env.db)

	rec := httptest.NewRecorder()
	h.UpdateSettings(rec, httptest.NewRequest("PUT", "/api/settings",
		strings.NewReader(`{"bogus":"value"}`)))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("update settings: status %d", rec.Code)
	}
	if got := env.db.GetSetting("bogus", ""); got != "" {
		t.Fatalf("unknown key persisted: %q", got)
	}
}
