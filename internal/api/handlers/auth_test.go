package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/audioscribe/backend/internal/auth"
	"github.com/audioscribe/backend/internal/db/models"
)

func newAuthHandler(t *testing.T, env *testEnv) *AuthHandler {
	t.Helper()
	if err := env.db.EnsureAdmin("admin", "hunter22"); err != nil {
		t.Fatal(err)
	}
	return NewAuthHandler(env.db, auth.NewJWTService("test-secret"))
}

func TestLoginReturnsTokenAndUser(t *testing.T) {
	env := newTestEnv(t)
	h := newAuthHandler(t, env)

	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest("POST", "/api/auth/login",
		strings.NewReader(`{"username":"admin","password":"hunter22"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Token string   `json:"token"`
		User  userView `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Token == "" {
		t.Error("no token issued")
	}
	if resp.User.Username != "admin" || resp.User.Role != "admin" {
		t.Errorf("unexpected user: %+v", resp.User)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	h := newAuthHandler(t, env)

	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest("POST", "/api/auth/login",
		strings.NewReader(`{"username":"admin","password":"wrong"}`)))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestMeIncludesTranscriptCount(t *testing.T) {
	env := newTestEnv(t)
	h := newAuthHandler(t, env)

	user, err := env.db.GetUserByUsername("admin")
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"t1", "t2"} {
		if err := env.db.CreateTranscript(&models.Transcript{
			ID:        id,
			UserID:    user.ID,
			Filename:  "talk.mp3",
			FilePath:  id + "/talk.mp3",
			MimeType:  "audio/mpeg",
			CreatedAt: time.Now(),
		}); err != nil {
			t.Fatal(err)
		}
	}

	req := authedRequest(httptest.NewRequest("GET", "/api/auth/me", nil), user.ID, "admin")
	rec := httptest.NewRecorder()
	h.Me(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var view userView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatal(err)
	}
	if view.TranscriptCount != 2 {
		t.Fatalf("transcript_count = %d, want 2", view.TranscriptCount)
	}
}
