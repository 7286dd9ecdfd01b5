package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"latentchat/internal/conversation"
	"latentchat/internal/generation"
	"latentchat/internal/image"
	"latentchat/internal/prompt"
	"latentchat/internal/promptbook"
	"latentchat/internal/router"
	"latentchat/internal/service"
)

type stubGenerator struct {
	artifacts []generation.RawArtifact
	err       error
}

func (s *stubGenerator) Generate(ctx context.Context, req generation.Request) ([]generation.RawArtifact, error) {
	return s.artifacts, s.err
}

type apiFixture struct {
	chat     *ChatHandler
	settings *SettingsHandler
	book     *PromptBookHandler
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	engine, err := prompt.NewEngine()
	if err != nil {
		t.Fatalf("prompt.NewEngine() error: %v", err)
	}
	r, err := router.New()
	if err != nil {
		t.Fatalf("router.New() error: %v", err)
	}
	book, err := promptbook.Open(filepath.Join(t.TempDir(), "prompts.json"), discardLogger())
	if err != nil {
		t.Fatalf("promptbook.Open() error: %v", err)
	}

	gen := &stubGenerator{artifacts: []generation.RawArtifact{
		{URL: "https://cdn.example/a.png", Seed: 3},
	}}
	settings := service.NewSettingsStore(r)
	chat := service.NewChatService(engine, r, gen, image.Inline{},
		conversation.NewStore(), book, settings, nil, discardLogger())

	return &apiFixture{
		chat:     NewChatHandler(chat, discardLogger()),
		settings: NewSettingsHandler(settings, r, discardLogger()),
		book:     NewPromptBookHandler(book, discardLogger()),
	}
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestSendAndListMessages(t *testing.T) {
	f := newAPIFixture(t)

	rec := httptest.NewRecorder()
	f.chat.SendMessage(rec, postJSON("/api/messages", `{"prompt":"a cat"}`))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var msg struct {
		Status  string   `json:"status"`
		Images  []struct{ Image string `json:"image"` } `json:"images"`
		Actions []string `json:"actions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &msg); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if msg.Status != "ready" || len(msg.Images) != 1 {
		t.Errorf("message = %+v, want ready with one image", msg)
	}
	if len(msg.Actions) == 0 {
		t.Errorf("message has no actions")
	}

	rec = httptest.NewRecorder()
	f.chat.ListMessages(rec, httptest.NewRequest(http.MethodGet, "/api/messages", nil))

	var history []json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("history len = %d, want user + assistant", len(history))
	}
}

func TestSendValidation(t *testing.T) {
	f := newAPIFixture(t)

	rec := httptest.NewRecorder()
	f.chat.SendMessage(rec, postJSON("/api/messages", `{"prompt":""}`))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRetryUnknownMessage(t *testing.T) {
	f := newAPIFixture(t)

	req := postJSON("/api/messages/ghost/retry", "")
	req.SetPathValue("id", "ghost")

	rec := httptest.NewRecorder()
	f.chat.RetryMessage(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestDeleteAbsentMessage(t *testing.T) {
	f := newAPIFixture(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/messages/ghost", nil)
	req.SetPathValue("id", "ghost")

	rec := httptest.NewRecorder()
	f.chat.DeleteMessage(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204 even for absent ids", rec.Code)
	}
}

func TestLastPrompt(t *testing.T) {
	f := newAPIFixture(t)

	rec := httptest.NewRecorder()
	f.chat.LastPrompt(rec, httptest.NewRequest(http.MethodGet, "/api/messages/last", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("empty history status = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	f.chat.SendMessage(rec, postJSON("/api/messages", `{"prompt":"a cat"}`))

	rec = httptest.NewRecorder()
	f.chat.LastPrompt(rec, httptest.NewRequest(http.MethodGet, "/api/messages/last", nil))

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["prompt"] != "a cat" {
		t.Errorf("last prompt = %q, want 'a cat'", body["prompt"])
	}
}

func TestSurprise(t *testing.T) {
	f := newAPIFixture(t)

	rec := httptest.NewRecorder()
	f.chat.Surprise(rec, httptest.NewRequest(http.MethodGet, "/api/surprise", nil))

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["prompt"] == "" {
		t.Errorf("surprise prompt is empty")
	}
}

func TestUpdateSettingsValidation(t *testing.T) {
	f := newAPIFixture(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/settings", strings.NewReader(`{"steps":999}`))
	f.settings.UpdateSettings(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPatch, "/api/settings", strings.NewReader(`{"steps":60}`))
	f.settings.UpdateSettings(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	f.settings.GetSettings(rec, httptest.NewRequest(http.MethodGet, "/api/settings", nil))

	var body struct {
		Settings struct {
			Steps int `json:"steps"`
		} `json:"settings"`
		Models []json.RawMessage `json:"models"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Settings.Steps != 60 {
		t.Errorf("steps = %d, want 60", body.Settings.Steps)
	}
	if len(body.Models) == 0 {
		t.Errorf("model registry missing from settings response")
	}
}

func TestPromptBookRoundTrip(t *testing.T) {
	f := newAPIFixture(t)

	rec := httptest.NewRecorder()
	f.book.SavePrompt(rec, postJSON("/api/prompts", `{"prompt":"a cat"}`))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("save status = %d, want 204", rec.Code)
	}

	rec = httptest.NewRecorder()
	f.book.ListPrompts(rec, httptest.NewRequest(http.MethodGet, "/api/prompts", nil))

	var prompts []string
	if err := json.Unmarshal(rec.Body.Bytes(), &prompts); err != nil {
		t.Fatalf("decode prompts: %v", err)
	}
	if len(prompts) != 1 || prompts[0] != "a cat" {
		t.Errorf("prompts = %v, want [a cat]", prompts)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/prompts", strings.NewReader(`{"prompt":"a cat"}`))
	f.book.RemovePrompt(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("remove status = %d, want 204", rec.Code)
	}

	rec = httptest.NewRecorder()
	f.book.ListPrompts(rec, httptest.NewRequest(http.MethodGet, "/api/prompts", nil))
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" && body != "null" {
		t.Errorf("prompts after removal = %s, want empty", body)
	}
}
