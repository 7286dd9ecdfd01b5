// Package service orchestrates the message lifecycle: optimistic history
// updates, the generation call, and terminal state transitions.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"latentchat/internal/conversation"
	"latentchat/internal/domain"
	"latentchat/internal/generation"
	"latentchat/internal/image"
	"latentchat/internal/prompt"
	"latentchat/internal/router"
)

// User-facing error texts for failed generations.
const (
	errTextBadRequest  = "Bad request"
	errTextRateLimited = "You're too fast! Slow down!"
	errTextUnknown     = "Something went wrong"
)

// Generator is the outbound generation call; satisfied by
// *generation.Client and mocked in tests.
type Generator interface {
	Generate(ctx context.Context, req generation.Request) ([]generation.RawArtifact, error)
}

// PromptBook is the saved-prompt set the action evaluation consults.
type PromptBook interface {
	Contains(prompt string) bool
}

// RatingSink persists artifact ratings. Nil when no feedback backend is
// configured.
type RatingSink interface {
	Rate(ctx context.Context, artifactIDs []string, rating int) error
}

// ChatService drives a submission through
// Composing -> AwaitingResponse -> Succeeded|Failed. Failures stay in the
// history with a retry affordance; retries append new messages.
type ChatService struct {
	engine       *prompt.Engine
	router       *router.Router
	generator    Generator
	materializer image.Materializer
	store        *conversation.Store
	book         PromptBook
	settings     *SettingsStore
	ratings      RatingSink
	session      string
	logger       *slog.Logger
}

// NewChatService wires the lifecycle controller. ratings may be nil.
func NewChatService(
	engine *prompt.Engine,
	r *router.Router,
	generator Generator,
	materializer image.Materializer,
	store *conversation.Store,
	book PromptBook,
	settings *SettingsStore,
	ratings RatingSink,
	logger *slog.Logger,
) *ChatService {
	return &ChatService{
		engine:       engine,
		router:       r,
		generator:    generator,
		materializer: materializer,
		store:        store,
		book:         book,
		settings:     settings,
		ratings:      ratings,
		session:      uuid.NewString(),
		logger:       logger,
	}
}

// Send composes and submits a prompt. An empty prompt with no modifiers is
// rejected before any state mutation. The returned message is the assistant
// message in its terminal state; generation failures are folded into that
// state, not returned as errors.
func (s *ChatService) Send(ctx context.Context, promptText, modifiers string) (*domain.Message, error) {
	if promptText == "" && modifiers == "" {
		return nil, fmt.Errorf("%w: prompt is required", domain.ErrValidation)
	}

	promptText, modifiers = s.engine.Compose(promptText, modifiers)
	return s.submit(ctx, promptText, modifiers)
}

// Retry re-submits a failed (or completed) message's exact prompt and
// modifiers. History is append-only: the resubmission gets fresh ids and the
// original message is untouched. Composition is not re-run, so the retried
// request is byte-identical to the original.
func (s *ChatService) Retry(ctx context.Context, messageID string) (*domain.Message, error) {
	m, ok := s.store.Get(messageID)
	if !ok {
		return nil, fmt.Errorf("%w: message %s", domain.ErrNotFound, messageID)
	}
	return s.submit(ctx, m.Prompt, m.Modifiers)
}

// Remix re-submits a message's prompt without its modifiers, letting the
// composer synthesize a fresh style.
func (s *ChatService) Remix(ctx context.Context, messageID string) (*domain.Message, error) {
	m, ok := s.store.Get(messageID)
	if !ok {
		return nil, fmt.Errorf("%w: message %s", domain.ErrNotFound, messageID)
	}
	return s.Send(ctx, m.Prompt, "")
}

// submit runs one submission with already-composed prompt/modifiers.
func (s *ChatService) submit(ctx context.Context, promptText, modifiers string) (*domain.Message, error) {
	settings := s.settings.Get() // by-value snapshot

	user := domain.Message{
		ID:        uuid.NewString(),
		Role:      domain.RoleUser,
		Prompt:    promptText,
		Modifiers: modifiers,
		CreatedAt: time.Now(),
		Status:    domain.StatusReady,
		Settings:  settings,
		Rating:    domain.DefaultRating,
	}
	s.store.Append(user)

	placeholder := domain.Message{
		ID:        uuid.NewString(),
		Role:      domain.RoleAssistant,
		Prompt:    promptText,
		Modifiers: modifiers,
		CreatedAt: time.Now(),
		Status:    domain.StatusPending,
		Settings:  settings,
		Rating:    domain.DefaultRating,
	}
	s.store.Append(placeholder)

	s.logger.Info("message submitted",
		"user_id", user.ID,
		"assistant_id", placeholder.ID,
		"prompt_len", len(promptText),
	)

	decision := s.router.Route(promptText, settings)

	raw, err := s.generator.Generate(ctx, generation.Request{
		Prompt:    promptText,
		Modifiers: modifiers,
		Decision:  decision,
		Session:   s.session,
	})
	if err != nil {
		return s.fail(placeholder, err), nil
	}

	images, err := s.materializer.Materialize(ctx, raw)
	if err != nil {
		s.logger.Warn("materialization failed", "assistant_id", placeholder.ID, "error", err)
		return s.fail(placeholder, fmt.Errorf("%w: %v", domain.ErrUpstream, err)), nil
	}

	result := placeholder
	result.Status = domain.StatusReady
	result.Images = images
	result.Actions = []domain.Action{
		domain.ActionRegenerate,
		domain.ActionDownload,
		domain.ActionSavePrompt,
	}
	if result.Modifiers != "" {
		result.Actions = append(result.Actions, domain.ActionRemix)
	}
	s.store.Update(result.ID, result)

	s.logger.Info("generation completed",
		"assistant_id", result.ID,
		"target", decision.Target,
		"images", len(images),
	)
	return &result, nil
}

// fail transitions the placeholder to its failed state with a retry action.
func (s *ChatService) fail(placeholder domain.Message, err error) *domain.Message {
	result := placeholder
	result.Status = domain.StatusFailed
	result.Error = errorText(err)
	result.Actions = []domain.Action{domain.ActionRetry}
	s.store.Update(result.ID, result)

	s.logger.Warn("generation failed", "assistant_id", result.ID, "error", err)
	return &result
}

func errorText(err error) string {
	switch {
	case errors.Is(err, domain.ErrBadPrompt):
		return errTextBadRequest
	case errors.Is(err, domain.ErrRateLimited):
		return errTextRateLimited
	default:
		return errTextUnknown
	}
}

// History returns the conversation in display order.
func (s *ChatService) History() []domain.Message {
	return s.store.All()
}

// Actions evaluates a message's affordances at render time: save-prompt is
// withheld when the prompt is already in the book.
func (s *ChatService) Actions(m domain.Message) []domain.Action {
	if len(m.Actions) == 0 {
		return nil
	}

	actions := make([]domain.Action, 0, len(m.Actions))
	for _, a := range m.Actions {
		if a == domain.ActionSavePrompt && (m.Prompt == "" || s.book.Contains(m.Prompt)) {
			continue
		}
		actions = append(actions, a)
	}
	return actions
}

// Rate records a rating for a message and forwards the artifact ids to the
// feedback backend when one is configured. On persistence failure the
// message rating reverts to neutral.
func (s *ChatService) Rate(ctx context.Context, messageID string, rating int) (*domain.Message, error) {
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", domain.ErrValidation)
	}

	m, ok := s.store.Get(messageID)
	if !ok {
		return nil, fmt.Errorf("%w: message %s", domain.ErrNotFound, messageID)
	}

	m.Rating = rating
	s.store.Update(m.ID, m)

	if s.ratings != nil {
		ids := make([]string, 0, len(m.Images))
		for _, img := range m.Images {
			if img.ID != "" {
				ids = append(ids, img.ID)
			}
		}
		if len(ids) > 0 {
			if err := s.ratings.Rate(ctx, ids, rating); err != nil {
				m.Rating = domain.DefaultRating
				s.store.Update(m.ID, m)
				return nil, fmt.Errorf("%w: persist rating: %v", domain.ErrUpstream, err)
			}
		}
	}

	return &m, nil
}

// LastUserPrompt returns the latest user prompt for input recall.
func (s *ChatService) LastUserPrompt() (string, bool) {
	return s.store.LastUserPrompt()
}

// Surprise synthesizes a random prompt from the template vocabulary.
func (s *ChatService) Surprise() string {
	return s.engine.Surprise()
}

// Remove deletes a message from the history; absent ids are a no-op.
func (s *ChatService) Remove(messageID string) {
	s.store.Remove(messageID)
}

// Session returns the per-process session identifier.
func (s *ChatService) Session() string {
	return s.session
}
