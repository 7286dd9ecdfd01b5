package service

import (
	"fmt"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"latentchat/internal/domain"
	"latentchat/internal/router"
)

// Generation setting bounds, matching the upstream API limits.
const (
	minSize  = 512
	maxSize  = 1024
	minCount = 1
	maxCount = 10
	minSteps = 10
	maxSteps = 150
)

// SettingsStore owns the mutable global generation settings. Reads return
// a by-value snapshot so in-flight requests are unaffected by later changes.
type SettingsStore struct {
	mu     sync.RWMutex
	s      domain.GenerationSettings
	router *router.Router
}

// NewSettingsStore starts from the defaults.
func NewSettingsStore(r *router.Router) *SettingsStore {
	return &SettingsStore{s: domain.DefaultSettings(), router: r}
}

// Get returns the current settings snapshot.
func (st *SettingsStore) Get() domain.GenerationSettings {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s
}

// UpdateSettingsRequest is a partial settings update; nil fields are kept.
type UpdateSettingsRequest struct {
	Model  *string `json:"model"`
	Width  *int    `json:"width"`
	Height *int    `json:"height"`
	Count  *int    `json:"count"`
	Steps  *int    `json:"steps"`
}

// Update validates and applies a partial update, returning the result.
func (st *SettingsStore) Update(req *UpdateSettingsRequest) (domain.GenerationSettings, error) {
	if err := st.validateUpdate(req); err != nil {
		return domain.GenerationSettings{}, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if req.Model != nil {
		st.s.Model = *req.Model
	}
	if req.Width != nil {
		st.s.Width = *req.Width
	}
	if req.Height != nil {
		st.s.Height = *req.Height
	}
	if req.Count != nil {
		st.s.Count = *req.Count
	}
	if req.Steps != nil {
		st.s.Steps = *req.Steps
	}

	// models with a larger minimum size push the dimensions up
	for _, m := range st.router.Models() {
		if m.ID == st.s.Model {
			if st.s.Width < m.MinSize {
				st.s.Width = m.MinSize
			}
			if st.s.Height < m.MinSize {
				st.s.Height = m.MinSize
			}
		}
	}

	return st.s, nil
}

func (st *SettingsStore) validateUpdate(req *UpdateSettingsRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Model, validation.By(st.validateModel)),
		validation.Field(&req.Width, validation.Min(minSize), validation.Max(maxSize)),
		validation.Field(&req.Height, validation.Min(minSize), validation.Max(maxSize)),
		validation.Field(&req.Count, validation.Min(minCount), validation.Max(maxCount)),
		validation.Field(&req.Steps, validation.Min(minSteps), validation.Max(maxSteps)),
	)
}

func (st *SettingsStore) validateModel(value interface{}) error {
	model, ok := value.(string)
	if !ok || model == "" {
		return nil
	}
	if !st.router.KnownModel(model) {
		return fmt.Errorf("unknown model %q", model)
	}
	return nil
}
