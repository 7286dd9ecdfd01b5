// Package router decides which upstream generation endpoint a request
// targets. Routing is a pure function of the prompt text and settings:
// identical inputs always route identically.
package router

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"latentchat/internal/domain"
)

//go:embed config/models.yaml
var configFiles embed.FS

// Target is a logical upstream endpoint.
type Target string

const (
	// TargetGeneral is the default text-to-image endpoint, parameterized by model.
	TargetGeneral Target = "general"
	// TargetStylized is the anime-oriented endpoint with fixed request parameters.
	TargetStylized Target = "stylized"
)

// weakSignalMinimum is how many weak signal terms must appear before a
// prompt routes to the stylized endpoint on its own.
const weakSignalMinimum = 3

// Stylized-endpoint parameter overrides. The endpoint only produces square
// four-image batches; caller settings for size and count are ignored.
const (
	stylizedSize  = 512
	stylizedCount = 4
)

// Model describes one entry of the model registry.
type Model struct {
	ID string `yaml:"id" json:"id"`
	// MinSize is the smallest width/height the model supports.
	MinSize int `yaml:"min_size" json:"min_size"`
}

type registry struct {
	Models        []Model  `yaml:"models"`
	StylizedModel string   `yaml:"stylized_model"`
	StrongSignals []string `yaml:"strong_signals"`
	WeakSignals   []string `yaml:"weak_signals"`
}

// Decision is the routing outcome. For the stylized target, Width, Height
// and Count carry forced overrides; callers must apply them rather than the
// user settings.
type Decision struct {
	Target Target
	Model  string
	Width  int
	Height int
	Count  int
	Steps  int
}

// Router routes prompts using the embedded model registry and signal lists.
type Router struct {
	reg registry
}

// New loads the embedded registry.
func New() (*Router, error) {
	data, err := configFiles.ReadFile("config/models.yaml")
	if err != nil {
		return nil, fmt.Errorf("read model registry: %w", err)
	}

	var reg registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("unmarshal model registry: %w", err)
	}
	if len(reg.Models) == 0 || reg.StylizedModel == "" {
		return nil, fmt.Errorf("model registry is incomplete")
	}

	return &Router{reg: reg}, nil
}

// Route chooses the upstream target for a prompt and applies the stylized
// parameter overrides when that target is selected.
//
// The stylized endpoint is chosen when the configured model is the stylized
// sentinel, when the prompt contains any strong signal term, or when it
// contains at least three distinct weak signal terms. Containment is a
// case-sensitive substring check; there is no tokenization.
func (r *Router) Route(prompt string, s domain.GenerationSettings) Decision {
	if r.isStylized(prompt, s.Model) {
		return Decision{
			Target: TargetStylized,
			Model:  r.reg.StylizedModel,
			Width:  stylizedSize,
			Height: stylizedSize,
			Count:  stylizedCount,
			Steps:  s.Steps,
		}
	}

	return Decision{
		Target: TargetGeneral,
		Model:  s.Model,
		Width:  s.Width,
		Height: s.Height,
		Count:  s.Count,
		Steps:  s.Steps,
	}
}

func (r *Router) isStylized(prompt, model string) bool {
	if model == r.reg.StylizedModel {
		return true
	}

	for _, term := range r.reg.StrongSignals {
		if strings.Contains(prompt, term) {
			return true
		}
	}

	weak := 0
	for _, term := range r.reg.WeakSignals {
		if strings.Contains(prompt, term) {
			weak++
		}
	}
	return weak >= weakSignalMinimum
}

// Models returns the registry entries in declaration order.
func (r *Router) Models() []Model {
	models := make([]Model, len(r.reg.Models))
	copy(models, r.reg.Models)
	return models
}

// KnownModel reports whether id is in the registry.
func (r *Router) KnownModel(id string) bool {
	for _, m := range r.reg.Models {
		if m.ID == id {
			return true
		}
	}
	return false
}
