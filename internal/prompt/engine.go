// Package prompt derives effective generation requests from raw user input:
// it synthesizes style modifiers for under-specified prompts and can compose
// wholly synthetic "surprise" prompts from a template vocabulary.
package prompt

import (
	"embed"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed vocab/vocab.yaml
var vocabFiles embed.FS

const (
	// modifierThreshold: prompts shorter than this get synthesized modifiers
	// when the user supplied none.
	modifierThreshold = 150
	// shortPromptThreshold: prompts shorter than this are assumed
	// under-specified and are echoed into the modifier channel.
	shortPromptThreshold = 35
	// modifierSampleCount is how many vocabulary terms a synthesized
	// modifier string contains.
	modifierSampleCount = 10
	// maxSurpriseModifiers bounds the 0..n-1 extra terms appended to a
	// surprise prompt.
	maxSurpriseModifiers = 10
)

type vocabulary struct {
	Templates  []string `yaml:"templates"`
	Nouns      []string `yaml:"nouns"`
	Gerunds    []string `yaml:"gerunds"`
	Adjectives []string `yaml:"adjectives"`
	Adverbs    []string `yaml:"adverbs"`
	Artists    []string `yaml:"artists"`
	Modifiers  []string `yaml:"modifiers"`
}

// Engine composes prompts and modifier text from the embedded vocabulary.
// It has no network or state side effects; output depends only on the inputs
// and the random source.
type Engine struct {
	vocab vocabulary

	mu  sync.Mutex
	rng *rand.Rand
}

// NewEngine creates an engine seeded from the current time.
func NewEngine() (*Engine, error) {
	return NewEngineWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewEngineWithSource creates an engine with an explicit random source.
// Tests pass a fixed seed for deterministic output.
func NewEngineWithSource(src rand.Source) (*Engine, error) {
	data, err := vocabFiles.ReadFile("vocab/vocab.yaml")
	if err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}

	var v vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("unmarshal vocabulary: %w", err)
	}

	for name, list := range map[string][]string{
		"templates": v.Templates, "nouns": v.Nouns, "gerunds": v.Gerunds,
		"adjectives": v.Adjectives, "adverbs": v.Adverbs, "artists": v.Artists,
		"modifiers": v.Modifiers,
	} {
		if len(list) == 0 {
			return nil, fmt.Errorf("vocabulary section %q is empty", name)
		}
	}

	return &Engine{vocab: v, rng: rand.New(src)}, nil
}

// Compose derives the effective (prompt, modifiers) pair for a submission.
//
// If no modifiers were supplied and the prompt is short enough to benefit
// from steering, a fixed number of vocabulary terms is sampled. Very short
// prompts are additionally prefixed onto the modifier text so the subject
// reaches the style channel too. The prompt itself is returned unchanged.
func (e *Engine) Compose(prompt, modifiers string) (string, string) {
	if len(prompt) < modifierThreshold && modifiers == "" {
		modifiers = e.SampleModifiers()
	}

	if len(prompt) < shortPromptThreshold {
		if modifiers != "" {
			modifiers = prompt + " " + modifiers
		} else {
			modifiers = prompt
		}
	}

	return prompt, modifiers
}

// SampleModifiers returns modifierSampleCount vocabulary terms joined by ", ".
// Terms may repeat; sampling is uniform.
func (e *Engine) SampleModifiers() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	terms := make([]string, modifierSampleCount)
	for i := range terms {
		terms[i] = e.vocab.Modifiers[e.rng.Intn(len(e.vocab.Modifiers))]
	}
	return strings.Join(terms, ", ")
}

// Surprise composes a wholly synthetic prompt: one template with every
// placeholder substituted by a uniform random vocabulary choice, followed by
// a random number of extra modifier terms.
func (e *Engine) Surprise() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.vocab.Templates[e.rng.Intn(len(e.vocab.Templates))]
	s = strings.ReplaceAll(s, "{noun}", e.vocab.Nouns[e.rng.Intn(len(e.vocab.Nouns))])
	s = strings.ReplaceAll(s, "{gerund}", e.vocab.Gerunds[e.rng.Intn(len(e.vocab.Gerunds))])
	s = strings.ReplaceAll(s, "{adjective}", e.vocab.Adjectives[e.rng.Intn(len(e.vocab.Adjectives))])
	s = strings.ReplaceAll(s, "{adverb}", e.vocab.Adverbs[e.rng.Intn(len(e.vocab.Adverbs))])
	s = strings.ReplaceAll(s, "{artist}", e.vocab.Artists[e.rng.Intn(len(e.vocab.Artists))])

	for i := e.rng.Intn(maxSurpriseModifiers); i > 0; i-- {
		s += ", " + e.vocab.Modifiers[e.rng.Intn(len(e.vocab.Modifiers))]
	}

	return s
}
