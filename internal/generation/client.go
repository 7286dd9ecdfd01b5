// Package generation issues requests against the upstream text-to-image API
// and classifies their outcomes into the domain error taxonomy.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"latentchat/internal/domain"
	"latentchat/internal/router"
)

// Weighted prompt construction.
const (
	// PromptWeight is the weight of the primary and modifier terms.
	PromptWeight = 0.75
	// NegativeWeight is the weight of the quality-exclusion term.
	NegativeWeight = -0.5
	// NegativeMinPromptLength: prompts longer than this get the
	// quality-exclusion term added.
	NegativeMinPromptLength = 15
)

// NegativePrompt is the fixed quality-exclusion boilerplate.
const NegativePrompt = "amateur, poorly drawn, ugly, flat, tiling, poorly drawn hands, poorly drawn feet, poorly drawn face, out of frame, extra limbs, disfigured, deformed, body out of frame, blurry, bad anatomy, blurred, watermark, grainy, signature, cut off, draft"

// Fixed sampling preset.
const (
	Sampler        = "K_DPMPP_2S_ANCESTRAL"
	GuidancePreset = "FAST_BLUE"
	CfgScale       = 7
)

// TextPrompt is one weighted term of the upstream prompt list.
type TextPrompt struct {
	Text   string  `json:"text"`
	Weight float64 `json:"weight"`
}

// Payload is the request body of the general text-to-image endpoint.
type Payload struct {
	TextPrompts        []TextPrompt `json:"text_prompts"`
	Samples            int          `json:"samples"`
	Sampler            string       `json:"sampler"`
	ClipGuidancePreset string       `json:"clip_guidance_preset"`
	Width              int          `json:"width"`
	Height             int          `json:"height"`
	Steps              int          `json:"steps"`
	CfgScale           int          `json:"cfg_scale"`
}

// stylizedPayload is the request body of the stylized endpoint, which takes
// the raw prompt and fixes its own sampling parameters.
type stylizedPayload struct {
	Prompt  string `json:"prompt"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Count   int    `json:"count"`
	Steps   int    `json:"steps"`
	Scale   int    `json:"scale"`
	Session string `json:"session"`
}

// BuildTextPrompts assembles the weighted prompt list: the prompt itself,
// the quality-exclusion term for prompts above the minimum length, and the
// modifier text when present.
func BuildTextPrompts(prompt, modifiers string) []TextPrompt {
	prompts := []TextPrompt{{Text: prompt, Weight: PromptWeight}}

	if len(prompt) > NegativeMinPromptLength {
		prompts = append(prompts, TextPrompt{Text: NegativePrompt, Weight: NegativeWeight})
	}

	if modifiers != "" {
		prompts = append(prompts, TextPrompt{Text: modifiers, Weight: PromptWeight})
	}

	return prompts
}

// NewPayload builds the general-endpoint request body with the fixed
// sampling preset applied.
func NewPayload(prompt, modifiers string, samples, width, height, steps int) Payload {
	return Payload{
		TextPrompts:        BuildTextPrompts(prompt, modifiers),
		Samples:            samples,
		Sampler:            Sampler,
		ClipGuidancePreset: GuidancePreset,
		Width:              width,
		Height:             height,
		Steps:              steps,
		CfgScale:           CfgScale,
	}
}

// RawArtifact is one artifact as returned by the upstream API, before
// materialization. Exactly one of Base64 and URL is set depending on the
// endpoint variant.
type RawArtifact struct {
	Base64 string `json:"base64,omitempty"`
	URL    string `json:"image,omitempty"`
	Seed   int64  `json:"seed"`
	ID     string `json:"id,omitempty"`
}

// Request carries one submission to Generate.
type Request struct {
	Prompt    string
	Modifiers string
	Decision  router.Decision
	Session   string
}

// Client talks to the upstream generation API. It sends exactly one HTTP
// request per call; retries are a caller-level, user-initiated action.
type Client struct {
	httpClient  *http.Client
	upstreamURL string
	stylizedURL string
	apiKey      string
	logger      *slog.Logger
}

// NewClient creates a client for the given upstream base URLs. The API key
// may be empty; it is forwarded as-is.
func NewClient(httpClient *http.Client, upstreamURL, stylizedURL, apiKey string, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient:  httpClient,
		upstreamURL: upstreamURL,
		stylizedURL: stylizedURL,
		apiKey:      apiKey,
		logger:      logger,
	}
}

// Generate submits one request and returns the raw artifacts.
//
// Outcomes are classified: upstream 400 -> domain.ErrBadPrompt, 429 ->
// domain.ErrRateLimited, any other non-2xx or transport failure ->
// domain.ErrUpstream. A transport error never escapes unclassified.
func (c *Client) Generate(ctx context.Context, req Request) ([]RawArtifact, error) {
	var (
		url  string
		body interface{}
	)

	if req.Decision.Target == router.TargetStylized {
		url = c.stylizedURL
		body = stylizedPayload{
			Prompt:  req.Prompt,
			Width:   req.Decision.Width,
			Height:  req.Decision.Height,
			Count:   req.Decision.Count,
			Steps:   req.Decision.Steps,
			Scale:   CfgScale,
			Session: req.Session,
		}
	} else {
		url = fmt.Sprintf("%s/%s/text-to-image", c.upstreamURL, req.Decision.Model)
		body = NewPayload(req.Prompt, req.Modifiers, req.Decision.Count,
			req.Decision.Width, req.Decision.Height, req.Decision.Steps)
	}

	status, data, err := c.post(ctx, url, body)
	if err != nil {
		c.logger.Warn("upstream request failed", "target", req.Decision.Target, "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}

	switch {
	case status == http.StatusBadRequest:
		return nil, fmt.Errorf("%w: upstream rejected request", domain.ErrBadPrompt)
	case status == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: upstream throttled request", domain.ErrRateLimited)
	case status < 200 || status > 299:
		return nil, fmt.Errorf("%w: unexpected status %d", domain.ErrUpstream, status)
	}

	artifacts, err := ParseArtifacts(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}

	c.logger.Debug("generation succeeded", "target", req.Decision.Target, "artifacts", len(artifacts))
	return artifacts, nil
}

// Forward posts the given payload to the general endpoint for model and
// returns the upstream status and body verbatim. The proxy handler uses it
// for status passthrough.
func (c *Client) Forward(ctx context.Context, model string, p Payload) (int, []byte, error) {
	url := fmt.Sprintf("%s/%s/text-to-image", c.upstreamURL, model)
	return c.post(ctx, url, p)
}

func (c *Client) post(ctx context.Context, url string, body interface{}) (int, []byte, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}

	return resp.StatusCode, data, nil
}

// ParseArtifacts decodes an upstream response body. Both variants are
// accepted: an object with an artifacts list (base64 payloads) and a bare
// array of already-hosted image URLs.
func ParseArtifacts(data []byte) ([]RawArtifact, error) {
	var wrapper struct {
		Artifacts []RawArtifact `json:"artifacts"`
	}
	if err := json.Unmarshal(data, &wrapper); err == nil && wrapper.Artifacts != nil {
		return wrapper.Artifacts, nil
	}

	var artifacts []RawArtifact
	if err := json.Unmarshal(data, &artifacts); err != nil {
		return nil, fmt.Errorf("decode artifacts: %w", err)
	}
	return artifacts, nil
}
