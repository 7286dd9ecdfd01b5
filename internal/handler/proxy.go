package handler

import (
	"log/slog"
	"net/http"

	"latentchat/internal/domain"
	"latentchat/internal/generation"
	"latentchat/internal/httputil"
	"latentchat/internal/image"
)

// invalidRequestBody is the fixed rejection payload of the /v1/image edge.
// Kept wire-compatible with existing clients, which match on it verbatim.
var invalidRequestBody = map[string]string{"error": "Invalid Request"}

// ProxyHandler exposes the /v1/image generation edge. It validates the
// request, forwards it upstream and either passes the upstream body through
// unchanged or rewrites artifacts into hosted URLs when a materializer is
// configured.
type ProxyHandler struct {
	client       *generation.Client
	materializer image.Materializer
	logger       *slog.Logger
}

// NewProxyHandler creates the proxy edge. materializer may be nil, in which
// case upstream responses pass through raw.
func NewProxyHandler(client *generation.Client, materializer image.Materializer, logger *slog.Logger) *ProxyHandler {
	return &ProxyHandler{
		client:       client,
		materializer: materializer,
		logger:       logger,
	}
}

// proxyRequest is the public request shape of POST /v1/image.
type proxyRequest struct {
	Prompt    string `json:"prompt"`
	Modifiers string `json:"modifiers"`
	Model     string `json:"model"`
	Count     int    `json:"count"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Steps     int    `json:"steps"`
}

// proxyArtifact is one entry of the normalized response.
type proxyArtifact struct {
	Image string `json:"image"`
	Seed  int64  `json:"seed"`
}

// Generate handles /v1/image. Anything that is not a POST with a prompt is
// rejected with the fixed 400 body.
// POST /v1/image
func (h *ProxyHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.RespondJSON(w, http.StatusBadRequest, invalidRequestBody)
		return
	}

	var req proxyRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil || req.Prompt == "" {
		httputil.RespondJSON(w, http.StatusBadRequest, invalidRequestBody)
		return
	}

	h.applyDefaults(&req)

	payload := generation.NewPayload(req.Prompt, req.Modifiers, req.Count, req.Width, req.Height, req.Steps)

	status, body, err := h.client.Forward(r.Context(), req.Model, payload)
	if err != nil {
		h.logger.Warn("upstream forward failed", "error", err)
		httputil.RespondError(w, http.StatusBadGateway, "upstream unavailable")
		return
	}

	if h.materializer == nil || status != http.StatusOK {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write(body)
		return
	}

	raw, err := generation.ParseArtifacts(body)
	if err != nil {
		h.logger.Warn("unparseable upstream response", "error", err)
		httputil.RespondError(w, http.StatusBadGateway, "invalid upstream response")
		return
	}

	artifacts, err := h.materializer.Materialize(r.Context(), raw)
	if err != nil {
		h.logger.Warn("materialization failed", "error", err)
		httputil.RespondError(w, http.StatusBadGateway, "failed to store artifacts")
		return
	}

	out := make([]proxyArtifact, 0, len(artifacts))
	for _, a := range artifacts {
		out = append(out, proxyArtifact{Image: a.Locator, Seed: a.Seed})
	}
	httputil.RespondJSON(w, http.StatusOK, out)
}

func (h *ProxyHandler) applyDefaults(req *proxyRequest) {
	if req.Model == "" {
		req.Model = domain.DefaultModel
	}
	if req.Count == 0 {
		req.Count = 1
	}
	if req.Width == 0 {
		req.Width = 512
	}
	if req.Height == 0 {
		req.Height = 512
	}
	if req.Steps == 0 {
		req.Steps = 30
	}
}
