package generation

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mandalnilabja/pixelrelay/internal/clientinfo"
	"github.com/mandalnilabja/pixelrelay/internal/metrics"
	"github.com/mandalnilabja/pixelrelay/internal/provider"
	"github.com/mandalnilabja/pixelrelay/internal/relay"
	"github.com/mandalnilabja/pixelrelay/internal/storage"
	"github.com/mandalnilabja/pixelrelay/internal/storage/models"
	"github.com/mandalnilabja/pixelrelay/internal/transport/http/handler/shared"
	"github.com/mandalnilabja/pixelrelay/internal/transport/http/middleware"
	"github.com/mandalnilabja/pixelrelay/internal/types"
)

// maxRequestBytes bounds the generation request body.
const maxRequestBytes = 1 << 20

// attempt carries what every log entry of one request shares.
type attempt struct {
	requestID string
	payload   types.GenerationPayload
	client    models.Client
}

// Generate handles POST /api/generate: validate, call the upstream API,
// relay the image when blob storage is configured, log, respond.
func (h *Handlers) Generate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		shared.MethodNotAllowed(w, http.MethodPost)
		return
	}

	var req types.GenerationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		shared.WriteJSONError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		shared.WriteJSONError(w, "Missing required field: video_description", http.StatusBadRequest)
		return
	}

	info := clientinfo.FromRequest(r)
	at := attempt{
		requestID: middleware.GetRequestID(r.Context()),
		payload:   req.Payload(h.Defaults),
		client: models.Client{
			UserIP:     info.IP,
			UserAgent:  info.UserAgent,
			DeviceType: string(info.DeviceType),
		},
	}

	result, err := h.Generator.Generate(r.Context(), at.payload)
	if err != nil {
		h.upstreamFailed(w, r, at, err)
		return
	}

	sourceURL := result.ImageURL()
	if !result.Succeeded() || sourceURL == "" {
		h.emptyResult(w, r, at, result)
		return
	}

	imageURL := sourceURL
	if h.Relay != nil {
		imageURL, err = h.Relay.Relay(r.Context(), sourceURL, at.payload.OutputFormat)
		if err != nil {
			h.relayFailed(w, r, at, err)
			return
		}
		result.SetImageURL(imageURL)
	}

	h.appendLog(r.Context(), storage.StreamGenerations, models.GenerationEntry{
		ID:             models.NewID(),
		Timestamp:      h.Now().UTC(),
		Prompt:         at.payload.Prompt,
		NegativePrompt: at.payload.NegativePrompt,
		StylePreset:    at.payload.StylePreset,
		AspectRatio:    at.payload.AspectRatio,
		OutputFormat:   at.payload.OutputFormat,
		Seed:           at.payload.Seed,
		ImageURL:       &imageURL,
		Success:        true,
		Client:         at.client,
		RequestID:      at.requestID,
	}, at.requestID)

	metrics.GenerationsTotal.WithLabelValues("success").Inc()
	shared.WriteJSON(w, result, http.StatusOK)
}

// upstreamFailed mirrors the upstream status to the client.
func (h *Handlers) upstreamFailed(w http.ResponseWriter, r *http.Request, at attempt, err error) {
	var upErr *provider.UpstreamError
	if !errors.As(err, &upErr) {
		upErr = &provider.UpstreamError{
			Kind:    provider.KindTransport,
			Status:  http.StatusInternalServerError,
			Message: err.Error(),
			Err:     err,
		}
	}

	h.Logger.Warn("upstream generation failed",
		"kind", upErr.Kind,
		"status", upErr.Status,
		"error", upErr.Message,
		"request_id", at.requestID,
	)
	h.logError(r, at, string(upErr.Kind), upErr.Status, upErr.Message)
	metrics.GenerationsTotal.WithLabelValues(string(upErr.Kind)).Inc()

	body := map[string]any{"status": upErr.Status}
	switch upErr.Kind {
	case provider.KindTransport:
		body["error"] = "Internal server error"
		body["message"] = upErr.Message
	case provider.KindTimeout:
		body["error"] = "Gateway timeout"
		body["message"] = upErr.Message
	default:
		body["error"] = upErr.Message
	}
	shared.WriteJSON(w, body, upErr.Status)
}

// emptyResult handles a 2xx upstream body that reports failure or has no URL.
func (h *Handlers) emptyResult(w http.ResponseWriter, r *http.Request, at attempt, result types.UpstreamResult) {
	message := result.Message()
	if message == "" {
		message = "External API returned no image URL"
	}

	h.Logger.Warn("upstream returned no image",
		"success", result.Succeeded(),
		"error", message,
		"request_id", at.requestID,
	)
	h.logError(r, at, models.KindEmptyResult, http.StatusInternalServerError, message)
	metrics.GenerationsTotal.WithLabelValues(models.KindEmptyResult).Inc()

	shared.WriteJSON(w, map[string]any{
		"error":   "Image generation failed",
		"message": message,
	}, http.StatusInternalServerError)
}

// relayFailed reports a fetch, transcode or upload failure after upstream
// success. No generation entry is written.
func (h *Handlers) relayFailed(w http.ResponseWriter, r *http.Request, at attempt, err error) {
	stage := "unknown"
	timeout := false
	var relayErr *relay.RelayError
	if errors.As(err, &relayErr) {
		stage = string(relayErr.Stage)
		timeout = relayErr.Timeout()
	}

	h.Logger.Error("image relay failed",
		"stage", stage,
		"timeout", timeout,
		"error", err,
		"request_id", at.requestID,
	)
	h.logError(r, at, models.KindRelay, http.StatusInternalServerError, err.Error())
	metrics.GenerationsTotal.WithLabelValues(models.KindRelay).Inc()

	shared.WriteJSON(w, map[string]any{
		"error":   "Failed to process generated image",
		"message": err.Error(),
	}, http.StatusInternalServerError)
}

func (h *Handlers) logError(r *http.Request, at attempt, kind string, status int, message string) {
	h.appendLog(r.Context(), storage.StreamErrors, models.ErrorEntry{
		ID:        models.NewID(),
		Timestamp: h.Now().UTC(),
		Kind:      kind,
		Status:    status,
		Error:     message,
		Payload:   at.payload,
		Client:    at.client,
		RequestID: at.requestID,
	}, at.requestID)
}
