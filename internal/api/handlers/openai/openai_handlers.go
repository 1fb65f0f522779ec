// Package openai provides the HTTP handlers for the OpenAI-compatible
// endpoints: model listing and chat completions. Requests are translated to
// the upstream schema, executed, and the responses translated back, with the
// streaming path reframing the upstream SSE stream event by event.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/thinkgate-dev/thinkgate/internal/api/handlers"
	"github.com/thinkgate-dev/thinkgate/internal/translator"
	"github.com/thinkgate-dev/thinkgate/internal/upstream"
)

// OpenAIAPIHandler contains the handlers for the OpenAI-compatible endpoints.
type OpenAIAPIHandler struct {
	*handlers.BaseAPIHandler
}

// NewOpenAIAPIHandler creates a new handler instance over the shared state.
func NewOpenAIAPIHandler(base *handlers.BaseAPIHandler) *OpenAIAPIHandler {
	return &OpenAIAPIHandler{BaseAPIHandler: base}
}

// Models handles the /v1/models endpoint. It enumerates the alias table's
// inbound identifiers in OpenAI list format.
func (h *OpenAIAPIHandler) Models(c *gin.Context) {
	snapshot := h.Snapshot()
	created := time.Now().Unix()

	aliases := snapshot.Registry.Aliases()
	data := make([]gin.H, 0, len(aliases))
	for _, alias := range aliases {
		data = append(data, gin.H{
			"id":       alias,
			"object":   "model",
			"created":  created,
			"owned_by": "thinkgate",
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"object": "list",
		"data":   data,
	})
}

// ChatCompletions handles the /v1/chat/completions endpoint. It resolves the
// inbound model, builds the upstream request, and dispatches to the streaming
// or non-streaming path based on the stream flag.
func (h *OpenAIAPIHandler) ChatCompletions(c *gin.Context) {
	rawJSON, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, handlers.ErrorResponse{
			Error: handlers.ErrorDetail{
				Message: fmt.Sprintf("Invalid request: %v", err),
				Type:    "invalid_request_error",
				Code:    http.StatusBadRequest,
			},
		})
		return
	}

	if !gjson.ValidBytes(rawJSON) || !gjson.GetBytes(rawJSON, "model").Exists() {
		c.JSON(http.StatusBadRequest, handlers.ErrorResponse{
			Error: handlers.ErrorDetail{
				Message: "Request body must be a JSON object with a model field",
				Type:    "invalid_request_error",
				Code:    http.StatusBadRequest,
			},
		})
		return
	}

	if gjson.GetBytes(rawJSON, "stream").Type == gjson.True {
		h.handleStreamingResponse(c, rawJSON)
	} else {
		h.handleNonStreamingResponse(c, rawJSON)
	}
}

// buildUpstreamPayload runs the request adapter: model resolution, prompt
// augmentation and parameter defaulting. It never fails.
func (h *OpenAIAPIHandler) buildUpstreamPayload(c *gin.Context, snapshot handlers.Snapshot, rawJSON []byte) (payload []byte, inboundModel string) {
	inboundModel = gjson.GetBytes(rawJSON, "model").String()
	resolved := snapshot.Resolver.Resolve(c.Request.Context(), inboundModel)

	payload = translator.BuildUpstreamRequest(rawJSON, translator.RequestOptions{
		UpstreamModel:   resolved,
		DetailedPrompts: snapshot.Cfg.Features.DetailedPrompts,
		ThinkingMode:    snapshot.Cfg.Features.ThinkingMode,
	})
	return payload, inboundModel
}

// handleNonStreamingResponse performs the buffered upstream call and returns
// the translated response in a single JSON document. The call carries the
// configured per-request deadline and is cancelled when the client
// disconnects.
func (h *OpenAIAPIHandler) handleNonStreamingResponse(c *gin.Context, rawJSON []byte) {
	snapshot := h.Snapshot()
	payload, inboundModel := h.buildUpstreamPayload(c, snapshot, rawJSON)

	ctx := c.Request.Context()
	if timeout := snapshot.Cfg.RequestTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
		defer cancel()
	}

	body, err := snapshot.Executor.Execute(ctx, payload)
	if err != nil {
		writeUpstreamError(c, err)
		return
	}

	out := translator.TranslateNonStream(body, inboundModel, time.Now().Unix(), snapshot.Cfg.Features.ReasoningDisplay)
	c.Data(http.StatusOK, "application/json", out)
}

// handleStreamingResponse performs the live upstream call and forwards the
// reframed event stream to the client. Once headers are committed, an
// upstream error simply closes the connection.
func (h *OpenAIAPIHandler) handleStreamingResponse(c *gin.Context, rawJSON []byte) {
	snapshot := h.Snapshot()
	payload, _ := h.buildUpstreamPayload(c, snapshot, rawJSON)

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, handlers.ErrorResponse{
			Error: handlers.ErrorDetail{
				Message: "Streaming not supported",
				Type:    "server_error",
				Code:    http.StatusInternalServerError,
			},
		})
		return
	}

	chunks, err := snapshot.Executor.ExecuteStream(c.Request.Context(), payload)
	if err != nil {
		writeUpstreamError(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)

	session := translator.NewStreamSession(snapshot.Cfg.Features.ReasoningDisplay)
	for chunk := range chunks {
		if chunk.Err != nil {
			// Headers are already committed; close without a synthetic event.
			log.Errorf("upstream stream error: %v", chunk.Err)
			return
		}
		for _, event := range session.Feed(chunk.Data) {
			_, _ = fmt.Fprint(c.Writer, event)
			flusher.Flush()
		}
	}
}

// writeUpstreamError surfaces an upstream-call failure as the OpenAI error
// envelope, echoing the upstream status when one is known.
func writeUpstreamError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := err.Error()
	var statusErr *upstream.StatusError
	if errors.As(err, &statusErr) {
		status = statusErr.StatusCode()
	}
	log.Errorf("upstream request failed: %v", err)

	c.JSON(status, handlers.ErrorResponse{
		Error: handlers.ErrorDetail{
			Message: message,
			Type:    "invalid_request_error",
			Code:    status,
		},
	})
}
