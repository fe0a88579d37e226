// Package gateway is the thin HTTP-facing shell: parse the request, pick
// the streaming/non-streaming branch, forward headers, pipe bytes.
package gateway

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ccbridge/gateway/internal/converter"
	"github.com/ccbridge/gateway/internal/middleware"
	"github.com/ccbridge/gateway/internal/models"
	"github.com/ccbridge/gateway/internal/streaming"
	"github.com/ccbridge/gateway/internal/upstream"
	"github.com/ccbridge/gateway/pkg/logger"
)

const defaultMaxRequestBodyBytes = 10 * 1024 * 1024

// Handler wires the request/response converters and the upstream client
// behind the four routes this gateway exposes.
type Handler struct {
	upstream            *upstream.Client
	requestConverter    *converter.RequestConverter
	responseConverter   *converter.ResponseConverter
	log                 *logger.Logger
	baseURL             string
	hasFallbackAPIKey   bool
	maxRequestBodyBytes int64
}

// New builds a Handler. baseURL is surfaced verbatim by /status.
// hasFallbackAPIKey reports whether OPENAI_API_KEY is configured server
// side: when true, a request missing both Authorization and x-api-key is
// still accepted and forwarded using that fallback, rather than 401ing.
// maxRequestBodyBytes caps the incoming request body; 0 selects the default.
func New(client *upstream.Client, log *logger.Logger, baseURL string, hasFallbackAPIKey bool, maxRequestBodyBytes int64) *Handler {
	if maxRequestBodyBytes <= 0 {
		maxRequestBodyBytes = defaultMaxRequestBodyBytes
	}
	return &Handler{
		upstream:            client,
		requestConverter:    converter.NewRequestConverter(),
		responseConverter:   converter.NewResponseConverter(log),
		log:                 log,
		baseURL:             baseURL,
		hasFallbackAPIKey:   hasFallbackAPIKey,
		maxRequestBodyBytes: maxRequestBodyBytes,
	}
}

// RegisterRoutes attaches this gateway's routes to router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.POST("/v1/messages", h.handleMessages)
	router.GET("/health", h.handleHealth)
	router.GET("/status", h.handleStatus)
	router.GET("/", h.handleHealth)
}

func (h *Handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"upstream_base_url": h.baseURL,
	})
}

func (h *Handler) handleMessages(c *gin.Context) {
	requestID := middleware.RequestIDFrom(c)

	credential, err := extractCredential(c.Request, h.hasFallbackAPIKey)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxRequestBodyBytes)
	var anthropicReq models.AnthropicRequest
	if err := c.ShouldBindJSON(&anthropicReq); err != nil {
		h.writeError(c, newBadRequestError("invalid request body", err))
		return
	}

	openAIReq, err := h.requestConverter.Convert(&anthropicReq)
	if err != nil {
		h.writeError(c, newBadRequestError("request conversion failed", err))
		return
	}

	payload, err := json.Marshal(openAIReq)
	if err != nil {
		h.writeError(c, newTransformError("encoding upstream request", err))
		return
	}

	upstreamResp, err := h.upstream.CreateChatCompletion(c.Request.Context(), payload, credential, c.Request.Header)
	if err != nil {
		h.log.WithRequestID(requestID).WithError(err).Error("gateway: upstream call failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": gin.H{"message": "upstream request failed", "type": "upstream_error"}})
		return
	}
	defer upstreamResp.Body.Close()

	if upstreamResp.StatusCode < 200 || upstreamResp.StatusCode >= 300 {
		h.relayUpstreamError(c, upstreamResp)
		return
	}

	if anthropicReq.Stream {
		h.streamResponse(c, upstreamResp.Body, anthropicReq.Model)
		return
	}
	h.nonStreamResponse(c, upstreamResp.Body, anthropicReq.Model)
}

// relayUpstreamError forwards a non-2xx upstream response's status and
// body verbatim, per the gateway's error-disposition table.
func (h *Handler) relayUpstreamError(c *gin.Context, resp *upstream.Response) {
	body, _ := io.ReadAll(resp.Body)
	c.Data(resp.StatusCode, "application/json", body)
}

func (h *Handler) nonStreamResponse(c *gin.Context, body io.Reader, model string) {
	var openAIResp models.OpenAIResponse
	if err := upstream.ReadJSONBody(body, &openAIResp); err != nil {
		h.writeError(c, newTransformError("decoding upstream response", err))
		return
	}
	anthropicResp := h.responseConverter.Convert(&openAIResp, model)
	c.JSON(http.StatusOK, anthropicResp)
}

func (h *Handler) streamResponse(c *gin.Context, body io.ReadCloser, model string) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)

	transformer := streaming.New(streaming.NewEventWriter(c.Writer), model, h.log)

	buf := make([]byte, 4096)
	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			_ = transformer.Close()
			return
		default:
		}

		n, err := body.Read(buf)
		if n > 0 {
			if _, feedErr := transformer.Feed(buf[:n]); feedErr != nil {
				h.log.WithError(feedErr).Error("gateway: stream transform failed")
				return
			}
		}
		if err != nil {
			if err != io.EOF {
				h.log.WithError(err).Warn("gateway: upstream stream read failed")
			}
			_ = transformer.Close()
			return
		}
	}
}

func (h *Handler) writeError(c *gin.Context, err *gatewayError) {
	c.JSON(err.statusCode(), gin.H{"error": gin.H{"message": err.Error()}})
}

// extractCredential reads the client's forwarded credential from either an
// Authorization: Bearer header or x-api-key. Absence of both is a 401,
// unless the server has a fallback OPENAI_API_KEY configured, in which case
// an empty credential is returned and the upstream client substitutes its
// own fallback key when forwarding.
func extractCredential(req *http.Request, hasFallback bool) (string, *gatewayError) {
	if auth := req.Header.Get("Authorization"); auth != "" {
		if strings.HasPrefix(auth, "Bearer ") {
			return strings.TrimPrefix(auth, "Bearer "), nil
		}
		return "", newAuthError("malformed Authorization header")
	}
	if key := req.Header.Get("x-api-key"); key != "" {
		return key, nil
	}
	if hasFallback {
		return "", nil
	}
	return "", newAuthError("missing credential: provide Authorization: Bearer <key> or x-api-key")
}
