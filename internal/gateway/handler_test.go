package gateway

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccbridge/gateway/internal/config"
	"github.com/ccbridge/gateway/internal/middleware"
	"github.com/ccbridge/gateway/internal/models"
	"github.com/ccbridge/gateway/internal/upstream"
	"github.com/ccbridge/gateway/pkg/logger"
)

func newTestRouter(t *testing.T, upstreamURL string, hasFallback bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.New(config.LoggingConfig{Level: "error", Format: "json"})
	client := upstream.New(upstreamURL, "", 5*time.Second)
	h := New(client, log, upstreamURL, hasFallback, 0)

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(middleware.Logging(log))
	router.Use(middleware.CORS())
	h.RegisterRoutes(router)
	return router
}

func TestHandleMessages_NonStreamText(t *testing.T) {
	upstreamSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(models.OpenAIResponse{
			ID: "chatcmpl-abc",
			Choices: []models.OpenAIChoice{
				{Message: models.OpenAIResponseMessage{Content: "Hi"}, FinishReason: "stop"},
			},
			Usage: &models.OpenAIUsage{PromptTokens: 3, CompletionTokens: 1},
		})
	}))
	defer upstreamSrv.Close()

	router := newTestRouter(t, upstreamSrv.URL, false)

	body, _ := json.Marshal(models.AnthropicRequest{
		Model:    "claude-x",
		Messages: []models.AnthropicMessage{{Role: "user", Content: []models.ContentBlock{{Type: "text", Text: "hi"}}}},
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/messages", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer sk-test")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.AnthropicResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "msg_abc", resp.ID)
	assert.Equal(t, models.StopEndTurn, resp.StopReason)
}

func TestHandleMessages_MissingCredentialIs401(t *testing.T) {
	router := newTestRouter(t, "http://unused.invalid", false)

	body, _ := json.Marshal(models.AnthropicRequest{Model: "claude-x", Messages: []models.AnthropicMessage{}})
	req := httptest.NewRequest(http.MethodPost, "/v1/messages", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleMessages_MissingCredentialAllowedWithFallbackConfigured(t *testing.T) {
	upstreamSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(models.OpenAIResponse{
			ID:      "chatcmpl-abc",
			Choices: []models.OpenAIChoice{{Message: models.OpenAIResponseMessage{Content: "ok"}, FinishReason: "stop"}},
		})
	}))
	defer upstreamSrv.Close()

	router := newTestRouter(t, upstreamSrv.URL, true)
	body, _ := json.Marshal(models.AnthropicRequest{Model: "claude-x", Messages: []models.AnthropicMessage{}})
	req := httptest.NewRequest(http.MethodPost, "/v1/messages", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleMessages_UpstreamNon2xxForwardedVerbatim(t *testing.T) {
	upstreamSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer upstreamSrv.Close()

	router := newTestRouter(t, upstreamSrv.URL, false)
	body, _ := json.Marshal(models.AnthropicRequest{Model: "claude-x", Messages: []models.AnthropicMessage{}})
	req := httptest.NewRequest(http.MethodPost, "/v1/messages", bytes.NewReader(body))
	req.Header.Set("x-api-key", "sk-test")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"rate limited"}`, rec.Body.String())
}

func TestHandleMessages_Streaming(t *testing.T) {
	upstreamSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		w.Write([]byte(`data: {"id":"chatcmpl-abc","choices":[{"delta":{"content":"Hi"},"finish_reason":null}]}` + "\n\n"))
		flusher.Flush()
		w.Write([]byte(`data: {"id":"chatcmpl-abc","choices":[{"delta":{},"finish_reason":"stop"}]}` + "\n\n"))
		flusher.Flush()
		w.Write([]byte("data: [DONE]\n\n"))
		flusher.Flush()
	}))
	defer upstreamSrv.Close()

	router := newTestRouter(t, upstreamSrv.URL, false)
	body, _ := json.Marshal(models.AnthropicRequest{
		Model:    "claude-x",
		Stream:   true,
		Messages: []models.AnthropicMessage{{Role: "user", Content: []models.ContentBlock{{Type: "text", Text: "hi"}}}},
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/messages", bytes.NewReader(body))
	req.Header.Set("x-api-key", "sk-test")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "message_start")
	assert.Contains(t, rec.Body.String(), "message_stop")
}

func TestHandleMessages_WrongMethodIs405(t *testing.T) {
	router := newTestRouter(t, "http://unused.invalid", false)
	req := httptest.NewRequest(http.MethodGet, "/v1/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestOptions_AnyPathGetsCORSPreflight(t *testing.T) {
	router := newTestRouter(t, "http://unused.invalid", false)
	req := httptest.NewRequest(http.MethodOptions, "/v1/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHandleHealth(t *testing.T) {
	router := newTestRouter(t, "http://unused.invalid", false)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}
