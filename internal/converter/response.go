package converter

import (
	"encoding/json"

	"github.com/ccbridge/gateway/internal/idmint"
	"github.com/ccbridge/gateway/internal/models"
	"github.com/ccbridge/gateway/pkg/logger"
)

// ResponseConverter maps a non-streaming OpenAIResponse back into an
// AnthropicResponse. Output content blocks are ordered thinking, then text,
// then tool-uses, mirroring the streaming-side invariant.
type ResponseConverter struct {
	log *logger.Logger
}

// NewResponseConverter builds a ResponseConverter. log may be nil, in which
// case parse-failure warnings are dropped rather than logged.
func NewResponseConverter(log *logger.Logger) *ResponseConverter {
	return &ResponseConverter{log: log}
}

// Convert maps one OpenAIResponse's first choice into an AnthropicResponse.
func (c *ResponseConverter) Convert(resp *models.OpenAIResponse, echoModel string) *models.AnthropicResponse {
	out := &models.AnthropicResponse{
		ID:    idmint.MessageID(resp.ID),
		Type:  "message",
		Role:  "assistant",
		Model: echoModel,
	}

	if len(resp.Choices) == 0 {
		out.StopReason = models.StopEndTurn
		return out
	}
	choice := resp.Choices[0]
	msg := choice.Message

	out.Content = append(out.Content, thinkingBlocks(msg, resp.ID)...)

	if msg.Content != "" {
		out.Content = append(out.Content, models.ContentBlock{Type: models.ContentTypeText, Text: msg.Content})
	}

	for _, call := range msg.ToolCalls {
		out.Content = append(out.Content, c.toolUseBlock(call))
	}

	out.StopReason = models.MapStopReason(choice.FinishReason)

	if resp.Usage != nil {
		out.Usage = models.Usage{InputTokens: resp.Usage.PromptTokens, OutputTokens: resp.Usage.CompletionTokens}
	}

	return out
}

// thinkingBlocks implements the thinking-selection rule: thinking_blocks[]
// wins when present; otherwise a non-empty reasoning_content synthesizes one
// block whose signature is the upstream id's suffix.
func thinkingBlocks(msg models.OpenAIResponseMessage, upstreamID string) []models.ContentBlock {
	if len(msg.ThinkingBlocks) > 0 {
		blocks := make([]models.ContentBlock, 0, len(msg.ThinkingBlocks))
		for _, tb := range msg.ThinkingBlocks {
			blocks = append(blocks, models.ContentBlock{
				Type:      models.ContentTypeThinking,
				Text:      tb.Text,
				Signature: tb.Signature,
			})
		}
		return blocks
	}
	if msg.ReasoningContent != "" {
		return []models.ContentBlock{{
			Type:      models.ContentTypeThinking,
			Text:      msg.ReasoningContent,
			Signature: idmint.Signature(upstreamID),
		}}
	}
	return nil
}

// toolUseBlock parses a tool call's JSON-serialized arguments; a parse
// failure never fails the whole response, it substitutes {_raw: <string>}
// and logs.
func (c *ResponseConverter) toolUseBlock(call models.OpenAIToolCall) models.ContentBlock {
	var input json.RawMessage
	if json.Valid([]byte(call.Function.Arguments)) {
		input = json.RawMessage(call.Function.Arguments)
	} else {
		raw, _ := json.Marshal(map[string]string{"_raw": call.Function.Arguments})
		input = raw
		if c.log != nil {
			c.log.WithField("tool_call_id", call.ID).Warn("converter: failed to parse tool call arguments as JSON")
		}
	}
	return models.ContentBlock{
		Type:  models.ContentTypeToolUse,
		ID:    call.ID,
		Name:  call.Function.Name,
		Input: input,
	}
}
