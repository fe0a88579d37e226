// Package converter maps between the Anthropic-shape and OpenAI-shape
// non-streaming request/response forms.
package converter

import (
	"encoding/json"
	"fmt"

	"github.com/ccbridge/gateway/internal/models"
	"github.com/ccbridge/gateway/internal/schema"
)

// RequestConverter maps an AnthropicRequest into an OpenAIRequest.
type RequestConverter struct{}

// NewRequestConverter builds a RequestConverter. It carries no state; one
// instance may be shared across requests.
func NewRequestConverter() *RequestConverter {
	return &RequestConverter{}
}

// Convert flattens messages, forwards scalar sampling knobs, sanitizes tool
// schemas, and maps tool_choice. Returns an error if a content block
// violates the tagged-variant shape the wire format requires (e.g. a
// tool_use block lacking an id); the gateway turns that into a 4xx.
func (c *RequestConverter) Convert(req *models.AnthropicRequest) (*models.OpenAIRequest, error) {
	out := &models.OpenAIRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		Stream:      req.Stream,
	}
	// top_k has no OpenAI analogue and is dropped.

	if len(req.StopSequences) > 0 {
		out.Stop = req.StopSequences
	}

	if req.System != "" {
		out.Messages = append(out.Messages, models.OpenAIMessage{Role: "system", Content: req.System})
	}

	for _, m := range req.Messages {
		converted, err := convertMessage(m)
		if err != nil {
			return nil, err
		}
		out.Messages = append(out.Messages, converted...)
	}

	for _, tool := range req.Tools {
		sanitized, err := schema.SanitizeRaw(tool.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("converter: sanitizing schema for tool %q: %w", tool.Name, err)
		}
		out.Tools = append(out.Tools, models.OpenAITool{
			Type: "function",
			Function: models.OpenAIToolFunction{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  sanitized,
			},
		})
	}

	if req.ToolChoice != nil {
		switch req.ToolChoice.Type {
		case "auto", "any":
			out.ToolChoice = "auto"
		case "tool":
			out.ToolChoice = map[string]interface{}{
				"type":     "function",
				"function": map[string]string{"name": req.ToolChoice.Name},
			}
		}
	}

	if req.Thinking != nil {
		raw, err := json.Marshal(req.Thinking)
		if err != nil {
			return nil, fmt.Errorf("converter: marshaling thinking hint: %w", err)
		}
		out.Thinking = raw
	}

	if req.Stream {
		out.StreamOptions = &models.OpenAIStreamOption{IncludeUsage: true}
	}

	return out, nil
}

// convertMessage expands one Anthropic turn into zero-or-more OpenAI
// messages: a user turn's tool_result blocks become standalone tool
// messages preceding the flattened user message; an assistant turn becomes
// exactly one OpenAI message.
func convertMessage(m models.AnthropicMessage) ([]models.OpenAIMessage, error) {
	switch m.Role {
	case "user":
		return convertUserMessage(m)
	case "assistant":
		msg, err := convertAssistantMessage(m)
		if err != nil {
			return nil, err
		}
		return []models.OpenAIMessage{msg}, nil
	default:
		return nil, fmt.Errorf("converter: unsupported message role %q", m.Role)
	}
}

func convertUserMessage(m models.AnthropicMessage) ([]models.OpenAIMessage, error) {
	var out []models.OpenAIMessage
	var parts []models.OpenAIContentPart

	for _, block := range m.Content {
		switch block.Type {
		case models.ContentTypeToolResult:
			if block.ToolUseID == "" {
				return nil, fmt.Errorf("converter: tool_result block missing tool_use_id")
			}
			content := ""
			if block.Content != nil {
				content = block.Content.String()
			}
			out = append(out, models.OpenAIMessage{
				Role:       "tool",
				Content:    content,
				ToolCallID: block.ToolUseID,
			})
		case models.ContentTypeText:
			parts = append(parts, models.OpenAIContentPart{Type: "text", Text: block.Text})
		case models.ContentTypeImage:
			if block.Source == nil {
				return nil, fmt.Errorf("converter: image block missing source")
			}
			dataURL := fmt.Sprintf("data:%s;base64,%s", block.Source.MediaType, block.Source.Data)
			parts = append(parts, models.OpenAIContentPart{
				Type:     "image_url",
				ImageURL: &models.OpenAIImageURL{URL: dataURL},
			})
		default:
			return nil, fmt.Errorf("converter: unsupported user content block type %q", block.Type)
		}
	}

	if len(parts) > 0 {
		out = append(out, models.OpenAIMessage{Role: "user", Content: parts})
	}
	return out, nil
}

func convertAssistantMessage(m models.AnthropicMessage) (models.OpenAIMessage, error) {
	var parts []models.OpenAIContentPart
	var toolCalls []models.OpenAIToolCall

	for _, block := range m.Content {
		switch block.Type {
		case models.ContentTypeText:
			parts = append(parts, models.OpenAIContentPart{Type: "text", Text: block.Text})
		case models.ContentTypeThinking:
			parts = append(parts, models.OpenAIContentPart{Type: "thinking", Text: block.Text, Signature: block.Signature})
		case models.ContentTypeToolUse:
			if block.ID == "" {
				return models.OpenAIMessage{}, fmt.Errorf("converter: tool_use block missing id")
			}
			args, err := json.Marshal(block.Input)
			if err != nil {
				return models.OpenAIMessage{}, fmt.Errorf("converter: marshaling tool_use input: %w", err)
			}
			toolCalls = append(toolCalls, models.OpenAIToolCall{
				ID:   block.ID,
				Type: "function",
				Function: models.OpenAIToolCallFunction{
					Name:      block.Name,
					Arguments: string(args),
				},
			})
		default:
			return models.OpenAIMessage{}, fmt.Errorf("converter: unsupported assistant content block type %q", block.Type)
		}
	}

	msg := models.OpenAIMessage{Role: "assistant", ToolCalls: toolCalls}
	switch {
	case len(parts) == 0:
		msg.Content = ""
	case len(parts) == 1 && parts[0].Type == "text":
		msg.Content = parts[0].Text
	default:
		msg.Content = parts
	}
	return msg, nil
}
