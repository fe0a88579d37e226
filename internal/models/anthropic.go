// Package models defines the wire types for both protocol shapes the
// gateway translates between.
package models

import (
	"encoding/json"
	"fmt"
)

// AnthropicRequest is the body of a POST /v1/messages call.
type AnthropicRequest struct {
	Model         string               `json:"model"`
	Messages      []AnthropicMessage   `json:"messages"`
	System        string               `json:"system,omitempty"`
	MaxTokens     int                  `json:"max_tokens,omitempty"`
	Temperature   *float64             `json:"temperature,omitempty"`
	TopP          *float64             `json:"top_p,omitempty"`
	TopK          *int                 `json:"top_k,omitempty"`
	StopSequences []string             `json:"stop_sequences,omitempty"`
	Stream        bool                 `json:"stream,omitempty"`
	Tools         []AnthropicTool      `json:"tools,omitempty"`
	ToolChoice    *AnthropicToolChoice `json:"tool_choice,omitempty"`
	Thinking      *ThinkingConfig      `json:"thinking,omitempty"`
}

// ThinkingConfig carries the client's interleaved-reasoning hint.
type ThinkingConfig struct {
	Type         string `json:"type"`
	BudgetTokens int    `json:"budget_tokens,omitempty"`
}

// AnthropicTool is a function definition offered to the model.
type AnthropicTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema,omitempty"`
}

// AnthropicToolChoice directs whether/which tool the model must call.
type AnthropicToolChoice struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

// AnthropicMessage is one turn. Content is either a plain string or an
// ordered list of content blocks; UnmarshalJSON resolves which.
type AnthropicMessage struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

func (m *AnthropicMessage) UnmarshalJSON(data []byte) error {
	var raw struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Role = raw.Role
	if len(raw.Content) == 0 {
		m.Content = nil
		return nil
	}

	var asString string
	if err := json.Unmarshal(raw.Content, &asString); err == nil {
		m.Content = []ContentBlock{{Type: ContentTypeText, Text: asString}}
		return nil
	}

	var blocks []ContentBlock
	if err := json.Unmarshal(raw.Content, &blocks); err != nil {
		return fmt.Errorf("message content neither string nor block array: %w", err)
	}
	m.Content = blocks
	return nil
}

func (m AnthropicMessage) MarshalJSON() ([]byte, error) {
	type alias struct {
		Role    string         `json:"role"`
		Content []ContentBlock `json:"content"`
	}
	a := alias{Role: m.Role, Content: m.Content}
	if a.Content == nil {
		a.Content = []ContentBlock{}
	}
	return json.Marshal(a)
}

// ContentBlock kind tags, the discriminant of the Anthropic-side union.
const (
	ContentTypeText       = "text"
	ContentTypeImage      = "image"
	ContentTypeThinking   = "thinking"
	ContentTypeToolUse    = "tool_use"
	ContentTypeToolResult = "tool_result"
)

// ContentBlock is a tagged variant over the five Anthropic content kinds.
// Text is shared by the text and thinking variants; every other field below
// belongs to exactly one variant. Callers switch on Type.
type ContentBlock struct {
	Type string `json:"type"`

	// text, thinking
	Text string `json:"text,omitempty"`

	// image
	Source *ImageSource `json:"source,omitempty"`

	// thinking
	Signature string `json:"signature,omitempty"`

	// tool_use
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// tool_result
	ToolUseID string           `json:"tool_use_id,omitempty"`
	Content   *ToolResultValue `json:"content,omitempty"`
}

// ImageSource is the base64-encoded payload of an `image` block.
type ImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// ToolResultValue holds a tool_result's content, which the wire format
// allows as either a plain string or a list of content blocks.
type ToolResultValue struct {
	AsString string
	AsBlocks []ContentBlock
}

func (t *ToolResultValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		t.AsString = s
		return nil
	}
	var blocks []ContentBlock
	if err := json.Unmarshal(data, &blocks); err != nil {
		return fmt.Errorf("tool_result content neither string nor block array: %w", err)
	}
	t.AsBlocks = blocks
	return nil
}

func (t ToolResultValue) MarshalJSON() ([]byte, error) {
	if t.AsBlocks != nil {
		return json.Marshal(t.AsBlocks)
	}
	return json.Marshal(t.AsString)
}

// String renders the tool_result content as a single string, the form the
// OpenAI-shape tool message requires.
func (t ToolResultValue) String() string {
	if t.AsBlocks == nil {
		return t.AsString
	}
	var out string
	for _, b := range t.AsBlocks {
		if b.Type == ContentTypeText {
			out += b.Text
		}
	}
	return out
}

// AnthropicResponse is the body returned for a non-streaming /v1/messages call.
type AnthropicResponse struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Role       string         `json:"role"`
	Model      string         `json:"model"`
	Content    []ContentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      Usage          `json:"usage"`
}

// Usage is the input/output token count pair.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Stop reasons, the closed Anthropic set. MapStopReason produces every one
// of them except StopStopSequence.
const (
	StopEndTurn      = "end_turn"
	StopMaxTokens    = "max_tokens"
	StopToolUse      = "tool_use"
	StopStopSequence = "stop_sequence"
)

// MapStopReason implements the exact, non-extensible OpenAI -> Anthropic
// finish_reason mapping: anything outside {stop, length, tool_calls} maps to
// end_turn, with no content_filter special case.
func MapStopReason(openAIFinishReason string) string {
	switch openAIFinishReason {
	case "stop":
		return StopEndTurn
	case "length":
		return StopMaxTokens
	case "tool_calls":
		return StopToolUse
	default:
		return StopEndTurn
	}
}
