package models

import "encoding/json"

// OpenAIRequest is the body sent to <base>/chat/completions.
type OpenAIRequest struct {
	Model         string              `json:"model"`
	Messages      []OpenAIMessage     `json:"messages"`
	MaxTokens     int                 `json:"max_tokens,omitempty"`
	Temperature   *float64            `json:"temperature,omitempty"`
	TopP          *float64            `json:"top_p,omitempty"`
	Stop          []string            `json:"stop,omitempty"`
	Stream        bool                `json:"stream,omitempty"`
	StreamOptions *OpenAIStreamOption `json:"stream_options,omitempty"`
	Tools         []OpenAITool        `json:"tools,omitempty"`
	ToolChoice    interface{}         `json:"tool_choice,omitempty"`
	Thinking      json.RawMessage     `json:"thinking,omitempty"`
}

// OpenAIStreamOption forces the upstream to emit a final usage chunk.
type OpenAIStreamOption struct {
	IncludeUsage bool `json:"include_usage"`
}

// OpenAIMessage is one flattened chat turn. Content is polymorphic: a
// plain string for system and tool messages and for assistant turns with at
// most one text block, or a parts array for every user turn and for
// assistant turns carrying thinking or several blocks.
type OpenAIMessage struct {
	Role             string           `json:"role"`
	Content          interface{}      `json:"content,omitempty"`
	ToolCalls        []OpenAIToolCall `json:"tool_calls,omitempty"`
	ToolCallID       string           `json:"tool_call_id,omitempty"`
	ReasoningContent string           `json:"reasoning_content,omitempty"`
}

// OpenAIContentPart is one element of a multimodal message's content array.
type OpenAIContentPart struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	Signature string          `json:"signature,omitempty"`
	ImageURL  *OpenAIImageURL `json:"image_url,omitempty"`
}

// OpenAIImageURL wraps the data-URL form of an inlined image.
type OpenAIImageURL struct {
	URL string `json:"url"`
}

// OpenAITool is a function definition advertised to the upstream model.
type OpenAITool struct {
	Type     string             `json:"type"`
	Function OpenAIToolFunction `json:"function"`
}

// OpenAIToolFunction names a callable function and its sanitized schema.
type OpenAIToolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// OpenAIToolCall is a model-issued invocation, arguments JSON-serialized.
type OpenAIToolCall struct {
	ID       string                 `json:"id"`
	Type     string                 `json:"type"`
	Function OpenAIToolCallFunction `json:"function"`
}

// OpenAIToolCallFunction carries the called function's name and args.
type OpenAIToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// OpenAIResponse is the non-streaming reply shape.
type OpenAIResponse struct {
	ID      string         `json:"id"`
	Model   string         `json:"model"`
	Choices []OpenAIChoice `json:"choices"`
	Usage   *OpenAIUsage   `json:"usage,omitempty"`
}

// OpenAIChoice wraps the single completion this gateway ever requests.
type OpenAIChoice struct {
	Message      OpenAIResponseMessage `json:"message"`
	FinishReason string                `json:"finish_reason"`
}

// OpenAIResponseMessage is the assistant turn inside a non-streaming choice.
type OpenAIResponseMessage struct {
	Role             string           `json:"role"`
	Content          string           `json:"content"`
	ReasoningContent string           `json:"reasoning_content,omitempty"`
	ThinkingBlocks   []ThinkingBlock  `json:"thinking_blocks,omitempty"`
	ToolCalls        []OpenAIToolCall `json:"tool_calls,omitempty"`
}


// ThinkingBlock is a structured reasoning fragment, optionally signed.
type ThinkingBlock struct {
	Text      string `json:"text"`
	Signature string `json:"signature,omitempty"`
}

// OpenAIUsage is the upstream token accounting.
type OpenAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// OpenAIStreamChunk is one SSE `data:` payload on the upstream side.
type OpenAIStreamChunk struct {
	ID      string               `json:"id"`
	Model   string               `json:"model,omitempty"`
	Usage   *OpenAIUsage         `json:"usage,omitempty"`
	Choices []OpenAIStreamChoice `json:"choices"`
}

// OpenAIStreamChoice wraps one delta plus its terminal finish_reason.
type OpenAIStreamChoice struct {
	Delta        OpenAIStreamDelta `json:"delta"`
	FinishReason *string           `json:"finish_reason"`
}

// OpenAIStreamDelta is the incremental payload of one streaming chunk.
type OpenAIStreamDelta struct {
	Content          string                 `json:"content,omitempty"`
	ReasoningContent string                 `json:"reasoning_content,omitempty"`
	ThinkingBlocks   []ThinkingBlock        `json:"thinking_blocks,omitempty"`
	ToolCalls        []OpenAIStreamToolCall `json:"tool_calls,omitempty"`
}

// OpenAIStreamToolCall is one incremental tool-call fragment, keyed by
// Index identifying which parallel call it belongs to.
type OpenAIStreamToolCall struct {
	Index    int                         `json:"index"`
	ID       string                      `json:"id,omitempty"`
	Function OpenAIStreamToolCallFunction `json:"function,omitempty"`
}

// OpenAIStreamToolCallFunction carries incremental name/arguments fragments.
type OpenAIStreamToolCallFunction struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}
