package converter

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccbridge/gateway/internal/models"
)

func TestConvert_SystemBecomesFirstMessage(t *testing.T) {
	req := &models.AnthropicRequest{
		Model:  "claude-x",
		System: "be terse",
		Messages: []models.AnthropicMessage{
			{Role: "user", Content: []models.ContentBlock{{Type: models.ContentTypeText, Text: "hi"}}},
		},
	}
	out, err := NewRequestConverter().Convert(req)
	require.NoError(t, err)
	require.Len(t, out.Messages, 2)
	assert.Equal(t, "system", out.Messages[0].Role)
	assert.Equal(t, "be terse", out.Messages[0].Content)
}

func TestConvert_ToolResultBecomesStandaloneToolMessage(t *testing.T) {
	req := &models.AnthropicRequest{
		Model: "claude-x",
		Messages: []models.AnthropicMessage{
			{Role: "user", Content: []models.ContentBlock{
				{Type: models.ContentTypeToolResult, ToolUseID: "call_1", Content: &models.ToolResultValue{AsString: "42"}},
				{Type: models.ContentTypeText, Text: "what now"},
			}},
		},
	}
	out, err := NewRequestConverter().Convert(req)
	require.NoError(t, err)
	require.Len(t, out.Messages, 2)
	assert.Equal(t, "tool", out.Messages[0].Role)
	assert.Equal(t, "call_1", out.Messages[0].ToolCallID)
	assert.Equal(t, "42", out.Messages[0].Content)
	assert.Equal(t, "user", out.Messages[1].Role)
}

func TestConvert_AssistantSingleTextBlockBecomesPlainString(t *testing.T) {
	req := &models.AnthropicRequest{
		Model: "claude-x",
		Messages: []models.AnthropicMessage{
			{Role: "assistant", Content: []models.ContentBlock{{Type: models.ContentTypeText, Text: "hello"}}},
		},
	}
	out, err := NewRequestConverter().Convert(req)
	require.NoError(t, err)
	assert.Equal(t, "hello", out.Messages[0].Content)
}

func TestConvert_AssistantNoBlocksBecomesEmptyString(t *testing.T) {
	req := &models.AnthropicRequest{
		Model: "claude-x",
		Messages: []models.AnthropicMessage{
			{Role: "assistant", Content: []models.ContentBlock{
				{Type: models.ContentTypeToolUse, ID: "call_1", Name: "lookup", Input: json.RawMessage(`{}`)},
			}},
		},
	}
	out, err := NewRequestConverter().Convert(req)
	require.NoError(t, err)
	assert.Equal(t, "", out.Messages[0].Content)
	require.Len(t, out.Messages[0].ToolCalls, 1)
	assert.Equal(t, "lookup", out.Messages[0].ToolCalls[0].Function.Name)
}

func TestConvert_ImageBecomesDataURL(t *testing.T) {
	req := &models.AnthropicRequest{
		Model: "claude-x",
		Messages: []models.AnthropicMessage{
			{Role: "user", Content: []models.ContentBlock{
				{Type: models.ContentTypeImage, Source: &models.ImageSource{Type: "base64", MediaType: "image/png", Data: "Zm9v"}},
			}},
		},
	}
	out, err := NewRequestConverter().Convert(req)
	require.NoError(t, err)
	parts := out.Messages[0].Content.([]models.OpenAIContentPart)
	require.Len(t, parts, 1)
	assert.Equal(t, "data:image/png;base64,Zm9v", parts[0].ImageURL.URL)
}

func TestConvert_TopKDroppedSilently(t *testing.T) {
	topK := 40
	req := &models.AnthropicRequest{Model: "x", TopK: &topK, Messages: []models.AnthropicMessage{}}
	out, err := NewRequestConverter().Convert(req)
	require.NoError(t, err)
	_ = out // no TopK field exists on OpenAIRequest at all; compile-time proof of the drop
}

func TestConvert_ToolChoiceMapping(t *testing.T) {
	req := &models.AnthropicRequest{
		Model:      "x",
		Messages:   []models.AnthropicMessage{},
		ToolChoice: &models.AnthropicToolChoice{Type: "auto"},
	}
	out, err := NewRequestConverter().Convert(req)
	require.NoError(t, err)
	assert.Equal(t, "auto", out.ToolChoice)

	req.ToolChoice = &models.AnthropicToolChoice{Type: "tool", Name: "lookup"}
	out, err = NewRequestConverter().Convert(req)
	require.NoError(t, err)
	choiceMap := out.ToolChoice.(map[string]interface{})
	assert.Equal(t, "function", choiceMap["type"])
}

func TestConvert_ToolsAreSanitized(t *testing.T) {
	req := &models.AnthropicRequest{
		Model:    "x",
		Messages: []models.AnthropicMessage{},
		Tools: []models.AnthropicTool{
			{Name: "lookup", InputSchema: json.RawMessage(`{"$schema":"s","type":"object","additionalProperties":false}`)},
		},
	}
	out, err := NewRequestConverter().Convert(req)
	require.NoError(t, err)
	require.Len(t, out.Tools, 1)
	assert.JSONEq(t, `{"type":"object"}`, string(out.Tools[0].Function.Parameters))
}

func TestConvert_StreamForcesIncludeUsage(t *testing.T) {
	req := &models.AnthropicRequest{Model: "x", Stream: true, Messages: []models.AnthropicMessage{}}
	out, err := NewRequestConverter().Convert(req)
	require.NoError(t, err)
	require.NotNil(t, out.StreamOptions)
	assert.True(t, out.StreamOptions.IncludeUsage)
}

func TestConvert_ToolUseMissingIDFails(t *testing.T) {
	req := &models.AnthropicRequest{
		Model: "x",
		Messages: []models.AnthropicMessage{
			{Role: "assistant", Content: []models.ContentBlock{{Type: models.ContentTypeToolUse, Name: "x"}}},
		},
	}
	_, err := NewRequestConverter().Convert(req)
	assert.Error(t, err)
}

func TestConvert_StopSequencesBecomeStop(t *testing.T) {
	req := &models.AnthropicRequest{Model: "x", StopSequences: []string{"STOP"}, Messages: []models.AnthropicMessage{}}
	out, err := NewRequestConverter().Convert(req)
	require.NoError(t, err)
	assert.Equal(t, []string{"STOP"}, out.Stop)
}
