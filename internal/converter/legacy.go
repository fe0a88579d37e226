package converter

import "github.com/ccbridge/gateway/internal/models"

// ConvertAnthropicToOpenAI is a package-level convenience wrapper around
// RequestConverter, kept for callers that predate the struct-based
// converter and only need a stateless one-shot call.
func ConvertAnthropicToOpenAI(req *models.AnthropicRequest) (*models.OpenAIRequest, error) {
	return NewRequestConverter().Convert(req)
}

// ConvertOpenAIToAnthropic is the response-side counterpart of
// ConvertAnthropicToOpenAI. It logs nothing on malformed tool-call
// arguments since it carries no logger; prefer ResponseConverter directly
// when that matters.
func ConvertOpenAIToAnthropic(resp *models.OpenAIResponse, echoModel string) *models.AnthropicResponse {
	return NewResponseConverter(nil).Convert(resp, echoModel)
}
