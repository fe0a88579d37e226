package idmint

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageID_ExtractsSuffixAfterPrefix(t *testing.T) {
	assert.Equal(t, "msg_abc", MessageID("chatcmpl-abc"))
}

func TestMessageID_WholeIDWhenNoPrefix(t *testing.T) {
	assert.Equal(t, "msg_abc123", MessageID("abc123"))
}

func TestMessageID_RandomFallbackWhenEmpty(t *testing.T) {
	id := MessageID("")
	assert.True(t, strings.HasPrefix(id, "msg_"))
	assert.Len(t, strings.TrimPrefix(id, "msg_"), 9)
}

func TestMessageID_Deterministic(t *testing.T) {
	assert.Equal(t, MessageID("chatcmpl-xyz789"), MessageID("chatcmpl-xyz789"))
}

func TestSignature_MatchesMessageIDSuffix(t *testing.T) {
	assert.Equal(t, "abc", Signature("chatcmpl-abc"))
	assert.Equal(t, MessageID("chatcmpl-abc"), "msg_"+Signature("chatcmpl-abc"))
}

func TestSignature_DeterministicAcrossCalls(t *testing.T) {
	assert.Equal(t, Signature("chatcmpl-repeat"), Signature("chatcmpl-repeat"))
}

func TestSuffix_HandlesHyphenatedSuffix(t *testing.T) {
	assert.Equal(t, "abc-123_x", Suffix("chatcmpl-abc-123_x"))
}
