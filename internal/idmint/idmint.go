// Package idmint derives stable, client-facing message ids and thinking
// signatures from upstream completion ids.
package idmint

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// prefixPattern matches an upstream id's leading "<letters>-" prefix, e.g.
// "chatcmpl-abc123" -> suffix "abc123".
var prefixPattern = regexp.MustCompile(`^[A-Za-z]+-([A-Za-z0-9_\-]+)`)

// Suffix extracts the stable portion of an upstream id: everything after
// the first <letters>- prefix, or the whole id if no prefix matches, or a
// random 9-character suffix if the id is empty. It is deterministic for any
// non-empty id: Suffix(id) == Suffix(id).
func Suffix(upstreamID string) string {
	if upstreamID == "" {
		return randomSuffix()
	}
	if m := prefixPattern.FindStringSubmatch(upstreamID); m != nil {
		return m[1]
	}
	return upstreamID
}

// MessageID mints the client-facing "msg_<suffix>" id for an upstream id.
func MessageID(upstreamID string) string {
	return "msg_" + Suffix(upstreamID)
}

// Signature derives the deterministic thinking-block signature for the
// reasoning_content fallback path: the same suffix used for the message id,
// so identical upstream ids always yield identical signatures.
func Signature(upstreamID string) string {
	return Suffix(upstreamID)
}

func randomSuffix() string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	return id[:9]
}
