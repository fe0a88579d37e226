package schema

import "encoding/json"

// SanitizeRaw decodes a raw JSON-schema fragment, sanitizes it, and
// re-encodes it. Used at the RequestConverter boundary, where tool
// input-schemas arrive as json.RawMessage.
func SanitizeRaw(raw json.RawMessage) (json.RawMessage, error) {
	if len(raw) == 0 {
		return raw, nil
	}
	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, err
	}
	cleaned, err := json.Marshal(Sanitize(decoded))
	if err != nil {
		return nil, err
	}
	return cleaned, nil
}
