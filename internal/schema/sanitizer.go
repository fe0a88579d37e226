// Package schema cleans tool input-schemas before they are forwarded
// upstream.
package schema

// allowedStringFormats are the only `format` values kept on a string-typed
// schema node; everything else is stripped since upstream APIs reject
// formats they don't recognize.
var allowedStringFormats = map[string]bool{
	"date-time": true,
	"enum":      true,
}

// Sanitize recursively rewrites a decoded JSON-schema fragment, dropping
// $schema and additionalProperties at every depth and dropping a string
// node's disallowed format. It is pure and idempotent: Sanitize(Sanitize(x))
// equals Sanitize(x). Input must be acyclic JSON; a cyclic map produces
// unbounded recursion, treated as malformed input per the caller's contract.
func Sanitize(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		return sanitizeObject(v)
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, elem := range v {
			out[i] = Sanitize(elem)
		}
		return out
	default:
		return v
	}
}

func sanitizeObject(obj map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(obj))
	for k, v := range obj {
		if k == "$schema" || k == "additionalProperties" {
			continue
		}
		out[k] = Sanitize(v)
	}

	if typ, ok := out["type"].(string); ok && typ == "string" {
		if format, ok := out["format"].(string); ok && !allowedStringFormats[format] {
			delete(out, "format")
		}
	}

	return out
}
