package llm

import (
	"encoding/json"
	"strings"
)

// ValidationResult is the outcome of Validate. Reason is empty when Valid.
type ValidationResult struct {
	Valid  bool
	Reason string
}

// Validation failure messages.
const (
	reasonInvalid = "model API error: invalid response"
	reasonPartial = "model API error: unknown error"
)

// IsEmpty reports a missing body or an empty JSON object.
func IsEmpty(payload map[string]any) bool {
	return len(payload) == 0
}

// IsPartial reports a body with some keys but no content or role.
func IsPartial(payload map[string]any) bool {
	return len(payload) > 0 && (!present(payload["content"]) || !present(payload["role"]))
}

// HasRequiredFields reports both content and role present.
func HasRequiredFields(payload map[string]any) bool {
	return present(payload["content"]) && present(payload["role"])
}

// HasValidRole reports role == "assistant".
func HasValidRole(payload map[string]any) bool {
	role, _ := payload["role"].(string)
	return role == RoleAssistant
}

// Validate applies the predicates in order and returns the first failure.
func Validate(payload map[string]any) ValidationResult {
	switch {
	case IsEmpty(payload):
		return ValidationResult{Reason: reasonInvalid}
	case IsPartial(payload):
		return ValidationResult{Reason: reasonPartial}
	case !HasRequiredFields(payload):
		return ValidationResult{Reason: reasonInvalid}
	case !HasValidRole(payload):
		return ValidationResult{Reason: reasonInvalid}
	}
	return ValidationResult{Valid: true}
}

// ExtractResponse projects the normalized fields out of a validated payload.
// Content given as a list of content blocks is flattened to its text.
func ExtractResponse(payload map[string]any) *Response {
	resp := &Response{
		ID:         stringField(payload, "id"),
		Model:      stringField(payload, "model"),
		Role:       stringField(payload, "role"),
		Content:    contentText(payload["content"]),
		StopReason: stringField(payload, "stop_reason"),
	}
	if seq, ok := payload["stop_sequence"].(string); ok {
		resp.StopSequence = &seq
	}
	if usage, ok := payload["usage"].(map[string]any); ok {
		resp.Usage = Usage{
			InputTokens:  intField(usage, "input_tokens"),
			OutputTokens: intField(usage, "output_tokens"),
		}
	}
	return resp
}

// decodePayload parses a response body into a JSON object. Anything that is
// not an object yields nil, which the validator treats as empty.
func decodePayload(body []byte) map[string]any {
	if len(body) == 0 {
		return nil
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil
	}
	return payload
}

// present mirrors truthiness of decoded JSON values: null, "", false and 0
// count as absent.
func present(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0
	default:
		return true
	}
}

func contentText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		var sb strings.Builder
		for _, block := range t {
			b, ok := block.(map[string]any)
			if !ok {
				continue
			}
			if typ, _ := b["type"].(string); typ != "" && typ != "text" {
				continue
			}
			if text, ok := b["text"].(string); ok {
				sb.WriteString(text)
			}
		}
		return sb.String()
	default:
		return ""
	}
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func intField(m map[string]any, key string) int {
	f, _ := m[key].(float64)
	return int(f)
}
