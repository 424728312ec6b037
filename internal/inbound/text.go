package inbound

import "strings"

// objectPlaceholder is what an upstream stringified nested object looks like.
const objectPlaceholder = "[object Object]"

// ExtractText returns the first usable text candidate, trimmed. The order is
// fixed: payload.text.message, rec.text.message, payload.text.body,
// rec.text.body, rec.body, payload.body, payload.message.
func ExtractText(rec Record, payload map[string]any) (string, bool) {
	candidates := []func() (any, bool){
		at(payload, "text", "message"),
		at(rec, "text", "message"),
		at(payload, "text", "body"),
		at(rec, "text", "body"),
		at(rec, "body"),
		at(payload, "body"),
		at(payload, "message"),
	}
	for _, c := range candidates {
		v, ok := c()
		if !ok {
			continue
		}
		s, ok := v.(string)
		if ok && isGoodString(s) {
			return strings.TrimSpace(s), true
		}
	}
	return "", false
}

func isGoodString(s string) bool {
	t := strings.TrimSpace(s)
	return t != "" && t != objectPlaceholder
}
