package inbound

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Record is one message-like object found inside a provider payload.
type Record map[string]any

func lookup(m map[string]any, path ...string) (any, bool) {
	var cur any = m
	for _, key := range path {
		obj, ok := asObject(cur)
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return cur, cur != nil
}

func asObject(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case Record:
		return t, true
	}
	return nil, false
}

// scalarString renders strings and numbers. Objects, arrays, booleans and
// nulls yield "".
func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	}
	return ""
}

// firstString walks candidate paths and returns the first non-empty scalar.
func firstString(candidates ...func() (any, bool)) string {
	for _, c := range candidates {
		v, ok := c()
		if !ok {
			continue
		}
		if s := scalarString(v); s != "" {
			return s
		}
	}
	return ""
}

func at(m map[string]any, path ...string) func() (any, bool) {
	return func() (any, bool) { return lookup(m, path...) }
}

// Sender resolves the sender identity of a record, falling back to the
// flat payload fields.
func Sender(rec Record, payload map[string]any) string {
	return firstString(
		at(rec, "from"),
		at(rec, "sender", "id"),
		at(rec, "contact", "phone"),
		at(payload, "from"),
		at(payload, "phone"),
		at(payload, "participantPhone"),
		at(payload, "participant"),
	)
}

func ProviderMessageID(rec Record, payload map[string]any) string {
	return firstString(
		at(rec, "id"),
		at(rec, "key", "id"),
		at(payload, "messageId"),
	)
}

// RawTimestamp returns the first timestamp-like value present, unconverted.
func RawTimestamp(rec Record, payload map[string]any) any {
	for _, c := range []func() (any, bool){
		at(rec, "timestamp"),
		at(payload, "momment"),
		at(payload, "moment"),
		at(payload, "timestamp"),
	} {
		if v, ok := c(); ok {
			return v
		}
	}
	return nil
}

func InstanceID(payload map[string]any) string {
	return firstString(
		at(payload, "instanceId"),
		at(payload, "data", "instanceId"),
		at(payload, "instance", "id"),
	)
}

// StatusEvent is the upper-cased status/event string of the payload.
func StatusEvent(payload map[string]any) string {
	return strings.ToUpper(firstString(
		at(payload, "status"),
		at(payload, "data", "status"),
		at(payload, "event"),
		at(payload, "type"),
	))
}

// Meta is the audit subset of the payload stored alongside inbound rows.
func Meta(payload map[string]any) map[string]any {
	out := map[string]any{}
	for _, k := range []string{"instanceId", "event", "type"} {
		if v, ok := payload[k]; ok {
			out[k] = v
		}
	}
	return out
}
