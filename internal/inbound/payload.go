package inbound

// Extractor pulls message records out of one known envelope shape.
type Extractor func(payload map[string]any) []Record

// Extractors are tried in order; all of them contribute.
var Extractors = []Extractor{
	arrayAt("messages"),
	objectAt("message"),
	arrayAt("data", "messages"),
	objectAt("data", "message"),
	arrayAt("results"),
}

// Normalize returns the message records found in payload, in source order.
// When no envelope matched it tries to synthesize a single record from the
// flat top-level fields. Self-sent records are not filtered here.
func Normalize(payload map[string]any) []Record {
	var out []Record
	for _, ex := range Extractors {
		out = append(out, ex(payload)...)
	}
	if len(out) > 0 {
		return out
	}
	if rec, ok := synthesizeRoot(payload); ok {
		return []Record{rec}
	}
	return nil
}

// FilterSelf drops records echoed back from our own sends.
func FilterSelf(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if IsFromMe(r) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func IsFromMe(r Record) bool {
	v, ok := r["fromMe"].(bool)
	return ok && v
}

func arrayAt(path ...string) Extractor {
	return func(payload map[string]any) []Record {
		v, ok := lookup(payload, path...)
		if !ok {
			return nil
		}
		items, ok := v.([]any)
		if !ok {
			return nil
		}
		var out []Record
		for _, it := range items {
			if obj, ok := asObject(it); ok {
				out = append(out, Record(obj))
			}
		}
		return out
	}
}

func objectAt(path ...string) Extractor {
	return func(payload map[string]any) []Record {
		v, ok := lookup(payload, path...)
		if !ok {
			return nil
		}
		obj, ok := asObject(v)
		if !ok {
			return nil
		}
		return []Record{Record(obj)}
	}
}

func synthesizeRoot(payload map[string]any) (Record, bool) {
	from := firstString(
		at(payload, "from"),
		at(payload, "sender", "id"),
		at(payload, "contact", "phone"),
		at(payload, "participantPhone"),
		at(payload, "participant"),
		at(payload, "phone"),
	)
	if from == "" {
		return nil, false
	}

	var rootText any
	for _, k := range []string{"text", "body", "message"} {
		if v, ok := lookup(payload, k); ok {
			rootText = v
			break
		}
	}
	_, hasType := lookup(payload, "type")
	if !present(rootText) && !hasType {
		return nil, false
	}

	rec := Record{
		"from":   from,
		"fromMe": payload["fromMe"] == true,
	}

	switch t := rootText.(type) {
	case string:
		if isGoodString(t) {
			rec["text"] = map[string]any{"body": t}
		}
	case map[string]any:
		msg, _ := t["message"].(string)
		if msg == "" {
			msg, _ = t["body"].(string)
		}
		if isGoodString(msg) {
			rec["text"] = map[string]any{"message": msg}
		}
	}

	if id := firstString(at(payload, "messageId"), at(payload, "id")); id != "" {
		rec["id"] = id
	}
	if ts := firstPresent(payload, "momment", "moment", "timestamp"); ts != nil {
		rec["timestamp"] = ts
	}
	if mid := scalarString(payload["messageId"]); mid != "" {
		rec["key"] = map[string]any{"id": mid}
	}
	return rec, true
}

// present mirrors a truthiness check on decoded JSON.
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
	}
	return true
}

func firstPresent(payload map[string]any, keys ...string) any {
	for _, k := range keys {
		if v := payload[k]; present(v) {
			return v
		}
	}
	return nil
}
