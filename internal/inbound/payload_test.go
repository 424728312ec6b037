package inbound

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) map[string]any {
	t.Helper()

	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	return m
}

func TestNormalize_EnvelopeShapes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		payload string
		wantIDs []string
	}{
		{"messages array", `{"messages":[{"id":"a"},{"id":"b"}]}`, []string{"a", "b"}},
		{"single message", `{"message":{"id":"a"}}`, []string{"a"}},
		{"data messages", `{"data":{"messages":[{"id":"a"}]}}`, []string{"a"}},
		{"data message", `{"data":{"message":{"id":"a"}}}`, []string{"a"}},
		{"results", `{"results":[{"id":"a"},{"id":"b"},{"id":"c"}]}`, []string{"a", "b", "c"}},
		{"mixed keeps lookup order", `{"results":[{"id":"r"}],"messages":[{"id":"m"}],"data":{"message":{"id":"d"}}}`, []string{"m", "d", "r"}},
		{"non-object entries ignored", `{"messages":["x",1,{"id":"a"},null]}`, []string{"a"}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			recs := Normalize(decode(t, tc.payload))
			require.Len(t, recs, len(tc.wantIDs))
			for i, id := range tc.wantIDs {
				assert.Equal(t, id, recs[i]["id"])
			}
		})
	}
}

func TestNormalize_SynthesizesFlatRoot(t *testing.T) {
	t.Parallel()

	p := decode(t, `{"from":"11988887777","text":"Oi","messageId":"m-1","momment":1700000000000}`)
	recs := Normalize(p)
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, "11988887777", rec["from"])
	assert.Equal(t, false, rec["fromMe"])
	assert.Equal(t, map[string]any{"body": "Oi"}, rec["text"])
	assert.Equal(t, "m-1", rec["id"])
	assert.Equal(t, map[string]any{"id": "m-1"}, rec["key"])
	assert.Equal(t, float64(1700000000000), rec["timestamp"])
}

func TestNormalize_SynthesizedTextObjectKeepsMessage(t *testing.T) {
	t.Parallel()

	p := decode(t, `{"phone":"5511988887777","type":"ReceivedCallback","text":{"message":"Bom dia"}}`)
	recs := Normalize(p)
	require.Len(t, recs, 1)
	assert.Equal(t, map[string]any{"message": "Bom dia"}, recs[0]["text"])

	text, ok := ExtractText(recs[0], p)
	require.True(t, ok)
	assert.Equal(t, "Bom dia", text)
}

func TestNormalize_SynthesisNeedsSenderAndTextOrType(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Normalize(decode(t, `{"text":"Oi"}`)))
	assert.Empty(t, Normalize(decode(t, `{"from":"11988887777"}`)))
	assert.Empty(t, Normalize(decode(t, `{}`)))

	recs := Normalize(decode(t, `{"sender":{"id":"11988887777"},"type":"ReceivedCallback"}`))
	require.Len(t, recs, 1)
	assert.Nil(t, recs[0]["text"])
}

func TestNormalize_SynthesisDropsPlaceholderText(t *testing.T) {
	t.Parallel()

	recs := Normalize(decode(t, `{"from":"11988887777","text":"[object Object]"}`))
	require.Len(t, recs, 1)
	assert.Nil(t, recs[0]["text"])
}

func TestFilterSelf(t *testing.T) {
	t.Parallel()

	recs := Normalize(decode(t, `{"messages":[
		{"id":"a","fromMe":true,"text":{"body":"echo"}},
		{"id":"b","fromMe":false},
		{"id":"c","fromMe":"true"},
		{"id":"d"}
	]}`))

	kept := FilterSelf(recs)
	var ids []any
	for _, r := range kept {
		ids = append(ids, r["id"])
	}
	assert.Equal(t, []any{"b", "c", "d"}, ids)
}

func TestFilterSelf_SynthesizedFromMe(t *testing.T) {
	t.Parallel()

	recs := Normalize(decode(t, `{"from":"11988887777","text":"Oi","fromMe":true}`))
	require.Len(t, recs, 1)
	assert.Empty(t, FilterSelf(recs))
}

func TestSenderChain(t *testing.T) {
	t.Parallel()

	p := decode(t, `{"participantPhone":"p-root","phone":"phone-root"}`)

	assert.Equal(t, "r-from", Sender(Record{"from": "r-from", "sender": map[string]any{"id": "s"}}, p))
	assert.Equal(t, "s", Sender(Record{"sender": map[string]any{"id": "s"}}, p))
	assert.Equal(t, "c", Sender(Record{"contact": map[string]any{"phone": "c"}}, p))
	assert.Equal(t, "phone-root", Sender(Record{}, p))
	assert.Equal(t, "", Sender(Record{}, map[string]any{}))
	assert.Equal(t, "5511988887777", Sender(Record{"from": float64(5511988887777)}, p))
}

func TestProviderMessageIDAndTimestampChains(t *testing.T) {
	t.Parallel()

	p := decode(t, `{"messageId":"root","moment":123}`)

	assert.Equal(t, "rec", ProviderMessageID(Record{"id": "rec", "key": map[string]any{"id": "k"}}, p))
	assert.Equal(t, "k", ProviderMessageID(Record{"key": map[string]any{"id": "k"}}, p))
	assert.Equal(t, "root", ProviderMessageID(Record{}, p))

	assert.Equal(t, "1", RawTimestamp(Record{"timestamp": "1"}, p))
	assert.Equal(t, float64(123), RawTimestamp(Record{}, p))
	assert.Nil(t, RawTimestamp(Record{}, map[string]any{}))
}

func TestInstanceIDAndStatusEvent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "i1", InstanceID(decode(t, `{"instanceId":"i1"}`)))
	assert.Equal(t, "i2", InstanceID(decode(t, `{"data":{"instanceId":"i2"}}`)))
	assert.Equal(t, "i3", InstanceID(decode(t, `{"instance":{"id":"i3"}}`)))

	assert.Equal(t, "CONNECTED", StatusEvent(decode(t, `{"status":"connected"}`)))
	assert.Equal(t, "QRCODE", StatusEvent(decode(t, `{"data":{"status":"qrcode"}}`)))
	assert.Equal(t, "DISCONNECTEDCALLBACK", StatusEvent(decode(t, `{"event":"DisconnectedCallback"}`)))
	assert.Equal(t, "RECEIVEDCALLBACK", StatusEvent(decode(t, `{"type":"ReceivedCallback"}`)))
	assert.Equal(t, "", StatusEvent(decode(t, `{}`)))
}

func TestMeta(t *testing.T) {
	t.Parallel()

	m := Meta(decode(t, `{"instanceId":"i","type":"ReceivedCallback","phone":"x"}`))
	assert.Equal(t, map[string]any{"instanceId": "i", "type": "ReceivedCallback"}, m)
}
