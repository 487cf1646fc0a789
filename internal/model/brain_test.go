package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeResponse(t *testing.T, body string) BrainResponse {
	t.Helper()
	var r BrainResponse
	require.NoError(t, json.Unmarshal([]byte(body), &r))
	return r
}

func TestBrainResponseMistypedFields(t *testing.T) {
	r := decodeResponse(t, `{"ok":true,"requestId":42,"next_action":{"type":"book"},"slots":"none"}`)

	assert.True(t, r.OK)
	assert.Empty(t, r.RequestID)
	assert.Nil(t, r.NextAction)
	assert.Nil(t, r.Slots)

	id, ok := r.Field("requestId")
	require.True(t, ok)
	assert.JSONEq(t, `42`, string(id))
	next, ok := r.Field("next_action")
	require.True(t, ok)
	assert.JSONEq(t, `{"type":"book"}`, string(next))

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true,"requestId":42,"next_action":{"type":"book"},"slots":"none"}`, string(out))
}

func TestBrainResponseKeepsUnknownFields(t *testing.T) {
	body := `{"ok":true,"message":{"role":"assistant","content":"hi","tool_calls":[1]},"restaurants":[{"id":7}]}`
	r := decodeResponse(t, body)

	require.NotNil(t, r.Message)
	assert.Equal(t, "hi", r.Message.Text())
	assert.JSONEq(t, `[1]`, string(r.Message.Extra["tool_calls"]))
	restaurants, ok := r.Field("restaurants")
	require.True(t, ok)
	assert.JSONEq(t, `[{"id":7}]`, string(restaurants))

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, body, string(out))
}

func TestBrainResponseNonObject(t *testing.T) {
	for _, body := range []string{`[]`, `"ok"`, `null`, `17`} {
		t.Run(body, func(t *testing.T) {
			r := decodeResponse(t, body)
			assert.False(t, r.OK)
			assert.Nil(t, r.Message)
			assert.JSONEq(t, body, string(r.Raw))

			out, err := json.Marshal(r)
			require.NoError(t, err)
			assert.JSONEq(t, body, string(out))
		})
	}

	var r BrainResponse
	assert.Error(t, json.Unmarshal([]byte(`{"ok":tru`), &r))
	assert.Error(t, json.Unmarshal([]byte(`<html>`), &r))
}

func TestBrainResponseNullFields(t *testing.T) {
	r := decodeResponse(t, `{"ok":true,"message":null,"next_action":null,"error":null}`)
	assert.Nil(t, r.Message)
	assert.Nil(t, r.NextAction)

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true,"message":null,"next_action":null,"error":null}`, string(out))
}

func TestBrainResponseMistypedOK(t *testing.T) {
	r := decodeResponse(t, `{"ok":"yes"}`)
	assert.False(t, r.OK)

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":"yes"}`, string(out))

	out, err = json.Marshal(BrainResponse{Error: "boom"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":false,"error":"boom"}`, string(out))
}

func TestBrainMessageText(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"string", `{"role":"assistant","content":"hi"}`, "hi"},
		{"parts", `{"role":"assistant","content":[{"type":"text","text":"hi "},"there",{"type":"image"}]}`, "hi there"},
		{"object content", `{"role":"assistant","content":{"text":"x"}}`, ""},
		{"no content", `{"role":"assistant"}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m BrainMessage
			require.NoError(t, json.Unmarshal([]byte(tt.body), &m))
			assert.Equal(t, tt.want, m.Text())
		})
	}

	var m *BrainMessage
	assert.Empty(t, m.Text())
}

func TestNormalizeAnnotations(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			"top level copied",
			`{"ok":true,"message":{"role":"assistant","content":"x"},"annotations":[{"k":1}]}`,
			`{"role":"assistant","content":"x","annotations":[{"k":1}]}`,
		},
		{
			"message keeps its own",
			`{"ok":true,"message":{"role":"assistant","content":"x","annotations":[2]},"annotations":[1]}`,
			`{"role":"assistant","content":"x","annotations":[2]}`,
		},
		{
			"mistyped top level copied raw",
			`{"ok":true,"message":{"role":"assistant","content":"x"},"annotations":{"k":1}}`,
			`{"role":"assistant","content":"x","annotations":{"k":1}}`,
		},
		{
			"mistyped message annotations kept",
			`{"ok":true,"message":{"role":"assistant","content":"x","annotations":"mine"},"annotations":[1]}`,
			`{"role":"assistant","content":"x","annotations":"mine"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := decodeResponse(t, tt.body)
			r.NormalizeAnnotations()
			out, err := json.Marshal(r.Message)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(out))
		})
	}

	r := BrainResponse{Annotations: []any{1}}
	r.NormalizeAnnotations()
	assert.Nil(t, r.Message)
}
