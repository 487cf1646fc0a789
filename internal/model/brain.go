package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
)

// BrainMessage is the assistant message returned by the brain service.
// Content is a string or a list of parts. Fields without a typed home, and
// known fields of an unexpected JSON type, are kept verbatim in Extra.
type BrainMessage struct {
	Role        string
	Content     any
	Annotations []any
	Extra       map[string]json.RawMessage
}

// BrainResponse is the normalized result of one brain call. Decoding never
// drops data: unknown fields and mistyped known fields land in Extra, and a
// body that is valid JSON but not an object is kept in Raw.
type BrainResponse struct {
	OK            bool
	Build         string
	RequestID     string
	Message       *BrainMessage
	MessagesDelta []any
	Annotations   []any
	Slots         SlotMap
	NextAction    *string
	ToolRequests  []any
	Error         string

	Extra map[string]json.RawMessage
	Raw   json.RawMessage
}

// Field returns a response field that had no typed home.
func (r *BrainResponse) Field(key string) (json.RawMessage, bool) {
	v, ok := r.Extra[key]
	return v, ok
}

// NormalizeAnnotations copies top-level annotations onto a message that
// carries none of its own.
func (r *BrainResponse) NormalizeAnnotations() {
	if r.Message == nil || r.Message.Annotations != nil || present(r.Message.Extra, "annotations") {
		return
	}
	switch {
	case r.Annotations != nil:
		r.Message.Annotations = r.Annotations
	case present(r.Extra, "annotations"):
		if r.Message.Extra == nil {
			r.Message.Extra = map[string]json.RawMessage{}
		}
		r.Message.Extra["annotations"] = r.Extra["annotations"]
	}
}

// Text returns string content, or the concatenated text of content parts.
func (m *BrainMessage) Text() string {
	if m == nil {
		return ""
	}
	switch c := m.Content.(type) {
	case string:
		return c
	case []any:
		var sb strings.Builder
		for _, part := range c {
			switch p := part.(type) {
			case string:
				sb.WriteString(p)
			case map[string]any:
				if s, ok := p["text"].(string); ok {
					sb.WriteString(s)
				}
			}
		}
		return sb.String()
	}
	return ""
}

func (m *BrainMessage) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*m = BrainMessage{}
	m.Extra = splitFields(fields, map[string]any{
		"role":        &m.Role,
		"content":     &m.Content,
		"annotations": &m.Annotations,
	})
	return nil
}

func (m BrainMessage) MarshalJSON() ([]byte, error) {
	out := withExtra(m.Extra)
	setIf(out, "role", m.Role, m.Role != "")
	setIf(out, "content", m.Content, m.Content != nil)
	setIf(out, "annotations", m.Annotations, m.Annotations != nil)
	return json.Marshal(out)
}

func (r *BrainResponse) UnmarshalJSON(data []byte) error {
	*r = BrainResponse{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		if !json.Valid(data) {
			return errors.New("brain response is not valid JSON")
		}
		r.Raw = append(json.RawMessage(nil), data...)
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	r.Extra = splitFields(fields, map[string]any{
		"ok":            &r.OK,
		"build":         &r.Build,
		"requestId":     &r.RequestID,
		"message":       &r.Message,
		"messagesDelta": &r.MessagesDelta,
		"annotations":   &r.Annotations,
		"slots":         &r.Slots,
		"next_action":   &r.NextAction,
		"toolRequests":  &r.ToolRequests,
		"error":         &r.Error,
	})
	return nil
}

func (r BrainResponse) MarshalJSON() ([]byte, error) {
	if r.Raw != nil {
		return r.Raw, nil
	}
	out := withExtra(r.Extra)
	setIf(out, "ok", r.OK, r.OK || !present(r.Extra, "ok"))
	setIf(out, "build", r.Build, r.Build != "")
	setIf(out, "requestId", r.RequestID, r.RequestID != "")
	setIf(out, "message", r.Message, r.Message != nil)
	setIf(out, "messagesDelta", r.MessagesDelta, r.MessagesDelta != nil)
	setIf(out, "annotations", r.Annotations, r.Annotations != nil)
	setIf(out, "slots", r.Slots, r.Slots != nil)
	setIf(out, "next_action", r.NextAction, r.NextAction != nil)
	setIf(out, "toolRequests", r.ToolRequests, r.ToolRequests != nil)
	setIf(out, "error", r.Error, r.Error != "")
	return json.Marshal(out)
}

// splitFields decodes each known field into its destination and returns the
// rest. A null or mistyped known field leaves its destination zero and is
// kept in the returned map instead.
func splitFields(fields map[string]json.RawMessage, known map[string]any) map[string]json.RawMessage {
	var extra map[string]json.RawMessage
	for k, v := range fields {
		if dst, ok := known[k]; ok && !isNull(v) {
			if err := json.Unmarshal(v, dst); err == nil {
				continue
			}
			reflect.ValueOf(dst).Elem().SetZero()
		}
		if extra == nil {
			extra = make(map[string]json.RawMessage)
		}
		extra[k] = v
	}
	return extra
}

func withExtra(extra map[string]json.RawMessage) map[string]any {
	out := make(map[string]any, len(extra)+10)
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func setIf(out map[string]any, key string, v any, ok bool) {
	if ok {
		out[key] = v
	}
}

func present(extra map[string]json.RawMessage, key string) bool {
	v, ok := extra[key]
	return ok && !isNull(v)
}

func isNull(v json.RawMessage) bool {
	return string(bytes.TrimSpace(v)) == "null"
}
