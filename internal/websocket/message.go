package websocket

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"huddle.websocket.go/internal/presence"
	"huddle.websocket.go/internal/store"
)

// ServerMessage is the envelope of every frame written to a client.
type ServerMessage struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// ClientMessage is the envelope of every frame read from a client. The
// payload stays raw until the handler for Event decodes it.
type ClientMessage struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

func encode(event string, payload interface{}) ([]byte, error) {
	return json.Marshal(ServerMessage{Event: event, Payload: payload})
}

// decodeObject loosely decodes a payload. Anything that is not a JSON
// object yields an empty map so handlers fall back to defaults.
func decodeObject(raw json.RawMessage) map[string]interface{} {
	var payload map[string]interface{}
	if len(raw) == 0 || json.Unmarshal(raw, &payload) != nil || payload == nil {
		return map[string]interface{}{}
	}
	return payload
}

func stringField(payload map[string]interface{}, key string) (string, bool) {
	v, ok := payload[key].(string)
	return v, ok
}

// idField accepts string or numeric identifiers.
func idField(payload map[string]interface{}, key string) (string, error) {
	val, ok := payload[key]
	if !ok {
		return "", fmt.Errorf("key '%s' not found in payload", key)
	}
	switch v := val.(type) {
	case string:
		if v == "" {
			return "", fmt.Errorf("key '%s' is empty", key)
		}
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("invalid type for key '%s': %T", key, v)
	}
}

// maxTimestamp is the last millisecond of year 9999. Larger client
// timestamps are ignored and the relay stamps its own.
const maxTimestamp = 253402300799999

// chatDraft turns a chat message payload into a store draft. A bare JSON
// string is taken as the message text.
func chatDraft(raw json.RawMessage) store.Draft {
	var text string
	if json.Unmarshal(raw, &text) == nil {
		return store.Draft{Text: text}
	}

	payload := decodeObject(raw)
	d := store.Draft{}
	d.ID, _ = stringField(payload, "id")
	d.Text, _ = stringField(payload, "text")
	d.Image, _ = stringField(payload, "image")
	if t, ok := payload["t"].(float64); ok && t > 0 && t <= maxTimestamp {
		d.Timestamp = int64(t)
	}
	if p, ok := payload["profile"].(map[string]interface{}); ok {
		profile := &store.Profile{}
		profile.Name, _ = stringField(p, "name")
		profile.Color, _ = stringField(p, "color")
		profile.Avatar, _ = stringField(p, "avatar")
		d.Profile = profile
	}
	return d
}

// voiceIdentity reads {identity, style}. identity may be a display name or
// an object carrying name/color/avatar.
func voiceIdentity(raw json.RawMessage) presence.Identity {
	payload := decodeObject(raw)
	id := presence.Identity{}

	switch v := payload["identity"].(type) {
	case string:
		id.Name = v
	case map[string]interface{}:
		id.Name, _ = stringField(v, "name")
		id.Style.Color, _ = stringField(v, "color")
		id.Style.Avatar, _ = stringField(v, "avatar")
	}
	if id.Name == "" {
		id.Name, _ = stringField(payload, "name")
	}
	if style, ok := payload["style"].(map[string]interface{}); ok {
		if c, ok := stringField(style, "color"); ok {
			id.Style.Color = c
		}
		if a, ok := stringField(style, "avatar"); ok {
			id.Style.Avatar = a
		}
	}
	id.Name = strings.TrimSpace(id.Name)
	return id
}
