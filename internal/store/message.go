package store

import (
	"encoding/base64"
	"strings"
)

// MaxImageBytes caps the decoded size of an inline image attachment.
const MaxImageBytes = 2 << 20

const defaultName = "Anonymous"
const defaultColor = "#7289da"

type Profile struct {
	Name   string `json:"name"`
	Color  string `json:"color,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// Message is one chat entry as held in history and sent to clients.
// Reactions map an emoji to the ordered set of connection ids that reacted.
type Message struct {
	ID        string              `json:"id"`
	SenderID  string              `json:"senderId"`
	Profile   Profile             `json:"profile"`
	Text      string              `json:"text"`
	Image     string              `json:"image,omitempty"`
	Reactions map[string][]string `json:"reactions,omitempty"`
	Edited    bool                `json:"edited,omitempty"`
	Timestamp int64               `json:"t"`
}

// Draft is a client-submitted chat message after decoding, before the
// store stamps identity and time on it.
type Draft struct {
	ID        string
	Profile   *Profile
	Text      string
	Image     string
	Timestamp int64
}

func (m Message) clone() Message {
	if m.Reactions != nil {
		reactions := make(map[string][]string, len(m.Reactions))
		for emoji, users := range m.Reactions {
			reactions[emoji] = append([]string(nil), users...)
		}
		m.Reactions = reactions
	}
	return m
}

func normalizeProfile(p *Profile) Profile {
	if p == nil {
		return Profile{Name: defaultName, Color: defaultColor}
	}
	out := Profile{
		Name:   strings.TrimSpace(p.Name),
		Color:  strings.TrimSpace(p.Color),
		Avatar: strings.TrimSpace(p.Avatar),
	}
	if out.Name == "" {
		out.Name = defaultName
	}
	if out.Color == "" {
		out.Color = defaultColor
	}
	return out
}

// ValidImage reports whether uri is a base64 data URI declaring an image
// content type whose decoded payload fits within MaxImageBytes.
func ValidImage(uri string) bool {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return false
	}
	header, data, ok := strings.Cut(rest, ",")
	if !ok {
		return false
	}
	mediaType, params, _ := strings.Cut(header, ";")
	if !strings.HasPrefix(strings.ToLower(mediaType), "image/") || len(mediaType) == len("image/") {
		return false
	}
	if !strings.HasSuffix(strings.ToLower(params), "base64") {
		return false
	}
	// Cheap bound before decoding anything.
	if base64.StdEncoding.DecodedLen(len(data)) > MaxImageBytes+2 {
		return false
	}
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return false
	}
	return len(decoded) > 0 && len(decoded) <= MaxImageBytes
}
