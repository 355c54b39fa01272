package shared

import (
	"huddle.websocket.go/internal/presence"
	"huddle.websocket.go/internal/store"
)

// Inbound event names.
const (
	EventChatMessage = "chat message"
	EventTyping      = "typing"
	EventStopTyping  = "stop typing"
	EventReaction    = "reaction"
	EventEdit        = "edit message"
	EventDelete      = "delete message"
	EventVoiceJoin   = "vc join"
	EventVoiceLeave  = "vc leave"
	EventJoinVoice   = "join-voice"
	EventLeaveVoice  = "leave-voice"
)

// Outbound-only event names.
const (
	EventWelcome          = "welcome"
	EventPreviousMessages = "previous messages"
	EventVoiceUpdate      = "vc-update"
	EventWarning          = "warning"
	EventMute             = "mute"
)

// Routing keys used when mirroring accepted mutations to the broker.
const (
	RouteChatMessage = "chat.message"
	RouteChatEdit    = "chat.edit"
	RouteChatDelete  = "chat.delete"
	RouteReaction    = "chat.reaction"
)

type Welcome struct {
	ID string `json:"id"`
}

type ReactionUpdate struct {
	ID     string `json:"id"`
	Emoji  string `json:"emoji"`
	UserID string `json:"userId"`
}

type EditUpdate struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Edited bool   `json:"edited"`
}

type DeleteUpdate struct {
	ID string `json:"id"`
}

type VoiceRoster struct {
	Roster []presence.Entry `json:"roster"`
}

// VoiceChange announces one join or leave together with the resulting roster.
type VoiceChange struct {
	User   presence.Entry   `json:"user"`
	Roster []presence.Entry `json:"roster"`
}

type Warning struct {
	Message string `json:"message"`
}

type Mute struct {
	Seconds int    `json:"seconds"`
	Message string `json:"message"`
}

// MirroredReaction is the broker form of a reaction toggle; it carries the
// full message so consumers do not need to replay toggles.
type MirroredReaction struct {
	ReactionUpdate
	Message store.Message `json:"message"`
}
