package websocket

import (
	"encoding/json"

	"huddle.websocket.go/internal/metrics"
	"huddle.websocket.go/internal/ratelimit"
	"huddle.websocket.go/internal/shared"
	"huddle.websocket.go/internal/signaling"
)

type handlerFunc func(c *Client, payload json.RawMessage)

const (
	warningText = "You're sending messages too fast. Slow down!"
	muteText    = "You have been muted for spamming."
)

func (h *Hub) dispatchTable() map[string]handlerFunc {
	table := map[string]handlerFunc{
		shared.EventChatMessage: h.handleChatMessage,
		shared.EventTyping:      h.handleTyping(shared.EventTyping),
		shared.EventStopTyping:  h.handleTyping(shared.EventStopTyping),
		shared.EventReaction:    h.handleReaction,
		shared.EventEdit:        h.handleEdit,
		shared.EventDelete:      h.handleDelete,
		shared.EventVoiceJoin:   h.handleVoiceJoin,
		shared.EventJoinVoice:   h.handleVoiceJoin,
		shared.EventVoiceLeave:  h.handleVoiceLeave,
		shared.EventLeaveVoice:  h.handleVoiceLeave,
	}
	for _, kind := range signaling.Kinds {
		table[kind] = h.handleSignal(kind)
	}
	return table
}

func (h *Hub) dispatch(c *Client, data []byte) {
	if c == nil || !h.isLive(c) {
		return
	}
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		h.logger.Warn("failed to unmarshal client message", "client", c.ID, "error", err)
		return
	}
	handler, ok := h.handlers[msg.Event]
	if !ok {
		h.logger.Warn("unknown client event", "client", c.ID, "event", msg.Event)
		return
	}
	metrics.EventsReceived.WithLabelValues(msg.Event).Inc()
	handler(c, msg.Payload)
}

func (h *Hub) handleChatMessage(c *Client, payload json.RawMessage) {
	now := h.opts.Now()
	decision := h.session.Limiter.Check(c.ID, now)
	metrics.RateLimitVerdicts.WithLabelValues(decision.Verdict.String()).Inc()

	switch decision.Verdict {
	case ratelimit.Warned:
		h.logger.Debug("chat message rejected with warning", "client", c.ID)
		h.send(c, shared.EventWarning, shared.Warning{Message: warningText})
		return
	case ratelimit.Muted:
		h.logger.Debug("chat message rejected, client muted", "client", c.ID, "seconds", decision.Remaining)
		h.send(c, shared.EventMute, shared.Mute{Seconds: decision.Remaining, Message: muteText})
		return
	}

	msg := h.session.Store.Append(c.ID, chatDraft(payload), now)
	h.broadcast(shared.EventChatMessage, msg, nil)
	h.storeChanged()
	h.mirror(shared.RouteChatMessage, msg)
}

// handleTyping relays the marker verbatim to everyone but its author.
func (h *Hub) handleTyping(event string) handlerFunc {
	return func(c *Client, payload json.RawMessage) {
		h.broadcast(event, payload, c)
	}
}

func (h *Hub) handleReaction(c *Client, payload json.RawMessage) {
	fields := decodeObject(payload)
	id, err := idField(fields, "id")
	if err != nil {
		h.logger.Debug("reaction without message id", "client", c.ID, "error", err)
		return
	}
	emoji, _ := stringField(fields, "emoji")

	msg, ok := h.session.Store.ToggleReaction(id, emoji, c.ID)
	if !ok {
		return
	}
	update := shared.ReactionUpdate{ID: msg.ID, Emoji: emoji, UserID: c.ID}
	h.broadcast(shared.EventReaction, update, nil)
	h.storeChanged()
	h.mirror(shared.RouteReaction, shared.MirroredReaction{ReactionUpdate: update, Message: msg})
}

func (h *Hub) handleEdit(c *Client, payload json.RawMessage) {
	fields := decodeObject(payload)
	id, err := idField(fields, "id")
	if err != nil {
		h.logger.Debug("edit without message id", "client", c.ID, "error", err)
		return
	}
	text, ok := stringField(fields, "text")
	if !ok {
		return
	}

	msg, ok := h.session.Store.Edit(id, c.ID, text)
	if !ok {
		return
	}
	update := shared.EditUpdate{ID: msg.ID, Text: msg.Text, Edited: msg.Edited}
	h.broadcast(shared.EventEdit, update, nil)
	h.storeChanged()
	h.mirror(shared.RouteChatEdit, msg)
}

func (h *Hub) handleDelete(c *Client, payload json.RawMessage) {
	id, err := idField(decodeObject(payload), "id")
	if err != nil {
		h.logger.Debug("delete without message id", "client", c.ID, "error", err)
		return
	}
	if !h.session.Store.DeleteByID(id, c.ID) {
		return
	}
	update := shared.DeleteUpdate{ID: id}
	h.broadcast(shared.EventDelete, update, nil)
	h.storeChanged()
	h.mirror(shared.RouteChatDelete, update)
}

func (h *Hub) handleVoiceJoin(c *Client, payload json.RawMessage) {
	entry, joined := h.session.Presence.Join(c.ID, voiceIdentity(payload))
	if !joined {
		return
	}
	metrics.VoiceParticipants.Set(float64(h.session.Presence.Len()))
	h.broadcast(shared.EventVoiceJoin, shared.VoiceChange{User: entry, Roster: h.session.Presence.Roster()}, nil)
}

// handleVoiceLeave always removes the sender's own entry; any identity in
// the payload is ignored.
func (h *Hub) handleVoiceLeave(c *Client, _ json.RawMessage) {
	entry, left := h.session.Presence.Leave(c.ID)
	if !left {
		return
	}
	metrics.VoiceParticipants.Set(float64(h.session.Presence.Len()))
	h.broadcast(shared.EventVoiceLeave, shared.VoiceChange{User: entry, Roster: h.session.Presence.Roster()}, nil)
}

func (h *Hub) handleSignal(kind string) handlerFunc {
	return func(c *Client, payload json.RawMessage) {
		var sig signaling.Signal
		if err := json.Unmarshal(payload, &sig); err != nil {
			h.logger.Debug("malformed signal", "client", c.ID, "kind", kind, "error", err)
			return
		}
		if !h.relay.Forward(c.ID, kind, sig) {
			metrics.SignalsDropped.Inc()
		}
	}
}
