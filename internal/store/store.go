// Package store keeps the bounded chat history replayed to new connections.
//
// A Store is not safe for concurrent use; the hub's event loop is its only
// caller.
package store

import (
	"time"

	"github.com/oklog/ulid/v2"
)

const DefaultCapacity = 200

type Store struct {
	capacity int
	messages []Message
	index    map[string]int
}

func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		capacity: capacity,
		messages: make([]Message, 0, capacity),
		index:    make(map[string]int, capacity),
	}
}

func (s *Store) Cap() int { return s.capacity }

func (s *Store) Len() int { return len(s.messages) }

// Append normalizes the draft, stamps it with the sender and time, and
// inserts it at the tail, evicting the oldest entries beyond capacity.
// An id that is missing or already live is replaced by a fresh one.
func (s *Store) Append(senderID string, d Draft, now time.Time) Message {
	msg := Message{
		ID:        d.ID,
		SenderID:  senderID,
		Profile:   normalizeProfile(d.Profile),
		Text:      d.Text,
		Timestamp: d.Timestamp,
	}
	if _, taken := s.index[msg.ID]; msg.ID == "" || taken {
		msg.ID = ulid.Make().String()
	}
	if msg.Timestamp <= 0 {
		msg.Timestamp = now.UnixMilli()
	}
	if d.Image != "" && ValidImage(d.Image) {
		msg.Image = d.Image
	}

	s.messages = append(s.messages, msg)
	if over := len(s.messages) - s.capacity; over > 0 {
		s.messages = append(s.messages[:0:0], s.messages[over:]...)
	}
	s.reindex()
	return msg.clone()
}

func (s *Store) FindByID(id string) (Message, bool) {
	i, ok := s.index[id]
	if !ok {
		return Message{}, false
	}
	return s.messages[i].clone(), true
}

// ToggleReaction adds connID to the emoji's reactor set, or removes it if
// already present. An emoji whose set empties is dropped.
func (s *Store) ToggleReaction(id, emoji, connID string) (Message, bool) {
	i, ok := s.index[id]
	if !ok || emoji == "" || connID == "" {
		return Message{}, false
	}
	msg := &s.messages[i]
	if msg.Reactions == nil {
		msg.Reactions = make(map[string][]string)
	}

	users := msg.Reactions[emoji]
	pos := -1
	for j, u := range users {
		if u == connID {
			pos = j
			break
		}
	}
	if pos < 0 {
		msg.Reactions[emoji] = append(users, connID)
	} else {
		users = append(users[:pos:pos], users[pos+1:]...)
		if len(users) == 0 {
			delete(msg.Reactions, emoji)
		} else {
			msg.Reactions[emoji] = users
		}
	}
	if len(msg.Reactions) == 0 {
		msg.Reactions = nil
	}
	return msg.clone(), true
}

// Edit replaces the text of a message owned by connID.
func (s *Store) Edit(id, connID, text string) (Message, bool) {
	i, ok := s.index[id]
	if !ok || s.messages[i].SenderID != connID {
		return Message{}, false
	}
	s.messages[i].Text = text
	s.messages[i].Edited = true
	return s.messages[i].clone(), true
}

// DeleteByID removes a message owned by connID.
func (s *Store) DeleteByID(id, connID string) bool {
	i, ok := s.index[id]
	if !ok || s.messages[i].SenderID != connID {
		return false
	}
	s.messages = append(s.messages[:i:i], s.messages[i+1:]...)
	s.reindex()
	return true
}

// Snapshot returns a deep copy of the history, oldest first.
func (s *Store) Snapshot() []Message {
	out := make([]Message, len(s.messages))
	for i, m := range s.messages {
		out[i] = m.clone()
	}
	return out
}

// Load replaces the history with persisted messages. Only the most recent
// entries up to capacity are kept; entries without an id or repeating an
// earlier id are skipped, as are invalid images.
func (s *Store) Load(msgs []Message) {
	if over := len(msgs) - s.capacity; over > 0 {
		msgs = msgs[over:]
	}
	s.messages = make([]Message, 0, s.capacity)
	seen := make(map[string]struct{}, len(msgs))
	for _, m := range msgs {
		if m.ID == "" {
			continue
		}
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		m.Profile = normalizeProfile(&m.Profile)
		if m.Image != "" && !ValidImage(m.Image) {
			m.Image = ""
		}
		s.messages = append(s.messages, m.clone())
	}
	s.reindex()
}

func (s *Store) reindex() {
	clear(s.index)
	for i, m := range s.messages {
		s.index[m.ID] = i
	}
}
