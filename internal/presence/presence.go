// Package presence tracks which connections are in the voice roster.
// Entries are keyed by connection id; the display name is payload only, so
// two connections may share a name without colliding.
package presence

import "strings"

const anonymous = "Anonymous"

type Style struct {
	Color  string `json:"color,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

type Identity struct {
	Name  string
	Style Style
}

type Entry struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Color  string `json:"color,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// Registry is owned by the hub loop and is not safe for concurrent use.
type Registry struct {
	entries map[string]Entry
	order   []string
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Join adds connID to the roster. It reports false, and changes nothing,
// when the connection is already present.
func (r *Registry) Join(connID string, id Identity) (Entry, bool) {
	if connID == "" {
		return Entry{}, false
	}
	if existing, ok := r.entries[connID]; ok {
		return existing, false
	}
	name := strings.TrimSpace(id.Name)
	if name == "" {
		name = anonymous
	}
	e := Entry{
		ID:     connID,
		Name:   name,
		Color:  strings.TrimSpace(id.Style.Color),
		Avatar: strings.TrimSpace(id.Style.Avatar),
	}
	r.entries[connID] = e
	r.order = append(r.order, connID)
	return e, true
}

// Leave removes connID and returns the departing entry, if there was one.
func (r *Registry) Leave(connID string) (Entry, bool) {
	e, ok := r.entries[connID]
	if !ok {
		return Entry{}, false
	}
	delete(r.entries, connID)
	for i, id := range r.order {
		if id == connID {
			r.order = append(r.order[:i:i], r.order[i+1:]...)
			break
		}
	}
	return e, true
}

func (r *Registry) Contains(connID string) bool {
	_, ok := r.entries[connID]
	return ok
}

// Roster lists the current members in join order. It never returns nil so
// that it encodes as an empty JSON array.
func (r *Registry) Roster() []Entry {
	out := make([]Entry, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id])
	}
	return out
}

func (r *Registry) Len() int { return len(r.entries) }
