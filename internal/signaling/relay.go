// Package signaling forwards peer connection negotiation payloads between
// two connections. Bodies are opaque and never stored.
package signaling

import "encoding/json"

const (
	KindOffer     = "offer"
	KindAnswer    = "answer"
	KindCandidate = "ice-candidate"
)

// Kinds lists every event name the relay forwards.
var Kinds = []string{KindOffer, KindAnswer, KindCandidate}

type Signal struct {
	To   string          `json:"to"`
	Body json.RawMessage `json:"body"`
}

// Forwarded is what the target receives, under the signal's kind.
type Forwarded struct {
	From string          `json:"from"`
	Body json.RawMessage `json:"body"`
}

// Deliverer sends one event to one live connection. It reports false when
// the connection is unknown.
type Deliverer interface {
	Deliver(connID, event string, payload any) bool
}

type Relay struct {
	out Deliverer
}

func NewRelay(out Deliverer) *Relay {
	return &Relay{out: out}
}

// Forward delivers sig to its target stamped with the sender's identity.
// An empty or disconnected target drops the signal; the caller is not told.
func (r *Relay) Forward(from, kind string, sig Signal) bool {
	if sig.To == "" || !validKind(kind) {
		return false
	}
	body := sig.Body
	if len(body) == 0 {
		body = json.RawMessage("null")
	}
	return r.out.Deliver(sig.To, kind, Forwarded{From: from, Body: body})
}

func validKind(kind string) bool {
	for _, k := range Kinds {
		if k == kind {
			return true
		}
	}
	return false
}
