// Package ratelimit throttles chat traffic per connection with a sliding
// window. The first excess in a streak earns a warning, the second a mute.
package ratelimit

import (
	"time"
)

type Verdict int

const (
	Allowed Verdict = iota
	Warned
	Muted
)

func (v Verdict) String() string {
	switch v {
	case Allowed:
		return "allowed"
	case Warned:
		return "warned"
	case Muted:
		return "muted"
	default:
		return "unknown"
	}
}

// Decision is the outcome of one chat event. Remaining is the whole number
// of seconds left on a mute and is only set when Verdict is Muted.
type Decision struct {
	Verdict   Verdict
	Remaining int
}

type Policy struct {
	Limit        int
	Window       time.Duration
	MuteDuration time.Duration
}

type entry struct {
	hits       []time.Time
	violations int
	mutedUntil time.Time
}

// Limiter is not safe for concurrent use; it is owned by the hub loop.
type Limiter struct {
	policy  Policy
	entries map[string]*entry
}

func New(p Policy) *Limiter {
	if p.Limit <= 0 {
		p.Limit = 3
	}
	if p.Window <= 0 {
		p.Window = 5 * time.Second
	}
	if p.MuteDuration <= 0 {
		p.MuteDuration = 10 * time.Second
	}
	return &Limiter{
		policy:  p,
		entries: make(map[string]*entry),
	}
}

func (l *Limiter) Policy() Policy { return l.policy }

// Check records a chat event from connID at now and returns what to do with it.
func (l *Limiter) Check(connID string, now time.Time) Decision {
	e, ok := l.entries[connID]
	if !ok {
		e = &entry{}
		l.entries[connID] = e
	}

	if now.Before(e.mutedUntil) {
		return Decision{Verdict: Muted, Remaining: remainingSeconds(e.mutedUntil.Sub(now))}
	}

	cutoff := now.Add(-l.policy.Window)
	kept := e.hits[:0]
	for _, ts := range e.hits {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	e.hits = append(kept, now)

	if len(e.hits) <= l.policy.Limit {
		return Decision{Verdict: Allowed}
	}

	if e.violations == 0 {
		e.violations++
		return Decision{Verdict: Warned}
	}

	e.mutedUntil = now.Add(l.policy.MuteDuration)
	e.violations = 0
	e.hits = e.hits[:0]
	return Decision{Verdict: Muted, Remaining: remainingSeconds(l.policy.MuteDuration)}
}

// Forget drops all state for connID. Safe to call more than once.
func (l *Limiter) Forget(connID string) {
	delete(l.entries, connID)
}

func (l *Limiter) Tracked() int { return len(l.entries) }

func remainingSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
