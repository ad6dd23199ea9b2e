// Package session models the opaque client-session handle orders and
// subscriptions are tagged with. The wire gateway that actually owns
// session lifecycles is out of scope; this package only carries enough
// identity to compare sessions for equality and to tag persisted state
// with its originating transport kind.
package session

import "github.com/google/uuid"

// Kind distinguishes the transport a session came in on, mirroring the
// original's protocol::fix::Session / protocol::generator::Session
// distinction used when converting order-book state for persistence.
type Kind int

const (
	KindFix Kind = iota
	KindGenerator
)

func (k Kind) String() string {
	switch k {
	case KindFix:
		return "Fix"
	case KindGenerator:
		return "Generator"
	default:
		return "Unknown"
	}
}

// Session is an opaque, comparable client-session handle. Two sessions
// are equal iff Kind and ID match; a Generator session carries no
// embedded transport value, matching the original converter's visitor
// (Fix sessions carry a session value, Generator sessions do not).
type Session struct {
	Kind Kind
	ID   uuid.UUID
}

// NewFix builds a Fix-transport session handle.
func NewFix() Session { return Session{Kind: KindFix, ID: uuid.New()} }

// NewGenerator builds a Generator-transport session handle, used by
// synthetic/test order flow and the disruptor's request generator.
func NewGenerator() Session { return Session{Kind: KindGenerator, ID: uuid.New()} }

// Equal reports whether two sessions refer to the same client session.
func (s Session) Equal(other Session) bool {
	return s.Kind == other.Kind && s.ID == other.ID
}

func (s Session) String() string {
	return s.Kind.String() + ":" + s.ID.String()
}
