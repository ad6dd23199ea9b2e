// Package subscriptions implements market-data request handling:
// subscribe/unsubscribe/snapshot against the instrument's market-data
// cache, grounded on subscription_manager.cpp / subscription.cpp.
package subscriptions

import (
	"github.com/rishav/matching-core/internal/marketdata"
	"github.com/rishav/matching-core/internal/orders"
	"github.com/rishav/matching-core/internal/session"
)

// Provider is anything that can compose market-data entries for a given
// set of streaming settings — satisfied by *cache.Manager.
type Provider interface {
	ComposeInitial(settings marketdata.StreamingSettings) []marketdata.Entry
	ComposeUpdate(settings marketdata.StreamingSettings) []marketdata.Entry
}

// Notifier is the client reply sink a Subscription publishes through.
type Notifier interface {
	Snapshot(s session.Session, requestID string, instrument orders.Instrument, entries []marketdata.Entry)
	Update(s session.Session, requestID string, instrument orders.Instrument, entries []marketdata.Entry)
	Reject(s session.Session, requestID string, reason string)
}

// Subscription is one active client subscription to one instrument's
// market data, grounded on subscription.cpp.
type Subscription struct {
	RequestID  string
	Session    session.Session
	Instrument orders.Instrument
	Settings   marketdata.StreamingSettings
}

// SendInitial composes and publishes the initial snapshot a new
// subscription receives immediately upon acceptance.
func (s *Subscription) SendInitial(n Notifier, p Provider) {
	n.Snapshot(s.Session, s.RequestID, s.Instrument, p.ComposeInitial(s.Settings))
}

// SendSnapshot composes and publishes a one-off snapshot for a Snapshot-
// type request, which never registers a standing subscription.
func (s *Subscription) SendSnapshot(n Notifier, p Provider) {
	n.Snapshot(s.Session, s.RequestID, s.Instrument, p.ComposeInitial(s.Settings))
}

// SendUpdate composes and publishes an incremental update. An empty
// update (nothing changed that this subscription cares about) is
// suppressed entirely — no empty update is ever sent.
func (s *Subscription) SendUpdate(n Notifier, p Provider) {
	entries := p.ComposeUpdate(s.Settings)
	if len(entries) == 0 {
		return
	}
	n.Update(s.Session, s.RequestID, s.Instrument, entries)
}
