package subscriptions

import (
	"github.com/rishav/matching-core/internal/marketdata"
	"github.com/rishav/matching-core/internal/orders"
	"github.com/rishav/matching-core/internal/session"
)

// RequestType mirrors MdSubscriptionRequestType.
type RequestType int

const (
	Subscribe RequestType = iota
	Unsubscribe
	Snapshot
)

// Request is the decoded MarketDataRequest.
type Request struct {
	RequestID       *string
	RequestType     *RequestType
	Session         session.Session
	Instruments     []orders.Instrument
	MarketDataTypes []marketdata.EntryType
	MarketDepth     *int
	FullUpdate      bool // UpdateType == Snapshot in the request
	Parties         []orders.Party
}

// Config mirrors the subset of venue configuration the manager gates on.
type Config struct {
	EnableTradesStreaming bool
}

// Manager holds every active subscription, indexed by request id (a
// given id may be held by more than one session — grounded on the
// original's Index multimap, disambiguated by session on lookup).
type Manager struct {
	config   Config
	provider Provider
	notifier Notifier
	byReqID  map[string][]*Subscription
}

func New(config Config, provider Provider, notifier Notifier) *Manager {
	return &Manager{config: config, provider: provider, notifier: notifier, byReqID: make(map[string][]*Subscription)}
}

func (m *Manager) reject(req Request, reason string) {
	requestID := ""
	if req.RequestID != nil {
		requestID = *req.RequestID
	}
	m.notifier.Reject(req.Session, requestID, reason)
}

// Process validates and dispatches one MarketDataRequest.
func (m *Manager) Process(req Request) {
	if reason := m.validate(req); reason != "" {
		m.reject(req, reason)
		return
	}

	switch *req.RequestType {
	case Subscribe:
		m.subscribe(req)
	case Unsubscribe:
		m.unsubscribe(req)
	case Snapshot:
		m.snapshot(req)
	}
}

// UnsubscribeSession drops every subscription held by a disconnecting
// session.
func (m *Manager) UnsubscribeSession(s session.Session) {
	for id, subs := range m.byReqID {
		kept := subs[:0]
		for _, sub := range subs {
			if !sub.Session.Equal(s) {
				kept = append(kept, sub)
			}
		}
		if len(kept) == 0 {
			delete(m.byReqID, id)
		} else {
			m.byReqID[id] = kept
		}
	}
}

// Publish sends an incremental update to every active subscription.
func (m *Manager) Publish() {
	for _, subs := range m.byReqID {
		for _, sub := range subs {
			sub.SendUpdate(m.notifier, m.provider)
		}
	}
}

func (m *Manager) validate(req Request) string {
	if req.RequestID == nil {
		return "required market data request id missing"
	}
	if req.RequestType == nil {
		return "required market data request type missing"
	}
	if len(req.Instruments) != 1 {
		return "invalid number of instruments in the request"
	}
	if len(req.MarketDataTypes) == 0 {
		return "no supported market data types specified in the request"
	}
	if containsTrade(req.MarketDataTypes) && !m.config.EnableTradesStreaming {
		return "subscriptions on trades are not allowed, streaming is disabled"
	}
	if req.MarketDepth != nil && *req.MarketDepth > 1 {
		return "unsupported market depth value specified in the request"
	}
	return ""
}

func containsTrade(types []marketdata.EntryType) bool {
	for _, t := range types {
		if t == marketdata.EntryTrade {
			return true
		}
	}
	return false
}

func (m *Manager) subscribe(req Request) {
	if m.find(*req.RequestID, req.Session) != nil {
		// A fixed reason string, not a distinct reject type — Reject's
		// reason is always a plain string, same as every other reject path.
		m.reject(req, "DuplicateMdReqId")
		return
	}
	sub := m.createSubscription(req)
	m.byReqID[*req.RequestID] = append(m.byReqID[*req.RequestID], sub)
	sub.SendInitial(m.notifier, m.provider)
}

func (m *Manager) unsubscribe(req Request) {
	subs := m.byReqID[*req.RequestID]
	for i, sub := range subs {
		if sub.Session.Equal(req.Session) {
			m.byReqID[*req.RequestID] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
	m.reject(req, "no subscription found for the request id")
}

func (m *Manager) snapshot(req Request) {
	sub := m.createSubscription(req)
	sub.SendSnapshot(m.notifier, m.provider)
}

func (m *Manager) find(requestID string, s session.Session) *Subscription {
	for _, sub := range m.byReqID[requestID] {
		if sub.Session.Equal(s) {
			return sub
		}
	}
	return nil
}

func (m *Manager) createSubscription(req Request) *Subscription {
	settings := marketdata.StreamingSettings{Types: make(map[marketdata.EntryType]bool, len(req.MarketDataTypes))}
	for _, t := range req.MarketDataTypes {
		settings.Types[t] = true
	}
	if req.MarketDepth != nil && *req.MarketDepth == 1 {
		settings.TopOfBookOnly = true
	}
	if req.FullUpdate {
		settings.FullUpdate = true
	}
	if hash, ok := marketdata.ExecutingFirmHash(req.Parties); ok {
		settings.ExcludeOwnerHash = hash
		settings.HasExcludeOwner = true
	}

	return &Subscription{
		RequestID:  *req.RequestID,
		Session:    req.Session,
		Instrument: req.Instruments[0],
		Settings:   settings,
	}
}

