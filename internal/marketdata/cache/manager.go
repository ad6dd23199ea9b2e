// Package cache ties the depth, trade, and instrument-info views
// together behind one update cycle, grounded on cache_manager.cpp: every
// publish cycle applies pending notifications to all three caches in the
// same fixed order (trade, instrument-info, depth) so a consumer
// requesting several entry types always sees a consistent cross-section.
package cache

import (
	"sync/atomic"

	"github.com/rishav/matching-core/internal/marketdata"
	"github.com/rishav/matching-core/internal/marketdata/depth"
	"github.com/rishav/matching-core/internal/marketdata/instrumentinfo"
	"github.com/rishav/matching-core/internal/marketdata/tradecache"
)

// Config mirrors the venue's streaming-relevant settings.
type Config struct {
	ReportTradeVolume                bool
	ReportTradeParties               bool
	ReportTradeAggressorSide         bool
	SupportMarketDataOrdersExclusion bool
	LimitedDepthWindow               int // 0 = unlimited
}

// Manager composes and updates the full market-data view for one
// instrument's book.
type Manager struct {
	config         Config
	depthSheet     *depth.Sheet
	trades         *tradecache.Cache
	instrumentInfo *instrumentinfo.Cache
	pending        []marketdata.Notification
	entrySeq       uint64
}

func New(config Config) *Manager {
	m := &Manager{config: config, depthSheet: depth.NewSheet(), instrumentInfo: instrumentinfo.New()}
	m.trades = tradecache.New(tradecache.Config{
		ReportVolume:        config.ReportTradeVolume,
		ReportParties:       config.ReportTradeParties,
		ReportAggressorSide: config.ReportTradeAggressorSide,
	}, m.nextEntryID)
	return m
}

func (m *Manager) nextEntryID() uint64 { return atomic.AddUint64(&m.entrySeq, 1) }

// Push queues one book-state notification for the next ApplyPending call.
func (m *Manager) Push(n marketdata.Notification) {
	m.pending = append(m.pending, n)
}

// WasUpdated reports whether any notification is pending application.
func (m *Manager) WasUpdated() bool { return len(m.pending) > 0 }

// ApplyPending first folds the depth sheet, closing the previous cycle,
// then applies every pending notification to all three caches in the
// fixed trade / instrument-info / depth order and clears the queue, so
// ComposeUpdate reports what changed since the previous ApplyPending.
func (m *Manager) ApplyPending() {
	m.depthSheet.Fold()
	m.trades.Update(m.pending)
	m.instrumentInfo.Update(m.pending)
	m.applyDepth(m.pending)
	m.pending = m.pending[:0]
}

func (m *Manager) applyDepth(notifications []marketdata.Notification) {
	for _, n := range notifications {
		isBid := n.Side == 0
		switch n.Kind {
		case marketdata.NotifyOrderAdded:
			m.depthSheet.Add(isBid, n.Price, n.OwnerHash, n.Quantity)
		case marketdata.NotifyOrderReduced:
			m.depthSheet.Remove(isBid, n.Price, n.OwnerHash, n.Quantity)
		case marketdata.NotifyOrderRemoved:
			m.depthSheet.Remove(isBid, n.Price, n.OwnerHash, n.Quantity)
		}
	}
}

// ComposeInitial builds a full snapshot response for settings, in trade /
// instrument-info / depth order (cache_manager.cpp compose_initial).
func (m *Manager) ComposeInitial(settings marketdata.StreamingSettings) []marketdata.Entry {
	var entries []marketdata.Entry
	m.trades.ComposeInitial(settings, &entries)
	m.instrumentInfo.ComposeInitial(settings, &entries)
	depth.ComposeFull(m.depthSheet, settings, &entries)
	return entries
}

// ComposeUpdate builds an incremental update for settings. Depth uses the
// limited-window builder when LimitedDepthWindow > 0, otherwise the
// unbounded incremental builder (cache_manager.cpp compose_update).
func (m *Manager) ComposeUpdate(settings marketdata.StreamingSettings) []marketdata.Entry {
	var entries []marketdata.Entry
	m.trades.ComposeUpdate(settings, &entries)
	m.instrumentInfo.ComposeUpdate(settings, &entries)
	if m.config.LimitedDepthWindow > 0 {
		depth.ComposeLimitedIncremental(m.depthSheet, m.config.LimitedDepthWindow, settings, &entries)
	} else {
		depth.ComposeIncremental(m.depthSheet, settings, &entries)
	}
	return entries
}

// StoreState returns the persistable trade/instrument-info snapshots.
func (m *Manager) StoreState() (*marketdata.TradeState, *marketdata.InstrumentInfoState) {
	return m.trades.StoreState(), m.instrumentInfo.StoreState()
}
