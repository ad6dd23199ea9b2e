// Package tradecache maintains the trade-tape view of the market-data
// cache, grounded on trade_cache.cpp: the last trade plus the batch of
// trades produced by the most recent publish cycle.
package tradecache

import (
	"github.com/rishav/matching-core/internal/marketdata"
)

// Config toggles which trade attributes are reported, mirroring the
// venue configuration booleans.
type Config struct {
	ReportVolume        bool
	ReportParties       bool
	ReportAggressorSide bool
}

// Cache holds the last trade and the trades produced by the current
// publish cycle.
type Cache struct {
	config       Config
	lastTrade    *marketdata.TradeState
	cachedTrades []marketdata.TradeState
	nextEntryID  func() uint64
}

// New creates a Cache. nextEntryID supplies monotonically increasing
// market-data entry ids.
func New(config Config, nextEntryID func() uint64) *Cache {
	return &Cache{config: config, nextEntryID: nextEntryID}
}

// ComposeInitial appends the last trade, if any and requested, to
// destination — used for snapshot/initial subscription responses.
func (c *Cache) ComposeInitial(settings marketdata.StreamingSettings, destination *[]marketdata.Entry) {
	if settings.Requested(marketdata.EntryTrade) && c.lastTrade != nil {
		*destination = append(*destination, c.composeEntry(*c.lastTrade))
	}
}

// ComposeUpdate appends every trade from the current publish cycle, if
// requested, to destination.
func (c *Cache) ComposeUpdate(settings marketdata.StreamingSettings, destination *[]marketdata.Entry) {
	if !settings.Requested(marketdata.EntryTrade) {
		return
	}
	for _, t := range c.cachedTrades {
		*destination = append(*destination, c.composeEntry(t))
	}
}

// Update folds one publish cycle's notifications into the cache,
// resetting cachedTrades every cycle (trade_cache.cpp TradeCache::update).
func (c *Cache) Update(notifications []marketdata.Notification) {
	c.cachedTrades = c.cachedTrades[:0]

	for _, n := range notifications {
		switch n.Kind {
		case marketdata.NotifyTrade:
			c.cachedTrades = append(c.cachedTrades, marketdata.TradeState{
				Price:          n.TradePrice,
				Quantity:       n.TradeQuantity,
				Time:           n.Time,
				BuyerID:        n.BuyerID,
				SellerID:       n.SellerID,
				AggressorIsBuy: n.AggressorIsBuy,
			})
		case marketdata.NotifyLastTradeRecover:
			c.cachedTrades = c.cachedTrades[:0]
			c.lastTrade = nil
			if n.RecoveredTrade != nil {
				c.cachedTrades = append(c.cachedTrades, *n.RecoveredTrade)
			}
		}
	}

	if len(c.cachedTrades) > 0 {
		last := c.cachedTrades[len(c.cachedTrades)-1]
		c.lastTrade = &last
	}
}

// StoreState returns the last trade for persistence.
func (c *Cache) StoreState() *marketdata.TradeState { return c.lastTrade }

func (c *Cache) composeEntry(t marketdata.TradeState) marketdata.Entry {
	e := marketdata.Entry{
		ID:    c.nextEntryID(),
		Type:  marketdata.EntryTrade,
		Price: t.Price,
		Time:  t.Time,
	}
	if c.config.ReportVolume {
		e.Quantity = t.Quantity
		e.HasQuantity = true
	}
	if c.config.ReportParties {
		e.BuyerID = t.BuyerID
		e.SellerID = t.SellerID
		e.HasParties = true
	}
	if c.config.ReportAggressorSide {
		e.AggressorIsBuy = t.AggressorIsBuy
		e.HasAggressor = true
	}
	return e
}
