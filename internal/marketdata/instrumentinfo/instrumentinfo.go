// Package instrumentinfo maintains the low/mid/high price view of the
// market-data cache, grounded on instrument_info_cache.cpp. It tracks two
// parallel states: actual (the current values, used to compose full
// snapshots) and lastUpdate (only the values that changed in the current
// publish cycle, used to compose incremental updates) — an update and a
// recover reach the same actual state through asymmetric rules.
package instrumentinfo

import (
	"github.com/rishav/matching-core/internal/marketdata"
	"github.com/rishav/matching-core/internal/price"
)

type px struct {
	entryType marketdata.EntryType
	value     price.Price
	has       bool
	action    marketdata.EntryAction
}

func newPx(t marketdata.EntryType) px { return px{entryType: t} }

func (p *px) set(v price.Price) {
	p.value = v
	p.has = true
	p.action = marketdata.ActionNew
}

// changedFrom reports whether v differs from the value currently held,
// including the case where nothing is held yet.
func (p *px) changedFrom(v price.Price) bool {
	return !p.has || !p.value.Equal(v)
}

func (p *px) clear() {
	wasSet := p.has
	p.value = price.Zero
	p.has = false
	if wasSet {
		p.action = marketdata.ActionDelete
	}
}

func (p px) entry() (marketdata.Entry, bool) {
	if !p.has && p.action != marketdata.ActionDelete {
		return marketdata.Entry{}, false
	}
	return marketdata.Entry{Type: p.entryType, Price: p.value, Action: p.action}, true
}

type data struct {
	low  px
	mid  px
	high px
}

func newData() data {
	return data{low: newPx(marketdata.EntryLowPrice), mid: newPx(marketdata.EntryMidPrice), high: newPx(marketdata.EntryHighPrice)}
}

// Cache is the low/mid/high instrument-info view.
type Cache struct {
	actual     data
	lastUpdate data
}

func New() *Cache {
	return &Cache{actual: newData(), lastUpdate: newData()}
}

// ComposeInitial appends the current actual low/mid/high, whichever are
// requested and set, for snapshot responses.
func (c *Cache) ComposeInitial(settings marketdata.StreamingSettings, destination *[]marketdata.Entry) {
	c.pushIfRequested(settings, c.actual.low, destination)
	c.pushIfRequested(settings, c.actual.high, destination)
	c.pushIfRequested(settings, c.actual.mid, destination)
}

// ComposeUpdate appends only the prices that changed this publish cycle,
// unless the subscription wants a full (non-incremental) update, in which
// case it behaves like ComposeInitial.
func (c *Cache) ComposeUpdate(settings marketdata.StreamingSettings, destination *[]marketdata.Entry) {
	if settings.FullUpdate {
		c.ComposeInitial(settings, destination)
		return
	}
	c.pushIfRequested(settings, c.lastUpdate.low, destination)
	c.pushIfRequested(settings, c.lastUpdate.high, destination)
	c.pushIfRequested(settings, c.lastUpdate.mid, destination)
}

func (c *Cache) pushIfRequested(settings marketdata.StreamingSettings, p px, destination *[]marketdata.Entry) {
	if !settings.Requested(p.entryType) {
		return
	}
	if e, ok := p.entry(); ok {
		*destination = append(*destination, e)
	}
}

// Update folds one publish cycle's notifications into the cache.
func (c *Cache) Update(notifications []marketdata.Notification) {
	c.lastUpdate = newData()

	for _, n := range notifications {
		switch n.Kind {
		case marketdata.NotifyTrade:
			c.updateLow(n.TradePrice)
			c.updateHigh(n.TradePrice)
		case marketdata.NotifyInstrumentInfoRecover:
			if n.RecoveredInfo != nil {
				lowRecovered := c.recoverLow(n.RecoveredInfo.LowPrice)
				highRecovered := c.recoverHigh(n.RecoveredInfo.HighPrice)
				if lowRecovered || highRecovered {
					c.recoverMid()
				}
			} else {
				c.markDeleted()
			}
		}
	}
}

// lowChanged / highChanged mirror the original's free functions: the
// threshold is "no value yet" or "strictly more extreme than the trade".
func (c *Cache) lowChanged(tradePrice price.Price) bool {
	return !c.actual.low.has || c.actual.low.value.GreaterThan(tradePrice)
}

func (c *Cache) highChanged(tradePrice price.Price) bool {
	return !c.actual.high.has || c.actual.high.value.LessThan(tradePrice)
}

func (c *Cache) updateLow(tradePrice price.Price) {
	if c.lowChanged(tradePrice) {
		c.actual.low.set(tradePrice)
		c.lastUpdate.low = c.actual.low
		c.updateMid()
	}
}

func (c *Cache) updateHigh(tradePrice price.Price) {
	if c.highChanged(tradePrice) {
		c.actual.high.set(tradePrice)
		c.lastUpdate.high = c.actual.high
		c.updateMid()
	}
}

// computeMid derives the mid value from actual low/high, and whether
// both sides are currently set.
func (c *Cache) computeMid() (price.Price, bool) {
	if c.actual.low.has && c.actual.high.has {
		return price.Mid(c.actual.low.value, c.actual.high.value), true
	}
	return price.Zero, false
}

// midChanged reports whether (v, has) differs from the mid currently held.
func (c *Cache) midChanged(v price.Price, has bool) bool {
	return c.actual.mid.has != has || (has && !c.actual.mid.value.Equal(v))
}

func (c *Cache) setMid(v price.Price, has bool) {
	if has {
		c.actual.mid.set(v)
	} else {
		c.actual.mid.clear()
	}
}

// updateMid recomputes mid from actual low/high and always copies the
// result into lastUpdate, mirroring the trade path where every
// recomputation following a more-extreme low/high is reported
// regardless of whether the mid value itself moved.
func (c *Cache) updateMid() {
	v, has := c.computeMid()
	c.setMid(v, has)
	c.lastUpdate.mid = c.actual.mid
}

// recoverLow/recoverHigh restore an authoritative snapshot value,
// copying into lastUpdate only when it actually differs from what
// actual already held — unlike update, which always moves the extreme
// outward and so always changes something.
func (c *Cache) recoverLow(v price.Price) bool {
	if !c.actual.low.changedFrom(v) {
		return false
	}
	c.actual.low.set(v)
	c.lastUpdate.low = c.actual.low
	return true
}

func (c *Cache) recoverHigh(v price.Price) bool {
	if !c.actual.high.changedFrom(v) {
		return false
	}
	c.actual.high.set(v)
	c.lastUpdate.high = c.actual.high
	return true
}

// recoverMid recomputes mid from actual low/high, but only copies into
// lastUpdate if the recomputed mid actually changed.
func (c *Cache) recoverMid() {
	v, has := c.computeMid()
	if !c.midChanged(v, has) {
		return
	}
	c.setMid(v, has)
	c.lastUpdate.mid = c.actual.mid
}

func (c *Cache) markDeleted() {
	c.lastUpdate.low = c.actual.low
	c.lastUpdate.mid = c.actual.mid
	c.lastUpdate.high = c.actual.high

	c.actual = newData()

	c.lastUpdate.low.action = marketdata.ActionDelete
	c.lastUpdate.low.has = false
	c.lastUpdate.mid.action = marketdata.ActionDelete
	c.lastUpdate.mid.has = false
	c.lastUpdate.high.action = marketdata.ActionDelete
	c.lastUpdate.high.has = false
}

// StoreState returns the persisted low/high pair, if both are set.
func (c *Cache) StoreState() *marketdata.InstrumentInfoState {
	if !c.actual.low.has || !c.actual.high.has {
		return nil
	}
	return &marketdata.InstrumentInfoState{LowPrice: c.actual.low.value, HighPrice: c.actual.high.value}
}
