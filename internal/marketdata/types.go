// Package marketdata defines the shared vocabulary the depth, trade, and
// instrument-info caches (its subpackages) compose market-data entries
// from: entry types/actions, the per-subscription streaming settings that
// filter what gets composed, and the notification shapes the matching
// core's event bus feeds into them.
package marketdata

import (
	"time"

	"github.com/rishav/matching-core/internal/price"
)

// EntryType identifies what a MarketDataEntry reports.
type EntryType int

const (
	EntryBid EntryType = iota
	EntryOffer
	EntryTrade
	EntryLowPrice
	EntryMidPrice
	EntryHighPrice
)

// EntryAction identifies how an incremental entry should be applied by a
// consumer maintaining a local view.
type EntryAction int

const (
	ActionNew EntryAction = iota
	ActionChange
	ActionDelete
)

// Entry is one row of composed market data: a depth level, a trade tape
// print, or an instrument-info price.
type Entry struct {
	ID              uint64
	Type            EntryType
	Action          EntryAction
	Price           price.Price
	Quantity        int64
	HasQuantity     bool
	Time            time.Time
	BuyerID         string
	SellerID        string
	HasParties      bool
	AggressorIsBuy  bool
	HasAggressor    bool
}

// StreamingSettings describes what one subscription wants composed: which
// entry types, which side(s), full vs incremental, top-of-book only, and
// whether to exclude entries the requesting party owns.
type StreamingSettings struct {
	Types            map[EntryType]bool
	FullUpdate       bool
	TopOfBookOnly    bool
	ExcludeOwnerHash uint64
	HasExcludeOwner  bool
}

// Requested reports whether t is one of the subscription's requested
// entry types. An empty Types set requests everything.
func (s StreamingSettings) Requested(t EntryType) bool {
	if len(s.Types) == 0 {
		return true
	}
	return s.Types[t]
}

// NotificationKind mirrors events.Kind for the subset the market-data
// caches consume, keeping this package decoupled from the actions layer.
type NotificationKind int

const (
	NotifyOrderAdded NotificationKind = iota
	NotifyOrderReduced
	NotifyOrderRemoved
	NotifyTrade
	NotifyLastTradeRecover
	NotifyInstrumentInfoRecover
)

// Notification is the book-state event the caches fold into their views.
type Notification struct {
	Kind          NotificationKind
	Side          int // 0 = buy, 1 = sell; meaningful for order-level notifications
	Price         price.Price
	Quantity      int64
	OwnerHash     uint64
	TradePrice    price.Price
	TradeQuantity int64
	BuyerID       string
	SellerID      string
	AggressorIsBuy bool
	Time          time.Time
	RecoveredTrade   *TradeState
	RecoveredInfo    *InstrumentInfoState
}

// TradeState is the persisted/recovered shape of the last trade.
type TradeState struct {
	Price          price.Price
	Quantity       int64
	Time           time.Time
	BuyerID        string
	SellerID       string
	AggressorIsBuy bool
}

// InstrumentInfoState is the persisted/recovered shape of low/high.
type InstrumentInfoState struct {
	LowPrice  price.Price
	HighPrice price.Price
}
