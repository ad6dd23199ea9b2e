package engine

import (
	"github.com/rishav/matching-core/internal/events"
	"github.com/rishav/matching-core/internal/marketdata"
	"github.com/rishav/matching-core/internal/orders"
)

// marketDataBridge turns the order-book notifications an instrument's
// event bus emits into the book-state notifications the market-data
// cache folds in, grounded on cache_manager.cpp's order-book event
// handlers. It tracks each resting order's last-known visible quantity
// so OrderReduced/OrderRemovedFromBook — which carry the order's new
// state, not a delta — can be turned into the delta the depth cache
// expects.
type marketDataBridge struct {
	cache   pushable
	resting map[uint64]int64
}

// pushable is the subset of cache.Manager the bridge feeds.
type pushable interface {
	Push(n marketdata.Notification)
}

func newMarketDataBridge(c pushable) *marketDataBridge {
	return &marketDataBridge{cache: c, resting: make(map[uint64]int64)}
}

func side(isSell bool) int {
	if isSell {
		return 1
	}
	return 0
}

func (b *marketDataBridge) Emit(e events.Event) {
	switch e.Kind {
	case events.KindOrderAddedToBook:
		o := e.Order
		leaves := o.Leaves()
		b.resting[o.ID] = leaves
		hash, _ := marketdata.ExecutingFirmHash(o.Parties)
		b.cache.Push(marketdata.Notification{Kind: marketdata.NotifyOrderAdded, Side: side(o.Side.IsSell()), Price: o.Price, Quantity: leaves, OwnerHash: hash})

	case events.KindOrderReduced:
		o := e.Order
		prev := b.resting[o.ID]
		leaves := o.Leaves()
		delta := prev - leaves
		if delta <= 0 {
			return
		}
		b.resting[o.ID] = leaves
		hash, _ := marketdata.ExecutingFirmHash(o.Parties)
		b.cache.Push(marketdata.Notification{Kind: marketdata.NotifyOrderReduced, Side: side(o.Side.IsSell()), Price: o.Price, Quantity: delta, OwnerHash: hash})

	case events.KindOrderRemovedFromBook:
		o := e.Order
		qty, tracked := b.resting[o.ID]
		if !tracked {
			qty = o.Leaves()
		}
		delete(b.resting, o.ID)
		if qty <= 0 {
			return
		}
		hash, _ := marketdata.ExecutingFirmHash(o.Parties)
		b.cache.Push(marketdata.Notification{Kind: marketdata.NotifyOrderRemoved, Side: side(o.Side.IsSell()), Price: o.Price, Quantity: qty, OwnerHash: hash})

	case events.KindTrade:
		buyer, seller := e.Taker, e.Maker
		if e.Taker.Side.IsSell() {
			buyer, seller = e.Maker, e.Taker
		}
		b.cache.Push(marketdata.Notification{
			Kind:           marketdata.NotifyTrade,
			TradePrice:     e.TradePrice,
			TradeQuantity:  e.TradeQuantity,
			BuyerID:        orders.PartyIdentity(buyer.Parties),
			SellerID:       orders.PartyIdentity(seller.Parties),
			AggressorIsBuy: !e.Taker.Side.IsSell(),
			Time:           e.Timestamp,
		})
	}
}
