// Package matching implements price-time crossing for limit and market
// takers, following regular_order_matcher.cpp precisely for
// event-emission order and IOC/FOK/Market semantics.
package matching

import (
	"time"

	"github.com/rishav/matching-core/internal/engine/fault"
	"github.com/rishav/matching-core/internal/orderbook"
	"github.com/rishav/matching-core/internal/orders"
	"github.com/rishav/matching-core/internal/price"
)

// FillEvent is a single maker/taker execution. Callers translate this
// into the four client/book notifications the original emits in fixed
// order: taker execution report, maker execution report, OrderReduced
// (maker), Trade.
type FillEvent struct {
	Taker          *orders.Order
	Maker          *orders.Order
	TradePrice     price.Price
	TradeQuantity  int64
	TakerCancelled bool // true if the taker's IOC/Market remainder was cancelled as part of this fill
}

// makerRef pairs a resting order's node with the level it belongs to so
// trade() can update level bookkeeping without a second page lookup.
type makerRef struct {
	level *orderbook.PriceLevel
	node  *orderbook.OrderNode
}

func oppositePage(book *orderbook.Book, takerSide orders.Side) *orderbook.Page {
	if takerSide.IsSell() {
		return book.BuyPage()
	}
	return book.SellPage()
}

// priceAcceptable builds the taker-side-parameterized price criterion:
// a Buy taker accepts resting ask prices <= its own price; a Sell-family
// taker accepts resting bid prices >= its own price.
func priceAcceptable(takerSide orders.Side, takerPrice price.Price) func(price.Price) bool {
	if takerSide.IsSell() {
		return func(restingPrice price.Price) bool { return restingPrice.GreaterThanOrEqual(takerPrice) }
	}
	return func(restingPrice price.Price) bool { return restingPrice.LessThanOrEqual(takerPrice) }
}

// collectMakers flattens the price-bounded prefix of page into an
// ordered list of maker slots, best price/time first. priceOK==nil
// means unbounded (used by market orders).
func collectMakers(page *orderbook.Page, priceOK func(price.Price) bool) []makerRef {
	var result []makerRef
	for _, level := range page.Levels(0) {
		if priceOK != nil && !priceOK(level.Price) {
			break
		}
		for node := level.Head(); node != nil; node = node.Next() {
			result = append(result, makerRef{level: level, node: node})
		}
	}
	return result
}

// HasFacingOrders reports whether the opposite page has at least one
// resting order acceptable to a taker of the given side/price. Pass
// isLimit=false for a market taker (any resting order faces it).
func HasFacingOrders(book *orderbook.Book, takerSide orders.Side, takerPrice price.Price, isLimit bool) bool {
	page := oppositePage(book, takerSide)
	var priceOK func(price.Price) bool
	if isLimit {
		priceOK = priceAcceptable(takerSide, takerPrice)
	}
	best := page.Best()
	if best == nil {
		return false
	}
	if priceOK == nil {
		return true
	}
	return priceOK(best.Price)
}

// CanFullyTrade reports whether the aggregated leaves of every maker
// acceptable to the taker's price is at least the taker's leaves,
// computed without mutating any state. This is the FOK precondition.
func CanFullyTrade(book *orderbook.Book, takerSide orders.Side, takerPrice price.Price, takerLeaves int64) bool {
	page := oppositePage(book, takerSide)
	makers := collectMakers(page, priceAcceptable(takerSide, takerPrice))
	var available int64
	for _, m := range makers {
		available += m.node.Order.Leaves()
		if available >= takerLeaves {
			return true
		}
	}
	return available >= takerLeaves
}

// trade executes taker against makers in order, emitting one FillEvent
// per maker touched. If cancelRemainderIfExhausted is set and the taker
// still has leaves after trading against the last maker in the list,
// the taker's cancel is folded into that final FillEvent instead of a
// separate cancel notification.
//
// trade panics via fault.Invariant if makers is empty: callers must
// always precheck facing orders before invoking it, so reaching this
// point with nothing to trade against is a bug, not a client problem.
func trade(taker *orders.Order, makers []makerRef, cancelRemainderIfExhausted bool, now time.Time) []FillEvent {
	if len(makers) == 0 {
		fault.Invariant("matcher: no facing makers to trade order %d against", taker.ID)
	}

	fills := make([]FillEvent, 0, len(makers))
	for i, m := range makers {
		if taker.IsFilled() {
			break
		}
		maker := m.node.Order
		qty := taker.Leaves()
		if maker.Leaves() < qty {
			qty = maker.Leaves()
		}
		tradePrice := m.level.Price

		taker.Execute(qty)
		maker.Execute(qty)
		m.level.UpdateQuantity(-qty)

		cancelled := false
		if cancelRemainderIfExhausted && i == len(makers)-1 && !taker.IsFilled() {
			taker.Cancel()
			cancelled = true
		}

		fills = append(fills, FillEvent{
			Taker:          taker,
			Maker:          maker,
			TradePrice:     tradePrice,
			TradeQuantity:  qty,
			TakerCancelled: cancelled,
		})
	}
	return fills
}

// removeFilledLevels clears fully-executed makers from every level the
// match sequence touched, in the order it touched them (the page's
// equivalent of the original's contiguous prefix erase).
func removeFilledLevels(page *orderbook.Page, makers []makerRef) {
	seen := make(map[*orderbook.PriceLevel]bool, len(makers))
	for _, m := range makers {
		if seen[m.level] {
			continue
		}
		seen[m.level] = true
		page.RemoveFilled(m.level)
	}
}

// MatchLimit trades a Day/GTC/GTD (non-IOC/FOK) limit taker against the
// price-bounded prefix of the opposite page. No facing-order
// precondition: an order with no acceptable makers simply rests.
func MatchLimit(book *orderbook.Book, taker *orders.Order, now time.Time) []FillEvent {
	page := oppositePage(book, taker.Side)
	makers := collectMakers(page, priceAcceptable(taker.Side, taker.Price))
	if len(makers) == 0 {
		return nil
	}
	fills := trade(taker, makers, false, now)
	removeFilledLevels(page, makers)
	return fills
}

// MatchIOC trades an IOC limit taker against the price-bounded prefix.
// The caller must have already confirmed HasFacingOrders; any remainder
// is cancelled, folded into the last emitted FillEvent.
func MatchIOC(book *orderbook.Book, taker *orders.Order, now time.Time) []FillEvent {
	page := oppositePage(book, taker.Side)
	makers := collectMakers(page, priceAcceptable(taker.Side, taker.Price))
	fills := trade(taker, makers, true, now)
	removeFilledLevels(page, makers)
	return fills
}

// MatchMarket trades a market taker against the entire opposite page,
// unbounded by price. The caller must have already confirmed
// HasFacingOrders; any remainder is cancelled as with IOC.
func MatchMarket(book *orderbook.Book, taker *orders.Order, now time.Time) []FillEvent {
	page := oppositePage(book, taker.Side)
	makers := collectMakers(page, nil)
	fills := trade(taker, makers, true, now)
	removeFilledLevels(page, makers)
	return fills
}
