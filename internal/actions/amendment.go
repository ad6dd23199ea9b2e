package actions

import (
	"time"

	"github.com/rishav/matching-core/internal/events"
	"github.com/rishav/matching-core/internal/matching"
	"github.com/rishav/matching-core/internal/orderbook"
	"github.com/rishav/matching-core/internal/orders"
	"github.com/rishav/matching-core/internal/price"
	"github.com/rishav/matching-core/internal/replies"
	"go.uber.org/zap"
)

// Amendment runs amend (modification) requests against a book, grounded
// on RegularAmendment (regular_amendment.cpp).
type Amendment struct {
	book   *orderbook.Book
	bus    *events.Bus
	logger *zap.Logger
}

func NewAmendment(book *orderbook.Book, bus *events.Bus, logger *zap.Logger) *Amendment {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Amendment{book: book, bus: bus, logger: logger}
}

// Amend looks up the target order by key, rejects if not found, if the
// new quantity does not exceed cumulative executed quantity, or if the
// time-in-force would change; otherwise detaches it, applies the new
// price/quantity, re-matches it, and re-inserts any unfilled remainder.
func (a *Amendment) Amend(side orders.Side, key LookupKey, newPrice price.Price, newQuantity int64, tif orders.TimeInForce, origClientOrderID *string, now time.Time) {
	a.logger.Debug("running regular limit order amendment")

	page := a.book.Page(side)
	target := Find(page, key)
	if target == nil {
		a.bus.Emit(replies.RejectModification(nil).WithReason("order not found").Build())
		return
	}

	if newQuantity <= target.Executed {
		a.bus.Emit(replies.RejectModification(target).WithReason("invalid quantity").Build())
		return
	}
	if target.TIF != tif {
		a.bus.Emit(replies.RejectModification(target).WithReason("time in force can not be changed").Build())
		return
	}

	page.Remove(target.ID)
	a.bus.Emit(replies.OrderRemovedFromBook(target))

	target.Amend(newPrice, newQuantity, now)
	a.bus.Emit(replies.ConfirmModification(target).WithExecutionID(target.MakeExecutionID()).WithOrigClientOrderID(origClientOrderID).Build())

	p := NewPlacement(a.book, a.bus, a.logger)
	p.emitFills(matching.MatchLimit(a.book, target, now))

	if !target.IsFilled() && target.IsActive() {
		_ = page.Add(target)
		a.bus.Emit(replies.OrderAddedToBook(target))
	}
}
