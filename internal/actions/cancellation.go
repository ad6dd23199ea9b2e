package actions

import (
	"github.com/rishav/matching-core/internal/events"
	"github.com/rishav/matching-core/internal/orderbook"
	"github.com/rishav/matching-core/internal/orders"
	"github.com/rishav/matching-core/internal/replies"
	"go.uber.org/zap"
)

// Cancellation runs cancel requests against a book, grounded on
// Cancellation (cancellation.cpp).
type Cancellation struct {
	book   *orderbook.Book
	bus    *events.Bus
	logger *zap.Logger
}

func NewCancellation(book *orderbook.Book, bus *events.Bus, logger *zap.Logger) *Cancellation {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cancellation{book: book, bus: bus, logger: logger}
}

// Cancel looks up the target order by key on the given side's page; if
// found it is detached from the book before being marked cancelled, so
// the OrderRemovedFromBook notification always precedes the client
// confirmation.
func (c *Cancellation) Cancel(side orders.Side, key LookupKey, clientOrderID, origClientOrderID *string) {
	c.logger.Debug("running order cancellation")

	page := c.book.Page(side)
	target := Find(page, key)
	if target == nil {
		c.bus.Emit(replies.RejectCancellation().WithReason("order not found").Build())
		return
	}

	page.Remove(target.ID)
	c.bus.Emit(replies.OrderRemovedFromBook(target))

	target.Cancel()
	c.bus.Emit(replies.ConfirmCancellation(target).
		WithExecutionID(target.MakeExecutionID()).
		WithClientOrderID(clientOrderID).
		WithOrigClientOrderID(origClientOrderID).
		Build())
}
