package actions

import (
	"time"

	"github.com/rishav/matching-core/internal/events"
	"github.com/rishav/matching-core/internal/matching"
	"github.com/rishav/matching-core/internal/orderbook"
	"github.com/rishav/matching-core/internal/orders"
	"github.com/rishav/matching-core/internal/replies"
	"go.uber.org/zap"
)

// Placement runs new-order requests against a book, grounded on
// RegularPlacement (regular_placement.cpp).
type Placement struct {
	book   *orderbook.Book
	bus    *events.Bus
	logger *zap.Logger
}

func NewPlacement(book *orderbook.Book, bus *events.Bus, logger *zap.Logger) *Placement {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Placement{book: book, bus: bus, logger: logger}
}

// Limit places a limit order: IOC and FOK orders are matched with their
// own facing/liquidity preconditions; any other TIF simply rests whatever
// the matcher leaves unexecuted.
func (p *Placement) Limit(order *orders.Order, now time.Time) {
	p.logger.Debug("running regular limit order placement", zap.Uint64("order_id", order.ID))

	switch order.TIF {
	case orders.IOC:
		p.matchIOC(order, now)
	case orders.FOK:
		p.matchFOK(order, now)
	default:
		p.place(order, now)
	}
}

// Market places a market order: always IOC-like, rejected outright if no
// facing orders exist.
func (p *Placement) Market(order *orders.Order, now time.Time) {
	p.logger.Debug("placing/matching market order", zap.Uint64("order_id", order.ID))

	if !matching.HasFacingOrders(p.book, order.Side, order.Price, false) {
		p.bus.Emit(replies.RejectPlacement(order).WithReason("no facing orders found").Build())
		return
	}

	p.bus.Emit(replies.ConfirmPlacement(order).WithExecutionID(order.MakeExecutionID()).Build())
	p.emitFills(matching.MatchMarket(p.book, order, now))
}

func (p *Placement) place(order *orders.Order, now time.Time) {
	p.bus.Emit(replies.ConfirmPlacement(order).WithExecutionID(order.MakeExecutionID()).Build())

	p.emitFills(matching.MatchLimit(p.book, order, now))

	if !order.IsFilled() && order.IsActive() {
		page := p.book.Page(order.Side)
		_ = page.Add(order)
		p.bus.Emit(replies.OrderAddedToBook(order))
	}
}

func (p *Placement) matchIOC(order *orders.Order, now time.Time) {
	p.logger.Debug("matching IoC order", zap.Uint64("order_id", order.ID))

	if !matching.HasFacingOrders(p.book, order.Side, order.Price, true) {
		p.bus.Emit(replies.RejectPlacement(order).WithReason("no facing orders found").Build())
		return
	}

	p.bus.Emit(replies.ConfirmPlacement(order).WithExecutionID(order.MakeExecutionID()).Build())
	p.emitFills(matching.MatchIOC(p.book, order, now))
}

func (p *Placement) matchFOK(order *orders.Order, now time.Time) {
	p.logger.Debug("matching FoK order", zap.Uint64("order_id", order.ID))

	if !matching.HasFacingOrders(p.book, order.Side, order.Price, true) {
		p.bus.Emit(replies.RejectPlacement(order).WithReason("no facing orders found").Build())
		return
	}
	if !matching.CanFullyTrade(p.book, order.Side, order.Price, order.Leaves()) {
		p.bus.Emit(replies.RejectPlacement(order).WithReason("not enough liquidity to fill FoK order").Build())
		return
	}

	p.bus.Emit(replies.ConfirmPlacement(order).WithExecutionID(order.MakeExecutionID()).Build())
	p.emitFills(matching.MatchIOC(p.book, order, now))
}

// emitFills translates matcher fills into the four-notification sequence
// per fill: taker execution report, maker execution report, maker
// OrderReduced, Trade. A fully filled maker's OrderReduced carries zero
// leaves.
func (p *Placement) emitFills(fills []matching.FillEvent) {
	for _, f := range fills {
		p.bus.Emit(replies.ReportExecution(f.Taker, f.Maker).WithExecutionID(f.Taker.MakeExecutionID()).Build())
		p.bus.Emit(replies.ReportExecution(f.Maker, f.Taker).WithExecutionID(f.Maker.MakeExecutionID()).Build())
		p.bus.Emit(replies.OrderReduced(f.Maker))
		p.bus.Emit(replies.Trade(f.Taker, f.Maker, f.TradePrice, f.TradeQuantity))
	}
}
