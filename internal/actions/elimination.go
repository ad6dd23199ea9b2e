package actions

import (
	"time"

	"github.com/rishav/matching-core/internal/events"
	"github.com/rishav/matching-core/internal/orderbook"
	"github.com/rishav/matching-core/internal/orders"
	"github.com/rishav/matching-core/internal/replies"
	"github.com/rishav/matching-core/internal/session"
	"go.uber.org/zap"
)

// eliminate detaches order from page and notifies. withConfirmation also
// emits a cancellation confirmation addressed to the order's owner (used
// by every elimination subsystem except AllOrdersElimination, which is
// silent per the original — see elimination.cpp).
func eliminate(bus *events.Bus, page *orderbook.Page, order *orders.Order, withConfirmation bool) {
	page.Remove(order.ID)
	bus.Emit(replies.OrderRemovedFromBook(order))
	order.Cancel()
	if withConfirmation {
		bus.Emit(replies.ConfirmCancellation(order).
			WithExecutionID(order.MakeExecutionID()).
			WithClientOrderID(order.ClientOrderID).
			Build())
	}
}

func sweep(book *orderbook.Book, should func(*orders.Order) bool, action func(*orderbook.Page, *orders.Order)) {
	for _, side := range []orders.Side{orders.Buy, orders.Sell} {
		page := book.Page(side)
		// Iterate a snapshot since action mutates the page.
		var targets []*orders.Order
		for _, level := range page.Levels(0) {
			targets = append(targets, level.Orders()...)
		}
		for _, order := range targets {
			if should(order) {
				action(page, order)
			}
		}
	}
}

// SystemElimination cancels expired Day and GoodTillDate orders on a
// tick of the system clock, grounded on SystemElimination
// (elimination.cpp). A Day order expires whenever a new trading day
// begins; a GTD order expires at its explicit expire time, or at the end
// of its expire date if no explicit time was given.
type SystemElimination struct {
	bus               *events.Bus
	currentExpireTime time.Time
	currentDate       time.Time
	isNewDay          bool
}

func NewSystemElimination(bus *events.Bus, now time.Time, isNewDay bool) *SystemElimination {
	return &SystemElimination{bus: bus, currentExpireTime: now, currentDate: now, isNewDay: isNewDay}
}

func (s *SystemElimination) isExpired(o *orders.Order) bool {
	switch o.TIF {
	case orders.Day:
		return s.isNewDay
	case orders.GoodTillDate:
		if o.ExpireTime != nil {
			return !s.currentExpireTime.Before(*o.ExpireTime)
		}
		if o.ExpireDate != nil {
			return s.isNewDay && s.currentDate.After(*o.ExpireDate)
		}
	}
	return false
}

func (s *SystemElimination) Run(book *orderbook.Book) {
	sweep(book, s.isExpired, func(page *orderbook.Page, o *orders.Order) { eliminate(s.bus, page, o, true) })
}

// ClosedPhaseElimination cancels every Day order, and every GoodTillDate
// order whose expire date has arrived, when a closing-only phase starts
// (elimination.cpp ClosedPhaseElimination).
type ClosedPhaseElimination struct {
	bus            *events.Bus
	phaseStartDate time.Time
}

func NewClosedPhaseElimination(bus *events.Bus, phaseStartDate time.Time) *ClosedPhaseElimination {
	return &ClosedPhaseElimination{bus: bus, phaseStartDate: phaseStartDate}
}

func (c *ClosedPhaseElimination) isExpired(o *orders.Order) bool {
	switch o.TIF {
	case orders.Day:
		return true
	case orders.GoodTillDate:
		return o.ExpireDate != nil && !c.phaseStartDate.Before(*o.ExpireDate)
	}
	return false
}

func (c *ClosedPhaseElimination) Run(book *orderbook.Book) {
	sweep(book, c.isExpired, func(page *orderbook.Page, o *orders.Order) { eliminate(c.bus, page, o, true) })
}

// OnDisconnectElimination cancels every Day order resting under a
// session that has just disconnected (elimination.cpp
// OnDisconnectElimination).
type OnDisconnectElimination struct {
	bus     *events.Bus
	session session.Session
}

func NewOnDisconnectElimination(bus *events.Bus, disconnected session.Session) *OnDisconnectElimination {
	return &OnDisconnectElimination{bus: bus, session: disconnected}
}

func (d *OnDisconnectElimination) shouldEliminate(o *orders.Order) bool {
	return o.TIF == orders.Day && o.Session.Equal(d.session)
}

func (d *OnDisconnectElimination) Run(book *orderbook.Book) {
	sweep(book, d.shouldEliminate, func(page *orderbook.Page, o *orders.Order) { eliminate(d.bus, page, o, true) })
}

// AllOrdersElimination unconditionally clears every resting order,
// silently (no client notification), grounded on AllOrdersElimination
// (elimination.cpp) — used for full book resets.
type AllOrdersElimination struct {
	bus *events.Bus
}

func NewAllOrdersElimination(bus *events.Bus) *AllOrdersElimination {
	return &AllOrdersElimination{bus: bus}
}

func (a *AllOrdersElimination) Run(book *orderbook.Book) {
	sweep(book, func(*orders.Order) bool { return true }, func(page *orderbook.Page, o *orders.Order) { eliminate(a.bus, page, o, false) })
}
