// Package actions implements order placement, amendment, cancellation,
// and elimination against an orderbook.Book, grounded on
// the C++ original's regular_placement.cpp / regular_amendment.cpp /
// cancellation.cpp / elimination.cpp / order_lookup.cpp.
package actions

import (
	"github.com/rishav/matching-core/internal/orderbook"
	"github.com/rishav/matching-core/internal/orders"
	"github.com/rishav/matching-core/internal/session"
)

// LookupKey carries the three lookup keys a modification or cancellation
// request may supply, tried in precedence order: venue order id, then
// original-client-order-id + session, then client-order-id + session.
type LookupKey struct {
	OrderID           *uint64
	OrigClientOrderID *string
	ClientOrderID     *string
	Session           session.Session
}

// Find resolves a LookupKey against a page's resting orders, trying each
// key in precedence order and returning nil if none match.
func Find(page *orderbook.Page, key LookupKey) *orders.Order {
	if key.OrderID != nil {
		return page.Get(*key.OrderID)
	}
	if key.OrigClientOrderID != nil {
		return findUnique(page, func(o *orders.Order) bool {
			return o.ClientOrderID != nil && *o.ClientOrderID == *key.OrigClientOrderID && o.Session.Equal(key.Session)
		})
	}
	if key.ClientOrderID != nil {
		return findUnique(page, func(o *orders.Order) bool {
			return o.ClientOrderID != nil && *o.ClientOrderID == *key.ClientOrderID && o.Session.Equal(key.Session)
		})
	}
	return nil
}

// findUnique scans every order resting on the page. The original asserts
// uniqueness (find_unique_limit_order); since client/session pairs are
// enforced unique at acceptance time, the first match is authoritative.
func findUnique(page *orderbook.Page, pred func(*orders.Order) bool) *orders.Order {
	for _, level := range page.Levels(0) {
		for _, o := range level.Orders() {
			if pred(o) {
				return o
			}
		}
	}
	return nil
}
