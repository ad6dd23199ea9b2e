// Package orders defines the order value objects of the matching core:
// limit and market orders, their status lifecycle, quantity accounting,
// and amend semantics.
//
// Prices use internal/price's decimal.Decimal instead of fixed-point
// cents, so instruments with non-cent tick sizes are representable
// without a hard-coded scale; quantities stay plain int64 shares.
package orders

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rishav/matching-core/internal/price"
	"github.com/rishav/matching-core/internal/session"
)

// Side is the order side. Only Buy and Sell affect which book page an
// order rests on; SellShort and SellShortExempt are valid aggressor/
// resting sides for matching purposes but are treated as Sell for book
// placement.
type Side int

const (
	Buy Side = iota
	Sell
	SellShort
	SellShortExempt
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "Buy"
	case Sell:
		return "Sell"
	case SellShort:
		return "SellShort"
	case SellShortExempt:
		return "SellShortExempt"
	default:
		return "Unknown"
	}
}

// IsSell reports whether the side books/matches on the sell page.
func (s Side) IsSell() bool {
	return s == Sell || s == SellShort || s == SellShortExempt
}

// Type distinguishes limit from market orders.
type Type int

const (
	Limit Type = iota
	Market
)

func (t Type) String() string {
	if t == Market {
		return "Market"
	}
	return "Limit"
}

// TimeInForce is the order's time-in-force flavor.
type TimeInForce int

const (
	Day TimeInForce = iota
	IOC
	FOK
	GoodTillDate
	GoodTillCancel
)

func (t TimeInForce) String() string {
	switch t {
	case Day:
		return "Day"
	case IOC:
		return "IOC"
	case FOK:
		return "FOK"
	case GoodTillDate:
		return "GoodTillDate"
	case GoodTillCancel:
		return "GoodTillCancel"
	default:
		return "Unknown"
	}
}

// Status is the order's lifecycle status.
type Status int

const (
	New Status = iota
	PartiallyFilled
	Filled
	Cancelled
	Modified
	Rejected
)

func (s Status) String() string {
	switch s {
	case New:
		return "New"
	case PartiallyFilled:
		return "PartiallyFilled"
	case Filled:
		return "Filled"
	case Cancelled:
		return "Cancelled"
	case Modified:
		return "Modified"
	case Rejected:
		return "Rejected"
	default:
		return "Unknown"
	}
}

// PartyRole identifies the role a party plays on an order. The core
// itself reads ExecutingFirm (owner hash for the depth cache and the
// subscription manager's owner exclusion) and ClientID (counterparty
// identity, see PartyIdentity); the remaining roles pass through
// opaquely for reply construction.
type PartyRole int

const (
	ExecutingFirm PartyRole = iota
	ClientID
	EnteringFirm
	ContraFirm
)

// Party is one (id, source, role) triple attached to an order.
type Party struct {
	ID     string
	Source string
	Role   PartyRole
}

// PartyIdentity returns a party block's ClientID, falling back to its
// ExecutingFirm, for trade-tape and execution-report counterparty
// reporting.
func PartyIdentity(parties []Party) string {
	var executingFirm string
	for _, p := range parties {
		if p.Role == ClientID {
			return p.ID
		}
		if p.Role == ExecutingFirm {
			executingFirm = p.ID
		}
	}
	return executingFirm
}

// Instrument is the opaque, already-validated instrument descriptor an
// order is placed against. The reference-data store that resolves and
// validates descriptors is out of scope; the core only
// compares descriptors for equality.
type Instrument struct {
	Symbol string
}

// execIDSeq is a per-order monotonic sub-counter for execution ids,
// seeded from the order id so execution ids stay globally unique
// without any global counter state.
type execIDSeq struct {
	orderID uint64
	next    uint64
}

func newExecIDSeq(orderID uint64) *execIDSeq {
	return &execIDSeq{orderID: orderID}
}

// Next returns the next execution id for this order, formatted
// "{order_id}-{n}" starting at 1.
func (g *execIDSeq) Next() string {
	n := atomic.AddUint64(&g.next, 1)
	return fmt.Sprintf("%d-%d", g.orderID, n)
}

// AuxExecutionID returns the auxiliary execution-id seed consumed by a
// rejected placement: a throwaway sub-generator's first id, i.e.
// "{order_id}-1", without disturbing any resting order's own sequence.
func AuxExecutionID(orderID uint64) string {
	return newExecIDSeq(orderID).Next()
}

// Order is a single limit or market order known to the engine.
type Order struct {
	ID         uint64
	Type       Type
	Side       Side
	Price      price.Price // ignored for Market
	Quantity   int64
	Executed   int64
	Status     Status
	TIF        TimeInForce
	ExpireTime *time.Time // absolute instant, GTD
	ExpireDate *time.Time // local calendar date (time-of-day ignored), GTD

	ShortSaleExemptReason *string
	ClientOrderID         *string

	Parties    []Party
	Session    session.Session
	Instrument Instrument

	OrderTime time.Time // assigned on accept; re-assigned on amend per rules below

	execIDs *execIDSeq
}

// NewLimit constructs a resting-eligible limit order, New status, with
// its execution-id generator seeded.
func NewLimit(id uint64, side Side, p price.Price, qty int64, tif TimeInForce, ins Instrument, sess session.Session, now time.Time) *Order {
	return &Order{
		ID:         id,
		Type:       Limit,
		Side:       side,
		Price:      p,
		Quantity:   qty,
		Status:     New,
		TIF:        tif,
		Instrument: ins,
		Session:    sess,
		OrderTime:  now,
		execIDs:    newExecIDSeq(id),
	}
}

// NewMarket constructs a market order. Market orders are always IOC
// after accept and are never resting.
func NewMarket(id uint64, side Side, qty int64, ins Instrument, sess session.Session, now time.Time) *Order {
	return &Order{
		ID:         id,
		Type:       Market,
		Side:       side,
		Quantity:   qty,
		Status:     New,
		TIF:        IOC,
		Instrument: ins,
		Session:    sess,
		OrderTime:  now,
		execIDs:    newExecIDSeq(id),
	}
}

// Leaves returns max(total-executed, 0).
func (o *Order) Leaves() int64 {
	l := o.Quantity - o.Executed
	if l < 0 {
		return 0
	}
	return l
}

// IsFilled reports whether the order has no remaining leaves.
func (o *Order) IsFilled() bool {
	return o.Leaves() == 0
}

// IsActive reports whether the order can still be matched/rests in the book.
func (o *Order) IsActive() bool {
	return o.Status == New || o.Status == PartiallyFilled
}

// MakeExecutionID returns the next execution id for this order.
func (o *Order) MakeExecutionID() string {
	return o.execIDs.Next()
}

// Execute applies qty of execution to the order: Executed += qty;
// Status becomes Filled or PartiallyFilled accordingly. Invariant:
// Executed must never exceed Quantity after this call; callers are
// responsible for only passing qty <= Leaves().
func (o *Order) Execute(qty int64) {
	o.Executed += qty
	if o.IsFilled() {
		o.Status = Filled
	} else {
		o.Status = PartiallyFilled
	}
}

// Cancel marks the order cancelled.
func (o *Order) Cancel() {
	o.Status = Cancelled
}

// Amend applies a new price/quantity/attributes to the order.
// Order-time is re-assigned only when price changes or quantity
// increases; an amend that keeps price and does not increase quantity
// preserves the original order-time (and therefore priority). Status
// becomes Modified.
func (o *Order) Amend(newPrice price.Price, newQuantity int64, now time.Time) {
	priceChanged := o.Type == Limit && !newPrice.Equal(o.Price)
	quantityIncreased := newQuantity > o.Quantity

	o.Price = newPrice
	o.Quantity = newQuantity
	o.Status = Modified

	if priceChanged || quantityIncreased {
		o.OrderTime = now
	}
}

func (o *Order) String() string {
	return fmt.Sprintf("Order{ID:%d, %s %s %s qty=%d executed=%d status=%s tif=%s}",
		o.ID, o.Side, o.Type, o.Instrument.Symbol, o.Quantity, o.Executed, o.Status, o.TIF)
}
