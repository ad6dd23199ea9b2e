// Package replies builds the events.Event values the actions layer emits,
// mirroring the original's builder-pattern reply construction
// (placement_reply_builders.hpp and its modification/cancellation
// counterparts) in an idiomatic Go fluent-builder shape.
package replies

import (
	"github.com/rishav/matching-core/internal/events"
	"github.com/rishav/matching-core/internal/orders"
	"github.com/rishav/matching-core/internal/phase"
	"github.com/rishav/matching-core/internal/price"
)

// PlacementConfirmation builds a KindPlacementConfirmed event for order.
type PlacementConfirmation struct{ e events.Event }

func ConfirmPlacement(order *orders.Order) *PlacementConfirmation {
	return &PlacementConfirmation{e: events.Event{Kind: events.KindPlacementConfirmed, Order: order}}
}

func (b *PlacementConfirmation) WithExecutionID(id string) *PlacementConfirmation {
	b.e.ExecutionID = id
	return b
}

func (b *PlacementConfirmation) Build() events.Event { return b.e }

// PlacementReject builds a KindPlacementRejected event.
type PlacementReject struct{ e events.Event }

func RejectPlacement(order *orders.Order) *PlacementReject {
	return &PlacementReject{e: events.Event{Kind: events.KindPlacementRejected, Order: order}}
}

func (b *PlacementReject) WithReason(reason string) *PlacementReject {
	b.e.Reason = reason
	return b
}

func (b *PlacementReject) WithExecutionID(id string) *PlacementReject {
	b.e.ExecutionID = id
	return b
}

func (b *PlacementReject) Build() events.Event { return b.e }

// ModificationConfirmation builds a KindModificationConfirmed event.
type ModificationConfirmation struct{ e events.Event }

func ConfirmModification(order *orders.Order) *ModificationConfirmation {
	return &ModificationConfirmation{e: events.Event{Kind: events.KindModificationConfirmed, Order: order}}
}

func (b *ModificationConfirmation) WithExecutionID(id string) *ModificationConfirmation {
	b.e.ExecutionID = id
	return b
}

func (b *ModificationConfirmation) WithOrigClientOrderID(id *string) *ModificationConfirmation {
	b.e.OrigClientOrderID = id
	return b
}

func (b *ModificationConfirmation) Build() events.Event { return b.e }

// ModificationReject builds a KindModificationRejected event.
type ModificationReject struct{ e events.Event }

func RejectModification(order *orders.Order) *ModificationReject {
	return &ModificationReject{e: events.Event{Kind: events.KindModificationRejected, Order: order}}
}

func (b *ModificationReject) WithReason(reason string) *ModificationReject {
	b.e.Reason = reason
	return b
}

func (b *ModificationReject) Build() events.Event { return b.e }

// CancellationConfirmation builds a KindCancellationConfirmed event.
type CancellationConfirmation struct{ e events.Event }

func ConfirmCancellation(order *orders.Order) *CancellationConfirmation {
	return &CancellationConfirmation{e: events.Event{Kind: events.KindCancellationConfirmed, Order: order}}
}

func (b *CancellationConfirmation) WithExecutionID(id string) *CancellationConfirmation {
	b.e.ExecutionID = id
	return b
}

func (b *CancellationConfirmation) WithClientOrderID(id *string) *CancellationConfirmation {
	b.e.ClientOrderID = id
	return b
}

func (b *CancellationConfirmation) WithOrigClientOrderID(id *string) *CancellationConfirmation {
	b.e.OrigClientOrderID = id
	return b
}

func (b *CancellationConfirmation) Build() events.Event { return b.e }

// CancellationReject builds a KindCancellationRejected event.
type CancellationReject struct{ e events.Event }

func RejectCancellation() *CancellationReject {
	return &CancellationReject{e: events.Event{Kind: events.KindCancellationRejected}}
}

func (b *CancellationReject) WithReason(reason string) *CancellationReject {
	b.e.Reason = reason
	return b
}

func (b *CancellationReject) Build() events.Event { return b.e }

// OrderAddedToBook builds the internal book-state notification emitted
// whenever a resting order is inserted into a page.
func OrderAddedToBook(order *orders.Order) events.Event {
	return events.Event{Kind: events.KindOrderAddedToBook, Order: order}
}

// OrderRemovedFromBook builds the internal book-state notification emitted
// whenever a resting order is detached from a page by cancel, amend or
// elimination. A maker filled by matching gets OrderReduced instead.
func OrderRemovedFromBook(order *orders.Order) events.Event {
	return events.Event{Kind: events.KindOrderRemovedFromBook, Order: order}
}

// OrderReduced builds the maker-side notification for one fill; a fully
// filled maker gets one with zero leaves.
func OrderReduced(order *orders.Order) events.Event {
	return events.Event{Kind: events.KindOrderReduced, Order: order}
}

// Trade builds the public trade tape notification for one fill.
func Trade(taker, maker *orders.Order, tradePrice price.Price, tradeQuantity int64) events.Event {
	return events.Event{
		Kind:          events.KindTrade,
		Taker:         taker,
		Maker:         maker,
		TradePrice:    tradePrice,
		TradeQuantity: tradeQuantity,
	}
}

// ExecutionReport builds a KindExecutionReport event: the per-fill
// client notification (execution-type = OrderTraded) distinct from the
// order's initial PlacementConfirmation, carrying order's updated
// status/leaves/cumulative-executed and counterpart attached as a
// ContraFirm party.
type ExecutionReport struct{ e events.Event }

func ReportExecution(order, counterpart *orders.Order) *ExecutionReport {
	parties := append(append([]orders.Party{}, order.Parties...), orders.Party{
		ID:   orders.PartyIdentity(counterpart.Parties),
		Role: orders.ContraFirm,
	})
	return &ExecutionReport{e: events.Event{Kind: events.KindExecutionReport, Order: order, Parties: parties}}
}

func (b *ExecutionReport) WithExecutionID(id string) *ExecutionReport {
	b.e.ExecutionID = id
	return b
}

func (b *ExecutionReport) Build() events.Event { return b.e }

// SecurityStatus builds the KindSecurityStatus client notification
// served in reply to a SecurityStatusRequest, carrying the instrument's
// current trading phase/status; the instrument itself travels alongside
// the event through ClientNotifier.Notify, not through the event.
func SecurityStatus(ph phase.TradingPhase, status phase.TradingStatus) events.Event {
	return events.Event{Kind: events.KindSecurityStatus, Phase: ph, Status: status}
}

// BusinessMessageReject builds the KindBusinessMessageReject event for a
// protocol-level request that could not be classified into any of the
// engine's known request kinds.
func BusinessMessageReject(reason string) events.Event {
	return events.Event{Kind: events.KindBusinessMessageReject, Reason: reason}
}
