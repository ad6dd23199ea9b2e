// Package events defines the notification types the matching engine emits
// while handling a request: client replies (execution reports, rejects,
// trades) and internal book-state notifications consumed by the
// market-data cache.
package events

import (
	"time"

	"github.com/rishav/matching-core/internal/orders"
	"github.com/rishav/matching-core/internal/phase"
	"github.com/rishav/matching-core/internal/price"
)

// Kind identifies the notification's shape.
type Kind uint8

const (
	KindPlacementConfirmed Kind = iota + 1
	KindPlacementRejected
	KindModificationConfirmed
	KindModificationRejected
	KindCancellationConfirmed
	KindCancellationRejected
	KindOrderReduced
	KindTrade
	KindOrderAddedToBook
	KindOrderRemovedFromBook
	KindExecutionReport
	KindSecurityStatus
	KindBusinessMessageReject
)

func (k Kind) String() string {
	switch k {
	case KindPlacementConfirmed:
		return "PLACEMENT_CONFIRMED"
	case KindPlacementRejected:
		return "PLACEMENT_REJECTED"
	case KindModificationConfirmed:
		return "MODIFICATION_CONFIRMED"
	case KindModificationRejected:
		return "MODIFICATION_REJECTED"
	case KindCancellationConfirmed:
		return "CANCELLATION_CONFIRMED"
	case KindCancellationRejected:
		return "CANCELLATION_REJECTED"
	case KindOrderReduced:
		return "ORDER_REDUCED"
	case KindTrade:
		return "TRADE"
	case KindOrderAddedToBook:
		return "ORDER_ADDED_TO_BOOK"
	case KindOrderRemovedFromBook:
		return "ORDER_REMOVED_FROM_BOOK"
	case KindExecutionReport:
		return "EXECUTION_REPORT"
	case KindSecurityStatus:
		return "SECURITY_STATUS"
	case KindBusinessMessageReject:
		return "BUSINESS_MESSAGE_REJECT"
	default:
		return "UNKNOWN"
	}
}

// Event is the single notification envelope emitted by the actions layer.
// Not every field applies to every Kind; see the builders in package
// replies for the canonical construction of each shape.
type Event struct {
	Sequence          uint64
	Timestamp         time.Time
	Kind              Kind
	Order             *orders.Order // the order the notification concerns
	Maker             *orders.Order // set only for KindTrade
	Taker             *orders.Order // set only for KindTrade
	ExecutionID       string
	Reason            string
	ClientOrderID     *string
	OrigClientOrderID *string
	TradePrice        price.Price
	TradeQuantity     int64

	// Parties is the outgoing party block for KindExecutionReport, the
	// order's own parties plus the counterpart appended as a ContraFirm.
	// Nil for every other Kind.
	Parties []orders.Party

	// Phase/Status carry the venue's current trading state, set only
	// for KindSecurityStatus.
	Phase  phase.TradingPhase
	Status phase.TradingStatus
}

// IsClientNotification reports whether this event is addressed to the
// submitting client, as opposed to an internal book-state notification
// consumed only by the market-data cache.
func (e Event) IsClientNotification() bool {
	switch e.Kind {
	case KindOrderAddedToBook, KindOrderRemovedFromBook:
		return false
	default:
		return true
	}
}
