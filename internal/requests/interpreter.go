// Package requests translates protocol-level requests into the typed
// actions the order-actions layer consumes. The wire
// gateway that produces these requests from FIX/native messages is out
// of scope; this package only interprets the already-decoded struct.
package requests

import (
	"strconv"
	"time"

	"github.com/rishav/matching-core/internal/orders"
	"github.com/rishav/matching-core/internal/price"
	"github.com/rishav/matching-core/internal/session"
)

// OrderRequestError is the closed error taxonomy the interpreter draws
// from.
type OrderRequestError int

const (
	OrderTypeMissing OrderRequestError = iota
	OrderTypeInvalid
	SideMissing
	SideInvalid
	TimeInForceInvalid
	PriceMissing
	QuantityMissing
	OrderIdInvalid
)

func (e OrderRequestError) Error() string {
	switch e {
	case OrderTypeMissing:
		return "order type missing"
	case OrderTypeInvalid:
		return "order type invalid"
	case SideMissing:
		return "side missing"
	case SideInvalid:
		return "side invalid"
	case TimeInForceInvalid:
		return "time in force invalid"
	case PriceMissing:
		return "price missing"
	case QuantityMissing:
		return "quantity missing"
	case OrderIdInvalid:
		return "order id invalid"
	default:
		return "unknown order request error"
	}
}

// PlacementRequest is the protocol-level new-order request, fields
// carried as raw tokens/optionals exactly as they would arrive off the
// wire (the gateway's job, out of scope, is producing this struct).
type PlacementRequest struct {
	Session               session.Session
	Instrument            orders.Instrument
	Parties               []orders.Party
	ClientOrderID         *string
	OrderType             *string // "Limit" | "Market"
	Side                  *string // "Buy" | "Sell" | "SellShort" | "SellShortExempt"
	TimeInForce           *string
	Price                 *price.Price
	Quantity              *int64
	ShortSaleExemptReason *string
	ExpireTime            *time.Time
	ExpireDate            *time.Time
}

// ModificationRequest is the protocol-level amend request; it carries
// the same attribute rules as placement, plus the lookup keys for the
// order being amended.
type ModificationRequest struct {
	Session             session.Session
	Instrument          orders.Instrument
	VenueOrderID        *string
	OrigClientOrderID   *string
	ClientOrderID       *string
	NewClientOrderID    *string
	OrderType           *string
	Side                *string
	TimeInForce         *string
	Price               *price.Price
	Quantity            *int64
	ExpireTime          *time.Time
	ExpireDate          *time.Time
}

// CancellationRequest is the protocol-level cancel request.
type CancellationRequest struct {
	Session           session.Session
	Instrument        orders.Instrument
	Side              *string
	VenueOrderID      *string
	OrigClientOrderID *string
	ClientOrderID     *string
}

// SecurityStatusRequest is the protocol-level request for an
// instrument's current trading phase/status, always accepted
// regardless of the instrument's trading phase.
type SecurityStatusRequest struct {
	Session    session.Session
	Instrument orders.Instrument
}

// InterpretedPlacement is the validated, typed result of interpreting a
// PlacementRequest: either a LimitOrder, a MarketOrder, or an error.
type InterpretedPlacement struct {
	Type        orders.Type
	Side        orders.Side
	TIF         orders.TimeInForce
	Price       price.Price // valid only when Type == Limit
	Quantity    int64
}

func interpretSide(raw *string) (orders.Side, error) {
	if raw == nil {
		return 0, SideMissing
	}
	switch *raw {
	case "Buy":
		return orders.Buy, nil
	case "Sell":
		return orders.Sell, nil
	case "SellShort":
		return orders.SellShort, nil
	case "SellShortExempt":
		return orders.SellShortExempt, nil
	default:
		return 0, SideInvalid
	}
}

func interpretOrderType(raw *string) (orders.Type, error) {
	if raw == nil {
		return 0, OrderTypeMissing
	}
	switch *raw {
	case "Limit":
		return orders.Limit, nil
	case "Market":
		return orders.Market, nil
	default:
		return 0, OrderTypeInvalid
	}
}

// interpretTimeInForce defaults to Day when absent — this is not an
// error.
func interpretTimeInForce(raw *string) (orders.TimeInForce, error) {
	if raw == nil {
		return orders.Day, nil
	}
	switch *raw {
	case "Day":
		return orders.Day, nil
	case "IOC":
		return orders.IOC, nil
	case "FOK":
		return orders.FOK, nil
	case "GTD":
		return orders.GoodTillDate, nil
	case "GTC":
		return orders.GoodTillCancel, nil
	default:
		return 0, TimeInForceInvalid
	}
}

// InterpretOrderID parses an optional venue-order-id: absent is not an
// error (nil, nil); present but unparseable as an unsigned decimal
// integer is OrderIdInvalid.
func InterpretOrderID(raw *string) (*uint64, error) {
	if raw == nil {
		return nil, nil
	}
	v, err := strconv.ParseUint(*raw, 10, 64)
	if err != nil {
		return nil, OrderIdInvalid
	}
	return &v, nil
}

// InterpretPlacement turns a PlacementRequest into a typed, validated
// action. Market orders are coerced to IOC regardless of what the
// request's time-in-force token said.
func InterpretPlacement(req PlacementRequest) (InterpretedPlacement, error) {
	side, err := interpretSide(req.Side)
	if err != nil {
		return InterpretedPlacement{}, err
	}
	tif, err := interpretTimeInForce(req.TimeInForce)
	if err != nil {
		return InterpretedPlacement{}, err
	}
	orderType, err := interpretOrderType(req.OrderType)
	if err != nil {
		return InterpretedPlacement{}, err
	}

	switch orderType {
	case orders.Limit:
		if req.Price == nil {
			return InterpretedPlacement{}, PriceMissing
		}
		if req.Quantity == nil {
			return InterpretedPlacement{}, QuantityMissing
		}
		return InterpretedPlacement{Type: orders.Limit, Side: side, TIF: tif, Price: *req.Price, Quantity: *req.Quantity}, nil
	case orders.Market:
		if req.Quantity == nil {
			return InterpretedPlacement{}, QuantityMissing
		}
		return InterpretedPlacement{Type: orders.Market, Side: side, TIF: orders.IOC, Quantity: *req.Quantity}, nil
	default:
		return InterpretedPlacement{}, OrderTypeInvalid
	}
}

// InterpretModification applies the same attribute rules as placement,
// additionally requiring the order type to be Limit.
func InterpretModification(req ModificationRequest) (InterpretedPlacement, error) {
	side, err := interpretSide(req.Side)
	if err != nil {
		return InterpretedPlacement{}, err
	}
	tif, err := interpretTimeInForce(req.TimeInForce)
	if err != nil {
		return InterpretedPlacement{}, err
	}
	orderType, err := interpretOrderType(req.OrderType)
	if err != nil {
		return InterpretedPlacement{}, err
	}
	if orderType != orders.Limit {
		return InterpretedPlacement{}, OrderTypeInvalid
	}
	if req.Price == nil {
		return InterpretedPlacement{}, PriceMissing
	}
	if req.Quantity == nil {
		return InterpretedPlacement{}, QuantityMissing
	}
	return InterpretedPlacement{Type: orders.Limit, Side: side, TIF: tif, Price: *req.Price, Quantity: *req.Quantity}, nil
}

// InterpretCancellation validates the side and parses the optional
// venue-order-id.
func InterpretCancellation(req CancellationRequest) (orders.Side, *uint64, error) {
	side, err := interpretSide(req.Side)
	if err != nil {
		return 0, nil, err
	}
	orderID, err := InterpretOrderID(req.VenueOrderID)
	if err != nil {
		return 0, nil, err
	}
	return side, orderID, nil
}
