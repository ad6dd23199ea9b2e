// Package engine ties every component — validator, request interpreter,
// matcher, order actions, elimination, phase handler, market-data cache,
// subscription manager, event bus — into the single multi-instrument
// orchestrator a transport gateway drives: a single-threaded core fed by
// an external sequencer, keyed per symbol so each instrument's book,
// phase, and market data stay independent of every other instrument's.
package engine

import (
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/rishav/matching-core/internal/actions"
	"github.com/rishav/matching-core/internal/events"
	"github.com/rishav/matching-core/internal/marketdata/cache"
	"github.com/rishav/matching-core/internal/orders"
	"github.com/rishav/matching-core/internal/phase"
	"github.com/rishav/matching-core/internal/replies"
	"github.com/rishav/matching-core/internal/requests"
	"github.com/rishav/matching-core/internal/session"
	"github.com/rishav/matching-core/internal/state"
	"github.com/rishav/matching-core/internal/subscriptions"
	"github.com/rishav/matching-core/internal/validation"
)

// ClientNotifier is the gateway's sink for every client-addressed
// notification an instrument's bus emits (confirmations, rejects,
// trades) — the Go analogue of the original's session-routing
// EventListener.
type ClientNotifier interface {
	Notify(instrument orders.Instrument, e events.Event)
}

// Config is the venue-wide configuration an Engine is built from.
type Config struct {
	Validation   validation.Config
	Phase        phase.Settings
	MarketData   cache.Config
	Subscription subscriptions.Config

	// Log is the append-only event log every instrument's bus persists to
	// before fanning out. Nil disables durability (tests, recovery dry runs).
	Log *events.Log
}

// Engine orchestrates every instrument's book, actions, market-data
// cache, and subscriptions. It is safe to call only from the single
// goroutine a sequencer feeds — mutating calls are not internally locked.
type Engine struct {
	config      Config
	instruments map[string]*instrument
	notifier    ClientNotifier
	mdNotifier  subscriptions.Notifier
	logger      *zap.Logger
	metrics     *Metrics
	nextOrderID uint64
}

func New(config Config, notifier ClientNotifier, mdNotifier subscriptions.Notifier, metrics *Metrics, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = Noop()
	}
	return &Engine{
		config:      config,
		instruments: make(map[string]*instrument),
		notifier:    notifier,
		mdNotifier:  mdNotifier,
		logger:      logger,
		metrics:     metrics,
	}
}

// AddInstrument registers a new tradable instrument with an empty book.
func (e *Engine) AddInstrument(ins orders.Instrument) {
	if _, exists := e.instruments[ins.Symbol]; exists {
		return
	}
	e.instruments[ins.Symbol] = e.buildInstrument(ins)
}

func (e *Engine) buildInstrument(ins orders.Instrument) *instrument {
	inst := newInstrument(ins, e.config.MarketData, e.config.Subscription, e.mdNotifier, e.config.Log, e.logger)
	inst.bus.Subscribe(clientListener{engine: e, instrument: ins})
	return inst
}

func (e *Engine) nextID() uint64 {
	return atomic.AddUint64(&e.nextOrderID, 1)
}

func (e *Engine) lookup(symbol string) (*instrument, error) {
	inst, ok := e.instruments[symbol]
	if !ok {
		return nil, fmt.Errorf("unknown instrument: %s", symbol)
	}
	return inst, nil
}

// clientListener forwards every client-addressed event from one
// instrument's bus to the engine's configured ClientNotifier.
type clientListener struct {
	engine     *Engine
	instrument orders.Instrument
}

func (l clientListener) Emit(e events.Event) {
	if !e.IsClientNotification() {
		return
	}
	if l.engine.notifier != nil {
		l.engine.notifier.Notify(l.instrument, e)
	}
	if l.engine.metrics == nil {
		return
	}
	switch e.Kind {
	case events.KindPlacementConfirmed:
		l.engine.metrics.OrdersAccepted.WithLabelValues(l.instrument.Symbol).Inc()
	case events.KindPlacementRejected:
		l.engine.metrics.OrdersRejected.WithLabelValues(l.instrument.Symbol, e.Reason).Inc()
	case events.KindTrade:
		l.engine.metrics.Fills.WithLabelValues(l.instrument.Symbol).Inc()
	}
}

// RejectUnclassifiable notifies the client of a protocol-level request
// that could not be classified into any of the engine's known request
// kinds (malformed envelope, unrecognized message type) — there is no
// instrument to scope the reject to, so it bypasses the per-instrument
// event bus and goes straight to the notifier.
func (e *Engine) RejectUnclassifiable(reason string) {
	if e.notifier == nil {
		return
	}
	e.notifier.Notify(orders.Instrument{}, replies.BusinessMessageReject(reason))
}

// PlaceOrder interprets, validates, and places a new order, gated by the
// instrument's current trading phase.
func (e *Engine) PlaceOrder(req requests.PlacementRequest, now time.Time) error {
	inst, err := e.lookup(req.Instrument.Symbol)
	if err != nil {
		return err
	}
	if err := inst.phase.Gate(phase.Placement); err != nil {
		return err
	}

	interpreted, err := requests.InterpretPlacement(req)
	if err != nil {
		e.rejectPlacement(inst, req, err.Error())
		return nil
	}
	if interpreted.Type == orders.Limit {
		if err := e.config.Validation.CheckPriceTick(interpreted.Price); err != nil {
			e.rejectPlacement(inst, req, err.Error())
			return nil
		}
	}
	if err := e.config.Validation.CheckQuantity(interpreted.Quantity); err != nil {
		e.rejectPlacement(inst, req, err.Error())
		return nil
	}
	if interpreted.TIF == orders.GoodTillDate {
		if err := validation.ExpireConsistency(now, req.ExpireTime, req.ExpireDate); err != nil {
			e.rejectPlacement(inst, req, err.Error())
			return nil
		}
	}

	id := e.nextID()
	var order *orders.Order
	if interpreted.Type == orders.Market {
		order = orders.NewMarket(id, interpreted.Side, interpreted.Quantity, req.Instrument, req.Session, now)
	} else {
		order = orders.NewLimit(id, interpreted.Side, interpreted.Price, interpreted.Quantity, interpreted.TIF, req.Instrument, req.Session, now)
	}
	order.ClientOrderID = req.ClientOrderID
	order.ShortSaleExemptReason = req.ShortSaleExemptReason
	order.ExpireTime = req.ExpireTime
	order.ExpireDate = req.ExpireDate
	order.Parties = req.Parties

	if interpreted.Type == orders.Market {
		inst.placement.Market(order, now)
	} else {
		inst.placement.Limit(order, now)
	}
	return nil
}

func (e *Engine) rejectPlacement(inst *instrument, req requests.PlacementRequest, reason string) {
	id := e.nextID()
	seed := e.nextID()
	dummy := &orders.Order{ID: id, ClientOrderID: req.ClientOrderID, Instrument: req.Instrument, Session: req.Session}
	reject := eventReject(dummy, reason)
	reject.ExecutionID = orders.AuxExecutionID(seed)
	inst.bus.Emit(reject)
}

// eventReject builds a minimal placement-reject event for a request that
// failed interpretation or validation before a full order was
// constructed; the order carries only the request's identifying fields.
func eventReject(order *orders.Order, reason string) events.Event {
	return events.Event{Kind: events.KindPlacementRejected, Order: order, Reason: reason}
}

// AmendOrder interprets, validates, and re-matches an amended order.
func (e *Engine) AmendOrder(req requests.ModificationRequest, now time.Time) error {
	inst, err := e.lookup(req.Instrument.Symbol)
	if err != nil {
		return err
	}
	if err := inst.phase.Gate(phase.Modification); err != nil {
		return err
	}

	interpreted, err := requests.InterpretModification(req)
	if err != nil {
		inst.bus.Emit(eventModReject(err.Error()))
		return nil
	}
	if err := e.config.Validation.CheckPriceTick(interpreted.Price); err != nil {
		inst.bus.Emit(eventModReject(err.Error()))
		return nil
	}
	if err := e.config.Validation.CheckQuantity(interpreted.Quantity); err != nil {
		inst.bus.Emit(eventModReject(err.Error()))
		return nil
	}

	orderID, err := requests.InterpretOrderID(req.VenueOrderID)
	if err != nil {
		inst.bus.Emit(eventModReject(err.Error()))
		return nil
	}

	key := actions.LookupKey{OrderID: orderID, OrigClientOrderID: req.OrigClientOrderID, ClientOrderID: req.ClientOrderID, Session: req.Session}
	inst.amendment.Amend(interpreted.Side, key, interpreted.Price, interpreted.Quantity, interpreted.TIF, req.OrigClientOrderID, now)
	return nil
}

func eventModReject(reason string) events.Event {
	return events.Event{Kind: events.KindModificationRejected, Reason: reason}
}

// CancelOrder interprets and applies a cancellation request.
func (e *Engine) CancelOrder(req requests.CancellationRequest) error {
	inst, err := e.lookup(req.Instrument.Symbol)
	if err != nil {
		return err
	}
	if err := inst.phase.Gate(phase.Cancellation); err != nil {
		inst.bus.Emit(events.Event{Kind: events.KindCancellationRejected, Reason: err.Error()})
		return nil
	}

	side, orderID, err := requests.InterpretCancellation(req)
	if err != nil {
		inst.bus.Emit(events.Event{Kind: events.KindCancellationRejected, Reason: err.Error()})
		return nil
	}

	key := actions.LookupKey{OrderID: orderID, OrigClientOrderID: req.OrigClientOrderID, ClientOrderID: req.ClientOrderID, Session: req.Session}
	inst.cancellation.Cancel(side, key, req.ClientOrderID, req.OrigClientOrderID)
	return nil
}

// TransitionPhase applies a phase/status transition to one instrument,
// running the closed-phase elimination sweep when the new phase is
// Closed.
func (e *Engine) TransitionPhase(symbol string, newPhase phase.TradingPhase, status phase.TradingStatus, settings phase.Settings, now time.Time) error {
	inst, err := e.lookup(symbol)
	if err != nil {
		return err
	}
	inst.phase.Transition(newPhase, status, settings)
	if newPhase == phase.Closed {
		actions.NewClosedPhaseElimination(inst.bus, now).Run(inst.book)
	}
	return nil
}

// RunSystemElimination sweeps every instrument's book for expired Day
// and GoodTillDate orders.
func (e *Engine) RunSystemElimination(now time.Time, isNewDay bool) {
	for _, inst := range e.instruments {
		actions.NewSystemElimination(inst.bus, now, isNewDay).Run(inst.book)
	}
}

// OnDisconnect cancels every Day order resting under the disconnected
// session, across every instrument, and drops its market-data
// subscriptions.
func (e *Engine) OnDisconnect(s session.Session) {
	for _, inst := range e.instruments {
		actions.NewOnDisconnectElimination(inst.bus, s).Run(inst.book)
		inst.subs.UnsubscribeSession(s)
	}
}

// RequestSecurityStatus serves a SecurityStatusRequest by publishing the
// instrument's current trading phase/status as a SecurityStatus client
// notification; unlike every other request kind, this one is never
// gated by the instrument's trading phase.
func (e *Engine) RequestSecurityStatus(req requests.SecurityStatusRequest) error {
	inst, err := e.lookup(req.Instrument.Symbol)
	if err != nil {
		return err
	}
	inst.bus.Emit(replies.SecurityStatus(inst.phase.Phase, inst.phase.Status))
	return nil
}

// ProcessMarketDataRequest dispatches a subscribe/unsubscribe/snapshot
// request to the instrument's subscription manager.
func (e *Engine) ProcessMarketDataRequest(req subscriptions.Request) error {
	if len(req.Instruments) != 1 {
		return fmt.Errorf("invalid number of instruments in the request")
	}
	inst, err := e.lookup(req.Instruments[0].Symbol)
	if err != nil {
		return err
	}
	inst.subs.Process(req)
	return nil
}

// Publish runs one publish cycle for every instrument: fold pending
// book-state notifications into the market-data cache, then send every
// active subscription its incremental update.
func (e *Engine) Publish() {
	for _, inst := range e.instruments {
		if inst.marketData.WasUpdated() {
			inst.marketData.ApplyPending()
		}
		inst.subs.Publish()
	}
}

// StoreState snapshots one instrument's book and market-data cache for
// persistence.
func (e *Engine) StoreState(symbol string) (state.Snapshot, error) {
	inst, err := e.lookup(symbol)
	if err != nil {
		return state.Snapshot{}, err
	}
	return state.Store(inst.book, inst.marketData), nil
}

// RecoverState rebuilds one instrument from a persisted snapshot,
// replacing whatever instrument was previously registered under this
// symbol.
func (e *Engine) RecoverState(ins orders.Instrument, snapshot state.Snapshot) error {
	newInst := e.buildInstrument(ins)
	book, err := state.Recover(snapshot, newInst.marketData)
	if err != nil {
		return err
	}
	newInst.book = book
	newInst.marketData.ApplyPending()
	e.instruments[ins.Symbol] = newInst
	return nil
}
