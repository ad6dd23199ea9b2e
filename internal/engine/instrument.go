package engine

import (
	"github.com/rishav/matching-core/internal/actions"
	"github.com/rishav/matching-core/internal/events"
	"github.com/rishav/matching-core/internal/marketdata/cache"
	"github.com/rishav/matching-core/internal/orderbook"
	"github.com/rishav/matching-core/internal/orders"
	"github.com/rishav/matching-core/internal/phase"
	"github.com/rishav/matching-core/internal/subscriptions"
	"go.uber.org/zap"
)

// instrument bundles every per-symbol component the engine orchestrates:
// the resting book, its event bus, its market-data cache, its trading
// phase, and its subscription manager.
type instrument struct {
	book         *orderbook.Book
	bus          *events.Bus
	marketData   *cache.Manager
	phase        *phase.State
	subs         *subscriptions.Manager
	placement    *actions.Placement
	amendment    *actions.Amendment
	cancellation *actions.Cancellation
}

func newInstrument(ins orders.Instrument, mdConfig cache.Config, subConfig subscriptions.Config, notifier subscriptions.Notifier, log *events.Log, logger *zap.Logger) *instrument {
	book := orderbook.New(ins)
	bus := events.NewBus(log, logger)
	md := cache.New(mdConfig)

	inst := &instrument{
		book:         book,
		bus:          bus,
		marketData:   md,
		phase:        phase.New(),
		placement:    actions.NewPlacement(book, bus, logger),
		amendment:    actions.NewAmendment(book, bus, logger),
		cancellation: actions.NewCancellation(book, bus, logger),
	}
	inst.subs = subscriptions.New(subConfig, md, notifier)
	bus.Subscribe(newMarketDataBridge(md))
	return inst
}
