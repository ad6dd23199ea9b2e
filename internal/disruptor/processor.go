package disruptor

import (
	"fmt"
	"log"
	"runtime"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/rishav/matching-core/internal/engine"
	"github.com/rishav/matching-core/internal/engine/fault"
)

// EventProcessor processes requests from the ring buffer in a single
// goroutine, driving one engine.Engine.
//
// Design:
// - Single goroutine for deterministic, sequential processing
// - Reads from ring buffer using spin-wait
// - Calls the matching engine (single-threaded, no locks needed)
// - Runs a periodic market-data publish cycle alongside request processing
// - Sends responses back to callers via channels
type EventProcessor struct {
	rb           *RingBuffer
	engine       *engine.Engine
	publisher    *PublishScheduler
	logger       *zap.Logger
	running      atomic.Bool
	shutdownCh   chan struct{}
	shutdownDone chan struct{}
}

// NewEventProcessor creates a new event processor. publishInterval is the
// cadence at which the engine's market-data publish cycle runs (0
// disables periodic publish). logger may be nil.
func NewEventProcessor(rb *RingBuffer, eng *engine.Engine, publishInterval int, logger *zap.Logger) *EventProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventProcessor{
		rb:           rb,
		engine:       eng,
		publisher:    NewPublishScheduler(eng, publishInterval),
		logger:       logger,
		shutdownCh:   make(chan struct{}),
		shutdownDone: make(chan struct{}),
	}
}

// Start begins processing requests from the ring buffer.
func (p *EventProcessor) Start() {
	p.running.Store(true)
	go p.processLoop()
	go p.publisher.Start()
}

// processLoop is the main event processing loop (single goroutine).
//
// This loop maintains determinism by processing orders sequentially
// in sequence number order. It never uses locks, relying on the
// single-threaded nature for correctness.
func (p *EventProcessor) processLoop() {
	defer close(p.shutdownDone)

	nextSequence := uint64(1) // Start at 1 (0 is initial state)

	for p.running.Load() {
		// Calculate slot index
		index := nextSequence & p.rb.indexMask
		slot := &p.rb.slots[index]

		// Spin-wait for publisher to finish writing
		// The slot is ready when its SequenceNum matches our expected sequence
		for {
			available := atomic.LoadUint64(&slot.SequenceNum)
			if available == nextSequence {
				break
			}

			// Check for shutdown signal
			select {
			case <-p.shutdownCh:
				return
			default:
				// Yield to other goroutines to avoid busy loop
				runtime.Gosched()
			}
		}

		// Process the request
		p.processRequest(slot)

		// Update gating sequence to allow this slot to be reused
		atomic.StoreUint64(&p.rb.gatingSequence, nextSequence)

		nextSequence++
	}
}

// processRequest processes a single request from the ring buffer.
func (p *EventProcessor) processRequest(slot *RingBufferSlot) {
	req := slot.Request
	responseCh := slot.ResponseCh

	// A LogicError panic means an internal invariant broke for this one
	// request; log it and reply with a failure instead of taking the
	// whole process down. Anything else is a genuine programmer error
	// outside that contract and is left to crash loudly.
	defer fault.Recover(func(le *fault.LogicError) {
		p.logger.Error("logic error recovered at request boundary", zap.Int("requestType", int(req.Type)), zap.Error(le))
		select {
		case responseCh <- &OrderResponse{Success: false, Error: le}:
		default:
		}
	})

	// Route based on request type
	var err error
	switch req.Type {
	case RequestTypePlacement:
		err = p.engine.PlaceOrder(req.Placement, req.Now)
	case RequestTypeModification:
		err = p.engine.AmendOrder(req.Modification, req.Now)
	case RequestTypeCancellation:
		err = p.engine.CancelOrder(req.Cancellation)
	case RequestTypeMarketData:
		err = p.engine.ProcessMarketDataRequest(req.MarketData)
	case RequestTypeSecurityStatus:
		err = p.engine.RequestSecurityStatus(req.SecurityStatus)
	default:
		err = fmt.Errorf("unknown request type: %d", req.Type)
		p.engine.RejectUnclassifiable(err.Error())
	}

	select {
	case responseCh <- &OrderResponse{Success: err == nil, Error: err}:
	default:
		// Caller timed out or channel closed, drop response
		log.Printf("Warning: failed to send response for request type %d", req.Type)
	}
}

// Shutdown gracefully shuts down the event processor.
//
// It stops accepting new requests and waits for the processing loop and
// publish scheduler to finish.
func (p *EventProcessor) Shutdown() {
	log.Println("Shutting down event processor...")

	p.running.Store(false)
	close(p.shutdownCh)

	<-p.shutdownDone
	p.publisher.Shutdown()

	log.Println("Event processor shutdown complete")
}
