package disruptor

import (
	"log"
	"time"

	"github.com/rishav/matching-core/internal/engine"
)

// PublishScheduler runs the engine's market-data publish cycle on a
// fixed cadence from its own goroutine, so that request processing and
// publish timing never contend for the same call stack.
//
// Design:
// - Async goroutine, ticking independently of request arrival
// - One Publish() call per tick folds every instrument's pending
//   book-state notifications into its market-data cache and flushes
//   subscriber updates
// - A zero interval disables the scheduler entirely (caller publishes
//   manually, e.g. in tests)
type PublishScheduler struct {
	engine       *engine.Engine
	interval     time.Duration
	shutdownCh   chan struct{}
	shutdownDone chan struct{}
}

// NewPublishScheduler creates a scheduler that calls eng.Publish() every
// intervalMs milliseconds. intervalMs <= 0 disables the scheduler.
func NewPublishScheduler(eng *engine.Engine, intervalMs int) *PublishScheduler {
	return &PublishScheduler{
		engine:       eng,
		interval:     time.Duration(intervalMs) * time.Millisecond,
		shutdownCh:   make(chan struct{}),
		shutdownDone: make(chan struct{}),
	}
}

// Start begins the publish loop. A no-op if the scheduler was created
// with a non-positive interval.
func (s *PublishScheduler) Start() {
	if s.interval <= 0 {
		close(s.shutdownDone)
		return
	}
	go s.loop()
}

func (s *PublishScheduler) loop() {
	defer close(s.shutdownDone)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.engine.Publish()
		case <-s.shutdownCh:
			return
		}
	}
}

// Shutdown stops the publish loop and waits for it to exit.
func (s *PublishScheduler) Shutdown() {
	log.Println("Shutting down publish scheduler...")
	close(s.shutdownCh)
	<-s.shutdownDone
	log.Println("Publish scheduler shutdown complete")
}
