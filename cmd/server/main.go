// Package main provides the matching-core HTTP gateway.
//
// Architecture Overview:
//
//	┌─────────────┐     ┌─────────────┐     ┌─────────────┐
//	│   Client    │────▶│  Gateway    │────▶│  Sequencer  │
//	│  (HTTP)     │     │  (HTTP API) │     │ (Ring Buf)  │
//	└─────────────┘     └─────────────┘     └──────┬──────┘
//	                                               │
//	                                               ▼
//	┌─────────────┐     ┌─────────────┐     ┌─────────────┐
//	│  Subscribers│◀────│  Engine     │◀────│  Processor  │
//	│  (per book) │     │ (per symbol)│     │  (1 goroutine)
//	└─────────────┘     └──────┬──────┘     └─────────────┘
//	                           │
//	                           ▼
//	                    ┌─────────────┐
//	                    │  Event Log  │
//	                    └─────────────┘
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/rishav/matching-core/internal/disruptor"
	"github.com/rishav/matching-core/internal/engine"
	"github.com/rishav/matching-core/internal/engineconfig"
	"github.com/rishav/matching-core/internal/events"
	"github.com/rishav/matching-core/internal/marketdata"
	"github.com/rishav/matching-core/internal/orders"
	"github.com/rishav/matching-core/internal/requests"
	"github.com/rishav/matching-core/internal/session"
	"github.com/rishav/matching-core/internal/state"
	"github.com/rishav/matching-core/internal/subscriptions"
)

// Server wires an engine.Engine behind a single-threaded disruptor
// pipeline and exposes it over a small HTTP API.
//
//   - HTTP handlers (multi-threaded) submit to the ring buffer using
//     lock-free CAS operations
//   - A single event processor consumes the ring buffer and drives the
//     engine, preserving single-threaded determinism per instrument
type Server struct {
	engine   *engine.Engine
	eventLog *events.Log
	logger   *zap.Logger

	ringBuffer     *disruptor.RingBuffer
	sequencer      *disruptor.Sequencer
	eventProcessor *disruptor.EventProcessor

	pending map[string]chan events.Event // client-order-id -> waiter, guarded by pendMu
	pendMu  sync.Mutex

	httpServer *http.Server
}

func newServer(cfg *engineconfig.Config, symbols []string, eventLogPath string, port int, logger *zap.Logger) (*Server, error) {
	eventLog, err := events.OpenLog(eventLogPath)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}

	validation, err := cfg.Validation()
	if err != nil {
		return nil, fmt.Errorf("build validation config: %w", err)
	}

	reg := prometheus.NewRegistry()
	metrics := engine.NewMetrics(reg)

	srv := &Server{
		eventLog: eventLog,
		logger:   logger,
		pending:  make(map[string]chan events.Event),
	}

	eng := engine.New(engine.Config{
		Validation:   validation,
		Phase:        cfg.PhaseSettings(),
		MarketData:   cfg.MarketDataCache(),
		Subscription: subscriptions.Config{EnableTradesStreaming: cfg.EnableTradesStreaming},
		Log:          eventLog,
	}, clientNotifier{srv}, marketDataNotifier{srv}, metrics, logger)

	for _, symbol := range symbols {
		eng.AddInstrument(orders.Instrument{Symbol: symbol})
	}
	srv.engine = eng

	rb := disruptor.NewRingBuffer(disruptor.DefaultConfig())
	seq := disruptor.NewSequencer(rb)
	proc := disruptor.NewEventProcessor(rb, eng, 250, logger)

	srv.ringBuffer = rb
	srv.sequencer = seq
	srv.eventProcessor = proc

	mux := http.NewServeMux()
	mux.HandleFunc("/order", srv.handleOrder)
	mux.HandleFunc("/cancel", srv.handleCancel)
	mux.HandleFunc("/book", srv.handleBook)
	mux.HandleFunc("/health", srv.handleHealth)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return srv, nil
}

// clientNotifier routes order-lifecycle events back to whichever HTTP
// request is waiting on them, keyed by client order id.
type clientNotifier struct{ s *Server }

func (n clientNotifier) Notify(instrument orders.Instrument, e events.Event) {
	key := clientOrderKey(e)
	if key == "" {
		return
	}
	n.s.deliver(key, e)
}

// marketDataNotifier is a minimal subscriptions.Notifier that logs
// rejects and snapshots — this gateway does not yet expose a streaming
// transport, only request/response HTTP.
type marketDataNotifier struct{ s *Server }

func (n marketDataNotifier) Snapshot(s session.Session, requestID string, instrument orders.Instrument, entries []marketdata.Entry) {
	n.s.logger.Info("market data snapshot", zap.String("session", s.String()), zap.String("requestId", requestID), zap.Int("entries", len(entries)))
}

func (n marketDataNotifier) Update(s session.Session, requestID string, instrument orders.Instrument, entries []marketdata.Entry) {
	n.s.logger.Debug("market data update", zap.String("session", s.String()), zap.Int("entries", len(entries)))
}

func (n marketDataNotifier) Reject(s session.Session, requestID string, reason string) {
	n.s.logger.Warn("market data request rejected", zap.String("session", s.String()), zap.String("reason", reason))
}

func clientOrderKey(e events.Event) string {
	if e.ClientOrderID != nil {
		return *e.ClientOrderID
	}
	if e.Order != nil && e.Order.ClientOrderID != nil {
		return *e.Order.ClientOrderID
	}
	return ""
}

func (s *Server) deliver(key string, e events.Event) {
	s.pendMu.Lock()
	ch, ok := s.pending[key]
	s.pendMu.Unlock()
	if !ok {
		return
	}
	select {
	case ch <- e:
	default:
	}
}

func (s *Server) await(key string) chan events.Event {
	ch := make(chan events.Event, 1)
	s.pendMu.Lock()
	s.pending[key] = ch
	s.pendMu.Unlock()
	return ch
}

func (s *Server) forget(key string) {
	s.pendMu.Lock()
	delete(s.pending, key)
	s.pendMu.Unlock()
}

// Start runs the event processor and blocks serving HTTP until shutdown.
func (s *Server) Start() error {
	s.logger.Info("starting matching-core gateway", zap.String("addr", s.httpServer.Addr))
	s.eventProcessor.Start()
	return s.httpServer.ListenAndServe()
}

// Shutdown stops the HTTP server, stops the event processor (requests
// still waiting in the ring buffer are not processed), and closes the
// event log.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down gateway")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	s.eventProcessor.Shutdown()
	return s.eventLog.Close()
}

// orderRequestBody is the wire shape of a new-order submission.
type orderRequestBody struct {
	Symbol        string `json:"symbol"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	TimeInForce   string `json:"time_in_force"`
	Price         string `json:"price,omitempty"`
	Quantity      int64  `json:"quantity"`
	ClientOrderID string `json:"client_order_id"`
}

type orderResponseBody struct {
	Success      bool   `json:"success"`
	ClientID     string `json:"client_order_id,omitempty"`
	Status       string `json:"status,omitempty"`
	RejectReason string `json:"reject_reason,omitempty"`
	Error        string `json:"error,omitempty"`
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body orderRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, orderResponseBody{Error: fmt.Sprintf("invalid request: %v", err)})
		return
	}
	if body.ClientOrderID == "" {
		writeJSON(w, http.StatusBadRequest, orderResponseBody{Error: "client_order_id required"})
		return
	}

	placement := requests.PlacementRequest{
		Session:       session.NewGenerator(),
		Instrument:    orders.Instrument{Symbol: body.Symbol},
		ClientOrderID: &body.ClientOrderID,
		OrderType:     &body.Type,
		Side:          &body.Side,
		TimeInForce:   &body.TimeInForce,
		Quantity:      &body.Quantity,
	}
	if body.Price != "" {
		p, err := decimal.NewFromString(body.Price)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, orderResponseBody{Error: fmt.Sprintf("invalid price: %v", err)})
			return
		}
		placement.Price = &p
	}

	waiter := s.await(body.ClientOrderID)
	defer s.forget(body.ClientOrderID)

	responseCh := make(chan *disruptor.OrderResponse, 1)
	seq, err := s.sequencer.Next()
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, orderResponseBody{Error: "server busy, please retry"})
		return
	}
	s.sequencer.Publish(seq, &disruptor.OrderRequest{
		Type:      disruptor.RequestTypePlacement,
		Now:       time.Now().In(s.engineLocation()),
		Placement: placement,
	}, responseCh)

	select {
	case resp := <-responseCh:
		if resp.Error != nil {
			writeJSON(w, http.StatusBadRequest, orderResponseBody{Error: resp.Error.Error()})
			return
		}
	case <-time.After(5 * time.Second):
		writeJSON(w, http.StatusGatewayTimeout, orderResponseBody{Error: "processing timeout"})
		return
	}

	select {
	case e := <-waiter:
		writeJSON(w, http.StatusOK, orderResponseBody{
			Success:      e.Kind == events.KindPlacementConfirmed,
			ClientID:     body.ClientOrderID,
			Status:       e.Kind.String(),
			RejectReason: e.Reason,
		})
	case <-time.After(5 * time.Second):
		writeJSON(w, http.StatusGatewayTimeout, orderResponseBody{Error: "no confirmation received"})
	}
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	symbol := r.URL.Query().Get("symbol")
	clientOrderID := r.URL.Query().Get("client_order_id")
	if symbol == "" || clientOrderID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "symbol and client_order_id required"})
		return
	}

	waiter := s.await(clientOrderID)
	defer s.forget(clientOrderID)

	responseCh := make(chan *disruptor.OrderResponse, 1)
	seq, err := s.sequencer.Next()
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "server busy, please retry"})
		return
	}
	s.sequencer.Publish(seq, &disruptor.OrderRequest{
		Type: disruptor.RequestTypeCancellation,
		Cancellation: requests.CancellationRequest{
			Session:       session.NewGenerator(),
			Instrument:    orders.Instrument{Symbol: symbol},
			ClientOrderID: &clientOrderID,
		},
	}, responseCh)

	select {
	case resp := <-responseCh:
		if resp.Error != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": resp.Error.Error()})
			return
		}
	case <-time.After(5 * time.Second):
		writeJSON(w, http.StatusGatewayTimeout, map[string]string{"error": "processing timeout"})
		return
	}

	select {
	case e := <-waiter:
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": e.Kind == events.KindCancellationConfirmed,
			"status":  e.Kind.String(),
			"reason":  e.Reason,
		})
	case <-time.After(5 * time.Second):
		writeJSON(w, http.StatusGatewayTimeout, map[string]string{"error": "no confirmation received"})
	}
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "symbol required"})
		return
	}

	snapshot, err := s.engine.StoreState(symbol)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}

	levels := 10
	if l := r.URL.Query().Get("levels"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			levels = parsed
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": symbol,
		"bids":   levelRows(snapshot.Book.Buy, levels),
		"asks":   levelRows(snapshot.Book.Sell, levels),
	})
}

// levelRows aggregates resting orders (best price first, as stored in a
// state.BookSnapshot) into one row per distinct price, up to limit levels.
func levelRows(rows []state.OrderSnapshot, limit int) []map[string]interface{} {
	var order []string
	byPrice := map[string]int64{}
	for _, o := range rows {
		key := o.Price.String()
		if _, seen := byPrice[key]; !seen {
			order = append(order, key)
		}
		byPrice[key] += o.Quantity - o.Executed
	}
	out := make([]map[string]interface{}, 0, len(order))
	for i, price := range order {
		if i >= limit {
			break
		}
		out = append(out, map[string]interface{}{"price": price, "quantity": byPrice[price]})
	}
	return out
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) engineLocation() *time.Location {
	return time.UTC
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func main() {
	flags := pflag.NewFlagSet("matching-core-server", pflag.ExitOnError)
	port := flags.Int("port", 8080, "HTTP port")
	eventLogPath := flags.String("event-log", "events.log", "path to the event log file")
	configPath := flags.String("config", "", "optional config file (yaml/json/toml)")
	symbolsFlag := flags.StringSlice("symbols", []string{"AAPL", "GOOGL", "MSFT"}, "tradable instrument symbols")
	flags.Parse(os.Args[1:])

	cfg, err := engineconfig.Load(flags, *configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := engine.NewLogger(false)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer logger.Sync()

	srv, err := newServer(cfg, *symbolsFlag, *eventLogPath, *port, logger)
	if err != nil {
		log.Fatalf("create server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", zap.Error(err))
		}
	}()

	if err := srv.Start(); err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}

	logger.Info("server stopped")
}
