package events

import (
	"bufio"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
)

// Listener is the engine's sink for notifications emitted while handling a
// request — the Go analogue of the original's EventListener abstraction.
// Actions call Emit; a Listener routes client notifications to the session
// gateway and book-state notifications to the market-data cache.
type Listener interface {
	Emit(Event)
}

// Bus is the in-process dispatcher: it assigns each event a monotonically
// increasing sequence number, optionally persists it to an append-only log
// for crash recovery, and fans it out to every subscriber.
type Bus struct {
	mu          sync.Mutex
	sequenceNum uint64
	subscribers []Listener
	log         *Log
	logger      *zap.Logger
}

// NewBus creates a Bus. log may be nil to disable durability (tests).
func NewBus(log *Log, logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{log: log, logger: logger}
}

// Subscribe registers a Listener to receive every emitted event.
func (b *Bus) Subscribe(l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, l)
}

// Emit assigns a sequence number, persists, and fans the event out.
func (b *Bus) Emit(e Event) {
	b.mu.Lock()
	b.sequenceNum++
	e.Sequence = b.sequenceNum
	subs := append([]Listener(nil), b.subscribers...)
	log := b.log
	b.mu.Unlock()

	if log != nil {
		if err := log.Append(e); err != nil {
			b.logger.Error("failed to persist event", zap.Uint64("sequence", e.Sequence), zap.Error(err))
		}
	}
	for _, s := range subs {
		s.Emit(e)
	}
}

// LastSequence returns the last assigned sequence number.
func (b *Bus) LastSequence() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sequenceNum
}

// Log is an append-only, gob-encoded event log used to recover engine state
// after a restart.
type Log struct {
	file    *os.File
	writer  *bufio.Writer
	encoder *gob.Encoder
	mu      sync.Mutex
	path    string
}

// OpenLog opens (creating if necessary) the event log at path.
func OpenLog(path string) (*Log, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	writer := bufio.NewWriter(file)
	return &Log{file: file, writer: writer, encoder: gob.NewEncoder(writer), path: path}, nil
}

// Append writes one event to the log and flushes it.
func (l *Log) Append(e Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.encoder.Encode(e); err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return l.writer.Flush()
}

// Replay reads every event from the log in order, calling handler for each.
func (l *Log) Replay(handler func(Event) error) error {
	file, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open event log for replay: %w", err)
	}
	defer file.Close()

	decoder := gob.NewDecoder(file)
	for {
		var e Event
		if err := decoder.Decode(&e); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("decode event: %w", err)
		}
		if err := handler(e); err != nil {
			return fmt.Errorf("handler error at sequence %d: %w", e.Sequence, err)
		}
	}
	return nil
}

// Close flushes and closes the underlying file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.writer.Flush(); err != nil {
		return err
	}
	return l.file.Close()
}
