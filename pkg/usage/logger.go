package usage

import (
	"context"
	"log"
	"time"

	"github.com/sahayak-ai/sahayak/pkg/models"
)

// LoggerConfig controls batching behavior.
type LoggerConfig struct {
	BatchSize     int           // flush after this many entries
	FlushInterval time.Duration // flush on this timer regardless of size
	MaxBacklog    int           // unflushed entries kept across failed flushes
	ChannelBuffer int
}

// DefaultLoggerConfig returns the standard batching parameters.
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		BatchSize:     10,
		FlushInterval: 30 * time.Second,
		MaxBacklog:    50,
		ChannelBuffer: 256,
	}
}

// Logger batches usage entries and flushes them to a Store asynchronously.
// It is best-effort: a full queue or a failing store drops entries rather
// than ever slowing down or failing request processing.
type Logger struct {
	store  Store
	cfg    LoggerConfig
	ch     chan models.UsageEntry
	done   chan struct{}
	closed chan struct{}
}

// NewLogger creates a Logger and starts its flusher goroutine.
func NewLogger(store Store, cfg LoggerConfig) *Logger {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 30 * time.Second
	}
	if cfg.MaxBacklog <= 0 {
		cfg.MaxBacklog = 50
	}
	if cfg.ChannelBuffer <= 0 {
		cfg.ChannelBuffer = 256
	}
	l := &Logger{
		store:  store,
		cfg:    cfg,
		ch:     make(chan models.UsageEntry, cfg.ChannelBuffer),
		done:   make(chan struct{}),
		closed: make(chan struct{}),
	}
	go l.flusher()
	return l
}

// LogSuccess records a successful attempt.
func (l *Logger) LogSuccess(entry models.UsageEntry) {
	entry.Success = true
	l.enqueue(entry)
}

// LogFailure records a failed attempt.
func (l *Logger) LogFailure(entry models.UsageEntry) {
	entry.Success = false
	l.enqueue(entry)
}

func (l *Logger) enqueue(entry models.UsageEntry) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	select {
	case l.ch <- entry:
	default:
		// Queue full. Dropping beats blocking a request on bookkeeping.
	}
}

// Close flushes pending entries and stops the flusher.
func (l *Logger) Close() {
	close(l.done)
	<-l.closed
}

func (l *Logger) flusher() {
	defer close(l.closed)

	ticker := time.NewTicker(l.cfg.FlushInterval)
	defer ticker.Stop()

	var pending []models.UsageEntry
	dropReported := false

	flush := func() {
		if len(pending) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := l.store.WriteBatch(ctx, pending)
		cancel()
		if err == nil {
			pending = pending[:0]
			dropReported = false
			return
		}
		// Keep entries for retry, bounded so a dead store cannot grow
		// memory without limit. Oldest entries go first.
		if len(pending) > l.cfg.MaxBacklog {
			dropped := len(pending) - l.cfg.MaxBacklog
			pending = append(pending[:0], pending[dropped:]...)
			if !dropReported {
				log.Printf("usage log backlog full, dropped %d oldest entries: %v", dropped, err)
				dropReported = true
			}
		}
	}

	for {
		select {
		case entry := <-l.ch:
			pending = append(pending, entry)
			if len(pending) >= l.cfg.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-l.done:
			// Drain whatever is queued, then final flush.
			for {
				select {
				case entry := <-l.ch:
					pending = append(pending, entry)
				default:
					flush()
					return
				}
			}
		}
	}
}
