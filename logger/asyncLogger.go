package logger

import (
	"context"
	"sync"
	"time"

	"proshift/types"
)

// LogSink persists request/response log entries
type LogSink interface {
	InsertAPILog(ctx context.Context, entry types.LogEntry) error
}

// AsyncLogger queues API log entries and writes them from a single goroutine
// so handlers never wait on the database.
type AsyncLogger struct {
	sink    LogSink
	channel chan types.LogEntry
	done    chan struct{}
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
}

func NewAsyncLogger(sink LogSink) *AsyncLogger {
	return &AsyncLogger{
		sink:    sink,
		channel: make(chan types.LogEntry, 100), // Buffered channel to hold log entries
		done:    make(chan struct{}),
	}
}

// ProcessLog drains the channel until Close is called
func (l *AsyncLogger) ProcessLog() {
	defer close(l.done)
	Debug("Starting asynchronous logger...")

	for entry := range l.channel {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := l.sink.InsertAPILog(ctx, entry); err != nil {
			Error("Failed to insert log entry "+entry.Method+" "+entry.URL, err)
		}
		cancel()
	}
}

// Log pushes a log entry into the channel. Entries are dropped when the
// buffer is full or the logger is closed.
func (l *AsyncLogger) Log(entry types.LogEntry) {
	if l == nil {
		return
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return
	}

	select {
	case l.channel <- entry:
	default:
		Warning("Log buffer full, dropping entry for " + entry.URL)
	}
}

// Close stops accepting entries and waits for the queue to drain
func (l *AsyncLogger) Close(ctx context.Context) error {
	l.once.Do(func() {
		l.mu.Lock()
		l.closed = true
		close(l.channel)
		l.mu.Unlock()
	})

	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
