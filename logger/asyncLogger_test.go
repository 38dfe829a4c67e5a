package logger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"proshift/types"
)

type recordingSink struct {
	mu      sync.Mutex
	entries []types.LogEntry
	err     error
}

func (s *recordingSink) InsertAPILog(_ context.Context, e types.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return s.err
}

func TestAsyncLoggerDrainsOnClose(t *testing.T) {
	sink := &recordingSink{}
	l := NewAsyncLogger(sink)
	go l.ProcessLog()

	for i := 0; i < 5; i++ {
		l.Log(types.LogEntry{Method: "GET", URL: "/parcels", StatusCode: 200})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := l.Close(ctx); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	if len(sink.entries) != 5 {
		t.Errorf("expected 5 entries persisted, got %d", len(sink.entries))
	}
}

func TestAsyncLoggerIgnoresAfterClose(t *testing.T) {
	sink := &recordingSink{err: errors.New("db down")}
	l := NewAsyncLogger(sink)
	go l.ProcessLog()

	if err := l.Close(context.Background()); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	// must not panic on a closed channel
	l.Log(types.LogEntry{Method: "POST", URL: "/users"})
	if err := l.Close(context.Background()); err != nil {
		t.Fatalf("second Close returned error: %v", err)
	}
}

func TestNilAsyncLoggerIsNoop(t *testing.T) {
	var l *AsyncLogger
	l.Log(types.LogEntry{URL: "/"})
}
