package tracking

import (
	"testing"
	"time"
)

func TestHistoryScanValue(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	h := History{{Status: "parcel_created", Details: "created", Timestamp: at}}

	v, err := h.Value()
	if err != nil {
		t.Fatalf("Value returned error: %v", err)
	}

	var got History
	if err := got.Scan([]byte(v.(string))); err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if len(got) != 1 || got[0].Status != "parcel_created" || !got[0].Timestamp.Equal(at) {
		t.Errorf("unexpected history after scan: %+v", got)
	}
}

func TestHistoryScanNil(t *testing.T) {
	h := History{{Status: "x"}}
	if err := h.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) returned error: %v", err)
	}
	if h != nil {
		t.Errorf("expected nil history, got %+v", h)
	}
}

func TestHistoryScanRejectsUnknownType(t *testing.T) {
	var h History
	if err := h.Scan(42); err == nil {
		t.Error("expected error for int input")
	}
}

func TestHistoryLatest(t *testing.T) {
	var empty History
	if _, ok := empty.Latest(); ok {
		t.Error("expected no latest event for empty history")
	}

	h := History{{Status: "parcel_created"}, {Status: "rider_assigned"}}
	e, ok := h.Latest()
	if !ok || e.Status != "rider_assigned" {
		t.Errorf("Latest = %+v, %v", e, ok)
	}
}
