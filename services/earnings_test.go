package services

import (
	"testing"
	"time"

	"proshift/constants"
	"proshift/models/parcel"
)

func delivered(cost float64, senderCenter, receiverCenter string, at time.Time, cashout string) parcel.Parcel {
	return parcel.Parcel{
		TotalCost:      cost,
		SenderCenter:   senderCenter,
		ReceiverCenter: receiverCenter,
		DeliveryStatus: constants.DeliveryDelivered,
		CashoutStatus:  cashout,
		DeliveredAt:    &at,
	}
}

func TestParcelEarning(t *testing.T) {
	tests := []struct {
		name string
		p    parcel.Parcel
		want float64
	}{
		{"same center", parcel.Parcel{TotalCost: 100, SenderCenter: "Dhaka", ReceiverCenter: "Dhaka"}, 80},
		{"different center", parcel.Parcel{TotalCost: 100, SenderCenter: "Dhaka", ReceiverCenter: "Khulna"}, 40},
		{"center match ignores case", parcel.Parcel{TotalCost: 100, SenderCenter: "dhaka ", ReceiverCenter: "Dhaka"}, 80},
		{"rounds fractional share down", parcel.Parcel{TotalCost: 56, SenderCenter: "A", ReceiverCenter: "B"}, 22},
		{"rounds to nearest", parcel.Parcel{TotalCost: 151, SenderCenter: "A", ReceiverCenter: "A"}, 121},
		{"zero cost", parcel.Parcel{SenderCenter: "A", ReceiverCenter: "A"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParcelEarning(tt.p); got != tt.want {
				t.Errorf("ParcelEarning() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSummarizeEarnings(t *testing.T) {
	at := time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC)
	parcels := []parcel.Parcel{
		// 80, delivered today
		delivered(100, "A", "A", at.Add(-2*time.Hour), constants.CashoutNone),
		delivered(100, "A", "B", at.AddDate(0, 0, -1), constants.CashoutCashedOut),
		delivered(200, "A", "A", at.AddDate(0, 0, -3), constants.CashoutPending),
		// not delivered yet
		{TotalCost: 500, DeliveryStatus: constants.DeliveryInTransit, SenderCenter: "A"},
	}

	got := SummarizeEarnings(parcels, at)
	if got.TotalEarning != 280 {
		t.Errorf("TotalEarning = %v, want 280", got.TotalEarning)
	}
	if got.TodayEarning != 80 {
		t.Errorf("TodayEarning = %v, want 80", got.TodayEarning)
	}
	if got.CashedOut != 40 {
		t.Errorf("CashedOut = %v, want 40", got.CashedOut)
	}
	if got.PendingCashout != 160 {
		t.Errorf("PendingCashout = %v, want 160", got.PendingCashout)
	}
	if got.DeliveredCount != 3 {
		t.Errorf("DeliveredCount = %v, want 3", got.DeliveredCount)
	}
}

func TestWeeklyDeliveries(t *testing.T) {
	at := time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC)
	windowStart := time.Date(2025, 6, 4, 9, 0, 0, 0, time.UTC)

	parcels := []parcel.Parcel{
		delivered(100, "A", "A", windowStart, constants.CashoutNone),
		delivered(100, "A", "A", windowStart.AddDate(0, 0, 3), constants.CashoutNone),
		// one day before the window
		delivered(100, "A", "A", windowStart.AddDate(0, 0, -1), constants.CashoutNone),
		{DeliveryStatus: constants.DeliveryInTransit},
	}

	got := WeeklyDeliveries(parcels, at)
	want := []int{1, 0, 0, 1, 0, 0, 0}
	if len(got) != len(want) {
		t.Fatalf("expected %d buckets, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].Count != w {
			t.Errorf("bucket %d (%s) = %d, want %d", i, got[i].Date, got[i].Count, w)
		}
	}
	if got[0].Date != "2025-06-04" || got[6].Date != "2025-06-10" {
		t.Errorf("unexpected window %s..%s", got[0].Date, got[6].Date)
	}
}

func TestWeeklyDeliveriesUsesCallerLocation(t *testing.T) {
	loc := time.FixedZone("UTC+6", 6*60*60)
	at := time.Date(2025, 6, 10, 8, 0, 0, 0, loc)
	// 20:00 UTC on the 9th is 02:00 on the 10th in UTC+6
	d := time.Date(2025, 6, 9, 20, 0, 0, 0, time.UTC)

	got := WeeklyDeliveries([]parcel.Parcel{delivered(10, "A", "A", d, "")}, at)
	if got[6].Count != 1 {
		t.Errorf("expected delivery on the last day, got %+v", got)
	}
}
