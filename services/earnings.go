package services

import (
	"math"
	"time"

	"github.com/jinzhu/now"

	"proshift/constants"
	"proshift/models/parcel"
	riderTypes "proshift/types/rider"
)

const (
	sameCenterShare  = 0.8
	crossCenterShare = 0.4
	weeklyDays       = 7
	dayLayout        = "2006-01-02"
)

// ParcelEarning is the rider's cut of a parcel, rounded to the nearest whole unit
func ParcelEarning(p parcel.Parcel) float64 {
	share := crossCenterShare
	if p.SameCenter() {
		share = sameCenterShare
	}
	return math.Round(p.TotalCost * share)
}

// SummarizeEarnings totals the delivered parcels of one rider. "Today" is
// the calendar day of at in at's location.
func SummarizeEarnings(parcels []parcel.Parcel, at time.Time) riderTypes.Earnings {
	day := now.With(at)
	start, end := day.BeginningOfDay(), day.EndOfDay()

	var out riderTypes.Earnings
	for _, p := range parcels {
		if p.DeliveryStatus != constants.DeliveryDelivered {
			continue
		}
		earning := ParcelEarning(p)
		out.DeliveredCount++
		out.TotalEarning += earning

		if p.DeliveredAt != nil && !p.DeliveredAt.Before(start) && !p.DeliveredAt.After(end) {
			out.TodayEarning += earning
		}

		switch p.CashoutStatus {
		case constants.CashoutCashedOut:
			out.CashedOut += earning
		case constants.CashoutPending:
			out.PendingCashout += earning
		}
	}
	return out
}

// WeeklyDeliveries buckets deliveries into the 7 calendar days ending on
// at's day, oldest first. Parcels delivered outside the window are ignored.
func WeeklyDeliveries(parcels []parcel.Parcel, at time.Time) []riderTypes.DayCount {
	today := now.With(at).BeginningOfDay()
	loc := at.Location()

	out := make([]riderTypes.DayCount, weeklyDays)
	index := make(map[string]int, weeklyDays)
	for i := 0; i < weeklyDays; i++ {
		d := today.AddDate(0, 0, i-(weeklyDays-1)).Format(dayLayout)
		out[i] = riderTypes.DayCount{Date: d}
		index[d] = i
	}

	for _, p := range parcels {
		if p.DeliveryStatus != constants.DeliveryDelivered || p.DeliveredAt == nil {
			continue
		}
		if i, ok := index[p.DeliveredAt.In(loc).Format(dayLayout)]; ok {
			out[i].Count++
		}
	}
	return out
}
