package rider

import (
	"time"

	"proshift/constants"
	riderModel "proshift/models/rider"
)

// ApplyRequest represents a rider application
type ApplyRequest struct {
	Name             string `json:"name" validate:"required,min=1,max=255"`
	Email            string `json:"email" validate:"omitempty,email"`
	Age              int    `json:"age" validate:"required,gte=18,lte=70"`
	Phone            string `json:"phone" validate:"required,max=30"`
	NID              string `json:"nid" validate:"required,max=50"`
	Region           string `json:"region" validate:"required,max=100"`
	District         string `json:"district" validate:"required,max=100"`
	BikeBrand        string `json:"bike_brand" validate:"required,max=100"`
	BikeRegistration string `json:"bike_registration" validate:"required,max=100"`
	AdditionalInfo   string `json:"additional_info"`
}

// ToModel builds a pending application
func (r ApplyRequest) ToModel(createdAt time.Time) riderModel.Rider {
	return riderModel.Rider{
		Name:             r.Name,
		Email:            r.Email,
		Age:              r.Age,
		Phone:            r.Phone,
		NID:              r.NID,
		Region:           r.Region,
		District:         r.District,
		BikeBrand:        r.BikeBrand,
		BikeRegistration: r.BikeRegistration,
		AdditionalInfo:   r.AdditionalInfo,
		Status:           constants.RiderPending,
		CreatedAt:        createdAt,
	}
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=Active Inactive Rejected"`
	Email  string `json:"email" validate:"omitempty,email"`
}

// Earnings is the rider dashboard summary
type Earnings struct {
	TotalEarning   float64 `json:"total_earning"`
	TodayEarning   float64 `json:"today_earning"`
	CashedOut      float64 `json:"cashed_out"`
	PendingCashout float64 `json:"pending_cashout"`
	DeliveredCount int     `json:"delivered_count"`
}

// DayCount is one bucket of the weekly delivery report
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}
