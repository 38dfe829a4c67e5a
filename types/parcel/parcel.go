package parcel

import (
	"strings"
	"time"

	parcelModel "proshift/models/parcel"
)

// CreateRequest represents the request payload for submitting a parcel
type CreateRequest struct {
	TrackingID string  `json:"trackingId" validate:"omitempty,max=64"`
	Title      string  `json:"title" validate:"required,min=1,max=255"`
	ParcelType string  `json:"type" validate:"required,oneof=document non-document"`
	Weight     float64 `json:"weight" validate:"gte=0"`
	TotalCost  float64 `json:"totalCost" validate:"gte=0"`

	SenderName          string `json:"sender_name" validate:"required,max=255"`
	SenderContact       string `json:"sender_contact" validate:"required,max=30"`
	SenderRegion        string `json:"sender_region" validate:"required,max=100"`
	SenderCenter        string `json:"sender_center" validate:"required,max=100"`
	SenderAddress       string `json:"sender_address" validate:"required"`
	PickupInstruction   string `json:"pickup_instruction"`
	ReceiverName        string `json:"receiver_name" validate:"required,max=255"`
	ReceiverContact     string `json:"receiver_contact" validate:"required,max=30"`
	ReceiverRegion      string `json:"receiver_region" validate:"required,max=100"`
	ReceiverCenter      string `json:"receiver_center" validate:"required,max=100"`
	ReceiverAddress     string `json:"receiver_address" validate:"required"`
	DeliveryInstruction string `json:"delivery_instruction"`
}

// ToModel builds the stored parcel. Status fields and ownership are set by the caller.
func (r CreateRequest) ToModel(createdAt time.Time) parcelModel.Parcel {
	return parcelModel.Parcel{
		TrackingID:          strings.TrimSpace(r.TrackingID),
		Title:               r.Title,
		ParcelType:          r.ParcelType,
		Weight:              r.Weight,
		TotalCost:           r.TotalCost,
		SenderName:          r.SenderName,
		SenderContact:       r.SenderContact,
		SenderRegion:        r.SenderRegion,
		SenderCenter:        r.SenderCenter,
		SenderAddress:       r.SenderAddress,
		PickupInstruction:   r.PickupInstruction,
		ReceiverName:        r.ReceiverName,
		ReceiverContact:     r.ReceiverContact,
		ReceiverRegion:      r.ReceiverRegion,
		ReceiverCenter:      r.ReceiverCenter,
		ReceiverAddress:     r.ReceiverAddress,
		DeliveryInstruction: r.DeliveryInstruction,
		CreationDate:        createdAt,
	}
}

type CreateResponse struct {
	InsertedID string `json:"insertedId"`
	TrackingID string `json:"trackingId"`
}

type AssignRiderRequest struct {
	RiderID    string `json:"riderId" validate:"required"`
	RiderEmail string `json:"riderEmail" validate:"omitempty,email"`
	RiderName  string `json:"riderName" validate:"omitempty,max=255"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=in-transit delivered"`
}

// CompletedParcel is a delivered parcel together with the rider's earning for it
type CompletedParcel struct {
	parcelModel.Parcel `bson:",inline"`
	Earning            float64 `json:"earning"`
}

// WaybillDraft is what the image parser extracts from a photographed waybill.
// Every field is optional; the client fills the rest before submitting.
type WaybillDraft struct {
	Title           string  `json:"title"`
	ParcelType      string  `json:"parcel_type"`
	Weight          float64 `json:"weight"`
	SenderName      string  `json:"sender_name"`
	SenderContact   string  `json:"sender_contact"`
	SenderRegion    string  `json:"sender_region"`
	SenderCenter    string  `json:"sender_center"`
	SenderAddress   string  `json:"sender_address"`
	ReceiverName    string  `json:"receiver_name"`
	ReceiverContact string  `json:"receiver_contact"`
	ReceiverRegion  string  `json:"receiver_region"`
	ReceiverCenter  string  `json:"receiver_center"`
	ReceiverAddress string  `json:"receiver_address"`
}
