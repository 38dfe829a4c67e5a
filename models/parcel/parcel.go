package parcel

import (
	"strings"
	"time"
)

// Parcel is a delivery order submitted by a user. Delivery, payment and
// cashout statuses move independently of each other.
type Parcel struct {
	ID         string `gorm:"primaryKey;type:varchar(64)" bson:"_id" json:"_id"`
	TrackingID string `gorm:"type:varchar(64);index" bson:"trackingId" json:"trackingId"`
	UserEmail  string `gorm:"type:varchar(255);not null;index" bson:"userEmail" json:"userEmail"`

	Title      string  `gorm:"type:varchar(255);not null" bson:"title" json:"title"`
	ParcelType string  `gorm:"type:varchar(50)" bson:"type" json:"type"` // document or non-document
	Weight     float64 `gorm:"type:decimal(10,2)" bson:"weight" json:"weight"`
	TotalCost  float64 `gorm:"type:decimal(10,2)" bson:"totalCost" json:"totalCost"`

	SenderName          string `gorm:"type:varchar(255)" bson:"sender_name" json:"sender_name"`
	SenderContact       string `gorm:"type:varchar(30)" bson:"sender_contact" json:"sender_contact"`
	SenderRegion        string `gorm:"type:varchar(100)" bson:"sender_region" json:"sender_region"`
	SenderCenter        string `gorm:"type:varchar(100)" bson:"sender_center" json:"sender_center"`
	SenderAddress       string `gorm:"type:text" bson:"sender_address" json:"sender_address"`
	PickupInstruction   string `gorm:"type:text" bson:"pickup_instruction" json:"pickup_instruction"`
	ReceiverName        string `gorm:"type:varchar(255)" bson:"receiver_name" json:"receiver_name"`
	ReceiverContact     string `gorm:"type:varchar(30)" bson:"receiver_contact" json:"receiver_contact"`
	ReceiverRegion      string `gorm:"type:varchar(100)" bson:"receiver_region" json:"receiver_region"`
	ReceiverCenter      string `gorm:"type:varchar(100)" bson:"receiver_center" json:"receiver_center"`
	ReceiverAddress     string `gorm:"type:text" bson:"receiver_address" json:"receiver_address"`
	DeliveryInstruction string `gorm:"type:text" bson:"delivery_instruction" json:"delivery_instruction"`

	DeliveryStatus string `gorm:"type:varchar(20);not null;index" bson:"delivery_status" json:"delivery_status"`
	PaymentStatus  string `gorm:"type:varchar(20);not null" bson:"payment_status" json:"payment_status"`
	CashoutStatus  string `gorm:"type:varchar(20);not null" bson:"cashout_status" json:"cashout_status"`

	AssignedRiderID    string `gorm:"type:varchar(64)" bson:"assignedRider,omitempty" json:"assignedRider,omitempty"`
	AssignedRiderEmail string `gorm:"type:varchar(255);index" bson:"assignedEmail,omitempty" json:"assignedEmail,omitempty"`
	AssignedRiderName  string `gorm:"type:varchar(255)" bson:"assignedRiderName,omitempty" json:"assignedRiderName,omitempty"`

	CreationDate       time.Time  `gorm:"not null;index" bson:"creation_date" json:"creation_date"`
	AssignedAt         *time.Time `bson:"assigned_at,omitempty" json:"assigned_at,omitempty"`
	PickedAt           *time.Time `bson:"picked_at,omitempty" json:"picked_at,omitempty"`
	DeliveredAt        *time.Time `bson:"delivered_at,omitempty" json:"delivered_at,omitempty"`
	PaidAt             *time.Time `bson:"paid_at,omitempty" json:"paid_at,omitempty"`
	CashoutRequestedAt *time.Time `bson:"cashout_requested_at,omitempty" json:"cashout_requested_at,omitempty"`
	CashedOutAt        *time.Time `bson:"cashed_out_at,omitempty" json:"cashed_out_at,omitempty"`
}

// TableName sets the table name for the Parcel model
func (Parcel) TableName() string {
	return "parcels"
}

// SameCenter reports whether pickup and drop-off are handled by one service center
func (p Parcel) SameCenter() bool {
	return normalize(p.SenderCenter) == normalize(p.ReceiverCenter)
}

// IsOwnedBy checks if the parcel was submitted by the given email
func (p Parcel) IsOwnedBy(email string) bool {
	return email != "" && normalize(p.UserEmail) == normalize(email)
}

// IsAssignedTo checks if the parcel is assigned to the rider with the given email
func (p Parcel) IsAssignedTo(email string) bool {
	return email != "" && normalize(p.AssignedRiderEmail) == normalize(email)
}

// StatusCount is one row of the delivery status breakdown
type StatusCount struct {
	Status string `bson:"_id" json:"status" gorm:"column:status"`
	Count  int64  `bson:"count" json:"count" gorm:"column:count"`
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
