package payment

import (
	"time"
)

// Payment is written once per captured payment and never updated
type Payment struct {
	ID                string    `gorm:"primaryKey;type:varchar(64)" bson:"_id" json:"_id"`
	ParcelID          string    `gorm:"type:varchar(64);not null;index" bson:"parcelId" json:"parcelId"`
	UserEmail         string    `gorm:"type:varchar(255);not null;index" bson:"userEmail" json:"userEmail"`
	Amount            float64   `gorm:"type:decimal(10,2);not null" bson:"amount" json:"amount"`
	PaymentID         string    `gorm:"type:varchar(255)" bson:"paymentId,omitempty" json:"paymentId,omitempty"`
	PaymentMethod     string    `gorm:"type:varchar(50)" bson:"paymentMethod" json:"paymentMethod"`
	TransactionID     string    `gorm:"type:varchar(255);not null" bson:"transactionId" json:"transactionId"`
	PaymentDate       time.Time `gorm:"not null;index" bson:"payment_date" json:"payment_date"`
	PaymentDateString string    `gorm:"type:varchar(64)" bson:"payment_date_string" json:"payment_date_string"`
}

// TableName sets the table name for the Payment model
func (Payment) TableName() string {
	return "payments"
}
