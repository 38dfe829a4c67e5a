package rider

import (
	"time"
)

// Rider is a rider application. Status is decided by an admin, WorkStatus
// follows the rider through assignments.
type Rider struct {
	ID               string     `gorm:"primaryKey;type:varchar(64)" bson:"_id" json:"_id"`
	Name             string     `gorm:"type:varchar(255);not null" bson:"name" json:"name"`
	Email            string     `gorm:"type:varchar(255);not null;uniqueIndex" bson:"email" json:"email"`
	Age              int        `gorm:"type:int" bson:"age" json:"age"`
	Phone            string     `gorm:"type:varchar(30)" bson:"phone" json:"phone"`
	NID              string     `gorm:"column:nid;type:varchar(50)" bson:"nid" json:"nid"`
	Region           string     `gorm:"type:varchar(100);index" bson:"region" json:"region"`
	District         string     `gorm:"type:varchar(100);index" bson:"district" json:"district"`
	BikeBrand        string     `gorm:"type:varchar(100)" bson:"bike_brand" json:"bike_brand"`
	BikeRegistration string     `gorm:"type:varchar(100)" bson:"bike_registration" json:"bike_registration"`
	AdditionalInfo   string     `gorm:"type:text" bson:"additional_info,omitempty" json:"additional_info,omitempty"`
	Status           string     `gorm:"type:varchar(20);not null;index" bson:"status" json:"status"`
	WorkStatus       string     `gorm:"type:varchar(20);index" bson:"work_status,omitempty" json:"work_status,omitempty"`
	CurrentParcelID  string     `gorm:"type:varchar(64)" bson:"current_parcel_id,omitempty" json:"current_parcel_id,omitempty"`
	CreatedAt        time.Time  `gorm:"column:created_at" bson:"created_at" json:"created_at"`
	ApprovedAt       *time.Time `bson:"approved_at,omitempty" json:"approved_at,omitempty"`
}

// TableName sets the table name for the Rider model
func (Rider) TableName() string {
	return "riders"
}
