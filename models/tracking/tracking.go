package tracking

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Tracking holds the status history of a single parcel, keyed by its tracking id
type Tracking struct {
	ID            string  `gorm:"primaryKey;type:varchar(64)" bson:"_id" json:"_id"`
	TrackingID    string  `gorm:"type:varchar(64);not null;uniqueIndex" bson:"trackingId" json:"trackingId"`
	ParcelID      string  `gorm:"type:varchar(64);index" bson:"parcelId" json:"parcelId"`
	UserEmail     string  `gorm:"type:varchar(255);index" bson:"userEmail" json:"userEmail"`
	CurrentStatus string  `gorm:"type:varchar(50)" bson:"currentStatus" json:"currentStatus"`
	History       History `gorm:"type:json" bson:"history" json:"history"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// TableName sets the table name for the Tracking model
func (Tracking) TableName() string {
	return "trackings"
}

// Event is one entry of the tracking history
type Event struct {
	Status    string    `bson:"status" json:"status"`
	Details   string    `bson:"details,omitempty" json:"details,omitempty"`
	Location  string    `bson:"location,omitempty" json:"location,omitempty"`
	UpdatedBy string    `bson:"updated_by,omitempty" json:"updated_by,omitempty"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// History is stored as a JSON column on PostgreSQL and as an array on MongoDB
type History []Event

// Scan implements the Scanner interface for database deserialization
func (h *History) Scan(value interface{}) error {
	if value == nil {
		*h = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("type assertion to []byte failed")
	}

	return json.Unmarshal(bytes, h)
}

// Value implements the driver Valuer interface for database serialization
func (h History) Value() (driver.Value, error) {
	if h == nil {
		return "[]", nil
	}
	b, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Latest returns the most recent event, if any
func (h History) Latest() (Event, bool) {
	if len(h) == 0 {
		return Event{}, false
	}
	return h[len(h)-1], true
}
