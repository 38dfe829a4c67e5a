package log

import (
	"time"
)

// Log represents an HTTP request/response log entry.
type Log struct {
	ID              string    `gorm:"primaryKey;type:varchar(64)" bson:"_id" json:"id"`
	Method          string    `gorm:"type:varchar(10);not null" bson:"method" json:"method"`
	URL             string    `gorm:"type:text;not null" bson:"url" json:"url"`
	RequestBody     string    `gorm:"type:text" bson:"request_body" json:"request_body"`
	RequestHeaders  string    `gorm:"type:text" bson:"request_headers" json:"request_headers"`
	ResponseBody    string    `gorm:"type:text" bson:"response_body" json:"response_body"`
	ResponseHeaders string    `gorm:"type:text" bson:"response_headers" json:"response_headers"`
	StatusCode      int       `gorm:"type:int" bson:"status_code" json:"status_code"`
	UserEmail       string    `gorm:"type:varchar(255)" bson:"user_email,omitempty" json:"user_email,omitempty"`
	CreatedAt       time.Time `gorm:"autoCreateTime" bson:"created_at" json:"created_at"`
}
