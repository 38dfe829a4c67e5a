package user

import (
	"time"
)

// User is created on the first sign-in and keyed by email
type User struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" bson:"_id" json:"_id"`
	Email     string    `gorm:"type:varchar(255);not null;uniqueIndex" bson:"email" json:"email"`
	Name      string    `gorm:"type:varchar(255)" bson:"name" json:"name"`
	Photo     string    `gorm:"type:varchar(2048)" bson:"photo" json:"photo"`
	Role      string    `gorm:"type:varchar(20);not null;default:user" bson:"role" json:"role"`
	CreatedAt time.Time `gorm:"column:created_at" bson:"created_at" json:"created_at"`
	LastLogin time.Time `gorm:"column:last_login" bson:"last_login" json:"last_login"`
}

// TableName sets the table name for the User model
func (User) TableName() string {
	return "users"
}
