package entities

import (
	"time"
)

// AuthToken is the opaque bearer credential exchanged at login. A user owns at
// most one token; logging in again returns the existing key.
type AuthToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	Key       string    `gorm:"uniqueIndex;not null" json:"key"`
	CreatedAt time.Time `gorm:"type:timestamp" json:"created_at"`

	User *User `gorm:"foreignKey:UserID"`
}
