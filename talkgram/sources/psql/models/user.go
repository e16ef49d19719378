package models

import "time"

// User is one record per signed-in person, keyed by the identity provider's
// opaque UID. Credits gate conversation starts and may reach zero.
type User struct {
	UID           string    `json:"uid" gorm:"primaryKey;type:varchar(128)"`
	Name          string    `json:"name" gorm:"type:varchar(255);not null"`
	Email         string    `json:"email" gorm:"type:varchar(255);not null"`
	PhotoURL      *string   `json:"photo_url,omitempty" gorm:"type:varchar(512)"`
	Credits       int       `json:"credits" gorm:"not null;default:0"`
	Role          string    `json:"role" gorm:"type:varchar(32);not null;default:user"`
	ReferredBy    *string   `json:"referred_by,omitempty" gorm:"type:varchar(128)"`
	BonusReceived bool      `json:"bonus_received" gorm:"not null;default:false"`
	HasPurchased  bool      `json:"has_purchased" gorm:"not null;default:false"`
	CreatedAt     time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}
