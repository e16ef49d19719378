package models

import (
	"time"

	"github.com/google/uuid"
)

// Referral records who brought a new user in. The bonus payout itself is
// handled by a separate back-office flow.
type Referral struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ReferrerID string    `json:"referrer_id" gorm:"type:varchar(128);not null"`
	ReferredID string    `json:"referred_id" gorm:"type:varchar(128);not null"`
	BonusPaid  bool      `json:"bonus_paid" gorm:"not null;default:false"`
	CreatedAt  time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}
