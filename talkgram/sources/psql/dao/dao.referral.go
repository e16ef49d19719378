package dao

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"talkgram/talkgram/sources/psql/models"
)

type ReferralDAO struct {
	DB *gorm.DB
}

func NewReferralDAO(db *gorm.DB) *ReferralDAO {
	return &ReferralDAO{DB: db}
}

func (dao *ReferralDAO) CreateReferral(ctx context.Context, referrerID, referredID string) (*models.Referral, error) {
	ref := models.Referral{
		ID:         uuid.New(),
		ReferrerID: referrerID,
		ReferredID: referredID,
	}
	if err := dao.DB.WithContext(ctx).Create(&ref).Error; err != nil {
		return nil, err
	}
	return &ref, nil
}

func (dao *ReferralDAO) GetReferralsByReferrer(ctx context.Context, referrerID string) ([]models.Referral, error) {
	var refs []models.Referral
	err := dao.DB.WithContext(ctx).
		Where("referrer_id = ?", referrerID).
		Order("created_at ASC").
		Find(&refs).Error
	if err != nil {
		return nil, err
	}
	return refs, nil
}
