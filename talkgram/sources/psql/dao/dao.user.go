package dao

import (
	"context"

	"gorm.io/gorm"

	"talkgram/talkgram/sources/psql/models"
)

type UserDAO struct {
	DB *gorm.DB
}

func NewUserDAO(db *gorm.DB) *UserDAO {
	return &UserDAO{DB: db}
}

func (dao *UserDAO) GetUserByUID(ctx context.Context, uid string) (*models.User, error) {
	var user models.User
	err := dao.DB.WithContext(ctx).First(&user, "uid = ?", uid).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// EnsureUser provisions a record on first sign-in, seeding the starting
// credit balance. On later sign-ins it refreshes the profile fields and
// normalizes the role, leaving the balance alone.
func (dao *UserDAO) EnsureUser(ctx context.Context, uid, name, email string, photoURL, referredBy *string, startingCredits int) (*models.User, bool, error) {
	user, err := dao.GetUserByUID(ctx, uid)
	if err != nil {
		return nil, false, err
	}
	if user == nil {
		user = &models.User{
			UID:        uid,
			Name:       name,
			Email:      email,
			PhotoURL:   photoURL,
			Credits:    startingCredits,
			Role:       "user",
			ReferredBy: referredBy,
		}
		if err := dao.DB.WithContext(ctx).Create(user).Error; err != nil {
			return nil, false, err
		}
		return user, true, nil
	}

	if name != "" {
		user.Name = name
	}
	if email != "" {
		user.Email = email
	}
	if photoURL != nil {
		user.PhotoURL = photoURL
	}
	if user.Role != "superadmin" && user.Role != "admin" {
		user.Role = "user"
	}
	if err := dao.DB.WithContext(ctx).Save(user).Error; err != nil {
		return nil, false, err
	}
	return user, false, nil
}

// GetCredits treats a missing record as a zero balance.
func (dao *UserDAO) GetCredits(ctx context.Context, uid string) (int, error) {
	user, err := dao.GetUserByUID(ctx, uid)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, nil
	}
	return user.Credits, nil
}

// DecrementCredit subtracts one credit, unconditionally. The sufficient
// balance check happens at the caller, so two concurrent starts from the
// same user can both get through the check before either debit lands.
func (dao *UserDAO) DecrementCredit(ctx context.Context, uid string) error {
	return dao.DB.WithContext(ctx).
		Model(&models.User{}).
		Where("uid = ?", uid).
		UpdateColumn("credits", gorm.Expr("credits - ?", 1)).
		Error
}
