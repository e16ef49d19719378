package controllers

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"talkgram/talkgram/config"
	"talkgram/talkgram/sources/psql/dao"
	"talkgram/talkgram/utils/logging"
	"talkgram/talkgram/utils/types"
)

type AuthController struct {
	userDAO     *dao.UserDAO
	referralDAO *dao.ReferralDAO
	cfg         config.Config
}

func NewAuthController(userDAO *dao.UserDAO, referralDAO *dao.ReferralDAO, cfg config.Config) *AuthController {
	return &AuthController{
		userDAO:     userDAO,
		referralDAO: referralDAO,
		cfg:         cfg,
	}
}

// Login upserts the user record from the external sign-in profile and issues
// a session token. First sign-in seeds the starting credit balance and, when
// a referrer is named, records the referral.
func (c *AuthController) Login(ctx context.Context, req types.LoginRequest) (string, error) {
	if req.UID == "" {
		return "", ErrMissingUID
	}

	user, created, err := c.userDAO.EnsureUser(ctx,
		req.UID, req.Name, req.Email, req.PhotoURL, req.ReferredBy,
		c.cfg.StartingCredits)
	if err != nil {
		return "", err
	}

	if created && req.ReferredBy != nil && *req.ReferredBy != "" {
		if _, err := c.referralDAO.CreateReferral(ctx, *req.ReferredBy, user.UID); err != nil {
			// login still succeeds; the referral is bookkeeping
			logging.ErrorLogger.Error("failed to record referral",
				zap.String("uid", user.UID), zap.Error(err))
		}
	}

	claims := jwt.MapClaims{
		"uid": user.UID,
		"exp": time.Now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(c.cfg.JWTSecret))
}
